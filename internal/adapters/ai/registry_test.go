package ai

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"
)

func TestRegistryRegisterAndGet(t *testing.T) {
	registry := NewProviderRegistry()
	mock := &mockProvider{models: []ModelInfo{{Name: "alpha"}}}
	if err := registry.Register(mock); err != nil {
		t.Fatalf("failed to register provider: %v", err)
	}

	if err := registry.Register(mock); err == nil {
		t.Fatal("expected error on duplicate registration")
	}

	got, err := registry.Get("mock")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Name() != "mock" {
		t.Fatalf("expected mock provider, got %s", got.Name())
	}

	if _, err := registry.Get("missing"); err == nil {
		t.Fatal("expected error for missing provider")
	}
}

func TestRegistryGetChatRejectsNonChatProvider(t *testing.T) {
	registry := NewProviderRegistry()
	if err := registry.Register(&mockProvider{}); err != nil {
		t.Fatalf("failed to register provider: %v", err)
	}

	if _, err := registry.GetChat("mock"); err == nil {
		t.Fatal("expected error for provider without chat support")
	}
}

func TestOpenAIProviderExposesModels(t *testing.T) {
	ctx := context.Background()
	provider := NewOpenAIProvider("key", "", 30*time.Second, nil)

	models, err := provider.ListModels(ctx)
	if err != nil {
		t.Fatalf("list models failed: %v", err)
	}
	if len(models) == 0 {
		t.Fatal("expected models for openai")
	}

	// Case-insensitive lookup
	info, err := provider.GetModel(ctx, strings.ToUpper(models[0].Name))
	if err != nil {
		t.Fatalf("get model failed: %v", err)
	}
	if info.Name != models[0].Name {
		t.Fatalf("expected %s, got %s", models[0].Name, info.Name)
	}

	if !provider.SupportsTools() {
		t.Fatal("expected tool support for openai")
	}

	if _, err := provider.GetModel(ctx, "missing-model"); err == nil {
		t.Fatal("expected error for missing model")
	}
}

type mockProvider struct {
	models []ModelInfo
}

func (m *mockProvider) Name() string { return "mock" }
func (m *mockProvider) GetModel(_ context.Context, model string) (ModelInfo, error) {
	for _, item := range m.models {
		if item.Name == model {
			return item, nil
		}
	}
	return ModelInfo{}, fmt.Errorf("not found")
}
func (m *mockProvider) ListModels(_ context.Context) ([]ModelInfo, error) { return m.models, nil }
func (m *mockProvider) SupportsTools() bool                               { return true }
