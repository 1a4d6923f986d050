package analyst

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"prisma/internal/adapters/ai"
	"prisma/pkg/errors"
)

// scriptedProvider plays back canned responses, one per Chat call.
type scriptedProvider struct {
	responses []*ai.ChatResponse
	requests  []ai.ChatRequest
	calls     int
}

func (p *scriptedProvider) Name() string { return "scripted" }

func (p *scriptedProvider) GetModel(ctx context.Context, model string) (ai.ModelInfo, error) {
	return ai.ModelInfo{Name: model}, nil
}

func (p *scriptedProvider) ListModels(ctx context.Context) ([]ai.ModelInfo, error) {
	return nil, nil
}

func (p *scriptedProvider) SupportsTools() bool { return true }

func (p *scriptedProvider) Chat(ctx context.Context, req ai.ChatRequest) (*ai.ChatResponse, error) {
	p.requests = append(p.requests, req)
	if p.calls >= len(p.responses) {
		resp := p.responses[len(p.responses)-1]
		p.calls++
		return resp, nil
	}
	resp := p.responses[p.calls]
	p.calls++
	return resp, nil
}

func textResponse(content string) *ai.ChatResponse {
	return &ai.ChatResponse{
		Choices: []ai.Choice{{
			Message:      ai.Message{Role: ai.RoleAssistant, Content: content},
			FinishReason: ai.FinishReasonStop,
		}},
	}
}

func toolCallResponse(id, name, args string) *ai.ChatResponse {
	return &ai.ChatResponse{
		Choices: []ai.Choice{{
			Message: ai.Message{
				Role: ai.RoleAssistant,
				ToolCalls: []ai.ToolCall{{
					ID:       id,
					Type:     "function",
					Function: ai.FunctionCall{Name: name, Arguments: args},
				}},
			},
			FinishReason: ai.FinishReasonToolCalls,
		}},
	}
}

func echoRegistry(t *testing.T) *Registry {
	t.Helper()
	registry := NewRegistry()
	err := registry.Register(NewFunctionTool("echo", "echoes args", nil,
		func(ctx context.Context, args json.RawMessage) (interface{}, error) {
			return map[string]string{"echoed": string(args)}, nil
		}))
	require.NoError(t, err)
	return registry
}

func seededConversation() *Conversation {
	conv := NewConversation(0)
	conv.AddSystem("analista")
	conv.AddUser("analise o mercado")
	return conv
}

func TestOrchestratorToolCallThenAnswer(t *testing.T) {
	provider := &scriptedProvider{responses: []*ai.ChatResponse{
		toolCallResponse("call_1", "echo", `{"q":"precos"}`),
		textResponse("## Diagnóstico Geral\nDemanda ALTA."),
	}}

	orch := NewOrchestrator(provider, echoRegistry(t), OrchestratorOptions{Model: "gpt-4o"})
	result, err := orch.Run(context.Background(), seededConversation())
	require.NoError(t, err)

	assert.Equal(t, StateDone, orch.State())
	assert.Contains(t, result.Report, "Demanda ALTA")
	assert.Equal(t, 2, result.Iterations)
	assert.Equal(t, 1, result.ToolCalls)

	// The tool result must have made it back into the second request.
	second := provider.requests[1]
	var sawToolMsg bool
	for _, msg := range second.Messages {
		if msg.Role == ai.RoleTool && msg.ToolCallID == "call_1" {
			sawToolMsg = true
			assert.Contains(t, msg.Content, "precos")
		}
	}
	assert.True(t, sawToolMsg)
}

func TestOrchestratorIterationCapForcesFinalAnswer(t *testing.T) {
	// The model keeps asking for tools forever; the loop must cut it off and
	// demand a plain answer.
	looping := toolCallResponse("call_n", "echo", `{}`)
	provider := &scriptedProvider{responses: []*ai.ChatResponse{looping, looping, looping, textResponse("resposta final")}}

	orch := NewOrchestrator(provider, echoRegistry(t), OrchestratorOptions{Model: "gpt-4o", MaxIterations: 3})
	result, err := orch.Run(context.Background(), seededConversation())
	require.NoError(t, err)

	assert.Equal(t, "resposta final", result.Report)
	assert.Equal(t, StateDone, orch.State())
	require.Len(t, provider.requests, 4)

	// The forced final request must carry no tool definitions.
	assert.Empty(t, provider.requests[3].Tools)
	for _, req := range provider.requests[:3] {
		assert.NotEmpty(t, req.Tools)
	}
}

func TestOrchestratorUnknownToolFeedsErrorBack(t *testing.T) {
	provider := &scriptedProvider{responses: []*ai.ChatResponse{
		toolCallResponse("call_1", "no_such_tool", `{}`),
		textResponse("sem dados"),
	}}

	orch := NewOrchestrator(provider, echoRegistry(t), OrchestratorOptions{Model: "gpt-4o"})
	_, err := orch.Run(context.Background(), seededConversation())
	require.NoError(t, err)

	second := provider.requests[1]
	last := second.Messages[len(second.Messages)-1]
	assert.Equal(t, ai.RoleTool, last.Role)
	assert.Contains(t, last.Content, "ferramenta desconhecida")
}

func TestOrchestratorEmptyFinalAnswer(t *testing.T) {
	provider := &scriptedProvider{responses: []*ai.ChatResponse{textResponse("")}}

	orch := NewOrchestrator(provider, echoRegistry(t), OrchestratorOptions{Model: "gpt-4o"})
	_, err := orch.Run(context.Background(), seededConversation())
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrModelEmptyResponse))
	assert.Equal(t, StateFailed, orch.State())
}

func TestConversationCompressionKeepsRecentMessages(t *testing.T) {
	conv := NewConversation(50)
	conv.AddSystem("persona")
	for i := 0; i < 30; i++ {
		conv.AddUser(strings.Repeat("dados de mercado ", 5))
	}

	msgs := conv.Messages()
	require.Less(t, len(msgs), 31)
	assert.Equal(t, ai.RoleSystem, msgs[0].Role)

	var sawSummary bool
	for _, msg := range msgs {
		if strings.Contains(msg.Content, "[HISTÓRICO COMPRIMIDO]") {
			sawSummary = true
		}
	}
	assert.True(t, sawSummary)
}

func TestConversationIsComplete(t *testing.T) {
	conv := seededConversation()
	assert.False(t, conv.IsComplete())

	conv.Add(ai.Message{Role: ai.RoleAssistant, ToolCalls: []ai.ToolCall{{ID: "x"}}})
	assert.False(t, conv.IsComplete())

	conv.Add(ai.Message{Role: ai.RoleAssistant, Content: "pronto"})
	assert.True(t, conv.IsComplete())
}
