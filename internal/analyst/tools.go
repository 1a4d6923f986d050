package analyst

import (
	"context"
	"encoding/json"
	"sync"

	"prisma/internal/adapters/ai"
	"prisma/pkg/errors"
)

// Tool is a capability the analyst model can invoke during a run.
type Tool interface {
	Name() string
	Description() string
	// Parameters returns the JSON schema for the tool arguments.
	Parameters() map[string]interface{}
	Execute(ctx context.Context, args json.RawMessage) (interface{}, error)
}

// HandlerFunc is the signature of a tool implementation.
type HandlerFunc func(ctx context.Context, args json.RawMessage) (interface{}, error)

// FunctionTool wraps a plain function as a Tool.
type FunctionTool struct {
	name        string
	description string
	parameters  map[string]interface{}
	handler     HandlerFunc
}

func NewFunctionTool(name, description string, parameters map[string]interface{}, handler HandlerFunc) *FunctionTool {
	if parameters == nil {
		parameters = map[string]interface{}{"type": "object", "properties": map[string]interface{}{}}
	}
	return &FunctionTool{
		name:        name,
		description: description,
		parameters:  parameters,
		handler:     handler,
	}
}

func (t *FunctionTool) Name() string                       { return t.name }
func (t *FunctionTool) Description() string                { return t.description }
func (t *FunctionTool) Parameters() map[string]interface{} { return t.parameters }

func (t *FunctionTool) Execute(ctx context.Context, args json.RawMessage) (interface{}, error) {
	return t.handler(ctx, args)
}

// Registry manages the tools available to a run.
type Registry struct {
	mu    sync.RWMutex
	tools map[string]Tool
}

func NewRegistry() *Registry {
	return &Registry{tools: make(map[string]Tool)}
}

func (r *Registry) Register(tool Tool) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.tools[tool.Name()]; exists {
		return errors.Newf("tool %s already registered", tool.Name())
	}
	r.tools[tool.Name()] = tool
	return nil
}

func (r *Registry) Get(name string) (Tool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	tool, exists := r.tools[name]
	if !exists {
		return nil, errors.Wrapf(errors.ErrUnknownTool, "%s", name)
	}
	return tool, nil
}

func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.tools))
	for name := range r.tools {
		names = append(names, name)
	}
	return names
}

// Definitions renders every registered tool in the wire format the chat
// providers expect.
func (r *Registry) Definitions() []ai.ToolDefinition {
	r.mu.RLock()
	defer r.mu.RUnlock()

	defs := make([]ai.ToolDefinition, 0, len(r.tools))
	for _, tool := range r.tools {
		defs = append(defs, ai.ToolDefinition{
			Type: "function",
			Function: ai.FunctionDefinition{
				Name:        tool.Name(),
				Description: tool.Description(),
				Parameters:  tool.Parameters(),
			},
		})
	}
	return defs
}
