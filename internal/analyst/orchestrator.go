package analyst

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"prisma/internal/adapters/ai"
	"prisma/internal/metrics"
	"prisma/pkg/errors"
	"prisma/pkg/logger"
)

// State tracks where the tool loop currently is.
type State string

const (
	StateAwaitingModel  State = "awaiting_model"
	StateExecutingTools State = "executing_tools"
	StateDone           State = "done"
	StateFailed         State = "failed"
)

// Tool outputs larger than this get condensed before re-entering the
// conversation, otherwise one verbose listing response can eat the context.
const maxToolResultChars = 8000

// RunResult is the outcome of a completed tool loop.
type RunResult struct {
	Report     string
	Iterations int
	ToolCalls  int
	Usage      ai.Usage
	Elapsed    time.Duration
}

// Orchestrator drives the model through the tool-calling loop until it
// produces a final answer or hits the iteration cap.
type Orchestrator struct {
	provider      ai.ChatProvider
	registry      *Registry
	model         string
	summaryModel  string
	temperature   float64
	maxTokens     int
	maxIterations int

	state State
}

type OrchestratorOptions struct {
	Model         string
	SummaryModel  string
	Temperature   float64
	MaxTokens     int
	MaxIterations int
}

func NewOrchestrator(provider ai.ChatProvider, registry *Registry, opts OrchestratorOptions) *Orchestrator {
	if opts.MaxIterations <= 0 {
		opts.MaxIterations = 15
	}
	if opts.MaxTokens <= 0 {
		opts.MaxTokens = 4096
	}
	return &Orchestrator{
		provider:      provider,
		registry:      registry,
		model:         opts.Model,
		summaryModel:  opts.SummaryModel,
		temperature:   opts.Temperature,
		maxTokens:     opts.MaxTokens,
		maxIterations: opts.MaxIterations,
		state:         StateAwaitingModel,
	}
}

func (o *Orchestrator) State() State { return o.state }

// Run executes the loop over an already seeded conversation.
func (o *Orchestrator) Run(ctx context.Context, conv *Conversation) (*RunResult, error) {
	started := time.Now()
	result := &RunResult{}
	tools := o.registry.Definitions()

	for iter := 0; iter < o.maxIterations; iter++ {
		o.state = StateAwaitingModel
		result.Iterations = iter + 1

		resp, err := o.provider.Chat(ctx, ai.ChatRequest{
			Model:       o.model,
			Messages:    conv.Messages(),
			Tools:       tools,
			Temperature: o.temperature,
			MaxTokens:   o.maxTokens,
		})
		if err != nil {
			o.state = StateFailed
			return nil, errors.Wrapf(err, "model call on iteration %d", iter+1)
		}
		accumulateUsage(&result.Usage, resp.Usage)

		if len(resp.Choices) == 0 {
			o.state = StateFailed
			return nil, errors.Wrap(errors.ErrModelEmptyResponse, "no choices returned")
		}
		choice := resp.Choices[0]
		conv.Add(choice.Message)

		if choice.FinishReason != ai.FinishReasonToolCalls || len(choice.Message.ToolCalls) == 0 {
			if choice.Message.Content == "" {
				o.state = StateFailed
				return nil, errors.Wrap(errors.ErrModelEmptyResponse, "final answer")
			}
			o.state = StateDone
			result.Report = choice.Message.Content
			result.Elapsed = time.Since(started)
			return result, nil
		}

		o.state = StateExecutingTools
		for _, call := range choice.Message.ToolCalls {
			result.ToolCalls++
			content := o.executeToolCall(ctx, call)
			if len(content) > maxToolResultChars {
				content = o.condense(ctx, call.Function.Name, content)
			}
			conv.AddToolResult(call.ID, call.Function.Name, content)
		}
	}

	// Cap reached. Give the model one last completion with tools disabled so
	// it has to commit to an answer with whatever it has gathered.
	logger.Warnf("analysis loop hit iteration cap (%d), forcing final answer", o.maxIterations)

	resp, err := o.provider.Chat(ctx, ai.ChatRequest{
		Model:       o.model,
		Messages:    conv.Messages(),
		Temperature: o.temperature,
		MaxTokens:   o.maxTokens,
	})
	if err != nil {
		o.state = StateFailed
		return nil, errors.Wrap(errors.ErrIterationCapReached, err.Error())
	}
	accumulateUsage(&result.Usage, resp.Usage)

	if len(resp.Choices) == 0 {
		o.state = StateFailed
		return nil, errors.Wrap(errors.ErrIterationCapReached, "model produced no final answer")
	}
	final := resp.Choices[0].Message
	conv.Add(final)
	if final.Content == "" {
		o.state = StateFailed
		return nil, errors.Wrap(errors.ErrIterationCapReached, "model produced no final answer")
	}

	o.state = StateDone
	result.Report = final.Content
	result.Elapsed = time.Since(started)
	return result, nil
}

// executeToolCall always produces a tool message, errors included, so the
// model can react instead of the loop dying mid-run.
func (o *Orchestrator) executeToolCall(ctx context.Context, call ai.ToolCall) string {
	tool, err := o.registry.Get(call.Function.Name)
	if err != nil {
		logger.Warnf("model requested unknown tool %q", call.Function.Name)
		metrics.ToolExecutions.WithLabelValues(call.Function.Name, "error").Inc()
		return toolErrorPayload(fmt.Sprintf("ferramenta desconhecida: %s", call.Function.Name))
	}

	started := time.Now()
	output, err := tool.Execute(ctx, json.RawMessage(call.Function.Arguments))
	metrics.ToolLatency.WithLabelValues(call.Function.Name).Observe(time.Since(started).Seconds())
	if err != nil {
		logger.Warnf("tool %s failed: %v", call.Function.Name, err)
		metrics.ToolExecutions.WithLabelValues(call.Function.Name, "error").Inc()
		return toolErrorPayload(err.Error())
	}
	metrics.ToolExecutions.WithLabelValues(call.Function.Name, "success").Inc()

	encoded, err := json.Marshal(output)
	if err != nil {
		return toolErrorPayload(fmt.Sprintf("falha ao serializar resultado: %v", err))
	}
	return string(encoded)
}

// condense asks the cheaper model to shrink an oversized tool result. On any
// failure it falls back to hard truncation.
func (o *Orchestrator) condense(ctx context.Context, toolName, content string) string {
	if o.summaryModel == "" {
		return content[:maxToolResultChars]
	}

	resp, err := o.provider.Chat(ctx, ai.ChatRequest{
		Model: o.summaryModel,
		Messages: []ai.Message{
			{Role: ai.RoleSystem, Content: "Resuma o resultado da ferramenta abaixo preservando todos os números, preços e nomes relevantes. Responda apenas com o resumo."},
			{Role: ai.RoleUser, Content: fmt.Sprintf("Resultado da ferramenta %s:\n%s", toolName, content)},
		},
		Temperature: 0,
		MaxTokens:   1024,
	})
	if err != nil || len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
		logger.Warnf("tool result condensation failed for %s: %v", toolName, err)
		return content[:maxToolResultChars]
	}
	return resp.Choices[0].Message.Content
}

func toolErrorPayload(message string) string {
	encoded, _ := json.Marshal(map[string]string{"error": message})
	return string(encoded)
}

func accumulateUsage(total *ai.Usage, delta ai.Usage) {
	total.PromptTokens += delta.PromptTokens
	total.CompletionTokens += delta.CompletionTokens
	total.TotalTokens += delta.TotalTokens
}
