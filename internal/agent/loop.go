// Package agent implements the core agent loop: it turns one user
// message into a sequence of tool calls against the media server and a
// final natural-language answer.
package agent

import (
	"context"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/s0up4200/seerr-bot/internal/llm"
	"github.com/s0up4200/seerr-bot/internal/prompts"
	"github.com/s0up4200/seerr-bot/internal/tools"
)

// DefaultMaxIterations bounds the tool-call round trips in one run. A
// model stuck re-calling a tool with unusable arguments terminates here
// instead of looping forever.
const DefaultMaxIterations = 10

// Loop drives conversations to completion against the completion
// endpoint and the tool registry.
type Loop struct {
	logger        *slog.Logger
	llm           llm.Client
	registry      *tools.Registry
	model         string
	maxIterations int
}

// NewLoop creates a new agent loop. maxIterations <= 0 selects the
// default cap.
func NewLoop(client llm.Client, registry *tools.Registry, model string, maxIterations int, logger *slog.Logger) *Loop {
	if maxIterations <= 0 {
		maxIterations = DefaultMaxIterations
	}
	return &Loop{
		logger:        logger,
		llm:           client,
		registry:      registry,
		model:         model,
		maxIterations: maxIterations,
	}
}

// Result is the outcome of one agent run.
type Result struct {
	// Text is the final user-facing answer. Always non-empty, even on
	// abort: failures produce a fixed fallback string.
	Text string

	// Conversation is the full ordered turn history after this run,
	// including partial turns accumulated before an abort. Callers
	// persist it as the next run's prior state.
	Conversation []llm.Message

	// Iterations counts the completion round trips consumed.
	Iterations int

	// Aborted reports whether the run ended by failure or iteration
	// cap rather than a model-produced final answer.
	Aborted bool
}

// Process runs one user message to completion. prior is the
// conversation accumulated from earlier runs for this user, or nil for
// a fresh conversation. The returned conversation always extends prior
// by appending; earlier turns are never removed or reordered, since the
// completion endpoint is stateless and rebuilds context from the full
// replayed history each call.
//
// Tool failures never abort the run; they come back as readable tool
// results the model can react to. Only a completion-endpoint failure or
// the iteration cap aborts, and even then the partial conversation is
// returned so the next turn does not silently start from nothing.
func (l *Loop) Process(ctx context.Context, userID, text string, prior []llm.Message) *Result {
	requestID := uuid.NewString()
	logger := l.logger.With("request_id", requestID, "user_id", userID)

	conversation := make([]llm.Message, 0, len(prior)+4)
	conversation = append(conversation, prior...)
	conversation = append(conversation, llm.Message{Role: "user", Content: text})

	logger.Info("agent run started", "prior_turns", len(prior))

	messages := func() []llm.Message {
		withSystem := make([]llm.Message, 0, len(conversation)+1)
		withSystem = append(withSystem, llm.Message{Role: "system", Content: prompts.System})
		return append(withSystem, conversation...)
	}

	for iteration := 1; iteration <= l.maxIterations; iteration++ {
		resp, err := l.llm.Chat(ctx, l.model, messages(), l.registry.List())
		if err != nil {
			logger.Error("completion call failed", "iteration", iteration, "error", err)
			return &Result{
				Text:         prompts.CompletionFailureApology,
				Conversation: conversation,
				Iterations:   iteration,
				Aborted:      true,
			}
		}

		if len(resp.Message.ToolCalls) == 0 {
			finalText := strings.TrimSpace(resp.Message.Content)
			if finalText == "" {
				logger.Warn("model produced no content", "iteration", iteration, "stop_reason", resp.StopReason)
				finalText = prompts.EmptyResponseFallback
			}
			conversation = append(conversation, llm.Message{Role: "assistant", Content: finalText})
			logger.Info("agent run completed",
				"iterations", iteration,
				"turns", len(conversation),
				"input_tokens", resp.InputTokens,
				"output_tokens", resp.OutputTokens,
			)
			return &Result{
				Text:         finalText,
				Conversation: conversation,
				Iterations:   iteration,
			}
		}

		// The assistant turn and its tool results are appended
		// together so the replayed history always pairs every
		// invocation ID with a result.
		conversation = append(conversation, resp.Message)

		for _, call := range resp.Message.ToolCalls {
			logger.Debug("executing tool", "iteration", iteration, "tool", call.Name)
			result := l.registry.Execute(ctx, call.Name, call.Arguments)
			conversation = append(conversation, llm.Message{
				Role:       "tool",
				Content:    result,
				ToolCallID: call.ID,
			})
		}
	}

	logger.Warn("iteration cap reached", "cap", l.maxIterations)
	return &Result{
		Text:         prompts.IterationLimitFallback,
		Conversation: conversation,
		Iterations:   l.maxIterations,
		Aborted:      true,
	}
}
