// Package bodhikit implements an approval-gated tool-calling runtime for the
// Buddhist agent builder assistant.
package bodhikit

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/sanghalabs/bodhikit/internal/logging"
	"github.com/sanghalabs/bodhikit/internal/retry"
	"github.com/sanghalabs/bodhikit/internal/timeout"
	"github.com/sanghalabs/bodhikit/providers"
)

// Type aliases for internal package types
type (
	RetryConfig   = retry.RetryConfig
	TimeoutConfig = timeout.TimeoutConfig
	LoggingConfig = logging.LoggingConfig
)

// Function re-exports for convenience
var (
	DefaultRetryConfig   = retry.DefaultRetryConfig
	DefaultTimeoutConfig = timeout.DefaultTimeoutConfig
	DefaultLoggingConfig = logging.DefaultLoggingConfig
)

const (
	defaultModel         = "gpt-4o-mini"
	defaultMaxIterations = 5
	defaultMessageBuffer = 16
)

// TurnState tracks the lifecycle of a single conversation turn.
type TurnState string

const (
	TurnStateGenerating       TurnState = "generating"
	TurnStateAwaitingApproval TurnState = "awaiting_approval"
	TurnStateDone             TurnState = "done"
	TurnStateErrored          TurnState = "errored"
)

// SystemPromptFunc builds the system prompt for a turn.
type SystemPromptFunc func(lang Language) string

// Config configures a Builder.
type Config struct {
	Provider providers.Provider

	// Model defaults to gpt-4o-mini.
	Model string

	Temperature float32

	// MaxIterations bounds the generate/execute loop per turn. Defaults to 5.
	MaxIterations int

	// Language is the default locale when a request does not set one.
	Language Language

	SystemPrompt SystemPromptFunc

	Registry *Registry
	Gateway  *Gateway
	Resolver *Resolver

	Logging  LoggingConfig
	Timeouts TimeoutConfig
	Retry    RetryConfig
}

// ChatRequest is one inbound turn: either a message history to continue, or
// an approval verdict to resolve. A verdict takes precedence and the message
// history is ignored for that turn.
type ChatRequest struct {
	Messages         []providers.Message `json:"messages"`
	ApprovalResponse *ApprovalResponse   `json:"approval_response,omitempty"`
	Language         Language            `json:"language,omitempty"`
}

// Builder is the conversational runtime. Each Chat call runs one turn:
// streaming assistant text, executing pass-through tools inline, and
// suspending the turn when a sensitive tool needs approval.
type Builder struct {
	provider      providers.Provider
	model         string
	temperature   float32
	maxIterations int
	language      Language
	systemPrompt  SystemPromptFunc

	registry *Registry
	gateway  *Gateway
	resolver *Resolver

	logger   *slog.Logger
	timeouts TimeoutConfig
	retry    RetryConfig
	tracer   trace.Tracer
	mux      Mux
}

// NewBuilder creates the runtime from its wired collaborators.
func NewBuilder(cfg Config) (*Builder, error) {
	if cfg.Provider == nil {
		return nil, fmt.Errorf("bodhikit: provider is required")
	}
	if cfg.Registry == nil {
		return nil, fmt.Errorf("bodhikit: registry is required")
	}
	if cfg.Gateway == nil {
		return nil, fmt.Errorf("bodhikit: gateway is required")
	}
	if cfg.Resolver == nil {
		return nil, fmt.Errorf("bodhikit: resolver is required")
	}

	model := cfg.Model
	if model == "" {
		model = defaultModel
	}
	maxIterations := cfg.MaxIterations
	if maxIterations <= 0 {
		maxIterations = defaultMaxIterations
	}

	return &Builder{
		provider:      cfg.Provider,
		model:         model,
		temperature:   cfg.Temperature,
		maxIterations: maxIterations,
		language:      cfg.Language.Normalize(),
		systemPrompt:  cfg.SystemPrompt,
		registry:      cfg.Registry,
		gateway:       cfg.Gateway,
		resolver:      cfg.Resolver,
		logger:        logging.ResolveLogger(cfg.Logging),
		timeouts:      cfg.Timeouts,
		retry:         cfg.Retry,
		tracer:        otel.Tracer("bodhikit"),
	}, nil
}

// Chat runs one turn and streams outbound messages on the returned channel.
// The channel closes when the turn reaches a terminal state. After an
// approval_request message nothing else is sent for that turn.
func (b *Builder) Chat(ctx context.Context, req ChatRequest) <-chan *Message {
	out := make(chan *Message, defaultMessageBuffer)
	go func() {
		defer close(out)

		if b.timeouts.AgentExecution > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, b.timeouts.AgentExecution)
			defer cancel()
		}

		lang := req.Language.Normalize()
		if req.Language == "" {
			lang = b.language
		}

		ctx, span := b.tracer.Start(ctx, "builder.chat",
			trace.WithAttributes(
				attribute.String("model", b.model),
				attribute.String("language", string(lang)),
			))
		defer span.End()

		state := b.runTurn(ctx, req, lang, out)
		span.SetAttributes(attribute.String("turn.state", string(state)))
	}()
	return out
}

func (b *Builder) runTurn(ctx context.Context, req ChatRequest, lang Language, out chan<- *Message) TurnState {
	// An approval verdict resumes a suspended turn; it never triggers
	// generation of its own.
	if req.ApprovalResponse != nil {
		for _, msg := range b.resolver.Resolve(ctx, req.ApprovalResponse, lang) {
			b.send(ctx, out, msg)
		}
		return TurnStateDone
	}

	if len(req.Messages) == 0 {
		b.emit(ctx, out, AssistantFinal(Greeting(lang), nil))
		return TurnStateDone
	}

	history := make([]providers.Message, len(req.Messages))
	copy(history, req.Messages)

	systemPrompt := ""
	if b.systemPrompt != nil {
		systemPrompt = b.systemPrompt(lang)
	}

	for iteration := 0; iteration < b.maxIterations; iteration++ {
		callCtx, cancelCall := b.callContext(ctx)
		stream, err := b.openStream(callCtx, providers.CompletionRequest{
			Model:        b.model,
			Messages:     history,
			Tools:        b.registry.Definitions(),
			Temperature:  b.temperature,
			SystemPrompt: systemPrompt,
			Stream:       true,
		})
		if err != nil {
			cancelCall()
			b.logger.Error("provider stream failed", "error", err)
			b.emit(ctx, out, ErrorEvent(&TransportError{Err: err}))
			return TurnStateErrored
		}

		content, calls, err := b.consumeStream(callCtx, stream, out)
		cancelCall()
		if err != nil {
			b.logger.Error("stream read failed", "error", err)
			b.emit(ctx, out, ErrorEvent(&TransportError{Err: err}))
			return TurnStateErrored
		}

		if len(calls) == 0 {
			b.emit(ctx, out, AssistantFinal(content, nil))
			return TurnStateDone
		}

		history = append(history, providers.Message{
			Role:      providers.RoleAssistant,
			Content:   content,
			ToolCalls: calls,
		})

		for _, call := range calls {
			outcome, err := b.invokeTool(ctx, call)
			if err != nil {
				// Tool failures are fed back to the model so it can
				// recover or explain. The turn continues.
				b.logger.Warn("tool call failed", "tool", call.Name, "error", err)
				history = append(history, providers.Message{
					Role:       providers.RoleTool,
					Content:    fmt.Sprintf("Error: %v", err),
					ToolCallID: call.ID,
					Name:       call.Name,
				})
				continue
			}

			if outcome.RequiresApproval() {
				// The turn suspends here. Nothing may follow the
				// approval request on this stream.
				b.emit(ctx, out, ApprovalRequired(outcome.Approval))
				return TurnStateAwaitingApproval
			}

			b.emit(ctx, out, ToolResult(call.Name, call.ID, outcome.Value, outcome.Rendered))
			history = append(history, providers.Message{
				Role:       providers.RoleTool,
				Content:    outcome.Rendered,
				ToolCallID: call.ID,
				Name:       call.Name,
			})
		}
	}

	b.emit(ctx, out, ErrorEvent(fmt.Errorf("bodhikit: max iterations (%d) reached", b.maxIterations)))
	return TurnStateErrored
}

// callContext bounds one provider call, stream consumption included.
func (b *Builder) callContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if b.timeouts.LLMCall > 0 {
		return context.WithTimeout(ctx, b.timeouts.LLMCall)
	}
	return ctx, func() {}
}

func (b *Builder) openStream(ctx context.Context, req providers.CompletionRequest) (providers.StreamReader, error) {
	if b.retry.MaxRetries > 0 {
		return retry.WithRetry(ctx, b.retry, func() (providers.StreamReader, error) {
			return b.provider.Stream(ctx, req)
		})
	}
	return b.provider.Stream(ctx, req)
}

// consumeStream drains a provider stream, forwarding text chunks and
// stitching fragmented tool calls back together by delta index.
func (b *Builder) consumeStream(ctx context.Context, stream providers.StreamReader, out chan<- *Message) (string, []providers.ToolCall, error) {
	defer stream.Close()

	var content string
	type pendingCall struct {
		id   string
		name string
		args string
	}
	var pending []*pendingCall

	for {
		chunk, err := b.nextChunk(stream)
		if err == io.EOF {
			break
		}
		if err != nil {
			return content, nil, err
		}
		if err := ctx.Err(); err != nil {
			return content, nil, err
		}

		if chunk.Content != "" {
			content += chunk.Content
			b.emit(ctx, out, AssistantChunk(chunk.Content))
		}

		if chunk.ToolCallID != "" || chunk.ToolName != "" || chunk.ToolArgs != "" {
			for chunk.ToolCallIndex >= len(pending) {
				pending = append(pending, &pendingCall{})
			}
			pc := pending[chunk.ToolCallIndex]
			if chunk.ToolCallID != "" {
				pc.id = chunk.ToolCallID
			}
			if chunk.ToolName != "" {
				pc.name = chunk.ToolName
			}
			pc.args += chunk.ToolArgs
		}

		if chunk.IsComplete {
			break
		}
	}

	calls := make([]providers.ToolCall, 0, len(pending))
	for _, pc := range pending {
		if pc.name == "" {
			continue
		}
		args := map[string]any{}
		if pc.args != "" {
			if err := json.Unmarshal([]byte(pc.args), &args); err != nil {
				b.logger.Warn("discarding tool call with malformed arguments", "tool", pc.name, "error", err)
				continue
			}
		}
		calls = append(calls, providers.ToolCall{ID: pc.id, Name: pc.name, Arguments: args})
	}
	return content, calls, nil
}

// nextChunk reads one chunk, giving up after the StreamChunk timeout. The
// caller's deferred Close unblocks the abandoned read.
func (b *Builder) nextChunk(stream providers.StreamReader) (*providers.StreamChunk, error) {
	if b.timeouts.StreamChunk <= 0 {
		return stream.Next()
	}

	type result struct {
		chunk *providers.StreamChunk
		err   error
	}
	ch := make(chan result, 1)
	go func() {
		chunk, err := stream.Next()
		ch <- result{chunk: chunk, err: err}
	}()

	timer := time.NewTimer(b.timeouts.StreamChunk)
	defer timer.Stop()
	select {
	case r := <-ch:
		return r.chunk, r.err
	case <-timer.C:
		return nil, fmt.Errorf("bodhikit: no stream chunk within %s", b.timeouts.StreamChunk)
	}
}

func (b *Builder) invokeTool(ctx context.Context, call providers.ToolCall) (Outcome, error) {
	ctx, span := b.tracer.Start(ctx, "tool.invoke",
		trace.WithAttributes(attribute.String("tool.name", call.Name)))
	defer span.End()

	if b.timeouts.ToolExecution > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, b.timeouts.ToolExecution)
		defer cancel()
	}

	start := time.Now()
	outcome, err := b.gateway.Invoke(ctx, call)
	if err == nil && !outcome.RequiresApproval() {
		b.logger.Debug("tool executed", "tool", call.Name, "duration", time.Since(start))
	}
	return outcome, err
}

func (b *Builder) emit(ctx context.Context, out chan<- *Message, e Event) {
	msg, ok := b.mux.FromEvent(e)
	if !ok {
		return
	}
	b.send(ctx, out, msg)
}

func (b *Builder) send(ctx context.Context, out chan<- *Message, msg *Message) {
	select {
	case out <- msg:
	case <-ctx.Done():
	}
}
