// Package openai implements the Provider interface on the OpenAI Chat
// Completions API via the sashabaranov/go-openai client.
package openai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	goopenai "github.com/sashabaranov/go-openai"

	"github.com/sanghalabs/bodhikit/internal/retry"
	"github.com/sanghalabs/bodhikit/providers"
)

// Provider implements providers.Provider for OpenAI.
type Provider struct {
	client *goopenai.Client
	logger *slog.Logger
}

// New creates a new OpenAI provider.
func New(apiKey string, logger *slog.Logger) *Provider {
	if logger == nil {
		logger = slog.Default()
	}
	return &Provider{
		client: goopenai.NewClient(apiKey),
		logger: logger,
	}
}

// NewWithConfig creates a provider against a custom endpoint, e.g. a proxy
// or a compatible local server.
func NewWithConfig(cfg goopenai.ClientConfig, logger *slog.Logger) *Provider {
	if logger == nil {
		logger = slog.Default()
	}
	return &Provider{
		client: goopenai.NewClientWithConfig(cfg),
		logger: logger,
	}
}

// Name returns the provider name.
func (p *Provider) Name() string {
	return "openai"
}

// Complete generates a non-streaming completion.
func (p *Provider) Complete(ctx context.Context, req providers.CompletionRequest) (*providers.CompletionResponse, error) {
	resp, err := p.client.CreateChatCompletion(ctx, p.toAPIRequest(req))
	if err != nil {
		return nil, classifyErr("completion", err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("openai completion: empty choices")
	}

	choice := resp.Choices[0]
	out := &providers.CompletionResponse{
		ID:      resp.ID,
		Model:   resp.Model,
		Content: choice.Message.Content,
		Created: time.Unix(resp.Created, 0),
		Usage: providers.TokenUsage{
			PromptTokens:     resp.Usage.PromptTokens,
			CompletionTokens: resp.Usage.CompletionTokens,
			TotalTokens:      resp.Usage.TotalTokens,
		},
	}

	for _, tc := range choice.Message.ToolCalls {
		call, err := p.toToolCall(tc)
		if err != nil {
			p.logger.Warn("discarding malformed tool call", "tool", tc.Function.Name, "error", err)
			continue
		}
		out.ToolCalls = append(out.ToolCalls, call)
	}

	switch choice.FinishReason {
	case goopenai.FinishReasonToolCalls:
		out.FinishReason = providers.FinishReasonToolCalls
	case goopenai.FinishReasonLength:
		out.FinishReason = providers.FinishReasonLength
	default:
		out.FinishReason = providers.FinishReasonStop
	}
	return out, nil
}

// Stream generates a streaming completion.
func (p *Provider) Stream(ctx context.Context, req providers.CompletionRequest) (providers.StreamReader, error) {
	apiReq := p.toAPIRequest(req)
	apiReq.Stream = true

	stream, err := p.client.CreateChatCompletionStream(ctx, apiReq)
	if err != nil {
		return nil, classifyErr("stream", err)
	}
	return &streamReader{stream: stream, logger: p.logger}, nil
}

// classifyErr marks rate limits, server errors, and transport failures as
// transient so the retry layer re-attempts them. Other API errors, like bad
// requests or auth failures, stay permanent.
func classifyErr(op string, err error) error {
	wrapped := fmt.Errorf("openai %s: %w", op, err)
	var apiErr *goopenai.APIError
	if errors.As(err, &apiErr) {
		if apiErr.HTTPStatusCode == http.StatusTooManyRequests || apiErr.HTTPStatusCode >= http.StatusInternalServerError {
			return retry.Transient(wrapped)
		}
		return wrapped
	}
	return retry.Transient(wrapped)
}

func (p *Provider) toAPIRequest(req providers.CompletionRequest) goopenai.ChatCompletionRequest {
	apiReq := goopenai.ChatCompletionRequest{
		Model:       req.Model,
		Temperature: req.Temperature,
		MaxTokens:   req.MaxTokens,
	}

	if req.SystemPrompt != "" {
		apiReq.Messages = append(apiReq.Messages, goopenai.ChatCompletionMessage{
			Role:    goopenai.ChatMessageRoleSystem,
			Content: req.SystemPrompt,
		})
	}

	for _, msg := range req.Messages {
		apiMsg := goopenai.ChatCompletionMessage{
			Role:       toAPIRole(msg.Role),
			Content:    msg.Content,
			Name:       msg.Name,
			ToolCallID: msg.ToolCallID,
		}
		for _, tc := range msg.ToolCalls {
			args, err := json.Marshal(tc.Arguments)
			if err != nil {
				args = []byte("{}")
			}
			apiMsg.ToolCalls = append(apiMsg.ToolCalls, goopenai.ToolCall{
				ID:   tc.ID,
				Type: goopenai.ToolTypeFunction,
				Function: goopenai.FunctionCall{
					Name:      tc.Name,
					Arguments: string(args),
				},
			})
		}
		apiReq.Messages = append(apiReq.Messages, apiMsg)
	}

	for _, t := range req.Tools {
		apiReq.Tools = append(apiReq.Tools, goopenai.Tool{
			Type: goopenai.ToolTypeFunction,
			Function: &goopenai.FunctionDefinition{
				Name:        t.Name,
				Description: t.Description,
				Parameters:  t.Parameters,
			},
		})
	}

	return apiReq
}

func (p *Provider) toToolCall(tc goopenai.ToolCall) (providers.ToolCall, error) {
	var args map[string]any
	if tc.Function.Arguments != "" {
		if err := json.Unmarshal([]byte(tc.Function.Arguments), &args); err != nil {
			return providers.ToolCall{}, fmt.Errorf("parse arguments: %w", err)
		}
	}
	return providers.ToolCall{
		ID:        tc.ID,
		Name:      tc.Function.Name,
		Arguments: args,
	}, nil
}

func toAPIRole(role providers.MessageRole) string {
	switch role {
	case providers.RoleSystem:
		return goopenai.ChatMessageRoleSystem
	case providers.RoleAssistant:
		return goopenai.ChatMessageRoleAssistant
	case providers.RoleTool:
		return goopenai.ChatMessageRoleTool
	default:
		return goopenai.ChatMessageRoleUser
	}
}

// streamReader adapts the go-openai stream to providers.StreamReader.
type streamReader struct {
	stream  *goopenai.ChatCompletionStream
	logger  *slog.Logger
	pending []*providers.StreamChunk
	done    bool
}

// Next returns the next chunk or io.EOF when the stream ends. Tool call
// fragments pass through with their delta index so the caller can stitch
// arguments back together.
func (s *streamReader) Next() (*providers.StreamChunk, error) {
	if len(s.pending) > 0 {
		chunk := s.pending[0]
		s.pending = s.pending[1:]
		return chunk, nil
	}
	if s.done {
		return nil, io.EOF
	}

	resp, err := s.stream.Recv()
	if err != nil {
		if err == io.EOF {
			s.done = true
			return nil, io.EOF
		}
		return nil, fmt.Errorf("openai stream recv: %w", err)
	}

	chunks := chunksFromStreamResponse(resp)
	s.pending = chunks[1:]
	return chunks[0], nil
}

// chunksFromStreamResponse flattens one delta into chunks. A single delta may
// carry fragments for several parallel tool calls; each gets its own chunk,
// and the finish reason rides on the last one so no buffered fragment is cut
// off early.
func chunksFromStreamResponse(resp goopenai.ChatCompletionStreamResponse) []*providers.StreamChunk {
	if len(resp.Choices) == 0 {
		return []*providers.StreamChunk{{}}
	}

	choice := resp.Choices[0]
	chunks := []*providers.StreamChunk{{Content: choice.Delta.Content}}

	for i, tc := range choice.Delta.ToolCalls {
		chunk := chunks[0]
		if i > 0 {
			chunk = &providers.StreamChunk{}
			chunks = append(chunks, chunk)
		}
		if tc.Index != nil {
			chunk.ToolCallIndex = *tc.Index
		}
		chunk.ToolCallID = tc.ID
		chunk.ToolName = tc.Function.Name
		chunk.ToolArgs = tc.Function.Arguments
	}

	last := chunks[len(chunks)-1]
	switch choice.FinishReason {
	case goopenai.FinishReasonToolCalls:
		last.IsComplete = true
		last.FinishReason = providers.FinishReasonToolCalls
	case goopenai.FinishReasonStop:
		last.IsComplete = true
		last.FinishReason = providers.FinishReasonStop
	case goopenai.FinishReasonLength:
		last.IsComplete = true
		last.FinishReason = providers.FinishReasonLength
	}
	return chunks
}

// Close closes the underlying stream.
func (s *streamReader) Close() error {
	return s.stream.Close()
}
