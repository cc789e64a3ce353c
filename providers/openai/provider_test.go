package openai

import (
	"errors"
	"testing"

	goopenai "github.com/sashabaranov/go-openai"

	"github.com/sanghalabs/bodhikit/internal/retry"
	"github.com/sanghalabs/bodhikit/internal/testutil"
	"github.com/sanghalabs/bodhikit/providers"
)

func intPtr(v int) *int { return &v }

func TestChunksFromStreamResponse_TextDelta(t *testing.T) {
	resp := goopenai.ChatCompletionStreamResponse{
		Choices: []goopenai.ChatCompletionStreamChoice{{
			Delta:        goopenai.ChatCompletionStreamChoiceDelta{Content: "hello"},
			FinishReason: goopenai.FinishReasonStop,
		}},
	}

	chunks := chunksFromStreamResponse(resp)
	if len(chunks) != 1 {
		t.Fatalf("expected 1 chunk, got %d", len(chunks))
	}
	testutil.AssertEqual(t, chunks[0].Content, "hello")
	testutil.AssertEqual(t, chunks[0].IsComplete, true)
	testutil.AssertEqual(t, chunks[0].FinishReason, providers.FinishReasonStop)
}

func TestChunksFromStreamResponse_ParallelToolCalls(t *testing.T) {
	resp := goopenai.ChatCompletionStreamResponse{
		Choices: []goopenai.ChatCompletionStreamChoice{{
			Delta: goopenai.ChatCompletionStreamChoiceDelta{
				ToolCalls: []goopenai.ToolCall{
					{
						Index:    intPtr(0),
						ID:       "call-0",
						Function: goopenai.FunctionCall{Name: "get_buddhist_teachings", Arguments: `{"topic":`},
					},
					{
						Index:    intPtr(1),
						ID:       "call-1",
						Function: goopenai.FunctionCall{Name: "list_buddhist_agents", Arguments: `{}`},
					},
				},
			},
			FinishReason: goopenai.FinishReasonToolCalls,
		}},
	}

	chunks := chunksFromStreamResponse(resp)
	if len(chunks) != 2 {
		t.Fatalf("expected 2 chunks, got %d", len(chunks))
	}

	testutil.AssertEqual(t, chunks[0].ToolCallIndex, 0)
	testutil.AssertEqual(t, chunks[0].ToolCallID, "call-0")
	testutil.AssertEqual(t, chunks[0].ToolName, "get_buddhist_teachings")
	testutil.AssertEqual(t, chunks[0].ToolArgs, `{"topic":`)
	// The first chunk must not end the stream while a sibling fragment is
	// still buffered.
	testutil.AssertEqual(t, chunks[0].IsComplete, false)

	testutil.AssertEqual(t, chunks[1].ToolCallIndex, 1)
	testutil.AssertEqual(t, chunks[1].ToolCallID, "call-1")
	testutil.AssertEqual(t, chunks[1].ToolName, "list_buddhist_agents")
	testutil.AssertEqual(t, chunks[1].IsComplete, true)
	testutil.AssertEqual(t, chunks[1].FinishReason, providers.FinishReasonToolCalls)
}

func TestChunksFromStreamResponse_EmptyChoices(t *testing.T) {
	chunks := chunksFromStreamResponse(goopenai.ChatCompletionStreamResponse{})
	if len(chunks) != 1 {
		t.Fatalf("expected 1 chunk, got %d", len(chunks))
	}
	testutil.AssertEqual(t, chunks[0].IsComplete, false)
}

func TestStreamReader_DrainsBufferedFragments(t *testing.T) {
	s := &streamReader{
		pending: []*providers.StreamChunk{
			{ToolCallIndex: 1, ToolName: "list_buddhist_agents"},
			{ToolCallIndex: 2, ToolName: "search_knowledge_base", IsComplete: true},
		},
	}

	first, err := s.Next()
	testutil.AssertNoError(t, err)
	testutil.AssertEqual(t, first.ToolName, "list_buddhist_agents")

	second, err := s.Next()
	testutil.AssertNoError(t, err)
	testutil.AssertEqual(t, second.ToolName, "search_knowledge_base")
	testutil.AssertEqual(t, second.IsComplete, true)
}

func TestClassifyErr(t *testing.T) {
	rateLimited := &goopenai.APIError{HTTPStatusCode: 429, Message: "slow down"}
	serverErr := &goopenai.APIError{HTTPStatusCode: 503, Message: "overloaded"}
	badAuth := &goopenai.APIError{HTTPStatusCode: 401, Message: "invalid key"}
	network := errors.New("connection refused")

	if !retry.IsTransient(classifyErr("completion", rateLimited)) {
		t.Error("rate limits should be transient")
	}
	if !retry.IsTransient(classifyErr("completion", serverErr)) {
		t.Error("server errors should be transient")
	}
	if retry.IsTransient(classifyErr("completion", badAuth)) {
		t.Error("auth failures must not be retried")
	}
	if !retry.IsTransient(classifyErr("stream", network)) {
		t.Error("transport failures should be transient")
	}

	// The original cause stays reachable through the wrapping.
	var apiErr *goopenai.APIError
	if !errors.As(classifyErr("completion", rateLimited), &apiErr) {
		t.Error("expected the API error in the chain")
	}
}

func TestToAPIRequest_SystemPromptAndTools(t *testing.T) {
	p := New("test-key", nil)

	apiReq := p.toAPIRequest(providers.CompletionRequest{
		Model:        "gpt-4o-mini",
		SystemPrompt: "You are a Buddhist agent builder.",
		Messages: []providers.Message{
			{Role: providers.RoleUser, Content: "hello"},
			{
				Role: providers.RoleAssistant,
				ToolCalls: []providers.ToolCall{
					{ID: "call-1", Name: "list_buddhist_agents", Arguments: map[string]any{"limit": 5}},
				},
			},
			{Role: providers.RoleTool, Content: "[]", ToolCallID: "call-1", Name: "list_buddhist_agents"},
		},
		Tools: []providers.ToolDefinition{
			{Name: "list_buddhist_agents", Description: "List agents"},
		},
	})

	if len(apiReq.Messages) != 4 {
		t.Fatalf("expected 4 messages, got %d", len(apiReq.Messages))
	}
	testutil.AssertEqual(t, apiReq.Messages[0].Role, goopenai.ChatMessageRoleSystem)
	testutil.AssertEqual(t, apiReq.Messages[1].Role, goopenai.ChatMessageRoleUser)
	testutil.AssertEqual(t, apiReq.Messages[2].ToolCalls[0].ID, "call-1")
	testutil.AssertEqual(t, apiReq.Messages[3].Role, goopenai.ChatMessageRoleTool)
	testutil.AssertEqual(t, apiReq.Messages[3].ToolCallID, "call-1")

	if len(apiReq.Tools) != 1 || apiReq.Tools[0].Function.Name != "list_buddhist_agents" {
		t.Fatalf("expected the tool definition to carry over, got %+v", apiReq.Tools)
	}
}
