package bodhikit

import "time"

// EventType represents the type of streaming event emitted during a turn.
type EventType string

const (
	EventTypeAssistantChunk   EventType = "assistant_chunk"
	EventTypeAssistantFinal   EventType = "assistant_final"
	EventTypeToolResult       EventType = "tool_result"
	EventTypeApprovalRequired EventType = "approval_required"
	EventTypeError            EventType = "error"
)

// Event is an internal runtime event. The Mux translates events into the
// client-facing message contract.
type Event struct {
	Type       EventType
	Chunk      string
	Content    string
	ToolName   string
	ToolCallID string
	Result     any
	Approval   *ApprovalRequest
	Err        error
	Metadata   map[string]any
	Timestamp  time.Time
}

// AssistantChunk creates an incremental assistant text event.
func AssistantChunk(chunk string) Event {
	return Event{Type: EventTypeAssistantChunk, Chunk: chunk, Timestamp: time.Now()}
}

// AssistantFinal creates the end-of-turn assistant message event.
func AssistantFinal(content string, metadata map[string]any) Event {
	return Event{Type: EventTypeAssistantFinal, Content: content, Metadata: metadata, Timestamp: time.Now()}
}

// ToolResult creates a pass-through tool execution event.
func ToolResult(toolName, toolCallID string, result any, rendered string) Event {
	return Event{
		Type:       EventTypeToolResult,
		ToolName:   toolName,
		ToolCallID: toolCallID,
		Result:     result,
		Content:    rendered,
		Timestamp:  time.Now(),
	}
}

// ApprovalRequired creates the turn-terminating interception event.
func ApprovalRequired(req *ApprovalRequest) Event {
	return Event{Type: EventTypeApprovalRequired, Approval: req, Timestamp: time.Now()}
}

// ErrorEvent creates an error event scoped to the current turn.
func ErrorEvent(err error) Event {
	return Event{Type: EventTypeError, Err: err, Timestamp: time.Now()}
}
