package bodhikit

import (
	"encoding/json"
	"fmt"
	"io"
)

// MessageType tags an outbound client message.
type MessageType string

const (
	MessageTypeAssistantChunk  MessageType = "assistant_chunk"
	MessageTypeAssistantFinal  MessageType = "assistant_final"
	MessageTypeToolExecution   MessageType = "tool_execution"
	MessageTypeApprovalRequest MessageType = "approval_request"
	MessageTypeError           MessageType = "error"
)

// Role identifies the speaker of a message.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleTool      Role = "tool"
)

// Message is the flat outbound record delivered to clients. Approval-request
// messages additionally carry the correlation fields so a later verdict can
// reference the pending action.
type Message struct {
	Type               MessageType    `json:"type"`
	Content            string         `json:"content"`
	Role               Role           `json:"role"`
	ApprovalID         string         `json:"approval_id,omitempty"`
	ToolName           string         `json:"tool_name,omitempty"`
	ToolDescription    string         `json:"tool_description,omitempty"`
	Arguments          map[string]any `json:"arguments,omitempty"`
	Reasoning          string         `json:"reasoning,omitempty"`
	RequiresUserAction bool           `json:"requires_user_action,omitempty"`
	Metadata           map[string]any `json:"metadata,omitempty"`
}

// Mux translates internal runtime events into the four client-facing message
// kinds. Once it produces an approval_request for a turn, the runtime emits
// nothing further for that turn.
type Mux struct{}

// FromEvent maps an event to its outbound message. The second return value is
// false when the event has no client-facing representation.
func (Mux) FromEvent(e Event) (*Message, bool) {
	switch e.Type {
	case EventTypeAssistantChunk:
		return &Message{Type: MessageTypeAssistantChunk, Content: e.Chunk, Role: RoleAssistant}, true
	case EventTypeAssistantFinal:
		return &Message{Type: MessageTypeAssistantFinal, Content: e.Content, Role: RoleAssistant, Metadata: e.Metadata}, true
	case EventTypeToolResult:
		return &Message{Type: MessageTypeToolExecution, Content: e.Content, Role: RoleAssistant, ToolName: e.ToolName}, true
	case EventTypeApprovalRequired:
		req := e.Approval
		return &Message{
			Type:               MessageTypeApprovalRequest,
			Content:            FormatApprovalPrompt(req),
			Role:               RoleSystem,
			ApprovalID:         req.ID,
			ToolName:           req.ToolName,
			ToolDescription:    req.ToolDescription,
			Arguments:          req.Arguments,
			Reasoning:          req.Reasoning,
			RequiresUserAction: true,
		}, true
	case EventTypeError:
		return &Message{Type: MessageTypeError, Content: e.Err.Error(), Role: RoleSystem}, true
	}
	return nil, false
}

// FormatApprovalPrompt renders the human-readable approval block shown to the
// reviewer: tool name, description and pretty-printed arguments.
func FormatApprovalPrompt(req *ApprovalRequest) string {
	args, err := json.MarshalIndent(req.Arguments, "", "  ")
	if err != nil {
		args = []byte("{}")
	}
	return fmt.Sprintf("**Approval Required**\n\n**Action:** %s\n**Description:** %s\n\n**Parameters:**\n```json\n%s\n```\n\nThe agent wants to perform this action. Do you approve?",
		req.ToolName, req.ToolDescription, args)
}

// StreamDoneMarker is the explicit end-of-stream payload written after the
// last message of a response.
const StreamDoneMarker = "[DONE]"

// EncodeSSE writes a message as a server-sent event. A message that fails to
// serialize is replaced with a fallback error payload so the stream does not
// silently die.
func EncodeSSE(w io.Writer, msg *Message) error {
	data, err := json.Marshal(msg)
	if err != nil {
		fallback := Message{
			Type:    MessageTypeError,
			Content: (&TransportError{Err: err}).Error(),
			Role:    RoleSystem,
		}
		data, _ = json.Marshal(fallback)
	}
	_, werr := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", msg.Type, data)
	return werr
}

// EncodeSSEDone writes the end-of-stream marker.
func EncodeSSEDone(w io.Writer) error {
	_, err := fmt.Fprintf(w, "event: done\ndata: %s\n\n", StreamDoneMarker)
	return err
}
