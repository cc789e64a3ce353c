package bodhikit

import (
	"context"
	"fmt"
	"log/slog"
)

// ApprovalResponse is an out-of-band verdict on a pending approval request.
type ApprovalResponse struct {
	ApprovalID string `json:"approval_id"`
	Approved   bool   `json:"approved"`
}

// ResolverConfig configures an approval resolver.
type ResolverConfig struct {
	Registry  *Registry
	Approvals *Manager
	Logger    *slog.Logger
}

// Resolver applies approval verdicts. Approved actions execute exactly once
// with the arguments captured at interception time; declined actions are
// discarded. Either way the pending entry is consumed, so replaying the same
// verdict is rejected.
type Resolver struct {
	registry  *Registry
	approvals *Manager
	logger    *slog.Logger
}

// NewResolver creates an approval resolver.
func NewResolver(cfg ResolverConfig) *Resolver {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Resolver{
		registry:  cfg.Registry,
		approvals: cfg.Approvals,
		logger:    logger,
	}
}

// Resolve consumes the pending entry named by the verdict and returns the
// messages to deliver for this resumed turn. Resolution errors come back as
// error messages in the stream, not Go errors: the turn completes either way.
func (r *Resolver) Resolve(ctx context.Context, resp *ApprovalResponse, lang Language) []*Message {
	if resp == nil || resp.ApprovalID == "" {
		return []*Message{errorMessage("Invalid approval response: missing approval_id")}
	}

	req, ec, err := r.approvals.Take(ctx, resp.ApprovalID)
	if err != nil {
		r.logger.Warn("approval resolution failed", "approval_id", resp.ApprovalID, "error", err)
		return []*Message{errorMessage("Approval request not found or already processed")}
	}

	if !resp.Approved {
		r.logger.Info("approval declined", "approval_id", req.ID, "tool", req.ToolName)
		return []*Message{{
			Type:    MessageTypeAssistantFinal,
			Content: cancelledMessage(lang),
			Role:    RoleAssistant,
		}}
	}

	tool, err := r.registry.Lookup(ec.ToolName)
	if err != nil {
		r.logger.Error("approved tool missing from registry", "approval_id", req.ID, "tool", ec.ToolName)
		return []*Message{errorMessage(fmt.Sprintf("Error executing approved action: %v", err))}
	}

	result, err := tool.Invoke(ctx, ec.Arguments)
	if err != nil {
		execErr := &ExecutionError{Tool: ec.ToolName, Err: err}
		r.logger.Error("approved tool execution failed", "approval_id", req.ID, "tool", ec.ToolName, "error", err)
		return []*Message{errorMessage(fmt.Sprintf("Error executing approved action: %v", execErr))}
	}

	r.logger.Info("approved tool executed", "approval_id", req.ID, "tool", ec.ToolName)

	content := fmt.Sprintf("Successfully executed: %s\n\nResult: %s", ec.ToolName, RenderResult(result))
	if id := agentIDFromResult(result); id != "" {
		// The trailing marker lets clients link the message to the agent.
		content += fmt.Sprintf("\n\n[[%s]]", id)
	}

	return []*Message{{
		Type:     MessageTypeToolExecution,
		Content:  content,
		Role:     RoleAssistant,
		ToolName: ec.ToolName,
	}}
}

func errorMessage(text string) *Message {
	return &Message{Type: MessageTypeError, Content: text, Role: RoleSystem}
}

func agentIDFromResult(result any) string {
	m, ok := result.(map[string]any)
	if !ok {
		return ""
	}
	id, _ := m["agent_id"].(string)
	return id
}
