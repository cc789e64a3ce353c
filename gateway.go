package bodhikit

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/sanghalabs/bodhikit/providers"
)

// Outcome is the result of routing a tool call through the Gateway. Exactly
// one branch is populated: Value carries a completed execution, Approval
// carries a pending interception.
type Outcome struct {
	Value    any
	Rendered string
	Approval *ApprovalRequest
}

// Executed wraps a completed tool result.
func Executed(value any) Outcome {
	return Outcome{Value: value, Rendered: RenderResult(value)}
}

// ApprovalPending wraps an intercepted call awaiting a verdict.
func ApprovalPending(req *ApprovalRequest) Outcome {
	return Outcome{Approval: req}
}

// RequiresApproval reports whether the call was intercepted.
func (o Outcome) RequiresApproval() bool { return o.Approval != nil }

// SensitiveTools returns the default set of operations that must not run
// without an explicit human verdict.
func SensitiveTools() map[string]struct{} {
	return map[string]struct{}{
		"create_buddhist_agent":              {},
		"update_buddhist_agent":              {},
		"delete_buddhist_agent":              {},
		"add_user_insight_to_knowledge_base": {},
	}
}

// GatewayConfig configures a tool gateway.
type GatewayConfig struct {
	Registry  *Registry
	Approvals *Manager

	// Sensitive names the tools to intercept. Nil means SensitiveTools();
	// an explicit empty map disables interception entirely.
	Sensitive map[string]struct{}

	Logger *slog.Logger
}

// Gateway is the single choke point for tool execution. Non-sensitive calls
// pass straight through to their handlers; sensitive calls are captured as
// pending approvals and never executed on this path.
type Gateway struct {
	registry  *Registry
	approvals *Manager
	sensitive map[string]struct{}
	logger    *slog.Logger
}

// NewGateway creates a tool gateway.
func NewGateway(cfg GatewayConfig) *Gateway {
	sensitive := cfg.Sensitive
	if sensitive == nil {
		sensitive = SensitiveTools()
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Gateway{
		registry:  cfg.Registry,
		approvals: cfg.Approvals,
		sensitive: sensitive,
		logger:    logger,
	}
}

// IsSensitive reports whether a tool name is on the interception list.
func (g *Gateway) IsSensitive(name string) bool {
	_, ok := g.sensitive[name]
	return ok
}

// Invoke routes a single tool call. Unknown tools and invalid arguments fail
// before any handler or approval state is touched. Sensitive tools yield a
// pending-approval outcome; everything else executes immediately with errors
// propagated untouched.
func (g *Gateway) Invoke(ctx context.Context, call providers.ToolCall) (Outcome, error) {
	tool, err := g.registry.Lookup(call.Name)
	if err != nil {
		return Outcome{}, err
	}
	if err := g.registry.ValidateArguments(call.Name, call.Arguments); err != nil {
		return Outcome{}, err
	}

	if g.IsSensitive(call.Name) {
		reasoning := fmt.Sprintf("Agent wants to execute %s", call.Name)
		req, err := g.approvals.Create(ctx, call.Name, tool.Description(), call.Arguments, reasoning)
		if err != nil {
			return Outcome{}, err
		}
		g.logger.Info("tool call intercepted", "tool", call.Name, "approval_id", req.ID)
		return ApprovalPending(req), nil
	}

	result, err := tool.Invoke(ctx, call.Arguments)
	if err != nil {
		return Outcome{}, err
	}
	return Executed(result), nil
}
