// Package timeout defines per-phase execution deadlines.
// This is an internal package and not part of the public API.
package timeout

import "time"

// TimeoutConfig bounds the phases of a conversation turn. A zero duration
// disables the corresponding deadline.
type TimeoutConfig struct {
	// AgentExecution bounds a whole turn end to end.
	AgentExecution time.Duration

	// LLMCall bounds a single provider request.
	LLMCall time.Duration

	// ToolExecution bounds a single tool handler.
	ToolExecution time.Duration

	// StreamChunk bounds the wait for the next streamed chunk.
	StreamChunk time.Duration
}

// DefaultTimeoutConfig returns production defaults.
func DefaultTimeoutConfig() TimeoutConfig {
	return TimeoutConfig{
		AgentExecution: 5 * time.Minute,
		LLMCall:        30 * time.Second,
		ToolExecution:  10 * time.Second,
		StreamChunk:    5 * time.Second,
	}
}

// NoTimeouts disables all deadlines. Intended for tests and debugging.
func NoTimeouts() TimeoutConfig {
	return TimeoutConfig{}
}
