// Package inference defines the narrow collaborator interface through which
// the orchestration engine talks to a language model provider. The engine
// treats providers as opaque: it hands over instructions, conversation turns
// and available tool schemas, and receives back either text or tool-call
// requests. Provider wire formats live entirely inside the adapter
// subpackages (anthropic, openai).
package inference

import (
	"context"
	"fmt"

	"github.com/agentweave/agentweave/core"
)

// ToolSchema declaratively exposes a callable tool to the model.
// Parameters is a JSON Schema object (minimal subset expected).
type ToolSchema struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Parameters  map[string]any `json:"parameters"`
}

// Request captures the normalized model input produced by the agent executor.
type Request struct {
	Instructions string       `json:"instructions"` // System instructions for the model
	Turns        []core.Turn  `json:"turns"`        // Full conversation history
	Tools        []ToolSchema `json:"tools,omitempty"`
}

// Response is the provider-agnostic result of one inference call. Exactly one
// of Content / ToolCalls is expected to be meaningful: a response carrying
// tool calls requires a follow-up call after the tools run.
type Response struct {
	Content      string          `json:"content,omitempty"`
	ToolCalls    []core.ToolCall `json:"tool_calls,omitempty"`
	FinishReason string          `json:"finish_reason,omitempty"` // "stop", "length", "tool_calls", ...
}

// Error wraps a failed inference call. Transient marks failures the caller
// may reasonably retry by re-running the whole loop (rate limits, network);
// the engine itself never retries.
type Error struct {
	Provider  string
	Message   string
	Transient bool
	Cause     error
}

// Error implements the error interface.
func (e *Error) Error() string {
	return fmt.Sprintf("inference error (%s): %s", e.Provider, e.Message)
}

// Unwrap exposes the underlying cause for errors.Is/As.
func (e *Error) Unwrap() error { return e.Cause }

// NewError constructs an Error wrapping cause.
func NewError(provider string, transient bool, cause error) *Error {
	msg := "unknown"
	if cause != nil {
		msg = cause.Error()
	}
	return &Error{Provider: provider, Message: msg, Transient: transient, Cause: cause}
}

// Client is the single inference entry point the engine depends on.
// Implementations must respect context cancellation and return *Error on
// provider failure.
type Client interface {
	Infer(ctx context.Context, req Request) (Response, error)

	// Info returns metadata about the backing model implementation.
	Info() Info
}

// Info contains metadata about a model implementation.
type Info struct {
	Name          string `json:"name"`
	Provider      string `json:"provider"` // "openai", "anthropic", "scripted", ...
	SupportsTools bool   `json:"supports_tools"`
}
