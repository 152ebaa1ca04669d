// Package tool implements the tool calling subsystem that lets agents invoke
// structured capabilities (APIs, computations, side effects) with schema
// validated arguments and consistent error handling. A Registry holds
// immutable tool definitions; the Executor runs batches of tool calls with
// bounded concurrency and per-call timeouts.
package tool

import (
	"context"
	"fmt"
	"sync"

	"github.com/agentweave/agentweave/inference"
	"github.com/agentweave/agentweave/internal/schema"
)

// Handler is the user supplied implementation of a tool. It receives already
// validated arguments and must respect context cancellation. The returned
// value can be any JSON-serializable Go type.
type Handler func(ctx context.Context, args map[string]any) (any, error)

// Definition describes one registered tool: identity, the natural language
// description shown to models, a JSON-Schema-like parameter specification and
// the handler. Immutable once registered.
type Definition struct {
	Name        string         // Tool identifier (snake_case recommended)
	Description string         // Human-readable description shown to models
	Parameters  map[string]any // JSON schema describing accepted arguments
	Handler     Handler        // Implementation invoked with validated args
}

// Error codes used across tool results.
const (
	// CodeValidation marks schema or argument mismatches.
	CodeValidation = "VALIDATION_ERROR"
	// CodeExecution marks handler failures (including recovered panics).
	CodeExecution = "EXECUTION_ERROR"
	// CodeTimeout marks a handler that exceeded its individual timeout.
	CodeTimeout = "TIMEOUT"
	// CodeNotFound marks a call naming an unregistered tool.
	CodeNotFound = "NOT_FOUND"
)

// Error represents a failure during tool lookup, validation or execution.
type Error struct {
	Tool    string `json:"tool"`              // Name of the tool that failed
	Message string `json:"message"`           // Error message
	Code    string `json:"code"`              // Error code for categorization
	Details any    `json:"details,omitempty"` // Additional error details
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("tool error [%s] in %s: %s", e.Code, e.Tool, e.Message)
	}
	return fmt.Sprintf("tool error in %s: %s", e.Tool, e.Message)
}

// IsTimeout reports whether this error marks an exceeded handler timeout.
func (e *Error) IsTimeout() bool { return e.Code == CodeTimeout }

// NewError creates a new Error with the given details.
func NewError(tool, message, code string) *Error {
	return &Error{Tool: tool, Message: message, Code: code}
}

// Registry holds the immutable tool definitions available to agents. Safe for
// concurrent use; registration normally happens once at startup.
type Registry struct {
	mu    sync.RWMutex
	tools map[string]Definition
	order []string
}

// NewRegistry constructs an empty tool registry.
func NewRegistry() *Registry {
	return &Registry{tools: make(map[string]Definition)}
}

// Register validates and stores a definition. The parameter schema is checked
// once here so malformed schemas fail at startup rather than on the first
// call. Registering an already present name fails.
func (r *Registry) Register(def Definition) error {
	if def.Name == "" {
		return fmt.Errorf("tool name must not be empty")
	}
	if def.Handler == nil {
		return fmt.Errorf("tool %s has no handler", def.Name)
	}
	if def.Parameters == nil {
		def.Parameters = map[string]any{"type": "object", "properties": map[string]any{}}
	}
	if err := schema.Check(def.Parameters); err != nil {
		return fmt.Errorf("tool %s has invalid schema: %w", def.Name, err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.tools[def.Name]; exists {
		return fmt.Errorf("tool %s already registered", def.Name)
	}
	r.tools[def.Name] = def
	r.order = append(r.order, def.Name)
	return nil
}

// Get returns the definition for name.
func (r *Registry) Get(name string) (Definition, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	def, ok := r.tools[name]
	return def, ok
}

// Names returns all registered tool names in registration order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}

// Schemas returns inference tool schemas for the named tools, skipping
// unknown names. Order follows the input list so prompts stay deterministic.
func (r *Registry) Schemas(names []string) []inference.ToolSchema {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]inference.ToolSchema, 0, len(names))
	for _, name := range names {
		def, ok := r.tools[name]
		if !ok {
			continue
		}
		out = append(out, inference.ToolSchema{
			Name:        def.Name,
			Description: def.Description,
			Parameters:  def.Parameters,
		})
	}
	return out
}

// FromStruct derives a parameter schema from a Go struct via reflection; a
// convenience for simple argument containers.
func FromStruct(structType any) map[string]any { return schema.FromStruct(structType) }
