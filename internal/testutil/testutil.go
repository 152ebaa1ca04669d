// Package testutil provides shared fixtures for package tests: canned tool
// definitions and agent definition builders that exercise the executor and
// workflow paths deterministically.
package testutil

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/agentweave/agentweave/agent"
	"github.com/agentweave/agentweave/tool"
)

// EchoTool returns a tool that echoes its "text" argument back.
func EchoTool() tool.Definition {
	return tool.Definition{
		Name:        "echo",
		Description: "Echoes the provided text back to the caller.",
		Parameters: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"text": map[string]any{"type": "string"},
			},
			"required": []any{"text"},
		},
		Handler: func(_ context.Context, args map[string]any) (any, error) {
			return args["text"], nil
		},
	}
}

// SleepTool returns a tool that blocks for d before answering, used to
// trigger per-call timeouts.
func SleepTool(d time.Duration) tool.Definition {
	return tool.Definition{
		Name:        "sleep",
		Description: "Waits before responding.",
		Parameters: map[string]any{
			"type":       "object",
			"properties": map[string]any{},
		},
		Handler: func(ctx context.Context, _ map[string]any) (any, error) {
			select {
			case <-time.After(d):
				return "done", nil
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		},
	}
}

// FailTool returns a tool whose handler always fails with msg.
func FailTool(msg string) tool.Definition {
	return tool.Definition{
		Name:        "fail",
		Description: "Always fails.",
		Parameters: map[string]any{
			"type":       "object",
			"properties": map[string]any{},
		},
		Handler: func(context.Context, map[string]any) (any, error) {
			return nil, errors.New(msg)
		},
	}
}

// Agent builds a minimal agent definition with optional tool and capability
// attachments.
func Agent(id string, optFns ...func(d *agent.Definition)) agent.Definition {
	def := agent.Definition{
		ID:           id,
		Name:         fmt.Sprintf("%s agent", id),
		Instructions: fmt.Sprintf("You are the %s agent.", id),
	}
	for _, fn := range optFns {
		fn(&def)
	}
	return def
}

// WithTools attaches tool names to an agent definition.
func WithTools(names ...string) func(d *agent.Definition) {
	return func(d *agent.Definition) { d.Tools = names }
}

// WithCapabilities attaches capability tags to an agent definition.
func WithCapabilities(tags ...string) func(d *agent.Definition) {
	return func(d *agent.Definition) { d.Capabilities = tags }
}
