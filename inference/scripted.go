package inference

import (
	"context"
	"sync"

	"github.com/agentweave/agentweave/core"
)

// ScriptedClient is a deterministic in-memory Client useful for tests and
// examples. It replays a fixed sequence of responses (or errors) across
// successive Infer calls; once the script is exhausted it falls back to a
// canned echo of the last user turn.
type ScriptedClient struct {
	mu     sync.Mutex
	info   Info
	script []ScriptEntry
	next   int
	calls  []Request
}

// ScriptEntry is one scripted Infer outcome.
type ScriptEntry struct {
	Response Response
	Err      error
}

// NewScriptedClient constructs a ScriptedClient replaying the given entries in order.
func NewScriptedClient(entries ...ScriptEntry) *ScriptedClient {
	return &ScriptedClient{
		info:   Info{Name: "scripted", Provider: "scripted", SupportsTools: true},
		script: entries,
	}
}

// Text is a convenience ScriptEntry producing a final text response.
func Text(content string) ScriptEntry {
	return ScriptEntry{Response: Response{Content: content, FinishReason: "stop"}}
}

// Fail is a convenience ScriptEntry producing an error.
func Fail(err error) ScriptEntry { return ScriptEntry{Err: err} }

// RequestTools is a convenience ScriptEntry producing a tool-call response.
func RequestTools(calls ...core.ToolCall) ScriptEntry {
	return ScriptEntry{Response: Response{ToolCalls: calls, FinishReason: "tool_calls"}}
}

// Append adds further entries to the script. Safe for concurrent use.
func (c *ScriptedClient) Append(entries ...ScriptEntry) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.script = append(c.script, entries...)
}

// Calls returns a copy of all requests seen so far, in call order.
func (c *ScriptedClient) Calls() []Request {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Request, len(c.calls))
	copy(out, c.calls)
	return out
}

// Infer implements Client.
func (c *ScriptedClient) Infer(ctx context.Context, req Request) (Response, error) {
	if err := ctx.Err(); err != nil {
		return Response{}, NewError(c.info.Provider, true, err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls = append(c.calls, req)

	if c.next < len(c.script) {
		entry := c.script[c.next]
		c.next++
		if entry.Err != nil {
			return Response{}, entry.Err
		}
		return entry.Response, nil
	}

	var lastUser string
	for i := len(req.Turns) - 1; i >= 0; i-- {
		if req.Turns[i].Role == core.RoleUser {
			lastUser = req.Turns[i].Text()
			break
		}
	}
	return Response{Content: "Scripted response to: " + lastUser, FinishReason: "stop"}, nil
}

// Info implements Client.
func (c *ScriptedClient) Info() Info { return c.info }
