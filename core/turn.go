package core

import "strings"

// Role identifies the author of a conversation turn.
type Role string

const (
	// RoleUser marks input supplied by the end user (or a prior branch's
	// output handed down a sequential chain).
	RoleUser Role = "user"
	// RoleAssistant marks model-generated content, including tool-call requests.
	RoleAssistant Role = "assistant"
	// RoleTool marks synthetic turns carrying tool execution results.
	RoleTool Role = "tool"
	// RoleSystem marks instruction content injected ahead of the conversation.
	RoleSystem Role = "system"
)

// Part represents a polymorphic segment of turn content. Concrete part types
// implement the unexported isPart marker enabling a closed set.
type Part interface{ isPart() }

// TextPart is a plain text content segment.
type TextPart struct {
	Text     string         // Plain UTF-8 text
	Metadata map[string]any // Optional producer-provided metadata
}

// isPart implements the Part interface for TextPart.
func (TextPart) isPart() {}

// DataPart is a structured data segment (e.g., a JSON object map).
type DataPart struct {
	Data     map[string]any // Structured key/value payload
	Metadata map[string]any
}

// isPart implements the Part interface for DataPart.
func (DataPart) isPart() {}

// ToolCall describes a tool invocation requested by an assistant turn.
type ToolCall struct {
	ID        string `json:"id,omitempty"`        // Stable id correlating call and result
	Name      string `json:"name"`                // Registered tool name
	Arguments string `json:"arguments,omitempty"` // Serialized argument payload (JSON)
}

// ToolCallPart wraps a ToolCall as a content part.
type ToolCallPart struct {
	ToolCall ToolCall
	Metadata map[string]any
}

// isPart implements the Part interface for ToolCallPart.
func (ToolCallPart) isPart() {}

// ToolResult describes the outcome of a previously requested tool call.
type ToolResult struct {
	ID       string `json:"id,omitempty"`       // Matches originating ToolCall ID
	Name     string `json:"name"`               // Tool name
	Response any    `json:"response,omitempty"` // Successful result (any JSON-serializable shape)
	Error    string `json:"error,omitempty"`    // Populated on failure
}

// ToolResultPart wraps a ToolResult as a content part.
type ToolResultPart struct {
	ToolResult ToolResult
	Metadata   map[string]any
}

// isPart implements the Part interface for ToolResultPart.
func (ToolResultPart) isPart() {}

// Turn is one entry of a conversation history: a role plus ordered
// heterogeneous content parts. Histories are append-only; components that
// produce new turns never rewrite prior ones.
type Turn struct {
	Role  Role   `json:"role"`
	Parts []Part `json:"parts"`
}

// NewTextTurn constructs a turn holding a single text part.
func NewTextTurn(role Role, text string) Turn {
	return Turn{Role: role, Parts: []Part{TextPart{Text: text}}}
}

// NewToolCallTurn constructs an assistant turn requesting the given tool calls,
// preserving order. An optional leading text segment may accompany the calls.
func NewToolCallTurn(text string, calls ...ToolCall) Turn {
	parts := make([]Part, 0, len(calls)+1)
	if text != "" {
		parts = append(parts, TextPart{Text: text})
	}
	for _, c := range calls {
		parts = append(parts, ToolCallPart{ToolCall: c})
	}
	return Turn{Role: RoleAssistant, Parts: parts}
}

// NewToolResultTurn constructs the synthetic tool turn carrying one result per
// originating call, in the order the calls were issued.
func NewToolResultTurn(results ...ToolResult) Turn {
	parts := make([]Part, 0, len(results))
	for _, r := range results {
		parts = append(parts, ToolResultPart{ToolResult: r})
	}
	return Turn{Role: RoleTool, Parts: parts}
}

// Text concatenates all text parts of the turn in order.
func (t Turn) Text() string {
	var b strings.Builder
	for _, p := range t.Parts {
		if tp, ok := p.(TextPart); ok {
			b.WriteString(tp.Text)
		}
	}
	return b.String()
}

// ToolCalls returns any tool call parts contained within the turn preserving
// their original order.
func (t Turn) ToolCalls() []ToolCall {
	var calls []ToolCall
	for _, p := range t.Parts {
		if tc, ok := p.(ToolCallPart); ok {
			calls = append(calls, tc.ToolCall)
		}
	}
	return calls
}

// ToolResults returns any tool result parts contained within the turn
// preserving their original order.
func (t Turn) ToolResults() []ToolResult {
	var results []ToolResult
	for _, p := range t.Parts {
		if tr, ok := p.(ToolResultPart); ok {
			results = append(results, tr.ToolResult)
		}
	}
	return results
}

// Clone returns a deep-enough copy of the turn for safe divergence: the part
// slice is copied so appends and element replacement on one copy never show
// through the other. Part payload maps are copied as well.
func (t Turn) Clone() Turn {
	c := Turn{Role: t.Role, Parts: make([]Part, len(t.Parts))}
	for i, p := range t.Parts {
		switch v := p.(type) {
		case TextPart:
			v.Metadata = cloneMeta(v.Metadata)
			c.Parts[i] = v
		case DataPart:
			v.Data = cloneMeta(v.Data)
			v.Metadata = cloneMeta(v.Metadata)
			c.Parts[i] = v
		case ToolCallPart:
			v.Metadata = cloneMeta(v.Metadata)
			c.Parts[i] = v
		case ToolResultPart:
			v.Metadata = cloneMeta(v.Metadata)
			c.Parts[i] = v
		default:
			c.Parts[i] = p
		}
	}
	return c
}

// CloneTurns deep-copies a history so concurrent branches never observe each
// other's appends.
func CloneTurns(turns []Turn) []Turn {
	out := make([]Turn, len(turns))
	for i, t := range turns {
		out[i] = t.Clone()
	}
	return out
}

func cloneMeta(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	c := make(map[string]any, len(m))
	for k, v := range m {
		c[k] = v
	}
	return c
}
