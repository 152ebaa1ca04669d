package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewTextTurn(t *testing.T) {
	turn := NewTextTurn(RoleUser, "hello")

	assert.Equal(t, RoleUser, turn.Role)
	assert.Equal(t, "hello", turn.Text())
	assert.Empty(t, turn.ToolCalls())
	assert.Empty(t, turn.ToolResults())
}

func TestNewToolCallTurn(t *testing.T) {
	calls := []ToolCall{
		{ID: "1", Name: "search", Arguments: `{"q":"go"}`},
		{ID: "2", Name: "calc", Arguments: `{"a":1}`},
	}

	turn := NewToolCallTurn("let me check", calls...)

	assert.Equal(t, RoleAssistant, turn.Role)
	assert.Equal(t, "let me check", turn.Text())
	require.Len(t, turn.ToolCalls(), 2)
	assert.Equal(t, "search", turn.ToolCalls()[0].Name)
	assert.Equal(t, "calc", turn.ToolCalls()[1].Name)
}

func TestNewToolCallTurnWithoutText(t *testing.T) {
	turn := NewToolCallTurn("", ToolCall{ID: "1", Name: "search"})

	assert.Equal(t, "", turn.Text())
	assert.Len(t, turn.Parts, 1)
}

func TestNewToolResultTurn(t *testing.T) {
	turn := NewToolResultTurn(
		ToolResult{ID: "1", Name: "search", Response: "found"},
		ToolResult{ID: "2", Name: "calc", Error: "division by zero"},
	)

	assert.Equal(t, RoleTool, turn.Role)

	results := turn.ToolResults()
	require.Len(t, results, 2)
	assert.Equal(t, "found", results[0].Response)
	assert.Equal(t, "division by zero", results[1].Error)
}

func TestTextConcatenatesParts(t *testing.T) {
	turn := Turn{
		Role: RoleAssistant,
		Parts: []Part{
			TextPart{Text: "first"},
			DataPart{Data: map[string]any{"k": "v"}},
			TextPart{Text: " second"},
		},
	}

	assert.Equal(t, "first second", turn.Text())
}

func TestCloneIsolatesParts(t *testing.T) {
	orig := Turn{
		Role: RoleAssistant,
		Parts: []Part{
			TextPart{Text: "a", Metadata: map[string]any{"k": "v"}},
		},
	}

	clone := orig.Clone()
	clone.Parts[0] = TextPart{Text: "mutated"}

	assert.Equal(t, "a", orig.Text())
	assert.Equal(t, "mutated", clone.Text())
}

func TestCloneTurnsIsolatesAppends(t *testing.T) {
	history := []Turn{NewTextTurn(RoleUser, "shared input")}

	branchA := CloneTurns(history)
	branchB := CloneTurns(history)

	branchA = append(branchA, NewTextTurn(RoleAssistant, "from A"))
	branchB = append(branchB, NewTextTurn(RoleAssistant, "from B"))

	assert.Len(t, history, 1)
	require.Len(t, branchA, 2)
	require.Len(t, branchB, 2)
	assert.Equal(t, "from A", branchA[1].Text())
	assert.Equal(t, "from B", branchB[1].Text())
}

func TestNewIDUnique(t *testing.T) {
	seen := make(map[string]bool)
	for range 100 {
		id := NewID()
		assert.NotEmpty(t, id)
		assert.False(t, seen[id])
		seen[id] = true
	}
}
