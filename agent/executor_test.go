package agent

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentweave/agentweave/core"
	"github.com/agentweave/agentweave/inference"
	"github.com/agentweave/agentweave/tool"
)

func echoTool() tool.Definition {
	return tool.Definition{
		Name:        "echo",
		Description: "Echoes text back.",
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

func blockingTool(d time.Duration) tool.Definition {
	return tool.Definition{
		Name:        "block",
		Description: "Blocks until cancelled.",
		Parameters:  map[string]any{"type": "object", "properties": map[string]any{}},
		Handler: func(ctx context.Context, _ map[string]any) (any, error) {
			select {
			case <-time.After(d):
				return "late", nil
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		},
	}
}

func newTestExecutor(t *testing.T, client inference.Client, tools []tool.Definition, defs ...Definition) *Executor {
	t.Helper()

	registry := NewRegistry()
	for _, def := range defs {
		require.NoError(t, registry.Register(def))
	}

	toolReg := tool.NewRegistry()
	for _, def := range tools {
		require.NoError(t, toolReg.Register(def))
	}

	return NewExecutor(registry, toolReg, client, func(o *ExecutorOptions) {
		o.ToolExecutor = tool.NewExecutor(toolReg, func(to *tool.ExecutorOptions) {
			to.Config.CallTimeout = 100 * time.Millisecond
		})
	})
}

func TestStepTextAnswer(t *testing.T) {
	client := inference.NewScriptedClient(inference.Text("final answer"))
	exec := newTestExecutor(t, client, nil, Definition{ID: "assistant", Instructions: "Answer."})

	history := []core.Turn{core.NewTextTurn(core.RoleUser, "question")}
	res, err := exec.Step(context.Background(), "assistant", history)

	require.NoError(t, err)
	assert.False(t, res.ContinuationRequired)
	assert.Equal(t, "final answer", res.Output)
	require.Len(t, res.Turns, 2)
	assert.Equal(t, core.RoleAssistant, res.Turns[1].Role)
}

func TestStepUnknownAgent(t *testing.T) {
	client := inference.NewScriptedClient()
	exec := newTestExecutor(t, client, nil)

	_, err := exec.Step(context.Background(), "ghost", nil)
	assert.ErrorIs(t, err, ErrAgentNotFound)
}

func TestStepPassesInstructionsAndTools(t *testing.T) {
	client := inference.NewScriptedClient(inference.Text("ok"))
	exec := newTestExecutor(t, client, []tool.Definition{echoTool()},
		Definition{ID: "worker", Instructions: "Use the echo tool.", Tools: []string{"echo"}})

	_, err := exec.Step(context.Background(), "worker", nil)
	require.NoError(t, err)

	calls := client.Calls()
	require.Len(t, calls, 1)
	assert.Equal(t, "Use the echo tool.", calls[0].Instructions)
	require.Len(t, calls[0].Tools, 1)
	assert.Equal(t, "echo", calls[0].Tools[0].Name)
}

func TestStepToolRoundTrip(t *testing.T) {
	args, _ := json.Marshal(map[string]any{"text": "hello"})
	client := inference.NewScriptedClient(
		inference.RequestTools(core.ToolCall{ID: "call-1", Name: "echo", Arguments: string(args)}),
	)
	exec := newTestExecutor(t, client, []tool.Definition{echoTool()},
		Definition{ID: "worker", Tools: []string{"echo"}})

	history := []core.Turn{core.NewTextTurn(core.RoleUser, "say hello")}
	res, err := exec.Step(context.Background(), "worker", history)

	require.NoError(t, err)
	assert.True(t, res.ContinuationRequired)
	require.Len(t, res.Turns, 3)

	assert.Equal(t, core.RoleAssistant, res.Turns[1].Role)
	require.Len(t, res.Turns[1].ToolCalls(), 1)

	assert.Equal(t, core.RoleTool, res.Turns[2].Role)
	results := res.Turns[2].ToolResults()
	require.Len(t, results, 1)
	assert.Equal(t, "call-1", results[0].ID)
	assert.Equal(t, "hello", results[0].Response)
	assert.Empty(t, results[0].Error)
}

func TestStepDoesNotMutateHistory(t *testing.T) {
	client := inference.NewScriptedClient(inference.Text("answer"))
	exec := newTestExecutor(t, client, nil, Definition{ID: "assistant"})

	history := make([]core.Turn, 0, 8)
	history = append(history, core.NewTextTurn(core.RoleUser, "question"))

	res, err := exec.Step(context.Background(), "assistant", history)
	require.NoError(t, err)

	assert.Len(t, history, 1)
	assert.Len(t, res.Turns, 2)
}

func TestStepFailedToolFeedsBackAsError(t *testing.T) {
	client := inference.NewScriptedClient(
		inference.RequestTools(core.ToolCall{ID: "call-1", Name: "ghost"}),
	)
	exec := newTestExecutor(t, client, []tool.Definition{echoTool()},
		Definition{ID: "worker", Tools: []string{"echo"}})

	res, err := exec.Step(context.Background(), "worker", nil)

	require.NoError(t, err)
	assert.True(t, res.ContinuationRequired)

	results := res.Turns[len(res.Turns)-1].ToolResults()
	require.Len(t, results, 1)
	assert.Contains(t, results[0].Error, "NOT_FOUND")
}

func TestStepToolTimeoutFailsStep(t *testing.T) {
	client := inference.NewScriptedClient(
		inference.RequestTools(core.ToolCall{ID: "call-1", Name: "block"}),
	)
	exec := newTestExecutor(t, client, []tool.Definition{blockingTool(time.Second)},
		Definition{ID: "worker", Tools: []string{"block"}})

	_, err := exec.Step(context.Background(), "worker", nil)

	require.Error(t, err)

	var toolErr *tool.Error
	require.ErrorAs(t, err, &toolErr)
	assert.True(t, toolErr.IsTimeout())
}

func TestStepInferenceErrorPropagates(t *testing.T) {
	client := inference.NewScriptedClient(inference.Fail(assert.AnError))
	exec := newTestExecutor(t, client, nil, Definition{ID: "assistant"})

	_, err := exec.Step(context.Background(), "assistant", nil)
	assert.ErrorIs(t, err, assert.AnError)
}
