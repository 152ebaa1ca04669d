package tool

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentweave/agentweave/core"
)

func newTestRegistry(t *testing.T, defs ...Definition) *Registry {
	t.Helper()
	r := NewRegistry()
	for _, def := range defs {
		require.NoError(t, r.Register(def))
	}
	return r
}

func addTool() Definition {
	return Definition{
		Name:        "add",
		Description: "Adds two numbers.",
		Parameters: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"a": map[string]any{"type": "number"},
				"b": map[string]any{"type": "number"},
			},
			"required": []any{"a", "b"},
		},
		Handler: func(_ context.Context, args map[string]any) (any, error) {
			return args["a"].(float64) + args["b"].(float64), nil
		},
	}
}

func TestExecuteEmptyBatch(t *testing.T) {
	exec := NewExecutor(newTestRegistry(t))

	results := exec.Execute(context.Background(), nil)
	assert.Empty(t, results)
}

func TestExecuteSingleCall(t *testing.T) {
	exec := NewExecutor(newTestRegistry(t, addTool()))

	results := exec.Execute(context.Background(), []core.ToolCall{
		{ID: "1", Name: "add", Arguments: `{"a": 2, "b": 3}`},
	})

	require.Len(t, results, 1)
	require.Nil(t, results[0].Err)
	assert.Equal(t, 5.0, results[0].Value)
}

func TestExecutePreservesOrder(t *testing.T) {
	slow := Definition{
		Name:        "slow",
		Description: "Sleeps briefly.",
		Parameters:  map[string]any{"type": "object", "properties": map[string]any{}},
		Handler: func(context.Context, map[string]any) (any, error) {
			time.Sleep(50 * time.Millisecond)
			return "slow", nil
		},
	}
	fast := Definition{
		Name:        "fast",
		Description: "Returns immediately.",
		Parameters:  map[string]any{"type": "object", "properties": map[string]any{}},
		Handler: func(context.Context, map[string]any) (any, error) {
			return "fast", nil
		},
	}

	exec := NewExecutor(newTestRegistry(t, slow, fast))

	results := exec.Execute(context.Background(), []core.ToolCall{
		{ID: "1", Name: "slow"},
		{ID: "2", Name: "fast"},
	})

	require.Len(t, results, 2)
	assert.Equal(t, "slow", results[0].Value)
	assert.Equal(t, "fast", results[1].Value)
}

func TestExecuteNotFound(t *testing.T) {
	exec := NewExecutor(newTestRegistry(t))

	results := exec.Execute(context.Background(), []core.ToolCall{
		{ID: "1", Name: "ghost"},
	})

	require.Len(t, results, 1)
	require.NotNil(t, results[0].Err)
	assert.Equal(t, CodeNotFound, results[0].Err.Code)
}

func TestExecuteValidationError(t *testing.T) {
	exec := NewExecutor(newTestRegistry(t, addTool()))

	results := exec.Execute(context.Background(), []core.ToolCall{
		{ID: "1", Name: "add", Arguments: `{"a": 2}`},
	})

	require.Len(t, results, 1)
	require.NotNil(t, results[0].Err)
	assert.Equal(t, CodeValidation, results[0].Err.Code)
}

func TestExecuteMalformedArguments(t *testing.T) {
	exec := NewExecutor(newTestRegistry(t, addTool()))

	results := exec.Execute(context.Background(), []core.ToolCall{
		{ID: "1", Name: "add", Arguments: `{not json`},
	})

	require.Len(t, results, 1)
	require.NotNil(t, results[0].Err)
	assert.Equal(t, CodeValidation, results[0].Err.Code)
}

func TestExecuteHandlerError(t *testing.T) {
	failing := Definition{
		Name:        "fail",
		Description: "Always fails.",
		Parameters:  map[string]any{"type": "object", "properties": map[string]any{}},
		Handler: func(context.Context, map[string]any) (any, error) {
			return nil, assert.AnError
		},
	}

	exec := NewExecutor(newTestRegistry(t, failing))

	results := exec.Execute(context.Background(), []core.ToolCall{
		{ID: "1", Name: "fail"},
	})

	require.Len(t, results, 1)
	require.NotNil(t, results[0].Err)
	assert.Equal(t, CodeExecution, results[0].Err.Code)
}

func TestExecutePanicRecovery(t *testing.T) {
	exploding := Definition{
		Name:        "explode",
		Description: "Panics.",
		Parameters:  map[string]any{"type": "object", "properties": map[string]any{}},
		Handler: func(context.Context, map[string]any) (any, error) {
			panic("boom")
		},
	}

	exec := NewExecutor(newTestRegistry(t, exploding))

	results := exec.Execute(context.Background(), []core.ToolCall{
		{ID: "1", Name: "explode"},
	})

	require.Len(t, results, 1)
	require.NotNil(t, results[0].Err)
	assert.Equal(t, CodeExecution, results[0].Err.Code)
	assert.Contains(t, results[0].Err.Message, "panic")
}

func TestExecuteCallTimeout(t *testing.T) {
	blocking := Definition{
		Name:        "block",
		Description: "Blocks past the call timeout.",
		Parameters:  map[string]any{"type": "object", "properties": map[string]any{}},
		Handler: func(ctx context.Context, _ map[string]any) (any, error) {
			select {
			case <-time.After(time.Second):
				return "late", nil
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		},
	}

	exec := NewExecutor(newTestRegistry(t, blocking), func(o *ExecutorOptions) {
		o.Config.CallTimeout = 20 * time.Millisecond
	})

	results := exec.Execute(context.Background(), []core.ToolCall{
		{ID: "1", Name: "block"},
	})

	require.Len(t, results, 1)
	require.NotNil(t, results[0].Err)
	assert.Equal(t, CodeTimeout, results[0].Err.Code)
	assert.True(t, results[0].Err.IsTimeout())
}

func TestExecuteBoundedParallelism(t *testing.T) {
	var active, peak atomic.Int32

	counting := Definition{
		Name:        "count",
		Description: "Tracks concurrent invocations.",
		Parameters:  map[string]any{"type": "object", "properties": map[string]any{}},
		Handler: func(context.Context, map[string]any) (any, error) {
			cur := active.Add(1)
			for {
				p := peak.Load()
				if cur <= p || peak.CompareAndSwap(p, cur) {
					break
				}
			}
			time.Sleep(20 * time.Millisecond)
			active.Add(-1)
			return nil, nil
		},
	}

	exec := NewExecutor(newTestRegistry(t, counting), func(o *ExecutorOptions) {
		o.Config.MaxParallel = 2
	})

	calls := make([]core.ToolCall, 6)
	for i := range calls {
		calls[i] = core.ToolCall{ID: core.NewID(), Name: "count"}
	}

	results := exec.Execute(context.Background(), calls)

	assert.Len(t, results, 6)
	assert.LessOrEqual(t, peak.Load(), int32(2))
}

func TestExecuteMixedBatchIsolatesFailures(t *testing.T) {
	exec := NewExecutor(newTestRegistry(t, addTool()))

	results := exec.Execute(context.Background(), []core.ToolCall{
		{ID: "1", Name: "add", Arguments: `{"a": 1, "b": 1}`},
		{ID: "2", Name: "ghost"},
		{ID: "3", Name: "add", Arguments: `{"a": 2, "b": 2}`},
	})

	require.Len(t, results, 3)
	assert.Equal(t, 2.0, results[0].Value)
	require.NotNil(t, results[1].Err)
	assert.Equal(t, CodeNotFound, results[1].Err.Code)
	assert.Equal(t, 4.0, results[2].Value)
}

func TestResultToolResult(t *testing.T) {
	ok := Result{Call: core.ToolCall{ID: "1", Name: "add"}, Value: 3.0}
	tr := ok.ToolResult()
	assert.Equal(t, "1", tr.ID)
	assert.Equal(t, 3.0, tr.Response)
	assert.Empty(t, tr.Error)

	failed := Result{
		Call: core.ToolCall{ID: "2", Name: "add"},
		Err:  NewError("add", "boom", CodeExecution),
	}
	tr = failed.ToolResult()
	assert.NotEmpty(t, tr.Error)
	assert.Nil(t, tr.Response)
}
