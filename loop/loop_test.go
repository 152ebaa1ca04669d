package loop

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentweave/agentweave/agent"
	"github.com/agentweave/agentweave/core"
	"github.com/agentweave/agentweave/inference"
	"github.com/agentweave/agentweave/internal/testutil"
	"github.com/agentweave/agentweave/tool"
)

func newController(t *testing.T, client inference.Client, cfg Config, defs ...agent.Definition) *Controller {
	t.Helper()

	registry := agent.NewRegistry()
	for _, def := range defs {
		require.NoError(t, registry.Register(def))
	}

	exec := agent.NewExecutor(registry, tool.NewRegistry(), client)

	return New(exec, func(o *Options) {
		o.Config = cfg
	})
}

func TestRunCompletes(t *testing.T) {
	client := inference.NewScriptedClient(inference.Text("done"))
	ctrl := newController(t, client, DefaultConfig, agent.Definition{ID: "assistant"})

	out := ctrl.Run(context.Background(), "assistant", []core.Turn{core.NewTextTurn(core.RoleUser, "go")})

	assert.Equal(t, StatusCompleted, out.Status)
	assert.Equal(t, 1, out.Steps)
	assert.Equal(t, "done", out.Output)
	assert.Len(t, out.Turns, 2)
	assert.NoError(t, out.Err)
}

func TestRunStopsAtMaxSteps(t *testing.T) {
	// Tool-call responses force ContinuationRequired on every step. The
	// calls name an unregistered tool, which feeds back as an error-marked
	// result rather than failing the step.
	var entries []inference.ScriptEntry
	for range 10 {
		entries = append(entries, inference.RequestTools(core.ToolCall{Name: "ghost"}))
	}
	client := inference.NewScriptedClient(entries...)

	cfg := Config{MaxSteps: 3, Timeout: time.Minute}
	ctrl := newController(t, client, cfg, agent.Definition{ID: "assistant"})

	out := ctrl.Run(context.Background(), "assistant", nil)

	assert.Equal(t, StatusMaxSteps, out.Status)
	assert.Equal(t, 3, out.Steps)
	assert.Len(t, client.Calls(), 3)
}

func TestRunZeroTimeoutTimesOutImmediately(t *testing.T) {
	client := inference.NewScriptedClient(inference.Text("never reached"))
	cfg := Config{MaxSteps: 5, Timeout: 0}
	ctrl := newController(t, client, cfg, agent.Definition{ID: "assistant"})

	history := []core.Turn{core.NewTextTurn(core.RoleUser, "go")}
	out := ctrl.Run(context.Background(), "assistant", history)

	assert.Equal(t, StatusTimedOut, out.Status)
	assert.Zero(t, out.Steps)
	assert.Len(t, out.Turns, 1)
	assert.Empty(t, client.Calls())
}

func TestRunContinuesPastFailingTool(t *testing.T) {
	// A handler error is reported back to the model as an error-marked
	// result, not treated as a loop failure.
	client := inference.NewScriptedClient(
		inference.RequestTools(core.ToolCall{Name: "fail", Arguments: "{}"}),
		inference.Text("recovered"),
	)

	registry := agent.NewRegistry()
	require.NoError(t, registry.Register(testutil.Agent("assistant", testutil.WithTools("fail"))))

	tools := tool.NewRegistry()
	require.NoError(t, tools.Register(testutil.FailTool("disk full")))

	exec := agent.NewExecutor(registry, tools, client)
	ctrl := New(exec)

	out := ctrl.Run(context.Background(), "assistant", nil)

	assert.Equal(t, StatusCompleted, out.Status)
	assert.Equal(t, 2, out.Steps)
	assert.Equal(t, "recovered", out.Output)
}

func TestRunAbortsOnExecutorError(t *testing.T) {
	client := inference.NewScriptedClient(inference.Fail(assert.AnError))
	ctrl := newController(t, client, DefaultConfig, agent.Definition{ID: "assistant"})

	out := ctrl.Run(context.Background(), "assistant", nil)

	assert.Equal(t, StatusAborted, out.Status)
	assert.Zero(t, out.Steps)
	assert.ErrorIs(t, out.Err, assert.AnError)
}

func TestRunAbortsOnExternalCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	client := inference.NewScriptedClient(inference.Text("unused"))
	ctrl := newController(t, client, DefaultConfig, agent.Definition{ID: "assistant"})

	out := ctrl.Run(ctx, "assistant", nil)

	assert.Equal(t, StatusAborted, out.Status)
	assert.Error(t, out.Err)
}

func TestRunKeepsCommittedTurnsAcrossSteps(t *testing.T) {
	client := inference.NewScriptedClient(
		inference.RequestTools(core.ToolCall{Name: "ghost"}),
		inference.Text("final"),
	)

	ctrl := newController(t, client, DefaultConfig, agent.Definition{ID: "assistant"})

	history := []core.Turn{core.NewTextTurn(core.RoleUser, "go")}
	out := ctrl.Run(context.Background(), "assistant", history)

	assert.Equal(t, StatusCompleted, out.Status)
	assert.Equal(t, 2, out.Steps)
	// user + tool-call turn + tool-result turn + final assistant turn
	assert.Len(t, out.Turns, 4)
}

func TestRunObserverSeesEveryStep(t *testing.T) {
	client := inference.NewScriptedClient(
		inference.RequestTools(core.ToolCall{Name: "ghost"}),
		inference.Text("final"),
	)

	registry := agent.NewRegistry()
	require.NoError(t, registry.Register(agent.Definition{ID: "assistant"}))
	exec := agent.NewExecutor(registry, tool.NewRegistry(), client)

	var steps []int
	ctrl := New(exec, func(o *Options) {
		o.Observer = func(step int, _ agent.StepResult) {
			steps = append(steps, step)
		}
	})

	out := ctrl.Run(context.Background(), "assistant", nil)

	assert.Equal(t, StatusCompleted, out.Status)
	assert.Equal(t, []int{1, 2}, steps)
}

func TestNewNormalizesMaxSteps(t *testing.T) {
	client := inference.NewScriptedClient(inference.Text("done"))
	ctrl := newController(t, client, Config{MaxSteps: -1, Timeout: time.Minute}, agent.Definition{ID: "assistant"})

	assert.Equal(t, DefaultConfig.MaxSteps, ctrl.cfg.MaxSteps)
}
