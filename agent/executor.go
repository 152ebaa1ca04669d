package agent

import (
	"context"
	"fmt"

	"github.com/agentweave/agentweave/core"
	"github.com/agentweave/agentweave/inference"
	"github.com/agentweave/agentweave/logging"
	"github.com/agentweave/agentweave/tool"
)

// StepResult is the outcome of one executor step: the updated history plus a
// continuation flag. ContinuationRequired is true after a tool round trip
// (the agent still has to react to the tool results) and false once the
// agent produced a final text answer, available in Output.
type StepResult struct {
	Turns                []core.Turn
	Output               string
	ContinuationRequired bool
}

// Executor drives a single agent through one reasoning step: definition
// lookup, prompt construction, one inference call, and, when the model
// requests tools, one tool batch plus the synthetic tool turn. It holds no
// per-run state and is safe for concurrent use by independent branches.
type Executor struct {
	registry *Registry
	tools    *tool.Registry
	executor *tool.Executor
	client   inference.Client
	logger   logging.Logger
}

// ExecutorOptions configures Executor construction.
type ExecutorOptions struct {
	ToolExecutor *tool.Executor
	Logger       logging.Logger
}

// NewExecutor constructs an Executor. A tool executor with default bounds is
// created over tools when none is supplied.
func NewExecutor(registry *Registry, tools *tool.Registry, client inference.Client, optFns ...func(o *ExecutorOptions)) *Executor {
	opts := ExecutorOptions{Logger: logging.NoOpLogger{}}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.ToolExecutor == nil {
		opts.ToolExecutor = tool.NewExecutor(tools, func(o *tool.ExecutorOptions) {
			o.Logger = opts.Logger
		})
	}
	return &Executor{
		registry: registry,
		tools:    tools,
		executor: opts.ToolExecutor,
		client:   client,
		logger:   opts.Logger,
	}
}

// Step performs one request/response cycle for agentID against history.
//
// The input history is never mutated: appends happen on a fresh slice so the
// caller keeps an untouched view of the committed turns. Inference failures
// propagate unretried; a TIMEOUT-coded tool result also fails the step so the
// loop controller can surface the branch as aborted.
func (e *Executor) Step(ctx context.Context, agentID string, history []core.Turn) (StepResult, error) {
	def, err := e.registry.Lookup(agentID)
	if err != nil {
		return StepResult{}, err
	}

	req := inference.Request{
		Instructions: def.Instructions,
		Turns:        history,
		Tools:        e.tools.Schemas(def.Tools),
	}

	resp, err := e.client.Infer(ctx, req)
	if err != nil {
		return StepResult{}, err
	}

	turns := make([]core.Turn, len(history), len(history)+2)
	copy(turns, history)

	if len(resp.ToolCalls) == 0 {
		turns = append(turns, core.NewTextTurn(core.RoleAssistant, resp.Content))
		e.logger.Debug("agent.step.text", "agent", agentID, "finish_reason", resp.FinishReason)
		return StepResult{Turns: turns, Output: resp.Content}, nil
	}

	calls := withCallIDs(resp.ToolCalls)
	turns = append(turns, core.NewToolCallTurn(resp.Content, calls...))

	e.logger.Debug("agent.step.tool_calls", "agent", agentID, "count", len(calls))
	results := e.executor.Execute(ctx, calls)

	toolResults := make([]core.ToolResult, len(results))
	for i, res := range results {
		if res.Err != nil && res.Err.IsTimeout() {
			return StepResult{}, fmt.Errorf("tool call %s: %w", res.Call.Name, res.Err)
		}
		toolResults[i] = res.ToolResult()
	}
	turns = append(turns, core.NewToolResultTurn(toolResults...))

	return StepResult{Turns: turns, ContinuationRequired: true}, nil
}

// withCallIDs assigns ids to calls that arrived without one so results can be
// correlated deterministically.
func withCallIDs(calls []core.ToolCall) []core.ToolCall {
	out := make([]core.ToolCall, len(calls))
	copy(out, calls)
	for i := range out {
		if out[i].ID == "" {
			out[i].ID = core.NewID()
		}
	}
	return out
}
