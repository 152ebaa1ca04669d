// Package loop wraps the single-step agent executor in a bounded iteration
// loop. The controller evaluates stop conditions after every step (max step
// count, wall-clock deadline, explicit final answer, executor error) and
// reports one of four terminal states. Reaching a bound is not an error: the
// outcome carries the last fully committed history either way.
package loop

import (
	"context"
	"time"

	"github.com/agentweave/agentweave/agent"
	"github.com/agentweave/agentweave/core"
	"github.com/agentweave/agentweave/logging"
)

// Status is the terminal state of one controller run.
type Status string

const (
	// StatusCompleted means the agent produced a final answer.
	StatusCompleted Status = "completed"
	// StatusMaxSteps means the step budget ran out; the outcome carries the
	// last partial history. A defined terminal state, not an error.
	StatusMaxSteps Status = "max_steps_reached"
	// StatusTimedOut means the wall-clock deadline fired; any in-flight step
	// was discarded and the outcome carries the last fully completed step's
	// history. A defined terminal state, not an error.
	StatusTimedOut Status = "timed_out"
	// StatusAborted means the executor failed (inference error, tool timeout
	// or external cancellation). The only failure path that surfaces as a
	// workflow-level error rather than a usable partial result.
	StatusAborted Status = "aborted"
)

// Outcome is the terminal result of one controller run.
type Outcome struct {
	Status Status
	Turns  []core.Turn // committed history including all produced turns
	Steps  int         // fully completed steps; always <= Config.MaxSteps
	Output string      // final (or last partial) assistant text
	Err    error       // set only when Status == StatusAborted
}

// Config bounds one controller run. Both values are caller-overridable per
// workflow; a Timeout of exactly zero makes the run return StatusTimedOut
// immediately without invoking the executor.
type Config struct {
	MaxSteps int
	Timeout  time.Duration
}

// DefaultConfig carries the documented defaults.
var DefaultConfig = Config{MaxSteps: 10, Timeout: 120 * time.Second}

// StepObserver is notified after each fully completed step. Used by the
// workflow engine to surface progressive step events.
type StepObserver func(step int, result agent.StepResult)

// Options configures Controller construction.
type Options struct {
	Config   Config
	Logger   logging.Logger
	Observer StepObserver
}

// Controller runs bounded agent loops. It holds no state across separate Run
// calls and is safe for concurrent use by independent branches.
type Controller struct {
	exec     *agent.Executor
	cfg      Config
	logger   logging.Logger
	observer StepObserver
}

// New constructs a Controller. A non-positive MaxSteps falls back to the
// default; Timeout is taken as given so callers can express the immediate
// timeout edge case.
func New(exec *agent.Executor, optFns ...func(o *Options)) *Controller {
	opts := Options{
		Config: DefaultConfig,
		Logger: logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.Config.MaxSteps <= 0 {
		opts.Config.MaxSteps = DefaultConfig.MaxSteps
	}
	return &Controller{exec: exec, cfg: opts.Config, logger: opts.Logger, observer: opts.Observer}
}

// Run drives agentID through bounded steps starting from history.
//
// The deadline is enforced as a context on every step, so an in-flight
// inference call or tool batch is cancelled when it fires; the partial step
// is discarded and the previously committed turns are returned. External
// cancellation of ctx surfaces as StatusAborted per the cancellation
// contract: the controller stops waiting rather than force-killing opaque
// collaborator calls.
func (c *Controller) Run(ctx context.Context, agentID string, history []core.Turn) Outcome {
	if c.cfg.Timeout <= 0 {
		return Outcome{Status: StatusTimedOut, Turns: history, Steps: 0}
	}

	deadline := time.Now().Add(c.cfg.Timeout)
	runCtx, cancel := context.WithDeadline(ctx, deadline)
	defer cancel()

	turns := history
	for step := 1; step <= c.cfg.MaxSteps; step++ {
		res, err := c.exec.Step(runCtx, agentID, turns)
		if err != nil {
			if runCtx.Err() == context.DeadlineExceeded && ctx.Err() == nil {
				c.logger.Info("loop.timeout", "agent", agentID, "steps", step-1)
				return Outcome{Status: StatusTimedOut, Turns: turns, Steps: step - 1, Output: lastAssistantText(turns)}
			}
			c.logger.Warn("loop.aborted", "agent", agentID, "steps", step-1, "error", err.Error())
			return Outcome{Status: StatusAborted, Turns: turns, Steps: step - 1, Err: err}
		}

		turns = res.Turns
		if c.observer != nil {
			c.observer(step, res)
		}

		if !res.ContinuationRequired {
			c.logger.Debug("loop.completed", "agent", agentID, "steps", step)
			return Outcome{Status: StatusCompleted, Turns: turns, Steps: step, Output: res.Output}
		}
		if time.Now().After(deadline) {
			return Outcome{Status: StatusTimedOut, Turns: turns, Steps: step, Output: lastAssistantText(turns)}
		}
	}

	c.logger.Info("loop.max_steps", "agent", agentID, "max_steps", c.cfg.MaxSteps)
	return Outcome{Status: StatusMaxSteps, Turns: turns, Steps: c.cfg.MaxSteps, Output: lastAssistantText(turns)}
}

// lastAssistantText returns the text of the most recent assistant turn, or ""
// when none exists yet.
func lastAssistantText(turns []core.Turn) string {
	for i := len(turns) - 1; i >= 0; i-- {
		if turns[i].Role == core.RoleAssistant {
			if text := turns[i].Text(); text != "" {
				return text
			}
		}
	}
	return ""
}
