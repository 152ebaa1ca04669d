package workflow

import (
	"fmt"
	"time"

	"github.com/agentweave/agentweave/agent"
	"github.com/agentweave/agentweave/core"
	"github.com/agentweave/agentweave/loop"
)

// Pattern identifies one of the supported workflow composition strategies.
//
// Each pattern defines how the configured agents are scheduled relative to
// one another and how their outputs are combined into a single result:
//
//   - PatternSequential: agents run one after another, each receiving the
//     accumulated conversation including the previous agent's output.
//   - PatternParallel: agents run concurrently on isolated copies of the
//     initial conversation; outputs are collected per branch.
//   - PatternRouting: a route predicate selects exactly one agent, which
//     then handles the conversation alone.
//   - PatternEvaluatorOptimizer: a producer agent drafts an answer and an
//     evaluator agent scores it, iterating until a quality threshold or an
//     iteration cap is reached.
type Pattern string

const (
	PatternSequential         Pattern = "sequential"
	PatternParallel           Pattern = "parallel"
	PatternRouting            Pattern = "routing"
	PatternEvaluatorOptimizer Pattern = "evaluator_optimizer"
)

// Status summarizes the overall outcome of a workflow run.
//
// The status is derived from the per-branch loop outcomes: a run is
// successful only when every branch the pattern required completed, a
// partial failure when at least one (but not all) completed, and a failure
// when no branch completed.
type Status string

const (
	StatusSuccess        Status = "success"
	StatusPartialFailure Status = "partial_failure"
	StatusFailure        Status = "failure"
)

// RouteFunc selects which of the candidate agents should handle the
// conversation in a routing workflow. It receives the initial conversation
// turns and the definitions of the configured candidate agents, and returns
// the IDs of the agents it considers a match.
//
// The engine requires exactly one match: zero matches fail the run with
// ErrNoRouteMatched and more than one with ErrAmbiguousRoute. The function
// must be deterministic for a given input so that repeated runs route
// identically.
type RouteFunc func(turns []core.Turn, candidates []agent.Definition) []string

// EvaluatorParams tunes the evaluator-optimizer pattern.
type EvaluatorParams struct {
	// Producer is the ID of the agent that drafts and revises answers.
	Producer string

	// Evaluator is the ID of the agent that scores each draft.
	Evaluator string

	// Threshold is the minimum score in [0, 1] at which iteration stops.
	Threshold float64

	// MaxIterations caps the number of produce/evaluate rounds. Defaults
	// to DefaultMaxIterations when zero or negative.
	MaxIterations int
}

// DefaultMaxIterations bounds evaluator-optimizer rounds when the
// configuration does not specify a cap.
const DefaultMaxIterations = 5

// Config describes a single workflow run: which pattern to apply, which
// agents participate, the conversation to start from, and per-pattern
// parameters.
//
// Example:
//
//	cfg := workflow.Config{
//	    Pattern: workflow.PatternSequential,
//	    Agents:  []string{"research", "code", "creative"},
//	    Input:   []core.Turn{core.NewTextTurn(core.RoleUser, "Build a demo")},
//	}
type Config struct {
	// Pattern selects the composition strategy.
	Pattern Pattern

	// Agents lists the participating agent IDs. For routing these are the
	// candidates; for evaluator-optimizer this may be the [producer,
	// evaluator] pair when EvaluatorParams does not name them explicitly.
	Agents []string

	// Input holds the initial conversation turns shared by every branch.
	Input []core.Turn

	// Loop overrides the per-branch loop configuration. When nil each
	// branch runs with loop.DefaultConfig.
	Loop *loop.Config

	// Route selects the handling agent for PatternRouting. Ignored by the
	// other patterns.
	Route RouteFunc

	// Evaluator holds the evaluator-optimizer parameters. Ignored by the
	// other patterns.
	Evaluator EvaluatorParams
}

// BranchOutput pairs an agent ID with the final output its branch produced.
// For sequential workflows the slice preserves execution order; for parallel
// workflows it preserves the configured agent order regardless of which
// branch finished first.
type BranchOutput struct {
	AgentID string `json:"agentId"`
	Output  string `json:"output"`
}

// Result aggregates the outcome of a workflow run.
type Result struct {
	// RunID is the unique identifier assigned to this run.
	RunID string `json:"runId"`

	// Pattern echoes the pattern that produced this result.
	Pattern Pattern `json:"pattern"`

	// Status is the composed run status derived from branch outcomes.
	Status Status `json:"status"`

	// Outcomes maps each agent ID that ran to its final loop outcome. An
	// agent skipped because an earlier sequential branch aborted has no
	// entry.
	Outcomes map[string]loop.Outcome `json:"outcomes"`

	// Output is the composed textual result: the concatenated branch
	// outputs for sequential and parallel runs, the selected branch output
	// for routing, and the best-scoring draft for evaluator-optimizer.
	Output string `json:"output"`

	// Branches lists per-branch outputs in a stable order.
	Branches []BranchOutput `json:"branches"`

	// Elapsed is the wall-clock duration of the run.
	Elapsed time.Duration `json:"elapsed"`
}

// composeStatus derives the run status from the recorded branch outcomes.
// required is the number of branches the pattern needed to complete for the
// run to count as a full success.
func composeStatus(outcomes map[string]loop.Outcome, required int) Status {
	completed := 0

	for _, o := range outcomes {
		if o.Status == loop.StatusCompleted {
			completed++
		}
	}

	switch {
	case required > 0 && completed >= required:
		return StatusSuccess
	case completed > 0:
		return StatusPartialFailure
	default:
		return StatusFailure
	}
}

func (p Pattern) valid() bool {
	switch p {
	case PatternSequential, PatternParallel, PatternRouting, PatternEvaluatorOptimizer:
		return true
	default:
		return false
	}
}

func (c Config) loopConfig() loop.Config {
	if c.Loop != nil {
		return *c.Loop
	}

	return loop.DefaultConfig
}

// String implements fmt.Stringer for readable log output.
func (p Pattern) String() string { return string(p) }

var _ fmt.Stringer = PatternSequential
