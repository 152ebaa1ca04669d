package workflow

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/agentweave/agentweave/core"
	"github.com/agentweave/agentweave/loop"
)

// runParallel executes every configured agent concurrently, each on its own
// deep copy of the initial conversation so no branch can observe another's
// turns. Branch failures never cancel siblings: a timed-out or aborted
// branch is recorded in the outcome map while the others run to their own
// terminal state. Outputs are collected in configured agent order regardless
// of completion order.
func (e *Engine) runParallel(ctx context.Context, p *plan, em *emitter) *Result {
	outs := make([]loop.Outcome, len(p.cfg.Agents))

	g, gctx := errgroup.WithContext(ctx)

	for i, id := range p.cfg.Agents {
		branchTurns := core.CloneTurns(p.cfg.Input)

		g.Go(func() error {
			outs[i] = e.runBranch(gctx, id, branchTurns, p.loopCfg, em)
			return nil
		})
	}

	// Branch goroutines never return errors, so Wait only synchronizes.
	_ = g.Wait()

	outcomes := make(map[string]loop.Outcome, len(p.cfg.Agents))
	branches := make([]BranchOutput, 0, len(p.cfg.Agents))

	for i, id := range p.cfg.Agents {
		outcomes[id] = outs[i]
		branches = append(branches, BranchOutput{AgentID: id, Output: outs[i].Output})
	}

	return &Result{
		Status:   composeStatus(outcomes, len(p.cfg.Agents)),
		Outcomes: outcomes,
		Output:   joinOutputs(branches),
		Branches: branches,
	}
}
