package workflow

import (
	"context"

	"github.com/agentweave/agentweave/agent"
	"github.com/agentweave/agentweave/core"
	"github.com/agentweave/agentweave/loop"
)

// runRouting executes the single agent the route predicate selected during
// plan validation. Selection errors (no match, ambiguous match) never reach
// this point: they are returned synchronously from RunStream.
func (e *Engine) runRouting(ctx context.Context, p *plan, em *emitter) *Result {
	turns := core.CloneTurns(p.cfg.Input)

	out := e.runBranch(ctx, p.routed, turns, p.loopCfg, em)

	outcomes := map[string]loop.Outcome{p.routed: out}
	branches := []BranchOutput{{AgentID: p.routed, Output: out.Output}}

	return &Result{
		Status:   composeStatus(outcomes, 1),
		Outcomes: outcomes,
		Output:   out.Output,
		Branches: branches,
	}
}

// RouteByCapability returns a RouteFunc that selects the candidates carrying
// the given capability tag. Combined with agent.Definition.Capabilities this
// gives declarative, deterministic routing without a custom predicate.
func RouteByCapability(capability string) RouteFunc {
	return func(_ []core.Turn, candidates []agent.Definition) []string {
		var matches []string
		for _, def := range candidates {
			if def.HasCapability(capability) {
				matches = append(matches, def.ID)
			}
		}
		return matches
	}
}
