package workflow

import (
	"context"
	"strings"

	"github.com/agentweave/agentweave/core"
	"github.com/agentweave/agentweave/loop"
)

// runSequential executes the configured agents one after another. Each agent
// sees the full conversation so far: the initial input, every turn the
// previous agents produced, and the previous agent's final output repeated
// as a fresh user turn so the next agent treats it as its task.
//
// Non-completed terminal states are recorded but do not stop the chain;
// only an aborted branch short-circuits, since its history can no longer be
// trusted as input for the next agent.
func (e *Engine) runSequential(ctx context.Context, p *plan, em *emitter) *Result {
	turns := core.CloneTurns(p.cfg.Input)
	outcomes := make(map[string]loop.Outcome, len(p.cfg.Agents))

	var branches []BranchOutput

	for _, id := range p.cfg.Agents {
		out := e.runBranch(ctx, id, turns, p.loopCfg, em)
		outcomes[id] = out

		if out.Status == loop.StatusAborted {
			e.logger.Warn("sequential branch aborted", "agent_id", id, "error", errString(out.Err))
			break
		}

		branches = append(branches, BranchOutput{AgentID: id, Output: out.Output})

		turns = out.Turns
		if out.Output != "" {
			turns = append(turns, core.NewTextTurn(core.RoleUser, out.Output))
		}
	}

	return &Result{
		Status:   composeStatus(outcomes, len(p.cfg.Agents)),
		Outcomes: outcomes,
		Output:   joinOutputs(branches),
		Branches: branches,
	}
}

// joinOutputs concatenates non-empty branch outputs with blank lines.
func joinOutputs(branches []BranchOutput) string {
	parts := make([]string, 0, len(branches))
	for _, b := range branches {
		if b.Output != "" {
			parts = append(parts, b.Output)
		}
	}
	return strings.Join(parts, "\n\n")
}

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
