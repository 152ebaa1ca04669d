package workflow

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/agentweave/agentweave/core"
	"github.com/agentweave/agentweave/loop"
)

// evaluation is the structured verdict the evaluator agent is asked to emit.
type evaluation struct {
	Score    float64 `json:"score"`
	Feedback string  `json:"feedback"`
}

// runEvaluator executes the evaluator-optimizer refinement cycle: the
// producer drafts an answer, the evaluator scores it in [0, 1], and the
// producer revises against the feedback until the score clears the
// threshold or the round cap is hit.
//
// The producer's conversation accumulates across rounds so revisions see
// their own earlier drafts and the feedback; the evaluator starts from a
// fresh copy of the input each round so its verdicts stay independent. The
// best-scoring draft wins, with ties resolved toward the most recent round.
func (e *Engine) runEvaluator(ctx context.Context, p *plan, em *emitter) *Result {
	producerTurns := core.CloneTurns(p.cfg.Input)
	outcomes := make(map[string]loop.Outcome, 2)

	var (
		bestOutput string
		bestScore  = -1.0
	)

	for round := 1; round <= p.rounds; round++ {
		pOut := e.runBranch(ctx, p.producer, producerTurns, p.loopCfg, em)
		outcomes[p.producer] = pOut

		if pOut.Status != loop.StatusCompleted {
			e.logger.Warn("producer round did not complete", "agent_id", p.producer, "round", round, "status", string(pOut.Status))
			break
		}

		producerTurns = pOut.Turns
		draft := pOut.Output

		judgeTurns := core.CloneTurns(p.cfg.Input)
		judgeTurns = append(judgeTurns, core.NewTextTurn(core.RoleUser, evaluationPrompt(draft)))

		jOut := e.runBranch(ctx, p.judge, judgeTurns, p.loopCfg, em)
		outcomes[p.judge] = jOut

		if jOut.Status != loop.StatusCompleted {
			e.logger.Warn("evaluator round did not complete", "agent_id", p.judge, "round", round, "status", string(jOut.Status))
			// Keep the unevaluated draft if nothing scored better yet.
			if bestScore < 0 {
				bestOutput = draft
				bestScore = 0
			}
			break
		}

		verdict := parseEvaluation(jOut.Output)

		e.logger.Debug("evaluation round", "round", round, "score", fmt.Sprintf("%.2f", verdict.Score))

		if verdict.Score >= bestScore {
			bestOutput = draft
			bestScore = verdict.Score
		}

		if verdict.Score >= p.cfg.Evaluator.Threshold {
			break
		}

		producerTurns = append(producerTurns, core.NewTextTurn(core.RoleUser, revisionPrompt(verdict)))
	}

	return &Result{
		Status:   composeStatus(outcomes, 2),
		Outcomes: outcomes,
		Output:   bestOutput,
		Branches: []BranchOutput{{AgentID: p.producer, Output: bestOutput}},
	}
}

func evaluationPrompt(draft string) string {
	return "Evaluate the following answer. Respond with a JSON object of the form " +
		`{"score": <number between 0 and 1>, "feedback": "<what to improve>"}.` +
		"\n\nAnswer:\n" + draft
}

func revisionPrompt(verdict evaluation) string {
	if verdict.Feedback == "" {
		return "Revise your answer to improve its quality."
	}
	return "Revise your answer based on this feedback:\n" + verdict.Feedback
}

var scorePattern = regexp.MustCompile(`-?\d+(?:\.\d+)?`)

// parseEvaluation extracts a score and feedback from the evaluator's text.
// It prefers the documented JSON form, tolerates surrounding prose around a
// JSON object, and falls back to the first number found in the text. A
// verdict with no recognizable score counts as zero, which forces another
// revision round rather than accepting an unjudged draft.
func parseEvaluation(text string) evaluation {
	var verdict evaluation
	if err := json.Unmarshal([]byte(text), &verdict); err == nil {
		return clampScore(verdict)
	}

	// Tolerate prose-wrapped JSON by scanning for the outermost object.
	if start := strings.Index(text, "{"); start >= 0 {
		if end := strings.LastIndex(text, "}"); end > start {
			if err := json.Unmarshal([]byte(text[start:end+1]), &verdict); err == nil {
				return clampScore(verdict)
			}
		}
	}

	if match := scorePattern.FindString(text); match != "" {
		if score, err := strconv.ParseFloat(match, 64); err == nil {
			return clampScore(evaluation{Score: score, Feedback: text})
		}
	}

	return evaluation{Score: 0, Feedback: text}
}

func clampScore(v evaluation) evaluation {
	if v.Score < 0 {
		v.Score = 0
	}
	if v.Score > 1 {
		v.Score = 1
	}
	return v
}
