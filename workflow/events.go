package workflow

import (
	"github.com/agentweave/agentweave/agent"
	"github.com/agentweave/agentweave/logging"
)

// StepEvent reports the completion of a single reasoning step inside a
// running branch. Events are emitted in real time on the stream returned by
// Engine.RunStream so that clients can render progressive output while the
// workflow is still executing.
type StepEvent struct {
	// RunID identifies the workflow run that produced the event.
	RunID string `json:"runId"`

	// AgentID names the agent whose branch advanced.
	AgentID string `json:"agentId"`

	// StepIndex is the 1-based index of the completed step within the
	// branch's loop.
	StepIndex int `json:"stepIndex"`

	// PartialOutput carries the assistant text produced by the step, if
	// any. Tool-call steps without a textual component leave it empty.
	PartialOutput string `json:"partialOutput"`
}

// emitter delivers StepEvents to a bounded channel without ever blocking a
// running branch. When the consumer falls behind and the buffer fills, the
// event is dropped and the drop is logged.
type emitter struct {
	runID  string
	events chan StepEvent
	logger logging.Logger
}

func newEmitter(runID string, bufferSize int, logger logging.Logger) *emitter {
	return &emitter{
		runID:  runID,
		events: make(chan StepEvent, bufferSize),
		logger: logger,
	}
}

func (em *emitter) emit(agentID string, step int, result agent.StepResult) {
	ev := StepEvent{
		RunID:         em.runID,
		AgentID:       agentID,
		StepIndex:     step,
		PartialOutput: result.Output,
	}

	select {
	case em.events <- ev:
	default:
		em.logger.Warn("step event dropped, consumer too slow", "run_id", em.runID, "agent_id", agentID, "step", step)
	}
}

func (em *emitter) close() { close(em.events) }
