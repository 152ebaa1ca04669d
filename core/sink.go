package core

// TurnSink receives turns as a workflow run produces them. Conversation
// persistence lives outside the engine; the caller supplies a sink at
// construction and the engine invokes it for every committed turn. A sink is
// never a module-level singleton so the engine stays testable with a fake.
//
// Implementations must tolerate concurrent calls: parallel branches append
// their turns from independent goroutines.
type TurnSink interface {
	AppendTurn(turn Turn) error
}

// TurnSinkFunc adapts a plain function to the TurnSink interface.
type TurnSinkFunc func(turn Turn) error

// AppendTurn implements TurnSink.
func (f TurnSinkFunc) AppendTurn(turn Turn) error { return f(turn) }

// NoOpSink discards all turns. Useful when callers only consume the composed
// workflow result.
type NoOpSink struct{}

// AppendTurn implements TurnSink.
func (NoOpSink) AppendTurn(Turn) error { return nil }
