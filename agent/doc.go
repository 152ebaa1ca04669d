// Package agent holds the static agent registry and the single-step agent
// executor. The registry maps agent identifiers to their immutable
// definitions (instructions, allowed tools, capability tags); the executor
// turns one definition plus a conversation history into the next turn(s),
// delegating generation to the inference collaborator and tool execution to
// the tool package. Bounded iteration over steps lives in the loop package.
package agent
