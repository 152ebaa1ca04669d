// Package core defines the shared conversation data model used across the
// orchestration engine: roles, turns with polymorphic content parts, tool
// call/result payloads, and the TurnSink interface through which produced
// turns reach the caller's persistence layer. Types here carry no behavior
// beyond construction and read helpers; all control flow lives in the
// agent, loop and workflow packages.
package core
