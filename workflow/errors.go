package workflow

import "errors"

var (
	// ErrNoRouteMatched indicates that the route predicate of a routing
	// workflow selected none of the candidate agents.
	ErrNoRouteMatched = errors.New("no route matched")

	// ErrAmbiguousRoute indicates that the route predicate selected more
	// than one candidate agent where exactly one is required.
	ErrAmbiguousRoute = errors.New("ambiguous route")

	// ErrNestingLimitExceeded indicates that a workflow attempted to start
	// another workflow beyond the maximum nesting depth.
	ErrNestingLimitExceeded = errors.New("workflow nesting limit exceeded")

	// ErrUnknownPattern indicates a Config.Pattern outside the supported set.
	ErrUnknownPattern = errors.New("unknown workflow pattern")

	// ErrNoAgents indicates a Config with an empty agent list for a pattern
	// that requires at least one agent.
	ErrNoAgents = errors.New("no agents configured")
)
