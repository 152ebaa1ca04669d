// Package workflow composes agents into multi-agent runs using four
// patterns: sequential chaining, parallel fan-out, predicate routing, and
// evaluator-optimizer refinement.
//
// The Engine validates a Config, runs each participating agent inside its
// own bounded loop, streams step events to interactive clients, persists
// every produced turn to a TurnSink, and folds the per-branch outcomes into
// a single Result. Branch failures degrade the result status instead of
// failing the run, so callers always receive whatever the surviving
// branches produced.
package workflow
