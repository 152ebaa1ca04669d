// Package agentweave provides a high-level façade over the workflow engine
// and its collaborating registries, enabling rapid construction of
// multi-agent orchestration clients. Most applications interact with this
// package by:
//  1. Creating an AgentWeave via New() with an inference client
//  2. Registering agent definitions and tool definitions
//  3. Running workflows synchronously (Run) or with step streaming (RunStream)
//
// The façade delegates orchestration to workflow.Engine while keeping setup
// and usage ergonomics concise. All defaults are safe for local development
// and testing; production deployments typically supply a durable turn sink
// and a structured logger.
package agentweave

import (
	"context"

	"github.com/agentweave/agentweave/agent"
	"github.com/agentweave/agentweave/core"
	"github.com/agentweave/agentweave/history"
	"github.com/agentweave/agentweave/inference"
	"github.com/agentweave/agentweave/logging"
	"github.com/agentweave/agentweave/tool"
	"github.com/agentweave/agentweave/workflow"
)

// Options configures the AgentWeave instance.
type Options struct {
	// EngineConfig tunes event buffering and the workflow nesting guard.
	EngineConfig workflow.EngineConfig

	// Sink receives every committed turn across all workflow branches.
	// Defaults to an in-memory recorder if not provided.
	Sink core.TurnSink

	// Logger (defaults to NoOp logger if nil)
	Logger logging.Logger
}

// AgentWeave is the high-level façade aggregating the workflow engine and
// its registries.
type AgentWeave struct {
	opts   Options
	engine *workflow.Engine
}

// New creates a new AgentWeave instance for the given inference client with
// optional overrides. Any unset collaborator is initialized with an
// in-memory implementation.
func New(client inference.Client, optFns ...func(o *Options)) *AgentWeave {
	opts := Options{
		EngineConfig: workflow.DefaultEngineConfig,
		Sink:         history.NewInMemorySink(),
		Logger:       logging.NoOpLogger{},
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	eng := workflow.New(client,
		workflow.WithConfig(opts.EngineConfig),
		workflow.WithSink(opts.Sink),
		workflow.WithLogger(opts.Logger),
	)

	return &AgentWeave{opts: opts, engine: eng}
}

// RegisterAgent adds an agent definition to the underlying registry.
func (w *AgentWeave) RegisterAgent(def agent.Definition) error {
	return w.engine.Registry().Register(def)
}

// RegisterTool adds a tool definition to the underlying registry.
func (w *AgentWeave) RegisterTool(def tool.Definition) error {
	return w.engine.Tools().Register(def)
}

// Agents exposes the agent registry for lookups and capability queries.
func (w *AgentWeave) Agents() *agent.Registry { return w.engine.Registry() }

// Tools exposes the tool registry.
func (w *AgentWeave) Tools() *tool.Registry { return w.engine.Tools() }

// Run executes a workflow synchronously and returns its composed result.
func (w *AgentWeave) Run(ctx context.Context, cfg workflow.Config) (*workflow.Result, error) {
	return w.engine.Run(ctx, cfg)
}

// RunStream starts a workflow asynchronously, returning the run ID, a
// channel of step events for progressive rendering, and a channel carrying
// the terminal result.
func (w *AgentWeave) RunStream(ctx context.Context, cfg workflow.Config) (string, <-chan workflow.StepEvent, <-chan *workflow.Result, error) {
	return w.engine.RunStream(ctx, cfg)
}
