package workflow

import (
	"context"
	"fmt"
	"time"

	"github.com/agentweave/agentweave/agent"
	"github.com/agentweave/agentweave/core"
	"github.com/agentweave/agentweave/history"
	"github.com/agentweave/agentweave/inference"
	"github.com/agentweave/agentweave/logging"
	"github.com/agentweave/agentweave/loop"
	"github.com/agentweave/agentweave/tool"
)

// EngineConfig defines tuning parameters for the Engine's operational
// behavior: event buffering for streaming runs and the nesting depth guard
// for workflows that start workflows.
type EngineConfig struct {
	// EventBufferSize sets the channel buffer size for step event
	// streaming. When the buffer is full further events are dropped, never
	// blocking a running branch.
	EventBufferSize int

	// MaxNestingDepth limits how deep workflows may recursively start
	// other workflows through the same engine. Runs beyond the limit fail
	// immediately with ErrNestingLimitExceeded.
	MaxNestingDepth int
}

// DefaultEngineConfig provides production-ready defaults: a hundred buffered
// step events per run and a nesting depth of three.
var DefaultEngineConfig = EngineConfig{
	EventBufferSize: 100,
	MaxNestingDepth: 3,
}

// Options configures an Engine instance using the functional options
// pattern. All collaborators have in-memory defaults so an engine is usable
// immediately in development and tests; production deployments typically
// provide a shared registry, a durable sink, and a structured logger.
type Options struct {
	// Config contains operational parameters for the engine behavior.
	// Defaults to DefaultEngineConfig if not specified.
	Config EngineConfig

	// Registry holds the agent definitions workflows refer to by ID.
	// Defaults to an empty registry if not provided.
	Registry *agent.Registry

	// Tools holds the tool definitions agents may call.
	// Defaults to an empty registry if not provided.
	Tools *tool.Registry

	// ToolExecutor runs tool batches. Defaults to an executor with default
	// bounds over Tools if not provided.
	ToolExecutor *tool.Executor

	// Sink receives every committed turn across all branches.
	// Defaults to an in-memory recorder if not provided.
	Sink core.TurnSink

	// Logger provides structured logging. Defaults to NoOp if nil.
	Logger logging.Logger
}

// Engine orchestrates multi-agent workflow runs against a single inference
// client. It owns no per-run state: every Run or RunStream call is
// self-contained, so one engine can serve concurrent runs.
//
// Responsibilities:
//   - Validation: pattern, agent references, and routing selection are
//     checked before any branch starts, so configuration errors surface
//     synchronously.
//   - Branch execution: each participating agent runs inside its own loop
//     controller; the engine wires observers so step events stream out.
//   - Persistence: turns produced by any branch are appended to the
//     configured sink; sink failures are logged, never fatal.
//   - Composition: per-branch outcomes are folded into one Result with a
//     composed status and output.
//
// Example:
//
//	eng := workflow.New(client,
//	    workflow.WithRegistry(registry),
//	    workflow.WithTools(tools),
//	)
//
//	result, err := eng.Run(ctx, workflow.Config{
//	    Pattern: workflow.PatternParallel,
//	    Agents:  []string{"research", "summarize"},
//	    Input:   []core.Turn{core.NewTextTurn(core.RoleUser, "Compare the options")},
//	})
type Engine struct {
	registry *agent.Registry
	tools    *tool.Registry
	client   inference.Client
	exec     *agent.Executor
	sink     core.TurnSink
	logger   logging.Logger
	config   EngineConfig
}

// New creates an Engine for the given inference client with sensible
// defaults and optional configuration.
func New(client inference.Client, optFns ...func(o *Options)) *Engine {
	opts := Options{
		Config:   DefaultEngineConfig,
		Registry: agent.NewRegistry(),
		Tools:    tool.NewRegistry(),
		Sink:     history.NewInMemorySink(),
		Logger:   logging.NoOpLogger{},
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	if opts.Config.EventBufferSize <= 0 {
		opts.Config.EventBufferSize = DefaultEngineConfig.EventBufferSize
	}
	if opts.Config.MaxNestingDepth <= 0 {
		opts.Config.MaxNestingDepth = DefaultEngineConfig.MaxNestingDepth
	}

	exec := agent.NewExecutor(opts.Registry, opts.Tools, client, func(o *agent.ExecutorOptions) {
		o.ToolExecutor = opts.ToolExecutor
		o.Logger = opts.Logger
	})

	return &Engine{
		registry: opts.Registry,
		tools:    opts.Tools,
		client:   client,
		exec:     exec,
		sink:     opts.Sink,
		logger:   opts.Logger,
		config:   opts.Config,
	}
}

// WithRegistry sets the agent registry.
func WithRegistry(r *agent.Registry) func(o *Options) {
	return func(o *Options) { o.Registry = r }
}

// WithTools sets the tool registry.
func WithTools(t *tool.Registry) func(o *Options) {
	return func(o *Options) { o.Tools = t }
}

// WithSink sets the turn sink receiving all committed turns.
func WithSink(s core.TurnSink) func(o *Options) {
	return func(o *Options) { o.Sink = s }
}

// WithLogger sets the structured logger.
func WithLogger(l logging.Logger) func(o *Options) {
	return func(o *Options) { o.Logger = l }
}

// WithConfig sets the engine tuning parameters.
func WithConfig(cfg EngineConfig) func(o *Options) {
	return func(o *Options) { o.Config = cfg }
}

// Registry exposes the engine's agent registry for registration.
func (e *Engine) Registry() *agent.Registry { return e.registry }

// Tools exposes the engine's tool registry for registration.
func (e *Engine) Tools() *tool.Registry { return e.tools }

// depthKey carries the workflow nesting depth through contexts so that a
// tool handler starting a nested run inherits the count.
type depthKey struct{}

func nestingDepth(ctx context.Context) int {
	d, _ := ctx.Value(depthKey{}).(int)
	return d
}

// NestingDepth reports how many workflow runs enclose ctx. A context outside
// any run reports zero.
func NestingDepth(ctx context.Context) int { return nestingDepth(ctx) }

// plan is a validated, normalized run configuration. Routing selection
// happens at plan time so that predicate failures surface synchronously.
type plan struct {
	cfg      Config
	loopCfg  loop.Config
	routed   string // selected agent, routing only
	producer string // evaluator-optimizer only
	judge    string // evaluator-optimizer only
	rounds   int    // evaluator-optimizer only
}

func (e *Engine) prepare(cfg Config) (*plan, error) {
	if !cfg.Pattern.valid() {
		return nil, fmt.Errorf("%w: %q", ErrUnknownPattern, cfg.Pattern)
	}

	p := &plan{cfg: cfg, loopCfg: cfg.loopConfig()}

	switch cfg.Pattern {
	case PatternSequential, PatternParallel:
		if len(cfg.Agents) == 0 {
			return nil, fmt.Errorf("%w for pattern %s", ErrNoAgents, cfg.Pattern)
		}
		if err := e.checkAgents(cfg.Agents); err != nil {
			return nil, err
		}

	case PatternRouting:
		if len(cfg.Agents) == 0 {
			return nil, fmt.Errorf("%w for pattern %s", ErrNoAgents, cfg.Pattern)
		}
		if err := e.checkAgents(cfg.Agents); err != nil {
			return nil, err
		}
		if cfg.Route == nil {
			return nil, fmt.Errorf("routing workflow requires a route function")
		}

		selected, err := e.selectRoute(cfg)
		if err != nil {
			return nil, err
		}
		p.routed = selected

	case PatternEvaluatorOptimizer:
		producer, judge := cfg.Evaluator.Producer, cfg.Evaluator.Evaluator
		if producer == "" && judge == "" && len(cfg.Agents) == 2 {
			producer, judge = cfg.Agents[0], cfg.Agents[1]
		}
		if producer == "" || judge == "" {
			return nil, fmt.Errorf("evaluator workflow requires a producer and an evaluator agent")
		}
		if err := e.checkAgents([]string{producer, judge}); err != nil {
			return nil, err
		}
		if cfg.Evaluator.Threshold < 0 || cfg.Evaluator.Threshold > 1 {
			return nil, fmt.Errorf("evaluator threshold %v outside [0, 1]", cfg.Evaluator.Threshold)
		}

		p.producer = producer
		p.judge = judge
		p.rounds = cfg.Evaluator.MaxIterations
		if p.rounds <= 0 {
			p.rounds = DefaultMaxIterations
		}
	}

	return p, nil
}

func (e *Engine) checkAgents(ids []string) error {
	for _, id := range ids {
		if _, err := e.registry.Lookup(id); err != nil {
			return err
		}
	}
	return nil
}

func (e *Engine) selectRoute(cfg Config) (string, error) {
	candidates := make([]agent.Definition, 0, len(cfg.Agents))
	allowed := make(map[string]bool, len(cfg.Agents))

	for _, id := range cfg.Agents {
		def, err := e.registry.Lookup(id)
		if err != nil {
			return "", err
		}
		candidates = append(candidates, def)
		allowed[id] = true
	}

	matches := cfg.Route(cfg.Input, candidates)

	switch {
	case len(matches) == 0:
		return "", ErrNoRouteMatched
	case len(matches) > 1:
		return "", fmt.Errorf("%w: %d agents matched", ErrAmbiguousRoute, len(matches))
	}

	if !allowed[matches[0]] {
		return "", fmt.Errorf("%w: %q is not a configured candidate", ErrNoRouteMatched, matches[0])
	}

	return matches[0], nil
}

// Run executes a workflow synchronously and returns its composed result.
//
// Configuration and routing errors are returned immediately; branch-level
// failures (timeouts, aborted loops) are folded into the Result status
// instead, so callers always get a usable partial result when at least one
// branch ran.
func (e *Engine) Run(ctx context.Context, cfg Config) (*Result, error) {
	_, events, results, err := e.RunStream(ctx, cfg)
	if err != nil {
		return nil, err
	}

	// Drain the stream; the synchronous caller has no use for step events.
	for range events {
	}

	return <-results, nil
}

// RunStream executes a workflow asynchronously and returns the run ID plus
// two channels: one streaming StepEvents as branches advance, and one
// carrying the terminal Result.
//
// The events channel is closed when the run completes, after which exactly
// one Result is delivered on the results channel. Step events are emitted
// best-effort: when the consumer falls behind the configured buffer, events
// are dropped and the drop is logged. Immediate errors (unknown pattern,
// unknown agent, route selection failure, nesting limit) are returned
// synchronously with nil channels.
func (e *Engine) RunStream(ctx context.Context, cfg Config) (string, <-chan StepEvent, <-chan *Result, error) {
	depth := nestingDepth(ctx)
	if depth >= e.config.MaxNestingDepth {
		return "", nil, nil, fmt.Errorf("%w: depth %d", ErrNestingLimitExceeded, depth)
	}

	p, err := e.prepare(cfg)
	if err != nil {
		return "", nil, nil, err
	}

	runID := core.NewID()
	em := newEmitter(runID, e.config.EventBufferSize, e.logger)
	results := make(chan *Result, 1)

	runCtx := context.WithValue(ctx, depthKey{}, depth+1)

	e.logger.Info("workflow.run", "run_id", runID, "pattern", cfg.Pattern.String(), "agents", len(cfg.Agents))

	go func() {
		defer close(results)

		start := time.Now()
		res := e.dispatch(runCtx, p, em)
		res.RunID = runID
		res.Pattern = cfg.Pattern
		res.Elapsed = time.Since(start)

		em.close()

		e.logger.Info("workflow.done", "run_id", runID, "status", string(res.Status), "elapsed", res.Elapsed.String())

		results <- res
	}()

	return runID, em.events, results, nil
}

func (e *Engine) dispatch(ctx context.Context, p *plan, em *emitter) *Result {
	switch p.cfg.Pattern {
	case PatternSequential:
		return e.runSequential(ctx, p, em)
	case PatternParallel:
		return e.runParallel(ctx, p, em)
	case PatternRouting:
		return e.runRouting(ctx, p, em)
	default:
		return e.runEvaluator(ctx, p, em)
	}
}

// runBranch executes one agent's loop over history, streams its step events,
// and appends every turn the branch produced to the sink.
func (e *Engine) runBranch(ctx context.Context, agentID string, turns []core.Turn, cfg loop.Config, em *emitter) loop.Outcome {
	base := len(turns)

	ctrl := loop.New(e.exec, func(o *loop.Options) {
		o.Config = cfg
		o.Logger = e.logger
		o.Observer = func(step int, res agent.StepResult) {
			em.emit(agentID, step, res)
		}
	})

	out := ctrl.Run(ctx, agentID, turns)

	for _, turn := range out.Turns[base:] {
		if err := e.sink.AppendTurn(turn); err != nil {
			e.logger.Warn("history sink rejected turn", "agent_id", agentID, "error", err.Error())
		}
	}

	return out
}
