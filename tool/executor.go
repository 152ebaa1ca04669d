package tool

import (
	"context"
	"encoding/json"
	"fmt"
	"runtime/debug"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/agentweave/agentweave/core"
	"github.com/agentweave/agentweave/internal/schema"
	"github.com/agentweave/agentweave/logging"
)

// Result is the per-call outcome of a batch execution. Exactly one of Value /
// Err is meaningful. Results always carry the originating call so callers can
// correlate without positional bookkeeping.
type Result struct {
	Call  core.ToolCall
	Value any
	Err   *Error
}

// ToolResult converts the result into its conversation representation.
func (r Result) ToolResult() core.ToolResult {
	tr := core.ToolResult{ID: r.Call.ID, Name: r.Call.Name}
	if r.Err != nil {
		tr.Error = r.Err.Error()
		return tr
	}
	tr.Response = r.Value
	return tr
}

// ExecutorConfig configures the batch executor.
type ExecutorConfig struct {
	// MaxParallel caps concurrent handler invocations within one batch.
	// Effective parallelism is min(batch size, MaxParallel).
	MaxParallel int
	// CallTimeout bounds each individual handler invocation.
	CallTimeout time.Duration
}

// DefaultExecutorConfig carries the documented defaults: at most 8 handlers
// in flight per batch, 30s per call.
var DefaultExecutorConfig = ExecutorConfig{
	MaxParallel: 8,
	CallTimeout: 30 * time.Second,
}

// Executor runs batches of tool calls against a Registry. Within a batch,
// argument validation happens synchronously before any handler is dispatched
// so a malformed call fails fast without blocking siblings; valid calls then
// run concurrently under the admission semaphore. The batch itself never
// fails: every call yields exactly one Result, in input order.
type Executor struct {
	registry *Registry
	cfg      ExecutorConfig
	logger   logging.Logger
}

// ExecutorOptions configures Executor construction.
type ExecutorOptions struct {
	Config ExecutorConfig
	Logger logging.Logger
}

// NewExecutor constructs an Executor over the given registry.
func NewExecutor(registry *Registry, optFns ...func(o *ExecutorOptions)) *Executor {
	opts := ExecutorOptions{
		Config: DefaultExecutorConfig,
		Logger: logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.Config.MaxParallel <= 0 {
		opts.Config.MaxParallel = DefaultExecutorConfig.MaxParallel
	}
	if opts.Config.CallTimeout <= 0 {
		opts.Config.CallTimeout = DefaultExecutorConfig.CallTimeout
	}
	return &Executor{registry: registry, cfg: opts.Config, logger: opts.Logger}
}

// Execute runs the batch. An empty batch returns an empty slice with no side
// effects. Cancellation of ctx stops waiting on in-flight handlers; their
// entries report an EXECUTION_ERROR wrapping the context error.
func (e *Executor) Execute(ctx context.Context, calls []core.ToolCall) []Result {
	results := make([]Result, len(calls))
	if len(calls) == 0 {
		return results
	}

	// Synchronous validation pass: resolve, parse and schema-check every call
	// before anything is dispatched.
	type pending struct {
		idx  int
		def  Definition
		args map[string]any
	}
	var ready []pending
	for i, call := range calls {
		results[i].Call = call
		def, ok := e.registry.Get(call.Name)
		if !ok {
			results[i].Err = NewError(call.Name, "tool not found", CodeNotFound)
			continue
		}
		args, err := parseArgs(call.Arguments)
		if err != nil {
			results[i].Err = NewError(call.Name, fmt.Sprintf("malformed arguments: %v", err), CodeValidation)
			continue
		}
		if err := e.validate(def, args); err != nil {
			results[i].Err = &Error{
				Tool:    call.Name,
				Message: fmt.Sprintf("parameter validation failed: %v", err),
				Code:    CodeValidation,
				Details: err,
			}
			continue
		}
		ready = append(ready, pending{idx: i, def: def, args: args})
	}

	if len(ready) == 0 {
		return results
	}

	sem := semaphore.NewWeighted(int64(e.cfg.MaxParallel))
	var wg sync.WaitGroup

	batchStart := time.Now()
	for _, p := range ready {
		if err := sem.Acquire(ctx, 1); err != nil {
			results[p.idx].Err = NewError(p.def.Name, err.Error(), CodeExecution)
			continue
		}
		wg.Add(1)
		go func(p pending) {
			defer wg.Done()
			defer sem.Release(1)
			results[p.idx] = e.executeOne(ctx, calls[p.idx], p.def, p.args)
		}(p)
	}
	wg.Wait()

	e.logger.Debug("tool.batch.complete",
		"count", len(calls),
		"dispatched", len(ready),
		"max_parallel", e.cfg.MaxParallel,
		"duration_ms", time.Since(batchStart).Milliseconds(),
	)

	return results
}

// executeOne runs a single handler under its individual timeout. Handlers
// that ignore cancellation are abandoned, not force-killed: the entry reports
// a TIMEOUT and the batch moves on.
func (e *Executor) executeOne(ctx context.Context, call core.ToolCall, def Definition, args map[string]any) Result {
	res := Result{Call: call}

	callCtx, cancel := context.WithTimeout(ctx, e.cfg.CallTimeout)
	defer cancel()

	type outcome struct {
		value any
		err   error
	}
	done := make(chan outcome, 1)

	start := time.Now()
	go func() {
		defer func() {
			if r := recover(); r != nil {
				e.logger.Error("tool.call.panic", "tool", def.Name, "recover", r, "stack", string(debug.Stack()))
				done <- outcome{err: fmt.Errorf("panic: %v", r)}
			}
		}()
		value, err := def.Handler(callCtx, args)
		done <- outcome{value: value, err: err}
	}()

	select {
	case out := <-done:
		dur := time.Since(start)
		if out.err != nil {
			// A handler may surface its own cancellation; attribute it to the
			// per-call timeout when that is what fired.
			if callCtx.Err() == context.DeadlineExceeded && ctx.Err() == nil {
				res.Err = NewError(def.Name, fmt.Sprintf("handler exceeded %s timeout", e.cfg.CallTimeout), CodeTimeout)
				e.logger.Warn("tool.call.timeout", "tool", def.Name, "fc_id", call.ID, "timeout", e.cfg.CallTimeout)
				return res
			}
			if toolErr, ok := out.err.(*Error); ok {
				res.Err = toolErr
			} else {
				res.Err = NewError(def.Name, out.err.Error(), CodeExecution)
			}
			e.logger.Warn("tool.call.error", "tool", def.Name, "fc_id", call.ID, "error", res.Err.Message)
			return res
		}
		res.Value = out.value
		e.logger.Info("tool.call.success", "tool", def.Name, "fc_id", call.ID, "duration_ms", dur.Milliseconds())
		return res

	case <-callCtx.Done():
		if ctx.Err() != nil {
			res.Err = NewError(def.Name, ctx.Err().Error(), CodeExecution)
			return res
		}
		res.Err = NewError(def.Name, fmt.Sprintf("handler exceeded %s timeout", e.cfg.CallTimeout), CodeTimeout)
		e.logger.Warn("tool.call.timeout", "tool", def.Name, "fc_id", call.ID, "timeout", e.cfg.CallTimeout)
		return res
	}
}

func (e *Executor) validate(def Definition, args map[string]any) error {
	return schema.Validate(args, def.Parameters)
}

func parseArgs(raw string) (map[string]any, error) {
	if raw == "" {
		return map[string]any{}, nil
	}
	var args map[string]any
	if err := json.Unmarshal([]byte(raw), &args); err != nil {
		return nil, err
	}
	if args == nil {
		args = map[string]any{}
	}
	return args, nil
}
