// Package config loads declarative agent and workflow definitions from YAML.
//
// Configuration files describe the static parts of a deployment: which
// agents exist, which tools they may call, which capabilities they carry,
// and which named workflows compose them. Tool handlers and inference
// clients remain code; the file only refers to them by name.
//
// Example:
//
//	agents:
//	  - id: research
//	    name: Research Agent
//	    instructions: Gather relevant facts before answering.
//	    tools: [web_search]
//	    capabilities: [research]
//
//	workflows:
//	  - name: triage
//	    pattern: routing
//	    agents: [research, support]
//	    route_capability: research
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/agentweave/agentweave/agent"
	"github.com/agentweave/agentweave/loop"
	"github.com/agentweave/agentweave/workflow"
)

// File is the root of a configuration document.
type File struct {
	// Agents lists the agent definitions to register.
	Agents []agent.Definition `yaml:"agents"`

	// Workflows lists named workflow declarations.
	Workflows []Workflow `yaml:"workflows"`

	// Defaults overrides the built-in loop bounds for workflows that do
	// not carry their own.
	Defaults Defaults `yaml:"defaults"`
}

// Duration is a time.Duration that unmarshals from YAML strings in Go
// duration syntax, e.g. "30s" or "2m".
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var raw string
	if err := value.Decode(&raw); err != nil {
		return err
	}

	parsed, err := time.ParseDuration(raw)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", raw, err)
	}

	*d = Duration(parsed)
	return nil
}

// Std converts back to the standard library type.
func (d Duration) Std() time.Duration { return time.Duration(d) }

// Defaults carries file-wide loop bounds. Timeout is a pointer so that an
// explicit "0s" (immediate timeout) can be told apart from an absent key.
type Defaults struct {
	MaxSteps int       `yaml:"max_steps"`
	Timeout  *Duration `yaml:"timeout"`
}

// Workflow declares one named workflow composition.
type Workflow struct {
	Name    string   `yaml:"name"`
	Pattern string   `yaml:"pattern"`
	Agents  []string `yaml:"agents"`

	// MaxSteps and Timeout override Defaults for this workflow when set.
	MaxSteps int       `yaml:"max_steps"`
	Timeout  *Duration `yaml:"timeout"`

	// RouteCapability selects the routing predicate declaratively: the
	// candidate carrying this capability tag handles the run.
	RouteCapability string `yaml:"route_capability"`

	// Evaluator parameterizes the evaluator_optimizer pattern.
	Evaluator Evaluator `yaml:"evaluator"`
}

// Evaluator mirrors workflow.EvaluatorParams in YAML form.
type Evaluator struct {
	Producer      string  `yaml:"producer"`
	Evaluator     string  `yaml:"evaluator"`
	Threshold     float64 `yaml:"threshold"`
	MaxIterations int     `yaml:"max_iterations"`
}

// Load reads and parses a configuration file from disk.
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	return Parse(data)
}

// Parse decodes a YAML configuration document and validates it.
func Parse(data []byte) (*File, error) {
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if err := f.validate(); err != nil {
		return nil, err
	}
	return &f, nil
}

func (f *File) validate() error {
	ids := make(map[string]bool, len(f.Agents))

	for i, def := range f.Agents {
		if def.ID == "" {
			return fmt.Errorf("agent %d: missing id", i)
		}
		if ids[def.ID] {
			return fmt.Errorf("agent %q declared twice", def.ID)
		}
		ids[def.ID] = true
	}

	names := make(map[string]bool, len(f.Workflows))

	for i, wf := range f.Workflows {
		if wf.Name == "" {
			return fmt.Errorf("workflow %d: missing name", i)
		}
		if names[wf.Name] {
			return fmt.Errorf("workflow %q declared twice", wf.Name)
		}
		names[wf.Name] = true

		if !patternValid(wf.Pattern) {
			return fmt.Errorf("workflow %q: unknown pattern %q", wf.Name, wf.Pattern)
		}

		for _, id := range wf.Agents {
			if !ids[id] {
				return fmt.Errorf("workflow %q references unknown agent %q", wf.Name, id)
			}
		}

		if wf.Pattern == string(workflow.PatternRouting) && wf.RouteCapability == "" {
			return fmt.Errorf("workflow %q: routing requires route_capability", wf.Name)
		}
	}

	return nil
}

func patternValid(p string) bool {
	switch workflow.Pattern(p) {
	case workflow.PatternSequential, workflow.PatternParallel,
		workflow.PatternRouting, workflow.PatternEvaluatorOptimizer:
		return true
	default:
		return false
	}
}

// Register adds every declared agent to the registry.
func (f *File) Register(registry *agent.Registry) error {
	for _, def := range f.Agents {
		if err := registry.Register(def); err != nil {
			return err
		}
	}
	return nil
}

// Workflow looks up a declared workflow by name.
func (f *File) Workflow(name string) (Workflow, bool) {
	for _, wf := range f.Workflows {
		if wf.Name == name {
			return wf, true
		}
	}
	return Workflow{}, false
}

// Build converts the declaration into a runnable workflow.Config. Loop
// bounds resolve in order: the workflow's own values, then the file-wide
// defaults, then the controller's built-in defaults. Only an explicitly
// declared "0s" timeout produces the immediate-timeout behavior.
func (w Workflow) Build(defaults Defaults) workflow.Config {
	cfg := workflow.Config{
		Pattern: workflow.Pattern(w.Pattern),
		Agents:  w.Agents,
	}

	loopCfg := loop.DefaultConfig
	if w.MaxSteps > 0 {
		loopCfg.MaxSteps = w.MaxSteps
	} else if defaults.MaxSteps > 0 {
		loopCfg.MaxSteps = defaults.MaxSteps
	}
	switch {
	case w.Timeout != nil:
		loopCfg.Timeout = w.Timeout.Std()
	case defaults.Timeout != nil:
		loopCfg.Timeout = defaults.Timeout.Std()
	}
	cfg.Loop = &loopCfg

	if w.RouteCapability != "" {
		cfg.Route = workflow.RouteByCapability(w.RouteCapability)
	}

	cfg.Evaluator = workflow.EvaluatorParams{
		Producer:      w.Evaluator.Producer,
		Evaluator:     w.Evaluator.Evaluator,
		Threshold:     w.Evaluator.Threshold,
		MaxIterations: w.Evaluator.MaxIterations,
	}

	return cfg
}
