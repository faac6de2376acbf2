package orchestrator

import (
	"fmt"
	"os"
	"path/filepath"

	"go.yaml.in/yaml/v3"
)

// Plan is a composable, YAML-defined execution plan.
type Plan struct {
	// Name is the plan identifier.
	Name string `yaml:"name"`
	// Includes lists sub-plan names to compose (recursive); included
	// steps run before this plan's own steps.
	Includes []string `yaml:"includes,omitempty"`
	// Steps lists node names in execution order.
	Steps []StepDef `yaml:"steps"`
}

// StepDef defines one step within a plan.
type StepDef struct {
	// Node is the registry lookup key for this step.
	Node string `yaml:"node"`
}

// PlanLoader loads plan definitions by name.
type PlanLoader interface {
	Load(name string) (*Plan, error)
}

// FilePlanLoader loads plans from YAML files on disk.
type FilePlanLoader struct {
	dirs []string
}

// NewFilePlanLoader creates a loader that searches the given
// directories for plan YAML files.
func NewFilePlanLoader(dirs ...string) PlanLoader {
	return &FilePlanLoader{dirs: dirs}
}

// Load searches for a plan YAML file by name across configured
// directories. It tries {name}.yaml and {name}.yml in each directory.
func (l *FilePlanLoader) Load(name string) (*Plan, error) {
	for _, dir := range l.dirs {
		for _, ext := range []string{".yaml", ".yml"} {
			path := filepath.Join(dir, name+ext)
			if p, err := loadPlanFile(path); err == nil {
				return p, nil
			}
		}
	}
	return nil, fmt.Errorf("orchestrator: plan %q not found in %v", name, l.dirs)
}

func loadPlanFile(path string) (*Plan, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var p Plan
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("orchestrator: parsing %s: %w", path, err)
	}
	return &p, nil
}

// ApplyPlan resolves a plan against the orchestrator's registered
// nodes, expanding includes recursively, and appends the resulting
// steps to the execution plan. Circular includes are an error.
func (o *Orchestrator) ApplyPlan(p *Plan, loader PlanLoader) error {
	stack := make(map[string]bool)    // current recursion path (cycle detection)
	resolved := make(map[string]bool) // already fully resolved (dedup)
	return o.applyPlan(p, loader, stack, resolved)
}

func (o *Orchestrator) applyPlan(p *Plan, loader PlanLoader, stack, resolved map[string]bool) error {
	if stack[p.Name] {
		return fmt.Errorf("orchestrator: circular include detected for plan %q", p.Name)
	}
	stack[p.Name] = true
	defer delete(stack, p.Name)

	for _, includeName := range p.Includes {
		if resolved[includeName] {
			continue // already applied in a different branch (diamond)
		}
		if loader == nil {
			return fmt.Errorf("orchestrator: plan %q includes %q but no loader was provided", p.Name, includeName)
		}

		sub, err := loader.Load(includeName)
		if err != nil {
			return fmt.Errorf("orchestrator: loading include %q: %w", includeName, err)
		}
		if err := o.applyPlan(sub, loader, stack, resolved); err != nil {
			return err
		}
	}

	for _, def := range p.Steps {
		if err := o.AddStep(def.Node); err != nil {
			return err
		}
	}

	resolved[p.Name] = true
	return nil
}
