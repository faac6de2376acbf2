package orchestrator

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/skillsenselab/docflow/logger"
	"github.com/skillsenselab/docflow/node"
	"github.com/skillsenselab/docflow/run"
)

func writePlan(t *testing.T, dir, name, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name+".yaml"), []byte(content), 0o600); err != nil {
		t.Fatalf("writing plan %s: %v", name, err)
	}
}

func registerNodes(t *testing.T, o *Orchestrator, names ...string) {
	t.Helper()
	for _, name := range names {
		err := o.AddNode(node.NewFunc(name, func(context.Context, *run.Context, any) (any, error) {
			return nil, nil
		}))
		if err != nil {
			t.Fatalf("AddNode(%s): %v", name, err)
		}
	}
}

func TestFilePlanLoaderLoad(t *testing.T) {
	dir := t.TempDir()
	writePlan(t, dir, "standard", `
name: standard
steps:
  - node: parse
  - node: render
`)

	loader := NewFilePlanLoader(dir)
	p, err := loader.Load("standard")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if p.Name != "standard" || len(p.Steps) != 2 {
		t.Errorf("unexpected plan: %+v", p)
	}
	if p.Steps[0].Node != "parse" {
		t.Errorf("unexpected first step: %s", p.Steps[0].Node)
	}

	if _, err := loader.Load("missing"); err == nil {
		t.Error("expected error for missing plan")
	}
}

func TestApplyPlan(t *testing.T) {
	o := New(Options{Logger: logger.Nop()})
	registerNodes(t, o, "parse", "render")

	p := &Plan{
		Name:  "standard",
		Steps: []StepDef{{Node: "parse"}, {Node: "render"}},
	}
	if err := o.ApplyPlan(p, nil); err != nil {
		t.Fatalf("ApplyPlan: %v", err)
	}

	steps := o.Steps()
	if len(steps) != 2 || steps[0] != "parse" || steps[1] != "render" {
		t.Errorf("unexpected plan: %v", steps)
	}
}

func TestApplyPlanExpandsIncludes(t *testing.T) {
	dir := t.TempDir()
	writePlan(t, dir, "base", `
name: base
steps:
  - node: parse
`)

	o := New(Options{Logger: logger.Nop()})
	registerNodes(t, o, "parse", "render")

	p := &Plan{
		Name:     "full",
		Includes: []string{"base"},
		Steps:    []StepDef{{Node: "render"}},
	}
	if err := o.ApplyPlan(p, NewFilePlanLoader(dir)); err != nil {
		t.Fatalf("ApplyPlan: %v", err)
	}

	steps := o.Steps()
	// Included steps come first.
	if len(steps) != 2 || steps[0] != "parse" || steps[1] != "render" {
		t.Errorf("unexpected plan: %v", steps)
	}
}

func TestApplyPlanDetectsCycle(t *testing.T) {
	dir := t.TempDir()
	writePlan(t, dir, "a", `
name: a
includes: [b]
`)
	writePlan(t, dir, "b", `
name: b
includes: [a]
`)

	o := New(Options{Logger: logger.Nop()})
	loader := NewFilePlanLoader(dir)
	p, err := loader.Load("a")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if err := o.ApplyPlan(p, loader); err == nil {
		t.Fatal("expected cycle error")
	}
}

func TestApplyPlanDeduplicatesDiamond(t *testing.T) {
	dir := t.TempDir()
	writePlan(t, dir, "shared", `
name: shared
steps:
  - node: parse
`)
	writePlan(t, dir, "left", `
name: left
includes: [shared]
`)
	writePlan(t, dir, "right", `
name: right
includes: [shared]
`)

	o := New(Options{Logger: logger.Nop()})
	registerNodes(t, o, "parse")

	p := &Plan{Name: "top", Includes: []string{"left", "right"}}
	if err := o.ApplyPlan(p, NewFilePlanLoader(dir)); err != nil {
		t.Fatalf("ApplyPlan: %v", err)
	}

	// shared is pulled in through both branches but applied once.
	if steps := o.Steps(); len(steps) != 1 {
		t.Errorf("expected deduplicated plan, got %v", steps)
	}
}

func TestApplyPlanRejectsUnknownNode(t *testing.T) {
	o := New(Options{Logger: logger.Nop()})
	p := &Plan{Name: "bad", Steps: []StepDef{{Node: "ghost"}}}
	if err := o.ApplyPlan(p, nil); err == nil {
		t.Fatal("expected unknown node error")
	}
}

func TestApplyPlanMissingLoader(t *testing.T) {
	o := New(Options{Logger: logger.Nop()})
	p := &Plan{Name: "needy", Includes: []string{"base"}}
	if err := o.ApplyPlan(p, nil); err == nil {
		t.Fatal("expected error when includes need a loader")
	}
}
