package run

import (
	stderrors "errors"
	"testing"

	"github.com/skillsenselab/docflow/errors"
)

func TestNewContext_Defaults(t *testing.T) {
	rc, err := NewContext(ContextConfig{Principal: "svc-ingest"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if rc.ID == "" {
		t.Error("expected generated id")
	}
	if rc.Mode != ModeThorough {
		t.Errorf("expected default mode thorough, got %s", rc.Mode)
	}
}

func TestNewContext_Validation(t *testing.T) {
	tests := []struct {
		name string
		cfg  ContextConfig
	}{
		{"missing principal", ContextConfig{}},
		{"bad mode", ContextConfig{Principal: "p", Mode: "sloppy"}},
		{"negative ceiling", ContextConfig{Principal: "p", CostCeiling: -1}},
		{"quality target over 1", ContextConfig{Principal: "p", QualityTarget: 1.5}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewContext(tt.cfg)
			if err == nil {
				t.Fatal("expected error")
			}
			var appErr *errors.Error
			if !stderrors.As(err, &appErr) || appErr.Kind != errors.KindValidation {
				t.Errorf("expected validation error, got %v", err)
			}
		})
	}
}

func TestContext_StageEnabled(t *testing.T) {
	all, _ := NewContext(ContextConfig{Principal: "p"})
	if !all.StageEnabled("anything") {
		t.Error("empty enabled set must enable every stage")
	}

	some, _ := NewContext(ContextConfig{
		Principal:     "p",
		EnabledStages: []string{"parse", "tag"},
	})
	if !some.StageEnabled("parse") {
		t.Error("expected parse enabled")
	}
	if some.StageEnabled("enhance") {
		t.Error("expected enhance disabled")
	}
}

func TestContext_Options(t *testing.T) {
	rc, _ := NewContext(ContextConfig{
		Principal: "p",
		Options: map[string]any{
			"language":  "de",
			"threshold": 0.7,
			"batch":     16,
		},
	})

	if got := rc.StringOption("language", "en"); got != "de" {
		t.Errorf("language = %s", got)
	}
	if got := rc.StringOption("missing", "en"); got != "en" {
		t.Errorf("fallback = %s", got)
	}
	if got := rc.FloatOption("threshold", 0); got != 0.7 {
		t.Errorf("threshold = %v", got)
	}
	if got := rc.FloatOption("batch", 0); got != 16 {
		t.Errorf("int option = %v", got)
	}
}
