package logger

import (
	"testing"
)

func TestConfig_ApplyDefaults(t *testing.T) {
	cfg := &Config{}
	cfg.ApplyDefaults()

	if cfg.Level != "info" {
		t.Errorf("expected default level info, got %s", cfg.Level)
	}
	if cfg.Format != "console" {
		t.Errorf("expected default format console, got %s", cfg.Format)
	}
	if !cfg.Timestamp {
		t.Error("expected timestamps enabled by default")
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{"valid", Config{Level: "debug", Format: "json"}, false},
		{"bad level", Config{Level: "verbose", Format: "json"}, true},
		{"bad format", Config{Level: "info", Format: "xml"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestNew_InvalidLevelFallsBack(t *testing.T) {
	cfg := &Config{Level: "nonsense", Format: "json", Output: "stdout"}
	l := New(cfg, "test")
	if l == nil {
		t.Fatal("expected logger")
	}
}

func TestFields(t *testing.T) {
	m := Fields("op", "save", "id", 42)
	if m["op"] != "save" || m["id"] != 42 {
		t.Errorf("unexpected fields: %v", m)
	}

	// Odd trailing value is dropped.
	m = Fields("op", "save", "dangling")
	if len(m) != 1 {
		t.Errorf("expected 1 field, got %d", len(m))
	}
}

func TestWithComponent(t *testing.T) {
	l := Nop().WithComponent("orchestrator")
	if l == nil {
		t.Fatal("expected logger")
	}
	// Derived loggers must not share mutable state with the parent.
	l2 := l.WithFields(map[string]interface{}{"k": "v"})
	if l2 == l {
		t.Error("expected a new logger instance")
	}
}
