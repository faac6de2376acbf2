package validation

import (
	stderrors "errors"
	"strings"
	"testing"

	"github.com/skillsenselab/docflow/errors"
)

type submission struct {
	Principal string  `validate:"required"`
	Mode      string  `validate:"oneof=thorough fast"`
	Ceiling   float64 `validate:"gte=0"`
}

func TestValidate_Valid(t *testing.T) {
	err := Validate(submission{Principal: "svc-ingest", Mode: "fast"})
	if err != nil {
		t.Errorf("expected no error, got %v", err)
	}
}

func TestValidate_CollectsFieldErrors(t *testing.T) {
	err := Validate(submission{Mode: "sloppy", Ceiling: -1})
	if err == nil {
		t.Fatal("expected error")
	}

	var appErr *errors.Error
	if !stderrors.As(err, &appErr) {
		t.Fatalf("expected *errors.Error, got %T", err)
	}
	if appErr.Kind != errors.KindValidation {
		t.Errorf("expected validation kind, got %s", appErr.Kind)
	}

	msg := appErr.Message
	for _, want := range []string{"principal", "mode", "ceiling"} {
		if !strings.Contains(msg, want) {
			t.Errorf("expected %q in message %q", want, msg)
		}
	}

	fields, ok := appErr.Details["fields"].([]FieldError)
	if !ok {
		t.Fatalf("expected field details, got %v", appErr.Details)
	}
	if len(fields) != 3 {
		t.Errorf("expected 3 field errors, got %d", len(fields))
	}
}

func TestToSnakeCase(t *testing.T) {
	tests := []struct{ in, want string }{
		{"Principal", "principal"},
		{"CostCeiling", "cost_ceiling"},
		{"ID", "i_d"},
	}
	for _, tt := range tests {
		if got := toSnakeCase(tt.in); got != tt.want {
			t.Errorf("toSnakeCase(%s) = %s, want %s", tt.in, got, tt.want)
		}
	}
}
