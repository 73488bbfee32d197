package store

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/cwbudde/proxsweep/internal/objective"
	"github.com/cwbudde/proxsweep/internal/opt"
	"github.com/cwbudde/proxsweep/internal/prox"
)

func TestRun_JSONFieldNames(t *testing.T) {
	data, err := json.Marshal(createTestRun("json-run"))
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}

	s := string(data)
	for _, key := range []string{`"id":"json-run"`, `"objective":"quadratic"`, `"maxSteps":50`, `"reason":"max_steps"`, `"finalX":0.25`, `"steps":[`} {
		if !strings.Contains(s, key) {
			t.Errorf("Expected %s in %s", key, s)
		}
	}
	if strings.Contains(s, `"global"`) {
		t.Error("global should be omitted when false")
	}
}

func TestRun_Validate(t *testing.T) {
	if err := createTestRun("ok").Validate(); err != nil {
		t.Fatalf("Valid run rejected: %v", err)
	}

	cases := []struct {
		name  string
		edit  func(*Run)
		field string
	}{
		{"empty id", func(r *Run) { r.ID = "" }, "ID"},
		{"no objective", func(r *Run) { r.Config.Objective = "" }, "Config.Objective"},
		{"zero rho", func(r *Run) { r.Config.Rho = 0 }, "Config.Rho"},
		{"reversed interval", func(r *Run) { r.Config.Lo, r.Config.Hi = 5, -5 }, "Config.Lo"},
		{"negative max steps", func(r *Run) { r.Config.MaxSteps = -1 }, "Config.MaxSteps"},
		{"zero timestamp", func(r *Run) { r.Timestamp = time.Time{} }, "Timestamp"},
		{"no steps", func(r *Run) { r.Steps = nil }, "Steps"},
		{"bad numbering", func(r *Run) { r.Steps[1].K = 5 }, "Steps"},
		{"step outside interval", func(r *Run) { r.Steps[0].X = 9 }, "Steps"},
		{"final mismatch", func(r *Run) { r.FinalX = 3 }, "FinalX"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := createTestRun("run")
			tc.edit(r)
			err := r.Validate()
			var ve *ValidationError
			if !errors.As(err, &ve) {
				t.Fatalf("Expected ValidationError, got %v", err)
			}
			if ve.Field != tc.field {
				t.Errorf("Field = %s, want %s", ve.Field, tc.field)
			}
		})
	}
}

func TestRun_ToInfo(t *testing.T) {
	r := createTestRun("info-run")
	info := r.ToInfo()

	if info.ID != "info-run" || info.Objective != "quadratic" {
		t.Errorf("Unexpected identity: %+v", info)
	}
	if info.Steps != 2 {
		t.Errorf("Steps = %d, want 2", info.Steps)
	}
	if info.FinalX != r.FinalX || info.FinalF != r.FinalF || info.Rho != r.Config.Rho {
		t.Errorf("Summary mismatch: %+v", info)
	}
}

func TestNewRunFromDescent(t *testing.T) {
	q := objective.Quadratic{Center: 1}
	tr, err := prox.Descend(context.Background(), -4, 1, q.Eval, -5, 5, nil)
	if err != nil {
		t.Fatalf("Descend failed: %v", err)
	}

	cfg := RunConfig{Objective: q.Name(), Rho: 1, U0: -4, Lo: -5, Hi: 5, Search: opt.Search{Method: "golden"}}
	r := NewRun("descent", cfg, tr)
	if err := r.Validate(); err != nil {
		t.Fatalf("Run from a real descent is invalid: %v", err)
	}
	if r.F0 != 25 {
		t.Errorf("F0 = %v, want 25", r.F0)
	}
	if len(r.Steps) != len(tr.Steps) || r.Reason != tr.Reason {
		t.Errorf("Run does not mirror the trajectory")
	}
}
