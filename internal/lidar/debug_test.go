package lidar

import (
	"bytes"
	"strings"
	"testing"
)

func TestSetLogWriters_RoutesStreams(t *testing.T) {
	var ops, diag, trace bytes.Buffer
	SetLogWriters(LogWriters{Ops: &ops, Diag: &diag, Trace: &trace})
	t.Cleanup(func() { SetLogWriters(LogWriters{}) })

	Opsf("ops %d", 1)
	Diagf("diag %d", 2)
	Tracef("trace %d", 3)

	tests := []struct {
		name string
		buf  *bytes.Buffer
		want string
		not  []string
	}{
		{"ops", &ops, "ops 1", []string{"diag 2", "trace 3"}},
		{"diag", &diag, "diag 2", []string{"ops 1", "trace 3"}},
		{"trace", &trace, "trace 3", []string{"ops 1", "diag 2"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.buf.String()
			if !strings.Contains(got, tt.want) {
				t.Errorf("stream %s = %q, want it to contain %q", tt.name, got, tt.want)
			}
			if !strings.Contains(got, "[sweep] ") {
				t.Errorf("stream %s missing prefix: %q", tt.name, got)
			}
			for _, n := range tt.not {
				if strings.Contains(got, n) {
					t.Errorf("stream %s leaked %q", tt.name, n)
				}
			}
		})
	}
}

func TestSetLogWriters_NilDisables(t *testing.T) {
	SetLogWriters(LogWriters{})
	// Must not panic with every stream disabled.
	Opsf("x")
	Diagf("x")
	Tracef("x")
}

func TestWritersForVerbosity(t *testing.T) {
	var buf bytes.Buffer
	tests := []struct {
		verbosity           int
		wantDiag, wantTrace bool
	}{
		{0, false, false},
		{1, true, false},
		{2, true, true},
		{5, true, true},
	}
	for _, tt := range tests {
		lw := WritersForVerbosity(&buf, tt.verbosity)
		if lw.Ops == nil {
			t.Errorf("verbosity %d: ops stream disabled", tt.verbosity)
		}
		if (lw.Diag != nil) != tt.wantDiag {
			t.Errorf("verbosity %d: diag enabled = %v, want %v", tt.verbosity, lw.Diag != nil, tt.wantDiag)
		}
		if (lw.Trace != nil) != tt.wantTrace {
			t.Errorf("verbosity %d: trace enabled = %v, want %v", tt.verbosity, lw.Trace != nil, tt.wantTrace)
		}
	}
}
