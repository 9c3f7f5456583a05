package security

import (
	"path/filepath"
	"testing"
)

func TestValidatePathWithinDirectory(t *testing.T) {
	tests := []struct {
		name      string
		filePath  string
		safeDir   string
		wantError bool
	}{
		{"file in directory", filepath.Join("in", "a.chan"), "in", false},
		{"nested file", filepath.Join("in", "sub", "a.chan"), "in", false},
		{"directory itself", "in", "in", false},
		{"dot dir", "a.chan", ".", false},
		{"parent escape", filepath.Join("in", "..", "secret.chan"), "in", true},
		{"sibling prefix", filepath.Join("input", "a.chan"), "in", true},
		{"absolute inside", filepath.Join(string(filepath.Separator), "data", "in", "a.chan"), filepath.Join(string(filepath.Separator), "data", "in"), false},
		{"absolute outside", filepath.Join(string(filepath.Separator), "etc", "passwd"), filepath.Join(string(filepath.Separator), "data"), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidatePathWithinDirectory(tt.filePath, tt.safeDir)
			if (err != nil) != tt.wantError {
				t.Errorf("ValidatePathWithinDirectory(%q, %q) error = %v, wantError %v", tt.filePath, tt.safeDir, err, tt.wantError)
			}
		})
	}
}

func TestValidateSourceName(t *testing.T) {
	valid := []string{"a.chan", "scan 2024-01-01.chan", "..hidden.chan"}
	for _, name := range valid {
		if err := ValidateSourceName(name); err != nil {
			t.Errorf("ValidateSourceName(%q) = %v, want nil", name, err)
		}
	}
	invalid := []string{"", ".", "..", "../a.chan", "sub/a.chan", `sub\a.chan`, "/etc/passwd", "a\x00.chan"}
	for _, name := range invalid {
		if err := ValidateSourceName(name); err == nil {
			t.Errorf("ValidateSourceName(%q) = nil, want error", name)
		}
	}
}
