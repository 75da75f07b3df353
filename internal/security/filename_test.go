package security

import (
	"strings"
	"testing"
)

func TestSanitizeFilename(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in, want string
	}{
		{"", "unknown"},
		{"corridor", "corridor"},
		{"bottleneck 050 (run 2)", "bottleneck_050_run_2"},
		{"../../etc/passwd", "etc_passwd"},
		{"..", "unknown"},
		{"ünïcode-ok", "n_code-ok"},
		{"a//b", "a_b"},
	}
	for _, tt := range tests {
		if got := SanitizeFilename(tt.in); got != tt.want {
			t.Errorf("SanitizeFilename(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestSanitizeFilename_Length(t *testing.T) {
	t.Parallel()

	got := SanitizeFilename(strings.Repeat("x", 500))
	if len(got) != maxNameLen {
		t.Errorf("len = %d, want %d", len(got), maxNameLen)
	}
}

func TestTrajectoryName(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in, want string
	}{
		{"/data/uo-180-070.txt", "uo-180-070"},
		{"runs/my run.traj.txt", "my_run.traj"},
		{"plain", "plain"},
	}
	for _, tt := range tests {
		if got := TrajectoryName(tt.in); got != tt.want {
			t.Errorf("TrajectoryName(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
