package version

import "testing"

func TestString(t *testing.T) {
	oldV, oldC, oldD := Version, Commit, Date
	t.Cleanup(func() { Version, Commit, Date = oldV, oldC, oldD })

	tests := []struct {
		version, commit, date string
		want                  string
	}{
		{"v1.0.0", "", "", "tasktree v1.0.0"},
		{"v1.0.0", "abc123", "", "tasktree v1.0.0 (commit abc123)"},
		{"v1.0.0", "abc123", "2026-01-02", "tasktree v1.0.0 (commit abc123, built 2026-01-02)"},
	}
	for _, tt := range tests {
		Version, Commit, Date = tt.version, tt.commit, tt.date
		if got := String(); got != tt.want {
			t.Errorf("String() = %q, want %q", got, tt.want)
		}
	}
}
