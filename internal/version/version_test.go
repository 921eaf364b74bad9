package version

import (
	"runtime/debug"
	"testing"
)

func TestInfoString(t *testing.T) {
	tests := []struct {
		info Info
		want string
	}{
		{Info{Version: "v1.2.0"}, "v1.2.0"},
		{Info{Version: "v1.2.0", Commit: "0123456789abcdef"}, "v1.2.0 (0123456789ab)"},
		{Info{Version: "v1.2.0", Commit: "abc", Dirty: true}, "v1.2.0 (abc, dirty)"},
	}
	for _, tt := range tests {
		if got := tt.info.String(); got != tt.want {
			t.Errorf("String() = %q, want %q", got, tt.want)
		}
	}
}

func TestApplyBuildSettingsKeepsLdflags(t *testing.T) {
	info := Info{Commit: "fromldflags"}
	applyBuildSettings(&info, []debug.BuildSetting{
		{Key: "vcs.revision", Value: "fromvcs"},
		{Key: "vcs.time", Value: "2024-05-01T10:00:00Z"},
		{Key: "vcs.modified", Value: "true"},
	})
	if info.Commit != "fromldflags" {
		t.Fatalf("Commit = %q, want ldflags value", info.Commit)
	}
	if info.BuildTime != "2024-05-01T10:00:00Z" {
		t.Fatalf("BuildTime = %q", info.BuildTime)
	}
	if !info.Dirty {
		t.Fatal("expected Dirty")
	}
}

func TestResolveAlwaysHasVersion(t *testing.T) {
	info := Resolve()
	if info.Version == "" {
		t.Fatal("Resolve returned empty version")
	}
	if info.GoVersion == "" {
		t.Fatal("Resolve returned empty Go version")
	}
}
