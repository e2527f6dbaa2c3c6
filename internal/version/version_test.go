package version

import "testing"

func TestGetReturnsBuildInfo(t *testing.T) {
	info := Get()

	if info.Version != Version {
		t.Errorf("Version = %q, want %q", info.Version, Version)
	}
	if info.GitCommit != GitCommit {
		t.Errorf("GitCommit = %q, want %q", info.GitCommit, GitCommit)
	}
	if info.BuildTime != BuildTime {
		t.Errorf("BuildTime = %q, want %q", info.BuildTime, BuildTime)
	}
}

func TestDevelopmentDefaults(t *testing.T) {
	// Without ldflags injection the defaults identify a dev build.
	if Version == "" {
		t.Error("Version default should not be empty")
	}
	if GitCommit == "" {
		t.Error("GitCommit default should not be empty")
	}
}
