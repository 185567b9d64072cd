package main

import (
	"bytes"
	"strings"
	"testing"
)

// TestVersionCmd tests the version command output.
func TestVersionCmd(t *testing.T) {
	t.Parallel()

	cmd := NewVersionCmd()
	var buf bytes.Buffer
	cmd.SetOut(&buf)

	if err := cmd.Execute(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	out := buf.String()
	if !strings.Contains(out, "wirefeed version") {
		t.Errorf("missing version line: %s", out)
	}
	if !strings.Contains(out, "commit:") || !strings.Contains(out, "built:") {
		t.Errorf("missing build metadata: %s", out)
	}
}

// TestGetVersionDefault tests the fallback version string.
func TestGetVersionDefault(t *testing.T) {
	t.Parallel()

	if v := getVersion(); v == "" {
		t.Error("version must never be empty")
	}
}

// TestBuildMetadataDefaults tests the commit and date fallbacks.
func TestBuildMetadataDefaults(t *testing.T) {
	t.Parallel()

	if c := getCommit(); c == "" {
		t.Error("commit must never be empty")
	}
	if d := getDate(); d == "" {
		t.Error("date must never be empty")
	}
}
