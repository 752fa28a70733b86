package preflight_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"chargectl/internal/config"
	"chargectl/internal/preflight"
)

func TestCheckControlPoint(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "start")
	if err := os.WriteFile(path, []byte("0"), 0o644); err != nil {
		t.Fatalf("seed control point: %v", err)
	}

	result := preflight.CheckControlPoint("Start threshold", path)
	if !result.Passed {
		t.Fatalf("expected pass, got %+v", result)
	}

	result = preflight.CheckControlPoint("Start threshold", filepath.Join(dir, "absent"))
	if result.Passed {
		t.Fatalf("expected failure for missing path, got %+v", result)
	}
	if !strings.Contains(result.Detail, "does not exist") {
		t.Fatalf("unexpected detail: %q", result.Detail)
	}

	if os.Getuid() != 0 {
		if err := os.Chmod(path, 0o444); err != nil {
			t.Fatalf("chmod: %v", err)
		}
		result = preflight.CheckControlPoint("Start threshold", path)
		if result.Passed {
			t.Fatalf("expected failure for read-only path, got %+v", result)
		}
	}
}

func TestCheckDirectoryAccess(t *testing.T) {
	dir := t.TempDir()
	result := preflight.CheckDirectoryAccess("Log directory", dir)
	if !result.Passed {
		t.Fatalf("expected pass, got %+v", result)
	}

	file := filepath.Join(dir, "file")
	if err := os.WriteFile(file, nil, 0o644); err != nil {
		t.Fatalf("write file: %v", err)
	}
	result = preflight.CheckDirectoryAccess("Log directory", file)
	if result.Passed || !strings.Contains(result.Detail, "not a directory") {
		t.Fatalf("expected not-a-directory failure, got %+v", result)
	}
}

func TestRunAllCoversControlPointsAndLogDir(t *testing.T) {
	dir := t.TempDir()
	cfg := config.Default()
	cfg.Paths.StartThreshold = filepath.Join(dir, "start")
	cfg.Paths.EndThreshold = filepath.Join(dir, "end")
	cfg.Paths.LogDir = dir
	if err := os.WriteFile(cfg.Paths.StartThreshold, []byte("0"), 0o644); err != nil {
		t.Fatalf("seed control point: %v", err)
	}

	results := preflight.RunAll(&cfg)
	if len(results) != 3 {
		t.Fatalf("expected 3 results, got %d", len(results))
	}
	if !results[0].Passed {
		t.Fatalf("start check should pass: %+v", results[0])
	}
	if results[1].Passed {
		t.Fatalf("end check should fail (missing file): %+v", results[1])
	}
	if !results[2].Passed {
		t.Fatalf("log dir check should pass: %+v", results[2])
	}
}
