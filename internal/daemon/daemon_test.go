package daemon_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"chargectl/internal/config"
	"chargectl/internal/daemon"
	"chargectl/internal/logging"
	"chargectl/internal/pipe"
	"chargectl/internal/threshold"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	dir := t.TempDir()
	cfg := config.Default()
	cfg.Paths.StartThreshold = filepath.Join(dir, "start")
	cfg.Paths.EndThreshold = filepath.Join(dir, "end")
	cfg.Paths.LogDir = filepath.Join(dir, "logs")
	cfg.Pipe.Path = filepath.Join(dir, "control.pipe")
	cfg.History.Enabled = false
	for _, path := range []string{cfg.Paths.StartThreshold, cfg.Paths.EndThreshold} {
		if err := os.WriteFile(path, []byte("0"), 0o644); err != nil {
			t.Fatalf("seed control point: %v", err)
		}
	}
	if err := os.MkdirAll(cfg.Paths.LogDir, 0o755); err != nil {
		t.Fatalf("create log dir: %v", err)
	}
	return &cfg
}

func newTestDaemon(t *testing.T, cfg *config.Config) *daemon.Daemon {
	t.Helper()
	writer := threshold.NewWriter(cfg.Paths.StartThreshold, cfg.Paths.EndThreshold)
	dispatcher := threshold.NewDispatcher(logging.NewNop(), writer, nil)
	d, err := daemon.New(cfg, logging.NewNop(), dispatcher)
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	return d
}

func waitForContent(t *testing.T, path, want string) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		data, err := os.ReadFile(path)
		if err == nil && string(data) == want {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	data, _ := os.ReadFile(path)
	t.Fatalf("timed out waiting for %s to contain %q, have %q", path, want, data)
}

func TestStartCreatesPipeAndAppliesInitialThresholds(t *testing.T) {
	cfg := testConfig(t)
	start, end := 75, 80
	cfg.Thresholds.Start = &start
	cfg.Thresholds.End = &end

	d := newTestDaemon(t, cfg)
	defer d.Close()

	if err := d.Start(context.Background()); err != nil {
		t.Fatalf("Start returned error: %v", err)
	}

	state, err := pipe.Inspect(cfg.Pipe.Path)
	if err != nil {
		t.Fatalf("Inspect returned error: %v", err)
	}
	if !state.Exists || !state.IsFIFO {
		t.Fatalf("expected FIFO at %s: %+v", cfg.Pipe.Path, state)
	}
	if state.Mode.String() != "777" {
		t.Fatalf("unexpected pipe mode: %s", state.Mode)
	}

	data, err := os.ReadFile(cfg.Paths.StartThreshold)
	if err != nil || string(data) != "75" {
		t.Fatalf("initial start threshold not applied: %q %v", data, err)
	}
	data, err = os.ReadFile(cfg.Paths.EndThreshold)
	if err != nil || string(data) != "80" {
		t.Fatalf("initial end threshold not applied: %q %v", data, err)
	}
}

func TestStartFailsWhenPipePathOccupied(t *testing.T) {
	cfg := testConfig(t)
	if err := os.WriteFile(cfg.Pipe.Path, []byte("occupied"), 0o644); err != nil {
		t.Fatalf("occupy pipe path: %v", err)
	}

	d := newTestDaemon(t, cfg)
	defer d.Close()

	if err := d.Start(context.Background()); err == nil {
		t.Fatal("expected Start to fail for occupied pipe path")
	}
	data, err := os.ReadFile(cfg.Pipe.Path)
	if err != nil || string(data) != "occupied" {
		t.Fatalf("occupant must be untouched: %q %v", data, err)
	}
}

func TestStartFailsWhenNeitherControlPointWritable(t *testing.T) {
	cfg := testConfig(t)
	if err := os.Remove(cfg.Paths.StartThreshold); err != nil {
		t.Fatalf("remove start: %v", err)
	}
	if err := os.Remove(cfg.Paths.EndThreshold); err != nil {
		t.Fatalf("remove end: %v", err)
	}

	d := newTestDaemon(t, cfg)
	defer d.Close()

	if err := d.Start(context.Background()); err == nil {
		t.Fatal("expected Start to fail when no control point is writable")
	}
}

func TestStartProceedsWithOneWritableControlPoint(t *testing.T) {
	cfg := testConfig(t)
	if err := os.Remove(cfg.Paths.StartThreshold); err != nil {
		t.Fatalf("remove start: %v", err)
	}

	d := newTestDaemon(t, cfg)
	defer d.Close()

	if err := d.Start(context.Background()); err != nil {
		t.Fatalf("Start should proceed with one writable control point: %v", err)
	}
}

func TestSecondInstanceIsRejected(t *testing.T) {
	cfg := testConfig(t)

	first := newTestDaemon(t, cfg)
	defer first.Close()
	if err := first.Start(context.Background()); err != nil {
		t.Fatalf("first Start returned error: %v", err)
	}

	second := newTestDaemon(t, cfg)
	defer second.Close()
	if err := second.Start(context.Background()); err == nil {
		t.Fatal("expected second instance to be rejected")
	}
}

func TestServeDispatchesPipeCommands(t *testing.T) {
	cfg := testConfig(t)
	d := newTestDaemon(t, cfg)
	defer d.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := d.Start(ctx); err != nil {
		t.Fatalf("Start returned error: %v", err)
	}

	done := make(chan struct{})
	go func() {
		d.Serve(ctx)
		close(done)
	}()

	// The reader may not have the pipe open yet; retry until it does.
	deadline := time.Now().Add(5 * time.Second)
	for {
		err := pipe.WriteCommand(cfg.Pipe.Path, "80..90")
		if err == nil {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("write command: %v", err)
		}
		time.Sleep(10 * time.Millisecond)
	}

	waitForContent(t, cfg.Paths.StartThreshold, "80")
	waitForContent(t, cfg.Paths.EndThreshold, "90")

	cancel()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("Serve did not stop after cancellation")
	}
}

func TestServeKeepsGoingAfterFailedWrites(t *testing.T) {
	cfg := testConfig(t)
	d := newTestDaemon(t, cfg)
	defer d.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := d.Start(ctx); err != nil {
		t.Fatalf("Start returned error: %v", err)
	}
	// Simulate the start control point going away after startup.
	if err := os.Remove(cfg.Paths.StartThreshold); err != nil {
		t.Fatalf("remove start: %v", err)
	}
	if err := os.Mkdir(cfg.Paths.StartThreshold, 0o755); err != nil {
		t.Fatalf("block start path: %v", err)
	}

	done := make(chan struct{})
	go func() {
		d.Serve(ctx)
		close(done)
	}()

	writeCommand := func(payload string) {
		t.Helper()
		deadline := time.Now().Add(5 * time.Second)
		for {
			if err := pipe.WriteCommand(cfg.Pipe.Path, payload); err == nil {
				return
			} else if time.Now().After(deadline) {
				t.Fatalf("write command %q: %v", payload, err)
			}
			time.Sleep(10 * time.Millisecond)
		}
	}

	// The end side still works on its own.
	writeCommand("end=60")
	waitForContent(t, cfg.Paths.EndThreshold, "60")

	// A range command loses its start side to the failed write but the
	// end side lands, and the loop keeps serving.
	writeCommand("50..55")
	waitForContent(t, cfg.Paths.EndThreshold, "55")

	cancel()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("Serve did not stop after cancellation")
	}
}
