package daemon

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/pilebones/go-udev/netlink"

	"chargectl/internal/config"
	"chargectl/internal/logging"
	"chargectl/internal/threshold"
)

func monitorConfig(t *testing.T) *config.Config {
	t.Helper()
	dir := t.TempDir()
	cfg := config.Default()
	cfg.Paths.StartThreshold = filepath.Join(dir, "start")
	cfg.Paths.EndThreshold = filepath.Join(dir, "end")
	for _, path := range []string{cfg.Paths.StartThreshold, cfg.Paths.EndThreshold} {
		if err := os.WriteFile(path, []byte("0"), 0o644); err != nil {
			t.Fatalf("seed control point: %v", err)
		}
	}
	cfg.Battery.MonitorEnabled = true
	start, end := 70, 85
	cfg.Thresholds.Start = &start
	cfg.Thresholds.End = &end
	return &cfg
}

func monitorDispatcher(cfg *config.Config) *threshold.Dispatcher {
	writer := threshold.NewWriter(cfg.Paths.StartThreshold, cfg.Paths.EndThreshold)
	return threshold.NewDispatcher(logging.NewNop(), writer, nil)
}

func TestNewBatteryMonitor(t *testing.T) {
	t.Run("nil config returns nil", func(t *testing.T) {
		if m := newBatteryMonitor(nil, nil, nil); m != nil {
			t.Error("expected nil monitor for nil config")
		}
	})

	t.Run("disabled monitor returns nil", func(t *testing.T) {
		cfg := monitorConfig(t)
		cfg.Battery.MonitorEnabled = false
		if m := newBatteryMonitor(cfg, nil, monitorDispatcher(cfg)); m != nil {
			t.Error("expected nil monitor when disabled")
		}
	})

	t.Run("no thresholds returns nil", func(t *testing.T) {
		cfg := monitorConfig(t)
		cfg.Thresholds.Start = nil
		cfg.Thresholds.End = nil
		if m := newBatteryMonitor(cfg, nil, monitorDispatcher(cfg)); m != nil {
			t.Error("expected nil monitor without thresholds to re-apply")
		}
	})

	t.Run("valid config creates monitor", func(t *testing.T) {
		cfg := monitorConfig(t)
		m := newBatteryMonitor(cfg, nil, monitorDispatcher(cfg))
		if m == nil {
			t.Fatal("expected non-nil monitor")
		}
		if m.supply != "BAT0" {
			t.Errorf("expected supply BAT0, got %s", m.supply)
		}
	})
}

func TestBatteryMonitorHandleEvent(t *testing.T) {
	cfg := monitorConfig(t)
	m := newBatteryMonitor(cfg, nil, monitorDispatcher(cfg))
	if m == nil {
		t.Fatal("expected monitor")
	}

	m.handleEvent(context.Background(), netlink.UEvent{
		Action: netlink.ADD,
		Env:    map[string]string{"POWER_SUPPLY_NAME": "BAT0"},
	})

	data, err := os.ReadFile(cfg.Paths.StartThreshold)
	if err != nil {
		t.Fatalf("read start control: %v", err)
	}
	if string(data) != "70" {
		t.Fatalf("start control = %q, want 70", data)
	}
	data, err = os.ReadFile(cfg.Paths.EndThreshold)
	if err != nil {
		t.Fatalf("read end control: %v", err)
	}
	if string(data) != "85" {
		t.Fatalf("end control = %q, want 85", data)
	}
}

func TestBatteryMonitorIgnoresOtherSupplies(t *testing.T) {
	cfg := monitorConfig(t)
	m := newBatteryMonitor(cfg, nil, monitorDispatcher(cfg))

	m.handleEvent(context.Background(), netlink.UEvent{
		Action: netlink.CHANGE,
		Env:    map[string]string{"POWER_SUPPLY_NAME": "AC"},
	})
	m.handleEvent(context.Background(), netlink.UEvent{Action: netlink.CHANGE, Env: map[string]string{}})

	data, err := os.ReadFile(cfg.Paths.StartThreshold)
	if err != nil {
		t.Fatalf("read start control: %v", err)
	}
	if string(data) != "0" {
		t.Fatalf("start control must be untouched, got %q", data)
	}
}

func TestBatteryMonitorStopWithoutStart(t *testing.T) {
	cfg := monitorConfig(t)
	m := newBatteryMonitor(cfg, logging.NewNop(), monitorDispatcher(cfg))
	m.Stop()
	m.Stop()

	var nilMonitor *batteryMonitor
	nilMonitor.Start(context.Background())
	nilMonitor.Stop()
}
