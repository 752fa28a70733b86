package daemon

import (
	"context"
	"log/slog"
	"sync"

	"github.com/pilebones/go-udev/netlink"

	"chargectl/internal/config"
	"chargectl/internal/logging"
	"chargectl/internal/threshold"
)

// batteryMonitor listens for udev power_supply events and re-applies the
// configured thresholds when the battery re-appears. Firmware resets the
// thresholds on some machines after suspend or an EC reset; the monitor
// puts them back without waiting for the next pipe command.
type batteryMonitor struct {
	cfg        *config.Config
	logger     *slog.Logger
	dispatcher *threshold.Dispatcher
	supply     string

	mu      sync.Mutex
	conn    *netlink.UEventConn
	quit    chan struct{}
	running bool
}

// newBatteryMonitor returns nil when the monitor is disabled or when no
// initial thresholds exist to re-apply.
func newBatteryMonitor(cfg *config.Config, logger *slog.Logger, dispatcher *threshold.Dispatcher) *batteryMonitor {
	if cfg == nil || !cfg.Battery.MonitorEnabled {
		return nil
	}
	if cfg.Thresholds.Start == nil && cfg.Thresholds.End == nil {
		return nil
	}

	return &batteryMonitor{
		cfg:        cfg,
		logger:     logging.NewComponentLogger(logger, "battery-monitor"),
		dispatcher: dispatcher,
		supply:     cfg.Battery.Supply,
	}
}

// Start begins listening for udev netlink events. Connection failure is
// non-fatal; the daemon still serves pipe commands without the monitor.
func (m *batteryMonitor) Start(ctx context.Context) {
	if m == nil {
		return
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.running {
		return
	}

	conn := new(netlink.UEventConn)
	if err := conn.Connect(netlink.UdevEvent); err != nil {
		m.logger.Warn("unable to connect to netlink socket",
			logging.Error(err),
			logging.String(logging.FieldEventType, "netlink_connect_failed"),
			logging.String(logging.FieldErrorHint, "ensure the daemon may access netlink sockets"),
			logging.String(logging.FieldImpact, "thresholds will not be re-applied after battery resets"),
		)
		return
	}

	m.conn = conn
	m.quit = make(chan struct{})
	m.running = true

	quit := m.quit
	go m.monitorLoop(ctx, quit)

	m.logger.Info("battery monitor started",
		logging.String("supply", m.supply),
		logging.String(logging.FieldEventType, "battery_monitor_started"),
	)
}

// Stop shuts down the monitor.
func (m *batteryMonitor) Stop() {
	if m == nil {
		return
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.running {
		return
	}

	if m.quit != nil {
		close(m.quit)
		m.quit = nil
	}
	if m.conn != nil {
		_ = m.conn.Close()
		m.conn = nil
	}
	m.running = false

	m.logger.Info("battery monitor stopped",
		logging.String(logging.FieldEventType, "battery_monitor_stopped"),
	)
}

func (m *batteryMonitor) monitorLoop(ctx context.Context, quit <-chan struct{}) {
	queue := make(chan netlink.UEvent)
	errs := make(chan error)

	m.mu.Lock()
	conn := m.conn
	m.mu.Unlock()
	if conn == nil {
		return
	}

	monitorQuit := conn.Monitor(queue, errs, m.buildMatcher())

	for {
		select {
		case <-ctx.Done():
			close(monitorQuit)
			return
		case <-quit:
			close(monitorQuit)
			return
		case uevent := <-queue:
			m.handleEvent(ctx, uevent)
		case err := <-errs:
			m.logger.Warn("netlink monitor error",
				logging.Error(err),
				logging.String(logging.FieldEventType, "netlink_monitor_error"),
				logging.String(logging.FieldErrorHint, "check kernel netlink subsystem"),
				logging.String(logging.FieldImpact, "battery events may be missed"),
			)
		}
	}
}

// buildMatcher matches SUBSYSTEM=power_supply on add and change actions.
func (m *batteryMonitor) buildMatcher() netlink.Matcher {
	action := "change|add"
	rules := &netlink.RuleDefinitions{}
	rules.AddRule(netlink.RuleDefinition{
		Action: &action,
		Env: map[string]string{
			"SUBSYSTEM": "power_supply",
		},
	})
	return rules
}

func (m *batteryMonitor) handleEvent(ctx context.Context, uevent netlink.UEvent) {
	name := uevent.Env["POWER_SUPPLY_NAME"]
	if name == "" {
		m.logger.Debug("ignoring event without supply name",
			logging.String("action", string(uevent.Action)),
			logging.String("kobj", uevent.KObj),
		)
		return
	}
	if name != m.supply {
		m.logger.Debug("ignoring event for other supply",
			logging.String("supply", name),
			logging.String("configured_supply", m.supply),
		)
		return
	}

	m.logger.Info("battery event, re-applying thresholds",
		logging.String("supply", name),
		logging.String("action", string(uevent.Action)),
		logging.String(logging.FieldEventType, "battery_event"),
	)

	if m.cfg.Thresholds.Start != nil {
		_ = m.dispatcher.ApplyValue(ctx, threshold.ControlStart, uint8(*m.cfg.Thresholds.Start), "battery-monitor")
	}
	if m.cfg.Thresholds.End != nil {
		_ = m.dispatcher.ApplyValue(ctx, threshold.ControlEnd, uint8(*m.cfg.Thresholds.End), "battery-monitor")
	}
}
