// Package daemon owns the chargectld runtime: single-instance locking, pipe
// provisioning, startup threshold application, preflight probes, the
// blocking command loop, and the optional udev battery monitor.
//
// The command loop is deliberately synchronous: one actor blocks on the
// pipe, parses what arrives, and writes the control points. Read failures
// are logged and retried immediately with no backoff, matching the behavior
// this daemon replaces; under a persistently failing pipe that becomes a
// busy loop, which is accepted as a known risk rather than papered over.
package daemon
