// Package threshold implements the command grammar and the control-point
// writes it drives.
//
// A payload read from the pipe parses into an Intent holding raw start/end
// values. Each present side is validated and written independently: one bad
// side never blocks the other, and every write reports its own outcome.
package threshold
