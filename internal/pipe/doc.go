// Package pipe provisions and reads the command FIFO.
//
// Provisioning reconciles the filesystem object at the configured path
// against the desired type, ownership, and permission bits with minimal
// destructive action: a missing pipe is created, a pipe with drifted
// ownership or mode is corrected in place, and a non-FIFO occupant is never
// touched. All raw system-call interaction (mkfifo, umask, access) is
// confined to this package.
package pipe
