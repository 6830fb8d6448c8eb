// Package protocol defines the filesystem artifacts and signals that
// host and worker share. Every artifact lives in one temp directory and
// is namespaced by the host's PID, so independent host processes on one
// machine never collide.
//
// The flag file is the load-bearing piece: its presence means "request
// pending" (or "startup pending" during launch) and its absence means
// "ready". It acts as a binary semaphore with exactly one producer and
// one consumer per direction, fixed by convention: the host creates the
// flag before a call and the worker deletes it on completion.
package protocol

import (
	"fmt"
	"os"
	"path/filepath"
)

// Paths names every artifact for one host process.
type Paths struct {
	Dir     string
	HostPID int
}

// DefaultPaths uses the system temp directory and the current process id.
func DefaultPaths() Paths {
	return Paths{Dir: os.TempDir(), HostPID: os.Getpid()}
}

// FlagFile is the zero-byte pending-request (or pending-startup) marker.
func (p Paths) FlagFile() string {
	return filepath.Join(p.Dir, fmt.Sprintf("JuliaBridgeFlag_%d.txt", p.HostPID))
}

// ExpressionFile holds the UTF-8 text of the call expression, written by
// the host.
func (p Paths) ExpressionFile() string {
	return filepath.Join(p.Dir, fmt.Sprintf("JuliaBridgeExpression_%d.txt", p.HostPID))
}

// ResultFile holds the encoded result, written by the worker. The host
// reads it and leaves it on disk.
func (p Paths) ResultFile() string {
	return filepath.Join(p.Dir, fmt.Sprintf("JuliaBridgeResult_%d.txt", p.HostPID))
}

// StartupScript is the bootstrap .jl the worker executes at launch.
func (p Paths) StartupScript() string {
	return filepath.Join(p.Dir, fmt.Sprintf("JuliaBridgeStartUp_%d.jl", p.HostPID))
}

// LoadErrorFile exists only when bootstrap failed; it holds the failure
// text so the next attempt (or a human) can diagnose without rerunning
// the bootstrap blind.
func (p Paths) LoadErrorFile() string {
	return filepath.Join(p.Dir, fmt.Sprintf("JuliaBridgeLoadError_%d.txt", p.HostPID))
}

// BannerFile is the worker's registration: its own PID and a title line.
// It replaces the window-title discovery surface of GUI hosts.
func (p Paths) BannerFile() string {
	return filepath.Join(p.Dir, fmt.Sprintf("JuliaBridgeWorker_%d.txt", p.HostPID))
}

// TitlePhrase is the fixed phrase a worker banner title must contain,
// alongside the decimal host PID.
const TitlePhrase = "JuliaBridge worker serving host"

// Title renders the banner title line for this host.
func (p Paths) Title() string {
	return fmt.Sprintf("%s %d", TitlePhrase, p.HostPID)
}
