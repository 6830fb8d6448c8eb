package protocol

import (
	"os"
	"syscall"
)

// Doorbell wakes a waiting worker without it having to poll continuously.
// The production implementation is a process signal; tests substitute
// their own.
type Doorbell interface {
	Ring() error
}

// WakeSignal is the doorbell signal a serving worker listens for.
const WakeSignal = syscall.SIGUSR1

// SignalDoorbell rings by sending WakeSignal to the worker process.
type SignalDoorbell struct {
	PID int
}

func (d SignalDoorbell) Ring() error {
	proc, err := os.FindProcess(d.PID)
	if err != nil {
		return err
	}
	return proc.Signal(WakeSignal)
}

// Alive probes whether a process exists. Signal 0 performs the existence
// check without delivering anything; EPERM still means the process is
// there.
func Alive(pid int) bool {
	proc, err := os.FindProcess(pid)
	if err != nil {
		return false
	}
	err = proc.Signal(syscall.Signal(0))
	return err == nil || err == syscall.EPERM
}
