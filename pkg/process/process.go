package process

import (
	"errors"
	"os"
	"syscall"
)

// IsProcessAlive checks if a process with the given PID is still running.
// Signal 0 probes existence on Unix-like systems without delivering anything.
// A zombie (exited but not yet reaped) still counts as alive.
func IsProcessAlive(pid int) bool {
	if pid <= 0 {
		return false
	}

	proc, err := os.FindProcess(pid)
	if err != nil {
		return false
	}

	// EPERM means the process exists but belongs to someone else.
	err = proc.Signal(syscall.Signal(0))
	return err == nil || os.IsPermission(err)
}

// Signal sends sig to proc, treating an already-finished process as success.
func Signal(proc *os.Process, sig os.Signal) error {
	if proc == nil {
		return nil
	}
	err := proc.Signal(sig)
	if errors.Is(err, os.ErrProcessDone) {
		return nil
	}
	return err
}

// Kill force-kills the process with the given PID, if it still exists.
func Kill(pid int) error {
	if !IsProcessAlive(pid) {
		return nil
	}
	proc, err := os.FindProcess(pid)
	if err != nil {
		return err
	}
	return Signal(proc, os.Kill)
}
