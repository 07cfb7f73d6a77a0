//go:build unix

package runner

import (
	stderrors "errors"
	"os"
	"os/exec"
	"syscall"

	"golang.org/x/sys/unix"

	"github.com/grovetools/spawn/pkg/process"
)

// setDetached starts the child in its own session so it outlives the
// parent's terminal and process group.
func setDetached(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{Setsid: true}
}

// setProcessGroup makes the child the leader of a new process group, so
// termination reaches everything it started.
func setProcessGroup(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
}

func signalTerminate(proc *os.Process) error {
	return signalGroup(proc, syscall.SIGTERM)
}

func killGroup(proc *os.Process) error {
	return signalGroup(proc, syscall.SIGKILL)
}

// signalGroup signals the process group led by proc. A negative pid
// targets the group. It falls back to the process itself when the group
// cannot be addressed.
func signalGroup(proc *os.Process, sig syscall.Signal) error {
	if proc == nil {
		return nil
	}
	err := syscall.Kill(-proc.Pid, sig)
	switch {
	case err == nil, stderrors.Is(err, syscall.ESRCH):
		return nil
	default:
		return process.Signal(proc, sig)
	}
}

// exitSignal returns the name of the signal that killed the process, or "".
func exitSignal(state *os.ProcessState) string {
	status, ok := state.Sys().(syscall.WaitStatus)
	if !ok || !status.Signaled() {
		return ""
	}
	if name := unix.SignalName(status.Signal()); name != "" {
		return name
	}
	return status.Signal().String()
}
