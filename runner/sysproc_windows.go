//go:build windows

package runner

import (
	"os"
	"os/exec"
	"syscall"

	"golang.org/x/sys/windows"

	"github.com/grovetools/spawn/pkg/process"
)

func setDetached(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{
		CreationFlags: windows.CREATE_NEW_PROCESS_GROUP | windows.DETACHED_PROCESS,
	}
}

// setProcessGroup puts the child in its own group so console control
// events aimed at the parent do not reach it.
func setProcessGroup(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{
		CreationFlags: windows.CREATE_NEW_PROCESS_GROUP,
	}
}

func killGroup(proc *os.Process) error {
	return process.Signal(proc, os.Kill)
}

// signalTerminate kills the process; Windows has no SIGTERM delivery.
func signalTerminate(proc *os.Process) error {
	return process.Signal(proc, os.Kill)
}

func exitSignal(*os.ProcessState) string {
	return ""
}
