//go:build !windows

package system

import (
	"os/exec"
	"syscall"
)

// setProcGroup starts the command in its own process group so that
// terminating it also reaches the children it spawned (ember serve forks
// node workers).
func setProcGroup(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	cmd.Cancel = func() error {
		if cmd.Process != nil {
			// Signal the entire process group (negative PID)
			return syscall.Kill(-cmd.Process.Pid, syscall.SIGTERM)
		}
		return nil
	}
}
