//go:build windows

package system

import "os/exec"

// setProcGroup keeps the default Cancel behaviour (Process.Kill); Windows
// has no process-group signal equivalent.
func setProcGroup(cmd *exec.Cmd) {}
