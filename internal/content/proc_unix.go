//go:build !windows

package content

import (
	"os/exec"
	"syscall"
)

const fallbackShell = "/bin/sh"

// setControllingTerminal makes the PTY slave the process's controlling
// terminal; shells like fish misbehave without one. Ctty 0 refers to stdin,
// which xpty wires to the slave before exec.
func setControllingTerminal(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{
		Setsid:  true,
		Setctty: true,
		Ctty:    0,
	}
}
