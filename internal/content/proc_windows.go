//go:build windows

package content

import "os/exec"

const fallbackShell = "cmd.exe"

// setControllingTerminal is a no-op on Windows; ConPTY attaches the
// console itself.
func setControllingTerminal(_ *exec.Cmd) {}
