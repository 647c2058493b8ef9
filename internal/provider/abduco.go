package provider

import (
	"fmt"
	"os/exec"
)

// Abduco backs sessions with the abduco session detacher. abduco's -A flag
// attaches to an existing session or creates it in one step, so no existence
// probe is needed; attach-or-create is atomic by construction.
type Abduco struct {
	binary string
}

// NewAbduco returns the abduco provider.
func NewAbduco() *Abduco {
	return &Abduco{binary: "abduco"}
}

// Name implements Provider.
func (a *Abduco) Name() string { return "abduco" }

// Available implements Provider.
func (a *Abduco) Available() bool {
	_, err := exec.LookPath(a.binary)
	return err == nil
}

// CreateOrAttach implements Provider.
func (a *Abduco) CreateOrAttach(sessionID, command string) (string, error) {
	if !a.Available() {
		return "", fmt.Errorf("%w: %s not in PATH", ErrBackendUnavailable, a.binary)
	}
	if command == "" {
		return fmt.Sprintf("%s -A %s", a.binary, sessionID), nil
	}
	return fmt.Sprintf("%s -A %s %s", a.binary, sessionID, command), nil
}
