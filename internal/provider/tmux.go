package provider

import (
	"errors"
	"fmt"
	"os/exec"
)

// Tmux backs sessions with a tmux server. Existence is probed with
// has-session before deciding between attach and new-session.
type Tmux struct {
	binary string
}

// NewTmux returns the tmux provider.
func NewTmux() *Tmux {
	return &Tmux{binary: "tmux"}
}

// Name implements Provider.
func (t *Tmux) Name() string { return "tmux" }

// Available implements Provider.
func (t *Tmux) Available() bool {
	_, err := exec.LookPath(t.binary)
	return err == nil
}

// HasSession probes the backend for sessionID. tmux exits 1 when the session
// does not exist; any other failure means the probe itself could not run and
// is reported as ErrBackendUnavailable rather than "does not exist".
func (t *Tmux) HasSession(sessionID string) (bool, error) {
	if !t.Available() {
		return false, fmt.Errorf("%w: %s not in PATH", ErrBackendUnavailable, t.binary)
	}
	cmd := exec.Command(t.binary, "has-session", "-t", sessionID)
	if err := cmd.Run(); err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) && exitErr.ExitCode() == 1 {
			return false, nil
		}
		return false, fmt.Errorf("%w: has-session: %v", ErrBackendUnavailable, err)
	}
	return true, nil
}

// CreateOrAttach implements Provider. An existing session gets a plain
// attach; otherwise a new session is created running command.
func (t *Tmux) CreateOrAttach(sessionID, command string) (string, error) {
	exists, err := t.HasSession(sessionID)
	if err != nil {
		return "", err
	}
	if exists {
		return fmt.Sprintf("%s attach-session -t %s", t.binary, sessionID), nil
	}
	if command == "" {
		return fmt.Sprintf("%s new-session -s %s", t.binary, sessionID), nil
	}
	return fmt.Sprintf("%s new-session -s %s %s", t.binary, sessionID, command), nil
}
