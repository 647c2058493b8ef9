//go:build !windows

package provider

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

// writeStub installs an executable shell script named name on a private
// PATH. script runs with the stub's arguments.
func writeStub(t *testing.T, dir, name, script string) {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte("#!/bin/sh\n"+script), 0o755); err != nil {
		t.Fatalf("write %s stub: %v", name, err)
	}
}

func stubPath(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("PATH", dir)
	return dir
}

func TestSessionID(t *testing.T) {
	tests := []struct {
		name string
		want string
	}{
		{"logs", "surf-logs"},
		{"my scratch", "surf-my-scratch"},
		{"a.b:c", "surf-a-b-c"},
	}
	for _, tc := range tests {
		if got := SessionID(tc.name); got != tc.want {
			t.Errorf("SessionID(%q) = %q, want %q", tc.name, got, tc.want)
		}
	}
}

func TestTmuxCreateOrAttach_ExistingSession(t *testing.T) {
	dir := stubPath(t)
	writeStub(t, dir, "tmux", `exit 0`)

	got, err := NewTmux().CreateOrAttach("surf-logs", "tail -f /var/log/syslog")
	if err != nil {
		t.Fatalf("CreateOrAttach returned error: %v", err)
	}
	want := "tmux attach-session -t surf-logs"
	if got != want {
		t.Errorf("CreateOrAttach = %q, want %q", got, want)
	}
}

func TestTmuxCreateOrAttach_NewSession(t *testing.T) {
	dir := stubPath(t)
	// has-session exits 1: session does not exist.
	writeStub(t, dir, "tmux", `[ "$1" = has-session ] && exit 1; exit 0`)

	got, err := NewTmux().CreateOrAttach("surf-logs", "htop")
	if err != nil {
		t.Fatalf("CreateOrAttach returned error: %v", err)
	}
	want := "tmux new-session -s surf-logs htop"
	if got != want {
		t.Errorf("CreateOrAttach = %q, want %q", got, want)
	}
}

func TestTmuxCreateOrAttach_NewSessionNoCommand(t *testing.T) {
	dir := stubPath(t)
	writeStub(t, dir, "tmux", `[ "$1" = has-session ] && exit 1; exit 0`)

	got, err := NewTmux().CreateOrAttach("surf-scratch", "")
	if err != nil {
		t.Fatalf("CreateOrAttach returned error: %v", err)
	}
	want := "tmux new-session -s surf-scratch"
	if got != want {
		t.Errorf("CreateOrAttach = %q, want %q", got, want)
	}
}

func TestTmuxHasSession_ProbeFailure(t *testing.T) {
	dir := stubPath(t)
	// Exit code other than 0/1 means the probe itself broke.
	writeStub(t, dir, "tmux", `exit 127`)

	_, err := NewTmux().HasSession("surf-logs")
	if !errors.Is(err, ErrBackendUnavailable) {
		t.Fatalf("HasSession error = %v, want ErrBackendUnavailable", err)
	}
}

func TestTmuxCreateOrAttach_BinaryMissing(t *testing.T) {
	stubPath(t) // empty PATH

	_, err := NewTmux().CreateOrAttach("surf-logs", "htop")
	if !errors.Is(err, ErrBackendUnavailable) {
		t.Fatalf("CreateOrAttach error = %v, want ErrBackendUnavailable", err)
	}
}

func TestAbducoCreateOrAttach(t *testing.T) {
	dir := stubPath(t)
	writeStub(t, dir, "abduco", `exit 0`)

	got, err := NewAbduco().CreateOrAttach("surf-logs", "htop")
	if err != nil {
		t.Fatalf("CreateOrAttach returned error: %v", err)
	}
	want := "abduco -A surf-logs htop"
	if got != want {
		t.Errorf("CreateOrAttach = %q, want %q", got, want)
	}

	// No probe runs: the same invocation attaches or creates.
	again, err := NewAbduco().CreateOrAttach("surf-logs", "htop")
	if err != nil {
		t.Fatalf("second CreateOrAttach returned error: %v", err)
	}
	if again != got {
		t.Errorf("CreateOrAttach not stable: %q then %q", got, again)
	}
}

func TestAbducoCreateOrAttach_BinaryMissing(t *testing.T) {
	stubPath(t)

	_, err := NewAbduco().CreateOrAttach("surf-logs", "htop")
	if !errors.Is(err, ErrBackendUnavailable) {
		t.Fatalf("CreateOrAttach error = %v, want ErrBackendUnavailable", err)
	}
}

func TestRegistry(t *testing.T) {
	r := NewRegistry()

	for _, name := range []string{"tmux", "abduco"} {
		p, err := r.Get(name)
		if err != nil {
			t.Fatalf("Get(%q) returned error: %v", name, err)
		}
		if p.Name() != name {
			t.Errorf("Get(%q).Name() = %q", name, p.Name())
		}
	}

	if _, err := r.Get("screen"); !errors.Is(err, ErrUnknownProvider) {
		t.Errorf("Get(screen) error = %v, want ErrUnknownProvider", err)
	}

	names := r.Names()
	if len(names) != 2 || names[0] != "tmux" || names[1] != "abduco" {
		t.Errorf("Names() = %v, want [tmux abduco]", names)
	}
}
