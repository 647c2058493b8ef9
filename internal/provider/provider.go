// Package provider resolves a surface's backing command into an invocation
// that keeps the process alive independently of the surface's visibility.
// A provider turns "run this command for this session id" into either an
// attach to an existing detachable session or a fresh session creation.
package provider

import (
	"errors"
	"fmt"
	"strings"
)

// SessionPrefix namespaces every backing session so repeated opens of the
// same named surface always target the same session, and unrelated sessions
// on the same backend are never touched.
const SessionPrefix = "surf-"

// ErrBackendUnavailable is returned when a provider's backend binary is
// missing or its existence probe fails to run at all.
var ErrBackendUnavailable = errors.New("session backend unavailable")

// ErrUnknownProvider is returned when a name resolves to no registered
// provider.
var ErrUnknownProvider = errors.New("unknown session provider")

// Provider turns a desired session id plus a command into the shell
// invocation that creates the session or attaches to an existing one.
type Provider interface {
	// Name identifies the provider in configuration ("tmux", "abduco").
	Name() string
	// Available reports whether the backend binary is installed.
	Available() bool
	// CreateOrAttach resolves command for sessionID. It may probe the
	// backend synchronously; callers should not assume it is cheap.
	CreateOrAttach(sessionID, command string) (string, error)
}

// SessionID derives the namespaced session id for a surface name. Characters
// the backends treat specially in target names are flattened to dashes.
func SessionID(name string) string {
	mapped := strings.Map(func(r rune) rune {
		switch r {
		case '.', ':', ' ', '\t':
			return '-'
		}
		return r
	}, name)
	return SessionPrefix + mapped
}

// Registry holds the known providers by name.
type Registry struct {
	providers map[string]Provider
	order     []string
}

// NewRegistry returns a registry preloaded with the built-in providers.
func NewRegistry() *Registry {
	r := &Registry{providers: make(map[string]Provider)}
	r.Register(NewTmux())
	r.Register(NewAbduco())
	return r
}

// Register adds or replaces a provider under its own name.
func (r *Registry) Register(p Provider) {
	if _, ok := r.providers[p.Name()]; !ok {
		r.order = append(r.order, p.Name())
	}
	r.providers[p.Name()] = p
}

// Get looks a provider up by name.
func (r *Registry) Get(name string) (Provider, error) {
	p, ok := r.providers[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownProvider, name)
	}
	return p, nil
}

// Names lists registered provider names in registration order.
func (r *Registry) Names() []string {
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}
