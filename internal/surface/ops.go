package surface

import (
	"fmt"
	"strconv"

	"github.com/Gaurav-Gosain/surf/internal/geometry"
	"github.com/Gaurav-Gosain/surf/internal/unit"
)

// ResizeOpts carries the dimensions to change; empty fields are left
// untouched. Each value is a unit token resolved against the screen
// dimension with the window's current size as the relative basis.
type ResizeOpts struct {
	Width  string
	Height string
}

// RepositionOpts moves a floating window by anchor keyword and/or explicit
// row/col tokens, or flips a split window to a new direction. When both a
// position and row/col are given, the position is applied first and the
// explicit coordinates override it.
type RepositionOpts struct {
	Position  string
	Row       string
	Col       string
	Direction string
}

// Resize changes a visible surface's dimensions. Hidden surfaces are a
// no-op, not an error.
func (r *Registry) Resize(name string, opts ResizeOpts) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	s := r.byName[name]
	if s == nil {
		return fmt.Errorf("resize %q: %w", name, ErrNotFound)
	}
	if s.window.Zero() {
		return nil
	}
	if !r.windows.Valid(s.window) {
		r.clearWindow(s)
		return nil
	}

	switch s.mode {
	case ModeFloat:
		screenW, screenH, err := r.windows.ScreenSize()
		if err != nil {
			return fmt.Errorf("resize %q: screen size: %w", name, err)
		}
		rect, err := r.windows.Rect(s.window)
		if err != nil {
			return fmt.Errorf("resize %q: %w", name, err)
		}
		if opts.Width != "" {
			w, err := unit.Parse(opts.Width, screenW, rect.Width)
			if err != nil {
				return fmt.Errorf("resize %q: width: %w", name, err)
			}
			rect.Width = w
		}
		if opts.Height != "" {
			h, err := unit.Parse(opts.Height, screenH, rect.Height)
			if err != nil {
				return fmt.Errorf("resize %q: height: %w", name, err)
			}
			rect.Height = h
		}
		rect = geometry.ClampToScreen(rect, screenW, screenH)
		if err := r.windows.SetRect(s.window, rect); err != nil {
			return fmt.Errorf("resize %q: %w", name, err)
		}

	case ModeSplit:
		// Splits have no combined rect update; each dimension goes through
		// its own host setter.
		screenW, screenH, err := r.windows.ScreenSize()
		if err != nil {
			return fmt.Errorf("resize %q: screen size: %w", name, err)
		}
		rect, err := r.windows.Rect(s.window)
		if err != nil {
			return fmt.Errorf("resize %q: %w", name, err)
		}
		if opts.Width != "" {
			w, err := unit.Parse(opts.Width, screenW, rect.Width)
			if err != nil {
				return fmt.Errorf("resize %q: width: %w", name, err)
			}
			if err := r.windows.SetSplitWidth(s.window, w); err != nil {
				return fmt.Errorf("resize %q: %w", name, err)
			}
		}
		if opts.Height != "" {
			h, err := unit.Parse(opts.Height, screenH, rect.Height)
			if err != nil {
				return fmt.Errorf("resize %q: height: %w", name, err)
			}
			if err := r.windows.SetSplitHeight(s.window, h); err != nil {
				return fmt.Errorf("resize %q: %w", name, err)
			}
		}

	case ModeTab:
		// Tabs fill the screen; nothing to resize.
	}
	return nil
}

// Reposition moves a visible surface. Hidden surfaces are a no-op. A split
// direction change has no in-place form: the window is destroyed and
// recreated in the new direction with the same content binding.
func (r *Registry) Reposition(name string, opts RepositionOpts) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	s := r.byName[name]
	if s == nil {
		return fmt.Errorf("reposition %q: %w", name, ErrNotFound)
	}
	if s.window.Zero() {
		return nil
	}
	if !r.windows.Valid(s.window) {
		r.clearWindow(s)
		return nil
	}

	switch s.mode {
	case ModeFloat:
		screenW, screenH, err := r.windows.ScreenSize()
		if err != nil {
			return fmt.Errorf("reposition %q: screen size: %w", name, err)
		}
		rect, err := r.windows.Rect(s.window)
		if err != nil {
			return fmt.Errorf("reposition %q: %w", name, err)
		}

		if opts.Position != "" {
			if !geometry.KnownPosition(opts.Position) {
				return fmt.Errorf("reposition %q: %w: unknown position %q", name, ErrConfiguration, opts.Position)
			}
			margin := s.lastConfig.Float.Margin
			if margin == "" {
				margin = "0"
			}
			// Re-anchor using the window's current size as the basis;
			// only the resulting row/col is applied.
			placed, err := geometry.ComputeFloating(geometry.FloatSpec{
				Position: opts.Position,
				Width:    strconv.Itoa(rect.Width),
				Height:   strconv.Itoa(rect.Height),
				Margin:   margin,
			}, screenW, screenH)
			if err != nil {
				return fmt.Errorf("reposition %q: %w", name, err)
			}
			rect.Row, rect.Col = placed.Row, placed.Col
			s.lastConfig.Float.Position = opts.Position
		}
		if opts.Row != "" {
			row, err := unit.Parse(opts.Row, screenH, rect.Row)
			if err != nil {
				return fmt.Errorf("reposition %q: row: %w", name, err)
			}
			rect.Row = row
		}
		if opts.Col != "" {
			col, err := unit.Parse(opts.Col, screenW, rect.Col)
			if err != nil {
				return fmt.Errorf("reposition %q: col: %w", name, err)
			}
			rect.Col = col
		}
		rect = geometry.ClampToScreen(rect, screenW, screenH)
		if err := r.windows.SetRect(s.window, rect); err != nil {
			return fmt.Errorf("reposition %q: %w", name, err)
		}

	case ModeSplit:
		if opts.Direction == "" {
			return nil
		}
		if !geometry.KnownDirection(opts.Direction) {
			return fmt.Errorf("reposition %q: %w: unknown split direction %q", name, ErrConfiguration, opts.Direction)
		}
		screenW, screenH, err := r.windows.ScreenSize()
		if err != nil {
			return fmt.Errorf("reposition %q: screen size: %w", name, err)
		}
		size := s.lastConfig.Split.Size
		if size == "" {
			size = "50%"
		}
		split, err := geometry.ComputeSplit(opts.Direction, size, screenW, screenH)
		if err != nil {
			return fmt.Errorf("reposition %q: %w", name, err)
		}
		if err := r.windows.CloseWindow(s.window); err != nil {
			return fmt.Errorf("reposition %q: close: %w", name, err)
		}
		r.clearWindow(s)
		win, err := r.windows.OpenSplit(s.content, opts.Direction, split.Size)
		if err != nil {
			// The old window is gone; the surface is now hidden with its
			// content intact, same as after a host-side close.
			return fmt.Errorf("reposition %q: reopen split: %w", name, err)
		}
		r.setWindow(s, win)
		s.lastConfig.Split.Direction = opts.Direction

	case ModeTab:
		// Tabs have no position.
	}
	return nil
}
