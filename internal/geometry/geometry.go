// Package geometry computes concrete window placement from declarative
// size and position specs. It resolves floating-overlay rectangles from an
// anchor keyword plus width/height/margin tokens, and split-pane dimensions
// from a direction plus a size token. All results are clamped so a surface
// never exceeds the host screen.
package geometry

import (
	"errors"
	"fmt"

	"github.com/Gaurav-Gosain/surf/internal/unit"
)

// Padding is the number of cells kept free between a floating surface and
// the screen edge on each axis.
const Padding = 2

// Floating anchor keywords. Center centers both axes; the eight compass
// keywords combine a vertical anchor (margin from top, margin from bottom,
// or centered) with a horizontal anchor (margin from left, margin from
// right, or centered).
const (
	Center       = "center"
	TopLeft      = "top-left"
	TopCenter    = "top-center"
	TopRight     = "top-right"
	LeftCenter   = "left-center"
	RightCenter  = "right-center"
	BottomLeft   = "bottom-left"
	BottomCenter = "bottom-center"
	BottomRight  = "bottom-right"
)

// Split direction keywords.
const (
	DirectionTop    = "top"
	DirectionBottom = "bottom"
	DirectionLeft   = "left"
	DirectionRight  = "right"
)

// ErrBadDirection is returned for an unrecognized split direction.
var ErrBadDirection = errors.New("unknown split direction")

// Rect is a fully resolved floating placement in screen cells.
// Row/Col are the top-left corner; both are zero-based.
type Rect struct {
	Row    int
	Col    int
	Width  int
	Height int
}

// FloatSpec describes a floating overlay declaratively. All fields are unit
// tokens; Position is one of the anchor keywords above.
type FloatSpec struct {
	Position string
	Width    string
	Height   string
	Margin   string
}

// Split is the resolved form of a split request: the axis and the absolute
// size of the new pane along that axis.
type Split struct {
	Horizontal bool // true for a stacked (top/bottom) split
	Size       int
}

// KnownPosition reports whether keyword is a recognized floating anchor.
func KnownPosition(keyword string) bool {
	switch keyword {
	case Center, TopLeft, TopCenter, TopRight, LeftCenter, RightCenter,
		BottomLeft, BottomCenter, BottomRight:
		return true
	}
	return false
}

// KnownDirection reports whether keyword is a recognized split direction.
func KnownDirection(keyword string) bool {
	switch keyword {
	case DirectionTop, DirectionBottom, DirectionLeft, DirectionRight:
		return true
	}
	return false
}

// ComputeFloating resolves spec into a rectangle on a screenW x screenH
// screen. Width and height are clamped to the screen dimension minus
// Padding, and the final rect is guaranteed to lie fully on screen.
// An unrecognized anchor keyword falls back to Center; strict validation
// belongs at the config boundary, not here.
func ComputeFloating(spec FloatSpec, screenW, screenH int) (Rect, error) {
	width, err := unit.Parse(spec.Width, screenW, unit.NoCurrent)
	if err != nil {
		return Rect{}, fmt.Errorf("width: %w", err)
	}
	height, err := unit.Parse(spec.Height, screenH, unit.NoCurrent)
	if err != nil {
		return Rect{}, fmt.Errorf("height: %w", err)
	}
	margin, err := unit.Parse(spec.Margin, min(screenW, screenH), unit.NoCurrent)
	if err != nil {
		return Rect{}, fmt.Errorf("margin: %w", err)
	}

	width = clampDim(width, screenW)
	height = clampDim(height, screenH)

	top := margin
	bottom := screenH - height - margin
	vCenter := (screenH - height) / 2
	left := margin
	right := screenW - width - margin
	hCenter := (screenW - width) / 2

	var row, col int
	switch spec.Position {
	case TopLeft:
		row, col = top, left
	case TopCenter:
		row, col = top, hCenter
	case TopRight:
		row, col = top, right
	case LeftCenter:
		row, col = vCenter, left
	case RightCenter:
		row, col = vCenter, right
	case BottomLeft:
		row, col = bottom, left
	case BottomCenter:
		row, col = bottom, hCenter
	case BottomRight:
		row, col = bottom, right
	default: // Center and anything unrecognized
		row, col = vCenter, hCenter
	}

	return ClampToScreen(Rect{Row: row, Col: col, Width: width, Height: height}, screenW, screenH), nil
}

// ComputeSplit resolves a split direction and size token against the screen.
// Top/bottom splits are horizontal (stacked) and sized against the screen
// height; left/right splits are vertical and sized against the width.
func ComputeSplit(direction, size string, screenW, screenH int) (Split, error) {
	var horizontal bool
	var base int
	switch direction {
	case DirectionTop, DirectionBottom:
		horizontal = true
		base = screenH
	case DirectionLeft, DirectionRight:
		horizontal = false
		base = screenW
	default:
		return Split{}, fmt.Errorf("%w: %q", ErrBadDirection, direction)
	}

	n, err := unit.Parse(size, base, unit.NoCurrent)
	if err != nil {
		return Split{}, fmt.Errorf("size: %w", err)
	}
	if n < 1 {
		n = 1
	}
	if n > base-1 {
		n = base - 1
	}
	return Split{Horizontal: horizontal, Size: n}, nil
}

// ClampToScreen shifts and shrinks r as needed so that it lies fully within
// a screenW x screenH screen with non-negative origin.
func ClampToScreen(r Rect, screenW, screenH int) Rect {
	r.Width = clampDim(r.Width, screenW)
	r.Height = clampDim(r.Height, screenH)

	if r.Col+r.Width > screenW {
		r.Col = screenW - r.Width
	}
	if r.Row+r.Height > screenH {
		r.Row = screenH - r.Height
	}
	if r.Col < 0 {
		r.Col = 0
	}
	if r.Row < 0 {
		r.Row = 0
	}
	return r
}

func clampDim(n, screen int) int {
	if n > screen-Padding {
		n = screen - Padding
	}
	if n < 1 {
		n = 1
	}
	return n
}
