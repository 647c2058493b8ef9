// Package unit parses size and position tokens into concrete cell values.
// A token is either an absolute number ("30"), a percentage of a base
// dimension ("50%"), or a relative delta against a current value ("+10%",
// "+10"). Parsing is pure: no I/O, no side effects.
package unit

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// NoCurrent marks the current value as unknown. Relative tokens fall back to
// the base dimension when no current value is available.
const NoCurrent = -1

// ErrInvalidToken is returned when a token is not a valid unit spec.
var ErrInvalidToken = errors.New("invalid unit token")

// Parse resolves token against a base dimension and an optional current
// value (pass NoCurrent when there is none).
//
//	"50%"  -> floor(base * 50 / 100)
//	"+10%" -> current + floor(current * 10 / 100)
//	"+10"  -> current + 10
//	"30"   -> 30
func Parse(token string, base, current int) (int, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return 0, fmt.Errorf("%w: empty token", ErrInvalidToken)
	}

	switch {
	case strings.HasPrefix(token, "+") && strings.HasSuffix(token, "%"):
		n, err := parseDigits(token[1 : len(token)-1])
		if err != nil {
			return 0, fmt.Errorf("%w: %q", ErrInvalidToken, token)
		}
		ref := current
		if ref == NoCurrent {
			// Documented fallback: a relative token without a current
			// value grows from the base dimension instead.
			ref = base
		}
		return ref + ref*n/100, nil

	case strings.HasSuffix(token, "%"):
		n, err := parseDigits(token[:len(token)-1])
		if err != nil {
			return 0, fmt.Errorf("%w: %q", ErrInvalidToken, token)
		}
		return base * n / 100, nil

	case strings.HasPrefix(token, "+"):
		n, err := parseDigits(token[1:])
		if err != nil {
			return 0, fmt.Errorf("%w: %q", ErrInvalidToken, token)
		}
		ref := current
		if ref == NoCurrent {
			ref = base
		}
		return ref + n, nil

	default:
		n, err := strconv.Atoi(token)
		if err != nil {
			return 0, fmt.Errorf("%w: %q", ErrInvalidToken, token)
		}
		return n, nil
	}
}

// parseDigits parses a non-negative integer with no sign or suffix.
func parseDigits(s string) (int, error) {
	if s == "" {
		return 0, strconv.ErrSyntax
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return 0, strconv.ErrSyntax
		}
	}
	return strconv.Atoi(s)
}
