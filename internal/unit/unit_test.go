package unit_test

import (
	"errors"
	"testing"

	"github.com/Gaurav-Gosain/surf/internal/unit"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name    string
		token   string
		base    int
		current int
		want    int
	}{
		{"percentage", "50%", 100, unit.NoCurrent, 50},
		{"percentage floors", "33%", 100, unit.NoCurrent, 33},
		{"percentage of odd base", "50%", 81, unit.NoCurrent, 40},
		{"relative percentage", "+10%", 100, 50, 55},
		{"relative percentage floors", "+10%", 120, 96, 105},
		{"relative offset", "+10", 100, 50, 60},
		{"absolute", "30", 100, 50, 30},
		{"absolute ignores current", "30", 100, unit.NoCurrent, 30},
		{"relative percentage without current uses base", "+10%", 100, unit.NoCurrent, 110},
		{"relative offset without current uses base", "+5", 40, unit.NoCurrent, 45},
		{"zero percent", "0%", 100, unit.NoCurrent, 0},
		{"whitespace trimmed", " 50% ", 100, unit.NoCurrent, 50},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := unit.Parse(tc.token, tc.base, tc.current)
			if err != nil {
				t.Fatalf("Parse(%q, %d, %d) returned error: %v", tc.token, tc.base, tc.current, err)
			}
			if got != tc.want {
				t.Errorf("Parse(%q, %d, %d) = %d, want %d", tc.token, tc.base, tc.current, got, tc.want)
			}
		})
	}
}

func TestParse_InvalidTokens(t *testing.T) {
	invalid := []string{
		"",
		"abc",
		"%",
		"+%",
		"+",
		"10%%",
		"+-5",
		"5x%",
		"+5.5",
	}

	for _, token := range invalid {
		t.Run(token, func(t *testing.T) {
			_, err := unit.Parse(token, 100, 50)
			if err == nil {
				t.Fatalf("Parse(%q) expected error, got nil", token)
			}
			if !errors.Is(err, unit.ErrInvalidToken) {
				t.Errorf("Parse(%q) error = %v, want ErrInvalidToken", token, err)
			}
		})
	}
}

func TestParse_NegativeAbsolute(t *testing.T) {
	// Plain numbers may be negative; clamping is the caller's job.
	got, err := unit.Parse("-5", 100, unit.NoCurrent)
	if err != nil {
		t.Fatalf("Parse(-5) returned error: %v", err)
	}
	if got != -5 {
		t.Errorf("Parse(-5) = %d, want -5", got)
	}
}
