package model

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Button identifies one of the three physical buttons on the device.
type Button int

const (
	ButtonLeft Button = iota
	ButtonMiddle
	ButtonRight
)

// ErrUnknownButton is returned for a button name or value outside the three
// physical buttons.
var ErrUnknownButton = errors.New("unknown button")

// Buttons lists every button in polling order.
var Buttons = [...]Button{ButtonLeft, ButtonMiddle, ButtonRight}

// String returns the lowercase button name.
func (b Button) String() string {
	switch b {
	case ButtonLeft:
		return "left"
	case ButtonMiddle:
		return "middle"
	case ButtonRight:
		return "right"
	default:
		return "unknown"
	}
}

// Valid reports whether b names a physical button.
func (b Button) Valid() bool {
	return b >= ButtonLeft && b <= ButtonRight
}

// ParseButton converts a button name ("left", "middle", "right") to a Button.
func ParseButton(s string) (Button, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "left":
		return ButtonLeft, nil
	case "middle":
		return ButtonMiddle, nil
	case "right":
		return ButtonRight, nil
	default:
		return 0, fmt.Errorf("%w %q", ErrUnknownButton, s)
	}
}

// ButtonSet is the set of buttons that produced a press edge in one tick.
type ButtonSet uint8

// Add returns the set with b included.
func (s ButtonSet) Add(b Button) ButtonSet {
	return s | 1<<uint(b)
}

// Has reports whether b is in the set.
func (s ButtonSet) Has(b Button) bool {
	return s&(1<<uint(b)) != 0
}

// Empty reports whether no button is in the set.
func (s ButtonSet) Empty() bool {
	return s == 0
}

// Without returns the set with b removed.
func (s ButtonSet) Without(b Button) ButtonSet {
	return s &^ (1 << uint(b))
}

// UnlockStep is one step of the unlock pattern: Button must be pressed
// Presses times in a row.
type UnlockStep struct {
	Button  Button
	Presses int
}

// ParseUnlockPattern parses a comma-separated list of button:presses pairs,
// for example "left:1,middle:2".
func ParseUnlockPattern(s string) ([]UnlockStep, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return []UnlockStep{}, nil
	}

	var steps []UnlockStep
	for _, part := range strings.Split(s, ",") {
		name, count, ok := strings.Cut(strings.TrimSpace(part), ":")
		if !ok {
			return nil, fmt.Errorf("unlock step %q: want button:presses", part)
		}
		button, err := ParseButton(name)
		if err != nil {
			return nil, fmt.Errorf("unlock step %q: %w", part, err)
		}
		presses, err := strconv.Atoi(strings.TrimSpace(count))
		if err != nil || presses < 1 {
			return nil, fmt.Errorf("unlock step %q: presses must be a positive integer", part)
		}
		steps = append(steps, UnlockStep{Button: button, Presses: presses})
	}
	return steps, nil
}

// FormatUnlockPattern renders steps in the form accepted by ParseUnlockPattern.
func FormatUnlockPattern(steps []UnlockStep) string {
	parts := make([]string, 0, len(steps))
	for _, step := range steps {
		parts = append(parts, fmt.Sprintf("%s:%d", step.Button, step.Presses))
	}
	return strings.Join(parts, ",")
}
