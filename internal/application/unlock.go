package application

import "github.com/ericfisherdev/wpass/internal/domain/model"

// DefaultUnlockPattern is the gesture shipped on the original hardware:
// left once, then middle twice.
func DefaultUnlockPattern() []model.UnlockStep {
	return []model.UnlockStep{
		{Button: model.ButtonLeft, Presses: 1},
		{Button: model.ButtonMiddle, Presses: 2},
	}
}

// UnlockGesture recognises a sequential multi-button press pattern. Each step
// expects exactly one button; any press of a different button, even in the
// same tick as the expected one, restarts the pattern from the first step.
type UnlockGesture struct {
	pattern  []model.UnlockStep
	step     int
	count    int
	unlocked bool
}

// NewUnlockGesture creates a recogniser for pattern. An empty pattern starts
// unlocked.
func NewUnlockGesture(pattern []model.UnlockStep) *UnlockGesture {
	return &UnlockGesture{
		pattern:  append([]model.UnlockStep(nil), pattern...),
		unlocked: len(pattern) == 0,
	}
}

// Observe applies the press edges of one tick and reports whether the
// gesture is now unlocked. Once unlocked, further input is ignored.
func (g *UnlockGesture) Observe(pressed model.ButtonSet) bool {
	if g.unlocked || pressed.Empty() {
		return g.unlocked
	}

	expected := g.pattern[g.step]
	if !pressed.Without(expected.Button).Empty() {
		g.step = 0
		g.count = 0
		return false
	}

	g.count++
	if g.count < expected.Presses {
		return false
	}

	g.count = 0
	g.step++
	if g.step >= len(g.pattern) {
		g.step = 0
		g.unlocked = true
	}
	return g.unlocked
}

// Unlocked reports whether the full pattern has been entered.
func (g *UnlockGesture) Unlocked() bool { return g.unlocked }

// Progress returns the current step index and the presses counted toward it.
func (g *UnlockGesture) Progress() (step, count int) { return g.step, g.count }
