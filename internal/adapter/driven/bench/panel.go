// Package bench simulates the three device buttons. Presses arrive from the
// bench HTTP API on request goroutines and are sampled as raw pin levels by
// the device loop.
package bench

import (
	"fmt"
	"sync"
	"time"

	"github.com/ericfisherdev/wpass/internal/domain/model"
	"github.com/ericfisherdev/wpass/internal/domain/port/driven"
)

const (
	// DefaultHold is used for a press with no hold time. It comfortably
	// exceeds the debounce interval.
	DefaultHold = 100 * time.Millisecond

	// MaxHold bounds a single timed press.
	MaxHold = 10 * time.Second
)

type buttonState struct {
	held         bool
	pressedUntil time.Time
}

// Panel holds the simulated state of every button.
type Panel struct {
	activeLow bool
	now       func() time.Time

	mu     sync.Mutex
	states [len(model.Buttons)]buttonState
}

// NewPanel creates a panel with every button released. activeLow selects
// pull-up wiring, where a pressed button reads low. now supplies the clock;
// nil means time.Now.
func NewPanel(activeLow bool, now func() time.Time) *Panel {
	if now == nil {
		now = time.Now
	}
	return &Panel{activeLow: activeLow, now: now}
}

// Press holds button down for hold, then releases it. hold <= 0 selects
// DefaultHold.
func (p *Panel) Press(button model.Button, hold time.Duration) error {
	if hold <= 0 {
		hold = DefaultHold
	}
	if hold > MaxHold {
		return fmt.Errorf("hold %s exceeds %s", hold, MaxHold)
	}
	return p.update(button, func(s *buttonState) {
		s.pressedUntil = p.now().Add(hold)
	})
}

// Down holds button until Up is called.
func (p *Panel) Down(button model.Button) error {
	return p.update(button, func(s *buttonState) { s.held = true })
}

// Up releases button, cancelling any timed press.
func (p *Panel) Up(button model.Button) error {
	return p.update(button, func(s *buttonState) {
		s.held = false
		s.pressedUntil = time.Time{}
	})
}

// Pressed reports whether button is currently down.
func (p *Panel) Pressed(button model.Button) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !button.Valid() {
		return false
	}
	return p.pressedLocked(button)
}

// Pin returns the raw input pin for button.
func (p *Panel) Pin(button model.Button) driven.Pin {
	return pin{panel: p, button: button}
}

func (p *Panel) update(button model.Button, fn func(*buttonState)) error {
	if !button.Valid() {
		return fmt.Errorf("%w: %d", model.ErrUnknownButton, int(button))
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	fn(&p.states[button])
	return nil
}

func (p *Panel) pressedLocked(button model.Button) bool {
	s := p.states[button]
	return s.held || p.now().Before(s.pressedUntil)
}

type pin struct {
	panel  *Panel
	button model.Button
}

// Level returns the electrical level: with active-low wiring a pressed
// button reads false.
func (p pin) Level() bool {
	return p.panel.Pressed(p.button) != p.panel.activeLow
}
