package application

import "time"

// DebounceConfig tunes a Debouncer.
type DebounceConfig struct {
	// PressedLevel is the raw pin level that means "pressed". Buttons wired
	// to a pull-up read low when pressed.
	PressedLevel bool

	// StableSamples is how many consecutive polls a new level must hold
	// before it is accepted. Values below 2 are raised to 2 so a single-tick
	// glitch never produces an edge.
	StableSamples int

	// LongPress is the continuous hold after which a long press fires. A long
	// press never also counts as a short press.
	LongPress time.Duration

	// MultiPressWindow is how long after a release the debouncer waits for
	// another press before it considers a short-press sequence complete.
	MultiPressWindow time.Duration
}

// DefaultDebounceConfig returns the settings used by the original hardware:
// active-low buttons, 500ms long press, 150ms multi-press window.
func DefaultDebounceConfig() DebounceConfig {
	return DebounceConfig{
		PressedLevel:     false,
		StableSamples:    3,
		LongPress:        500 * time.Millisecond,
		MultiPressWindow: 150 * time.Millisecond,
	}
}

// Debouncer turns raw samples from one button into logical press events.
// Poll must be called exactly once per tick; every output describes the
// state after the most recent Poll.
type Debouncer struct {
	cfg DebounceConfig
	now func() time.Time

	pressed bool
	streak  int

	pressedEdge  bool
	releasedEdge bool
	longEdge     bool

	pressStart  time.Time
	longFired   bool
	shortCount  int
	lastRelease time.Time
	settled     bool
}

// NewDebouncer creates a Debouncer in the released state. now supplies the
// clock; nil means time.Now.
func NewDebouncer(cfg DebounceConfig, now func() time.Time) *Debouncer {
	if cfg.StableSamples < 2 {
		cfg.StableSamples = 2
	}
	if now == nil {
		now = time.Now
	}
	return &Debouncer{cfg: cfg, now: now}
}

// Poll feeds one raw pin sample.
func (d *Debouncer) Poll(raw bool) {
	now := d.now()
	d.pressedEdge = false
	d.releasedEdge = false
	d.longEdge = false

	logical := raw == d.cfg.PressedLevel
	if logical != d.pressed {
		d.streak++
		if d.streak >= d.cfg.StableSamples {
			d.streak = 0
			d.accept(logical, now)
		}
	} else {
		d.streak = 0
	}

	if d.pressed && !d.longFired && now.Sub(d.pressStart) >= d.cfg.LongPress {
		d.longFired = true
		d.longEdge = true
		d.shortCount = 0
	}

	d.settled = d.shortCount > 0 &&
		!d.pressed &&
		d.streak == 0 &&
		now.Sub(d.lastRelease) >= d.cfg.MultiPressWindow
}

func (d *Debouncer) accept(pressed bool, now time.Time) {
	d.pressed = pressed
	if pressed {
		d.pressedEdge = true
		d.pressStart = now
		d.longFired = false
		return
	}

	d.releasedEdge = true
	if !d.longFired {
		d.shortCount++
		d.lastRelease = now
	}
}

// Pressed reports the debounced level.
func (d *Debouncer) Pressed() bool { return d.pressed }

// PressedEdge reports whether the button became pressed on the last poll.
func (d *Debouncer) PressedEdge() bool { return d.pressedEdge }

// ReleasedEdge reports whether the button was released on the last poll.
func (d *Debouncer) ReleasedEdge() bool { return d.releasedEdge }

// LongPress reports whether the long-press threshold was crossed on the last
// poll. It fires once per hold.
func (d *Debouncer) LongPress() bool { return d.longEdge }

// ShortCount returns the short presses accumulated since the last reset.
func (d *Debouncer) ShortCount() int { return d.shortCount }

// ShortSettled reports whether the pending short-press sequence is complete:
// at least one short press, the button released, and no further press within
// the multi-press window.
func (d *Debouncer) ShortSettled() bool { return d.settled }

// ResetShortCount clears the short-press counter.
func (d *Debouncer) ResetShortCount() {
	d.shortCount = 0
	d.settled = false
}

// TakeShortCount returns and clears the short-press count once the sequence
// has settled. It returns 0 while a sequence is still in progress.
func (d *Debouncer) TakeShortCount() int {
	if !d.settled {
		return 0
	}
	n := d.shortCount
	d.ResetShortCount()
	return n
}
