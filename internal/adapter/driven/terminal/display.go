// Package terminal renders device frames as text and delivers emitted
// credential fields to a log or a writer. It stands in for the OLED panel
// and the USB keyboard.
package terminal

import (
	"fmt"
	"io"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/fatih/color"

	"github.com/ericfisherdev/wpass/internal/domain/model"
	"github.com/ericfisherdev/wpass/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.Display = (*Display)(nil)

const (
	// MaxNameLength is the number of name characters visible at once. Longer
	// names scroll.
	MaxNameLength = 15

	// ScrollInterval is the time between scroll steps.
	ScrollInterval = 300 * time.Millisecond

	splashText  = "WPass"
	lockedText  = "Locked"
	unsavedText = "[Unsaved Changes]"
	scrollGap   = "   "
)

var (
	titleColor   = color.New(color.FgHiBlack)
	nameColor    = color.New(color.FgCyan, color.Bold)
	unsavedColor = color.New(color.FgYellow)
	lockedColor  = color.New(color.FgRed, color.Bold)
)

// Display draws each distinct frame to a writer.
type Display struct {
	w   io.Writer
	now func() time.Time

	mu         sync.Mutex
	screen     model.Screen
	asleep     bool
	offset     int
	lastScroll time.Time
	lastUpdate time.Time
	lines      []string
}

// NewDisplay creates a display that writes to w and shows the splash text
// until the first Refresh. now supplies the clock; nil means time.Now.
func NewDisplay(w io.Writer, now func() time.Time) *Display {
	if now == nil {
		now = time.Now
	}
	d := &Display{w: w, now: now}
	d.mu.Lock()
	d.drawLocked([]string{"", splashText, ""})
	d.mu.Unlock()
	return d
}

// Refresh replaces the frame and restarts name scrolling.
func (d *Display) Refresh(screen model.Screen) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.screen = screen
	d.offset = 0
	d.lastScroll = d.now()
	d.renderLocked()
}

// Update advances the name marquee.
func (d *Display) Update() {
	d.mu.Lock()
	defer d.mu.Unlock()
	now := d.now()
	d.lastUpdate = now
	if d.asleep || !d.screen.HasCredentials() {
		return
	}
	if len([]rune(d.screen.Name)) <= MaxNameLength {
		return
	}
	if now.Sub(d.lastScroll) < ScrollInterval {
		return
	}
	d.lastScroll = now
	d.offset++
	d.renderLocked()
}

// Sleep blanks the display.
func (d *Display) Sleep() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.asleep = true
	d.lines = nil
	fmt.Fprintln(d.w, titleColor.Sprint("[display off]"))
}

// Wake restores the last frame.
func (d *Display) Wake() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.asleep = false
	d.renderLocked()
}

// Screen returns the frame last passed to Refresh, with the sleep state.
func (d *Display) Screen() model.Screen {
	d.mu.Lock()
	defer d.mu.Unlock()
	s := d.screen
	s.Asleep = d.asleep
	return s
}

// LastUpdate returns when the device loop last called Update, or the zero
// time if it never has.
func (d *Display) LastUpdate() time.Time {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.lastUpdate
}

// Lines returns the text currently visible, top to bottom. A sleeping
// display shows nothing.
func (d *Display) Lines() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]string(nil), d.lines...)
}

func (d *Display) renderLocked() {
	if d.asleep {
		return
	}
	d.drawLocked(frameLines(d.screen, d.offset))
}

func (d *Display) drawLocked(lines []string) {
	if slices.Equal(lines, d.lines) {
		return
	}
	d.lines = lines

	var b strings.Builder
	b.WriteString(titleColor.Sprint("+-------------------------+") + "\n")
	for i, line := range lines {
		b.WriteString(paint(d.screen, i, line) + "\n")
	}
	b.WriteString(titleColor.Sprint("+-------------------------+") + "\n")
	_, _ = io.WriteString(d.w, b.String())
}

// frameLines lays out the three text rows of a frame.
func frameLines(s model.Screen, offset int) []string {
	switch {
	case s.Locked:
		return []string{"", lockedText, ""}
	case !s.HasCredentials():
		return []string{"", model.NoAccountsLabel, unsavedLine(s)}
	}
	header := fmt.Sprintf("Account: %d/%d", s.Selected+1, s.Total)
	name := "< " + visibleName(s.Name, offset) + " >"
	return []string{header, name, unsavedLine(s)}
}

func unsavedLine(s model.Screen) string {
	if s.Unsaved {
		return unsavedText
	}
	return ""
}

// visibleName returns the MaxNameLength-character window of name starting
// at offset, wrapping around with a gap between repetitions.
func visibleName(name string, offset int) string {
	runes := []rune(name)
	if len(runes) <= MaxNameLength {
		return name
	}
	loop := append(runes, []rune(scrollGap)...)
	start := offset % len(loop)
	out := make([]rune, 0, MaxNameLength)
	for i := range MaxNameLength {
		out = append(out, loop[(start+i)%len(loop)])
	}
	return string(out)
}

func paint(s model.Screen, row int, line string) string {
	switch {
	case s.Locked && line == lockedText:
		return lockedColor.Sprint(line)
	case row == 1:
		return nameColor.Sprint(line)
	case line == unsavedText:
		return unsavedColor.Sprint(line)
	default:
		return line
	}
}
