package application

import (
	"context"
	"log/slog"
	"time"

	"github.com/ericfisherdev/wpass/internal/domain/model"
	"github.com/ericfisherdev/wpass/internal/domain/port/driven"
)

// DefaultTickInterval is the main loop period.
const DefaultTickInterval = 10 * time.Millisecond

// Pins maps each button to its input pin.
type Pins struct {
	Left   driven.Pin
	Middle driven.Pin
	Right  driven.Pin
}

// Device runs the cooperative main loop. One tick polls the display, the
// three buttons, and, once unlocked, the command channel followed by the
// input step. Until the unlock gesture is complete the device is inert: no
// host command is read and no credential is reachable.
type Device struct {
	controller *Controller
	channel    *CommandChannel
	display    driven.Display
	gesture    *UnlockGesture
	pins       Pins
	buttons    Buttons
	interval   time.Duration
	logger     *slog.Logger

	// settling is set while buttons held during the gesture are still down.
	settling bool
}

// NewDevice creates a Device. interval <= 0 selects DefaultTickInterval.
func NewDevice(
	controller *Controller,
	channel *CommandChannel,
	display driven.Display,
	gesture *UnlockGesture,
	pins Pins,
	buttons Buttons,
	interval time.Duration,
	logger *slog.Logger,
) *Device {
	if interval <= 0 {
		interval = DefaultTickInterval
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Device{
		controller: controller,
		channel:    channel,
		display:    display,
		gesture:    gesture,
		pins:       pins,
		buttons:    buttons,
		interval:   interval,
		logger:     logger,
	}
}

// Start shows the lock screen and runs ticks on the configured interval
// until ctx is cancelled.
func (d *Device) Start(ctx context.Context) {
	d.display.Refresh(d.controller.Screen())
	if d.gesture.Unlocked() {
		d.controller.Unlock()
	}
	d.logger.Info("device loop started", "interval", d.interval, "locked", d.controller.Locked())

	ticker := time.NewTicker(d.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			d.logger.Info("device loop stopped")
			return
		case <-ticker.C:
			d.Tick(ctx)
		}
	}
}

// Tick performs one pass over every subsystem.
func (d *Device) Tick(ctx context.Context) {
	if !d.controller.Locked() {
		d.channel.Poll(ctx)
	}
	d.display.Update()

	d.buttons.Left.Poll(d.pins.Left.Level())
	d.buttons.Middle.Poll(d.pins.Middle.Level())
	d.buttons.Right.Poll(d.pins.Right.Level())

	if d.controller.Locked() {
		d.observeGesture()
		return
	}

	if d.settling {
		d.discardShortPresses()
		if d.buttons.Left.Pressed() || d.buttons.Middle.Pressed() || d.buttons.Right.Pressed() {
			return
		}
		d.settling = false
	}

	d.controller.HandleInput(ctx)
}

func (d *Device) discardShortPresses() {
	d.buttons.Left.ResetShortCount()
	d.buttons.Middle.ResetShortCount()
	d.buttons.Right.ResetShortCount()
}

func (d *Device) observeGesture() {
	var pressed model.ButtonSet
	if d.buttons.Left.PressedEdge() {
		pressed = pressed.Add(model.ButtonLeft)
	}
	if d.buttons.Middle.PressedEdge() {
		pressed = pressed.Add(model.ButtonMiddle)
	}
	if d.buttons.Right.PressedEdge() {
		pressed = pressed.Add(model.ButtonRight)
	}

	before, _ := d.gesture.Progress()
	if d.gesture.Observe(pressed) {
		// Presses that formed the gesture must not reach the input step as
		// a short-press sequence once they are released.
		d.discardShortPresses()
		d.settling = true
		d.controller.Unlock()
		return
	}

	if after, count := d.gesture.Progress(); after == 0 && count == 0 && before > 0 {
		d.logger.Debug("unlock pattern reset")
	}
}
