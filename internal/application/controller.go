package application

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"slices"

	"github.com/ericfisherdev/wpass/internal/domain/model"
	"github.com/ericfisherdev/wpass/internal/domain/port/driven"
	"github.com/ericfisherdev/wpass/internal/protocol"
)

// Buttons groups the three debounced inputs the controller reads.
type Buttons struct {
	Left   *Debouncer
	Middle *Debouncer
	Right  *Debouncer
}

// Controller is the single coordination point of the device. It owns the
// credential store and the selection cursor, applies host commands, reacts
// to button input, and tells the display what to show.
type Controller struct {
	store   *CredentialStore
	channel *CommandChannel
	display driven.Display
	emitter driven.TextEmitter
	buttons Buttons
	logger  *slog.Logger

	cursor  int
	unsaved bool
	asleep  bool
	locked  bool
}

// NewController wires the controller to its collaborators and registers
// itself as the channel's line and connect handler. The controller starts
// in the locked state; call Unlock once the unlock gesture completes.
func NewController(
	store *CredentialStore,
	channel *CommandChannel,
	display driven.Display,
	emitter driven.TextEmitter,
	buttons Buttons,
	logger *slog.Logger,
) *Controller {
	if logger == nil {
		logger = slog.Default()
	}
	c := &Controller{
		store:   store,
		channel: channel,
		display: display,
		emitter: emitter,
		buttons: buttons,
		logger:  logger,
		locked:  true,
	}
	channel.SetHandlers(c.HandleLine, c.HandleConnected)
	return c
}

// Cursor returns the selected position. It is meaningless when the store is
// empty.
func (c *Controller) Cursor() int { return c.cursor }

// Unsaved reports whether the store changed since the last save.
func (c *Controller) Unsaved() bool { return c.unsaved }

// Asleep reports whether the device is in its sleep state.
func (c *Controller) Asleep() bool { return c.asleep }

// Locked reports whether the controller is still waiting for the unlock
// gesture.
func (c *Controller) Locked() bool { return c.locked }

// Store exposes the credential store for read access.
func (c *Controller) Store() *CredentialStore { return c.store }

// Unlock leaves the locked state and draws the first credential frame.
func (c *Controller) Unlock() {
	if !c.locked {
		return
	}
	c.locked = false
	c.logger.Info("device unlocked", "credentials", c.store.Len())
	c.Refresh()
}

// Screen describes the current frame.
func (c *Controller) Screen() model.Screen {
	if c.locked {
		return model.Screen{Locked: true, Asleep: c.asleep}
	}
	s := model.Screen{
		Total:   c.store.Len(),
		Unsaved: c.unsaved,
		Asleep:  c.asleep,
		Name:    model.NoAccountsLabel,
	}
	if cred, err := c.store.Get(c.cursor); err == nil {
		s.Selected = c.cursor
		s.Name = cred.Name
	}
	return s
}

// Refresh pushes the current frame to the display.
func (c *Controller) Refresh() {
	c.display.Refresh(c.Screen())
}

// HandleConnected sends the full credential list to a newly attached host.
func (c *Controller) HandleConnected() {
	if err := c.channel.WriteLine(c.store.Snapshot()); err != nil {
		c.logger.Error("failed to send credentials to host", "error", err)
	}
}

// HandleLine decodes one line received from the host and applies it.
// Unknown and malformed commands are logged and ignored.
func (c *Controller) HandleLine(ctx context.Context, raw json.RawMessage) {
	cmd, err := protocol.Decode(raw)
	if err != nil {
		if errors.Is(err, protocol.ErrMissingDataType) || errors.Is(err, protocol.ErrUnknownDataType) {
			c.logger.Debug("ignoring unrecognized command", "error", err)
		} else {
			c.logger.Warn("ignoring malformed command", "error", err)
		}
		return
	}

	if err := c.Apply(ctx, cmd); err != nil {
		c.logger.Warn("command rejected", "kind", cmd.Kind().String(), "error", err)
	}
}

// Apply executes one command against the store. On success the unsaved flag
// is updated and the display refreshed. A command that addresses a position
// outside the store is rejected without touching the store.
func (c *Controller) Apply(ctx context.Context, cmd model.Command) error {
	switch cmd := cmd.(type) {
	case model.AddAccount:
		c.store.Append(cmd.Account)
		c.unsaved = true

	case model.RemoveAccounts:
		if !c.removeAccounts(cmd.Indexes) {
			return fmt.Errorf("%s: %w: %v", cmd.Kind(), ErrIndexOutOfRange, cmd.Indexes)
		}
		c.unsaved = true

	case model.EditAccount:
		if err := c.store.Replace(cmd.Index, cmd.Account); err != nil {
			return fmt.Errorf("%s: %w", cmd.Kind(), err)
		}
		c.unsaved = true

	case model.SwapAccounts:
		if err := c.store.Swap(cmd.FromIndex, cmd.ToIndex); err != nil {
			return fmt.Errorf("%s: %w", cmd.Kind(), err)
		}
		c.unsaved = true

	case model.SaveAccounts:
		c.store.Save(ctx)
		c.unsaved = false

	default:
		return fmt.Errorf("unsupported command %T", cmd)
	}

	c.logger.Debug("command applied", "kind", cmd.Kind().String(), "credentials", c.store.Len(), "cursor", c.cursor)
	if !c.locked {
		c.Refresh()
	}
	return nil
}

// removeAccounts deletes the given positions highest first so earlier
// removals never shift a later target, reconciling the cursor after each
// one. Duplicates are removed once and out-of-range positions are skipped.
// It reports whether anything was removed.
func (c *Controller) removeAccounts(indexes []int) bool {
	targets := slices.Clone(indexes)
	slices.Sort(targets)
	targets = slices.Compact(targets)
	slices.Reverse(targets)

	removed := 0
	for _, r := range targets {
		if _, err := c.store.Remove(r); err != nil {
			c.logger.Warn("skipping remove", "error", err)
			continue
		}
		removed++

		n := c.store.Len()
		switch {
		case c.cursor >= n:
			c.cursor = max(0, n-1)
		case r <= c.cursor:
			c.cursor = max(0, c.cursor-1)
		}
	}
	return removed > 0
}

// Select moves the cursor to index.
func (c *Controller) Select(index int) error {
	n := c.store.Len()
	if n == 0 {
		return ErrNoCredentials
	}
	if index < 0 || index >= n {
		return fmt.Errorf("%w: %d (0 to %d)", ErrIndexOutOfRange, index, n-1)
	}
	c.cursor = index
	c.Refresh()
	return nil
}

// SelectNext moves the cursor one position right, wrapping to the start.
func (c *Controller) SelectNext() error {
	return c.step(1)
}

// SelectPrevious moves the cursor one position left, wrapping to the end.
func (c *Controller) SelectPrevious() error {
	return c.step(-1)
}

func (c *Controller) step(delta int) error {
	n := c.store.Len()
	if n == 0 {
		return ErrNoCredentials
	}
	return c.Select(((c.cursor+delta)%n + n) % n)
}

// Current returns the selected credential.
func (c *Controller) Current() (model.Credential, error) {
	if c.store.Len() == 0 {
		return model.Credential{}, ErrNoCredentials
	}
	return c.store.Get(c.cursor)
}

// ToggleSleep switches between the sleep and awake states.
func (c *Controller) ToggleSleep() {
	c.asleep = !c.asleep
	if c.asleep {
		c.display.Sleep()
		c.logger.Info("device sleeping")
		return
	}
	c.display.Wake()
	c.logger.Info("device awake")
	c.Refresh()
}

// HandleInput runs the input step for the current tick. The debouncers must
// already have been polled.
func (c *Controller) HandleInput(ctx context.Context) {
	if c.buttons.Middle.LongPress() {
		c.ToggleSleep()
	}
	if c.asleep {
		c.buttons.Middle.ResetShortCount()
		return
	}

	if c.store.Len() == 0 {
		c.buttons.Middle.ResetShortCount()
		return
	}

	if c.buttons.Left.PressedEdge() {
		_ = c.SelectPrevious()
	}
	if c.buttons.Right.PressedEdge() {
		_ = c.SelectNext()
	}

	switch c.buttons.Middle.TakeShortCount() {
	case 1:
		c.emit(ctx, "login id", func(cred model.Credential) string { return cred.LoginID })
	case 2:
		c.emit(ctx, "password", func(cred model.Credential) string { return cred.Password })
	}
}

func (c *Controller) emit(ctx context.Context, field string, pick func(model.Credential) string) {
	cred, err := c.Current()
	if err != nil {
		c.logger.Warn("nothing to emit", "field", field, "error", err)
		return
	}
	if err := c.emitter.EmitText(ctx, pick(cred)); err != nil {
		c.logger.Error("failed to emit text", "field", field, "error", err)
		return
	}
	c.logger.Info("emitted credential field", "field", field, "index", c.cursor)
}
