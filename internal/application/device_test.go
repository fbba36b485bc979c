package application_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ericfisherdev/wpass/internal/application"
	"github.com/ericfisherdev/wpass/internal/domain/model"
)

type deviceRig struct {
	clock   *fakeClock
	backend *fakeBackend
	link    *fakeLink
	display *fakeDisplay
	emitter *fakeEmitter
	left    *fakePin
	middle  *fakePin
	right   *fakePin
	ctrl    *application.Controller
	device  *application.Device
}

func newDeviceRig(t *testing.T, pattern []model.UnlockStep, credNames ...string) *deviceRig {
	t.Helper()

	r := &deviceRig{
		clock:   newFakeClock(),
		backend: &fakeBackend{creds: creds(credNames...)},
		link:    &fakeLink{},
		display: &fakeDisplay{},
		emitter: &fakeEmitter{},
		left:    &fakePin{},
		middle:  &fakePin{},
		right:   &fakePin{},
	}
	cfg := testDebounceConfig()
	buttons := application.Buttons{
		Left:   application.NewDebouncer(cfg, r.clock.Now),
		Middle: application.NewDebouncer(cfg, r.clock.Now),
		Right:  application.NewDebouncer(cfg, r.clock.Now),
	}

	store := application.LoadCredentialStore(context.Background(), r.backend, discardLogger())
	channel := application.NewCommandChannel(r.link, nil, nil, discardLogger())
	r.ctrl = application.NewController(store, channel, r.display, r.emitter, buttons, discardLogger())
	r.device = application.NewDevice(
		r.ctrl, channel, r.display,
		application.NewUnlockGesture(pattern),
		application.Pins{Left: r.left, Middle: r.middle, Right: r.right},
		buttons, 0, discardLogger(),
	)
	return r
}

// newUnlockedRig returns a rig whose device unlocks on its first tick.
func newUnlockedRig(t *testing.T, credNames ...string) *deviceRig {
	t.Helper()
	r := newDeviceRig(t, nil, credNames...)
	r.tick(1)
	require.False(t, r.ctrl.Locked())
	return r
}

func (r *deviceRig) tick(n int) {
	for range n {
		r.clock.Advance(pollStep)
		r.device.Tick(context.Background())
	}
}

// press holds pin for five ticks and releases it for five. The release is
// accepted on the third low tick.
func (r *deviceRig) press(pin *fakePin) {
	pin.level = true
	r.tick(5)
	pin.level = false
	r.tick(5)
}

// settle idles long enough for any short-press sequence to complete.
func (r *deviceRig) settle() {
	r.tick(20)
}

func (r *deviceRig) hold(pin *fakePin, d time.Duration) {
	pin.level = true
	r.tick(int(d / pollStep))
	pin.level = false
	r.tick(5)
}

func TestDevice_MiddleSinglePressEmitsLoginID(t *testing.T) {
	r := newUnlockedRig(t, "A", "B")

	r.press(r.middle)
	assert.Empty(t, r.emitter.texts, "sequence not settled yet")
	r.settle()

	assert.Equal(t, []string{"A-id"}, r.emitter.texts)
}

func TestDevice_MiddleDoublePressEmitsPassword(t *testing.T) {
	r := newUnlockedRig(t, "A", "B")

	r.press(r.middle)
	r.press(r.middle)
	r.settle()

	assert.Equal(t, []string{"A-pw"}, r.emitter.texts)
}

func TestDevice_TriplePressEmitsNothing(t *testing.T) {
	r := newUnlockedRig(t, "A")

	r.press(r.middle)
	r.press(r.middle)
	r.press(r.middle)
	r.settle()

	assert.Empty(t, r.emitter.texts)
}

func TestDevice_LeftAndRightWrap(t *testing.T) {
	r := newUnlockedRig(t, "A", "B", "C")

	r.press(r.left)
	assert.Equal(t, 2, r.ctrl.Cursor())
	assert.Equal(t, "C", r.display.last().Name)

	r.press(r.right)
	assert.Equal(t, 0, r.ctrl.Cursor())

	r.press(r.right)
	r.settle()
	r.press(r.middle)
	r.settle()
	assert.Equal(t, []string{"B-id"}, r.emitter.texts)
}

func TestDevice_LongPressTogglesSleep(t *testing.T) {
	r := newUnlockedRig(t, "A", "B")

	r.hold(r.middle, 600*time.Millisecond)
	r.settle()
	require.True(t, r.ctrl.Asleep())
	assert.Equal(t, 1, r.display.sleeps)
	assert.Empty(t, r.emitter.texts, "a long press is never a short press")

	r.press(r.right)
	r.press(r.middle)
	r.settle()
	assert.Equal(t, 0, r.ctrl.Cursor(), "navigation ignored while asleep")
	assert.Empty(t, r.emitter.texts, "emission ignored while asleep")

	r.hold(r.middle, 600*time.Millisecond)
	r.settle()
	assert.False(t, r.ctrl.Asleep())
	assert.Equal(t, 1, r.display.wakes)
	assert.Empty(t, r.emitter.texts)
}

func TestDevice_EmptyStoreIgnoresInput(t *testing.T) {
	r := newUnlockedRig(t)

	r.press(r.right)
	r.press(r.middle)
	r.settle()

	assert.Empty(t, r.emitter.texts)
	assert.Equal(t, model.NoAccountsLabel, r.display.last().Name)
}

func TestDevice_CommandAppliedBeforeInputInSameTick(t *testing.T) {
	r := newUnlockedRig(t, "A", "B", "C")
	r.link.attach("host-1")

	r.press(r.middle)
	// The release was accepted two ticks ago; the sequence settles 15 ticks
	// after the release.
	r.tick(12)
	require.Empty(t, r.emitter.texts)

	r.link.send(`{"DataType":1,"Indexes":[0]}` + "\n")
	r.tick(1)

	assert.Equal(t, []string{"B", "C"}, names(r.ctrl.Store().Snapshot()))
	assert.Equal(t, []string{"B-id"}, r.emitter.texts)
}

func TestDevice_UpdatesDisplayEveryTick(t *testing.T) {
	r := newDeviceRig(t, []model.UnlockStep{{Button: model.ButtonLeft, Presses: 1}})

	r.tick(7)

	assert.Equal(t, 7, r.display.updates)
}

func TestDevice_LockedDeviceIsInert(t *testing.T) {
	r := newDeviceRig(t, application.DefaultUnlockPattern(), "A", "B")
	r.link.attach("host-1")
	r.link.send(`{"DataType":0,"Account":{"Name":"C"}}` + "\n")

	r.press(r.right)
	r.press(r.middle)
	r.settle()

	assert.True(t, r.ctrl.Locked())
	assert.Empty(t, r.link.lines(), "host is not served while locked")
	assert.Equal(t, 2, r.ctrl.Store().Len())
	assert.Empty(t, r.emitter.texts)
	assert.Equal(t, 0, r.ctrl.Cursor())
	for _, s := range r.display.screens {
		assert.True(t, s.Locked)
	}
}

func TestDevice_UnlockGestureOpensDevice(t *testing.T) {
	r := newDeviceRig(t, application.DefaultUnlockPattern(), "A", "B")
	r.link.attach("host-1")
	r.link.send(`{"DataType":0,"Account":{"Name":"C"}}` + "\n")

	r.press(r.left)
	r.press(r.middle)
	require.True(t, r.ctrl.Locked())

	r.press(r.middle)
	require.False(t, r.ctrl.Locked())
	r.settle()

	assert.Empty(t, r.emitter.texts, "gesture presses are not emitted")
	assert.Equal(t, []string{"A", "B", "C"}, names(r.ctrl.Store().Snapshot()))

	lines := r.link.lines()
	require.Len(t, lines, 1)
	assert.JSONEq(t,
		`[{"Name":"A","LoginId":"A-id","Password":"A-pw"},{"Name":"B","LoginId":"B-id","Password":"B-pw"}]`,
		lines[0], "snapshot is sent before queued commands apply")

	r.press(r.middle)
	r.settle()
	assert.Equal(t, []string{"A-id"}, r.emitter.texts)
}

func TestDevice_WrongButtonRestartsGesture(t *testing.T) {
	r := newDeviceRig(t, application.DefaultUnlockPattern(), "A")

	r.press(r.left)
	r.press(r.middle)
	r.press(r.right)
	r.press(r.middle)
	r.press(r.middle)
	assert.True(t, r.ctrl.Locked())

	r.press(r.left)
	r.press(r.middle)
	r.press(r.middle)
	assert.False(t, r.ctrl.Locked())
}

func TestDevice_StartWithEmptyPatternUnlocks(t *testing.T) {
	r := newDeviceRig(t, nil, "A")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	r.device.Start(ctx)

	require.NotEmpty(t, r.display.screens)
	assert.True(t, r.display.screens[0].Locked)
	assert.False(t, r.ctrl.Locked())
	assert.Equal(t, "A", r.display.last().Name)
}
