package application_test

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/ericfisherdev/wpass/internal/domain/model"
)

// --- Mock implementations ---

type fakeBackend struct {
	creds    []model.Credential
	readErr  error
	writeErr error
	writes   int
	writeCtx context.Context
}

func (f *fakeBackend) Read(_ context.Context) ([]model.Credential, error) {
	if f.readErr != nil {
		return nil, f.readErr
	}
	return append([]model.Credential(nil), f.creds...), nil
}

func (f *fakeBackend) Write(ctx context.Context, creds []model.Credential) error {
	f.writes++
	f.writeCtx = ctx
	if f.writeErr != nil {
		return f.writeErr
	}
	f.creds = append([]model.Credential(nil), creds...)
	return nil
}

// fakeLink mirrors tcplink: input sent by a host survives its detach and is
// cleared when a different host attaches.
type fakeLink struct {
	session  string
	in       bytes.Buffer
	out      bytes.Buffer
	writeErr error
}

func (l *fakeLink) Connected() bool { return l.session != "" }
func (l *fakeLink) Session() string { return l.session }
func (l *fakeLink) Buffered() int   { return l.in.Len() }

func (l *fakeLink) attach(session string) {
	if session != l.session {
		l.in.Reset()
	}
	l.session = session
}

func (l *fakeLink) detach() { l.session = "" }

func (l *fakeLink) Read(p []byte) (int, error) {
	if l.in.Len() == 0 {
		return 0, nil
	}
	return l.in.Read(p)
}

func (l *fakeLink) Write(p []byte) (int, error) {
	if l.writeErr != nil {
		return 0, l.writeErr
	}
	return l.out.Write(p)
}

func (l *fakeLink) send(s string) { l.in.WriteString(s) }

// lines returns every complete line the device wrote, without terminators.
func (l *fakeLink) lines() []string {
	var out []string
	for _, line := range bytes.Split(l.out.Bytes(), []byte("\n")) {
		if len(line) > 0 {
			out = append(out, string(line))
		}
	}
	return out
}

type fakeDisplay struct {
	screens []model.Screen
	updates int
	sleeps  int
	wakes   int
}

func (d *fakeDisplay) Refresh(s model.Screen) { d.screens = append(d.screens, s) }
func (d *fakeDisplay) Update()                { d.updates++ }
func (d *fakeDisplay) Sleep()                 { d.sleeps++ }
func (d *fakeDisplay) Wake()                  { d.wakes++ }

func (d *fakeDisplay) last() model.Screen {
	if len(d.screens) == 0 {
		return model.Screen{}
	}
	return d.screens[len(d.screens)-1]
}

type fakeEmitter struct {
	texts []string
	err   error
}

func (e *fakeEmitter) EmitText(_ context.Context, text string) error {
	if e.err != nil {
		return e.err
	}
	e.texts = append(e.texts, text)
	return nil
}

// fakePin is a settable raw level. Buttons in tests are active-high.
type fakePin struct {
	level bool
}

func (p *fakePin) Level() bool { return p.level }

// fakeClock advances only when told to.
type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{t: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

// logBuffer captures structured log output for assertions.
type logBuffer struct {
	bytes.Buffer
}

func newTestLogger(w io.Writer) *slog.Logger {
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

var errDiskFull = errors.New("disk full")

func creds(names ...string) []model.Credential {
	out := make([]model.Credential, 0, len(names))
	for _, n := range names {
		out = append(out, model.Credential{Name: n, LoginID: n + "-id", Password: n + "-pw"})
	}
	return out
}

func names(cs []model.Credential) []string {
	out := make([]string, 0, len(cs))
	for _, c := range cs {
		out = append(out, c.Name)
	}
	return out
}
