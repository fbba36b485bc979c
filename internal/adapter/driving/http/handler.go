// Package httphandler serves the bench API: a health check, the current
// display frame, and simulated button presses.
package httphandler

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/ericfisherdev/wpass/internal/domain/model"
)

const maxBodyBytes = 1 << 10

// ButtonPanel accepts simulated button actions.
type ButtonPanel interface {
	Press(button model.Button, hold time.Duration) error
	Down(button model.Button) error
	Up(button model.Button) error
}

// ScreenSource exposes the frame the display is showing and when the device
// loop last ticked it.
type ScreenSource interface {
	Screen() model.Screen
	Lines() []string
	LastUpdate() time.Time
}

// HostLink reports the attached host session, "" when none.
type HostLink interface {
	Session() string
}

// LoopStaleAfter is how long the device loop may go without ticking the
// display before health reports it stalled.
const LoopStaleAfter = 2 * time.Second

// Handler is the HTTP driving adapter that serves the bench API.
type Handler struct {
	panel  ButtonPanel
	screen ScreenSource
	link   HostLink
	logger *slog.Logger
}

// NewHandler creates a Handler with all required dependencies.
func NewHandler(panel ButtonPanel, screen ScreenSource, link HostLink, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		panel:  panel,
		screen: screen,
		link:   link,
		logger: logger,
	}
}

// NewServeMux creates an http.Handler with all routes registered and wrapped
// with logging and recovery middleware.
func NewServeMux(h *Handler, logger *slog.Logger) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /api/v1/health", h.Health)
	mux.HandleFunc("GET /api/v1/screen", h.Screen)
	mux.HandleFunc("POST /api/v1/buttons/{button}/press", h.Press)
	mux.HandleFunc("POST /api/v1/buttons/{button}/down", h.Down)
	mux.HandleFunc("POST /api/v1/buttons/{button}/up", h.Up)

	// Recovery innermost so panics are caught before logging.
	wrapped := recoveryMiddleware(logger, mux)
	wrapped = loggingMiddleware(logger, wrapped)

	return wrapped
}

// Health reports whether the device loop is ticking, along with the lock,
// sleep and host link state. A loop that has not ticked within
// LoopStaleAfter answers 503.
func (h *Handler) Health(w http.ResponseWriter, _ *http.Request) {
	now := time.Now()
	screen := h.screen.Screen()
	session := h.link.Session()
	resp := HealthResponse{
		Status:       healthOK,
		Time:         now.UTC().Format(time.RFC3339),
		Locked:       screen.Locked,
		Asleep:       screen.Asleep,
		HostAttached: session != "",
		Session:      session,
	}

	code := http.StatusOK
	last := h.screen.LastUpdate()
	if !last.IsZero() {
		resp.LastTick = last.UTC().Format(time.RFC3339Nano)
	}
	if last.IsZero() || now.Sub(last) > LoopStaleAfter {
		resp.Status = healthStalled
		code = http.StatusServiceUnavailable
	}
	writeJSON(w, code, resp)
}

// Screen returns the current display frame.
func (h *Handler) Screen(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, toScreenResponse(h.screen.Screen(), h.screen.Lines()))
}

// Press simulates a timed press. The body is optional; hold_ms of 0 selects
// the panel's default hold.
func (h *Handler) Press(w http.ResponseWriter, r *http.Request) {
	button, ok := h.button(w, r)
	if !ok {
		return
	}

	var req PressRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.HoldMS < 0 {
		writeError(w, http.StatusBadRequest, "hold_ms must not be negative")
		return
	}

	if err := h.panel.Press(button, time.Duration(req.HoldMS)*time.Millisecond); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	h.logger.Debug("button pressed", "button", button.String(), "hold_ms", req.HoldMS)
	writeJSON(w, http.StatusAccepted, ButtonResponse{Button: button.String(), Action: "press", HoldMS: req.HoldMS})
}

// Down holds a button until Up.
func (h *Handler) Down(w http.ResponseWriter, r *http.Request) {
	h.hold(w, r, "down", h.panel.Down)
}

// Up releases a button.
func (h *Handler) Up(w http.ResponseWriter, r *http.Request) {
	h.hold(w, r, "up", h.panel.Up)
}

func (h *Handler) hold(w http.ResponseWriter, r *http.Request, action string, fn func(model.Button) error) {
	button, ok := h.button(w, r)
	if !ok {
		return
	}
	if err := fn(button); err != nil {
		h.logger.Error("button action failed", "button", button.String(), "action", action, "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	writeJSON(w, http.StatusAccepted, ButtonResponse{Button: button.String(), Action: action})
}

// button resolves the {button} path segment, writing a 400 on failure.
func (h *Handler) button(w http.ResponseWriter, r *http.Request) (model.Button, bool) {
	button, err := model.ParseButton(r.PathValue("button"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "unknown button: must be left, middle or right")
		return 0, false
	}
	return button, true
}
