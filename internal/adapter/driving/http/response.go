package httphandler

import (
	"encoding/json"
	"net/http"

	"github.com/ericfisherdev/wpass/internal/domain/model"
)

// writeJSON marshals v to JSON and writes it to the response with the given
// status code. If marshaling fails, a 500 error is written instead.
func writeJSON(w http.ResponseWriter, status int, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":"internal server error"}`))
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write(data)
}

// writeError writes a JSON error response with the given status code and message.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}

// errorResponse is the standard error response body.
type errorResponse struct {
	Error string `json:"error"`
}

const (
	healthOK      = "ok"
	healthStalled = "stalled"
)

// HealthResponse is the JSON representation of the health check endpoint.
// Status is "ok" while the device loop ticks and "stalled" otherwise.
type HealthResponse struct {
	Status       string `json:"status"`
	Time         string `json:"time"`
	LastTick     string `json:"last_tick,omitempty"`
	Locked       bool   `json:"locked"`
	Asleep       bool   `json:"asleep"`
	HostAttached bool   `json:"host_attached"`
	Session      string `json:"session,omitempty"`
}

// ScreenResponse describes what the device display currently shows.
type ScreenResponse struct {
	Locked   bool     `json:"locked"`
	Asleep   bool     `json:"asleep"`
	Selected int      `json:"selected"`
	Total    int      `json:"total"`
	Name     string   `json:"name"`
	Unsaved  bool     `json:"unsaved"`
	Lines    []string `json:"lines"`
}

// PressRequest is the optional JSON body for the press endpoint.
type PressRequest struct {
	HoldMS int `json:"hold_ms"`
}

// ButtonResponse acknowledges a simulated button action.
type ButtonResponse struct {
	Button string `json:"button"`
	Action string `json:"action"`
	HoldMS int    `json:"hold_ms,omitempty"`
}

// toScreenResponse converts a frame and its rendered text to the response
// representation. Lines is never null.
func toScreenResponse(s model.Screen, lines []string) ScreenResponse {
	if lines == nil {
		lines = []string{}
	}
	return ScreenResponse{
		Locked:   s.Locked,
		Asleep:   s.Asleep,
		Selected: s.Selected,
		Total:    s.Total,
		Name:     s.Name,
		Unsaved:  s.Unsaved,
		Lines:    lines,
	}
}
