package httphandler

import (
	"log/slog"
	"net/http"
	"time"
)

// statusWriter records the status code a handler wrote.
type statusWriter struct {
	http.ResponseWriter
	status int
}

func (sw *statusWriter) WriteHeader(status int) {
	sw.status = status
	sw.ResponseWriter.WriteHeader(status)
}

// requestAttrs describes a bench request. The mux fills in the matched
// route and the {button} value on r, so this is read after serving.
func requestAttrs(r *http.Request) []any {
	attrs := []any{"method", r.Method, "path", r.URL.Path}
	if r.Pattern != "" {
		attrs = append(attrs, "route", r.Pattern)
	}
	if button := r.PathValue("button"); button != "" {
		attrs = append(attrs, "button", button)
	}
	return attrs
}

// loggingMiddleware logs each request. Screen and health polling is logged
// at debug, button actions at info, and failures at warn or error.
func loggingMiddleware(logger *slog.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(sw, r)

		level := slog.LevelInfo
		switch {
		case sw.status >= http.StatusInternalServerError:
			level = slog.LevelError
		case sw.status >= http.StatusBadRequest:
			level = slog.LevelWarn
		case r.Method == http.MethodGet:
			level = slog.LevelDebug
		}
		attrs := append(requestAttrs(r),
			"status", sw.status,
			"duration", time.Since(start).Round(time.Microsecond),
		)
		logger.Log(r.Context(), level, "bench request", attrs...)
	})
}

// recoveryMiddleware answers 500 when a bench handler panics.
func recoveryMiddleware(logger *slog.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if v := recover(); v != nil {
				logger.Error("bench handler panicked", append(requestAttrs(r), "panic", v)...)
				writeError(w, http.StatusInternalServerError, "internal server error")
			}
		}()

		next.ServeHTTP(w, r)
	})
}
