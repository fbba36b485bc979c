package terminal

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"unicode/utf8"

	"github.com/ericfisherdev/wpass/internal/domain/port/driven"
)

// Compile-time interface satisfaction checks.
var (
	_ driven.TextEmitter = (*LogEmitter)(nil)
	_ driven.TextEmitter = (*WriterEmitter)(nil)
)

// LogEmitter records that text was emitted without revealing it.
type LogEmitter struct {
	logger *slog.Logger
}

// NewLogEmitter creates a LogEmitter.
func NewLogEmitter(logger *slog.Logger) *LogEmitter {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogEmitter{logger: logger}
}

// EmitText logs the length of text.
func (e *LogEmitter) EmitText(ctx context.Context, text string) error {
	e.logger.InfoContext(ctx, "keystrokes emitted", "chars", utf8.RuneCountInString(text))
	return nil
}

// WriterEmitter types text followed by a newline to a writer, the way a
// keyboard would type it into the focused field.
type WriterEmitter struct {
	mu sync.Mutex
	w  io.Writer
}

// NewWriterEmitter creates a WriterEmitter.
func NewWriterEmitter(w io.Writer) *WriterEmitter {
	return &WriterEmitter{w: w}
}

// EmitText writes text and a newline.
func (e *WriterEmitter) EmitText(ctx context.Context, text string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if _, err := fmt.Fprintln(e.w, text); err != nil {
		return fmt.Errorf("emit text: %w", err)
	}
	return nil
}
