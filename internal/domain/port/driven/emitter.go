package driven

import "context"

// TextEmitter pushes text to the host as if typed on a keyboard.
type TextEmitter interface {
	EmitText(ctx context.Context, text string) error
}
