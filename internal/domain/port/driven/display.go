package driven

import "github.com/ericfisherdev/wpass/internal/domain/model"

// Display is the screen collaborator. Rendering is entirely the adapter's
// concern; the core only describes what should be shown.
type Display interface {
	// Refresh redraws the screen with the given frame.
	Refresh(screen model.Screen)

	// Update advances time-based effects such as scrolling text. Called once
	// per tick and must return quickly.
	Update()

	// Sleep blanks the display.
	Sleep()

	// Wake turns the display back on.
	Wake()
}
