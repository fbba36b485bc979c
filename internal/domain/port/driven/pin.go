package driven

// Pin is a single digital input sample source.
type Pin interface {
	// Level returns the current raw electrical level of the pin.
	Level() bool
}
