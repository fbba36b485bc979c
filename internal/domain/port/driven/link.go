package driven

// Link is a byte-oriented duplex stream to the host. All methods must return
// without blocking; the device loop calls them once per tick.
type Link interface {
	// Connected reports whether a host is currently attached.
	Connected() bool

	// Session identifies the attached host. It changes whenever a different
	// host attaches and is empty while none is attached.
	Session() string

	// Buffered returns the number of received bytes that Read can return
	// immediately. Bytes a host sent before detaching stay readable until
	// the next host attaches.
	Buffered() int

	// Read copies up to len(p) buffered bytes into p. It returns 0, nil when
	// nothing is buffered.
	Read(p []byte) (int, error)

	// Write sends p to the host.
	Write(p []byte) (int, error)
}
