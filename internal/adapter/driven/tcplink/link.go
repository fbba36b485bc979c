// Package tcplink carries the host byte stream over TCP. It stands in for
// the USB serial data port: one host may be attached at a time, and the
// device loop drains received bytes without blocking.
package tcplink

import (
	"errors"
	"fmt"
	"log/slog"
	"net"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ericfisherdev/wpass/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.Link = (*Link)(nil)

// ErrNotConnected is returned by Write when no host is attached.
var ErrNotConnected = errors.New("no host attached")

const (
	// DefaultMaxBuffered caps the bytes held for the device loop. Input past
	// the cap is dropped until the loop catches up.
	DefaultMaxBuffered = 1 << 20

	writeTimeout = 2 * time.Second
	readChunk    = 4096
)

// Link accepts host connections on a TCP listener.
type Link struct {
	ln     net.Listener
	logger *slog.Logger

	mu          sync.Mutex
	conn        net.Conn
	session     string
	buf         []byte
	maxBuffered int
	closed      bool

	wg sync.WaitGroup
}

// Listen binds addr and starts accepting hosts in the background.
func Listen(addr string, logger *slog.Logger) (*Link, error) {
	if logger == nil {
		logger = slog.Default()
	}
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("listen on %s: %w", addr, err)
	}

	l := &Link{ln: ln, logger: logger, maxBuffered: DefaultMaxBuffered}
	l.wg.Add(1)
	go l.acceptLoop()
	return l, nil
}

// Addr returns the bound listener address.
func (l *Link) Addr() net.Addr { return l.ln.Addr() }

// Session returns the id of the attached host's session, or "" when none is
// attached.
func (l *Link) Session() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.session
}

// Connected reports whether a host is attached.
func (l *Link) Connected() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.conn != nil
}

// Buffered returns the number of received bytes not yet read, including
// bytes from a host that has since detached.
func (l *Link) Buffered() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.buf)
}

// Read copies buffered bytes into p. It never blocks and returns 0 when
// nothing is buffered.
func (l *Link) Read(p []byte) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	n := copy(p, l.buf)
	l.buf = l.buf[n:]
	if len(l.buf) == 0 {
		l.buf = nil
	}
	return n, nil
}

// Write sends p to the attached host.
func (l *Link) Write(p []byte) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.conn == nil {
		return 0, ErrNotConnected
	}

	_ = l.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	n, err := l.conn.Write(p)
	if err != nil {
		l.logger.Warn("write to host failed, detaching", "session", l.session, "error", err)
		l.detachLocked(l.conn)
		return n, fmt.Errorf("write to host: %w", err)
	}
	return n, nil
}

// Close stops accepting hosts, drops the attached one and waits for the
// background goroutines to exit.
func (l *Link) Close() error {
	l.mu.Lock()
	l.closed = true
	if l.conn != nil {
		l.detachLocked(l.conn)
	}
	l.mu.Unlock()

	err := l.ln.Close()
	l.wg.Wait()
	if err != nil && !errors.Is(err, net.ErrClosed) {
		return fmt.Errorf("close listener: %w", err)
	}
	return nil
}

func (l *Link) acceptLoop() {
	defer l.wg.Done()
	for {
		conn, err := l.ln.Accept()
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				return
			}
			l.logger.Warn("accept failed", "error", err)
			continue
		}

		l.mu.Lock()
		if l.closed || l.conn != nil {
			l.mu.Unlock()
			l.logger.Warn("rejecting host, another host is attached", "remote", conn.RemoteAddr().String())
			_ = conn.Close()
			continue
		}
		if len(l.buf) > 0 {
			l.logger.Warn("discarding unread input from previous host", "bytes", len(l.buf))
		}
		l.conn = conn
		l.session = uuid.New().String()
		l.buf = nil
		session := l.session
		l.mu.Unlock()

		l.logger.Info("host attached", "session", session, "remote", conn.RemoteAddr().String())
		l.wg.Add(1)
		go l.readLoop(conn, session)
	}
}

func (l *Link) readLoop(conn net.Conn, session string) {
	defer l.wg.Done()
	chunk := make([]byte, readChunk)
	for {
		n, err := conn.Read(chunk)
		if n > 0 {
			l.mu.Lock()
			if l.conn == conn {
				room := l.maxBuffered - len(l.buf)
				if n > room {
					l.logger.Warn("receive buffer full, dropping input", "session", session, "dropped", n-max(room, 0))
					n = max(room, 0)
				}
				l.buf = append(l.buf, chunk[:n]...)
			}
			l.mu.Unlock()
		}
		if err != nil {
			l.mu.Lock()
			attached := l.conn == conn
			if attached {
				l.detachLocked(conn)
			}
			l.mu.Unlock()
			if attached {
				l.logger.Info("host detached", "session", session)
			}
			return
		}
	}
}

// detachLocked drops conn. Bytes it already delivered stay in buf until the
// next host attaches.
func (l *Link) detachLocked(conn net.Conn) {
	_ = conn.Close()
	if l.conn == conn {
		l.conn = nil
		l.session = ""
	}
}
