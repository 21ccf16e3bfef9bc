package ipc

import (
	"fmt"
	"net"
	"time"
)

// Listener accepts the overlay process's single inbound connection.
// The controller listens on an ephemeral loopback port and hands the
// address to the overlay subprocess on its command line; nothing ever
// leaves 127.0.0.1.
type Listener struct {
	ln net.Listener
}

// Listen opens an ephemeral loopback listener.
func Listen() (*Listener, error) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return nil, fmt.Errorf("failed to open control listener: %w", err)
	}
	return &Listener{ln: ln}, nil
}

// Addr returns the address the overlay must dial.
func (l *Listener) Addr() string {
	return l.ln.Addr().String()
}

// Accept waits up to timeout for the overlay to connect.
func (l *Listener) Accept(timeout time.Duration) (*Conn, error) {
	if tcp, ok := l.ln.(*net.TCPListener); ok {
		if err := tcp.SetDeadline(time.Now().Add(timeout)); err != nil {
			return nil, err
		}
	}
	raw, err := l.ln.Accept()
	if err != nil {
		return nil, fmt.Errorf("overlay did not connect: %w", err)
	}
	return NewConn(raw), nil
}

// Close stops listening. Established connections are unaffected.
func (l *Listener) Close() error {
	return l.ln.Close()
}

// Dial connects to the controller's listener from the overlay process.
func Dial(addr string, timeout time.Duration) (*Conn, error) {
	raw, err := net.DialTimeout("tcp", addr, timeout)
	if err != nil {
		return nil, fmt.Errorf("failed to dial control channel %s: %w", addr, err)
	}
	return NewConn(raw), nil
}
