package ipc

import (
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"sync"
)

// ErrChannelClosed is returned once the peer process is gone. Callers treat
// it as "overlay no longer running", not as a retryable condition.
var ErrChannelClosed = errors.New("control channel closed")

// maxFrameSize bounds a single message. Commands are tiny; anything larger
// means a corrupt or hostile stream.
const maxFrameSize = 64 * 1024

// Conn is one end of the control channel. Frames are a 4-byte big-endian
// length prefix followed by a JSON envelope. Write and Read are each safe
// for one concurrent caller; writes are additionally serialized internally.
type Conn struct {
	raw     net.Conn
	writeMu sync.Mutex
	lenBuf  [4]byte
}

// NewConn wraps an established connection.
func NewConn(raw net.Conn) *Conn {
	return &Conn{raw: raw}
}

// Write frames and sends one envelope. Returns ErrChannelClosed once the
// peer has gone away.
func (c *Conn) Write(env Envelope) error {
	payload, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("failed to encode envelope: %w", err)
	}
	if len(payload) > maxFrameSize {
		return fmt.Errorf("envelope exceeds frame limit: %d bytes", len(payload))
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	var prefix [4]byte
	binary.BigEndian.PutUint32(prefix[:], uint32(len(payload)))
	if _, err := c.raw.Write(prefix[:]); err != nil {
		return closedErr(err)
	}
	if _, err := c.raw.Write(payload); err != nil {
		return closedErr(err)
	}
	return nil
}

// Read blocks for the next envelope. Returns ErrChannelClosed when the peer
// closes the connection.
func (c *Conn) Read() (Envelope, error) {
	var env Envelope

	if _, err := io.ReadFull(c.raw, c.lenBuf[:]); err != nil {
		return env, closedErr(err)
	}
	size := binary.BigEndian.Uint32(c.lenBuf[:])
	if size == 0 || size > maxFrameSize {
		return env, fmt.Errorf("invalid frame size %d", size)
	}

	payload := make([]byte, size)
	if _, err := io.ReadFull(c.raw, payload); err != nil {
		return env, closedErr(err)
	}

	if err := json.Unmarshal(payload, &env); err != nil {
		return env, fmt.Errorf("failed to decode envelope: %w", err)
	}
	return env, nil
}

// Close tears down the underlying connection.
func (c *Conn) Close() error {
	return c.raw.Close()
}

// closedErr maps transport-level failures onto ErrChannelClosed so callers
// have a single condition to test for.
func closedErr(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) ||
		errors.Is(err, io.ErrClosedPipe) || errors.Is(err, net.ErrClosed) {
		return ErrChannelClosed
	}
	var netErr *net.OpError
	if errors.As(err, &netErr) {
		return ErrChannelClosed
	}
	return err
}
