// Package controller supervises the out-of-process overlay window: it
// spawns the subprocess, owns the control channel, and detects a silently
// dead overlay through periodic pings.
package controller

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/tharun-extinct/Gaming-optimizer/internal/domain"
	"github.com/tharun-extinct/Gaming-optimizer/internal/ipc"
)

// ErrSpawn indicates the overlay process could not be started. Recoverable:
// callers log it and run without overlay features for the session.
var ErrSpawn = errors.New("failed to spawn overlay process")

// OverlaySubcommand is the hidden CLI subcommand the controller self-execs
// to become the overlay process.
const OverlaySubcommand = "overlay"

// Config tunes supervision timing.
type Config struct {
	// PingInterval is how often a liveness ping is sent.
	PingInterval time.Duration
	// LivenessWindow is how long the overlay may go unacknowledged
	// before the controller treats it as dead.
	LivenessWindow time.Duration
	// AcceptTimeout bounds how long a freshly spawned overlay gets to
	// dial back before the spawn counts as failed.
	AcceptTimeout time.Duration
	// AckTimeout bounds how long Send waits for the overlay to
	// acknowledge a command.
	AckTimeout time.Duration
	// AnySizeCrosshair relaxes the overlay's 100x100 image requirement.
	AnySizeCrosshair bool
}

// DefaultConfig returns production supervision settings.
func DefaultConfig() Config {
	return Config{
		PingInterval:   2 * time.Second,
		LivenessWindow: 6 * time.Second,
		AcceptTimeout:  10 * time.Second,
		AckTimeout:     3 * time.Second,
	}
}

// Controller implements domain.OverlaySupervisor.
type Controller struct {
	cfg    Config
	logger *zap.Logger

	mu      sync.Mutex
	conn    *ipc.Conn
	proc    *os.Process
	seq     uint64
	lastAck time.Time
	pending map[uint64]chan ipc.Ack
}

// New creates an overlay controller. Nothing is spawned until
// EnsureRunning is called.
func New(cfg Config, logger *zap.Logger) *Controller {
	return &Controller{
		cfg:     cfg,
		logger:  logger,
		pending: make(map[uint64]chan ipc.Ack),
	}
}

// EnsureRunning spawns the overlay process if absent or dead. Idempotent:
// a healthy overlay is reused. All failures come back wrapped in ErrSpawn
// and never crash the calling application.
func (c *Controller) EnsureRunning(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.aliveLocked() {
		return nil
	}
	// The context gates starting a new overlay, not the lifetime of one
	// already running.
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrSpawn, err)
	}
	c.teardownLocked()

	ln, err := ipc.Listen()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrSpawn, err)
	}
	defer ln.Close()

	exe, err := os.Executable()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrSpawn, err)
	}

	cmd := overlayCommand(exe, ln.Addr(), c.cfg.AnySizeCrosshair)
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("%w: %v", ErrSpawn, err)
	}

	conn, err := ln.Accept(c.cfg.AcceptTimeout)
	if err != nil {
		_ = cmd.Process.Kill()
		_ = cmd.Wait()
		return fmt.Errorf("%w: %v", ErrSpawn, err)
	}

	// Reap the subprocess when it exits so it never zombies.
	go func() { _ = cmd.Wait() }()

	c.logger.Info("overlay process started",
		zap.Int("pid", cmd.Process.Pid),
		zap.String("control_addr", ln.Addr()))

	c.attachLocked(conn, cmd.Process)
	return nil
}

// overlayCommand builds the detached self-exec invocation. Plain
// exec.Command, never CommandContext: the overlay must survive the
// activation context that spawned it. Graceful exit travels over the
// channel as a Shutdown command, and the overlay exits on its own when
// the channel closes, which covers a crashed controller too.
func overlayCommand(exe, addr string, anySize bool) *exec.Cmd {
	args := []string{OverlaySubcommand, "--control-addr", addr}
	if anySize {
		args = append(args, "--any-size-crosshair")
	}

	cmd := exec.Command(exe, args...)
	cmd.SysProcAttr = detachAttr()
	cmd.Stdin = nil
	cmd.Stdout = nil
	cmd.Stderr = nil
	return cmd
}

// attachLocked adopts an established control connection and starts the ack
// reader and ping loop for this connection generation.
func (c *Controller) attachLocked(conn *ipc.Conn, proc *os.Process) {
	c.conn = conn
	c.proc = proc
	c.lastAck = time.Now()
	go c.readAcks(conn)
	go c.pingLoop(conn)
}

// Send delivers one command and waits for its acknowledgement. A rejected
// ack (bad image, visibility without an image) comes back as an error so
// callers never mistake a refused command for an applied one. Returns
// ipc.ErrChannelClosed once the overlay is gone; callers treat that as
// "overlay no longer running", not as a condition to retry indefinitely.
//
// Writes happen inside the critical section, so commands reach the wire
// in seq order even with concurrent callers.
func (c *Controller) Send(cmd domain.OverlayCommand) error {
	c.mu.Lock()
	conn := c.conn
	if conn == nil {
		c.mu.Unlock()
		return ipc.ErrChannelClosed
	}
	c.seq++
	seq := c.seq
	ackCh := make(chan ipc.Ack, 1)
	c.pending[seq] = ackCh
	err := conn.Write(ipc.CommandEnvelope(seq, cmd))
	c.mu.Unlock()

	if err != nil {
		c.forget(seq)
		c.dropConn(conn)
		return err
	}

	select {
	case ack, ok := <-ackCh:
		if !ok {
			return ipc.ErrChannelClosed
		}
		if !ack.OK {
			return fmt.Errorf("overlay rejected %s: %s", cmd.Kind, ack.Reason)
		}
		return nil
	case <-time.After(c.cfg.AckTimeout):
		c.forget(seq)
		return fmt.Errorf("overlay did not acknowledge %s within %v", cmd.Kind, c.cfg.AckTimeout)
	}
}

// forget abandons a pending acknowledgement.
func (c *Controller) forget(seq uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.pending, seq)
}

// Alive reports whether the overlay acknowledged anything within the
// liveness window.
func (c *Controller) Alive() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.aliveLocked()
}

func (c *Controller) aliveLocked() bool {
	return c.conn != nil && time.Since(c.lastAck) <= c.cfg.LivenessWindow
}

// Shutdown asks the overlay to exit and releases the channel. The overlay
// honors Shutdown unconditionally; closing the channel is the backstop
// that makes it exit even if the command was lost.
func (c *Controller) Shutdown() error {
	err := c.Send(domain.Shutdown())

	c.mu.Lock()
	conn := c.conn
	c.mu.Unlock()
	if conn != nil {
		c.dropConn(conn)
	}

	if errors.Is(err, ipc.ErrChannelClosed) {
		return nil
	}
	return err
}

// readAcks pumps acknowledgements for one connection generation, routing
// each to the Send call waiting on it. Any traffic from the overlay
// counts as liveness.
func (c *Controller) readAcks(conn *ipc.Conn) {
	for {
		env, err := conn.Read()
		if err != nil {
			c.dropConn(conn)
			return
		}

		c.mu.Lock()
		if c.conn == conn {
			c.lastAck = time.Now()
		}
		var waiter chan ipc.Ack
		if env.Type == ipc.MsgAck && env.Ack != nil {
			if ch, ok := c.pending[env.Seq]; ok {
				waiter = ch
				delete(c.pending, env.Seq)
			}
		}
		c.mu.Unlock()

		if waiter != nil {
			waiter <- *env.Ack
		} else if env.Type == ipc.MsgAck && env.Ack != nil && !env.Ack.OK {
			// Nobody is waiting: a ping rejection or a Send that
			// already timed out. Worth a trace either way.
			c.logger.Warn("overlay rejected command",
				zap.Uint64("seq", env.Seq),
				zap.String("reason", env.Ack.Reason))
		}
	}
}

// pingLoop probes one connection generation until it dies or falls outside
// the liveness window.
func (c *Controller) pingLoop(conn *ipc.Conn) {
	ticker := time.NewTicker(c.cfg.PingInterval)
	defer ticker.Stop()

	for range ticker.C {
		c.mu.Lock()
		current := c.conn == conn
		expired := time.Since(c.lastAck) > c.cfg.LivenessWindow
		var err error
		if current && !expired {
			c.seq++
			err = conn.Write(ipc.CommandEnvelope(c.seq, domain.Ping()))
		}
		c.mu.Unlock()

		if !current {
			return
		}
		if expired {
			c.logger.Warn("overlay stopped answering pings, marking dead")
			c.dropConn(conn)
			return
		}
		if err != nil {
			c.dropConn(conn)
			return
		}
	}
}

// dropConn closes a connection generation if it is still the active one.
func (c *Controller) dropConn(conn *ipc.Conn) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn != conn {
		return
	}
	_ = conn.Close()
	c.conn = nil
	c.proc = nil
	c.failPendingLocked()
	c.logger.Info("control channel closed")
}

// teardownLocked force-closes any current connection. Caller holds mu.
func (c *Controller) teardownLocked() {
	if c.conn != nil {
		_ = c.conn.Close()
		c.conn = nil
	}
	c.proc = nil
	c.failPendingLocked()
}

// failPendingLocked wakes every waiting Send with a closed channel.
// Caller holds mu.
func (c *Controller) failPendingLocked() {
	for seq, ch := range c.pending {
		close(ch)
		delete(c.pending, seq)
	}
}

// Ensure Controller implements domain.OverlaySupervisor.
var _ domain.OverlaySupervisor = (*Controller)(nil)
