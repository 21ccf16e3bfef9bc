package controller

import (
	"net"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/tharun-extinct/Gaming-optimizer/internal/domain"
	"github.com/tharun-extinct/Gaming-optimizer/internal/ipc"
)

// fakeOverlay plays the overlay end of the channel: it acks every command
// (while acking is enabled) and records what it saw.
type fakeOverlay struct {
	conn      *ipc.Conn
	seen      chan ipc.Envelope
	ackUntil  chan struct{} // closed to stop acking
	rejectAll chan struct{} // closed to ack with a rejection
}

func newFakeOverlay(raw net.Conn) *fakeOverlay {
	f := &fakeOverlay{
		conn:      ipc.NewConn(raw),
		seen:      make(chan ipc.Envelope, 64),
		ackUntil:  make(chan struct{}),
		rejectAll: make(chan struct{}),
	}
	go f.run()
	return f
}

func (f *fakeOverlay) run() {
	for {
		env, err := f.conn.Read()
		if err != nil {
			close(f.seen)
			return
		}
		f.seen <- env

		select {
		case <-f.ackUntil:
			continue // silent: liveness should expire
		default:
		}

		ok, reason := true, ""
		select {
		case <-f.rejectAll:
			ok, reason = false, "no image loaded"
		default:
		}
		if err := f.conn.Write(ipc.AckEnvelope(env.Seq, ok, reason)); err != nil {
			return
		}
	}
}

// harness wires a controller to a fake overlay over a pipe, skipping the
// spawn path.
func harness(t *testing.T, cfg Config) (*Controller, *fakeOverlay) {
	t.Helper()

	a, b := net.Pipe()
	c := New(cfg, zap.NewNop())
	c.mu.Lock()
	c.attachLocked(ipc.NewConn(a), nil)
	c.mu.Unlock()

	f := newFakeOverlay(b)
	t.Cleanup(func() { _ = c.Shutdown() })
	return c, f
}

func fastConfig() Config {
	return Config{
		PingInterval:   20 * time.Millisecond,
		LivenessWindow: 100 * time.Millisecond,
		AcceptTimeout:  time.Second,
		AckTimeout:     200 * time.Millisecond,
	}
}

// nextCommand skips pings and returns the next substantive command.
func nextCommand(t *testing.T, f *fakeOverlay) domain.OverlayCommand {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for {
		select {
		case env, ok := <-f.seen:
			require.True(t, ok, "channel closed before command arrived")
			if env.Command != nil && env.Command.Kind != domain.CmdPing {
				return *env.Command
			}
		case <-deadline:
			t.Fatal("timed out waiting for command")
		}
	}
}

// TestController_SendDeliversInOrder verifies ordering and seq assignment
func TestController_SendDeliversInOrder(t *testing.T) {
	c, f := harness(t, fastConfig())

	require.NoError(t, c.Send(domain.SetImage("a.png")))
	require.NoError(t, c.Send(domain.SetImage("b.png")))

	first := nextCommand(t, f)
	second := nextCommand(t, f)
	assert.Equal(t, "a.png", first.ImagePath)
	assert.Equal(t, "b.png", second.ImagePath)
}

// TestController_AliveWhileAcked verifies liveness tracking
func TestController_AliveWhileAcked(t *testing.T) {
	c, _ := harness(t, fastConfig())

	assert.True(t, c.Alive())

	// Pings keep flowing and keep it alive
	time.Sleep(60 * time.Millisecond)
	assert.True(t, c.Alive())
}

// TestController_DeadWhenPingsUnanswered verifies an unresponsive overlay
// is marked dead within the liveness window
func TestController_DeadWhenPingsUnanswered(t *testing.T) {
	c, f := harness(t, fastConfig())
	require.True(t, c.Alive())

	close(f.ackUntil)

	assert.Eventually(t, func() bool { return !c.Alive() },
		time.Second, 10*time.Millisecond,
		"controller should mark a silent overlay dead")
}

// TestController_SendWithoutOverlay verifies the closed-channel contract
func TestController_SendWithoutOverlay(t *testing.T) {
	c := New(fastConfig(), zap.NewNop())

	err := c.Send(domain.SetVisible(true))
	assert.ErrorIs(t, err, ipc.ErrChannelClosed)
	assert.False(t, c.Alive())
}

// TestController_PeerCloseSurfacesChannelClosed verifies writes after the
// overlay died report ErrChannelClosed, not a raw socket error
func TestController_PeerCloseSurfacesChannelClosed(t *testing.T) {
	c, f := harness(t, fastConfig())

	_ = f.conn.Close()

	// The write or a later one observes the closed pipe
	assert.Eventually(t, func() bool {
		err := c.Send(domain.Ping())
		return err != nil
	}, time.Second, 10*time.Millisecond)

	err := c.Send(domain.Ping())
	assert.ErrorIs(t, err, ipc.ErrChannelClosed)
}

// TestController_SendSurfacesRejectedAck verifies a refused command comes
// back as an error instead of being reported as applied
func TestController_SendSurfacesRejectedAck(t *testing.T) {
	c, f := harness(t, fastConfig())
	close(f.rejectAll)

	err := c.Send(domain.SetVisible(true))
	require.Error(t, err)
	assert.NotErrorIs(t, err, ipc.ErrChannelClosed)
	assert.Contains(t, err.Error(), "no image loaded")
	assert.True(t, c.Alive(), "a rejection is not a dead overlay")
}

// TestController_SendFailsWhenUnacknowledged verifies Send does not report
// success for a command the overlay never answered
func TestController_SendFailsWhenUnacknowledged(t *testing.T) {
	c, f := harness(t, fastConfig())
	close(f.ackUntil)

	err := c.Send(domain.SetImage("a.png"))
	require.Error(t, err)
}

// TestController_ConcurrentSendsReachWireInSeqOrder verifies frames carry
// strictly increasing seq numbers even with concurrent senders
func TestController_ConcurrentSendsReachWireInSeqOrder(t *testing.T) {
	c, f := harness(t, fastConfig())

	const n = 16
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_ = c.Send(domain.SetOffset(i, i))
		}(i)
	}

	var last uint64
	commands := 0
	deadline := time.After(2 * time.Second)
	for commands < n {
		select {
		case env, ok := <-f.seen:
			require.True(t, ok, "channel closed before all commands arrived")
			require.Greater(t, env.Seq, last, "seq must increase in wire order")
			last = env.Seq
			if env.Command != nil && env.Command.Kind != domain.CmdPing {
				commands++
			}
		case <-deadline:
			t.Fatalf("only %d of %d commands arrived", commands, n)
		}
	}
	wg.Wait()
}

// TestOverlayCommandIsDetached verifies the spawn invocation: argv
// forwarding, detach attributes, and no context watchdog that could kill
// the overlay out from under a graceful shutdown
func TestOverlayCommandIsDetached(t *testing.T) {
	cmd := overlayCommand("/opt/gamingopt", "127.0.0.1:4242", true)

	assert.Equal(t, []string{
		"/opt/gamingopt", OverlaySubcommand,
		"--control-addr", "127.0.0.1:4242",
		"--any-size-crosshair",
	}, cmd.Args)
	assert.Nil(t, cmd.Cancel, "overlay lifetime must not be bound to a context")
	assert.NotNil(t, cmd.SysProcAttr)
	assert.Nil(t, cmd.Stdin)
	assert.Nil(t, cmd.Stdout)
	assert.Nil(t, cmd.Stderr)

	plain := overlayCommand("/opt/gamingopt", "127.0.0.1:4242", false)
	assert.NotContains(t, plain.Args, "--any-size-crosshair")
}

// TestController_ShutdownSendsCommandAndCloses verifies shutdown semantics
func TestController_ShutdownSendsCommandAndCloses(t *testing.T) {
	c, f := harness(t, fastConfig())

	cmdCh := make(chan domain.OverlayCommand, 1)
	go func() { cmdCh <- nextCommand(t, f) }()

	require.NoError(t, c.Shutdown())

	select {
	case cmd := <-cmdCh:
		assert.Equal(t, domain.CmdShutdown, cmd.Kind)
	case <-time.After(2 * time.Second):
		t.Fatal("shutdown command never arrived")
	}

	assert.False(t, c.Alive())
	assert.ErrorIs(t, c.Send(domain.Ping()), ipc.ErrChannelClosed)
}
