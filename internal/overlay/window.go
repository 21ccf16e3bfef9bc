package overlay

import (
	"errors"
	"fmt"
	"time"

	"github.com/hajimehoshi/ebiten/v2"
	"go.uber.org/zap"

	"github.com/tharun-extinct/Gaming-optimizer/internal/domain"
	"github.com/tharun-extinct/Gaming-optimizer/internal/ipc"
)

// State is the overlay process lifecycle state.
type State int

const (
	StateUninitialized State = iota
	StateHidden
	StateVisible
	StateTerminated
)

// String returns the state name for logging.
func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateHidden:
		return "hidden"
	case StateVisible:
		return "visible"
	case StateTerminated:
		return "terminated"
	}
	return "unknown"
}

// Options configures the overlay process.
type Options struct {
	// ControlAddr is the controller's loopback listener address.
	ControlAddr string
	// Loader is the image dimension contract.
	Loader LoaderConfig
	// TopmostInterval is how often the always-on-top flag is re-asserted.
	// Compositors silently drop topmost status when other applications
	// request it too, so a one-time flag is not enough.
	TopmostInterval time.Duration
	// DialTimeout bounds the initial control-channel connection.
	DialTimeout time.Duration
}

// DefaultOptions returns production overlay settings.
func DefaultOptions(controlAddr string) Options {
	return Options{
		ControlAddr:     controlAddr,
		Loader:          DefaultLoaderConfig(),
		TopmostInterval: 2 * time.Second,
		DialTimeout:     5 * time.Second,
	}
}

// App is the overlay window application: a single-threaded event loop that
// owns the OverlayState and applies control-channel commands in arrival
// order. All state is mutated only from the ebiten update thread.
type App struct {
	opts    Options
	logger  *zap.Logger
	conn    *ipc.Conn
	surface *Surface
	state   State
	inbox   chan ipc.Envelope

	frame       *ebiten.Image
	dirty       bool
	lastTopmost time.Time

	// loadImage is swappable for tests.
	loadImage func(path string) (*CrosshairImage, error)
}

// newApp builds the application around an established control connection
// and a canvas of the given size.
func newApp(opts Options, conn *ipc.Conn, width, height int, logger *zap.Logger) *App {
	return &App{
		opts:    opts,
		logger:  logger,
		conn:    conn,
		surface: NewSurface(width, height),
		state:   StateUninitialized,
		inbox:   make(chan ipc.Envelope, 64),
		loadImage: func(path string) (*CrosshairImage, error) {
			return LoadCrosshair(path, opts.Loader)
		},
	}
}

// handle applies one envelope and returns the acknowledgement to send.
// Rejected commands (bad image, visibility without an image) come back with
// OK=false; they never tear the channel down.
func (a *App) handle(env ipc.Envelope) ipc.Envelope {
	if env.Type != ipc.MsgCommand || env.Command == nil {
		return ipc.AckEnvelope(env.Seq, false, "not a command")
	}

	cmd := *env.Command
	switch cmd.Kind {
	case domain.CmdPing:
		return ipc.AckEnvelope(env.Seq, true, "")

	case domain.CmdSetImage:
		img, err := a.loadImage(cmd.ImagePath)
		if err != nil {
			// Keep the previous image; a bad path must not blank a
			// working crosshair.
			a.logger.Warn("image load rejected",
				zap.String("path", cmd.ImagePath),
				zap.Error(err))
			return ipc.AckEnvelope(env.Seq, false, err.Error())
		}
		a.surface.SetImage(img)
		a.dirty = true
		a.logger.Info("crosshair image set",
			zap.String("path", cmd.ImagePath),
			zap.Int("width", img.Width()),
			zap.Int("height", img.Height()))
		return ipc.AckEnvelope(env.Seq, true, "")

	case domain.CmdSetOffset:
		a.surface.SetOffset(cmd.XOffset, cmd.YOffset)
		a.dirty = true
		return ipc.AckEnvelope(env.Seq, true, "")

	case domain.CmdSetVisible:
		if cmd.Visible {
			if !a.surface.HasImage() {
				return ipc.AckEnvelope(env.Seq, false, "no image loaded")
			}
			a.setState(StateVisible)
			a.dirty = true
		} else {
			// Window stays allocated; toggling back is cheap.
			a.setState(StateHidden)
		}
		return ipc.AckEnvelope(env.Seq, true, "")

	case domain.CmdShutdown:
		a.setState(StateTerminated)
		return ipc.AckEnvelope(env.Seq, true, "")
	}

	return ipc.AckEnvelope(env.Seq, false, fmt.Sprintf("unknown command %q", cmd.Kind))
}

func (a *App) setState(next State) {
	if a.state == next {
		return
	}
	a.logger.Debug("overlay state change",
		zap.Stringer("from", a.state),
		zap.Stringer("to", next))
	a.state = next
}

// readLoop pumps envelopes from the control channel into the inbox. When
// the channel dies the controller is gone, so the overlay shuts down
// rather than lingering as an orphan.
func (a *App) readLoop() {
	for {
		env, err := a.conn.Read()
		if err != nil {
			if !errors.Is(err, ipc.ErrChannelClosed) {
				a.logger.Warn("control channel read failed", zap.Error(err))
			}
			close(a.inbox)
			return
		}
		a.inbox <- env
	}
}

// Update drains pending commands, applies them in order, and re-asserts
// the compositor topmost flag on a steady interval.
func (a *App) Update() error {
	if a.state == StateUninitialized {
		a.setState(StateHidden)
	}

	for a.state != StateTerminated {
		select {
		case env, ok := <-a.inbox:
			if !ok {
				a.logger.Info("controller gone, shutting down")
				a.setState(StateTerminated)
				break
			}
			ack := a.handle(env)
			if err := a.conn.Write(ack); err != nil {
				a.setState(StateTerminated)
			}
		default:
			goto drained
		}
	}
drained:

	if a.state == StateTerminated {
		return ebiten.Termination
	}

	if time.Since(a.lastTopmost) >= a.opts.TopmostInterval {
		ebiten.SetWindowFloating(true)
		a.lastTopmost = time.Now()
	}
	return nil
}

// Draw uploads the back buffer when it changed and composites it onto the
// (transparent) screen only while visible.
func (a *App) Draw(screen *ebiten.Image) {
	if a.state != StateVisible {
		return
	}

	w, h := a.surface.Size()
	if a.frame == nil || a.frame.Bounds().Dx() != w || a.frame.Bounds().Dy() != h {
		a.frame = ebiten.NewImage(w, h)
		a.dirty = true
	}
	if a.dirty {
		a.frame.WritePixels(a.surface.Pix())
		a.dirty = false
	}
	screen.DrawImage(a.frame, nil)
}

// Layout keeps the back buffer matched to the window size. A resize
// preserves the crosshair and offsets and triggers a repaint.
func (a *App) Layout(outsideWidth, outsideHeight int) (int, int) {
	if outsideWidth > 0 && outsideHeight > 0 {
		if a.surface.Resize(outsideWidth, outsideHeight) {
			a.dirty = true
		}
	}
	return a.surface.Size()
}

// Run is the overlay process entry point: dial the controller, create the
// transparent click-through window covering the primary monitor, and block
// in the event loop until Shutdown. Startup failures here are fatal for
// the process; the caller exits non-zero.
func Run(opts Options, logger *zap.Logger) error {
	conn, err := ipc.Dial(opts.ControlAddr, opts.DialTimeout)
	if err != nil {
		return err
	}
	defer conn.Close()

	width, height := ebiten.Monitor().Size()
	if width <= 0 || height <= 0 {
		return fmt.Errorf("cannot determine primary monitor size")
	}

	app := newApp(opts, conn, width, height, logger)

	ebiten.SetWindowDecorated(false)
	ebiten.SetWindowFloating(true)
	ebiten.SetWindowMousePassthrough(true)
	ebiten.SetWindowPosition(0, 0)
	ebiten.SetWindowSize(width, height)
	ebiten.SetWindowTitle("Gaming Optimizer Overlay")
	ebiten.SetTPS(30)

	go app.readLoop()

	logger.Info("overlay window starting",
		zap.String("control_addr", opts.ControlAddr),
		zap.Int("width", width),
		zap.Int("height", height))

	if err := ebiten.RunGameWithOptions(app, &ebiten.RunGameOptions{
		ScreenTransparent: true,
		InitUnfocused:     true,
		SkipTaskbar:       true,
	}); err != nil {
		return fmt.Errorf("overlay window failed: %w", err)
	}

	logger.Info("overlay window exited cleanly")
	return nil
}
