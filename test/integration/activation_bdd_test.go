//go:build integration

package integration

import (
	"context"
	"path/filepath"
	"sync"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/zap"

	"github.com/tharun-extinct/Gaming-optimizer/internal/daemon"
	"github.com/tharun-extinct/Gaming-optimizer/internal/domain"
	"github.com/tharun-extinct/Gaming-optimizer/internal/infra"
	"github.com/tharun-extinct/Gaming-optimizer/internal/usecase"
	"github.com/tharun-extinct/Gaming-optimizer/test/fixtures"
)

// recordingSupervisor implements domain.OverlaySupervisor in-process.
type recordingSupervisor struct {
	mu      sync.Mutex
	running bool
	sent    []domain.OverlayCommand
}

func (r *recordingSupervisor) EnsureRunning(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.running = true
	return nil
}

func (r *recordingSupervisor) Send(cmd domain.OverlayCommand) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = append(r.sent, cmd)
	return nil
}

func (r *recordingSupervisor) Alive() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.running
}

func (r *recordingSupervisor) Shutdown() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.running = false
	return nil
}

func (r *recordingSupervisor) Sent() []domain.OverlayCommand {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]domain.OverlayCommand(nil), r.sent...)
}

func (r *recordingSupervisor) Running() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.running
}

var _ = Describe("Profile Activation", func() {
	var (
		procs      *fixtures.FakeProcessTable
		supervisor *recordingSupervisor
		activator  *usecase.ActivatorImpl
		imagePath  string
	)

	BeforeEach(func() {
		var err error
		procs = fixtures.NewFakeProcessTable()
		supervisor = &recordingSupervisor{}

		logger := zap.NewNop()
		terminator := usecase.NewTerminator(procs, logger)
		activator = usecase.NewActivator(terminator, supervisor, logger)

		imagePath, err = fixtures.WriteCrosshairPNG(GinkgoT().TempDir(), 100, 100)
		Expect(err).NotTo(HaveOccurred())
	})

	Describe("activating a full profile", func() {
		Context("with the target running and a protected process requested", func() {
			It("kills the target, skips the protected process, and shows the crosshair", func() {
				notepadPID := procs.Spawn("notepad.exe")
				procs.Spawn("dwm.exe")

				profile := domain.Profile{
					Name:               "FPS",
					ProcessesToKill:    []string{"notepad.exe", "dwm.exe"},
					CrosshairImagePath: imagePath,
					CrosshairXOffset:   10,
					CrosshairYOffset:   -5,
					OverlayEnabled:     true,
				}

				report, err := activator.Activate(context.Background(), profile)
				Expect(err).NotTo(HaveOccurred())

				Expect(report.Killed).To(ConsistOf(
					domain.KilledProcess{Name: "notepad.exe", PID: notepadPID}))
				Expect(report.BlocklistSkipped).To(ConsistOf("dwm.exe"))
				Expect(procs.Running("notepad.exe")).To(BeFalse())
				Expect(procs.Running("dwm.exe")).To(BeTrue(), "protected process must survive")

				Expect(supervisor.Sent()).To(Equal([]domain.OverlayCommand{
					domain.SetImage(imagePath),
					domain.SetOffset(10, -5),
					domain.SetVisible(true),
				}))
			})
		})

		Context("when a protected process is running but not requested", func() {
			It("never appears in the report", func() {
				procs.Spawn("dwm.exe")
				procs.Spawn("notepad.exe")

				profile := domain.Profile{
					Name:            "Quiet",
					ProcessesToKill: []string{"notepad.exe"},
				}

				report, err := activator.Activate(context.Background(), profile)
				Expect(err).NotTo(HaveOccurred())
				Expect(report.BlocklistSkipped).To(BeEmpty())
				Expect(report.Killed).To(HaveLen(1))
			})
		})

		Context("with no crosshair image but overlay enabled", func() {
			It("leaves the overlay hidden without raising an error", func() {
				profile := domain.Profile{
					Name:           "NoImage",
					OverlayEnabled: true,
				}

				_, err := activator.Activate(context.Background(), profile)
				Expect(err).NotTo(HaveOccurred())
				Expect(supervisor.Running()).To(BeFalse())
				Expect(supervisor.Sent()).To(BeEmpty())
			})
		})
	})

	Describe("partial termination failure", func() {
		It("records the failure and the success in one report", func() {
			deniedPID := procs.SpawnProtectedFromKill("game.exe")
			okPID := procs.Spawn("game.exe")

			profile := domain.Profile{
				Name:            "Partial",
				ProcessesToKill: []string{"game.exe"},
			}

			report, err := activator.Activate(context.Background(), profile)
			Expect(err).NotTo(HaveOccurred())

			Expect(report.Killed).To(ConsistOf(
				domain.KilledProcess{Name: "game.exe", PID: okPID}))
			Expect(report.Failed).To(HaveLen(1))
			Expect(report.Failed[0].PID).To(Equal(deniedPID))
			Expect(report.Failed[0].Err).To(MatchError("access denied"))
		})
	})
})

var _ = Describe("Daemon Reconciliation", func() {
	var (
		procs      *fixtures.FakeProcessTable
		supervisor *recordingSupervisor
		profiles   domain.ProfileStore
		config     domain.ConfigStore
		d          *daemon.Daemon
	)

	BeforeEach(func() {
		dir := GinkgoT().TempDir()
		procs = fixtures.NewFakeProcessTable()
		supervisor = &recordingSupervisor{}

		profiles = infra.NewProfileStoreWithPath(filepath.Join(dir, "profiles.json"))
		config = infra.NewConfigStoreWithPath(filepath.Join(dir, "config.json"))

		imagePath, err := fixtures.WriteCrosshairPNG(dir, 100, 100)
		Expect(err).NotTo(HaveOccurred())

		Expect(profiles.Save([]domain.Profile{{
			Name:               "FPS",
			ProcessesToKill:    []string{"notepad.exe"},
			CrosshairImagePath: imagePath,
			OverlayEnabled:     true,
		}})).To(Succeed())

		logger := zap.NewNop()
		terminator := usecase.NewTerminator(procs, logger)
		activator := usecase.NewActivator(terminator, supervisor, logger)
		d = daemon.New(daemon.DefaultConfig(), profiles, config, activator, supervisor, logger)
	})

	Context("when config.json names an active profile", func() {
		It("kills its processes and shows its overlay on the next poll", func() {
			procs.Spawn("notepad.exe")
			Expect(config.Save(domain.AppConfig{ActiveProfile: "FPS"})).To(Succeed())

			ctx, cancel := context.WithCancel(context.Background())
			done := make(chan error, 1)
			go func() { done <- d.Run(ctx) }()

			Eventually(func() bool {
				return !procs.Running("notepad.exe")
			}).Should(BeTrue(), "daemon should kill the profile's process")

			Eventually(func() []domain.OverlayCommand {
				return supervisor.Sent()
			}).Should(ContainElement(domain.SetVisible(true)))

			cancel()
			Eventually(done).Should(Receive())
			Expect(supervisor.Running()).To(BeFalse(), "overlay shut down with the daemon")
		})
	})
})
