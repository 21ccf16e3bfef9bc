// Package fixtures provides fakes shared by the integration tests.
package fixtures

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"sync"

	"github.com/tharun-extinct/Gaming-optimizer/internal/domain"
)

// FakeProcessTable implements domain.ProcessManager over an in-memory
// process list, so integration tests exercise the real terminator without
// touching live processes.
type FakeProcessTable struct {
	mu      sync.Mutex
	procs   map[int32]string
	denied  map[int32]bool
	nextPID int32
}

// NewFakeProcessTable creates an empty process table.
func NewFakeProcessTable() *FakeProcessTable {
	return &FakeProcessTable{
		procs:   make(map[int32]string),
		denied:  make(map[int32]bool),
		nextPID: 1000,
	}
}

// Spawn adds a fake process and returns its PID.
func (f *FakeProcessTable) Spawn(name string) int32 {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextPID++
	f.procs[f.nextPID] = name
	return f.nextPID
}

// SpawnProtectedFromKill adds a process whose Kill always fails, to model
// insufficient privileges.
func (f *FakeProcessTable) SpawnProtectedFromKill(name string) int32 {
	pid := f.Spawn(name)
	f.mu.Lock()
	defer f.mu.Unlock()
	f.denied[pid] = true
	return pid
}

// Processes implements domain.ProcessManager.
func (f *FakeProcessTable) Processes() ([]domain.ProcessInfo, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	infos := make([]domain.ProcessInfo, 0, len(f.procs))
	for pid, name := range f.procs {
		infos = append(infos, domain.ProcessInfo{PID: pid, Name: name})
	}
	return infos, nil
}

// Kill implements domain.ProcessManager.
func (f *FakeProcessTable) Kill(pid int32) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.denied[pid] {
		return fmt.Errorf("access denied")
	}
	if _, ok := f.procs[pid]; !ok {
		return fmt.Errorf("no such process: %d", pid)
	}
	delete(f.procs, pid)
	return nil
}

// IsRunning implements domain.ProcessManager.
func (f *FakeProcessTable) IsRunning(pid int32) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.procs[pid]
	return ok
}

// Running reports whether any process with the given name is alive.
func (f *FakeProcessTable) Running(name string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, n := range f.procs {
		if n == name {
			return true
		}
	}
	return false
}

// Ensure FakeProcessTable implements domain.ProcessManager.
var _ domain.ProcessManager = (*FakeProcessTable)(nil)

// WriteCrosshairPNG writes a w x h PNG with an opaque cross shape into dir
// and returns its path.
func WriteCrosshairPNG(dir string, w, h int) (string, error) {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	green := color.RGBA{G: 255, A: 255}
	for x := 0; x < w; x++ {
		img.SetRGBA(x, h/2, green)
	}
	for y := 0; y < h; y++ {
		img.SetRGBA(w/2, y, green)
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return "", err
	}

	path := filepath.Join(dir, "crosshair.png")
	if err := os.WriteFile(path, buf.Bytes(), 0644); err != nil {
		return "", err
	}
	return path, nil
}
