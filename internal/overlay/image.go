// Package overlay implements the crosshair overlay: PNG asset loading, the
// render surface, and the standalone overlay window process.
package overlay

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/png"
	"os"

	"golang.org/x/image/draw"
)

// Image loading error classes. Wrapped with path context; test with
// errors.Is.
var (
	// ErrImageRead: the file could not be opened or read.
	ErrImageRead = errors.New("crosshair image unreadable")
	// ErrImageFormat: the file is not a PNG at all.
	ErrImageFormat = errors.New("crosshair image is not a PNG")
	// ErrImageDecode: the PNG data is malformed.
	ErrImageDecode = errors.New("crosshair image failed to decode")
	// ErrImageDimensions: the image violates the configured size contract.
	ErrImageDimensions = errors.New("crosshair image has wrong dimensions")
)

// pngSignature is the 8-byte magic at the start of every PNG file.
var pngSignature = []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n'}

// CrosshairImage is a decoded crosshair: an RGBA buffer in Go's native
// alpha-premultiplied convention. Immutable after load; replaced wholesale
// when the controller pushes a new image path.
type CrosshairImage struct {
	pix    *image.RGBA
	width  int
	height int
}

// Width returns the image width in pixels.
func (c *CrosshairImage) Width() int { return c.width }

// Height returns the image height in pixels.
func (c *CrosshairImage) Height() int { return c.height }

// RGBA returns the backing buffer. Callers must not mutate it.
func (c *CrosshairImage) RGBA() *image.RGBA { return c.pix }

// LoaderConfig controls the dimension contract. Zero values accept any
// size; the CLI defaults to the classic 100x100 requirement.
type LoaderConfig struct {
	RequireWidth  int
	RequireHeight int
}

// DefaultLoaderConfig requires the fixed 100x100 crosshair size.
func DefaultLoaderConfig() LoaderConfig {
	return LoaderConfig{RequireWidth: 100, RequireHeight: 100}
}

// LoadCrosshair decodes the PNG at path into a CrosshairImage. Images that
// violate cfg's size contract are rejected, never stretched.
func LoadCrosshair(path string, cfg LoaderConfig) (*CrosshairImage, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrImageRead, path, err)
	}

	if len(data) < len(pngSignature) || !bytes.Equal(data[:len(pngSignature)], pngSignature) {
		return nil, fmt.Errorf("%w: %s", ErrImageFormat, path)
	}

	src, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrImageDecode, path, err)
	}

	bounds := src.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	if cfg.RequireWidth > 0 && cfg.RequireHeight > 0 &&
		(w != cfg.RequireWidth || h != cfg.RequireHeight) {
		return nil, fmt.Errorf("%w: want %dx%d, got %dx%d",
			ErrImageDimensions, cfg.RequireWidth, cfg.RequireHeight, w, h)
	}

	// Normalize every PNG color type to a single RGBA buffer.
	rgba := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(rgba, rgba.Bounds(), src, bounds.Min, draw.Src)

	return &CrosshairImage{pix: rgba, width: w, height: h}, nil
}
