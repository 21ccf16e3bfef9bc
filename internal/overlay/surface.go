package overlay

import (
	"image"

	"golang.org/x/image/draw"
)

// Surface owns the overlay's back buffer and paints the crosshair onto a
// fully transparent canvas. It holds the last image and offsets so a resize
// can repaint without losing state. It does not re-validate offsets; that
// is the controller's job.
type Surface struct {
	canvas *image.RGBA
	img    *CrosshairImage
	xOff   int
	yOff   int
}

// NewSurface allocates a surface for a canvas of the given size.
func NewSurface(width, height int) *Surface {
	return &Surface{canvas: image.NewRGBA(image.Rect(0, 0, width, height))}
}

// Size returns the canvas dimensions.
func (s *Surface) Size() (int, int) {
	b := s.canvas.Bounds()
	return b.Dx(), b.Dy()
}

// Pix exposes the raw RGBA bytes for upload to the window.
func (s *Surface) Pix() []byte {
	return s.canvas.Pix
}

// SetImage replaces the crosshair image and repaints. A nil image clears
// the surface.
func (s *Surface) SetImage(img *CrosshairImage) {
	s.img = img
	s.Paint()
}

// SetOffset moves the crosshair relative to center and repaints.
func (s *Surface) SetOffset(x, y int) {
	s.xOff, s.yOff = x, y
	s.Paint()
}

// HasImage reports whether a crosshair is currently loaded.
func (s *Surface) HasImage() bool {
	return s.img != nil
}

// Resize reallocates the back buffer, preserving the current image and
// offsets, and repaints. Returns false when the size is unchanged.
func (s *Surface) Resize(width, height int) bool {
	if w, h := s.Size(); w == width && h == height {
		return false
	}
	s.canvas = image.NewRGBA(image.Rect(0, 0, width, height))
	s.Paint()
	return true
}

// Origin returns the top-left blit position: the image centered on the
// canvas, shifted by the signed offsets.
func (s *Surface) Origin() (int, int) {
	if s.img == nil {
		return 0, 0
	}
	w, h := s.Size()
	x := w/2 - s.img.Width()/2 + s.xOff
	y := h/2 - s.img.Height()/2 + s.yOff
	return x, y
}

// Paint clears the canvas to fully transparent (zero bytes, not opaque
// black) and blits the crosshair clipped to the canvas bounds. Offsets that
// push the image partly or wholly off-canvas clip; they never write out of
// bounds.
func (s *Surface) Paint() {
	pix := s.canvas.Pix
	for i := range pix {
		pix[i] = 0
	}

	if s.img == nil {
		return
	}

	x, y := s.Origin()
	dst := image.Rect(x, y, x+s.img.Width(), y+s.img.Height())
	draw.Draw(s.canvas, dst, s.img.RGBA(), image.Point{}, draw.Src)
}
