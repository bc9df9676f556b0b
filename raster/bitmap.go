package raster

import (
	"image"
	"image/color"
)

// MonoColor is a 1-bit color: true is a dark (printed) dot, false is blank paper.
type MonoColor bool

// RGBA converts the MonoColor color to standard RGBA.
func (c MonoColor) RGBA() (r, g, b, a uint32) {
	if c {
		return 0, 0, 0, 0xFFFF
	}
	return 0xFFFF, 0xFFFF, 0xFFFF, 0xFFFF
}

// toMono converts any color.Color to MonoColor with a fixed mid-point threshold.
func toMono(c color.Color) color.Color {
	if m, ok := c.(MonoColor); ok {
		return m
	}
	r, g, b, _ := c.RGBA()
	// Standard grayscale conversion: 0.299R + 0.587G + 0.114B
	y := (299*r + 587*g + 114*b + 500) / 1000
	return MonoColor(y < 0x8000)
}

// MonoModel converts colors to MonoColor.
var MonoModel = color.ModelFunc(toMono)

// Gray4 represents a 4-bit grayscale color (0-15 intensity levels).
// Level 0 is full print density (black), level 15 is blank paper (white).
// Only the lower 4 bits of Y are used.
type Gray4 struct {
	Y uint8
}

// RGBA converts the Gray4 color to standard RGBA.
// The 4-bit gray value (0-15) is scaled to 16-bit (0-65535).
func (c Gray4) RGBA() (r, g, b, a uint32) {
	// 0xF * 0x1111 = 0xFFFF, 0x5 * 0x1111 = 0x5555, etc.
	y := uint32(c.Y&0x0F) * 0x1111
	return y, y, y, 0xFFFF
}

// toGray4 converts any color.Color to Gray4.
func toGray4(c color.Color) color.Color {
	if g, ok := c.(Gray4); ok {
		return g
	}
	r, g, b, _ := c.RGBA()
	y := (299*r + 587*g + 114*b + 500) / 1000
	// Convert 16-bit (0-65535) to 4-bit (0-15)
	return Gray4{Y: uint8(y >> 12)}
}

// Gray4Model converts colors to Gray4.
var Gray4Model = color.ModelFunc(toGray4)

// Bitmap is a 1-bit monochrome raster in the thermal head wire format.
// Each byte holds 8 horizontally adjacent pixels, most significant bit first;
// bit 7 is the leftmost column of the group. Rows are byte aligned, so the
// trailing byte of a row is zero padded when the width is not a multiple of 8.
type Bitmap struct {
	Pix    []byte          // Pixel data (8 pixels per byte, MSB first)
	Stride int             // Bytes per row
	Rect   image.Rectangle // Image bounds
}

// NewBitmap creates a new monochrome Bitmap with the specified bounds.
func NewBitmap(r image.Rectangle) *Bitmap {
	w, h := r.Dx(), r.Dy()
	if w < 0 || h < 0 {
		return &Bitmap{Rect: r}
	}
	stride := (w + 7) / 8
	return &Bitmap{
		Pix:    make([]byte, stride*h),
		Stride: stride,
		Rect:   r,
	}
}

// ColorModel returns the color model of the image.
func (p *Bitmap) ColorModel() color.Model {
	return MonoModel
}

// Bounds returns the image bounds.
func (p *Bitmap) Bounds() image.Rectangle {
	return p.Rect
}

// At returns the color of the pixel at (x, y).
// It implements the image.Image interface.
func (p *Bitmap) At(x, y int) color.Color {
	return MonoColor(p.BitAt(x, y))
}

// BitAt reports whether the pixel at (x, y) is dark.
func (p *Bitmap) BitAt(x, y int) bool {
	if !(image.Point{X: x, Y: y}.In(p.Rect)) {
		return false
	}
	offset, mask := p.pixOffset(x, y)
	return p.Pix[offset]&mask != 0
}

// Set sets the color of the pixel at (x, y).
func (p *Bitmap) Set(x, y int, c color.Color) {
	p.SetBit(x, y, bool(MonoModel.Convert(c).(MonoColor)))
}

// SetBit sets or clears the dark bit of the pixel at (x, y).
func (p *Bitmap) SetBit(x, y int, dark bool) {
	if !(image.Point{X: x, Y: y}.In(p.Rect)) {
		return
	}
	offset, mask := p.pixOffset(x, y)
	if dark {
		p.Pix[offset] |= mask
	} else {
		p.Pix[offset] &^= mask
	}
}

// pixOffset returns the byte offset and bit mask for the pixel at (x, y).
// Bit 7 of each byte is the leftmost pixel of its 8-pixel group.
func (p *Bitmap) pixOffset(x, y int) (offset int, mask byte) {
	x -= p.Rect.Min.X
	offset = (y-p.Rect.Min.Y)*p.Stride + x/8
	mask = 0x80 >> uint(x&7)
	return
}

// Gray4Bitmap is a 4-bit grayscale raster in the thermal head wire format.
// Pixels are stored in horizontal nibble packing where each byte contains
// 2 pixels: high nibble = even (left) column, low nibble = odd (right)
// column. Rows are byte aligned, so the low nibble of the trailing byte is
// zero when the width is odd.
type Gray4Bitmap struct {
	Pix    []byte          // Pixel data (2 pixels per byte)
	Stride int             // Bytes per row
	Rect   image.Rectangle // Image bounds
}

// NewGray4Bitmap creates a new Gray4Bitmap with the specified bounds.
func NewGray4Bitmap(r image.Rectangle) *Gray4Bitmap {
	w, h := r.Dx(), r.Dy()
	if w < 0 || h < 0 {
		return &Gray4Bitmap{Rect: r}
	}
	stride := (w + 1) / 2
	return &Gray4Bitmap{
		Pix:    make([]byte, stride*h),
		Stride: stride,
		Rect:   r,
	}
}

// ColorModel returns the color model of the image.
func (p *Gray4Bitmap) ColorModel() color.Model {
	return Gray4Model
}

// Bounds returns the image bounds.
func (p *Gray4Bitmap) Bounds() image.Rectangle {
	return p.Rect
}

// At returns the color of the pixel at (x, y).
// It implements the image.Image interface.
func (p *Gray4Bitmap) At(x, y int) color.Color {
	return p.Gray4At(x, y)
}

// Gray4At returns the Gray4 color of the pixel at (x, y).
func (p *Gray4Bitmap) Gray4At(x, y int) Gray4 {
	return Gray4{Y: p.Level(x, y)}
}

// Level returns the 4-bit level (0-15) of the pixel at (x, y).
func (p *Gray4Bitmap) Level(x, y int) uint8 {
	if !(image.Point{X: x, Y: y}.In(p.Rect)) {
		return 0
	}
	offset, shift := p.pixOffset(x, y)
	return (p.Pix[offset] >> shift) & 0x0F
}

// Set sets the color of the pixel at (x, y).
func (p *Gray4Bitmap) Set(x, y int, c color.Color) {
	p.SetLevel(x, y, Gray4Model.Convert(c).(Gray4).Y)
}

// SetLevel sets the 4-bit level of the pixel at (x, y).
func (p *Gray4Bitmap) SetLevel(x, y int, level uint8) {
	if !(image.Point{X: x, Y: y}.In(p.Rect)) {
		return
	}
	offset, shift := p.pixOffset(x, y)
	// Clear the nibble and set the new value
	p.Pix[offset] = (p.Pix[offset] &^ (0x0F << shift)) | ((level & 0x0F) << shift)
}

// pixOffset returns the byte offset and bit shift for the pixel at (x, y).
// Even x uses the high nibble (shift 4), odd x uses the low nibble (shift 0).
func (p *Gray4Bitmap) pixOffset(x, y int) (offset int, shift uint) {
	x -= p.Rect.Min.X
	offset = (y-p.Rect.Min.Y)*p.Stride + x/2
	shift = uint(4 * (1 - (x & 1)))
	return
}
