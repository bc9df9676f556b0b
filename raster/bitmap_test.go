package raster

import (
	"image"
	"image/color"
	"testing"
)

func TestNewBitmapSizing(t *testing.T) {
	tests := []struct {
		w, h       int
		wantStride int
		wantLen    int
	}{
		{8, 2, 1, 2},
		{9, 2, 2, 4},
		{1, 1, 1, 1},
		{0, 0, 0, 0},
	}
	for _, tt := range tests {
		bm := NewBitmap(image.Rect(0, 0, tt.w, tt.h))
		if bm.Stride != tt.wantStride || len(bm.Pix) != tt.wantLen {
			t.Errorf("NewBitmap(%dx%d) stride=%d len=%d, want %d/%d",
				tt.w, tt.h, bm.Stride, len(bm.Pix), tt.wantStride, tt.wantLen)
		}
	}
}

func TestBitmapSetAndGet(t *testing.T) {
	bm := NewBitmap(image.Rect(0, 0, 16, 2))

	bm.SetBit(0, 0, true)
	bm.SetBit(7, 0, true)
	bm.SetBit(8, 1, true)

	if bm.Pix[0] != 0x81 {
		t.Errorf("byte 0 = %#02x, want 0x81 (bit 7 is leftmost)", bm.Pix[0])
	}
	if bm.Pix[3] != 0x80 {
		t.Errorf("row 1 byte 1 = %#02x, want 0x80", bm.Pix[3])
	}

	if !bm.BitAt(0, 0) || !bm.BitAt(7, 0) || !bm.BitAt(8, 1) {
		t.Error("BitAt did not read back set bits")
	}
	if bm.BitAt(1, 0) {
		t.Error("BitAt read an unset bit as dark")
	}

	bm.SetBit(7, 0, false)
	if bm.BitAt(7, 0) {
		t.Error("SetBit(false) did not clear the bit")
	}

	// Out of bounds is a no-op read/write.
	bm.SetBit(-1, 0, true)
	bm.SetBit(16, 0, true)
	if bm.BitAt(-1, 0) || bm.BitAt(16, 0) {
		t.Error("out-of-bounds BitAt should report light")
	}
}

func TestBitmapImageInterface(t *testing.T) {
	bm := NewBitmap(image.Rect(0, 0, 8, 1))
	bm.SetBit(2, 0, true)

	if bm.ColorModel() != MonoModel {
		t.Error("ColorModel() did not return MonoModel")
	}
	r, g, b, a := bm.At(2, 0).RGBA()
	if r != 0 || g != 0 || b != 0 || a != 0xFFFF {
		t.Errorf("dark pixel RGBA = %d,%d,%d,%d, want opaque black", r, g, b, a)
	}
	r, _, _, _ = bm.At(3, 0).RGBA()
	if r != 0xFFFF {
		t.Error("light pixel should read back as white")
	}

	// Set via the generic color path.
	bm.Set(4, 0, color.RGBA{A: 255})
	if !bm.BitAt(4, 0) {
		t.Error("Set(black) did not set the dark bit")
	}
	bm.Set(4, 0, color.RGBA{R: 255, G: 255, B: 255, A: 255})
	if bm.BitAt(4, 0) {
		t.Error("Set(white) did not clear the dark bit")
	}
}

func TestNewGray4BitmapSizing(t *testing.T) {
	tests := []struct {
		w, h       int
		wantStride int
	}{
		{4, 2, 2},
		{5, 2, 3}, // odd widths round the stride up
		{1, 1, 1},
	}
	for _, tt := range tests {
		bm := NewGray4Bitmap(image.Rect(0, 0, tt.w, tt.h))
		if bm.Stride != tt.wantStride || len(bm.Pix) != tt.wantStride*tt.h {
			t.Errorf("NewGray4Bitmap(%dx%d) stride=%d len=%d", tt.w, tt.h, bm.Stride, len(bm.Pix))
		}
	}
}

func TestGray4BitmapNibbleLayout(t *testing.T) {
	bm := NewGray4Bitmap(image.Rect(0, 0, 4, 1))

	bm.SetLevel(0, 0, 5)
	bm.SetLevel(1, 0, 10)
	bm.SetLevel(2, 0, 3)
	bm.SetLevel(3, 0, 12)

	if bm.Pix[0] != 0x5A || bm.Pix[1] != 0x3C {
		t.Errorf("bytes = %#02x %#02x, want 0x5A 0x3C (high nibble = even column)", bm.Pix[0], bm.Pix[1])
	}

	for i, want := range []uint8{5, 10, 3, 12} {
		if got := bm.Level(i, 0); got != want {
			t.Errorf("Level(%d, 0) = %d, want %d", i, got, want)
		}
	}

	// Overwrite must only touch its own nibble.
	bm.SetLevel(0, 0, 15)
	if bm.Pix[0] != 0xFA {
		t.Errorf("byte after overwrite = %#02x, want 0xFA", bm.Pix[0])
	}
}

func TestGray4ColorRoundTrip(t *testing.T) {
	for _, level := range []uint8{0, 5, 10, 15} {
		c := Gray4{Y: level}
		r, g, b, a := c.RGBA()
		want := uint32(level) * 0x1111
		if r != want || g != want || b != want || a != 0xFFFF {
			t.Errorf("Gray4{%d}.RGBA() = %d,%d,%d,%d", level, r, g, b, a)
		}
		if got := Gray4Model.Convert(c).(Gray4); got.Y != level {
			t.Errorf("model round trip of level %d = %d", level, got.Y)
		}
	}
}

func TestGray4BitmapImageInterface(t *testing.T) {
	bm := NewGray4Bitmap(image.Rect(0, 0, 2, 1))
	bm.SetLevel(0, 0, 15)

	if bm.ColorModel() != Gray4Model {
		t.Error("ColorModel() did not return Gray4Model")
	}
	if got := bm.Gray4At(0, 0); got.Y != 15 {
		t.Errorf("Gray4At = %d, want 15", got.Y)
	}
	if got := bm.Level(5, 0); got != 0 {
		t.Errorf("out-of-bounds Level = %d, want 0", got)
	}

	bm.Set(1, 0, color.White)
	if bm.Level(1, 0) != 15 {
		t.Error("Set(white) should store level 15")
	}
}
