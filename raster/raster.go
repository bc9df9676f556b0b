package raster

import (
	"errors"
	"fmt"
	"image"
	"math"
)

// Algorithm selects the halftoning strategy used for monochrome conversion.
type Algorithm int

const (
	// Ordered thresholds every pixel against a fixed 8x8 Bayer matrix.
	Ordered Algorithm = iota
	// FloydSteinberg diffuses quantization error over 4 neighbors (/16).
	FloydSteinberg
	// Atkinson diffuses 6/8 of the quantization error over 6 neighbors.
	Atkinson
	// Stucki diffuses quantization error over 12 neighbors (/42).
	Stucki
)

// String returns the name of the algorithm.
func (a Algorithm) String() string {
	switch a {
	case Ordered:
		return "ordered"
	case FloydSteinberg:
		return "floydsteinberg"
	case Atkinson:
		return "atkinson"
	case Stucki:
		return "stucki"
	}
	return fmt.Sprintf("Algorithm(%d)", int(a))
}

// ParseAlgorithm returns the Algorithm named by s.
func ParseAlgorithm(s string) (Algorithm, error) {
	switch s {
	case "ordered":
		return Ordered, nil
	case "floydsteinberg":
		return FloydSteinberg, nil
	case "atkinson":
		return Atkinson, nil
	case "stucki":
		return Stucki, nil
	}
	return 0, fmt.Errorf("raster: unknown algorithm %q", s)
}

var (
	// ErrInvalidDimensions is returned when the source image is empty or its
	// pixel buffer does not cover width*height RGBA quadruples.
	ErrInvalidDimensions = errors.New("raster: invalid image dimensions")
	// ErrInvalidGamma is returned when gamma is not a positive finite number.
	ErrInvalidGamma = errors.New("raster: gamma must be a positive finite number")
)

// diffusionThreshold is the fixed dark/light cut for error diffusion modes.
const diffusionThreshold = 128

// bayer8 holds the ordered dither thresholds: the standard 8x8 Bayer matrix
// scaled to 4b+2 so thresholds span 2..254. Pure black (0) always prints and
// pure white (255) never does, independent of position.
var bayer8 = [8][8]uint8{
	{2, 130, 34, 162, 10, 138, 42, 170},
	{194, 66, 226, 98, 202, 74, 234, 106},
	{50, 178, 18, 146, 58, 186, 26, 154},
	{242, 114, 210, 82, 250, 122, 218, 90},
	{14, 142, 46, 174, 6, 134, 38, 166},
	{206, 78, 238, 110, 198, 70, 230, 102},
	{62, 190, 30, 158, 54, 182, 22, 150},
	{254, 126, 222, 94, 246, 118, 214, 86},
}

// gray4Dither decides residual round-up for the 4-bit quantizer: a 4x4 Bayer
// matrix rescaled to the residual range 0..16.
var gray4Dither = [4][4]uint8{
	{0, 9, 2, 11},
	{13, 4, 15, 6},
	{3, 12, 1, 10},
	{16, 7, 14, 5},
}

// validate checks the shared input contract of both converters and returns
// the pixel dimensions.
func validate(img *image.RGBA, gamma float64) (w, h int, err error) {
	if img == nil {
		return 0, 0, fmt.Errorf("%w: nil image", ErrInvalidDimensions)
	}
	w, h = img.Rect.Dx(), img.Rect.Dy()
	if w <= 0 || h <= 0 {
		return 0, 0, fmt.Errorf("%w: %dx%d", ErrInvalidDimensions, w, h)
	}
	if img.PixOffset(img.Rect.Max.X-1, img.Rect.Max.Y-1)+4 > len(img.Pix) {
		return 0, 0, fmt.Errorf("%w: pixel buffer too short for %dx%d", ErrInvalidDimensions, w, h)
	}
	if !(gamma > 0) || math.IsInf(gamma, 0) {
		return 0, 0, fmt.Errorf("%w: %v", ErrInvalidGamma, gamma)
	}
	return w, h, nil
}

// sample returns the brightness (0-255) of one RGBA pixel: weighted luminance
// composited over a white background, then gamma corrected with v^(1/gamma).
func sample(r, g, b, a uint8, invGamma float64) float64 {
	l := 0.29891*float64(r) + 0.58661*float64(g) + 0.11448*float64(b)
	c := l*float64(a)/255 + (255 - float64(a))
	return math.Pow(c/255, invGamma) * 255
}

// Mono converts img into a 1-bit Bitmap using the given halftoning algorithm.
//
// Every pixel is sampled (alpha over white, gamma corrected) and classified
// dark or light. Ordered mode thresholds against a fixed matrix; the
// diffusion modes threshold against 128 after adding the error carried into
// the pixel, then spread the residual into not-yet-visited neighbors. The
// pass is a single row-major sweep and allocates only the three rolling error
// rows plus the output.
func Mono(img *image.RGBA, algo Algorithm, gamma float64) (*Bitmap, error) {
	w, h, err := validate(img, gamma)
	if err != nil {
		return nil, err
	}
	switch algo {
	case Ordered, FloydSteinberg, Atkinson, Stucki:
	default:
		return nil, fmt.Errorf("raster: unknown algorithm %d", int(algo))
	}

	invGamma := 1 / gamma
	out := NewBitmap(image.Rect(0, 0, w, h))
	diffuse := algo != Ordered

	// Rolling error rows for the current row and the two below it. The +4
	// slack absorbs the -2..+2 kernel offsets without bounds checks; error
	// for column x lives at index x+2.
	var cur, next, next2 []float64
	if diffuse {
		cur = make([]float64, w+4)
		next = make([]float64, w+4)
		next2 = make([]float64, w+4)
	}

	di := 0
	for y := 0; y < h; y++ {
		row := img.PixOffset(img.Rect.Min.X, img.Rect.Min.Y+y)
		var acc byte
		var nbits uint
		for x := 0; x < w; x++ {
			p := row + x*4
			v := sample(img.Pix[p], img.Pix[p+1], img.Pix[p+2], img.Pix[p+3], invGamma)

			var dark bool
			if diffuse {
				v += cur[x+2]
				dark = v < diffusionThreshold
				e := v
				if !dark {
					e -= 255
				}
				switch algo {
				case FloydSteinberg:
					cur[x+3] += e * 7 / 16
					next[x+1] += e * 3 / 16
					next[x+2] += e * 5 / 16
					next[x+3] += e / 16
				case Atkinson:
					e /= 8
					cur[x+3] += e
					cur[x+4] += e
					next[x+1] += e
					next[x+2] += e
					next[x+3] += e
					next2[x+2] += e
				case Stucki:
					e /= 42
					cur[x+3] += 8 * e
					cur[x+4] += 4 * e
					next[x] += 2 * e
					next[x+1] += 4 * e
					next[x+2] += 8 * e
					next[x+3] += 4 * e
					next2[x] += e
					next2[x+1] += 2 * e
					next2[x+2] += 4 * e
					next2[x+3] += 2 * e
					next2[x+4] += e
				}
			} else {
				dark = v < float64(bayer8[y&7][x&7])
			}

			acc <<= 1
			if dark {
				acc |= 1
			}
			nbits++
			if nbits == 8 || x == w-1 {
				// Left-align a partial trailing group; padding bits stay 0.
				acc <<= 8 - nbits
				// Printer firmware chokes on the raw byte 16; the vendor
				// encoder substitutes 32 on the wire. Compatibility rule,
				// not a rounding choice.
				if acc == 16 {
					acc = 32
				}
				out.Pix[di] = acc
				di++
				acc, nbits = 0, 0
			}
		}
		if diffuse {
			// Rotate the ring: the row below becomes current, the spent row
			// is zeroed and becomes the new next-next.
			cur, next, next2 = next, next2, cur
			clear(next2)
		}
	}
	return out, nil
}

// Gray16 converts img into a 4-bit Gray4Bitmap.
//
// Every pixel is sampled (alpha over white, gamma corrected), mapped through
// the thermal response table and quantized to 16 levels. The rounding
// residual of the 256-to-16 compression is ordered-dithered with a 4x4
// matrix, trading spatial for tonal resolution without any error carried
// between pixels.
func Gray16(img *image.RGBA, gamma float64) (*Gray4Bitmap, error) {
	w, h, err := validate(img, gamma)
	if err != nil {
		return nil, err
	}

	invGamma := 1 / gamma
	out := NewGray4Bitmap(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		row := img.PixOffset(img.Rect.Min.X, img.Rect.Min.Y+y)
		for x := 0; x < w; x++ {
			p := row + x*4
			v := sample(img.Pix[p], img.Pix[p+1], img.Pix[p+2], img.Pix[p+3], invGamma)
			// Round to the nearest 8-bit value before the table lookup; the
			// luminance weights do not sum to exactly 1.0 in binary.
			idx := int(v + 0.5)
			if idx > 255 {
				idx = 255
			} else if idx < 0 {
				idx = 0
			}
			t := thermalResponse[idx]
			level := t / 17
			if gray4Dither[y&3][x&3] < t%17 {
				level++
			}
			out.SetLevel(x, y, level)
		}
	}
	return out, nil
}
