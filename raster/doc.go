// Package raster converts RGBA pixel buffers into the packed rasters that
// thermal print heads consume: 1 bit per pixel monochrome or 4 bits per
// pixel grayscale (16 levels).
//
// Both converters share the same sampling front end: each pixel's weighted
// luminance is composited over a white background using its alpha channel
// and gamma corrected with v^(1/gamma) before any quantization happens.
//
// Monochrome conversion supports four halftoning algorithms:
//
// - Ordered: fixed 8x8 Bayer threshold matrix, no state between pixels
// - FloydSteinberg: classic 4-neighbor error diffusion (weights /16)
// - Atkinson: 6-neighbor diffusion that only propagates 6/8 of the error
// - Stucki: wide 12-neighbor diffusion (weights /42)
//
// Grayscale conversion maps the sampled brightness through a fixed thermal
// response table, then compresses 256 levels to 16 with a 4x4 ordered
// dither of the rounding residual.
//
// Memory layout of the monochrome output (8 pixels per byte, MSB first):
//
//	Pixels: 0 1 2 3 4 5 6 7
//	Bits:   7 6 5 4 3 2 1 0
//
// Memory layout of the grayscale output (2 pixels per byte):
//
//	Pixels: 0  1  2  3
//	Levels: 5  10 3  12
//	Bytes:  0x5A     0x3C
//
// Rows are always byte aligned; the trailing byte of a row is zero padded
// when the width is not a multiple of the group size. The width reported to
// the printer must be the pixel width, not the padded byte-row width.
//
// Example usage:
//
//	img := image.NewRGBA(image.Rect(0, 0, 512, 256))
//	// ... draw into img ...
//	bm, err := raster.Mono(img, raster.FloydSteinberg, 1.8)
//	if err != nil {
//		// ...
//	}
//	// bm.Pix holds ceil(512/8)*256 packed bytes, ready for the wire.
//
// The converters are pure functions: they hold no state across calls and
// may run concurrently on independent images.
package raster
