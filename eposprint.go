package eposprint

import (
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"net/http"
	"time"

	"periph.io/x/conn/v3/display"

	"github.com/flavioheleno/eposprint/raster"
)

// Opts is the configuration for a network thermal printer.
type Opts struct {
	// Raster geometry
	Width      int // Print head width in dots (default: 512, must be a multiple of 8 and <=1024)
	PageHeight int // Drawable page area height in dots for Draw (default: 960)

	// Service addressing
	DeviceID string        // ePOS device id (default: "local_printer")
	Timeout  time.Duration // Printer-side job timeout and HTTP request timeout (default: 60s)

	// Halftoning for Draw
	Algorithm raster.Algorithm // Dither algorithm (default: Ordered)
	Gamma     float64          // Gamma correction (default: 1.0, must be > 0)
	Gray      bool             // Print Draw output as 16-level grayscale instead of monochrome

	// Retry policy for transient transport failures
	MaxRetries    int           // Retries after the first attempt (default: 2)
	RetryInterval time.Duration // Base backoff interval, doubled per retry (default: 500ms)

	// Client overrides the HTTP client (optional, nil uses a default with
	// Timeout applied).
	Client *http.Client
}

// Printer is the device handle for an ePOS network thermal printer.
type Printer struct {
	// Communication
	client   *http.Client
	host     string
	deviceID string
	timeout  time.Duration

	// Retry policy
	maxRetries    int
	retryInterval time.Duration

	// Page geometry and halftoning for Draw
	rect  image.Rectangle
	algo  raster.Algorithm
	gamma float64
	gray  bool

	// State
	halted bool
}

var errHalted = errors.New("eposprint: halted")

// New creates a device handle for the printer reachable at host
// (for example "192.168.1.20" or "192.168.1.20:80").
//
// opts can be nil to use defaults (512 dots wide, monochrome ordered
// dithering for Draw).
func New(host string, opts *Opts) (*Printer, error) {
	if host == "" {
		return nil, errors.New("eposprint: host must not be empty")
	}

	// Apply defaults and validate options
	if opts == nil {
		opts = &Opts{}
	}

	width := opts.Width
	if width == 0 {
		width = 512
	}
	if width <= 0 || width%8 != 0 || width > 1024 {
		return nil, errors.New("eposprint: width must be a multiple of 8 between 8 and 1024")
	}

	pageHeight := opts.PageHeight
	if pageHeight == 0 {
		pageHeight = 960
	}
	if pageHeight < 1 {
		return nil, errors.New("eposprint: page height must be at least 1")
	}

	deviceID := opts.DeviceID
	if deviceID == "" {
		deviceID = "local_printer"
	}

	timeout := opts.Timeout
	if timeout == 0 {
		timeout = 60 * time.Second
	}
	if timeout < 0 {
		return nil, errors.New("eposprint: timeout must be positive")
	}

	gamma := opts.Gamma
	if gamma == 0 {
		gamma = 1.0
	}
	if gamma < 0 {
		return nil, raster.ErrInvalidGamma
	}

	algo := opts.Algorithm
	switch algo {
	case raster.Ordered, raster.FloydSteinberg, raster.Atkinson, raster.Stucki:
	default:
		return nil, fmt.Errorf("eposprint: unknown algorithm %d", int(algo))
	}

	if opts.MaxRetries < 0 {
		return nil, errors.New("eposprint: max retries must not be negative")
	}
	retryInterval := opts.RetryInterval
	if retryInterval == 0 {
		retryInterval = 500 * time.Millisecond
	}

	maxRetries := opts.MaxRetries
	if opts.MaxRetries == 0 {
		maxRetries = 2
	}

	client := opts.Client
	if client == nil {
		client = &http.Client{Timeout: timeout}
	}

	return &Printer{
		client:        client,
		host:          host,
		deviceID:      deviceID,
		timeout:       timeout,
		maxRetries:    maxRetries,
		retryInterval: retryInterval,
		rect:          image.Rect(0, 0, width, pageHeight),
		algo:          algo,
		gamma:         gamma,
		gray:          opts.Gray,
	}, nil
}

// Print sends a document to the printer and returns its response.
//
// A transport-level failure is retried per the configured policy. A
// printer-level failure (cover open, out of paper, ...) returns the parsed
// Result together with a *PrintError describing the vendor code.
func (p *Printer) Print(ctx context.Context, doc *Document) (*Result, error) {
	if p.halted {
		return nil, errHalted
	}
	body, err := doc.Build()
	if err != nil {
		return nil, err
	}
	res, err := p.post(ctx, body)
	if err != nil {
		return nil, err
	}
	if !res.Success {
		return res, &PrintError{Code: res.Code, Status: res.Status}
	}
	return res, nil
}

// ColorModel returns the color model of the printable area.
func (p *Printer) ColorModel() color.Model {
	if p.gray {
		return raster.Gray4Model
	}
	return raster.MonoModel
}

// Bounds returns the printable page area.
func (p *Printer) Bounds() image.Rectangle {
	return p.rect
}

// Draw rasterizes an image and prints it as one job, implementing
// periph.io's display.Drawer. The dst rectangle selects the destination
// region on the page; the printed band always spans the full head width,
// with uncovered dots left blank.
func (p *Printer) Draw(dst image.Rectangle, src image.Image, sp image.Point) error {
	if p.halted {
		return errHalted
	}

	// Clip to the printable area
	dst = dst.Intersect(p.rect)
	if dst.Empty() {
		return nil
	}

	// Render the band: full head width, white background, source composited
	// at its destination offset.
	band := image.NewRGBA(image.Rect(0, 0, p.rect.Dx(), dst.Dy()))
	draw.Draw(band, band.Bounds(), image.NewUniform(color.White), image.Point{}, draw.Src)
	draw.Draw(band, dst.Sub(image.Pt(0, dst.Min.Y)), src, sp, draw.Over)

	doc := NewDocument()
	if p.gray {
		bm, err := raster.Gray16(band, p.gamma)
		if err != nil {
			return err
		}
		doc.AddGrayImage(bm)
	} else {
		bm, err := raster.Mono(band, p.algo, p.gamma)
		if err != nil {
			return err
		}
		doc.AddImage(bm)
	}

	ctx, cancel := context.WithTimeout(context.Background(), p.timeout)
	defer cancel()
	_, err := p.Print(ctx, doc)
	return err
}

// Halt rejects further jobs and closes idle connections.
// After calling Halt, a new Printer must be created to print again.
func (p *Printer) Halt() error {
	p.halted = true
	p.client.CloseIdleConnections()
	return nil
}

// String returns a string representation of the device.
func (p *Printer) String() string {
	return fmt.Sprintf("eposprint.Printer{%s/%s %dx%d}", p.host, p.deviceID, p.rect.Dx(), p.rect.Dy())
}

var _ display.Drawer = &Printer{}
