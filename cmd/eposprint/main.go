// Command eposprint sends an image file to an ePOS network thermal printer,
// halftoning it for the print head on the way.
package main

import (
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"log/slog"
	"os"
	"time"

	"github.com/urfave/cli"
	_ "golang.org/x/image/bmp"
	xdraw "golang.org/x/image/draw"

	"github.com/flavioheleno/eposprint"
	"github.com/flavioheleno/eposprint/raster"
)

func main() {
	app := cli.NewApp()
	app.Name = "eposprint"
	app.Description = "Print an image on an ePOS network thermal printer"
	app.Usage = "eposprint [options] <image file>"
	app.Version = "1.0.0"
	app.Flags = []cli.Flag{
		cli.StringFlag{
			Name:  "printer",
			Usage: "Printer host, e.g. 192.168.1.20 or 192.168.1.20:80",
		},
		cli.StringFlag{
			Name:  "device-id",
			Usage: "ePOS device id",
			Value: "local_printer",
		},
		cli.IntFlag{
			Name:  "width",
			Usage: "Print head width in dots",
			Value: 512,
		},
		cli.BoolFlag{
			Name:  "gray",
			Usage: "Print as 16-level grayscale instead of monochrome",
		},
		cli.StringFlag{
			Name:  "dither",
			Usage: "Monochrome dither algorithm: ordered, floydsteinberg, atkinson, stucki",
			Value: "floydsteinberg",
		},
		cli.Float64Flag{
			Name:  "gamma",
			Usage: "Gamma correction (typically 1.0-3.0)",
			Value: 1.8,
		},
		cli.BoolFlag{
			Name:  "cut",
			Usage: "Cut the paper after printing",
		},
		cli.IntFlag{
			Name:  "feed",
			Usage: "Feed lines after the image",
			Value: 0,
		},
		cli.DurationFlag{
			Name:  "timeout",
			Usage: "Job and request timeout",
			Value: 60 * time.Second,
		},
		cli.IntFlag{
			Name:  "retries",
			Usage: "Retries on transient transport failures",
			Value: 2,
		},
		cli.BoolFlag{
			Name:  "dry-run",
			Usage: "Write the job XML to stdout instead of printing",
		},
	}
	app.Action = runPrint

	if err := app.Run(os.Args); err != nil {
		slog.Error("print failed", "error", err)
		os.Exit(1)
	}
}

func runPrint(c *cli.Context) error {
	if c.NArg() < 1 {
		cli.ShowAppHelp(c)
		return errors.New("no image file provided")
	}

	img, err := loadImage(c.Args().Get(0))
	if err != nil {
		return err
	}

	width := c.Int("width")
	algo, err := raster.ParseAlgorithm(c.String("dither"))
	if err != nil {
		return err
	}

	doc := eposprint.NewDocument()
	scaled := scaleToWidth(img, width)
	if c.Bool("gray") {
		bm, err := raster.Gray16(scaled, c.Float64("gamma"))
		if err != nil {
			return err
		}
		doc.AddGrayImage(bm)
	} else {
		bm, err := raster.Mono(scaled, algo, c.Float64("gamma"))
		if err != nil {
			return err
		}
		doc.AddImage(bm)
	}
	if lines := c.Int("feed"); lines > 0 {
		doc.AddFeed(lines)
	}
	if c.Bool("cut") {
		doc.AddCut(eposprint.CutFeed)
	}

	if c.Bool("dry-run") {
		body, err := doc.Build()
		if err != nil {
			return err
		}
		_, err = fmt.Println(string(body))
		return err
	}

	host := c.String("printer")
	if host == "" {
		return errors.New("no printer host provided (use --printer)")
	}
	p, err := eposprint.New(host, &eposprint.Opts{
		Width:      width,
		DeviceID:   c.String("device-id"),
		Timeout:    c.Duration("timeout"),
		MaxRetries: c.Int("retries"),
	})
	if err != nil {
		return err
	}
	defer p.Halt()

	ctx, cancel := context.WithTimeout(context.Background(), c.Duration("timeout"))
	defer cancel()
	res, err := p.Print(ctx, doc)
	if err != nil {
		return err
	}
	slog.Info("printed", "status", res.Status.String())
	return nil
}

// loadImage decodes a PNG, JPEG, GIF or BMP file.
func loadImage(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decoding %s: %w", path, err)
	}
	return img, nil
}

// scaleToWidth fits the image to the print head width, preserving the
// aspect ratio. Images narrower than the head are printed as-is.
func scaleToWidth(img image.Image, width int) *image.RGBA {
	b := img.Bounds()
	if b.Dx() <= width {
		out := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
		xdraw.Draw(out, out.Bounds(), img, b.Min, xdraw.Src)
		return out
	}
	height := b.Dy() * width / b.Dx()
	if height < 1 {
		height = 1
	}
	out := image.NewRGBA(image.Rect(0, 0, width, height))
	xdraw.CatmullRom.Scale(out, out.Bounds(), img, b, xdraw.Src, nil)
	return out
}
