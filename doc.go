// Package eposprint drives ePOS network thermal receipt printers over their
// SOAP/XML print service.
//
// The package builds print documents (text, raster images, barcodes, 2D
// codes, paper cuts, drawer pulses), converts images into the printer's
// packed monochrome or 16-level grayscale wire format (see the raster
// subpackage), and submits jobs over HTTP with exponential-backoff retry
// and decoded ASB status.
//
// # Printer Characteristics
//
// - 1-bit monochrome and 4-bit grayscale ("gray16") raster printing
// - 58mm and 80mm heads (384, 512 or 576 dots per line are common)
// - Roll paper with autocutter and near-end/end detectors
// - Cash drawer kick-out connector
// - Status reporting via an automatic status back (ASB) bitmask
//
// # Connection
//
// The printer exposes its print service at
//
//	http://<host>/cgi-bin/epos/service.cgi?devid=<device id>&timeout=<ms>
//
// The default device id is "local_printer". No pairing is needed; any host
// that can reach TCP port 80 can print.
//
// # Basic Usage
//
// Example of printing a receipt:
//
//	package main
//
//	import (
//		"context"
//		"log"
//
//		"github.com/flavioheleno/eposprint"
//	)
//
//	func main() {
//		p, err := eposprint.New("192.168.1.20", nil)
//		if err != nil {
//			log.Fatal(err)
//		}
//		defer p.Halt()
//
//		doc := eposprint.NewDocument().
//			AddTextAlign(eposprint.AlignCenter).
//			AddTextSize(2, 2).
//			AddText("Coffee Corner\n").
//			AddTextSize(1, 1).
//			AddText("1x flat white      3.80\n").
//			AddBarcode("4006381333931", eposprint.BarcodeEAN13, eposprint.HRIBelow, 2, 64).
//			AddFeed(3).
//			AddCut(eposprint.CutFeed)
//
//		res, err := p.Print(context.Background(), doc)
//		if err != nil {
//			log.Fatal(err)
//		}
//		log.Printf("printed, status %v", res.Status)
//	}
//
// # Printing Images
//
// The Printer implements periph.io's display.Drawer, so any image.Image can
// be printed directly:
//
//	img, _, err := image.Decode(file)
//	if err != nil {
//		log.Fatal(err)
//	}
//	if err := p.Draw(p.Bounds(), img, image.Point{}); err != nil {
//		log.Fatal(err)
//	}
//
// Draw halftones the image with the configured algorithm and gamma; set
// Opts.Gray for 16-level grayscale output on capable models. For full
// control, convert with the raster package and attach the result with
// Document.AddImage.
//
// # Error Handling
//
// Transport failures (connection refused, HTTP 5xx) are retried with
// exponential backoff up to Opts.MaxRetries times. When the printer itself
// rejects a job, Print returns a *PrintError carrying the vendor result
// code together with the decoded Status bitmask.
package eposprint
