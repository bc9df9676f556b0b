package eposprint

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const responseEnvelope = `<?xml version="1.0" encoding="utf-8"?>` +
	`<soapenv:Envelope xmlns:soapenv="http://schemas.xmlsoap.org/soap/envelope/"><soapenv:Body>` +
	`<response xmlns="http://www.epson-pos.com/schemas/2011/03/epos-print" success="%s" code="%s" status="%d" battery="0"></response>` +
	`</soapenv:Body></soapenv:Envelope>`

func successBody() string {
	return fmt.Sprintf(responseEnvelope, "true", "", uint32(StatusPrintSuccess))
}

// testPrinter creates a Printer pointed at the test server with a fast
// retry policy.
func testPrinter(t *testing.T, srv *httptest.Server, opts *Opts) *Printer {
	t.Helper()
	if opts == nil {
		opts = &Opts{}
	}
	if opts.RetryInterval == 0 {
		opts.RetryInterval = time.Millisecond
	}
	p, err := New(strings.TrimPrefix(srv.URL, "http://"), opts)
	require.NoError(t, err)
	return p
}

func TestNewValidation(t *testing.T) {
	tests := []struct {
		name    string
		host    string
		opts    *Opts
		wantErr bool
	}{
		{"nil options (uses defaults)", "192.168.1.20", nil, false},
		{"valid 384 dots", "192.168.1.20", &Opts{Width: 384}, false},
		{"empty host", "", nil, true},
		{"width not multiple of 8", "h", &Opts{Width: 100}, true},
		{"width negative", "h", &Opts{Width: -8}, true},
		{"width too large", "h", &Opts{Width: 2048}, true},
		{"negative page height", "h", &Opts{PageHeight: -1}, true},
		{"negative gamma", "h", &Opts{Gamma: -1}, true},
		{"negative retries", "h", &Opts{MaxRetries: -1}, true},
		{"unknown algorithm", "h", &Opts{Algorithm: 42}, true},
		{"gray with defaults", "h", &Opts{Gray: true}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.host, tt.opts)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestPrinterDefaults(t *testing.T) {
	p, err := New("192.168.1.20", nil)
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 512, 960), p.Bounds())
	assert.Equal(t, "eposprint.Printer{192.168.1.20/local_printer 512x960}", p.String())
	assert.Contains(t, p.endpoint(), "http://192.168.1.20/cgi-bin/epos/service.cgi?")
	assert.Contains(t, p.endpoint(), "devid=local_printer")
	assert.Contains(t, p.endpoint(), "timeout=60000")
}

func TestPrintSuccess(t *testing.T) {
	var gotBody atomic.Value
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/cgi-bin/epos/service.cgi", r.URL.Path)
		assert.Equal(t, "local_printer", r.URL.Query().Get("devid"))
		assert.Equal(t, "text/xml; charset=utf-8", r.Header.Get("Content-Type"))
		body, _ := io.ReadAll(r.Body)
		gotBody.Store(string(body))
		io.WriteString(w, successBody())
	}))
	defer srv.Close()

	p := testPrinter(t, srv, nil)
	res, err := p.Print(context.Background(), NewDocument().AddText("hi\n").AddCut(CutFeed))
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.True(t, res.Status&StatusPrintSuccess != 0)

	sent := gotBody.Load().(string)
	assert.True(t, strings.HasPrefix(sent, `<?xml version="1.0" encoding="utf-8"?><s:Envelope`))
	assert.Contains(t, sent, `<epos-print xmlns="http://www.epson-pos.com/schemas/2011/03/epos-print">`)
	assert.Contains(t, sent, `<cut type="feed">`)
	assert.True(t, strings.HasSuffix(sent, `</s:Body></s:Envelope>`))
}

func TestPrintRetriesTransientFailures(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) <= 2 {
			http.Error(w, "busy", http.StatusServiceUnavailable)
			return
		}
		io.WriteString(w, successBody())
	}))
	defer srv.Close()

	p := testPrinter(t, srv, &Opts{MaxRetries: 3})
	res, err := p.Print(context.Background(), NewDocument().AddText("x\n"))
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Equal(t, int32(3), calls.Load())
}

func TestPrintGivesUpAfterMaxRetries(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.Error(w, "busy", http.StatusInternalServerError)
	}))
	defer srv.Close()

	p := testPrinter(t, srv, &Opts{MaxRetries: 2})
	_, err := p.Print(context.Background(), NewDocument().AddText("x\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "giving up after 3 attempts")
	assert.Equal(t, int32(3), calls.Load())
}

func TestPrintDoesNotRetryClientErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.Error(w, "nope", http.StatusNotFound)
	}))
	defer srv.Close()

	p := testPrinter(t, srv, &Opts{MaxRetries: 5})
	_, err := p.Print(context.Background(), NewDocument().AddText("x\n"))
	require.Error(t, err)
	assert.Equal(t, int32(1), calls.Load())
}

func TestPrintCancelledContext(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "busy", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	p := testPrinter(t, srv, &Opts{MaxRetries: 5, RetryInterval: time.Minute})
	_, err := p.Print(ctx, NewDocument().AddText("x\n"))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestPrintReportsPrinterFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, responseEnvelope, "false", "EPTR_REC_EMPTY", uint32(StatusPaperEnd))
	}))
	defer srv.Close()

	p := testPrinter(t, srv, nil)
	res, err := p.Print(context.Background(), NewDocument().AddText("x\n"))
	require.Error(t, err)

	var perr *PrintError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, "EPTR_REC_EMPTY", perr.Code)
	assert.True(t, perr.Status&StatusPaperEnd != 0)

	// The failed result is still returned for status inspection.
	require.NotNil(t, res)
	assert.False(t, res.Success)
	assert.False(t, res.Status.PaperPresent())
}

func TestPrintBuilderErrorSurfacesBeforeSending(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
	}))
	defer srv.Close()

	p := testPrinter(t, srv, nil)
	_, err := p.Print(context.Background(), NewDocument().AddFeed(-1))
	require.Error(t, err)
	assert.Equal(t, int32(0), calls.Load())
}

func TestPrintMalformedResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, "this is not xml <")
	}))
	defer srv.Close()

	p := testPrinter(t, srv, nil)
	_, err := p.Print(context.Background(), NewDocument().AddText("x\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "malformed response")
}

func TestDrawSendsRasterJob(t *testing.T) {
	var gotBody atomic.Value
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		gotBody.Store(string(body))
		io.WriteString(w, successBody())
	}))
	defer srv.Close()

	p := testPrinter(t, srv, &Opts{Width: 64, PageHeight: 16})

	src := image.NewRGBA(image.Rect(0, 0, 64, 16))
	for y := 0; y < 16; y++ {
		for x := 0; x < 64; x++ {
			src.SetRGBA(x, y, color.RGBA{A: 255}) // solid black
		}
	}
	require.NoError(t, p.Draw(p.Bounds(), src, image.Point{}))

	sent := gotBody.Load().(string)
	assert.Contains(t, sent, `<image width="64" height="16" color="color_1" mode="mono">`)
}

func TestDrawGrayMode(t *testing.T) {
	var gotBody atomic.Value
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		gotBody.Store(string(body))
		io.WriteString(w, successBody())
	}))
	defer srv.Close()

	p := testPrinter(t, srv, &Opts{Width: 32, PageHeight: 8, Gray: true})
	require.NoError(t, p.Draw(p.Bounds(), image.NewRGBA(p.Bounds()), image.Point{}))

	sent := gotBody.Load().(string)
	assert.Contains(t, sent, `mode="gray16"`)
}

func TestDrawOutsideBoundsIsNoOp(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("no request expected for an empty destination")
	}))
	defer srv.Close()

	p := testPrinter(t, srv, &Opts{Width: 64, PageHeight: 16})
	err := p.Draw(image.Rect(100, 100, 120, 120), image.NewRGBA(image.Rect(0, 0, 8, 8)), image.Point{})
	assert.NoError(t, err)
}

func TestHalt(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, successBody())
	}))
	defer srv.Close()

	p := testPrinter(t, srv, nil)
	require.NoError(t, p.Halt())

	_, err := p.Print(context.Background(), NewDocument().AddText("x\n"))
	assert.ErrorIs(t, err, errHalted)
	assert.ErrorIs(t, p.Draw(p.Bounds(), image.NewRGBA(image.Rect(0, 0, 1, 1)), image.Point{}), errHalted)
}

func TestPrinterColorModel(t *testing.T) {
	mono, err := New("h", nil)
	require.NoError(t, err)
	gray, err := New("h", &Opts{Gray: true})
	require.NoError(t, err)
	assert.NotEqual(t, mono.ColorModel(), gray.ColorModel())
}
