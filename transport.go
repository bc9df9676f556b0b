package eposprint

import (
	"bytes"
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

const (
	soapEnvelopeOpen  = `<?xml version="1.0" encoding="utf-8"?><s:Envelope xmlns:s="http://schemas.xmlsoap.org/soap/envelope/"><s:Body>`
	soapEnvelopeClose = `</s:Body></s:Envelope>`
)

// Result is the printer's answer to a print job.
type Result struct {
	// Success reports whether the job printed.
	Success bool
	// Code is the vendor result code on failure, empty on success.
	Code string
	// Status is the ASB status bitmask at response time.
	Status Status
	// Battery is the battery status field (battery powered models only).
	Battery uint32
}

// soapResponse mirrors the SOAP envelope the printer answers with. Element
// matching is by local name, so the service's namespace prefixes don't
// matter.
type soapResponse struct {
	XMLName xml.Name `xml:"Envelope"`
	Body    struct {
		Response struct {
			Success string `xml:"success,attr"`
			Code    string `xml:"code,attr"`
			Status  string `xml:"status,attr"`
			Battery string `xml:"battery,attr"`
		} `xml:"response"`
	} `xml:"Body"`
}

// transientError marks a failure worth retrying: connection problems and
// server-side (5xx) errors. Anything else aborts the retry loop.
type transientError struct {
	err error
}

func (e *transientError) Error() string { return e.err.Error() }
func (e *transientError) Unwrap() error { return e.err }

func transient(err error) error {
	return &transientError{err: err}
}

func isTransient(err error) bool {
	var te *transientError
	return errors.As(err, &te)
}

// endpoint builds the service URL for the configured device.
func (p *Printer) endpoint() string {
	q := url.Values{}
	q.Set("devid", p.deviceID)
	q.Set("timeout", strconv.FormatInt(p.timeout.Milliseconds(), 10))
	return fmt.Sprintf("http://%s/cgi-bin/epos/service.cgi?%s", p.host, q.Encode())
}

// post sends one SOAP request, retrying transient failures with exponential
// backoff. The context aborts both in-flight requests and backoff waits.
func (p *Printer) post(ctx context.Context, body []byte) (*Result, error) {
	envelope := make([]byte, 0, len(soapEnvelopeOpen)+len(body)+len(soapEnvelopeClose))
	envelope = append(envelope, soapEnvelopeOpen...)
	envelope = append(envelope, body...)
	envelope = append(envelope, soapEnvelopeClose...)

	var lastErr error
	for attempt := 0; attempt <= p.maxRetries; attempt++ {
		if attempt > 0 {
			// 1x, 2x, 4x... the configured interval.
			delay := p.retryInterval << uint(attempt-1)
			timer := time.NewTimer(delay)
			select {
			case <-ctx.Done():
				timer.Stop()
				return nil, ctx.Err()
			case <-timer.C:
			}
		}

		res, err := p.send(ctx, envelope)
		if err == nil {
			return res, nil
		}
		if !isTransient(err) {
			return nil, err
		}
		lastErr = err
	}
	return nil, fmt.Errorf("eposprint: giving up after %d attempts: %w", p.maxRetries+1, lastErr)
}

// send performs a single HTTP exchange and parses the response envelope.
func (p *Printer) send(ctx context.Context, envelope []byte) (*Result, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.endpoint(), bytes.NewReader(envelope))
	if err != nil {
		return nil, fmt.Errorf("eposprint: building request: %w", err)
	}
	req.Header.Set("Content-Type", "text/xml; charset=utf-8")
	req.Header.Set("SOAPAction", `""`)

	resp, err := p.client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, transient(fmt.Errorf("eposprint: sending request: %w", err))
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 500 {
		io.Copy(io.Discard, resp.Body)
		return nil, transient(fmt.Errorf("eposprint: printer returned HTTP %d", resp.StatusCode))
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("eposprint: printer returned HTTP %d", resp.StatusCode)
	}

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, transient(fmt.Errorf("eposprint: reading response: %w", err))
	}

	var env soapResponse
	if err := xml.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("eposprint: malformed response: %w", err)
	}

	r := env.Body.Response
	status, err := ParseStatus(r.Status)
	if err != nil {
		return nil, err
	}
	res := &Result{
		Success: r.Success == "true" || r.Success == "1",
		Code:    r.Code,
		Status:  status,
	}
	if r.Battery != "" {
		b, err := strconv.ParseUint(r.Battery, 10, 32)
		if err != nil {
			return nil, fmt.Errorf("eposprint: malformed battery status %q: %w", r.Battery, err)
		}
		res.Battery = uint32(b)
	}
	return res, nil
}
