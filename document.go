package eposprint

import (
	"bytes"
	"encoding/base64"
	"encoding/xml"
	"errors"
	"fmt"
	"strconv"

	"github.com/flavioheleno/eposprint/raster"
)

// Namespace of the ePOS-Print XML schema.
const printNamespace = "http://www.epson-pos.com/schemas/2011/03/epos-print"

// Align selects the horizontal print position.
type Align int

const (
	AlignLeft Align = iota
	AlignCenter
	AlignRight
)

// String returns the protocol attribute value for the alignment.
func (a Align) String() string {
	switch a {
	case AlignLeft:
		return "left"
	case AlignCenter:
		return "center"
	case AlignRight:
		return "right"
	}
	return fmt.Sprintf("Align(%d)", int(a))
}

func (a Align) valid() bool {
	return a >= AlignLeft && a <= AlignRight
}

// Font selects one of the printer's built-in fonts.
type Font int

const (
	FontA Font = iota
	FontB
	FontC
	FontD
	FontE
)

// String returns the protocol attribute value for the font.
func (f Font) String() string {
	switch f {
	case FontA:
		return "font_a"
	case FontB:
		return "font_b"
	case FontC:
		return "font_c"
	case FontD:
		return "font_d"
	case FontE:
		return "font_e"
	}
	return fmt.Sprintf("Font(%d)", int(f))
}

func (f Font) valid() bool {
	return f >= FontA && f <= FontE
}

// Cut selects the paper cut behavior.
type Cut int

const (
	// CutNoFeed cuts at the current position.
	CutNoFeed Cut = iota
	// CutFeed feeds to the cut position, then cuts.
	CutFeed
	// CutReserve cuts when subsequent data has fed past the cut position.
	CutReserve
)

// String returns the protocol attribute value for the cut type.
func (c Cut) String() string {
	switch c {
	case CutNoFeed:
		return "no_feed"
	case CutFeed:
		return "feed"
	case CutReserve:
		return "reserve"
	}
	return fmt.Sprintf("Cut(%d)", int(c))
}

func (c Cut) valid() bool {
	return c >= CutNoFeed && c <= CutReserve
}

// Drawer selects a cash drawer kick-out connector pin.
type Drawer int

const (
	Drawer1 Drawer = iota
	Drawer2
)

// String returns the protocol attribute value for the drawer.
func (d Drawer) String() string {
	switch d {
	case Drawer1:
		return "drawer_1"
	case Drawer2:
		return "drawer_2"
	}
	return fmt.Sprintf("Drawer(%d)", int(d))
}

func (d Drawer) valid() bool {
	return d == Drawer1 || d == Drawer2
}

// PulseTime selects the drawer kick-out pulse width in milliseconds.
type PulseTime int

const (
	Pulse100 PulseTime = iota
	Pulse200
	Pulse300
	Pulse400
	Pulse500
)

// String returns the protocol attribute value for the pulse width.
func (p PulseTime) String() string {
	switch p {
	case Pulse100:
		return "pulse_100"
	case Pulse200:
		return "pulse_200"
	case Pulse300:
		return "pulse_300"
	case Pulse400:
		return "pulse_400"
	case Pulse500:
		return "pulse_500"
	}
	return fmt.Sprintf("PulseTime(%d)", int(p))
}

func (p PulseTime) valid() bool {
	return p >= Pulse100 && p <= Pulse500
}

// BarcodeType selects a 1D barcode symbology.
type BarcodeType int

const (
	BarcodeUPCA BarcodeType = iota
	BarcodeUPCE
	BarcodeEAN13
	BarcodeEAN8
	BarcodeCode39
	BarcodeITF
	BarcodeCodabar
	BarcodeCode93
	BarcodeCode128
	BarcodeGS1128
	BarcodeGS1DataBarOmnidirectional
)

// String returns the protocol attribute value for the symbology.
func (b BarcodeType) String() string {
	switch b {
	case BarcodeUPCA:
		return "upc_a"
	case BarcodeUPCE:
		return "upc_e"
	case BarcodeEAN13:
		return "ean13"
	case BarcodeEAN8:
		return "ean8"
	case BarcodeCode39:
		return "code39"
	case BarcodeITF:
		return "itf"
	case BarcodeCodabar:
		return "codabar"
	case BarcodeCode93:
		return "code93"
	case BarcodeCode128:
		return "code128"
	case BarcodeGS1128:
		return "gs1_128"
	case BarcodeGS1DataBarOmnidirectional:
		return "gs1_databar_omnidirectional"
	}
	return fmt.Sprintf("BarcodeType(%d)", int(b))
}

func (b BarcodeType) valid() bool {
	return b >= BarcodeUPCA && b <= BarcodeGS1DataBarOmnidirectional
}

// HRI selects the human readable interpretation position of a barcode.
type HRI int

const (
	HRINone HRI = iota
	HRIAbove
	HRIBelow
	HRIBoth
)

// String returns the protocol attribute value for the HRI position.
func (h HRI) String() string {
	switch h {
	case HRINone:
		return "none"
	case HRIAbove:
		return "above"
	case HRIBelow:
		return "below"
	case HRIBoth:
		return "both"
	}
	return fmt.Sprintf("HRI(%d)", int(h))
}

func (h HRI) valid() bool {
	return h >= HRINone && h <= HRIBoth
}

// SymbolType selects a 2D code symbology.
type SymbolType int

const (
	SymbolPDF417Standard SymbolType = iota
	SymbolPDF417Truncated
	SymbolQRCodeModel1
	SymbolQRCodeModel2
	SymbolQRCodeMicro
	SymbolMaxiCodeMode2
	SymbolMaxiCodeMode3
	SymbolMaxiCodeMode4
)

// String returns the protocol attribute value for the symbology.
func (s SymbolType) String() string {
	switch s {
	case SymbolPDF417Standard:
		return "pdf417_standard"
	case SymbolPDF417Truncated:
		return "pdf417_truncated"
	case SymbolQRCodeModel1:
		return "qrcode_model_1"
	case SymbolQRCodeModel2:
		return "qrcode_model_2"
	case SymbolQRCodeMicro:
		return "qrcode_micro"
	case SymbolMaxiCodeMode2:
		return "maxicode_mode_2"
	case SymbolMaxiCodeMode3:
		return "maxicode_mode_3"
	case SymbolMaxiCodeMode4:
		return "maxicode_mode_4"
	}
	return fmt.Sprintf("SymbolType(%d)", int(s))
}

func (s SymbolType) valid() bool {
	return s >= SymbolPDF417Standard && s <= SymbolMaxiCodeMode4
}

// SymbolLevel selects the error correction level of a 2D code.
type SymbolLevel int

const (
	LevelDefault SymbolLevel = iota
	LevelL
	LevelM
	LevelQ
	LevelH
)

// String returns the protocol attribute value for the level.
func (l SymbolLevel) String() string {
	switch l {
	case LevelDefault:
		return "default"
	case LevelL:
		return "level_l"
	case LevelM:
		return "level_m"
	case LevelQ:
		return "level_q"
	case LevelH:
		return "level_h"
	}
	return fmt.Sprintf("SymbolLevel(%d)", int(l))
}

func (l SymbolLevel) valid() bool {
	return l >= LevelDefault && l <= LevelH
}

// XML element shapes of the ePOS-Print schema. Attribute values are
// pre-rendered strings so zero values can be omitted.
type textElement struct {
	XMLName xml.Name `xml:"text"`
	Lang    string   `xml:"lang,attr,omitempty"`
	Align   string   `xml:"align,attr,omitempty"`
	Font    string   `xml:"font,attr,omitempty"`
	Em      string   `xml:"em,attr,omitempty"`
	UL      string   `xml:"ul,attr,omitempty"`
	Width   string   `xml:"width,attr,omitempty"`
	Height  string   `xml:"height,attr,omitempty"`
	Data    string   `xml:",chardata"`
}

type imageElement struct {
	XMLName xml.Name `xml:"image"`
	Width   int      `xml:"width,attr"`
	Height  int      `xml:"height,attr"`
	Color   string   `xml:"color,attr"`
	Mode    string   `xml:"mode,attr"`
	Data    string   `xml:",chardata"`
}

type feedElement struct {
	XMLName xml.Name `xml:"feed"`
	Line    string   `xml:"line,attr,omitempty"`
	Unit    string   `xml:"unit,attr,omitempty"`
}

type cutElement struct {
	XMLName xml.Name `xml:"cut"`
	Type    string   `xml:"type,attr"`
}

type pulseElement struct {
	XMLName xml.Name `xml:"pulse"`
	Drawer  string   `xml:"drawer,attr"`
	Time    string   `xml:"time,attr"`
}

type barcodeElement struct {
	XMLName xml.Name `xml:"barcode"`
	Type    string   `xml:"type,attr"`
	HRI     string   `xml:"hri,attr"`
	Width   int      `xml:"width,attr"`
	Height  int      `xml:"height,attr"`
	Data    string   `xml:",chardata"`
}

type symbolElement struct {
	XMLName xml.Name `xml:"symbol"`
	Type    string   `xml:"type,attr"`
	Level   string   `xml:"level,attr"`
	Data    string   `xml:",chardata"`
}

// Document accumulates print elements and renders them as an ePOS-Print
// request body.
//
// Builder methods validate their arguments and record the first failure;
// Build reports it. This keeps call sites free of per-element error
// handling while still failing the whole job before anything is sent.
type Document struct {
	elements []interface{}
	err      error
}

// NewDocument returns an empty print document.
func NewDocument() *Document {
	return &Document{}
}

func (d *Document) fail(err error) {
	if d.err == nil {
		d.err = err
	}
}

func (d *Document) add(el interface{}) {
	d.elements = append(d.elements, el)
}

// Len returns the number of elements added so far.
func (d *Document) Len() int {
	return len(d.elements)
}

// AddText appends a text run. A trailing "\n" finishes the line.
func (d *Document) AddText(text string) *Document {
	d.add(&textElement{Data: text})
	return d
}

// AddTextLang sets the language of the following text (for example "en").
func (d *Document) AddTextLang(lang string) *Document {
	if lang == "" {
		d.fail(errors.New("eposprint: text language must not be empty"))
		return d
	}
	d.add(&textElement{Lang: lang})
	return d
}

// AddTextAlign sets the alignment of the following lines.
func (d *Document) AddTextAlign(a Align) *Document {
	if !a.valid() {
		d.fail(fmt.Errorf("eposprint: invalid alignment %d", int(a)))
		return d
	}
	d.add(&textElement{Align: a.String()})
	return d
}

// AddTextFont sets the font of the following text.
func (d *Document) AddTextFont(f Font) *Document {
	if !f.valid() {
		d.fail(fmt.Errorf("eposprint: invalid font %d", int(f)))
		return d
	}
	d.add(&textElement{Font: f.String()})
	return d
}

// AddTextSize sets the character scale of the following text.
// Both factors must be between 1 and 8.
func (d *Document) AddTextSize(width, height int) *Document {
	if width < 1 || width > 8 || height < 1 || height > 8 {
		d.fail(fmt.Errorf("eposprint: text size %dx%d out of range 1-8", width, height))
		return d
	}
	d.add(&textElement{
		Width:  strconv.Itoa(width),
		Height: strconv.Itoa(height),
	})
	return d
}

// AddTextStyle sets emphasis and underline for the following text.
func (d *Document) AddTextStyle(em, underline bool) *Document {
	d.add(&textElement{
		Em: strconv.FormatBool(em),
		UL: strconv.FormatBool(underline),
	})
	return d
}

// AddImage appends a monochrome raster. The declared width is the pixel
// width, not the padded byte-row width; the firmware ignores padding bits.
func (d *Document) AddImage(bm *raster.Bitmap) *Document {
	if bm == nil || len(bm.Pix) == 0 {
		d.fail(errors.New("eposprint: empty monochrome image"))
		return d
	}
	d.add(&imageElement{
		Width:  bm.Rect.Dx(),
		Height: bm.Rect.Dy(),
		Color:  "color_1",
		Mode:   "mono",
		Data:   base64.StdEncoding.EncodeToString(bm.Pix),
	})
	return d
}

// AddGrayImage appends a 16-level grayscale raster.
func (d *Document) AddGrayImage(bm *raster.Gray4Bitmap) *Document {
	if bm == nil || len(bm.Pix) == 0 {
		d.fail(errors.New("eposprint: empty grayscale image"))
		return d
	}
	d.add(&imageElement{
		Width:  bm.Rect.Dx(),
		Height: bm.Rect.Dy(),
		Color:  "color_1",
		Mode:   "gray16",
		Data:   base64.StdEncoding.EncodeToString(bm.Pix),
	})
	return d
}

// AddFeed feeds the paper by whole lines.
func (d *Document) AddFeed(lines int) *Document {
	if lines < 1 || lines > 255 {
		d.fail(fmt.Errorf("eposprint: feed lines %d out of range 1-255", lines))
		return d
	}
	d.add(&feedElement{Line: strconv.Itoa(lines)})
	return d
}

// AddFeedUnit feeds the paper by motion units (typically 1/180 inch).
func (d *Document) AddFeedUnit(units int) *Document {
	if units < 1 || units > 255 {
		d.fail(fmt.Errorf("eposprint: feed units %d out of range 1-255", units))
		return d
	}
	d.add(&feedElement{Unit: strconv.Itoa(units)})
	return d
}

// AddCut cuts the paper.
func (d *Document) AddCut(c Cut) *Document {
	if !c.valid() {
		d.fail(fmt.Errorf("eposprint: invalid cut type %d", int(c)))
		return d
	}
	d.add(&cutElement{Type: c.String()})
	return d
}

// AddPulse fires a cash drawer kick-out pulse.
func (d *Document) AddPulse(drawer Drawer, time PulseTime) *Document {
	if !drawer.valid() {
		d.fail(fmt.Errorf("eposprint: invalid drawer %d", int(drawer)))
		return d
	}
	if !time.valid() {
		d.fail(fmt.Errorf("eposprint: invalid pulse time %d", int(time)))
		return d
	}
	d.add(&pulseElement{Drawer: drawer.String(), Time: time.String()})
	return d
}

// AddBarcode appends a 1D barcode. width is the module width in dots (2-6)
// and height the bar height in dots (1-255).
func (d *Document) AddBarcode(data string, typ BarcodeType, hri HRI, width, height int) *Document {
	if data == "" {
		d.fail(errors.New("eposprint: barcode data must not be empty"))
		return d
	}
	if !typ.valid() {
		d.fail(fmt.Errorf("eposprint: invalid barcode type %d", int(typ)))
		return d
	}
	if !hri.valid() {
		d.fail(fmt.Errorf("eposprint: invalid HRI position %d", int(hri)))
		return d
	}
	if width < 2 || width > 6 {
		d.fail(fmt.Errorf("eposprint: barcode module width %d out of range 2-6", width))
		return d
	}
	if height < 1 || height > 255 {
		d.fail(fmt.Errorf("eposprint: barcode height %d out of range 1-255", height))
		return d
	}
	d.add(&barcodeElement{
		Type:   typ.String(),
		HRI:    hri.String(),
		Width:  width,
		Height: height,
		Data:   data,
	})
	return d
}

// AddSymbol appends a 2D code.
func (d *Document) AddSymbol(data string, typ SymbolType, level SymbolLevel) *Document {
	if data == "" {
		d.fail(errors.New("eposprint: symbol data must not be empty"))
		return d
	}
	if !typ.valid() {
		d.fail(fmt.Errorf("eposprint: invalid symbol type %d", int(typ)))
		return d
	}
	if !level.valid() {
		d.fail(fmt.Errorf("eposprint: invalid symbol level %d", int(level)))
		return d
	}
	d.add(&symbolElement{Type: typ.String(), Level: level.String(), Data: data})
	return d
}

// Build renders the accumulated elements as an <epos-print> body, or reports
// the first builder error.
func (d *Document) Build() ([]byte, error) {
	if d.err != nil {
		return nil, d.err
	}
	if len(d.elements) == 0 {
		return nil, errors.New("eposprint: document is empty")
	}

	var buf bytes.Buffer
	fmt.Fprintf(&buf, `<epos-print xmlns="%s">`, printNamespace)
	enc := xml.NewEncoder(&buf)
	for _, el := range d.elements {
		if err := enc.Encode(el); err != nil {
			return nil, fmt.Errorf("eposprint: encoding document: %w", err)
		}
	}
	if err := enc.Flush(); err != nil {
		return nil, fmt.Errorf("eposprint: encoding document: %w", err)
	}
	buf.WriteString(`</epos-print>`)
	return buf.Bytes(), nil
}
