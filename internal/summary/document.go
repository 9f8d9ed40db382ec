package summary

import (
	"bytes"
	_ "embed"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/go-pdf/fpdf"
)

const (
	margin        = 20.0
	footerReserve = 22.0 // body text stops this far above the page edge
	headerHeight  = 28.0
	lineHeight    = 5.5
	bodyFontSize  = 10.0
	coreFamily    = "Helvetica"
	utf8Family    = "DejaVu"
)

//go:embed fonts/DejaVuSansCondensed.ttf
var fontRegular []byte

//go:embed fonts/DejaVuSansCondensed-Bold.ttf
var fontBold []byte

//go:embed fonts/DejaVuSansCondensed-Oblique.ttf
var fontOblique []byte

// cp1252Extras are the runes outside Latin-1 that the core fonts can still
// encode.
const cp1252Extras = "\u20ac\u201a\u0192\u201e\u2026\u2020\u2021\u02c6\u2030\u0160\u2039\u0152\u017d" +
	"\u2018\u2019\u201c\u201d\u2022\u2013\u2014\u02dc\u2122\u0161\u203a\u0153\u017e\u0178"

// needsUTF8 reports whether any text falls outside what the cp1252 core
// fonts can show.
func needsUTF8(texts ...string) bool {
	for _, s := range texts {
		for _, r := range s {
			if r < 0x80 || (r >= 0xa0 && r <= 0xff) || strings.ContainsRune(cp1252Extras, r) {
				continue
			}
			return true
		}
	}
	return false
}

type rgb struct{ r, g, b int }

var (
	brandBlue = rgb{37, 99, 235}
	textDark  = rgb{31, 41, 55}
	textMuted = rgb{107, 114, 128}
	white     = rgb{255, 255, 255}
)

// document is a thin layout helper over fpdf: A4 portrait in millimetres,
// a branded header band, "Page i of n" footers and greedy page breaks.
type document struct {
	pdf    *fpdf.Fpdf
	tr     func(string) string
	family string
	utf8   bool
	pageH  float64
	width  float64
	header string
}

// newDocument uses the core Helvetica font unless utf8 is set, in which
// case the embedded DejaVu family is used and text is written unchanged.
func newDocument(title, subtitle string, compress, utf8 bool, createdAt time.Time) *document {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(margin, margin, margin)
	pdf.SetAutoPageBreak(false, margin)
	pdf.SetCompression(compress)
	pdf.AliasNbPages("")
	pdf.SetTitle(title, false)
	pdf.SetCreator("CivicCircle", false)
	pdf.SetCreationDate(createdAt)

	pageW, pageH := pdf.GetPageSize()
	d := &document{
		pdf:    pdf,
		tr:     pdf.UnicodeTranslatorFromDescriptor(""),
		family: coreFamily,
		utf8:   utf8,
		pageH:  pageH,
		width:  pageW - 2*margin,
		header: subtitle,
	}
	if utf8 {
		pdf.AddUTF8FontFromBytes(utf8Family, "", fontRegular)
		pdf.AddUTF8FontFromBytes(utf8Family, "B", fontBold)
		pdf.AddUTF8FontFromBytes(utf8Family, "I", fontOblique)
		d.family = utf8Family
		d.tr = func(s string) string { return s }
	}

	pdf.SetHeaderFunc(d.drawHeader)
	pdf.SetFooterFunc(d.drawFooter)
	pdf.AddPage()
	return d
}

func (d *document) drawHeader() {
	pageW, _ := d.pdf.GetPageSize()
	d.fill(brandBlue)
	d.pdf.Rect(0, 0, pageW, headerHeight, "F")

	d.color(white)
	d.pdf.SetFont(d.family, "B", 20)
	d.pdf.SetXY(margin, 7)
	d.pdf.CellFormat(d.width, 9, "CivicCircle", "", 1, "L", false, 0, "")
	d.pdf.SetFont(d.family, "", 11)
	d.pdf.SetX(margin)
	d.pdf.CellFormat(d.width, 6, d.tr(d.header), "", 1, "L", false, 0, "")

	d.pdf.SetY(headerHeight + 8)
	d.color(textDark)
}

func (d *document) drawFooter() {
	d.pdf.SetY(-margin + 2)
	d.pdf.SetFont(d.family, "", 8)
	d.color(textMuted)
	d.pdf.CellFormat(d.width/2, 5, "CivicCircle - Community Report Management System", "", 0, "L", false, 0, "")
	d.pdf.CellFormat(d.width/2, 5, fmt.Sprintf("Page %d of {nb}", d.pdf.PageNo()), "", 0, "R", false, 0, "")
	d.color(textDark)
}

// ensureSpace starts a new page when the next block would run into the
// footer area.
func (d *document) ensureSpace(needed float64) {
	bottom := d.pageH - footerReserve
	if usable := bottom - (headerHeight + 8); needed > usable {
		needed = usable
	}
	if d.pdf.GetY()+needed > bottom {
		d.pdf.AddPage()
	}
}

func (d *document) title(text, subtitle string) {
	d.ensureSpace(18)
	d.pdf.SetFont(d.family, "B", 16)
	d.color(textDark)
	d.pdf.MultiCell(d.width, 7, d.tr(text), "", "L", false)
	if subtitle != "" {
		d.pdf.SetFont(d.family, "", 10)
		d.color(textMuted)
		d.pdf.CellFormat(d.width, 6, d.tr(subtitle), "", 1, "L", false, 0, "")
		d.color(textDark)
	}
	d.pdf.Ln(4)
}

func (d *document) heading(text string) {
	// keep the heading with at least two lines of its body
	d.ensureSpace(10 + 2*lineHeight)
	d.pdf.Ln(2)
	d.pdf.SetFont(d.family, "B", 12)
	d.color(brandBlue)
	d.pdf.CellFormat(d.width, 7, d.tr(text), "", 1, "L", false, 0, "")
	y := d.pdf.GetY()
	d.pdf.SetDrawColor(brandBlue.r, brandBlue.g, brandBlue.b)
	d.pdf.Line(margin, y, margin+d.width, y)
	d.pdf.Ln(2)
	d.color(textDark)
}

func (d *document) subheading(text string) {
	d.pdf.SetFont(d.family, "B", 10.5)
	d.color(textDark)
	d.pdf.CellFormat(d.width, 6, d.tr(text), "", 1, "L", false, 0, "")
}

func (d *document) lines(text string, width float64) []string {
	d.pdf.SetFont(d.family, "", bodyFontSize)
	if d.utf8 {
		if strings.TrimSpace(text) == "" {
			return nil
		}
		return d.pdf.SplitText(text, width)
	}
	var out []string
	for _, l := range d.pdf.SplitLines([]byte(d.tr(text)), width) {
		out = append(out, string(l))
	}
	return out
}

// paragraph lays out wrapped text line by line so long passages continue
// on the next page.
func (d *document) paragraph(text string) {
	for _, l := range d.lines(text, d.width) {
		d.ensureSpace(lineHeight)
		d.pdf.SetX(margin)
		d.pdf.CellFormat(d.width, lineHeight, l, "", 1, "L", false, 0, "")
	}
	d.pdf.Ln(1)
}

func (d *document) muted(text string) {
	d.color(textMuted)
	d.pdf.SetFont(d.family, "I", 9)
	d.ensureSpace(lineHeight)
	d.pdf.CellFormat(d.width, lineHeight, d.tr(text), "", 1, "L", false, 0, "")
	d.color(textDark)
}

// list renders one block per item, kept together on a page. Numbered lists
// use "1." markers, others a dash.
func (d *document) list(items []string, numbered bool) {
	const indent = 7.0
	for i, item := range items {
		ls := d.lines(item, d.width-indent)
		if len(ls) == 0 {
			continue
		}
		d.ensureSpace(float64(len(ls)) * lineHeight)

		marker := "-"
		if numbered {
			marker = strconv.Itoa(i+1) + "."
		}
		for j, l := range ls {
			d.pdf.SetX(margin)
			if j == 0 {
				d.pdf.CellFormat(indent, lineHeight, marker, "", 0, "L", false, 0, "")
			} else {
				d.pdf.SetX(margin + indent)
			}
			d.pdf.CellFormat(d.width-indent, lineHeight, l, "", 1, "L", false, 0, "")
		}
	}
	d.pdf.Ln(1)
}

func (d *document) field(label, value string, valueColor *rgb) {
	const labelW = 38.0
	ls := d.lines(value, d.width-labelW)
	if len(ls) == 0 {
		ls = []string{""}
	}
	d.ensureSpace(float64(len(ls)) * lineHeight)

	d.pdf.SetX(margin)
	d.pdf.SetFont(d.family, "B", bodyFontSize)
	d.pdf.CellFormat(labelW, lineHeight, d.tr(label), "", 0, "L", false, 0, "")
	d.pdf.SetFont(d.family, "", bodyFontSize)
	if valueColor != nil {
		d.color(*valueColor)
	}
	for j, l := range ls {
		if j > 0 {
			d.pdf.SetX(margin + labelW)
		}
		d.pdf.CellFormat(d.width-labelW, lineHeight, l, "", 1, "L", false, 0, "")
	}
	d.color(textDark)
}

func (d *document) link(text, url string) {
	d.ensureSpace(lineHeight)
	d.pdf.SetX(margin)
	d.pdf.SetFont(d.family, "U", bodyFontSize)
	d.color(brandBlue)
	d.pdf.CellFormat(d.width, lineHeight, d.tr(text), "", 1, "L", false, 0, url)
	d.pdf.SetFont(d.family, "", bodyFontSize)
	d.color(textDark)
}

func (d *document) bytes() ([]byte, error) {
	var buf bytes.Buffer
	if err := d.pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (d *document) pageCount() int {
	return d.pdf.PageCount()
}

func (d *document) color(c rgb) {
	d.pdf.SetTextColor(c.r, c.g, c.b)
}

func (d *document) fill(c rgb) {
	d.pdf.SetFillColor(c.r, c.g, c.b)
}

// hexColor parses "#rrggbb"; anything else is rendered in the muted color.
func hexColor(s string) rgb {
	s = strings.TrimPrefix(s, "#")
	if len(s) != 6 {
		return textMuted
	}
	v, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		return textMuted
	}
	return rgb{int(v >> 16 & 0xff), int(v >> 8 & 0xff), int(v & 0xff)}
}
