package printing

import (
	"bytes"
	"fmt"

	"github.com/crm/backend/internal/infrastructure/printing/layout"
	"github.com/jung-kurt/gofpdf"
)

const (
	coreFontFamily   = "Helvetica"
	customFontFamily = "DocFont"
)

// fpdfFont measures text with one gofpdf font face
type fpdfFont struct {
	pdf    *gofpdf.Fpdf
	family string
	style  string
	tr     func(string) string
}

// WidthOfTextAtSize implements layout.Font
func (f *fpdfFont) WidthOfTextAtSize(text string, size float64) float64 {
	f.pdf.SetFont(f.family, f.style, size)
	return f.pdf.GetStringWidth(f.tr(text))
}

// fpdfPage adapts a gofpdf document to layout.Page. gofpdf puts the origin
// at the top-left corner, so every y is flipped against the page height.
type fpdfPage struct {
	pdf    *gofpdf.Fpdf
	width  float64
	height float64
	tr     func(string) string
	images map[string]bool
}

// fpdfFonts is the pair of faces used by the layout backend
type fpdfFonts struct {
	Regular *fpdfFont
	Bold    *fpdfFont
	Custom  bool
}

// newFpdfDocument creates a single-page document of the given size in
// points. When fontData is usable it is registered as a UTF-8 font;
// otherwise the core Helvetica faces are used with cp1252 translation.
func newFpdfDocument(width, height float64, fontData, boldData []byte) (*fpdfPage, fpdfFonts) {
	pdf := gofpdf.NewCustom(&gofpdf.InitType{
		OrientationStr: "P",
		UnitStr:        "pt",
		Size:           gofpdf.SizeType{Wd: width, Ht: height},
	})
	pdf.SetMargins(0, 0, 0)
	pdf.SetAutoPageBreak(false, 0)

	custom := len(fontData) > 0 && fontUsable(fontData) && (len(boldData) == 0 || fontUsable(boldData))
	var tr func(string) string
	if custom {
		if len(boldData) == 0 {
			boldData = fontData
		}
		pdf.AddUTF8FontFromBytes(customFontFamily, "", fontData)
		pdf.AddUTF8FontFromBytes(customFontFamily, "B", boldData)
		tr = func(s string) string { return s }
	} else {
		tr = pdf.UnicodeTranslatorFromDescriptor("")
	}
	pdf.AddPage()

	family := coreFontFamily
	if custom {
		family = customFontFamily
	}
	fonts := fpdfFonts{
		Regular: &fpdfFont{pdf: pdf, family: family, style: "", tr: tr},
		Bold:    &fpdfFont{pdf: pdf, family: family, style: "B", tr: tr},
		Custom:  custom,
	}
	return &fpdfPage{
		pdf:    pdf,
		width:  width,
		height: height,
		tr:     tr,
		images: make(map[string]bool),
	}, fonts
}

// newCoreFont measures with the Helvetica metrics gofpdf ships, on a
// scratch document of its own
func newCoreFont(style string) *fpdfFont {
	pdf := gofpdf.New("P", "pt", "A4", "")
	return &fpdfFont{pdf: pdf, family: coreFontFamily, style: style, tr: pdf.UnicodeTranslatorFromDescriptor("")}
}

// fontUsable loads font bytes into a scratch document, since a failed
// font registration poisons the gofpdf instance it was added to. Data
// without a TrueType header is rejected up front: gofpdf's parser writes
// its complaints to stdout.
func fontUsable(data []byte) bool {
	if !hasTrueTypeHeader(data) {
		return false
	}
	scratch := gofpdf.New("P", "pt", "A4", "")
	scratch.AddUTF8FontFromBytes("scratch", "", data)
	return scratch.Error() == nil
}

// hasTrueTypeHeader reports an sfnt version of 0x00010000 or "true", the
// two glyf-outline flavors gofpdf can embed
func hasTrueTypeHeader(data []byte) bool {
	const sfntHeaderLen = 12
	if len(data) < sfntHeaderLen {
		return false
	}
	return bytes.Equal(data[:4], []byte{0x00, 0x01, 0x00, 0x00}) || string(data[:4]) == "true"
}

// Size implements layout.Page
func (p *fpdfPage) Size() (float64, float64) {
	return p.width, p.height
}

// DrawText implements layout.Page; (x, y) is the baseline origin
func (p *fpdfPage) DrawText(text string, x, y float64, style layout.TextStyle) {
	if f, ok := style.Font.(*fpdfFont); ok {
		p.pdf.SetFont(f.family, f.style, style.Size)
	}
	p.pdf.SetTextColor(style.Color.RGB())
	p.pdf.Text(x, p.height-y, p.tr(text))
}

// DrawRectangle implements layout.Page
func (p *fpdfPage) DrawRectangle(r layout.Rect, style layout.BoxStyle) {
	mode := ""
	if style.Fill != nil {
		p.pdf.SetFillColor(style.Fill.RGB())
		mode += "F"
	}
	if style.Border != nil {
		p.pdf.SetDrawColor(style.Border.RGB())
		w := style.BorderWidth
		if w <= 0 {
			w = 0.5
		}
		p.pdf.SetLineWidth(w)
		mode += "D"
	}
	if mode == "" {
		return
	}
	p.pdf.Rect(r.X, p.height-(r.Y+r.Height), r.Width, r.Height, mode)
}

// DrawLine implements layout.Page
func (p *fpdfPage) DrawLine(x1, y1, x2, y2, thickness float64, color layout.Color) {
	p.pdf.SetDrawColor(color.RGB())
	p.pdf.SetLineWidth(thickness)
	p.pdf.Line(x1, p.height-y1, x2, p.height-y2)
}

// DrawImage implements layout.Page. A zero width or height keeps the
// image's aspect ratio.
func (p *fpdfPage) DrawImage(img layout.Image, r layout.Rect) {
	if len(img.Data) == 0 {
		return
	}
	opts := gofpdf.ImageOptions{ImageType: img.Type}
	if !p.images[img.Name] {
		p.pdf.RegisterImageOptionsReader(img.Name, opts, bytes.NewReader(img.Data))
		p.images[img.Name] = true
	}
	p.pdf.ImageOptions(img.Name, r.X, p.height-(r.Y+r.Height), r.Width, r.Height, false, opts, 0, "")
}

// SetMetadata sets the PDF title, subject and creator
func (p *fpdfPage) SetMetadata(title, subject, author string) {
	p.pdf.SetTitle(title, true)
	p.pdf.SetSubject(subject, true)
	p.pdf.SetAuthor(author, true)
	p.pdf.SetCreator("crm-backend", true)
}

// Bytes finishes the document and returns the PDF
func (p *fpdfPage) Bytes() ([]byte, error) {
	var buf bytes.Buffer
	if err := p.pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("write pdf: %w", err)
	}
	return buf.Bytes(), nil
}

var (
	_ layout.Page = (*fpdfPage)(nil)
	_ layout.Font = (*fpdfFont)(nil)
)
