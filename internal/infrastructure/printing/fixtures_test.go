package printing

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/crm/backend/internal/domain/document"
	"github.com/crm/backend/internal/infrastructure/printing/layout"
	"github.com/stretchr/testify/require"
)

// sampleInvoice is a two-line DKK invoice at 25% VAT
func sampleInvoice(t *testing.T) *document.Document {
	t.Helper()
	doc, err := document.NewDocument(document.DocTypeInvoice, "2024-001", "DKK")
	require.NoError(t, err)
	doc.SetDefaults(25, 0)
	doc.IssueDate = time.Date(2024, time.March, 5, 0, 0, 0, 0, time.UTC)
	due := time.Date(2024, time.April, 4, 0, 0, 0, 0, time.UTC)
	doc.DueDate = &due
	doc.Seller = document.Party{
		Name:         "Nordlys ApS",
		AddressLines: []string{"Havnegade 1", "1058 København K"},
		VATNumber:    "12345678",
		Email:        "faktura@nordlys.dk",
	}
	doc.Buyer = document.Party{
		Name:         "Kunde A/S",
		Attention:    "Mette Hansen",
		AddressLines: []string{"Vestergade 10", "8000 Aarhus C"},
	}
	doc.PaymentTerms = "Netto 30 dage"
	doc.Notes = "Tak for handlen.\nVenlig hilsen"
	require.NoError(t, doc.AddItem(document.NewLineItem("Konsulentbistand", 2, 100000)))
	require.NoError(t, doc.AddItem(document.NewLineItem("Licens", 1, 50000).WithDiscount(10)))
	return doc
}

func sampleData(t *testing.T) *DocumentData {
	t.Helper()
	return NewDocumentData(sampleInvoice(t), "da-DK")
}

// testPNG encodes a small solid PNG
func testPNG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			img.Set(x, y, color.RGBA{R: 30, G: 64, B: 175, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

type monoFont struct{}

func (monoFont) WidthOfTextAtSize(text string, size float64) float64 {
	return float64(utf8.RuneCountInString(text)) * size * 0.5
}

type drawnText struct {
	Text string
	X, Y float64
}

// recordingPage captures drawing calls
type recordingPage struct {
	texts  []drawnText
	rects  int
	lines  int
	images []layout.Rect
}

func (p *recordingPage) Size() (float64, float64) { return 595, 842 }

func (p *recordingPage) DrawText(text string, x, y float64, _ layout.TextStyle) {
	p.texts = append(p.texts, drawnText{Text: text, X: x, Y: y})
}

func (p *recordingPage) DrawRectangle(layout.Rect, layout.BoxStyle) { p.rects++ }

func (p *recordingPage) DrawLine(_, _, _, _, _ float64, _ layout.Color) { p.lines++ }

func (p *recordingPage) DrawImage(_ layout.Image, r layout.Rect) {
	p.images = append(p.images, r)
}

func (p *recordingPage) hasText(s string) bool {
	for _, t := range p.texts {
		if t.Text == s {
			return true
		}
	}
	return false
}
