package printing

import (
	"testing"

	"github.com/crm/backend/internal/domain/document"
	"github.com/crm/backend/internal/infrastructure/printing/layout"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLayout() DocumentLayout {
	return DocumentLayout{
		Fonts: LayoutFonts{Regular: monoFont{}, Bold: monoFont{}},
		Theme: DefaultLayoutTheme(),
		Frame: Frame{Left: 40, Right: 555, Top: 800, Bottom: 40},
	}
}

func TestDocumentLayout_Compose(t *testing.T) {
	data := sampleData(t)
	page := &recordingPage{}

	end := testLayout().Compose(page, data)

	for _, want := range []string{
		"Faktura",
		"Nummer: 2024-001",
		"Nordlys ApS",
		"Kunde A/S",
		"Konsulentbistand",
		"Licens",
		data.Totals.Total,
		"Netto 30 dage",
		"Tak for handlen.",
		"Venlig hilsen",
	} {
		assert.True(t, page.hasText(want), "missing %q", want)
	}
	assert.False(t, page.hasText("Ingen linjer"))
	assert.Less(t, end.Y, 800.0)
	assert.Greater(t, end.Y, 40.0)
	assert.Positive(t, page.rects)
	assert.Empty(t, page.images)
}

func TestDocumentLayout_EmptyItems(t *testing.T) {
	doc, err := document.NewDocument(document.DocTypeQuote, "T-1", "DKK")
	require.NoError(t, err)
	page := &recordingPage{}

	testLayout().Compose(page, NewDocumentData(doc, "da-DK"))
	assert.True(t, page.hasText("Ingen linjer"))
}

func TestDocumentLayout_Logo(t *testing.T) {
	data := sampleData(t)
	data.Assets = &RenderAssets{Logo: testPNG(t, 2, 1), LogoType: "PNG"}
	page := &recordingPage{}

	l := testLayout()
	l.LogoSize = func(h float64) (float64, float64) { return 2 * h, h }
	l.Compose(page, data)

	require.Len(t, page.images, 1)
	assert.Equal(t, layout.Rect{X: 40, Y: 800 - 48, Width: 96, Height: 48}, page.images[0])
	// the seller name is not drawn as a title when a logo is shown
	count := 0
	for _, tx := range page.texts {
		if tx.Text == "Nordlys ApS" {
			count++
		}
	}
	assert.Equal(t, 1, count, "only the party block prints the name")
}

func TestDocumentLayout_TextStaysInFrame(t *testing.T) {
	data := sampleData(t)
	data.Items[0].Description = "En meget lang beskrivelse der skal ombrydes over flere linjer i tabellen uden at gå ud over kanten"
	page := &recordingPage{}
	l := testLayout()

	l.Compose(page, data)

	for _, tx := range page.texts {
		assert.GreaterOrEqual(t, tx.X, l.Frame.Left-0.001, "%q starts left of the frame", tx.Text)
		assert.LessOrEqual(t, tx.X, l.Frame.Right+0.001, "%q starts right of the frame", tx.Text)
	}
}
