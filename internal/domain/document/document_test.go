package document

import (
	"errors"
	"testing"

	"github.com/crm/backend/internal/domain/shared"
	"github.com/crm/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDocument(t *testing.T) {
	t.Run("creates draft document", func(t *testing.T) {
		doc, err := NewDocument(DocTypeInvoice, " 2024-001 ", "")
		require.NoError(t, err)
		assert.NotEqual(t, uuid.Nil, doc.ID)
		assert.Equal(t, "2024-001", doc.Number)
		assert.Equal(t, StatusDraft, doc.Status)
		assert.Equal(t, valueobject.DKK, doc.Currency)
		assert.Empty(t, doc.Items)
	})

	t.Run("rejects unknown type", func(t *testing.T) {
		_, err := NewDocument(DocType("RECEIPT"), "1", valueobject.DKK)
		var de *shared.DomainError
		require.True(t, errors.As(err, &de))
		assert.Equal(t, "INVALID_DOC_TYPE", de.Code)
	})

	t.Run("rejects empty number", func(t *testing.T) {
		_, err := NewDocument(DocTypeQuote, "  ", valueobject.DKK)
		assert.Error(t, err)
	})
}

func TestDocument_Items(t *testing.T) {
	doc, err := NewDocument(DocTypeQuote, "Q-1", valueobject.EUR)
	require.NoError(t, err)

	require.NoError(t, doc.AddItem(NewLineItem("A", 1, 100)))
	require.NoError(t, doc.AddItem(NewLineItem("B", 1, 200)))
	require.NoError(t, doc.AddItem(NewLineItem("C", 1, 300)))
	assert.Equal(t, 3, doc.ItemCount())
	assert.Equal(t, 3, doc.Items[2].Position)

	require.NoError(t, doc.RemoveItem(2))
	assert.Equal(t, 2, doc.ItemCount())
	assert.Equal(t, "C", doc.Items[1].Description)
	assert.Equal(t, 2, doc.Items[1].Position)

	assert.Error(t, doc.RemoveItem(0))
	assert.Error(t, doc.RemoveItem(5))
}

func TestDocument_AddItemToCancelled(t *testing.T) {
	doc, _ := NewDocument(DocTypeOrder, "O-1", valueobject.DKK)
	require.NoError(t, doc.SetStatus(StatusCancelled))
	assert.Error(t, doc.AddItem(NewLineItem("A", 1, 100)))
	assert.Error(t, doc.SetStatus(Status("NOPE")))
}

func TestDocument_Totals(t *testing.T) {
	doc, _ := NewDocument(DocTypeInvoice, "F-1", valueobject.DKK)
	doc.SetDefaults(25, 0)
	_ = doc.AddItem(NewLineItem("Konsulent", 2, 1000))
	_ = doc.AddItem(NewLineItem("Rabat", 1, 10000).WithDiscount(50).WithTaxRate(0))

	totals := doc.Totals()
	assert.Equal(t, int64(7000), totals.SubtotalMinor)
	assert.Equal(t, int64(500), totals.TaxMinor)
	assert.Equal(t, int64(7500), totals.TotalMinor)

	bt, lines := doc.Breakdown()
	assert.Equal(t, totals, bt)
	assert.Len(t, lines, 2)
}
