package main

import (
	"strings"
	"testing"
	"time"

	"github.com/crm/backend/internal/domain/document"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadDocument(t *testing.T) {
	in := `{
		"type": "invoice",
		"number": "2024-0007",
		"status": "SENT",
		"currency": "dkk",
		"tax_pct": 25,
		"issue_date": "2024-03-01",
		"due_date": "2024-03-15",
		"seller": {"name": "Nordlys ApS", "address_lines": ["Vestergade 1", "8000 Aarhus C"]},
		"buyer": {"name": "Havn & Co", "vat_number": "DK12345678"},
		"items": [
			{"description": "Consulting", "qty": 10, "unit_minor": 95000},
			{"description": "Travel", "qty": 1, "unit_minor": 120000, "tax_rate_pct": 0}
		]
	}`

	doc, err := readDocument(strings.NewReader(in))
	require.NoError(t, err)

	assert.Equal(t, document.DocTypeInvoice, doc.Type)
	assert.Equal(t, "2024-0007", doc.Number)
	assert.Equal(t, document.StatusSent, doc.Status)
	assert.Equal(t, "DKK", string(doc.Currency))
	assert.Equal(t, time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), doc.IssueDate)
	require.NotNil(t, doc.DueDate)
	assert.Equal(t, 15, doc.DueDate.Day())
	assert.Nil(t, doc.ValidUntil)
	assert.Equal(t, "Nordlys ApS", doc.Seller.Name)

	require.Len(t, doc.Items, 2)
	assert.Equal(t, 1, doc.Items[0].Position)
	assert.Equal(t, 2, doc.Items[1].Position)

	// 950000 at 25% plus 120000 untaxed
	totals := doc.Totals()
	assert.Equal(t, int64(1070000), totals.SubtotalMinor)
	assert.Equal(t, int64(237500), totals.TaxMinor)
	assert.Equal(t, int64(1307500), totals.TotalMinor)
}

func TestReadDocument_Errors(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		wantErr string
	}{
		{"malformed", `{"type":`, "decode document"},
		{"unknown field", `{"type":"INVOICE","number":"1","colour":"red"}`, "unknown field"},
		{"unknown type", `{"type":"MEMO","number":"1"}`, `unknown document type "MEMO"`},
		{"missing number", `{"type":"QUOTE"}`, "Document number cannot be empty"},
		{"bad currency", `{"type":"QUOTE","number":"1","currency":"XXZ"}`, "invalid currency code"},
		{"bad date", `{"type":"QUOTE","number":"1","valid_until":"15.03.2024"}`, "valid_until"},
		{"bad status", `{"type":"QUOTE","number":"1","status":"LOST"}`, "Unknown document status"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := readDocument(strings.NewReader(tt.in))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
