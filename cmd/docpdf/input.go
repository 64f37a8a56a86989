package main

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/crm/backend/internal/domain/document"
	"github.com/crm/backend/internal/domain/shared/valueobject"
)

const dateLayout = "2006-01-02"

// documentFile is the JSON shape accepted on the command line
type documentFile struct {
	Type         string              `json:"type"`
	Number       string              `json:"number"`
	Status       string              `json:"status"`
	Currency     string              `json:"currency"`
	TaxPct       float64             `json:"tax_pct"`
	DiscountPct  float64             `json:"discount_pct"`
	IssueDate    string              `json:"issue_date"`
	DueDate      string              `json:"due_date"`
	ValidUntil   string              `json:"valid_until"`
	Reference    string              `json:"reference"`
	Notes        string              `json:"notes"`
	PaymentTerms string              `json:"payment_terms"`
	Seller       document.Party      `json:"seller"`
	Buyer        document.Party      `json:"buyer"`
	Items        []document.LineItem `json:"items"`
}

func readDocument(r io.Reader) (*document.Document, error) {
	var in documentFile
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&in); err != nil {
		return nil, fmt.Errorf("decode document: %w", err)
	}
	return in.toDomain()
}

func (f documentFile) toDomain() (*document.Document, error) {
	docType, ok := document.ParseDocType(f.Type)
	if !ok {
		return nil, fmt.Errorf("unknown document type %q", f.Type)
	}
	cur, err := valueobject.ParseCurrency(f.Currency)
	if err != nil {
		return nil, err
	}
	doc, err := document.NewDocument(docType, f.Number, cur)
	if err != nil {
		return nil, err
	}

	if f.Status != "" {
		if err := doc.SetStatus(document.Status(f.Status)); err != nil {
			return nil, err
		}
	}
	doc.SetDefaults(f.TaxPct, f.DiscountPct)
	doc.Reference = f.Reference
	doc.Notes = f.Notes
	doc.PaymentTerms = f.PaymentTerms
	doc.Seller = f.Seller
	doc.Buyer = f.Buyer

	if f.IssueDate != "" {
		if doc.IssueDate, err = time.Parse(dateLayout, f.IssueDate); err != nil {
			return nil, fmt.Errorf("issue_date: %w", err)
		}
	}
	if doc.DueDate, err = optionalDate(f.DueDate); err != nil {
		return nil, fmt.Errorf("due_date: %w", err)
	}
	if doc.ValidUntil, err = optionalDate(f.ValidUntil); err != nil {
		return nil, fmt.Errorf("valid_until: %w", err)
	}

	for _, item := range f.Items {
		if err := doc.AddItem(item); err != nil {
			return nil, err
		}
	}
	return doc, nil
}

func optionalDate(s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
