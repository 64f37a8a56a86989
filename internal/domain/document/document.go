package document

import (
	"strings"
	"time"

	"github.com/crm/backend/internal/domain/shared"
	"github.com/crm/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
)

// Party is a seller or buyer printed on a document.
// ID refers to the stored CRM company; uuid.Nil means not yet persisted.
type Party struct {
	ID           uuid.UUID `json:"id"`
	Name         string    `json:"name"`
	Attention    string    `json:"attention,omitempty"`
	AddressLines []string  `json:"address_lines,omitempty"`
	VATNumber    string    `json:"vat_number,omitempty"`
	Email        string    `json:"email,omitempty"`
	Phone        string    `json:"phone,omitempty"`
	LogoURL      string    `json:"logo_url,omitempty"`
}

// Document is the aggregate root for quotes, orders and invoices.
// Items are owned exclusively by the document and are deleted with it.
type Document struct {
	shared.BaseEntity
	Type         DocType
	Number       string
	Status       Status
	Currency     valueobject.Currency
	TaxPct       float64
	DiscountPct  float64
	IssueDate    time.Time
	DueDate      *time.Time // invoices
	ValidUntil   *time.Time // quotes
	Reference    string
	Notes        string
	PaymentTerms string
	Seller       Party
	Buyer        Party
	Items        []LineItem
}

// NewDocument creates a new draft document
func NewDocument(docType DocType, number string, currency valueobject.Currency) (*Document, error) {
	if !docType.IsValid() {
		return nil, shared.NewDomainError("INVALID_DOC_TYPE", "Unknown document type")
	}
	number = strings.TrimSpace(number)
	if number == "" {
		return nil, shared.NewDomainError("INVALID_NUMBER", "Document number cannot be empty")
	}
	if currency == "" {
		currency = valueobject.DefaultCurrency
	}

	return &Document{
		BaseEntity: shared.NewBaseEntity(),
		Type:       docType,
		Number:     number,
		Status:     StatusDraft,
		Currency:   currency,
		IssueDate:  time.Now(),
		Items:      make([]LineItem, 0),
	}, nil
}

// Defaults returns the document-level rates
func (d *Document) Defaults() Defaults {
	return Defaults{TaxPct: d.TaxPct, DiscountPct: d.DiscountPct}
}

// SetDefaults sets the document-level tax and discount percentages
func (d *Document) SetDefaults(taxPct, discountPct float64) {
	d.TaxPct = taxPct
	d.DiscountPct = discountPct
	d.Touch()
}

// AddItem appends a line and assigns its position
func (d *Document) AddItem(item LineItem) error {
	if d.Status == StatusCancelled {
		return shared.NewDomainError("INVALID_STATE", "Cannot add items to a cancelled document")
	}
	item.Position = len(d.Items) + 1
	d.Items = append(d.Items, item)
	d.Touch()
	return nil
}

// RemoveItem removes the line at the given 1-based position and renumbers the rest
func (d *Document) RemoveItem(position int) error {
	if position < 1 || position > len(d.Items) {
		return shared.NewDomainError("ITEM_NOT_FOUND", "Line item not found")
	}
	d.Items = append(d.Items[:position-1], d.Items[position:]...)
	for i := range d.Items {
		d.Items[i].Position = i + 1
	}
	d.Touch()
	return nil
}

// SetStatus changes the document status
func (d *Document) SetStatus(status Status) error {
	if !status.IsValid() {
		return shared.NewDomainError("INVALID_STATUS", "Unknown document status")
	}
	d.Status = status
	d.Touch()
	return nil
}

// Totals computes the document totals from its lines
func (d *Document) Totals() Totals {
	return CalculateTotals(d.Items, d.Defaults())
}

// Breakdown computes the totals together with per-line results
func (d *Document) Breakdown() (Totals, []LineTotals) {
	return CalculateBreakdown(d.Items, d.Defaults())
}

// ItemCount returns the number of lines
func (d *Document) ItemCount() int {
	return len(d.Items)
}
