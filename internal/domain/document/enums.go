package document

import "strings"

// DocType represents the kind of commercial document
type DocType string

const (
	DocTypeQuote   DocType = "QUOTE"   // Tilbud
	DocTypeOrder   DocType = "ORDER"   // Ordrebekræftelse
	DocTypeInvoice DocType = "INVOICE" // Faktura
)

// IsValid checks if the DocType is a valid value
func (d DocType) IsValid() bool {
	switch d {
	case DocTypeQuote, DocTypeOrder, DocTypeInvoice:
		return true
	}
	return false
}

// String returns the string representation of DocType
func (d DocType) String() string {
	return string(d)
}

// DisplayName returns the Danish title printed on the document
func (d DocType) DisplayName() string {
	switch d {
	case DocTypeQuote:
		return "Tilbud"
	case DocTypeOrder:
		return "Ordrebekræftelse"
	case DocTypeInvoice:
		return "Faktura"
	default:
		return string(d)
	}
}

// FilePrefix returns the short prefix used in generated file names
func (d DocType) FilePrefix() string {
	switch d {
	case DocTypeQuote:
		return "tilbud"
	case DocTypeOrder:
		return "ordre"
	case DocTypeInvoice:
		return "faktura"
	default:
		return "dokument"
	}
}

// ParseDocType parses a document type case-insensitively.
// Plural URL forms ("quotes", "invoices") are accepted as well.
func ParseDocType(s string) (DocType, bool) {
	v := strings.ToUpper(strings.TrimSpace(s))
	v = strings.TrimSuffix(v, "S")
	d := DocType(v)
	return d, d.IsValid()
}

// AllDocTypes returns all valid DocType values
func AllDocTypes() []DocType {
	return []DocType{DocTypeQuote, DocTypeOrder, DocTypeInvoice}
}

// Status represents the lifecycle state of a document
type Status string

const (
	StatusDraft     Status = "DRAFT"
	StatusSent      Status = "SENT"
	StatusAccepted  Status = "ACCEPTED"
	StatusPaid      Status = "PAID"
	StatusCancelled Status = "CANCELLED"
)

// IsValid checks if the Status is a valid value
func (s Status) IsValid() bool {
	switch s {
	case StatusDraft, StatusSent, StatusAccepted, StatusPaid, StatusCancelled:
		return true
	}
	return false
}

// DisplayName returns the Danish status label
func (s Status) DisplayName() string {
	switch s {
	case StatusDraft:
		return "Kladde"
	case StatusSent:
		return "Sendt"
	case StatusAccepted:
		return "Accepteret"
	case StatusPaid:
		return "Betalt"
	case StatusCancelled:
		return "Annulleret"
	default:
		return string(s)
	}
}
