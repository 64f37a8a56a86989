package printing

import (
	"time"

	"github.com/crm/backend/internal/domain/document"
)

// =============================================================================
// Totals DTOs
// =============================================================================

// LineItemDTO is one editor line sent for a totals calculation
type LineItemDTO struct {
	Description string   `json:"description" binding:"max=2000"`
	Qty         float64  `json:"qty"`
	UnitMinor   int64    `json:"unit_minor"`
	TaxRatePct  *float64 `json:"tax_rate_pct"`
	DiscountPct *float64 `json:"discount_pct"`
}

// ToDomain converts the DTO to a domain line item
func (l LineItemDTO) ToDomain() document.LineItem {
	item := document.NewLineItem(l.Description, l.Qty, l.UnitMinor)
	item.TaxRatePct = l.TaxRatePct
	item.DiscountPct = l.DiscountPct
	return item
}

// CalculateTotalsRequest represents a stateless totals calculation
type CalculateTotalsRequest struct {
	Items       []LineItemDTO `json:"items" binding:"dive"`
	TaxPct      float64       `json:"tax_pct"`
	DiscountPct float64       `json:"discount_pct"`
	Currency    string        `json:"currency" binding:"omitempty,len=3"`
}

// LineTotalsResponse is the computed result for one line
type LineTotalsResponse struct {
	Position             int     `json:"position"`
	SubtotalMinor        int64   `json:"subtotal_minor"`
	TaxMinor             int64   `json:"tax_minor"`
	TotalMinor           int64   `json:"total_minor"`
	EffectiveTaxPct      float64 `json:"effective_tax_pct"`
	EffectiveDiscountPct float64 `json:"effective_discount_pct"`
}

// TotalsResponse carries totals in minor units plus display strings
type TotalsResponse struct {
	Currency      string               `json:"currency"`
	SubtotalMinor int64                `json:"subtotal_minor"`
	TaxMinor      int64                `json:"tax_minor"`
	TotalMinor    int64                `json:"total_minor"`
	Subtotal      string               `json:"subtotal"`
	Tax           string               `json:"tax"`
	Total         string               `json:"total"`
	Lines         []LineTotalsResponse `json:"lines,omitempty"`
}

// =============================================================================
// PDF Generation DTOs
// =============================================================================

// GeneratePDFRequest represents a request to render a stored document
type GeneratePDFRequest struct {
	DocumentType string      `json:"document_type" binding:"required"`
	DocumentID   string      `json:"document_id" binding:"required,uuid"`
	Backend      string      `json:"backend" form:"backend"`
	PaperSize    string      `json:"paper_size" form:"paper_size"`
	Orientation  string      `json:"orientation" form:"orientation"`
	Margins      *MarginsDTO `json:"margins"`
	Archive      bool        `json:"archive" form:"archive"`
}

// MarginsDTO represents page margins in millimeters
type MarginsDTO struct {
	Top    int `json:"top"`
	Right  int `json:"right"`
	Bottom int `json:"bottom"`
	Left   int `json:"left"`
}

// GeneratePDFResponse represents a rendered PDF
type GeneratePDFResponse struct {
	DocumentID       string         `json:"document_id"`
	DocumentType     string         `json:"document_type"`
	Number           string         `json:"number"`
	FileName         string         `json:"file_name"`
	ContentType      string         `json:"content_type"`
	Backend          string         `json:"backend"`
	Size             int            `json:"size"`
	PageCount        int            `json:"page_count"`
	RenderDurationMs int64          `json:"render_duration_ms"`
	PDFBase64        string         `json:"pdf_base64,omitempty"`
	StoragePath      string         `json:"storage_path,omitempty"`
	StorageURL       string         `json:"storage_url,omitempty"`
	Totals           TotalsResponse `json:"totals"`
	GeneratedAt      time.Time      `json:"generated_at"`

	// PDFData holds the raw bytes for direct downloads
	PDFData []byte `json:"-"`
}

// PreviewResponse represents an HTML preview of a stored document
type PreviewResponse struct {
	DocumentID   string `json:"document_id"`
	DocumentType string `json:"document_type"`
	FileName     string `json:"file_name"`
	HTML         string `json:"html"`
}

// =============================================================================
// Reference Data DTOs
// =============================================================================

// DocumentTypeResponse represents a document type option
type DocumentTypeResponse struct {
	Code        string `json:"code"`
	DisplayName string `json:"display_name"`
}

// PaperSizeResponse represents a paper size option
type PaperSizeResponse struct {
	Code   string `json:"code"`
	Width  int    `json:"width"`  // mm
	Height int    `json:"height"` // mm
}

// BackendResponse represents a rendering backend and whether it is usable
type BackendResponse struct {
	Code      string `json:"code"`
	Available bool   `json:"available"`
	Default   bool   `json:"default"`
}
