package printing

import (
	"strings"
	"time"

	"github.com/crm/backend/internal/domain/document"
	"github.com/crm/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
)

// DocumentData is the view model shared by all rendering backends.
// Every amount is pre-formatted for display; arithmetic happens in the
// document package before this is built.
type DocumentData struct {
	Meta   DocumentMeta  `json:"meta"`
	Seller PartyInfo     `json:"seller"`
	Buyer  PartyInfo     `json:"buyer"`
	Items  []ItemData    `json:"items"`
	Totals TotalsData    `json:"totals"`
	Notes  string        `json:"notes"`
	Terms  string        `json:"terms"`
	Labels Labels        `json:"labels"`
	Assets *RenderAssets `json:"-"`

	PrintDate string `json:"printDate"`
}

// DocumentMeta contains header information
type DocumentMeta struct {
	ID          uuid.UUID            `json:"id"`
	DocType     document.DocType     `json:"docType"`
	Title       string               `json:"title"`
	Number      string               `json:"number"`
	Status      string               `json:"status"`
	Currency    valueobject.Currency `json:"currency"`
	Locale      string               `json:"locale"`
	IssueDate   string               `json:"issueDate"`
	DueDate     string               `json:"dueDate,omitempty"`
	ValidUntil  string               `json:"validUntil,omitempty"`
	Reference   string               `json:"reference,omitempty"`
	FileName    string               `json:"fileName"`
	GeneratedAt time.Time            `json:"generatedAt"`
}

// PartyInfo is a seller or buyer block
type PartyInfo struct {
	Name         string   `json:"name"`
	Attention    string   `json:"attention,omitempty"`
	AddressLines []string `json:"addressLines,omitempty"`
	VATNumber    string   `json:"vatNumber,omitempty"`
	Email        string   `json:"email,omitempty"`
	Phone        string   `json:"phone,omitempty"`
	LogoURL      string   `json:"logoUrl,omitempty"`
}

// Lines returns the printable lines of the party block below the name
func (p PartyInfo) Lines(vatLabel string) []string {
	lines := make([]string, 0, len(p.AddressLines)+4)
	if p.Attention != "" {
		lines = append(lines, "Att.: "+p.Attention)
	}
	lines = append(lines, p.AddressLines...)
	if p.VATNumber != "" {
		lines = append(lines, vatLabel+" "+p.VATNumber)
	}
	if p.Email != "" {
		lines = append(lines, p.Email)
	}
	if p.Phone != "" {
		lines = append(lines, p.Phone)
	}
	return lines
}

// ItemData is one formatted table row
type ItemData struct {
	Position    int    `json:"position"`
	Description string `json:"description"`
	Qty         string `json:"qty"`
	UnitPrice   string `json:"unitPrice"`
	Discount    string `json:"discount"`
	TaxRate     string `json:"taxRate"`
	Amount      string `json:"amount"`

	SubtotalMinor int64 `json:"subtotalMinor"`
}

// TotalsData holds the formatted totals box
type TotalsData struct {
	Subtotal string `json:"subtotal"`
	Tax      string `json:"tax"`
	Total    string `json:"total"`

	SubtotalMinor int64 `json:"subtotalMinor"`
	TaxMinor      int64 `json:"taxMinor"`
	TotalMinor    int64 `json:"totalMinor"`
}

// Labels are the fixed strings printed on a document
type Labels struct {
	Seller      string `json:"seller"`
	Buyer       string `json:"buyer"`
	Number      string `json:"number"`
	Date        string `json:"date"`
	DueDate     string `json:"dueDate"`
	ValidUntil  string `json:"validUntil"`
	Reference   string `json:"reference"`
	Description string `json:"description"`
	Qty         string `json:"qty"`
	UnitPrice   string `json:"unitPrice"`
	Discount    string `json:"discount"`
	Amount      string `json:"amount"`
	Subtotal    string `json:"subtotal"`
	Tax         string `json:"tax"`
	Total       string `json:"total"`
	Notes       string `json:"notes"`
	Terms       string `json:"terms"`
	VAT         string `json:"vat"`
	NoItems     string `json:"noItems"`
	Page        string `json:"page"`
}

// DanishLabels returns the default Danish labels
func DanishLabels() Labels {
	return Labels{
		Seller:      "Fra",
		Buyer:       "Til",
		Number:      "Nummer",
		Date:        "Dato",
		DueDate:     "Forfaldsdato",
		ValidUntil:  "Gyldig til",
		Reference:   "Reference",
		Description: "Beskrivelse",
		Qty:         "Antal",
		UnitPrice:   "Enhedspris",
		Discount:    "Rabat",
		Amount:      "Beløb",
		Subtotal:    "Subtotal",
		Tax:         "Moms",
		Total:       "Total",
		Notes:       "Bemærkninger",
		Terms:       "Betalingsbetingelser",
		VAT:         "CVR",
		NoItems:     "Ingen linjer",
		Page:        "Side",
	}
}

// RenderAssets holds fetched logo and font bytes. Either may be nil, in
// which case backends fall back to no logo and a standard font.
type RenderAssets struct {
	Logo     []byte
	LogoType string // "PNG" or "JPG"
	Font     []byte
	BoldFont []byte
}

// HasLogo reports whether a usable logo was fetched
func (a *RenderAssets) HasLogo() bool {
	return a != nil && len(a.Logo) > 0 && a.LogoType != ""
}

// HasFont reports whether a custom TrueType font was fetched
func (a *RenderAssets) HasFont() bool {
	return a != nil && len(a.Font) > 0
}

const dateLayout = "02-01-2006"

// NewDocumentData builds the view model for a document in a locale
func NewDocumentData(doc *document.Document, locale string) *DocumentData {
	f := valueobject.NewFormatter(locale)
	totals, lines := doc.Breakdown()

	items := make([]ItemData, len(doc.Items))
	for i, item := range doc.Items {
		lt := lines[i]
		pos := item.Position
		if pos == 0 {
			pos = i + 1
		}
		discount := ""
		if lt.EffectiveDiscountPct != 0 {
			discount = f.FormatPercent(lt.EffectiveDiscountPct)
		}
		items[i] = ItemData{
			Position:      pos,
			Description:   item.Description,
			Qty:           f.FormatQuantity(item.Qty),
			UnitPrice:     f.Format(item.UnitMinor, doc.Currency),
			Discount:      discount,
			TaxRate:       f.FormatPercent(lt.EffectiveTaxPct),
			Amount:        f.Format(lt.SubtotalMinor, doc.Currency),
			SubtotalMinor: lt.SubtotalMinor,
		}
	}

	meta := DocumentMeta{
		ID:          doc.ID,
		DocType:     doc.Type,
		Title:       doc.Type.DisplayName(),
		Number:      doc.Number,
		Status:      doc.Status.DisplayName(),
		Currency:    doc.Currency,
		Locale:      f.Locale(),
		IssueDate:   formatDate(doc.IssueDate),
		Reference:   doc.Reference,
		FileName:    FileName(doc.Type, doc.Number),
		GeneratedAt: time.Now(),
	}
	if doc.DueDate != nil {
		meta.DueDate = formatDate(*doc.DueDate)
	}
	if doc.ValidUntil != nil {
		meta.ValidUntil = formatDate(*doc.ValidUntil)
	}

	return &DocumentData{
		Meta:   meta,
		Seller: partyInfo(doc.Seller),
		Buyer:  partyInfo(doc.Buyer),
		Items:  items,
		Totals: TotalsData{
			Subtotal:      f.Format(totals.SubtotalMinor, doc.Currency),
			Tax:           f.Format(totals.TaxMinor, doc.Currency),
			Total:         f.Format(totals.TotalMinor, doc.Currency),
			SubtotalMinor: totals.SubtotalMinor,
			TaxMinor:      totals.TaxMinor,
			TotalMinor:    totals.TotalMinor,
		},
		Notes:     strings.TrimSpace(doc.Notes),
		Terms:     strings.TrimSpace(doc.PaymentTerms),
		Labels:    DanishLabels(),
		PrintDate: formatDate(time.Now()),
	}
}

func partyInfo(p document.Party) PartyInfo {
	return PartyInfo{
		Name:         p.Name,
		Attention:    p.Attention,
		AddressLines: p.AddressLines,
		VATNumber:    p.VATNumber,
		Email:        p.Email,
		Phone:        p.Phone,
		LogoURL:      p.LogoURL,
	}
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(dateLayout)
}

// FileName returns the download name, e.g. "faktura-2024-001.pdf"
func FileName(docType document.DocType, number string) string {
	clean := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		case r == ' ' || r == '/' || r == '.':
			return '-'
		default:
			return -1
		}
	}, strings.TrimSpace(number))
	if clean == "" {
		clean = "udkast"
	}
	return docType.FilePrefix() + "-" + clean + ".pdf"
}
