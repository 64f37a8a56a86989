package models

import (
	"strings"
	"time"

	"github.com/crm/backend/internal/domain/document"
	"github.com/crm/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
)

// CompanyModel is the persistence model for a CRM company printed as seller or buyer
type CompanyModel struct {
	BaseModel
	Name         string `gorm:"type:varchar(200);not null"`
	Attention    string `gorm:"type:varchar(200)"`
	AddressLines string `gorm:"type:text"`
	VATNumber    string `gorm:"column:vat_number;type:varchar(50)"`
	Email        string `gorm:"type:varchar(200)"`
	Phone        string `gorm:"type:varchar(50)"`
	LogoURL      string `gorm:"column:logo_url;type:varchar(500)"`
}

// TableName returns the table name for GORM
func (CompanyModel) TableName() string {
	return "crm_companies"
}

// ToDomain converts the company to a document party
func (m *CompanyModel) ToDomain() document.Party {
	var lines []string
	if m.AddressLines != "" {
		lines = strings.Split(m.AddressLines, "\n")
	}
	return document.Party{
		ID:           m.ID,
		Name:         m.Name,
		Attention:    m.Attention,
		AddressLines: lines,
		VATNumber:    m.VATNumber,
		Email:        m.Email,
		Phone:        m.Phone,
		LogoURL:      m.LogoURL,
	}
}

// CompanyModelFromDomain creates a company row from a party. The party must have an ID.
func CompanyModelFromDomain(p document.Party, now time.Time) *CompanyModel {
	return &CompanyModel{
		BaseModel:    BaseModel{ID: p.ID, CreatedAt: now, UpdatedAt: now},
		Name:         p.Name,
		Attention:    p.Attention,
		AddressLines: strings.Join(p.AddressLines, "\n"),
		VATNumber:    p.VATNumber,
		Email:        p.Email,
		Phone:        p.Phone,
		LogoURL:      p.LogoURL,
	}
}

// DocumentModel is the persistence model for the Document aggregate root
type DocumentModel struct {
	BaseModel
	DocType      document.DocType    `gorm:"column:doc_type;type:varchar(20);not null;uniqueIndex:idx_crm_documents_type_number,priority:1"`
	Number       string              `gorm:"type:varchar(50);not null;uniqueIndex:idx_crm_documents_type_number,priority:2"`
	Status       document.Status     `gorm:"type:varchar(20);not null;default:'DRAFT'"`
	Currency     string              `gorm:"type:varchar(3);not null;default:'DKK'"`
	TaxPct       float64             `gorm:"not null;default:0"`
	DiscountPct  float64             `gorm:"not null;default:0"`
	IssueDate    time.Time           `gorm:"not null;index"`
	DueDate      *time.Time          `gorm:"index"`
	ValidUntil   *time.Time          `gorm:"index"`
	Reference    string              `gorm:"type:varchar(100)"`
	Notes        string              `gorm:"type:text"`
	PaymentTerms string              `gorm:"type:text"`
	SellerID     uuid.UUID           `gorm:"type:uuid;not null;index"`
	Seller       CompanyModel        `gorm:"foreignKey:SellerID"`
	BuyerID      uuid.UUID           `gorm:"type:uuid;not null;index"`
	Buyer        CompanyModel        `gorm:"foreignKey:BuyerID"`
	Items        []DocumentItemModel `gorm:"foreignKey:DocumentID;references:ID;constraint:OnDelete:CASCADE"`
}

// TableName returns the table name for GORM
func (DocumentModel) TableName() string {
	return "crm_documents"
}

// ToDomain converts the persistence model to a domain Document.
// Seller, Buyer and Items must have been preloaded.
func (m *DocumentModel) ToDomain() *document.Document {
	doc := &document.Document{
		BaseEntity:   m.BaseModel.ToDomain(),
		Type:         m.DocType,
		Number:       m.Number,
		Status:       m.Status,
		Currency:     valueobject.Currency(m.Currency),
		TaxPct:       m.TaxPct,
		DiscountPct:  m.DiscountPct,
		IssueDate:    m.IssueDate,
		DueDate:      m.DueDate,
		ValidUntil:   m.ValidUntil,
		Reference:    m.Reference,
		Notes:        m.Notes,
		PaymentTerms: m.PaymentTerms,
		Seller:       m.Seller.ToDomain(),
		Buyer:        m.Buyer.ToDomain(),
		Items:        make([]document.LineItem, len(m.Items)),
	}
	for i := range m.Items {
		doc.Items[i] = m.Items[i].ToDomain()
	}
	return doc
}

// DocumentModelFromDomain creates a new persistence model from a domain Document.
// Seller and buyer are referenced by ID only; items get fresh row IDs.
func DocumentModelFromDomain(d *document.Document) *DocumentModel {
	m := &DocumentModel{
		DocType:      d.Type,
		Number:       d.Number,
		Status:       d.Status,
		Currency:     string(d.Currency),
		TaxPct:       d.TaxPct,
		DiscountPct:  d.DiscountPct,
		IssueDate:    d.IssueDate,
		DueDate:      d.DueDate,
		ValidUntil:   d.ValidUntil,
		Reference:    d.Reference,
		Notes:        d.Notes,
		PaymentTerms: d.PaymentTerms,
		SellerID:     d.Seller.ID,
		BuyerID:      d.Buyer.ID,
		Items:        make([]DocumentItemModel, len(d.Items)),
	}
	m.FromDomainBaseEntity(d.BaseEntity)
	if m.Status == "" {
		m.Status = document.StatusDraft
	}
	for i, item := range d.Items {
		m.Items[i] = *DocumentItemModelFromDomain(d.ID, i+1, item)
	}
	return m
}

// DocumentItemModel is the persistence model for a document line
type DocumentItemModel struct {
	ID          uuid.UUID `gorm:"type:uuid;primary_key"`
	DocumentID  uuid.UUID `gorm:"type:uuid;not null;index"`
	Position    int       `gorm:"not null"`
	Description string    `gorm:"type:text;not null"`
	Qty         float64   `gorm:"not null;default:0"`
	UnitMinor   int64     `gorm:"not null;default:0"`
	TaxRatePct  *float64
	DiscountPct *float64
}

// TableName returns the table name for GORM
func (DocumentItemModel) TableName() string {
	return "crm_document_items"
}

// ToDomain converts the row to a domain LineItem
func (m *DocumentItemModel) ToDomain() document.LineItem {
	return document.LineItem{
		Position:    m.Position,
		Description: m.Description,
		Qty:         m.Qty,
		UnitMinor:   m.UnitMinor,
		TaxRatePct:  m.TaxRatePct,
		DiscountPct: m.DiscountPct,
	}
}

// DocumentItemModelFromDomain creates a row for the item at the given 1-based position
func DocumentItemModelFromDomain(documentID uuid.UUID, position int, item document.LineItem) *DocumentItemModel {
	return &DocumentItemModel{
		ID:          uuid.New(),
		DocumentID:  documentID,
		Position:    position,
		Description: item.Description,
		Qty:         item.Qty,
		UnitMinor:   item.UnitMinor,
		TaxRatePct:  item.TaxRatePct,
		DiscountPct: item.DiscountPct,
	}
}
