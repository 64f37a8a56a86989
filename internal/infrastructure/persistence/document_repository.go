package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/crm/backend/internal/domain/document"
	"github.com/crm/backend/internal/domain/shared"
	"github.com/crm/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormDocumentRepository implements document.Repository using GORM
type GormDocumentRepository struct {
	db *gorm.DB
}

// NewGormDocumentRepository creates a new GormDocumentRepository
func NewGormDocumentRepository(db *gorm.DB) *GormDocumentRepository {
	return &GormDocumentRepository{db: db}
}

var companyUpdateColumns = []string{
	"name", "attention", "address_lines", "vat_number", "email", "phone", "logo_url", "updated_at",
}

var documentUpdateColumns = []string{
	"doc_type", "number", "status", "currency", "tax_pct", "discount_pct",
	"issue_date", "due_date", "valid_until", "reference", "notes", "payment_terms",
	"seller_id", "buyer_id", "updated_at",
}

// FindByID loads a document of the given type with its parties and items
func (r *GormDocumentRepository) FindByID(ctx context.Context, docType document.DocType, id uuid.UUID) (*document.Document, error) {
	var model models.DocumentModel
	err := r.db.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB {
			return db.Order("position ASC")
		}).
		Preload("Seller").
		Preload("Buyer").
		Where("id = ? AND doc_type = ?", id, docType).
		First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// Save upserts the document and both parties, then replaces the item rows.
// Parties without an ID are assigned one, which is written back to doc.
func (r *GormDocumentRepository) Save(ctx context.Context, doc *document.Document) error {
	if doc == nil || doc.ID == uuid.Nil {
		return shared.ErrInvalidInput
	}

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		now := time.Now()
		for _, party := range []*document.Party{&doc.Seller, &doc.Buyer} {
			if party.ID == uuid.Nil {
				party.ID = uuid.New()
			}
			company := models.CompanyModelFromDomain(*party, now)
			if err := tx.Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "id"}},
				DoUpdates: clause.AssignmentColumns(companyUpdateColumns),
			}).Create(company).Error; err != nil {
				return err
			}
		}

		model := models.DocumentModelFromDomain(doc)
		if model.CreatedAt.IsZero() {
			model.CreatedAt = now
		}
		model.UpdatedAt = now
		if err := tx.Omit(clause.Associations).Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			DoUpdates: clause.AssignmentColumns(documentUpdateColumns),
		}).Create(model).Error; err != nil {
			return err
		}

		if err := tx.Where("document_id = ?", doc.ID).Delete(&models.DocumentItemModel{}).Error; err != nil {
			return err
		}
		if len(model.Items) > 0 {
			if err := tx.Create(&model.Items).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return shared.ErrAlreadyExists
		}
		return err
	}

	for i := range doc.Items {
		doc.Items[i].Position = i + 1
	}
	return nil
}

// Delete removes a document of the given type together with its items
func (r *GormDocumentRepository) Delete(ctx context.Context, docType document.DocType, id uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Where("id = ? AND doc_type = ?", id, docType).Delete(&models.DocumentModel{})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return shared.ErrNotFound
		}
		return tx.Where("document_id = ?", id).Delete(&models.DocumentItemModel{}).Error
	})
}

// Ensure GormDocumentRepository implements document.Repository
var _ document.Repository = (*GormDocumentRepository)(nil)
