package persistence

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/crm/backend/internal/domain/document"
	"github.com/crm/backend/internal/domain/shared"
	"github.com/crm/backend/internal/domain/shared/valueobject"
	"github.com/crm/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// setupDocumentTestDB creates an in-memory SQLite database with the document tables
func setupDocumentTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{TranslateError: true})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	// every connection to :memory: is a separate database
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(
		&models.CompanyModel{},
		&models.DocumentModel{},
		&models.DocumentItemModel{},
	))
	return db
}

func newTestInvoice(t *testing.T, number string) *document.Document {
	t.Helper()
	doc, err := document.NewDocument(document.DocTypeInvoice, number, valueobject.DKK)
	require.NoError(t, err)
	doc.SetDefaults(25, 0)
	due := time.Date(2024, time.April, 4, 0, 0, 0, 0, time.UTC)
	doc.IssueDate = time.Date(2024, time.March, 5, 0, 0, 0, 0, time.UTC)
	doc.DueDate = &due
	doc.PaymentTerms = "Netto 30 dage"
	doc.Seller = document.Party{
		Name:         "Nordlys ApS",
		AddressLines: []string{"Havnegade 1", "1058 København K"},
		VATNumber:    "DK12345678",
		Email:        "faktura@nordlys.dk",
	}
	doc.Buyer = document.Party{
		Name:         "Kunde A/S",
		Attention:    "Mette Hansen",
		AddressLines: []string{"Vestergade 10", "8000 Aarhus C"},
	}
	require.NoError(t, doc.AddItem(document.NewLineItem("Konsulentbistand", 2, 100000)))
	require.NoError(t, doc.AddItem(document.NewLineItem("Licens", 1, 50000).WithDiscount(10)))
	return doc
}

func TestGormDocumentRepository_SaveAndFind(t *testing.T) {
	db := setupDocumentTestDB(t)
	repo := NewGormDocumentRepository(db)
	ctx := context.Background()

	doc := newTestInvoice(t, "2024-001")
	require.NoError(t, repo.Save(ctx, doc))
	assert.NotEqual(t, uuid.Nil, doc.Seller.ID)
	assert.NotEqual(t, uuid.Nil, doc.Buyer.ID)

	found, err := repo.FindByID(ctx, document.DocTypeInvoice, doc.ID)
	require.NoError(t, err)

	assert.Equal(t, doc.ID, found.ID)
	assert.Equal(t, "2024-001", found.Number)
	assert.Equal(t, document.StatusDraft, found.Status)
	assert.Equal(t, valueobject.DKK, found.Currency)
	assert.Equal(t, 25.0, found.TaxPct)
	require.NotNil(t, found.DueDate)
	assert.True(t, doc.DueDate.Equal(*found.DueDate))
	assert.Nil(t, found.ValidUntil)
	assert.Equal(t, "Netto 30 dage", found.PaymentTerms)

	assert.Equal(t, doc.Seller, found.Seller)
	assert.Equal(t, doc.Buyer, found.Buyer)

	require.Len(t, found.Items, 2)
	assert.Equal(t, "Konsulentbistand", found.Items[0].Description)
	assert.Equal(t, 1, found.Items[0].Position)
	assert.Nil(t, found.Items[0].DiscountPct)
	require.NotNil(t, found.Items[1].DiscountPct)
	assert.Equal(t, 10.0, *found.Items[1].DiscountPct)

	assert.Equal(t, doc.Totals(), found.Totals())
}

func TestGormDocumentRepository_SaveReplacesItems(t *testing.T) {
	db := setupDocumentTestDB(t)
	repo := NewGormDocumentRepository(db)
	ctx := context.Background()

	doc := newTestInvoice(t, "2024-002")
	require.NoError(t, repo.Save(ctx, doc))

	require.NoError(t, doc.RemoveItem(1))
	require.NoError(t, doc.AddItem(document.NewLineItem("Support", 3, 7500).WithTaxRate(0)))
	doc.Buyer.Name = "Kunde A/S (ny)"
	require.NoError(t, doc.SetStatus(document.StatusSent))
	require.NoError(t, repo.Save(ctx, doc))

	found, err := repo.FindByID(ctx, document.DocTypeInvoice, doc.ID)
	require.NoError(t, err)
	assert.Equal(t, document.StatusSent, found.Status)
	assert.Equal(t, "Kunde A/S (ny)", found.Buyer.Name)
	require.Len(t, found.Items, 2)
	assert.Equal(t, "Licens", found.Items[0].Description)
	assert.Equal(t, "Support", found.Items[1].Description)
	require.NotNil(t, found.Items[1].TaxRatePct)
	assert.Equal(t, 0.0, *found.Items[1].TaxRatePct)

	var count int64
	require.NoError(t, db.Model(&models.DocumentItemModel{}).Where("document_id = ?", doc.ID).Count(&count).Error)
	assert.Equal(t, int64(2), count)

	require.NoError(t, db.Model(&models.CompanyModel{}).Count(&count).Error)
	assert.Equal(t, int64(2), count)
}

func TestGormDocumentRepository_SaveEmptyItems(t *testing.T) {
	db := setupDocumentTestDB(t)
	repo := NewGormDocumentRepository(db)
	ctx := context.Background()

	doc, err := document.NewDocument(document.DocTypeQuote, "Q-1", valueobject.EUR)
	require.NoError(t, err)
	doc.Seller = document.Party{Name: "Nordlys ApS"}
	doc.Buyer = document.Party{Name: "Kunde A/S"}
	require.NoError(t, repo.Save(ctx, doc))

	found, err := repo.FindByID(ctx, document.DocTypeQuote, doc.ID)
	require.NoError(t, err)
	assert.Empty(t, found.Items)
	assert.Empty(t, found.Seller.AddressLines)
	assert.Equal(t, document.Totals{}, found.Totals())
}

func TestGormDocumentRepository_DuplicateNumber(t *testing.T) {
	db := setupDocumentTestDB(t)
	repo := NewGormDocumentRepository(db)
	ctx := context.Background()

	require.NoError(t, repo.Save(ctx, newTestInvoice(t, "2024-003")))
	err := repo.Save(ctx, newTestInvoice(t, "2024-003"))
	assert.ErrorIs(t, err, shared.ErrAlreadyExists)
}

func TestGormDocumentRepository_FindByID_NotFound(t *testing.T) {
	db := setupDocumentTestDB(t)
	repo := NewGormDocumentRepository(db)
	ctx := context.Background()

	doc := newTestInvoice(t, "2024-004")
	require.NoError(t, repo.Save(ctx, doc))

	tests := []struct {
		name    string
		docType document.DocType
		id      uuid.UUID
	}{
		{"unknown id", document.DocTypeInvoice, uuid.New()},
		{"wrong type", document.DocTypeQuote, doc.ID},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := repo.FindByID(ctx, tt.docType, tt.id)
			assert.ErrorIs(t, err, shared.ErrNotFound)
		})
	}
}

func TestGormDocumentRepository_Delete(t *testing.T) {
	db := setupDocumentTestDB(t)
	repo := NewGormDocumentRepository(db)
	ctx := context.Background()

	doc := newTestInvoice(t, "2024-005")
	require.NoError(t, repo.Save(ctx, doc))

	assert.ErrorIs(t, repo.Delete(ctx, document.DocTypeOrder, doc.ID), shared.ErrNotFound)

	require.NoError(t, repo.Delete(ctx, document.DocTypeInvoice, doc.ID))
	_, err := repo.FindByID(ctx, document.DocTypeInvoice, doc.ID)
	assert.ErrorIs(t, err, shared.ErrNotFound)

	var count int64
	require.NoError(t, db.Model(&models.DocumentItemModel{}).Where("document_id = ?", doc.ID).Count(&count).Error)
	assert.Zero(t, count)

	assert.ErrorIs(t, repo.Delete(ctx, document.DocTypeInvoice, doc.ID), shared.ErrNotFound)
}

func TestGormDocumentRepository_SaveRejectsNil(t *testing.T) {
	repo := NewGormDocumentRepository(setupDocumentTestDB(t))
	assert.ErrorIs(t, repo.Save(context.Background(), nil), shared.ErrInvalidInput)
	assert.ErrorIs(t, repo.Save(context.Background(), &document.Document{}), shared.ErrInvalidInput)
}

func TestGormDocumentRepository_Postgres(t *testing.T) {
	t.Run("find maps missing row to not found", func(t *testing.T) {
		db, mock := newMockDatabase(t)
		t.Cleanup(func() { _ = db.Close() })

		mock.ExpectQuery(`SELECT \* FROM "crm_documents" WHERE id = \$1 AND doc_type = \$2`).
			WillReturnRows(sqlmock.NewRows([]string{"id"}))

		repo := NewGormDocumentRepository(db.DB)
		_, err := repo.FindByID(context.Background(), document.DocTypeInvoice, uuid.New())
		assert.ErrorIs(t, err, shared.ErrNotFound)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("delete of missing document rolls back", func(t *testing.T) {
		db, mock := newMockDatabase(t)
		t.Cleanup(func() { _ = db.Close() })

		mock.ExpectBegin()
		mock.ExpectExec(`DELETE FROM "crm_documents" WHERE id = \$1 AND doc_type = \$2`).
			WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectRollback()

		repo := NewGormDocumentRepository(db.DB)
		err := repo.Delete(context.Background(), document.DocTypeQuote, uuid.New())
		assert.ErrorIs(t, err, shared.ErrNotFound)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("find propagates driver errors", func(t *testing.T) {
		db, mock := newMockDatabase(t)
		t.Cleanup(func() { _ = db.Close() })

		mock.ExpectQuery(`SELECT \* FROM "crm_documents"`).WillReturnError(assert.AnError)

		repo := NewGormDocumentRepository(db.DB)
		_, err := repo.FindByID(context.Background(), document.DocTypeOrder, uuid.New())
		assert.ErrorIs(t, err, assert.AnError)
	})
}
