package persistence

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/mirumee/avatax-excise/internal/domain/tax"
	"github.com/mirumee/avatax-excise/internal/infrastructure/persistence/models"
)

// GormTransactionJournal implements tax.TransactionJournal using GORM
type GormTransactionJournal struct {
	db *gorm.DB
}

// NewGormTransactionJournal creates a new GormTransactionJournal
func NewGormTransactionJournal(db *gorm.DB) *GormTransactionJournal {
	return &GormTransactionJournal{db: db}
}

// Record inserts or updates the journal entry for record.Token
func (r *GormTransactionJournal) Record(ctx context.Context, record *tax.TransactionRecord) error {
	var model models.TaxTransactionModel
	model.FromDomain(record)

	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "token"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"kind", "invoice_number", "status", "total_tax_amount",
				"itemized_taxes", "user_tran_id", "attempts", "last_error",
				"updated_at",
			}),
		}).
		Create(&model).Error
	if err != nil {
		return err
	}

	record.ID = model.ID
	return nil
}

// FindByToken returns the journal entry for a checkout or order token
func (r *GormTransactionJournal) FindByToken(ctx context.Context, token string) (*tax.TransactionRecord, error) {
	var model models.TaxTransactionModel
	if err := r.db.WithContext(ctx).
		Where("token = ?", token).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, tax.ErrTransactionNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// UpdateItemizedTaxes replaces the stored itemized taxes for token, reporting
// whether anything changed. Unchanged payloads leave the row untouched so
// callers can skip redundant downstream updates. A token with no journal row
// yet counts as changed: the first calculation always differs from nothing.
func (r *GormTransactionJournal) UpdateItemizedTaxes(ctx context.Context, token string, itemizedTaxesJSON string) (bool, error) {
	var payload *string
	if itemizedTaxesJSON != "" {
		payload = &itemizedTaxesJSON
	}

	result := r.db.WithContext(ctx).
		Model(&models.TaxTransactionModel{}).
		Where("token = ? AND itemized_taxes IS DISTINCT FROM ?", token, payload).
		Update("itemized_taxes", payload)
	if result.Error != nil {
		return false, result.Error
	}
	if result.RowsAffected > 0 {
		return true, nil
	}

	// Nothing updated: either the stored payload already matches, or no row
	// exists yet for this token.
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.TaxTransactionModel{}).
		Where("token = ?", token).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count == 0, nil
}

// Ensure GormTransactionJournal implements TransactionJournal
var _ tax.TransactionJournal = (*GormTransactionJournal)(nil)
