package models

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/mirumee/avatax-excise/internal/domain/tax"
)

// TaxTransactionModel is the persistence model for the TransactionRecord
// domain entity. One row exists per checkout or order token.
type TaxTransactionModel struct {
	ID                int64                 `gorm:"primary_key;autoIncrement"`
	Kind              tax.TransactionKind   `gorm:"type:varchar(20);not null;index:idx_tax_transactions_kind"`
	Token             string                `gorm:"type:varchar(64);not null;uniqueIndex:idx_tax_transactions_token"`
	InvoiceNumber     string                `gorm:"type:varchar(64);index:idx_tax_transactions_invoice"`
	Status            tax.TransactionStatus `gorm:"type:varchar(20);not null;default:'PENDING'"`
	TotalTaxAmount    decimal.Decimal       `gorm:"type:decimal(20,4);not null;default:0"`
	// Pointer so records without itemized taxes store NULL; an empty string
	// is not valid jsonb and postgres would reject the write.
	ItemizedTaxesJSON *string `gorm:"type:jsonb;column:itemized_taxes"`
	UserTranID        string                `gorm:"type:varchar(100);column:user_tran_id"`
	Attempts          int                   `gorm:"not null;default:0"`
	LastError         string                `gorm:"type:text"`
	CreatedAt         time.Time             `gorm:"not null"`
	UpdatedAt         time.Time             `gorm:"not null"`
}

// TableName returns the table name for GORM
func (TaxTransactionModel) TableName() string {
	return "tax_transactions"
}

// ToDomain converts the persistence model to a domain TransactionRecord
func (m *TaxTransactionModel) ToDomain() *tax.TransactionRecord {
	itemized := ""
	if m.ItemizedTaxesJSON != nil {
		itemized = *m.ItemizedTaxesJSON
	}
	return &tax.TransactionRecord{
		ID:                m.ID,
		Kind:              m.Kind,
		Token:             m.Token,
		InvoiceNumber:     m.InvoiceNumber,
		Status:            m.Status,
		TotalTaxAmount:    m.TotalTaxAmount,
		ItemizedTaxesJSON: itemized,
		UserTranID:        m.UserTranID,
		Attempts:          m.Attempts,
		LastError:         m.LastError,
		CreatedAt:         m.CreatedAt,
		UpdatedAt:         m.UpdatedAt,
	}
}

// FromDomain populates the persistence model from a domain TransactionRecord
func (m *TaxTransactionModel) FromDomain(r *tax.TransactionRecord) {
	m.ID = r.ID
	m.Kind = r.Kind
	m.Token = r.Token
	m.InvoiceNumber = r.InvoiceNumber
	m.Status = r.Status
	m.TotalTaxAmount = r.TotalTaxAmount
	m.ItemizedTaxesJSON = nil
	if r.ItemizedTaxesJSON != "" {
		itemized := r.ItemizedTaxesJSON
		m.ItemizedTaxesJSON = &itemized
	}
	m.UserTranID = r.UserTranID
	m.Attempts = r.Attempts
	m.LastError = r.LastError
	m.CreatedAt = r.CreatedAt
	m.UpdatedAt = r.UpdatedAt
}
