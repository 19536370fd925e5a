package tax

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

var (
	// ErrTransactionNotFound indicates no journal entry exists for the token
	ErrTransactionNotFound = errors.New("tax: transaction record not found")
)

// TransactionKind distinguishes checkout quotes from order submissions
type TransactionKind string

const (
	// TransactionKindCheckout is a non-committed quote for an open checkout
	TransactionKindCheckout TransactionKind = "CHECKOUT"
	// TransactionKindOrder is a transaction for a finalized order
	TransactionKindOrder TransactionKind = "ORDER"
)

// TransactionStatus is the lifecycle state of a journaled transaction
type TransactionStatus string

const (
	// TransactionStatusPending is set while an order submission is queued
	TransactionStatusPending TransactionStatus = "PENDING"
	// TransactionStatusSucceeded is set once the service accepted the transaction
	TransactionStatusSucceeded TransactionStatus = "SUCCEEDED"
	// TransactionStatusCommitted is set after an autocommitted transaction
	TransactionStatusCommitted TransactionStatus = "COMMITTED"
	// TransactionStatusFailed is set when submission retries are exhausted
	TransactionStatusFailed TransactionStatus = "FAILED"
)

// TransactionRecord is one journaled interaction with the excise service.
// It replaces the original integration's habit of stashing itemized taxes in
// the host platform's object metadata: the bridge owns this audit trail.
type TransactionRecord struct {
	ID                int64
	Kind              TransactionKind
	Token             string
	InvoiceNumber     string
	Status            TransactionStatus
	TotalTaxAmount    decimal.Decimal
	ItemizedTaxesJSON string
	UserTranID        string
	Attempts          int
	LastError         string
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// TransactionJournal persists the audit trail of excise transactions
type TransactionJournal interface {
	// Record inserts or updates the journal entry for record.Token
	Record(ctx context.Context, record *TransactionRecord) error

	// FindByToken returns the journal entry for a checkout or order token
	FindByToken(ctx context.Context, token string) (*TransactionRecord, error)

	// UpdateItemizedTaxes replaces the stored itemized taxes for token,
	// reporting whether anything changed
	UpdateItemizedTaxes(ctx context.Context, token string, itemizedTaxesJSON string) (bool, error)
}
