package tax

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"

	"github.com/mirumee/avatax-excise/internal/domain/commerce"
)

// ---------------------------------------------------------------------------
// Errors
// ---------------------------------------------------------------------------

var (
	// ErrShippingAddressRequired indicates the checkout or order has no
	// shipping address, which the excise service needs for every line
	ErrShippingAddressRequired = errors.New("tax: shipping address required for excise tax calculation")
	// ErrNoTaxableLines indicates the request would carry no transaction lines
	ErrNoTaxableLines = errors.New("tax: no taxable lines to submit")
	// ErrServiceUnavailable indicates the excise service could not be reached
	ErrServiceUnavailable = errors.New("tax: excise service temporarily unavailable")
	// ErrAuthFailed indicates the excise service rejected the credentials
	ErrAuthFailed = errors.New("tax: excise service authentication failed")
	// ErrInvalidResponse indicates the excise service returned an unparsable body
	ErrInvalidResponse = errors.New("tax: invalid excise service response")
	// ErrRequestFailed indicates the excise service reported transaction errors
	ErrRequestFailed = errors.New("tax: excise transaction failed")
	// ErrAddressUnmappable indicates the destination address could not be
	// resolved to a tax jurisdiction (service error code -1003)
	ErrAddressUnmappable = errors.New("tax: destination address could not be mapped to a jurisdiction")
)

// ---------------------------------------------------------------------------
// Value Objects
// ---------------------------------------------------------------------------

// LineTax is the tax calculated for a single invoice line
type LineTax struct {
	// InvoiceLine is the host platform line identifier, zero for freight
	InvoiceLine int64
	// TaxAmount is the tax calculated for the line
	TaxAmount decimal.Decimal
	// TaxName is the levy name reported by the service
	TaxName string
	// Jurisdiction is the taxing jurisdiction
	Jurisdiction string
}

// CalculationResult is the outcome of a successful transaction creation
type CalculationResult struct {
	// TotalTaxAmount is the transaction-wide tax amount
	TotalTaxAmount decimal.Decimal
	// Lines are the itemized per-line taxes
	Lines []LineTax
	// ItemizedTaxesJSON is the raw itemized taxes payload, preserved for
	// the host platform's checkout/order metadata
	ItemizedTaxesJSON string
	// UserTranID is the service-side transaction identifier, needed to
	// commit the transaction later
	UserTranID string
	// CalculatedAt is when the result was produced
	CalculatedAt time.Time
}

// LineTaxTotal sums the itemized taxes attributed to one invoice line
func (r *CalculationResult) LineTaxTotal(invoiceLine int64) decimal.Decimal {
	total := decimal.Zero
	for _, line := range r.Lines {
		if line.InvoiceLine == invoiceLine {
			total = total.Add(line.TaxAmount)
		}
	}
	return total
}

// ---------------------------------------------------------------------------
// Ports
// ---------------------------------------------------------------------------

// Calculator is the port to the external excise tax service. The concrete
// adapter lives in the infrastructure layer.
type Calculator interface {
	// CalculateCheckout creates a (non-committed) transaction for an
	// in-progress checkout and returns the calculated taxes
	CalculateCheckout(ctx context.Context, checkout *commerce.Checkout) (*CalculationResult, error)

	// CalculateOrder creates a transaction for a finalized order and
	// returns the calculated taxes
	CalculateOrder(ctx context.Context, order *commerce.Order) (*CalculationResult, error)

	// CommitTransaction commits a previously created transaction
	CommitTransaction(ctx context.Context, userTranID string) error

	// Ping verifies connectivity and credentials against the service
	Ping(ctx context.Context) error
}

// ResponseCache stores calculation results keyed by an opaque token so
// unchanged checkouts do not hit the excise service twice
type ResponseCache interface {
	// Get returns the cached result and the request fingerprint it was
	// computed from; ok is false on a miss or after expiry
	Get(ctx context.Context, token string) (result *CalculationResult, fingerprint string, ok bool)

	// Set stores a result under token together with its request fingerprint
	Set(ctx context.Context, token string, fingerprint string, result *CalculationResult, ttl time.Duration) error
}
