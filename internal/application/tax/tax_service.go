package tax

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/mirumee/avatax-excise/internal/domain/commerce"
	"github.com/mirumee/avatax-excise/internal/domain/tax"
	"github.com/mirumee/avatax-excise/internal/infrastructure/telemetry"
)

var (
	// ErrRecentCalculationFailure is returned when the last calculation for a
	// checkout failed and the failure TTL has not elapsed yet. Callers should
	// not retry until it does.
	ErrRecentCalculationFailure = errors.New("tax: calculation failed recently, not retrying yet")
)

// Fingerprinter derives a stable digest of the wire request a checkout would
// produce, so cached results can be invalidated when the checkout changes
type Fingerprinter interface {
	CheckoutFingerprint(checkout *commerce.Checkout) (string, error)
}

// OrderSubmitter queues finalized orders for asynchronous submission to the
// excise service
type OrderSubmitter interface {
	Enqueue(ctx context.Context, order *commerce.Order) error
}

// Config holds service-level tuning knobs
type Config struct {
	// CheckoutTTL is how long a successful calculation stays cached
	CheckoutTTL time.Duration
	// FailureTTL is the short TTL stored after a failed calculation
	FailureTTL time.Duration
}

// Service orchestrates excise tax calculations: caching, journaling and
// asynchronous order submission sit here, the wire protocol lives in the
// calculator adapter.
type Service struct {
	calculator    tax.Calculator
	fingerprinter Fingerprinter
	cache         tax.ResponseCache
	journal       tax.TransactionJournal
	submitter     OrderSubmitter
	checkoutTTL   time.Duration
	failureTTL    time.Duration
	logger        *zap.Logger
}

// NewService creates a new tax application service
func NewService(
	calculator tax.Calculator,
	fingerprinter Fingerprinter,
	cache tax.ResponseCache,
	journal tax.TransactionJournal,
	submitter OrderSubmitter,
	cfg Config,
	logger *zap.Logger,
) *Service {
	if cfg.CheckoutTTL <= 0 {
		cfg.CheckoutTTL = time.Hour
	}
	if cfg.FailureTTL <= 0 {
		cfg.FailureTTL = 10 * time.Second
	}
	return &Service{
		calculator:    calculator,
		fingerprinter: fingerprinter,
		cache:         cache,
		journal:       journal,
		submitter:     submitter,
		checkoutTTL:   cfg.CheckoutTTL,
		failureTTL:    cfg.FailureTTL,
		logger:        logger,
	}
}

// ---------------------------------------------------------------------------
// DTOs
// ---------------------------------------------------------------------------

// TaxedLine is the per-line outcome of a checkout calculation
type TaxedLine struct {
	LineID      int64           `json:"line_id"`
	Quantity    int             `json:"quantity"`
	NetAmount   decimal.Decimal `json:"net_amount"`
	TaxAmount   decimal.Decimal `json:"tax_amount"`
	GrossAmount decimal.Decimal `json:"gross_amount"`
}

// CheckoutTaxesResult is the outcome of a checkout calculation, shaped for the
// storefront: taxed totals plus the per-line breakdown
type CheckoutTaxesResult struct {
	TotalNetAmount    decimal.Decimal `json:"total_net_amount"`
	TotalTaxAmount    decimal.Decimal `json:"total_tax_amount"`
	TotalGrossAmount  decimal.Decimal `json:"total_gross_amount"`
	ShippingTaxAmount decimal.Decimal `json:"shipping_tax_amount"`
	Lines             []TaxedLine     `json:"lines"`
	UserTranID        string          `json:"user_tran_id,omitempty"`
	CacheHit          bool            `json:"cache_hit"`
	// TaxesChanged tells the storefront the itemized taxes differ from the
	// previous calculation for this checkout, so it should refresh any
	// stored copy
	TaxesChanged bool `json:"taxes_changed"`
}

// ---------------------------------------------------------------------------
// Checkout Operations
// ---------------------------------------------------------------------------

// CalculateCheckoutTaxes returns the excise taxes for an in-progress checkout.
// Results are cached per checkout token and keyed by a request fingerprint, so
// an unchanged checkout never hits the excise service twice within the TTL.
// A failed calculation is cached for a short window to keep storefront
// refreshes from hammering an unhealthy service.
func (s *Service) CalculateCheckoutTaxes(ctx context.Context, checkout *commerce.Checkout) (*CheckoutTaxesResult, error) {
	ctx, span := telemetry.StartSpan(ctx, "tax.calculate_checkout",
		telemetry.WithAttribute(telemetry.SpanAttrCheckoutToken, checkout.Token.String()),
		telemetry.WithAttribute(telemetry.SpanAttrLinesCount, len(checkout.Lines)),
	)
	defer span.End()

	fingerprint, err := s.fingerprinter.CheckoutFingerprint(checkout)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	token := checkout.Token.String()

	if cached, cachedFP, ok := s.cache.Get(ctx, token); ok && cachedFP == fingerprint {
		telemetry.SetAttribute(span, telemetry.SpanAttrCacheHit, true)
		if cached == nil {
			return nil, ErrRecentCalculationFailure
		}
		return s.buildCheckoutResult(checkout, cached, true, false), nil
	}
	telemetry.SetAttribute(span, telemetry.SpanAttrCacheHit, false)

	result, err := s.calculator.CalculateCheckout(ctx, checkout)
	if err != nil {
		if cacheErr := s.cache.Set(ctx, token, fingerprint, nil, s.failureTTL); cacheErr != nil {
			s.logger.Warn("Failed to cache calculation failure",
				zap.Error(cacheErr),
				zap.String("checkout_token", token),
			)
		}
		telemetry.RecordError(span, err)
		return nil, err
	}

	if cacheErr := s.cache.Set(ctx, token, fingerprint, result, s.checkoutTTL); cacheErr != nil {
		s.logger.Warn("Failed to cache calculation result",
			zap.Error(cacheErr),
			zap.String("checkout_token", token),
		)
	}

	changed := s.journalCheckoutResult(ctx, token, result)

	telemetry.SetAttribute(span, telemetry.SpanAttrTotalTax, result.TotalTaxAmount.String())
	return s.buildCheckoutResult(checkout, result, false, changed), nil
}

// PreprocessOrderCreation validates that a checkout can become an order: the
// excise service must accept the would-be transaction. Unlike the quote path
// this is strict and uncached; any failure aborts order placement. An
// unmappable destination address surfaces as tax.ErrAddressUnmappable so the
// storefront can ask the customer to fix it.
func (s *Service) PreprocessOrderCreation(ctx context.Context, checkout *commerce.Checkout) error {
	ctx, span := telemetry.StartSpan(ctx, "tax.preprocess_order_creation",
		telemetry.WithAttribute(telemetry.SpanAttrCheckoutToken, checkout.Token.String()),
	)
	defer span.End()

	if _, err := s.calculator.CalculateCheckout(ctx, checkout); err != nil {
		telemetry.RecordError(span, err)
		return err
	}
	return nil
}

// ---------------------------------------------------------------------------
// Order Operations
// ---------------------------------------------------------------------------

// SubmitOrder journals a pending transaction for the order and queues it for
// asynchronous submission. The submission worker retries and commits.
func (s *Service) SubmitOrder(ctx context.Context, order *commerce.Order) error {
	ctx, span := telemetry.StartSpan(ctx, "tax.submit_order",
		telemetry.WithAttribute(telemetry.SpanAttrOrderID, order.ID),
		telemetry.WithAttribute(telemetry.SpanAttrInvoiceNumber, strconv.FormatInt(order.ID, 10)),
	)
	defer span.End()

	record := &tax.TransactionRecord{
		Kind:          tax.TransactionKindOrder,
		Token:         order.Token.String(),
		InvoiceNumber: strconv.FormatInt(order.ID, 10),
		Status:        tax.TransactionStatusPending,
	}
	if err := s.journal.Record(ctx, record); err != nil {
		telemetry.RecordError(span, err)
		return err
	}

	if err := s.submitter.Enqueue(ctx, order); err != nil {
		telemetry.RecordError(span, err)
		return err
	}

	s.logger.Info("Order queued for excise submission",
		zap.Int64("order_id", order.ID),
		zap.String("order_token", order.Token.String()),
	)
	return nil
}

// GetTransaction returns the journaled transaction for a checkout or order token
func (s *Service) GetTransaction(ctx context.Context, token string) (*tax.TransactionRecord, error) {
	return s.journal.FindByToken(ctx, token)
}

// ---------------------------------------------------------------------------
// Configuration Operations
// ---------------------------------------------------------------------------

// ValidateCredentials verifies connectivity and credentials against the
// excise service
func (s *Service) ValidateCredentials(ctx context.Context) error {
	ctx, span := telemetry.StartSpan(ctx, "tax.validate_credentials")
	defer span.End()

	if err := s.calculator.Ping(ctx); err != nil {
		telemetry.RecordError(span, err)
		return err
	}
	return nil
}

// ---------------------------------------------------------------------------
// Internal Helpers
// ---------------------------------------------------------------------------

// journalCheckoutResult persists the calculation to the transaction journal
// and reports whether the itemized taxes changed since the last calculation.
// Journal failures are logged, never surfaced: the customer still gets taxes.
func (s *Service) journalCheckoutResult(ctx context.Context, token string, result *tax.CalculationResult) bool {
	changed, err := s.journal.UpdateItemizedTaxes(ctx, token, result.ItemizedTaxesJSON)
	if err != nil {
		s.logger.Warn("Failed to update journaled itemized taxes",
			zap.Error(err),
			zap.String("checkout_token", token),
		)
	}
	if changed {
		s.logger.Debug("Itemized taxes changed since last calculation",
			zap.String("checkout_token", token),
		)
	}

	record := &tax.TransactionRecord{
		Kind:              tax.TransactionKindCheckout,
		Token:             token,
		Status:            tax.TransactionStatusSucceeded,
		TotalTaxAmount:    result.TotalTaxAmount,
		ItemizedTaxesJSON: result.ItemizedTaxesJSON,
		UserTranID:        result.UserTranID,
	}
	if err := s.journal.Record(ctx, record); err != nil {
		s.logger.Warn("Failed to journal checkout calculation",
			zap.Error(err),
			zap.String("checkout_token", token),
		)
	}

	return changed
}

// buildCheckoutResult projects the calculation onto the storefront-facing
// totals. When prices already include taxes the quoted amounts stay gross and
// the tax share is carved out; otherwise taxes are added on top.
func (s *Service) buildCheckoutResult(checkout *commerce.Checkout, result *tax.CalculationResult, cacheHit, changed bool) *CheckoutTaxesResult {
	lines := make([]TaxedLine, 0, len(checkout.Lines))
	totalNet := decimal.Zero

	for _, line := range checkout.Lines {
		lineTax := result.LineTaxTotal(line.ID)

		var net, gross decimal.Decimal
		if checkout.TaxIncluded {
			gross = line.TotalAmount
			net = line.TotalAmount.Sub(lineTax)
		} else {
			net = line.TotalAmount
			gross = line.TotalAmount.Add(lineTax)
		}

		lines = append(lines, TaxedLine{
			LineID:      line.ID,
			Quantity:    line.Quantity,
			NetAmount:   net,
			TaxAmount:   lineTax,
			GrossAmount: gross,
		})
		totalNet = totalNet.Add(net)
	}

	// Freight taxes carry no invoice line
	shippingTax := result.LineTaxTotal(0)
	if checkout.ShippingPrice != nil {
		if checkout.TaxIncluded {
			totalNet = totalNet.Add(checkout.ShippingPrice.Sub(shippingTax))
		} else {
			totalNet = totalNet.Add(*checkout.ShippingPrice)
		}
	}

	totalGross := totalNet.Add(result.TotalTaxAmount).Sub(checkout.DiscountAmount)
	if totalGross.IsNegative() {
		totalGross = decimal.Zero
	}

	return &CheckoutTaxesResult{
		TotalNetAmount:    totalNet,
		TotalTaxAmount:    result.TotalTaxAmount,
		TotalGrossAmount:  totalGross,
		ShippingTaxAmount: shippingTax,
		Lines:             lines,
		UserTranID:        result.UserTranID,
		CacheHit:          cacheHit,
		TaxesChanged:      changed,
	}
}
