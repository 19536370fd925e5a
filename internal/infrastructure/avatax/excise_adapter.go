package avatax

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/mirumee/avatax-excise/internal/domain/commerce"
	"github.com/mirumee/avatax-excise/internal/domain/tax"
	"github.com/mirumee/avatax-excise/internal/infrastructure/telemetry"
)

// Constants for the excise API
const (
	// maxExciseResponseSize limits the response body size to prevent memory exhaustion
	maxExciseResponseSize = 10 * 1024 * 1024 // 10MB max response

	// pingPath verifies connectivity and credentials
	pingPath = "utilities/ping"
	// transactionCreatePath creates a (non-committed) transaction
	transactionCreatePath = "AvaTaxExcise/transactions/create"
	// transactionCommitPathFormat commits a previously created transaction
	transactionCommitPathFormat = "AvaTaxExcise/transactions/%s/commit"
)

// ExciseAdapter implements the tax.Calculator interface against the Avalara
// Excise REST API
type ExciseAdapter struct {
	config     *ExciseConfig
	builder    *RequestBuilder
	httpClient *http.Client
}

// NewExciseAdapter creates a new excise adapter with the given configuration
func NewExciseAdapter(config *ExciseConfig) (*ExciseAdapter, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &ExciseAdapter{
		config:  config,
		builder: NewRequestBuilder(config),
		httpClient: &http.Client{
			Timeout: time.Duration(config.TimeoutSeconds) * time.Second,
		},
	}, nil
}

// CalculateCheckout creates a non-committed transaction for an in-progress
// checkout and returns the calculated taxes
func (a *ExciseAdapter) CalculateCheckout(ctx context.Context, checkout *commerce.Checkout) (*tax.CalculationResult, error) {
	ctx, span := telemetry.StartSpan(ctx, "avatax.calculate_checkout",
		telemetry.WithAttribute("checkout_token", checkout.Token.String()),
		telemetry.WithAttribute("lines_count", len(checkout.Lines)),
	)
	defer span.End()

	req, err := a.builder.BuildCheckoutRequest(checkout)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	result, err := a.createTransaction(ctx, req)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	return result, nil
}

// CalculateOrder creates a transaction for a finalized order and returns the
// calculated taxes
func (a *ExciseAdapter) CalculateOrder(ctx context.Context, order *commerce.Order) (*tax.CalculationResult, error) {
	ctx, span := telemetry.StartSpan(ctx, "avatax.calculate_order",
		telemetry.WithAttribute("order_id", order.ID),
		telemetry.WithAttribute("lines_count", len(order.Lines)),
	)
	defer span.End()

	req, err := a.builder.BuildOrderRequest(order)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	result, err := a.createTransaction(ctx, req)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	return result, nil
}

// createTransaction posts the request and maps the response
func (a *ExciseAdapter) createTransaction(ctx context.Context, req *TransactionCreateRequest) (*tax.CalculationResult, error) {
	if len(req.TransactionLines) == 0 {
		return nil, tax.ErrNoTaxableLines
	}

	respBody, err := a.doRequest(ctx, http.MethodPost, transactionCreatePath, req)
	if err != nil {
		return nil, err
	}

	var resp TransactionCreateResponse
	if err := json.Unmarshal(respBody, &resp); err != nil {
		return nil, fmt.Errorf("%w: %v", tax.ErrInvalidResponse, err)
	}

	if !resp.IsSuccess() {
		return nil, mapTransactionError(&resp)
	}

	return buildCalculationResult(&resp)
}

// CommitTransaction commits a previously created transaction so it appears in
// Avalara's filed reports
func (a *ExciseAdapter) CommitTransaction(ctx context.Context, userTranID string) error {
	ctx, span := telemetry.StartSpan(ctx, "avatax.commit_transaction",
		telemetry.WithAttribute("user_tran_id", userTranID),
	)
	defer span.End()

	path := fmt.Sprintf(transactionCommitPathFormat, url.PathEscape(userTranID))
	respBody, err := a.doRequest(ctx, http.MethodPost, path, nil)
	if err != nil {
		telemetry.RecordError(span, err)
		return err
	}

	var resp TransactionCreateResponse
	if err := json.Unmarshal(respBody, &resp); err != nil {
		err = fmt.Errorf("%w: %v", tax.ErrInvalidResponse, err)
		telemetry.RecordError(span, err)
		return err
	}

	if !resp.IsSuccess() {
		err := mapTransactionError(&resp)
		telemetry.RecordError(span, err)
		return err
	}

	return nil
}

// Ping verifies connectivity and credentials against the excise service
func (a *ExciseAdapter) Ping(ctx context.Context) error {
	ctx, span := telemetry.StartSpan(ctx, "avatax.ping")
	defer span.End()

	respBody, err := a.doRequest(ctx, http.MethodGet, pingPath, nil)
	if err != nil {
		telemetry.RecordError(span, err)
		return err
	}

	var resp PingResponse
	if err := json.Unmarshal(respBody, &resp); err != nil {
		err = fmt.Errorf("%w: %v", tax.ErrInvalidResponse, err)
		telemetry.RecordError(span, err)
		return err
	}

	if !resp.Authenticated {
		telemetry.RecordError(span, tax.ErrAuthFailed)
		return tax.ErrAuthFailed
	}

	return nil
}

// ---------------------------------------------------------------------------
// Internal Helpers
// ---------------------------------------------------------------------------

// doRequest performs an HTTP request against the excise API. Every request
// carries basic auth credentials and the x-company-id header.
func (a *ExciseAdapter) doRequest(ctx context.Context, method, path string, payload any) ([]byte, error) {
	var body io.Reader
	if payload != nil {
		bodyBytes, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("avatax: failed to marshal request: %w", err)
		}
		body = bytes.NewReader(bodyBytes)
	}

	req, err := http.NewRequestWithContext(ctx, method, a.config.APIBaseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("avatax: failed to create request: %w", err)
	}

	req.SetBasicAuth(a.config.Username, a.config.Password)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("x-company-id", a.config.CompanyID)

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", tax.ErrServiceUnavailable, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxExciseResponseSize))
	if err != nil {
		return nil, fmt.Errorf("avatax: failed to read response: %w", err)
	}

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return nil, fmt.Errorf("%w: HTTP %d", tax.ErrAuthFailed, resp.StatusCode)
	case resp.StatusCode >= 500:
		return nil, fmt.Errorf("%w: HTTP %d", tax.ErrServiceUnavailable, resp.StatusCode)
	case resp.StatusCode >= 400:
		return nil, fmt.Errorf("%w: HTTP %d", tax.ErrRequestFailed, resp.StatusCode)
	}

	return respBody, nil
}

// mapTransactionError maps a failed create response onto a domain error.
// Error code -1003 means the destination address could not be resolved to a
// taxing jurisdiction, which the storefront should surface to the customer.
func mapTransactionError(resp *TransactionCreateResponse) error {
	for _, e := range resp.TransactionErrors {
		if e.ErrorCode == errorCodeAddressUnmappable {
			return fmt.Errorf("%w: %s", tax.ErrAddressUnmappable, e.ErrorMessage)
		}
	}
	if resp.ErrorCode == errorCodeAddressUnmappable {
		return tax.ErrAddressUnmappable
	}
	if len(resp.TransactionErrors) > 0 {
		first := resp.TransactionErrors[0]
		return fmt.Errorf("%w: %s - %s", tax.ErrRequestFailed, first.ErrorCode, first.ErrorMessage)
	}
	return fmt.Errorf("%w: status %q", tax.ErrRequestFailed, resp.Status)
}

// buildCalculationResult maps a successful create response onto the domain
// result, preserving the raw itemized taxes payload
func buildCalculationResult(resp *TransactionCreateResponse) (*tax.CalculationResult, error) {
	lines := make([]tax.LineTax, 0, len(resp.TransactionTaxes))
	for _, t := range resp.TransactionTaxes {
		lines = append(lines, tax.LineTax{
			InvoiceLine:  t.InvoiceLine,
			TaxAmount:    t.TaxAmount,
			TaxName:      t.TaxName,
			Jurisdiction: t.Jurisdiction,
		})
	}

	itemized, err := json.Marshal(resp.TransactionTaxes)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", tax.ErrInvalidResponse, err)
	}

	return &tax.CalculationResult{
		TotalTaxAmount:    resp.TotalTaxAmount,
		Lines:             lines,
		ItemizedTaxesJSON: string(itemized),
		UserTranID:        resp.UserTranID,
		CalculatedAt:      time.Now(),
	}, nil
}

// RequestFingerprint returns a stable digest of a transaction request, used
// to decide whether a cached calculation is still valid for a checkout
func RequestFingerprint(req *TransactionCreateRequest) string {
	data, err := json.Marshal(req)
	if err != nil {
		return ""
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// Builder exposes the request builder for callers that need to fingerprint a
// request without submitting it
func (a *ExciseAdapter) Builder() *RequestBuilder {
	return a.builder
}

// CheckoutFingerprint builds the transaction request a checkout would produce
// and returns its fingerprint, without submitting anything
func (a *ExciseAdapter) CheckoutFingerprint(checkout *commerce.Checkout) (string, error) {
	req, err := a.builder.BuildCheckoutRequest(checkout)
	if err != nil {
		return "", err
	}
	return RequestFingerprint(req), nil
}

// Ensure ExciseAdapter implements the Calculator interface
var _ tax.Calculator = (*ExciseAdapter)(nil)
