package handler

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	taxapp "github.com/mirumee/avatax-excise/internal/application/tax"
	"github.com/mirumee/avatax-excise/internal/domain/commerce"
	"github.com/mirumee/avatax-excise/internal/domain/tax"
	"github.com/mirumee/avatax-excise/internal/interfaces/http/dto"
)

// TaxService defines the tax operations the handler depends on
type TaxService interface {
	CalculateCheckoutTaxes(ctx context.Context, checkout *commerce.Checkout) (*taxapp.CheckoutTaxesResult, error)
	PreprocessOrderCreation(ctx context.Context, checkout *commerce.Checkout) error
	SubmitOrder(ctx context.Context, order *commerce.Order) error
	GetTransaction(ctx context.Context, token string) (*tax.TransactionRecord, error)
	ValidateCredentials(ctx context.Context) error
}

// TaxHandler handles the storefront-facing tax endpoints
type TaxHandler struct {
	BaseHandler
	service TaxService
	logger  *zap.Logger
}

// NewTaxHandler creates a new tax handler
func NewTaxHandler(service TaxService, logger *zap.Logger) *TaxHandler {
	return &TaxHandler{
		service: service,
		logger:  logger,
	}
}

// RegisterRoutes registers tax routes
func (h *TaxHandler) RegisterRoutes(rg *gin.RouterGroup) {
	taxes := rg.Group("/taxes")
	{
		taxes.POST("/checkout", h.CalculateCheckoutTaxes)
		taxes.POST("/order-preview", h.PreviewOrderCreation)
	}

	orders := rg.Group("/orders")
	{
		orders.POST("/created", h.OrderCreated)
	}

	transactions := rg.Group("/transactions")
	{
		transactions.GET("/:token", h.GetTransaction)
	}

	configuration := rg.Group("/configuration")
	{
		configuration.POST("/validate", h.ValidateConfiguration)
	}
}

// transactionResponse is the wire shape of a journaled transaction
type transactionResponse struct {
	Kind           string          `json:"kind"`
	Token          string          `json:"token"`
	InvoiceNumber  string          `json:"invoice_number,omitempty"`
	Status         string          `json:"status"`
	TotalTaxAmount decimal.Decimal `json:"total_tax_amount"`
	UserTranID     string          `json:"user_tran_id,omitempty"`
	Attempts       int             `json:"attempts"`
	LastError      string          `json:"last_error,omitempty"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

func toTransactionResponse(record *tax.TransactionRecord) transactionResponse {
	return transactionResponse{
		Kind:           string(record.Kind),
		Token:          record.Token,
		InvoiceNumber:  record.InvoiceNumber,
		Status:         string(record.Status),
		TotalTaxAmount: record.TotalTaxAmount,
		UserTranID:     record.UserTranID,
		Attempts:       record.Attempts,
		LastError:      record.LastError,
		CreatedAt:      record.CreatedAt,
		UpdatedAt:      record.UpdatedAt,
	}
}

// CalculateCheckoutTaxes handles POST /taxes/checkout
// The body is the host platform's checkout snapshot; the response carries the
// taxed totals and per-line breakdown.
func (h *TaxHandler) CalculateCheckoutTaxes(c *gin.Context) {
	var checkout commerce.Checkout
	if err := c.ShouldBindJSON(&checkout); err != nil {
		h.Error(c, 400, dto.ErrCodeInvalidJSON, "Invalid checkout payload: "+err.Error())
		return
	}
	if checkout.Token == uuid.Nil {
		h.BadRequest(c, "Checkout token is required")
		return
	}

	result, err := h.service.CalculateCheckoutTaxes(c.Request.Context(), &checkout)
	if err != nil {
		h.HandleTaxError(c, err)
		return
	}

	h.Success(c, result)
}

// PreviewOrderCreation handles POST /taxes/order-preview
// It verifies the excise service would accept the checkout as an order, so the
// storefront can block order placement on an unmappable address.
func (h *TaxHandler) PreviewOrderCreation(c *gin.Context) {
	var checkout commerce.Checkout
	if err := c.ShouldBindJSON(&checkout); err != nil {
		h.Error(c, 400, dto.ErrCodeInvalidJSON, "Invalid checkout payload: "+err.Error())
		return
	}
	if checkout.Token == uuid.Nil {
		h.BadRequest(c, "Checkout token is required")
		return
	}

	if err := h.service.PreprocessOrderCreation(c.Request.Context(), &checkout); err != nil {
		h.HandleTaxError(c, err)
		return
	}

	h.Success(c, gin.H{"checkout_token": checkout.Token.String(), "can_create_order": true})
}

// OrderCreated handles POST /orders/created
// The order is queued for asynchronous submission, so the storefront's
// order-placed flow never waits on the excise service.
func (h *TaxHandler) OrderCreated(c *gin.Context) {
	var order commerce.Order
	if err := c.ShouldBindJSON(&order); err != nil {
		h.Error(c, 400, dto.ErrCodeInvalidJSON, "Invalid order payload: "+err.Error())
		return
	}
	if order.ID <= 0 {
		h.BadRequest(c, "Order ID is required")
		return
	}
	if order.Token == uuid.Nil {
		h.BadRequest(c, "Order token is required")
		return
	}

	if err := h.service.SubmitOrder(c.Request.Context(), &order); err != nil {
		h.HandleTaxError(c, err)
		return
	}

	h.Accepted(c, gin.H{"order_token": order.Token.String(), "status": string(tax.TransactionStatusPending)})
}

// GetTransaction handles GET /transactions/:token
func (h *TaxHandler) GetTransaction(c *gin.Context) {
	token := c.Param("token")
	if _, err := uuid.Parse(token); err != nil {
		h.BadRequest(c, "Invalid transaction token")
		return
	}

	record, err := h.service.GetTransaction(c.Request.Context(), token)
	if err != nil {
		h.HandleTaxError(c, err)
		return
	}

	h.Success(c, toTransactionResponse(record))
}

// ValidateConfiguration handles POST /configuration/validate
// It pings the excise service with the configured credentials.
func (h *TaxHandler) ValidateConfiguration(c *gin.Context) {
	if err := h.service.ValidateCredentials(c.Request.Context()); err != nil {
		h.HandleTaxError(c, err)
		return
	}

	h.Success(c, gin.H{"valid": true})
}
