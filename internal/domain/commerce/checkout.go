package commerce

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CheckoutLine is a single position in an in-progress checkout
type CheckoutLine struct {
	// ID is the line identifier, carried through as the tax invoice line
	ID int64 `json:"id"`
	// Quantity is the ordered quantity
	Quantity int `json:"quantity"`
	// TotalAmount is the computed net total for the line
	TotalAmount decimal.Decimal `json:"total_amount"`
	// Variant is the sold product variant
	Variant ProductVariant `json:"variant"`
	// ChannelListing carries the channel-scoped pricing of the variant
	ChannelListing ChannelListing `json:"channel_listing"`
	// Warehouse is the stock origin the line ships from
	Warehouse Warehouse `json:"warehouse"`
}

// Checkout is an in-progress, mutable cart snapshot from the host platform
type Checkout struct {
	// Token is the checkout identifier
	Token uuid.UUID `json:"token"`
	// Currency is the checkout currency
	Currency string `json:"currency"`
	// Lines are the checkout positions
	Lines []CheckoutLine `json:"lines"`
	// ShippingAddress is the delivery destination
	ShippingAddress *Address `json:"shipping_address,omitempty"`
	// ShippingPrice is the net shipping charge, if shipping is taxed
	ShippingPrice *decimal.Decimal `json:"shipping_price,omitempty"`
	// ChargeTaxesOnShipping indicates whether shipping is a taxable line
	ChargeTaxesOnShipping bool `json:"charge_taxes_on_shipping"`
	// TaxIncluded indicates whether prices already include taxes
	TaxIncluded bool `json:"tax_included"`
	// DiscountAmount is the voucher discount applied to the checkout total
	DiscountAmount decimal.Decimal `json:"discount_amount"`
	// LastChange is the last modification timestamp
	LastChange time.Time `json:"last_change"`
}

// HasShippingAddress returns true when a usable shipping address is present
func (c *Checkout) HasShippingAddress() bool {
	return !c.ShippingAddress.IsZero()
}
