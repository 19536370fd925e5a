package commerce

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// OrderLine is a single position in a finalized order
type OrderLine struct {
	// ID is the line identifier, carried through as the tax invoice line
	ID int64 `json:"id"`
	// Quantity is the ordered quantity
	Quantity int `json:"quantity"`
	// UnitPriceNetAmount is the net unit price
	UnitPriceNetAmount decimal.Decimal `json:"unit_price_net_amount"`
	// Variant is the sold product variant; nil when it was deleted after purchase
	Variant *ProductVariant `json:"variant,omitempty"`
	// ChannelListing carries the channel-scoped pricing of the variant
	ChannelListing ChannelListing `json:"channel_listing"`
	// Warehouse is the stock origin the line ships from
	Warehouse Warehouse `json:"warehouse"`
}

// TotalAmount returns the net total for the line
func (l *OrderLine) TotalAmount() decimal.Decimal {
	return l.UnitPriceNetAmount.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// Order is a finalized, immutable order snapshot from the host platform
type Order struct {
	// ID is the numeric order identifier, used as the tax invoice number
	ID int64 `json:"id"`
	// Token is the order identifier
	Token uuid.UUID `json:"token"`
	// Currency is the order currency
	Currency string `json:"currency"`
	// Lines are the order positions
	Lines []OrderLine `json:"lines"`
	// ShippingAddress is the delivery destination
	ShippingAddress *Address `json:"shipping_address,omitempty"`
	// TaxIncluded indicates whether prices already include taxes
	TaxIncluded bool `json:"tax_included"`
	// CreatedAt is the order creation timestamp
	CreatedAt time.Time `json:"created_at"`
}

// HasShippingAddress returns true when a usable shipping address is present
func (o *Order) HasShippingAddress() bool {
	return !o.ShippingAddress.IsZero()
}
