package commerce

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ProductType carries the shared attributes of a family of products.
// Excise-specific attributes (units of measure) live in its private metadata.
type ProductType struct {
	// ID is the product type identifier in the host platform
	ID string `json:"id"`
	// Name is the product type name
	Name string `json:"name,omitempty"`
	// PrivateMetadata is the namespaced key-value store attached by the host
	PrivateMetadata map[string]string `json:"private_metadata,omitempty"`
}

// Product is the parent entity of a variant
type Product struct {
	// ID is the product identifier in the host platform
	ID string `json:"id"`
	// Name is the product name
	Name string `json:"name,omitempty"`
	// ChargeTaxes indicates whether the host platform taxes this product
	ChargeTaxes bool `json:"charge_taxes"`
	// ProductType is the parent product type
	ProductType ProductType `json:"product_type"`
	// PrivateMetadata is the namespaced key-value store attached by the host
	PrivateMetadata map[string]string `json:"private_metadata,omitempty"`
}

// ProductVariant is the sellable unit referenced by checkout and order lines
type ProductVariant struct {
	// ID is the variant identifier in the host platform
	ID string `json:"id"`
	// SKU is the stock keeping unit, mapped verbatim to the tax product code
	SKU string `json:"sku"`
	// Product is the parent product
	Product Product `json:"product"`
	// PrivateMetadata is the namespaced key-value store attached by the host
	PrivateMetadata map[string]string `json:"private_metadata,omitempty"`
}

// ChannelListing holds the channel-scoped pricing of a variant
type ChannelListing struct {
	// ChannelSlug identifies the sales channel
	ChannelSlug string `json:"channel_slug,omitempty"`
	// Currency is the listing currency
	Currency string `json:"currency,omitempty"`
	// PriceAmount is the selling price per unit
	PriceAmount decimal.Decimal `json:"price_amount"`
	// CostPriceAmount is the cost price per unit, if known
	CostPriceAmount *decimal.Decimal `json:"cost_price_amount,omitempty"`
}

// Warehouse is the stock origin for a shipped line
type Warehouse struct {
	// ID is the warehouse identifier in the host platform
	ID uuid.UUID `json:"id"`
	// Name is the warehouse name
	Name string `json:"name,omitempty"`
	// Address is the warehouse postal address, used as the origin address
	Address Address `json:"address"`
}

// MetadataValue looks up a key in a private metadata map.
// Absent keys resolve to the empty string; the lookup never fails.
func MetadataValue(metadata map[string]string, key string) string {
	if metadata == nil {
		return ""
	}
	return metadata[key]
}

// MetadataValue returns the value stored under key in the variant's
// private metadata, or the empty string when the key is absent.
func (v *ProductVariant) MetadataValue(key string) string {
	return MetadataValue(v.PrivateMetadata, key)
}

// MetadataValue returns the value stored under key in the product type's
// private metadata, or the empty string when the key is absent.
func (t *ProductType) MetadataValue(key string) string {
	return MetadataValue(t.PrivateMetadata, key)
}
