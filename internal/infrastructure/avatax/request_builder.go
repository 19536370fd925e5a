package avatax

import (
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"github.com/mirumee/avatax-excise/internal/domain/commerce"
	"github.com/mirumee/avatax-excise/internal/domain/tax"
)

// RequestBuilder projects host platform entity graphs onto flat excise
// transaction requests. It is pure: every output field is a deterministic
// projection of exactly one input path, absent sources resolve to unset
// fields, and building never fails for mapping reasons.
type RequestBuilder struct {
	config *ExciseConfig
	now    func() time.Time
}

// NewRequestBuilder creates a request builder for the given configuration
func NewRequestBuilder(config *ExciseConfig) *RequestBuilder {
	return &RequestBuilder{
		config: config,
		now:    time.Now,
	}
}

// lineInput abstracts a taxable line regardless of checkout or order origin
type lineInput struct {
	lineID      int64
	quantity    int
	amount      decimal.Decimal
	taxIncluded bool
	variant     *commerce.ProductVariant
	listing     *commerce.ChannelListing
	shipping    *commerce.Address
	origin      *commerce.Address
}

// BuildCheckoutRequest builds a transaction request for an in-progress
// checkout. The shipping address is required; everything else is optional.
func (b *RequestBuilder) BuildCheckoutRequest(checkout *commerce.Checkout) (*TransactionCreateRequest, error) {
	if !checkout.HasShippingAddress() {
		return nil, tax.ErrShippingAddressRequired
	}

	lines := make([]TransactionLine, 0, len(checkout.Lines)+1)
	for i := range checkout.Lines {
		line := &checkout.Lines[i]
		lines = append(lines, b.buildLine(lineInput{
			lineID:      line.ID,
			quantity:    line.Quantity,
			amount:      line.TotalAmount,
			taxIncluded: checkout.TaxIncluded,
			variant:     &line.Variant,
			listing:     &line.ChannelListing,
			shipping:    checkout.ShippingAddress,
			origin:      &line.Warehouse.Address,
		}))
	}

	if checkout.ChargeTaxesOnShipping && checkout.ShippingPrice != nil {
		lines = append(lines, b.buildFreightLine(*checkout.ShippingPrice, checkout.ShippingAddress))
	}

	return b.newRequest(lines, ""), nil
}

// BuildOrderRequest builds a transaction request for a finalized order.
// Lines whose variant was deleted after purchase are skipped, matching the
// host platform's own behavior.
func (b *RequestBuilder) BuildOrderRequest(order *commerce.Order) (*TransactionCreateRequest, error) {
	if !order.HasShippingAddress() {
		return nil, tax.ErrShippingAddressRequired
	}

	lines := make([]TransactionLine, 0, len(order.Lines))
	for i := range order.Lines {
		line := &order.Lines[i]
		if line.Variant == nil {
			continue
		}
		lines = append(lines, b.buildLine(lineInput{
			lineID:      line.ID,
			quantity:    line.Quantity,
			amount:      line.TotalAmount(),
			taxIncluded: order.TaxIncluded,
			variant:     line.Variant,
			listing:     &line.ChannelListing,
			shipping:    order.ShippingAddress,
			origin:      &line.Warehouse.Address,
		}))
	}

	return b.newRequest(lines, strconv.FormatInt(order.ID, 10)), nil
}

// newRequest wraps lines in the request envelope. TransactionType and
// TitleTransferCode are constant on every request.
func (b *RequestBuilder) newRequest(lines []TransactionLine, invoiceNumber string) *TransactionCreateRequest {
	today := b.now().UTC().Format("2006-01-02")
	return &TransactionCreateRequest{
		EffectiveDate:     today,
		InvoiceDate:       today,
		InvoiceNumber:     invoiceNumber,
		TitleTransferCode: TitleTransferCodeDestination,
		TransactionType:   TransactionTypeRetail,
		TransactionLines:  lines,
	}
}

// buildLine projects one taxable line onto a TransactionLine, field by field
func (b *RequestBuilder) buildLine(in lineInput) TransactionLine {
	variant := in.variant
	productType := &variant.Product.ProductType

	lineID := in.lineID
	amount := in.amount
	billedUnits := decimal.NewFromInt(int64(in.quantity))

	line := TransactionLine{
		InvoiceLine: &lineID,
		ProductCode: variant.SKU,
		UnitPrice:   &amount,
		UnitOfMeasure: productType.MetadataValue(
			tax.MetadataKey(tax.MetadataFieldUnitOfMeasure)),
		BilledUnits:        &billedUnits,
		LineAmount:         &amount,
		AlternateUnitPrice: in.listing.CostPriceAmount,
		TaxIncluded:        in.taxIncluded,
		UnitQuantity: metadataInt(variant.MetadataValue(
			tax.MetadataKey(tax.MetadataFieldUnitQuantity))),
		UnitQuantityUnitOfMeasure: productType.MetadataValue(
			tax.MetadataKey(tax.MetadataFieldUnitQuantityUnitOfMeasure)),
		UserData: variant.SKU,
		CustomString1: variant.MetadataValue(
			tax.MetadataKey(tax.MetadataFieldCustomString1)),
		CustomString2: variant.MetadataValue(
			tax.MetadataKey(tax.MetadataFieldCustomString2)),
		CustomString3: variant.MetadataValue(
			tax.MetadataKey(tax.MetadataFieldCustomString3)),
		CustomNumeric1: metadataDecimal(variant.MetadataValue(
			tax.MetadataKey(tax.MetadataFieldCustomNumeric1))),
		CustomNumeric2: metadataDecimal(variant.MetadataValue(
			tax.MetadataKey(tax.MetadataFieldCustomNumeric2))),
		CustomNumeric3: metadataDecimal(variant.MetadataValue(
			tax.MetadataKey(tax.MetadataFieldCustomNumeric3))),
	}

	applyDestinationAddress(&line, in.shipping)
	applySaleAddress(&line, in.shipping)
	applyOriginAddress(&line, in.origin)

	return line
}

// buildFreightLine builds the shipping line. Freight has no invoice line,
// no billed units and no metadata-driven fields.
func (b *RequestBuilder) buildFreightLine(shippingPrice decimal.Decimal, shipping *commerce.Address) TransactionLine {
	line := TransactionLine{
		InvoiceLine:   nil,
		ProductCode:   b.config.FreightProductCode,
		UnitOfMeasure: FreightUnitOfMeasure,
		LineAmount:    &shippingPrice,
		TaxIncluded:   false,
		UserData:      "Shipping",
	}

	applyDestinationAddress(&line, shipping)
	applySaleAddress(&line, shipping)

	return line
}

// applyDestinationAddress maps the shipping address onto the Destination*
// fields without transformation
func applyDestinationAddress(line *TransactionLine, addr *commerce.Address) {
	if addr == nil {
		return
	}
	line.DestinationCountryCode = addr.CountryAlpha3
	line.DestinationJurisdiction = addr.CountryArea
	line.DestinationAddress1 = addr.StreetAddress1
	line.DestinationAddress2 = addr.StreetAddress2
	line.DestinationCity = addr.City
	line.DestinationCounty = addr.CityArea
	line.DestinationPostalCode = addr.PostalCode
}

// applySaleAddress maps the shipping address onto the Sale* fields; for
// direct-to-consumer sales the sale location equals the destination
func applySaleAddress(line *TransactionLine, addr *commerce.Address) {
	if addr == nil {
		return
	}
	line.SaleCountryCode = addr.CountryAlpha3
	line.SaleJurisdiction = addr.CountryArea
	line.SaleAddress1 = addr.StreetAddress1
	line.SaleAddress2 = addr.StreetAddress2
	line.SaleCity = addr.City
	line.SaleCounty = addr.CityArea
	line.SalePostalCode = addr.PostalCode
}

// applyOriginAddress maps the warehouse address onto the Origin* fields
func applyOriginAddress(line *TransactionLine, addr *commerce.Address) {
	if addr.IsZero() {
		return
	}
	line.OriginCountryCode = addr.CountryAlpha3
	line.OriginJurisdiction = addr.CountryArea
	line.OriginAddress1 = addr.StreetAddress1
	line.OriginAddress2 = addr.StreetAddress2
	line.OriginCity = addr.City
	line.OriginCounty = addr.CityArea
	line.OriginPostalCode = addr.PostalCode
}

// metadataInt parses an integer metadata value; malformed or absent values
// resolve to an unset field rather than an error
func metadataInt(value string) *int {
	if value == "" {
		return nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return nil
	}
	return &n
}

// metadataDecimal parses a decimal metadata value; malformed or absent
// values resolve to an unset field rather than an error
func metadataDecimal(value string) *decimal.Decimal {
	if value == "" {
		return nil
	}
	d, err := decimal.NewFromString(value)
	if err != nil {
		return nil
	}
	return &d
}
