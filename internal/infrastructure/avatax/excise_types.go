package avatax

import (
	"github.com/shopspring/decimal"
)

// Constants sent on every transaction. TransactionType RETAIL and
// TitleTransferCode DEST are unconditional for direct-to-consumer sales.
const (
	// TransactionTypeRetail is the transaction type for every request
	TransactionTypeRetail = "RETAIL"
	// TitleTransferCodeDestination indicates title transfers at the destination
	TitleTransferCodeDestination = "DEST"
	// FreightUnitOfMeasure is the unit of measure for the shipping line ("Each")
	FreightUnitOfMeasure = "EA"
)

// Response status values reported by the excise API
const (
	// StatusSuccess indicates the transaction was accepted
	StatusSuccess = "Success"
	// StatusErrorsFound indicates the transaction carries errors
	StatusErrorsFound = "Errors found"
)

// errorCodeAddressUnmappable is returned when the destination address cannot
// be resolved to a taxing jurisdiction
const errorCodeAddressUnmappable = "-1003"

// ---------------------------------------------------------------------------
// Request Types
// ---------------------------------------------------------------------------

// TransactionLine is one line of an excise transaction request. Every field
// is a direct projection of exactly one host platform attribute; decimals
// serialize as JSON strings, which is what the excise API expects.
type TransactionLine struct {
	// InvoiceLine is the host platform line ID; nil for the freight line
	InvoiceLine *int64 `json:"InvoiceLine"`
	// ProductCode is the variant SKU, verbatim
	ProductCode string `json:"ProductCode"`
	// UnitPrice is the net price for the line
	UnitPrice *decimal.Decimal `json:"UnitPrice"`
	// UnitOfMeasure is the base selling unit, from product type metadata
	UnitOfMeasure string `json:"UnitOfMeasure,omitempty"`
	// BilledUnits is the billed quantity
	BilledUnits *decimal.Decimal `json:"BilledUnits"`
	// LineAmount is the net total for the line
	LineAmount *decimal.Decimal `json:"LineAmount"`
	// AlternateUnitPrice is the variant cost price
	AlternateUnitPrice *decimal.Decimal `json:"AlternateUnitPrice"`
	// TaxIncluded indicates whether the amounts already include taxes
	TaxIncluded bool `json:"TaxIncluded"`
	// UnitQuantity is the per-unit content (e.g. milliliters per can)
	UnitQuantity *int `json:"UnitQuantity,omitempty"`
	// UnitQuantityUnitOfMeasure is the unit of UnitQuantity
	UnitQuantityUnitOfMeasure string `json:"UnitQuantityUnitOfMeasure,omitempty"`

	// DestinationCountryCode is the ISO 3166-1 alpha-3 destination country
	DestinationCountryCode string `json:"DestinationCountryCode"`
	// DestinationJurisdiction is the destination state or province
	DestinationJurisdiction string `json:"DestinationJurisdiction"`
	// DestinationAddress1 is the first destination street line
	DestinationAddress1 string `json:"DestinationAddress1,omitempty"`
	// DestinationAddress2 is the second destination street line
	DestinationAddress2 string `json:"DestinationAddress2,omitempty"`
	// DestinationCity is the destination city
	DestinationCity string `json:"DestinationCity"`
	// DestinationCounty is the destination county or district
	DestinationCounty string `json:"DestinationCounty,omitempty"`
	// DestinationPostalCode is the destination postal code
	DestinationPostalCode string `json:"DestinationPostalCode"`

	// Sale* mirror the destination address for direct-to-consumer sales
	SaleCountryCode string `json:"SaleCountryCode"`
	SaleJurisdiction string `json:"SaleJurisdiction"`
	SaleAddress1     string `json:"SaleAddress1,omitempty"`
	SaleAddress2     string `json:"SaleAddress2,omitempty"`
	SaleCity         string `json:"SaleCity"`
	SaleCounty       string `json:"SaleCounty,omitempty"`
	SalePostalCode   string `json:"SalePostalCode"`

	// Origin* come from the warehouse the line ships from
	OriginCountryCode  string `json:"OriginCountryCode,omitempty"`
	OriginJurisdiction string `json:"OriginJurisdiction,omitempty"`
	OriginAddress1     string `json:"OriginAddress1,omitempty"`
	OriginAddress2     string `json:"OriginAddress2,omitempty"`
	OriginCity         string `json:"OriginCity,omitempty"`
	OriginCounty       string `json:"OriginCounty,omitempty"`
	OriginPostalCode   string `json:"OriginPostalCode,omitempty"`

	// UserData carries the SKU (or "Shipping" for the freight line) so
	// itemized taxes can be traced back to a line
	UserData string `json:"UserData,omitempty"`

	// CustomString1-3 / CustomNumeric1-3 are free extension fields read
	// from variant private metadata
	CustomString1  string           `json:"CustomString1,omitempty"`
	CustomString2  string           `json:"CustomString2,omitempty"`
	CustomString3  string           `json:"CustomString3,omitempty"`
	CustomNumeric1 *decimal.Decimal `json:"CustomNumeric1,omitempty"`
	CustomNumeric2 *decimal.Decimal `json:"CustomNumeric2,omitempty"`
	CustomNumeric3 *decimal.Decimal `json:"CustomNumeric3,omitempty"`
}

// TransactionCreateRequest is the payload for AvaTaxExcise/transactions/create
type TransactionCreateRequest struct {
	// EffectiveDate is the tax effective date (YYYY-MM-DD)
	EffectiveDate string `json:"EffectiveDate"`
	// InvoiceDate is the invoice date (YYYY-MM-DD)
	InvoiceDate string `json:"InvoiceDate"`
	// InvoiceNumber is the order identifier; empty for checkout quotes
	InvoiceNumber string `json:"InvoiceNumber,omitempty"`
	// TitleTransferCode is always DEST
	TitleTransferCode string `json:"TitleTransferCode"`
	// TransactionType is always RETAIL
	TransactionType string `json:"TransactionType"`
	// TransactionLines are the projected lines
	TransactionLines []TransactionLine `json:"TransactionLines"`
}

// ---------------------------------------------------------------------------
// Response Types
// ---------------------------------------------------------------------------

// TransactionTax is one itemized levy in the create response
type TransactionTax struct {
	// InvoiceLine references the request line the levy applies to
	InvoiceLine int64 `json:"InvoiceLine"`
	// TaxAmount is the calculated amount for the levy
	TaxAmount decimal.Decimal `json:"TaxAmount"`
	// TaxName is the levy name
	TaxName string `json:"TaxName,omitempty"`
	// Jurisdiction is the taxing jurisdiction
	Jurisdiction string `json:"Jurisdiction,omitempty"`
}

// TransactionError is one error entry in a failed create response
type TransactionError struct {
	// ErrorCode is the service error code
	ErrorCode string `json:"ErrorCode,omitempty"`
	// ErrorMessage is the error description
	ErrorMessage string `json:"ErrorMessage,omitempty"`
}

// TransactionCreateResponse is the response of transactions/create and commit
type TransactionCreateResponse struct {
	// Status is "Success" or "Errors found"
	Status string `json:"Status"`
	// UserTranID identifies the created transaction on the service side
	UserTranID string `json:"UserTranId,omitempty"`
	// TotalTaxAmount is the transaction-wide tax amount
	TotalTaxAmount decimal.Decimal `json:"TotalTaxAmount"`
	// TransactionTaxes are the itemized per-line levies
	TransactionTaxes []TransactionTax `json:"TransactionTaxes,omitempty"`
	// TransactionErrors are present when Status reports errors
	TransactionErrors []TransactionError `json:"TransactionErrors,omitempty"`
	// ErrorCode is the transaction-wide error code, if any
	ErrorCode string `json:"ErrorCode,omitempty"`
}

// IsSuccess returns true if the response indicates success
func (r *TransactionCreateResponse) IsSuccess() bool {
	return r.Status == StatusSuccess
}

// PingResponse is the response of utilities/ping
type PingResponse struct {
	// Authenticated reports whether the supplied credentials were accepted
	Authenticated bool `json:"authenticated"`
}
