package dto

import "net/http"

// Error code constants organized by category
// Format: ERR_<CATEGORY>_<DESCRIPTION>

// General error codes
const (
	// ErrCodeUnknown is used when the error type is unknown
	ErrCodeUnknown = "ERR_UNKNOWN"
	// ErrCodeInternal is used for internal server errors
	ErrCodeInternal = "ERR_INTERNAL"
)

// Input error codes
const (
	// ErrCodeValidation is the base code for validation errors
	ErrCodeValidation = "ERR_VALIDATION"
	// ErrCodeBadRequest is used for malformed requests
	ErrCodeBadRequest = "ERR_BAD_REQUEST"
	// ErrCodeInvalidJSON is used when JSON parsing fails
	ErrCodeInvalidJSON = "ERR_INVALID_JSON"
)

// Authentication error codes
const (
	// ErrCodeUnauthorized is used when authentication is required but missing/invalid
	ErrCodeUnauthorized = "ERR_UNAUTHORIZED"
	// ErrCodeForbidden is used when the caller lacks permission
	ErrCodeForbidden = "ERR_FORBIDDEN"
)

// Resource error codes
const (
	// ErrCodeNotFound is used when a resource is not found
	ErrCodeNotFound = "ERR_NOT_FOUND"
)

// Tax calculation error codes
const (
	// ErrCodeShippingAddressRequired is used when a checkout has no shipping address
	ErrCodeShippingAddressRequired = "ERR_SHIPPING_ADDRESS_REQUIRED"
	// ErrCodeNoTaxableLines is used when the transaction would carry no lines
	ErrCodeNoTaxableLines = "ERR_NO_TAXABLE_LINES"
	// ErrCodeAddressUnmappable is used when the destination address cannot be
	// resolved to a taxing jurisdiction
	ErrCodeAddressUnmappable = "ERR_ADDRESS_UNMAPPABLE"
	// ErrCodeTaxServiceAuth is used when the excise service rejects credentials
	ErrCodeTaxServiceAuth = "ERR_TAX_SERVICE_AUTH"
	// ErrCodeTaxServiceResponse is used when the excise service returns garbage
	ErrCodeTaxServiceResponse = "ERR_TAX_SERVICE_RESPONSE"
	// ErrCodeTaxServiceUnavailable is used when the excise service is unreachable
	ErrCodeTaxServiceUnavailable = "ERR_TAX_SERVICE_UNAVAILABLE"
	// ErrCodeCalculationCooldown is used when a recent failed calculation is
	// still within its retry cooldown
	ErrCodeCalculationCooldown = "ERR_CALCULATION_COOLDOWN"
	// ErrCodeSubmissionQueueFull is used when the order submission queue is full
	ErrCodeSubmissionQueueFull = "ERR_SUBMISSION_QUEUE_FULL"
	// ErrCodeTransactionFailed is used when the excise service rejects a transaction
	ErrCodeTransactionFailed = "ERR_TRANSACTION_FAILED"
)

// ErrorCodeHTTPStatus maps error codes to HTTP status codes
var ErrorCodeHTTPStatus = map[string]int{
	ErrCodeUnknown:  http.StatusInternalServerError,
	ErrCodeInternal: http.StatusInternalServerError,

	ErrCodeValidation:  http.StatusBadRequest,
	ErrCodeBadRequest:  http.StatusBadRequest,
	ErrCodeInvalidJSON: http.StatusBadRequest,

	ErrCodeUnauthorized: http.StatusUnauthorized,
	ErrCodeForbidden:    http.StatusForbidden,

	ErrCodeNotFound: http.StatusNotFound,

	// Address and line problems are the caller's to fix
	ErrCodeShippingAddressRequired: http.StatusBadRequest,
	ErrCodeNoTaxableLines:          http.StatusUnprocessableEntity,
	ErrCodeAddressUnmappable:       http.StatusUnprocessableEntity,
	ErrCodeTransactionFailed:       http.StatusUnprocessableEntity,

	// Upstream problems
	ErrCodeTaxServiceAuth:        http.StatusBadGateway,
	ErrCodeTaxServiceResponse:    http.StatusBadGateway,
	ErrCodeTaxServiceUnavailable: http.StatusServiceUnavailable,
	ErrCodeCalculationCooldown:   http.StatusServiceUnavailable,
	ErrCodeSubmissionQueueFull:   http.StatusServiceUnavailable,
}

// GetHTTPStatus returns the HTTP status code for an error code
// Returns 500 Internal Server Error if the error code is not found
func GetHTTPStatus(code string) int {
	if status, ok := ErrorCodeHTTPStatus[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}
