package dto

import "net/http"

// Error codes returned in the response envelope. Format: ERR_<DESCRIPTION>

// General error codes
const (
	ErrCodeUnknown  = "ERR_UNKNOWN"
	ErrCodeInternal = "ERR_INTERNAL"
)

// Input error codes
const (
	ErrCodeValidation   = "ERR_VALIDATION"
	ErrCodeBadRequest   = "ERR_BAD_REQUEST"
	ErrCodeInvalidInput = "ERR_INVALID_INPUT"
	ErrCodeInvalidJSON  = "ERR_INVALID_JSON"
	ErrCodeTooLarge     = "ERR_REQUEST_TOO_LARGE"
)

// Authentication error codes
const (
	ErrCodeUnauthorized = "ERR_UNAUTHORIZED"
	ErrCodeTokenExpired = "ERR_TOKEN_EXPIRED"
	ErrCodeTokenInvalid = "ERR_TOKEN_INVALID"
)

// Resource error codes
const (
	ErrCodeNotFound            = "ERR_NOT_FOUND"
	ErrCodeAlreadyExists       = "ERR_ALREADY_EXISTS"
	ErrCodeConcurrencyConflict = "ERR_CONCURRENCY_CONFLICT"
)

// Document rule error codes
const (
	ErrCodeInvalidState                   = "ERR_INVALID_STATE"
	ErrCodeInvalidTransition              = "ERR_INVALID_TRANSITION"
	ErrCodeDocumentLocked                 = "ERR_DOCUMENT_LOCKED"
	ErrCodeUnsupportedOperation           = "ERR_UNSUPPORTED_OPERATION"
	ErrCodeConversionConfirmationRequired = "ERR_CONVERSION_CONFIRMATION_REQUIRED"
)

// ErrorCodeHTTPStatus maps error codes to HTTP status codes
var ErrorCodeHTTPStatus = map[string]int{
	ErrCodeUnknown:  http.StatusInternalServerError,
	ErrCodeInternal: http.StatusInternalServerError,

	ErrCodeValidation:   http.StatusBadRequest,
	ErrCodeBadRequest:   http.StatusBadRequest,
	ErrCodeInvalidInput: http.StatusBadRequest,
	ErrCodeInvalidJSON:  http.StatusBadRequest,
	ErrCodeTooLarge:     http.StatusRequestEntityTooLarge,

	ErrCodeUnauthorized: http.StatusUnauthorized,
	ErrCodeTokenExpired: http.StatusUnauthorized,
	ErrCodeTokenInvalid: http.StatusUnauthorized,

	ErrCodeNotFound:            http.StatusNotFound,
	ErrCodeAlreadyExists:       http.StatusConflict,
	ErrCodeConcurrencyConflict: http.StatusConflict,

	// Requests that are well formed but break a document rule -> 422
	ErrCodeInvalidState:         http.StatusUnprocessableEntity,
	ErrCodeInvalidTransition:    http.StatusUnprocessableEntity,
	ErrCodeDocumentLocked:       http.StatusUnprocessableEntity,
	ErrCodeUnsupportedOperation: http.StatusUnprocessableEntity,

	// The client must resend with confirm=true
	ErrCodeConversionConfirmationRequired: http.StatusConflict,
}

// GetHTTPStatus returns the HTTP status code for an error code.
// Unknown codes map to 500.
func GetHTTPStatus(code string) int {
	if status, ok := ErrorCodeHTTPStatus[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// DomainErrorCodeMapping maps domain error codes to response codes
var DomainErrorCodeMapping = map[string]string{
	"NOT_FOUND":                        ErrCodeNotFound,
	"ALREADY_EXISTS":                   ErrCodeAlreadyExists,
	"VALIDATION_ERROR":                 ErrCodeValidation,
	"INVALID_INPUT":                    ErrCodeInvalidInput,
	"CONCURRENCY_CONFLICT":             ErrCodeConcurrencyConflict,
	"INVALID_STATE":                    ErrCodeInvalidState,
	"INVALID_TRANSITION":               ErrCodeInvalidTransition,
	"DOCUMENT_LOCKED":                  ErrCodeDocumentLocked,
	"UNSUPPORTED_OPERATION":            ErrCodeUnsupportedOperation,
	"CONVERSION_CONFIRMATION_REQUIRED": ErrCodeConversionConfirmationRequired,
	"INTERNAL_ERROR":                   ErrCodeInternal,
}

// NormalizeErrorCode converts a domain error code to its response code.
// Codes that are already normalized or unknown are returned as-is.
func NormalizeErrorCode(code string) string {
	if normalized, ok := DomainErrorCodeMapping[code]; ok {
		return normalized
	}
	return code
}
