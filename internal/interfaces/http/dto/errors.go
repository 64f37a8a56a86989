package dto

import "net/http"

// API error codes. Every code is "ERR_" plus an upper snake case name.
const (
	ErrCodeInternal   = "ERR_INTERNAL"
	ErrCodeBadRequest = "ERR_BAD_REQUEST"

	ErrCodeValidation         = "ERR_VALIDATION"
	ErrCodeValidationRequired = "ERR_VALIDATION_REQUIRED"
	ErrCodeValidationRange    = "ERR_VALIDATION_RANGE"
	ErrCodeInvalidInput       = "ERR_INVALID_INPUT"
	ErrCodeInvalidJSON        = "ERR_INVALID_JSON"
	ErrCodeRequestTooLarge    = "ERR_REQUEST_TOO_LARGE"
	ErrCodeRateLimited        = "ERR_RATE_LIMITED"

	// ErrCodeAlreadyExists reports a document number taken within its type
	ErrCodeAlreadyExists = "ERR_ALREADY_EXISTS"
	ErrCodeNotFound      = "ERR_NOT_FOUND"
	// ErrCodeInvalidState covers operations the document or the server
	// setup does not allow right now, such as archiving without storage
	ErrCodeInvalidState = "ERR_INVALID_STATE"

	ErrCodeRenderFailed = "ERR_RENDER_FAILED"
	// ErrCodeStorageFailed means the PDF rendered but could not be archived
	ErrCodeStorageFailed = "ERR_STORAGE_FAILED"
)

type apiError struct {
	code   string
	status int
	// domain lists the shared.DomainError codes reported as this code
	domain []string
}

var apiErrors = []apiError{
	{ErrCodeInternal, http.StatusInternalServerError, []string{"INTERNAL_ERROR"}},
	{ErrCodeBadRequest, http.StatusBadRequest, []string{"BAD_REQUEST"}},
	{ErrCodeValidation, http.StatusBadRequest, []string{"VALIDATION_ERROR"}},
	{ErrCodeValidationRequired, http.StatusBadRequest, nil},
	{ErrCodeValidationRange, http.StatusBadRequest, []string{"INVALID_MARGINS"}},
	{ErrCodeInvalidInput, http.StatusBadRequest, []string{"INVALID_INPUT", "INVALID_DOC_TYPE", "INVALID_NUMBER"}},
	{ErrCodeInvalidJSON, http.StatusBadRequest, nil},
	{ErrCodeRequestTooLarge, http.StatusRequestEntityTooLarge, []string{"REQUEST_TOO_LARGE"}},
	{ErrCodeRateLimited, http.StatusTooManyRequests, nil},
	{ErrCodeAlreadyExists, http.StatusConflict, []string{"ALREADY_EXISTS"}},
	{ErrCodeNotFound, http.StatusNotFound, []string{"NOT_FOUND", "ITEM_NOT_FOUND"}},
	{ErrCodeInvalidState, http.StatusUnprocessableEntity, []string{"INVALID_STATE", "INVALID_STATUS"}},
	{ErrCodeRenderFailed, http.StatusInternalServerError, []string{"RENDER_FAILED"}},
	{ErrCodeStorageFailed, http.StatusBadGateway, []string{"STORAGE_FAILED"}},
}

var (
	statusByCode = make(map[string]int, len(apiErrors))
	codeByDomain = make(map[string]string)
)

func init() {
	for _, e := range apiErrors {
		statusByCode[e.code] = e.status
		for _, d := range e.domain {
			codeByDomain[d] = e.code
		}
	}
}

// GetHTTPStatus returns the status an API error code is sent with, 500 for
// codes it does not know
func GetHTTPStatus(code string) int {
	if status, ok := statusByCode[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// NormalizeErrorCode turns a domain error code into its API code. API codes
// and unknown codes come back unchanged.
func NormalizeErrorCode(code string) string {
	if apiCode, ok := codeByDomain[code]; ok {
		return apiCode
	}
	return code
}
