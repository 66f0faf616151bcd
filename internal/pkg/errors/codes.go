package errors

import (
	"fmt"
	"net/http"
)

// Code represents an error code with HTTP status and message
type Code struct {
	Code    int    // Business error code
	Status  int    // HTTP status code
	Message string // Error message
}

// Error codes for different modules
const (
	// Success
	Success = 0

	// Common errors (1000-1999)
	ErrInternalServer  = 1000
	ErrInvalidParams   = 1001
	ErrNotFound        = 1002
	ErrTooManyRequests = 1006
	ErrBadRequest      = 1007
	ErrServiceUnavail  = 1008

	// Search errors (6000-6999)
	ErrSearchInvalidPattern  = 6001
	ErrSearchUnknownProvider = 6002
	ErrSearchPatternNotFound = 6003
	ErrSearchConfiguration   = 6004
	ErrSearchProviderFailed  = 6005
	ErrSearchRateLimited     = 6006
)

// codeMap maps error codes to their details
var codeMap = map[int]Code{
	Success: {Success, http.StatusOK, "Success"},

	// Common errors
	ErrInternalServer:  {ErrInternalServer, http.StatusInternalServerError, "Internal server error"},
	ErrInvalidParams:   {ErrInvalidParams, http.StatusBadRequest, "Invalid parameters"},
	ErrNotFound:        {ErrNotFound, http.StatusNotFound, "Resource not found"},
	ErrTooManyRequests: {ErrTooManyRequests, http.StatusTooManyRequests, "Too many requests"},
	ErrBadRequest:      {ErrBadRequest, http.StatusBadRequest, "Bad request"},
	ErrServiceUnavail:  {ErrServiceUnavail, http.StatusServiceUnavailable, "Service unavailable"},

	// Search errors
	ErrSearchInvalidPattern:  {ErrSearchInvalidPattern, http.StatusBadRequest, "Invalid search pattern"},
	ErrSearchUnknownProvider: {ErrSearchUnknownProvider, http.StatusBadRequest, "Unknown search provider"},
	ErrSearchPatternNotFound: {ErrSearchPatternNotFound, http.StatusNotFound, "Saved pattern not found"},
	ErrSearchConfiguration:   {ErrSearchConfiguration, http.StatusInternalServerError, "Search provider is not configured"},
	ErrSearchProviderFailed:  {ErrSearchProviderFailed, http.StatusBadGateway, "Search provider request failed"},
	ErrSearchRateLimited:     {ErrSearchRateLimited, http.StatusTooManyRequests, "Search provider rate limited"},
}

// GetCode returns the Code for a given error code
func GetCode(code int) Code {
	if c, ok := codeMap[code]; ok {
		return c
	}
	return codeMap[ErrInternalServer]
}

// GetHTTPStatus returns HTTP status for a given error code
func GetHTTPStatus(code int) int {
	return GetCode(code).Status
}

// GetMessage returns the message for a given error code
func GetMessage(code int) string {
	return GetCode(code).Message
}

// IsServerError checks if the code represents a server error (5xx)
func IsServerError(code int) bool {
	return GetHTTPStatus(code) >= 500
}

// FormatError formats an error message with code
func FormatError(code int, details ...string) string {
	msg := GetMessage(code)
	if len(details) > 0 && details[0] != "" {
		return fmt.Sprintf("%s: %s", msg, details[0])
	}
	return msg
}
