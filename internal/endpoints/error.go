package endpoints

import (
	"context"
	"errors"
	"net/http"

	"node-metrics/internal/domain"
)

const (
	API_SUCCESS = iota + 303000 // 303000
	API_FAILURE                 // 303001 - Generic API failure
)

const (
	MALFORMED_REQUEST   = iota + 101 // 101 - Request body is not a metric record
	STORAGE_UNAVAILABLE              // 102 - Backing store could not serve the request
	REQUEST_CANCELLED                // 103 - Request was cancelled by client or server timeout
	METHOD_NOT_ALLOWED               // 104 - Route exists but not for this method
	ROUTE_NOT_FOUND                  // 105 - No such route
)

var (
	ErrMalformedRequest = errors.New("malformed request body; expected a JSON metric object")
	ErrRequestCancelled = errors.New("request cancelled by client or server timeout")
	ErrMethodNotAllowed = errors.New("method not allowed")
	ErrRouteNotFound    = errors.New("route not found")
)

func GetErrorCode(err error) int {
	if err == nil {
		return API_SUCCESS
	}

	switch {
	case errors.Is(err, ErrMalformedRequest):
		return MALFORMED_REQUEST
	case errors.Is(err, ErrRequestCancelled), errors.Is(err, context.Canceled):
		return REQUEST_CANCELLED
	case errors.Is(err, domain.ErrStorageUnavailable):
		return STORAGE_UNAVAILABLE
	case errors.Is(err, ErrMethodNotAllowed):
		return METHOD_NOT_ALLOWED
	case errors.Is(err, ErrRouteNotFound):
		return ROUTE_NOT_FOUND
	default:
		return API_FAILURE // Default for any unhandled error
	}
}

// GetStatusCode maps a store error onto the HTTP status returned to the caller.
func GetStatusCode(err error) int {
	switch {
	case errors.Is(err, context.Canceled):
		return http.StatusRequestTimeout
	case errors.Is(err, domain.ErrStorageUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
