package api

import (
	"net/http"

	"google.golang.org/grpc/codes"
)

// StatusCanceled is the HTTP status reported when a caller abandons the
// request. There is no stdlib constant for it.
const StatusCanceled = 499

// ErrorStatus carries the failure message inside an error envelope.
type ErrorStatus struct {
	Error string `json:"error"`
}

// ErrorResponse is the wire envelope for any failed request.
type ErrorResponse struct {
	Status ErrorStatus `json:"status"`
	Time   float64     `json:"time"`
}

// HTTPStatus maps a classified error code onto its HTTP status. Codes
// outside the fixed table report as internal errors.
func HTTPStatus(code codes.Code) int {
	switch code {
	case codes.InvalidArgument:
		return http.StatusBadRequest
	case codes.NotFound:
		return http.StatusNotFound
	case codes.AlreadyExists:
		return http.StatusConflict
	case codes.DeadlineExceeded:
		return http.StatusGatewayTimeout
	case codes.Canceled:
		return StatusCanceled
	case codes.Unavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// CodeFromHTTPStatus is the inverse of HTTPStatus, used by the proxy client
// to rebuild the classified error a remote node reported.
func CodeFromHTTPStatus(status int) codes.Code {
	switch status {
	case http.StatusBadRequest:
		return codes.InvalidArgument
	case http.StatusNotFound:
		return codes.NotFound
	case http.StatusConflict:
		return codes.AlreadyExists
	case http.StatusGatewayTimeout:
		return codes.DeadlineExceeded
	case StatusCanceled:
		return codes.Canceled
	case http.StatusServiceUnavailable:
		return codes.Unavailable
	default:
		return codes.Internal
	}
}
