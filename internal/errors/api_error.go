package errors

import (
	"errors"
	"fmt"
	"net/http"

	"google.golang.org/grpc/codes"
)

// CallableError is an error surfaced to callable clients as
// {"error": {"status": "<CODE>", "message": "..."}}.
type CallableError struct {
	Code    codes.Code
	Message string
}

func (e *CallableError) Error() string {
	return fmt.Sprintf("%s: %s", Status(e.Code), e.Message)
}

// ErrorBody is the wire shape of a callable error.
type ErrorBody struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

// ErrorResponse wraps ErrorBody in the callable envelope.
type ErrorResponse struct {
	Error ErrorBody `json:"error"`
}

// New creates a CallableError with the given code and message.
func New(code codes.Code, message string) *CallableError {
	return &CallableError{Code: code, Message: message}
}

func Unauthenticated(message string) *CallableError {
	return New(codes.Unauthenticated, message)
}

func InvalidArgument(message string) *CallableError {
	return New(codes.InvalidArgument, message)
}

func FailedPrecondition(message string) *CallableError {
	return New(codes.FailedPrecondition, message)
}

// Internal is the generic error returned for anything unexpected. The
// message is fixed so that internals never reach the client.
func Internal() *CallableError {
	return New(codes.Internal, "INTERNAL")
}

// As returns the CallableError in err's chain, if any.
func As(err error) (*CallableError, bool) {
	var ce *CallableError
	if errors.As(err, &ce) {
		return ce, true
	}
	return nil, false
}

// CodeOf returns the callable code of err, codes.Internal for foreign errors
// and codes.OK for nil.
func CodeOf(err error) codes.Code {
	if err == nil {
		return codes.OK
	}
	if ce, ok := As(err); ok {
		return ce.Code
	}
	return codes.Internal
}

// Status returns the canonical upper-snake status name used on the wire,
// e.g. "INVALID_ARGUMENT".
func Status(code codes.Code) string {
	switch code {
	case codes.OK:
		return "OK"
	case codes.Canceled:
		return "CANCELLED"
	case codes.InvalidArgument:
		return "INVALID_ARGUMENT"
	case codes.DeadlineExceeded:
		return "DEADLINE_EXCEEDED"
	case codes.NotFound:
		return "NOT_FOUND"
	case codes.AlreadyExists:
		return "ALREADY_EXISTS"
	case codes.PermissionDenied:
		return "PERMISSION_DENIED"
	case codes.ResourceExhausted:
		return "RESOURCE_EXHAUSTED"
	case codes.FailedPrecondition:
		return "FAILED_PRECONDITION"
	case codes.Aborted:
		return "ABORTED"
	case codes.OutOfRange:
		return "OUT_OF_RANGE"
	case codes.Unimplemented:
		return "UNIMPLEMENTED"
	case codes.Unavailable:
		return "UNAVAILABLE"
	case codes.DataLoss:
		return "DATA_LOSS"
	case codes.Unauthenticated:
		return "UNAUTHENTICATED"
	case codes.Unknown:
		return "UNKNOWN"
	default:
		return "INTERNAL"
	}
}

// HTTPStatus maps a callable code to the HTTP status used by the callable protocol.
func HTTPStatus(code codes.Code) int {
	switch code {
	case codes.OK:
		return http.StatusOK
	case codes.InvalidArgument, codes.FailedPrecondition, codes.OutOfRange:
		return http.StatusBadRequest
	case codes.Unauthenticated:
		return http.StatusUnauthorized
	case codes.PermissionDenied:
		return http.StatusForbidden
	case codes.NotFound:
		return http.StatusNotFound
	case codes.AlreadyExists, codes.Aborted:
		return http.StatusConflict
	case codes.ResourceExhausted:
		return http.StatusTooManyRequests
	case codes.Canceled:
		return 499
	case codes.Unimplemented:
		return http.StatusNotImplemented
	case codes.Unavailable:
		return http.StatusServiceUnavailable
	case codes.DeadlineExceeded:
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}
