package downstream

import "net/http"

// ClassifyUnknown maps an arbitrary failure onto the taxonomy. Errors that
// already carry a taxonomy error are returned as-is and ctx is ignored.
// Anything else becomes KindUnexpected with err as the cause.
func ClassifyUnknown(err error, ctx Context) *Error {
	if de, ok := As(err); ok {
		return de
	}
	return New(KindUnexpected, WithCause(err), WithContext(ctx))
}

// ClassifyHTTPStatus maps an upstream HTTP status code onto the taxonomy.
// The status is always attached to the result.
func ClassifyHTTPStatus(status int, ctx Context) *Error {
	switch {
	case status == http.StatusNotFound:
		return New(KindNotFound, WithStatus(status), WithContext(ctx), WithRetryable(false))
	case status == http.StatusRequestTimeout || status == http.StatusGatewayTimeout:
		return New(KindTimeout, WithStatus(status), WithContext(ctx), WithRetryable(true))
	case status >= 500:
		return New(KindUnavailable, WithStatus(status), WithContext(ctx), WithRetryable(true))
	default:
		return New(KindUnexpected, WithStatus(status), WithContext(ctx), WithRetryable(false))
	}
}
