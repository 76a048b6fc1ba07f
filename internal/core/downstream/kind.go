// Package downstream classifies failures coming from the legacy books system.
//
// Every failure, whether it originated in transport (a non-2xx response, a
// timeout) or in local payload validation, is reported as an *Error carrying
// one of a closed set of kinds. Callers key retry and alerting logic off
// Kind and Retryable instead of transport details.
package downstream

// Kind identifies the class of a downstream failure.
type Kind string

const (
	KindNotFound       Kind = "DOWNSTREAM_NOT_FOUND"
	KindTimeout        Kind = "DOWNSTREAM_TIMEOUT"
	KindUnavailable    Kind = "DOWNSTREAM_UNAVAILABLE"
	KindInvalidPayload Kind = "DOWNSTREAM_INVALID_PAYLOAD"
	KindUnexpected     Kind = "DOWNSTREAM_UNEXPECTED"
)

var defaultMessages = map[Kind]string{
	KindNotFound:       "Downstream resource not found",
	KindTimeout:        "Downstream request timed out",
	KindUnavailable:    "Downstream service unavailable",
	KindInvalidPayload: "Downstream payload validation failed",
	KindUnexpected:     "Unexpected downstream failure",
}

// Kinds returns every kind in declaration order.
func Kinds() []Kind {
	return []Kind{
		KindNotFound,
		KindTimeout,
		KindUnavailable,
		KindInvalidPayload,
		KindUnexpected,
	}
}

// Valid reports whether k belongs to the closed set.
func (k Kind) Valid() bool {
	_, ok := defaultMessages[k]
	return ok
}

// DefaultMessage returns the fixed human-readable message for k.
func (k Kind) DefaultMessage() string {
	if msg, ok := defaultMessages[k]; ok {
		return msg
	}
	return defaultMessages[KindUnexpected]
}

func (k Kind) String() string {
	return string(k)
}
