package apperr

import "errors"

// Kind is the stable machine-readable error category returned to clients.
type Kind string

const (
	KindValidation         Kind = "validation_error"
	KindAuthorization      Kind = "authorization_error"
	KindInvalidTransition  Kind = "invalid_transition"
	KindPaymentNotCaptured Kind = "payment_not_captured"
	KindPhaseNotEligible   Kind = "phase_not_eligible"
	KindSignatureInvalid   Kind = "signature_invalid"
	KindNotFound           Kind = "not_found"
	KindInternal           Kind = "internal_error"
)

type Error struct {
	Kind    Kind   `json:"kind"`
	Message string `json:"message"`
}

func (e *Error) Error() string {
	return string(e.Kind) + ": " + e.Message
}

func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

func Validation(msg string) *Error         { return New(KindValidation, msg) }
func Authorization(msg string) *Error      { return New(KindAuthorization, msg) }
func InvalidTransition(msg string) *Error  { return New(KindInvalidTransition, msg) }
func PaymentNotCaptured(msg string) *Error { return New(KindPaymentNotCaptured, msg) }
func PhaseNotEligible(msg string) *Error   { return New(KindPhaseNotEligible, msg) }
func SignatureInvalid(msg string) *Error   { return New(KindSignatureInvalid, msg) }
func NotFound(msg string) *Error           { return New(KindNotFound, msg) }
func Internal(msg string) *Error           { return New(KindInternal, msg) }

// From extracts an *Error from err, wrapping unknown errors as internal.
func From(err error) *Error {
	var ae *Error
	if errors.As(err, &ae) {
		return ae
	}
	return Internal("internal error")
}

// IsKind reports whether err carries the given kind.
func IsKind(err error, kind Kind) bool {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Kind == kind
	}
	return false
}

// HTTPStatus maps an error kind to the response status code.
func HTTPStatus(kind Kind) int {
	switch kind {
	case KindValidation:
		return 400
	case KindAuthorization:
		return 403
	case KindInvalidTransition, KindPhaseNotEligible, KindPaymentNotCaptured:
		return 409
	case KindSignatureInvalid:
		return 400
	case KindNotFound:
		return 404
	default:
		return 500
	}
}
