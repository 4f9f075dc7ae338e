package voicerole

import "errors"

// Kind classifies dispatcher failures so transport adapters can render them
// without matching on message text.
type Kind int

const (
	KindUnauthorized Kind = iota + 1
	KindMissingArgument
	KindDuplicateAssignment
	KindNotFound
	KindRoleMismatch
	KindValidation
	KindPersistence
)

// String returns the stable name of the kind for logs.
func (k Kind) String() string {
	switch k {
	case KindUnauthorized:
		return "unauthorized"
	case KindMissingArgument:
		return "missing_argument"
	case KindDuplicateAssignment:
		return "duplicate_assignment"
	case KindNotFound:
		return "not_found"
	case KindRoleMismatch:
		return "role_mismatch"
	case KindValidation:
		return "validation"
	case KindPersistence:
		return "persistence"
	default:
		return "unknown"
	}
}

// Error is a dispatcher failure with a human-readable message. Message never
// contains raw backend error text.
type Error struct {
	Kind    Kind
	Message string
}

func (e *Error) Error() string { return e.Message }

func failf(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// KindOf returns the failure kind of err, or 0 for non-dispatcher errors.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return 0
}
