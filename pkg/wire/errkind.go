package wire

import "fmt"

// ErrKind classifies an error carried in a REPLY_ERR payload.
type ErrKind uint8

const (
	// ErrKindRemote is a failure raised by user code on the callee.
	ErrKindRemote ErrKind = 0

	// ErrKindNotFound is an unknown name or object id.
	ErrKindNotFound ErrKind = 1

	// ErrKindAccessDenied is an authenticator denial.
	ErrKindAccessDenied ErrKind = 2

	// ErrKindUnsupportedOperation is a capability the target does not have.
	ErrKindUnsupportedOperation ErrKind = 3

	// ErrKindUnsupportedVersion is a failed version negotiation.
	ErrKindUnsupportedVersion ErrKind = 4

	// ErrKindMalformedValue is a payload the callee could not decode.
	ErrKindMalformedValue ErrKind = 5

	// ErrKindUnserializable is a result the callee could not encode.
	ErrKindUnserializable ErrKind = 6
)

// String returns the error-kind name.
func (k ErrKind) String() string {
	switch k {
	case ErrKindRemote:
		return "REMOTE"
	case ErrKindNotFound:
		return "NOT_FOUND"
	case ErrKindAccessDenied:
		return "ACCESS_DENIED"
	case ErrKindUnsupportedOperation:
		return "UNSUPPORTED_OPERATION"
	case ErrKindUnsupportedVersion:
		return "UNSUPPORTED_VERSION"
	case ErrKindMalformedValue:
		return "MALFORMED_VALUE"
	case ErrKindUnserializable:
		return "UNSERIALIZABLE"
	default:
		return "UNKNOWN"
	}
}

// RemoteError is what a REPLY_ERR surfaces as on the calling side.
type RemoteError struct {
	Kind    ErrKind
	Message string
}

// Error implements the error interface.
func (e *RemoteError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("remote error: %s", e.Kind)
	}
	return fmt.Sprintf("remote error: %s: %s", e.Kind, e.Message)
}

// ErrorPayload builds the REPLY_ERR payload: Seq[Int(kind), Text(message)].
func ErrorPayload(kind ErrKind, msg string) Value {
	return Seq(Int(int64(kind)), Text(msg))
}

// ParseErrorPayload decodes a REPLY_ERR payload. The second return is false
// if the payload does not have the expected shape.
func ParseErrorPayload(v Value) (*RemoteError, bool) {
	if v.Kind != KindSeq || len(v.Seq) != 2 {
		return nil, false
	}
	if v.Seq[0].Kind != KindInt || v.Seq[1].Kind != KindText {
		return nil, false
	}
	return &RemoteError{
		Kind:    ErrKind(v.Seq[0].Int),
		Message: v.Seq[1].Text,
	}, true
}
