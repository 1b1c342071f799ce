package restype

import (
	"errors"
	"fmt"
)

// ErrorKind is the closed set of failure modes a store operation can
// report (§7).
type ErrorKind int

const (
	KindAlreadyExists ErrorKind = iota
	KindNoSuchResource
	KindResourceCycle
	KindInvalidContainerID
	KindInvalidVariant
	KindIO
	KindCodec
	KindCustom
)

func (k ErrorKind) String() string {
	switch k {
	case KindAlreadyExists:
		return "AlreadyExists"
	case KindNoSuchResource:
		return "NoSuchResource"
	case KindResourceCycle:
		return "ResourceCycle"
	case KindInvalidContainerID:
		return "InvalidContainerId"
	case KindInvalidVariant:
		return "InvalidVariant"
	case KindIO:
		return "Io"
	case KindCodec:
		return "Codec"
	case KindCustom:
		return "Custom"
	default:
		return "Unknown"
	}
}

// StoreError is the single error type returned by the store. Two
// StoreErrors compare equal by Kind via errors.Is regardless of message or
// wrapped cause, matching the teacher's wrapDBError/sentinel convention.
type StoreError struct {
	Kind    ErrorKind
	Message string
	Cause   error
}

func (e *StoreError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Cause)
	}
	if e.Message != "" {
		return fmt.Sprintf("%s: %s", e.Kind, e.Message)
	}
	return e.Kind.String()
}

func (e *StoreError) Unwrap() error {
	return e.Cause
}

// Is makes errors.Is(err, &StoreError{Kind: K}) compare by kind only, so
// callers can test for a kind without caring about message/cause.
func (e *StoreError) Is(target error) bool {
	t, ok := target.(*StoreError)
	if !ok {
		return false
	}
	return e.Kind == t.Kind
}

func newErr(kind ErrorKind, format string, args ...interface{}) *StoreError {
	return &StoreError{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

func AlreadyExists(id fmt.Stringer) *StoreError {
	return newErr(KindAlreadyExists, "resource %s already exists", id)
}

func NoSuchResource(id fmt.Stringer) *StoreError {
	return newErr(KindNoSuchResource, "no such resource %s", id)
}

func ResourceCycle(id fmt.Stringer) *StoreError {
	return newErr(KindResourceCycle, "parent chain from %s revisits a node", id)
}

func InvalidContainerID(id fmt.Stringer) *StoreError {
	return newErr(KindInvalidContainerID, "%s is not a usable container parent", id)
}

func InvalidVariant(name string) *StoreError {
	return newErr(KindInvalidVariant, "variant %q is not declared", name)
}

func IOError(cause error) *StoreError {
	return &StoreError{Kind: KindIO, Message: "I/O failure", Cause: cause}
}

func CodecError(cause error) *StoreError {
	return &StoreError{Kind: KindCodec, Message: "encode/decode failure", Cause: cause}
}

func Custom(format string, args ...interface{}) *StoreError {
	return newErr(KindCustom, format, args...)
}

// Is* helpers mirror the teacher's isNotFound/isConflict convenience
// predicates (internal/storage/sqlite/errors.go).

func IsKind(err error, kind ErrorKind) bool {
	return errors.Is(err, &StoreError{Kind: kind})
}

func IsAlreadyExists(err error) bool      { return IsKind(err, KindAlreadyExists) }
func IsNoSuchResource(err error) bool      { return IsKind(err, KindNoSuchResource) }
func IsResourceCycle(err error) bool       { return IsKind(err, KindResourceCycle) }
func IsInvalidContainerID(err error) bool  { return IsKind(err, KindInvalidContainerID) }
func IsInvalidVariant(err error) bool      { return IsKind(err, KindInvalidVariant) }
