package mbe

import (
	"errors"
	"fmt"
)

type ErrorKind int8

const (
	ArityMismatch ErrorKind = iota + 1
	ElideMismatch
	DriveMismatch
	NotRepeated
	AmbiguousElision
	MissingLeaf
)

func (this ErrorKind) String() string {
	switch this {
	case ArityMismatch:
		return "arity mismatch"
	case ElideMismatch:
		return "elide mismatch"
	case DriveMismatch:
		return "drive mismatch"
	case NotRepeated:
		return "not repeated"
	case AmbiguousElision:
		return "ambiguous elision"
	case MissingLeaf:
		return "missing leaf"
	}
	return fmt.Sprintf("ErrorKind(%d)", int8(this))
}

// Error reports a misuse of an environment: it was built or queried in a way
// its shape does not allow. None of these are transient.
type Error struct {
	Kind ErrorKind
	Msg  string
}

func (this *Error) Error() string {
	if this.Msg == "" {
		return this.Kind.String()
	}
	return this.Kind.String() + ": " + this.Msg
}

// Is matches any *Error of the same kind, so errors.Is(err, ErrArityMismatch)
// works regardless of the message.
func (this *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == this.Kind
}

var (
	ErrArityMismatch    = &Error{Kind: ArityMismatch}
	ErrElideMismatch    = &Error{Kind: ElideMismatch}
	ErrDriveMismatch    = &Error{Kind: DriveMismatch}
	ErrNotRepeated      = &Error{Kind: NotRepeated}
	ErrAmbiguousElision = &Error{Kind: AmbiguousElision}
	ErrMissingLeaf      = &Error{Kind: MissingLeaf}
)

func newError(kind ErrorKind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

// KindOf returns the kind of err if it is (or wraps) an *Error.
func KindOf(err error) (ErrorKind, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind, true
	}
	return 0, false
}
