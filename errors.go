package creole

import "errors"

// ErrorCode classifies the small set of ways a Parser call can fail. It
// mirrors the original CreoleError taxonomy one-to-one, even though Go's
// idioms (slices that cannot have negative length, no null-vs-empty
// ambiguity) make several of the original's cases unreachable from normal
// use; they are kept so CodeOf gives callers porting from the C API a
// familiar classification.
type ErrorCode int

const (
	// ErrorCodeOK is never carried by a returned error; nil is used for
	// success, as is idiomatic in Go.
	ErrorCodeOK ErrorCode = iota
	ErrorCodeOutOfMemory
	ErrorCodeBadArgument
	ErrorCodeBadInput
	ErrorCodeEncoding
)

func (c ErrorCode) String() string {
	switch c {
	case ErrorCodeOK:
		return "ok"
	case ErrorCodeOutOfMemory:
		return "out of memory"
	case ErrorCodeBadArgument:
		return "bad argument"
	case ErrorCodeBadInput:
		return "bad input"
	case ErrorCodeEncoding:
		return "encoding error"
	default:
		return "unknown error"
	}
}

// codeError pairs an ErrorCode with a message and implements error. It
// exposes Code so CodeOf can recover the taxonomy through errors.As even
// after the error has been wrapped with fmt.Errorf("...: %w", err).
type codeError struct {
	code ErrorCode
	msg  string
}

func (e *codeError) Error() string { return e.msg }

// Code returns the ErrorCode carried by e. Named so it satisfies the
// unexported interface CodeOf looks for via errors.As.
func (e *codeError) Code() ErrorCode { return e.code }

// Sentinel errors matching the original CreoleError values. The core
// returns only ErrBadInput (plugin re-entry past the depth cap);
// ErrBadArgument and ErrOutOfMemory are never returned by this package.
// ErrEncoding is reserved for a future transcoding shell (§6 of the
// specification) and is never returned by this package today.
var (
	ErrBadArgument = &codeError{ErrorCodeBadArgument, "creole: bad argument"}
	ErrBadInput    = &codeError{ErrorCodeBadInput, "creole: bad input"}
	ErrOutOfMemory = &codeError{ErrorCodeOutOfMemory, "creole: out of memory"}
	ErrEncoding    = &codeError{ErrorCodeEncoding, "creole: encoding error"}
)

// CodeOf recovers the ErrorCode classification from err, unwrapping any
// fmt.Errorf("...: %w", ...) wrapping along the way. It returns
// ErrorCodeOK for a nil error and for any error not produced by this
// package.
func CodeOf(err error) ErrorCode {
	if err == nil {
		return ErrorCodeOK
	}
	var ce interface{ Code() ErrorCode }
	if errors.As(err, &ce) {
		return ce.Code()
	}
	return ErrorCodeOK
}
