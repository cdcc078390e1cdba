package sequel

import (
	"errors"
	"fmt"
)

/*
Error codes. You probably shouldn't use this directly; instead, use the `Err`
variables with `errors.Is`.
*/
type ErrCode string

const (
	ErrCodeUnknown       ErrCode = ""
	ErrCodeConfig        ErrCode = "Config"
	ErrCodeUnknownScheme ErrCode = "UnknownScheme"
	ErrCodeKeyCollision  ErrCode = "KeyCollision"
	ErrCodeMissingKey    ErrCode = "MissingKey"
	ErrCodeInvalidKey    ErrCode = "InvalidKey"
	ErrCodeClosed        ErrCode = "Closed"
	ErrCodeReleased      ErrCode = "Released"
	ErrCodeDetached      ErrCode = "Detached"
	ErrCodeUnknownDB     ErrCode = "UnknownDB"
)

/*
Use blank error variables to detect error types:

	if errors.Is(err, sequel.ErrKeyCollision) {
		// Handle specific error.
	}

Errors returned by this package can't be compared via `==` because they may
include additional details about the circumstances. When compared by
`errors.Is`, they compare `.Cause` and fall back on `.Code`.
*/
var (
	ErrConfig        Err = Err{Code: ErrCodeConfig, Cause: errors.New(`invalid configuration`)}
	ErrUnknownScheme Err = Err{Code: ErrCodeUnknownScheme, Cause: errors.New(`no driver registered for URL scheme`)}
	ErrKeyCollision  Err = Err{Code: ErrCodeKeyCollision, Cause: errors.New(`dotted key collides with another key`)}
	ErrMissingKey    Err = Err{Code: ErrCodeMissingKey, Cause: errors.New(`row lacks the key column`)}
	ErrInvalidKey    Err = Err{Code: ErrCodeInvalidKey, Cause: errors.New(`key value is not comparable`)}
	ErrClosed        Err = Err{Code: ErrCodeClosed, Cause: errors.New(`pool is closed`)}
	ErrReleased      Err = Err{Code: ErrCodeReleased, Cause: errors.New(`connection is released`)}
	ErrDetached      Err = Err{Code: ErrCodeDetached, Cause: errors.New(`query is not attached to a database`)}
	ErrUnknownDB     Err = Err{Code: ErrCodeUnknownDB, Cause: errors.New(`unknown database`)}
)

// Type of errors returned by this package, other than execution errors.
type Err struct {
	Code  ErrCode
	While string
	Cause error
}

// Implement `error`.
func (self Err) Error() string {
	if self == (Err{}) {
		return ``
	}
	msg := `[sequel]`
	if self.Code != ErrCodeUnknown {
		msg += fmt.Sprintf(` %s`, self.Code)
	}
	if self.While != `` {
		msg += fmt.Sprintf(` while %v`, self.While)
	}
	if self.Cause != nil {
		msg += `: ` + self.Cause.Error()
	}
	return msg
}

// Implement a hidden interface in "errors".
func (self Err) Is(other error) bool {
	if self.Cause != nil && errors.Is(self.Cause, other) {
		return true
	}
	err, ok := other.(Err)
	return ok && err.Code == self.Code
}

// Implement a hidden interface in "errors".
func (self Err) Unwrap() error {
	return self.Cause
}

func errf(code ErrCode, while string, format string, args ...any) Err {
	return Err{Code: code, While: while, Cause: fmt.Errorf(format, args...)}
}

/*
Execution error: a failure reported by the database or the driver, annotated
with the statement that caused it. `Fingerprint` is a hash of the text, stable
across argument values, which is useful for grouping failures in logs.
`errors.Is` and `errors.As` reach the driver error via `Unwrap`.
*/
type ExecErr struct {
	Text        string
	Args        []any
	Fingerprint uint64
	Cause       error
}

// Implement `error`.
func (self *ExecErr) Error() string {
	return fmt.Sprintf(`[sequel] failed to execute %q with args %v: %v`, self.Text, self.Args, self.Cause)
}

// Implement a hidden interface in "errors".
func (self *ExecErr) Unwrap() error { return self.Cause }
