package errors

import (
	stderrors "errors"
	"fmt"
	"time"
)

type ErrorType int

const (
	ErrConnection ErrorType = iota
	ErrFileNotFound
	ErrIO
	ErrArgs
	ErrFileTransfer
)

func (t ErrorType) String() string {
	switch t {
	case ErrConnection:
		return "connection"
	case ErrFileNotFound:
		return "file not found"
	case ErrIO:
		return "io"
	case ErrArgs:
		return "arguments"
	case ErrFileTransfer:
		return "file transfer"
	default:
		return fmt.Sprintf("ErrorType(%d)", int(t))
	}
}

type ErrorLevel int

const (
	INFO ErrorLevel = iota
	WARNING
	ERROR
	FATAL
)

// Process exit statuses, one per fatal error class.
const (
	ExitOK          = 0
	ExitConnection  = 1
	ExitFileMissing = 2
	ExitIO          = 3
	ExitArgs        = 4
)

type AppError struct {
	Type    ErrorType
	Level   ErrorLevel
	Message string
	Time    time.Time
	Source  string
	Err     error
}

func (c *AppError) Error() string {
	if c.Err == nil {
		return c.Message
	}
	return fmt.Sprintf("%s: %v", c.Message, c.Err)
}

func (c *AppError) Unwrap() error {
	return c.Err
}

func NewError(errtype ErrorType, level ErrorLevel, source string, msg string, uerror error) *AppError {
	return &AppError{
		Type:    errtype,
		Level:   level,
		Message: msg,
		Time:    time.Now(),
		Source:  source,
		Err:     uerror,
	}
}

// Fatal builds a session-fatal error of the given type.
func Fatal(errtype ErrorType, source string, msg string, uerror error) *AppError {
	return NewError(errtype, FATAL, source, msg, uerror)
}

// IsFatal reports whether err (or anything it wraps) is an AppError at FATAL level.
func IsFatal(err error) bool {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr.Level == FATAL
	}
	return false
}

// TypeOf returns the type of the first AppError in err's chain.
func TypeOf(err error) (ErrorType, bool) {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr.Type, true
	}
	return 0, false
}

// ExitCode maps an error returned by the client to a process exit status.
// Errors that carry no AppError are treated as generic I/O failures.
func ExitCode(err error) int {
	if err == nil {
		return ExitOK
	}
	errtype, ok := TypeOf(err)
	if !ok {
		return ExitIO
	}
	switch errtype {
	case ErrConnection:
		return ExitConnection
	case ErrFileNotFound:
		return ExitFileMissing
	case ErrArgs:
		return ExitArgs
	default:
		return ExitIO
	}
}
