package errors

import (
	"errors"
	"fmt"
	"os"

	"github.com/julianstephens/carrot/internal/logger"
)

// Storage error kinds. Match with errors.Is.
var (
	ErrNotFound    = errors.New("not found")
	ErrStorageIO   = errors.New("storage I/O failure")
	ErrInvalidData = errors.New("invalid data")
)

// StorageError is returned by storage backends. Kind is one of the sentinel
// errors above; Op names the failing operation.
type StorageError struct {
	Kind error
	Op   string
	Err  error
}

func (e *StorageError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %v", e.Op, e.Kind)
	}
	return fmt.Sprintf("%s: %v: %v", e.Op, e.Kind, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

// Is matches the error's kind, so errors.Is(err, ErrNotFound) works through
// any amount of wrapping.
func (e *StorageError) Is(target error) bool {
	return target == e.Kind
}

// NotFound reports that the target of op does not exist
func NotFound(op string) error {
	return &StorageError{Kind: ErrNotFound, Op: op}
}

// StorageIO wraps a failure of the underlying file or database
func StorageIO(op string, err error) error {
	return &StorageError{Kind: ErrStorageIO, Op: op, Err: err}
}

// InvalidData wraps a malformed row read back from storage
func InvalidData(op string, err error) error {
	return &StorageError{Kind: ErrInvalidData, Op: op, Err: err}
}

// KindOf returns the storage error kind of err, or nil if err is not a
// storage error
func KindOf(err error) error {
	var se *StorageError
	if errors.As(err, &se) {
		return se.Kind
	}
	return nil
}

// Format formats an error message with a consistent "Error: " prefix
func Format(err error) string {
	if err == nil {
		return ""
	}
	return fmt.Sprintf("Error: %v", err)
}

// Formatf formats an error message with a consistent "Error: " prefix using a format string
func Formatf(format string, args ...interface{}) string {
	return fmt.Sprintf("Error: "+format, args...)
}

// Fatal logs an error and exits the program with exit code 1
func Fatal(err error) {
	if err != nil {
		logger.Error("Command execution failed", "error", err)
		fmt.Fprintf(os.Stderr, "%s\n", Format(err))
		os.Exit(1)
	}
}

// Fatalf logs and formats an error message, then exits the program with exit code 1
func Fatalf(format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	logger.Error("Command execution failed", "error", msg)
	fmt.Fprintf(os.Stderr, "%s\n", Formatf(format, args...))
	os.Exit(1)
}
