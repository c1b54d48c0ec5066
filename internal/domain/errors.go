package domain

import "github.com/pkg/errors"

// ErrStorageUnavailable matches every error returned by a MetricStore when
// the backing database cannot serve a read or a write.
var ErrStorageUnavailable = errors.New("storage unavailable")

// StorageError records the failed store operation and its cause.
type StorageError struct {
	Op  string
	Err error
}

func NewStorageError(op string, err error) error {
	return &StorageError{Op: op, Err: err}
}

func (e *StorageError) Error() string {
	return ErrStorageUnavailable.Error() + ": " + e.Op + ": " + e.Err.Error()
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

func (e *StorageError) Is(target error) bool {
	return target == ErrStorageUnavailable
}
