package storage

import (
	"errors"
	"fmt"
)

var ErrStoreClosed = errors.New("store is not open")

// PersistenceError reports a failed read or write of local storage. It is
// never fatal: readers fall back to defaults and writers leave memory as is.
type PersistenceError struct {
	Op  string
	Key string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("storage %s %q: %v", e.Op, e.Key, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}
