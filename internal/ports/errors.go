package ports

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound      = errors.New("record not found")
	ErrAlreadyExists = errors.New("record already exists")
	// ErrForeignReference is returned when a row points at a record owned by another event.
	ErrForeignReference = errors.New("reference belongs to another event")
)

// ForeignReferenceError names the first referenced record that does not belong
// to the event. It matches ErrForeignReference.
type ForeignReferenceError struct {
	Entity string
	ID     uint64
}

func (e *ForeignReferenceError) Error() string {
	return fmt.Sprintf("%s %d: %s", e.Entity, e.ID, ErrForeignReference)
}

func (e *ForeignReferenceError) Is(target error) bool {
	return target == ErrForeignReference
}
