// Package repository holds the errors shared by every record store
// implementation.
package repository

import "github.com/pkg/errors"

var (
	// ErrNotFound is returned when the requested document does not exist.
	ErrNotFound = errors.New("not found")

	// ErrConflict is returned when a conditional write finds the document
	// in a state other than the expected one.
	ErrConflict = errors.New("conditional write conflict")
)

// AttendanceFilter narrows a daily attendance listing. Date is required;
// the remaining fields are optional.
type AttendanceFilter struct {
	Date        string
	Search      *string
	Shift       *string
	Punctuality *string
	Status      *string
	Open        *bool
	Limit       *int
	Offset      *int
	Page        *int
}

// Window returns the offset and limit to apply, resolving Page into an
// offset the same way for every store. A limit of 0 means no limit.
func (f AttendanceFilter) Window() (offset, limit int) {
	if f.Limit != nil && *f.Limit > 0 {
		limit = *f.Limit
	}
	if f.Offset != nil && *f.Offset > 0 {
		offset = *f.Offset
	}
	if f.Page != nil && *f.Page > 0 && limit > 0 {
		offset = (*f.Page - 1) * limit
	}
	return offset, limit
}
