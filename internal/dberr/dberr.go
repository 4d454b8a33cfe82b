// Package dberr defines the error-kind taxonomy shared by every layer of
// the storage engine, from the value codec up to the operation executor.
package dberr

import (
	"golang.org/x/xerrors"
)

// Kind identifies which contract an operation violated. Callers outside
// this module should switch on Kind rather than match error strings.
type Kind string

const (
	ValueOutOfRange    Kind = "value_out_of_range"
	StringTooLong      Kind = "string_too_long"
	InvalidLength      Kind = "invalid_length"
	InvalidUTF8        Kind = "invalid_utf8"
	TypeMismatch       Kind = "type_mismatch"
	RowSizeMismatch    Kind = "row_size_mismatch"
	TableNotFound      Kind = "table_not_found"
	ColumnNotFound     Kind = "column_not_found"
	ColumnMissing      Kind = "column_missing"
	TableAlreadyExists Kind = "table_already_exists"
	RowTooLarge        Kind = "row_too_large"
	UnresolvedType     Kind = "unresolved_type"
	UnallocatedSector  Kind = "unallocated_sector"
	SectorOverflow     Kind = "sector_overflow"
	IO                 Kind = "io"
	Decode             Kind = "decode"
	NotImplemented     Kind = "not_implemented"
	DatabaseLocked     Kind = "database_locked"
)

// Error pairs a Kind with the underlying cause. Its Error() string is the
// single JSON-string-able message the transport boundary surfaces (spec §7).
type Error struct {
	Kind Kind
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return string(e.Kind)
	}
	return string(e.Kind) + ": " + e.Err.Error()
}

func (e *Error) Unwrap() error { return e.Err }

// New returns an Error of kind whose cause is formatted from format and
// args with xerrors.Errorf; an empty format leaves the cause nil.
func New(kind Kind, format string, args ...interface{}) *Error {
	var err error
	if format != "" {
		err = xerrors.Errorf(format, args...)
	}
	return &Error{Kind: kind, Err: err}
}

// Is reports whether err (or something it wraps) is a *Error of kind.
func Is(err error, kind Kind) bool {
	var e *Error
	if !xerrors.As(err, &e) {
		return false
	}
	return e.Kind == kind
}
