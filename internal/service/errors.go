package service

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"marketplace-api/internal/store"
)

// Sentinel errors for expected failure modes. The transport layer maps
// them to status codes; nothing in the workflow panics or throws for
// these.
var (
	ErrNotFound            = store.ErrNotFound
	ErrInsufficientStock   = store.ErrInsufficientStock
	ErrOrderNotConfirmable = store.ErrOrderNotConfirmable
	ErrPermissionDenied    = errors.New("permission denied")
	ErrShopsOnly           = errors.New("shops only")
	ErrEmailExists         = errors.New("email already registered")
	ErrInvalidCredentials  = errors.New("invalid email or password")
)

// FieldErrors maps a request field to its validation message. It is
// returned as a regular error so workflows stay single-valued, but the
// transport layer serializes the map itself as the response body.
type FieldErrors map[string]string

func (e FieldErrors) Error() string {
	fields := make([]string, 0, len(e))
	for field := range e {
		fields = append(fields, field)
	}
	sort.Strings(fields)

	parts := make([]string, 0, len(fields))
	for _, field := range fields {
		parts = append(parts, fmt.Sprintf("%s: %s", field, e[field]))
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// AsFieldErrors unwraps err into a FieldErrors map, if it is one.
func AsFieldErrors(err error) (FieldErrors, bool) {
	var fe FieldErrors
	if errors.As(err, &fe) {
		return fe, true
	}
	return nil, false
}
