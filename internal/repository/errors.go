// Package repository defines error types that are reused across multiple
// repositories. These sentinel values allow handlers to distinguish between
// failure scenarios. ErrNotFound deliberately covers both "no such record"
// and "record owned by someone else": reporting the two identically keeps a
// non-owner from learning that a record exists at all.
package repository

import "errors"

// ErrNotFound is returned when a record does not exist or does not belong to
// the acting user. Handlers translate this into an HTTP 404 response.
var ErrNotFound = errors.New("not found")
