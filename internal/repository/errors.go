// Package repository defines error types that are reused across multiple
// repositories. These sentinel values allow higher layers such as
// handlers to distinguish between different failure scenarios. For
// example, ErrInUse indicates that reference data cannot be deleted
// while appeals still point at it.
package repository

import "errors"

// ErrInUse is returned when a status or category cannot be deleted
// because at least one appeal references it. Handlers should translate
// this into an HTTP 400 response.
var ErrInUse = errors.New("reference row is in use")

// ErrDuplicate is returned when an insert or update violates a unique
// constraint and the specific column could not be determined.
var ErrDuplicate = errors.New("duplicate value")
