// Package services defines the business logic for the ranked movie list.
// This file centralizes service-level error values so that they can be
// consistently returned by service methods and checked by callers.
//
// Translation into user-facing messages or HTTP status codes is performed at
// the handler layer.
package services

import "errors"

var (
	// ErrMovieNotFound indicates that the requested movie id does not exist.
	ErrMovieNotFound = errors.New("movie not found")

	// ErrRatingTooHigh is returned when a rating exceeds the allowed maximum.
	// It is the constraint violation of the rating column.
	ErrRatingTooHigh = errors.New("rating must be at most 10")

	// ErrValidation is returned for malformed input such as an empty search
	// query or a non-finite rating.
	ErrValidation = errors.New("invalid input")

	// ErrCatalogUnavailable indicates the external catalog could not be reached
	// or answered with an error.
	ErrCatalogUnavailable = errors.New("movie catalog unavailable")

	// ErrCatalogRecordMissing indicates the catalog has no usable record for
	// the requested id.
	ErrCatalogRecordMissing = errors.New("movie not found in catalog")
)
