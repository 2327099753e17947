// Package services defines the business logic for items and the incident log.
// This file centralizes service-level error values so that they can be
// consistently returned by service methods and checked by callers.
//
// The values are categorized (see package fault), so the response pipeline
// maps them to envelopes without the handlers translating anything.
package services

import "github.com/tbourn/go-graceful-response/internal/fault"

// Item-related errors.
var (
	// ErrNameRequired is returned when an item is created with a blank name.
	ErrNameRequired = fault.Invalid("name is required")

	// ErrNameTooLong is returned when an item name exceeds MaxNameRunes.
	ErrNameTooLong = fault.Invalid("name is too long")

	// ErrDescriptionTooLong is returned when a description exceeds
	// MaxDescriptionRunes.
	ErrDescriptionTooLong = fault.Invalid("description is too long")
)

// Incident-related errors.
var (
	// ErrBadCode is returned when an incident filter is not a valid
	// envelope code.
	ErrBadCode = fault.Invalid("code must be upper snake case")
)
