package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidDescription is returned when a meal description is empty or
	// longer than the 140-character limit
	ErrInvalidDescription = errors.New("description must be 1-140 characters")

	// ErrUnparsableResponse is returned when the model output is not valid JSON
	// or lacks a non-empty items array
	ErrUnparsableResponse = errors.New("could not parse estimation response")

	// ErrInvalidItem is returned when a structural check fails for any item
	// in a response; the whole batch is rejected
	ErrInvalidItem = errors.New("invalid item in estimation response")

	// ErrEnergyMismatch is returned when reported calories deviate from the
	// macro-derived values beyond tolerance
	ErrEnergyMismatch = errors.New("inconsistent nutrition estimate")

	// ErrMissingBaseMacros is returned when a rescale is requested for a
	// legacy entry persisted without per-unit base macros
	ErrMissingBaseMacros = errors.New("entry has no base macros to rescale from")

	// ErrInvalidSettings is returned when user settings violate their invariants
	ErrInvalidSettings = errors.New("invalid user settings")

	// ErrEntryNotFound is returned when a meal entry does not exist
	ErrEntryNotFound = errors.New("meal entry not found")

	// ErrSettingsNotFound is returned when a user has no stored settings
	ErrSettingsNotFound = errors.New("user settings not found")

	// ErrCacheMiss is returned when a key is not present in the cache
	ErrCacheMiss = errors.New("cache miss")

	// ErrLLMFailure is returned when an LLM provider request fails
	ErrLLMFailure = errors.New("LLM provider request failed")
)

// ItemValidationError identifies the item that failed a structural check and
// which field was at fault.
type ItemValidationError struct {
	ItemName string
	Field    string
	Reason   string
}

func (e *ItemValidationError) Error() string {
	name := e.ItemName
	if name == "" {
		name = "<unnamed>"
	}
	return fmt.Sprintf("invalid item %q: %s %s", name, e.Field, e.Reason)
}

func (e *ItemValidationError) Unwrap() error { return ErrInvalidItem }

// EnergyMismatchError carries the computed-vs-reported calorie deltas for the
// item whose macros could not be reconciled. Callers use it to log the
// diagnostics and to tell the user to try a more specific description.
type EnergyMismatchError struct {
	ItemName            string
	ReportedCaloriesMin float64
	ReportedCaloriesMax float64
	ExpectedCaloriesMin float64
	ExpectedCaloriesMax float64
	ExpectedAlcoholCals float64
}

func (e *EnergyMismatchError) Error() string {
	return fmt.Sprintf(
		"could not generate consistent nutrition for %q (reported %.0f-%.0f kcal, macros imply %.0f-%.0f kcal); please try a more specific description",
		e.ItemName, e.ReportedCaloriesMin, e.ReportedCaloriesMax, e.ExpectedCaloriesMin, e.ExpectedCaloriesMax,
	)
}

func (e *EnergyMismatchError) Unwrap() error { return ErrEnergyMismatch }
