package ioc

import "errors"

// Common errors returned by the IOC module.
var (
	// ErrNoIndicators is returned when a search matched no indicators.
	// This is a logical empty-result condition, not a protocol error.
	ErrNoIndicators = errors.New("no indicators matched the query")

	// ErrMustProvideFilter is returned by DeleteByFilter when the filter is
	// empty, to prevent accidental delete-all operations.
	ErrMustProvideFilter = errors.New("a filter must be provided")
)
