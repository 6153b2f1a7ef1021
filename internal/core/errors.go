package core

import "errors"

var (
	// ErrNoDelimiterFound is returned when a raw line contains none of the
	// candidate delimiters.
	ErrNoDelimiterFound = errors.New("no delimiter found")

	// ErrInvalidISOCode is returned when a country is created with a code
	// that is neither three letters A-Z nor OWID_KOS.
	ErrInvalidISOCode = errors.New("invalid iso code")

	// ErrMissingFile is returned when an input table cannot be opened.
	ErrMissingFile = errors.New("missing file")

	// ErrMalformedRecord is returned when a line cannot be reshaped into the
	// fixed record layout.
	ErrMalformedRecord = errors.New("malformed record")

	// ErrUnknownCountry is returned by lookups for an ISO code with no aggregate.
	ErrUnknownCountry = errors.New("unknown country")

	// ErrInvalidYearRange is returned when a series is requested with from > to.
	ErrInvalidYearRange = errors.New("invalid year range")
)
