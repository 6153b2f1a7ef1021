package core

// error_messages.go maps pipeline errors to user-facing messages with codes
// for support reference.
//
//	PARSE001 - No delimiter: a line contains no tab, comma, space or hyphen
//	PARSE002 - Malformed record: a line does not fit the fixed record layout
//	ISO001   - Invalid ISO code: code is not 3 letters A-Z (or OWID_KOS)
//	FILE001  - Missing file: an input table could not be opened
//	DATA001  - Unknown country: no aggregate exists for the requested code
//	REQ001   - Invalid request: a year range or query parameter is invalid
//	ERR000   - Unknown error
//
// Patterns are matched case-insensitively with strings.Contains and the first
// match wins.

import (
	"fmt"
	"strings"
)

// UserMessage provides user-friendly error information with actionable guidance.
type UserMessage struct {
	Message string // What happened (user-friendly)
	Action  string // What to do about it
	Code    string // Error code for support reference
}

type errorPattern struct {
	pattern string
	msg     UserMessage
}

var errorPatterns = []errorPattern{
	{
		pattern: ErrNoDelimiterFound.Error(),
		msg: UserMessage{
			Message: "A line contains no recognised delimiter",
			Action:  "Separate fields with tabs, commas, spaces or hyphens",
			Code:    "PARSE001",
		},
	},
	{
		pattern: ErrMalformedRecord.Error(),
		msg: UserMessage{
			Message: "A record does not match the expected layout",
			Action:  "Check the line reported in the logs for missing fields",
			Code:    "PARSE002",
		},
	},
	{
		pattern: ErrInvalidISOCode.Error(),
		msg: UserMessage{
			Message: "Invalid country code",
			Action:  "Use a three letter uppercase ISO code",
			Code:    "ISO001",
		},
	},
	{
		pattern: ErrMissingFile.Error(),
		msg: UserMessage{
			Message: "An input file could not be read",
			Action:  "Verify the configured data paths",
			Code:    "FILE001",
		},
	},
	{
		pattern: ErrUnknownCountry.Error(),
		msg: UserMessage{
			Message: "No data exists for this country",
			Action:  "Check the ISO code against /api/countries",
			Code:    "DATA001",
		},
	},
	{
		pattern: ErrInvalidYearRange.Error(),
		msg: UserMessage{
			Message: "The requested year range is invalid",
			Action:  "Make sure 'from' is not after 'to'",
			Code:    "REQ001",
		},
	},
	{
		pattern: "invalid parameter",
		msg: UserMessage{
			Message: "A request parameter is invalid",
			Action:  "Check the query string values",
			Code:    "REQ001",
		},
	},
}

// defaultMessage is returned when no pattern matches (ERR000).
var defaultMessage = UserMessage{
	Message: "An unexpected error occurred",
	Action:  "Please try again or check the server logs",
	Code:    "ERR000",
}

// MapError converts a technical error to a user-friendly message.
// If no pattern matches, the ERR000 fallback is returned.
func MapError(err error) UserMessage {
	if err == nil {
		return UserMessage{}
	}

	errStr := strings.ToLower(err.Error())

	for _, ep := range errorPatterns {
		if strings.Contains(errStr, ep.pattern) {
			return ep.msg
		}
	}

	return defaultMessage
}

// FormatUserError creates a formatted error string for display.
// The format is: "Message (Code: XXX). Action"
func FormatUserError(err error) string {
	msg := MapError(err)
	if msg.Message == "" {
		return ""
	}
	return fmt.Sprintf("%s (Code: %s). %s", msg.Message, msg.Code, msg.Action)
}

// IsUserFacing reports whether err matches a known pattern rather than the
// ERR000 fallback.
func IsUserFacing(err error) bool {
	if err == nil {
		return false
	}
	return MapError(err).Code != defaultMessage.Code
}

// UserError wraps a technical error with its user-facing message.
type UserError struct {
	Err error
	Msg UserMessage
}

// NewUserError wraps err. It returns nil for a nil error.
func NewUserError(err error) *UserError {
	if err == nil {
		return nil
	}
	return &UserError{Err: err, Msg: MapError(err)}
}

func (e *UserError) Error() string { return e.Msg.Message }

func (e *UserError) Unwrap() error { return e.Err }
