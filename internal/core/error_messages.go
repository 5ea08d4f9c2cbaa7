// Package core provides the table model and analysis pipeline behind the
// insights dashboard.
//
// # Error Codes Reference
//
// This file defines user-friendly error messages with codes for support
// reference. When users encounter errors, they can quote the error code for
// faster diagnosis.
//
// Error codes are grouped by category:
//
// # File Errors (FILE001-FILE099)
//
//	FILE001 - File too large: File exceeds the maximum upload size
//	          Action: Upload a smaller file or remove unused columns
//	          Patterns: "file too large", "request body too large"
//
//	FILE002 - Invalid CSV: File is not a valid CSV
//	          Action: Ensure file is comma-separated with consistent columns
//	          Types: *ParseError
//
//	FILE004 - No file: No file was selected
//	          Action: Please select a CSV file to upload
//	          Patterns: "no file provided"
//
//	FILE005 - Empty file: The uploaded file is empty
//	          Action: Please upload a CSV file with a header row
//	          Patterns: "empty file"
//
// # Column Errors (COL001-COL099)
//
//	COL001 - Unknown column: The column does not exist in this dataset
//	         Types: *UnknownColumnError
//
//	COL002 - Wrong column class: The column cannot be used for this view
//	         Types: *ColumnTypeError
//
// # Statistic Errors (STAT001-STAT099)
//
//	STAT001 - Statistic undefined: The column has no values to compute from
//	          Action: Choose another column or a different cleaning method
//	          Types: *StatisticUndefinedError
//
// # Filter Errors (FLT001-FLT099)
//
//	FLT001 - Inverted range: The minimum is greater than the maximum
//	         Types: *InvalidRangeError
//
// # Validation Errors (VAL001-VAL099)
//
//	VAL001 - Invalid option: A control value is not allowed
//	         Types: ValidationErrors, ValidationError
//
// # Dataset and Upload Errors (DS001, UPL001-UPL099)
//
//	DS001  - Dataset not found: The dataset expired or was removed
//	UPL002 - Too many uploads: System is busy processing other uploads
//	UPL004 - Request cancelled
//	UPL005 - Request timed out
//
// # Rate and Auth Errors
//
//	RATE001 - Rate limit exceeded
//	AUTH001 - Missing API key
//	AUTH002 - Invalid API key
//
// # Fallback
//
//	ERR000 - Any error not matching a known type or pattern
package core

import (
	"errors"
	"fmt"
	"strings"
)

// UserMessage contains user-friendly error information.
type UserMessage struct {
	Message string // What happened (user-friendly)
	Action  string // What to do about it
	Code    string // Error code for support reference
}

type errorPattern struct {
	pattern string
	msg     UserMessage
}

// errorPatterns match lowercased error text for errors that do not carry a
// typed cause. Order matters: the first match wins.
var errorPatterns = []errorPattern{
	// =========================================================================
	// File Errors
	// =========================================================================
	{
		pattern: "file too large",
		msg: UserMessage{
			Message: "File exceeds the maximum upload size",
			Action:  "Upload a smaller file or remove unused columns",
			Code:    "FILE001",
		},
	},
	{
		pattern: "request body too large",
		msg: UserMessage{
			Message: "File exceeds the maximum upload size",
			Action:  "Upload a smaller file or remove unused columns",
			Code:    "FILE001",
		},
	},
	{
		pattern: "empty file",
		msg: UserMessage{
			Message: "The uploaded file is empty",
			Action:  "Please upload a CSV file with a header row",
			Code:    "FILE005",
		},
	},
	{
		pattern: "invalid csv",
		msg: UserMessage{
			Message: "File is not a valid CSV",
			Action:  "Ensure file is comma-separated with consistent columns",
			Code:    "FILE002",
		},
	},
	{
		pattern: "no file provided",
		msg: UserMessage{
			Message: "No file was selected",
			Action:  "Please select a CSV file to upload",
			Code:    "FILE004",
		},
	},

	// =========================================================================
	// Dataset and Upload Errors
	// =========================================================================
	{
		pattern: "dataset not found",
		msg: UserMessage{
			Message: "Dataset not found",
			Action:  "It may have expired. Please upload the file again",
			Code:    "DS001",
		},
	},
	{
		pattern: "too many concurrent uploads",
		msg: UserMessage{
			Message: "System is busy processing other uploads",
			Action:  "Please wait a moment and try again",
			Code:    "UPL002",
		},
	},
	{
		pattern: "context canceled",
		msg: UserMessage{
			Message: "Request was cancelled",
			Action:  "Please try again",
			Code:    "UPL004",
		},
	},
	{
		pattern: "context deadline exceeded",
		msg: UserMessage{
			Message: "Request timed out",
			Action:  "Try a smaller file or check your connection",
			Code:    "UPL005",
		},
	},

	// =========================================================================
	// Rate Limiting and Auth
	// =========================================================================
	{
		pattern: "rate limit",
		msg: UserMessage{
			Message: "Too many requests",
			Action:  "Please wait a minute before trying again",
			Code:    "RATE001",
		},
	},
	{
		pattern: "missing api key",
		msg: UserMessage{
			Message: "Authentication required",
			Action:  "Send your API key in the X-API-Key header",
			Code:    "AUTH001",
		},
	},
	{
		pattern: "invalid api key",
		msg: UserMessage{
			Message: "API key not recognized",
			Action:  "Check the key or ask an administrator for a new one",
			Code:    "AUTH002",
		},
	},
}

// defaultMessage is returned when no type or pattern matches.
var defaultMessage = UserMessage{
	Message: "An unexpected error occurred",
	Action:  "Please try again. If the problem persists, contact support",
	Code:    "ERR000",
}

// MapError converts a technical error to a user-friendly message.
// Typed domain errors are matched first so their messages can name the
// column involved; other errors fall back to substring patterns.
//
// Example:
//
//	msg := MapError(&StatisticUndefinedError{Column: "score", Statistic: "mean"})
//	// msg.Code == "STAT001"
func MapError(err error) UserMessage {
	if err == nil {
		return UserMessage{}
	}

	if msg, ok := mapTyped(err); ok {
		return msg
	}

	errStr := strings.ToLower(err.Error())
	for _, ep := range errorPatterns {
		if strings.Contains(errStr, ep.pattern) {
			return ep.msg
		}
	}

	return defaultMessage
}

func mapTyped(err error) (UserMessage, bool) {
	var (
		parseErr    *ParseError
		unknownErr  *UnknownColumnError
		typeErr     *ColumnTypeError
		statErr     *StatisticUndefinedError
		rangeErr    *InvalidRangeError
		validErrs   ValidationErrors
		validErr    ValidationError
		tooManyErrs = errors.Is(err, ErrTooManyUploads)
	)

	switch {
	case errors.Is(err, ErrEmptyFile):
		return UserMessage{
			Message: "The uploaded file is empty",
			Action:  "Please upload a CSV file with a header row",
			Code:    "FILE005",
		}, true
	case errors.Is(err, ErrFileTooLarge):
		return UserMessage{
			Message: "File exceeds the maximum upload size",
			Action:  "Upload a smaller file or remove unused columns",
			Code:    "FILE001",
		}, true
	case errors.As(err, &parseErr):
		msg := "File is not a valid CSV"
		if parseErr.Line > 0 {
			msg = fmt.Sprintf("File is not a valid CSV (line %d)", parseErr.Line)
		}
		return UserMessage{
			Message: msg,
			Action:  "Ensure file is comma-separated with consistent columns",
			Code:    "FILE002",
		}, true
	case errors.As(err, &unknownErr):
		return UserMessage{
			Message: fmt.Sprintf("Column %q does not exist in this dataset", unknownErr.Column),
			Action:  "Pick a column from the list",
			Code:    "COL001",
		}, true
	case errors.As(err, &typeErr):
		return UserMessage{
			Message: fmt.Sprintf("Column %q is %s and cannot be used for the %s", typeErr.Column, typeErr.Got, typeErr.Operation),
			Action:  fmt.Sprintf("Pick a %s column", typeErr.Want),
			Code:    "COL002",
		}, true
	case errors.As(err, &statErr):
		return UserMessage{
			Message: fmt.Sprintf("Column %q has no values to compute the %s from", statErr.Column, statErr.Statistic),
			Action:  "Choose another column or a different cleaning method",
			Code:    "STAT001",
		}, true
	case errors.As(err, &rangeErr):
		return UserMessage{
			Message: fmt.Sprintf("The minimum for %q is greater than the maximum", rangeErr.Column),
			Action:  "Swap the bounds or widen the range",
			Code:    "FLT001",
		}, true
	case errors.As(err, &validErrs), errors.As(err, &validErr):
		return UserMessage{
			Message: "One of the selected options is not valid",
			Action:  err.Error(),
			Code:    "VAL001",
		}, true
	case errors.Is(err, ErrDatasetNotFound):
		return UserMessage{
			Message: "Dataset not found",
			Action:  "It may have expired. Please upload the file again",
			Code:    "DS001",
		}, true
	case tooManyErrs:
		return UserMessage{
			Message: "System is busy processing other uploads",
			Action:  "Please wait a moment and try again",
			Code:    "UPL002",
		}, true
	}
	return UserMessage{}, false
}

// IsUserFacing checks if an error matches a known type or pattern and
// should be shown to users. Returns false for the generic ERR000 fallback.
func IsUserFacing(err error) bool {
	if err == nil {
		return false
	}
	return MapError(err).Code != defaultMessage.Code
}

// UserError wraps a technical error with a user-friendly message.
// The original error is preserved for logging while providing a clean
// message for users.
type UserError struct {
	Technical error       // Original technical error for logging
	User      UserMessage // User-friendly message for display
}

func (e *UserError) Error() string {
	return e.User.Message
}

func (e *UserError) Unwrap() error {
	return e.Technical
}

// NewUserError creates a UserError by mapping a technical error to a
// user-friendly message. Returns nil if err is nil.
func NewUserError(err error) *UserError {
	if err == nil {
		return nil
	}
	return &UserError{
		Technical: err,
		User:      MapError(err),
	}
}
