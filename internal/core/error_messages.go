package core

// error_messages.go maps technical errors to user-facing messages with codes
// for support reference. A user quoting a code lets support find the pattern
// that produced it and the original error in the logs.
//
// # File Errors (FILE001-FILE099)
//
//	FILE001 - File too large           "file too large"
//	FILE002 - Unsupported format       "unsupported file format"
//	FILE003 - Damaged workbook         "malformed spreadsheet"
//	FILE004 - No file                  "no file provided"
//	FILE005 - Empty file               "empty file"
//
// # Validation Errors (VAL001-VAL099)
//
//	VAL001 - Header mismatch           "header mismatch"
//	VAL002 - Too many rows             "too many rows"
//	VAL003 - Misconfigured field type  "unknown field type"
//
// # Import Errors (IMP001-IMP099)
//
//	IMP001 - System busy               "too many concurrent imports"
//	IMP002 - Import expired            "import not found"
//	IMP003 - Request cancelled         "context canceled"
//	IMP004 - Request timeout           "context deadline exceeded"
//	IMP005 - Saving disabled           "persistence not configured"
//
// # Layout Errors (LAY001-LAY099)
//
//	LAY001 - Unknown layout            "layout not found"
//
// # Database Errors (DB001-DB099)
//
//	DB001 - Duplicate key              "duplicate key"
//	DB002 - Unique constraint          "unique constraint", "violates unique"
//	DB003 - Foreign key                "foreign key constraint", "violates foreign key"
//	DB004 - Connection refused         "connection refused"
//	DB005 - Connection reset           "connection reset"
//	DB006 - Timeout                    "timeout"
//	DB007 - Deadlock                   "deadlock"
//
// ERR000 is the fallback when nothing matches; check the logs for the
// technical error.
//
// Patterns are matched case-insensitively with strings.Contains and the first
// match wins, so specific patterns come before general ones.

import (
	"fmt"
	"strings"
)

// UserMessage provides user-friendly error information with actionable guidance.
type UserMessage struct {
	Message string `json:"message"` // What happened (user-friendly)
	Action  string `json:"action"`  // What to do about it
	Code    string `json:"code"`    // Error code for support reference
}

type errorPattern struct {
	pattern string
	msg     UserMessage
}

var errorPatterns = []errorPattern{
	// File
	{"file too large", UserMessage{
		Message: "File exceeds the maximum upload size",
		Action:  "Split the workbook into smaller files",
		Code:    "FILE001",
	}},
	{"unsupported file format", UserMessage{
		Message: "File is not an Excel workbook",
		Action:  "Upload an .xlsx or .xls file",
		Code:    "FILE002",
	}},
	{"malformed spreadsheet", UserMessage{
		Message: "The workbook could not be read",
		Action:  "Open the file in Excel, save it again as .xlsx and retry",
		Code:    "FILE003",
	}},
	{"no file provided", UserMessage{
		Message: "No file was selected",
		Action:  "Please select a workbook to upload",
		Code:    "FILE004",
	}},
	{"empty file", UserMessage{
		Message: "The uploaded file is empty",
		Action:  "Please upload a workbook with data rows",
		Code:    "FILE005",
	}},

	// Validation
	{"header mismatch", UserMessage{
		Message: "Column headers do not match the template",
		Action:  "Download the template and keep its header row unchanged",
		Code:    "VAL001",
	}},
	{"too many rows", UserMessage{
		Message: "A sheet has more rows than allowed",
		Action:  "Split the data across several files",
		Code:    "VAL002",
	}},
	{"unknown field type", UserMessage{
		Message: "This layout is misconfigured",
		Action:  "Contact support with the error code",
		Code:    "VAL003",
	}},

	// Import
	{"too many concurrent imports", UserMessage{
		Message: "Too many imports in progress",
		Action:  "Please wait a moment and try again",
		Code:    "IMP001",
	}},
	{"import not found", UserMessage{
		Message: "Import not found",
		Action:  "The import may have expired. Please upload the file again",
		Code:    "IMP002",
	}},
	{"context canceled", UserMessage{
		Message: "Request was cancelled",
		Action:  "Please try again",
		Code:    "IMP003",
	}},
	{"context deadline exceeded", UserMessage{
		Message: "Import timed out",
		Action:  "Try a smaller file or try again later",
		Code:    "IMP004",
	}},
	{"persistence not configured", UserMessage{
		Message: "Saving imported records is not enabled",
		Action:  "Import without saving, or ask an administrator to configure the database",
		Code:    "IMP005",
	}},

	// Layout
	{"layout not found", UserMessage{
		Message: "Unknown import layout",
		Action:  "Choose one of the listed layouts",
		Code:    "LAY001",
	}},

	// Database
	{"duplicate key", UserMessage{
		Message: "A record with this ID already exists",
		Action:  "Remove rows that were imported before",
		Code:    "DB001",
	}},
	{"unique constraint", UserMessage{
		Message: "This value must be unique but already exists",
		Action:  "Check for duplicate entries in your workbook",
		Code:    "DB002",
	}},
	{"violates unique", UserMessage{
		Message: "A duplicate value was found",
		Action:  "Review your data for duplicate key values",
		Code:    "DB002",
	}},
	{"foreign key constraint", UserMessage{
		Message: "Referenced record does not exist",
		Action:  "Import parent records first",
		Code:    "DB003",
	}},
	{"violates foreign key", UserMessage{
		Message: "Referenced record does not exist",
		Action:  "Import parent records first",
		Code:    "DB003",
	}},
	{"connection refused", UserMessage{
		Message: "Unable to connect to database",
		Action:  "Please try again in a few moments",
		Code:    "DB004",
	}},
	{"connection reset", UserMessage{
		Message: "Database connection was interrupted",
		Action:  "Please try again",
		Code:    "DB005",
	}},
	{"timeout", UserMessage{
		Message: "Operation timed out",
		Action:  "Try a smaller file or try again later",
		Code:    "DB006",
	}},
	{"deadlock", UserMessage{
		Message: "Database was busy with conflicting operations",
		Action:  "Please try again",
		Code:    "DB007",
	}},
}

var defaultMessage = UserMessage{
	Message: "An unexpected error occurred",
	Action:  "Please try again or contact support",
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

// FormatUserError formats err as "Message (Code: XXX). Action".
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

// UserError pairs a technical error with its user message. Error returns the
// user message; Unwrap returns the technical error for logging.
type UserError struct {
	Technical error
	User      UserMessage
}

func (e *UserError) Error() string {
	return e.User.Message
}

func (e *UserError) Unwrap() error {
	return e.Technical
}

// NewUserError maps err to a UserError. Returns nil if err is nil.
func NewUserError(err error) *UserError {
	if err == nil {
		return nil
	}
	return &UserError{
		Technical: err,
		User:      MapError(err),
	}
}
