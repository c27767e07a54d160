// Package core implements the spreadsheet ingestion and search engine:
// parsing uploaded workbooks into a normalized document tree, persisting
// the sparse cell index, and serving multi-keyword searches with full-row
// reconstruction.
//
// # Error Codes Reference
//
// Errors surfaced to callers carry a short code for support reference:
//
//	FILE001 - File too large: upload exceeds the configured size ceiling
//	FILE002 - Invalid spreadsheet: file could not be opened as a workbook
//	FILE003 - Wrong file type: neither content type nor extension indicate xlsx
//	FILE004 - No file: no file was provided with the upload
//	FILE005 - Empty file: the uploaded file has no bytes
//	FILE006 - Too many sheets: workbook exceeds the sheet limit
//	FILE007 - Too many cells: workbook exceeds the non-empty cell limit
//
//	SRCH001 - Keyword count: searches take between 1 and 5 keywords
//
//	PERM001 - Permission denied: requester may not delete this file
//
//	DB001 - Not found: file does not exist or was deleted
//	DB002 - Already deleted: file was deleted previously
//	DB003 - Storage fault: reading or writing the stored file failed
//	DB004 - Index fault: persisting the cell index failed
package core

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors for lookup and permission failures.
var (
	ErrNotFound         = errors.New("file not found")
	ErrAlreadyDeleted   = errors.New("file already deleted")
	ErrPermissionDenied = errors.New("permission denied")
)

// ValidationError rejects an upload or search request before any state
// changes. Nothing is persisted when one is returned.
type ValidationError struct {
	Code   string
	Reason string
}

func (e *ValidationError) Error() string {
	return e.Reason
}

// validationf builds a ValidationError with a formatted reason.
func validationf(code, format string, args ...any) *ValidationError {
	return &ValidationError{Code: code, Reason: fmt.Sprintf(format, args...)}
}

// UserMessage is a user-facing rendering of an error.
type UserMessage struct {
	Message string // What happened (user-friendly)
	Action  string // What to do about it
	Code    string // Error code for support reference
}

// errorPattern pairs a substring of a technical error with its user message.
type errorPattern struct {
	pattern string
	msg     UserMessage
}

var errorPatterns = []errorPattern{
	{"file too large", UserMessage{
		Message: "The file exceeds the maximum upload size",
		Action:  "Split the spreadsheet or remove unused sheets",
		Code:    "FILE001",
	}},
	{"open workbook", UserMessage{
		Message: "The file could not be read as a spreadsheet",
		Action:  "Ensure the file is a valid .xlsx workbook",
		Code:    "FILE002",
	}},
	{"unsupported file type", UserMessage{
		Message: "The file does not look like a spreadsheet",
		Action:  "Upload an .xlsx file",
		Code:    "FILE003",
	}},
	{"no file provided", UserMessage{
		Message: "No file was selected",
		Action:  "Choose a spreadsheet file to upload",
		Code:    "FILE004",
	}},
	{"empty file", UserMessage{
		Message: "The uploaded file is empty",
		Action:  "Upload a spreadsheet that contains data",
		Code:    "FILE005",
	}},
	{"too many sheets", UserMessage{
		Message: "The workbook has too many sheets",
		Action:  "Remove unused sheets and upload again",
		Code:    "FILE006",
	}},
	{"too many cells", UserMessage{
		Message: "The workbook has too many populated cells",
		Action:  "Split the data across multiple uploads",
		Code:    "FILE007",
	}},
	{"between 1 and 5 keywords", UserMessage{
		Message: "Searches take between 1 and 5 keywords",
		Action:  "Narrow the search with a file or sheet filter instead",
		Code:    "SRCH001",
	}},
	{"permission denied", UserMessage{
		Message: "You are not allowed to delete this file",
		Action:  "Ask the original uploader or an administrator",
		Code:    "PERM001",
	}},
	{"file not found", UserMessage{
		Message: "The file does not exist or was deleted",
		Action:  "Refresh the file list",
		Code:    "DB001",
	}},
	{"already deleted", UserMessage{
		Message: "The file was already deleted",
		Action:  "Refresh the file list",
		Code:    "DB002",
	}},
	{"blob store", UserMessage{
		Message: "Storing the file failed",
		Action:  "Please try the upload again",
		Code:    "DB003",
	}},
	{"index file", UserMessage{
		Message: "Indexing the spreadsheet failed",
		Action:  "Please try the upload again",
		Code:    "DB004",
	}},
}

var defaultMessage = UserMessage{
	Message: "An unexpected error occurred",
	Action:  "Please try again; quote the code when contacting support",
	Code:    "GEN001",
}

// MapError converts a technical error into a user-friendly message.
// ValidationErrors keep their own code; other errors are matched against
// known patterns, falling back to a generic message.
func MapError(err error) UserMessage {
	if err == nil {
		return UserMessage{}
	}

	var ve *ValidationError
	if errors.As(err, &ve) {
		for _, ep := range errorPatterns {
			if ep.msg.Code == ve.Code {
				return ep.msg
			}
		}
	}

	errStr := strings.ToLower(err.Error())
	for _, ep := range errorPatterns {
		if strings.Contains(errStr, ep.pattern) {
			return ep.msg
		}
	}

	return defaultMessage
}
