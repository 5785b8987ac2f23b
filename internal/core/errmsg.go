package core

// errmsg.go maps technical errors to user-friendly messages with stable
// error codes. The codes give support staff a handle on reports without
// exposing internals to clients.
//
// Code ranges:
//
//	NET001-NET004  catalog service connectivity and response failures
//	FILE001-FILE003  source file problems
//	RUN001-RUN002  run lifecycle errors
//	ERR000  fallback for unmatched errors

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

// errorPattern defines a pattern to match and its corresponding user message.
type errorPattern struct {
	pattern string
	msg     UserMessage
}

// errorPatterns maps technical error patterns (case-insensitive) to user
// messages. Patterns are matched with strings.Contains and the first match
// wins, so more specific patterns come before general ones.
var errorPatterns = []errorPattern{
	// Catalog service connectivity
	{
		pattern: "connection refused",
		msg: UserMessage{
			Message: "Unable to reach the catalog service",
			Action:  "Check that the catalog service is running and try again",
			Code:    "NET001",
		},
	},
	{
		pattern: "connection reset",
		msg: UserMessage{
			Message: "The connection to the catalog service was interrupted",
			Action:  "Please try again",
			Code:    "NET002",
		},
	},
	{
		pattern: "timeout",
		msg: UserMessage{
			Message: "The catalog service took too long to respond",
			Action:  "Try again, or use a smaller batch size",
			Code:    "NET003",
		},
	},
	{
		pattern: "upload failed with status",
		msg: UserMessage{
			Message: "The catalog service rejected a batch",
			Action:  "Review the run result for per-batch details",
			Code:    "NET004",
		},
	},

	// Source file problems
	{
		pattern: "no header row",
		msg: UserMessage{
			Message: "The file has no header row",
			Action:  "Add a header row naming the product columns",
			Code:    "FILE001",
		},
	},
	{
		pattern: "could not read file",
		msg: UserMessage{
			Message: "The file could not be read as CSV",
			Action:  "Check the file is a valid CSV export and re-save it",
			Code:    "FILE002",
		},
	},
	{
		pattern: "request body too large",
		msg: UserMessage{
			Message: "The file is too large",
			Action:  "Split the file into smaller parts and upload them separately",
			Code:    "FILE003",
		},
	},

	// Run lifecycle
	{
		pattern: "too many concurrent runs",
		msg: UserMessage{
			Message: "Too many ingestion runs are in progress",
			Action:  "Wait for a run to finish and try again",
			Code:    "RUN001",
		},
	},
	{
		pattern: "run not found",
		msg: UserMessage{
			Message: "That run does not exist or has expired",
			Action:  "Check the run ID, or look it up in the run history",
			Code:    "RUN002",
		},
	},
}

// defaultMessage is returned when no pattern matches.
var defaultMessage = UserMessage{
	Message: "An unexpected error occurred",
	Action:  "Please try again or contact support",
	Code:    "ERR000",
}

// MapError converts a technical error to a user-friendly message. It
// searches the known patterns (case-insensitive) and returns the first
// match, falling back to ERR000.
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
