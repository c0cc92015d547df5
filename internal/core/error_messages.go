package core

// error_messages.go maps technical errors to user-facing messages with codes
// for support reference.
//
// Codes are grouped by category:
//
//	CONN001-CONN099  Connecting to the data source
//	AUTH001-AUTH099  Authentication
//	QRY001-QRY099    Query execution and fetching
//	ENC001-ENC099    Text encoding
//	SES001-SES099    Session scheduling and cancellation
//	ERR000           Fallback
//
// Patterns are matched case-insensitively with strings.Contains against the
// error text, first match wins. When nothing matches, the SessionError kind
// selects a category default before falling back to ERR000.

import (
	"errors"
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

// errorPatterns is ordered specific before general.
var errorPatterns = []errorPattern{
	// Authentication
	{
		pattern: "password authentication failed",
		msg: UserMessage{
			Message: "The data source rejected the credentials",
			Action:  "Check the user name and password in the connection target",
			Code:    "AUTH001",
		},
	},
	{
		pattern: "no pg_hba.conf entry",
		msg: UserMessage{
			Message: "The data source does not accept connections from this host",
			Action:  "Ask the database administrator to allow this client",
			Code:    "AUTH002",
		},
	},
	{
		pattern: `role "`,
		msg: UserMessage{
			Message: "The user name is not known to the data source",
			Action:  "Check the user name in the connection target",
			Code:    "AUTH003",
		},
	},

	// Connection
	{
		pattern: "connection refused",
		msg: UserMessage{
			Message: "Unable to reach the data source",
			Action:  "Check that the server is running and the host and port are correct",
			Code:    "CONN001",
		},
	},
	{
		pattern: "no such host",
		msg: UserMessage{
			Message: "The data source host could not be resolved",
			Action:  "Check the host name in the connection target",
			Code:    "CONN002",
		},
	},
	{
		pattern: `database "`,
		msg: UserMessage{
			Message: "The requested database does not exist",
			Action:  "Check the database name in the connection target",
			Code:    "CONN003",
		},
	},
	{
		pattern: "cannot parse",
		msg: UserMessage{
			Message: "The connection target is malformed",
			Action:  "Use a postgres:// URL, a key=value DSN or a database name",
			Code:    "CONN004",
		},
	},

	// Query
	{
		pattern: "syntax error",
		msg: UserMessage{
			Message: "The query text is not valid SQL",
			Action:  "Fix the syntax error reported by the data source",
			Code:    "QRY001",
		},
	},
	{
		pattern: "read-only transaction",
		msg: UserMessage{
			Message: "Only read-only queries can be run",
			Action:  "Use a SELECT statement",
			Code:    "QRY004",
		},
	},
	{
		pattern: "does not exist",
		msg: UserMessage{
			Message: "The query references a table, column or function that does not exist",
			Action:  "Check the object names used in the query",
			Code:    "QRY002",
		},
	},
	{
		pattern: "permission denied",
		msg: UserMessage{
			Message: "Not allowed to read the requested data",
			Action:  "Ask for SELECT privileges on the objects in the query",
			Code:    "QRY003",
		},
	},

	// Encoding
	{
		pattern: "unknown source encoding",
		msg: UserMessage{
			Message: "The configured source encoding is not supported",
			Action:  "Set SOURCE_ENCODING to a WHATWG label such as utf-8 or windows-1252",
			Code:    "ENC002",
		},
	},
	{
		pattern: "encoding error",
		msg: UserMessage{
			Message: "A text value could not be converted to UTF-8",
			Action:  "Check SOURCE_ENCODING matches the data source's encoding",
			Code:    "ENC001",
		},
	},

	// Sessions
	{
		pattern: "too many concurrent sessions",
		msg: UserMessage{
			Message: "The server is busy running other queries",
			Action:  "Please wait a moment and try again",
			Code:    "SES001",
		},
	},
	{
		pattern: "context canceled",
		msg: UserMessage{
			Message: "The query was cancelled",
			Action:  "Run the query again when ready",
			Code:    "SES002",
		},
	},
	{
		pattern: "context deadline exceeded",
		msg: UserMessage{
			Message: "The query took too long",
			Action:  "Narrow the query or raise SESSION_TIMEOUT",
			Code:    "SES003",
		},
	},
	{
		pattern: "timeout",
		msg: UserMessage{
			Message: "The data source did not respond in time",
			Action:  "Please try again later",
			Code:    "SES003",
		},
	},
}

// kindMessages are category defaults for classified errors with no pattern match.
var kindMessages = map[ErrorKind]UserMessage{
	KindConnectionError: {
		Message: "Could not connect to the data source",
		Action:  "Check the connection target and that the server is reachable",
		Code:    "CONN000",
	},
	KindQueryError: {
		Message: "The data source could not run the query",
		Action:  "Check the query text",
		Code:    "QRY000",
	},
	KindEncodingError: {
		Message: "A text value could not be converted to UTF-8",
		Action:  "Check SOURCE_ENCODING matches the data source's encoding",
		Code:    "ENC001",
	},
}

// defaultMessage is returned when nothing else matches (ERR000). Support
// staff should look at the logs for the original error.
var defaultMessage = UserMessage{
	Message: "An unexpected error occurred",
	Action:  "Please try again or contact support",
	Code:    "ERR000",
}

// MapError converts a technical error to a user-friendly message.
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

	var se *SessionError
	if errors.As(err, &se) {
		if msg, ok := kindMessages[se.Kind]; ok {
			return msg
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

// IsUserFacing reports whether err maps to something more specific than ERR000.
func IsUserFacing(err error) bool {
	if err == nil {
		return false
	}
	return MapError(err).Code != defaultMessage.Code
}
