// Package core turns query results into delimited text.
//
// It has no knowledge of any particular database. A data source plugs in
// through three small interfaces: [Opener] opens a [Connection] from a
// descriptor, [Connection.Execute] returns a forward-only [Cursor], and the
// cursor hands back raw, dynamically typed field values.
//
// # Flow
//
//  1. [Session.Run] opens the connection and the cursor, guarding each with
//     its own [ScopedResource]
//  2. The header (column names) is rendered once
//  3. For every row, each raw value goes through [Classifier.Classify] to
//     get a [FieldValue], and [RowRenderer] writes the line
//  4. Both resources are released, cursor first, however Run exits
//
// # Output format
//
//	ID|NAME|
//	int: 1|string: Alice|
//	int: 2|string: Bob|
//
// Fields are prefixed by kind: "int: ", "float: ", "bool: " (0 or 1),
// "date: " (YYYY-MM-DD HH:MM:SS), "string: " (trimmed), and "Value: " for
// NULL and values with no dedicated rule.
//
// # Errors
//
// Failures surface as a single [*SessionError] whose kind is connection,
// query, encoding or unclassified; use errors.Is with [ErrConnection],
// [ErrQuery], [ErrEncoding] or [ErrUnclassified]. [Diagnostic] formats the
// one-line message for the error stream and [MapError] maps errors to
// user-facing messages with support codes.
package core
