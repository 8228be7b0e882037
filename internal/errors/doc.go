// Package errors provides structured, coded errors for the reconciler, its
// wire protocol, configuration and CLI.
//
// # Error Categories
//
//   - contract: caller errors (malformed nodes, duplicate keys, re-entrant
//     renders, depth overflow)
//   - host: a Host Binding call failed
//   - protocol: an encoded op batch could not be decoded or replayed
//   - config: configuration file problems
//   - tree: tree documents read by the CLI and server
//
// # Error Codes
//
// Each error has a code (e.g., "R003") registered with a short message, a
// detail paragraph, an optional suggestion and a documentation URL.
// Packages keep sentinel errors for errors.Is and wrap them:
//
//	return errors.New("R003").
//	    WithPath("ul[0]").
//	    Wrap(ErrDuplicateKey)
//
// Format renders the error for terminals; FormatCompact and FormatJSON
// serve logs and HTTP responses.
package errors
