// Package lexer defines the input cursor, positions and error formatting used by blockconf.
//
// The parser works directly on characters rather than on a token stream, so the primary type
// here is Cursor, a cheap-to-copy offset into an immutable input buffer. Offsets are converted
// to line and column only when an error is reported, via a PositionCache built once per parse.
package lexer
