package lexer

// FormatError formats an error in the form "[<filename>:]<line>:<column>: <message>".
func FormatError(pos Position, message string) string {
	return pos.String() + ": " + message
}
