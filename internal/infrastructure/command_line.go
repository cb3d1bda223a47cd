package infrastructure

import "strings"

// shellSpecialChars are the characters that force quoting when a command line is displayed
const shellSpecialChars = " \t\n\r'\"$`\\!*?[](){}|;<>&~#%"

// QuoteArg quotes one argument for display in a POSIX shell command line.
// exec.Command never needs it; it only keeps logged commands copy-pasteable.
func QuoteArg(s string) string {
	if s == "" {
		return "''"
	}
	if !strings.ContainsAny(s, shellSpecialChars) {
		return s
	}
	// close the quote, emit a double-quoted ', reopen
	return "'" + strings.ReplaceAll(s, "'", `'"'"'`) + "'"
}

// FormatCommandLine renders binary and args as a single shell-safe line for logs
func FormatCommandLine(binary string, args ...string) string {
	parts := make([]string, 0, len(args)+1)
	parts = append(parts, QuoteArg(binary))
	for _, arg := range args {
		parts = append(parts, QuoteArg(arg))
	}
	return strings.Join(parts, " ")
}
