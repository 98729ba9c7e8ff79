// Package redact strips sensitive substrings from error text before it is
// logged. Backend errors routinely embed restore passwords, database DSNs and
// spool paths; none of those belong in log output.
package redact

import "regexp"

// Redaction placeholders.
const (
	RedactedCredentialPlaceholder = "[REDACTED_CREDENTIAL]"
	RedactedPathPlaceholder       = "[REDACTED_PATH]"
)

var (
	// Database connection strings with inline credentials.
	dbConnRegex = regexp.MustCompile(`(?i)(postgres|postgresql|mysql)://[^@\s]+@`)

	// Passwords passed through restore parameters or config fragments.
	passwordRegex = regexp.MustCompile(`(?i)(password|passwd|pass)([=:\s]['"]?)[^'"&\s]+`)

	// JWT tokens (three base64url segments).
	jwtTokenRegex = regexp.MustCompile(`eyJ[A-Za-z0-9_-]+\.eyJ[A-Za-z0-9_-]+\.[A-Za-z0-9_-]+`)

	// Absolute filesystem paths (spool locations, engine config paths).
	unixPathRegex = regexp.MustCompile(`(/[\w.-]+){2,}`)
)

// String redacts sensitive substrings from s.
func String(s string) string {
	s = dbConnRegex.ReplaceAllString(s, "${1}://"+RedactedCredentialPlaceholder+"@")
	s = passwordRegex.ReplaceAllString(s, "${1}${2}"+RedactedCredentialPlaceholder)
	s = jwtTokenRegex.ReplaceAllString(s, RedactedCredentialPlaceholder)
	s = unixPathRegex.ReplaceAllString(s, RedactedPathPlaceholder)
	return s
}

// Error redacts the error's message. A nil error yields an empty string.
func Error(err error) string {
	if err == nil {
		return ""
	}
	return String(err.Error())
}
