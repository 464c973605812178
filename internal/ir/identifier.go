package ir

import "regexp"

var identifierPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// ValidIdentifier reports whether name can be emitted as a bare SQL
// identifier. Dialects do not quote identifiers, so anything outside this
// pattern is rejected before compilation.
func ValidIdentifier(name string) bool {
	return identifierPattern.MatchString(name)
}
