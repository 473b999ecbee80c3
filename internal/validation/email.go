package validation

import "regexp"

// nonSpace is one character that is not whitespace in the browser's sense,
// which besides ASCII space covers \v, the Unicode space separators and the
// byte order mark.
const nonSpace = `[^\s\x0B\p{Z}\x{FEFF}]`

// emailPattern is the widget's deliberately loose shape check:
// non-space@non-space.non-space.
var emailPattern = regexp.MustCompile(`^` + nonSpace + `+@` + nonSpace + `+\.` + nonSpace + `+$`)

// IsEmail reports whether addr has the shape of an email address.
func IsEmail(addr string) bool {
	return emailPattern.MatchString(addr)
}
