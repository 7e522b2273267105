package github

import "regexp"

// loginRe matches GitHub logins: alphanumerics and single inner hyphens,
// at most 39 characters.
var loginRe = regexp.MustCompile(`^[A-Za-z0-9](?:[A-Za-z0-9]|-[A-Za-z0-9]){0,38}$`)

// ValidLogin reports whether s can be a GitHub login.
func ValidLogin(s string) bool {
	return loginRe.MatchString(s)
}
