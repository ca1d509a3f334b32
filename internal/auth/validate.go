package auth

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// MinPasswordLength is enforced on signup only; the backend does not check it.
// It counts characters, not bytes.
const MinPasswordLength = 8

var emailRe = regexp.MustCompile(`\S+@\S+\.\S+`)

func IsValidEmail(email string) bool {
	return emailRe.MatchString(email)
}

func IsValidPassword(password string) bool {
	return utf8.RuneCountInString(password) >= MinPasswordLength
}

func isNotEmpty(s string) bool {
	return strings.TrimSpace(s) != ""
}
