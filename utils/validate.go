// forum-backend/utils/validate.go
package utils

import (
	"regexp"
	"unicode"
)

var (
	emailPattern = regexp.MustCompile(`^[a-zA-Z0-9_.+-]+@[a-zA-Z0-9-]+\.[a-zA-Z0-9-.]+$`)
	loginPattern = regexp.MustCompile(`^[a-zA-Z0-9]{5,12}$`)
)

// ValidateEmail checks the address shape. Addresses starting with a dot are
// rejected before the pattern match.
func ValidateEmail(email string) bool {
	if email == "" || email[0] == '.' {
		return false
	}
	return emailPattern.MatchString(email)
}

// ValidateLoginOrNickname checks the 5-12 alphanumeric rule shared by logins
// and nicknames.
func ValidateLoginOrNickname(login string) bool {
	return loginPattern.MatchString(login)
}

// ValidatePassword requires at least 8 characters with an upper-case letter,
// a digit and a symbol.
func ValidatePassword(password string) bool {
	if len(password) < 8 {
		return false
	}
	var hasUpper, hasDigit, hasSymbol bool
	for _, ch := range password {
		switch {
		case unicode.IsUpper(ch):
			hasUpper = true
		case unicode.IsDigit(ch):
			hasDigit = true
		case !unicode.IsLetter(ch) && !unicode.IsDigit(ch):
			hasSymbol = true
		}
	}
	return hasUpper && hasDigit && hasSymbol
}
