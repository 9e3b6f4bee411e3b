package utils

import (
	"regexp"
	"unicode"
)

var (
	usernameRegex = regexp.MustCompile(`^[\w.@+\-]{1,150}$`)
	slugRegex     = regexp.MustCompile(`^[-a-zA-Z0-9_]{1,191}$`)
)

// IsValidUsername accepts letters, digits and @/./+/-/_ up to 150 characters.
func IsValidUsername(username string) bool {
	return usernameRegex.MatchString(username)
}

func IsValidSlug(slug string) bool {
	return slugRegex.MatchString(slug)
}

func IsValidPassword(password string) bool {
	if len(password) < 8 {
		return false
	}

	var (
		hasUpper   = false
		hasLower   = false
		hasNumber  = false
		hasSpecial = false
	)

	for _, char := range password {
		switch {
		case unicode.IsUpper(char):
			hasUpper = true
		case unicode.IsLower(char):
			hasLower = true
		case unicode.IsNumber(char):
			hasNumber = true
		case unicode.IsPunct(char) || unicode.IsSymbol(char):
			hasSpecial = true
		}
	}

	// At least 3 of 4 character types required
	count := 0
	if hasUpper {
		count++
	}
	if hasLower {
		count++
	}
	if hasNumber {
		count++
	}
	if hasSpecial {
		count++
	}

	return count >= 3
}
