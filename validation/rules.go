package validation

import (
	"regexp"
	"unicode/utf8"
)

// MinLength fails when value has fewer than n characters
func MinLength(n int, message string) Rule {
	return Rule{
		Message: message,
		Check: func(value string) bool {
			return utf8.RuneCountInString(value) >= n
		},
	}
}

// MaxLength fails when value has more than n characters
func MaxLength(n int, message string) Rule {
	return Rule{
		Message: message,
		Check: func(value string) bool {
			return utf8.RuneCountInString(value) <= n
		},
	}
}

// Matches fails unless the whole value matches re
func Matches(re *regexp.Regexp, message string) Rule {
	whole := regexp.MustCompile(`^(?:` + re.String() + `)$`)
	return Rule{
		Message: message,
		Check:   whole.MatchString,
	}
}

// Contains fails unless re matches somewhere in value
func Contains(re *regexp.Regexp, message string) Rule {
	return Rule{
		Message: message,
		Check:   re.MatchString,
	}
}

// AnyOf passes when at least one check passes
func AnyOf(message string, checks ...func(string) bool) Rule {
	return Rule{
		Message: message,
		Check: func(value string) bool {
			for _, check := range checks {
				if check(value) {
					return true
				}
			}
			return false
		},
	}
}
