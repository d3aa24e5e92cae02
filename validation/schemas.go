package validation

import (
	"regexp"
	"strings"
)

// Field names shared by the forms and the request builders
const (
	FieldLogin       = "login"
	FieldUsername    = "username"
	FieldFirstName   = "firstname"
	FieldLastName    = "lastname"
	FieldEmail       = "email"
	FieldPhone       = "phone"
	FieldDateOfBirth = "dateOfBirth"
	FieldPassword    = "password"
)

// PasswordSymbols is the punctuation set a password must draw from
const PasswordSymbols = "!@#$%^&*"

var (
	emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	phonePattern = regexp.MustCompile(`^[0-9]{7,12}$`)
	datePattern  = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

	upperPattern  = regexp.MustCompile(`[A-Z]`)
	lowerPattern  = regexp.MustCompile(`[a-z]`)
	digitPattern  = regexp.MustCompile(`[0-9]`)
	symbolPattern = regexp.MustCompile(`[` + regexp.QuoteMeta(PasswordSymbols) + `]`)
)

// IsEmail reports whether value has the local@domain.tld shape
func IsEmail(value string) bool {
	return emailPattern.MatchString(value)
}

// IsPhone reports whether value is 7 to 12 digits once trimmed
func IsPhone(value string) bool {
	return phonePattern.MatchString(strings.TrimSpace(value))
}

// PasswordRules are the registration password rules. All five are
// independent: a short password with no digit reports both problems.
func PasswordRules() []Rule {
	return []Rule{
		MinLength(8, "Password should be at least 8 characters"),
		Contains(upperPattern, "Password must contain at least one uppercase letter"),
		Contains(lowerPattern, "Password must contain at least one lowercase letter"),
		Contains(digitPattern, "Password must contain at least one number"),
		Contains(symbolPattern, "Password must contain at least one special character"),
	}
}

func emailField() Field {
	return Field{Name: FieldEmail, Rules: []Rule{Matches(emailPattern, "Invalid email address")}}
}

func phoneField() Field {
	return Field{
		Name: FieldPhone,
		Trim: true,
		Rules: []Rule{
			Matches(phonePattern, "Invalid phone number format"),
			MinLength(7, "Phone number must be at least 7 digits"),
			MaxLength(12, "Phone number must be no more than 12 digits"),
		},
	}
}

// LoginSchema validates the login form: a single email-or-phone identifier
// and a non-empty password.
var LoginSchema = Schema{
	{
		Name:  FieldLogin,
		Rules: []Rule{AnyOf("Please enter a valid email address or phone number", IsEmail, IsPhone)},
	},
	{
		Name:  FieldPassword,
		Rules: []Rule{MinLength(1, "Password is required")},
	},
}

// RegisterSchema validates the username registration form
var RegisterSchema = Schema{
	{Name: FieldUsername, Rules: []Rule{MinLength(3, "User Name must be 3 or more characters long")}},
	emailField(),
	phoneField(),
	{Name: FieldPassword, Rules: PasswordRules()},
}

// ProfileRegisterSchema validates the registration form that collects first
// and last name and date of birth instead of a username. Dates are checked
// for shape only; 2024-02-30 passes.
var ProfileRegisterSchema = Schema{
	{Name: FieldFirstName, Rules: []Rule{MinLength(3, "First Name must be 3 or more characters long")}},
	{Name: FieldLastName, Rules: []Rule{MinLength(3, "Last Name must be 3 or more characters long")}},
	emailField(),
	phoneField(),
	{Name: FieldDateOfBirth, Rules: []Rule{Matches(datePattern, "Date of birth must be in YYYY-MM-DD format")}},
	{Name: FieldPassword, Rules: PasswordRules()},
}
