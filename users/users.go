package users

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// DateLayout is the wire and form format of calendar dates (YYYY-MM-DD).
const DateLayout = "2006-01-02"

// User is the identity snapshot the auth API returns with every token pair.
// It is replaced wholesale on each successful auth response, never patched.
type User struct {
	ID          string    `json:"id"`          // Unique identifier for the user
	Email       string    `json:"email"`       // User's email address
	FirstName   string    `json:"firstname"`   // First name of the user
	LastName    string    `json:"lastname"`    // Last name of the user
	Phone       string    `json:"phone"`       // Digits only
	DateOfBirth Timestamp `json:"dateOfBirth"` // Date of birth
	LastLoginAt Timestamp `json:"lastLoginAt"` // Last time the user logged in
}

// DisplayName prefers the full name and falls back to the email address
func (u User) DisplayName() string {
	fullName := strings.TrimSpace(u.FirstName + " " + u.LastName)
	if fullName != "" {
		return fullName
	}
	return u.Email
}

// Timestamp is a time.Time that accepts both RFC 3339 timestamps and bare
// YYYY-MM-DD dates, and null or "" as the zero time.
type Timestamp struct {
	time.Time
}

func (t *Timestamp) UnmarshalJSON(data []byte) error {
	if bytes.Equal(data, []byte("null")) {
		t.Time = time.Time{}
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("[Timestamp UnmarshalJSON] %w", err)
	}
	parsed, err := ParseTimestamp(s)
	if err != nil {
		return err
	}
	t.Time = parsed
	return nil
}

func (t Timestamp) MarshalJSON() ([]byte, error) {
	if t.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(t.Format(time.RFC3339))
}

// Date renders the calendar date, or "" for the zero time
func (t Timestamp) Date() string {
	if t.IsZero() {
		return ""
	}
	return t.Format(DateLayout)
}

// ParseTimestamp parses RFC 3339 (with or without fractional seconds) or YYYY-MM-DD.
func ParseTimestamp(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, nil
	}
	for _, layout := range []string{time.RFC3339Nano, DateLayout} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid timestamp %q", s)
}
