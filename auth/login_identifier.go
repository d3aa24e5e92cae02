package auth

import "strings"

// IdentifierKind says which credential a login identifier carries
type IdentifierKind string

const (
	IdentifierEmail IdentifierKind = "email"
	IdentifierPhone IdentifierKind = "phone"
)

// LoginIdentifier is the classified login input. The zero value is invalid;
// build one with ClassifyLogin.
type LoginIdentifier struct {
	kind  IdentifierKind
	value string
}

// ClassifyLogin maps an already validated login input to an email or phone
// identifier. It is a textual heuristic: anything containing "@" is an
// email, everything else a phone number.
func ClassifyLogin(raw string) LoginIdentifier {
	value := strings.TrimSpace(raw)
	if strings.Contains(value, "@") {
		return LoginIdentifier{kind: IdentifierEmail, value: value}
	}
	return LoginIdentifier{kind: IdentifierPhone, value: value}
}

func (id LoginIdentifier) Kind() IdentifierKind { return id.kind }

func (id LoginIdentifier) Value() string { return id.value }

func (id LoginIdentifier) IsZero() bool { return id.kind == "" }

func (id LoginIdentifier) String() string {
	return string(id.kind) + ":" + id.value
}

// LoginRequest is the POST /auth/login body: exactly one of Email or Phone
type LoginRequest struct {
	Email    string `json:"email,omitempty"`
	Phone    string `json:"phone,omitempty"`
	Password string `json:"password"`
}

// Request builds the login body for this identifier
func (id LoginIdentifier) Request(password string) LoginRequest {
	req := LoginRequest{Password: password}
	switch id.kind {
	case IdentifierEmail:
		req.Email = id.value
	case IdentifierPhone:
		req.Phone = id.value
	}
	return req
}
