// Package member holds the credential and sign-up drafts composed on the
// login and signup screens, and the local checks run before any request.
package member

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Sentinel errors for local draft checks.
var (
	// ErrMissingCredentials is returned when login id or password is blank.
	ErrMissingCredentials = errors.New("login id and password are required")

	// ErrMissingField is returned when any required sign-up field is blank.
	ErrMissingField = errors.New("every field is required")

	// ErrPasswordMismatch is returned when password and its confirmation differ.
	ErrPasswordMismatch = errors.New("passwords do not match")
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// Credentials is the login form draft.
type Credentials struct {
	LoginID  string `json:"loginId"`
	Password string `json:"password"`
}

// Validate rejects blank credentials.
func (c Credentials) Validate() error {
	if strings.TrimSpace(c.LoginID) == "" || strings.TrimSpace(c.Password) == "" {
		return ErrMissingCredentials
	}
	return nil
}

// SignupDraft is the sign-up form draft. PasswordCheck never leaves the client.
type SignupDraft struct {
	LoginID       string `validate:"min=4,max=20"`
	Password      string `validate:"min=8,max=20"`
	PasswordCheck string
	Name          string
	Email         string `validate:"email"`
}

// SignupRequest is the body sent to POST /api/members/signup.
type SignupRequest struct {
	LoginID  string `json:"loginId"`
	Password string `json:"password"`
	Name     string `json:"name"`
	Email    string `json:"email"`
}

// InvalidFieldError reports a field that breaks the server's sign-up constraints.
type InvalidFieldError struct {
	Field  string
	Reason string
}

// Error returns the message shown to the user.
func (e *InvalidFieldError) Error() string {
	return fmt.Sprintf("%s %s", e.Field, e.Reason)
}

// Validate runs the checks in the order the form reports them: blank
// fields first, then the password confirmation, then format and length.
func (d SignupDraft) Validate() error {
	for _, v := range []string{d.LoginID, d.Password, d.Name, d.Email} {
		if strings.TrimSpace(v) == "" {
			return ErrMissingField
		}
	}

	if d.Password != d.PasswordCheck {
		return ErrPasswordMismatch
	}

	if err := validate.Struct(d); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
			return describeFieldError(fieldErrs[0])
		}
		return err
	}
	return nil
}

// Request converts the draft into the wire request.
func (d SignupDraft) Request() SignupRequest {
	return SignupRequest{
		LoginID:  d.LoginID,
		Password: d.Password,
		Name:     d.Name,
		Email:    d.Email,
	}
}

func describeFieldError(e validator.FieldError) *InvalidFieldError {
	field := fieldLabel(e.Field())

	switch e.Tag() {
	case "min", "max":
		lo, hi := lengthBounds(e.Field())
		return &InvalidFieldError{Field: field, Reason: fmt.Sprintf("must be %d to %d characters", lo, hi)}
	case "email":
		return &InvalidFieldError{Field: field, Reason: "is not a valid email address"}
	default:
		return &InvalidFieldError{Field: field, Reason: "is invalid"}
	}
}

func fieldLabel(name string) string {
	switch name {
	case "LoginID":
		return "login id"
	case "Password":
		return "password"
	case "Email":
		return "email"
	default:
		return strings.ToLower(name)
	}
}

func lengthBounds(name string) (int, int) {
	if name == "Password" {
		return 8, 20
	}
	return 4, 20
}
