package auth

import (
	"errors"
	"fmt"
)

// Sentinel error kinds (stable for errors.Is and for mapping to the HTTP
// envelope).
var (
	ErrInvalidInput = errors.New("invalid_input")

	// ErrUnauthenticated covers missing, unknown and expired tokens alike;
	// callers must not be able to distinguish whether a session ever existed.
	ErrUnauthenticated = errors.New("unauthenticated")

	// ErrInvalidCredentials is the generic login failure: wrong username and
	// wrong password are deliberately indistinguishable.
	ErrInvalidCredentials = errors.New("invalid_credentials")

	// ErrWrongPassword is returned when a credential update presents an
	// incorrect current password.
	ErrWrongPassword = errors.New("wrong_password")
)

// OpError is a typed operation error with a stable Op + Kind contract.
type OpError struct {
	Op   string
	Kind error
	Msg  string
}

func (e OpError) Error() string {
	if e.Msg == "" {
		return fmt.Sprintf("%s: %v", e.Op, e.Kind)
	}
	return fmt.Sprintf("%s: %v: %s", e.Op, e.Kind, e.Msg)
}

func (e OpError) Unwrap() error { return e.Kind }
