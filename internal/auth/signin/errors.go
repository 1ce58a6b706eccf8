package signin

import "errors"

// User-facing messages. They are shown verbatim on the login page.
const (
	MsgMissingCredentials = "Email and password are required"
	MsgInvalidCredentials = "Invalid login credentials"
	MsgLocked             = "Too many failed login attempts. Please try again later."
	MsgInternal           = "An error occurred during login"
)

// Error is a sign-in failure carrying the message to show the user.
type Error struct {
	Code    string
	Message string
	Err     error
}

func (e *Error) Error() string { return e.Message }

func (e *Error) Unwrap() error { return e.Err }

// Message returns the user-facing text for err.
func Message(err error) string {
	var se *Error
	if errors.As(err, &se) {
		return se.Message
	}
	return MsgInternal
}
