package handler

// Error codes carried on /auth/error?error=.
const (
	errConfiguration = "Configuration"
	errAccessDenied  = "AccessDenied"
	errVerification  = "Verification"
	errCallback      = "OAuthCallback"
	errNotLinked     = "OAuthAccountNotLinked"
)

var errorMessages = map[string]string{
	errConfiguration: "There is a problem with the server configuration.",
	errAccessDenied:  "Access denied. You do not have permission to sign in.",
	errVerification:  "The verification token has expired or has already been used.",
	errNotLinked:     "This email is already associated with another account.",
}

func errorMessage(code string) string {
	if code == "" {
		return "Something went wrong during sign in."
	}
	if msg, ok := errorMessages[code]; ok {
		return msg
	}
	return "An unexpected error occurred during authentication."
}
