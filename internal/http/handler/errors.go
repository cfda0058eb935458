package handler

// Error codes surfaced to API consumers. Expired/used/not-found are
// deliberately distinct so the login page can tell the user what to do
// next (request a fresh link vs. you are already signed in).
const (
	errInternalServer = "internal_error"
	errMalformedToken = "malformed_token"
	errInvalidToken   = "invalid_token"
	errExpiredToken   = "expired_token"
	errUsedToken      = "used_token"
)
