package core

import (
	"errors"
	"regexp"
)

// ErrNotFound is a sentinel error for "not found" cases
var ErrNotFound = errors.New("not found")

// ErrBadCredentials means the provider rejected the access token.
// The stored token must be discarded and the user has to authorize again.
var ErrBadCredentials = errors.New("bad credentials")

// ErrAuthorizationTimeout means the relay never handed out a token within the polling bound
var ErrAuthorizationTimeout = errors.New("authorization timed out")

// ErrNotReady is returned when an operation needs a token, an installed app or a selected repo
var ErrNotReady = errors.New("github export is not ready")

var badCredentialsPattern = regexp.MustCompile(`(?i)bad credentials`)

// IsBadCredentialsError checks if an error is a credential rejection.
// Errors produced by the github client wrap ErrBadCredentials; the message match
// covers errors that only carry the provider's text.
func IsBadCredentialsError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrBadCredentials) {
		return true
	}
	return badCredentialsPattern.MatchString(err.Error())
}

// IsNotFoundError checks if an error is a "not found" error
func IsNotFoundError(err error) bool {
	if err == nil {
		return false
	}
	return errors.Is(err, ErrNotFound)
}
