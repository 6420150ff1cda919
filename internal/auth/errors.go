package auth

import (
	"errors"
	"fmt"
)

var (
	ErrNoCredentials     = errors.New("no credentials configured")
	ErrNoRefreshToken    = errors.New("no refresh token stored")
	ErrUnexpectedStatus  = errors.New("unexpected response status")
	ErrMalformedResponse = errors.New("malformed token response")
)

// AuthRefreshError reports that no new access token could be obtained.
type AuthRefreshError struct {
	Err error
}

func (e *AuthRefreshError) Error() string {
	return fmt.Sprintf("failed to refresh access token: %v", e.Err)
}

func (e *AuthRefreshError) Unwrap() error {
	return e.Err
}
