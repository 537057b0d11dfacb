package core

import (
	"errors"
	"sort"
	"strings"
)

var (
	ErrUserNotFound       = errors.New("user not found")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrPGPKeyRequired     = errors.New("email forwarding requires a PGP key")
	ErrInvalidPGPKey      = errors.New("invalid PGP key format or import failed")
	ErrSMTPVerification   = errors.New("unable to validate SMTP connection settings")
	ErrProtonKeyNotFound  = errors.New("no PGP key found for the email address")
	ErrNoSMTPConfigured   = errors.New("no SMTP server configured for forwarding")
	ErrEncryptionFailed   = errors.New("failed to encrypt message with PGP key")
)

// FieldErrors maps a form field name to the messages shown beside it.
type FieldErrors map[string][]string

func (e FieldErrors) Add(field, msg string) {
	e[field] = append(e[field], msg)
}

// Get returns the messages for field, nil when there are none.
func (e FieldErrors) Get(field string) []string {
	return e[field]
}

func (e FieldErrors) Error() string {
	fields := make([]string, 0, len(e))
	for f := range e {
		fields = append(fields, f)
	}
	sort.Strings(fields)

	parts := make([]string, 0, len(fields))
	for _, f := range fields {
		parts = append(parts, f+": "+strings.Join(e[f], "; "))
	}
	return "validation failed: " + strings.Join(parts, ", ")
}

// AsFieldErrors unwraps err into FieldErrors when it carries them.
func AsFieldErrors(err error) (FieldErrors, bool) {
	var fe FieldErrors
	if errors.As(err, &fe) {
		return fe, true
	}
	return nil, false
}
