// Package repository defines sentinel error values shared across the
// data access layer. Handlers rely on these to map storage failures to
// HTTP statuses: ErrUserExists becomes 409, the not-found errors become
// 404, and anything else is a 500.
package repository

import "errors"

// ErrUserExists is returned when registration collides with an
// existing username or email.
var ErrUserExists = errors.New("username or email already exists")

// ErrUserNotFound is returned when a user lookup matches no row.
var ErrUserNotFound = errors.New("user not found")

// ErrAgreementNotFound is returned when an agreement id matches no row.
var ErrAgreementNotFound = errors.New("agreement not found")
