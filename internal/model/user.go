package model

import "time"

// User represents an account record as stored in the `users` table.
// Identifiers are opaque UUID strings assigned at registration; the
// email is always stored lower-cased so uniqueness is case-insensitive.
// The password is kept only as a bcrypt hash.
//
// Fields:
//  ID           – UUID primary key of the user.
//  Username     – unique handle, used to address party2 in the wizard.
//  Email        – unique lower-cased email address.
//  PasswordHash – bcrypt hashed password.
//  CreatedAt    – timestamp of registration.
type User struct {
	ID           string    // users.id
	Username     string    // users.username
	Email        string    // users.email
	PasswordHash string    // users.password_hash
	CreatedAt    time.Time // users.created_at
}
