package model

import "time"

// User represents an application user record as stored in the `users` table.
// The struct carries no json tags because it is never serialized directly;
// handlers expose only the username and issue tokens for the id.
//
// Fields:
//
//	ID           – primary key identifier of the user.
//	Username     – unique login name.
//	PasswordHash – bcrypt hashed password. Never logged, never returned.
//	CreatedAt    – timestamp of registration.
type User struct {
	ID           uint64    // users.id
	Username     string    // users.username
	PasswordHash string    // users.password_hash
	CreatedAt    time.Time // users.created_at
}
