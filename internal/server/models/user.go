package models

import "time"

// User is an account in the directory. The ID is a UUID assigned by the
// database.
type User struct {
	ID           string
	Name         string
	Email        string
	PasswordHash string
	CreatedAt    time.Time
}
