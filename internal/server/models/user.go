// Package models defines the server-side data types shared by the upload,
// notification and identity layers.
package models

import "time"

// User is a known account as stored by the identity layer.
type User struct {
	ID           string
	Username     string
	Name         string
	Email        string
	HomeDir      string
	Role         string
	PasswordHash []byte
	Salt         []byte
	CreatedAt    time.Time
}

// Recipient returns the read-only view of u used for notification fan-out.
func (u *User) Recipient() Recipient {
	return Recipient{
		Username: u.Username,
		Name:     u.Name,
		Email:    u.Email,
		HomeDir:  u.HomeDir,
	}
}

// Recipient is a user who may be told about new files below HomeDir.
type Recipient struct {
	Username string
	Name     string
	Email    string
	HomeDir  string
}
