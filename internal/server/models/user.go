// Package models defines server-side data models persisted in the database.
package models

import "time"

// User is a registered account. PasswordHash is never serialized.
type User struct {
	ID           string    `json:"_id"`
	FullName     string    `json:"fullname"`
	Email        string    `json:"email"`
	Phone        string    `json:"phone"`
	DateOfBirth  time.Time `json:"dateOfBirth"`
	Gender       string    `json:"gender"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}
