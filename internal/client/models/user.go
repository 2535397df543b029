package models

import "time"

// Registration is the sign-up form.
type Registration struct {
	FullName    string `json:"fullname"`
	Email       string `json:"email"`
	Phone       string `json:"phone"`
	DateOfBirth string `json:"dateOfBirth"`
	Gender      string `json:"gender"`
	Password    string `json:"password"`
}

// User is the profile returned by the server.
type User struct {
	ID          string    `json:"_id"`
	FullName    string    `json:"fullname"`
	Email       string    `json:"email"`
	Phone       string    `json:"phone"`
	DateOfBirth time.Time `json:"dateOfBirth"`
	Gender      string    `json:"gender"`
	CreatedAt   time.Time `json:"createdAt"`
}

// Session is the result of a successful login.
type Session struct {
	Token string `json:"token"`
	User  struct {
		ID       string `json:"id"`
		FullName string `json:"fullname"`
		Email    string `json:"email"`
	} `json:"user"`
}
