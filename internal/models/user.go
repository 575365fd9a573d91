package models

import (
	"github.com/google/uuid"
)

// User is a registered account as it is kept in storage.
//
// Password holds the bcrypt hash of the user's password, never the plain text.
// It is dropped from everything that leaves the service, see Public.
type User struct {
	UserID    uuid.UUID `json:"user_id"`
	Email     string    `json:"email"`
	FirstName string    `json:"first_name"`
	LastName  string    `json:"last_name"`
	BirthDate *Date     `json:"birth_date"`
	Password  string    `json:"password,omitempty"`
}

// Public returns a copy of the user without the password hash.
func (u User) Public() User {
	u.Password = ""
	if u.BirthDate != nil {
		birthDate := *u.BirthDate
		u.BirthDate = &birthDate
	}

	return u
}

// SignupRequest is the body of POST /signup.
type SignupRequest struct {
	UserID    string `json:"user_id" validate:"omitempty,uuid"`
	Email     string `json:"email" validate:"required,email"`
	FirstName string `json:"first_name" validate:"required,min=1,max=50"`
	LastName  string `json:"last_name" validate:"required,min=1,max=50"`
	BirthDate string `json:"birth_date" validate:"omitempty,isodate"`
	Password  string `json:"password" validate:"required,min=8,max=64"`
}

// UpdateUserRequest is the body of PUT /users/{user_id}/update.
//
// A non-empty UserID reassigns the user's identifier. An empty Password keeps
// the stored one.
type UpdateUserRequest struct {
	UserID    string `json:"user_id" validate:"omitempty,uuid"`
	Email     string `json:"email" validate:"required,email"`
	FirstName string `json:"first_name" validate:"required,min=1,max=50"`
	LastName  string `json:"last_name" validate:"required,min=1,max=50"`
	BirthDate string `json:"birth_date" validate:"omitempty,isodate"`
	Password  string `json:"password" validate:"omitempty,min=8,max=64"`
}

// LoginRequest carries the form-encoded credentials of POST /login.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// LoginResult is the outcome of an authentication attempt. A failed login is
// a regular result, not an error.
type LoginResult struct {
	Success bool   `json:"success"`
	Email   string `json:"email"`
	Message string `json:"message"`
	Token   string `json:"token,omitempty"`
}

func parseOptionalDate(value string) (*Date, error) {
	if value == "" {
		return nil, nil
	}
	date, err := ParseDate(value)
	if err != nil {
		return nil, err
	}

	return &date, nil
}

func parseOptionalUUID(value string) (uuid.UUID, error) {
	if value == "" {
		return uuid.Nil, nil
	}

	return uuid.Parse(value)
}

// ToUser maps a validated signup request onto a User. A zero UserID in the
// result means the caller did not supply one. Password is still plain text.
func (r SignupRequest) ToUser() (User, error) {
	userID, err := parseOptionalUUID(r.UserID)
	if err != nil {
		return User{}, err
	}
	birthDate, err := parseOptionalDate(r.BirthDate)
	if err != nil {
		return User{}, err
	}

	return User{
		UserID:    userID,
		Email:     r.Email,
		FirstName: r.FirstName,
		LastName:  r.LastName,
		BirthDate: birthDate,
		Password:  r.Password,
	}, nil
}

// ToUser maps a validated update request onto a User. A zero UserID means
// "keep the current identifier", an empty Password means "keep the current hash".
func (r UpdateUserRequest) ToUser() (User, error) {
	return SignupRequest(r).ToUser()
}
