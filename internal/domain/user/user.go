package user

import (
	"errors"
	"time"
)

var (
	ErrNotFound      = errors.New("user not found")
	ErrUsernameTaken = errors.New("username already exists")
	ErrEmailTaken    = errors.New("email already exists")
)

type User struct {
	ID           int64     `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"` // never expose hash in JSON
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// CreateUserRequest doubles as the full replacement payload for PUT /users/:id.
type CreateUserRequest struct {
	Username string `json:"username" binding:"required,min=1,max=64"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// Changes is what a store writes on update. The hash is computed by the caller.
type Changes struct {
	Username     string
	Email        string
	PasswordHash string
}

type ListFilter struct {
	Limit  int `form:"limit,default=10" binding:"min=0,max=100"`
	Offset int `form:"offset,default=0" binding:"min=0"`
}
