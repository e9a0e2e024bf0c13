// Package user holds the staff accounts that guard the warehouse paths, in
// particular stock adjustments. Customer authentication is an external
// collaborator and never reaches this service.
package user

import "time"

type CreateUserRequest struct {
	Username          string `json:"username,omitempty"`
	IsAdmin           bool   `json:"isAdmin,omitempty"`
	PlainTextPassword string `json:"-"`
}

type User struct {
	Username       string    `json:"username"`
	HashedPassword string    `json:"-"`
	IsAdmin        bool      `json:"isAdmin"`
	Created        time.Time `json:"created"`
}
