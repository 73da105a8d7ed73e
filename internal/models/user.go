package models

import "time"

// User represents an account known to maple-server. Authentication happens
// in the external identity service; maple only stores the identity and the
// profile details the contribution-room engine needs.
type User struct {
	UserID    string    `json:"user_id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// SystemKeyValue is a system-scoped configuration entry.
type SystemKeyValue struct {
	Key       string    `json:"key"`
	Value     string    `json:"value"`
	UpdatedAt time.Time `json:"updated_at"`
}
