package models

// Credentials are sent to /signup and /login.
type Credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}
