package model

// User is a GitHub account identified by its login handle.
type User struct {
	Login string
}
