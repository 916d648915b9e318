package domain

// User is an operator allowed to sign in to the back office.
type User struct {
	ID           string
	Email        string
	PasswordHash string
}
