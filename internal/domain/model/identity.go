package model

// Identity is the caller as established by the identity provider.
type Identity struct {
	UserID string
	Email  string
}
