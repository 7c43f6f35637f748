package domain

import "time"

// User is a registered storefront customer.
type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	FullName     string    `json:"full_name"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}

// Identity is the signed-in user a request acts for. A nil *Identity means
// the request is anonymous.
type Identity struct {
	UserID   string `json:"user_id"`
	Email    string `json:"email"`
	FullName string `json:"full_name,omitempty"`
}

// IdentityOf returns the Identity for u.
func IdentityOf(u *User) *Identity {
	return &Identity{UserID: u.ID, Email: u.Email, FullName: u.FullName}
}
