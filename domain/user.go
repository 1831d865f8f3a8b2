package domain

import "time"

// Role names known to the platform. Roles are flat; there is no hierarchy.
const (
	RoleUser  = "USER"
	RoleAdmin = "ADMIN"
)

// User is an account in the shop. Accounts are created disabled and become
// enabled only after the activation code sent by email is consumed.
type User struct {
	ID        int64     `json:"id"`
	Firstname string    `json:"firstname"`
	Lastname  string    `json:"lastname"`
	Email     string    `json:"email"`
	Password  string    `json:"-"`
	Enabled   bool      `json:"enabled"`
	Roles     []string  `json:"roles"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (u *User) FullName() string {
	return u.Firstname + " " + u.Lastname
}

func (u *User) HasRole(name string) bool {
	if u == nil {
		return false
	}
	for _, r := range u.Roles {
		if r == name {
			return true
		}
	}
	return false
}

// NewUser builds a registration-time user: disabled, default USER role.
// The password must already be hashed by the caller.
func NewUser(firstname, lastname, email, hashedPassword string) *User {
	return &User{
		Firstname: firstname,
		Lastname:  lastname,
		Email:     email,
		Password:  hashedPassword,
		Enabled:   false,
		Roles:     []string{RoleUser},
	}
}
