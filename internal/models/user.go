package models

import "time"

type Role string

const (
	RoleAdmin  Role = "admin"
	RoleClient Role = "client"
)

type User struct {
	ID             int64     `json:"id" example:"1"`
	Username       string    `json:"username" example:"adam"`
	HashedPassword string    `json:"-"`
	Role           Role      `json:"role" example:"client"`
	IsActive       bool      `json:"is_active"`
	AccountID      *int64    `json:"account_id,omitempty" example:"1"`
	CreatedAt      time.Time `json:"created_at"`
}

// Principal is the authenticated identity behind a request. Only clients
// carry an AccountID.
type Principal struct {
	UserID    int64  `json:"user_id"`
	Username  string `json:"username"`
	Role      Role   `json:"role"`
	AccountID *int64 `json:"account_id,omitempty"`
}

func (p *Principal) IsAdmin() bool {
	return p != nil && p.Role == RoleAdmin
}

// PrincipalFor builds the principal of a stored user.
func PrincipalFor(u *User) *Principal {
	return &Principal{
		UserID:    u.ID,
		Username:  u.Username,
		Role:      u.Role,
		AccountID: u.AccountID,
	}
}
