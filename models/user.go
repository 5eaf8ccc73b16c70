package models

import "time"

// Role constants for user authorization.
const (
	RoleAdmin = "admin"
	RoleUser  = "user"
)

var ValidRoles = []string{RoleAdmin, RoleUser}

type User struct {
	ID        int64     `bson:"_id" json:"id"`
	Name      string    `bson:"name" json:"name"`
	Email     string    `bson:"email" json:"email"`
	Password  string    `bson:"password" json:"-"` // bcrypt hash
	Role      string    `bson:"role" json:"role"`  // admin or user
	CreatedAt time.Time `bson:"createdAt" json:"createdAt"`
}

func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}
