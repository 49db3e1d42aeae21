package users

import "time"

type Role string

const (
	RoleStaff Role = "staff"
	RoleAdmin Role = "admin"
)

type User struct {
	ID        int64
	Login     string
	FullName  string
	Role      Role
	CreatedAt time.Time
}

// DisplayName — полное имя, иначе логин.
func (u *User) DisplayName() string {
	if u.FullName != "" {
		return u.FullName
	}
	return u.Login
}

// Privileged — право заводить позиции каталога.
func (u *User) Privileged() bool { return u.Role == RoleAdmin }
