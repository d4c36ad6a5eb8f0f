package model

import (
	"fmt"
	"strings"
)

type Role string

const (
	RoleStudent   Role = "STUDENT"
	RoleProfessor Role = "PROFESSOR"
	RoleTA        Role = "TA"
	RoleAdmin     Role = "ADMIN"
)

func ParseRole(s string) (Role, error) {
	switch r := Role(strings.ToUpper(strings.TrimSpace(s))); r {
	case RoleStudent, RoleProfessor, RoleTA, RoleAdmin:
		return r, nil
	default:
		return "", fmt.Errorf("unknown role %q", s)
	}
}

// CanLead reports whether users of this role may hold team leadership.
func (r Role) CanLead() bool {
	return r == RoleStudent || r == RoleAdmin
}
