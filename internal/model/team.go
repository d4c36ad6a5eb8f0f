package model

import "time"

type TeamRole string

const (
	TeamRoleLeader TeamRole = "LEADER"
	TeamRoleMember TeamRole = "MEMBER"
)

type Team struct {
	ID          string        `json:"team_id"`
	Name        string        `json:"team_name"`
	Description string        `json:"description"`
	CreatedAt   *time.Time    `json:"created_at,omitempty"`
	Members     []*TeamMember `json:"members"`
}

type TeamMember struct {
	UserID   string   `json:"user_id"`
	Username string   `json:"username"`
	Role     Role     `json:"role"`
	TeamRole TeamRole `json:"team_role"`
}
