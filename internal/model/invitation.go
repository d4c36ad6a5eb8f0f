package model

import (
	"fmt"
	"time"
)

type InvitationStatus string

const (
	InvitationStatusPending  InvitationStatus = "PENDING"
	InvitationStatusAccepted InvitationStatus = "ACCEPTED"
	InvitationStatusDeclined InvitationStatus = "DECLINED"
)

func ParseInvitationStatus(s string) (InvitationStatus, error) {
	switch st := InvitationStatus(s); st {
	case InvitationStatusPending, InvitationStatusAccepted, InvitationStatusDeclined:
		return st, nil
	default:
		return "", fmt.Errorf("unknown invitation status %q", s)
	}
}

type Invitation struct {
	ID        string           `json:"invitation_id"`
	TeamID    string           `json:"team_id"`
	TeamName  string           `json:"team_name"`
	InviterID string           `json:"inviter_id"`
	InviteeID string           `json:"invitee_id"`
	Status    InvitationStatus `json:"status"`
	Message   string           `json:"message,omitempty"`
	CreatedAt *time.Time       `json:"created_at,omitempty"`
	DecidedAt *time.Time       `json:"decided_at,omitempty"`
}
