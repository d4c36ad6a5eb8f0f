package model

import (
	"fmt"
	"time"
)

type RequestStatus string

const (
	RequestStatusPending  RequestStatus = "PENDING"
	RequestStatusApproved RequestStatus = "APPROVED"
	RequestStatusRejected RequestStatus = "REJECTED"
)

func ParseRequestStatus(s string) (RequestStatus, error) {
	switch st := RequestStatus(s); st {
	case RequestStatusPending, RequestStatusApproved, RequestStatusRejected:
		return st, nil
	default:
		return "", fmt.Errorf("unknown request status %q", s)
	}
}

// RequestKind records where a professor request originated. A PRE_PROJECT request
// carries a draft title and gets its project id back-filled on approval; a
// POST_PROJECT request is bound to an existing project from the start.
type RequestKind string

const (
	RequestKindPreProject  RequestKind = "PRE_PROJECT"
	RequestKindPostProject RequestKind = "POST_PROJECT"
)

type ProfessorRequest struct {
	ID          string        `json:"request_id"`
	Kind        RequestKind   `json:"kind"`
	TeamID      string        `json:"team_id"`
	ProjectID   *string       `json:"project_id,omitempty"`
	Title       string        `json:"title"`
	RequestedBy string        `json:"requested_by"`
	ProfessorID string        `json:"professor_id"`
	Status      RequestStatus `json:"status"`
	Message     string        `json:"message,omitempty"`
	DecidedBy   *string       `json:"decided_by,omitempty"`
	DecidedAt   *time.Time    `json:"decided_at,omitempty"`
	CreatedAt   *time.Time    `json:"created_at,omitempty"`
}
