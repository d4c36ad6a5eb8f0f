package model

import (
	"fmt"
	"time"
)

type AssignmentStatus string

const (
	AssignmentStatusPending   AssignmentStatus = "PENDING"
	AssignmentStatusOngoing   AssignmentStatus = "ONGOING"
	AssignmentStatusCompleted AssignmentStatus = "COMPLETED"
)

func ParseAssignmentStatus(s string) (AssignmentStatus, error) {
	switch st := AssignmentStatus(s); st {
	case AssignmentStatusPending, AssignmentStatusOngoing, AssignmentStatusCompleted:
		return st, nil
	default:
		return "", fmt.Errorf("unknown assignment status %q", s)
	}
}

type Assignment struct {
	ID          string           `json:"assignment_id"`
	ProjectID   string           `json:"project_id"`
	Title       string           `json:"title"`
	Description string           `json:"description,omitempty"`
	DueDate     *time.Time       `json:"due_date,omitempty"`
	Status      AssignmentStatus `json:"status"`
	CreatedAt   *time.Time       `json:"created_at,omitempty"`
}

type ReviewAction string

const (
	ReviewActionApprove ReviewAction = "APPROVE"
	ReviewActionReject  ReviewAction = "REJECT"
)

// TargetStatus is the assignment status a review action results in.
func (a ReviewAction) TargetStatus() (AssignmentStatus, bool) {
	switch a {
	case ReviewActionApprove:
		return AssignmentStatusCompleted, true
	case ReviewActionReject:
		return AssignmentStatusPending, true
	default:
		return "", false
	}
}

type BulkReviewItem struct {
	AssignmentID string `json:"assignment_id" validate:"required"`
	ProjectID    string `json:"project_id" validate:"required"`
}

type BulkReviewRequest struct {
	Action ReviewAction      `json:"action" validate:"required,oneof=APPROVE REJECT"`
	Items  []*BulkReviewItem `json:"items" validate:"required,min=1,dive,required"`
}

type BulkReviewResult struct {
	SuccessCount int      `json:"success_count"`
	FailureCount int      `json:"failure_count"`
	FailedIDs    []string `json:"failed_ids"`
}
