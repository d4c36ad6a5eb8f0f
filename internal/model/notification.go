package model

import "time"

type NotificationType string

const (
	NotificationInvitationReceived NotificationType = "INVITATION_RECEIVED"
	NotificationInvitationAccepted NotificationType = "INVITATION_ACCEPTED"
	NotificationInvitationDeclined NotificationType = "INVITATION_DECLINED"
	NotificationTeamLeaderChanged  NotificationType = "TEAM_LEADER_CHANGED"
	NotificationTeamMemberRemoved  NotificationType = "TEAM_MEMBER_REMOVED"
	NotificationRequestCreated     NotificationType = "PROFESSOR_REQUEST_CREATED"
	NotificationRequestApproved    NotificationType = "PROFESSOR_REQUEST_APPROVED"
	NotificationRequestRejected    NotificationType = "PROFESSOR_REQUEST_REJECTED"
	NotificationReviewRequested    NotificationType = "REVIEW_REQUESTED"
)

type Notification struct {
	ID          string           `json:"notification_id"`
	RecipientID string           `json:"recipient_id"`
	Type        NotificationType `json:"type"`
	Title       string           `json:"title"`
	Body        string           `json:"body"`
	Payload     map[string]any   `json:"payload,omitempty"`
	IsRead      bool             `json:"is_read"`
	CreatedAt   *time.Time       `json:"created_at,omitempty"`
}
