package service

import (
	"context"

	"github.com/pkg/errors"
	"github.com/yakoovad/capstone-tracker/internal/model"
	"github.com/yakoovad/capstone-tracker/internal/repository"
	"github.com/yakoovad/capstone-tracker/pkg/logger"
	"go.uber.org/zap"
)

type NotificationService struct {
	notifications repository.NotificationRepository
}

func NewNotificationService() *NotificationService {
	return &NotificationService{}
}

func (n *NotificationService) List(ctx context.Context, userID string, unreadOnly bool) ([]*model.Notification, *Error) {
	rows, err := n.notifications.ListByRecipient(ctx, userID, unreadOnly)
	if err != nil {
		logger.FromContext(ctx).Error("failed to list notifications", zap.String("user_id", userID), zap.Error(err))
		return nil, NewError(ErrorCodeUnspecified, "failed to list notifications")
	}

	res := make([]*model.Notification, 0, len(rows))
	for _, row := range rows {
		res = append(res, &model.Notification{
			ID:          row.ID,
			RecipientID: row.RecipientID,
			Type:        row.Type,
			Title:       row.Title,
			Body:        row.Body,
			Payload:     row.Payload,
			IsRead:      row.IsRead,
			CreatedAt:   row.CreatedAt,
		})
	}
	return res, nil
}

// MarkRead flips the read flag. Notifications of other users are reported as missing.
func (n *NotificationService) MarkRead(ctx context.Context, notificationID, userID string) *Error {
	err := n.notifications.MarkRead(ctx, notificationID, userID)
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return NewError(ErrorCodeNotFound, "notification not found")
	case err != nil:
		logger.FromContext(ctx).Error("failed to mark notification read", zap.String("notification_id", notificationID), zap.Error(err))
		return NewError(ErrorCodeUnspecified, "failed to mark notification read")
	}
	return nil
}

func (n *NotificationService) WithNotificationRepo(r repository.NotificationRepository) *NotificationService {
	n.notifications = r
	return n
}
