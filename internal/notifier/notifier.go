// Package notifier delivers workflow notifications to users. Delivery is best
// effort from the workflows' point of view: callers log failures and move on.
package notifier

import (
	"context"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/yakoovad/capstone-tracker/internal/model"
	"github.com/yakoovad/capstone-tracker/internal/repository"
)

type Notifier interface {
	Notify(ctx context.Context, n *model.Notification) error
}

// Store persists notifications so they can be listed and marked read later.
type Store struct {
	notifications repository.NotificationRepository
}

func NewStore(r repository.NotificationRepository) *Store {
	return &Store{notifications: r}
}

// Notify assigns n.ID when empty and writes the notification.
func (s *Store) Notify(ctx context.Context, n *model.Notification) error {
	if n.ID == "" {
		n.ID = uuid.NewString()
	}

	row := &repository.Notification{
		ID:          n.ID,
		RecipientID: n.RecipientID,
		Type:        n.Type,
		Title:       n.Title,
		Body:        n.Body,
		Payload:     n.Payload,
	}
	if err := s.notifications.Create(ctx, row); err != nil {
		return errors.Wrapf(err, "store notification for %s", n.RecipientID)
	}
	n.CreatedAt = row.CreatedAt
	return nil
}

// Fanout delivers to every notifier in order. All notifiers are attempted; the
// first error is returned.
type Fanout []Notifier

func (f Fanout) Notify(ctx context.Context, n *model.Notification) error {
	var first error
	for _, target := range f {
		if err := target.Notify(ctx, n); err != nil && first == nil {
			first = err
		}
	}
	return first
}
