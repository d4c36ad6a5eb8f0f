package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stephenafamo/bob/dialect/psql"
	"github.com/stephenafamo/bob/dialect/psql/im"
	"github.com/stephenafamo/bob/dialect/psql/sm"
	"github.com/stephenafamo/bob/dialect/psql/um"
	"github.com/yakoovad/capstone-tracker/internal/db"
	"github.com/yakoovad/capstone-tracker/internal/model"
)

type Notification struct {
	ID          string                 `db:"id"`
	RecipientID string                 `db:"recipient_id"`
	Type        model.NotificationType `db:"type"`
	Title       string                 `db:"title"`
	Body        string                 `db:"body"`
	Payload     map[string]any         `db:"payload"`
	IsRead      bool                   `db:"is_read"`
	CreatedAt   *time.Time             `db:"created_at"`
}

type NotificationRepository interface {
	Create(ctx context.Context, n *Notification) error
	ListByRecipient(ctx context.Context, recipientID string, unreadOnly bool) ([]*Notification, error)
	MarkRead(ctx context.Context, notificationID, recipientID string) error
}

type pgxNotificationRepository struct {
	pool *pgxpool.Pool
}

func NewPgxNotificationRepository(pool *pgxpool.Pool) NotificationRepository {
	return &pgxNotificationRepository{pool: pool}
}

// Create Insert a notification with a caller supplied id and set n.CreatedAt
func (p *pgxNotificationRepository) Create(ctx context.Context, n *Notification) error {
	e := db.GetPgxExecutorFromContext(ctx, p.pool)

	payload := n.Payload
	if payload == nil {
		payload = map[string]any{}
	}

	q := psql.Insert(
		im.Into("notification", "id", "recipient_id", "type", "title", "body", "payload"),
		im.Values(
			psql.Arg(n.ID),
			psql.Arg(n.RecipientID),
			psql.Arg(n.Type),
			psql.Arg(n.Title),
			psql.Arg(n.Body),
			psql.Arg(payload),
		),
		im.Returning("created_at"),
	)

	sql, args, err := q.Build(ctx)
	if err != nil {
		return err
	}

	return mapError(e.QueryRow(ctx, sql, args...).Scan(&n.CreatedAt))
}

func (p *pgxNotificationRepository) ListByRecipient(ctx context.Context, recipientID string, unreadOnly bool) ([]*Notification, error) {
	e := db.GetPgxExecutorFromContext(ctx, p.pool)

	where := psql.Quote("recipient_id").EQ(psql.Arg(recipientID))
	if unreadOnly {
		where = where.And(psql.Quote("is_read").EQ(psql.Arg(false)))
	}

	q := psql.Select(
		sm.Columns("id", "recipient_id", "type", "title", "body", "payload", "is_read", "created_at"),
		sm.From("notification"),
		sm.Where(where),
		sm.OrderBy(psql.Quote("created_at")).Desc(),
	)

	sql, args, err := q.Build(ctx)
	if err != nil {
		return nil, err
	}

	rows, err := e.Query(ctx, sql, args...)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	list, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (*Notification, error) {
		n := &Notification{}
		if err = row.Scan(&n.ID, &n.RecipientID, &n.Type, &n.Title, &n.Body, &n.Payload, &n.IsRead, &n.CreatedAt); err != nil {
			return nil, err
		}
		return n, nil
	})
	if err != nil {
		return nil, mapError(err)
	}
	return list, nil
}

// MarkRead only touches notifications owned by recipientID.
func (p *pgxNotificationRepository) MarkRead(ctx context.Context, notificationID, recipientID string) error {
	e := db.GetPgxExecutorFromContext(ctx, p.pool)

	q := psql.Update(
		um.Table("notification"),
		um.SetCol("is_read").ToArg(true),
		um.Where(
			psql.Quote("id").EQ(psql.Arg(notificationID)).
				And(psql.Quote("recipient_id").EQ(psql.Arg(recipientID))),
		),
	)

	sql, args, err := q.Build(ctx)
	if err != nil {
		return err
	}

	tag, err := e.Exec(ctx, sql, args...)
	if err != nil {
		return mapError(err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
