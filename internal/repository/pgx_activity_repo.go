package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stephenafamo/bob/dialect/psql"
	"github.com/stephenafamo/bob/dialect/psql/im"
	"github.com/yakoovad/capstone-tracker/internal/db"
)

type Activity struct {
	ID        string     `db:"id"`
	ProjectID string     `db:"project_id"`
	ActorID   string     `db:"actor_id"`
	Action    string     `db:"action"`
	Detail    string     `db:"detail"`
	CreatedAt *time.Time `db:"created_at"`
}

// ActivityRepository is the append-only project audit log.
type ActivityRepository interface {
	Append(ctx context.Context, a *Activity) error
}

type pgxActivityRepository struct {
	pool *pgxpool.Pool
}

func NewPgxActivityRepository(pool *pgxpool.Pool) ActivityRepository {
	return &pgxActivityRepository{pool: pool}
}

func (p *pgxActivityRepository) Append(ctx context.Context, a *Activity) error {
	e := db.GetPgxExecutorFromContext(ctx, p.pool)

	q := psql.Insert(
		im.Into("project_activity", "project_id", "actor_id", "action", "detail"),
		im.Values(psql.Arg(a.ProjectID), psql.Arg(a.ActorID), psql.Arg(a.Action), psql.Arg(a.Detail)),
		im.Returning("id", "created_at"),
	)

	sql, args, err := q.Build(ctx)
	if err != nil {
		return err
	}

	return mapError(e.QueryRow(ctx, sql, args...).Scan(&a.ID, &a.CreatedAt))
}
