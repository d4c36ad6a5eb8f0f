package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stephenafamo/bob/dialect/psql"
	"github.com/stephenafamo/bob/dialect/psql/sm"
	"github.com/yakoovad/capstone-tracker/internal/db"
	"github.com/yakoovad/capstone-tracker/internal/model"
)

type User struct {
	ID       string     `db:"id"`
	Username string     `db:"username"`
	Email    string     `db:"email"`
	Role     model.Role `db:"role"`
}

type UserRepository interface {
	Get(ctx context.Context, userID string) (*User, error)
}

type pgxUserRepository struct {
	pool *pgxpool.Pool
}

func NewPgxUserRepository(pool *pgxpool.Pool) UserRepository {
	return &pgxUserRepository{pool: pool}
}

func (p *pgxUserRepository) Get(ctx context.Context, userID string) (*User, error) {
	e := db.GetPgxExecutorFromContext(ctx, p.pool)

	q := psql.Select(
		sm.Columns("id", "username", "email", "role"),
		sm.From("users"),
		sm.Where(psql.Quote("id").EQ(psql.Arg(userID))),
	)
	sql, args, err := q.Build(ctx)
	if err != nil {
		return nil, err
	}

	u := &User{}
	if err = e.QueryRow(ctx, sql, args...).Scan(
		&u.ID,
		&u.Username,
		&u.Email,
		&u.Role,
	); err != nil {
		return nil, mapError(err)
	}
	return u, nil
}
