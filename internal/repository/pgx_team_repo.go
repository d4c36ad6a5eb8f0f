package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stephenafamo/bob/dialect/psql"
	"github.com/stephenafamo/bob/dialect/psql/dm"
	"github.com/stephenafamo/bob/dialect/psql/im"
	"github.com/stephenafamo/bob/dialect/psql/sm"
	"github.com/stephenafamo/bob/dialect/psql/um"
	"github.com/yakoovad/capstone-tracker/internal/db"
	"github.com/yakoovad/capstone-tracker/internal/model"
)

type Team struct {
	ID          string     `db:"id"`
	Name        string     `db:"name"`
	Description string     `db:"description"`
	CreatedAt   *time.Time `db:"created_at"`
}

// Member is a team membership joined with the member's user row.
type Member struct {
	TeamID   string         `db:"team_id"`
	UserID   string         `db:"user_id"`
	Username string         `db:"username"`
	UserRole model.Role     `db:"users.role"`
	TeamRole model.TeamRole `db:"role"`
}

var memberColumns = []any{
	"team_membership.team_id",
	"team_membership.user_id",
	"users.username",
	"users.role",
	"team_membership.role",
}

type TeamRepository interface {
	Create(ctx context.Context, team *Team) error
	Get(ctx context.Context, teamID string) (*Team, error)
	// Lock takes an exclusive lock on the team row for the rest of the transaction.
	Lock(ctx context.Context, teamID string) error
	Delete(ctx context.Context, teamID string) error

	GetMembers(ctx context.Context, teamID string) ([]*Member, error)
	GetMember(ctx context.Context, teamID, userID string) (*Member, error)
	AddMember(ctx context.Context, teamID, userID string, role model.TeamRole) error
	SetMemberRole(ctx context.Context, teamID, userID string, role model.TeamRole) error
	RemoveMember(ctx context.Context, teamID, userID string) error
	RemoveAllMembers(ctx context.Context, teamID string) error
}

type pgxTeamRepository struct {
	pool *pgxpool.Pool
}

func NewPgxTeamRepository(pool *pgxpool.Pool) TeamRepository {
	return &pgxTeamRepository{pool: pool}
}

// Create Insert a team and set team.ID and team.CreatedAt
func (p *pgxTeamRepository) Create(ctx context.Context, team *Team) error {
	e := db.GetPgxExecutorFromContext(ctx, p.pool)

	q := psql.Insert(
		im.Into("team", "name", "description"),
		im.Values(psql.Arg(team.Name), psql.Arg(team.Description)),
		im.Returning("id", "created_at"),
	)

	sql, args, err := q.Build(ctx)
	if err != nil {
		return err
	}

	return mapError(e.QueryRow(ctx, sql, args...).Scan(&team.ID, &team.CreatedAt))
}

func (p *pgxTeamRepository) Get(ctx context.Context, teamID string) (*Team, error) {
	e := db.GetPgxExecutorFromContext(ctx, p.pool)

	q := psql.Select(
		sm.Columns("id", "name", "description", "created_at"),
		sm.From("team"),
		sm.Where(psql.Quote("id").EQ(psql.Arg(teamID))),
		sm.ForShare("team"),
	)

	sql, args, err := q.Build(ctx)
	if err != nil {
		return nil, err
	}

	team := &Team{}
	if err = e.QueryRow(ctx, sql, args...).Scan(&team.ID, &team.Name, &team.Description, &team.CreatedAt); err != nil {
		return nil, mapError(err)
	}
	return team, nil
}

func (p *pgxTeamRepository) Lock(ctx context.Context, teamID string) error {
	e := db.GetPgxExecutorFromContext(ctx, p.pool)

	q := psql.Select(
		sm.Columns("id"),
		sm.From("team"),
		sm.Where(psql.Quote("id").EQ(psql.Arg(teamID))),
		sm.ForUpdate("team"),
	)

	sql, args, err := q.Build(ctx)
	if err != nil {
		return err
	}

	var id string
	return mapError(e.QueryRow(ctx, sql, args...).Scan(&id))
}

func (p *pgxTeamRepository) Delete(ctx context.Context, teamID string) error {
	e := db.GetPgxExecutorFromContext(ctx, p.pool)

	q := psql.Delete(
		dm.From("team"),
		dm.Where(psql.Quote("id").EQ(psql.Arg(teamID))),
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

// GetMembers returns every membership of the team. Rows are locked so that a
// leadership change serializes with other membership writes.
func (p *pgxTeamRepository) GetMembers(ctx context.Context, teamID string) ([]*Member, error) {
	e := db.GetPgxExecutorFromContext(ctx, p.pool)

	q := psql.Select(
		sm.Columns(memberColumns...),
		sm.From("team_membership"),
		sm.InnerJoin("users").On(psql.Quote("users", "id").EQ(psql.Quote("team_membership", "user_id"))),
		sm.Where(psql.Quote("team_membership", "team_id").EQ(psql.Arg(teamID))),
		sm.OrderBy(psql.Quote("team_membership", "created_at")).Asc(),
		sm.ForUpdate("team_membership"),
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

	members, err := pgx.CollectRows(rows, scanMember)
	if err != nil {
		return nil, mapError(err)
	}
	return members, nil
}

func (p *pgxTeamRepository) GetMember(ctx context.Context, teamID, userID string) (*Member, error) {
	e := db.GetPgxExecutorFromContext(ctx, p.pool)

	q := psql.Select(
		sm.Columns(memberColumns...),
		sm.From("team_membership"),
		sm.InnerJoin("users").On(psql.Quote("users", "id").EQ(psql.Quote("team_membership", "user_id"))),
		sm.Where(
			psql.Quote("team_membership", "team_id").EQ(psql.Arg(teamID)).
				And(psql.Quote("team_membership", "user_id").EQ(psql.Arg(userID))),
		),
		sm.ForShare("team_membership"),
	)

	sql, args, err := q.Build(ctx)
	if err != nil {
		return nil, err
	}

	m := &Member{}
	if err = e.QueryRow(ctx, sql, args...).Scan(&m.TeamID, &m.UserID, &m.Username, &m.UserRole, &m.TeamRole); err != nil {
		return nil, mapError(err)
	}
	return m, nil
}

// AddMember is a no-op when the membership already exists.
func (p *pgxTeamRepository) AddMember(ctx context.Context, teamID, userID string, role model.TeamRole) error {
	e := db.GetPgxExecutorFromContext(ctx, p.pool)

	q := psql.Insert(
		im.Into("team_membership", "team_id", "user_id", "role"),
		im.Values(psql.Arg(teamID), psql.Arg(userID), psql.Arg(role)),
		im.OnConflict(psql.Quote("team_id"), psql.Quote("user_id")).DoNothing(),
	)

	sql, args, err := q.Build(ctx)
	if err != nil {
		return err
	}

	_, err = e.Exec(ctx, sql, args...)
	return mapError(err)
}

func (p *pgxTeamRepository) SetMemberRole(ctx context.Context, teamID, userID string, role model.TeamRole) error {
	e := db.GetPgxExecutorFromContext(ctx, p.pool)

	q := psql.Update(
		um.Table("team_membership"),
		um.SetCol("role").ToArg(role),
		um.Where(
			psql.Quote("team_id").EQ(psql.Arg(teamID)).
				And(psql.Quote("user_id").EQ(psql.Arg(userID))),
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

func (p *pgxTeamRepository) RemoveMember(ctx context.Context, teamID, userID string) error {
	e := db.GetPgxExecutorFromContext(ctx, p.pool)

	q := psql.Delete(
		dm.From("team_membership"),
		dm.Where(
			psql.Quote("team_id").EQ(psql.Arg(teamID)).
				And(psql.Quote("user_id").EQ(psql.Arg(userID))),
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

func (p *pgxTeamRepository) RemoveAllMembers(ctx context.Context, teamID string) error {
	e := db.GetPgxExecutorFromContext(ctx, p.pool)

	q := psql.Delete(
		dm.From("team_membership"),
		dm.Where(psql.Quote("team_id").EQ(psql.Arg(teamID))),
	)

	sql, args, err := q.Build(ctx)
	if err != nil {
		return err
	}

	_, err = e.Exec(ctx, sql, args...)
	return mapError(err)
}

func scanMember(row pgx.CollectableRow) (*Member, error) {
	m := &Member{}
	if err := row.Scan(&m.TeamID, &m.UserID, &m.Username, &m.UserRole, &m.TeamRole); err != nil {
		return nil, err
	}
	return m, nil
}
