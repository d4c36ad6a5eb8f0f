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

// Invitation keeps a snapshot of the team name. TeamID is empty once the team
// has been deleted.
type Invitation struct {
	ID        string                 `db:"id"`
	TeamID    string                 `db:"team_id"`
	TeamName  string                 `db:"team_name"`
	InviterID string                 `db:"inviter_id"`
	InviteeID string                 `db:"invitee_id"`
	Status    model.InvitationStatus `db:"status"`
	Message   string                 `db:"message"`
	CreatedAt *time.Time             `db:"created_at"`
	DecidedAt *time.Time             `db:"decided_at"`
}

type InvitationRepository interface {
	Create(ctx context.Context, inv *Invitation) error
	// Get locks the invitation row for the rest of the transaction.
	Get(ctx context.Context, invitationID string) (*Invitation, error)
	HasPending(ctx context.Context, teamID, inviteeID string) (bool, error)
	Decide(ctx context.Context, invitationID string, status model.InvitationStatus, decidedAt time.Time) error
	ListByInvitee(ctx context.Context, inviteeID string, status *model.InvitationStatus) ([]*Invitation, error)
}

type pgxInvitationRepository struct {
	pool *pgxpool.Pool
}

func NewPgxInvitationRepository(pool *pgxpool.Pool) InvitationRepository {
	return &pgxInvitationRepository{pool: pool}
}

var invitationColumns = []any{
	"invitation.id",
	psql.Raw("COALESCE(invitation.team_id::text, '')"),
	"invitation.team_name",
	"invitation.inviter_id",
	"invitation.invitee_id",
	"invitation.status",
	"invitation.message",
	"invitation.created_at",
	"invitation.decided_at",
}

// Create Insert a pending invitation and set inv.ID, inv.Status and inv.CreatedAt.
// A second pending invitation for the same pair violates a partial unique index
// and surfaces as ErrAlreadyExists.
func (p *pgxInvitationRepository) Create(ctx context.Context, inv *Invitation) error {
	e := db.GetPgxExecutorFromContext(ctx, p.pool)

	q := psql.Insert(
		im.Into("invitation", "team_id", "team_name", "inviter_id", "invitee_id", "status", "message"),
		im.Values(
			psql.Arg(inv.TeamID),
			psql.Arg(inv.TeamName),
			psql.Arg(inv.InviterID),
			psql.Arg(inv.InviteeID),
			psql.Arg(model.InvitationStatusPending),
			psql.Arg(inv.Message),
		),
		im.Returning("id", "status", "created_at"),
	)

	sql, args, err := q.Build(ctx)
	if err != nil {
		return err
	}

	return mapError(e.QueryRow(ctx, sql, args...).Scan(&inv.ID, &inv.Status, &inv.CreatedAt))
}

func (p *pgxInvitationRepository) Get(ctx context.Context, invitationID string) (*Invitation, error) {
	e := db.GetPgxExecutorFromContext(ctx, p.pool)

	q := psql.Select(
		sm.Columns(invitationColumns...),
		sm.From("invitation"),
		sm.Where(psql.Quote("invitation", "id").EQ(psql.Arg(invitationID))),
		sm.ForUpdate("invitation"),
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

	inv, err := pgx.CollectExactlyOneRow(rows, scanInvitation)
	if err != nil {
		return nil, mapError(err)
	}
	return inv, nil
}

func (p *pgxInvitationRepository) HasPending(ctx context.Context, teamID, inviteeID string) (bool, error) {
	e := db.GetPgxExecutorFromContext(ctx, p.pool)

	q := psql.Select(
		sm.Columns("1"),
		sm.From("invitation"),
		sm.Where(
			psql.Quote("team_id").EQ(psql.Arg(teamID)).
				And(psql.Quote("invitee_id").EQ(psql.Arg(inviteeID))).
				And(psql.Quote("status").EQ(psql.Arg(model.InvitationStatusPending))),
		),
		sm.Limit(1),
	)

	return exists(ctx, e, q.Build)
}

// Decide moves a pending invitation to a terminal status. Terminal rows are never
// updated; ErrNotFound is returned when no pending row matched.
func (p *pgxInvitationRepository) Decide(ctx context.Context, invitationID string, status model.InvitationStatus, decidedAt time.Time) error {
	e := db.GetPgxExecutorFromContext(ctx, p.pool)

	q := psql.Update(
		um.Table("invitation"),
		um.SetCol("status").ToArg(status),
		um.SetCol("decided_at").ToArg(decidedAt),
		um.Where(
			psql.Quote("id").EQ(psql.Arg(invitationID)).
				And(psql.Quote("status").EQ(psql.Arg(model.InvitationStatusPending))),
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

func (p *pgxInvitationRepository) ListByInvitee(ctx context.Context, inviteeID string, status *model.InvitationStatus) ([]*Invitation, error) {
	e := db.GetPgxExecutorFromContext(ctx, p.pool)

	where := psql.Quote("invitation", "invitee_id").EQ(psql.Arg(inviteeID))
	if status != nil {
		where = where.And(psql.Quote("invitation", "status").EQ(psql.Arg(*status)))
	}

	q := psql.Select(
		sm.Columns(invitationColumns...),
		sm.From("invitation"),
		sm.Where(where),
		sm.OrderBy(psql.Quote("invitation", "created_at")).Desc(),
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

	invs, err := pgx.CollectRows(rows, scanInvitation)
	if err != nil {
		return nil, mapError(err)
	}
	return invs, nil
}

func scanInvitation(row pgx.CollectableRow) (*Invitation, error) {
	inv := &Invitation{}
	if err := row.Scan(
		&inv.ID,
		&inv.TeamID,
		&inv.TeamName,
		&inv.InviterID,
		&inv.InviteeID,
		&inv.Status,
		&inv.Message,
		&inv.CreatedAt,
		&inv.DecidedAt,
	); err != nil {
		return nil, err
	}
	return inv, nil
}
