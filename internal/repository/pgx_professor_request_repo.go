package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stephenafamo/bob"
	"github.com/stephenafamo/bob/dialect/psql"
	"github.com/stephenafamo/bob/dialect/psql/dialect"
	"github.com/stephenafamo/bob/dialect/psql/im"
	"github.com/stephenafamo/bob/dialect/psql/sm"
	"github.com/stephenafamo/bob/dialect/psql/um"
	"github.com/yakoovad/capstone-tracker/internal/db"
	"github.com/yakoovad/capstone-tracker/internal/model"
)

type ProfessorRequest struct {
	ID          string              `db:"id"`
	Kind        model.RequestKind   `db:"kind"`
	TeamID      string              `db:"team_id"`
	ProjectID   *string             `db:"project_id"`
	Title       string              `db:"title"`
	RequestedBy string              `db:"requested_by"`
	ProfessorID string              `db:"professor_id"`
	Status      model.RequestStatus `db:"status"`
	Message     string              `db:"message"`
	DecidedBy   *string             `db:"decided_by"`
	DecidedAt   *time.Time          `db:"decided_at"`
	CreatedAt   *time.Time          `db:"created_at"`
}

// ProfessorRequestDecision moves a pending request to a terminal status.
// ProjectID back-fills the project created on approval of a pre-project request;
// Message overrides the stored message when set.
type ProfessorRequestDecision struct {
	ID        string
	Status    model.RequestStatus
	DecidedBy string
	DecidedAt time.Time
	ProjectID *string
	Message   *string
}

type ProfessorRequestRepository interface {
	Create(ctx context.Context, req *ProfessorRequest) error
	// Get locks the request row for the rest of the transaction.
	Get(ctx context.Context, requestID string) (*ProfessorRequest, error)
	HasPendingForTitle(ctx context.Context, teamID, title string) (bool, error)
	HasPendingForProject(ctx context.Context, projectID string) (bool, error)
	Decide(ctx context.Context, decision *ProfessorRequestDecision) error
	ListByProfessor(ctx context.Context, professorID string, status *model.RequestStatus) ([]*ProfessorRequest, error)
}

type pgxProfessorRequestRepository struct {
	pool *pgxpool.Pool
}

func NewPgxProfessorRequestRepository(pool *pgxpool.Pool) ProfessorRequestRepository {
	return &pgxProfessorRequestRepository{pool: pool}
}

var professorRequestColumns = []any{
	"id", "kind", "team_id", "project_id", "title", "requested_by", "professor_id",
	"status", "message", "decided_by", "decided_at", "created_at",
}

// Create Insert a pending request and set req.ID, req.Status and req.CreatedAt
func (p *pgxProfessorRequestRepository) Create(ctx context.Context, req *ProfessorRequest) error {
	e := db.GetPgxExecutorFromContext(ctx, p.pool)

	q := psql.Insert(
		im.Into("professor_request", "kind", "team_id", "project_id", "title", "requested_by", "professor_id", "status", "message"),
		im.Values(
			psql.Arg(req.Kind),
			psql.Arg(req.TeamID),
			psql.Arg(req.ProjectID),
			psql.Arg(req.Title),
			psql.Arg(req.RequestedBy),
			psql.Arg(req.ProfessorID),
			psql.Arg(model.RequestStatusPending),
			psql.Arg(req.Message),
		),
		im.Returning("id", "status", "created_at"),
	)

	sql, args, err := q.Build(ctx)
	if err != nil {
		return err
	}

	return mapError(e.QueryRow(ctx, sql, args...).Scan(&req.ID, &req.Status, &req.CreatedAt))
}

func (p *pgxProfessorRequestRepository) Get(ctx context.Context, requestID string) (*ProfessorRequest, error) {
	e := db.GetPgxExecutorFromContext(ctx, p.pool)

	q := psql.Select(
		sm.Columns(professorRequestColumns...),
		sm.From("professor_request"),
		sm.Where(psql.Quote("id").EQ(psql.Arg(requestID))),
		sm.ForUpdate("professor_request"),
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

	req, err := pgx.CollectExactlyOneRow(rows, scanProfessorRequest)
	if err != nil {
		return nil, mapError(err)
	}
	return req, nil
}

// HasPendingForTitle matches the title case-insensitively among pre-project requests.
func (p *pgxProfessorRequestRepository) HasPendingForTitle(ctx context.Context, teamID, title string) (bool, error) {
	e := db.GetPgxExecutorFromContext(ctx, p.pool)

	q := psql.Select(
		sm.Columns("1"),
		sm.From("professor_request"),
		sm.Where(
			psql.Quote("team_id").EQ(psql.Arg(teamID)).
				And(psql.Quote("kind").EQ(psql.Arg(model.RequestKindPreProject))).
				And(psql.Quote("status").EQ(psql.Arg(model.RequestStatusPending))).
				And(psql.Raw("lower(title) = lower(?)", title)),
		),
		sm.Limit(1),
	)

	return exists(ctx, e, q.Build)
}

func (p *pgxProfessorRequestRepository) HasPendingForProject(ctx context.Context, projectID string) (bool, error) {
	e := db.GetPgxExecutorFromContext(ctx, p.pool)

	q := psql.Select(
		sm.Columns("1"),
		sm.From("professor_request"),
		sm.Where(
			psql.Quote("project_id").EQ(psql.Arg(projectID)).
				And(psql.Quote("status").EQ(psql.Arg(model.RequestStatusPending))),
		),
		sm.Limit(1),
	)

	return exists(ctx, e, q.Build)
}

func (p *pgxProfessorRequestRepository) Decide(ctx context.Context, d *ProfessorRequestDecision) error {
	e := db.GetPgxExecutorFromContext(ctx, p.pool)

	sets := make([]bob.Mod[*dialect.UpdateQuery], 0, 5)
	sets = append(sets,
		um.SetCol("status").ToArg(d.Status),
		um.SetCol("decided_by").ToArg(d.DecidedBy),
		um.SetCol("decided_at").ToArg(d.DecidedAt),
	)
	if d.ProjectID != nil {
		sets = append(sets, um.SetCol("project_id").ToArg(*d.ProjectID))
	}
	if d.Message != nil {
		sets = append(sets, um.SetCol("message").ToArg(*d.Message))
	}

	q := psql.Update(
		um.Table("professor_request"),
		um.Where(
			psql.Quote("id").EQ(psql.Arg(d.ID)).
				And(psql.Quote("status").EQ(psql.Arg(model.RequestStatusPending))),
		),
	)

	q.Apply(sets...)

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

func (p *pgxProfessorRequestRepository) ListByProfessor(ctx context.Context, professorID string, status *model.RequestStatus) ([]*ProfessorRequest, error) {
	e := db.GetPgxExecutorFromContext(ctx, p.pool)

	where := psql.Quote("professor_id").EQ(psql.Arg(professorID))
	if status != nil {
		where = where.And(psql.Quote("status").EQ(psql.Arg(*status)))
	}

	q := psql.Select(
		sm.Columns(professorRequestColumns...),
		sm.From("professor_request"),
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

	reqs, err := pgx.CollectRows(rows, scanProfessorRequest)
	if err != nil {
		return nil, mapError(err)
	}
	return reqs, nil
}

func scanProfessorRequest(row pgx.CollectableRow) (*ProfessorRequest, error) {
	r := &ProfessorRequest{}
	if err := row.Scan(
		&r.ID,
		&r.Kind,
		&r.TeamID,
		&r.ProjectID,
		&r.Title,
		&r.RequestedBy,
		&r.ProfessorID,
		&r.Status,
		&r.Message,
		&r.DecidedBy,
		&r.DecidedAt,
		&r.CreatedAt,
	); err != nil {
		return nil, err
	}
	return r, nil
}
