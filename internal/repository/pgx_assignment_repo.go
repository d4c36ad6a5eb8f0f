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

type Assignment struct {
	ID          string                 `db:"id"`
	ProjectID   string                 `db:"project_id"`
	Title       string                 `db:"title"`
	Description string                 `db:"description"`
	DueDate     *time.Time             `db:"due_date"`
	Status      model.AssignmentStatus `db:"status"`
	CreatedAt   *time.Time             `db:"created_at"`
}

type AssignmentRepository interface {
	Create(ctx context.Context, a *Assignment) error
	// Get locks the assignment row for the rest of the transaction.
	Get(ctx context.Context, assignmentID string) (*Assignment, error)
	SetStatus(ctx context.Context, assignmentID string, status model.AssignmentStatus) error
	// ListReviewQueue returns assignments of projects supervised by professorID that
	// are PENDING, or ONGOING with a due date at or before dueBefore.
	ListReviewQueue(ctx context.Context, professorID string, dueBefore time.Time, limit int) ([]*Assignment, error)
}

type pgxAssignmentRepository struct {
	pool *pgxpool.Pool
}

func NewPgxAssignmentRepository(pool *pgxpool.Pool) AssignmentRepository {
	return &pgxAssignmentRepository{pool: pool}
}

var assignmentColumns = []any{
	"assignment.id",
	"assignment.project_id",
	"assignment.title",
	"assignment.description",
	"assignment.due_date",
	"assignment.status",
	"assignment.created_at",
}

// Create Insert an assignment and set a.ID and a.CreatedAt
func (p *pgxAssignmentRepository) Create(ctx context.Context, a *Assignment) error {
	e := db.GetPgxExecutorFromContext(ctx, p.pool)

	q := psql.Insert(
		im.Into("assignment", "project_id", "title", "description", "due_date", "status"),
		im.Values(
			psql.Arg(a.ProjectID),
			psql.Arg(a.Title),
			psql.Arg(a.Description),
			psql.Arg(a.DueDate),
			psql.Arg(a.Status),
		),
		im.Returning("id", "created_at"),
	)

	sql, args, err := q.Build(ctx)
	if err != nil {
		return err
	}

	return mapError(e.QueryRow(ctx, sql, args...).Scan(&a.ID, &a.CreatedAt))
}

func (p *pgxAssignmentRepository) Get(ctx context.Context, assignmentID string) (*Assignment, error) {
	e := db.GetPgxExecutorFromContext(ctx, p.pool)

	q := psql.Select(
		sm.Columns(assignmentColumns...),
		sm.From("assignment"),
		sm.Where(psql.Quote("assignment", "id").EQ(psql.Arg(assignmentID))),
		sm.ForUpdate("assignment"),
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

	a, err := pgx.CollectExactlyOneRow(rows, scanAssignment)
	if err != nil {
		return nil, mapError(err)
	}
	return a, nil
}

func (p *pgxAssignmentRepository) SetStatus(ctx context.Context, assignmentID string, status model.AssignmentStatus) error {
	e := db.GetPgxExecutorFromContext(ctx, p.pool)

	q := psql.Update(
		um.Table("assignment"),
		um.SetCol("status").ToArg(status),
		um.Where(psql.Quote("id").EQ(psql.Arg(assignmentID))),
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

func (p *pgxAssignmentRepository) ListReviewQueue(ctx context.Context, professorID string, dueBefore time.Time, limit int) ([]*Assignment, error) {
	e := db.GetPgxExecutorFromContext(ctx, p.pool)

	q := reviewQueueQuery(professorID, dueBefore, limit)

	sql, args, err := q.Build(ctx)
	if err != nil {
		return nil, err
	}

	rows, err := e.Query(ctx, sql, args...)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	list, err := pgx.CollectRows(rows, scanAssignment)
	if err != nil {
		return nil, mapError(err)
	}
	return list, nil
}

// reviewQueueQuery selects PENDING assignments and ONGOING ones due by dueBefore,
// earliest due date first with undated assignments last.
func reviewQueueQuery(professorID string, dueBefore time.Time, limit int) bob.BaseQuery[*dialect.SelectQuery] {
	pending := psql.Quote("assignment", "status").EQ(psql.Arg(model.AssignmentStatusPending))
	ongoingDue := psql.Quote("assignment", "status").EQ(psql.Arg(model.AssignmentStatusOngoing)).
		And(psql.Quote("assignment", "due_date").LTE(psql.Arg(dueBefore)))

	return psql.Select(
		sm.Columns(assignmentColumns...),
		sm.From("assignment"),
		sm.InnerJoin("project").On(psql.Quote("project", "id").EQ(psql.Quote("assignment", "project_id"))),
		sm.Where(
			psql.Quote("project", "professor_id").EQ(psql.Arg(professorID)).
				And(psql.Group(pending.Or(psql.Group(ongoingDue)))),
		),
		sm.OrderBy(psql.Quote("assignment", "due_date")).Asc().NullsLast(),
		sm.OrderBy(psql.Quote("assignment", "created_at")).Asc(),
		sm.Limit(limit),
	)
}

func scanAssignment(row pgx.CollectableRow) (*Assignment, error) {
	a := &Assignment{}
	if err := row.Scan(
		&a.ID,
		&a.ProjectID,
		&a.Title,
		&a.Description,
		&a.DueDate,
		&a.Status,
		&a.CreatedAt,
	); err != nil {
		return nil, err
	}
	return a, nil
}
