package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stephenafamo/bob/dialect/psql"
	"github.com/stephenafamo/bob/dialect/psql/im"
	"github.com/stephenafamo/bob/dialect/psql/sm"
	"github.com/stephenafamo/bob/dialect/psql/um"
	"github.com/yakoovad/capstone-tracker/internal/db"
	"github.com/yakoovad/capstone-tracker/internal/model"
)

type Project struct {
	ID          string              `db:"id"`
	Title       string              `db:"title"`
	Description string              `db:"description"`
	TeamID      string              `db:"team_id"`
	ProfessorID *string             `db:"professor_id"`
	Status      model.ProjectStatus `db:"status"`
	CreatedAt   *time.Time          `db:"created_at"`
}

type ProjectRepository interface {
	Create(ctx context.Context, project *Project) error
	Get(ctx context.Context, projectID string) (*Project, error)
	SetProfessor(ctx context.Context, projectID, professorID string) error
	ExistsForTeam(ctx context.Context, teamID string) (bool, error)
}

type pgxProjectRepository struct {
	pool *pgxpool.Pool
}

func NewPgxProjectRepository(pool *pgxpool.Pool) ProjectRepository {
	return &pgxProjectRepository{pool: pool}
}

// Create Insert a project and set project.ID and project.CreatedAt
func (p *pgxProjectRepository) Create(ctx context.Context, project *Project) error {
	e := db.GetPgxExecutorFromContext(ctx, p.pool)

	q := psql.Insert(
		im.Into("project", "title", "description", "team_id", "professor_id", "status"),
		im.Values(
			psql.Arg(project.Title),
			psql.Arg(project.Description),
			psql.Arg(project.TeamID),
			psql.Arg(project.ProfessorID),
			psql.Arg(project.Status),
		),
		im.Returning("id", "created_at"),
	)

	sql, args, err := q.Build(ctx)
	if err != nil {
		return err
	}

	return mapError(e.QueryRow(ctx, sql, args...).Scan(&project.ID, &project.CreatedAt))
}

func (p *pgxProjectRepository) Get(ctx context.Context, projectID string) (*Project, error) {
	e := db.GetPgxExecutorFromContext(ctx, p.pool)

	q := psql.Select(
		sm.Columns("id", "title", "description", "team_id", "professor_id", "status", "created_at"),
		sm.From("project"),
		sm.Where(psql.Quote("id").EQ(psql.Arg(projectID))),
		sm.ForShare("project"),
	)

	sql, args, err := q.Build(ctx)
	if err != nil {
		return nil, err
	}

	pr := &Project{}
	if err = e.QueryRow(ctx, sql, args...).Scan(
		&pr.ID,
		&pr.Title,
		&pr.Description,
		&pr.TeamID,
		&pr.ProfessorID,
		&pr.Status,
		&pr.CreatedAt,
	); err != nil {
		return nil, mapError(err)
	}
	return pr, nil
}

func (p *pgxProjectRepository) SetProfessor(ctx context.Context, projectID, professorID string) error {
	e := db.GetPgxExecutorFromContext(ctx, p.pool)

	q := psql.Update(
		um.Table("project"),
		um.SetCol("professor_id").ToArg(professorID),
		um.Where(psql.Quote("id").EQ(psql.Arg(projectID))),
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

func (p *pgxProjectRepository) ExistsForTeam(ctx context.Context, teamID string) (bool, error) {
	e := db.GetPgxExecutorFromContext(ctx, p.pool)

	q := psql.Select(
		sm.Columns("1"),
		sm.From("project"),
		sm.Where(psql.Quote("team_id").EQ(psql.Arg(teamID))),
		sm.Limit(1),
	)

	return exists(ctx, e, q.Build)
}
