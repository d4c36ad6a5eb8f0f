package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/yakoovad/capstone-tracker/internal/db"
	"github.com/yakoovad/capstone-tracker/internal/model"
	"github.com/yakoovad/capstone-tracker/internal/notifier"
	"github.com/yakoovad/capstone-tracker/internal/repository"
	"github.com/yakoovad/capstone-tracker/pkg/logger"
	"go.uber.org/zap"
)

const (
	DefaultReviewWindowDays = 7
	DefaultReviewQueueLimit = 50
	MaxReviewQueueLimit     = 200

	ActivityAssignmentReviewed = "ASSIGNMENT_REVIEWED"
)

type AssignmentService struct {
	tx db.Transactor

	users       repository.UserRepository
	teams       repository.TeamRepository
	projects    repository.ProjectRepository
	assignments repository.AssignmentRepository
	activities  repository.ActivityRepository
	notifier    notifier.Notifier

	reviewWindowDays int
	reviewQueueLimit int
}

func NewAssignmentService(tx db.Transactor) *AssignmentService {
	return &AssignmentService{
		tx:               tx,
		reviewWindowDays: DefaultReviewWindowDays,
		reviewQueueLimit: DefaultReviewQueueLimit,
	}
}

func (a *AssignmentService) CreateAssignment(ctx context.Context, projectID, title, description string, dueDate *time.Time, requesterID string) (*model.Assignment, *Error) {
	l := logger.FromContext(ctx)
	l.Info("creating assignment", zap.String("project_id", projectID), zap.String("requester_id", requesterID))

	title = strings.TrimSpace(title)
	if title == "" {
		return nil, NewError(ErrorCodeInvalidArgument, "title is required")
	}

	var res *model.Assignment
	err := a.tx.WithinTransaction(ctx, func(txCtx context.Context) error {
		project, e := loadProject(txCtx, a.projects, projectID)
		if e != nil {
			return e
		}
		if e = a.authorizeProjectActor(txCtx, project, requesterID); e != nil {
			return e
		}

		row := &repository.Assignment{
			ProjectID:   project.ID,
			Title:       title,
			Description: description,
			DueDate:     dueDate,
			Status:      model.AssignmentStatusOngoing,
		}
		if err := a.assignments.Create(txCtx, row); err != nil {
			l.Error("failed to create assignment", zap.String("project_id", projectID), zap.Error(err))
			return NewError(ErrorCodeUnspecified, "failed to create assignment")
		}

		res = toModelAssignment(row)
		return nil
	})
	if e := asError(err); e != nil {
		return nil, e
	}
	return res, nil
}

// ChangeStatus sets any of the three statuses directly. Admins, the supervising
// professor and team members may do so.
func (a *AssignmentService) ChangeStatus(ctx context.Context, projectID, assignmentID, status, requesterID string) (*model.Assignment, *Error) {
	l := logger.FromContext(ctx)
	l.Info("changing assignment status",
		zap.String("assignment_id", assignmentID),
		zap.String("status", status),
		zap.String("requester_id", requesterID))

	target, err := model.ParseAssignmentStatus(status)
	if err != nil {
		return nil, NewError(ErrorCodeInvalidArgument, err.Error())
	}

	var res *model.Assignment
	err = a.tx.WithinTransaction(ctx, func(txCtx context.Context) error {
		row, e := a.loadAssignment(txCtx, projectID, assignmentID)
		if e != nil {
			return e
		}

		project, e := loadProject(txCtx, a.projects, projectID)
		if e != nil {
			return e
		}
		if e = a.authorizeProjectActor(txCtx, project, requesterID); e != nil {
			return e
		}

		if e = a.setStatus(txCtx, row, target); e != nil {
			return e
		}

		res = toModelAssignment(row)
		return nil
	})
	if e := asError(err); e != nil {
		return nil, e
	}
	return res, nil
}

// RequestReview puts the assignment back to PENDING so it shows up in the
// supervising professor's review queue. userID may be empty for system callers.
func (a *AssignmentService) RequestReview(ctx context.Context, projectID, assignmentID, userID, message string) (*model.Assignment, *Error) {
	l := logger.FromContext(ctx)
	l.Info("requesting assignment review",
		zap.String("project_id", projectID),
		zap.String("assignment_id", assignmentID),
		zap.String("user_id", userID))

	var (
		res   *model.Assignment
		notes []*model.Notification
	)
	err := a.tx.WithinTransaction(ctx, func(txCtx context.Context) error {
		row, e := a.loadAssignment(txCtx, projectID, assignmentID)
		if e != nil {
			return e
		}
		if row.Status == model.AssignmentStatusCompleted {
			return NewError(ErrorCodeInvalidStateForReview, "assignment is already completed")
		}

		project, e := loadProject(txCtx, a.projects, projectID)
		if e != nil {
			return e
		}

		if userID != "" {
			member, e := findMember(txCtx, a.teams, project.TeamID, userID)
			if e != nil {
				return e
			}
			if member == nil {
				l.Warn("review requested by non-member", zap.String("project_id", projectID), zap.String("user_id", userID))
				return NewError(ErrorCodeNotTeamMember, "user is not a member of the project team")
			}
		}

		if e = a.setStatus(txCtx, row, model.AssignmentStatusPending); e != nil {
			return e
		}
		res = toModelAssignment(row)

		if project.ProfessorID != nil {
			notes = append(notes, &model.Notification{
				RecipientID: *project.ProfessorID,
				Type:        model.NotificationReviewRequested,
				Title:       "Review requested",
				Body:        fmt.Sprintf("%q in %q is waiting for your review", row.Title, project.Title),
				Payload: map[string]any{
					"assignment_id": row.ID,
					"project_id":    project.ID,
					"requested_by":  userID,
					"message":       message,
				},
			})
		}
		return nil
	})
	if e := asError(err); e != nil {
		return nil, e
	}

	dispatch(ctx, a.notifier, notes...)
	return res, nil
}

// ListPendingReviews is the review queue of a professor: assignments of supervised
// projects that are PENDING, or ONGOING and due within days (or overdue). Ordered
// by due date, undated last.
func (a *AssignmentService) ListPendingReviews(ctx context.Context, userID string, days, limit int) ([]*model.Assignment, *Error) {
	if days <= 0 {
		days = a.reviewWindowDays
	}
	if limit <= 0 {
		limit = a.reviewQueueLimit
	}
	if limit > MaxReviewQueueLimit {
		limit = MaxReviewQueueLimit
	}

	if _, e := loadUser(ctx, a.users, userID); e != nil {
		return nil, e
	}

	dueBefore := time.Now().Add(time.Duration(days) * 24 * time.Hour)
	rows, err := a.assignments.ListReviewQueue(ctx, userID, dueBefore, limit)
	if err != nil {
		logger.FromContext(ctx).Error("failed to list review queue", zap.String("user_id", userID), zap.Error(err))
		return nil, NewError(ErrorCodeUnspecified, "failed to list review queue")
	}

	res := make([]*model.Assignment, 0, len(rows))
	for _, row := range rows {
		res = append(res, toModelAssignment(row))
	}
	return res, nil
}

// BulkReview applies one review action to many assignments. Items are processed
// independently, each in its own transaction; failures are counted and reported
// instead of aborting the batch.
func (a *AssignmentService) BulkReview(ctx context.Context, userID string, req *model.BulkReviewRequest) (*model.BulkReviewResult, *Error) {
	if req == nil {
		return nil, NewError(ErrorCodeInvalidArgument, "bulk review request is required")
	}

	l := logger.FromContext(ctx)
	l.Info("bulk reviewing assignments",
		zap.String("user_id", userID),
		zap.String("action", string(req.Action)),
		zap.Int("items", len(req.Items)))

	target, ok := req.Action.TargetStatus()
	if !ok {
		return nil, NewError(ErrorCodeInvalidArgument, "action must be APPROVE or REJECT")
	}

	if _, e := loadUser(ctx, a.users, userID); e != nil {
		return nil, e
	}

	res := &model.BulkReviewResult{FailedIDs: make([]string, 0)}
	for _, item := range req.Items {
		if item == nil {
			l.Warn("bulk review item is empty")
			res.FailureCount++
			continue
		}
		if e := a.reviewItem(ctx, userID, item, req.Action, target); e != nil {
			l.Warn("bulk review item failed",
				zap.String("assignment_id", item.AssignmentID),
				zap.String("project_id", item.ProjectID),
				zap.String("code", string(e.Code)))
			res.FailureCount++
			res.FailedIDs = append(res.FailedIDs, item.AssignmentID)
			continue
		}
		res.SuccessCount++
	}

	l.Debug("bulk review finished", zap.Int("success", res.SuccessCount), zap.Int("failure", res.FailureCount))
	return res, nil
}

func (a *AssignmentService) reviewItem(ctx context.Context, userID string, item *model.BulkReviewItem, action model.ReviewAction, target model.AssignmentStatus) *Error {
	err := a.tx.WithinTransaction(ctx, func(txCtx context.Context) error {
		row, e := a.loadAssignment(txCtx, item.ProjectID, item.AssignmentID)
		if e != nil {
			return e
		}

		project, e := loadProject(txCtx, a.projects, item.ProjectID)
		if e != nil {
			return e
		}

		supervisor := project.ProfessorID != nil && *project.ProfessorID == userID
		if !supervisor {
			member, e := findMember(txCtx, a.teams, project.TeamID, userID)
			if e != nil {
				return e
			}
			if member == nil {
				return NewError(ErrorCodeForbidden, "only the supervising professor or team members can review")
			}
		}

		if e = a.setStatus(txCtx, row, target); e != nil {
			return e
		}

		if err := a.activities.Append(txCtx, &repository.Activity{
			ProjectID: project.ID,
			ActorID:   userID,
			Action:    ActivityAssignmentReviewed,
			Detail:    fmt.Sprintf("%s %s", row.ID, action),
		}); err != nil {
			logger.FromContext(txCtx).Error("failed to record project activity",
				zap.String("project_id", project.ID),
				zap.String("assignment_id", row.ID),
				zap.Error(err))
			return NewError(ErrorCodeUnspecified, "failed to record project activity")
		}
		return nil
	})
	return asError(err)
}

// loadAssignment locks the assignment and checks it belongs to projectID.
func (a *AssignmentService) loadAssignment(ctx context.Context, projectID, assignmentID string) (*repository.Assignment, *Error) {
	row, err := a.assignments.Get(ctx, assignmentID)
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return nil, NewError(ErrorCodeNotFound, "assignment not found")
	case err != nil:
		logger.FromContext(ctx).Error("failed to get assignment", zap.String("assignment_id", assignmentID), zap.Error(err))
		return nil, NewError(ErrorCodeUnspecified, "failed to get assignment")
	}

	if row.ProjectID != projectID {
		return nil, NewError(ErrorCodeInvalidArgument, "assignment does not belong to the project")
	}
	return row, nil
}

func (a *AssignmentService) setStatus(ctx context.Context, row *repository.Assignment, status model.AssignmentStatus) *Error {
	if err := a.assignments.SetStatus(ctx, row.ID, status); err != nil {
		logger.FromContext(ctx).Error("failed to update assignment status",
			zap.String("assignment_id", row.ID),
			zap.String("status", string(status)),
			zap.Error(err))
		return NewError(ErrorCodeUnspecified, "failed to update assignment status")
	}
	row.Status = status
	return nil
}

// authorizeProjectActor allows admins, the supervising professor and team members.
func (a *AssignmentService) authorizeProjectActor(ctx context.Context, project *repository.Project, requesterID string) *Error {
	requester, e := loadUser(ctx, a.users, requesterID)
	if e != nil {
		return e
	}
	if project.ProfessorID != nil && *project.ProfessorID == requester.ID {
		return nil
	}
	return requireMemberOrAdmin(ctx, a.teams, project.TeamID, requester)
}

func toModelAssignment(row *repository.Assignment) *model.Assignment {
	return &model.Assignment{
		ID:          row.ID,
		ProjectID:   row.ProjectID,
		Title:       row.Title,
		Description: row.Description,
		DueDate:     row.DueDate,
		Status:      row.Status,
		CreatedAt:   row.CreatedAt,
	}
}

// WithReviewDefaults overrides the review queue window and page size used when the
// caller passes zero.
func (a *AssignmentService) WithReviewDefaults(days, limit int) *AssignmentService {
	if days > 0 {
		a.reviewWindowDays = days
	}
	if limit > 0 {
		a.reviewQueueLimit = limit
	}
	return a
}

func (a *AssignmentService) WithUserRepo(r repository.UserRepository) *AssignmentService {
	a.users = r
	return a
}

func (a *AssignmentService) WithTeamRepo(r repository.TeamRepository) *AssignmentService {
	a.teams = r
	return a
}

func (a *AssignmentService) WithProjectRepo(r repository.ProjectRepository) *AssignmentService {
	a.projects = r
	return a
}

func (a *AssignmentService) WithAssignmentRepo(r repository.AssignmentRepository) *AssignmentService {
	a.assignments = r
	return a
}

func (a *AssignmentService) WithActivityRepo(r repository.ActivityRepository) *AssignmentService {
	a.activities = r
	return a
}

func (a *AssignmentService) WithNotifier(n notifier.Notifier) *AssignmentService {
	a.notifier = n
	return a
}
