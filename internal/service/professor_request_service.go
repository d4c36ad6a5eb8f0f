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
	ActivityProfessorAssigned = "PROFESSOR_ASSIGNED"
	ActivityProfessorRejected = "PROFESSOR_REQUEST_REJECTED"
)

type ProfessorRequestService struct {
	tx db.Transactor

	users      repository.UserRepository
	teams      repository.TeamRepository
	projects   repository.ProjectRepository
	requests   repository.ProfessorRequestRepository
	activities repository.ActivityRepository
	notifier   notifier.Notifier
}

func NewProfessorRequestService(tx db.Transactor) *ProfessorRequestService {
	return &ProfessorRequestService{tx: tx}
}

// CreatePreRequest asks a professor to supervise a team that has no project yet.
// The title is kept as the draft project title.
func (s *ProfessorRequestService) CreatePreRequest(ctx context.Context, teamID, title, professorID, message, requesterID string) (*model.ProfessorRequest, *Error) {
	l := logger.FromContext(ctx)
	l.Info("creating pre-project professor request",
		zap.String("team_id", teamID),
		zap.String("professor_id", professorID),
		zap.String("requester_id", requesterID))

	var (
		res  *model.ProfessorRequest
		note *model.Notification
	)
	err := s.tx.WithinTransaction(ctx, func(txCtx context.Context) error {
		team, e := loadTeam(txCtx, s.teams, teamID)
		if e != nil {
			return e
		}

		requester, e := loadUser(txCtx, s.users, requesterID)
		if e != nil {
			return e
		}
		if e = requireMemberOrAdmin(txCtx, s.teams, teamID, requester); e != nil {
			return e
		}

		draftTitle := strings.TrimSpace(title)
		if draftTitle == "" {
			return NewError(ErrorCodeInvalidArgument, "title is required")
		}

		pending, err := s.requests.HasPendingForTitle(txCtx, teamID, draftTitle)
		if err != nil {
			l.Error("failed to check pending requests", zap.String("team_id", teamID), zap.Error(err))
			return NewError(ErrorCodeUnspecified, "failed to check pending requests")
		}
		if pending {
			return NewError(ErrorCodeDuplicatePending, "a pending request with this title already exists")
		}

		professor, e := s.loadProfessor(txCtx, professorID)
		if e != nil {
			return e
		}

		req := &repository.ProfessorRequest{
			Kind:        model.RequestKindPreProject,
			TeamID:      team.ID,
			Title:       draftTitle,
			RequestedBy: requester.ID,
			ProfessorID: professor.ID,
			Message:     message,
		}
		if e = s.create(txCtx, req); e != nil {
			return e
		}

		res = toModelProfessorRequest(req)
		note = requestCreatedNote(req, team.Name, requester.Username)
		return nil
	})
	if e := asError(err); e != nil {
		return nil, e
	}

	dispatch(ctx, s.notifier, note)
	return res, nil
}

// CreateRequest asks a professor to supervise an existing project.
func (s *ProfessorRequestService) CreateRequest(ctx context.Context, projectID, professorID, message, requesterID string) (*model.ProfessorRequest, *Error) {
	l := logger.FromContext(ctx)
	l.Info("creating professor request",
		zap.String("project_id", projectID),
		zap.String("professor_id", professorID),
		zap.String("requester_id", requesterID))

	var (
		res  *model.ProfessorRequest
		note *model.Notification
	)
	err := s.tx.WithinTransaction(ctx, func(txCtx context.Context) error {
		project, e := loadProject(txCtx, s.projects, projectID)
		if e != nil {
			return e
		}

		requester, e := loadUser(txCtx, s.users, requesterID)
		if e != nil {
			return e
		}
		if e = requireMemberOrAdmin(txCtx, s.teams, project.TeamID, requester); e != nil {
			return e
		}

		pending, err := s.requests.HasPendingForProject(txCtx, project.ID)
		if err != nil {
			l.Error("failed to check pending requests", zap.String("project_id", projectID), zap.Error(err))
			return NewError(ErrorCodeUnspecified, "failed to check pending requests")
		}
		if pending {
			return NewError(ErrorCodeDuplicatePending, "a pending request for this project already exists")
		}

		professor, e := s.loadProfessor(txCtx, professorID)
		if e != nil {
			return e
		}

		req := &repository.ProfessorRequest{
			Kind:        model.RequestKindPostProject,
			TeamID:      project.TeamID,
			ProjectID:   &project.ID,
			Title:       project.Title,
			RequestedBy: requester.ID,
			ProfessorID: professor.ID,
			Message:     message,
		}
		if e = s.create(txCtx, req); e != nil {
			return e
		}

		res = toModelProfessorRequest(req)
		note = requestCreatedNote(req, "", requester.Username)
		return nil
	})
	if e := asError(err); e != nil {
		return nil, e
	}

	dispatch(ctx, s.notifier, note)
	return res, nil
}

// Approve is only allowed for the targeted professor. A pre-project request
// creates the project; a post-project request sets its professor. The professor
// joins the team as MEMBER. Approving a decided request returns it unchanged.
func (s *ProfessorRequestService) Approve(ctx context.Context, requestID, professorID string) (*model.ProfessorRequest, *Error) {
	l := logger.FromContext(ctx)
	l.Info("approving professor request", zap.String("request_id", requestID), zap.String("professor_id", professorID))

	var (
		res  *model.ProfessorRequest
		note *model.Notification
	)
	err := s.tx.WithinTransaction(ctx, func(txCtx context.Context) error {
		req, actor, e := s.loadForDecision(txCtx, requestID, professorID)
		if e != nil {
			return e
		}
		if req.Status != model.RequestStatusPending {
			l.Info("professor request already decided", zap.String("request_id", req.ID), zap.String("status", string(req.Status)))
			res = toModelProfessorRequest(req)
			return nil
		}

		var (
			projectID string
			backfill  *string
		)
		if req.ProjectID == nil {
			project := &repository.Project{
				Title:       req.Title,
				TeamID:      req.TeamID,
				ProfessorID: &actor.ID,
				Status:      model.ProjectStatusActive,
			}
			if err := s.projects.Create(txCtx, project); err != nil {
				l.Error("failed to create project", zap.String("request_id", req.ID), zap.Error(err))
				return NewError(ErrorCodeUnspecified, "failed to create project")
			}
			projectID = project.ID
			backfill = &projectID
		} else {
			projectID = *req.ProjectID
			err := s.projects.SetProfessor(txCtx, projectID, actor.ID)
			switch {
			case errors.Is(err, repository.ErrNotFound):
				return NewError(ErrorCodeNotFound, "project not found")
			case err != nil:
				l.Error("failed to assign professor", zap.String("project_id", projectID), zap.Error(err))
				return NewError(ErrorCodeUnspecified, "failed to assign professor")
			}
		}

		member, e := findMember(txCtx, s.teams, req.TeamID, actor.ID)
		if e != nil {
			return e
		}
		if member == nil {
			if err := s.teams.AddMember(txCtx, req.TeamID, actor.ID, model.TeamRoleMember); err != nil {
				l.Error("failed to add professor to team", zap.String("team_id", req.TeamID), zap.Error(err))
				return NewError(ErrorCodeUnspecified, "failed to add professor to team")
			}
		}

		now := time.Now()
		if e = s.decide(txCtx, &repository.ProfessorRequestDecision{
			ID:        req.ID,
			Status:    model.RequestStatusApproved,
			DecidedBy: actor.ID,
			DecidedAt: now,
			ProjectID: backfill,
		}); e != nil {
			return e
		}

		if e = s.logActivity(txCtx, projectID, actor.ID, ActivityProfessorAssigned, req.ID); e != nil {
			return e
		}

		req.Status = model.RequestStatusApproved
		req.ProjectID = &projectID
		req.DecidedBy = &actor.ID
		req.DecidedAt = &now
		res = toModelProfessorRequest(req)

		note = &model.Notification{
			RecipientID: req.RequestedBy,
			Type:        model.NotificationRequestApproved,
			Title:       "Professor request approved",
			Body:        fmt.Sprintf("%s agreed to supervise %q", actor.Username, req.Title),
			Payload: map[string]any{
				"request_id": req.ID,
				"team_id":    req.TeamID,
				"project_id": projectID,
			},
		}
		return nil
	})
	if e := asError(err); e != nil {
		return nil, e
	}

	dispatch(ctx, s.notifier, note)
	return res, nil
}

// Reject closes the request. A non-blank message replaces the request message.
// Rejecting a decided request returns it unchanged.
func (s *ProfessorRequestService) Reject(ctx context.Context, requestID, message, professorID string) (*model.ProfessorRequest, *Error) {
	l := logger.FromContext(ctx)
	l.Info("rejecting professor request", zap.String("request_id", requestID), zap.String("professor_id", professorID))

	var (
		res  *model.ProfessorRequest
		note *model.Notification
	)
	err := s.tx.WithinTransaction(ctx, func(txCtx context.Context) error {
		req, actor, e := s.loadForDecision(txCtx, requestID, professorID)
		if e != nil {
			return e
		}
		if req.Status != model.RequestStatusPending {
			l.Info("professor request already decided", zap.String("request_id", req.ID), zap.String("status", string(req.Status)))
			res = toModelProfessorRequest(req)
			return nil
		}

		now := time.Now()
		decision := &repository.ProfessorRequestDecision{
			ID:        req.ID,
			Status:    model.RequestStatusRejected,
			DecidedBy: actor.ID,
			DecidedAt: now,
		}
		if msg := strings.TrimSpace(message); msg != "" {
			decision.Message = &msg
			req.Message = msg
		}
		if e = s.decide(txCtx, decision); e != nil {
			return e
		}

		if req.ProjectID != nil {
			if e = s.logActivity(txCtx, *req.ProjectID, actor.ID, ActivityProfessorRejected, req.ID); e != nil {
				return e
			}
		}

		req.Status = model.RequestStatusRejected
		req.DecidedBy = &actor.ID
		req.DecidedAt = &now
		res = toModelProfessorRequest(req)

		note = &model.Notification{
			RecipientID: req.RequestedBy,
			Type:        model.NotificationRequestRejected,
			Title:       "Professor request rejected",
			Body:        fmt.Sprintf("%s declined to supervise %q", actor.Username, req.Title),
			Payload: map[string]any{
				"request_id": req.ID,
				"team_id":    req.TeamID,
				"message":    req.Message,
			},
		}
		return nil
	})
	if e := asError(err); e != nil {
		return nil, e
	}

	dispatch(ctx, s.notifier, note)
	return res, nil
}

// ListProfessorRequests returns requests addressed to professorID, newest first.
func (s *ProfessorRequestService) ListProfessorRequests(ctx context.Context, professorID string, status *model.RequestStatus) ([]*model.ProfessorRequest, *Error) {
	reqs, err := s.requests.ListByProfessor(ctx, professorID, status)
	if err != nil {
		logger.FromContext(ctx).Error("failed to list professor requests", zap.String("professor_id", professorID), zap.Error(err))
		return nil, NewError(ErrorCodeUnspecified, "failed to list professor requests")
	}

	res := make([]*model.ProfessorRequest, 0, len(reqs))
	for _, r := range reqs {
		res = append(res, toModelProfessorRequest(r))
	}
	return res, nil
}

// loadForDecision locks the request and checks that professorID is its target.
// Admins are not allowed to decide on a professor's behalf.
func (s *ProfessorRequestService) loadForDecision(ctx context.Context, requestID, professorID string) (*repository.ProfessorRequest, *repository.User, *Error) {
	req, err := s.requests.Get(ctx, requestID)
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return nil, nil, NewError(ErrorCodeNotFound, "professor request not found")
	case err != nil:
		logger.FromContext(ctx).Error("failed to get professor request", zap.String("request_id", requestID), zap.Error(err))
		return nil, nil, NewError(ErrorCodeUnspecified, "failed to get professor request")
	}

	actor, e := loadUser(ctx, s.users, professorID)
	if e != nil {
		return nil, nil, e
	}
	if actor.Role != model.RoleProfessor || actor.ID != req.ProfessorID {
		logger.FromContext(ctx).Warn("user is not the requested professor",
			zap.String("request_id", requestID),
			zap.String("user_id", professorID))
		return nil, nil, NewError(ErrorCodeForbidden, "only the requested professor can decide")
	}
	return req, actor, nil
}

// loadProfessor reports a missing user and a non-professor the same way.
func (s *ProfessorRequestService) loadProfessor(ctx context.Context, professorID string) (*repository.User, *Error) {
	u, e := loadUser(ctx, s.users, professorID)
	if e != nil && e.Code != ErrorCodeNotFound {
		return nil, e
	}
	if u == nil || u.Role != model.RoleProfessor {
		return nil, NewError(ErrorCodeInvalidProfessor, "target user is not a professor")
	}
	return u, nil
}

func (s *ProfessorRequestService) create(ctx context.Context, req *repository.ProfessorRequest) *Error {
	err := s.requests.Create(ctx, req)
	switch {
	case errors.Is(err, repository.ErrAlreadyExists):
		return NewError(ErrorCodeDuplicatePending, "a pending request already exists")
	case err != nil:
		logger.FromContext(ctx).Error("failed to create professor request", zap.String("team_id", req.TeamID), zap.Error(err))
		return NewError(ErrorCodeUnspecified, "failed to create professor request")
	}
	return nil
}

func (s *ProfessorRequestService) decide(ctx context.Context, d *repository.ProfessorRequestDecision) *Error {
	if err := s.requests.Decide(ctx, d); err != nil {
		logger.FromContext(ctx).Error("failed to update professor request",
			zap.String("request_id", d.ID),
			zap.String("status", string(d.Status)),
			zap.Error(err))
		return NewError(ErrorCodeUnspecified, "failed to update professor request")
	}
	return nil
}

func (s *ProfessorRequestService) logActivity(ctx context.Context, projectID, actorID, action, detail string) *Error {
	if err := s.activities.Append(ctx, &repository.Activity{
		ProjectID: projectID,
		ActorID:   actorID,
		Action:    action,
		Detail:    detail,
	}); err != nil {
		logger.FromContext(ctx).Error("failed to record project activity", zap.String("project_id", projectID), zap.Error(err))
		return NewError(ErrorCodeUnspecified, "failed to record project activity")
	}
	return nil
}

func requestCreatedNote(req *repository.ProfessorRequest, teamName, requesterName string) *model.Notification {
	body := fmt.Sprintf("%s asked you to supervise %q", requesterName, req.Title)
	if teamName != "" {
		body = fmt.Sprintf("%s asked you to supervise %q for team %s", requesterName, req.Title, teamName)
	}

	payload := map[string]any{
		"request_id": req.ID,
		"team_id":    req.TeamID,
		"kind":       string(req.Kind),
	}
	if req.ProjectID != nil {
		payload["project_id"] = *req.ProjectID
	}

	return &model.Notification{
		RecipientID: req.ProfessorID,
		Type:        model.NotificationRequestCreated,
		Title:       "Supervision request",
		Body:        body,
		Payload:     payload,
	}
}

func toModelProfessorRequest(r *repository.ProfessorRequest) *model.ProfessorRequest {
	return &model.ProfessorRequest{
		ID:          r.ID,
		Kind:        r.Kind,
		TeamID:      r.TeamID,
		ProjectID:   r.ProjectID,
		Title:       r.Title,
		RequestedBy: r.RequestedBy,
		ProfessorID: r.ProfessorID,
		Status:      r.Status,
		Message:     r.Message,
		DecidedBy:   r.DecidedBy,
		DecidedAt:   r.DecidedAt,
		CreatedAt:   r.CreatedAt,
	}
}

func (s *ProfessorRequestService) WithUserRepo(r repository.UserRepository) *ProfessorRequestService {
	s.users = r
	return s
}

func (s *ProfessorRequestService) WithTeamRepo(r repository.TeamRepository) *ProfessorRequestService {
	s.teams = r
	return s
}

func (s *ProfessorRequestService) WithProjectRepo(r repository.ProjectRepository) *ProfessorRequestService {
	s.projects = r
	return s
}

func (s *ProfessorRequestService) WithProfessorRequestRepo(r repository.ProfessorRequestRepository) *ProfessorRequestService {
	s.requests = r
	return s
}

func (s *ProfessorRequestService) WithActivityRepo(r repository.ActivityRepository) *ProfessorRequestService {
	s.activities = r
	return s
}

func (s *ProfessorRequestService) WithNotifier(n notifier.Notifier) *ProfessorRequestService {
	s.notifier = n
	return s
}
