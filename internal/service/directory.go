package service

import (
	"context"

	"github.com/pkg/errors"
	"github.com/yakoovad/capstone-tracker/internal/model"
	"github.com/yakoovad/capstone-tracker/internal/notifier"
	"github.com/yakoovad/capstone-tracker/internal/repository"
	"github.com/yakoovad/capstone-tracker/pkg/logger"
	"go.uber.org/zap"
)

func loadUser(ctx context.Context, users repository.UserRepository, userID string) (*repository.User, *Error) {
	u, err := users.Get(ctx, userID)
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return nil, NewError(ErrorCodeNotFound, "user not found")
	case err != nil:
		logger.FromContext(ctx).Error("failed to get user", zap.String("user_id", userID), zap.Error(err))
		return nil, NewError(ErrorCodeUnspecified, "failed to get user")
	}
	return u, nil
}

func loadTeam(ctx context.Context, teams repository.TeamRepository, teamID string) (*repository.Team, *Error) {
	team, err := teams.Get(ctx, teamID)
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return nil, NewError(ErrorCodeNotFound, "team not found")
	case err != nil:
		logger.FromContext(ctx).Error("failed to get team", zap.String("team_id", teamID), zap.Error(err))
		return nil, NewError(ErrorCodeUnspecified, "failed to get team")
	}
	return team, nil
}

func loadProject(ctx context.Context, projects repository.ProjectRepository, projectID string) (*repository.Project, *Error) {
	project, err := projects.Get(ctx, projectID)
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return nil, NewError(ErrorCodeNotFound, "project not found")
	case err != nil:
		logger.FromContext(ctx).Error("failed to get project", zap.String("project_id", projectID), zap.Error(err))
		return nil, NewError(ErrorCodeUnspecified, "failed to get project")
	}
	return project, nil
}

// findMember returns nil, nil when the user does not belong to the team.
func findMember(ctx context.Context, teams repository.TeamRepository, teamID, userID string) (*repository.Member, *Error) {
	m, err := teams.GetMember(ctx, teamID, userID)
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return nil, nil
	case err != nil:
		logger.FromContext(ctx).Error("failed to get team member",
			zap.String("team_id", teamID),
			zap.String("user_id", userID),
			zap.Error(err))
		return nil, NewError(ErrorCodeUnspecified, "failed to get team member")
	}
	return m, nil
}

// requireMemberOrAdmin allows admins and members of the team.
func requireMemberOrAdmin(ctx context.Context, teams repository.TeamRepository, teamID string, requester *repository.User) *Error {
	if requester.Role == model.RoleAdmin {
		return nil
	}
	m, e := findMember(ctx, teams, teamID, requester.ID)
	if e != nil {
		return e
	}
	if m == nil {
		logger.FromContext(ctx).Warn("requester is not a team member",
			zap.String("team_id", teamID),
			zap.String("user_id", requester.ID))
		return NewError(ErrorCodeForbidden, "requester is not a member of the team")
	}
	return nil
}

// dispatch delivers notifications after the workflow transaction committed.
// Failures are logged and never reach the caller.
func dispatch(ctx context.Context, n notifier.Notifier, notes ...*model.Notification) {
	if n == nil {
		return
	}
	l := logger.FromContext(ctx)
	for _, note := range notes {
		if err := n.Notify(ctx, note); err != nil {
			l.Warn("failed to deliver notification",
				zap.String("recipient_id", note.RecipientID),
				zap.String("type", string(note.Type)),
				zap.Error(err))
		}
	}
}
