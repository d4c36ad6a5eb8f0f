package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/pkg/errors"
	"github.com/yakoovad/capstone-tracker/internal/db"
	"github.com/yakoovad/capstone-tracker/internal/model"
	"github.com/yakoovad/capstone-tracker/internal/notifier"
	"github.com/yakoovad/capstone-tracker/internal/repository"
	"github.com/yakoovad/capstone-tracker/pkg/logger"
	"go.uber.org/zap"
)

type TeamService struct {
	tx db.Transactor

	users    repository.UserRepository
	teams    repository.TeamRepository
	projects repository.ProjectRepository
	notifier notifier.Notifier
}

func NewTeamService(tx db.Transactor) *TeamService {
	return &TeamService{
		tx: tx,
	}
}

// CreateTeam creates a team and admits the creator. Students and admins start as
// LEADER; everyone else, professors included, joins as MEMBER.
func (t *TeamService) CreateTeam(ctx context.Context, name, description, creatorID string) (*model.Team, *Error) {
	l := logger.FromContext(ctx)
	l.Info("creating team", zap.String("team_name", name), zap.String("creator_id", creatorID))

	name = strings.TrimSpace(name)
	if name == "" {
		return nil, NewError(ErrorCodeInvalidArgument, "team_name is required")
	}

	var res *model.Team
	err := t.tx.WithinTransaction(ctx, func(txCtx context.Context) error {
		creator, e := loadUser(txCtx, t.users, creatorID)
		if e != nil {
			return e
		}

		team := &repository.Team{
			Name:        name,
			Description: description,
		}
		err := t.teams.Create(txCtx, team)
		if errors.Is(err, repository.ErrAlreadyExists) {
			l.Warn("team already exists", zap.String("team_name", name))
			return NewError(ErrorCodeDuplicateName, "team_name already exists")
		}
		if err != nil {
			l.Error("failed to create team", zap.String("team_name", name), zap.Error(err))
			return NewError(ErrorCodeUnspecified, "failed to create team")
		}

		role := model.TeamRoleMember
		if creator.Role.CanLead() {
			role = model.TeamRoleLeader
		}

		if err = t.teams.AddMember(txCtx, team.ID, creator.ID, role); err != nil {
			l.Error("failed to add team creator",
				zap.String("team_id", team.ID),
				zap.String("user_id", creator.ID),
				zap.Error(err))
			return NewError(ErrorCodeUnspecified, "failed to add team creator")
		}

		res = toModelTeam(team, []*repository.Member{{
			TeamID:   team.ID,
			UserID:   creator.ID,
			Username: creator.Username,
			UserRole: creator.Role,
			TeamRole: role,
		}})

		l.Debug("team created successfully", zap.String("team_id", team.ID), zap.String("creator_role", string(role)))

		return nil
	})
	if e := asError(err); e != nil {
		return nil, e
	}

	return res, nil
}

func (t *TeamService) GetTeam(ctx context.Context, teamID string) (*model.Team, *Error) {
	l := logger.FromContext(ctx)
	l.Debug("getting team", zap.String("team_id", teamID))

	team, e := loadTeam(ctx, t.teams, teamID)
	if e != nil {
		return nil, e
	}

	members, err := t.teams.GetMembers(ctx, teamID)
	if err != nil {
		l.Error("failed to get team members", zap.String("team_id", teamID), zap.Error(err))
		return nil, NewError(ErrorCodeUnspecified, "failed to get team members")
	}

	return toModelTeam(team, members), nil
}

// AddMember admits userID as a MEMBER. Admins and existing members may add.
func (t *TeamService) AddMember(ctx context.Context, teamID, userID, requesterID string) (*model.TeamMember, *Error) {
	l := logger.FromContext(ctx)
	l.Info("adding team member",
		zap.String("team_id", teamID),
		zap.String("user_id", userID),
		zap.String("requester_id", requesterID))

	var res *model.TeamMember
	err := t.tx.WithinTransaction(ctx, func(txCtx context.Context) error {
		if _, e := loadTeam(txCtx, t.teams, teamID); e != nil {
			return e
		}

		requester, e := loadUser(txCtx, t.users, requesterID)
		if e != nil {
			return e
		}
		if e = requireMemberOrAdmin(txCtx, t.teams, teamID, requester); e != nil {
			return e
		}

		user, e := loadUser(txCtx, t.users, userID)
		if e != nil {
			return e
		}

		existing, e := findMember(txCtx, t.teams, teamID, userID)
		if e != nil {
			return e
		}
		if existing != nil {
			return NewError(ErrorCodeAlreadyMember, "user is already a team member")
		}

		if err := t.teams.AddMember(txCtx, teamID, userID, model.TeamRoleMember); err != nil {
			l.Error("failed to add team member", zap.String("team_id", teamID), zap.String("user_id", userID), zap.Error(err))
			return NewError(ErrorCodeUnspecified, "failed to add team member")
		}

		res = &model.TeamMember{
			UserID:   user.ID,
			Username: user.Username,
			Role:     user.Role,
			TeamRole: model.TeamRoleMember,
		}
		return nil
	})
	if e := asError(err); e != nil {
		return nil, e
	}

	return res, nil
}

// ChangeLeader makes newLeaderID the only LEADER of the team. Calling it with the
// current leader changes nothing. Any stray extra LEADER rows are demoted too.
func (t *TeamService) ChangeLeader(ctx context.Context, teamID, newLeaderID, requesterID string) (*model.Team, *Error) {
	l := logger.FromContext(ctx)
	l.Info("changing team leader",
		zap.String("team_id", teamID),
		zap.String("new_leader_id", newLeaderID),
		zap.String("requester_id", requesterID))

	var (
		res   *model.Team
		notes []*model.Notification
	)
	err := t.tx.WithinTransaction(ctx, func(txCtx context.Context) error {
		team, members, e := t.loadForManagement(txCtx, teamID, requesterID)
		if e != nil {
			return e
		}

		target := memberByID(members, newLeaderID)
		if target == nil {
			return NewError(ErrorCodeNotATeamMember, "new leader is not a team member")
		}
		if !target.UserRole.CanLead() {
			l.Warn("refusing leadership for role", zap.String("user_id", newLeaderID), zap.String("role", string(target.UserRole)))
			return NewError(ErrorCodeInvalidLeader, "only students and admins can lead a team")
		}

		// Demote first: the schema allows a single LEADER row per team.
		for _, m := range members {
			if m.TeamRole != model.TeamRoleLeader || m.UserID == target.UserID {
				continue
			}
			if err := t.teams.SetMemberRole(txCtx, teamID, m.UserID, model.TeamRoleMember); err != nil {
				l.Error("failed to demote leader", zap.String("team_id", teamID), zap.String("user_id", m.UserID), zap.Error(err))
				return NewError(ErrorCodeUnspecified, "failed to demote leader")
			}
			m.TeamRole = model.TeamRoleMember
		}

		if target.TeamRole != model.TeamRoleLeader {
			if err := t.teams.SetMemberRole(txCtx, teamID, target.UserID, model.TeamRoleLeader); err != nil {
				l.Error("failed to promote leader", zap.String("team_id", teamID), zap.String("user_id", target.UserID), zap.Error(err))
				return NewError(ErrorCodeUnspecified, "failed to promote leader")
			}
			target.TeamRole = model.TeamRoleLeader

			notes = append(notes, &model.Notification{
				RecipientID: target.UserID,
				Type:        model.NotificationTeamLeaderChanged,
				Title:       "You are now team leader",
				Body:        fmt.Sprintf("You are now the leader of %s", team.Name),
				Payload: map[string]any{
					"team_id":   team.ID,
					"team_name": team.Name,
				},
			})
		}

		res = toModelTeam(team, members)
		return nil
	})
	if e := asError(err); e != nil {
		return nil, e
	}

	dispatch(ctx, t.notifier, notes...)
	return res, nil
}

// RemoveMember removes a non-leader member. The leader has to be replaced first.
func (t *TeamService) RemoveMember(ctx context.Context, teamID, memberID, requesterID string) *Error {
	l := logger.FromContext(ctx)
	l.Info("removing team member",
		zap.String("team_id", teamID),
		zap.String("member_id", memberID),
		zap.String("requester_id", requesterID))

	var notes []*model.Notification
	err := t.tx.WithinTransaction(ctx, func(txCtx context.Context) error {
		team, members, e := t.loadForManagement(txCtx, teamID, requesterID)
		if e != nil {
			return e
		}

		target := memberByID(members, memberID)
		if target == nil {
			return NewError(ErrorCodeNotATeamMember, "user is not a team member")
		}
		if target.TeamRole == model.TeamRoleLeader {
			l.Warn("refusing to remove team leader", zap.String("team_id", teamID), zap.String("member_id", memberID))
			return NewError(ErrorCodeCannotRemoveLeader, "reassign leadership before removing the leader")
		}

		if err := t.teams.RemoveMember(txCtx, teamID, memberID); err != nil {
			l.Error("failed to remove team member", zap.String("team_id", teamID), zap.String("member_id", memberID), zap.Error(err))
			return NewError(ErrorCodeUnspecified, "failed to remove team member")
		}

		if memberID != requesterID {
			notes = append(notes, &model.Notification{
				RecipientID: memberID,
				Type:        model.NotificationTeamMemberRemoved,
				Title:       "Removed from team",
				Body:        fmt.Sprintf("You were removed from %s", team.Name),
				Payload: map[string]any{
					"team_id":   team.ID,
					"team_name": team.Name,
				},
			})
		}
		return nil
	})
	if e := asError(err); e != nil {
		return e
	}

	dispatch(ctx, t.notifier, notes...)
	return nil
}

// DeleteTeam deletes a team that no project references, memberships first.
func (t *TeamService) DeleteTeam(ctx context.Context, teamID, requesterID string) *Error {
	l := logger.FromContext(ctx)
	l.Info("deleting team", zap.String("team_id", teamID), zap.String("requester_id", requesterID))

	err := t.tx.WithinTransaction(ctx, func(txCtx context.Context) error {
		err := t.teams.Lock(txCtx, teamID)
		switch {
		case errors.Is(err, repository.ErrNotFound):
			return NewError(ErrorCodeNotFound, "team not found")
		case err != nil:
			l.Error("failed to lock team", zap.String("team_id", teamID), zap.Error(err))
			return NewError(ErrorCodeUnspecified, "failed to lock team")
		}

		if _, _, e := t.loadForManagement(txCtx, teamID, requesterID); e != nil {
			return e
		}

		hasProject, err := t.projects.ExistsForTeam(txCtx, teamID)
		if err != nil {
			l.Error("failed to check team projects", zap.String("team_id", teamID), zap.Error(err))
			return NewError(ErrorCodeUnspecified, "failed to check team projects")
		}
		if hasProject {
			return NewError(ErrorCodeTeamHasProject, "team is attached to a project")
		}

		if err = t.teams.RemoveAllMembers(txCtx, teamID); err != nil {
			l.Error("failed to remove team members", zap.String("team_id", teamID), zap.Error(err))
			return NewError(ErrorCodeUnspecified, "failed to remove team members")
		}

		err = t.teams.Delete(txCtx, teamID)
		switch {
		case errors.Is(err, repository.ErrNotFound):
			return NewError(ErrorCodeNotFound, "team not found")
		case err != nil:
			l.Error("failed to delete team", zap.String("team_id", teamID), zap.Error(err))
			return NewError(ErrorCodeUnspecified, "failed to delete team")
		}

		l.Debug("team deleted successfully", zap.String("team_id", teamID))
		return nil
	})

	return asError(err)
}

// loadForManagement loads the team and its members and checks that the requester
// is an admin, a professor or the current team leader.
func (t *TeamService) loadForManagement(ctx context.Context, teamID, requesterID string) (*repository.Team, []*repository.Member, *Error) {
	team, e := loadTeam(ctx, t.teams, teamID)
	if e != nil {
		return nil, nil, e
	}

	requester, e := loadUser(ctx, t.users, requesterID)
	if e != nil {
		return nil, nil, e
	}

	members, err := t.teams.GetMembers(ctx, teamID)
	if err != nil {
		logger.FromContext(ctx).Error("failed to get team members", zap.String("team_id", teamID), zap.Error(err))
		return nil, nil, NewError(ErrorCodeUnspecified, "failed to get team members")
	}

	switch requester.Role {
	case model.RoleAdmin, model.RoleProfessor:
		return team, members, nil
	}

	if m := memberByID(members, requesterID); m != nil && m.TeamRole == model.TeamRoleLeader {
		return team, members, nil
	}

	logger.FromContext(ctx).Warn("requester cannot manage team",
		zap.String("team_id", teamID),
		zap.String("requester_id", requesterID))
	return nil, nil, NewError(ErrorCodeForbidden, "only the team leader, a professor or an admin can manage the team")
}

func memberByID(members []*repository.Member, userID string) *repository.Member {
	for _, m := range members {
		if m.UserID == userID {
			return m
		}
	}
	return nil
}

func toModelTeam(team *repository.Team, members []*repository.Member) *model.Team {
	res := &model.Team{
		ID:          team.ID,
		Name:        team.Name,
		Description: team.Description,
		CreatedAt:   team.CreatedAt,
		Members:     make([]*model.TeamMember, 0, len(members)),
	}
	for _, m := range members {
		res.Members = append(res.Members, &model.TeamMember{
			UserID:   m.UserID,
			Username: m.Username,
			Role:     m.UserRole,
			TeamRole: m.TeamRole,
		})
	}
	return res
}

func (t *TeamService) WithUserRepo(r repository.UserRepository) *TeamService {
	t.users = r
	return t
}

func (t *TeamService) WithTeamRepo(r repository.TeamRepository) *TeamService {
	t.teams = r
	return t
}

func (t *TeamService) WithProjectRepo(r repository.ProjectRepository) *TeamService {
	t.projects = r
	return t
}

func (t *TeamService) WithNotifier(n notifier.Notifier) *TeamService {
	t.notifier = n
	return t
}
