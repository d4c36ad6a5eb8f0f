package service

import (
	"context"
	"fmt"
	"time"

	"github.com/pkg/errors"
	"github.com/yakoovad/capstone-tracker/internal/db"
	"github.com/yakoovad/capstone-tracker/internal/model"
	"github.com/yakoovad/capstone-tracker/internal/notifier"
	"github.com/yakoovad/capstone-tracker/internal/repository"
	"github.com/yakoovad/capstone-tracker/pkg/logger"
	"go.uber.org/zap"
)

type InvitationService struct {
	tx db.Transactor

	users       repository.UserRepository
	teams       repository.TeamRepository
	invitations repository.InvitationRepository
	notifier    notifier.Notifier
}

func NewInvitationService(tx db.Transactor) *InvitationService {
	return &InvitationService{tx: tx}
}

// Invite creates a PENDING invitation for a student and notifies them.
func (s *InvitationService) Invite(ctx context.Context, teamID, inviteeID, requesterID, message string) (*model.Invitation, *Error) {
	l := logger.FromContext(ctx)
	l.Info("inviting user",
		zap.String("team_id", teamID),
		zap.String("invitee_id", inviteeID),
		zap.String("requester_id", requesterID))

	var (
		res  *model.Invitation
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

		invitee, e := loadUser(txCtx, s.users, inviteeID)
		if e != nil {
			return e
		}

		member, e := findMember(txCtx, s.teams, teamID, inviteeID)
		if e != nil {
			return e
		}
		if member != nil {
			return NewError(ErrorCodeAlreadyMember, "user is already a team member")
		}

		if invitee.Role != model.RoleStudent {
			l.Warn("refusing invitation for non-student", zap.String("invitee_id", inviteeID), zap.String("role", string(invitee.Role)))
			return NewError(ErrorCodeInvalidInvitee, "only students can be invited")
		}

		pending, err := s.invitations.HasPending(txCtx, teamID, inviteeID)
		if err != nil {
			l.Error("failed to check pending invitations", zap.String("team_id", teamID), zap.Error(err))
			return NewError(ErrorCodeUnspecified, "failed to check pending invitations")
		}
		if pending {
			return NewError(ErrorCodeDuplicatePending, "a pending invitation already exists")
		}

		inv := &repository.Invitation{
			TeamID:    team.ID,
			TeamName:  team.Name,
			InviterID: requester.ID,
			InviteeID: invitee.ID,
			Message:   message,
		}
		err = s.invitations.Create(txCtx, inv)
		switch {
		case errors.Is(err, repository.ErrAlreadyExists):
			return NewError(ErrorCodeDuplicatePending, "a pending invitation already exists")
		case err != nil:
			l.Error("failed to create invitation", zap.String("team_id", teamID), zap.Error(err))
			return NewError(ErrorCodeUnspecified, "failed to create invitation")
		}

		res = toModelInvitation(inv)
		note = &model.Notification{
			RecipientID: invitee.ID,
			Type:        model.NotificationInvitationReceived,
			Title:       "Team invitation",
			Body:        fmt.Sprintf("%s invited you to join %s", requester.Username, team.Name),
			Payload: map[string]any{
				"invitation_id": inv.ID,
				"team_id":       team.ID,
				"team_name":     team.Name,
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

// Accept admits the invitee as a MEMBER and closes the invitation.
func (s *InvitationService) Accept(ctx context.Context, invitationID, userID string) (*model.Invitation, *Error) {
	return s.decide(ctx, invitationID, userID, model.InvitationStatusAccepted)
}

func (s *InvitationService) Decline(ctx context.Context, invitationID, userID string) (*model.Invitation, *Error) {
	return s.decide(ctx, invitationID, userID, model.InvitationStatusDeclined)
}

func (s *InvitationService) decide(ctx context.Context, invitationID, userID string, status model.InvitationStatus) (*model.Invitation, *Error) {
	l := logger.FromContext(ctx)
	l.Info("deciding invitation",
		zap.String("invitation_id", invitationID),
		zap.String("user_id", userID),
		zap.String("status", string(status)))

	var (
		res  *model.Invitation
		note *model.Notification
	)
	err := s.tx.WithinTransaction(ctx, func(txCtx context.Context) error {
		inv, err := s.invitations.Get(txCtx, invitationID)
		switch {
		case errors.Is(err, repository.ErrNotFound):
			return NewError(ErrorCodeNotFound, "invitation not found")
		case err != nil:
			l.Error("failed to get invitation", zap.String("invitation_id", invitationID), zap.Error(err))
			return NewError(ErrorCodeUnspecified, "failed to get invitation")
		}

		// Other users' invitations are reported as missing.
		if inv.InviteeID != userID {
			return NewError(ErrorCodeNotFound, "invitation not found")
		}
		if inv.Status != model.InvitationStatusPending {
			return NewError(ErrorCodeAlreadyDecided, "invitation has already been decided")
		}

		if status == model.InvitationStatusAccepted {
			if inv.TeamID == "" {
				return NewError(ErrorCodeNotFound, "team no longer exists")
			}
			member, e := findMember(txCtx, s.teams, inv.TeamID, userID)
			if e != nil {
				return e
			}
			if member == nil {
				if err = s.teams.AddMember(txCtx, inv.TeamID, userID, model.TeamRoleMember); err != nil {
					l.Error("failed to add team member", zap.String("team_id", inv.TeamID), zap.String("user_id", userID), zap.Error(err))
					return NewError(ErrorCodeUnspecified, "failed to add team member")
				}
			}
		}

		now := time.Now()
		err = s.invitations.Decide(txCtx, inv.ID, status, now)
		switch {
		case errors.Is(err, repository.ErrNotFound):
			return NewError(ErrorCodeAlreadyDecided, "invitation has already been decided")
		case err != nil:
			l.Error("failed to update invitation", zap.String("invitation_id", inv.ID), zap.Error(err))
			return NewError(ErrorCodeUnspecified, "failed to update invitation")
		}

		inv.Status = status
		inv.DecidedAt = &now
		res = toModelInvitation(inv)

		noteType, verb := model.NotificationInvitationAccepted, "accepted"
		if status == model.InvitationStatusDeclined {
			noteType, verb = model.NotificationInvitationDeclined, "declined"
		}
		note = &model.Notification{
			RecipientID: inv.InviterID,
			Type:        noteType,
			Title:       "Invitation " + verb,
			Body:        fmt.Sprintf("Your invitation to %s was %s", inv.TeamName, verb),
			Payload: map[string]any{
				"invitation_id": inv.ID,
				"team_id":       inv.TeamID,
				"team_name":     inv.TeamName,
				"invitee_id":    inv.InviteeID,
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

// ListInvitations returns invitations addressed to userID, newest first.
func (s *InvitationService) ListInvitations(ctx context.Context, userID string, status *model.InvitationStatus) ([]*model.Invitation, *Error) {
	invs, err := s.invitations.ListByInvitee(ctx, userID, status)
	if err != nil {
		logger.FromContext(ctx).Error("failed to list invitations", zap.String("user_id", userID), zap.Error(err))
		return nil, NewError(ErrorCodeUnspecified, "failed to list invitations")
	}

	res := make([]*model.Invitation, 0, len(invs))
	for _, inv := range invs {
		res = append(res, toModelInvitation(inv))
	}
	return res, nil
}

func toModelInvitation(inv *repository.Invitation) *model.Invitation {
	return &model.Invitation{
		ID:        inv.ID,
		TeamID:    inv.TeamID,
		TeamName:  inv.TeamName,
		InviterID: inv.InviterID,
		InviteeID: inv.InviteeID,
		Status:    inv.Status,
		Message:   inv.Message,
		CreatedAt: inv.CreatedAt,
		DecidedAt: inv.DecidedAt,
	}
}

func (s *InvitationService) WithUserRepo(r repository.UserRepository) *InvitationService {
	s.users = r
	return s
}

func (s *InvitationService) WithTeamRepo(r repository.TeamRepository) *InvitationService {
	s.teams = r
	return s
}

func (s *InvitationService) WithInvitationRepo(r repository.InvitationRepository) *InvitationService {
	s.invitations = r
	return s
}

func (s *InvitationService) WithNotifier(n notifier.Notifier) *InvitationService {
	s.notifier = n
	return s
}
