package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/yakoovad/capstone-tracker/internal/model"
	"github.com/yakoovad/capstone-tracker/internal/repository"
)

func TestInvitationService_Invite(t *testing.T) {
	team := &repository.Team{ID: "t1", Name: "Alpha"}

	tests := []struct {
		name       string
		inviteeID  string
		setupMocks func(*MockUserRepository, *MockTeamRepository, *MockInvitationRepository, *MockNotifier)
		errorCode  ErrorCode
	}{
		{
			name:      "success",
			inviteeID: "s2",
			setupMocks: func(ur *MockUserRepository, tr *MockTeamRepository, ir *MockInvitationRepository, n *MockNotifier) {
				tr.On("GetMember", mock.Anything, "t1", "s2").Return(nil, repository.ErrNotFound)
				ur.On("Get", mock.Anything, "s2").Return(student2, nil)
				ir.On("HasPending", mock.Anything, "t1", "s2").Return(false, nil)
				ir.On("Create", mock.Anything, mock.MatchedBy(func(inv *repository.Invitation) bool {
					return inv.TeamID == "t1" && inv.InviterID == "s1" && inv.InviteeID == "s2"
				})).Run(func(args mock.Arguments) {
					inv := args.Get(1).(*repository.Invitation)
					inv.ID = "i1"
					inv.Status = model.InvitationStatusPending
				}).Return(nil)
				n.On("Notify", mock.Anything, mock.MatchedBy(func(note *model.Notification) bool {
					return note.RecipientID == "s2" &&
						note.Type == model.NotificationInvitationReceived &&
						note.Payload["invitation_id"] == "i1"
				})).Return(nil)
			},
		},
		{
			name:      "notifier failure still succeeds",
			inviteeID: "s2",
			setupMocks: func(ur *MockUserRepository, tr *MockTeamRepository, ir *MockInvitationRepository, n *MockNotifier) {
				tr.On("GetMember", mock.Anything, "t1", "s2").Return(nil, repository.ErrNotFound)
				ur.On("Get", mock.Anything, "s2").Return(student2, nil)
				ir.On("HasPending", mock.Anything, "t1", "s2").Return(false, nil)
				ir.On("Create", mock.Anything, mock.Anything).Run(func(args mock.Arguments) {
					inv := args.Get(1).(*repository.Invitation)
					inv.ID = "i1"
					inv.Status = model.InvitationStatusPending
				}).Return(nil)
				n.On("Notify", mock.Anything, mock.Anything).Return(errors.New("redis down"))
			},
		},
		{
			name:      "already member",
			inviteeID: "s2",
			setupMocks: func(ur *MockUserRepository, tr *MockTeamRepository, ir *MockInvitationRepository, n *MockNotifier) {
				ur.On("Get", mock.Anything, "s2").Return(student2, nil)
				tr.On("GetMember", mock.Anything, "t1", "s2").Return(memberOf("t1", student2), nil)
			},
			errorCode: ErrorCodeAlreadyMember,
		},
		{
			name:      "duplicate pending",
			inviteeID: "s2",
			setupMocks: func(ur *MockUserRepository, tr *MockTeamRepository, ir *MockInvitationRepository, n *MockNotifier) {
				ur.On("Get", mock.Anything, "s2").Return(student2, nil)
				tr.On("GetMember", mock.Anything, "t1", "s2").Return(nil, repository.ErrNotFound)
				ir.On("HasPending", mock.Anything, "t1", "s2").Return(true, nil)
			},
			errorCode: ErrorCodeDuplicatePending,
		},
		{
			name:      "concurrent duplicate hits unique index",
			inviteeID: "s2",
			setupMocks: func(ur *MockUserRepository, tr *MockTeamRepository, ir *MockInvitationRepository, n *MockNotifier) {
				ur.On("Get", mock.Anything, "s2").Return(student2, nil)
				tr.On("GetMember", mock.Anything, "t1", "s2").Return(nil, repository.ErrNotFound)
				ir.On("HasPending", mock.Anything, "t1", "s2").Return(false, nil)
				ir.On("Create", mock.Anything, mock.Anything).Return(repository.ErrAlreadyExists)
			},
			errorCode: ErrorCodeDuplicatePending,
		},
		{
			name:      "professor cannot be invited",
			inviteeID: "p1",
			setupMocks: func(ur *MockUserRepository, tr *MockTeamRepository, ir *MockInvitationRepository, n *MockNotifier) {
				ur.On("Get", mock.Anything, "p1").Return(professor, nil)
				tr.On("GetMember", mock.Anything, "t1", "p1").Return(nil, repository.ErrNotFound)
			},
			errorCode: ErrorCodeInvalidInvitee,
		},
		{
			name:      "invitee not found",
			inviteeID: "ghost",
			setupMocks: func(ur *MockUserRepository, tr *MockTeamRepository, ir *MockInvitationRepository, n *MockNotifier) {
				ur.On("Get", mock.Anything, "ghost").Return(nil, repository.ErrNotFound)
			},
			errorCode: ErrorCodeNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockUserRepo := new(MockUserRepository)
			mockTeamRepo := new(MockTeamRepository)
			mockInvitationRepo := new(MockInvitationRepository)
			mockNotifier := new(MockNotifier)

			mockTeamRepo.On("Get", mock.Anything, "t1").Return(team, nil)
			mockUserRepo.On("Get", mock.Anything, "s1").Return(student1, nil)
			mockTeamRepo.On("GetMember", mock.Anything, "t1", "s1").Return(leaderOf("t1", student1), nil)
			tt.setupMocks(mockUserRepo, mockTeamRepo, mockInvitationRepo, mockNotifier)

			service := NewInvitationService(new(MockTransactor)).
				WithUserRepo(mockUserRepo).
				WithTeamRepo(mockTeamRepo).
				WithInvitationRepo(mockInvitationRepo).
				WithNotifier(mockNotifier)

			got, err := service.Invite(context.Background(), "t1", tt.inviteeID, "s1", "join us")

			if tt.errorCode != "" {
				require.NotNil(t, err)
				assert.Equal(t, tt.errorCode, err.Code)
				assert.Nil(t, got)
				mockNotifier.AssertNotCalled(t, "Notify", mock.Anything, mock.Anything)
			} else {
				require.Nil(t, err)
				assert.Equal(t, "i1", got.ID)
				assert.Equal(t, model.InvitationStatusPending, got.Status)
				assert.Equal(t, "Alpha", got.TeamName)
			}

			mockUserRepo.AssertExpectations(t)
			mockTeamRepo.AssertExpectations(t)
			mockInvitationRepo.AssertExpectations(t)
			mockNotifier.AssertExpectations(t)
		})
	}
}

func TestInvitationService_Invite_RequesterOutsideTeam(t *testing.T) {
	mockUserRepo := new(MockUserRepository)
	mockTeamRepo := new(MockTeamRepository)
	mockInvitationRepo := new(MockInvitationRepository)

	mockTeamRepo.On("Get", mock.Anything, "t1").Return(&repository.Team{ID: "t1"}, nil)
	mockUserRepo.On("Get", mock.Anything, "s2").Return(student2, nil)
	mockTeamRepo.On("GetMember", mock.Anything, "t1", "s2").Return(nil, repository.ErrNotFound)

	service := NewInvitationService(new(MockTransactor)).
		WithUserRepo(mockUserRepo).
		WithTeamRepo(mockTeamRepo).
		WithInvitationRepo(mockInvitationRepo)

	got, err := service.Invite(context.Background(), "t1", "s3", "s2", "")
	require.NotNil(t, err)
	assert.Equal(t, ErrorCodeForbidden, err.Code)
	assert.Nil(t, got)
	mockInvitationRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func pendingInvitation() *repository.Invitation {
	return &repository.Invitation{
		ID:        "i1",
		TeamID:    "t1",
		TeamName:  "Alpha",
		InviterID: "s1",
		InviteeID: "s2",
		Status:    model.InvitationStatusPending,
	}
}

func TestInvitationService_Accept(t *testing.T) {
	tests := []struct {
		name       string
		userID     string
		setupMocks func(*MockTeamRepository, *MockInvitationRepository, *MockNotifier)
		errorCode  ErrorCode
	}{
		{
			name:   "success",
			userID: "s2",
			setupMocks: func(tr *MockTeamRepository, ir *MockInvitationRepository, n *MockNotifier) {
				ir.On("Get", mock.Anything, "i1").Return(pendingInvitation(), nil)
				tr.On("GetMember", mock.Anything, "t1", "s2").Return(nil, repository.ErrNotFound)
				tr.On("AddMember", mock.Anything, "t1", "s2", model.TeamRoleMember).Return(nil)
				ir.On("Decide", mock.Anything, "i1", model.InvitationStatusAccepted, mock.Anything).Return(nil)
				n.On("Notify", mock.Anything, mock.MatchedBy(func(note *model.Notification) bool {
					return note.RecipientID == "s1" && note.Type == model.NotificationInvitationAccepted
				})).Return(nil)
			},
		},
		{
			name:   "already a member still closes invitation",
			userID: "s2",
			setupMocks: func(tr *MockTeamRepository, ir *MockInvitationRepository, n *MockNotifier) {
				ir.On("Get", mock.Anything, "i1").Return(pendingInvitation(), nil)
				tr.On("GetMember", mock.Anything, "t1", "s2").Return(memberOf("t1", student2), nil)
				ir.On("Decide", mock.Anything, "i1", model.InvitationStatusAccepted, mock.Anything).Return(nil)
				n.On("Notify", mock.Anything, mock.Anything).Return(nil)
			},
		},
		{
			name:   "someone else's invitation",
			userID: "s3",
			setupMocks: func(tr *MockTeamRepository, ir *MockInvitationRepository, n *MockNotifier) {
				ir.On("Get", mock.Anything, "i1").Return(pendingInvitation(), nil)
			},
			errorCode: ErrorCodeNotFound,
		},
		{
			name:   "already decided",
			userID: "s2",
			setupMocks: func(tr *MockTeamRepository, ir *MockInvitationRepository, n *MockNotifier) {
				inv := pendingInvitation()
				inv.Status = model.InvitationStatusDeclined
				ir.On("Get", mock.Anything, "i1").Return(inv, nil)
			},
			errorCode: ErrorCodeAlreadyDecided,
		},
		{
			name:   "lost race on decide",
			userID: "s2",
			setupMocks: func(tr *MockTeamRepository, ir *MockInvitationRepository, n *MockNotifier) {
				ir.On("Get", mock.Anything, "i1").Return(pendingInvitation(), nil)
				tr.On("GetMember", mock.Anything, "t1", "s2").Return(nil, repository.ErrNotFound)
				tr.On("AddMember", mock.Anything, "t1", "s2", model.TeamRoleMember).Return(nil)
				ir.On("Decide", mock.Anything, "i1", model.InvitationStatusAccepted, mock.Anything).Return(repository.ErrNotFound)
			},
			errorCode: ErrorCodeAlreadyDecided,
		},
		{
			name:   "team deleted since the invitation",
			userID: "s2",
			setupMocks: func(tr *MockTeamRepository, ir *MockInvitationRepository, n *MockNotifier) {
				inv := pendingInvitation()
				inv.TeamID = ""
				ir.On("Get", mock.Anything, "i1").Return(inv, nil)
			},
			errorCode: ErrorCodeNotFound,
		},
		{
			name:   "invitation not found",
			userID: "s2",
			setupMocks: func(tr *MockTeamRepository, ir *MockInvitationRepository, n *MockNotifier) {
				ir.On("Get", mock.Anything, "i1").Return(nil, repository.ErrNotFound)
			},
			errorCode: ErrorCodeNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockTeamRepo := new(MockTeamRepository)
			mockInvitationRepo := new(MockInvitationRepository)
			mockNotifier := new(MockNotifier)
			tt.setupMocks(mockTeamRepo, mockInvitationRepo, mockNotifier)

			service := NewInvitationService(new(MockTransactor)).
				WithTeamRepo(mockTeamRepo).
				WithInvitationRepo(mockInvitationRepo).
				WithNotifier(mockNotifier)

			got, err := service.Accept(context.Background(), "i1", tt.userID)

			if tt.errorCode != "" {
				require.NotNil(t, err)
				assert.Equal(t, tt.errorCode, err.Code)
				assert.Nil(t, got)
			} else {
				require.Nil(t, err)
				assert.Equal(t, model.InvitationStatusAccepted, got.Status)
				assert.NotNil(t, got.DecidedAt)
			}

			mockTeamRepo.AssertExpectations(t)
			mockInvitationRepo.AssertExpectations(t)
			mockNotifier.AssertExpectations(t)
		})
	}
}

func TestInvitationService_Decline(t *testing.T) {
	mockTeamRepo := new(MockTeamRepository)
	mockInvitationRepo := new(MockInvitationRepository)
	mockNotifier := new(MockNotifier)

	mockInvitationRepo.On("Get", mock.Anything, "i1").Return(pendingInvitation(), nil)
	mockInvitationRepo.On("Decide", mock.Anything, "i1", model.InvitationStatusDeclined, mock.Anything).Return(nil)
	mockNotifier.On("Notify", mock.Anything, mock.MatchedBy(func(note *model.Notification) bool {
		return note.RecipientID == "s1" && note.Type == model.NotificationInvitationDeclined
	})).Return(nil)

	service := NewInvitationService(new(MockTransactor)).
		WithTeamRepo(mockTeamRepo).
		WithInvitationRepo(mockInvitationRepo).
		WithNotifier(mockNotifier)

	got, err := service.Decline(context.Background(), "i1", "s2")
	require.Nil(t, err)
	assert.Equal(t, model.InvitationStatusDeclined, got.Status)

	mockTeamRepo.AssertNotCalled(t, "AddMember", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	mockInvitationRepo.AssertExpectations(t)
	mockNotifier.AssertExpectations(t)
}

func TestInvitationService_Decline_DeletedTeam(t *testing.T) {
	mockTeamRepo := new(MockTeamRepository)
	mockInvitationRepo := new(MockInvitationRepository)
	mockNotifier := new(MockNotifier)

	inv := pendingInvitation()
	inv.TeamID = ""
	mockInvitationRepo.On("Get", mock.Anything, "i1").Return(inv, nil)
	mockInvitationRepo.On("Decide", mock.Anything, "i1", model.InvitationStatusDeclined, mock.Anything).Return(nil)
	mockNotifier.On("Notify", mock.Anything, mock.MatchedBy(func(note *model.Notification) bool {
		return note.Payload["team_name"] == "Alpha"
	})).Return(nil)

	service := NewInvitationService(new(MockTransactor)).
		WithTeamRepo(mockTeamRepo).
		WithInvitationRepo(mockInvitationRepo).
		WithNotifier(mockNotifier)

	got, err := service.Decline(context.Background(), "i1", "s2")
	require.Nil(t, err)
	assert.Equal(t, model.InvitationStatusDeclined, got.Status)
	assert.Equal(t, "Alpha", got.TeamName)

	mockTeamRepo.AssertNotCalled(t, "GetMember", mock.Anything, mock.Anything, mock.Anything)
	mockInvitationRepo.AssertExpectations(t)
	mockNotifier.AssertExpectations(t)
}

func TestInvitationService_ListInvitations(t *testing.T) {
	pending := model.InvitationStatusPending

	mockInvitationRepo := new(MockInvitationRepository)
	mockInvitationRepo.On("ListByInvitee", mock.Anything, "s2", &pending).Return([]*repository.Invitation{pendingInvitation()}, nil)
	mockInvitationRepo.On("ListByInvitee", mock.Anything, "s3", (*model.InvitationStatus)(nil)).Return(nil, errors.New("db error"))

	service := NewInvitationService(new(MockTransactor)).WithInvitationRepo(mockInvitationRepo)

	got, err := service.ListInvitations(context.Background(), "s2", &pending)
	require.Nil(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "i1", got[0].ID)

	_, err = service.ListInvitations(context.Background(), "s3", nil)
	require.NotNil(t, err)
	assert.Equal(t, ErrorCodeUnspecified, err.Code)
}
