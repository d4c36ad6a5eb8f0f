package service

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/yakoovad/capstone-tracker/internal/model"
	"github.com/yakoovad/capstone-tracker/internal/repository"
)

type MockTransactor struct {
	mock.Mock
}

func (m *MockTransactor) WithinTransaction(ctx context.Context, fn func(context.Context) error) error {
	return fn(ctx)
}

type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) Get(ctx context.Context, userID string) (*repository.User, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*repository.User), args.Error(1)
}

type MockTeamRepository struct {
	mock.Mock
}

func (m *MockTeamRepository) Create(ctx context.Context, team *repository.Team) error {
	args := m.Called(ctx, team)
	return args.Error(0)
}

func (m *MockTeamRepository) Get(ctx context.Context, teamID string) (*repository.Team, error) {
	args := m.Called(ctx, teamID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*repository.Team), args.Error(1)
}

func (m *MockTeamRepository) Lock(ctx context.Context, teamID string) error {
	args := m.Called(ctx, teamID)
	return args.Error(0)
}

func (m *MockTeamRepository) Delete(ctx context.Context, teamID string) error {
	args := m.Called(ctx, teamID)
	return args.Error(0)
}

func (m *MockTeamRepository) GetMembers(ctx context.Context, teamID string) ([]*repository.Member, error) {
	args := m.Called(ctx, teamID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*repository.Member), args.Error(1)
}

func (m *MockTeamRepository) GetMember(ctx context.Context, teamID, userID string) (*repository.Member, error) {
	args := m.Called(ctx, teamID, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*repository.Member), args.Error(1)
}

func (m *MockTeamRepository) AddMember(ctx context.Context, teamID, userID string, role model.TeamRole) error {
	args := m.Called(ctx, teamID, userID, role)
	return args.Error(0)
}

func (m *MockTeamRepository) SetMemberRole(ctx context.Context, teamID, userID string, role model.TeamRole) error {
	args := m.Called(ctx, teamID, userID, role)
	return args.Error(0)
}

func (m *MockTeamRepository) RemoveMember(ctx context.Context, teamID, userID string) error {
	args := m.Called(ctx, teamID, userID)
	return args.Error(0)
}

func (m *MockTeamRepository) RemoveAllMembers(ctx context.Context, teamID string) error {
	args := m.Called(ctx, teamID)
	return args.Error(0)
}

type MockProjectRepository struct {
	mock.Mock
}

func (m *MockProjectRepository) Create(ctx context.Context, project *repository.Project) error {
	args := m.Called(ctx, project)
	return args.Error(0)
}

func (m *MockProjectRepository) Get(ctx context.Context, projectID string) (*repository.Project, error) {
	args := m.Called(ctx, projectID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*repository.Project), args.Error(1)
}

func (m *MockProjectRepository) SetProfessor(ctx context.Context, projectID, professorID string) error {
	args := m.Called(ctx, projectID, professorID)
	return args.Error(0)
}

func (m *MockProjectRepository) ExistsForTeam(ctx context.Context, teamID string) (bool, error) {
	args := m.Called(ctx, teamID)
	return args.Bool(0), args.Error(1)
}

type MockInvitationRepository struct {
	mock.Mock
}

func (m *MockInvitationRepository) Create(ctx context.Context, inv *repository.Invitation) error {
	args := m.Called(ctx, inv)
	return args.Error(0)
}

func (m *MockInvitationRepository) Get(ctx context.Context, invitationID string) (*repository.Invitation, error) {
	args := m.Called(ctx, invitationID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*repository.Invitation), args.Error(1)
}

func (m *MockInvitationRepository) HasPending(ctx context.Context, teamID, inviteeID string) (bool, error) {
	args := m.Called(ctx, teamID, inviteeID)
	return args.Bool(0), args.Error(1)
}

func (m *MockInvitationRepository) Decide(ctx context.Context, invitationID string, status model.InvitationStatus, decidedAt time.Time) error {
	args := m.Called(ctx, invitationID, status, decidedAt)
	return args.Error(0)
}

func (m *MockInvitationRepository) ListByInvitee(ctx context.Context, inviteeID string, status *model.InvitationStatus) ([]*repository.Invitation, error) {
	args := m.Called(ctx, inviteeID, status)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*repository.Invitation), args.Error(1)
}

type MockProfessorRequestRepository struct {
	mock.Mock
}

func (m *MockProfessorRequestRepository) Create(ctx context.Context, req *repository.ProfessorRequest) error {
	args := m.Called(ctx, req)
	return args.Error(0)
}

func (m *MockProfessorRequestRepository) Get(ctx context.Context, requestID string) (*repository.ProfessorRequest, error) {
	args := m.Called(ctx, requestID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*repository.ProfessorRequest), args.Error(1)
}

func (m *MockProfessorRequestRepository) HasPendingForTitle(ctx context.Context, teamID, title string) (bool, error) {
	args := m.Called(ctx, teamID, title)
	return args.Bool(0), args.Error(1)
}

func (m *MockProfessorRequestRepository) HasPendingForProject(ctx context.Context, projectID string) (bool, error) {
	args := m.Called(ctx, projectID)
	return args.Bool(0), args.Error(1)
}

func (m *MockProfessorRequestRepository) Decide(ctx context.Context, decision *repository.ProfessorRequestDecision) error {
	args := m.Called(ctx, decision)
	return args.Error(0)
}

func (m *MockProfessorRequestRepository) ListByProfessor(ctx context.Context, professorID string, status *model.RequestStatus) ([]*repository.ProfessorRequest, error) {
	args := m.Called(ctx, professorID, status)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*repository.ProfessorRequest), args.Error(1)
}

type MockAssignmentRepository struct {
	mock.Mock
}

func (m *MockAssignmentRepository) Create(ctx context.Context, a *repository.Assignment) error {
	args := m.Called(ctx, a)
	return args.Error(0)
}

func (m *MockAssignmentRepository) Get(ctx context.Context, assignmentID string) (*repository.Assignment, error) {
	args := m.Called(ctx, assignmentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*repository.Assignment), args.Error(1)
}

func (m *MockAssignmentRepository) SetStatus(ctx context.Context, assignmentID string, status model.AssignmentStatus) error {
	args := m.Called(ctx, assignmentID, status)
	return args.Error(0)
}

func (m *MockAssignmentRepository) ListReviewQueue(ctx context.Context, professorID string, dueBefore time.Time, limit int) ([]*repository.Assignment, error) {
	args := m.Called(ctx, professorID, dueBefore, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*repository.Assignment), args.Error(1)
}

type MockActivityRepository struct {
	mock.Mock
}

func (m *MockActivityRepository) Append(ctx context.Context, a *repository.Activity) error {
	args := m.Called(ctx, a)
	return args.Error(0)
}

type MockNotificationRepository struct {
	mock.Mock
}

func (m *MockNotificationRepository) Create(ctx context.Context, n *repository.Notification) error {
	args := m.Called(ctx, n)
	return args.Error(0)
}

func (m *MockNotificationRepository) ListByRecipient(ctx context.Context, recipientID string, unreadOnly bool) ([]*repository.Notification, error) {
	args := m.Called(ctx, recipientID, unreadOnly)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*repository.Notification), args.Error(1)
}

func (m *MockNotificationRepository) MarkRead(ctx context.Context, notificationID, recipientID string) error {
	args := m.Called(ctx, notificationID, recipientID)
	return args.Error(0)
}

type MockNotifier struct {
	mock.Mock
}

func (m *MockNotifier) Notify(ctx context.Context, n *model.Notification) error {
	args := m.Called(ctx, n)
	return args.Error(0)
}
