package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/yakoovad/capstone-tracker/internal/model"
	"github.com/yakoovad/capstone-tracker/internal/repository"
)

type assignmentMocks struct {
	users       *MockUserRepository
	teams       *MockTeamRepository
	projects    *MockProjectRepository
	assignments *MockAssignmentRepository
	activities  *MockActivityRepository
	notifier    *MockNotifier
}

func newAssignmentMocks() *assignmentMocks {
	return &assignmentMocks{
		users:       new(MockUserRepository),
		teams:       new(MockTeamRepository),
		projects:    new(MockProjectRepository),
		assignments: new(MockAssignmentRepository),
		activities:  new(MockActivityRepository),
		notifier:    new(MockNotifier),
	}
}

func (m *assignmentMocks) service() *AssignmentService {
	return NewAssignmentService(new(MockTransactor)).
		WithUserRepo(m.users).
		WithTeamRepo(m.teams).
		WithProjectRepo(m.projects).
		WithAssignmentRepo(m.assignments).
		WithActivityRepo(m.activities).
		WithNotifier(m.notifier)
}

func supervisedProject(id string) *repository.Project {
	professorID := "p1"
	return &repository.Project{ID: id, Title: "Capstone " + id, TeamID: "t1", ProfessorID: &professorID, Status: model.ProjectStatusActive}
}

func assignmentIn(id, projectID string, status model.AssignmentStatus) *repository.Assignment {
	return &repository.Assignment{ID: id, ProjectID: projectID, Title: "task " + id, Status: status}
}

func TestAssignmentService_CreateAssignment(t *testing.T) {
	due := time.Date(2026, 11, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name        string
		title       string
		requesterID string
		setupMocks  func(*assignmentMocks)
		errorCode   ErrorCode
	}{
		{
			name:        "team member creates",
			title:       "Design doc",
			requesterID: "s1",
			setupMocks: func(m *assignmentMocks) {
				m.projects.On("Get", mock.Anything, "pr1").Return(supervisedProject("pr1"), nil)
				m.users.On("Get", mock.Anything, "s1").Return(student1, nil)
				m.teams.On("GetMember", mock.Anything, "t1", "s1").Return(leaderOf("t1", student1), nil)
				m.assignments.On("Create", mock.Anything, mock.MatchedBy(func(a *repository.Assignment) bool {
					return a.Status == model.AssignmentStatusOngoing && a.Title == "Design doc" && a.DueDate.Equal(due)
				})).Run(func(args mock.Arguments) {
					args.Get(1).(*repository.Assignment).ID = "as1"
				}).Return(nil)
			},
		},
		{
			name:        "supervising professor creates",
			title:       "Design doc",
			requesterID: "p1",
			setupMocks: func(m *assignmentMocks) {
				m.projects.On("Get", mock.Anything, "pr1").Return(supervisedProject("pr1"), nil)
				m.users.On("Get", mock.Anything, "p1").Return(professor, nil)
				m.assignments.On("Create", mock.Anything, mock.Anything).Run(func(args mock.Arguments) {
					args.Get(1).(*repository.Assignment).ID = "as1"
				}).Return(nil)
			},
		},
		{
			name:        "outsider forbidden",
			title:       "Design doc",
			requesterID: "s2",
			setupMocks: func(m *assignmentMocks) {
				m.projects.On("Get", mock.Anything, "pr1").Return(supervisedProject("pr1"), nil)
				m.users.On("Get", mock.Anything, "s2").Return(student2, nil)
				m.teams.On("GetMember", mock.Anything, "t1", "s2").Return(nil, repository.ErrNotFound)
			},
			errorCode: ErrorCodeForbidden,
		},
		{
			name:        "blank title",
			title:       "",
			requesterID: "s1",
			setupMocks:  func(m *assignmentMocks) {},
			errorCode:   ErrorCodeInvalidArgument,
		},
		{
			name:        "project not found",
			title:       "Design doc",
			requesterID: "s1",
			setupMocks: func(m *assignmentMocks) {
				m.projects.On("Get", mock.Anything, "pr1").Return(nil, repository.ErrNotFound)
			},
			errorCode: ErrorCodeNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := newAssignmentMocks()
			tt.setupMocks(m)

			got, err := m.service().CreateAssignment(context.Background(), "pr1", tt.title, "", &due, tt.requesterID)

			if tt.errorCode != "" {
				require.NotNil(t, err)
				assert.Equal(t, tt.errorCode, err.Code)
				assert.Nil(t, got)
			} else {
				require.Nil(t, err)
				assert.Equal(t, "as1", got.ID)
				assert.Equal(t, model.AssignmentStatusOngoing, got.Status)
			}

			m.projects.AssertExpectations(t)
			m.assignments.AssertExpectations(t)
		})
	}
}

func TestAssignmentService_ChangeStatus(t *testing.T) {
	tests := []struct {
		name       string
		status     string
		setupMocks func(*assignmentMocks)
		errorCode  ErrorCode
		expected   model.AssignmentStatus
	}{
		{
			name:   "any status can be set directly",
			status: "COMPLETED",
			setupMocks: func(m *assignmentMocks) {
				m.assignments.On("Get", mock.Anything, "as1").Return(assignmentIn("as1", "pr1", model.AssignmentStatusPending), nil)
				m.projects.On("Get", mock.Anything, "pr1").Return(supervisedProject("pr1"), nil)
				m.users.On("Get", mock.Anything, "s1").Return(student1, nil)
				m.teams.On("GetMember", mock.Anything, "t1", "s1").Return(leaderOf("t1", student1), nil)
				m.assignments.On("SetStatus", mock.Anything, "as1", model.AssignmentStatusCompleted).Return(nil)
			},
			expected: model.AssignmentStatusCompleted,
		},
		{
			name:       "unknown status",
			status:     "DONE",
			setupMocks: func(m *assignmentMocks) {},
			errorCode:  ErrorCodeInvalidArgument,
		},
		{
			name:   "assignment in another project",
			status: "ONGOING",
			setupMocks: func(m *assignmentMocks) {
				m.assignments.On("Get", mock.Anything, "as1").Return(assignmentIn("as1", "pr2", model.AssignmentStatusPending), nil)
			},
			errorCode: ErrorCodeInvalidArgument,
		},
		{
			name:   "assignment not found",
			status: "ONGOING",
			setupMocks: func(m *assignmentMocks) {
				m.assignments.On("Get", mock.Anything, "as1").Return(nil, repository.ErrNotFound)
			},
			errorCode: ErrorCodeNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := newAssignmentMocks()
			tt.setupMocks(m)

			got, err := m.service().ChangeStatus(context.Background(), "pr1", "as1", tt.status, "s1")

			if tt.errorCode != "" {
				require.NotNil(t, err)
				assert.Equal(t, tt.errorCode, err.Code)
				assert.Nil(t, got)
				m.assignments.AssertNotCalled(t, "SetStatus", mock.Anything, mock.Anything, mock.Anything)
			} else {
				require.Nil(t, err)
				assert.Equal(t, tt.expected, got.Status)
			}

			m.assignments.AssertExpectations(t)
		})
	}
}

func TestAssignmentService_RequestReview(t *testing.T) {
	tests := []struct {
		name       string
		userID     string
		setupMocks func(*assignmentMocks)
		errorCode  ErrorCode
	}{
		{
			name:   "member requests review",
			userID: "s1",
			setupMocks: func(m *assignmentMocks) {
				m.assignments.On("Get", mock.Anything, "as1").Return(assignmentIn("as1", "pr1", model.AssignmentStatusOngoing), nil)
				m.projects.On("Get", mock.Anything, "pr1").Return(supervisedProject("pr1"), nil)
				m.teams.On("GetMember", mock.Anything, "t1", "s1").Return(memberOf("t1", student1), nil)
				m.assignments.On("SetStatus", mock.Anything, "as1", model.AssignmentStatusPending).Return(nil)
				m.notifier.On("Notify", mock.Anything, mock.MatchedBy(func(n *model.Notification) bool {
					return n.RecipientID == "p1" && n.Type == model.NotificationReviewRequested
				})).Return(nil)
			},
		},
		{
			name:   "system caller skips membership",
			userID: "",
			setupMocks: func(m *assignmentMocks) {
				m.assignments.On("Get", mock.Anything, "as1").Return(assignmentIn("as1", "pr1", model.AssignmentStatusPending), nil)
				m.projects.On("Get", mock.Anything, "pr1").Return(supervisedProject("pr1"), nil)
				m.assignments.On("SetStatus", mock.Anything, "as1", model.AssignmentStatusPending).Return(nil)
				m.notifier.On("Notify", mock.Anything, mock.Anything).Return(errors.New("redis down"))
			},
		},
		{
			name:   "completed assignment",
			userID: "s1",
			setupMocks: func(m *assignmentMocks) {
				m.assignments.On("Get", mock.Anything, "as1").Return(assignmentIn("as1", "pr1", model.AssignmentStatusCompleted), nil)
			},
			errorCode: ErrorCodeInvalidStateForReview,
		},
		{
			name:   "not a team member",
			userID: "s2",
			setupMocks: func(m *assignmentMocks) {
				m.assignments.On("Get", mock.Anything, "as1").Return(assignmentIn("as1", "pr1", model.AssignmentStatusOngoing), nil)
				m.projects.On("Get", mock.Anything, "pr1").Return(supervisedProject("pr1"), nil)
				m.teams.On("GetMember", mock.Anything, "t1", "s2").Return(nil, repository.ErrNotFound)
			},
			errorCode: ErrorCodeNotTeamMember,
		},
		{
			name:   "wrong project",
			userID: "s1",
			setupMocks: func(m *assignmentMocks) {
				m.assignments.On("Get", mock.Anything, "as1").Return(assignmentIn("as1", "pr2", model.AssignmentStatusOngoing), nil)
			},
			errorCode: ErrorCodeInvalidArgument,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := newAssignmentMocks()
			tt.setupMocks(m)

			got, err := m.service().RequestReview(context.Background(), "pr1", "as1", tt.userID, "ready")

			if tt.errorCode != "" {
				require.NotNil(t, err)
				assert.Equal(t, tt.errorCode, err.Code)
				assert.Nil(t, got)
				m.notifier.AssertNotCalled(t, "Notify", mock.Anything, mock.Anything)
			} else {
				require.Nil(t, err)
				assert.Equal(t, model.AssignmentStatusPending, got.Status)
			}

			m.assignments.AssertExpectations(t)
			m.teams.AssertExpectations(t)
			m.notifier.AssertExpectations(t)
		})
	}
}

func TestAssignmentService_ListPendingReviews(t *testing.T) {
	tests := []struct {
		name          string
		days          int
		limit         int
		expectedDays  int
		expectedLimit int
	}{
		{name: "defaults", days: 0, limit: 0, expectedDays: DefaultReviewWindowDays, expectedLimit: DefaultReviewQueueLimit},
		{name: "explicit", days: 3, limit: 10, expectedDays: 3, expectedLimit: 10},
		{name: "limit capped", days: 1, limit: 1000, expectedDays: 1, expectedLimit: MaxReviewQueueLimit},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := newAssignmentMocks()
			m.users.On("Get", mock.Anything, "p1").Return(professor, nil)

			before := time.Now()
			m.assignments.On("ListReviewQueue", mock.Anything, "p1", mock.MatchedBy(func(dueBefore time.Time) bool {
				window := time.Duration(tt.expectedDays) * 24 * time.Hour
				return !dueBefore.Before(before.Add(window)) && dueBefore.Before(time.Now().Add(window+time.Minute))
			}), tt.expectedLimit).Return([]*repository.Assignment{
				assignmentIn("as1", "pr1", model.AssignmentStatusPending),
			}, nil)

			got, err := m.service().ListPendingReviews(context.Background(), "p1", tt.days, tt.limit)
			require.Nil(t, err)
			require.Len(t, got, 1)
			assert.Equal(t, "as1", got[0].ID)

			m.assignments.AssertExpectations(t)
		})
	}
}

func TestAssignmentService_ListPendingReviews_ConfiguredDefaults(t *testing.T) {
	m := newAssignmentMocks()
	m.users.On("Get", mock.Anything, "p1").Return(professor, nil)
	m.assignments.On("ListReviewQueue", mock.Anything, "p1", mock.Anything, 20).Return([]*repository.Assignment{}, nil)

	got, err := m.service().WithReviewDefaults(14, 20).ListPendingReviews(context.Background(), "p1", 0, 0)
	require.Nil(t, err)
	assert.Empty(t, got)
	m.assignments.AssertExpectations(t)
}

func TestAssignmentService_BulkReview(t *testing.T) {
	m := newAssignmentMocks()
	m.users.On("Get", mock.Anything, "p1").Return(professor, nil)

	m.assignments.On("Get", mock.Anything, "as1").Return(assignmentIn("as1", "pr1", model.AssignmentStatusPending), nil)
	m.assignments.On("Get", mock.Anything, "as2").Return(assignmentIn("as2", "pr2", model.AssignmentStatusPending), nil)
	m.assignments.On("Get", mock.Anything, "as3").Return(assignmentIn("as3", "pr1", model.AssignmentStatusOngoing), nil)
	m.projects.On("Get", mock.Anything, "pr1").Return(supervisedProject("pr1"), nil)
	m.assignments.On("SetStatus", mock.Anything, "as1", model.AssignmentStatusCompleted).Return(nil)
	m.assignments.On("SetStatus", mock.Anything, "as3", model.AssignmentStatusCompleted).Return(nil)
	m.activities.On("Append", mock.Anything, mock.MatchedBy(func(a *repository.Activity) bool {
		return a.Action == ActivityAssignmentReviewed && a.ActorID == "p1"
	})).Return(nil).Twice()

	got, err := m.service().BulkReview(context.Background(), "p1", &model.BulkReviewRequest{
		Action: model.ReviewActionApprove,
		Items: []*model.BulkReviewItem{
			{AssignmentID: "as1", ProjectID: "pr1"},
			{AssignmentID: "as2", ProjectID: "pr1"},
			{AssignmentID: "as3", ProjectID: "pr1"},
		},
	})

	require.Nil(t, err)
	assert.Equal(t, &model.BulkReviewResult{
		SuccessCount: 2,
		FailureCount: 1,
		FailedIDs:    []string{"as2"},
	}, got)

	m.assignments.AssertNotCalled(t, "SetStatus", mock.Anything, "as2", mock.Anything)
	m.assignments.AssertExpectations(t)
	m.activities.AssertExpectations(t)
}

func TestAssignmentService_BulkReview_PerItemFailures(t *testing.T) {
	m := newAssignmentMocks()
	m.users.On("Get", mock.Anything, "s2").Return(student2, nil)

	m.assignments.On("Get", mock.Anything, "missing").Return(nil, repository.ErrNotFound)
	m.assignments.On("Get", mock.Anything, "as1").Return(assignmentIn("as1", "pr1", model.AssignmentStatusCompleted), nil)
	m.assignments.On("Get", mock.Anything, "as2").Return(assignmentIn("as2", "pr2", model.AssignmentStatusCompleted), nil)
	m.projects.On("Get", mock.Anything, "pr1").Return(supervisedProject("pr1"), nil)
	m.projects.On("Get", mock.Anything, "pr2").Return(supervisedProject("pr2"), nil)
	m.teams.On("GetMember", mock.Anything, "t1", "s2").Return(nil, repository.ErrNotFound).Once()
	m.teams.On("GetMember", mock.Anything, "t1", "s2").Return(memberOf("t1", student2), nil).Once()
	m.assignments.On("SetStatus", mock.Anything, "as2", model.AssignmentStatusPending).Return(nil)
	m.activities.On("Append", mock.Anything, mock.Anything).Return(nil).Once()

	got, err := m.service().BulkReview(context.Background(), "s2", &model.BulkReviewRequest{
		Action: model.ReviewActionReject,
		Items: []*model.BulkReviewItem{
			{AssignmentID: "missing", ProjectID: "pr1"},
			{AssignmentID: "as1", ProjectID: "pr1"},
			{AssignmentID: "as2", ProjectID: "pr2"},
		},
	})

	require.Nil(t, err)
	assert.Equal(t, 1, got.SuccessCount)
	assert.Equal(t, 2, got.FailureCount)
	assert.Equal(t, []string{"missing", "as1"}, got.FailedIDs)
	m.assignments.AssertExpectations(t)
}

func TestAssignmentService_BulkReview_InvalidAction(t *testing.T) {
	m := newAssignmentMocks()

	got, err := m.service().BulkReview(context.Background(), "p1", &model.BulkReviewRequest{
		Action: "MAYBE",
		Items:  []*model.BulkReviewItem{{AssignmentID: "as1", ProjectID: "pr1"}},
	})

	require.NotNil(t, err)
	assert.Equal(t, ErrorCodeInvalidArgument, err.Code)
	assert.Nil(t, got)
	m.assignments.AssertNotCalled(t, "Get", mock.Anything, mock.Anything)
}

func TestAssignmentService_BulkReview_EmptyBatch(t *testing.T) {
	m := newAssignmentMocks()
	m.users.On("Get", mock.Anything, "p1").Return(professor, nil)

	got, err := m.service().BulkReview(context.Background(), "p1", &model.BulkReviewRequest{Action: model.ReviewActionApprove})
	require.Nil(t, err)
	assert.Equal(t, 0, got.SuccessCount)
	assert.NotNil(t, got.FailedIDs)
	assert.Empty(t, got.FailedIDs)
}

func TestAssignmentService_BulkReview_EmptyItem(t *testing.T) {
	m := newAssignmentMocks()
	m.users.On("Get", mock.Anything, "p1").Return(professor, nil)
	m.assignments.On("Get", mock.Anything, "as1").Return(assignmentIn("as1", "pr1", model.AssignmentStatusPending), nil)
	m.projects.On("Get", mock.Anything, "pr1").Return(supervisedProject("pr1"), nil)
	m.assignments.On("SetStatus", mock.Anything, "as1", model.AssignmentStatusCompleted).Return(nil)
	m.activities.On("Append", mock.Anything, mock.Anything).Return(nil).Once()

	var (
		got *model.BulkReviewResult
		err *Error
	)
	require.NotPanics(t, func() {
		got, err = m.service().BulkReview(context.Background(), "p1", &model.BulkReviewRequest{
			Action: model.ReviewActionApprove,
			Items:  []*model.BulkReviewItem{{AssignmentID: "as1", ProjectID: "pr1"}, nil},
		})
	})

	require.Nil(t, err)
	assert.Equal(t, 1, got.SuccessCount)
	assert.Equal(t, 1, got.FailureCount)
	assert.Empty(t, got.FailedIDs)
	m.assignments.AssertExpectations(t)
}

func TestAssignmentService_BulkReview_NilRequest(t *testing.T) {
	m := newAssignmentMocks()

	got, err := m.service().BulkReview(context.Background(), "p1", nil)

	require.NotNil(t, err)
	assert.Equal(t, ErrorCodeInvalidArgument, err.Code)
	assert.Nil(t, got)
	m.users.AssertNotCalled(t, "Get", mock.Anything, mock.Anything)
}

func TestAssignmentService_BulkReview_ActivityFailure(t *testing.T) {
	m := newAssignmentMocks()
	m.users.On("Get", mock.Anything, "p1").Return(professor, nil)
	m.assignments.On("Get", mock.Anything, "as1").Return(assignmentIn("as1", "pr1", model.AssignmentStatusPending), nil)
	m.projects.On("Get", mock.Anything, "pr1").Return(supervisedProject("pr1"), nil)
	m.assignments.On("SetStatus", mock.Anything, "as1", model.AssignmentStatusCompleted).Return(nil)
	m.activities.On("Append", mock.Anything, mock.Anything).Return(errors.New("db error"))

	got, err := m.service().BulkReview(context.Background(), "p1", &model.BulkReviewRequest{
		Action: model.ReviewActionApprove,
		Items:  []*model.BulkReviewItem{{AssignmentID: "as1", ProjectID: "pr1"}},
	})

	require.Nil(t, err)
	assert.Equal(t, 0, got.SuccessCount)
	assert.Equal(t, []string{"as1"}, got.FailedIDs)
	m.activities.AssertExpectations(t)
}
