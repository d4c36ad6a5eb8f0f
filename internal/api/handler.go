package api

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"
	"github.com/yakoovad/capstone-tracker/internal/auth"
	"github.com/yakoovad/capstone-tracker/internal/model"
	"github.com/yakoovad/capstone-tracker/internal/service"
	"go.uber.org/zap"
)

type Handler struct {
	team          *service.TeamService
	invitation    *service.InvitationService
	request       *service.ProfessorRequestService
	assignment    *service.AssignmentService
	notification  *service.NotificationService
	healthChecker HealthChecker

	logger *zap.Logger
}

func NewHandler(logger *zap.Logger) *Handler {
	return &Handler{
		logger: logger,
	}
}

func (h *Handler) WithHealthChecker(c HealthChecker) *Handler {
	h.healthChecker = c
	return h
}

func (h *Handler) WithTeamService(s *service.TeamService) *Handler {
	h.team = s
	return h
}

func (h *Handler) WithInvitationService(s *service.InvitationService) *Handler {
	h.invitation = s
	return h
}

func (h *Handler) WithProfessorRequestService(s *service.ProfessorRequestService) *Handler {
	h.request = s
	return h
}

func (h *Handler) WithAssignmentService(s *service.AssignmentService) *Handler {
	h.assignment = s
	return h
}

func (h *Handler) WithNotificationService(s *service.NotificationService) *Handler {
	h.notification = s
	return h
}

func (h *Handler) RegisterRoutes(e *echo.Echo) {
	e.Validator = NewValidator()
	e.Use(middleware.RequestID())
	e.Use(ZapLoggerMiddleware(h.logger))
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())

	if h.healthChecker != nil {
		e.GET("/health", h.healthChecker.HealthCheck())
	}

	users := e.Group("", AuthMiddleware())

	users.POST("/teams", h.CreateTeam)
	users.GET("/teams/:id", h.GetTeam)
	users.DELETE("/teams/:id", h.DeleteTeam)
	users.POST("/teams/:id/members", h.AddMember)
	users.DELETE("/teams/:id/members/:userId", h.RemoveMember)
	users.POST("/teams/:id/leader", h.ChangeLeader)

	users.POST("/teams/:id/invitations", h.Invite)
	users.GET("/invitations", h.ListInvitations)
	users.POST("/invitations/:id/accept", h.AcceptInvitation)
	users.POST("/invitations/:id/decline", h.DeclineInvitation)

	users.POST("/teams/:id/professor-requests", h.CreatePreRequest)
	users.POST("/projects/:id/professor-requests", h.CreateProfessorRequest)

	users.POST("/projects/:id/assignments", h.CreateAssignment)
	users.PATCH("/projects/:id/assignments/:assignmentId/status", h.ChangeAssignmentStatus)
	users.POST("/projects/:id/assignments/:assignmentId/review-request", h.RequestReview)
	users.POST("/reviews/bulk", h.BulkReview)

	users.GET("/notifications", h.ListNotifications)
	users.POST("/notifications/:id/read", h.MarkNotificationRead)

	professors := e.Group("", AuthMiddleware(model.RoleProfessor))

	professors.GET("/professor-requests", h.ListProfessorRequests)
	professors.POST("/professor-requests/:id/approve", h.ApproveProfessorRequest)
	professors.POST("/professor-requests/:id/reject", h.RejectProfessorRequest)
	professors.GET("/reviews/pending", h.ListPendingReviews)
}

type errorResponse struct {
	Error *service.Error `json:"error"`
}

func (h *Handler) decodeRequest(e echo.Context, req any) *service.Error {
	if err := e.Bind(req); err != nil {
		return service.NewError(service.ErrorCodeInvalidBody, "invalid request body")
	}

	if err := e.Validate(req); err != nil {
		return service.NewError(service.ErrorCodeInvalidBody, errors.Wrap(err, "request validation failed").Error())
	}
	return nil
}

// callerID is set by AuthMiddleware on every routed request.
func callerID(e echo.Context) string {
	if id := auth.FromContext(e.Request().Context()); id != nil {
		return id.UserID
	}
	return ""
}

func (h *Handler) transportError(e echo.Context, err *service.Error) error {
	return e.JSON(statusFor(err), errorResponse{Error: err})
}

func statusFor(err *service.Error) int {
	switch err.Kind() {
	case service.KindNotFound:
		return http.StatusNotFound
	case service.KindForbidden:
		return http.StatusForbidden
	case service.KindConflict, service.KindAlreadyDecided:
		return http.StatusConflict
	case service.KindInvalidArgument:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
