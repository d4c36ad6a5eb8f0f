package api

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/yakoovad/capstone-tracker/internal/model"
	"github.com/yakoovad/capstone-tracker/internal/service"
	"github.com/yakoovad/capstone-tracker/pkg/logger"
	"go.uber.org/zap"
)

func (h *Handler) CreateAssignment(e echo.Context) error {
	l := logger.FromContext(e.Request().Context())

	var req struct {
		Title       string     `json:"title" validate:"required"`
		Description string     `json:"description"`
		DueDate     *time.Time `json:"due_date"`
	}

	if err := h.decodeRequest(e, &req); err != nil {
		l.Error("invalid request", zap.Any("error", err))
		return h.transportError(e, err)
	}

	res, err := h.assignment.CreateAssignment(e.Request().Context(), e.Param("id"), req.Title, req.Description, req.DueDate, callerID(e))
	if err != nil {
		l.Error("failed to create assignment", zap.String("project_id", e.Param("id")), zap.Any("error", err))
		return h.transportError(e, err)
	}

	return e.JSON(http.StatusCreated, res)
}

func (h *Handler) ChangeAssignmentStatus(e echo.Context) error {
	l := logger.FromContext(e.Request().Context())

	var req struct {
		Status string `json:"status" validate:"required"`
	}

	if err := h.decodeRequest(e, &req); err != nil {
		l.Error("invalid request", zap.Any("error", err))
		return h.transportError(e, err)
	}

	res, err := h.assignment.ChangeStatus(e.Request().Context(), e.Param("id"), e.Param("assignmentId"), req.Status, callerID(e))
	if err != nil {
		l.Error("failed to change assignment status", zap.String("assignment_id", e.Param("assignmentId")), zap.Any("error", err))
		return h.transportError(e, err)
	}

	return e.JSON(http.StatusOK, res)
}

func (h *Handler) RequestReview(e echo.Context) error {
	l := logger.FromContext(e.Request().Context())

	var req struct {
		Message string `json:"message"`
	}

	if err := h.decodeRequest(e, &req); err != nil {
		l.Error("invalid request", zap.Any("error", err))
		return h.transportError(e, err)
	}

	res, err := h.assignment.RequestReview(e.Request().Context(), e.Param("id"), e.Param("assignmentId"), callerID(e), req.Message)
	if err != nil {
		l.Error("failed to request review", zap.String("assignment_id", e.Param("assignmentId")), zap.Any("error", err))
		return h.transportError(e, err)
	}

	return e.JSON(http.StatusOK, res)
}

func (h *Handler) ListPendingReviews(e echo.Context) error {
	var days, limit int
	if err := echo.QueryParamsBinder(e).
		Int("days", &days).
		Int("limit", &limit).
		BindError(); err != nil {
		return h.transportError(e, service.NewError(service.ErrorCodeInvalidArgument, "days and limit must be integers"))
	}

	res, err := h.assignment.ListPendingReviews(e.Request().Context(), callerID(e), days, limit)
	if err != nil {
		return h.transportError(e, err)
	}

	return e.JSON(http.StatusOK, res)
}

func (h *Handler) BulkReview(e echo.Context) error {
	l := logger.FromContext(e.Request().Context())

	req := &model.BulkReviewRequest{}
	if err := h.decodeRequest(e, req); err != nil {
		l.Error("invalid request", zap.Any("error", err))
		return h.transportError(e, err)
	}

	res, err := h.assignment.BulkReview(e.Request().Context(), callerID(e), req)
	if err != nil {
		l.Error("failed to bulk review", zap.Any("error", err))
		return h.transportError(e, err)
	}

	return e.JSON(http.StatusOK, res)
}
