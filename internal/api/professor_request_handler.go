package api

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/yakoovad/capstone-tracker/internal/model"
	"github.com/yakoovad/capstone-tracker/internal/service"
	"github.com/yakoovad/capstone-tracker/pkg/logger"
	"go.uber.org/zap"
)

func (h *Handler) CreatePreRequest(e echo.Context) error {
	l := logger.FromContext(e.Request().Context())

	var req struct {
		Title       string `json:"title" validate:"required"`
		ProfessorID string `json:"professor_id" validate:"required"`
		Message     string `json:"message"`
	}

	if err := h.decodeRequest(e, &req); err != nil {
		l.Error("invalid request", zap.Any("error", err))
		return h.transportError(e, err)
	}

	res, err := h.request.CreatePreRequest(e.Request().Context(), e.Param("id"), req.Title, req.ProfessorID, req.Message, callerID(e))
	if err != nil {
		l.Error("failed to create professor request", zap.String("team_id", e.Param("id")), zap.Any("error", err))
		return h.transportError(e, err)
	}

	return e.JSON(http.StatusCreated, res)
}

func (h *Handler) CreateProfessorRequest(e echo.Context) error {
	l := logger.FromContext(e.Request().Context())

	var req struct {
		ProfessorID string `json:"professor_id" validate:"required"`
		Message     string `json:"message"`
	}

	if err := h.decodeRequest(e, &req); err != nil {
		l.Error("invalid request", zap.Any("error", err))
		return h.transportError(e, err)
	}

	res, err := h.request.CreateRequest(e.Request().Context(), e.Param("id"), req.ProfessorID, req.Message, callerID(e))
	if err != nil {
		l.Error("failed to create professor request", zap.String("project_id", e.Param("id")), zap.Any("error", err))
		return h.transportError(e, err)
	}

	return e.JSON(http.StatusCreated, res)
}

func (h *Handler) ListProfessorRequests(e echo.Context) error {
	var status *model.RequestStatus
	if raw := e.QueryParam("status"); raw != "" {
		st, err := model.ParseRequestStatus(raw)
		if err != nil {
			return h.transportError(e, service.NewError(service.ErrorCodeInvalidArgument, err.Error()))
		}
		status = &st
	}

	res, err := h.request.ListProfessorRequests(e.Request().Context(), callerID(e), status)
	if err != nil {
		return h.transportError(e, err)
	}

	return e.JSON(http.StatusOK, res)
}

func (h *Handler) ApproveProfessorRequest(e echo.Context) error {
	l := logger.FromContext(e.Request().Context())

	res, err := h.request.Approve(e.Request().Context(), e.Param("id"), callerID(e))
	if err != nil {
		l.Error("failed to approve professor request", zap.String("request_id", e.Param("id")), zap.Any("error", err))
		return h.transportError(e, err)
	}

	return e.JSON(http.StatusOK, res)
}

func (h *Handler) RejectProfessorRequest(e echo.Context) error {
	l := logger.FromContext(e.Request().Context())

	var req struct {
		Message string `json:"message"`
	}

	if err := h.decodeRequest(e, &req); err != nil {
		l.Error("invalid request", zap.Any("error", err))
		return h.transportError(e, err)
	}

	res, err := h.request.Reject(e.Request().Context(), e.Param("id"), req.Message, callerID(e))
	if err != nil {
		l.Error("failed to reject professor request", zap.String("request_id", e.Param("id")), zap.Any("error", err))
		return h.transportError(e, err)
	}

	return e.JSON(http.StatusOK, res)
}
