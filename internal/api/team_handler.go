package api

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/yakoovad/capstone-tracker/pkg/logger"
	"go.uber.org/zap"
)

func (h *Handler) CreateTeam(e echo.Context) error {
	l := logger.FromContext(e.Request().Context())

	var req struct {
		Name        string `json:"team_name" validate:"required"`
		Description string `json:"description"`
	}

	if err := h.decodeRequest(e, &req); err != nil {
		l.Error("invalid request", zap.Any("error", err))
		return h.transportError(e, err)
	}

	team, err := h.team.CreateTeam(e.Request().Context(), req.Name, req.Description, callerID(e))
	if err != nil {
		l.Error("failed to create team", zap.String("team_name", req.Name), zap.Any("error", err))
		return h.transportError(e, err)
	}

	return e.JSON(http.StatusCreated, team)
}

func (h *Handler) GetTeam(e echo.Context) error {
	teamID := e.Param("id")

	team, err := h.team.GetTeam(e.Request().Context(), teamID)
	if err != nil {
		return h.transportError(e, err)
	}

	return e.JSON(http.StatusOK, team)
}

func (h *Handler) AddMember(e echo.Context) error {
	l := logger.FromContext(e.Request().Context())

	var req struct {
		UserID string `json:"user_id" validate:"required"`
	}

	if err := h.decodeRequest(e, &req); err != nil {
		l.Error("invalid request", zap.Any("error", err))
		return h.transportError(e, err)
	}

	member, err := h.team.AddMember(e.Request().Context(), e.Param("id"), req.UserID, callerID(e))
	if err != nil {
		l.Error("failed to add team member", zap.String("user_id", req.UserID), zap.Any("error", err))
		return h.transportError(e, err)
	}

	return e.JSON(http.StatusCreated, member)
}

func (h *Handler) ChangeLeader(e echo.Context) error {
	l := logger.FromContext(e.Request().Context())

	var req struct {
		UserID string `json:"user_id" validate:"required"`
	}

	if err := h.decodeRequest(e, &req); err != nil {
		l.Error("invalid request", zap.Any("error", err))
		return h.transportError(e, err)
	}

	team, err := h.team.ChangeLeader(e.Request().Context(), e.Param("id"), req.UserID, callerID(e))
	if err != nil {
		l.Error("failed to change team leader", zap.String("user_id", req.UserID), zap.Any("error", err))
		return h.transportError(e, err)
	}

	return e.JSON(http.StatusOK, team)
}

func (h *Handler) RemoveMember(e echo.Context) error {
	l := logger.FromContext(e.Request().Context())

	teamID, memberID := e.Param("id"), e.Param("userId")

	if err := h.team.RemoveMember(e.Request().Context(), teamID, memberID, callerID(e)); err != nil {
		l.Error("failed to remove team member",
			zap.String("team_id", teamID),
			zap.String("member_id", memberID),
			zap.Any("error", err))
		return h.transportError(e, err)
	}

	return e.NoContent(http.StatusNoContent)
}

func (h *Handler) DeleteTeam(e echo.Context) error {
	l := logger.FromContext(e.Request().Context())

	teamID := e.Param("id")

	if err := h.team.DeleteTeam(e.Request().Context(), teamID, callerID(e)); err != nil {
		l.Error("failed to delete team", zap.String("team_id", teamID), zap.Any("error", err))
		return h.transportError(e, err)
	}

	return e.NoContent(http.StatusNoContent)
}
