package api

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/yakoovad/capstone-tracker/internal/model"
	"github.com/yakoovad/capstone-tracker/internal/service"
	"github.com/yakoovad/capstone-tracker/pkg/logger"
	"go.uber.org/zap"
)

func (h *Handler) Invite(e echo.Context) error {
	l := logger.FromContext(e.Request().Context())

	var req struct {
		InviteeID string `json:"invitee_id" validate:"required"`
		Message   string `json:"message"`
	}

	if err := h.decodeRequest(e, &req); err != nil {
		l.Error("invalid request", zap.Any("error", err))
		return h.transportError(e, err)
	}

	inv, err := h.invitation.Invite(e.Request().Context(), e.Param("id"), req.InviteeID, callerID(e), req.Message)
	if err != nil {
		l.Error("failed to invite user", zap.String("invitee_id", req.InviteeID), zap.Any("error", err))
		return h.transportError(e, err)
	}

	return e.JSON(http.StatusCreated, inv)
}

func (h *Handler) ListInvitations(e echo.Context) error {
	var status *model.InvitationStatus
	if raw := e.QueryParam("status"); raw != "" {
		st, err := model.ParseInvitationStatus(raw)
		if err != nil {
			return h.transportError(e, service.NewError(service.ErrorCodeInvalidArgument, err.Error()))
		}
		status = &st
	}

	invs, err := h.invitation.ListInvitations(e.Request().Context(), callerID(e), status)
	if err != nil {
		return h.transportError(e, err)
	}

	return e.JSON(http.StatusOK, invs)
}

func (h *Handler) AcceptInvitation(e echo.Context) error {
	l := logger.FromContext(e.Request().Context())

	inv, err := h.invitation.Accept(e.Request().Context(), e.Param("id"), callerID(e))
	if err != nil {
		l.Error("failed to accept invitation", zap.String("invitation_id", e.Param("id")), zap.Any("error", err))
		return h.transportError(e, err)
	}

	return e.JSON(http.StatusOK, inv)
}

func (h *Handler) DeclineInvitation(e echo.Context) error {
	l := logger.FromContext(e.Request().Context())

	inv, err := h.invitation.Decline(e.Request().Context(), e.Param("id"), callerID(e))
	if err != nil {
		l.Error("failed to decline invitation", zap.String("invitation_id", e.Param("id")), zap.Any("error", err))
		return h.transportError(e, err)
	}

	return e.JSON(http.StatusOK, inv)
}
