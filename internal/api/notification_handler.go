package api

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/yakoovad/capstone-tracker/internal/service"
)

func (h *Handler) ListNotifications(e echo.Context) error {
	var unread bool
	if err := echo.QueryParamsBinder(e).Bool("unread", &unread).BindError(); err != nil {
		return h.transportError(e, service.NewError(service.ErrorCodeInvalidArgument, "unread must be a boolean"))
	}

	res, err := h.notification.List(e.Request().Context(), callerID(e), unread)
	if err != nil {
		return h.transportError(e, err)
	}

	return e.JSON(http.StatusOK, res)
}

func (h *Handler) MarkNotificationRead(e echo.Context) error {
	if err := h.notification.MarkRead(e.Request().Context(), e.Param("id"), callerID(e)); err != nil {
		return h.transportError(e, err)
	}

	return e.NoContent(http.StatusNoContent)
}
