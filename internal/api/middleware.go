package api

import (
	"net/http"
	"slices"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/yakoovad/capstone-tracker/internal/auth"
	"github.com/yakoovad/capstone-tracker/internal/model"
	"github.com/yakoovad/capstone-tracker/internal/service"
	"github.com/yakoovad/capstone-tracker/pkg/logger"
	"go.uber.org/zap"
)

func ZapLoggerMiddleware(l *zap.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()

			req := c.Request()
			res := c.Response()

			requestID := c.Response().Header().Get(echo.HeaderXRequestID)

			reqLogger := l.With(
				zap.String("request_id", requestID),
			)

			ctx := logger.WithLogger(req.Context(), reqLogger)
			c.SetRequest(req.WithContext(ctx))

			err := next(c)

			latency := time.Since(start)

			fields := []zap.Field{
				zap.String("method", req.Method),
				zap.String("uri", req.RequestURI),
				zap.String("remote_ip", c.RealIP()),
				zap.Int("status", res.Status),
				zap.Duration("latency", latency),
				zap.Int64("bytes_in", req.ContentLength),
				zap.Int64("bytes_out", res.Size),
			}

			if err != nil {
				fields = append(fields, zap.Error(err))
				reqLogger.Error("request failed", fields...)
			} else {
				reqLogger.Info("request completed", fields...)
			}

			return err
		}
	}
}

// AuthMiddleware requires a valid bearer token. With roles given, the caller must
// hold one of them. The identity is stored in the request context and the
// request logger gets the caller id.
func AuthMiddleware(roles ...model.Role) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			header := c.Request().Header.Get(echo.HeaderAuthorization)
			token, found := strings.CutPrefix(header, "Bearer ")
			if !found || token == "" {
				return unauthorized(c)
			}

			identity, ok := auth.IsValidToken(token)
			if !ok {
				return unauthorized(c)
			}

			if len(roles) > 0 && !slices.Contains(roles, identity.Role) {
				return c.JSON(http.StatusForbidden, errorResponse{
					Error: service.NewError(service.ErrorCodeForbidden, "role is not allowed"),
				})
			}

			ctx := c.Request().Context()
			ctx = auth.WithIdentity(ctx, identity)
			ctx = logger.WithLogger(ctx, logger.FromContext(ctx).With(
				zap.String("caller_id", identity.UserID),
				zap.String("caller_role", string(identity.Role)),
			))
			c.SetRequest(c.Request().WithContext(ctx))

			return next(c)
		}
	}
}

func unauthorized(c echo.Context) error {
	return c.JSON(http.StatusUnauthorized, errorResponse{
		Error: service.NewError("UNAUTHORIZED", "missing or invalid token"),
	})
}
