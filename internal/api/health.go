package api

import (
	"context"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/hellofresh/health-go/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
)

type HealthChecker interface {
	HealthCheck() echo.HandlerFunc
}

type healthChecker struct {
	health *health.Health
}

func NewHealthChecker(version string, checks ...health.Config) (HealthChecker, error) {
	h, err := health.New(health.WithComponent(health.Component{Name: "capstone-tracker", Version: version}))
	if err != nil {
		return nil, errors.Wrap(err, "create health checker")
	}

	for _, check := range checks {
		if err = h.Register(check); err != nil {
			return nil, errors.Wrapf(err, "register health check %s", check.Name)
		}
	}

	return &healthChecker{
		health: h,
	}, nil
}

func (h *healthChecker) HealthCheck() echo.HandlerFunc {
	return echo.WrapHandler(h.health.Handler())
}

func PostgresCheck(pool *pgxpool.Pool) health.Config {
	return health.Config{
		Name:      "postgres",
		Timeout:   2 * time.Second,
		SkipOnErr: false,
		Check: func(ctx context.Context) error {
			return pool.Ping(ctx)
		},
	}
}

// RedisCheck is non-critical: notifications are still stored without redis.
func RedisCheck(client redis.UniversalClient) health.Config {
	return health.Config{
		Name:      "redis",
		Timeout:   time.Second,
		SkipOnErr: true,
		Check: func(ctx context.Context) error {
			return client.Ping(ctx).Err()
		},
	}
}
