package repository

import (
	"context"

	"github.com/pkg/errors"
	"github.com/yakoovad/capstone-tracker/internal/db"
)

// exists runs a SELECT 1 ... LIMIT 1 style query and reports whether it matched.
func exists(ctx context.Context, e db.Executor, build func(context.Context) (string, []any, error)) (bool, error) {
	sql, args, err := build(ctx)
	if err != nil {
		return false, err
	}

	var one int
	err = mapError(e.QueryRow(ctx, sql, args...).Scan(&one))
	switch {
	case errors.Is(err, ErrNotFound):
		return false, nil
	case err != nil:
		return false, err
	}
	return true, nil
}
