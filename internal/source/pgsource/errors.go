package pgsource

import (
	"context"
	"errors"

	"github.com/JonMunkholm/querydump/internal/core"
	"github.com/jackc/pgx/v5/pgconn"
)

// providerError copies the server's diagnostics out of err. For server
// errors the code is the SQLSTATE; timeouts get "timeout"; all
// other failures carry only a description.
func providerError(err error) error {
	if err == nil {
		return nil
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		desc := pgErr.Message
		if pgErr.Detail != "" {
			desc += ": " + pgErr.Detail
		}
		return &core.ProviderError{Code: pgErr.Code, Description: desc, Err: err}
	}
	if pgconn.Timeout(err) || errors.Is(err, context.DeadlineExceeded) {
		return &core.ProviderError{Code: "timeout", Description: err.Error(), Err: err}
	}
	return &core.ProviderError{Description: err.Error(), Err: err}
}
