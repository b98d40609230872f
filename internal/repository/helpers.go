package repository

import (
	"database/sql"
	"errors"
)

// optionalRow maps sql.ErrNoRows from a single-row Get to (nil, nil).
func optionalRow[T any](row *T, err error) (*T, error) {
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return nil, nil
	case err != nil:
		return nil, err
	}
	return row, nil
}
