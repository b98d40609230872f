// Package credential stores the remembered session token between runs.
package credential

import (
	"context"
	"errors"
)

var ErrNotFound = errors.New("credential not found")

// Store keeps secrets addressed by service and account. Delete of a missing
// secret succeeds.
type Store interface {
	Get(ctx context.Context, service, account string) (string, error)
	Set(ctx context.Context, service, account, secret string) error
	Delete(ctx context.Context, service, account string) error
}
