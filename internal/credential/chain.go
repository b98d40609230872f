package credential

import (
	"context"
	"errors"
	"fmt"
)

// ChainStore reads from primary and falls back when the secret is missing
// there or primary fails. Writes go to primary, or to fallback when primary
// fails; deletes go to both.
type ChainStore struct {
	primary  Store
	fallback Store
}

var _ Store = (*ChainStore)(nil)

func NewChainStore(primary, fallback Store) (*ChainStore, error) {
	if primary == nil {
		return nil, errors.New("primary credential store is nil")
	}
	if fallback == nil {
		return nil, errors.New("fallback credential store is nil")
	}
	return &ChainStore{primary: primary, fallback: fallback}, nil
}

func (s *ChainStore) Get(ctx context.Context, service, account string) (string, error) {
	secret, err := s.primary.Get(ctx, service, account)
	if err == nil {
		return secret, nil
	}
	if shouldSkipFallback(err) {
		return "", err
	}

	secret, fallbackErr := s.fallback.Get(ctx, service, account)
	if fallbackErr == nil {
		return secret, nil
	}
	if errors.Is(err, ErrNotFound) && errors.Is(fallbackErr, ErrNotFound) {
		return "", ErrNotFound
	}
	return "", fmt.Errorf("primary credential get failed: %w; fallback credential get failed: %w", err, fallbackErr)
}

func (s *ChainStore) Set(ctx context.Context, service, account, secret string) error {
	err := s.primary.Set(ctx, service, account, secret)
	if err == nil {
		return nil
	}
	if shouldSkipFallback(err) {
		return err
	}

	if fallbackErr := s.fallback.Set(ctx, service, account, secret); fallbackErr != nil {
		return fmt.Errorf("primary credential set failed: %w; fallback credential set failed: %w", err, fallbackErr)
	}
	return nil
}

func (s *ChainStore) Delete(ctx context.Context, service, account string) error {
	return errors.Join(
		s.primary.Delete(ctx, service, account),
		s.fallback.Delete(ctx, service, account),
	)
}

func shouldSkipFallback(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
