package credential

import (
	"context"
	"fmt"

	"github.com/resbox/resbox-core/internal/util"
)

// EncryptedStore seals secrets with AES-256-GCM before handing them to the
// wrapped store.
type EncryptedStore struct {
	inner Store
	key   string
}

var _ Store = (*EncryptedStore)(nil)

func NewEncryptedStore(inner Store, hexKey string) (*EncryptedStore, error) {
	if err := util.ValidateKey(hexKey); err != nil {
		return nil, err
	}
	return &EncryptedStore{inner: inner, key: hexKey}, nil
}

func (s *EncryptedStore) Get(ctx context.Context, service, account string) (string, error) {
	sealed, err := s.inner.Get(ctx, service, account)
	if err != nil {
		return "", err
	}
	secret, err := util.Decrypt(s.key, sealed)
	if err != nil {
		return "", fmt.Errorf("open credential %s/%s: %w", service, account, err)
	}
	return secret, nil
}

func (s *EncryptedStore) Set(ctx context.Context, service, account, secret string) error {
	sealed, err := util.Encrypt(s.key, secret)
	if err != nil {
		return fmt.Errorf("seal credential %s/%s: %w", service, account, err)
	}
	return s.inner.Set(ctx, service, account, sealed)
}

func (s *EncryptedStore) Delete(ctx context.Context, service, account string) error {
	return s.inner.Delete(ctx, service, account)
}
