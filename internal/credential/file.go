package credential

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

const (
	storeDirMode   = 0o700
	secretFileMode = 0o600
)

// FileStore keeps each secret in <root>/<service>/<account>.
type FileStore struct {
	root string
	mu   sync.RWMutex
}

var _ Store = (*FileStore)(nil)

func NewFileStore(root string) *FileStore {
	return &FileStore{root: filepath.Clean(root)}
}

func (s *FileStore) Set(ctx context.Context, service, account, secret string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	path, err := s.path(service, account)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(path), storeDirMode); err != nil {
		return fmt.Errorf("create credential directory: %w", err)
	}
	if err := os.WriteFile(path, []byte(secret), secretFileMode); err != nil {
		return fmt.Errorf("write credential %s/%s: %w", service, account, err)
	}
	return nil
}

func (s *FileStore) Get(ctx context.Context, service, account string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	path, err := s.path(service, account)
	if err != nil {
		return "", err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", ErrNotFound
		}
		return "", fmt.Errorf("read credential %s/%s: %w", service, account, err)
	}
	return string(data), nil
}

func (s *FileStore) Delete(ctx context.Context, service, account string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	path, err := s.path(service, account)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("delete credential %s/%s: %w", service, account, err)
	}
	return nil
}

func (s *FileStore) path(service, account string) (string, error) {
	parts := make([]string, 0, 2)
	for _, part := range []string{service, account} {
		trimmed := strings.TrimSpace(part)
		if trimmed == "" {
			return "", errors.New("credential service and account must be set")
		}
		if trimmed == "." || trimmed == ".." || strings.ContainsAny(trimmed, `/\`) {
			return "", fmt.Errorf("invalid credential name %q", part)
		}
		parts = append(parts, trimmed)
	}
	return filepath.Join(s.root, parts[0], parts[1]), nil
}
