package bridge

import (
	"context"
	"errors"

	"github.com/rs/zerolog/log"

	"github.com/resbox/resbox-core/internal/audit"
	"github.com/resbox/resbox-core/internal/backend"
	"github.com/resbox/resbox-core/internal/credential"
	apperrors "github.com/resbox/resbox-core/internal/errors"
)

type persistRequest struct {
	remember bool
	username string
	userID   string
	token    string
}

// persist stores the session token when the user asked to be remembered and
// removes any stored one otherwise.
func (b *Bridge) persist(ctx context.Context, req persistRequest) {
	if b.deps.Store == nil {
		return
	}

	if !req.remember {
		if err := b.forget(ctx); err != nil {
			b.notify(errorNotification("Credential deletion failed", err))
		}
		return
	}

	err := errors.Join(
		b.deps.Store.Set(ctx, b.deps.Service, b.deps.Account, req.token),
		b.deps.Store.Set(ctx, b.deps.Service, UsernameAccount, req.username),
	)
	if err != nil {
		log.Error().Err(err).Str("userId", req.userID).Msg("failed to store session token")
		b.notify(errorNotification("Credential store failed", apperrors.CredentialStore(err)))
		return
	}
	audit.Log(ctx, audit.Event{
		Type:     audit.EventCredentialStore,
		UserID:   req.userID,
		Username: req.username,
	})
}

func (b *Bridge) forget(ctx context.Context) error {
	err := errors.Join(
		ignoreNotFound(b.deps.Store.Delete(ctx, b.deps.Service, b.deps.Account)),
		ignoreNotFound(b.deps.Store.Delete(ctx, b.deps.Service, UsernameAccount)),
	)
	if err != nil {
		return apperrors.CredentialStore(err)
	}
	audit.Log(ctx, audit.Event{Type: audit.EventCredentialDelete})
	return nil
}

func ignoreNotFound(err error) error {
	if errors.Is(err, credential.ErrNotFound) {
		return nil
	}
	return err
}

// ClearCredentials forgets the remembered username and deletes the stored
// token.
func (b *Bridge) ClearCredentials(ctx context.Context) error {
	b.mu.Lock()
	b.ui.Login = LoginDetails{}
	b.mu.Unlock()

	if b.deps.Store == nil {
		return nil
	}
	if err := b.forget(ctx); err != nil {
		b.notify(errorNotification("Credential deletion failed", err))
		return err
	}
	return nil
}

// RememberedLogin reads the username and token saved by a previous run.
// It returns backend.FreshLogin when either is missing.
func RememberedLogin(ctx context.Context, store credential.Store, service, account, username string) (backend.InitialLogin, string) {
	if store == nil {
		return backend.FreshLogin{}, username
	}
	if username == "" {
		stored, err := store.Get(ctx, service, UsernameAccount)
		if err != nil {
			if !errors.Is(err, credential.ErrNotFound) {
				log.Warn().Err(err).Msg("failed to read remembered username")
			}
			return backend.FreshLogin{}, ""
		}
		username = stored
	}
	if username == "" {
		return backend.FreshLogin{}, ""
	}

	token, err := store.Get(ctx, service, account)
	if err != nil {
		if !errors.Is(err, credential.ErrNotFound) {
			log.Warn().Err(err).Msg("failed to read stored session token")
		}
		return backend.FreshLogin{}, username
	}

	audit.Log(ctx, audit.Event{Type: audit.EventTokenResume, Username: username})
	return backend.PreviousToken{Username: username, SessionToken: token}, username
}
