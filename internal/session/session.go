// Package session owns the authenticated identity and the persisted bearer token.
package session

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/zap"

	"github.com/and161185/academy-client/internal/credentials"
	"github.com/and161185/academy-client/internal/errs"
	"github.com/and161185/academy-client/internal/model"
)

// AuthAPI is the subset of the auth resource client the store needs.
type AuthAPI interface {
	Login(ctx context.Context, email, password string) (model.Session, error)
	Me(ctx context.Context) (model.Session, error)
	Logout(ctx context.Context, token string) error
}

// Store is the single writer of the credential slot.
type Store struct {
	auth  AuthAPI
	creds credentials.Provider
	log   *zap.Logger

	mu  sync.RWMutex
	cur *model.Session
}

// New builds a store. Register Teardown as the client's unauthenticated hook.
func New(auth AuthAPI, creds credentials.Provider, log *zap.Logger) *Store {
	if log == nil {
		log = zap.NewNop()
	}
	return &Store{auth: auth, creds: creds, log: log}
}

// Login authenticates, persists the token and populates the session.
func (s *Store) Login(ctx context.Context, email, password string) (model.Session, error) {
	sess, err := s.auth.Login(ctx, email, password)
	if err != nil {
		return model.Session{}, err
	}
	if err := s.creds.Set(ctx, sess.Token); err != nil {
		return model.Session{}, err
	}
	s.set(&sess)
	s.log.Info("logged in", zap.String("user_id", sess.UserID))
	return sess, nil
}

// Logout clears the token before telling the server; the notify is best effort.
func (s *Store) Logout(ctx context.Context) error {
	tok, readErr := s.creds.Token(ctx)
	clearErr := s.creds.Clear(ctx)
	s.set(nil)

	if readErr == nil && tok != "" {
		if err := s.auth.Logout(ctx, tok); err != nil {
			s.log.Debug("logout notify failed", zap.Error(err))
		}
	}
	return clearErr
}

// CurrentUser refreshes the session from the server. A rejected or failed
// refresh clears the token; a network failure keeps it.
func (s *Store) CurrentUser(ctx context.Context) (model.Session, error) {
	sess, err := s.auth.Me(ctx)
	if err != nil {
		if errors.Is(err, errs.ErrUnauthenticated) || errors.Is(err, errs.ErrRequestFailed) {
			s.Teardown(ctx)
			return model.Session{}, errs.ErrUnauthenticated
		}
		return model.Session{}, err
	}
	s.set(&sess)
	return sess, nil
}

// Current returns the cached session.
func (s *Store) Current() (model.Session, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.cur == nil {
		return model.Session{}, false
	}
	return *s.cur, true
}

// Teardown drops the session and the persisted token.
func (s *Store) Teardown(ctx context.Context) {
	if err := s.creds.Clear(ctx); err != nil {
		s.log.Warn("clear token", zap.Error(err))
	}
	s.mu.Lock()
	had := s.cur != nil
	s.cur = nil
	s.mu.Unlock()
	if had {
		s.log.Info("session ended")
	}
}

func (s *Store) set(sess *model.Session) {
	s.mu.Lock()
	s.cur = sess
	s.mu.Unlock()
}
