// Package session keeps the signed-in user and bearer token for one chat,
// persisted in a pluggable Store.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"

	"food-builder/logger"
	"food-builder/models"
)

const (
	KeyAccessToken  = "access_token"
	KeyRefreshToken = "refresh_token"
	KeyUser         = "user"
)

// ErrPasswordMismatch is returned by Register before any request is made.
var ErrPasswordMismatch = errors.New("passwords do not match")

type State int

const (
	StateUnknown State = iota
	StateGuest
	StateAuthenticated
)

func (s State) String() string {
	switch s {
	case StateGuest:
		return "guest"
	case StateAuthenticated:
		return "authenticated"
	default:
		return "unknown"
	}
}

// Authenticator is the part of the API client the session needs.
type Authenticator interface {
	Login(ctx context.Context, username, password string) (*models.AuthTokens, error)
	Register(ctx context.Context, p models.Profile) (*models.AuthTokens, error)
}

type Session struct {
	store Store
	auth  Authenticator
	log   *zap.Logger

	mu     sync.RWMutex
	state  State
	access string
	user   *models.User
}

func New(store Store, auth Authenticator, log *zap.Logger) *Session {
	return &Session{
		store: store,
		auth:  auth,
		log:   logger.OrNop(log),
	}
}

// Restore loads a persisted session. Missing or unreadable data leaves the
// session in guest mode; it never fails.
func (s *Session) Restore(ctx context.Context) State {
	token, hasToken, err := s.store.Get(ctx, KeyAccessToken)
	if err != nil {
		s.log.Warn("restore session: read token", zap.Error(err))
		hasToken = false
	}
	rawUser, hasUser, err := s.store.Get(ctx, KeyUser)
	if err != nil {
		s.log.Warn("restore session: read user", zap.Error(err))
		hasUser = false
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.state, s.access, s.user = StateGuest, "", nil
	if !hasToken || token == "" || !hasUser {
		return s.state
	}
	var u models.User
	if err := json.Unmarshal([]byte(rawUser), &u); err != nil {
		s.log.Info("restore session: stored user does not parse", zap.Error(err))
		return s.state
	}
	if u == (models.User{}) {
		// "null" or "{}" decode cleanly but carry no user.
		return s.state
	}
	s.state, s.access, s.user = StateAuthenticated, token, &u
	return s.state
}

// Login authenticates against the API. On failure the session and the store
// are left as they were and the API error is returned.
func (s *Session) Login(ctx context.Context, username, password string) error {
	tokens, err := s.auth.Login(ctx, username, password)
	if err != nil {
		return err
	}
	s.establish(ctx, tokens)
	return nil
}

// Register creates an account and signs in with it.
func (s *Session) Register(ctx context.Context, p models.Profile) error {
	if p.Password != p.Password2 {
		return ErrPasswordMismatch
	}
	tokens, err := s.auth.Register(ctx, p)
	if err != nil {
		return err
	}
	s.establish(ctx, tokens)
	return nil
}

func (s *Session) establish(ctx context.Context, t *models.AuthTokens) {
	userJSON, err := json.Marshal(t.User)
	if err == nil {
		err = s.persist(ctx, map[string]string{
			KeyAccessToken:  t.Access,
			KeyRefreshToken: t.Refresh,
			KeyUser:         string(userJSON),
		})
	}
	if err != nil {
		// The sign-in still holds for this process.
		s.log.Error("persist session", zap.Error(err))
	}

	u := t.User
	s.mu.Lock()
	s.state, s.access, s.user = StateAuthenticated, t.Access, &u
	s.mu.Unlock()
}

func (s *Session) persist(ctx context.Context, kv map[string]string) error {
	for _, k := range []string{KeyAccessToken, KeyRefreshToken, KeyUser} {
		if err := s.store.Set(ctx, k, kv[k]); err != nil {
			return err
		}
	}
	return nil
}

// Logout forgets the user locally. There is no network call.
func (s *Session) Logout(ctx context.Context) {
	if err := s.store.Delete(ctx, KeyAccessToken, KeyRefreshToken, KeyUser); err != nil {
		s.log.Error("clear session", zap.Error(err))
	}
	s.mu.Lock()
	s.state, s.access, s.user = StateGuest, "", nil
	s.mu.Unlock()
}

// AuthHeader returns the bearer header when signed in, an empty header
// otherwise.
func (s *Session) AuthHeader() http.Header {
	s.mu.RLock()
	defer s.mu.RUnlock()
	h := http.Header{}
	if s.state == StateAuthenticated && s.access != "" {
		h.Set("Authorization", "Bearer "+s.access)
	}
	return h
}

func (s *Session) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

func (s *Session) IsAuthenticated() bool {
	return s.State() == StateAuthenticated
}

// User returns a copy of the signed-in user, or nil for guests.
func (s *Session) User() *models.User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.user == nil {
		return nil
	}
	u := *s.user
	return &u
}

// TokenExpiry reads the exp claim of the access token. The token is not
// verified; the result is informational only.
func (s *Session) TokenExpiry() (time.Time, bool) {
	s.mu.RLock()
	token := s.access
	s.mu.RUnlock()
	if token == "" {
		return time.Time{}, false
	}
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return time.Time{}, false
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}, false
	}
	return exp.Time, true
}
