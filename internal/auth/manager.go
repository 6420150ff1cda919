package auth

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/wb-go/wbf/zlog"
	"golang.org/x/sync/singleflight"
)

type issuer interface {
	Refresh(ctx context.Context, refresh string) (Tokens, error)
	Login(ctx context.Context) (Tokens, error)
}

// TokenManager hands out access tokens and renews them. All renewals go
// through a single in-flight refresh; it is the only writer of the store.
type TokenManager struct {
	store  TokenStore
	issuer issuer
	leeway time.Duration
	now    func() time.Time
	logger *zlog.Zerolog

	group singleflight.Group

	mu     sync.Mutex
	loaded bool
	tokens Tokens
}

func NewTokenManager(store TokenStore, issuer issuer, leeway time.Duration, logger *zlog.Zerolog) *TokenManager {
	return &TokenManager{
		store:  store,
		issuer: issuer,
		leeway: leeway,
		now:    time.Now,
		logger: logger,
	}
}

// Token returns the stored access token while it is valid, and a refreshed
// one otherwise.
func (m *TokenManager) Token(ctx context.Context) (string, error) {
	tokens, err := m.current()
	if err != nil {
		return "", err
	}
	if tokens.Access != "" && m.valid(tokens.Access) {
		return tokens.Access, nil
	}
	return m.Refresh(ctx, tokens.Access)
}

// Refresh replaces stale with a new access token. Concurrent callers share
// one request, and a caller whose stale token was already replaced by a
// valid one gets that token without a network call.
func (m *TokenManager) Refresh(ctx context.Context, stale string) (string, error) {
	v, err, shared := m.group.Do("refresh", func() (any, error) {
		tokens, err := m.current()
		if err != nil {
			return "", err
		}
		if tokens.Access != "" && tokens.Access != stale && m.valid(tokens.Access) {
			return tokens.Access, nil
		}
		return m.refresh(context.WithoutCancel(ctx), tokens)
	})
	if err != nil {
		return "", err
	}

	m.logger.Debug().Bool("shared", shared).Msg("Access token refreshed")
	return v.(string), nil
}

func (m *TokenManager) refresh(ctx context.Context, tokens Tokens) (string, error) {
	fresh, refreshErr := m.issuer.Refresh(ctx, tokens.Refresh)
	if refreshErr != nil {
		m.logger.Warn().Err(refreshErr).Msg("Refresh token rejected, logging in again")

		var loginErr error
		fresh, loginErr = m.issuer.Login(ctx)
		if loginErr != nil {
			m.logger.Error().Err(loginErr).Msg("Failed to obtain access token")
			return "", &AuthRefreshError{Err: errors.Join(refreshErr, loginErr)}
		}
	}

	m.mu.Lock()
	m.tokens = fresh
	m.loaded = true
	m.mu.Unlock()

	if err := m.store.Save(fresh); err != nil {
		m.logger.Warn().Err(err).Msg("Failed to persist tokens")
	}

	return fresh.Access, nil
}

func (m *TokenManager) current() (Tokens, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.loaded {
		tokens, err := m.store.Load()
		if err != nil {
			return Tokens{}, err
		}
		m.tokens = tokens
		m.loaded = true
	}
	return m.tokens, nil
}

// valid decodes the token locally, without verifying its signature, and
// checks that it does not expire within the leeway. Tokens without an exp
// claim never expire.
func (m *TokenManager) valid(token string) bool {
	claims := jwt.MapClaims{}
	if _, _, err := new(jwt.Parser).ParseUnverified(token, claims); err != nil {
		return false
	}

	var exp int64
	switch v := claims["exp"].(type) {
	case nil:
		return true
	case float64:
		exp = int64(v)
	case json.Number:
		n, err := v.Int64()
		if err != nil {
			return false
		}
		exp = n
	default:
		return false
	}

	return time.Unix(exp, 0).After(m.now().Add(m.leeway))
}
