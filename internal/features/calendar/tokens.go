package calendar

import (
	"context"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// NeedsRefresh reports whether a token expiring at expiry must be refreshed
// now. A token with exactly window left is still used as is.
func NeedsRefresh(expiry, now time.Time, window time.Duration) bool {
	return expiry.Sub(now) < window
}

// TokenManager hands out usable access tokens, refreshing them first when
// they are about to expire. Concurrent refreshes for one user share a single
// provider call.
type TokenManager struct {
	Repo     TokenRepository
	Provider Provider
	Window   time.Duration
	Logger   *zap.Logger
	Now      func() time.Time

	group singleflight.Group
}

func NewTokenManager(repo TokenRepository, provider Provider, window time.Duration, logger *zap.Logger) *TokenManager {
	return &TokenManager{
		Repo:     repo,
		Provider: provider,
		Window:   window,
		Logger:   logger,
		Now:      time.Now,
	}
}

// AccessToken returns a fresh access token for tok's user, blocking on a
// refresh when needed.
func (m *TokenManager) AccessToken(ctx context.Context, tok *Token) (string, error) {
	if !NeedsRefresh(tok.TokenExpiry, m.Now(), m.Window) {
		return tok.AccessToken, nil
	}

	v, err, shared := m.group.Do(tok.UserID, func() (interface{}, error) {
		refreshed, err := m.Provider.Refresh(ctx, tok.RefreshToken)
		if err != nil {
			return nil, err
		}
		if err := m.Repo.UpdateAccess(ctx, tok.UserID, *refreshed, m.Now().UTC()); err != nil {
			return nil, err
		}
		m.Logger.Info("calendar token refreshed", zap.String("user_id", tok.UserID), zap.Time("expiry", refreshed.Expiry))
		return refreshed.AccessToken, nil
	})
	if err != nil {
		return "", err
	}
	if shared {
		m.Logger.Debug("calendar token refresh shared", zap.String("user_id", tok.UserID))
	}
	return v.(string), nil
}
