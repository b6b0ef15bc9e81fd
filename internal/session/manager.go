package session

import (
	"context"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"go.uber.org/zap"

	"github.com/plmdeck/backend/internal/metrics"
	"github.com/plmdeck/backend/internal/plm"
	"github.com/plmdeck/backend/internal/settings"
	"github.com/plmdeck/backend/pkg/logger"
)

// validityTTL is the freshness window of the advisory validity cache.
// The cache exists so UI affordances (menu rendering, status badges)
// don't hammer the backend; anything that needs a guaranteed-valid
// session must go through the live request path regardless.
const validityTTL = 5 * time.Minute

const validityCacheKey = "session_valid"

// Authenticator is the slice of the PLM client the manager needs.
type Authenticator interface {
	Login(ctx context.Context, req plm.LoginRequest) (plm.Session, error)
	ValidateSession(ctx context.Context) bool
}

type Manager struct {
	client Authenticator
	store  *settings.Store
	cache  *gocache.Cache
}

func NewManager(client Authenticator, store *settings.Store) *Manager {
	return &Manager{
		client: client,
		store:  store,
		cache:  gocache.New(validityTTL, 10*time.Minute),
	}
}

// Login authenticates against the backend and persists the resulting
// session. The password is used once and discarded.
func (m *Manager) Login(ctx context.Context, email, password, workspaceID string) (plm.Session, error) {
	sess, err := m.client.Login(ctx, plm.LoginRequest{
		Email:       email,
		Password:    password,
		WorkspaceID: workspaceID,
	})
	if err != nil {
		return plm.Session{}, err
	}

	if err := m.store.SaveSession(ctx, sess); err != nil {
		logger.Warn("Failed to persist session", zap.Error(err))
	}

	m.cache.Set(validityCacheKey, true, validityTTL)
	m.store.SetValidityCache(ctx, true)

	return sess, nil
}

// Logout clears the stored session and the validity cache.
func (m *Manager) Logout(ctx context.Context) {
	m.store.ClearSession(ctx)
	m.cache.Delete(validityCacheKey)
	logger.Info("Session cleared")
}

// Session returns the stored session, valid or not.
func (m *Manager) Session(ctx context.Context) plm.Session {
	return m.store.Session(ctx)
}

// IsValid is the advisory check. Fast paths: no token means invalid
// with no network call, and a fresh cached answer is returned as-is.
// Only a stale or absent cache triggers the authoritative live
// validation, whose outcome refreshes the cache.
func (m *Manager) IsValid(ctx context.Context) bool {
	if m.store.SessionToken(ctx) == "" {
		metrics.SessionValidations.WithLabelValues("no_token", "invalid").Inc()
		return false
	}

	if cached, found := m.cache.Get(validityCacheKey); found {
		metrics.SessionValidations.WithLabelValues("cache", outcome(cached.(bool))).Inc()
		return cached.(bool)
	}

	// The persisted pair survives process restarts.
	if persisted, ok := m.store.ValidityCache(ctx); ok && time.Since(persisted.CheckedAt) < validityTTL {
		m.cache.Set(validityCacheKey, persisted.Valid, validityTTL-time.Since(persisted.CheckedAt))
		metrics.SessionValidations.WithLabelValues("persisted", outcome(persisted.Valid)).Inc()
		return persisted.Valid
	}

	valid := m.client.ValidateSession(ctx)
	m.cache.Set(validityCacheKey, valid, validityTTL)
	m.store.SetValidityCache(ctx, valid)
	metrics.SessionValidations.WithLabelValues("live", outcome(valid)).Inc()

	logger.Debug("Live session validation", zap.Bool("valid", valid))

	return valid
}

func outcome(valid bool) string {
	if valid {
		return "valid"
	}
	return "invalid"
}
