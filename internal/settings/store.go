package settings

import (
	"context"
	"encoding/json"
	"time"

	"go.uber.org/zap"

	"github.com/plmdeck/backend/internal/plm"
	"github.com/plmdeck/backend/internal/schema"
	"github.com/plmdeck/backend/pkg/logger"
)

// Repository is durable string key-value persistence scoped to the
// current user. Get returns "" for unset keys and never fails on a
// missing key; writes are independent and idempotent, so there is no
// atomicity across multi-key saves.
type Repository interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
}

const (
	KeySessionToken     = "session_token"
	KeySessionEmail     = "session_email"
	KeySessionWorkspace = "session_workspace"
	KeySessionCreatedAt = "session_created_at"
	KeySessionValid     = "session_valid"
	KeySessionCheckedAt = "session_checked_at"
	KeyAPIKey           = "ai_api_key"
	KeySchemaConfig     = "schema_config"
	KeyDetailLevel      = "detail_level"
	KeySlideTemplate    = "slide_template"
	KeyCollections      = "collection_history"
)

// Store layers typed accessors over the raw repository.
type Store struct {
	repo Repository
}

func NewStore(repo Repository) *Store {
	return &Store{repo: repo}
}

func (s *Store) Repo() Repository {
	return s.repo
}

func (s *Store) SaveSession(ctx context.Context, sess plm.Session) error {
	fields := map[string]string{
		KeySessionToken:     sess.Token,
		KeySessionEmail:     sess.UserEmail,
		KeySessionWorkspace: sess.WorkspaceID,
		KeySessionCreatedAt: sess.CreatedAt.UTC().Format(time.RFC3339),
	}
	for key, value := range fields {
		if err := s.repo.Set(ctx, key, value); err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) Session(ctx context.Context) plm.Session {
	token, _ := s.repo.Get(ctx, KeySessionToken)
	email, _ := s.repo.Get(ctx, KeySessionEmail)
	workspace, _ := s.repo.Get(ctx, KeySessionWorkspace)
	createdRaw, _ := s.repo.Get(ctx, KeySessionCreatedAt)

	sess := plm.Session{
		Token:       token,
		UserEmail:   email,
		WorkspaceID: workspace,
	}
	if createdRaw != "" {
		if t, err := time.Parse(time.RFC3339, createdRaw); err == nil {
			sess.CreatedAt = t
		}
	}
	return sess
}

func (s *Store) ClearSession(ctx context.Context) {
	keys := []string{
		KeySessionToken, KeySessionEmail, KeySessionWorkspace,
		KeySessionCreatedAt, KeySessionValid, KeySessionCheckedAt,
	}
	for _, key := range keys {
		if err := s.repo.Delete(ctx, key); err != nil {
			logger.Warn("Failed to clear session key", zap.String("key", key), zap.Error(err))
		}
	}
}

// SessionToken is the hot-path read used on every outbound request.
func (s *Store) SessionToken(ctx context.Context) string {
	token, _ := s.repo.Get(ctx, KeySessionToken)
	return token
}

func (s *Store) SetSessionToken(ctx context.Context, token string) error {
	return s.repo.Set(ctx, KeySessionToken, token)
}

func (s *Store) APIKey(ctx context.Context) string {
	key, _ := s.repo.Get(ctx, KeyAPIKey)
	return key
}

func (s *Store) SetAPIKey(ctx context.Context, key string) error {
	return s.repo.Set(ctx, KeyAPIKey, key)
}

func (s *Store) DetailLevel(ctx context.Context) string {
	level, _ := s.repo.Get(ctx, KeyDetailLevel)
	if level == "" {
		return "medium"
	}
	return level
}

func (s *Store) SetDetailLevel(ctx context.Context, level string) error {
	return s.repo.Set(ctx, KeyDetailLevel, level)
}

func (s *Store) SlideTemplate(ctx context.Context) string {
	template, _ := s.repo.Get(ctx, KeySlideTemplate)
	return template
}

func (s *Store) SetSlideTemplate(ctx context.Context, template string) error {
	return s.repo.Set(ctx, KeySlideTemplate, template)
}

// ValidityCache is the advisory session-validity pair. It exists for UI
// affordances only; operations that need a guaranteed-valid session go
// through the live validation path instead.
type ValidityCache struct {
	Valid     bool
	CheckedAt time.Time
}

func (s *Store) ValidityCache(ctx context.Context) (ValidityCache, bool) {
	validRaw, _ := s.repo.Get(ctx, KeySessionValid)
	checkedRaw, _ := s.repo.Get(ctx, KeySessionCheckedAt)
	if validRaw == "" || checkedRaw == "" {
		return ValidityCache{}, false
	}
	checkedAt, err := time.Parse(time.RFC3339, checkedRaw)
	if err != nil {
		return ValidityCache{}, false
	}
	return ValidityCache{Valid: validRaw == "true", CheckedAt: checkedAt}, true
}

func (s *Store) SetValidityCache(ctx context.Context, valid bool) {
	value := "false"
	if valid {
		value = "true"
	}
	if err := s.repo.Set(ctx, KeySessionValid, value); err != nil {
		logger.Warn("Failed to persist validity flag", zap.Error(err))
		return
	}
	if err := s.repo.Set(ctx, KeySessionCheckedAt, time.Now().UTC().Format(time.RFC3339)); err != nil {
		logger.Warn("Failed to persist validity timestamp", zap.Error(err))
	}
}

// SchemaConfig round-trips the JSON schema-configuration blob. A
// missing or corrupt blob yields the empty skeleton, never an error.
func (s *Store) SchemaConfig(ctx context.Context, out any) {
	raw, _ := s.repo.Get(ctx, KeySchemaConfig)
	if raw == "" {
		return
	}
	if err := json.Unmarshal([]byte(raw), out); err != nil {
		logger.Warn("Discarding unparseable schema config", zap.Error(err))
	}
}

func (s *Store) SetSchemaConfig(ctx context.Context, cfg any) error {
	data, err := json.Marshal(cfg)
	if err != nil {
		return err
	}
	return s.repo.Set(ctx, KeySchemaConfig, string(data))
}

// Schema returns the parsed schema configuration, or the empty
// skeleton when none is saved.
func (s *Store) Schema(ctx context.Context) schema.Config {
	var cfg schema.Config
	s.SchemaConfig(ctx, &cfg)
	return cfg
}
