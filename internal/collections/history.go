package collections

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/plmdeck/backend/internal/plm"
	"github.com/plmdeck/backend/internal/settings"
	"github.com/plmdeck/backend/pkg/logger"
)

// MaxHistory bounds the saved-collection list. Insertion is LIFO: the
// newest collection is always first and the oldest falls off the end.
const MaxHistory = 5

// DefaultMaxItems bounds how many records a snapshot keeps.
const DefaultMaxItems = 10

// Collection is a saved snapshot of a prior search selection.
type Collection struct {
	ID        string       `json:"id"`
	Name      string       `json:"name"`
	Timestamp time.Time    `json:"timestamp"`
	Items     []plm.Record `json:"items"`
}

type Store struct {
	repo     settings.Repository
	maxItems int
}

func NewStore(repo settings.Repository, maxItems int) *Store {
	if maxItems <= 0 {
		maxItems = DefaultMaxItems
	}
	return &Store{repo: repo, maxItems: maxItems}
}

// Save snapshots the given records under a name, truncating the item
// list and evicting the oldest collection beyond MaxHistory.
func (s *Store) Save(ctx context.Context, name string, items []plm.Record) (Collection, error) {
	if len(items) > s.maxItems {
		items = items[:s.maxItems]
	}

	col := Collection{
		ID:        uuid.New().String(),
		Name:      name,
		Timestamp: time.Now(),
		Items:     items,
	}

	history := s.List(ctx)
	history = append([]Collection{col}, history...)
	if len(history) > MaxHistory {
		history = history[:MaxHistory]
	}

	if err := s.persist(ctx, history); err != nil {
		return Collection{}, err
	}

	logger.Info("Collection saved",
		zap.String("name", name),
		zap.Int("items", len(items)),
		zap.Int("history_size", len(history)),
	)

	return col, nil
}

// List returns the history, newest first. Corrupt or missing history
// reads as empty.
func (s *Store) List(ctx context.Context) []Collection {
	raw, _ := s.repo.Get(ctx, settings.KeyCollections)
	if raw == "" {
		return nil
	}

	var history []Collection
	if err := json.Unmarshal([]byte(raw), &history); err != nil {
		logger.Warn("Discarding unparseable collection history", zap.Error(err))
		return nil
	}
	return history
}

func (s *Store) Get(ctx context.Context, id string) (Collection, error) {
	for _, col := range s.List(ctx) {
		if col.ID == id {
			return col, nil
		}
	}
	return Collection{}, fmt.Errorf("collection %s not found", id)
}

func (s *Store) Delete(ctx context.Context, id string) error {
	history := s.List(ctx)
	kept := make([]Collection, 0, len(history))
	for _, col := range history {
		if col.ID != id {
			kept = append(kept, col)
		}
	}
	if len(kept) == len(history) {
		return fmt.Errorf("collection %s not found", id)
	}
	return s.persist(ctx, kept)
}

func (s *Store) persist(ctx context.Context, history []Collection) error {
	data, err := json.Marshal(history)
	if err != nil {
		return fmt.Errorf("failed to marshal history: %w", err)
	}
	return s.repo.Set(ctx, settings.KeyCollections, string(data))
}
