package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"

	"github.com/denisok6893-rgb/swampswipe/internal/domain"
)

const (
	PreferencesKey = "swampswipe_preferences"
	LikedKey       = "swampswipe_liked"
)

var errCorruptValue = errors.New("stored value is corrupt")

// PreferenceStore persists the whole Preferences record under one key.
type PreferenceStore struct {
	kv  KV
	key string
}

func NewPreferenceStore(kv KV) *PreferenceStore {
	return &PreferenceStore{kv: kv, key: PreferencesKey}
}

// Load returns found == false when nothing has been saved yet (first run).
// Unreadable or invalid values are reported as domain.ErrPersistenceRead.
func (s *PreferenceStore) Load(ctx context.Context) (domain.Preferences, bool, error) {
	raw, found, err := s.kv.Get(ctx, s.key)
	if err != nil {
		return domain.Preferences{}, false, fmt.Errorf("%w: %w", domain.ErrPersistenceRead, err)
	}
	if !found {
		return domain.Preferences{}, false, nil
	}

	var p domain.Preferences
	if err := json.Unmarshal([]byte(raw), &p); err != nil {
		return domain.Preferences{}, false, fmt.Errorf("%w: %w: %v", domain.ErrPersistenceRead, errCorruptValue, err)
	}
	if err := p.Validate(); err != nil {
		return domain.Preferences{}, false, fmt.Errorf("%w: %w: %v", domain.ErrPersistenceRead, errCorruptValue, err)
	}
	return p, true, nil
}

func (s *PreferenceStore) Save(ctx context.Context, p domain.Preferences) error {
	b, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("storage: marshal preferences: %w", err)
	}
	return s.kv.Set(ctx, s.key, string(b))
}

// LikedStore persists the ordered liked-id sequence under one key.
// Ids are kept unique; liking an id twice does not duplicate it.
type LikedStore struct {
	kv  KV
	key string
}

func NewLikedStore(kv KV) *LikedStore {
	return &LikedStore{kv: kv, key: LikedKey}
}

// Load returns nil when nothing has been saved yet.
func (s *LikedStore) Load(ctx context.Context) ([]string, error) {
	raw, found, err := s.kv.Get(ctx, s.key)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrPersistenceRead, err)
	}
	if !found {
		return nil, nil
	}

	var ids []string
	if err := json.Unmarshal([]byte(raw), &ids); err != nil {
		return nil, fmt.Errorf("%w: %w: %v", domain.ErrPersistenceRead, errCorruptValue, err)
	}
	return ids, nil
}

func (s *LikedStore) Save(ctx context.Context, ids []string) error {
	if ids == nil {
		ids = []string{}
	}
	b, err := json.Marshal(ids)
	if err != nil {
		return fmt.Errorf("storage: marshal liked ids: %w", err)
	}
	return s.kv.Set(ctx, s.key, string(b))
}

// Add appends id unless it is already present. A corrupt stored value is
// replaced; a failed read is returned without writing.
func (s *LikedStore) Add(ctx context.Context, id string) error {
	ids, err := s.loadForUpdate(ctx)
	if err != nil {
		return err
	}
	if slices.Contains(ids, id) {
		return nil
	}
	return s.Save(ctx, append(ids, id))
}

// Remove drops id from the sequence. Removing an absent id still rewrites the value.
func (s *LikedStore) Remove(ctx context.Context, id string) error {
	ids, err := s.loadForUpdate(ctx)
	if err != nil {
		return err
	}
	return s.Save(ctx, slices.DeleteFunc(ids, func(v string) bool { return v == id }))
}

func (s *LikedStore) loadForUpdate(ctx context.Context) ([]string, error) {
	ids, err := s.Load(ctx)
	if errors.Is(err, errCorruptValue) {
		return nil, nil
	}
	return ids, err
}
