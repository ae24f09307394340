// Package session holds the swipe state machine: a cursor over the ranked
// deck, the liked and skipped decisions of the current pass, and the
// two-step record/advance protocol the UI drives around its exit animation.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"

	"github.com/denisok6893-rgb/swampswipe/internal/catalog"
	"github.com/denisok6893-rgb/swampswipe/internal/domain"
	"github.com/denisok6893-rgb/swampswipe/internal/matching"
)

type Direction string

const (
	NoExit Direction = ""
	Left   Direction = "left"
	Right  Direction = "right"
)

type State string

const (
	Browsing  State = "browsing"
	Exhausted State = "exhausted"
)

var ErrUnknownDirection = errors.New("unknown swipe direction")

type PreferenceRepo interface {
	Load(ctx context.Context) (domain.Preferences, bool, error)
	Save(ctx context.Context, p domain.Preferences) error
}

type LikedRepo interface {
	Load(ctx context.Context) ([]string, error)
	Add(ctx context.Context, id string) error
	Remove(ctx context.Context, id string) error
}

type Deps struct {
	Catalog     *catalog.Catalog
	Engine      *matching.Engine
	Preferences PreferenceRepo
	Liked       LikedRepo
	Logger      *slog.Logger
}

// Session is not safe for concurrent use; callers serialise mutations.
type Session struct {
	cat       *catalog.Catalog
	engine    *matching.Engine
	prefStore PreferenceRepo
	liked     LikedRepo
	log       *slog.Logger

	prefs       domain.Preferences
	firstRun    bool
	notice      error
	deck        []domain.ScoredListing
	cursor      int
	likedIDs    []string
	skippedIDs  []string
	pendingExit Direction
}

// Open restores stored preferences (or falls back to defaults) and ranks the
// catalog. A stored value that cannot be read is not fatal: defaults are used
// and the failure is kept as the session notice.
func Open(ctx context.Context, d Deps) (*Session, error) {
	log := d.Logger
	if log == nil {
		log = slog.Default()
	}
	s := &Session{
		cat:       d.Catalog,
		engine:    d.Engine,
		prefStore: d.Preferences,
		liked:     d.Liked,
		log:       log,
	}

	prefs, found, err := s.prefStore.Load(ctx)
	switch {
	case errors.Is(err, domain.ErrPersistenceRead):
		s.log.Warn("stored preferences unusable, using defaults", "error", err)
		s.notice = err
		prefs, found = domain.DefaultPreferences(), false
	case err != nil:
		return nil, fmt.Errorf("session: load preferences: %w", err)
	case !found:
		prefs = domain.DefaultPreferences()
	}
	s.firstRun = !found

	deck, err := s.engine.Deck(s.cat, prefs)
	if err != nil {
		return nil, fmt.Errorf("session: rank catalog: %w", err)
	}
	s.prefs, s.deck = prefs, deck
	return s, nil
}

func (s *Session) Preferences() domain.Preferences { return s.prefs }

// FirstRun reports that no usable preferences were stored when the session opened.
func (s *Session) FirstRun() bool { return s.firstRun }

// Notice is the last recovered environmental failure, or nil.
func (s *Session) Notice() error { return s.notice }

func (s *Session) Cursor() int { return s.cursor }

func (s *Session) PendingExit() Direction { return s.pendingExit }

func (s *Session) State() State {
	if s.cursor < len(s.deck) {
		return Browsing
	}
	return Exhausted
}

func (s *Session) Deck() []domain.ScoredListing {
	return matching.Top(s.deck, len(s.deck))
}

func (s *Session) Current() (domain.ScoredListing, bool) {
	if s.cursor >= len(s.deck) {
		return domain.ScoredListing{}, false
	}
	return s.deck[s.cursor], true
}

// Upcoming returns up to n cards queued behind the current one.
func (s *Session) Upcoming(n int) []domain.ScoredListing {
	if s.cursor+1 >= len(s.deck) {
		return []domain.ScoredListing{}
	}
	return matching.Top(s.deck[s.cursor+1:], n)
}

func (s *Session) LikedIDs() []string   { return slices.Clone(s.likedIDs) }
func (s *Session) SkippedIDs() []string { return slices.Clone(s.skippedIDs) }

// RecordDecision is the first half of a swipe. A right swipe is persisted to
// the liked store before session state changes. It reports false without
// error when there is no current card or an exit is already pending.
func (s *Session) RecordDecision(ctx context.Context, dir Direction) (bool, error) {
	if dir != Left && dir != Right {
		return false, fmt.Errorf("session: %w: %q", ErrUnknownDirection, dir)
	}
	cur, ok := s.Current()
	if !ok || s.pendingExit != NoExit {
		return false, nil
	}

	if dir == Right {
		if err := s.liked.Add(ctx, cur.ID); err != nil {
			return false, fmt.Errorf("session: persist like %s: %w", cur.ID, err)
		}
		s.likedIDs = append(s.likedIDs, cur.ID)
	} else {
		s.skippedIDs = append(s.skippedIDs, cur.ID)
	}
	s.pendingExit = dir
	return true, nil
}

func (s *Session) Like(ctx context.Context) (bool, error) { return s.RecordDecision(ctx, Right) }
func (s *Session) Skip(ctx context.Context) (bool, error) { return s.RecordDecision(ctx, Left) }

// Advance is the second half of a swipe, called once the exit animation ends.
func (s *Session) Advance() bool {
	if s.pendingExit == NoExit {
		return false
	}
	s.cursor++
	s.pendingExit = NoExit
	return true
}

// Swipe records and advances in one step.
func (s *Session) Swipe(ctx context.Context, dir Direction) (bool, error) {
	ok, err := s.RecordDecision(ctx, dir)
	if !ok || err != nil {
		return ok, err
	}
	return s.Advance(), nil
}

// Reset starts a new pass with p. Session counters are cleared; the durable
// liked set is left as it is.
func (s *Session) Reset(ctx context.Context, p domain.Preferences) error {
	deck, err := s.replacePreferences(ctx, p)
	if err != nil {
		return err
	}
	s.prefs, s.deck = p, deck
	s.cursor = 0
	s.likedIDs, s.skippedIDs = nil, nil
	s.pendingExit = NoExit
	s.firstRun = false
	s.notice = nil
	s.log.Info("session reset", "preferences", p, "deck_size", len(deck))
	return nil
}

// UpdatePreferences swaps the preferences mid-pass. The cursor keeps its
// index into the recomputed deck, so cards may be skipped or repeated.
func (s *Session) UpdatePreferences(ctx context.Context, p domain.Preferences) error {
	deck, err := s.replacePreferences(ctx, p)
	if err != nil {
		return err
	}
	s.prefs, s.deck = p, deck
	s.firstRun = false
	s.log.Info("preferences updated", "preferences", p, "cursor", s.cursor)
	return nil
}

func (s *Session) replacePreferences(ctx context.Context, p domain.Preferences) ([]domain.ScoredListing, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	deck, err := s.engine.Deck(s.cat, p)
	if err != nil {
		return nil, err
	}
	if err := s.prefStore.Save(ctx, p); err != nil {
		return nil, fmt.Errorf("session: save preferences: %w", err)
	}
	return deck, nil
}

// RemoveLiked drops id from the durable liked set. Session counters are not touched.
func (s *Session) RemoveLiked(ctx context.Context, id string) error {
	if err := s.liked.Remove(ctx, id); err != nil {
		return fmt.Errorf("session: remove liked %s: %w", id, err)
	}
	return nil
}

// LikedListings materialises the durable liked set against the catalog.
// On a read failure it returns an empty list together with the error.
func (s *Session) LikedListings(ctx context.Context) ([]domain.Listing, error) {
	ids, err := s.liked.Load(ctx)
	if err != nil {
		s.log.Warn("liked set unreadable", "error", err)
		return []domain.Listing{}, err
	}
	return s.cat.Select(ids), nil
}
