package httpapi

import (
	"github.com/denisok6893-rgb/swampswipe/internal/domain"
	"github.com/denisok6893-rgb/swampswipe/internal/extraction"
	"github.com/denisok6893-rgb/swampswipe/internal/session"
)

const upcomingCards = 2

type listingView struct {
	domain.Listing
	LivelinessLabel string `json:"livelinessLabel"`
}

func newListingView(l domain.Listing) listingView {
	return listingView{Listing: l, LivelinessLabel: domain.LivelinessLabel(l.Liveliness)}
}

type scoredView struct {
	domain.ScoredListing
	LivelinessLabel string `json:"livelinessLabel"`
}

func newScoredView(sl domain.ScoredListing) scoredView {
	return scoredView{ScoredListing: sl, LivelinessLabel: domain.LivelinessLabel(sl.Liveliness)}
}

func scoredViews(deck []domain.ScoredListing) []scoredView {
	out := make([]scoredView, 0, len(deck))
	for _, sl := range deck {
		out = append(out, newScoredView(sl))
	}
	return out
}

type sessionView struct {
	State       session.State      `json:"state"`
	Cursor      int                `json:"cursor"`
	DeckSize    int                `json:"deckSize"`
	Current     *scoredView        `json:"current"`
	Upcoming    []scoredView       `json:"upcoming"`
	LikedIDs    []string           `json:"likedIds"`
	SkippedIDs  []string           `json:"skippedIds"`
	PendingExit *session.Direction `json:"pendingExit"`
	Preferences domain.Preferences `json:"preferences"`
	FirstRun    bool               `json:"firstRun"`
	Extraction  extraction.Status  `json:"extraction"`
	Notice      string             `json:"notice,omitempty"`
}

// viewSession must be called with s.mu held.
func (s *Server) viewSession() sessionView {
	sess := s.session
	v := sessionView{
		State:       sess.State(),
		Cursor:      sess.Cursor(),
		DeckSize:    len(sess.Deck()),
		Upcoming:    scoredViews(sess.Upcoming(upcomingCards)),
		LikedIDs:    nonNil(sess.LikedIDs()),
		SkippedIDs:  nonNil(sess.SkippedIDs()),
		Preferences: sess.Preferences(),
		FirstRun:    sess.FirstRun(),
		Extraction:  s.gate.Status(),
	}
	if cur, ok := sess.Current(); ok {
		cv := newScoredView(cur)
		v.Current = &cv
	}
	if dir := sess.PendingExit(); dir != session.NoExit {
		v.PendingExit = &dir
	}
	if err := sess.Notice(); err != nil {
		v.Notice = "stored preferences could not be read; defaults are in use"
	}
	return v
}

func nonNil(ids []string) []string {
	if ids == nil {
		return []string{}
	}
	return ids
}
