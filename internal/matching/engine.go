package matching

import (
	"fmt"
	"sort"
	"sync"

	"github.com/denisok6893-rgb/swampswipe/internal/catalog"
	"github.com/denisok6893-rgb/swampswipe/internal/domain"
)

// Score returns the 0..100 fit of a listing for the given preferences.
func Score(l domain.Listing, p domain.Preferences) (int, error) {
	score, _, err := scoreOne(DefaultWeights(), l, p)
	return score, err
}

// Rank scores every listing and orders them by descending score.
// Equal scores keep their input order.
func Rank(listings []domain.Listing, p domain.Preferences) ([]domain.ScoredListing, error) {
	return rankWith(DefaultWeights(), listings, p)
}

// Top returns at most n leading entries of a ranked deck.
func Top(deck []domain.ScoredListing, n int) []domain.ScoredListing {
	if n < 0 {
		n = 0
	}
	if len(deck) > n {
		deck = deck[:n]
	}
	out := make([]domain.ScoredListing, len(deck))
	copy(out, deck)
	return out
}

// Engine ranks a catalog and remembers the last deck it produced, so repeated
// requests for the same catalog and preferences skip the recompute.
type Engine struct {
	weights Weights

	mu       sync.Mutex
	memoCat  *catalog.Catalog
	memoPref domain.Preferences
	memoDeck []domain.ScoredListing
	computed int
}

func NewEngine() *Engine {
	return &Engine{weights: DefaultWeights()}
}

// Deck returns the ranked deck for cat under p. The returned slice is a copy.
func (e *Engine) Deck(cat *catalog.Catalog, p domain.Preferences) ([]domain.ScoredListing, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.memoDeck != nil && e.memoCat == cat && e.memoPref == p {
		return Top(e.memoDeck, len(e.memoDeck)), nil
	}

	deck, err := rankWith(e.weights, cat.Listings(), p)
	if err != nil {
		return nil, err
	}
	e.computed++
	e.memoCat, e.memoPref, e.memoDeck = cat, p, deck
	return Top(deck, len(deck)), nil
}

func rankWith(w Weights, listings []domain.Listing, p domain.Preferences) ([]domain.ScoredListing, error) {
	out := make([]domain.ScoredListing, 0, len(listings))
	for _, l := range listings {
		score, reasons, err := scoreOne(w, l, p)
		if err != nil {
			return nil, err
		}
		out = append(out, domain.ScoredListing{Listing: l, Score: score, Reasons: reasons})
	}

	sort.SliceStable(out, func(i, j int) bool { return out[i].Score > out[j].Score })
	return out, nil
}

func scoreOne(w Weights, l domain.Listing, p domain.Preferences) (int, []domain.ScoreReason, error) {
	commute, ok := l.CommuteMinutes[p.CommuteMode]
	if !ok {
		return 0, nil, fmt.Errorf("%w: listing %s has no %q commute time", domain.ErrInvalidPreferences, l.ID, p.CommuteMode)
	}

	reasons := make([]domain.ScoreReason, 0, 4)
	add := func(kind, msg string, points int) {
		reasons = append(reasons, domain.ScoreReason{Type: kind, Message: msg, Points: points})
	}

	// An inverted range is evaluated as written and simply never matches.
	if p.MinPrice <= l.Price && l.Price <= p.MaxPrice {
		add("price_fit", fmt.Sprintf("$%d is within $%d-$%d", l.Price, p.MinPrice, p.MaxPrice), w.PriceFit)
	} else {
		add("price_fit", fmt.Sprintf("$%d is outside $%d-$%d", l.Price, p.MinPrice, p.MaxPrice), 0)
	}

	if l.Beds == p.Beds {
		add("bedroom_match", fmt.Sprintf("%d bed as requested", l.Beds), w.BedroomMatch)
	} else {
		add("bedroom_match", fmt.Sprintf("%d bed, wanted %d", l.Beds, p.Beds), 0)
	}

	if commute <= p.MaxCommuteTime {
		add("commute_fit", fmt.Sprintf("%d min %s, limit %d", commute, p.CommuteMode, p.MaxCommuteTime), w.CommuteFit)
	} else {
		add("commute_fit", fmt.Sprintf("%d min %s exceeds %d", commute, p.CommuteMode, p.MaxCommuteTime), 0)
	}

	gap := abs(l.Liveliness - p.Liveliness)
	vibe := w.LivelinessMax - w.LivelinessStep*gap
	if vibe < 0 {
		vibe = 0
	}
	add("liveliness", livelinessMessage(gap), vibe)

	total := 0
	for _, r := range reasons {
		total += r.Points
	}
	return clamp(total, 0, 100), reasons, nil
}

func livelinessMessage(gap int) string {
	switch {
	case gap == 0:
		return "vibe: exact match"
	case gap == 1:
		return "vibe: close"
	case gap <= 3:
		return "vibe: mixed"
	default:
		return "vibe: far off"
	}
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

func clamp(v, lo, hi int) int {
	return max(lo, min(hi, v))
}
