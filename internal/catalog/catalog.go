package catalog

import (
	"fmt"
	"maps"
	"slices"
	"sort"
	"strings"

	"github.com/denisok6893-rgb/swampswipe/internal/domain"
)

// Catalog is an immutable, ordered set of listings. Order is the tie-break for ranking.
type Catalog struct {
	listings []domain.Listing
	index    map[string]int
}

// New validates the catalog invariants and takes a private copy of the listings.
func New(listings []domain.Listing) (*Catalog, error) {
	if len(listings) == 0 {
		return nil, fmt.Errorf("catalog: no listings")
	}

	c := &Catalog{
		listings: make([]domain.Listing, 0, len(listings)),
		index:    make(map[string]int, len(listings)),
	}
	for _, l := range listings {
		if err := l.Validate(); err != nil {
			return nil, fmt.Errorf("catalog: %w", err)
		}
		if _, dup := c.index[l.ID]; dup {
			return nil, fmt.Errorf("catalog: duplicate listing id %q", l.ID)
		}
		c.index[l.ID] = len(c.listings)
		c.listings = append(c.listings, clone(l))
	}
	return c, nil
}

func (c *Catalog) Len() int { return len(c.listings) }

// Listings returns the listings in catalog order. The result is a copy.
func (c *Catalog) Listings() []domain.Listing {
	out := make([]domain.Listing, len(c.listings))
	for i, l := range c.listings {
		out[i] = clone(l)
	}
	return out
}

func (c *Catalog) Get(id string) (domain.Listing, bool) {
	i, ok := c.index[id]
	if !ok {
		return domain.Listing{}, false
	}
	return clone(c.listings[i]), true
}

// Select returns the listings whose ids appear in ids, in catalog order.
// Unknown ids are dropped.
func (c *Catalog) Select(ids []string) []domain.Listing {
	want := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		want[id] = struct{}{}
	}
	out := make([]domain.Listing, 0, len(want))
	for _, l := range c.listings {
		if _, ok := want[l.ID]; ok {
			out = append(out, clone(l))
		}
	}
	return out
}

// Query filters the catalog for browsing. Zero values disable a filter.
type Query struct {
	Area     string
	MinPrice int
	MaxPrice int
	MinBeds  int
	Sort     string // "", "price_asc", "price_desc"
	Limit    int
	Offset   int
}

// Search applies q and returns one page of matches plus the total match count.
func (c *Catalog) Search(q Query) ([]domain.Listing, int) {
	if q.Limit <= 0 {
		q.Limit = 20
	}
	if q.Offset < 0 {
		q.Offset = 0
	}

	area := strings.ToLower(strings.TrimSpace(q.Area))
	matched := make([]domain.Listing, 0, len(c.listings))
	for _, l := range c.listings {
		if area != "" && !strings.Contains(strings.ToLower(l.Area), area) {
			continue
		}
		if q.MinPrice > 0 && l.Price < q.MinPrice {
			continue
		}
		if q.MaxPrice > 0 && l.Price > q.MaxPrice {
			continue
		}
		if q.MinBeds > 0 && l.Beds < q.MinBeds {
			continue
		}
		matched = append(matched, l)
	}

	switch q.Sort {
	case "price_asc":
		sort.SliceStable(matched, func(i, j int) bool { return matched[i].Price < matched[j].Price })
	case "price_desc":
		sort.SliceStable(matched, func(i, j int) bool { return matched[i].Price > matched[j].Price })
	}

	total := len(matched)
	if q.Offset > total {
		q.Offset = total
	}
	end := q.Offset + q.Limit
	if end > total {
		end = total
	}

	page := make([]domain.Listing, 0, end-q.Offset)
	for _, l := range matched[q.Offset:end] {
		page = append(page, clone(l))
	}
	return page, total
}

func clone(l domain.Listing) domain.Listing {
	l.CommuteMinutes = maps.Clone(l.CommuteMinutes)
	l.Amenities = slices.Clone(l.Amenities)
	return l
}
