package httpapi

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"slices"
	"strconv"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"

	"github.com/denisok6893-rgb/swampswipe/internal/catalog"
	"github.com/denisok6893-rgb/swampswipe/internal/domain"
	"github.com/denisok6893-rgb/swampswipe/internal/extraction"
	"github.com/denisok6893-rgb/swampswipe/internal/matching"
	"github.com/denisok6893-rgb/swampswipe/internal/session"
)

const (
	chatResultLimit = 5
	defaultPageSize = 20
	maxPageSize     = 200
)

// Server exposes the catalog, the swipe session and chat extraction.
// Every session access goes through mu; the extraction call does not.
type Server struct {
	catalog *catalog.Catalog
	gate    *extraction.Gate
	log     *slog.Logger

	mu      sync.Mutex
	session *session.Session
}

func NewServer(cat *catalog.Catalog, sess *session.Session, gate *extraction.Gate, log *slog.Logger) *Server {
	if log == nil {
		log = slog.Default()
	}
	return &Server{catalog: cat, session: sess, gate: gate, log: log}
}

func (s *Server) Routes() http.Handler {
	r := gin.New()
	r.Use(gin.Recovery(), requestLogger(s.log))

	r.GET("/health", s.handleHealth)

	api := r.Group("/api")
	api.GET("/listings", s.handleListingsList)
	api.GET("/listings/:id", s.handleListingGet)

	api.GET("/preferences", s.handlePreferencesGet)
	api.PUT("/preferences", s.handlePreferencesPut)
	api.GET("/deck", s.handleDeck)

	api.GET("/session", s.handleSession)
	api.POST("/session/decision", s.handleDecision)
	api.POST("/session/advance", s.handleAdvance)
	api.POST("/session/swipe", s.handleSwipe)
	api.POST("/session/reset", s.handleReset)

	api.GET("/liked", s.handleLikedList)
	api.DELETE("/liked/:id", s.handleLikedRemove)

	api.POST("/chat", s.handleChat)
	return r
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "listings": s.catalog.Len()})
}

// ---- Catalog browsing ----

type listingsListResponse struct {
	Limit  int           `json:"limit"`
	Offset int           `json:"offset"`
	Total  int           `json:"total"`
	Items  []listingView `json:"items"`
}

// GET /api/listings?area=...&min_price=...&max_price=...&min_beds=...&sort=price_asc|price_desc&limit=...&offset=...
func (s *Server) handleListingsList(c *gin.Context) {
	limit, offset := pageParams(c)
	q := catalog.Query{
		Area:     c.Query("area"),
		MinPrice: queryInt(c, "min_price"),
		MaxPrice: queryInt(c, "max_price"),
		MinBeds:  queryInt(c, "min_beds"),
		Sort:     c.Query("sort"),
		Limit:    limit,
		Offset:   offset,
	}

	page, total := s.catalog.Search(q)
	items := make([]listingView, 0, len(page))
	for _, l := range page {
		items = append(items, newListingView(l))
	}
	c.JSON(http.StatusOK, listingsListResponse{Limit: limit, Offset: offset, Total: total, Items: items})
}

func (s *Server) handleListingGet(c *gin.Context) {
	l, ok := s.catalog.Get(c.Param("id"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "not_found"})
		return
	}
	c.JSON(http.StatusOK, newListingView(l))
}

// ---- Preferences and deck ----

func (s *Server) handlePreferencesGet(c *gin.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c.JSON(http.StatusOK, gin.H{"preferences": s.session.Preferences(), "firstRun": s.session.FirstRun()})
}

func (s *Server) handlePreferencesPut(c *gin.Context) {
	p, empty, err := decodePreferences(c)
	if empty {
		err = errInvalidJSON
	}
	if err != nil {
		s.writeError(c, err)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.session.UpdatePreferences(c.Request.Context(), p); err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, s.viewSession())
}

func (s *Server) handleDeck(c *gin.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	deck := s.session.Deck()
	c.JSON(http.StatusOK, gin.H{"preferences": s.session.Preferences(), "items": scoredViews(deck)})
}

var errInvalidJSON = errors.New("request body is not valid JSON")

// preferencesRequest has a pointer per field so an omitted field is told
// apart from an explicit zero. Edits replace the whole record.
type preferencesRequest struct {
	MinPrice       *int                `json:"minPrice"`
	MaxPrice       *int                `json:"maxPrice"`
	Beds           *int                `json:"beds"`
	CommuteMode    *domain.CommuteMode `json:"commuteMode"`
	MaxCommuteTime *int                `json:"maxCommuteTime"`
	Liveliness     *int                `json:"liveliness"`
}

func (r preferencesRequest) preferences() (domain.Preferences, error) {
	var missing []string
	for name, set := range map[string]bool{
		"minPrice":       r.MinPrice != nil,
		"maxPrice":       r.MaxPrice != nil,
		"beds":           r.Beds != nil,
		"commuteMode":    r.CommuteMode != nil,
		"maxCommuteTime": r.MaxCommuteTime != nil,
		"liveliness":     r.Liveliness != nil,
	} {
		if !set {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		slices.Sort(missing)
		return domain.Preferences{}, fmt.Errorf("%w: missing %s", domain.ErrInvalidPreferences, strings.Join(missing, ", "))
	}
	return domain.Preferences{
		MinPrice:       *r.MinPrice,
		MaxPrice:       *r.MaxPrice,
		Beds:           *r.Beds,
		CommuteMode:    *r.CommuteMode,
		MaxCommuteTime: *r.MaxCommuteTime,
		Liveliness:     *r.Liveliness,
	}, nil
}

// decodePreferences reads a full preference record from the body.
// empty reports a request without a body.
func decodePreferences(c *gin.Context) (p domain.Preferences, empty bool, err error) {
	var req preferencesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		if errors.Is(err, io.EOF) {
			return domain.Preferences{}, true, nil
		}
		return domain.Preferences{}, false, errInvalidJSON
	}
	p, err = req.preferences()
	return p, false, err
}

// ---- Swipe session ----

type decisionRequest struct {
	Direction session.Direction `json:"direction"`
}

func (s *Server) handleSession(c *gin.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c.JSON(http.StatusOK, s.viewSession())
}

func (s *Server) handleDecision(c *gin.Context) {
	s.decide(c, (*session.Session).RecordDecision)
}

func (s *Server) handleSwipe(c *gin.Context) {
	s.decide(c, (*session.Session).Swipe)
}

func (s *Server) decide(c *gin.Context, step func(*session.Session, context.Context, session.Direction) (bool, error)) {
	var req decisionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_json"})
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	accepted, err := step(s.session, c.Request.Context(), req.Direction)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"accepted": accepted, "session": s.viewSession()})
}

func (s *Server) handleAdvance(c *gin.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	advanced := s.session.Advance()
	c.JSON(http.StatusOK, gin.H{"advanced": advanced, "session": s.viewSession()})
}

// POST /api/session/reset starts a new pass. An empty body keeps the current preferences.
func (s *Server) handleReset(c *gin.Context) {
	p, empty, err := decodePreferences(c)
	if err != nil {
		s.writeError(c, err)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if empty {
		p = s.session.Preferences()
	}
	if err := s.session.Reset(c.Request.Context(), p); err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, s.viewSession())
}

// ---- Liked view ----

type likedResponse struct {
	Items  []listingView `json:"items"`
	Notice string        `json:"notice,omitempty"`
}

func (s *Server) handleLikedList(c *gin.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.writeLiked(c)
}

func (s *Server) handleLikedRemove(c *gin.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.session.RemoveLiked(c.Request.Context(), c.Param("id")); err != nil {
		s.writeError(c, err)
		return
	}
	s.writeLiked(c)
}

func (s *Server) writeLiked(c *gin.Context) {
	listings, err := s.session.LikedListings(c.Request.Context())
	resp := likedResponse{Items: make([]listingView, 0, len(listings))}
	for _, l := range listings {
		resp.Items = append(resp.Items, newListingView(l))
	}
	switch {
	case errors.Is(err, domain.ErrPersistenceRead):
		resp.Notice = "liked listings could not be read"
	case err != nil:
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// ---- Chat extraction ----

type chatRequest struct {
	Message string `json:"message"`
}

type chatResults struct {
	Type        extraction.Kind    `json:"type"`
	Preferences domain.Preferences `json:"preferences"`
	Listings    []scoredView       `json:"listings"`
}

// POST /api/chat. Results replace the preferences and start a new pass;
// need_details and failures leave the session as it was.
func (s *Server) handleChat(c *gin.Context) {
	var req chatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_json"})
		return
	}
	if strings.TrimSpace(req.Message) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing_message"})
		return
	}

	out, err := s.gate.Extract(c.Request.Context(), req.Message)
	if err != nil {
		s.writeError(c, err)
		return
	}
	if out.Kind == extraction.NeedDetails {
		c.JSON(http.StatusOK, gin.H{"type": extraction.NeedDetails})
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.session.Reset(c.Request.Context(), out.Preferences); err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, chatResults{
		Type:        extraction.Results,
		Preferences: out.Preferences,
		Listings:    scoredViews(matching.Top(s.session.Deck(), chatResultLimit)),
	})
}

// ---- helpers ----

// writeError maps domain errors to an {"error": code} body.
func (s *Server) writeError(c *gin.Context, err error) {
	status, code := http.StatusInternalServerError, "internal_error"
	switch {
	case errors.Is(err, errInvalidJSON):
		status, code = http.StatusBadRequest, "invalid_json"
	case errors.Is(err, extraction.ErrRequestInFlight):
		status, code = http.StatusConflict, "request_in_flight"
	case errors.Is(err, domain.ErrInvalidExtraction):
		status, code = http.StatusBadGateway, "invalid_extraction"
	case errors.Is(err, domain.ErrExtractionTransport):
		status, code = http.StatusBadGateway, "extraction_failed"
	case errors.Is(err, domain.ErrInvalidPreferences):
		status, code = http.StatusBadRequest, "invalid_preferences"
	case errors.Is(err, session.ErrUnknownDirection):
		status, code = http.StatusBadRequest, "invalid_direction"
	case errors.Is(err, domain.ErrPersistenceRead):
		status, code = http.StatusServiceUnavailable, "storage_unavailable"
	}

	if status >= http.StatusInternalServerError {
		s.log.Error("request failed", "path", c.Request.URL.Path, "error", err)
	} else {
		s.log.Warn("request rejected", "path", c.Request.URL.Path, "error", err)
	}
	c.JSON(status, gin.H{"error": code})
}

// pageParams reads limit/offset paging. A limit below 1 falls back to the
// default and a negative offset is treated as 0.
func pageParams(c *gin.Context) (limit, offset int) {
	limit = queryInt(c, "limit")
	if limit <= 0 {
		limit = defaultPageSize
	}
	return min(limit, maxPageSize), max(queryInt(c, "offset"), 0)
}

// queryInt returns 0 (filter off) for a missing or malformed value.
func queryInt(c *gin.Context, key string) int {
	v, err := strconv.Atoi(c.Query(key))
	if err != nil {
		return 0
	}
	return v
}
