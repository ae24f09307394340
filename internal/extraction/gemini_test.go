package extraction

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/denisok6893-rgb/swampswipe/internal/domain"
)

func geminiResponseJSON(text string) string {
	var resp geminiResponse
	resp.Candidates = append(resp.Candidates, struct {
		Content geminiContent `json:"content"`
	}{Content: geminiContent{Parts: []geminiPart{{Text: text}}}})
	b, _ := json.Marshal(resp)
	return string(b)
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestClient(t *testing.T, h http.HandlerFunc) *GeminiClient {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return NewGeminiClient("test-key", "test-model", srv.URL, srv.Client(), discardLogger())
}

func TestGeminiExtractResults(t *testing.T) {
	var gotPath, gotQuery, gotKey, gotPrompt string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotQuery = r.URL.RawQuery
		gotKey = r.Header.Get("x-goog-api-key")
		var req geminiRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err == nil && len(req.Contents) > 0 && len(req.Contents[0].Parts) > 0 {
			gotPrompt = req.Contents[0].Parts[0].Text
		}
		w.Write([]byte(geminiResponseJSON(`{"minPrice":500,"maxPrice":800,"beds":1,"commuteMode":"biking","maxCommuteTime":20,"liveliness":3}`)))
	})

	out, err := c.Extract(context.Background(), "I want a cheap 1 bedroom")
	require.NoError(t, err)
	assert.Equal(t, Results, out.Kind)
	assert.Equal(t, 800, out.Preferences.MaxPrice)

	assert.Equal(t, "/test-model:generateContent", gotPath)
	assert.Equal(t, "test-key", gotKey)
	assert.Empty(t, gotQuery)
	assert.True(t, strings.Contains(gotPrompt, `User message: "I want a cheap 1 bedroom"`))
}

func TestGeminiExtractNeedDetails(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(geminiResponseJSON(`{"error": "no_preferences"}`)))
	})

	out, err := c.Extract(context.Background(), "hello")
	require.NoError(t, err)
	assert.Equal(t, NeedDetails, out.Kind)
}

func TestGeminiExtractTransportFailures(t *testing.T) {
	tests := []struct {
		name string
		h    http.HandlerFunc
	}{
		{"status", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusTooManyRequests)
			w.Write([]byte(`{"error":{"message":"quota"}}`))
		}},
		{"envelope", func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`<html>`))
		}},
		{"no candidates", func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"candidates":[]}`))
		}},
		{"prose reply", func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(geminiResponseJSON("I think you want a 2 bedroom.")))
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := newTestClient(t, tt.h).Extract(context.Background(), "2 bed please")
			assert.ErrorIs(t, err, domain.ErrExtractionTransport)
		})
	}
}

func TestGeminiExtractInvalidShape(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(geminiResponseJSON(`{"beds":2}`)))
	})
	_, err := c.Extract(context.Background(), "2 bed please")
	assert.ErrorIs(t, err, domain.ErrInvalidExtraction)
}

func TestGeminiExtractWithoutKey(t *testing.T) {
	c := NewGeminiClient("", "", "http://127.0.0.1:0", nil, discardLogger())
	_, err := c.Extract(context.Background(), "2 bed please")
	assert.ErrorIs(t, err, domain.ErrExtractionTransport)
	assert.ErrorIs(t, err, errNoAPIKey)
}

func TestGeminiTransportErrorOmitsKey(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	base := srv.URL
	srv.Close()

	c := NewGeminiClient("SECRET-KEY-123", "test-model", base, &http.Client{}, discardLogger())
	_, err := c.Extract(context.Background(), "2 bed please")
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrExtractionTransport)
	assert.NotContains(t, err.Error(), "SECRET-KEY-123")
}
