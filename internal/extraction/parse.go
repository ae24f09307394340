package extraction

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strings"

	"github.com/denisok6893-rgb/swampswipe/internal/domain"
)

const noPreferences = "no_preferences"

// ParseReply validates a model reply. Text that is not a JSON object is a
// transport failure; a JSON object of the wrong shape is an invalid extraction.
func ParseReply(text string) (Outcome, error) {
	text = stripMarkdownCodeBlock(text)

	var fields map[string]json.RawMessage
	if err := json.Unmarshal([]byte(text), &fields); err != nil || fields == nil {
		return Outcome{}, fmt.Errorf("extraction: %w: reply is not a JSON object", domain.ErrExtractionTransport)
	}

	if raw, ok := fields["error"]; ok {
		var code string
		if err := json.Unmarshal(raw, &code); err == nil && code == noPreferences {
			return Outcome{Kind: NeedDetails}, nil
		}
		return Outcome{}, fmt.Errorf("extraction: %w: unexpected error value %s", domain.ErrInvalidExtraction, raw)
	}

	var p domain.Preferences
	ints := []struct {
		name string
		dst  *int
	}{
		{"minPrice", &p.MinPrice},
		{"maxPrice", &p.MaxPrice},
		{"beds", &p.Beds},
		{"maxCommuteTime", &p.MaxCommuteTime},
		{"liveliness", &p.Liveliness},
	}
	for _, f := range ints {
		raw, ok := present(fields, f.name)
		if !ok {
			return Outcome{}, fmt.Errorf("extraction: %w: missing %s", domain.ErrInvalidExtraction, f.name)
		}
		v, err := integral(raw)
		if err != nil {
			return Outcome{}, fmt.Errorf("extraction: %w: %s: %v", domain.ErrInvalidExtraction, f.name, err)
		}
		*f.dst = v
	}

	raw, ok := present(fields, "commuteMode")
	if !ok {
		return Outcome{}, fmt.Errorf("extraction: %w: missing commuteMode", domain.ErrInvalidExtraction)
	}
	var mode string
	if err := json.Unmarshal(raw, &mode); err != nil {
		return Outcome{}, fmt.Errorf("extraction: %w: commuteMode is not a string", domain.ErrInvalidExtraction)
	}
	p.CommuteMode = domain.CommuteMode(mode)

	if err := p.Validate(); err != nil {
		return Outcome{}, fmt.Errorf("extraction: %w: %w", domain.ErrInvalidExtraction, err)
	}
	return Outcome{Kind: Results, Preferences: p}, nil
}

func present(fields map[string]json.RawMessage, name string) (json.RawMessage, bool) {
	raw, ok := fields[name]
	if !ok || bytes.Equal(bytes.TrimSpace(raw), []byte("null")) {
		return nil, false
	}
	return raw, true
}

func integral(raw json.RawMessage) (int, error) {
	var f float64
	if err := json.Unmarshal(raw, &f); err != nil {
		return 0, fmt.Errorf("not a number: %s", raw)
	}
	if f != math.Trunc(f) || math.Abs(f) > math.MaxInt32 {
		return 0, fmt.Errorf("%v is not an integer", f)
	}
	return int(f), nil
}

// stripMarkdownCodeBlock removes a ```json ... ``` wrapper the model sometimes adds.
func stripMarkdownCodeBlock(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "```") {
		if idx := strings.Index(s, "\n"); idx != -1 {
			s = s[idx+1:]
		}
		if idx := strings.LastIndex(s, "```"); idx != -1 {
			s = s[:idx]
		}
		s = strings.TrimSpace(s)
	}
	return s
}
