package extraction

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/denisok6893-rgb/swampswipe/internal/domain"
)

const (
	DefaultBaseURL = "https://generativelanguage.googleapis.com/v1beta/models"
	DefaultModel   = "gemini-2.0-flash"
)

var errNoAPIKey = errors.New("no Gemini API key configured")

const promptTemplate = `You are a helpful apartment finder assistant for UF (University of Florida) students.
The user will describe what they're looking for in an apartment in natural language.

Extract these preferences from their message:
- minPrice: number (minimum monthly rent, default 500)
- maxPrice: number (maximum monthly rent, default 2000)
- beds: number (1-4, default 2)
- commuteMode: "walking" | "biking" | "driving" | "bus" (default "biking")
- maxCommuteTime: number in minutes (default 20)
- liveliness: 1-5 where 1=very quiet, 5=very lively/party (default 3)

If the user message contains NO apartment preferences at all (just a greeting, random question, etc), respond with exactly:
{"error": "no_preferences"}

Otherwise, respond with ONLY a valid JSON object with the extracted preferences. Use defaults for any preference not mentioned.

Examples:
- "I want a cheap 1 bedroom" -> {"minPrice":500,"maxPrice":800,"beds":1,"commuteMode":"biking","maxCommuteTime":20,"liveliness":3}
- "Looking for a quiet place near campus I can bike to" -> {"minPrice":500,"maxPrice":2000,"beds":2,"commuteMode":"biking","maxCommuteTime":10,"liveliness":1}
- "hello" -> {"error": "no_preferences"}

User message: %q

Respond with ONLY the JSON object, no markdown, no explanation.`

// GeminiClient is an Adapter backed by the Gemini generateContent API.
type GeminiClient struct {
	apiKey  string
	model   string
	baseURL string
	client  *http.Client
	log     *slog.Logger
}

// NewGeminiClient builds a client. Empty model or baseURL select the defaults.
func NewGeminiClient(apiKey, model, baseURL string, client *http.Client, log *slog.Logger) *GeminiClient {
	if model == "" {
		model = DefaultModel
	}
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if client == nil {
		client = http.DefaultClient
	}
	if log == nil {
		log = slog.Default()
	}
	return &GeminiClient{apiKey: apiKey, model: model, baseURL: baseURL, client: client, log: log}
}

type geminiRequest struct {
	Contents []geminiContent `json:"contents"`
}

type geminiContent struct {
	Parts []geminiPart `json:"parts"`
}

type geminiPart struct {
	Text string `json:"text"`
}

type geminiResponse struct {
	Candidates []struct {
		Content geminiContent `json:"content"`
	} `json:"candidates"`
}

func (g *GeminiClient) Extract(ctx context.Context, message string) (Outcome, error) {
	text, err := g.generate(ctx, fmt.Sprintf(promptTemplate, message))
	if err != nil {
		return Outcome{}, fmt.Errorf("extraction: %w: %w", domain.ErrExtractionTransport, err)
	}

	out, err := ParseReply(text)
	if err != nil {
		g.log.Warn("rejected Gemini reply", "error", err, "text", text)
		return Outcome{}, err
	}
	return out, nil
}

func (g *GeminiClient) generate(ctx context.Context, prompt string) (string, error) {
	if g.apiKey == "" {
		return "", errNoAPIKey
	}

	body, err := json.Marshal(geminiRequest{
		Contents: []geminiContent{{Parts: []geminiPart{{Text: prompt}}}},
	})
	if err != nil {
		return "", fmt.Errorf("marshaling request: %w", err)
	}

	// The key travels in a header so transport errors, which quote the URL, never carry it.
	url := fmt.Sprintf("%s/%s:generateContent", g.baseURL, g.model)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", g.apiKey)

	resp, err := g.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("calling Gemini API: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("reading response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("gemini API returned status %d: %s", resp.StatusCode, respBody)
	}

	var gr geminiResponse
	if err := json.Unmarshal(respBody, &gr); err != nil {
		return "", fmt.Errorf("parsing Gemini response: %w", err)
	}
	if len(gr.Candidates) == 0 || len(gr.Candidates[0].Content.Parts) == 0 {
		return "", errors.New("empty response from Gemini API")
	}
	return gr.Candidates[0].Content.Parts[0].Text, nil
}
