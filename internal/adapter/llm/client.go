// Package llm implements domain.Narrator against an Ollama-compatible
// /api/generate endpoint.
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/couchcryptid/threatmap-service/internal/domain"
)

// Fallback texts for a reply that omits a field.
const (
	emptySummary      = "Unable to generate summary."
	emptyRouteSummary = "Analysis failed."
	emptyAlternatives = "None available."
)

// ErrEmptyResponse is returned when the model replies with no text.
var ErrEmptyResponse = errors.New("empty model response")

// Client calls a text-generation model to narrate threat data.
type Client struct {
	baseURL    string
	model      string
	httpClient *http.Client
	clock      clockwork.Clock
	logger     *slog.Logger
}

// NewClient creates a narrator for the model served at baseURL.
func NewClient(baseURL, model string, timeout time.Duration, clock clockwork.Clock, logger *slog.Logger) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		model:      model,
		httpClient: &http.Client{Timeout: timeout},
		clock:      clock,
		logger:     logger,
	}
}

type generateRequest struct {
	Model   string         `json:"model"`
	Prompt  string         `json:"prompt"`
	Stream  bool           `json:"stream"`
	Format  string         `json:"format,omitempty"`
	Options map[string]any `json:"options,omitempty"`
}

type generateResponse struct {
	Response string `json:"response"`
}

// Summarize writes a short situation report for a location. The caller is
// expected to skip the call when nearby is empty.
func (c *Client) Summarize(ctx context.Context, loc domain.MonitoredLocation, nearby []domain.ThreatRecord) (string, error) {
	text, err := c.generate(ctx, generateRequest{
		Prompt:  summaryPrompt(loc, nearby),
		Options: map[string]any{"temperature": 0.4, "num_predict": 300},
	})
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(text) == "" {
		return emptySummary, nil
	}
	return strings.TrimSpace(text), nil
}

type routeReply struct {
	RiskLevel    string `json:"riskLevel"`
	Summary      string `json:"summary"`
	Alternatives string `json:"alternatives"`
}

// AnalyzeRoute asks the model for a JSON risk verdict on travel between two
// locations. An unrecognized risk level is an error.
func (c *Client) AnalyzeRoute(ctx context.Context, origin, destination domain.MonitoredLocation, threats []domain.ThreatRecord) (domain.RouteAnalysis, error) {
	text, err := c.generate(ctx, generateRequest{
		Prompt: routePrompt(origin, destination, threats),
		Format: "json",
	})
	if err != nil {
		return domain.RouteAnalysis{}, err
	}

	var reply routeReply
	if err := json.Unmarshal([]byte(text), &reply); err != nil {
		return domain.RouteAnalysis{}, fmt.Errorf("decode route reply: %w", err)
	}
	level, err := domain.ParseSeverity(reply.RiskLevel)
	if err != nil {
		return domain.RouteAnalysis{}, fmt.Errorf("route risk level: %w", err)
	}

	out := domain.RouteAnalysis{
		RiskLevel:    level,
		Summary:      reply.Summary,
		Alternatives: reply.Alternatives,
		Timestamp:    c.clock.Now(),
	}
	if out.Summary == "" {
		out.Summary = emptyRouteSummary
	}
	if out.Alternatives == "" {
		out.Alternatives = emptyAlternatives
	}
	return out, nil
}

func (c *Client) generate(ctx context.Context, body generateRequest) (string, error) {
	body.Model = c.model
	payload, err := json.Marshal(body)
	if err != nil {
		return "", fmt.Errorf("encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/generate", bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("generate request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return "", fmt.Errorf("model API error: status %d: %s", resp.StatusCode, msg)
	}

	var out generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}
	if body.Format == "json" && strings.TrimSpace(out.Response) == "" {
		return "", ErrEmptyResponse
	}
	c.logger.Debug("model response received", "model", c.model, "chars", len(out.Response))
	return out.Response, nil
}
