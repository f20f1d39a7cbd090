// Package contentsafety wraps a text-moderation service that scores a piece
// of text against a fixed set of harm categories.
package contentsafety

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"

	"github.com/quiplash-live/quiplash-service/internal/translate"
)

const (
	analyzeTimeout = 10 * time.Second
	apiVersion     = "2023-10-01"
)

// Categories are the four harm categories every analysis requests. The
// severity average always divides by their count, not by how many the
// service chose to return.
var Categories = []string{"Hate", "SelfHarm", "Sexual", "Violence"}

var moderationRequests = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "quiplash_moderation_requests_total",
		Help: "Total content safety analysis requests by status",
	},
	[]string{"status"},
)

// Client calls a content safety analysis endpoint (needs subscription key,
// env CONTENT_SAFETY_KEY).
type Client struct {
	baseURL    string
	key        string
	httpClient *http.Client
	logger     zerolog.Logger
}

func NewClient(endpoint, key string, httpClient *http.Client, logger zerolog.Logger) *Client {
	base := strings.TrimSpace(endpoint)
	if !strings.HasPrefix(base, "http") {
		base = "https://" + base
	}
	if !strings.HasSuffix(base, "/") {
		base += "/"
	}
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	return &Client{
		baseURL:    base,
		key:        key,
		httpClient: httpClient,
		logger:     logger.With().Str("component", "content_safety").Logger(),
	}
}

type analyzeRequest struct {
	Text               string   `json:"text"`
	Categories         []string `json:"categories"`
	HaltOnBlocklistHit bool     `json:"haltOnBlocklistHit"`
}

type analyzeResponse struct {
	CategoriesAnalysis []struct {
		Category string  `json:"category"`
		Severity float64 `json:"severity"`
	} `json:"categoriesAnalysis"`
}

// AverageSeverity scores the English entry of texts and averages the four
// category severities, counting an omitted category as 0.0. Without an
// English entry it returns 0.0 and never calls the service. Fail-soft: any
// transport or service failure also yields 0.0.
func (c *Client) AverageSeverity(ctx context.Context, texts []translate.Text) float64 {
	var english string
	found := false
	for _, t := range texts {
		if t.Language == "en" {
			english = t.Text
			found = true
			break
		}
	}
	if !found {
		return 0.0
	}

	res, err := c.analyze(ctx, english)
	if err != nil {
		c.logger.Warn().Err(err).Msg("content safety analysis failed")
		moderationRequests.WithLabelValues("error").Inc()
		return 0.0
	}
	moderationRequests.WithLabelValues("success").Inc()

	var sum float64
	for _, want := range Categories {
		for _, item := range res.CategoriesAnalysis {
			if item.Category == want {
				sum += item.Severity
				break
			}
		}
	}
	return sum / float64(len(Categories))
}

func (c *Client) analyze(ctx context.Context, text string) (*analyzeResponse, error) {
	body, err := json.Marshal(analyzeRequest{
		Text:               text,
		Categories:         Categories,
		HaltOnBlocklistHit: false,
	})
	if err != nil {
		return nil, err
	}

	reqCtx, cancel := context.WithTimeout(ctx, analyzeTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodPost,
		c.baseURL+"contentsafety/text:analyze?api-version="+apiVersion, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Ocp-Apim-Subscription-Key", c.key)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return nil, fmt.Errorf("content safety non-200: %d", resp.StatusCode)
	}

	var payload analyzeResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, err
	}
	return &payload, nil
}
