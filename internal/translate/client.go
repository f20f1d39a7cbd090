package translate

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Per-operation timeouts for the translation service. A timed-out or failed
// call degrades to a fail-soft default; it is never surfaced to the caller.
const (
	detectTimeout   = 10 * time.Second
	batchTimeout    = 15 * time.Second
	fallbackTimeout = 10 * time.Second
)

// ResultCache caches whole translation fan-outs (implemented by the
// Redis-backed Cache). Cache failures are ignored.
type ResultCache interface {
	Get(ctx context.Context, text string) ([]Text, error)
	Set(ctx context.Context, text string, texts []Text) error
}

// Client calls a Translator v3 compatible service (needs subscription key +
// region, env TRANSLATOR_KEY / TRANSLATOR_REGION).
type Client struct {
	baseURL    string
	key        string
	region     string
	httpClient *http.Client
	cache      ResultCache
	logger     zerolog.Logger
}

func NewClient(endpoint, key, region string, httpClient *http.Client, cache ResultCache, logger zerolog.Logger) *Client {
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	return &Client{
		baseURL:    normalizeBase(endpoint),
		key:        key,
		region:     region,
		httpClient: httpClient,
		cache:      cache,
		logger:     logger.With().Str("component", "translator").Logger(),
	}
}

func normalizeBase(endpoint string) string {
	base := strings.TrimSpace(endpoint)
	if !strings.HasPrefix(base, "http") {
		base = "https://" + base
	}
	if !strings.HasSuffix(base, "/") {
		base += "/"
	}
	return base
}

type translationResult struct {
	DetectedLanguage struct {
		Language string  `json:"language"`
		Score    float64 `json:"score"`
	} `json:"detectedLanguage"`
	Translations []struct {
		Text string `json:"text"`
		To   string `json:"to"`
	} `json:"translations"`
}

// Detect identifies the language of text and the detector's confidence.
// Fail-soft: any transport or service failure yields ("", 0.0).
func (c *Client) Detect(ctx context.Context, text string) (string, float64) {
	res, err := c.request(ctx, "detect", text, []string{Supported[0].Code}, detectTimeout)
	if err != nil {
		c.logger.Warn().Err(err).Msg("language detection failed")
		return "", 0.0
	}
	return res.DetectedLanguage.Language, res.DetectedLanguage.Score
}

// TranslateToAll produces one text entry per supported language. The source
// entry keeps the original bytes untouched; the remaining languages come from
// a single batched request, with one individual retry per language the batch
// did not deliver. A language whose retry also fails is simply absent.
func (c *Client) TranslateToAll(ctx context.Context, text string) []Text {
	if c.cache != nil {
		if cached, err := c.cache.Get(ctx, text); err == nil && cached != nil {
			translationCacheHits.Inc()
			return cached
		}
	}

	source, _ := c.Detect(ctx, text)
	if source == "" {
		source = Supported[0].Code
	}

	texts := []Text{{Language: source, Text: text}}

	var targets []string
	for _, code := range SupportedCodes() {
		if code != source {
			targets = append(targets, code)
		}
	}

	if len(targets) > 0 {
		res, err := c.request(ctx, "batch", text, targets, batchTimeout)
		if err != nil {
			c.logger.Warn().Err(err).Msg("batch translation failed")
		} else {
			allowed := make(map[string]bool, len(targets))
			for _, t := range targets {
				allowed[t] = true
			}
			for _, tr := range res.Translations {
				// The service occasionally returns codes outside the request set.
				if allowed[tr.To] {
					texts = append(texts, Text{Language: tr.To, Text: tr.Text})
				}
			}
		}
	}

	have := make(map[string]bool, len(texts))
	for _, t := range texts {
		have[t.Language] = true
	}
	for _, code := range SupportedCodes() {
		if have[code] {
			continue
		}
		res, err := c.request(ctx, "fallback", text, []string{code}, fallbackTimeout)
		if err != nil {
			c.logger.Warn().Err(err).Str("language", code).Msg("fallback translation failed")
			continue
		}
		if len(res.Translations) == 0 {
			continue
		}
		texts = append(texts, Text{Language: code, Text: res.Translations[0].Text})
	}

	if c.cache != nil {
		if err := c.cache.Set(ctx, text, texts); err != nil {
			c.logger.Warn().Err(err).Msg("translation cache write failed")
		}
	}
	return texts
}

func (c *Client) request(ctx context.Context, op, text string, targets []string, timeout time.Duration) (res *translationResult, err error) {
	defer func() { recordRequest(op, err) }()

	params := url.Values{}
	params.Set("api-version", "3.0")
	for _, t := range targets {
		params.Add("to", t)
	}

	body, err := json.Marshal([]map[string]string{{"text": text}})
	if err != nil {
		return nil, err
	}

	reqCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodPost,
		c.baseURL+"translate?"+params.Encode(), bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Ocp-Apim-Subscription-Key", c.key)
	req.Header.Set("Ocp-Apim-Subscription-Region", c.region)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return nil, fmt.Errorf("translator non-200: %d", resp.StatusCode)
	}

	var payload []translationResult
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, err
	}
	if len(payload) == 0 {
		return nil, fmt.Errorf("translator returned empty payload")
	}
	return &payload[0], nil
}
