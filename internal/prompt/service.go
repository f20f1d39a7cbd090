package prompt

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/quiplash-live/quiplash-service/internal/docstore"
	"github.com/quiplash-live/quiplash-service/internal/translate"
)

const (
	minPromptLength = 20
	maxPromptLength = 120

	// minDetectConfidence is the floor below which a submission is rejected
	// as unsupported; a failed detection reports 0.0 and falls under it.
	minDetectConfidence = 0.2

	// severityThreshold flags a prompt when its average severity strictly
	// exceeds it. Fixed policy, not configuration.
	severityThreshold = 2.0
)

type promptStore interface {
	Create(ctx context.Context, id, partitionKey string, body []byte) error
	Replace(ctx context.Context, id, partitionKey string, etag int64, body []byte) error
	Delete(ctx context.Context, id, partitionKey string) error
	Find(ctx context.Context, id string) (docstore.Document, error)
	ReadPartition(ctx context.Context, partitionKey string) ([]docstore.Document, error)
}

type playerDirectory interface {
	Read(ctx context.Context, id, partitionKey string) (docstore.Document, error)
}

type translator interface {
	Detect(ctx context.Context, text string) (string, float64)
	TranslateToAll(ctx context.Context, text string) []translate.Text
}

type severityScorer interface {
	AverageSeverity(ctx context.Context, texts []translate.Text) float64
}

// Service orchestrates prompt creation, moderation, deletion and retrieval.
type Service struct {
	prompts    promptStore
	players    playerDirectory
	translator translator
	scorer     severityScorer
	logger     zerolog.Logger
}

func NewService(prompts promptStore, players playerDirectory, translator translator, scorer severityScorer, logger zerolog.Logger) *Service {
	return &Service{
		prompts:    prompts,
		players:    players,
		translator: translator,
		scorer:     scorer,
		logger:     logger.With().Str("component", "prompt_service").Logger(),
	}
}

// Create validates a submission, fans the text out to every supported
// language and persists one prompt document. Preconditions are checked in
// contract order: author exists, length in range, detection confident.
func (s *Service) Create(ctx context.Context, req CreateRequest) (Status, error) {
	_, err := s.players.Read(ctx, req.Username, req.Username)
	if errors.Is(err, docstore.ErrNotFound) {
		return Status{Msg: "Player does not exist"}, nil
	}
	if err != nil {
		return Status{}, fmt.Errorf("check player: %w", err)
	}

	if n := utf8.RuneCountInString(req.Text); n < minPromptLength || n > maxPromptLength {
		return Status{Msg: "Prompt less than 20 characters or more than 120 characters"}, nil
	}

	if _, confidence := s.translator.Detect(ctx, req.Text); confidence < minDetectConfidence {
		return Status{Msg: "Unsupported language"}, nil
	}

	p := Prompt{
		ID:       uuid.NewString(),
		Username: req.Username,
		Texts:    s.translator.TranslateToAll(ctx, req.Text),
		Tags:     dedupeTags(req.Tags),
	}
	body, err := json.Marshal(p)
	if err != nil {
		return Status{}, err
	}
	if err := s.prompts.Create(ctx, p.ID, p.Username, body); err != nil {
		return Status{}, fmt.Errorf("create prompt: %w", err)
	}

	s.logger.Info().Str("prompt_id", p.ID).Str("username", p.Username).
		Int("languages", len(p.Texts)).Msg("prompt created")
	return Status{Result: true, Msg: "OK"}, nil
}

// dedupeTags removes case-insensitive duplicates, keeping the first-seen
// casing and the original relative order.
func dedupeTags(tags []string) []string {
	seen := make(map[string]struct{}, len(tags))
	out := make([]string, 0, len(tags))
	for _, tag := range tags {
		key := strings.ToLower(tag)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, tag)
	}
	return out
}

// Moderate scores the English text of each prompt and reports whether its
// average severity strictly exceeds the threshold. Unknown ids are skipped
// without an entry. The decision is written back onto the document
// best-effort; the returned report is authoritative either way.
func (s *Service) Moderate(ctx context.Context, ids []string) ([]ModerationEntry, error) {
	entries := make([]ModerationEntry, 0, len(ids))
	for _, id := range ids {
		doc, err := s.prompts.Find(ctx, id)
		if errors.Is(err, docstore.ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("find prompt %s: %w", id, err)
		}

		var p Prompt
		if err := json.Unmarshal(doc.Body, &p); err != nil {
			return nil, fmt.Errorf("decode prompt %s: %w", id, err)
		}

		average := s.scorer.AverageSeverity(ctx, p.Texts)
		flagged := average > severityThreshold
		rounded := math.Round(average*100) / 100

		s.persistOutcome(ctx, doc, p, flagged, rounded)

		entries = append(entries, ModerationEntry{
			PromptID:        id,
			Outcome:         flagged,
			AverageSeverity: rounded,
		})
	}
	return entries, nil
}

func (s *Service) persistOutcome(ctx context.Context, doc docstore.Document, p Prompt, flagged bool, severity float64) {
	approved := !flagged
	p.Approved = &approved
	p.AverageSeverity = &severity

	body, err := json.Marshal(p)
	if err == nil {
		err = s.prompts.Replace(ctx, p.ID, p.Username, doc.ETag, body)
	}
	if err != nil {
		s.logger.Warn().Err(err).Str("prompt_id", p.ID).Msg("moderation outcome not persisted")
	}
}

// DeleteByOwner removes every prompt authored by username and returns how
// many deletions were actually performed. A prompt that vanished between the
// listing and the delete is not counted and not an error.
func (s *Service) DeleteByOwner(ctx context.Context, username string) (int, error) {
	docs, err := s.prompts.ReadPartition(ctx, username)
	if err != nil {
		return 0, fmt.Errorf("list prompts: %w", err)
	}

	deleted := 0
	for _, doc := range docs {
		err := s.prompts.Delete(ctx, doc.ID, username)
		if errors.Is(err, docstore.ErrNotFound) {
			continue
		}
		if err != nil {
			return deleted, fmt.Errorf("delete prompt %s: %w", doc.ID, err)
		}
		deleted++
	}
	return deleted, nil
}

// FetchByTags returns, per requested player then per document, every prompt
// whose tag set intersects tagList case-insensitively. Either list empty
// short-circuits to an empty result.
func (s *Service) FetchByTags(ctx context.Context, players, tagList []string) ([]Prompt, error) {
	out := []Prompt{}
	if len(players) == 0 || len(tagList) == 0 {
		return out, nil
	}

	wanted := make(map[string]struct{}, len(tagList))
	for _, tag := range tagList {
		wanted[strings.ToLower(tag)] = struct{}{}
	}

	for _, username := range players {
		docs, err := s.prompts.ReadPartition(ctx, username)
		if err != nil {
			return nil, fmt.Errorf("list prompts for %s: %w", username, err)
		}
		for _, doc := range docs {
			var p Prompt
			if err := json.Unmarshal(doc.Body, &p); err != nil {
				return nil, fmt.Errorf("decode prompt %s: %w", doc.ID, err)
			}
			for _, tag := range p.Tags {
				if _, hit := wanted[strings.ToLower(tag)]; hit {
					out = append(out, p)
					break
				}
			}
		}
	}
	return out, nil
}
