package player

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"unicode/utf8"

	"github.com/rs/zerolog"

	"github.com/quiplash-live/quiplash-service/internal/docstore"
)

// maxUpdateAttempts bounds the conditional-replace retry loop on score
// updates. Conflicts come from concurrent updates to the same player, so a
// handful of retries is plenty.
const maxUpdateAttempts = 5

type playerStore interface {
	Read(ctx context.Context, id, partitionKey string) (docstore.Document, error)
	Create(ctx context.Context, id, partitionKey string, body []byte) error
	Replace(ctx context.Context, id, partitionKey string, etag int64, body []byte) error
	QueryField(ctx context.Context, field, value string) ([]docstore.Document, error)
}

type createdNotifier interface {
	PlayerCreated(ctx context.Context, p Player) error
}

// Service handles player registration, login and score accounting.
type Service struct {
	players  playerStore
	notifier createdNotifier
	logger   zerolog.Logger
}

// NewService creates a player service. notifier may be nil when no change
// feed is wired (tests, migrations).
func NewService(players playerStore, notifier createdNotifier, logger zerolog.Logger) *Service {
	return &Service{
		players:  players,
		notifier: notifier,
		logger:   logger.With().Str("component", "player_service").Logger(),
	}
}

// Register validates and persists a new player. Validation outcomes come back
// as a Status; a non-nil error means a store failure.
func (s *Service) Register(ctx context.Context, req RegisterRequest) (Status, error) {
	if n := utf8.RuneCountInString(req.Username); n < 5 || n > 12 {
		return Status{Msg: "Username less than 5 characters or more than 12 characters"}, nil
	}
	if n := utf8.RuneCountInString(req.Password); n < 8 || n > 12 {
		return Status{Msg: "Password less than 8 characters or more than 12 characters"}, nil
	}

	existing, err := s.players.QueryField(ctx, "username", req.Username)
	if err != nil {
		return Status{}, fmt.Errorf("check username: %w", err)
	}
	if len(existing) > 0 {
		return Status{Msg: "Username already exists"}, nil
	}

	hash, err := HashPassword(req.Password)
	if err != nil {
		return Status{}, fmt.Errorf("hash password: %w", err)
	}

	p := Player{
		ID:       req.Username,
		Username: req.Username,
		Password: hash,
	}
	body, err := json.Marshal(p)
	if err != nil {
		return Status{}, err
	}

	if err := s.players.Create(ctx, p.ID, p.Username, body); err != nil {
		if errors.Is(err, docstore.ErrConflict) {
			// Lost the race against a concurrent registration of the same name.
			return Status{Msg: "Username already exists"}, nil
		}
		return Status{}, fmt.Errorf("create player: %w", err)
	}

	if s.notifier != nil {
		if err := s.notifier.PlayerCreated(ctx, p); err != nil {
			s.logger.Warn().Err(err).Str("username", p.Username).Msg("player created event not published")
		}
	}

	s.logger.Info().Str("username", p.Username).Msg("player registered")
	return Status{Result: true, Msg: "OK"}, nil
}

// Login checks the supplied credentials against the stored account.
func (s *Service) Login(ctx context.Context, req LoginRequest) (Status, error) {
	doc, err := s.players.Read(ctx, req.Username, req.Username)
	if errors.Is(err, docstore.ErrNotFound) {
		return Status{Msg: "Username not found"}, nil
	}
	if err != nil {
		return Status{}, fmt.Errorf("read player: %w", err)
	}

	var p Player
	if err := json.Unmarshal(doc.Body, &p); err != nil {
		return Status{}, fmt.Errorf("decode player: %w", err)
	}
	if VerifyPassword(p.Password, req.Password) != nil {
		return Status{Msg: "Incorrect password"}, nil
	}
	return Status{Result: true, Msg: "OK"}, nil
}

// Update applies the caller-supplied deltas to games_played and total_score.
// The write is a conditional replace keyed on the document etag, retried on
// conflict, so concurrent updates cannot lose increments.
func (s *Service) Update(ctx context.Context, req UpdateRequest) (Status, error) {
	for attempt := 0; attempt < maxUpdateAttempts; attempt++ {
		doc, err := s.players.Read(ctx, req.Username, req.Username)
		if errors.Is(err, docstore.ErrNotFound) {
			return Status{Msg: "Username not found"}, nil
		}
		if err != nil {
			return Status{}, fmt.Errorf("read player: %w", err)
		}

		var p Player
		if err := json.Unmarshal(doc.Body, &p); err != nil {
			return Status{}, fmt.Errorf("decode player: %w", err)
		}
		p.GamesPlayed += req.AddToGamesPlayed
		p.TotalScore += req.AddToScore

		body, err := json.Marshal(p)
		if err != nil {
			return Status{}, err
		}

		err = s.players.Replace(ctx, req.Username, req.Username, doc.ETag, body)
		if errors.Is(err, docstore.ErrConflict) {
			continue
		}
		if errors.Is(err, docstore.ErrNotFound) {
			return Status{Msg: "Username not found"}, nil
		}
		if err != nil {
			return Status{}, fmt.Errorf("replace player: %w", err)
		}
		return Status{Result: true, Msg: "OK"}, nil
	}
	return Status{}, fmt.Errorf("update player %s: too many conflicts", req.Username)
}
