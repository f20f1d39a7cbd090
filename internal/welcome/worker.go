// Package welcome reacts to the player-created change feed by inserting one
// translated welcome prompt per new player.
package welcome

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/quiplash-live/quiplash-service/internal/docstore"
	"github.com/quiplash-live/quiplash-service/internal/prompt"
	"github.com/quiplash-live/quiplash-service/internal/translate"
)

// Event is the change-feed payload published on player registration.
type Event struct {
	ID       string `json:"id"`
	Username string `json:"username"`
}

type promptStore interface {
	Create(ctx context.Context, id, partitionKey string, body []byte) error
	ReadPartition(ctx context.Context, partitionKey string) ([]docstore.Document, error)
}

type translator interface {
	TranslateToAll(ctx context.Context, text string) []translate.Text
}

// Worker subscribes to the player-created channel and inserts welcome
// prompts. The feed delivers at-least-once, so insertion is guarded by an
// existence check on the canonical English sentence.
type Worker struct {
	redis      *redis.Client
	prompts    promptStore
	translator translator
	channel    string
	logger     zerolog.Logger
}

func NewWorker(client *redis.Client, prompts promptStore, translator translator, channel string, logger zerolog.Logger) *Worker {
	if channel == "" {
		channel = "players:created"
	}
	return &Worker{
		redis:      client,
		prompts:    prompts,
		translator: translator,
		channel:    channel,
		logger:     logger.With().Str("component", "welcome_worker").Logger(),
	}
}

// Sentence is the canonical English welcome text for a player. Idempotency
// checks compare against this exact string, so it must stay stable.
func Sentence(username string) string {
	return fmt.Sprintf("Welcome to Quiplash, %s! We hope you have a great time playing", username)
}

// Run subscribes to the change feed and blocks until the context is
// cancelled. Failures on one event never stop processing of the next.
func (w *Worker) Run(ctx context.Context) error {
	if w.redis == nil {
		return nil
	}

	sub := w.redis.Subscribe(ctx, w.channel)
	defer sub.Close()

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			w.handle(ctx, msg.Payload)
		}
	}
}

func (w *Worker) handle(ctx context.Context, payload string) {
	var evt Event
	if err := json.Unmarshal([]byte(payload), &evt); err != nil {
		w.logger.Warn().Err(err).Msg("undecodable player created event")
		return
	}
	if evt.Username == "" {
		w.logger.Warn().Msg("player created event without username")
		return
	}

	sentence := Sentence(evt.Username)

	exists, err := w.welcomeExists(ctx, evt.Username, sentence)
	if err != nil {
		w.logger.Warn().Err(err).Str("username", evt.Username).Msg("welcome existence check failed")
		return
	}
	if exists {
		w.logger.Debug().Str("username", evt.Username).Msg("welcome prompt already present")
		return
	}

	p := prompt.Prompt{
		ID:       uuid.NewString(),
		Username: evt.Username,
		Texts:    w.translator.TranslateToAll(ctx, sentence),
		Tags:     []string{},
	}
	body, err := json.Marshal(p)
	if err != nil {
		w.logger.Warn().Err(err).Str("username", evt.Username).Msg("welcome prompt not encoded")
		return
	}
	if err := w.prompts.Create(ctx, p.ID, p.Username, body); err != nil {
		w.logger.Warn().Err(err).Str("username", evt.Username).Msg("welcome prompt not stored")
		return
	}
	w.logger.Info().Str("username", evt.Username).Str("prompt_id", p.ID).Msg("welcome prompt created")
}

func (w *Worker) welcomeExists(ctx context.Context, username, sentence string) (bool, error) {
	docs, err := w.prompts.ReadPartition(ctx, username)
	if err != nil {
		return false, err
	}
	for _, doc := range docs {
		var p prompt.Prompt
		if err := json.Unmarshal(doc.Body, &p); err != nil {
			continue
		}
		for _, t := range p.Texts {
			if t.Language == "en" && t.Text == sentence {
				return true, nil
			}
		}
	}
	return false, nil
}
