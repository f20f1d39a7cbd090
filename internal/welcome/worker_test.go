package welcome

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quiplash-live/quiplash-service/internal/docstore"
	"github.com/quiplash-live/quiplash-service/internal/prompt"
	"github.com/quiplash-live/quiplash-service/internal/translate"
)

type memPromptStore struct {
	docs  map[string][]byte
	parts map[string]string
	order []string
}

func newMemPromptStore() *memPromptStore {
	return &memPromptStore{docs: map[string][]byte{}, parts: map[string]string{}}
}

func (m *memPromptStore) Create(_ context.Context, id, partitionKey string, body []byte) error {
	if _, ok := m.docs[id]; ok {
		return docstore.ErrConflict
	}
	m.docs[id] = append([]byte(nil), body...)
	m.parts[id] = partitionKey
	m.order = append(m.order, id)
	return nil
}

func (m *memPromptStore) ReadPartition(_ context.Context, partitionKey string) ([]docstore.Document, error) {
	var out []docstore.Document
	for _, id := range m.order {
		if m.parts[id] != partitionKey {
			continue
		}
		out = append(out, docstore.Document{ID: id, PartitionKey: partitionKey, ETag: 1, Body: m.docs[id]})
	}
	return out, nil
}

type stubTranslator struct {
	calls int
}

func (s *stubTranslator) TranslateToAll(_ context.Context, text string) []translate.Text {
	s.calls++
	texts := make([]translate.Text, 0, len(translate.Supported))
	for i, lang := range translate.Supported {
		entry := translate.Text{Language: lang.Code, Text: lang.Code + ":" + text}
		if i == 0 {
			entry.Text = text
		}
		texts = append(texts, entry)
	}
	return texts
}

func eventPayload(t *testing.T, username string) string {
	t.Helper()
	data, err := json.Marshal(Event{ID: username, Username: username})
	require.NoError(t, err)
	return string(data)
}

func TestHandleCreatesWelcomePrompt(t *testing.T) {
	store := newMemPromptStore()
	tr := &stubTranslator{}
	w := NewWorker(nil, store, tr, "", zerolog.Nop())

	w.handle(context.Background(), eventPayload(t, "gamer123"))

	require.Len(t, store.order, 1)
	var p prompt.Prompt
	require.NoError(t, json.Unmarshal(store.docs[store.order[0]], &p))
	assert.Equal(t, "gamer123", p.Username)
	assert.Equal(t, []string{}, p.Tags)
	assert.Len(t, p.Texts, len(translate.Supported))
	assert.Equal(t, Sentence("gamer123"), p.Texts[0].Text)
}

func TestHandleIsIdempotent(t *testing.T) {
	store := newMemPromptStore()
	tr := &stubTranslator{}
	w := NewWorker(nil, store, tr, "", zerolog.Nop())

	payload := eventPayload(t, "gamer123")
	w.handle(context.Background(), payload)
	w.handle(context.Background(), payload)

	assert.Len(t, store.order, 1, "redelivery must not duplicate the welcome prompt")
	assert.Equal(t, 1, tr.calls, "second delivery should stop at the existence check")
}

func TestHandleDifferentPlayers(t *testing.T) {
	store := newMemPromptStore()
	w := NewWorker(nil, store, &stubTranslator{}, "", zerolog.Nop())

	w.handle(context.Background(), eventPayload(t, "gamer123"))
	w.handle(context.Background(), eventPayload(t, "gamer456"))

	assert.Len(t, store.order, 2)
}

func TestHandleIgnoresBadPayloads(t *testing.T) {
	store := newMemPromptStore()
	w := NewWorker(nil, store, &stubTranslator{}, "", zerolog.Nop())

	w.handle(context.Background(), "{not json")
	w.handle(context.Background(), `{"id":"x"}`)

	assert.Empty(t, store.order)
}
