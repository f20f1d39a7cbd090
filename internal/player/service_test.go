package player

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quiplash-live/quiplash-service/internal/docstore"
)

type memDoc struct {
	etag int64
	body []byte
}

// memPlayerStore is an in-memory playerStore. conflictsLeft injects etag
// conflicts on Replace to exercise the retry loop.
type memPlayerStore struct {
	docs          map[string]*memDoc
	conflictsLeft int
	replaceCalls  int
}

func newMemPlayerStore() *memPlayerStore {
	return &memPlayerStore{docs: map[string]*memDoc{}}
}

func (m *memPlayerStore) Read(_ context.Context, id, _ string) (docstore.Document, error) {
	doc, ok := m.docs[id]
	if !ok {
		return docstore.Document{}, docstore.ErrNotFound
	}
	return docstore.Document{ID: id, PartitionKey: id, ETag: doc.etag, Body: doc.body}, nil
}

func (m *memPlayerStore) Create(_ context.Context, id, _ string, body []byte) error {
	if _, ok := m.docs[id]; ok {
		return docstore.ErrConflict
	}
	m.docs[id] = &memDoc{etag: 1, body: append([]byte(nil), body...)}
	return nil
}

func (m *memPlayerStore) QueryField(_ context.Context, field, value string) ([]docstore.Document, error) {
	var out []docstore.Document
	for id, doc := range m.docs {
		var fields map[string]any
		if err := json.Unmarshal(doc.body, &fields); err != nil {
			return nil, err
		}
		if s, ok := fields[field].(string); ok && s == value {
			out = append(out, docstore.Document{ID: id, PartitionKey: id, ETag: doc.etag, Body: doc.body})
		}
	}
	return out, nil
}

func (m *memPlayerStore) Replace(_ context.Context, id, _ string, etag int64, body []byte) error {
	m.replaceCalls++
	doc, ok := m.docs[id]
	if !ok {
		return docstore.ErrNotFound
	}
	if m.conflictsLeft > 0 {
		m.conflictsLeft--
		doc.etag++ // concurrent writer bumped the version
		return docstore.ErrConflict
	}
	if doc.etag != etag {
		return docstore.ErrConflict
	}
	doc.etag++
	doc.body = append([]byte(nil), body...)
	return nil
}

func (m *memPlayerStore) player(t *testing.T, username string) Player {
	t.Helper()
	doc, ok := m.docs[username]
	require.True(t, ok, "player %s not stored", username)
	var p Player
	require.NoError(t, json.Unmarshal(doc.body, &p))
	return p
}

type stubNotifier struct {
	events []Player
}

func (s *stubNotifier) PlayerCreated(_ context.Context, p Player) error {
	s.events = append(s.events, p)
	return nil
}

func register(t *testing.T, svc *Service, username, password string) {
	t.Helper()
	status, err := svc.Register(context.Background(), RegisterRequest{Username: username, Password: password})
	require.NoError(t, err)
	require.True(t, status.Result)
}

func TestRegisterValidationMessages(t *testing.T) {
	svc := NewService(newMemPlayerStore(), nil, zerolog.Nop())

	tests := []struct {
		username string
		password string
		msg      string
	}{
		{"abcd", "password1", "Username less than 5 characters or more than 12 characters"},
		{"waytoolongusername", "password1", "Username less than 5 characters or more than 12 characters"},
		{"gamer123", "short", "Password less than 8 characters or more than 12 characters"},
		{"gamer123", "fartoolongpassword", "Password less than 8 characters or more than 12 characters"},
	}
	for _, tc := range tests {
		status, err := svc.Register(context.Background(), RegisterRequest{Username: tc.username, Password: tc.password})
		assert.NoError(t, err)
		assert.False(t, status.Result)
		assert.Equal(t, tc.msg, status.Msg)
	}
}

func TestRegisterStoresHashedPassword(t *testing.T) {
	store := newMemPlayerStore()
	notifier := &stubNotifier{}
	svc := NewService(store, notifier, zerolog.Nop())

	register(t, svc, "gamer123", "password1")

	p := store.player(t, "gamer123")
	assert.Equal(t, "gamer123", p.ID)
	assert.Equal(t, 0, p.GamesPlayed)
	assert.Equal(t, 0, p.TotalScore)
	assert.NotEqual(t, "password1", p.Password, "password must not be stored in plaintext")
	assert.NoError(t, VerifyPassword(p.Password, "password1"))

	require.Len(t, notifier.events, 1)
	assert.Equal(t, "gamer123", notifier.events[0].Username)
}

func TestRegisterDuplicateUsername(t *testing.T) {
	svc := NewService(newMemPlayerStore(), nil, zerolog.Nop())
	register(t, svc, "gamer123", "password1")

	status, err := svc.Register(context.Background(), RegisterRequest{Username: "gamer123", Password: "password2"})
	assert.NoError(t, err)
	assert.False(t, status.Result)
	assert.Equal(t, "Username already exists", status.Msg)
}

func TestLogin(t *testing.T) {
	svc := NewService(newMemPlayerStore(), nil, zerolog.Nop())
	register(t, svc, "gamer123", "password1")

	status, err := svc.Login(context.Background(), LoginRequest{Username: "gamer123", Password: "password1"})
	require.NoError(t, err)
	assert.True(t, status.Result)

	status, err = svc.Login(context.Background(), LoginRequest{Username: "gamer123", Password: "wrongpass1"})
	require.NoError(t, err)
	assert.Equal(t, "Incorrect password", status.Msg)

	status, err = svc.Login(context.Background(), LoginRequest{Username: "missinguser", Password: "password1"})
	require.NoError(t, err)
	assert.Equal(t, "Username not found", status.Msg)
}

func TestUpdateAppliesDeltas(t *testing.T) {
	store := newMemPlayerStore()
	svc := NewService(store, nil, zerolog.Nop())
	register(t, svc, "gamer123", "password1")

	status, err := svc.Update(context.Background(), UpdateRequest{
		Username:         "gamer123",
		AddToGamesPlayed: 1,
		AddToScore:       42,
	})
	require.NoError(t, err)
	assert.True(t, status.Result)

	p := store.player(t, "gamer123")
	assert.Equal(t, 1, p.GamesPlayed)
	assert.Equal(t, 42, p.TotalScore)
}

func TestUpdateRetriesOnConflict(t *testing.T) {
	store := newMemPlayerStore()
	svc := NewService(store, nil, zerolog.Nop())
	register(t, svc, "gamer123", "password1")

	store.conflictsLeft = 2

	status, err := svc.Update(context.Background(), UpdateRequest{
		Username:         "gamer123",
		AddToGamesPlayed: 1,
		AddToScore:       10,
	})
	require.NoError(t, err)
	assert.True(t, status.Result)
	assert.Equal(t, 3, store.replaceCalls, "two conflicts then one success")

	p := store.player(t, "gamer123")
	assert.Equal(t, 1, p.GamesPlayed)
	assert.Equal(t, 10, p.TotalScore)
}

func TestUpdateUnknownPlayer(t *testing.T) {
	svc := NewService(newMemPlayerStore(), nil, zerolog.Nop())

	status, err := svc.Update(context.Background(), UpdateRequest{Username: "missinguser", AddToScore: 5})
	require.NoError(t, err)
	assert.Equal(t, "Username not found", status.Msg)
}
