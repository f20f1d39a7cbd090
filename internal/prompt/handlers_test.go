package prompt

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestHandlers(store *memPromptStore, scorer *stubScorer) *HTTPHandlers {
	svc := newTestService(store, nil, nil, scorer)
	return NewHTTPHandlers(svc, zerolog.Nop())
}

func postJSON(t *testing.T, handler http.HandlerFunc, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	rec := httptest.NewRecorder()
	handler(rec, req)
	return rec
}

func TestCreateHandlerRejectionMessage(t *testing.T) {
	h := newTestHandlers(newMemPromptStore(), nil)

	rec := postJSON(t, h.Create, `{"username":"nobodyhere","text":"What is the worst thing to say at a wedding?","tags":[]}`)
	assert.Equal(t, http.StatusOK, rec.Code, "validation rejections ride HTTP 200")
	assert.JSONEq(t, `{"result":false,"msg":"Player does not exist"}`, rec.Body.String())
}

func TestDeleteHandlerZeroPromptsMessage(t *testing.T) {
	h := newTestHandlers(newMemPromptStore(), nil)

	rec := postJSON(t, h.Delete, `{"player":"gamer123"}`)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"result":true,"msg":"0 prompts deleted"}`, rec.Body.String())
}

func TestModerateHandlerWireFormat(t *testing.T) {
	store := newMemPromptStore()
	seedPrompt(t, store, "p1", "gamer123", "spicy text")
	h := newTestHandlers(store, &stubScorer{byEnglish: map[string]float64{"spicy text": 2.5}})

	rec := postJSON(t, h.Moderate, `{"prompt-ids":["p1","missing"]}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[{"prompt-id":"p1","outcome":true,"average_severity":2.5}]`, rec.Body.String())
}

func TestModerateHandlerEmptyInput(t *testing.T) {
	h := newTestHandlers(newMemPromptStore(), nil)

	rec := postJSON(t, h.Moderate, `{"prompt-ids":[]}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())
}

func TestFetchHandlerQueryParams(t *testing.T) {
	store := newMemPromptStore()
	seedTaggedPrompt(t, store, "a1", "alice", []string{"Fun"})
	h := newTestHandlers(store, nil)

	req := httptest.NewRequest(http.MethodPost, "/utils/get?players=alice,bob&tag_list=fun", nil)
	rec := httptest.NewRecorder()
	h.Fetch(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var prompts []Prompt
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &prompts))
	require.Len(t, prompts, 1)
	assert.Equal(t, "a1", prompts[0].ID)
}

func TestFetchHandlerMissingListsReturnsEmptyArray(t *testing.T) {
	h := newTestHandlers(newMemPromptStore(), nil)

	rec := postJSON(t, h.Fetch, `{"players":["alice"]}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())
}

func TestHandlersRejectNonPost(t *testing.T) {
	h := newTestHandlers(newMemPromptStore(), nil)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	h.Create(rec, req)
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}
