package fakeapi

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ppg/ppgchat/internal/faq"
)

const testPassword = "s3cret"

func setup(t *testing.T) (http.Handler, *Backend) {
	t.Helper()
	b := New(Options{
		Password: testPassword,
		FAQ: []faq.Entry{
			{Q: "How do I pay?", A: "QR or card", Tag: "payment"},
			{ID: "fixed", Q: "Opening hours", A: "9 to 6"},
		},
	})
	return b.Handler(), b
}

func do(h http.Handler, method, path, body, token string) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func decode(t *testing.T, rr *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var m map[string]any
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &m), "body: %s", rr.Body.String())
	return m
}

func login(t *testing.T, h http.Handler) string {
	t.Helper()
	rr := do(h, http.MethodPost, "/api/login", `{"password":"`+testPassword+`"}`, "")
	require.Equal(t, http.StatusOK, rr.Code)
	token, _ := decode(t, rr)["token"].(string)
	require.NotEmpty(t, token)
	return token
}

func TestChat_EchoesAndRecords(t *testing.T) {
	h, b := setup(t)

	rr := do(h, http.MethodPost, "/", `{"message":"hi","userKey":"user_1"}`, "")
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "echo: hi", decode(t, rr)["reply"])
	assert.Equal(t, []ChatRequest{{Message: "hi", UserKey: "user_1"}}, b.ChatRequests())
}

func TestChat_ForcedFailure(t *testing.T) {
	h, b := setup(t)
	b.FailChat(http.StatusInternalServerError, `{"error":"boom"}`)

	rr := do(h, http.MethodPost, "/chat", `{"message":"hi"}`, "")
	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	assert.JSONEq(t, `{"error":"boom"}`, rr.Body.String())

	b.FailChat(0, "")
	assert.Equal(t, http.StatusOK, do(h, http.MethodPost, "/chat", `{"message":"hi"}`, "").Code)
}

func TestPublicFAQ_HidesIDs(t *testing.T) {
	h, _ := setup(t)

	rr := do(h, http.MethodGet, "/api/public_faq", "", "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.NotContains(t, rr.Body.String(), `"id"`)
	list := decode(t, rr)["faq"].([]any)
	assert.Len(t, list, 2)
}

func TestLogin(t *testing.T) {
	h, _ := setup(t)

	rr := do(h, http.MethodPost, "/api/login", `{"password":"nope"}`, "")
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
	assert.Equal(t, "invalid password", decode(t, rr)["error"])

	assert.NotEmpty(t, login(t, h))
}

func TestAdminRoutes_RequireToken(t *testing.T) {
	h, b := setup(t)

	for _, path := range []string{"/api/faq", "/api/faq/add", "/api/faq/update", "/api/faq/delete"} {
		method := http.MethodPost
		if path == "/api/faq" {
			method = http.MethodGet
		}
		rr := do(h, method, path, `{}`, "bogus")
		assert.Equal(t, http.StatusUnauthorized, rr.Code, path)
	}

	token := login(t, h)
	assert.Equal(t, http.StatusOK, do(h, http.MethodGet, "/api/faq", "", token).Code)

	b.RevokeTokens()
	assert.Equal(t, http.StatusUnauthorized, do(h, http.MethodGet, "/api/faq", "", token).Code)
}

func TestFAQ_CRUD(t *testing.T) {
	h, b := setup(t)
	token := login(t, h)

	rr := do(h, http.MethodPost, "/api/faq/add", `{"q":"Refunds?","a":"Within 7 days","tag":"policy"}`, token)
	require.Equal(t, http.StatusOK, rr.Code)
	id, _ := decode(t, rr)["id"].(string)
	require.NotEmpty(t, id)
	assert.Len(t, b.Entries(), 3)

	rr = do(h, http.MethodPost, "/api/faq/update", `{"id":"`+id+`","q":"Refunds?","a":"Within 14 days"}`, token)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "Within 14 days", b.Entries()[2].A)

	rr = do(h, http.MethodPost, "/api/faq/update", `{"id":"missing","q":"x","a":"y"}`, token)
	assert.Equal(t, http.StatusNotFound, rr.Code)

	rr = do(h, http.MethodPost, "/api/faq/add", `{"q":"","a":"y"}`, token)
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = do(h, http.MethodPost, "/api/faq/delete", `{"id":"fixed"}`, token)
	require.Equal(t, http.StatusOK, rr.Code)
	for _, e := range b.Entries() {
		assert.NotEqual(t, "fixed", e.ID)
	}

	rr = do(h, http.MethodPost, "/api/faq/delete", `{"id":"fixed"}`, token)
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestFAQ_Replace(t *testing.T) {
	h, b := setup(t)
	token := login(t, h)

	rr := do(h, http.MethodPost, "/api/faq", `{"faq":[{"q":"a","a":"b"}]}`, token)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, float64(1), decode(t, rr)["count"])
	require.Len(t, b.Entries(), 1)
	assert.NotEmpty(t, b.Entries()[0].ID)

	rr = do(h, http.MethodPost, "/api/faq", `{"faq":null}`, token)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestHealth(t *testing.T) {
	h, _ := setup(t)
	rr := do(h, http.MethodGet, "/api/health", "", "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, true, decode(t, rr)["ok"])
}
