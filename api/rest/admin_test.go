package rest_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func adminGet(t *testing.T, s *testServer, path, key string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if key != "" {
		req.Header.Set("X-Admin-Key", key)
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func TestAdminMetrics(t *testing.T) {
	s := newTestServer(t)
	createGame(t, s)

	w := adminGet(t, s, "/api/admin/metrics", "test-admin-key")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp struct {
		Games      int64 `json:"games"`
		Unfinished int64 `json:"unfinished_games"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, int64(1), resp.Games)
	assert.Equal(t, int64(1), resp.Unfinished)
}

func TestAdmin_WrongKey(t *testing.T) {
	s := newTestServer(t)

	assert.Equal(t, http.StatusForbidden, adminGet(t, s, "/api/admin/metrics", "nope").Code)
	assert.Equal(t, http.StatusForbidden, adminGet(t, s, "/api/admin/metrics", "").Code)
}

func TestAdminTasks(t *testing.T) {
	s := newTestServer(t)

	w := adminGet(t, s, "/api/admin/tasks", "test-admin-key")
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Tickers []string `json:"tickers"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Empty(t, resp.Tickers)
}
