package rest_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/merlinhq/avalon-server/api/rest"
	"github.com/merlinhq/avalon-server/cache"
	"github.com/merlinhq/avalon-server/config"
	"github.com/merlinhq/avalon-server/game/engine"
	"github.com/merlinhq/avalon-server/game/session"
	"github.com/merlinhq/avalon-server/gamelog"
	mw "github.com/merlinhq/avalon-server/middleware"
	"github.com/merlinhq/avalon-server/scheduler"
	"github.com/merlinhq/avalon-server/store"
	"github.com/merlinhq/avalon-server/testutil"
)

type testServer struct {
	router *gin.Engine
	token  string
	db     *gorm.DB
	kv     cache.Cache
	mgr    *session.Manager
	gw     *store.Gateway
	log    *gamelog.Service
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	logger := zap.NewNop()
	db := testutil.SetupTestDB(t)
	kv, pubsub := testutil.SetupTestCache(t)

	sched := scheduler.New(logger)
	t.Cleanup(sched.Stop)
	journal := gamelog.New(db, logger)
	t.Cleanup(journal.Stop)

	gw := store.New(db, logger)
	mgr := session.NewManager(gw, sched, pubsub, 10*time.Millisecond, logger)

	cfg := &config.Config{}
	cfg.Server.AdminKey = "test-admin-key"
	cfg.Security = config.SecurityConfig{
		JWTSecret: "test-secret",
		JWTTTLH:   time.Hour,
	}

	r := gin.New()
	rest.Register(r, rest.Handlers{
		Auth:    rest.NewAuthHandler(db, kv, cfg.Security),
		Game:    rest.NewGameHandler(mgr, journal, logger),
		History: rest.NewHistoryHandler(gw, mgr, journal, logger),
		Share:   rest.NewShareHandler(gw, logger),
		Prefs:   rest.NewPrefsHandler(db, logger),
		Admin:   rest.NewAdminHandler(db, sched, logger),
	}, kv, cfg)

	token, err := mw.GenerateToken(1, cfg.Security.JWTSecret, cfg.Security.JWTTTLH)
	require.NoError(t, err)
	require.NoError(t, kv.Set(context.Background(), "session:"+token, "1", time.Hour))

	return &testServer{router: r, token: token, db: db, kv: kv, mgr: mgr, gw: gw, log: journal}
}

func (s *testServer) do(t *testing.T, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+s.token)
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func decodeGame(t *testing.T, w *httptest.ResponseRecorder) *engine.Game {
	t.Helper()
	var g engine.Game
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &g))
	return &g
}

var sevenPlayers = []string{"Ana", "Ben", "Cleo", "Dan", "Eve", "Finn", "Gwen"}

// createGame starts a fresh seven-player game through the API.
func createGame(t *testing.T, s *testServer) *engine.Game {
	t.Helper()
	w := s.do(t, http.MethodPost, "/api/game", gin.H{"players": sevenPlayers})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	return decodeGame(t, w)
}
