package sse_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/merlinhq/avalon-server/api/sse"
	"github.com/merlinhq/avalon-server/config"
	mw "github.com/merlinhq/avalon-server/middleware"
	"github.com/merlinhq/avalon-server/testutil"
)

var testSec = config.SecurityConfig{JWTSecret: "test-secret", JWTTTLH: time.Hour}

func sseSetup(t *testing.T) (*gin.Engine, string) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	kv, pubsub := testutil.SetupTestCache(t)

	r := gin.New()
	h := sse.NewHandler(pubsub, kv, testSec, zap.NewNop())
	r.GET("/api/events", h.Stream)

	token, err := mw.GenerateToken(1, testSec.JWTSecret, testSec.JWTTTLH)
	require.NoError(t, err)
	require.NoError(t, kv.Set(context.Background(), "session:"+token, "1", time.Hour))
	return r, token
}

func TestStream_MissingToken(t *testing.T) {
	r, _ := sseSetup(t)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/events", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestStream_BogusToken(t *testing.T) {
	r, _ := sseSetup(t)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/events?token=garbage", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestStream_TokenWithoutSession(t *testing.T) {
	r, _ := sseSetup(t)

	orphan, err := mw.GenerateToken(2, testSec.JWTSecret, testSec.JWTTTLH)
	require.NoError(t, err)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/events?token="+orphan, nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
