package user

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"wlm_backend/internal/provider"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func setupRouter(t *testing.T) (*gin.Engine, Service) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	svc, _ := newSQLiteService(t)
	router := gin.New()
	NewHandler(svc, zap.NewNop()).RegisterRoutes(router.Group(""))
	return router, svc
}

func TestGetMe_ResponseNeverContainsAccessToken(t *testing.T) {
	router, svc := setupRouter(t)

	_, _, err := svc.UpsertFromProfile(context.Background(), &provider.Profile{
		ExternalID: "9001",
		Handle:     "alice",
	}, "super-secret-token")
	require.NoError(t, err)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/users/me?external_id=9001", nil))

	require.Equal(t, http.StatusOK, w.Code)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "9001", body["external_id"])
	assert.Equal(t, "alice", body["handle"])
	_, hasToken := body["access_token"]
	assert.False(t, hasToken)
	assert.NotContains(t, w.Body.String(), "super-secret-token")
}

func TestGetMe_MissingExternalID(t *testing.T) {
	router, _ := setupRouter(t)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/users/me", nil))

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGetMe_UnknownExternalID(t *testing.T) {
	router, _ := setupRouter(t)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/users/me?external_id=ghost", nil))

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestSearchEndpoint(t *testing.T) {
	router, svc := setupRouter(t)

	for _, h := range []string{"alice", "alina"} {
		_, _, err := svc.UpsertFromProfile(context.Background(), &provider.Profile{
			ExternalID: "ext-" + h,
			Handle:     h,
		}, "tok")
		require.NoError(t, err)
	}

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/users/search?q=al", nil))

	require.Equal(t, http.StatusOK, w.Code)
	var body struct {
		Status string         `json:"status"`
		Data   []UserResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "success", body.Status)
	assert.Len(t, body.Data, 2)
	assert.NotContains(t, w.Body.String(), "tok")
}

func TestSearchEndpoint_BadLimit(t *testing.T) {
	router, _ := setupRouter(t)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/users/search?q=al&limit=zero", nil))

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestPingEndpoint(t *testing.T) {
	router, svc := setupRouter(t)

	created, _, err := svc.UpsertFromProfile(context.Background(), &provider.Profile{
		ExternalID: "9001",
		Handle:     "alice",
	}, "tok")
	require.NoError(t, err)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/users/me/ping?external_id=9001", nil))
	assert.Equal(t, http.StatusOK, w.Code)

	refreshed, err := svc.GetByID(context.Background(), created.ID)
	require.NoError(t, err)
	assert.True(t, refreshed.IsOnline)
}
