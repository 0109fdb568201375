package crush

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func setupRouter(t *testing.T) (*gin.Engine, Service, userFixtures) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	svc, _, userRepo := newSQLiteService(t)

	router := gin.New()
	NewHandler(svc, zap.NewNop()).RegisterRoutes(router.Group(""))

	alice := mustCreateUser(t, userRepo, "ig-1", "alice")
	bob := mustCreateUser(t, userRepo, "ig-2", "bob")
	return router, svc, userFixtures{alice: alice.ID, bob: bob.ID}
}

type userFixtures struct {
	alice uuid.UUID
	bob   uuid.UUID
}

func declareBody(t *testing.T, declarerID uuid.UUID, target, platform string) *bytes.Reader {
	t.Helper()
	body, err := json.Marshal(DeclareCrushRequest{
		DeclarerID:   declarerID,
		TargetHandle: target,
		Platform:     platform,
	})
	require.NoError(t, err)
	return bytes.NewReader(body)
}

func TestDeclareEndpoint_ReturnsCrushAndMatchFlag(t *testing.T) {
	router, _, users := setupRouter(t)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/crushes", declareBody(t, users.alice, "bob", "insta"))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var body struct {
		Crush   CrushResponse `json:"crush"`
		IsMatch bool          `json:"is_match"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.False(t, body.IsMatch)
	assert.Equal(t, users.alice, body.Crush.DeclarerID)
	assert.Equal(t, "bob", body.Crush.TargetHandle)

	// The reciprocal declaration reports the match.
	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodPost, "/crushes", declareBody(t, users.bob, "alice", "insta"))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.True(t, body.IsMatch)
	assert.True(t, body.Crush.Matched)
}

func TestDeclareEndpoint_ValidationError(t *testing.T) {
	router, _, _ := setupRouter(t)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/crushes", bytes.NewReader([]byte(`{"target_handle": "bob"}`)))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
}

func TestDeclareEndpoint_UnknownDeclarer(t *testing.T) {
	router, _, _ := setupRouter(t)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/crushes", declareBody(t, uuid.New(), "bob", "insta"))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestDeclareEndpoint_DuplicateConflict(t *testing.T) {
	router, _, users := setupRouter(t)

	for i, wantStatus := range []int{http.StatusOK, http.StatusConflict} {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/crushes", declareBody(t, users.alice, "bob", "insta"))
		req.Header.Set("Content-Type", "application/json")
		router.ServeHTTP(w, req)
		assert.Equal(t, wantStatus, w.Code, "attempt %d", i+1)
	}
}

func TestListEndpoint_ReturnsDeclaredCrushes(t *testing.T) {
	router, svc, users := setupRouter(t)

	_, _, err := svc.Declare(context.Background(), users.alice, "bob", "insta")
	require.NoError(t, err)
	_, _, err = svc.Declare(context.Background(), users.alice, "carol", "snap")
	require.NoError(t, err)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, fmt.Sprintf("/crushes/%s", users.alice), nil))

	require.Equal(t, http.StatusOK, w.Code)
	var crushes []CrushResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &crushes))
	require.Len(t, crushes, 2)
	assert.Equal(t, "bob", crushes[0].TargetHandle)
	assert.Equal(t, "carol", crushes[1].TargetHandle)
}

func TestListEndpoint_InvalidUserID(t *testing.T) {
	router, _, _ := setupRouter(t)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/crushes/not-a-uuid", nil))

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAdmirersEndpoint(t *testing.T) {
	router, svc, users := setupRouter(t)

	_, _, err := svc.Declare(context.Background(), users.bob, "alice", "insta")
	require.NoError(t, err)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, fmt.Sprintf("/crushes/%s/admirers", users.alice), nil))

	require.Equal(t, http.StatusOK, w.Code)
	var admirers []CrushResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &admirers))
	require.Len(t, admirers, 1)
	assert.Equal(t, users.bob, admirers[0].DeclarerID)
}
