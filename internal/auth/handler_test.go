package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"wlm_backend/internal/common"
	"wlm_backend/internal/config"
	"wlm_backend/internal/provider"
	"wlm_backend/internal/user"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

type fakeGateway struct {
	token       string
	externalID  string
	profile     *provider.Profile
	exchangeErr error
	profileErr  error
}

func (f *fakeGateway) AuthorizationURL() string {
	return "https://auth.example/oauth/authorize?client_id=client-id"
}

func (f *fakeGateway) ExchangeCode(ctx context.Context, code string) (string, string, error) {
	if f.exchangeErr != nil {
		return "", "", f.exchangeErr
	}
	return f.token, f.externalID, nil
}

func (f *fakeGateway) FetchProfile(ctx context.Context, accessToken string) (*provider.Profile, error) {
	if f.profileErr != nil {
		return nil, f.profileErr
	}
	return f.profile, nil
}

func setupRouter(t *testing.T, gateway provider.Gateway) (*gin.Engine, user.Repository) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&user.User{}))

	cfg := &config.Config{FrontendCallbackURL: "http://localhost:3000/callback"}
	logger := zap.NewNop()
	userRepo := user.NewGORMRepository(db)
	userService := user.NewService(userRepo, nil, cfg, logger)
	authService := NewService(gateway, userService, logger)
	handler := NewHandler(authService, cfg, logger)

	router := gin.New()
	handler.RegisterRoutes(router.Group(""))
	return router, userRepo
}

func TestLogin_RedirectsToProvider(t *testing.T) {
	router, _ := setupRouter(t, &fakeGateway{})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/auth/login", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "https://auth.example/oauth/authorize?client_id=client-id", w.Header().Get("Location"))
}

func TestCallback_SuccessRedirectsWithSessionBlob(t *testing.T) {
	gateway := &fakeGateway{
		token:      "IGQVJtok",
		externalID: "9001",
		profile:    &provider.Profile{ExternalID: "9001", Handle: "Alice_W"},
	}
	router, userRepo := setupRouter(t, gateway)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/auth/callback?code=the-code", nil)
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusFound, w.Code)
	location, err := url.Parse(w.Header().Get("Location"))
	require.NoError(t, err)
	assert.Equal(t, "localhost:3000", location.Host)
	assert.Equal(t, "/callback", location.Path)

	var session struct {
		ExternalID string `json:"external_id"`
		Handle     string `json:"handle"`
	}
	require.NoError(t, json.Unmarshal([]byte(location.Query().Get("user")), &session))
	assert.Equal(t, "9001", session.ExternalID)
	assert.Equal(t, "alice_w", session.Handle)

	// The redirect never carries the access token.
	assert.NotContains(t, w.Header().Get("Location"), "IGQVJtok")

	stored, err := userRepo.FindByExternalID(context.Background(), "9001")
	require.NoError(t, err)
	assert.Equal(t, "IGQVJtok", stored.AccessToken)
}

func TestCallback_SecondCallbackUpdatesSameUser(t *testing.T) {
	gateway := &fakeGateway{
		token:      "tok-one",
		externalID: "9001",
		profile:    &provider.Profile{ExternalID: "9001", Handle: "alice"},
	}
	router, userRepo := setupRouter(t, gateway)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/auth/callback?code=c1", nil))
	require.Equal(t, http.StatusFound, w.Code)

	gateway.token = "tok-two"
	gateway.profile.Handle = "alice_renamed"
	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/auth/callback?code=c2", nil))
	require.Equal(t, http.StatusFound, w.Code)

	total, err := userRepo.Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)

	stored, err := userRepo.FindByExternalID(context.Background(), "9001")
	require.NoError(t, err)
	assert.Equal(t, "alice_renamed", stored.Handle)
	assert.Equal(t, "tok-two", stored.AccessToken)
}

func TestCallback_MissingCode(t *testing.T) {
	router, _ := setupRouter(t, &fakeGateway{})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/auth/callback", nil))

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCallback_ExchangeFailureRendersDetail(t *testing.T) {
	gateway := &fakeGateway{
		exchangeErr: common.ErrUpstreamAuth.WithDetails("Could not exchange the authorization code."),
	}
	router, _ := setupRouter(t, gateway)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/auth/callback?code=bad", nil))

	require.Equal(t, http.StatusInternalServerError, w.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "Authentication error: Could not exchange the authorization code.", body["detail"])
}

func TestCallback_ProfileFailureRendersDetail(t *testing.T) {
	gateway := &fakeGateway{
		token:      "secret-tok",
		externalID: "9001",
		profileErr: common.ErrUpstreamProfile.WithDetails("Provider error: Invalid OAuth access token"),
	}
	router, _ := setupRouter(t, gateway)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/auth/callback?code=c", nil))

	require.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), "Authentication error: Provider error: Invalid OAuth access token")
	assert.NotContains(t, w.Body.String(), "secret-tok")
}
