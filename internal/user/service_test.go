package user

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"wlm_backend/internal/common"
	"wlm_backend/internal/config"
	"wlm_backend/internal/provider"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&User{}))
	return db
}

func newSQLiteService(t *testing.T) (*ServiceImplementation, Repository) {
	t.Helper()
	repo := NewGORMRepository(setupTestDB(t))
	// No Elasticsearch in tests; search falls back to the database.
	return NewService(repo, nil, &config.Config{}, zap.NewNop()), repo
}

func strPtr(s string) *string { return &s }

func TestUpsertFromProfile_CreatesThenUpdatesInPlace(t *testing.T) {
	svc, repo := newSQLiteService(t)
	ctx := context.Background()

	profile := &provider.Profile{
		ExternalID:  "17841400000000001",
		Handle:      "Alice_W",
		DisplayName: strPtr("Alice"),
	}

	created, wasCreated, err := svc.UpsertFromProfile(ctx, profile, "token-one")
	require.NoError(t, err)
	assert.True(t, wasCreated)
	assert.Equal(t, "alice_w", created.Handle)
	assert.Equal(t, "token-one", created.AccessToken)

	// A later callback for the same external id must update the same row.
	profile.Handle = "alice_renamed"
	profile.AvatarURL = strPtr("https://cdn.example/alice.jpg")
	updated, wasCreated, err := svc.UpsertFromProfile(ctx, profile, "token-two")
	require.NoError(t, err)
	assert.False(t, wasCreated)
	assert.Equal(t, created.ID, updated.ID)
	assert.Equal(t, "alice_renamed", updated.Handle)
	assert.Equal(t, "token-two", updated.AccessToken)

	total, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
}

func TestGetByExternalID_NotFound(t *testing.T) {
	svc, _ := newSQLiteService(t)

	usr, err := svc.GetByExternalID(context.Background(), "does-not-exist")
	assert.Nil(t, usr)
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestSearch_FallsBackToDatabasePrefixMatch(t *testing.T) {
	svc, _ := newSQLiteService(t)
	ctx := context.Background()

	for _, h := range []string{"alice_w", "alina", "bob"} {
		_, _, err := svc.UpsertFromProfile(ctx, &provider.Profile{
			ExternalID: "ext-" + h,
			Handle:     h,
		}, "tok")
		require.NoError(t, err)
	}

	found, err := svc.Search(ctx, "AL", 0)
	require.NoError(t, err)
	require.Len(t, found, 2)
	assert.Equal(t, "alice_w", found[0].Handle)
	assert.Equal(t, "alina", found[1].Handle)

	found, err = svc.Search(ctx, "zz", 0)
	require.NoError(t, err)
	assert.Len(t, found, 0)
}

func TestPingAndSweepOffline(t *testing.T) {
	svc, repo := newSQLiteService(t)
	ctx := context.Background()

	created, _, err := svc.UpsertFromProfile(ctx, &provider.Profile{
		ExternalID: "ext-1",
		Handle:     "alice",
	}, "tok")
	require.NoError(t, err)
	assert.False(t, created.IsOnline)

	require.NoError(t, svc.Ping(ctx, "ext-1"))

	usr, err := repo.FindByID(ctx, created.ID)
	require.NoError(t, err)
	assert.True(t, usr.IsOnline)
	require.NotNil(t, usr.LastSeenAt)

	// A fresh ping survives the sweep.
	swept, err := svc.SweepOffline(ctx, 5*time.Minute)
	require.NoError(t, err)
	assert.Equal(t, int64(0), swept)

	// A zero window expires everything pinged before now.
	time.Sleep(5 * time.Millisecond)
	swept, err = svc.SweepOffline(ctx, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(1), swept)

	usr, err = repo.FindByID(ctx, created.ID)
	require.NoError(t, err)
	assert.False(t, usr.IsOnline)
}

func TestPing_UnknownExternalID(t *testing.T) {
	svc, _ := newSQLiteService(t)
	err := svc.Ping(context.Background(), "ghost")
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestNormalizeHandle(t *testing.T) {
	assert.Equal(t, "alice", NormalizeHandle("  Alice "))
	assert.Equal(t, "bob_99", NormalizeHandle("BOB_99"))
	assert.Equal(t, "", NormalizeHandle("   "))
}
