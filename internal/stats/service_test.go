package stats

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"wlm_backend/internal/crush"
	"wlm_backend/internal/user"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func TestOverview_CountsUsersAndMatches(t *testing.T) {
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&user.User{}, &crush.Crush{}))

	userRepo := user.NewGORMRepository(db)
	crushRepo := crush.NewGORMRepository(db)
	crushService := crush.NewService(crushRepo, userRepo, zap.NewNop())
	svc := NewService(userRepo, crushRepo, zap.NewNop())
	ctx := context.Background()

	overview, err := svc.Overview(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(0), overview.TotalUsers)
	assert.Equal(t, int64(0), overview.TotalCrushes)

	alice := &user.User{ExternalID: "ig-1", Handle: "alice", AccessToken: "t1"}
	bob := &user.User{ExternalID: "ig-2", Handle: "bob", AccessToken: "t2"}
	carol := &user.User{ExternalID: "ig-3", Handle: "carol", AccessToken: "t3"}
	for _, u := range []*user.User{alice, bob, carol} {
		require.NoError(t, userRepo.Create(ctx, u))
	}

	_, _, err = crushService.Declare(ctx, alice.ID, "bob", "insta")
	require.NoError(t, err)
	_, _, err = crushService.Declare(ctx, bob.ID, "alice", "insta")
	require.NoError(t, err)
	_, _, err = crushService.Declare(ctx, carol.ID, "alice", "insta")
	require.NoError(t, err)

	overview, err = svc.Overview(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(3), overview.TotalUsers)
	assert.Equal(t, int64(3), overview.TotalCrushes)
	assert.Equal(t, int64(2), overview.MatchedCrushes)
	assert.Equal(t, int64(1), overview.MatchedPairs)
}
