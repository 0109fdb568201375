// File: cmd/server/wire.go
//go:build wireinject
// +build wireinject

package main

import (
	"log"

	"wlm_backend/internal/app"
	"wlm_backend/internal/auth"
	"wlm_backend/internal/config"
	"wlm_backend/internal/crush"
	"wlm_backend/internal/jobs"
	"wlm_backend/internal/platform/database"
	platformES "wlm_backend/internal/platform/elasticsearch"
	"wlm_backend/internal/platform/logger"
	"wlm_backend/internal/provider"
	"wlm_backend/internal/stats"
	"wlm_backend/internal/user"

	"github.com/google/wire"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// initializeServer is the main Wire injector.
func initializeServer(cfg *config.Config) (*app.Server, func(), error) {
	wire.Build(
		// Platform Layer
		logger.New,
		database.NewGORM,
		platformES.NewClient,
		provideCleanup,

		// Identity Provider Gateway
		provider.NewInstagramGateway,

		// User module
		user.NewGORMRepository,
		user.NewService,
		wire.Bind(new(user.Service), new(*user.ServiceImplementation)),
		user.NewHandler,

		// Auth flow
		auth.NewService,
		wire.Bind(new(auth.Service), new(*auth.ServiceImplementation)),
		auth.NewHandler,

		// Crush registry & matcher
		crush.NewGORMRepository,
		crush.NewService,
		wire.Bind(new(crush.Service), new(*crush.ServiceImplementation)),
		crush.NewHandler,

		// Stats
		stats.NewService,
		wire.Bind(new(stats.Service), new(*stats.ServiceImplementation)),
		stats.NewHandler,

		// Jobs
		jobs.NewPresenceSweepJob,

		// Application Layer
		app.NewServer,
	)
	return nil, nil, nil
}

func provideCleanup(logger *zap.Logger, db *gorm.DB) func() {
	return func() {
		logger.Info("Executing cleanup tasks...")
		database.CloseGORMDB(db)
		if err := logger.Sync(); err != nil {
			log.Printf("ERROR: Failed to sync logger during cleanup: %v", err)
		}
		log.Println("Cleanup finished.")
	}
}
