package main

import (
	"context"
	"log"

	"github.com/taskforge-app/taskforge-backend/config"
	"github.com/taskforge-app/taskforge-backend/internal/bootstrap"
	"github.com/taskforge-app/taskforge-backend/internal/storage/postgres"
	"github.com/taskforge-app/taskforge-backend/internal/tracker/jobs"
	"github.com/taskforge-app/taskforge-backend/internal/tracker/repository"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	bootstrap.SetGinMode(cfg.App.Environment)

	ctx := context.Background()

	db, err := postgres.NewConnection(&cfg.Database)
	if err != nil {
		log.Fatalf("postgres: %v", err)
	}
	defer db.Close()

	if err := postgres.Migrate(ctx, db); err != nil {
		log.Fatalf("migrate: %v", err)
	}

	// Separate pool for liveness checks so a saturated sql.DB cannot
	// make the health endpoint lie.
	healthPool, err := bootstrap.OpenDB(ctx, bootstrap.DBOptions{DSN: postgres.DSN(&cfg.Database)})
	if err != nil {
		log.Fatalf("health pool: %v", err)
	}
	defer healthPool.Close()

	redisClient, err := bootstrap.OpenRedis(ctx, &cfg.Redis)
	if err != nil {
		log.Printf("redis unavailable, running without kanban cache: %v", err)
		redisClient = nil
	} else {
		defer redisClient.Close()
	}

	scheduler := jobs.NewScheduler(
		repository.NewProjectRepository(db),
		repository.NewWorkItemRepository(db),
	)
	scheduler.Start()
	defer scheduler.Stop()

	r := bootstrap.BuildRouter(bootstrap.RouterDeps{
		ServiceName: "taskforge-backend",
		Version:     cfg.App.Version,
		DB:          db,
		HealthPool:  healthPool,
		Redis:       redisClient,
	})

	log.Printf("listening on :%s", cfg.Server.Port)
	if err := r.Run(":" + cfg.Server.Port); err != nil {
		log.Fatalf("server: %v", err)
	}
}
