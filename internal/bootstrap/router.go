package bootstrap

import (
	"database/sql"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"golang.org/x/time/rate"

	httpapi "github.com/taskforge-app/taskforge-backend/internal/api/http"
	"github.com/taskforge-app/taskforge-backend/internal/api/http/middleware"
	"github.com/taskforge-app/taskforge-backend/internal/tracker/cache"
	trackerhttp "github.com/taskforge-app/taskforge-backend/internal/tracker/http"
	"github.com/taskforge-app/taskforge-backend/internal/tracker/repository"
	"github.com/taskforge-app/taskforge-backend/internal/tracker/service"
)

type RouterDeps struct {
	ServiceName string
	Version     string
	DB          *sql.DB
	HealthPool  *pgxpool.Pool
	Redis       *redis.Client
}

func BuildRouter(dep RouterDeps) *gin.Engine {
	r := gin.Default()

	r.Use(cors.Default())
	r.Use(middleware.RequestContextMiddleware())
	r.Use(middleware.RateLimitMiddleware(rate.Limit(50), 100))

	healthHandler := httpapi.NewHealthHandler(dep.ServiceName, dep.Version, dep.HealthPool, dep.Redis)
	healthHandler.RegisterRoutes(r)

	projectRepo := repository.NewProjectRepository(dep.DB)
	stateRepo := repository.NewStateRepository(dep.DB)
	itemRepo := repository.NewWorkItemRepository(dep.DB)
	boardRepo := repository.NewBoardRepository(dep.DB)

	var kanbanCache *cache.KanbanCache
	if dep.Redis != nil {
		kanbanCache = cache.NewKanbanCache(dep.Redis)
	}

	registry := service.NewStateRegistry(stateRepo, projectRepo)
	projectSvc := service.NewProjectService(projectRepo)

	var invalidator service.BoardInvalidator
	var viewCache service.ViewCache
	if kanbanCache != nil {
		invalidator = kanbanCache
		viewCache = kanbanCache
	}
	itemSvc := service.NewWorkItemService(itemRepo, registry, invalidator)
	boardSvc := service.NewBoardService(boardRepo, registry, viewCache)

	api := r.Group("/api/v1")
	trackerhttp.New(projectSvc, itemSvc, boardSvc, registry).Register(api)

	return r
}
