package routes

import (
	"database/sql"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/NetDSS-25-26J-035/net-dss-backend/config"
	networkshttp "github.com/NetDSS-25-26J-035/net-dss-backend/internal/networks/http"
	networksrepo "github.com/NetDSS-25-26J-035/net-dss-backend/internal/networks/repository"
	networkssvc "github.com/NetDSS-25-26J-035/net-dss-backend/internal/networks/service"
	runshttp "github.com/NetDSS-25-26J-035/net-dss-backend/internal/runs/http"
	runsrepo "github.com/NetDSS-25-26J-035/net-dss-backend/internal/runs/repository"
	runssvc "github.com/NetDSS-25-26J-035/net-dss-backend/internal/runs/service"
)

type V1Deps struct {
	DB     *pgxpool.Pool
	SQL    *sql.DB
	Redis  *redis.Client
	Config *config.Config
	Logger *zap.Logger
}

func RegisterV1(r *gin.Engine, dep V1Deps) error {
	api := r.Group("/api/v1")

	networkRepo := networksrepo.NewRepo(dep.DB)
	networkCache := networksrepo.NewCache(dep.Redis, dep.Config.Redis.CacheTTL)
	networkSvc := networkssvc.NewService(networkRepo, networkCache, dep.Logger)

	networksGroup := api.Group("/networks")
	networkshttp.Register(networksGroup, networkSvc)

	memo := runsrepo.NewCache(dep.Redis, dep.Config.Runs.CacheTTL)
	history := runsrepo.NewHistory(dep.SQL)
	runSvc, err := runssvc.NewService(networkSvc, memo, history, dep.Config.Engine, dep.Logger)
	if err != nil {
		return err
	}

	runsGroup := api.Group("/runs")
	runshttp.Register(networksGroup, runsGroup, runSvc)

	return nil
}
