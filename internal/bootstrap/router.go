package bootstrap

import (
	"database/sql"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/NetDSS-25-26J-035/net-dss-backend/config"
	httpapi "github.com/NetDSS-25-26J-035/net-dss-backend/internal/api/http"
	"github.com/NetDSS-25-26J-035/net-dss-backend/internal/api/http/middleware"
	"github.com/NetDSS-25-26J-035/net-dss-backend/internal/api/http/routes"
	"github.com/NetDSS-25-26J-035/net-dss-backend/internal/metrics"
)

type RouterDeps struct {
	ServiceName string
	Version     string
	Config      *config.Config
	DB          *pgxpool.Pool
	SQL         *sql.DB
	Redis       *redis.Client
	Logger      *zap.Logger
}

func BuildRouter(dep RouterDeps) (*gin.Engine, error) {
	if dep.Config.App.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(cors.New(cors.Config{
		AllowOrigins:  []string{"http://localhost:3000", "http://localhost:5173"},
		AllowMethods:  []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowHeaders:  []string{"Accept", "Content-Type", "X-Request-Id"},
		ExposeHeaders: []string{"X-Request-Id", "Content-Disposition"},
		MaxAge:        5 * time.Minute,
	}))
	r.Use(middleware.RequestID(dep.Logger))
	r.Use(middleware.RateLimit(dep.Config.Server.RateRPS, dep.Config.Server.RateBurst))
	r.Use(metrics.Middleware())

	healthHandler := httpapi.NewHealthHandler(dep.ServiceName, dep.Version, dep.DB, dep.Redis)
	healthHandler.RegisterRoutes(r)

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	if err := routes.RegisterV1(r, routes.V1Deps{
		DB:     dep.DB,
		SQL:    dep.SQL,
		Redis:  dep.Redis,
		Config: dep.Config,
		Logger: dep.Logger,
	}); err != nil {
		return nil, err
	}

	return r, nil
}
