package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Redis    RedisConfig
	Engine   EngineConfig
	Runs     RunsConfig
	App      AppConfig
}

type ServerConfig struct {
	Port      string
	RateRPS   float64 // per-client request budget, 0 disables limiting
	RateBurst int
}

type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Name     string
	SSLMode  string
}

// URL renders the postgres connection string shared by the pgx pool and
// the database/sql handle.
func (d DatabaseConfig) URL() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.Name, d.SSLMode)
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	CacheTTL time.Duration // lifetime of cached network blobs and overviews
}

type EngineConfig struct {
	Alpha            float64
	Beta             float64
	Gamma            float64
	BalanceTolerance int // negative disables the balance constraint
	KemenyBasis      string
	SolverBudget     time.Duration // zero forces the heuristic partition path
	SweepWorkers     int           // 0 lets the engine size the pool
	CentralityScale  float64
}

type RunsConfig struct {
	CacheTTL        time.Duration
	Retention       time.Duration
	JanitorSchedule string
}

type AppConfig struct {
	Environment string
	LogLevel    string
	Version     string
}

func Load() (*Config, error) {
	// Load .env file if it exists (ignore error in production)
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	cfg := &Config{
		Server: ServerConfig{
			Port:      getEnv("PORT", "8080"),
			RateRPS:   getEnvAsFloat("RATE_LIMIT_RPS", 20),
			RateBurst: getEnvAsInt("RATE_LIMIT_BURST", 40),
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnvAsInt("DB_PORT", 5432),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", ""),
			Name:     getEnv("DB_NAME", "netdss"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
			CacheTTL: getEnvAsDuration("REDIS_CACHE_TTL", 24*time.Hour),
		},
		Engine: EngineConfig{
			Alpha:            getEnvAsFloat("ENGINE_ALPHA", 1.0),
			Beta:             getEnvAsFloat("ENGINE_BETA", 1.0),
			Gamma:            getEnvAsFloat("ENGINE_GAMMA", 0.5),
			BalanceTolerance: getEnvAsInt("ENGINE_BALANCE_TOLERANCE", -1),
			KemenyBasis:      getEnv("ENGINE_KEMENY_BASIS", "full"),
			SolverBudget:     getEnvAsDuration("ENGINE_SOLVER_BUDGET", 5*time.Second),
			SweepWorkers:     getEnvAsInt("ENGINE_SWEEP_WORKERS", 0),
			CentralityScale:  getEnvAsFloat("ENGINE_CENTRALITY_SCALE", 1.0),
		},
		Runs: RunsConfig{
			CacheTTL:        getEnvAsDuration("RUN_CACHE_TTL", 24*time.Hour),
			Retention:       getEnvAsDuration("RUN_RETENTION", 7*24*time.Hour),
			JanitorSchedule: getEnv("RUN_JANITOR_SCHEDULE", "@hourly"),
		},
		App: AppConfig{
			Environment: getEnv("APP_ENV", "development"),
			LogLevel:    getEnv("LOG_LEVEL", "info"),
			Version:     getEnv("APP_VERSION", "1.0.0"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	if c.Server.Port == "" {
		return fmt.Errorf("PORT is required")
	}

	if c.Database.Host == "" {
		return fmt.Errorf("DB_HOST is required")
	}

	if c.Engine.Alpha < 0 || c.Engine.Beta < 0 || c.Engine.Gamma < 0 {
		return fmt.Errorf("ENGINE_ALPHA, ENGINE_BETA and ENGINE_GAMMA must be non-negative")
	}

	if b := c.Engine.KemenyBasis; b != "full" && b != "largestComponent" {
		return fmt.Errorf("ENGINE_KEMENY_BASIS must be full or largestComponent")
	}

	if c.Server.RateRPS > 0 && c.Server.RateBurst < 1 {
		return fmt.Errorf("RATE_LIMIT_BURST must be at least 1 when RATE_LIMIT_RPS is set")
	}

	if c.Engine.CentralityScale <= 0 {
		return fmt.Errorf("ENGINE_CENTRALITY_SCALE must be positive")
	}

	return nil
}

// Balance converts the configured tolerance into the optional form the
// partitioner takes.
func (e EngineConfig) Balance() *int {
	if e.BalanceTolerance < 0 {
		return nil
	}
	tol := e.BalanceTolerance
	return &tol
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.Atoi(valueStr)
	if err != nil {
		log.Printf("Warning: Invalid integer for %s, using default: %d", key, defaultValue)
		return defaultValue
	}

	return value
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		log.Printf("Warning: Invalid float for %s, using default: %g", key, defaultValue)
		return defaultValue
	}

	return value
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := time.ParseDuration(valueStr)
	if err != nil {
		log.Printf("Warning: Invalid duration for %s, using default: %s", key, defaultValue)
		return defaultValue
	}

	return value
}
