package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/spf13/pflag"

	handlerConfig "github.com/iurnickita/repairshop/internal/handler/config"
	loggerConfig "github.com/iurnickita/repairshop/internal/logger/config"
	serviceConfig "github.com/iurnickita/repairshop/internal/service/config"
	storeConfig "github.com/iurnickita/repairshop/internal/store/config"
)

type Config struct {
	Handler handlerConfig.Config
	Service serviceConfig.Config
	Store   storeConfig.Config
	Logger  loggerConfig.Config
}

// ErrTokenSecretRequired - с базой данных секрет токенов обязателен.
var ErrTokenSecretRequired = errors.New("TOKEN_SECRET is required when DATABASE_URI is set")

// GetConfig читает .env (если есть), флаги командной строки и переменные окружения.
// Переменные окружения имеют приоритет над флагами.
func GetConfig() (Config, error) {
	_ = godotenv.Load()
	return Parse(os.Args[1:], os.LookupEnv)
}

func Parse(args []string, lookupEnv func(string) (string, bool)) (Config, error) {
	var cfg Config
	var stockPolicy string

	fs := pflag.NewFlagSet("repairshop", pflag.ContinueOnError)
	fs.StringVarP(&cfg.Handler.ServerAddr, "address", "a", "localhost:8080", "HTTP server address")
	fs.StringVarP(&cfg.Store.DBDsn, "database", "d", "", "PostgreSQL DSN, in-memory store when empty")
	fs.StringVarP(&cfg.Logger.LogLevel, "log-level", "l", "info", "log level")
	fs.StringVarP(&cfg.Handler.TokenSecret, "token-secret", "s", "", "token signing secret")
	fs.DurationVar(&cfg.Handler.TokenTTL, "token-ttl", 12*time.Hour, "token lifetime")
	fs.DurationVar(&cfg.Handler.ShutdownTimeout, "shutdown-timeout", 10*time.Second, "graceful shutdown timeout")
	fs.StringVar(&stockPolicy, "stock-policy", string(serviceConfig.StockPolicyWarn), "behaviour on closing a ticket with a part out of stock: warn|block")
	fs.StringVar(&cfg.Service.SeedFile, "seed", "", "YAML seed file")
	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}

	if v, ok := lookupEnv("RUN_ADDRESS"); ok {
		cfg.Handler.ServerAddr = v
	}
	if v, ok := lookupEnv("DATABASE_URI"); ok {
		cfg.Store.DBDsn = v
	}
	if v, ok := lookupEnv("LOG_LEVEL"); ok {
		cfg.Logger.LogLevel = v
	}
	if v, ok := lookupEnv("TOKEN_SECRET"); ok {
		cfg.Handler.TokenSecret = v
	}
	if v, ok := lookupEnv("TOKEN_TTL"); ok {
		ttl, err := time.ParseDuration(v)
		if err != nil {
			return Config{}, fmt.Errorf("TOKEN_TTL: %w", err)
		}
		cfg.Handler.TokenTTL = ttl
	}
	if v, ok := lookupEnv("STOCK_POLICY"); ok {
		stockPolicy = v
	}
	if v, ok := lookupEnv("SEED_FILE"); ok {
		cfg.Service.SeedFile = v
	}

	if cfg.Handler.TokenSecret == "" {
		if cfg.Store.DBDsn != "" {
			return Config{}, ErrTokenSecretRequired
		}
		cfg.Handler.TokenSecret = uuid.NewString() + uuid.NewString()
		cfg.Handler.TokenSecretGenerated = true
	}

	cfg.Service.StockPolicy = serviceConfig.StockPolicy(stockPolicy)
	switch cfg.Service.StockPolicy {
	case serviceConfig.StockPolicyWarn, serviceConfig.StockPolicyBlock:
	default:
		return Config{}, fmt.Errorf("unknown stock policy %q", stockPolicy)
	}

	return cfg, nil
}
