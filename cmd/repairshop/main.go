package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/iurnickita/repairshop/internal/auth"
	"github.com/iurnickita/repairshop/internal/config"
	"github.com/iurnickita/repairshop/internal/handler"
	"github.com/iurnickita/repairshop/internal/logger"
	"github.com/iurnickita/repairshop/internal/service"
	"github.com/iurnickita/repairshop/internal/store"
	"github.com/iurnickita/repairshop/internal/store/memstore"
	"github.com/iurnickita/repairshop/internal/token"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	cfg, err := config.GetConfig()
	if err != nil {
		return err
	}

	zaplog, err := logger.NewZapLog(cfg.Logger)
	if err != nil {
		return err
	}
	defer zaplog.Sync()

	if cfg.Handler.TokenSecretGenerated {
		zaplog.Warn("TOKEN_SECRET is not set, using a random secret for this run")
	}

	var st store.Store
	if cfg.Store.DBDsn == "" {
		zaplog.Warn("DATABASE_URI is not set, data is kept in memory")
		st = memstore.New()
	} else {
		st, err = store.NewStore(cfg.Store)
		if err != nil {
			return err
		}
	}
	defer st.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	issuer := token.NewIssuer(cfg.Handler.TokenSecret, cfg.Handler.TokenTTL)
	auth := auth.NewAuth(st, issuer, zaplog)
	service, err := service.NewService(cfg.Service, st, zaplog)
	if err != nil {
		return err
	}

	if cfg.Service.SeedFile != "" {
		if err = service.Seed(ctx, cfg.Service.SeedFile, auth); err != nil {
			return err
		}
	}

	zaplog.Info("starting repairshop", zap.String("stock_policy", string(cfg.Service.StockPolicy)))
	return handler.Serve(ctx, cfg.Handler, auth, service, zaplog)
}
