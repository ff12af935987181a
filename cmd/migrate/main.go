package main

import (
	"context"
	"flag"
	"log"
	"time"

	"github.com/ishantswami13-crypto/vantro-khata/internal/config"
	"github.com/ishantswami13-crypto/vantro-khata/internal/logger"
	"github.com/ishantswami13-crypto/vantro-khata/internal/store/sqlstore"
)

func main() {
	configPath := flag.String("config", "config.yaml", "optional config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	lg := logger.InitLogger(cfg.LogLevel)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	st, err := sqlstore.Open(ctx, cfg.DBDriver, cfg.DSN())
	if err != nil {
		log.Fatalf("open store: %v", err)
	}
	defer st.Close()

	lg.Info("applying schema", "db_driver", cfg.DBDriver)
	if err := st.Migrate(ctx); err != nil {
		log.Fatalf("migrate: %v", err)
	}
	lg.Info("schema applied")
}
