package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/gartstein/partnerhub/internal/partner/client"
	"github.com/gartstein/partnerhub/internal/partner/config"
	"github.com/gartstein/partnerhub/internal/partner/db"
	"github.com/gartstein/partnerhub/internal/partner/models"
	"github.com/gartstein/partnerhub/internal/partner/seed"
	"go.uber.org/zap"
)

func main() {
	configPath := flag.String("config", "", "path to config.yaml")
	file := flag.String("file", "", "YAML fixture to import")
	fromUpstream := flag.Bool("upstream", false, "import from the upstream company API instead of a file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger, _ := zap.NewProduction()
	defer func(logger *zap.Logger) {
		_ = logger.Sync()
	}(logger)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	raws, err := loadRecords(ctx, cfg.Upstream, *file, *fromUpstream, logger)
	if err != nil {
		logger.Fatal("failed to load partner records", zap.Error(err))
	}

	var repo *db.Repository
	if cfg.Database.Driver == "sqlite" {
		repo, err = db.NewSQLiteRepository(cfg.Database.SQLitePath)
	} else {
		repo, err = db.NewRepository(&db.Config{
			Host:     cfg.Database.Host,
			Port:     cfg.Database.Port,
			User:     cfg.Database.User,
			Password: cfg.Database.Password,
			DBName:   cfg.Database.Name,
			SSLMode:  cfg.Database.SSLMode,
		})
	}
	if err != nil {
		logger.Fatal("failed to initialize database", zap.Error(err))
	}
	defer repo.Close()

	// A storage failure rolls the whole import back.
	var res seed.Result
	err = repo.WithTransaction(ctx, func(tx *db.Repository) error {
		res, err = seed.NewImporter(tx, logger).Import(ctx, raws)
		return err
	})
	if err != nil {
		logger.Fatal("seed import failed", zap.Error(err))
	}
	fmt.Printf("created %d, skipped %d, rejected %d\n", res.Created, res.Skipped, res.Rejected)
}

func loadRecords(ctx context.Context, cfg config.UpstreamConfig, file string, fromUpstream bool, logger *zap.Logger) ([]models.RawPartner, error) {
	switch {
	case fromUpstream:
		if cfg.BaseURL == "" {
			return nil, fmt.Errorf("upstream.base_url is not configured")
		}
		upstream := client.NewUpstream(cfg.BaseURL, logger, client.WithTimeout(cfg.Timeout))
		return upstream.RawPartners(ctx)
	case file != "":
		return seed.LoadFile(file)
	default:
		return nil, fmt.Errorf("either -file or -upstream is required")
	}
}
