// Command sync scrapes the handbook once and reconciles it into the store.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/stemsi/handbook/internal/config"
	"github.com/stemsi/handbook/internal/database"
	"github.com/stemsi/handbook/internal/logger"
	"github.com/stemsi/handbook/internal/model"
	"github.com/stemsi/handbook/internal/reconcile"
	"github.com/stemsi/handbook/internal/repository"
	"github.com/stemsi/handbook/internal/schema"
	"github.com/stemsi/handbook/internal/scraper"
	"github.com/stemsi/handbook/internal/service"
)

// fileSource parses a saved copy of the handbook page.
type fileSource string

func (f fileSource) Fetch(context.Context) (*model.CatalogSnapshot, error) {
	fh, err := os.Open(string(f))
	if err != nil {
		return nil, err
	}
	defer fh.Close()
	return scraper.Parse(fh)
}

func main() {
	var (
		file   string
		dryRun bool
	)
	flag.StringVar(&file, "file", "", "Parse a saved handbook HTML page instead of fetching it")
	flag.BoolVar(&dryRun, "dry-run", false, "Print the scraped snapshot as JSON and exit")
	flag.Parse()

	cfg := config.Load()
	log := logger.Setup(cfg.LogLevel, cfg.LogFormat)

	ctx, cancel := context.WithTimeout(context.Background(), cfg.ScrapeTimeout+cfg.SyncTimeout)
	defer cancel()

	var source service.SnapshotSource = scraper.NewClient(cfg.HandbookURL, cfg.ScrapeTimeout, log)
	if file != "" {
		source = fileSource(file)
	}

	if dryRun {
		snap, err := source.Fetch(ctx)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to read handbook")
		}
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(snap); err != nil {
			log.Fatal().Err(err).Msg("Failed to encode snapshot")
		}
		return
	}

	db, err := database.Open(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open database")
	}
	defer db.Close()

	if err := schema.Ensure(ctx, db, log); err != nil {
		log.Fatal().Err(err).Msg("Failed to ensure schema")
	}

	rdb, err := database.NewRedisClient(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to Redis")
	}
	if rdb != nil {
		defer rdb.Close()
	}

	engine := reconcile.NewEngine(db, repository.NewMajorRepository(db), repository.NewUnitRepository(db), log)
	report, err := service.NewSyncService(source, engine, rdb, cfg, log).Run(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("Sync failed")
	}

	fmt.Printf("majors added: %d, units inserted: %d, units pruned: %d (%s)\n",
		report.MajorsAdded, report.Inserted(), report.Pruned(), report.Duration.Round(time.Millisecond))
}

func init() {
	zerolog.TimeFieldFormat = time.RFC3339
}
