// Command seed loads a catalog snapshot from a JSON file, or a small demo
// catalog when no file is given, so the API can be exercised without
// scraping the live handbook.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/stemsi/handbook/internal/config"
	"github.com/stemsi/handbook/internal/database"
	"github.com/stemsi/handbook/internal/logger"
	"github.com/stemsi/handbook/internal/model"
	"github.com/stemsi/handbook/internal/reconcile"
	"github.com/stemsi/handbook/internal/repository"
	"github.com/stemsi/handbook/internal/schema"
	"github.com/stemsi/handbook/internal/service"
)

var demoCatalog = model.CatalogSnapshot{
	Majors: []model.MajorUnits{
		{Title: "Artificial Intelligence", Units: []string{"Introduction to Artificial Intelligence", "Applied Machine Learning", "Data Structures and Patterns"}},
		{Title: "Software Development", Units: []string{"Software Architectures and Design", "Development Project", "Data Structures and Patterns"}},
		{Title: "Cybersecurity", Units: []string{"Network Security", "Digital Forensics"}},
	},
	Cores:     []string{"Introduction to Programming", "Computer Systems", "Linear Algebra and Applications", "Technology in an Indigenous Context Project"},
	Electives: []string{"COS20007", "ICT20016", "COS30043"},
}

func main() {
	var file string
	flag.StringVar(&file, "file", "", "JSON snapshot ({majors, cores, electives}); demo catalog when empty")
	flag.Parse()

	cfg := config.Load()
	log := logger.Setup(cfg.LogLevel, cfg.LogFormat)
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	snap := demoCatalog
	if file != "" {
		raw, err := os.ReadFile(file)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to read snapshot file")
		}
		snap = model.CatalogSnapshot{}
		if err := json.Unmarshal(raw, &snap); err != nil {
			log.Fatal().Err(err).Msg("Failed to decode snapshot file")
		}
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

	fmt.Printf("=== Seeding %d majors, %d units ===\n", len(snap.Majors), snap.UnitCount())

	engine := reconcile.NewEngine(db, repository.NewMajorRepository(db), repository.NewUnitRepository(db), log)
	report, err := service.NewSyncService(nil, engine, rdb, cfg, log).Apply(ctx, snap)
	if err != nil {
		log.Fatal().Err(err).Msg("Seeding failed")
	}

	for _, s := range report.Scopes {
		fmt.Printf("%-40s incoming=%-3d inserted=%-3d pruned=%d\n", s.Scope, s.Incoming, s.Inserted, s.Pruned)
	}
	fmt.Println("=== Done ===")
}
