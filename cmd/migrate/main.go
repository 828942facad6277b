package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"strconv"

	"github.com/rs/zerolog"
	"github.com/stemsi/handbook/internal/config"
	"github.com/stemsi/handbook/internal/database"
	"github.com/stemsi/handbook/internal/schema"
)

func main() {
	flag.Parse()

	args := flag.Args()
	if len(args) < 1 {
		printUsage()
		return
	}

	// Load config
	cfg := config.Load()
	if cfg.DatabaseURL == "" {
		log.Fatal("DATABASE_URL is not set")
	}

	ctx := context.Background()
	db, err := database.Open(ctx, cfg, zerolog.Nop())
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer db.Close()

	m, err := schema.NewMigrator(ctx, db)
	if err != nil {
		log.Fatalf("Migration failed to initialize: %v", err)
	}
	defer m.Close()

	command := args[0]
	switch command {
	case "up":
		if err := m.Up(); err != nil {
			log.Fatalf("Up failed: %v", err)
		}
		fmt.Println("Migrated up successfully")
	case "down":
		if err := m.Down(); err != nil {
			log.Fatalf("Down failed: %v", err)
		}
		fmt.Println("Migrated down successfully")
	case "version":
		version, dirty, err := m.Version()
		if err != nil {
			log.Fatalf("Version failed: %v", err)
		}
		fmt.Printf("Version: %d, Dirty: %t\n", version, dirty)
	case "force":
		if len(args) < 2 {
			log.Fatal("force requires version argument")
		}
		v, err := strconv.Atoi(args[1])
		if err != nil {
			log.Fatalf("Invalid version: %v", err)
		}
		if err := m.Force(v); err != nil {
			log.Fatalf("Force failed: %v", err)
		}
		fmt.Printf("Forced version to %d\n", v)
	default:
		printUsage()
	}
}

func printUsage() {
	fmt.Println("Usage: migrate <command>")
	fmt.Println("Commands: up, down, version, force <version>")
	fmt.Println("The database is taken from DATABASE_DRIVER and DATABASE_URL.")
}
