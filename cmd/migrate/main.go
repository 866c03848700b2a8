package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"time"

	"github.com/noah-isme/mannsetu-api/pkg/config"
	"github.com/noah-isme/mannsetu-api/pkg/database"
)

func main() {
	var timeout time.Duration
	flag.DurationVar(&timeout, "timeout", 2*time.Minute, "Migration timeout")
	flag.Usage = func() {
		fmt.Fprintln(flag.CommandLine.Output(), "usage: migrate [-timeout 2m] up|down|version")
		flag.PrintDefaults()
	}
	flag.Parse()

	command := flag.Arg(0)
	if command == "" {
		command = "up"
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		log.Fatalf("failed to connect database: %v", err)
	}
	defer db.Close() //nolint:errcheck

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	switch command {
	case "up":
		err = database.Migrate(ctx, db.DB)
	case "down":
		err = database.Rollback(ctx, db.DB)
	case "version":
		var version int64
		version, err = database.Version(ctx, db.DB)
		if err == nil {
			fmt.Printf("schema version: %d\n", version)
		}
	default:
		flag.Usage()
		log.Fatalf("unknown command %q", command)
	}
	if err != nil {
		log.Fatalf("%s failed: %v", command, err)
	}
}
