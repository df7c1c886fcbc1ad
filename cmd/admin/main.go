package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"civicreport/backend/internal/config"
	"civicreport/backend/internal/logging"
	"civicreport/backend/internal/storage"
)

func main() {
	if len(os.Args) < 2 {
		fmt.Println(usage)
		os.Exit(1)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	db, err := storage.OpenPostgres(cfg.DBDSN)
	if err != nil {
		log.Fatalf("failed to connect database: %v", err)
	}
	if err := storage.AutoMigrate(db); err != nil {
		log.Fatalf("failed to migrate database: %v", err)
	}

	// No redis needed for admin CLI
	storageSvc := storage.NewStorageService(db, nil, logging.Nop())
	cli := &CLI{Storage: storageSvc, JWTSecret: cfg.JWTSecret, Out: os.Stdout}

	if err := cli.Run(context.Background(), os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
