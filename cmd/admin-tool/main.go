package main

import (
	"errors"
	"log"
	"os"

	"github.com/go-playground/validator/v10"

	"github.com/noah-isme/tuition-roster/internal/repository"
	"github.com/noah-isme/tuition-roster/internal/service"
	"github.com/noah-isme/tuition-roster/pkg/config"
	"github.com/noah-isme/tuition-roster/pkg/database"
	"github.com/noah-isme/tuition-roster/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		log.Fatalf("failed to connect postgres: %v", err)
	}
	defer db.Close() //nolint:errcheck

	cli := commandLine{
		admins: service.NewAuthService(repository.NewAdminRepository(db), cfg.Auth, validator.New(), logr),
		out:    os.Stdout,
	}
	if err := cli.run(os.Args); err != nil {
		if !errors.Is(err, errHelp) {
			log.Printf("error: %s", err)
		}
		os.Exit(1)
	}
}
