package main

import (
	"context"
	"log"
	"os"

	"github.com/acedema/acedema-back/internal/admincli"
	"github.com/acedema/acedema-back/internal/logging"
	"github.com/acedema/acedema-back/internal/server/config"
)

func main() {

	ctx := context.Background()
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("%v", err)
	}

	logger := logging.NewJSONLogger(os.Stderr, cfg.LogLevel)
	app := admincli.NewApp(cfg, logger, os.Stdout)

	if err := app.Run(ctx, os.Args[1:]); err != nil {
		log.Fatalf("%v", err)
	}

}
