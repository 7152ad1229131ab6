package main

import (
	"context"
	"flag"
	"log"
	"strconv"
	"strings"

	"github.com/joho/godotenv"

	"vagentd/internal/app"
	"vagentd/pkg/config"
	"vagentd/pkg/logger"
	"vagentd/pkg/shutdown"
)

// build metadata - set via ldflags during release
var (
	version = "dev"
)

func main() {
	_ = godotenv.Load(".env")

	addrFlag := flag.String("addr", "", "listen address (host:port)")
	dbFlag := flag.String("db", "", "pebble database path")
	cfgFlag := flag.String("config", "", "path to YAML config file")
	flag.Parse()
	setFlags := map[string]bool{}
	flag.Visit(func(f *flag.Flag) { setFlags[f.Name] = true })

	cfgPath := config.ResolveConfigPath(*cfgFlag, setFlags["config"])
	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	// flags win over config/env when provided by the user
	if setFlags["addr"] {
		host, port, ok := strings.Cut(*addrFlag, ":")
		cfg.Server.Address = host
		if ok {
			if p, err := strconv.Atoi(port); err == nil {
				cfg.Server.Port = p
			}
		}
	}
	if setFlags["db"] {
		cfg.Server.DBPath = *dbFlag
	}
	if cfg.Server.DBPath == "" {
		cfg.Server.DBPath = "./data"
	}

	logger.InitWithLevel(cfg.Logging.Level)

	a, err := app.New(cfg, version)
	if err != nil {
		log.Fatalf("startup failed: %v", err)
	}

	ctx, cancel := shutdown.SetupSignalHandler(context.Background())
	defer cancel()

	if err := a.Run(ctx); err != nil {
		log.Fatalf("server exited: %v", err)
	}
}
