package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/docopt/docopt-go"

	"eclipse/internal/config"
	"eclipse/internal/logger"
	transport "eclipse/internal/transport/http"
)

const Version = "0.1.0"

const usage = `Eclipse video and community feed server.

Usage:
    eclipse serve [--port=<port>]
    eclipse migrate
    eclipse -h | --help
    eclipse --version

Options:
    -h --help           Show this screen.
    --version           Show version.
    -p --port=<port>    Listen port, overrides SERVER_PORT.`

func main() {
	opts, err := docopt.ParseArgs(usage, os.Args[1:], Version)
	if err != nil {
		panic(err)
	}
	log := logger.For("Main")

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if migrate, _ := opts.Bool("migrate"); migrate {
		if err := transport.Migrate(ctx, cfg); err != nil {
			log.Fatalf("Migration failed: %v", err)
		}
		return
	}

	if serve, _ := opts.Bool("serve"); serve {
		if port, err := opts.String("--port"); err == nil && port != "" {
			cfg.ServerPort = port
		}
		if err := transport.Run(ctx, cfg); err != nil {
			log.Fatalf("Server failed: %v", err)
		}
	}
}
