package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/five82/dials/internal/app"
)

func main() {
	os.Exit(run())
}

func run() int {
	configPath := flag.String("config", "", "config file path (optional, defaults to ~/.config/dials/config.toml)")
	demo := flag.Bool("demo", false, "run against an in-process demo backend")
	serve := flag.String("serve", "", "only serve the demo backend on this address, e.g. 127.0.0.1:8750")
	section := flag.String("section", "", "section to open first (optional)")
	flag.Parse()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	opts := app.Options{
		ConfigPath: *configPath,
		Section:    *section,
		Demo:       *demo,
		Serve:      *serve,
		Stderr:     os.Stderr,
	}
	if err := app.Run(ctx, opts); err != nil {
		fmt.Fprintf(os.Stderr, "dials: %v\n", err)
		return 1
	}
	return 0
}
