package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/stocksim/inventory-core/internal/invd"
	"github.com/stocksim/inventory-core/internal/orchestrate"
	"github.com/stocksim/inventory-core/pkg/config"
	"github.com/stocksim/inventory-core/pkg/logger"
)

func main() {
	app := &cli.App{
		Name:  "invd",
		Usage: "Stochastic (s,S) inventory policy optimizer",
		Commands: []*cli.Command{
			{
				Name:  "serve",
				Usage: "Run the optimization daemon",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "listen-addr",
						Usage:   "HTTP listen address",
						EnvVars: []string{"INVD_LISTEN_ADDR"},
					},
				},
				Action: runServe,
			},
			{
				Name:      "optimize",
				Usage:     "Optimize a scenario file and print the results as JSON",
				ArgsUsage: "<scenario.yaml>",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "log-level",
						Usage: "Log level (debug, info, warn, error)",
						Value: "info",
					},
				},
				Action: runOptimize,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func runServe(c *cli.Context) error {
	settings := invd.LoadSettings()
	if addr := c.String("listen-addr"); addr != "" {
		settings.ListenAddr = addr
	}

	if settings.LogFormat == "text" {
		logger.SetDefault(logger.NewText(settings.LogLevel, os.Stdout))
	} else {
		logger.SetDefault(logger.New(settings.LogLevel, os.Stdout))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store := invd.NewRunStore(settings.StoreCapacity)
	executor := invd.NewRunExecutor(store, orchestrate.New(
		orchestrate.WithPolicyWorkers(settings.PolicyWorkers),
		orchestrate.WithReplicationWorkers(settings.ReplicationWorkers),
	))

	srv := &http.Server{
		Addr:              settings.ListenAddr,
		Handler:           invd.NewHTTPServer(store, executor).Handler(),
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
		MaxHeaderBytes:    1 << 20,
	}

	go func() {
		logger.Info("HTTP server listening", "addr", settings.ListenAddr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("HTTP server error", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutdown requested")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP shutdown error", "error", err)
	}
	return nil
}

func runOptimize(c *cli.Context) error {
	if c.NArg() != 1 {
		return cli.Exit("usage: invd optimize <scenario.yaml>", 2)
	}

	// Keep stdout clean for the JSON result.
	logger.SetDefault(logger.NewText(c.String("log-level"), os.Stderr))

	scenario, err := config.LoadScenario(c.Args().First())
	if err != nil {
		return cli.Exit(err.Error(), 1)
	}

	result, err := orchestrate.New().Run(c.Context, scenario)
	if err != nil {
		return cli.Exit(err.Error(), 1)
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(result); err != nil {
		return cli.Exit(err.Error(), 1)
	}
	return nil
}
