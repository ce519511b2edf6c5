package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"oracleWire/internal/config"
	"oracleWire/internal/loader"
	"oracleWire/internal/storage/postgres"
)

func runLoad(cmd *cobra.Command, _ []string) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.LoadLoader(cfgFile, cmd.Flags())
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync()

	if cfg.Input == "" {
		return fmt.Errorf("input path is required")
	}
	if cfg.PGDSN == "" {
		return fmt.Errorf("pg dsn is required")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := postgres.NewStore(ctx, cfg.PGDSN)
	if err != nil {
		return fmt.Errorf("connect postgres: %w", err)
	}
	defer store.Close()

	if cfg.Migrate {
		if err := store.Migrate(ctx); err != nil {
			return err
		}
	}

	var stateStore loader.StateStore
	if cfg.StateFile != "" {
		stateStore = &loader.FileStateStore{Path: cfg.StateFile}
	} else {
		stateStore = &loader.DBStateStore{Store: store, Name: cfg.StateName}
	}

	logger.Info("load start",
		zap.String("in", cfg.Input),
		zap.Int("batch_size", cfg.BatchSize),
		zap.String("state_file", cfg.StateFile),
		zap.String("state_name", cfg.StateName),
	)

	_, err = loader.NewLoader(loader.Config{
		BatchSize:  cfg.BatchSize,
		StateStore: stateStore,
	}, store, logger).Load(ctx, cfg.Input)
	return err
}
