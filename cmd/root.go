package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/sunnyysetia/patrolsim/app"
	"github.com/sunnyysetia/patrolsim/config"
	"github.com/sunnyysetia/patrolsim/infra/logger"
)

var cfgPath string

var rootCmd = &cobra.Command{
	Use:   "patrolsim",
	Short: "Patrol fleet simulator and dispatch service",
	RunE:  run,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgPath, "config", "c", "config.yaml", "configuration file")
}

// Execute runs the CLI.
func Execute() error { return rootCmd.Execute() }

func loadConfig() (*config.Config, error) {
	// A .env next to the binary feeds the PATROL_ overrides.
	_ = godotenv.Load()
	if _, err := os.Stat(cfgPath); os.IsNotExist(err) {
		return config.Default(), nil
	}
	return config.Load(cfgPath)
}

func run(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	svc, err := app.New(cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := svc.Close(); err != nil {
			logger.New("main").Errorf("service close: %v", err)
		}
	}()
	return svc.Run(ctx)
}
