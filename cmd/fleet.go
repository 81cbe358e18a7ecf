package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/sunnyysetia/patrolsim/core/patrol"
)

var fleetCmd = &cobra.Command{
	Use:   "fleet",
	Short: "Fleet related commands",
}

var fleetLsCmd = &cobra.Command{
	Use:   "ls",
	Short: "List the configured patrol units",
	RunE:  runFleetLs,
}

var positionsAt string

var fleetPositionsCmd = &cobra.Command{
	Use:   "positions",
	Short: "Print unit positions at an instant (default now)",
	RunE:  runFleetPositions,
}

func init() {
	fleetPositionsCmd.Flags().StringVar(&positionsAt, "at", "", "RFC3339 instant to evaluate")
	fleetCmd.AddCommand(fleetLsCmd)
	fleetCmd.AddCommand(fleetPositionsCmd)
	rootCmd.AddCommand(fleetCmd)
}

func buildSimulator() (*patrol.Simulator, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return cfg.Fleet.Build()
}

func runFleetLs(cmd *cobra.Command, args []string) error {
	sim, err := buildSimulator()
	if err != nil {
		return err
	}
	for i := 0; i < sim.FleetSize(); i++ {
		state, err := sim.PositionAt(i, time.Now())
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\t%.1f km/h\n", state.ID, state.PathID, state.SpeedMPS*3.6)
	}
	return nil
}

func runFleetPositions(cmd *cobra.Command, args []string) error {
	sim, err := buildSimulator()
	if err != nil {
		return err
	}
	at := time.Now()
	if positionsAt != "" {
		at, err = time.Parse(time.RFC3339, positionsAt)
		if err != nil {
			return fmt.Errorf("parse --at: %w", err)
		}
	}
	for i := 0; i < sim.FleetSize(); i++ {
		state, err := sim.PositionAt(i, at)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s\t%.6f\t%.6f\t%s\n", state.ID, state.Lat, state.Lng, state.PathID)
	}
	return nil
}
