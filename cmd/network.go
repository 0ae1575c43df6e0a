package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kilianp07/drt/config"
	"github.com/kilianp07/drt/pkg/export"
	"github.com/kilianp07/drt/simulator"
)

var networkCmd = &cobra.Command{
	Use:   "network",
	Short: "Road network related commands",
}

var networkInfoCmd = &cobra.Command{
	Use:   "info",
	Short: "Describe the configured road network and vehicle departures",
	RunE:  runNetworkInfo,
}

// NetworkInfo summarizes a road network.
type NetworkInfo struct {
	Links       int                   `json:"links"`
	Junctions   int                   `json:"junctions"`
	TotalLength float64               `json:"total_length_m"`
	Departures  []simulator.Departure `json:"departures"`
}

func init() {
	networkCmd.AddCommand(networkInfoCmd)
	rootCmd.AddCommand(networkCmd)
}

func loadRoad() (*config.Config, *simulator.Road, error) {
	cfg, err := config.Read(cfgPath)
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}
	if err := cfg.Network.Validate(); err != nil {
		return nil, nil, err
	}
	road, err := cfg.Network.BuildRoad()
	if err != nil {
		return nil, nil, fmt.Errorf("road network: %w", err)
	}
	return cfg, road, nil
}

func runNetworkInfo(cmd *cobra.Command, args []string) error {
	cfg, road, err := loadRoad()
	if err != nil {
		return err
	}
	info := NetworkInfo{
		Links:       len(road.Links()),
		Junctions:   road.Junctions(),
		TotalLength: road.TotalLength(),
		Departures:  cfg.Network.Departures(road),
	}
	return export.WriteJSON(cmd.OutOrStdout(), info)
}
