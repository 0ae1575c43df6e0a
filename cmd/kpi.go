package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/kilianp07/drt/config"
	"github.com/kilianp07/drt/core/metrics/kpi"
	kpistore "github.com/kilianp07/drt/infra/kpi"
	"github.com/kilianp07/drt/jobs/kpihistory"
	"github.com/kilianp07/drt/pkg/export"
)

var kpiFlags struct {
	db    string
	runID string
	start string
	end   string
}

var kpiCmd = &cobra.Command{
	Use:   "kpi",
	Short: "Per run vehicle indicator history",
}

var kpiImportCmd = &cobra.Command{
	Use:   "import <vehicle report>...",
	Short: "Add vehicle reports of earlier runs to the history",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runKPIImport,
}

var kpiShowCmd = &cobra.Command{
	Use:   "show <vehicle>",
	Short: "Print the history of a vehicle",
	Args:  cobra.ExactArgs(1),
	RunE:  runKPIShow,
}

// KPIHistory is the output of kpi show.
type KPIHistory struct {
	VehicleID  string       `json:"vehicle_id"`
	Runs       []kpi.Record `json:"runs"`
	Passengers int          `json:"passengers"`
	Distance   float64      `json:"distance_m"`
	TripsPerKm float64      `json:"trips_per_km"`
}

func init() {
	kpiCmd.PersistentFlags().StringVar(&kpiFlags.db, "db", "", "KPI database, overrides run.kpi_store")
	kpiImportCmd.Flags().StringVar(&kpiFlags.runID, "run-id", "", "run id, taken from the file name when empty")
	kpiShowCmd.Flags().StringVar(&kpiFlags.start, "start", "", "first day (YYYY-MM-DD)")
	kpiShowCmd.Flags().StringVar(&kpiFlags.end, "end", "", "last day (YYYY-MM-DD), today when empty")
	kpiCmd.AddCommand(kpiImportCmd, kpiShowCmd)
	rootCmd.AddCommand(kpiCmd)
}

func openKPIStore() (*kpistore.SQLiteStore, error) {
	path := kpiFlags.db
	if path == "" && cfgPath != "" {
		if cfg, err := config.Read(cfgPath); err == nil {
			path = cfg.Run.KPIStore
		}
	}
	if path == "" {
		return nil, fmt.Errorf("no KPI database: set --db or run.kpi_store")
	}
	return kpistore.NewSQLiteStore(path)
}

func runKPIImport(cmd *cobra.Command, args []string) error {
	store, err := openKPIStore()
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	for _, path := range args {
		runID := kpiFlags.runID
		if runID == "" {
			id, ok := kpihistory.RunID(path)
			if !ok {
				return fmt.Errorf("%s: cannot derive run id, use --run-id", path)
			}
			runID = id
		}
		f, err := os.Open(path)
		if err != nil {
			return err
		}
		at := time.Now()
		if info, err := f.Stat(); err == nil {
			at = info.ModTime()
		}
		n, err := kpihistory.Backfill(store, runID, at, f)
		_ = f.Close()
		if err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s: %d vehicles imported as run %s\n", path, n, runID)
	}
	return nil
}

func runKPIShow(cmd *cobra.Command, args []string) error {
	start, err := parseDay(kpiFlags.start)
	if err != nil {
		return fmt.Errorf("start: %w", err)
	}
	end, err := parseDay(kpiFlags.end)
	if err != nil {
		return fmt.Errorf("end: %w", err)
	}
	store, err := openKPIStore()
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	recs, err := store.Query(args[0], start, end)
	if err != nil {
		return err
	}
	out := KPIHistory{VehicleID: args[0], Runs: recs}
	if out.Runs == nil {
		out.Runs = []kpi.Record{}
	}
	out.Passengers, out.Distance, out.TripsPerKm = kpi.Totals(recs)
	return export.WriteJSON(cmd.OutOrStdout(), out)
}

func parseDay(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	return time.Parse(time.DateOnly, s)
}
