package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kilianp07/drt/pkg/demand"
	"github.com/kilianp07/drt/pkg/export"
)

var checkLinks bool

var requestsCmd = &cobra.Command{
	Use:   "requests",
	Short: "Demand file related commands",
}

var requestsCheckCmd = &cobra.Command{
	Use:   "check <file>",
	Short: "Parse a demand file and report what it contains",
	Args:  cobra.ExactArgs(1),
	RunE:  runRequestsCheck,
}

// RequestsReport summarizes a demand file.
type RequestsReport struct {
	Requests     int      `json:"requests"`
	FirstCall    int64    `json:"first_call"`
	LastCall     int64    `json:"last_call"`
	UnknownLinks []string `json:"unknown_links,omitempty"`
}

func init() {
	requestsCheckCmd.Flags().BoolVar(&checkLinks, "links", false, "check every link against the configured road network")
	requestsCmd.AddCommand(requestsCheckCmd)
	rootCmd.AddCommand(requestsCmd)
}

func runRequestsCheck(cmd *cobra.Command, args []string) error {
	recs, err := demand.ReadFile(args[0])
	if err != nil {
		return err
	}
	rep := RequestsReport{Requests: len(recs)}
	for i, r := range recs {
		if i == 0 || r.CallTime < rep.FirstCall {
			rep.FirstCall = r.CallTime
		}
		if r.CallTime > rep.LastCall {
			rep.LastCall = r.CallTime
		}
	}
	if checkLinks {
		_, road, err := loadRoad()
		if err != nil {
			return err
		}
		seen := map[string]bool{}
		for _, r := range recs {
			for _, link := range []string{r.Origin.Link, r.Destination.Link} {
				if _, ok := road.Link(link); !ok && !seen[link] {
					seen[link] = true
					rep.UnknownLinks = append(rep.UnknownLinks, link)
				}
			}
		}
	}
	if err := export.WriteJSON(cmd.OutOrStdout(), rep); err != nil {
		return err
	}
	if len(rep.UnknownLinks) > 0 {
		return fmt.Errorf("%d unknown links", len(rep.UnknownLinks))
	}
	return nil
}
