package main

import (
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/konkayan987-blip/Dashbord-condensate/internal/dashboard"
	"github.com/konkayan987-blip/Dashbord-condensate/internal/present"
)

var summaryFilters filterFlags

var summaryCmd = &cobra.Command{
	Use:   "summary",
	Short: "Print the averages for the filtered data",
	RunE:  runSummary,
}

func init() {
	summaryFilters.register(summaryCmd)
	rootCmd.AddCommand(summaryCmd)
}

func runSummary(cmd *cobra.Command, args []string) error {
	c, err := summaryFilters.criteria()
	if err != nil {
		return err
	}
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	v, err := dashboard.New(cfg, nil).Render(cmd.Context(), c)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	d := v.Dashboard
	fmt.Fprintf(out, "%s\n", d.Title)
	fmt.Fprintf(out, "Range:          %s .. %s\n", d.Criteria.Start, d.Criteria.End)
	if d.State == present.StateNoData {
		fmt.Fprintln(out, d.Message)
		return nil
	}
	fmt.Fprintf(out, "Rows:           %s of %s\n", humanize.Comma(int64(d.RowCount)), humanize.Comma(int64(v.Rows)))
	fmt.Fprintf(out, "Avg condensate: %.1f%%\n", d.Aggregates.AvgPct*100)
	fmt.Fprintf(out, "Avg target:     %.1f%%\n", d.Aggregates.AvgTarget*100)
	fmt.Fprintf(out, "Below target:   %s\n", humanize.Comma(int64(d.BelowCount)))
	if v.Dropped > 0 {
		fmt.Fprintf(out, "Skipped rows:   %s\n", humanize.Comma(int64(v.Dropped)))
	}
	return nil
}
