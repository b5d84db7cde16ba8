package cmd

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var missedCmd = &cobra.Command{
	Use:   "missed",
	Short: "Query missed trade opportunities",
}

var missedListCmd = &cobra.Command{
	Use:   "list",
	Short: "List missed trades",
	Args:  cobra.NoArgs,
	RunE:  runMissedList,
}

var missedStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show missed trade statistics by reason",
	Args:  cobra.NoArgs,
	RunE:  runMissedStats,
}

func init() {
	rootCmd.AddCommand(missedCmd)
	missedCmd.AddCommand(missedListCmd, missedStatsCmd)
	addListFlags(missedListCmd)
}

func runMissedList(cmd *cobra.Command, args []string) error {
	params, err := listParams(listFilters, listSort, listPage, listLimit)
	if err != nil {
		return err
	}
	page, err := api.ListMissedTrades(cmd.Context(), params)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tDATE\tSYMBOL\tDIR\tREASON\tEST. PROFIT")
	for _, m := range page.Items {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%.2f\n",
			m.ID, m.Date.Format("2006-01-02"), m.Symbol, m.Direction, m.Reason, m.EstimatedProfit)
	}
	return w.Flush()
}

func runMissedStats(cmd *cobra.Command, args []string) error {
	s, err := api.MissedTradeStats(cmd.Context())
	if err != nil {
		return err
	}

	fmt.Printf("Missed trades:   %d\n", s.TotalMissedTrades)
	fmt.Printf("Missed profit:   %.2f\n", s.TotalMissedProfit)
	fmt.Printf("Average missed:  %.2f\n", s.AverageMissedProfit)
	if len(s.ReasonCounts) == 0 {
		return nil
	}

	fmt.Println("\nBy reason:")
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	for _, rc := range s.ReasonCounts {
		fmt.Fprintf(w, "  %s\t%d\n", rc.Reason, rc.Count)
	}
	return w.Flush()
}
