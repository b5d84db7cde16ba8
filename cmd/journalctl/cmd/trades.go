package cmd

import (
	"fmt"
	"math"
	"net/url"
	"os"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var tradesCmd = &cobra.Command{
	Use:   "trades",
	Short: "Query recorded trades",
	Long: `Query recorded trades.

Subcommands:
  list   - List trades, one page at a time
  stats  - Show the performance summary

Examples:
  journalctl trades list --filter "symbol[in]=EURUSD,GBPUSD" --sort -profit
  journalctl trades stats`,
}

var tradesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List trades",
	Args:  cobra.NoArgs,
	RunE:  runTradesList,
}

var tradesStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show trade statistics",
	Args:  cobra.NoArgs,
	RunE:  runTradesStats,
}

var (
	listFilters []string
	listSort    string
	listPage    int
	listLimit   int
)

func init() {
	rootCmd.AddCommand(tradesCmd)
	tradesCmd.AddCommand(tradesListCmd, tradesStatsCmd)
	addListFlags(tradesListCmd)
}

func addListFlags(cmd *cobra.Command) {
	cmd.Flags().StringArrayVarP(&listFilters, "filter", "f", nil, `query filter, e.g. "profit[gt]=0" (repeatable)`)
	cmd.Flags().StringVarP(&listSort, "sort", "s", "", "sort fields, e.g. -profit,symbol")
	cmd.Flags().IntVar(&listPage, "page", 1, "page number")
	cmd.Flags().IntVarP(&listLimit, "limit", "l", 25, "page size")
}

// listParams turns the list flags into query parameters.
func listParams(filters []string, sortBy string, page, limit int) (url.Values, error) {
	params := url.Values{}
	for _, f := range filters {
		parsed, err := url.ParseQuery(f)
		if err != nil {
			return nil, fmt.Errorf("bad filter %q: %w", f, err)
		}
		for k, vs := range parsed {
			params[k] = append(params[k], vs...)
		}
	}
	if sortBy != "" {
		params.Set("sort", sortBy)
	}
	params.Set("page", strconv.Itoa(page))
	params.Set("limit", strconv.Itoa(limit))
	return params, nil
}

func runTradesList(cmd *cobra.Command, args []string) error {
	params, err := listParams(listFilters, listSort, listPage, listLimit)
	if err != nil {
		return err
	}
	page, err := api.ListTrades(cmd.Context(), params)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tOPENED\tSYMBOL\tDIR\tLOTS\tPIPS\tPROFIT\tRESULT")
	for i := range page.Items {
		t := &page.Items[i]
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%.2f\t%.0f\t%.2f\t%s\n",
			t.ID, t.OpenTime.Format("2006-01-02 15:04"), t.Symbol, t.Direction, t.LotSize, t.Pips, t.Profit, t.Result())
	}
	if err := w.Flush(); err != nil {
		return err
	}

	fmt.Printf("\n%d trade(s) on page %d", page.Count, listPage)
	if page.Pagination.Next != nil {
		fmt.Printf(", next: --page %d", page.Pagination.Next.Page)
	}
	fmt.Println()
	return nil
}

func runTradesStats(cmd *cobra.Command, args []string) error {
	s, err := api.TradeStats(cmd.Context())
	if err != nil {
		return err
	}

	pf := fmt.Sprintf("%.2f", float64(s.ProfitFactor))
	if math.IsInf(float64(s.ProfitFactor), 1) {
		pf = "unbounded"
	}
	fmt.Printf("Trades:        %d (%d won, %d lost)\n", s.TotalTrades, s.WinningTrades, s.LosingTrades)
	fmt.Printf("Total profit:  %.2f\n", s.TotalProfit)
	fmt.Printf("Win rate:      %.1f%%\n", s.WinRate)
	fmt.Printf("Profit factor: %s\n", pf)
	fmt.Printf("Average win:   %.2f\n", s.AverageWin)
	fmt.Printf("Average loss:  %.2f\n", s.AverageLoss)
	return nil
}
