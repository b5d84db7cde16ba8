package cmd

import (
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"trading-journal-go/internal/models"

	"github.com/spf13/cobra"
)

var accountsCmd = &cobra.Command{
	Use:   "accounts",
	Short: "Manage broker accounts",
	Long: `Manage broker accounts.

Subcommands:
  list     - List broker accounts and their connection status
  sync     - Start a trade import for an account
  history  - Show past synchronizations of an account

Examples:
  journalctl accounts sync <account-id> --wait
  journalctl accounts history <account-id>`,
}

var accountsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List broker accounts",
	Args:  cobra.NoArgs,
	RunE:  runAccountsList,
}

var accountsSyncCmd = &cobra.Command{
	Use:   "sync <account-id>",
	Short: "Start a synchronization",
	Args:  cobra.ExactArgs(1),
	RunE:  runAccountsSync,
}

var accountsHistoryCmd = &cobra.Command{
	Use:   "history <account-id>",
	Short: "Show the synchronization history",
	Args:  cobra.ExactArgs(1),
	RunE:  runAccountsHistory,
}

var (
	syncWait     bool
	syncInterval time.Duration
)

func init() {
	rootCmd.AddCommand(accountsCmd)
	accountsCmd.AddCommand(accountsListCmd, accountsSyncCmd, accountsHistoryCmd)

	accountsSyncCmd.Flags().BoolVarP(&syncWait, "wait", "w", false, "wait until the synchronization finishes")
	accountsSyncCmd.Flags().DurationVar(&syncInterval, "interval", time.Second, "poll interval while waiting")
}

func runAccountsList(cmd *cobra.Command, args []string) error {
	accounts, err := api.ListBrokerAccounts(cmd.Context())
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tACCOUNT\tBROKER\tPLATFORM\tSTATUS\tLAST SYNC")
	for _, a := range accounts {
		last := "never"
		if a.LastSync != nil {
			last = a.LastSync.Local().Format("2006-01-02 15:04")
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n", a.ID, a.AccountNumber, a.BrokerName, a.Platform, a.Status, last)
	}
	return w.Flush()
}

func runAccountsSync(cmd *cobra.Command, args []string) error {
	started, err := api.SyncBrokerAccount(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	fmt.Printf("%s (history %s)\n", started.Message, started.SyncHistoryID)
	if !syncWait {
		return nil
	}

	h, err := api.WaitForSync(cmd.Context(), args[0], started.SyncHistoryID, syncInterval)
	if err != nil {
		return err
	}
	fmt.Println(h.Message)
	if h.Status == models.SyncError {
		return fmt.Errorf("synchronization failed")
	}
	return nil
}

func runAccountsHistory(cmd *cobra.Command, args []string) error {
	history, err := api.SyncHistory(cmd.Context(), args[0])
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tSTARTED\tSTATUS\tIMPORTED\tMESSAGE")
	for _, h := range history {
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%s\n", h.ID, h.Timestamp.Local().Format("2006-01-02 15:04:05"), h.Status, h.TradesImported, h.Message)
	}
	return w.Flush()
}
