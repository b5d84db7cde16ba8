package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Check that the server is running",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		h, err := api.Health(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Printf("%s (%s)\n", h.Message, h.Timestamp.Format("2006-01-02 15:04:05"))
		return nil
	},
}

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Log in and print a token",
	Long: `Log in with email and password and print the token.

Export it as CLIENT_TOKEN or pass it with --token to later commands.`,
	Args: cobra.NoArgs,
	RunE: runLogin,
}

var (
	loginEmail    string
	loginPassword string
)

func init() {
	rootCmd.AddCommand(healthCmd, loginCmd)

	loginCmd.Flags().StringVarP(&loginEmail, "email", "e", "", "account email (required)")
	loginCmd.Flags().StringVarP(&loginPassword, "password", "p", "", "account password (required)")
	loginCmd.MarkFlagRequired("email")
	loginCmd.MarkFlagRequired("password")
}

func runLogin(cmd *cobra.Command, args []string) error {
	tok, err := api.Login(cmd.Context(), loginEmail, loginPassword)
	if err != nil {
		return err
	}
	me, err := api.Me(cmd.Context())
	if err != nil {
		return err
	}
	fmt.Printf("Logged in as %s <%s>\n", me.Name, me.Email)
	fmt.Println(tok)
	return nil
}
