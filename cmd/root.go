package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "connector",
	Short: "Card payment connector",
	Long:  "A card payment connector driving charges and refunds through Worldpay, ePDQ, Stripe and a sandbox processor.",
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
