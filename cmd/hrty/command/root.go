package command

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var logLevel string

var rootCmd = &cobra.Command{
	Use:   "hrty",
	Short: "Heart-failure check-in service",
	Long:  "hrty records daily vitals and symptoms, classifies them and raises alerts for the care team",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// the flag wins over LOG_LEVEL when given
		if cmd.Flags().Changed("log-level") {
			return os.Setenv("LOG_LEVEL", logLevel)
		}
		return nil
	},
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&logLevel, "log-level", "v", "info", "Log level (debug, info, warn, error)")
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
