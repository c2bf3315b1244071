package command

import (
	"encoding/json"
	"fmt"
	"time"

	"hrty-backend/internal/models"

	"github.com/spf13/cobra"
)

var (
	evaluatePatient string
	evaluateDate    string
)

var evaluateCmd = &cobra.Command{
	Use:   "evaluate",
	Short: "Re-run the alert rules over a stored day",
	RunE: func(cmd *cobra.Command, args []string) error {
		if evaluatePatient == "" {
			return fmt.Errorf("--patient is required")
		}
		var day time.Time
		if evaluateDate != "" {
			var err error
			if day, err = models.ParseDay(evaluateDate); err != nil {
				return err
			}
		}

		ctx := cmd.Context()
		a, err := newApp(ctx, true)
		if err != nil {
			return err
		}
		defer a.close()

		res, err := a.service.Evaluate(ctx, evaluatePatient, day)
		if err != nil {
			return err
		}
		out, err := json.MarshalIndent(res, "", "  ")
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(out))
		return nil
	},
}

func init() {
	evaluateCmd.Flags().StringVar(&evaluatePatient, "patient", "", "Patient ID")
	evaluateCmd.Flags().StringVar(&evaluateDate, "date", "", "Day to evaluate (YYYY-MM-DD, default today)")
	rootCmd.AddCommand(evaluateCmd)
}
