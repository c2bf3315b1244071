package command

import (
	"encoding/json"
	"fmt"
	"os"

	"hrty-backend/internal/importer"

	"github.com/spf13/cobra"
)

var (
	importPatient  string
	importFile     string
	importTemplate string
)

var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Import historical check-ins from an XLSX workbook",
	Long: "The import command loads past daily vitals for one patient. Imported days seed the\n" +
		"weight trend and never raise alerts. Use --template to write an empty workbook instead.",
	RunE: func(cmd *cobra.Command, args []string) error {
		if importTemplate != "" {
			return writeTemplate(importTemplate)
		}
		if importPatient == "" || importFile == "" {
			return fmt.Errorf("--patient and --file are required")
		}

		f, err := os.Open(importFile)
		if err != nil {
			return fmt.Errorf("failed to open %s: %w", importFile, err)
		}
		defer f.Close()

		ctx := cmd.Context()
		a, err := newApp(ctx, true)
		if err != nil {
			return err
		}
		defer a.close()

		res, err := a.service.ImportHistory(ctx, importPatient, f)
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

func writeTemplate(path string) error {
	data, err := importer.GenerateTemplate(nil)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write template: %w", err)
	}
	return nil
}

func init() {
	importCmd.Flags().StringVar(&importPatient, "patient", "", "Patient ID")
	importCmd.Flags().StringVar(&importFile, "file", "", "XLSX workbook to import")
	importCmd.Flags().StringVar(&importTemplate, "template", "", "Write an empty import template to this path and exit")
	rootCmd.AddCommand(importCmd)
}
