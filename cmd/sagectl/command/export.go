package command

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/sage3280/tracker/reporting"
)

var exportParams = struct {
	Out     string
	Options string
}{}

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export the population workbook",
	Long:  "The export command writes the patient, alert and control sheets to an xlsx file. Options accepts the same partial JSON document as the reports endpoint.",
	RunE:  func(cmd *cobra.Command, args []string) error { return Run(exportPopulation) },
}

func exportPopulation(exporter *reporting.Exporter) error {
	options, err := reporting.ParseOptions([]byte(exportParams.Options))
	if err != nil {
		return err
	}

	content, err := exporter.ExportBytes(context.Background(), options)
	if err != nil {
		return err
	}

	if err := os.WriteFile(exportParams.Out, content, 0o644); err != nil {
		return err
	}

	fmt.Printf("Wrote %d bytes to %s\n", len(content), exportParams.Out)
	return nil
}

func init() {
	exportCmd.Flags().StringVarP(&exportParams.Out, "out", "o", "poblacion.xlsx", "Output file")
	exportCmd.Flags().StringVar(&exportParams.Options, "options", "", "Partial report options as JSON")
	rootCmd.AddCommand(exportCmd)
}
