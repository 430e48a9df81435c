package command

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sage3280/tracker/audit"
	"github.com/sage3280/tracker/patients/deriver"
)

var reclassifyCmd = &cobra.Command{
	Use:   "reclassify",
	Short: "Re-derive the whole population",
	Long:  "The reclassify command reruns classification and rebuilds the control and alert sets of every active patient. Run it after updating classification rules.",
	RunE:  func(cmd *cobra.Command, args []string) error { return Run(reclassifyAll) },
}

func reclassifyAll(d deriver.Deriver, recorder audit.Recorder) error {
	ctx := context.Background()

	count, err := d.ReclassifyAll(ctx)
	if err != nil {
		return err
	}

	if err := recorder.Record(ctx, audit.PopulationReclassified(count, nil)); err != nil {
		return err
	}

	fmt.Printf("Reclassified %d patients\n", count)
	return nil
}

func init() {
	rootCmd.AddCommand(reclassifyCmd)
}
