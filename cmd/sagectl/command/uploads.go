package command

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sage3280/tracker/roster"
	"github.com/sage3280/tracker/store"
)

var uploadsCmd = &cobra.Command{
	Use:   "uploads",
	Short: "Manage roster uploads",
}

var uploadsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List roster uploads",
	RunE:  func(cmd *cobra.Command, args []string) error { return Run(listUploads) },
}

func listUploads(uploads roster.Repository) error {
	list, err := uploads.List(context.Background(), &roster.UploadFilter{}, store.DefaultPagination())
	if err != nil {
		return err
	}

	for _, upload := range list {
		fmt.Printf("%s %-10s %s (%d/%d rows failed)\n",
			upload.Id.Hex(), upload.Status, upload.OriginalFilename, upload.FailedRows, upload.TotalRows)
	}
	fmt.Printf("Found %d uploads\n", len(list))
	return nil
}

var uploadsProcessCmd = &cobra.Command{
	Use:   "process <id>",
	Args:  cobra.ExactArgs(1),
	Short: "Process a roster upload",
	Long:  "The process command runs a single upload through the roster pipeline without waiting for the background worker.",
	RunE: func(cmd *cobra.Command, args []string) error {
		id := args[0]
		return Run(func(uploads roster.Repository, processor *roster.Processor) error {
			return processUpload(uploads, processor, id)
		})
	},
}

func processUpload(uploads roster.Repository, processor *roster.Processor, id string) error {
	ctx := context.Background()

	upload, err := uploads.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := processor.Process(ctx, upload); err != nil {
		return err
	}

	processed, err := uploads.Get(ctx, id)
	if err != nil {
		return err
	}

	fmt.Printf("Upload %s finished %s: %d created, %d updated, %d failed\n",
		processed.Id.Hex(), processed.Status, processed.CreatedRows, processed.UpdatedRows, processed.FailedRows)
	return nil
}

func init() {
	uploadsCmd.AddCommand(uploadsListCmd)
	uploadsCmd.AddCommand(uploadsProcessCmd)
	rootCmd.AddCommand(uploadsCmd)
}
