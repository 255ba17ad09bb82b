package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/evcraddock/biens/internal/bien"
	"github.com/evcraddock/biens/internal/media"
)

func newRemoveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "remove <ref>",
		Short: "Remove a listing",
		Long:  "Remove a listing and delete its gallery images from the upload directory.",
		Args:  cobra.ExactArgs(1),
		RunE:  runRemove,
	}
}

func runRemove(cmd *cobra.Command, args []string) error {
	ref := args[0]

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	database, err := openDB(cfg)
	if err != nil {
		return err
	}
	defer closeDB(database)

	store, err := media.NewStore(cfg.UploadDir)
	if err != nil {
		return err
	}

	gallery, err := bien.NewRepository(database).Delete(ref)
	if err != nil {
		return err
	}
	if err := store.RemoveAll(gallery); err != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "warning: %v\n", err)
	}

	if isJSON() {
		return printJSON(cmd.OutOrStdout(), map[string]interface{}{
			"ref":     ref,
			"removed": true,
			"images":  len(gallery),
		})
	}

	_, err = fmt.Fprintf(cmd.OutOrStdout(), "Listing %s removed (%d images).\n", ref, len(gallery))
	return err
}
