package cli

import (
	"github.com/spf13/cobra"

	"github.com/evcraddock/biens/internal/bien"
)

func newShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <ref>",
		Short: "Show listing details",
		Long:  "Show full details for a listing, including its gallery.",
		Args:  cobra.ExactArgs(1),
		RunE:  runShow,
	}
}

func runShow(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	database, err := openDB(cfg)
	if err != nil {
		return err
	}
	defer closeDB(database)

	b, err := bien.NewRepository(database).GetByRef(args[0])
	if err != nil {
		return err
	}

	if isJSON() {
		return printJSON(cmd.OutOrStdout(), b)
	}
	return printBienSummary(cmd.OutOrStdout(), b)
}
