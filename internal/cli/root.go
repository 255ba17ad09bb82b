// Package cli defines the cobra command tree for biens.
package cli

import (
	"database/sql"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/evcraddock/biens/internal/config"
	"github.com/evcraddock/biens/internal/db"
)

var (
	flagFormat string
	flagDB     string
	flagConfig string
)

// NewRootCmd creates the root cobra command with global flags.
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "biens",
		Short:         "Real-estate listing backend",
		Long:          "Serve the biens listing API, query listings and manage API credentials.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVar(&flagFormat, "format", "text", "output format (text|json)")
	root.PersistentFlags().StringVar(&flagDB, "db", "", "SQLite database path (default: ~/.config/biens/biens.db)")
	root.PersistentFlags().StringVar(&flagConfig, "config", "", "YAML config file (default: ./"+config.DefaultFile+" if present)")

	root.AddCommand(
		newServeCmd(),
		newListCmd(),
		newShowCmd(),
		newRemoveCmd(),
		newTokenCmd(),
		newAPIKeyCmd(),
		newVersionCmd(),
	)

	return root
}

// loadConfig reads the configuration, letting --db override the file.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(flagConfig)
	if err != nil {
		return nil, err
	}
	if flagDB != "" {
		cfg.DBPath = flagDB
	}
	return cfg, nil
}

// openDB opens the SQLite database configured in cfg or the default path.
func openDB(cfg *config.Config) (*sql.DB, error) {
	path := cfg.DBPath
	if path == "" {
		var err error
		path, err = db.DefaultPath()
		if err != nil {
			return nil, err
		}
	}
	return db.Open(path)
}

// isJSON returns true if the --format flag is set to json.
func isJSON() bool {
	return flagFormat == "json"
}

// closeDB closes the database, logging any error to stderr.
func closeDB(database *sql.DB) {
	if err := database.Close(); err != nil {
		fmt.Fprintf(os.Stderr, "warning: closing database: %v\n", err)
	}
}
