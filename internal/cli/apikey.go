package cli

import (
	"fmt"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/evcraddock/biens/internal/auth"
)

func newAPIKeyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "apikey",
		Short: "Manage API keys",
	}

	cmd.AddCommand(newAPIKeyCreateCmd(), newAPIKeyListCmd(), newAPIKeyRevokeCmd())
	return cmd
}

// withKeyStore opens the database and runs fn with an API key store.
func withKeyStore(fn func(*auth.APIKeyStore) error) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	database, err := openDB(cfg)
	if err != nil {
		return err
	}
	defer closeDB(database)

	return fn(auth.NewAPIKeyStore(database))
}

func newAPIKeyCreateCmd() *cobra.Command {
	var email string

	cmd := &cobra.Command{
		Use:   "create <name>",
		Short: "Create an API key",
		Long:  "Create an API key acting as --email. The raw key is printed once.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withKeyStore(func(store *auth.APIKeyStore) error {
				raw, key, err := store.Create(args[0], email)
				if err != nil {
					return err
				}

				if isJSON() {
					return printJSON(cmd.OutOrStdout(), map[string]interface{}{
						"key":    raw,
						"id":     key.ID,
						"name":   key.Name,
						"email":  key.Email,
						"prefix": key.KeyPrefix,
					})
				}
				_, err = fmt.Fprintf(cmd.OutOrStdout(), "API key #%d created for %s:\n\n  %s\n\nStore it now, it will not be shown again.\n",
					key.ID, key.Email, raw)
				return err
			})
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "email the key acts as (required)")
	if err := cmd.MarkFlagRequired("email"); err != nil {
		panic(err)
	}

	return cmd
}

func newAPIKeyListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List API keys",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withKeyStore(func(store *auth.APIKeyStore) error {
				keys, err := store.List()
				if err != nil {
					return err
				}

				out := cmd.OutOrStdout()
				if isJSON() {
					return printJSON(out, keys)
				}
				if len(keys) == 0 {
					_, err := fmt.Fprintln(out, "No API keys.")
					return err
				}

				w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
				fmt.Fprintln(w, "ID\tNAME\tEMAIL\tPREFIX\tLAST USED")
				for _, k := range keys {
					lastUsed := "never"
					if k.LastUsedAt != nil {
						lastUsed = k.LastUsedAt.Format("2006-01-02 15:04")
					}
					fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\n", k.ID, k.Name, k.Email, k.KeyPrefix, lastUsed)
				}
				return w.Flush()
			})
		},
	}
}

func newAPIKeyRevokeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "revoke <id>",
		Short: "Revoke an API key",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid key ID: %s", args[0])
			}

			return withKeyStore(func(store *auth.APIKeyStore) error {
				if err := store.Delete(id); err != nil {
					return err
				}
				if isJSON() {
					return printJSON(cmd.OutOrStdout(), map[string]interface{}{"id": id, "revoked": true})
				}
				_, err := fmt.Fprintf(cmd.OutOrStdout(), "API key #%d revoked.\n", id)
				return err
			})
		},
	}
}
