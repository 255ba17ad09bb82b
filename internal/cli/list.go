package cli

import (
	"github.com/spf13/cobra"

	"github.com/evcraddock/biens/internal/bien"
)

func newListCmd() *cobra.Command {
	var (
		q         bien.Query
		sort      string
		maxBudget float64
		minArea   float64
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List listings",
		Long:  "List listings through the same query engine the API uses: filters are combined, results are paged.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			q.Sort = bien.SortDirection(sort)
			if cmd.Flags().Changed("max-budget") {
				q.MaxBudget = &maxBudget
			}
			if cmd.Flags().Changed("min-area") {
				q.MinArea = &minArea
			}
			return runList(cmd, q)
		},
	}

	cmd.Flags().IntVar(&q.Page, "page", bien.DefaultPage, "page number (1-based)")
	cmd.Flags().IntVar(&q.PageSize, "page-size", bien.DefaultPageSize, "listings per page")
	cmd.Flags().StringVar(&sort, "sort", "", "sort by price (croissant|decroissant)")
	cmd.Flags().StringVar(&q.Ref, "ref", "", "filter by listing ref (exact)")
	cmd.Flags().StringVar(&q.Status, "status", "", "filter by status (available|pending|sold)")
	cmd.Flags().StringVar(&q.Type, "type", "", "filter by property type (case-insensitive)")
	cmd.Flags().StringVar(&q.Location, "location", "", "filter by location substring (case-insensitive)")
	cmd.Flags().Float64Var(&maxBudget, "max-budget", 0, "maximum price (inclusive)")
	cmd.Flags().Float64Var(&minArea, "min-area", 0, "minimum area in m² (inclusive)")

	return cmd
}

func runList(cmd *cobra.Command, q bien.Query) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	database, err := openDB(cfg)
	if err != nil {
		return err
	}
	defer closeDB(database)

	page, err := bien.Search(cmd.Context(), bien.NewRepository(database), q)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if isJSON() {
		return printJSON(out, page)
	}
	return printBienTable(out, page)
}
