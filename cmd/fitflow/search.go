package fitflow

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/saadjs/fitflow/internal/model"
	"github.com/saadjs/fitflow/internal/service"
)

var (
	searchLimit   int
	searchBarcode bool
	searchPick    int
	searchJSON    bool

	cacheProvider string
	cacheQuery    string
	cacheLimit    int
	cacheAll      bool
)

var mealSearchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Search food providers (Open Food Facts, USDA)",
	Long:  "Search food providers by name, or by barcode with --barcode. Use --add N to log the Nth result.",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		query := strings.TrimSpace(strings.Join(args, " "))
		opts := foodSearchOptions(searchLimit)
		return withDB(func(sqldb *sql.DB) error {
			var results []service.FoodSearchResult
			if searchBarcode {
				r, err := service.LookupBarcode(cmd.Context(), query, opts)
				if err != nil {
					return err
				}
				results = []service.FoodSearchResult{r}
			} else {
				var err error
				results, err = service.SearchFoods(cmd.Context(), sqldb, query, opts)
				if err != nil {
					return err
				}
			}
			if searchPick > 0 {
				if searchPick > len(results) {
					return fmt.Errorf("--add %d is out of range (%d result(s))", searchPick, len(results))
				}
				return addFoods(cmd, sqldb, []model.FoodItem{results[searchPick-1].FoodItem()})
			}
			if searchJSON {
				return printJSON(cmd.OutOrStdout(), "food search", results)
			}
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, "#\tPROVIDER\tFOOD\tSERVING\tKCAL\tP\tC\tF\tCOMPLETENESS")
			for i, r := range results {
				item := r.FoodItem()
				fmt.Fprintf(out, "%d\t%s\t%s\t%s\t%.0f\t%.1f\t%.1f\t%.1f\t%s\n",
					i+1, r.Provider, item.Name, item.ServingSize, r.Calories, r.ProteinG, r.CarbsG, r.FatG, r.Completeness)
			}
			return nil
		})
	},
}

var mealCacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Inspect or purge cached provider searches",
}

var mealCacheListCmd = &cobra.Command{
	Use:   "list",
	Short: "List cached provider searches",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withDB(func(sqldb *sql.DB) error {
			items, err := service.ListProviderSearchCache(sqldb, cacheProvider, cacheQuery, cacheLimit)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "PROVIDER\tQUERY\tLIMIT\tFETCHED\tEXPIRES")
			for _, it := range items {
				fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\t%d\t%s\t%s\n",
					it.Provider, it.Query, it.LimitRequested, it.FetchedAt.Format(time.RFC3339), it.ExpiresAt.Format(time.RFC3339))
			}
			return nil
		})
	},
}

var mealCachePurgeCmd = &cobra.Command{
	Use:   "purge",
	Short: "Delete cached provider searches",
	RunE: func(cmd *cobra.Command, args []string) error {
		if !cacheAll && strings.TrimSpace(cacheProvider) == "" {
			return fmt.Errorf("use --provider (optionally with --query) or --all")
		}
		return withDB(func(sqldb *sql.DB) error {
			n, err := service.PurgeProviderSearchCache(sqldb, cacheProvider, cacheQuery, cacheAll)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Purged %d cached search(es)\n", n)
			return nil
		})
	},
}

func init() {
	mealCmd.AddCommand(mealSearchCmd, mealCacheCmd)
	mealCacheCmd.AddCommand(mealCacheListCmd, mealCachePurgeCmd)

	mealSearchCmd.Flags().IntVar(&searchLimit, "limit", 0, "Max results per provider (default from config)")
	mealSearchCmd.Flags().BoolVar(&searchBarcode, "barcode", false, "Treat the query as a barcode")
	mealSearchCmd.Flags().IntVar(&searchPick, "add", 0, "Log the Nth result to a meal (requires --type)")
	mealSearchCmd.Flags().StringVar(&mealType, "type", "", "Meal type used with --add")
	mealSearchCmd.Flags().StringVar(&mealDate, "date", "", "Date used with --add (default today)")
	mealSearchCmd.Flags().BoolVar(&searchJSON, "json", false, "Output JSON")

	for _, c := range []*cobra.Command{mealCacheListCmd, mealCachePurgeCmd} {
		c.Flags().StringVar(&cacheProvider, "provider", "", "Provider: openfoodfacts or usda")
		c.Flags().StringVar(&cacheQuery, "query", "", "Search query")
	}
	mealCacheListCmd.Flags().IntVar(&cacheLimit, "limit", 100, "Max rows")
	mealCachePurgeCmd.Flags().BoolVar(&cacheAll, "all", false, "Purge every cached search")
}
