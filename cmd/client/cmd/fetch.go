package cmd

import (
	"fmt"
	"io"
	"sort"

	"github.com/MKhiriev/go-record-sync/models"
	"github.com/spf13/cobra"
)

var (
	fetchPages int
	fetchAll   bool
)

var fetchCmd = &cobra.Command{
	Use:   "fetch [type...]",
	Short: "Fetch record types from the server",
	Long: `Fetches every page of a record type and reconciles it into the local store.

A fetch that reaches the last page without errors removes the local records
the server no longer lists. With --pages the fetch stops early and nothing is
removed. Several types are fetched concurrently. With --all every fetchable
type is fetched.`,
	Args: func(cmd *cobra.Command, args []string) error {
		if fetchAll {
			return cobra.NoArgs(cmd, args)
		}
		return cobra.MinimumNArgs(1)(cmd, args)
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()

		var (
			results map[string]models.FetchPagedResult
			err     error
		)
		switch {
		case fetchAll:
			results, err = app.FetchAll(cmd.Context())
		case len(args) > 1:
			results, err = app.FetchTypes(cmd.Context(), args, fetchPages)
		default:
			res, fetchErr := app.Fetch(cmd.Context(), args[0], fetchPages)
			printFetchResult(out, args[0], res)
			return fetchErr
		}

		names := make([]string, 0, len(results))
		for name := range results {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			printFetchResult(out, name, results[name])
		}
		return err
	},
}

func printFetchResult(w io.Writer, typeName string, res models.FetchPagedResult) {
	records, itemErrs := 0, 0
	for _, page := range res.AllPageResults {
		records += len(page.Records)
		itemErrs += len(page.ItemErrors)
	}

	status := "complete"
	if !res.Complete {
		status = "partial"
	}

	fmt.Fprintf(w, "%s: %d page(s), %d record(s), %d pruned, %s\n",
		typeName, len(res.AllPageInfos), records, len(res.Pruned), status)
	if itemErrs > 0 {
		fmt.Fprintf(w, "  %d item(s) failed to reconcile\n", itemErrs)
	}
	if res.Err != nil {
		fmt.Fprintf(w, "  error: %v\n", res.Err)
	}
}

func init() {
	fetchCmd.Flags().IntVarP(&fetchPages, "pages", "p", 0, "Maximum pages to fetch (0 = configured limit)")
	fetchCmd.Flags().BoolVarP(&fetchAll, "all", "a", false, "Fetch every fetchable type")
}
