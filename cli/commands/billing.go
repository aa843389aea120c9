package commands

import (
	"fmt"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/petal-labs/venice/providers/venice"
)

const dateLayout = "2006-01-02"

func (a *App) newBillingCommand() *cobra.Command {
	var (
		currency   string
		start, end string
		limit      int
		page       int
		sortOrder  string
	)
	cmd := &cobra.Command{
		Use:   "billing",
		Short: "Show billing usage",
		Long: `Show per-request billing usage. Requires an admin API key.

Examples:
  venice billing --start 2025-06-01 --end 2025-06-30
  venice billing --currency VCU --limit 50 --page 2 --json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			q := venice.UsageQuery{
				Currency:  venice.Currency(strings.ToUpper(currency)),
				Limit:     limit,
				Page:      page,
				SortOrder: sortOrder,
			}
			var err error
			if q.StartDate, err = parseDate("start", start); err != nil {
				return err
			}
			if q.EndDate, err = parseDate("end", end); err != nil {
				return err
			}

			p, err := a.provider()
			if err != nil {
				return err
			}
			usage, err := p.BillingUsage(cmd.Context(), q)
			if err != nil {
				return err
			}
			if a.jsonOutput {
				return a.writeJSON(usage)
			}

			tw := tabwriter.NewWriter(a.stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "TIMESTAMP\tSKU\tUNITS\tAMOUNT\tCURRENCY")
			for _, e := range usage.Data {
				fmt.Fprintf(tw, "%s\t%s\t%g\t%.4f\t%s\n", e.Timestamp, e.SKU, e.Units, e.Amount, e.Currency)
			}
			if err := tw.Flush(); err != nil {
				return err
			}
			pg := usage.Pagination
			fmt.Fprintf(a.stdout, "page %d/%d, %d entries\n", pg.Page, pg.TotalPages, pg.Total)
			return nil
		},
	}
	cmd.Flags().StringVar(&currency, "currency", "", "USD or VCU")
	cmd.Flags().StringVar(&start, "start", "", "start date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&end, "end", "", "end date (YYYY-MM-DD)")
	cmd.Flags().IntVar(&limit, "limit", 0, "entries per page")
	cmd.Flags().IntVar(&page, "page", 0, "page number")
	cmd.Flags().StringVar(&sortOrder, "sort", "", "asc or desc")
	return cmd
}

func parseDate(name, s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return time.Time{}, exitWithCode(ExitValidation, fmt.Errorf("invalid --%s %q: want YYYY-MM-DD", name, s))
	}
	return t, nil
}
