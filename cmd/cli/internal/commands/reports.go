package commands

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/wolfeidau/stockroom/internal/auth"
)

const dateLayout = "2006-01-02"

// defaultReportDays is how far back reports look when no range is given.
const defaultReportDays = 30

// DateRange holds the report range flags.
type DateRange struct {
	From string `help:"Start date (YYYY-MM-DD), defaults to 30 days ago"`
	To   string `help:"End date (YYYY-MM-DD), defaults to today"`
}

// resolve fills in missing dates relative to now and validates the result.
func (r DateRange) resolve(now time.Time) (string, string, error) {
	now = now.UTC()

	from, to := r.From, r.To
	if to == "" {
		to = now.Format(dateLayout)
	}
	if from == "" {
		from = now.AddDate(0, 0, -defaultReportDays).Format(dateLayout)
	}

	fromT, err := time.Parse(dateLayout, from)
	if err != nil {
		return "", "", fmt.Errorf("invalid --from date %q: %w", from, err)
	}
	toT, err := time.Parse(dateLayout, to)
	if err != nil {
		return "", "", fmt.Errorf("invalid --to date %q: %w", to, err)
	}
	if fromT.After(toT) {
		return "", "", fmt.Errorf("--from %s is after --to %s", from, to)
	}

	return from, to, nil
}

// ReportsCmd shows admin reports.
type ReportsCmd struct {
	Sales   ReportsSalesCmd   `cmd:"" help:"Sales report"`
	Finance ReportsFinanceCmd `cmd:"" help:"Finance report"`
}

// ReportsSalesCmd shows the sales report.
type ReportsSalesCmd struct {
	DateRange `embed:""`
}

func (c *ReportsSalesCmd) Run(ctx context.Context, globals *Globals) error {
	from, to, err := c.resolve(time.Now())
	if err != nil {
		return err
	}

	app, err := globals.open(ctx)
	if err != nil {
		return err
	}
	defer app.Close()

	return app.protect(auth.AdminRoles, func(w io.Writer) error {
		report, err := app.API.SalesReport(ctx, from, to)
		if err != nil {
			return fmt.Errorf("failed to load sales report: %w", err)
		}

		if globals.JSON {
			return printJSON(w, report)
		}

		fmt.Fprintf(w, "Sales %s to %s: %s\n\n", from, to, money(report.TotalSales))

		tw := newTable(w)
		fmt.Fprintln(tw, "DATE\tTOTAL")
		for _, d := range report.ByDay {
			fmt.Fprintf(tw, "%s\t%s\n", d.Date, money(d.Total))
		}
		if err := tw.Flush(); err != nil {
			return err
		}

		if len(report.TopProducts) == 0 {
			return nil
		}

		fmt.Fprintln(w)
		tw = newTable(w)
		fmt.Fprintln(tw, "ID\tPRODUCT\tSOLD\tREVENUE")
		for _, p := range report.TopProducts {
			fmt.Fprintf(tw, "%d\t%s\t%d\t%s\n", p.ID, p.Name, p.QtySold, money(p.Revenue))
		}
		return tw.Flush()
	})
}

// ReportsFinanceCmd shows the finance report.
type ReportsFinanceCmd struct {
	DateRange `embed:""`
}

func (c *ReportsFinanceCmd) Run(ctx context.Context, globals *Globals) error {
	from, to, err := c.resolve(time.Now())
	if err != nil {
		return err
	}

	app, err := globals.open(ctx)
	if err != nil {
		return err
	}
	defer app.Close()

	return app.protect(auth.AdminRoles, func(w io.Writer) error {
		report, err := app.API.FinanceReport(ctx, from, to)
		if err != nil {
			return fmt.Errorf("failed to load finance report: %w", err)
		}

		if globals.JSON {
			return printJSON(w, report)
		}

		tw := newTable(w)
		fmt.Fprintf(tw, "Revenue:\t%s\n", money(report.TotalRevenue))
		fmt.Fprintf(tw, "Debits:\t%s\n", money(report.TotalDebits))
		if err := tw.Flush(); err != nil {
			return err
		}

		if len(report.PartialBalances) == 0 {
			return nil
		}

		fmt.Fprintln(w)
		tw = newTable(w)
		fmt.Fprintln(tw, "INVOICE\tCUSTOMER\tOUTSTANDING")
		for _, b := range report.PartialBalances {
			fmt.Fprintf(tw, "%d\t%s\t%s\n", b.InvoiceID, b.Customer, money(b.Outstanding))
		}
		return tw.Flush()
	})
}

// DashboardCmd summarises recent sales.
type DashboardCmd struct{}

func (c *DashboardCmd) Run(ctx context.Context, globals *Globals) error {
	from, to, err := DateRange{}.resolve(time.Now())
	if err != nil {
		return err
	}

	app, err := globals.open(ctx)
	if err != nil {
		return err
	}
	defer app.Close()

	return app.protect(auth.AdminRoles, func(w io.Writer) error {
		report, err := app.API.SalesReport(ctx, from, to)
		if err != nil {
			return fmt.Errorf("failed to load dashboard: %w", err)
		}

		summary := dashboardSummary{TotalSales: report.TotalSales}
		if n := len(report.ByDay); n > 0 {
			summary.TodaySales = report.ByDay[n-1].Total
		}
		if len(report.TopProducts) > 0 {
			summary.TopProduct = report.TopProducts[0].Name
		}

		if globals.JSON {
			return printJSON(w, summary)
		}

		top := summary.TopProduct
		if top == "" {
			top = "-"
		}

		tw := newTable(w)
		fmt.Fprintf(tw, "Total sales (%d days):\t%s\n", defaultReportDays, money(summary.TotalSales))
		fmt.Fprintf(tw, "Today's sales:\t%s\n", money(summary.TodaySales))
		fmt.Fprintf(tw, "Top product:\t%s\n", top)
		return tw.Flush()
	})
}

type dashboardSummary struct {
	TotalSales float64 `json:"totalSales"`
	TodaySales float64 `json:"todaySales"`
	TopProduct string  `json:"topProduct,omitempty"`
}
