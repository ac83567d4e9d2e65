package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/josh-kwaku/clinic-billing/internal/repository"
	"github.com/josh-kwaku/clinic-billing/internal/service/report"
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Run ledger reports against committed documents",
	Long: `Run ledger reports against committed documents.

Dates accept YYYY-MM-DD, read as midnight in TIMEZONE, or a full RFC3339
timestamp. Periods are half open: --to is excluded.`,
}

var revenueCmd = &cobra.Command{
	Use:   "revenue",
	Short: "Sum payments recorded in a period",
	Example: `  billingctl report revenue --from 2025-03-01 --to 2025-04-01`,
	RunE: func(cmd *cobra.Command, args []string) error {
		period, err := periodFlags(cmd)
		if err != nil {
			return err
		}
		total, err := reportService().Revenue(cmd.Context(), period)
		if err != nil {
			return err
		}
		return printJSON(cmd, map[string]any{
			"from":    period.From,
			"to":      period.To,
			"revenue": total,
		})
	},
}

var outstandingCmd = &cobra.Command{
	Use:     "outstanding",
	Short:   "Sum the unpaid balance of a client's open documents",
	Example: `  billingctl report outstanding --client owner-42`,
	RunE: func(cmd *cobra.Command, args []string) error {
		client, _ := cmd.Flags().GetString("client")
		total, err := reportService().Outstanding(cmd.Context(), client)
		if err != nil {
			return err
		}
		return printJSON(cmd, map[string]any{
			"client_ref":  client,
			"outstanding": total,
		})
	},
}

var earningsCmd = &cobra.Command{
	Use:     "earnings",
	Short:   "Sum charges recorded by a staff member, with a daily breakdown",
	Example: `  billingctl report earnings --staff nurse-7 --from 2025-03-01 --to 2025-03-08`,
	RunE: func(cmd *cobra.Command, args []string) error {
		staff, _ := cmd.Flags().GetString("staff")
		period, err := periodFlags(cmd)
		if err != nil {
			return err
		}
		earnings, err := reportService().StaffEarnings(cmd.Context(), staff, period)
		if err != nil {
			return err
		}
		return printJSON(cmd, earnings)
	},
}

var summaryCmd = &cobra.Command{
	Use:     "summary",
	Short:   "Show totals across every document of a client",
	Example: `  billingctl report summary --client owner-42`,
	RunE: func(cmd *cobra.Command, args []string) error {
		client, _ := cmd.Flags().GetString("client")
		summary, err := reportService().ClientSummary(cmd.Context(), client)
		if err != nil {
			return err
		}
		return printJSON(cmd, summary)
	},
}

func init() {
	rootCmd.AddCommand(reportCmd)
	reportCmd.AddCommand(revenueCmd, outstandingCmd, earningsCmd, summaryCmd)

	for _, c := range []*cobra.Command{revenueCmd, earningsCmd} {
		c.Flags().String("from", "", "Period start, inclusive")
		c.Flags().String("to", "", "Period end, exclusive")
		c.MarkFlagRequired("from")
		c.MarkFlagRequired("to")
	}

	outstandingCmd.Flags().String("client", "", "Client reference")
	outstandingCmd.MarkFlagRequired("client")
	summaryCmd.Flags().String("client", "", "Client reference")
	summaryCmd.MarkFlagRequired("client")
	earningsCmd.Flags().String("staff", "", "Staff reference")
	earningsCmd.MarkFlagRequired("staff")
}

func reportService() *report.Service {
	return report.NewService(repository.NewDocumentRepository(current.db), current.location)
}

func periodFlags(cmd *cobra.Command) (report.Period, error) {
	fromStr, _ := cmd.Flags().GetString("from")
	toStr, _ := cmd.Flags().GetString("to")

	from, err := parseInstant(fromStr, current.location)
	if err != nil {
		return report.Period{}, fmt.Errorf("invalid --from: %w", err)
	}
	to, err := parseInstant(toStr, current.location)
	if err != nil {
		return report.Period{}, fmt.Errorf("invalid --to: %w", err)
	}
	return report.Period{From: from, To: to}, nil
}

func parseInstant(s string, loc *time.Location) (time.Time, error) {
	if t, err := time.ParseInLocation(time.DateOnly, s, loc); err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339, s)
}
