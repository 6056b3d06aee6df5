package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show portfolio statistics",
	Long:  `Print counts, loan status breakdown and portfolio credit totals.`,
	RunE:  runStats,
}

func runStats(cmd *cobra.Command, args []string) error {
	stats, err := statsService.GetPortfolioStats(context.Background())
	if err != nil {
		return fmt.Errorf("failed to get stats: %w", err)
	}

	fmt.Printf("%s📊 Portfolio Statistics%s\n", TitleStyle, Reset)
	fmt.Printf("%s=======================%s\n", DimStyle, Reset)
	fmt.Println()

	fmt.Printf("%s %s\n", FormatLabel("Companies:"), FormatCount(stats.TotalCompanies))
	fmt.Printf("%s %s\n", FormatLabel("Active companies:"), FormatCount(stats.ActiveCompanies))
	fmt.Printf("%s %s\n", FormatLabel("Annual reports:"), FormatCount(stats.TotalReports))
	fmt.Printf("%s %s\n", FormatLabel("Loans:"), FormatCount(stats.TotalLoans))

	if len(stats.LoansByStatus) > 0 {
		fmt.Println()
		fmt.Println(FormatHeader("Loans by status"))
		for _, status := range []string{"PAID", "DUE", "INITIATED"} {
			if count, ok := stats.LoansByStatus[status]; ok {
				fmt.Printf("  %-10s %s\n", status, FormatCount(count))
			}
		}
	}

	fmt.Println()
	fmt.Printf("%s %s\n", FormatLabel("Total due amount:"), FormatValue(fmt.Sprintf("%.2f", stats.TotalDueAmount)))
	fmt.Printf("%s %s\n", FormatLabel("Total credit:"), FormatValue(fmt.Sprintf("%.2f", stats.TotalCredit)))

	if len(stats.TopCompanies) > 0 {
		fmt.Println()
		fmt.Println(FormatHeader("Top companies by credit"))
		for i, report := range stats.TopCompanies {
			fmt.Printf("  %d. %-40s %12.2f\n", i+1, report.CompanyName, report.Credit)
		}
	}

	return nil
}
