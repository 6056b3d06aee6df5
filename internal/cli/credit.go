package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var creditCmd = &cobra.Command{
	Use:   "credit [company-id]",
	Short: "Print credit reports",
	Long:  `Compute and print the credit information of one company, or of every company when no ID is given.`,
	Args:  cobra.MaximumNArgs(1),
	RunE:  runCredit,
}

func runCredit(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	if len(args) == 1 {
		report, err := creditService.GetCreditReport(ctx, args[0])
		if err != nil {
			return fmt.Errorf("failed to compute credit report: %w", err)
		}

		fmt.Printf("%s %s\n", FormatValue(report.CompanyName), FormatMeta(report.CompanyID))
		fmt.Printf("%s %s\n", FormatLabel("Credit information:"), FormatValue(fmt.Sprintf("%.2f", report.Credit)))
		return nil
	}

	reports, err := creditService.ListCreditReports(ctx)
	if err != nil {
		return fmt.Errorf("failed to compute credit reports: %w", err)
	}

	if len(reports) == 0 {
		fmt.Printf("%sNo companies found. Register one with 'credigo company add'.%s\n", SecondaryStyle, Reset)
		return nil
	}

	fmt.Printf("%s💳 Credit reports (%d)%s\n", HeaderStyle, len(reports), Reset)
	fmt.Printf("%s=====================%s\n", DimStyle, Reset)
	fmt.Println()

	for _, report := range reports {
		fmt.Printf("%-40s %s %12.2f\n", FormatValue(report.CompanyName), FormatMeta(report.CompanyID), report.Credit)
	}

	return nil
}
