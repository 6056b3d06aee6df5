package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/credigo/credigo/internal/services"
)

var seedCompanyCount int

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Load demo data",
	Long:  `Fill the database with generated companies, annual reports and loans.`,
	RunE:  runSeed,
}

func init() {
	seedCmd.Flags().IntVar(&seedCompanyCount, "companies", 10, "number of companies to create")
}

func runSeed(cmd *cobra.Command, args []string) error {
	fmt.Printf("%s🌱 Seeding demo data%s\n", InfoStyle, Reset)
	fmt.Printf("%s====================%s\n", DimStyle, Reset)

	seedService := services.NewSeedService(companyService, creditService)

	result, err := seedService.Seed(context.Background(), seedCompanyCount)
	if err != nil {
		return fmt.Errorf("seeding failed: %w", err)
	}

	fmt.Printf("%s %s\n", FormatLabel("Companies:"), FormatCount(result.Companies))
	fmt.Printf("%s %s\n", FormatLabel("Annual reports:"), FormatCount(result.Reports))
	fmt.Printf("%s %s\n", FormatLabel("Loans:"), FormatCount(result.Loans))
	fmt.Println()
	fmt.Printf("%s🎉 Seeding complete!%s\n", SuccessStyle, Reset)
	return nil
}
