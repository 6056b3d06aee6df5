package cli

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/credigo/credigo/internal/models"
	"github.com/credigo/credigo/internal/shared"
)

var companyCmd = &cobra.Command{
	Use:   "company",
	Short: "Manage companies",
	Long:  `List, inspect and register companies.`,
}

var companyListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all companies",
	RunE:  runCompanyList,
}

var companyShowCmd = &cobra.Command{
	Use:   "show <company-id>",
	Short: "Show a company with its reports and loans",
	Args:  cobra.ExactArgs(1),
	RunE:  runCompanyShow,
}

var companyAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Register a new company",
	RunE:  runCompanyAdd,
}

func init() {
	companyCmd.AddCommand(companyListCmd)
	companyCmd.AddCommand(companyShowCmd)
	companyCmd.AddCommand(companyAddCmd)
}

func runCompanyList(cmd *cobra.Command, args []string) error {
	companies, err := companyService.ListCompanies(context.Background(), nil)
	if err != nil {
		return fmt.Errorf("failed to list companies: %w", err)
	}

	if len(companies) == 0 {
		fmt.Println("No companies found. Register one with 'credigo company add'.")
		return nil
	}

	fmt.Printf("%s🏢 Companies (%d)%s\n", HeaderStyle, len(companies), Reset)
	fmt.Printf("%s=================%s\n", DimStyle, Reset)
	fmt.Println()

	for _, company := range companies {
		status := FormatSuccess("active")
		if !company.Active {
			status = FormatError("inactive")
		}
		fmt.Printf("%s %s (%s)\n", FormatValue(company.Name), FormatMeta(company.ID), status)
		fmt.Printf("  %s\n", FormatDim(fmt.Sprintf("%s · %d employees · registered %s",
			company.Address, company.EmployeeCount, company.RegistrationDate.Format(time.DateOnly))))
	}

	return nil
}

func runCompanyShow(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	companyID := args[0]

	company, err := companyService.GetCompany(ctx, companyID)
	if err != nil {
		return fmt.Errorf("failed to get company: %w", err)
	}

	fmt.Printf("%s🏢 %s%s\n", HeaderStyle, company.Name, Reset)
	fmt.Printf("%s%s%s\n", DimStyle, company.ID, Reset)
	fmt.Println()
	fmt.Printf("%s\n", FormatLabelValue("Address:", company.Address))
	fmt.Printf("%s\n", FormatLabelValue("Registered:", company.RegistrationDate.Format(time.DateOnly)))
	fmt.Printf("%s\n", FormatLabelValue("Employees:", strconv.Itoa(company.EmployeeCount)))
	fmt.Printf("%s\n", FormatLabelValue("Contact:", company.ContactNumber+" / "+company.ContactEmail))
	if company.Website != "" {
		fmt.Printf("%s\n", FormatLabelValue("Website:", company.Website))
	}

	reports, err := companyService.ListReports(ctx, shared.ReportFilter{CompanyID: companyID})
	if err != nil {
		return fmt.Errorf("failed to list reports: %w", err)
	}

	fmt.Println()
	fmt.Printf("%s📈 Annual reports (%d)%s\n", HeaderStyle, len(reports), Reset)
	for _, report := range reports {
		fmt.Printf("  %s turnover %.2f, profit %.2f\n",
			FormatValue(report.FiscalYear), report.AnnualTurnover, report.Profit)
	}

	loans, err := creditService.ListLoans(ctx, shared.LoanFilter{CompanyID: companyID})
	if err != nil {
		return fmt.Errorf("failed to list loans: %w", err)
	}

	fmt.Println()
	fmt.Printf("%s🏦 Loans (%d)%s\n", HeaderStyle, len(loans), Reset)
	for _, loan := range loans {
		status := string(loan.LoanStatus)
		if !loan.Active {
			status += ", deleted"
		}
		fmt.Printf("  #%d %s %.2f from %s (%s)\n",
			loan.ID, FormatDim(loan.TakenOn.Format(time.DateOnly)), loan.LoanAmount, loan.BankProvider, status)
	}

	report, err := creditService.GetCreditReport(ctx, companyID)
	if err != nil {
		return fmt.Errorf("failed to compute credit: %w", err)
	}

	fmt.Println()
	fmt.Printf("%s %s\n", FormatLabel("Credit information:"), FormatValue(fmt.Sprintf("%.2f", report.Credit)))
	return nil
}

func runCompanyAdd(cmd *cobra.Command, args []string) error {
	reader := bufio.NewReader(os.Stdin)

	fmt.Printf("%s🏢 Register a new company%s\n", HeaderStyle, Reset)
	fmt.Printf("%s=========================%s\n", DimStyle, Reset)
	fmt.Println()

	name, err := promptRequired(reader, "Company name: ")
	if err != nil {
		return err
	}

	address, err := promptRequired(reader, "Address: ")
	if err != nil {
		return err
	}

	registrationInput, err := promptWithRetry(reader, "Registration date (YYYY-MM-DD): ", func(input string) (string, error) {
		if _, err := time.Parse(time.DateOnly, input); err != nil {
			return "", fmt.Errorf("invalid date: %s (want YYYY-MM-DD)", input)
		}
		return input, nil
	})
	if err != nil {
		return err
	}
	registrationDate, _ := time.Parse(time.DateOnly, registrationInput)

	employeeInput, err := promptWithRetry(reader, "Employee count: ", func(input string) (string, error) {
		if n, err := strconv.Atoi(input); err != nil || n < 1 {
			return "", fmt.Errorf("invalid employee count: %s", input)
		}
		return input, nil
	})
	if err != nil {
		return err
	}
	employeeCount, _ := strconv.Atoi(employeeInput)

	contactNumber, err := promptRequired(reader, "Contact number: ")
	if err != nil {
		return err
	}

	contactEmail, err := promptRequired(reader, "Contact email: ")
	if err != nil {
		return err
	}

	website, err := promptOptional(reader, "Website (optional): ", "")
	if err != nil {
		return err
	}

	company := &models.Company{
		Name:             name,
		Address:          address,
		RegistrationDate: models.DateOf(registrationDate),
		EmployeeCount:    employeeCount,
		ContactNumber:    contactNumber,
		ContactEmail:     contactEmail,
		Website:          website,
	}

	if err := companyService.CreateCompany(context.Background(), company); err != nil {
		return fmt.Errorf("failed to create company: %w", err)
	}

	fmt.Println()
	fmt.Printf("%s✅ Company registered with ID: %s%s\n", SuccessStyle, company.ID, Reset)
	return nil
}
