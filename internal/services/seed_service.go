package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/brianvoe/gofakeit/v7"

	"github.com/credigo/credigo/internal/db"
	"github.com/credigo/credigo/internal/models"
)

// SeedService fills the store with generated demo data
type SeedService struct {
	company *CompanyService
	credit  *CreditService
}

// NewSeedService creates a new seed service
func NewSeedService(company *CompanyService, credit *CreditService) *SeedService {
	return &SeedService{company: company, credit: credit}
}

// SeedResult summarizes what a seeding run created
type SeedResult struct {
	Companies int `json:"companies"`
	Reports   int `json:"reports"`
	Loans     int `json:"loans"`
}

var seedFiscalYears = []string{"2020", "2021", "2022"}

var seedLoanStatuses = []models.LoanStatus{
	models.LoanPaid,
	models.LoanDue,
	models.LoanInitiated,
}

// Seed creates the given number of companies, each with an annual report per
// fiscal year and one to five loans
func (s *SeedService) Seed(ctx context.Context, companyCount int) (*SeedResult, error) {
	if companyCount < 1 {
		return nil, fmt.Errorf("company count must be at least 1")
	}

	result := &SeedResult{}

	for i := 0; i < companyCount; i++ {
		company, err := s.seedCompany(ctx)
		if err != nil {
			return result, err
		}
		result.Companies++

		for _, fiscalYear := range seedFiscalYears {
			report := &models.AnnualReport{
				CompanyID:      company.ID,
				AnnualTurnover: gofakeit.Price(100_000, 10_000_000),
				Profit:         gofakeit.Price(10_000, 1_000_000),
				FiscalYear:     fiscalYear,
				ReportedDate: models.DateOf(gofakeit.DateRange(
					time.Date(2020, time.January, 1, 0, 0, 0, 0, time.UTC),
					time.Date(2023, time.June, 30, 0, 0, 0, 0, time.UTC),
				)),
			}
			if err := s.company.CreateReport(ctx, report); err != nil {
				return result, fmt.Errorf("failed to seed report: %w", err)
			}
			result.Reports++
		}

		loanCount := gofakeit.Number(1, 5)
		for j := 0; j < loanCount; j++ {
			loan := &models.Loan{
				CompanyID:  company.ID,
				LoanAmount: gofakeit.Price(10_000, 2_000_000),
				TakenOn: models.DateOf(gofakeit.DateRange(
					time.Date(2019, time.January, 1, 0, 0, 0, 0, time.UTC),
					time.Date(2023, time.June, 30, 0, 0, 0, 0, time.UTC),
				)),
				BankProvider: gofakeit.Company() + " Bank",
				LoanStatus:   seedLoanStatuses[gofakeit.Number(0, len(seedLoanStatuses)-1)],
			}
			if err := s.credit.CreateLoan(ctx, loan); err != nil {
				return result, fmt.Errorf("failed to seed loan: %w", err)
			}
			result.Loans++
		}
	}

	return result, nil
}

// seedCompany creates a generated company, retrying on name collisions
func (s *SeedService) seedCompany(ctx context.Context) (*models.Company, error) {
	for attempt := 0; attempt < 5; attempt++ {
		name := gofakeit.Company()
		if attempt > 0 {
			name = fmt.Sprintf("%s %s", name, gofakeit.LetterN(4))
		}

		company := &models.Company{
			Name:    name,
			Address: gofakeit.Address().Address,
			RegistrationDate: models.DateOf(gofakeit.DateRange(
				time.Date(2000, time.January, 1, 0, 0, 0, 0, time.UTC),
				time.Date(2019, time.December, 31, 0, 0, 0, 0, time.UTC),
			)),
			EmployeeCount: gofakeit.Number(5, 5000),
			ContactNumber: "+1" + gofakeit.Numerify("##########"),
			ContactEmail:  gofakeit.Email(),
			Website:       gofakeit.URL(),
		}

		err := s.company.CreateCompany(ctx, company)
		if err == nil {
			return company, nil
		}
		if !errors.Is(err, db.ErrDuplicateName) {
			return nil, fmt.Errorf("failed to seed company: %w", err)
		}
	}

	return nil, fmt.Errorf("failed to seed company: too many name collisions")
}
