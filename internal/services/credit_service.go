package services

import (
	"context"
	"fmt"
	"math"

	"github.com/credigo/credigo/internal/db"
	"github.com/credigo/credigo/internal/models"
	"github.com/credigo/credigo/internal/shared"
)

// CreditService provides business logic for loans and credit computation
type CreditService struct {
	db db.Store
}

// NewCreditService creates a new credit service
func NewCreditService(store db.Store) *CreditService {
	return &CreditService{db: store}
}

// ValidateLoan validates loan fields before persisting
func (s *CreditService) ValidateLoan(loan *models.Loan) error {
	if loan.LoanAmount <= 0 {
		return fmt.Errorf("loan amount must be positive")
	}
	if loan.TakenOn.IsZero() {
		return fmt.Errorf("loan date is required")
	}
	if loan.BankProvider == "" {
		return fmt.Errorf("bank provider is required")
	}
	if !loan.LoanStatus.Valid() {
		return fmt.Errorf("invalid loan status: %s", loan.LoanStatus)
	}
	return nil
}

// CreateLoan registers a new loan against a company
func (s *CreditService) CreateLoan(ctx context.Context, loan *models.Loan) error {
	if _, err := s.db.GetCompany(ctx, loan.CompanyID); err != nil {
		return err
	}
	if err := s.ValidateLoan(loan); err != nil {
		return err
	}

	loan.Active = true
	return s.db.CreateLoan(ctx, loan)
}

// GetLoan retrieves a loan of a company
func (s *CreditService) GetLoan(ctx context.Context, companyID string, loanID int64) (*models.Loan, error) {
	if _, err := s.db.GetCompany(ctx, companyID); err != nil {
		return nil, err
	}
	return s.db.GetLoan(ctx, companyID, loanID)
}

// ListLoans lists loans matching the filter
func (s *CreditService) ListLoans(ctx context.Context, filter shared.LoanFilter) ([]*models.Loan, error) {
	if filter.CompanyID != "" {
		if _, err := s.db.GetCompany(ctx, filter.CompanyID); err != nil {
			return nil, err
		}
	}
	return s.db.ListLoans(ctx, filter)
}

// UpdateLoan updates an existing loan of a company. On success the loan is
// reloaded from the store so callers see the persisted record, not just the
// fields they sent.
func (s *CreditService) UpdateLoan(ctx context.Context, loan *models.Loan) error {
	if err := s.ValidateLoan(loan); err != nil {
		return err
	}
	if _, err := s.GetLoan(ctx, loan.CompanyID, loan.ID); err != nil {
		return err
	}
	if err := s.db.UpdateLoan(ctx, loan); err != nil {
		return err
	}

	updated, err := s.db.GetLoan(ctx, loan.CompanyID, loan.ID)
	if err != nil {
		return err
	}
	*loan = *updated
	return nil
}

// DeleteLoan soft deletes a loan of a company
func (s *CreditService) DeleteLoan(ctx context.Context, companyID string, loanID int64) error {
	if _, err := s.GetLoan(ctx, companyID, loanID); err != nil {
		return err
	}
	return s.db.DeleteLoan(ctx, companyID, loanID)
}

// GetCreditReport computes the creditworthiness of a single company.
// The turnover and due-amount aggregates run concurrently.
func (s *CreditService) GetCreditReport(ctx context.Context, companyID string) (*models.CreditReport, error) {
	company, err := s.db.GetCompany(ctx, companyID)
	if err != nil {
		return nil, err
	}

	type total struct {
		value float64
		err   error
	}

	turnoverCh := make(chan total, 1)
	dueCh := make(chan total, 1)

	go func() {
		value, err := s.db.TwoYearTurnover(ctx, companyID)
		turnoverCh <- total{value, err}
	}()
	go func() {
		value, err := s.db.TotalDueAmount(ctx, companyID)
		dueCh <- total{value, err}
	}()

	turnover := <-turnoverCh
	if turnover.err != nil {
		return nil, fmt.Errorf("failed to compute turnover: %w", turnover.err)
	}
	due := <-dueCh
	if due.err != nil {
		return nil, fmt.Errorf("failed to compute due amount: %w", due.err)
	}

	return &models.CreditReport{
		CompanyID:   company.ID,
		CompanyName: company.Name,
		Credit:      roundCredit(turnover.value - due.value),
	}, nil
}

// ListCreditReports computes the creditworthiness of every company using the
// bulk per-company aggregates
func (s *CreditService) ListCreditReports(ctx context.Context) ([]*models.CreditReport, error) {
	companies, err := s.db.ListCompanies(ctx, nil)
	if err != nil {
		return nil, err
	}
	if len(companies) == 0 {
		return nil, nil
	}

	companyIDs := make([]string, 0, len(companies))
	for _, company := range companies {
		companyIDs = append(companyIDs, company.ID)
	}

	type totals struct {
		byCompany map[string]float64
		err       error
	}

	turnoverCh := make(chan totals, 1)
	dueCh := make(chan totals, 1)

	go func() {
		byCompany, err := s.db.TwoYearTurnoverByCompany(ctx, companyIDs)
		turnoverCh <- totals{byCompany, err}
	}()
	go func() {
		byCompany, err := s.db.TotalDueAmountByCompany(ctx, companyIDs)
		dueCh <- totals{byCompany, err}
	}()

	turnover := <-turnoverCh
	if turnover.err != nil {
		return nil, fmt.Errorf("failed to compute turnover: %w", turnover.err)
	}
	due := <-dueCh
	if due.err != nil {
		return nil, fmt.Errorf("failed to compute due amounts: %w", due.err)
	}

	reports := make([]*models.CreditReport, 0, len(companies))
	for _, company := range companies {
		reports = append(reports, &models.CreditReport{
			CompanyID:   company.ID,
			CompanyName: company.Name,
			Credit:      roundCredit(turnover.byCompany[company.ID] - due.byCompany[company.ID]),
		})
	}

	return reports, nil
}

// roundCredit rounds a credit value to two decimal places
func roundCredit(value float64) float64 {
	return math.Round(value*100) / 100
}
