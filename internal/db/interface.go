package db

import (
	"context"
	"errors"

	"github.com/credigo/credigo/internal/models"
	"github.com/credigo/credigo/internal/shared"
)

// Config holds database configuration
type Config struct {
	Provider string            // postgres, sqlite, mongodb, memory
	URI      string            // Connection URI
	Database string            // Database name
	Options  map[string]string // Provider-specific options
}

// Sentinel errors shared by all backends so callers can map them to API responses
var (
	ErrCompanyNotFound = errors.New("company not found")
	ErrLoanNotFound    = errors.New("loan does not exist in the company")
	ErrDuplicateName   = errors.New("another company with same name already exists")
)

// Store defines the interface for credit information persistence.
// Backends: postgres (primary), sqlite, mongodb, memory.
type Store interface {
	// Connection management
	Connect(ctx context.Context) error
	Disconnect(ctx context.Context) error
	Ping(ctx context.Context) error

	// Company operations
	CreateCompany(ctx context.Context, company *models.Company) error
	GetCompany(ctx context.Context, id string) (*models.Company, error)
	ListCompanies(ctx context.Context, active *bool) ([]*models.Company, error)
	UpdateCompany(ctx context.Context, company *models.Company) error

	// Annual report operations
	CreateReport(ctx context.Context, report *models.AnnualReport) error
	ListReports(ctx context.Context, filter shared.ReportFilter) ([]*models.AnnualReport, error)

	// Loan operations
	CreateLoan(ctx context.Context, loan *models.Loan) error
	GetLoan(ctx context.Context, companyID string, loanID int64) (*models.Loan, error)
	ListLoans(ctx context.Context, filter shared.LoanFilter) ([]*models.Loan, error)
	UpdateLoan(ctx context.Context, loan *models.Loan) error
	DeleteLoan(ctx context.Context, companyID string, loanID int64) error

	// Credit aggregates (turnover of the two most recent fiscal years and
	// outstanding due loan amounts, single company and bulk)
	TwoYearTurnover(ctx context.Context, companyID string) (float64, error)
	TwoYearTurnoverByCompany(ctx context.Context, companyIDs []string) (map[string]float64, error)
	TotalDueAmount(ctx context.Context, companyID string) (float64, error)
	TotalDueAmountByCompany(ctx context.Context, companyIDs []string) (map[string]float64, error)
}
