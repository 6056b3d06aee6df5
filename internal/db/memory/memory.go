package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/credigo/credigo/internal/db"
	"github.com/credigo/credigo/internal/models"
	"github.com/credigo/credigo/internal/shared"
)

// Memory implements the Store interface with in-process maps.
// It backs tests and the zero-setup quickstart provider.
type Memory struct {
	mu           sync.RWMutex
	companies    map[string]*models.Company
	reports      map[int64]*models.AnnualReport
	loans        map[int64]*models.Loan
	nextReportID int64
	nextLoanID   int64
}

var _ db.Store = (*Memory)(nil)

// New creates a new in-memory store instance
func New() *Memory {
	return &Memory{
		companies: make(map[string]*models.Company),
		reports:   make(map[int64]*models.AnnualReport),
		loans:     make(map[int64]*models.Loan),
	}
}

// Connect is a no-op for the in-memory store
func (m *Memory) Connect(ctx context.Context) error {
	return nil
}

// Disconnect is a no-op for the in-memory store
func (m *Memory) Disconnect(ctx context.Context) error {
	return nil
}

// Ping is a no-op for the in-memory store
func (m *Memory) Ping(ctx context.Context) error {
	return nil
}

// Company Operations

// CreateCompany creates a new company
func (m *Memory) CreateCompany(ctx context.Context, company *models.Company) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, existing := range m.companies {
		if existing.Name == company.Name {
			return fmt.Errorf("%w: %s", db.ErrDuplicateName, company.Name)
		}
	}

	company.CreatedAt = time.Now()
	company.UpdatedAt = time.Now()

	stored := *company
	m.companies[company.ID] = &stored
	return nil
}

// GetCompany retrieves an active company by ID
func (m *Memory) GetCompany(ctx context.Context, id string) (*models.Company, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	company, ok := m.companies[id]
	if !ok || !company.Active {
		return nil, fmt.Errorf("%w: %s", db.ErrCompanyNotFound, id)
	}

	copied := *company
	return &copied, nil
}

// ListCompanies lists all companies, optionally filtered by active status
func (m *Memory) ListCompanies(ctx context.Context, active *bool) ([]*models.Company, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var companies []*models.Company
	for _, company := range m.companies {
		if active != nil && company.Active != *active {
			continue
		}
		copied := *company
		companies = append(companies, &copied)
	}

	sort.Slice(companies, func(i, j int) bool {
		return companies[i].CreatedAt.After(companies[j].CreatedAt)
	})

	return companies, nil
}

// UpdateCompany updates an existing active company
func (m *Memory) UpdateCompany(ctx context.Context, company *models.Company) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	existing, ok := m.companies[company.ID]
	if !ok || !existing.Active {
		return fmt.Errorf("%w: %s", db.ErrCompanyNotFound, company.ID)
	}

	for id, other := range m.companies {
		if id != company.ID && other.Name == company.Name {
			return fmt.Errorf("%w: %s", db.ErrDuplicateName, company.Name)
		}
	}

	company.CreatedAt = existing.CreatedAt
	company.Active = existing.Active
	company.UpdatedAt = time.Now()

	stored := *company
	m.companies[company.ID] = &stored
	return nil
}

// Annual Report Operations

// CreateReport creates a new annual report
func (m *Memory) CreateReport(ctx context.Context, report *models.AnnualReport) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.nextReportID++
	report.ID = m.nextReportID
	report.CreatedAt = time.Now()
	report.UpdatedAt = time.Now()

	stored := *report
	m.reports[report.ID] = &stored
	return nil
}

// ListReports lists annual reports matching the filter
func (m *Memory) ListReports(ctx context.Context, filter shared.ReportFilter) ([]*models.AnnualReport, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var reports []*models.AnnualReport
	for _, report := range m.reports {
		if filter.CompanyID != "" && report.CompanyID != filter.CompanyID {
			continue
		}
		if filter.FiscalYear != "" && report.FiscalYear != filter.FiscalYear {
			continue
		}
		copied := *report
		reports = append(reports, &copied)
	}

	sort.Slice(reports, func(i, j int) bool {
		return reports[i].FiscalYear > reports[j].FiscalYear
	})

	return applyWindow(reports, filter.Limit, filter.Offset), nil
}

// Loan Operations

// CreateLoan creates a new loan
func (m *Memory) CreateLoan(ctx context.Context, loan *models.Loan) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.nextLoanID++
	loan.ID = m.nextLoanID
	loan.CreatedAt = time.Now()
	loan.UpdatedAt = time.Now()

	stored := *loan
	m.loans[loan.ID] = &stored
	return nil
}

// GetLoan retrieves a loan that belongs to the given company
func (m *Memory) GetLoan(ctx context.Context, companyID string, loanID int64) (*models.Loan, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	loan, ok := m.loans[loanID]
	if !ok || loan.CompanyID != companyID {
		return nil, fmt.Errorf("%w: %d", db.ErrLoanNotFound, loanID)
	}

	copied := *loan
	return &copied, nil
}

// ListLoans lists loans matching the filter
func (m *Memory) ListLoans(ctx context.Context, filter shared.LoanFilter) ([]*models.Loan, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var loans []*models.Loan
	for _, loan := range m.loans {
		if filter.CompanyID != "" && loan.CompanyID != filter.CompanyID {
			continue
		}
		if filter.Status != "" && loan.LoanStatus != filter.Status {
			continue
		}
		if filter.Active != nil && loan.Active != *filter.Active {
			continue
		}
		if filter.StartTime != nil && loan.TakenOn.Before(*filter.StartTime) {
			continue
		}
		if filter.EndTime != nil && loan.TakenOn.After(*filter.EndTime) {
			continue
		}
		copied := *loan
		loans = append(loans, &copied)
	}

	sort.Slice(loans, func(i, j int) bool {
		return loans[i].TakenOn.After(loans[j].TakenOn.Time)
	})

	return applyWindow(loans, filter.Limit, filter.Offset), nil
}

// UpdateLoan updates an existing loan of a company
func (m *Memory) UpdateLoan(ctx context.Context, loan *models.Loan) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	existing, ok := m.loans[loan.ID]
	if !ok || existing.CompanyID != loan.CompanyID {
		return fmt.Errorf("%w: %d", db.ErrLoanNotFound, loan.ID)
	}

	loan.CreatedAt = existing.CreatedAt
	loan.Active = existing.Active
	loan.UpdatedAt = time.Now()

	stored := *loan
	m.loans[loan.ID] = &stored
	return nil
}

// DeleteLoan soft deletes a loan of a company
func (m *Memory) DeleteLoan(ctx context.Context, companyID string, loanID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	loan, ok := m.loans[loanID]
	if !ok || loan.CompanyID != companyID {
		return fmt.Errorf("%w: %d", db.ErrLoanNotFound, loanID)
	}

	loan.Active = false
	loan.UpdatedAt = time.Now()
	return nil
}

// Credit Aggregates

// TwoYearTurnover sums the turnover of the two most recent fiscal years of a company
func (m *Memory) TwoYearTurnover(ctx context.Context, companyID string) (float64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return m.twoYearTurnoverLocked(companyID), nil
}

// TwoYearTurnoverByCompany sums the two most recent fiscal years per company
func (m *Memory) TwoYearTurnoverByCompany(ctx context.Context, companyIDs []string) (map[string]float64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make(map[string]float64)
	for _, companyID := range companyIDs {
		if total := m.twoYearTurnoverLocked(companyID); total != 0 {
			result[companyID] = total
		}
	}
	return result, nil
}

func (m *Memory) twoYearTurnoverLocked(companyID string) float64 {
	var reports []*models.AnnualReport
	for _, report := range m.reports {
		if report.CompanyID == companyID && report.Active {
			reports = append(reports, report)
		}
	}

	sort.Slice(reports, func(i, j int) bool {
		return reports[i].FiscalYear > reports[j].FiscalYear
	})

	var total float64
	for i, report := range reports {
		if i >= 2 {
			break
		}
		total += report.AnnualTurnover
	}
	return total
}

// TotalDueAmount sums the outstanding due loan amounts of a company
func (m *Memory) TotalDueAmount(ctx context.Context, companyID string) (float64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return m.totalDueLocked(companyID), nil
}

// TotalDueAmountByCompany sums the outstanding due loan amounts per company
func (m *Memory) TotalDueAmountByCompany(ctx context.Context, companyIDs []string) (map[string]float64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make(map[string]float64)
	for _, companyID := range companyIDs {
		if total := m.totalDueLocked(companyID); total != 0 {
			result[companyID] = total
		}
	}
	return result, nil
}

func (m *Memory) totalDueLocked(companyID string) float64 {
	var total float64
	for _, loan := range m.loans {
		if loan.CompanyID == companyID && loan.LoanStatus == models.LoanDue && loan.Active {
			total += loan.LoanAmount
		}
	}
	return total
}

func applyWindow[T any](items []T, limit, offset int) []T {
	if offset > 0 {
		if offset >= len(items) {
			return nil
		}
		items = items[offset:]
	}
	if limit > 0 && limit < len(items) {
		items = items[:limit]
	}
	return items
}
