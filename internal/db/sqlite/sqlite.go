package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/credigo/credigo/internal/db"
	"github.com/credigo/credigo/internal/models"
	"github.com/credigo/credigo/internal/shared"
)

// SQLite implements the Store interface for SQLite
type SQLite struct {
	db     *sql.DB
	config *db.Config
}

var _ db.Store = (*SQLite)(nil)

// New creates a new SQLite store instance
func New(config *db.Config) (*SQLite, error) {
	return &SQLite{
		config: config,
	}, nil
}

// Connect establishes connection to SQLite
func (s *SQLite) Connect(ctx context.Context) error {
	// Expand the URI path (handle ~ and relative paths)
	dbPath := s.config.URI
	if strings.HasPrefix(dbPath, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return fmt.Errorf("failed to get home directory: %w", err)
		}
		dbPath = filepath.Join(home, dbPath[1:])
	} else if !filepath.IsAbs(dbPath) {
		absPath, err := filepath.Abs(dbPath)
		if err != nil {
			return fmt.Errorf("failed to resolve absolute path: %w", err)
		}
		dbPath = absPath
	}

	// Ensure the directory exists
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create database directory: %w", err)
	}

	sqlDB, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return fmt.Errorf("failed to open SQLite database at path '%s': %w", dbPath, err)
	}

	if err := sqlDB.PingContext(ctx); err != nil {
		return fmt.Errorf("failed to ping SQLite database at path '%s': %w", dbPath, err)
	}

	s.db = sqlDB

	if err := s.createTables(ctx); err != nil {
		return fmt.Errorf("failed to create tables: %w", err)
	}

	return nil
}

// Disconnect closes the SQLite connection
func (s *SQLite) Disconnect(ctx context.Context) error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Ping checks the database connection
func (s *SQLite) Ping(ctx context.Context) error {
	if s.db == nil {
		return fmt.Errorf("not connected to database")
	}
	return s.db.PingContext(ctx)
}

// DB exposes the underlying handle for the migration runner
func (s *SQLite) DB() *sql.DB {
	return s.db
}

// createTables creates necessary tables
func (s *SQLite) createTables(ctx context.Context) error {
	createCompaniesTable := `
	CREATE TABLE IF NOT EXISTS companies (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL UNIQUE,
		address TEXT NOT NULL,
		registration_date DATE NOT NULL,
		employee_count INTEGER NOT NULL,
		contact_number TEXT NOT NULL,
		contact_email TEXT NOT NULL,
		website TEXT,
		active BOOLEAN NOT NULL DEFAULT 1,
		created_at DATETIME NOT NULL,
		updated_at DATETIME NOT NULL
	);`

	createReportsTable := `
	CREATE TABLE IF NOT EXISTS annual_reports (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		company_id TEXT NOT NULL,
		annual_turnover REAL NOT NULL,
		profit REAL NOT NULL,
		fiscal_year TEXT NOT NULL,
		reported_date DATE NOT NULL,
		active BOOLEAN NOT NULL DEFAULT 1,
		created_at DATETIME NOT NULL,
		updated_at DATETIME NOT NULL
	);`

	createLoansTable := `
	CREATE TABLE IF NOT EXISTS loans (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		company_id TEXT NOT NULL,
		loan_amount REAL NOT NULL,
		taken_on DATE NOT NULL,
		bank_provider TEXT NOT NULL,
		loan_status TEXT NOT NULL,
		active BOOLEAN NOT NULL DEFAULT 1,
		created_at DATETIME NOT NULL,
		updated_at DATETIME NOT NULL
	);`

	createIndexes := []string{
		"CREATE INDEX IF NOT EXISTS idx_companies_active ON companies(active);",
		"CREATE INDEX IF NOT EXISTS idx_annual_reports_company ON annual_reports(company_id, fiscal_year);",
		"CREATE INDEX IF NOT EXISTS idx_loans_company ON loans(company_id);",
		"CREATE INDEX IF NOT EXISTS idx_loans_status ON loans(loan_status);",
	}

	queries := []string{createCompaniesTable, createReportsTable, createLoansTable}
	queries = append(queries, createIndexes...)

	for _, query := range queries {
		if _, err := s.db.ExecContext(ctx, query); err != nil {
			return fmt.Errorf("failed to execute query: %w", err)
		}
	}

	return nil
}

// isUniqueViolation reports whether the error is a UNIQUE constraint failure
func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// Company Operations

// CreateCompany creates a new company
func (s *SQLite) CreateCompany(ctx context.Context, company *models.Company) error {
	company.CreatedAt = time.Now()
	company.UpdatedAt = time.Now()

	query := `
		INSERT INTO companies (id, name, address, registration_date, employee_count, contact_number, contact_email, website, active, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	_, err := s.db.ExecContext(ctx, query,
		company.ID,
		company.Name,
		company.Address,
		company.RegistrationDate.Time,
		company.EmployeeCount,
		company.ContactNumber,
		company.ContactEmail,
		company.Website,
		company.Active,
		company.CreatedAt,
		company.UpdatedAt,
	)
	if isUniqueViolation(err) {
		return fmt.Errorf("%w: %s", db.ErrDuplicateName, company.Name)
	}

	return err
}

// GetCompany retrieves an active company by ID
func (s *SQLite) GetCompany(ctx context.Context, id string) (*models.Company, error) {
	query := `
		SELECT id, name, address, registration_date, employee_count, contact_number, contact_email, website, active, created_at, updated_at
		FROM companies WHERE id = ? AND active = 1`

	company, err := s.scanCompany(s.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", db.ErrCompanyNotFound, id)
	}
	if err != nil {
		return nil, err
	}

	return company, nil
}

// ListCompanies lists all companies, optionally filtered by active status
func (s *SQLite) ListCompanies(ctx context.Context, active *bool) ([]*models.Company, error) {
	query := `
		SELECT id, name, address, registration_date, employee_count, contact_number, contact_email, website, active, created_at, updated_at
		FROM companies`
	args := []interface{}{}

	if active != nil {
		query += " WHERE active = ?"
		args = append(args, *active)
	}

	query += " ORDER BY created_at DESC"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var companies []*models.Company
	for rows.Next() {
		company, err := s.scanCompany(rows)
		if err != nil {
			return nil, err
		}
		companies = append(companies, company)
	}

	return companies, rows.Err()
}

// UpdateCompany updates an existing active company
func (s *SQLite) UpdateCompany(ctx context.Context, company *models.Company) error {
	company.UpdatedAt = time.Now()

	query := `
		UPDATE companies
		SET name = ?, address = ?, registration_date = ?, employee_count = ?, contact_number = ?, contact_email = ?, website = ?, updated_at = ?
		WHERE id = ? AND active = 1`

	result, err := s.db.ExecContext(ctx, query,
		company.Name,
		company.Address,
		company.RegistrationDate.Time,
		company.EmployeeCount,
		company.ContactNumber,
		company.ContactEmail,
		company.Website,
		company.UpdatedAt,
		company.ID,
	)
	if isUniqueViolation(err) {
		return fmt.Errorf("%w: %s", db.ErrDuplicateName, company.Name)
	}
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rowsAffected == 0 {
		return fmt.Errorf("%w: %s", db.ErrCompanyNotFound, company.ID)
	}

	return nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func (s *SQLite) scanCompany(row rowScanner) (*models.Company, error) {
	var (
		company models.Company
		regDate time.Time
		website sql.NullString
	)

	err := row.Scan(
		&company.ID,
		&company.Name,
		&company.Address,
		&regDate,
		&company.EmployeeCount,
		&company.ContactNumber,
		&company.ContactEmail,
		&website,
		&company.Active,
		&company.CreatedAt,
		&company.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	company.RegistrationDate = models.DateOf(regDate)
	company.Website = website.String
	return &company, nil
}

// Annual Report Operations

// CreateReport creates a new annual report
func (s *SQLite) CreateReport(ctx context.Context, report *models.AnnualReport) error {
	report.CreatedAt = time.Now()
	report.UpdatedAt = time.Now()

	query := `
		INSERT INTO annual_reports (company_id, annual_turnover, profit, fiscal_year, reported_date, active, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`

	result, err := s.db.ExecContext(ctx, query,
		report.CompanyID,
		report.AnnualTurnover,
		report.Profit,
		report.FiscalYear,
		report.ReportedDate.Time,
		report.Active,
		report.CreatedAt,
		report.UpdatedAt,
	)
	if err != nil {
		return err
	}

	report.ID, err = result.LastInsertId()
	return err
}

// ListReports lists annual reports matching the filter
func (s *SQLite) ListReports(ctx context.Context, filter shared.ReportFilter) ([]*models.AnnualReport, error) {
	query := `
		SELECT id, company_id, annual_turnover, profit, fiscal_year, reported_date, active, created_at, updated_at
		FROM annual_reports WHERE 1=1`
	args := []interface{}{}

	if filter.CompanyID != "" {
		query += " AND company_id = ?"
		args = append(args, filter.CompanyID)
	}
	if filter.FiscalYear != "" {
		query += " AND fiscal_year = ?"
		args = append(args, filter.FiscalYear)
	}

	query += " ORDER BY fiscal_year DESC"

	if filter.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filter.Limit)
	}
	if filter.Offset > 0 {
		query += " OFFSET ?"
		args = append(args, filter.Offset)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var reports []*models.AnnualReport
	for rows.Next() {
		var (
			report  models.AnnualReport
			repDate time.Time
		)
		err := rows.Scan(
			&report.ID,
			&report.CompanyID,
			&report.AnnualTurnover,
			&report.Profit,
			&report.FiscalYear,
			&repDate,
			&report.Active,
			&report.CreatedAt,
			&report.UpdatedAt,
		)
		if err != nil {
			return nil, err
		}
		report.ReportedDate = models.DateOf(repDate)
		reports = append(reports, &report)
	}

	return reports, rows.Err()
}

// Loan Operations

// CreateLoan creates a new loan
func (s *SQLite) CreateLoan(ctx context.Context, loan *models.Loan) error {
	loan.CreatedAt = time.Now()
	loan.UpdatedAt = time.Now()

	query := `
		INSERT INTO loans (company_id, loan_amount, taken_on, bank_provider, loan_status, active, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`

	result, err := s.db.ExecContext(ctx, query,
		loan.CompanyID,
		loan.LoanAmount,
		loan.TakenOn.Time,
		loan.BankProvider,
		string(loan.LoanStatus),
		loan.Active,
		loan.CreatedAt,
		loan.UpdatedAt,
	)
	if err != nil {
		return err
	}

	loan.ID, err = result.LastInsertId()
	return err
}

// GetLoan retrieves a loan that belongs to the given company
func (s *SQLite) GetLoan(ctx context.Context, companyID string, loanID int64) (*models.Loan, error) {
	query := `
		SELECT id, company_id, loan_amount, taken_on, bank_provider, loan_status, active, created_at, updated_at
		FROM loans WHERE company_id = ? AND id = ?`

	loan, err := s.scanLoan(s.db.QueryRowContext(ctx, query, companyID, loanID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %d", db.ErrLoanNotFound, loanID)
	}
	if err != nil {
		return nil, err
	}

	return loan, nil
}

// ListLoans lists loans matching the filter
func (s *SQLite) ListLoans(ctx context.Context, filter shared.LoanFilter) ([]*models.Loan, error) {
	query := `
		SELECT id, company_id, loan_amount, taken_on, bank_provider, loan_status, active, created_at, updated_at
		FROM loans WHERE 1=1`
	args := []interface{}{}

	if filter.CompanyID != "" {
		query += " AND company_id = ?"
		args = append(args, filter.CompanyID)
	}
	if filter.Status != "" {
		query += " AND loan_status = ?"
		args = append(args, string(filter.Status))
	}
	if filter.Active != nil {
		query += " AND active = ?"
		args = append(args, *filter.Active)
	}
	if filter.StartTime != nil {
		query += " AND taken_on >= ?"
		args = append(args, *filter.StartTime)
	}
	if filter.EndTime != nil {
		query += " AND taken_on <= ?"
		args = append(args, *filter.EndTime)
	}

	query += " ORDER BY taken_on DESC"

	if filter.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filter.Limit)
	}
	if filter.Offset > 0 {
		query += " OFFSET ?"
		args = append(args, filter.Offset)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var loans []*models.Loan
	for rows.Next() {
		loan, err := s.scanLoan(rows)
		if err != nil {
			return nil, err
		}
		loans = append(loans, loan)
	}

	return loans, rows.Err()
}

// UpdateLoan updates an existing loan of a company
func (s *SQLite) UpdateLoan(ctx context.Context, loan *models.Loan) error {
	loan.UpdatedAt = time.Now()

	query := `
		UPDATE loans
		SET loan_amount = ?, taken_on = ?, bank_provider = ?, loan_status = ?, updated_at = ?
		WHERE company_id = ? AND id = ?`

	result, err := s.db.ExecContext(ctx, query,
		loan.LoanAmount,
		loan.TakenOn.Time,
		loan.BankProvider,
		string(loan.LoanStatus),
		loan.UpdatedAt,
		loan.CompanyID,
		loan.ID,
	)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rowsAffected == 0 {
		return fmt.Errorf("%w: %d", db.ErrLoanNotFound, loan.ID)
	}

	return nil
}

// DeleteLoan soft deletes a loan of a company
func (s *SQLite) DeleteLoan(ctx context.Context, companyID string, loanID int64) error {
	query := `
		UPDATE loans
		SET active = 0, updated_at = ?
		WHERE company_id = ? AND id = ?`

	result, err := s.db.ExecContext(ctx, query, time.Now(), companyID, loanID)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rowsAffected == 0 {
		return fmt.Errorf("%w: %d", db.ErrLoanNotFound, loanID)
	}

	return nil
}

func (s *SQLite) scanLoan(row rowScanner) (*models.Loan, error) {
	var (
		loan    models.Loan
		takenOn time.Time
		status  string
	)

	err := row.Scan(
		&loan.ID,
		&loan.CompanyID,
		&loan.LoanAmount,
		&takenOn,
		&loan.BankProvider,
		&status,
		&loan.Active,
		&loan.CreatedAt,
		&loan.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	loan.TakenOn = models.DateOf(takenOn)
	loan.LoanStatus = models.LoanStatus(status)
	return &loan, nil
}

// Credit Aggregates

// TwoYearTurnover sums the turnover of the two most recent fiscal years of a company
func (s *SQLite) TwoYearTurnover(ctx context.Context, companyID string) (float64, error) {
	query := `
		SELECT COALESCE(SUM(t.annual_turnover), 0)
		FROM (
			SELECT annual_turnover
			FROM annual_reports
			WHERE company_id = ? AND active = 1
			ORDER BY fiscal_year DESC
			LIMIT 2
		) t`

	var total float64
	if err := s.db.QueryRowContext(ctx, query, companyID).Scan(&total); err != nil {
		return 0, err
	}
	return total, nil
}

// TwoYearTurnoverByCompany sums the two most recent fiscal years per company
func (s *SQLite) TwoYearTurnoverByCompany(ctx context.Context, companyIDs []string) (map[string]float64, error) {
	result := make(map[string]float64)
	for _, companyID := range companyIDs {
		total, err := s.TwoYearTurnover(ctx, companyID)
		if err != nil {
			return nil, err
		}
		if total != 0 {
			result[companyID] = total
		}
	}
	return result, nil
}

// TotalDueAmount sums the outstanding due loan amounts of a company
func (s *SQLite) TotalDueAmount(ctx context.Context, companyID string) (float64, error) {
	query := `
		SELECT COALESCE(SUM(loan_amount), 0)
		FROM loans
		WHERE company_id = ? AND loan_status = ? AND active = 1`

	var total float64
	if err := s.db.QueryRowContext(ctx, query, companyID, string(models.LoanDue)).Scan(&total); err != nil {
		return 0, err
	}
	return total, nil
}

// TotalDueAmountByCompany sums the outstanding due loan amounts per company
func (s *SQLite) TotalDueAmountByCompany(ctx context.Context, companyIDs []string) (map[string]float64, error) {
	result := make(map[string]float64)
	for _, companyID := range companyIDs {
		total, err := s.TotalDueAmount(ctx, companyID)
		if err != nil {
			return nil, err
		}
		if total != 0 {
			result[companyID] = total
		}
	}
	return result, nil
}
