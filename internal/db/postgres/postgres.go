package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"

	"github.com/credigo/credigo/internal/db"
	"github.com/credigo/credigo/internal/models"
	"github.com/credigo/credigo/internal/shared"
)

// Postgres implements the Store interface for PostgreSQL
type Postgres struct {
	db     *sql.DB
	config *db.Config
}

var _ db.Store = (*Postgres)(nil)

// New creates a new Postgres store instance
func New(config *db.Config) (*Postgres, error) {
	return &Postgres{
		config: config,
	}, nil
}

// NewWithDB wraps an existing database handle; used by tests
func NewWithDB(sqlDB *sql.DB) *Postgres {
	return &Postgres{db: sqlDB}
}

// Connect establishes connection to PostgreSQL
func (p *Postgres) Connect(ctx context.Context) error {
	sqlDB, err := sql.Open("postgres", p.config.URI)
	if err != nil {
		return fmt.Errorf("failed to open postgres connection: %w", err)
	}

	sqlDB.SetMaxOpenConns(10)
	sqlDB.SetMaxIdleConns(5)
	sqlDB.SetConnMaxLifetime(time.Hour)

	if err := sqlDB.PingContext(ctx); err != nil {
		return fmt.Errorf("failed to ping postgres at '%s': %w", p.config.URI, err)
	}

	p.db = sqlDB

	if err := p.createTables(ctx); err != nil {
		return fmt.Errorf("failed to create tables: %w", err)
	}

	return nil
}

// Disconnect closes the PostgreSQL connection
func (p *Postgres) Disconnect(ctx context.Context) error {
	if p.db != nil {
		return p.db.Close()
	}
	return nil
}

// Ping checks the database connection
func (p *Postgres) Ping(ctx context.Context) error {
	if p.db == nil {
		return fmt.Errorf("not connected to database")
	}
	return p.db.PingContext(ctx)
}

// DB exposes the underlying handle for the migration runner
func (p *Postgres) DB() *sql.DB {
	return p.db
}

// createTables creates necessary tables so a fresh database works without
// running the external migrate step first
func (p *Postgres) createTables(ctx context.Context) error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS companies (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL UNIQUE,
			address TEXT NOT NULL,
			registration_date DATE NOT NULL,
			employee_count INTEGER NOT NULL,
			contact_number TEXT NOT NULL,
			contact_email TEXT NOT NULL,
			website TEXT,
			active BOOLEAN NOT NULL DEFAULT TRUE,
			created_at TIMESTAMPTZ NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS annual_reports (
			id BIGSERIAL PRIMARY KEY,
			company_id TEXT NOT NULL REFERENCES companies(id),
			annual_turnover DOUBLE PRECISION NOT NULL,
			profit DOUBLE PRECISION NOT NULL,
			fiscal_year TEXT NOT NULL,
			reported_date DATE NOT NULL,
			active BOOLEAN NOT NULL DEFAULT TRUE,
			created_at TIMESTAMPTZ NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS loans (
			id BIGSERIAL PRIMARY KEY,
			company_id TEXT NOT NULL REFERENCES companies(id),
			loan_amount DOUBLE PRECISION NOT NULL,
			taken_on DATE NOT NULL,
			bank_provider TEXT NOT NULL,
			loan_status TEXT NOT NULL,
			active BOOLEAN NOT NULL DEFAULT TRUE,
			created_at TIMESTAMPTZ NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL
		);`,
		"CREATE INDEX IF NOT EXISTS idx_companies_active ON companies(active);",
		"CREATE INDEX IF NOT EXISTS idx_annual_reports_company ON annual_reports(company_id, fiscal_year DESC);",
		"CREATE INDEX IF NOT EXISTS idx_loans_company ON loans(company_id);",
		"CREATE INDEX IF NOT EXISTS idx_loans_status ON loans(loan_status);",
	}

	for _, query := range queries {
		if _, err := p.db.ExecContext(ctx, query); err != nil {
			return fmt.Errorf("failed to execute query: %w", err)
		}
	}

	return nil
}

// isUniqueViolation reports whether the error is a unique constraint violation
func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23505"
}

// Company Operations

// CreateCompany creates a new company
func (p *Postgres) CreateCompany(ctx context.Context, company *models.Company) error {
	company.CreatedAt = time.Now()
	company.UpdatedAt = time.Now()

	query := `
		INSERT INTO companies (id, name, address, registration_date, employee_count, contact_number, contact_email, website, active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`

	_, err := p.db.ExecContext(ctx, query,
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
func (p *Postgres) GetCompany(ctx context.Context, id string) (*models.Company, error) {
	query := `
		SELECT id, name, address, registration_date, employee_count, contact_number, contact_email, website, active, created_at, updated_at
		FROM companies WHERE id = $1 AND active IS TRUE`

	company, err := p.scanCompany(p.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", db.ErrCompanyNotFound, id)
	}
	if err != nil {
		return nil, err
	}

	return company, nil
}

// ListCompanies lists all companies, optionally filtered by active status
func (p *Postgres) ListCompanies(ctx context.Context, active *bool) ([]*models.Company, error) {
	query := `
		SELECT id, name, address, registration_date, employee_count, contact_number, contact_email, website, active, created_at, updated_at
		FROM companies`
	args := []interface{}{}

	if active != nil {
		query += " WHERE active = $1"
		args = append(args, *active)
	}

	query += " ORDER BY created_at DESC"

	rows, err := p.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var companies []*models.Company
	for rows.Next() {
		company, err := p.scanCompany(rows)
		if err != nil {
			return nil, err
		}
		companies = append(companies, company)
	}

	return companies, rows.Err()
}

// UpdateCompany updates an existing active company
func (p *Postgres) UpdateCompany(ctx context.Context, company *models.Company) error {
	company.UpdatedAt = time.Now()

	query := `
		UPDATE companies
		SET name = $1, address = $2, registration_date = $3, employee_count = $4, contact_number = $5, contact_email = $6, website = $7, updated_at = $8
		WHERE id = $9 AND active IS TRUE`

	result, err := p.db.ExecContext(ctx, query,
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

func (p *Postgres) scanCompany(row rowScanner) (*models.Company, error) {
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
func (p *Postgres) CreateReport(ctx context.Context, report *models.AnnualReport) error {
	report.CreatedAt = time.Now()
	report.UpdatedAt = time.Now()

	query := `
		INSERT INTO annual_reports (company_id, annual_turnover, profit, fiscal_year, reported_date, active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id`

	return p.db.QueryRowContext(ctx, query,
		report.CompanyID,
		report.AnnualTurnover,
		report.Profit,
		report.FiscalYear,
		report.ReportedDate.Time,
		report.Active,
		report.CreatedAt,
		report.UpdatedAt,
	).Scan(&report.ID)
}

// ListReports lists annual reports matching the filter
func (p *Postgres) ListReports(ctx context.Context, filter shared.ReportFilter) ([]*models.AnnualReport, error) {
	query := `
		SELECT id, company_id, annual_turnover, profit, fiscal_year, reported_date, active, created_at, updated_at
		FROM annual_reports WHERE 1=1`
	args := []interface{}{}

	if filter.CompanyID != "" {
		args = append(args, filter.CompanyID)
		query += fmt.Sprintf(" AND company_id = $%d", len(args))
	}
	if filter.FiscalYear != "" {
		args = append(args, filter.FiscalYear)
		query += fmt.Sprintf(" AND fiscal_year = $%d", len(args))
	}

	query += " ORDER BY fiscal_year DESC"

	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}
	if filter.Offset > 0 {
		args = append(args, filter.Offset)
		query += fmt.Sprintf(" OFFSET $%d", len(args))
	}

	rows, err := p.db.QueryContext(ctx, query, args...)
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
func (p *Postgres) CreateLoan(ctx context.Context, loan *models.Loan) error {
	loan.CreatedAt = time.Now()
	loan.UpdatedAt = time.Now()

	query := `
		INSERT INTO loans (company_id, loan_amount, taken_on, bank_provider, loan_status, active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id`

	return p.db.QueryRowContext(ctx, query,
		loan.CompanyID,
		loan.LoanAmount,
		loan.TakenOn.Time,
		loan.BankProvider,
		string(loan.LoanStatus),
		loan.Active,
		loan.CreatedAt,
		loan.UpdatedAt,
	).Scan(&loan.ID)
}

// GetLoan retrieves a loan that belongs to the given company
func (p *Postgres) GetLoan(ctx context.Context, companyID string, loanID int64) (*models.Loan, error) {
	query := `
		SELECT id, company_id, loan_amount, taken_on, bank_provider, loan_status, active, created_at, updated_at
		FROM loans WHERE company_id = $1 AND id = $2`

	loan, err := p.scanLoan(p.db.QueryRowContext(ctx, query, companyID, loanID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %d", db.ErrLoanNotFound, loanID)
	}
	if err != nil {
		return nil, err
	}

	return loan, nil
}

// ListLoans lists loans matching the filter
func (p *Postgres) ListLoans(ctx context.Context, filter shared.LoanFilter) ([]*models.Loan, error) {
	query := `
		SELECT id, company_id, loan_amount, taken_on, bank_provider, loan_status, active, created_at, updated_at
		FROM loans WHERE 1=1`
	args := []interface{}{}

	if filter.CompanyID != "" {
		args = append(args, filter.CompanyID)
		query += fmt.Sprintf(" AND company_id = $%d", len(args))
	}
	if filter.Status != "" {
		args = append(args, string(filter.Status))
		query += fmt.Sprintf(" AND loan_status = $%d", len(args))
	}
	if filter.Active != nil {
		args = append(args, *filter.Active)
		query += fmt.Sprintf(" AND active = $%d", len(args))
	}
	if filter.StartTime != nil {
		args = append(args, *filter.StartTime)
		query += fmt.Sprintf(" AND taken_on >= $%d", len(args))
	}
	if filter.EndTime != nil {
		args = append(args, *filter.EndTime)
		query += fmt.Sprintf(" AND taken_on <= $%d", len(args))
	}

	query += " ORDER BY taken_on DESC"

	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}
	if filter.Offset > 0 {
		args = append(args, filter.Offset)
		query += fmt.Sprintf(" OFFSET $%d", len(args))
	}

	rows, err := p.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var loans []*models.Loan
	for rows.Next() {
		loan, err := p.scanLoan(rows)
		if err != nil {
			return nil, err
		}
		loans = append(loans, loan)
	}

	return loans, rows.Err()
}

// UpdateLoan updates an existing loan of a company
func (p *Postgres) UpdateLoan(ctx context.Context, loan *models.Loan) error {
	loan.UpdatedAt = time.Now()

	query := `
		UPDATE loans
		SET loan_amount = $1, taken_on = $2, bank_provider = $3, loan_status = $4, updated_at = $5
		WHERE company_id = $6 AND id = $7`

	result, err := p.db.ExecContext(ctx, query,
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
func (p *Postgres) DeleteLoan(ctx context.Context, companyID string, loanID int64) error {
	query := `
		UPDATE loans
		SET active = FALSE, updated_at = $1
		WHERE company_id = $2 AND id = $3`

	result, err := p.db.ExecContext(ctx, query, time.Now(), companyID, loanID)
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

func (p *Postgres) scanLoan(row rowScanner) (*models.Loan, error) {
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
func (p *Postgres) TwoYearTurnover(ctx context.Context, companyID string) (float64, error) {
	query := `
		SELECT COALESCE(SUM(t.annual_turnover), 0)
		FROM (
			SELECT annual_turnover
			FROM annual_reports
			WHERE company_id = $1 AND active IS TRUE
			ORDER BY fiscal_year DESC
			LIMIT 2
		) t`

	var total float64
	if err := p.db.QueryRowContext(ctx, query, companyID).Scan(&total); err != nil {
		return 0, err
	}
	return total, nil
}

// TwoYearTurnoverByCompany sums the two most recent fiscal years per company
// using a window function over the report rows
func (p *Postgres) TwoYearTurnoverByCompany(ctx context.Context, companyIDs []string) (map[string]float64, error) {
	query := `
		SELECT company_id, SUM(annual_turnover)
		FROM (
			SELECT company_id, annual_turnover,
			       ROW_NUMBER() OVER (PARTITION BY company_id ORDER BY fiscal_year DESC) AS rank
			FROM annual_reports
			WHERE company_id = ANY($1) AND active IS TRUE
		) ranked
		WHERE rank <= 2
		GROUP BY company_id`

	rows, err := p.db.QueryContext(ctx, query, pq.Array(companyIDs))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := make(map[string]float64)
	for rows.Next() {
		var (
			companyID string
			total     float64
		)
		if err := rows.Scan(&companyID, &total); err != nil {
			return nil, err
		}
		result[companyID] = total
	}

	return result, rows.Err()
}

// TotalDueAmount sums the outstanding due loan amounts of a company
func (p *Postgres) TotalDueAmount(ctx context.Context, companyID string) (float64, error) {
	query := `
		SELECT COALESCE(SUM(loan_amount), 0)
		FROM loans
		WHERE company_id = $1 AND loan_status = $2 AND active IS TRUE`

	var total float64
	if err := p.db.QueryRowContext(ctx, query, companyID, string(models.LoanDue)).Scan(&total); err != nil {
		return 0, err
	}
	return total, nil
}

// TotalDueAmountByCompany sums the outstanding due loan amounts per company
func (p *Postgres) TotalDueAmountByCompany(ctx context.Context, companyIDs []string) (map[string]float64, error) {
	query := `
		SELECT company_id, SUM(loan_amount)
		FROM loans
		WHERE company_id = ANY($1) AND loan_status = $2 AND active IS TRUE
		GROUP BY company_id`

	rows, err := p.db.QueryContext(ctx, query, pq.Array(companyIDs), string(models.LoanDue))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := make(map[string]float64)
	for rows.Next() {
		var (
			companyID string
			total     float64
		)
		if err := rows.Scan(&companyID, &total); err != nil {
			return nil, err
		}
		result[companyID] = total
	}

	return result, rows.Err()
}
