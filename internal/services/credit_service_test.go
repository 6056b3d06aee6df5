package services

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/credigo/credigo/internal/db"
	"github.com/credigo/credigo/internal/db/memory"
	"github.com/credigo/credigo/internal/db/postgres"
	"github.com/credigo/credigo/internal/models"
)

func seedCompany(t *testing.T, svc *CompanyService, name string) *models.Company {
	t.Helper()

	company := &models.Company{
		Name:             name,
		Address:          "1 Main St",
		RegistrationDate: models.NewDate(2012, time.May, 4),
		EmployeeCount:    40,
		ContactNumber:    "+15550001111",
		ContactEmail:     "contact@example.com",
	}
	require.NoError(t, svc.CreateCompany(context.Background(), company))
	return company
}

func seedReport(t *testing.T, svc *CompanyService, companyID, fiscalYear string, turnover float64) {
	t.Helper()

	require.NoError(t, svc.CreateReport(context.Background(), &models.AnnualReport{
		CompanyID:      companyID,
		AnnualTurnover: turnover,
		Profit:         turnover / 10,
		FiscalYear:     fiscalYear,
		ReportedDate:   models.NewDate(2023, time.January, 31),
	}))
}

func seedLoan(t *testing.T, svc *CreditService, companyID string, amount float64, status models.LoanStatus) *models.Loan {
	t.Helper()

	loan := &models.Loan{
		CompanyID:    companyID,
		LoanAmount:   amount,
		TakenOn:      models.NewDate(2021, time.June, 1),
		BankProvider: "First Bank",
		LoanStatus:   status,
	}
	require.NoError(t, svc.CreateLoan(context.Background(), loan))
	return loan
}

func TestGetCreditReport(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	companies := NewCompanyService(store)
	credits := NewCreditService(store)

	company := seedCompany(t, companies, "Acme")
	seedReport(t, companies, company.ID, "2020", 1000)
	seedReport(t, companies, company.ID, "2021", 2000.55)
	seedReport(t, companies, company.ID, "2022", 3000)

	seedLoan(t, credits, company.ID, 500.25, models.LoanDue)
	seedLoan(t, credits, company.ID, 9999, models.LoanPaid)
	seedLoan(t, credits, company.ID, 9999, models.LoanInitiated)

	report, err := credits.GetCreditReport(ctx, company.ID)
	require.NoError(t, err)

	// Two most recent years (2021+2022) minus the DUE loan, rounded to 2 places
	assert.Equal(t, company.ID, report.CompanyID)
	assert.Equal(t, "Acme", report.CompanyName)
	assert.InDelta(t, 4500.30, report.Credit, 0.001)
}

func TestGetCreditReportUnknownCompany(t *testing.T) {
	credits := NewCreditService(memory.New())

	_, err := credits.GetCreditReport(context.Background(), "missing")
	assert.ErrorIs(t, err, db.ErrCompanyNotFound)
}

func TestGetCreditReportNoData(t *testing.T) {
	store := memory.New()
	companies := NewCompanyService(store)
	credits := NewCreditService(store)

	company := seedCompany(t, companies, "Fresh Corp")

	report, err := credits.GetCreditReport(context.Background(), company.ID)
	require.NoError(t, err)
	assert.Equal(t, 0.0, report.Credit)
}

func TestListCreditReports(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	companies := NewCompanyService(store)
	credits := NewCreditService(store)

	first := seedCompany(t, companies, "Acme")
	seedReport(t, companies, first.ID, "2021", 1000)
	seedReport(t, companies, first.ID, "2022", 2000)
	seedLoan(t, credits, first.ID, 300, models.LoanDue)

	second := seedCompany(t, companies, "Globex")
	seedReport(t, companies, second.ID, "2022", 500)

	reports, err := credits.ListCreditReports(ctx)
	require.NoError(t, err)
	require.Len(t, reports, 2)

	byName := map[string]float64{}
	for _, report := range reports {
		byName[report.CompanyName] = report.Credit
	}
	assert.Equal(t, 2700.0, byName["Acme"])
	assert.Equal(t, 500.0, byName["Globex"])
}

func TestDeletedLoanExcludedFromCredit(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	companies := NewCompanyService(store)
	credits := NewCreditService(store)

	company := seedCompany(t, companies, "Acme")
	seedReport(t, companies, company.ID, "2022", 1000)
	loan := seedLoan(t, credits, company.ID, 400, models.LoanDue)

	require.NoError(t, credits.DeleteLoan(ctx, company.ID, loan.ID))

	report, err := credits.GetCreditReport(ctx, company.ID)
	require.NoError(t, err)
	assert.Equal(t, 1000.0, report.Credit)
}

func TestUpdateLoanWrongCompany(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	companies := NewCompanyService(store)
	credits := NewCreditService(store)

	owner := seedCompany(t, companies, "Acme")
	other := seedCompany(t, companies, "Globex")
	loan := seedLoan(t, credits, owner.ID, 400, models.LoanDue)

	loan.CompanyID = other.ID
	err := credits.UpdateLoan(ctx, loan)
	assert.ErrorIs(t, err, db.ErrLoanNotFound)
}

func TestCreateLoanValidation(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	companies := NewCompanyService(store)
	credits := NewCreditService(store)

	company := seedCompany(t, companies, "Acme")

	err := credits.CreateLoan(ctx, &models.Loan{
		CompanyID:    company.ID,
		LoanAmount:   -5,
		TakenOn:      models.NewDate(2021, time.June, 1),
		BankProvider: "First Bank",
		LoanStatus:   models.LoanDue,
	})
	assert.Error(t, err)

	err = credits.CreateLoan(ctx, &models.Loan{
		CompanyID:    company.ID,
		LoanAmount:   100,
		TakenOn:      models.NewDate(2021, time.June, 1),
		BankProvider: "First Bank",
		LoanStatus:   "UNKNOWN",
	})
	assert.Error(t, err)
}

func TestGetLoan(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	companies := NewCompanyService(store)
	credits := NewCreditService(store)

	company := seedCompany(t, companies, "Acme")
	loan := seedLoan(t, credits, company.ID, 400, models.LoanDue)

	got, err := credits.GetLoan(ctx, company.ID, loan.ID)
	require.NoError(t, err)
	assert.Equal(t, loan.ID, got.ID)
	assert.Equal(t, 400.0, got.LoanAmount)

	_, err = credits.GetLoan(ctx, "missing", loan.ID)
	assert.ErrorIs(t, err, db.ErrCompanyNotFound)
}

func TestListCreditReportsIncludesInactiveCompanies(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	companies := NewCompanyService(store)
	credits := NewCreditService(store)

	first := seedCompany(t, companies, "Acme")
	seedReport(t, companies, first.ID, "2022", 2000)

	dormant := &models.Company{
		ID:               "dormant001",
		Name:             "Dormant Ltd",
		Address:          "2 Side St",
		RegistrationDate: models.NewDate(2010, time.March, 1),
		EmployeeCount:    5,
		ContactNumber:    "+15550002222",
		ContactEmail:     "office@example.com",
		Active:           false,
	}
	require.NoError(t, store.CreateCompany(ctx, dormant))
	require.NoError(t, store.CreateReport(ctx, &models.AnnualReport{
		CompanyID:      dormant.ID,
		AnnualTurnover: 700,
		FiscalYear:     "2022",
		ReportedDate:   models.NewDate(2023, time.January, 31),
		Active:         true,
	}))

	reports, err := credits.ListCreditReports(ctx)
	require.NoError(t, err)
	require.Len(t, reports, 2)

	byName := map[string]float64{}
	for _, report := range reports {
		byName[report.CompanyName] = report.Credit
	}
	assert.Equal(t, 2000.0, byName["Acme"])
	assert.Equal(t, 700.0, byName["Dormant Ltd"])
}

func TestUpdateLoanReturnsPersistedFields(t *testing.T) {
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer sqlDB.Close()

	credits := NewCreditService(postgres.NewWithDB(sqlDB))

	created := time.Date(2021, time.June, 1, 10, 0, 0, 0, time.UTC)
	loanRows := func(amount float64) *sqlmock.Rows {
		return sqlmock.NewRows([]string{
			"id", "company_id", "loan_amount", "taken_on", "bank_provider",
			"loan_status", "active", "created_at", "updated_at",
		}).AddRow(int64(7), "c1", amount, created, "First Bank", "DUE", true, created, created)
	}
	companyRows := sqlmock.NewRows([]string{
		"id", "name", "address", "registration_date", "employee_count",
		"contact_number", "contact_email", "website", "active", "created_at", "updated_at",
	}).AddRow("c1", "Acme", "1 Main St", created, 40,
		"+15550001111", "contact@example.com", "", true, created, created)

	mock.ExpectQuery("FROM companies WHERE id = ").
		WithArgs("c1").
		WillReturnRows(companyRows)
	mock.ExpectQuery("FROM loans WHERE company_id = ").
		WithArgs("c1", int64(7)).
		WillReturnRows(loanRows(400))
	mock.ExpectExec("UPDATE loans").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery("FROM loans WHERE company_id = ").
		WithArgs("c1", int64(7)).
		WillReturnRows(loanRows(750))

	loan := &models.Loan{
		ID:           7,
		CompanyID:    "c1",
		LoanAmount:   750,
		TakenOn:      models.NewDate(2021, time.June, 1),
		BankProvider: "First Bank",
		LoanStatus:   models.LoanDue,
	}
	require.NoError(t, credits.UpdateLoan(context.Background(), loan))

	// The echoed record carries the stored active flag and timestamps, not
	// the zero values of the request struct.
	assert.True(t, loan.Active)
	assert.Equal(t, created, loan.CreatedAt)
	assert.Equal(t, 750.0, loan.LoanAmount)

	require.NoError(t, mock.ExpectationsWereMet())
}
