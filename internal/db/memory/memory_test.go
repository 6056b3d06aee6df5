package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/credigo/credigo/internal/db"
	"github.com/credigo/credigo/internal/models"
	"github.com/credigo/credigo/internal/shared"
)

func newCompany(id, name string) *models.Company {
	return &models.Company{
		ID:               id,
		Name:             name,
		Address:          "1 Main St",
		RegistrationDate: models.NewDate(2010, time.March, 15),
		EmployeeCount:    25,
		ContactNumber:    "+15550001111",
		ContactEmail:     "contact@example.com",
		Active:           true,
	}
}

func TestCompanyLifecycle(t *testing.T) {
	ctx := context.Background()
	store := New()

	if err := store.CreateCompany(ctx, newCompany("c1", "Acme")); err != nil {
		t.Fatalf("create company: %v", err)
	}

	err := store.CreateCompany(ctx, newCompany("c2", "Acme"))
	if !errors.Is(err, db.ErrDuplicateName) {
		t.Fatalf("expected ErrDuplicateName, got %v", err)
	}

	company, err := store.GetCompany(ctx, "c1")
	if err != nil {
		t.Fatalf("get company: %v", err)
	}
	if company.Name != "Acme" {
		t.Fatalf("expected name Acme, got %s", company.Name)
	}

	if _, err := store.GetCompany(ctx, "missing"); !errors.Is(err, db.ErrCompanyNotFound) {
		t.Fatalf("expected ErrCompanyNotFound, got %v", err)
	}

	company.Address = "2 Side St"
	if err := store.UpdateCompany(ctx, company); err != nil {
		t.Fatalf("update company: %v", err)
	}

	updated, err := store.GetCompany(ctx, "c1")
	if err != nil {
		t.Fatalf("get updated company: %v", err)
	}
	if updated.Address != "2 Side St" {
		t.Fatalf("expected updated address, got %s", updated.Address)
	}
	if updated.CreatedAt.IsZero() {
		t.Fatal("expected created_at to be preserved")
	}
}

func TestGetCompanyFiltersInactive(t *testing.T) {
	ctx := context.Background()
	store := New()

	inactive := newCompany("c1", "Ghost Corp")
	inactive.Active = false
	if err := store.CreateCompany(ctx, inactive); err != nil {
		t.Fatalf("create company: %v", err)
	}

	if _, err := store.GetCompany(ctx, "c1"); !errors.Is(err, db.ErrCompanyNotFound) {
		t.Fatalf("expected ErrCompanyNotFound for inactive company, got %v", err)
	}

	// The unfiltered list still includes it
	companies, err := store.ListCompanies(ctx, nil)
	if err != nil {
		t.Fatalf("list companies: %v", err)
	}
	if len(companies) != 1 {
		t.Fatalf("expected 1 company in list, got %d", len(companies))
	}

	active := true
	companies, err = store.ListCompanies(ctx, &active)
	if err != nil {
		t.Fatalf("list active companies: %v", err)
	}
	if len(companies) != 0 {
		t.Fatalf("expected no active companies, got %d", len(companies))
	}
}

func TestLoanSoftDelete(t *testing.T) {
	ctx := context.Background()
	store := New()

	if err := store.CreateCompany(ctx, newCompany("c1", "Acme")); err != nil {
		t.Fatalf("create company: %v", err)
	}

	loan := &models.Loan{
		CompanyID:    "c1",
		LoanAmount:   50000,
		TakenOn:      models.NewDate(2021, time.June, 1),
		BankProvider: "First Bank",
		LoanStatus:   models.LoanDue,
		Active:       true,
	}
	if err := store.CreateLoan(ctx, loan); err != nil {
		t.Fatalf("create loan: %v", err)
	}
	if loan.ID == 0 {
		t.Fatal("expected loan ID to be assigned")
	}

	if err := store.DeleteLoan(ctx, "other", loan.ID); !errors.Is(err, db.ErrLoanNotFound) {
		t.Fatalf("expected ErrLoanNotFound for wrong company, got %v", err)
	}

	if err := store.DeleteLoan(ctx, "c1", loan.ID); err != nil {
		t.Fatalf("delete loan: %v", err)
	}

	// Soft delete keeps the row but flips active
	deleted, err := store.GetLoan(ctx, "c1", loan.ID)
	if err != nil {
		t.Fatalf("get deleted loan: %v", err)
	}
	if deleted.Active {
		t.Fatal("expected loan to be inactive after delete")
	}

	total, err := store.TotalDueAmount(ctx, "c1")
	if err != nil {
		t.Fatalf("total due: %v", err)
	}
	if total != 0 {
		t.Fatalf("expected deleted loan excluded from due total, got %f", total)
	}
}

func TestTwoYearTurnover(t *testing.T) {
	ctx := context.Background()
	store := New()

	if err := store.CreateCompany(ctx, newCompany("c1", "Acme")); err != nil {
		t.Fatalf("create company: %v", err)
	}

	for year, turnover := range map[string]float64{
		"2020": 100,
		"2021": 200,
		"2022": 400,
	} {
		report := &models.AnnualReport{
			CompanyID:      "c1",
			AnnualTurnover: turnover,
			FiscalYear:     year,
			ReportedDate:   models.NewDate(2023, time.January, 31),
			Active:         true,
		}
		if err := store.CreateReport(ctx, report); err != nil {
			t.Fatalf("create report: %v", err)
		}
	}

	total, err := store.TwoYearTurnover(ctx, "c1")
	if err != nil {
		t.Fatalf("two year turnover: %v", err)
	}
	if total != 600 {
		t.Fatalf("expected turnover 600 (2021+2022), got %f", total)
	}

	totals, err := store.TwoYearTurnoverByCompany(ctx, []string{"c1", "missing"})
	if err != nil {
		t.Fatalf("bulk turnover: %v", err)
	}
	if totals["c1"] != 600 {
		t.Fatalf("expected bulk turnover 600, got %f", totals["c1"])
	}
	if _, ok := totals["missing"]; ok {
		t.Fatal("expected no entry for unknown company")
	}
}

func TestListLoansFilters(t *testing.T) {
	ctx := context.Background()
	store := New()

	if err := store.CreateCompany(ctx, newCompany("c1", "Acme")); err != nil {
		t.Fatalf("create company: %v", err)
	}

	statuses := []models.LoanStatus{models.LoanDue, models.LoanPaid, models.LoanDue}
	for i, status := range statuses {
		loan := &models.Loan{
			CompanyID:    "c1",
			LoanAmount:   float64(1000 * (i + 1)),
			TakenOn:      models.NewDate(2021, time.Month(i+1), 1),
			BankProvider: "First Bank",
			LoanStatus:   status,
			Active:       true,
		}
		if err := store.CreateLoan(ctx, loan); err != nil {
			t.Fatalf("create loan: %v", err)
		}
	}

	due, err := store.ListLoans(ctx, shared.LoanFilter{CompanyID: "c1", Status: models.LoanDue})
	if err != nil {
		t.Fatalf("list due loans: %v", err)
	}
	if len(due) != 2 {
		t.Fatalf("expected 2 due loans, got %d", len(due))
	}

	windowed, err := store.ListLoans(ctx, shared.LoanFilter{CompanyID: "c1", Limit: 1, Offset: 1})
	if err != nil {
		t.Fatalf("list windowed loans: %v", err)
	}
	if len(windowed) != 1 {
		t.Fatalf("expected 1 loan in window, got %d", len(windowed))
	}
}
