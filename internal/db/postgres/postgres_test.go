package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"

	"github.com/credigo/credigo/internal/db"
	"github.com/credigo/credigo/internal/models"
)

func newMockStore(t *testing.T) (*Postgres, sqlmock.Sqlmock) {
	t.Helper()

	sqlDB, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock new: %v", err)
	}
	t.Cleanup(func() { sqlDB.Close() })

	return NewWithDB(sqlDB), mock
}

func TestTwoYearTurnover(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectQuery(`SELECT COALESCE\(SUM\(t.annual_turnover\), 0\)`).
		WithArgs("c1").
		WillReturnRows(sqlmock.NewRows([]string{"coalesce"}).AddRow(5000.5))

	total, err := store.TwoYearTurnover(context.Background(), "c1")
	if err != nil {
		t.Fatalf("two year turnover: %v", err)
	}
	if total != 5000.5 {
		t.Fatalf("expected 5000.5, got %f", total)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestTwoYearTurnoverByCompany(t *testing.T) {
	store, mock := newMockStore(t)

	rows := sqlmock.NewRows([]string{"company_id", "sum"}).
		AddRow("c1", 3000.0).
		AddRow("c2", 750.0)

	mock.ExpectQuery(`ROW_NUMBER\(\) OVER \(PARTITION BY company_id ORDER BY fiscal_year DESC\)`).
		WithArgs(pq.Array([]string{"c1", "c2", "c3"})).
		WillReturnRows(rows)

	totals, err := store.TwoYearTurnoverByCompany(context.Background(), []string{"c1", "c2", "c3"})
	if err != nil {
		t.Fatalf("bulk turnover: %v", err)
	}

	if totals["c1"] != 3000 || totals["c2"] != 750 {
		t.Fatalf("unexpected totals: %v", totals)
	}
	if _, ok := totals["c3"]; ok {
		t.Fatal("expected no entry for company without reports")
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestTotalDueAmount(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectQuery(`SELECT COALESCE\(SUM\(loan_amount\), 0\)`).
		WithArgs("c1", "DUE").
		WillReturnRows(sqlmock.NewRows([]string{"coalesce"}).AddRow(1200.0))

	total, err := store.TotalDueAmount(context.Background(), "c1")
	if err != nil {
		t.Fatalf("total due: %v", err)
	}
	if total != 1200 {
		t.Fatalf("expected 1200, got %f", total)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestCreateCompanyDuplicateName(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectExec("INSERT INTO companies").
		WillReturnError(&pq.Error{Code: "23505"})

	err := store.CreateCompany(context.Background(), &models.Company{
		ID:               "c1",
		Name:             "Acme",
		Address:          "1 Main St",
		RegistrationDate: models.NewDate(2012, time.May, 4),
		EmployeeCount:    40,
		ContactNumber:    "+15550001111",
		ContactEmail:     "contact@example.com",
		Active:           true,
	})
	if !errors.Is(err, db.ErrDuplicateName) {
		t.Fatalf("expected ErrDuplicateName, got %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestGetCompanyNotFound(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectQuery("FROM companies WHERE id = ").
		WithArgs("missing").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, err := store.GetCompany(context.Background(), "missing")
	if !errors.Is(err, db.ErrCompanyNotFound) {
		t.Fatalf("expected ErrCompanyNotFound, got %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestDeleteLoanNotFound(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectExec("UPDATE loans").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := store.DeleteLoan(context.Background(), "c1", 42)
	if !errors.Is(err, db.ErrLoanNotFound) {
		t.Fatalf("expected ErrLoanNotFound, got %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}
