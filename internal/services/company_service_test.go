package services

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/credigo/credigo/internal/db/memory"
	"github.com/credigo/credigo/internal/db/postgres"
	"github.com/credigo/credigo/internal/models"
)

func TestValidateCompany(t *testing.T) {
	svc := NewCompanyService(memory.New())

	valid := &models.Company{
		Name:             "Acme",
		Address:          "1 Main St",
		RegistrationDate: models.NewDate(2012, time.May, 4),
		EmployeeCount:    40,
		ContactNumber:    "+15550001111",
		ContactEmail:     "contact@example.com",
	}
	assert.NoError(t, svc.ValidateCompany(valid))

	missingName := *valid
	missingName.Name = "  "
	assert.Error(t, svc.ValidateCompany(&missingName))

	noEmployees := *valid
	noEmployees.EmployeeCount = 0
	assert.Error(t, svc.ValidateCompany(&noEmployees))
}

func TestUpdateCompanyReturnsPersistedFields(t *testing.T) {
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer sqlDB.Close()

	companies := NewCompanyService(postgres.NewWithDB(sqlDB))

	created := time.Date(2020, time.February, 2, 9, 0, 0, 0, time.UTC)
	companyRows := sqlmock.NewRows([]string{
		"id", "name", "address", "registration_date", "employee_count",
		"contact_number", "contact_email", "website", "active", "created_at", "updated_at",
	}).AddRow("c1", "Acme Renamed", "1 Main St", created, 45,
		"+15550001111", "contact@example.com", "", true, created, time.Now())

	mock.ExpectExec("UPDATE companies").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery("FROM companies WHERE id = ").
		WithArgs("c1").
		WillReturnRows(companyRows)

	company := &models.Company{
		ID:               "c1",
		Name:             "Acme Renamed",
		Address:          "1 Main St",
		RegistrationDate: models.NewDate(2012, time.May, 4),
		EmployeeCount:    45,
		ContactNumber:    "+15550001111",
		ContactEmail:     "contact@example.com",
	}
	require.NoError(t, companies.UpdateCompany(context.Background(), company))

	// The echoed record carries the stored active flag and timestamps, not
	// the zero values of the request struct.
	assert.True(t, company.Active)
	assert.Equal(t, created, company.CreatedAt)

	require.NoError(t, mock.ExpectationsWereMet())
}
