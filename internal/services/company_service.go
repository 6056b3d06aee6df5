package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/credigo/credigo/internal/db"
	"github.com/credigo/credigo/internal/models"
	"github.com/credigo/credigo/internal/shared"
)

// CompanyService provides business logic for company management
type CompanyService struct {
	db db.Store
}

// NewCompanyService creates a new company service
func NewCompanyService(store db.Store) *CompanyService {
	return &CompanyService{db: store}
}

// ValidateCompany validates company fields before persisting
func (s *CompanyService) ValidateCompany(company *models.Company) error {
	if strings.TrimSpace(company.Name) == "" {
		return fmt.Errorf("company name is required")
	}
	if strings.TrimSpace(company.Address) == "" {
		return fmt.Errorf("company address is required")
	}
	if company.RegistrationDate.IsZero() {
		return fmt.Errorf("registration date is required")
	}
	if company.EmployeeCount < 1 {
		return fmt.Errorf("employee count must be at least 1")
	}
	if strings.TrimSpace(company.ContactNumber) == "" {
		return fmt.Errorf("contact number is required")
	}
	if strings.TrimSpace(company.ContactEmail) == "" {
		return fmt.Errorf("contact email is required")
	}
	return nil
}

// CreateCompany registers a new company and assigns its ID
func (s *CompanyService) CreateCompany(ctx context.Context, company *models.Company) error {
	if err := s.ValidateCompany(company); err != nil {
		return err
	}

	id, err := shared.NewCompanyID()
	if err != nil {
		return fmt.Errorf("failed to generate company ID: %w", err)
	}

	company.ID = id
	company.Active = true

	return s.db.CreateCompany(ctx, company)
}

// GetCompany retrieves an active company by ID
func (s *CompanyService) GetCompany(ctx context.Context, id string) (*models.Company, error) {
	return s.db.GetCompany(ctx, id)
}

// ListCompanies lists companies, optionally filtered by active status
func (s *CompanyService) ListCompanies(ctx context.Context, active *bool) ([]*models.Company, error) {
	return s.db.ListCompanies(ctx, active)
}

// UpdateCompany updates an existing company's details. On success the company
// is reloaded from the store so callers see the persisted record, not just the
// fields they sent.
func (s *CompanyService) UpdateCompany(ctx context.Context, company *models.Company) error {
	if err := s.ValidateCompany(company); err != nil {
		return err
	}
	if err := s.db.UpdateCompany(ctx, company); err != nil {
		return err
	}

	updated, err := s.db.GetCompany(ctx, company.ID)
	if err != nil {
		return err
	}
	*company = *updated
	return nil
}

// CreateReport files an annual report for a company
func (s *CompanyService) CreateReport(ctx context.Context, report *models.AnnualReport) error {
	if _, err := s.db.GetCompany(ctx, report.CompanyID); err != nil {
		return err
	}
	if strings.TrimSpace(report.FiscalYear) == "" {
		return fmt.Errorf("fiscal year is required")
	}
	if report.AnnualTurnover < 0 {
		return fmt.Errorf("annual turnover cannot be negative")
	}

	report.Active = true
	return s.db.CreateReport(ctx, report)
}

// ListReports lists annual reports of a company
func (s *CompanyService) ListReports(ctx context.Context, filter shared.ReportFilter) ([]*models.AnnualReport, error) {
	if filter.CompanyID != "" {
		if _, err := s.db.GetCompany(ctx, filter.CompanyID); err != nil {
			return nil, err
		}
	}
	return s.db.ListReports(ctx, filter)
}
