package models

import (
	"time"
)

// APIResponse is the common response envelope
type APIResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Message string      `json:"message,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// Pagination describes the page window of a paginated response
type Pagination struct {
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"total_pages"`
}

// PaginatedResponse wraps list data with pagination metadata
type PaginatedResponse struct {
	Data       interface{} `json:"data"`
	Pagination Pagination  `json:"pagination"`
}

// CreateCompanyRequest is the payload for registering a company
type CreateCompanyRequest struct {
	Name             string `json:"name" binding:"required"`
	Address          string `json:"address" binding:"required"`
	RegistrationDate Date   `json:"registration_date" binding:"required"`
	EmployeeCount    int    `json:"employee_count" binding:"required,min=1"`
	ContactNumber    string `json:"contact_number" binding:"required,e164"`
	ContactEmail     string `json:"contact_email" binding:"required,email"`
	Website          string `json:"website,omitempty" binding:"omitempty,url"`
}

// CreateReportRequest is the payload for filing an annual report
type CreateReportRequest struct {
	AnnualTurnover float64 `json:"annual_turnover" binding:"required"`
	Profit         float64 `json:"profit"`
	FiscalYear     string  `json:"fiscal_year" binding:"required"`
	ReportedDate   Date    `json:"reported_date" binding:"required"`
}

// StatsResponse aggregates portfolio-wide statistics
type StatsResponse struct {
	TotalCompanies  int            `json:"total_companies"`
	ActiveCompanies int            `json:"active_companies"`
	TotalReports    int            `json:"total_reports"`
	TotalLoans      int            `json:"total_loans"`
	LoansByStatus   map[string]int `json:"loans_by_status"`
	TotalDueAmount  float64        `json:"total_due_amount"`
	TotalCredit     float64        `json:"total_credit"`
	TopCompanies    []CreditReport `json:"top_companies,omitempty"`
	SnapshotTime    *time.Time     `json:"snapshot_time,omitempty"`
	LastUpdated     time.Time      `json:"last_updated"`
}
