package shared

import (
	"time"

	"github.com/credigo/credigo/internal/models"
)

// LoanFilter provides filtering options for listing loans
type LoanFilter struct {
	CompanyID string
	Status    models.LoanStatus
	Active    *bool
	StartTime *time.Time
	EndTime   *time.Time
	Limit     int
	Offset    int
}

// ReportFilter provides filtering options for listing annual reports
type ReportFilter struct {
	CompanyID  string
	FiscalYear string
	Limit      int
	Offset     int
}
