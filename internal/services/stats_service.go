package services

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/credigo/credigo/internal/db"
	"github.com/credigo/credigo/internal/models"
	"github.com/credigo/credigo/internal/shared"
)

// StatsService provides business logic for portfolio statistics
type StatsService struct {
	db     db.Store
	credit *CreditService
}

// NewStatsService creates a new stats service
func NewStatsService(store db.Store, credit *CreditService) *StatsService {
	return &StatsService{db: store, credit: credit}
}

// topCompanyCount caps the highest-credit companies listed in a snapshot
const topCompanyCount = 5

// GetPortfolioStats computes portfolio-wide statistics across all companies
func (s *StatsService) GetPortfolioStats(ctx context.Context) (*models.StatsResponse, error) {
	companies, err := s.db.ListCompanies(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to get companies: %w", err)
	}

	reports, err := s.db.ListReports(ctx, shared.ReportFilter{})
	if err != nil {
		return nil, fmt.Errorf("failed to get reports: %w", err)
	}

	loans, err := s.db.ListLoans(ctx, shared.LoanFilter{})
	if err != nil {
		return nil, fmt.Errorf("failed to get loans: %w", err)
	}

	activeCompanies := 0
	for _, company := range companies {
		if company.Active {
			activeCompanies++
		}
	}

	loansByStatus := make(map[string]int)
	var totalDue float64
	for _, loan := range loans {
		if !loan.Active {
			continue
		}
		loansByStatus[string(loan.LoanStatus)]++
		if loan.LoanStatus == models.LoanDue {
			totalDue += loan.LoanAmount
		}
	}

	creditReports, err := s.credit.ListCreditReports(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to compute credit reports: %w", err)
	}

	var totalCredit float64
	for _, report := range creditReports {
		totalCredit += report.Credit
	}

	sort.Slice(creditReports, func(i, j int) bool {
		return creditReports[i].Credit > creditReports[j].Credit
	})

	top := make([]models.CreditReport, 0, topCompanyCount)
	for i, report := range creditReports {
		if i >= topCompanyCount {
			break
		}
		top = append(top, *report)
	}

	return &models.StatsResponse{
		TotalCompanies:  len(companies),
		ActiveCompanies: activeCompanies,
		TotalReports:    len(reports),
		TotalLoans:      len(loans),
		LoansByStatus:   loansByStatus,
		TotalDueAmount:  totalDue,
		TotalCredit:     roundCredit(totalCredit),
		TopCompanies:    top,
		LastUpdated:     time.Now(),
	}, nil
}
