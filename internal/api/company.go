package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/credigo/credigo/internal/db"
	"github.com/credigo/credigo/internal/models"
	"github.com/credigo/credigo/internal/shared"
)

// Company endpoints

// getCompany handles GET <base>/company/:id
func (s *Server) getCompany(c *gin.Context) {
	id := c.Param("id")

	company, err := s.companyService.GetCompany(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, db.ErrCompanyNotFound) {
			s.errorResponse(c, http.StatusNotFound, "Company does not exist")
			return
		}
		s.errorResponse(c, http.StatusInternalServerError, "Failed to get company: "+err.Error())
		return
	}

	s.successResponse(c, company)
}

// createCompany handles POST <base>/company
func (s *Server) createCompany(c *gin.Context) {
	var req models.CreateCompanyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.errorResponse(c, http.StatusBadRequest, "Invalid request: "+err.Error())
		return
	}

	company := &models.Company{
		Name:             req.Name,
		Address:          req.Address,
		RegistrationDate: req.RegistrationDate,
		EmployeeCount:    req.EmployeeCount,
		ContactNumber:    req.ContactNumber,
		ContactEmail:     req.ContactEmail,
		Website:          req.Website,
	}

	if err := s.companyService.CreateCompany(c.Request.Context(), company); err != nil {
		if errors.Is(err, db.ErrDuplicateName) {
			s.errorResponse(c, http.StatusBadRequest, "Another company with same name already exists")
			return
		}
		s.errorResponse(c, http.StatusInternalServerError, "Failed to create company: "+err.Error())
		return
	}

	c.JSON(http.StatusCreated, APIResponse{
		Success: true,
		Data:    company,
		Message: "Company created successfully",
	})
}

// updateCompany handles PUT <base>/company/:id
func (s *Server) updateCompany(c *gin.Context) {
	id := c.Param("id")

	var req models.CreateCompanyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.errorResponse(c, http.StatusBadRequest, "Invalid request: "+err.Error())
		return
	}

	company := &models.Company{
		ID:               id,
		Name:             req.Name,
		Address:          req.Address,
		RegistrationDate: req.RegistrationDate,
		EmployeeCount:    req.EmployeeCount,
		ContactNumber:    req.ContactNumber,
		ContactEmail:     req.ContactEmail,
		Website:          req.Website,
	}

	if err := s.companyService.UpdateCompany(c.Request.Context(), company); err != nil {
		switch {
		case errors.Is(err, db.ErrCompanyNotFound):
			s.errorResponse(c, http.StatusNotFound, "Company does not exist")
		case errors.Is(err, db.ErrDuplicateName):
			s.errorResponse(c, http.StatusBadRequest, "Another company with same name already exists")
		default:
			s.errorResponse(c, http.StatusInternalServerError, "Failed to update company: "+err.Error())
		}
		return
	}

	s.successResponse(c, company)
}

// listCompanies handles GET <base>/companies
func (s *Server) listCompanies(c *gin.Context) {
	active := shared.ParseActiveFilter(c)
	page, limit := s.parsePagination(c)

	companies, err := s.companyService.ListCompanies(c.Request.Context(), active)
	if err != nil {
		s.errorResponse(c, http.StatusInternalServerError, "Failed to list companies: "+err.Error())
		return
	}

	total := len(companies)
	start := (page - 1) * limit
	end := start + limit

	if start >= total {
		companies = []*models.Company{}
	} else {
		if end > total {
			end = total
		}
		companies = companies[start:end]
	}

	totalPages := (total + limit - 1) / limit

	c.JSON(http.StatusOK, PaginatedResponse{
		Data: companies,
		Pagination: Pagination{
			Page:       page,
			Limit:      limit,
			Total:      int64(total),
			TotalPages: totalPages,
		},
	})
}

// Annual report endpoints

// createReport handles POST <base>/company/:id/reports
func (s *Server) createReport(c *gin.Context) {
	companyID := c.Param("id")

	var req models.CreateReportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.errorResponse(c, http.StatusBadRequest, "Invalid request: "+err.Error())
		return
	}

	report := &models.AnnualReport{
		CompanyID:      companyID,
		AnnualTurnover: req.AnnualTurnover,
		Profit:         req.Profit,
		FiscalYear:     req.FiscalYear,
		ReportedDate:   req.ReportedDate,
	}

	if err := s.companyService.CreateReport(c.Request.Context(), report); err != nil {
		if errors.Is(err, db.ErrCompanyNotFound) {
			s.errorResponse(c, http.StatusNotFound, "Company does not exist")
			return
		}
		s.errorResponse(c, http.StatusInternalServerError, "Failed to create report: "+err.Error())
		return
	}

	c.JSON(http.StatusCreated, APIResponse{
		Success: true,
		Data:    report,
		Message: "Annual report created successfully",
	})
}

// listReports handles GET <base>/company/:id/reports
func (s *Server) listReports(c *gin.Context) {
	companyID := c.Param("id")

	reports, err := s.companyService.ListReports(c.Request.Context(), shared.ReportFilter{
		CompanyID:  companyID,
		FiscalYear: c.Query("fiscal_year"),
	})
	if err != nil {
		if errors.Is(err, db.ErrCompanyNotFound) {
			s.errorResponse(c, http.StatusNotFound, "Company does not exist")
			return
		}
		s.errorResponse(c, http.StatusInternalServerError, "Failed to list reports: "+err.Error())
		return
	}

	if reports == nil {
		reports = []*models.AnnualReport{}
	}

	s.successResponse(c, reports)
}
