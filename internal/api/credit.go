package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/credigo/credigo/internal/db"
	"github.com/credigo/credigo/internal/models"
)

// Loan request structures
type CreateLoanRequest struct {
	CompanyID    string      `json:"company_id" binding:"required"`
	LoanAmount   float64     `json:"loan_amount" binding:"required,gt=0"`
	TakenOn      models.Date `json:"taken_on" binding:"required"`
	BankProvider string      `json:"bank_provider" binding:"required"`
	LoanStatus   string      `json:"loan_status" binding:"required"`
}

type UpdateLoanRequest struct {
	LoanID       int64       `json:"loan_id" binding:"required"`
	LoanAmount   float64     `json:"loan_amount" binding:"required,gt=0"`
	TakenOn      models.Date `json:"taken_on" binding:"required"`
	BankProvider string      `json:"bank_provider" binding:"required"`
	LoanStatus   string      `json:"loan_status" binding:"required"`
}

// Credit endpoints

// listCreditReports handles GET <base>/credits
func (s *Server) listCreditReports(c *gin.Context) {
	reports, err := s.creditService.ListCreditReports(c.Request.Context())
	if err != nil {
		s.errorResponse(c, http.StatusInternalServerError, "Failed to compute credit reports: "+err.Error())
		return
	}

	if reports == nil {
		reports = []*models.CreditReport{}
	}

	s.successResponse(c, reports)
}

// getCreditReport handles GET <base>/credits/:company_id
func (s *Server) getCreditReport(c *gin.Context) {
	companyID := c.Param("company_id")

	report, err := s.creditService.GetCreditReport(c.Request.Context(), companyID)
	if err != nil {
		if errors.Is(err, db.ErrCompanyNotFound) {
			s.errorResponse(c, http.StatusNotFound, "Company does not exist")
			return
		}
		s.errorResponse(c, http.StatusInternalServerError, "Failed to compute credit report: "+err.Error())
		return
	}

	s.successResponse(c, report)
}

// createLoan handles POST <base>/credits
func (s *Server) createLoan(c *gin.Context) {
	var req CreateLoanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.errorResponse(c, http.StatusBadRequest, "Invalid request: "+err.Error())
		return
	}

	status, err := models.ParseLoanStatus(req.LoanStatus)
	if err != nil {
		s.errorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	loan := &models.Loan{
		CompanyID:    req.CompanyID,
		LoanAmount:   req.LoanAmount,
		TakenOn:      req.TakenOn,
		BankProvider: req.BankProvider,
		LoanStatus:   status,
	}

	if err := s.creditService.CreateLoan(c.Request.Context(), loan); err != nil {
		if errors.Is(err, db.ErrCompanyNotFound) {
			s.errorResponse(c, http.StatusNotFound, "Company does not exist")
			return
		}
		s.errorResponse(c, http.StatusInternalServerError, "Failed to create loan: "+err.Error())
		return
	}

	c.JSON(http.StatusCreated, APIResponse{
		Success: true,
		Data:    loan,
		Message: "Loan created successfully",
	})
}

// updateLoan handles PUT <base>/credits/:company_id
func (s *Server) updateLoan(c *gin.Context) {
	companyID := c.Param("company_id")

	var req UpdateLoanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.errorResponse(c, http.StatusBadRequest, "Invalid request: "+err.Error())
		return
	}

	status, err := models.ParseLoanStatus(req.LoanStatus)
	if err != nil {
		s.errorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	loan := &models.Loan{
		ID:           req.LoanID,
		CompanyID:    companyID,
		LoanAmount:   req.LoanAmount,
		TakenOn:      req.TakenOn,
		BankProvider: req.BankProvider,
		LoanStatus:   status,
	}

	if err := s.creditService.UpdateLoan(c.Request.Context(), loan); err != nil {
		switch {
		case errors.Is(err, db.ErrCompanyNotFound):
			s.errorResponse(c, http.StatusNotFound, "Company does not exist")
		case errors.Is(err, db.ErrLoanNotFound):
			s.errorResponse(c, http.StatusBadRequest, "Loan does not exist in the company")
		default:
			s.errorResponse(c, http.StatusInternalServerError, "Failed to update loan: "+err.Error())
		}
		return
	}

	s.successResponse(c, loan)
}

// deleteLoan handles DELETE <base>/credits/:loan_id
func (s *Server) deleteLoan(c *gin.Context) {
	loanID, err := strconv.ParseInt(c.Param("loan_id"), 10, 64)
	if err != nil {
		s.errorResponse(c, http.StatusBadRequest, "Invalid loan ID")
		return
	}

	companyID := c.Query("company_id")
	if companyID == "" {
		s.errorResponse(c, http.StatusBadRequest, "company_id query parameter is required")
		return
	}

	if err := s.creditService.DeleteLoan(c.Request.Context(), companyID, loanID); err != nil {
		switch {
		case errors.Is(err, db.ErrCompanyNotFound):
			s.errorResponse(c, http.StatusNotFound, "Company does not exist")
		case errors.Is(err, db.ErrLoanNotFound):
			s.errorResponse(c, http.StatusBadRequest, "Loan does not exist in the company")
		default:
			s.errorResponse(c, http.StatusInternalServerError, "Failed to delete loan: "+err.Error())
		}
		return
	}

	c.JSON(http.StatusOK, APIResponse{
		Success: true,
		Message: "Loan deleted successfully",
	})
}
