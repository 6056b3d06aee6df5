package models

import (
	"fmt"
	"strings"
	"time"
)

// LoanStatus represents the repayment state of a loan
type LoanStatus string

const (
	LoanPaid      LoanStatus = "PAID"
	LoanDue       LoanStatus = "DUE"
	LoanInitiated LoanStatus = "INITIATED"
)

// Valid reports whether the status is one of the known loan states
func (s LoanStatus) Valid() bool {
	switch s {
	case LoanPaid, LoanDue, LoanInitiated:
		return true
	}
	return false
}

// ParseLoanStatus parses a string loan status, case-insensitively
func ParseLoanStatus(s string) (LoanStatus, error) {
	status := LoanStatus(strings.ToUpper(strings.TrimSpace(s)))
	if !status.Valid() {
		return "", fmt.Errorf("invalid loan status: %s", s)
	}
	return status, nil
}

// Date is a calendar date serialized as YYYY-MM-DD
type Date struct {
	time.Time
}

// NewDate builds a Date from year, month and day
func NewDate(year int, month time.Month, day int) Date {
	return Date{time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// DateOf truncates a time to its calendar date
func DateOf(t time.Time) Date {
	return NewDate(t.Year(), t.Month(), t.Day())
}

// MarshalJSON renders the date as "YYYY-MM-DD"
func (d Date) MarshalJSON() ([]byte, error) {
	return []byte(`"` + d.Format(time.DateOnly) + `"`), nil
}

// UnmarshalJSON parses "YYYY-MM-DD"
func (d *Date) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	if s == "" || s == "null" {
		return nil
	}
	t, err := time.Parse(time.DateOnly, s)
	if err != nil {
		return fmt.Errorf("invalid date %q (want YYYY-MM-DD): %w", s, err)
	}
	d.Time = t
	return nil
}

// Company represents a registered company
type Company struct {
	ID               string    `json:"id" bson:"_id"`
	Name             string    `json:"name" bson:"name"`
	Address          string    `json:"address" bson:"address"`
	RegistrationDate Date      `json:"registration_date" bson:"registration_date"`
	EmployeeCount    int       `json:"employee_count" bson:"employee_count"`
	ContactNumber    string    `json:"contact_number" bson:"contact_number"`
	ContactEmail     string    `json:"contact_email" bson:"contact_email"`
	Website          string    `json:"website,omitempty" bson:"website,omitempty"`
	Active           bool      `json:"active" bson:"active"`
	CreatedAt        time.Time `json:"created_at" bson:"created_at"`
	UpdatedAt        time.Time `json:"updated_at" bson:"updated_at"`
}

// AnnualReport represents a company's reported figures for one fiscal year
type AnnualReport struct {
	ID             int64     `json:"id" bson:"_id"`
	CompanyID      string    `json:"company_id" bson:"company_id"`
	AnnualTurnover float64   `json:"annual_turnover" bson:"annual_turnover"`
	Profit         float64   `json:"profit" bson:"profit"`
	FiscalYear     string    `json:"fiscal_year" bson:"fiscal_year"`
	ReportedDate   Date      `json:"reported_date" bson:"reported_date"`
	Active         bool      `json:"active" bson:"active"`
	CreatedAt      time.Time `json:"created_at" bson:"created_at"`
	UpdatedAt      time.Time `json:"updated_at" bson:"updated_at"`
}

// Loan represents a bank loan taken by a company
type Loan struct {
	ID           int64      `json:"id" bson:"_id"`
	CompanyID    string     `json:"company_id" bson:"company_id"`
	LoanAmount   float64    `json:"loan_amount" bson:"loan_amount"`
	TakenOn      Date       `json:"taken_on" bson:"taken_on"`
	BankProvider string     `json:"bank_provider" bson:"bank_provider"`
	LoanStatus   LoanStatus `json:"loan_status" bson:"loan_status"`
	Active       bool       `json:"active" bson:"active"`
	CreatedAt    time.Time  `json:"created_at" bson:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at" bson:"updated_at"`
}

// CreditReport is the computed creditworthiness of a company: the turnover of
// its two most recent fiscal years minus its outstanding due loan amount
type CreditReport struct {
	CompanyID   string  `json:"company_id"`
	CompanyName string  `json:"company_name"`
	Credit      float64 `json:"credit_information"`
}
