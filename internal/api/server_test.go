package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/credigo/credigo/internal/config"
	"github.com/credigo/credigo/internal/db/memory"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	return New(config.DefaultConfig(), memory.New(), nil)
}

func doRequest(t *testing.T, server *Server, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")

	rec := httptest.NewRecorder()
	server.Router().ServeHTTP(rec, req)
	return rec
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) APIResponse {
	t.Helper()

	var envelope APIResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	return envelope
}

func companyPayload(name string) map[string]interface{} {
	return map[string]interface{}{
		"name":              name,
		"address":           "1 Main St",
		"registration_date": "2012-05-04",
		"employee_count":    40,
		"contact_number":    "+15550001111",
		"contact_email":     "contact@example.com",
		"website":           "https://example.com",
	}
}

func createTestCompany(t *testing.T, server *Server, name string) string {
	t.Helper()

	rec := doRequest(t, server, http.MethodPost, "/api/v1/company", companyPayload(name))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	envelope := decodeEnvelope(t, rec)
	data := envelope.Data.(map[string]interface{})
	return data["id"].(string)
}

func TestWelcome(t *testing.T) {
	server := newTestServer(t)

	rec := doRequest(t, server, http.MethodGet, "/", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	envelope := decodeEnvelope(t, rec)
	assert.True(t, envelope.Success)
	data := envelope.Data.(map[string]interface{})
	assert.Equal(t, "Welcome to the Credit Information API", data["message"])
}

func TestHealthCheck(t *testing.T) {
	server := newTestServer(t)

	rec := doRequest(t, server, http.MethodGet, "/api/v1/health", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
}

func TestCreateAndGetCompany(t *testing.T) {
	server := newTestServer(t)
	id := createTestCompany(t, server, "Acme")

	assert.Len(t, id, 10)

	rec := doRequest(t, server, http.MethodGet, "/api/v1/company/"+id, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	envelope := decodeEnvelope(t, rec)
	data := envelope.Data.(map[string]interface{})
	assert.Equal(t, "Acme", data["name"])
	assert.Equal(t, true, data["active"])
}

func TestGetCompanyNotFound(t *testing.T) {
	server := newTestServer(t)

	rec := doRequest(t, server, http.MethodGet, "/api/v1/company/nope", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	envelope := decodeEnvelope(t, rec)
	assert.False(t, envelope.Success)
	assert.Equal(t, "Company does not exist", envelope.Error)
}

func TestCreateCompanyDuplicateName(t *testing.T) {
	server := newTestServer(t)
	createTestCompany(t, server, "Acme")

	rec := doRequest(t, server, http.MethodPost, "/api/v1/company", companyPayload("Acme"))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	envelope := decodeEnvelope(t, rec)
	assert.Equal(t, "Another company with same name already exists", envelope.Error)
}

func TestCreateCompanyValidation(t *testing.T) {
	server := newTestServer(t)

	payload := companyPayload("Acme")
	payload["contact_email"] = "not-an-email"

	rec := doRequest(t, server, http.MethodPost, "/api/v1/company", payload)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestListCompaniesPagination(t *testing.T) {
	server := newTestServer(t)
	for i := 0; i < 3; i++ {
		createTestCompany(t, server, fmt.Sprintf("Company %d", i))
	}

	rec := doRequest(t, server, http.MethodGet, "/api/v1/companies?page=1&limit=2", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var page PaginatedResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &page))
	assert.Equal(t, int64(3), page.Pagination.Total)
	assert.Equal(t, 2, page.Pagination.TotalPages)
	assert.Len(t, page.Data.([]interface{}), 2)
}

func TestReportsAndCredit(t *testing.T) {
	server := newTestServer(t)
	id := createTestCompany(t, server, "Acme")

	years := map[string]float64{"2020": 1000, "2021": 2000, "2022": 3000}
	for year, turnover := range years {
		rec := doRequest(t, server, http.MethodPost, "/api/v1/company/"+id+"/reports", map[string]interface{}{
			"annual_turnover": turnover,
			"profit":          turnover / 10,
			"fiscal_year":     year,
			"reported_date":   "2023-01-31",
		})
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	}

	rec := doRequest(t, server, http.MethodPost, "/api/v1/credits", map[string]interface{}{
		"company_id":    id,
		"loan_amount":   500.0,
		"taken_on":      "2021-06-01",
		"bank_provider": "First Bank",
		"loan_status":   "DUE",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = doRequest(t, server, http.MethodGet, "/api/v1/credits/"+id, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	envelope := decodeEnvelope(t, rec)
	data := envelope.Data.(map[string]interface{})
	assert.Equal(t, 4500.0, data["credit_information"])
}

func TestCreateLoanUnknownCompany(t *testing.T) {
	server := newTestServer(t)

	rec := doRequest(t, server, http.MethodPost, "/api/v1/credits", map[string]interface{}{
		"company_id":    "nope",
		"loan_amount":   500.0,
		"taken_on":      "2021-06-01",
		"bank_provider": "First Bank",
		"loan_status":   "DUE",
	})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestUpdateLoanNotInCompany(t *testing.T) {
	server := newTestServer(t)
	owner := createTestCompany(t, server, "Acme")
	other := createTestCompany(t, server, "Globex")

	rec := doRequest(t, server, http.MethodPost, "/api/v1/credits", map[string]interface{}{
		"company_id":    owner,
		"loan_amount":   500.0,
		"taken_on":      "2021-06-01",
		"bank_provider": "First Bank",
		"loan_status":   "DUE",
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	envelope := decodeEnvelope(t, rec)
	loanID := envelope.Data.(map[string]interface{})["id"].(float64)

	rec = doRequest(t, server, http.MethodPut, "/api/v1/credits/"+other, map[string]interface{}{
		"loan_id":       loanID,
		"loan_amount":   600.0,
		"taken_on":      "2021-06-01",
		"bank_provider": "First Bank",
		"loan_status":   "PAID",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	envelope = decodeEnvelope(t, rec)
	assert.Equal(t, "Loan does not exist in the company", envelope.Error)
}

func TestUpdateResponsesEchoStoredRecord(t *testing.T) {
	server := newTestServer(t)
	id := createTestCompany(t, server, "Acme")

	rec := doRequest(t, server, http.MethodPut, "/api/v1/company/"+id, companyPayload("Acme Renamed"))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	data := decodeEnvelope(t, rec).Data.(map[string]interface{})
	assert.Equal(t, "Acme Renamed", data["name"])
	assert.Equal(t, true, data["active"])
	assert.NotEqual(t, "0001-01-01T00:00:00Z", data["created_at"])

	rec = doRequest(t, server, http.MethodPost, "/api/v1/credits", map[string]interface{}{
		"company_id":    id,
		"loan_amount":   500.0,
		"taken_on":      "2021-06-01",
		"bank_provider": "First Bank",
		"loan_status":   "DUE",
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	loanID := decodeEnvelope(t, rec).Data.(map[string]interface{})["id"].(float64)

	rec = doRequest(t, server, http.MethodPut, "/api/v1/credits/"+id, map[string]interface{}{
		"loan_id":       loanID,
		"loan_amount":   600.0,
		"taken_on":      "2021-06-01",
		"bank_provider": "First Bank",
		"loan_status":   "PAID",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	data = decodeEnvelope(t, rec).Data.(map[string]interface{})
	assert.Equal(t, 600.0, data["loan_amount"])
	assert.Equal(t, true, data["active"])
	assert.NotEqual(t, "0001-01-01T00:00:00Z", data["created_at"])
}

func TestDeleteLoanExcludedFromCredit(t *testing.T) {
	server := newTestServer(t)
	id := createTestCompany(t, server, "Acme")

	rec := doRequest(t, server, http.MethodPost, "/api/v1/company/"+id+"/reports", map[string]interface{}{
		"annual_turnover": 1000.0,
		"fiscal_year":     "2022",
		"reported_date":   "2023-01-31",
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = doRequest(t, server, http.MethodPost, "/api/v1/credits", map[string]interface{}{
		"company_id":    id,
		"loan_amount":   400.0,
		"taken_on":      "2021-06-01",
		"bank_provider": "First Bank",
		"loan_status":   "DUE",
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	envelope := decodeEnvelope(t, rec)
	loanID := int64(envelope.Data.(map[string]interface{})["id"].(float64))

	rec = doRequest(t, server, http.MethodDelete, fmt.Sprintf("/api/v1/credits/%d?company_id=%s", loanID, id), nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doRequest(t, server, http.MethodGet, "/api/v1/credits/"+id, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	envelope = decodeEnvelope(t, rec)
	assert.Equal(t, 1000.0, envelope.Data.(map[string]interface{})["credit_information"])
}

func TestStatsEndpoint(t *testing.T) {
	server := newTestServer(t)
	createTestCompany(t, server, "Acme")

	rec := doRequest(t, server, http.MethodGet, "/api/v1/stats", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	envelope := decodeEnvelope(t, rec)
	data := envelope.Data.(map[string]interface{})
	assert.Equal(t, 1.0, data["total_companies"])
}
