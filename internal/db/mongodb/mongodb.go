package mongodb

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/credigo/credigo/internal/db"
	"github.com/credigo/credigo/internal/models"
	"github.com/credigo/credigo/internal/shared"
)

// MongoDB implements the Store interface for MongoDB
type MongoDB struct {
	client   *mongo.Client
	database *mongo.Database
	config   *db.Config
}

var _ db.Store = (*MongoDB)(nil)

const (
	collCompanies = "companies"
	collReports   = "annual_reports"
	collLoans     = "loans"
	collCounters  = "counters"
)

// New creates a new MongoDB store instance
func New(config *db.Config) (*MongoDB, error) {
	return &MongoDB{
		config: config,
	}, nil
}

// Connect establishes connection to MongoDB
func (m *MongoDB) Connect(ctx context.Context) error {
	clientOptions := options.Client().ApplyURI(m.config.URI)

	client, err := mongo.Connect(ctx, clientOptions)
	if err != nil {
		return fmt.Errorf("failed to connect to MongoDB: %w", err)
	}

	if err := client.Ping(ctx, nil); err != nil {
		return fmt.Errorf("failed to ping MongoDB: %w", err)
	}

	m.client = client
	m.database = client.Database(m.config.Database)

	if err := m.createIndexes(ctx); err != nil {
		return fmt.Errorf("failed to create indexes: %w", err)
	}

	return nil
}

// Disconnect closes the MongoDB connection
func (m *MongoDB) Disconnect(ctx context.Context) error {
	if m.client != nil {
		return m.client.Disconnect(ctx)
	}
	return nil
}

// Ping checks the database connection
func (m *MongoDB) Ping(ctx context.Context) error {
	if m.client == nil {
		return fmt.Errorf("not connected to database")
	}
	return m.client.Ping(ctx, nil)
}

// createIndexes creates necessary indexes for optimal query performance
func (m *MongoDB) createIndexes(ctx context.Context) error {
	companyIndexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "name", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys: bson.D{{Key: "active", Value: 1}},
		},
	}
	if _, err := m.database.Collection(collCompanies).Indexes().CreateMany(ctx, companyIndexes); err != nil {
		return fmt.Errorf("failed to create company indexes: %w", err)
	}

	reportIndexes := []mongo.IndexModel{
		{
			Keys: bson.D{
				{Key: "company_id", Value: 1},
				{Key: "fiscal_year", Value: -1},
			},
		},
	}
	if _, err := m.database.Collection(collReports).Indexes().CreateMany(ctx, reportIndexes); err != nil {
		return fmt.Errorf("failed to create report indexes: %w", err)
	}

	loanIndexes := []mongo.IndexModel{
		{
			Keys: bson.D{
				{Key: "company_id", Value: 1},
				{Key: "loan_status", Value: 1},
			},
		},
	}
	if _, err := m.database.Collection(collLoans).Indexes().CreateMany(ctx, loanIndexes); err != nil {
		return fmt.Errorf("failed to create loan indexes: %w", err)
	}

	return nil
}

// nextSequence allocates the next integral ID for a collection from the
// counters collection
func (m *MongoDB) nextSequence(ctx context.Context, name string) (int64, error) {
	opts := options.FindOneAndUpdate().
		SetUpsert(true).
		SetReturnDocument(options.After)

	var doc struct {
		Seq int64 `bson:"seq"`
	}
	err := m.database.Collection(collCounters).FindOneAndUpdate(ctx,
		bson.M{"_id": name},
		bson.M{"$inc": bson.M{"seq": int64(1)}},
		opts,
	).Decode(&doc)
	if err != nil {
		return 0, fmt.Errorf("failed to allocate sequence %s: %w", name, err)
	}

	return doc.Seq, nil
}

// Company Operations

// CreateCompany creates a new company
func (m *MongoDB) CreateCompany(ctx context.Context, company *models.Company) error {
	company.CreatedAt = time.Now()
	company.UpdatedAt = time.Now()

	doc := bson.M{
		"_id":               company.ID,
		"name":              company.Name,
		"address":           company.Address,
		"registration_date": company.RegistrationDate.Time,
		"employee_count":    company.EmployeeCount,
		"contact_number":    company.ContactNumber,
		"contact_email":     company.ContactEmail,
		"website":           company.Website,
		"active":            company.Active,
		"created_at":        company.CreatedAt,
		"updated_at":        company.UpdatedAt,
	}

	_, err := m.database.Collection(collCompanies).InsertOne(ctx, doc)
	if mongo.IsDuplicateKeyError(err) {
		return fmt.Errorf("%w: %s", db.ErrDuplicateName, company.Name)
	}
	return err
}

// GetCompany retrieves an active company by ID
func (m *MongoDB) GetCompany(ctx context.Context, id string) (*models.Company, error) {
	var doc bson.M
	err := m.database.Collection(collCompanies).
		FindOne(ctx, bson.M{"_id": id, "active": true}).
		Decode(&doc)
	if err == mongo.ErrNoDocuments {
		return nil, fmt.Errorf("%w: %s", db.ErrCompanyNotFound, id)
	}
	if err != nil {
		return nil, err
	}

	return companyFromDoc(doc), nil
}

// ListCompanies lists all companies, optionally filtered by active status
func (m *MongoDB) ListCompanies(ctx context.Context, active *bool) ([]*models.Company, error) {
	filter := bson.M{}
	if active != nil {
		filter["active"] = *active
	}

	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	cursor, err := m.database.Collection(collCompanies).Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var companies []*models.Company
	for cursor.Next(ctx) {
		var doc bson.M
		if err := cursor.Decode(&doc); err != nil {
			return nil, err
		}
		companies = append(companies, companyFromDoc(doc))
	}

	return companies, cursor.Err()
}

// UpdateCompany updates an existing active company
func (m *MongoDB) UpdateCompany(ctx context.Context, company *models.Company) error {
	company.UpdatedAt = time.Now()

	update := bson.M{"$set": bson.M{
		"name":              company.Name,
		"address":           company.Address,
		"registration_date": company.RegistrationDate.Time,
		"employee_count":    company.EmployeeCount,
		"contact_number":    company.ContactNumber,
		"contact_email":     company.ContactEmail,
		"website":           company.Website,
		"updated_at":        company.UpdatedAt,
	}}

	result, err := m.database.Collection(collCompanies).
		UpdateOne(ctx, bson.M{"_id": company.ID, "active": true}, update)
	if mongo.IsDuplicateKeyError(err) {
		return fmt.Errorf("%w: %s", db.ErrDuplicateName, company.Name)
	}
	if err != nil {
		return err
	}

	if result.MatchedCount == 0 {
		return fmt.Errorf("%w: %s", db.ErrCompanyNotFound, company.ID)
	}

	return nil
}

func companyFromDoc(doc bson.M) *models.Company {
	return &models.Company{
		ID:               getString(doc, "_id"),
		Name:             getString(doc, "name"),
		Address:          getString(doc, "address"),
		RegistrationDate: models.DateOf(getTime(doc, "registration_date")),
		EmployeeCount:    getInt(doc, "employee_count"),
		ContactNumber:    getString(doc, "contact_number"),
		ContactEmail:     getString(doc, "contact_email"),
		Website:          getString(doc, "website"),
		Active:           getBool(doc, "active"),
		CreatedAt:        getTime(doc, "created_at"),
		UpdatedAt:        getTime(doc, "updated_at"),
	}
}

// Annual Report Operations

// CreateReport creates a new annual report
func (m *MongoDB) CreateReport(ctx context.Context, report *models.AnnualReport) error {
	id, err := m.nextSequence(ctx, collReports)
	if err != nil {
		return err
	}

	report.ID = id
	report.CreatedAt = time.Now()
	report.UpdatedAt = time.Now()

	doc := bson.M{
		"_id":             report.ID,
		"company_id":      report.CompanyID,
		"annual_turnover": report.AnnualTurnover,
		"profit":          report.Profit,
		"fiscal_year":     report.FiscalYear,
		"reported_date":   report.ReportedDate.Time,
		"active":          report.Active,
		"created_at":      report.CreatedAt,
		"updated_at":      report.UpdatedAt,
	}

	_, err = m.database.Collection(collReports).InsertOne(ctx, doc)
	return err
}

// ListReports lists annual reports matching the filter
func (m *MongoDB) ListReports(ctx context.Context, filter shared.ReportFilter) ([]*models.AnnualReport, error) {
	query := bson.M{}
	if filter.CompanyID != "" {
		query["company_id"] = filter.CompanyID
	}
	if filter.FiscalYear != "" {
		query["fiscal_year"] = filter.FiscalYear
	}

	opts := options.Find().SetSort(bson.D{{Key: "fiscal_year", Value: -1}})
	if filter.Limit > 0 {
		opts.SetLimit(int64(filter.Limit))
	}
	if filter.Offset > 0 {
		opts.SetSkip(int64(filter.Offset))
	}

	cursor, err := m.database.Collection(collReports).Find(ctx, query, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var reports []*models.AnnualReport
	for cursor.Next(ctx) {
		var doc bson.M
		if err := cursor.Decode(&doc); err != nil {
			return nil, err
		}
		reports = append(reports, &models.AnnualReport{
			ID:             getInt64(doc, "_id"),
			CompanyID:      getString(doc, "company_id"),
			AnnualTurnover: getFloat(doc, "annual_turnover"),
			Profit:         getFloat(doc, "profit"),
			FiscalYear:     getString(doc, "fiscal_year"),
			ReportedDate:   models.DateOf(getTime(doc, "reported_date")),
			Active:         getBool(doc, "active"),
			CreatedAt:      getTime(doc, "created_at"),
			UpdatedAt:      getTime(doc, "updated_at"),
		})
	}

	return reports, cursor.Err()
}

// Loan Operations

// CreateLoan creates a new loan
func (m *MongoDB) CreateLoan(ctx context.Context, loan *models.Loan) error {
	id, err := m.nextSequence(ctx, collLoans)
	if err != nil {
		return err
	}

	loan.ID = id
	loan.CreatedAt = time.Now()
	loan.UpdatedAt = time.Now()

	doc := bson.M{
		"_id":           loan.ID,
		"company_id":    loan.CompanyID,
		"loan_amount":   loan.LoanAmount,
		"taken_on":      loan.TakenOn.Time,
		"bank_provider": loan.BankProvider,
		"loan_status":   string(loan.LoanStatus),
		"active":        loan.Active,
		"created_at":    loan.CreatedAt,
		"updated_at":    loan.UpdatedAt,
	}

	_, err = m.database.Collection(collLoans).InsertOne(ctx, doc)
	return err
}

// GetLoan retrieves a loan that belongs to the given company
func (m *MongoDB) GetLoan(ctx context.Context, companyID string, loanID int64) (*models.Loan, error) {
	var doc bson.M
	err := m.database.Collection(collLoans).
		FindOne(ctx, bson.M{"_id": loanID, "company_id": companyID}).
		Decode(&doc)
	if err == mongo.ErrNoDocuments {
		return nil, fmt.Errorf("%w: %d", db.ErrLoanNotFound, loanID)
	}
	if err != nil {
		return nil, err
	}

	return loanFromDoc(doc), nil
}

// ListLoans lists loans matching the filter
func (m *MongoDB) ListLoans(ctx context.Context, filter shared.LoanFilter) ([]*models.Loan, error) {
	query := bson.M{}
	if filter.CompanyID != "" {
		query["company_id"] = filter.CompanyID
	}
	if filter.Status != "" {
		query["loan_status"] = string(filter.Status)
	}
	if filter.Active != nil {
		query["active"] = *filter.Active
	}
	if filter.StartTime != nil || filter.EndTime != nil {
		timeRange := bson.M{}
		if filter.StartTime != nil {
			timeRange["$gte"] = *filter.StartTime
		}
		if filter.EndTime != nil {
			timeRange["$lte"] = *filter.EndTime
		}
		query["taken_on"] = timeRange
	}

	opts := options.Find().SetSort(bson.D{{Key: "taken_on", Value: -1}})
	if filter.Limit > 0 {
		opts.SetLimit(int64(filter.Limit))
	}
	if filter.Offset > 0 {
		opts.SetSkip(int64(filter.Offset))
	}

	cursor, err := m.database.Collection(collLoans).Find(ctx, query, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var loans []*models.Loan
	for cursor.Next(ctx) {
		var doc bson.M
		if err := cursor.Decode(&doc); err != nil {
			return nil, err
		}
		loans = append(loans, loanFromDoc(doc))
	}

	return loans, cursor.Err()
}

// UpdateLoan updates an existing loan of a company
func (m *MongoDB) UpdateLoan(ctx context.Context, loan *models.Loan) error {
	loan.UpdatedAt = time.Now()

	update := bson.M{"$set": bson.M{
		"loan_amount":   loan.LoanAmount,
		"taken_on":      loan.TakenOn.Time,
		"bank_provider": loan.BankProvider,
		"loan_status":   string(loan.LoanStatus),
		"updated_at":    loan.UpdatedAt,
	}}

	result, err := m.database.Collection(collLoans).
		UpdateOne(ctx, bson.M{"_id": loan.ID, "company_id": loan.CompanyID}, update)
	if err != nil {
		return err
	}

	if result.MatchedCount == 0 {
		return fmt.Errorf("%w: %d", db.ErrLoanNotFound, loan.ID)
	}

	return nil
}

// DeleteLoan soft deletes a loan of a company
func (m *MongoDB) DeleteLoan(ctx context.Context, companyID string, loanID int64) error {
	update := bson.M{"$set": bson.M{
		"active":     false,
		"updated_at": time.Now(),
	}}

	result, err := m.database.Collection(collLoans).
		UpdateOne(ctx, bson.M{"_id": loanID, "company_id": companyID}, update)
	if err != nil {
		return err
	}

	if result.MatchedCount == 0 {
		return fmt.Errorf("%w: %d", db.ErrLoanNotFound, loanID)
	}

	return nil
}

func loanFromDoc(doc bson.M) *models.Loan {
	return &models.Loan{
		ID:           getInt64(doc, "_id"),
		CompanyID:    getString(doc, "company_id"),
		LoanAmount:   getFloat(doc, "loan_amount"),
		TakenOn:      models.DateOf(getTime(doc, "taken_on")),
		BankProvider: getString(doc, "bank_provider"),
		LoanStatus:   models.LoanStatus(getString(doc, "loan_status")),
		Active:       getBool(doc, "active"),
		CreatedAt:    getTime(doc, "created_at"),
		UpdatedAt:    getTime(doc, "updated_at"),
	}
}

// Credit Aggregates

// TwoYearTurnover sums the turnover of the two most recent fiscal years of a company
func (m *MongoDB) TwoYearTurnover(ctx context.Context, companyID string) (float64, error) {
	totals, err := m.TwoYearTurnoverByCompany(ctx, []string{companyID})
	if err != nil {
		return 0, err
	}
	return totals[companyID], nil
}

// TwoYearTurnoverByCompany sums the two most recent fiscal years per company
// using an aggregation pipeline that slices the sorted turnover list
func (m *MongoDB) TwoYearTurnoverByCompany(ctx context.Context, companyIDs []string) (map[string]float64, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{
			"company_id": bson.M{"$in": companyIDs},
			"active":     true,
		}}},
		{{Key: "$sort", Value: bson.D{
			{Key: "company_id", Value: 1},
			{Key: "fiscal_year", Value: -1},
		}}},
		{{Key: "$group", Value: bson.M{
			"_id":       "$company_id",
			"turnovers": bson.M{"$push": "$annual_turnover"},
		}}},
		{{Key: "$project", Value: bson.M{
			"total": bson.M{"$sum": bson.M{"$slice": bson.A{"$turnovers", 2}}},
		}}},
	}

	return m.aggregateTotals(ctx, collReports, pipeline)
}

// TotalDueAmount sums the outstanding due loan amounts of a company
func (m *MongoDB) TotalDueAmount(ctx context.Context, companyID string) (float64, error) {
	totals, err := m.TotalDueAmountByCompany(ctx, []string{companyID})
	if err != nil {
		return 0, err
	}
	return totals[companyID], nil
}

// TotalDueAmountByCompany sums the outstanding due loan amounts per company
func (m *MongoDB) TotalDueAmountByCompany(ctx context.Context, companyIDs []string) (map[string]float64, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{
			"company_id":  bson.M{"$in": companyIDs},
			"loan_status": string(models.LoanDue),
			"active":      true,
		}}},
		{{Key: "$group", Value: bson.M{
			"_id":   "$company_id",
			"total": bson.M{"$sum": "$loan_amount"},
		}}},
	}

	return m.aggregateTotals(ctx, collLoans, pipeline)
}

// aggregateTotals runs a pipeline that yields {_id, total} documents and
// collects them into a company-id keyed map
func (m *MongoDB) aggregateTotals(ctx context.Context, collection string, pipeline mongo.Pipeline) (map[string]float64, error) {
	cursor, err := m.database.Collection(collection).Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	result := make(map[string]float64)
	for cursor.Next(ctx) {
		var doc struct {
			ID    string  `bson:"_id"`
			Total float64 `bson:"total"`
		}
		if err := cursor.Decode(&doc); err != nil {
			return nil, err
		}
		result[doc.ID] = doc.Total
	}

	return result, cursor.Err()
}

// BSON document helpers

func getString(doc bson.M, key string) string {
	if v, ok := doc[key].(string); ok {
		return v
	}
	return ""
}

func getBool(doc bson.M, key string) bool {
	if v, ok := doc[key].(bool); ok {
		return v
	}
	return false
}

func getInt(doc bson.M, key string) int {
	switch v := doc[key].(type) {
	case int:
		return v
	case int32:
		return int(v)
	case int64:
		return int(v)
	case float64:
		return int(v)
	}
	return 0
}

func getInt64(doc bson.M, key string) int64 {
	switch v := doc[key].(type) {
	case int64:
		return v
	case int32:
		return int64(v)
	case int:
		return int64(v)
	case float64:
		return int64(v)
	}
	return 0
}

func getFloat(doc bson.M, key string) float64 {
	switch v := doc[key].(type) {
	case float64:
		return v
	case int32:
		return float64(v)
	case int64:
		return float64(v)
	}
	return 0
}

func getTime(doc bson.M, key string) time.Time {
	switch v := doc[key].(type) {
	case time.Time:
		return v
	case primitive.DateTime:
		return v.Time()
	}
	return time.Time{}
}
