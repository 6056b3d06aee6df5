package scheduler

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/credigo/credigo/internal/db/memory"
	"github.com/credigo/credigo/internal/models"
	"github.com/credigo/credigo/internal/services"
)

func TestRefreshAndSnapshot(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	companies := services.NewCompanyService(store)
	credits := services.NewCreditService(store)

	company := &models.Company{
		Name:             "Acme",
		Address:          "1 Main St",
		RegistrationDate: models.NewDate(2012, time.May, 4),
		EmployeeCount:    40,
		ContactNumber:    "+15550001111",
		ContactEmail:     "contact@example.com",
	}
	require.NoError(t, companies.CreateCompany(ctx, company))
	require.NoError(t, companies.CreateReport(ctx, &models.AnnualReport{
		CompanyID:      company.ID,
		AnnualTurnover: 1000,
		FiscalYear:     "2022",
		ReportedDate:   models.NewDate(2023, time.January, 31),
	}))

	sched := New(credits, "0 * * * *")

	_, _, ok := sched.Snapshot()
	assert.False(t, ok, "expected no snapshot before refresh")

	require.NoError(t, sched.Refresh(ctx))

	reports, generatedAt, ok := sched.Snapshot()
	require.True(t, ok)
	require.Len(t, reports, 1)
	assert.Equal(t, 1000.0, reports[0].Credit)
	assert.WithinDuration(t, time.Now(), generatedAt, 5*time.Second)
}

func TestStartStop(t *testing.T) {
	store := memory.New()
	credits := services.NewCreditService(store)
	sched := New(credits, "@hourly")

	require.NoError(t, sched.Start(context.Background()))
	assert.True(t, sched.Running())

	err := sched.Start(context.Background())
	assert.Error(t, err, "second start should fail")

	sched.Stop()
	assert.False(t, sched.Running())
}

func TestStartInvalidCronExpr(t *testing.T) {
	store := memory.New()
	credits := services.NewCreditService(store)
	sched := New(credits, "not a cron expr")

	err := sched.Start(context.Background())
	assert.Error(t, err)
	assert.False(t, sched.Running())
}
