package datawarehouse_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/triumph-atlantic/matrix-api/internal/config"
	"github.com/triumph-atlantic/matrix-api/internal/datawarehouse"
	"go.uber.org/zap"
)

func TestNewClient_Disabled(t *testing.T) {
	logger := zap.NewNop()

	client, err := datawarehouse.NewClient(nil, logger)
	assert.NoError(t, err)
	assert.Nil(t, client)

	client, err = datawarehouse.NewClient(&config.WarehouseConfig{Enabled: false}, logger)
	assert.NoError(t, err)
	assert.Nil(t, client)
	assert.False(t, client.IsEnabled())
}

func TestNewClient_MissingCredentials(t *testing.T) {
	tests := []struct {
		name string
		cfg  *config.WarehouseConfig
	}{
		{"missing URL", &config.WarehouseConfig{Enabled: true, User: "user", Password: "pass"}},
		{"missing user", &config.WarehouseConfig{Enabled: true, URL: "host:1433/db", Password: "pass"}},
		{"missing password", &config.WarehouseConfig{Enabled: true, URL: "host:1433/db", User: "user"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, err := datawarehouse.NewClient(tt.cfg, zap.NewNop())
			assert.NoError(t, err)
			assert.Nil(t, client)
		})
	}
}

func TestNewClientWithDB_RejectsUnsafeTable(t *testing.T) {
	db, _, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	_, err = datawarehouse.NewClientWithDB(db, &config.WarehouseConfig{ProjectsTable: "jobs; DROP TABLE x"}, zap.NewNop())
	assert.Error(t, err)

	client, err := datawarehouse.NewClientWithDB(db, &config.WarehouseConfig{ProjectsTable: "erp.jobs"}, zap.NewNop())
	assert.NoError(t, err)
	assert.True(t, client.IsEnabled())
}

func TestNilClient(t *testing.T) {
	var client *datawarehouse.Client

	assert.NoError(t, client.Close())
	assert.Equal(t, "disabled", client.HealthCheck(context.Background()).Status)

	_, err := client.ListProjects(context.Background(), nil)
	assert.Error(t, err)
}

// =============================================================================
// ListProjects
// =============================================================================

func newMockClient(t *testing.T) (*datawarehouse.Client, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	client, err := datawarehouse.NewClientWithDB(db, &config.WarehouseConfig{ProjectsTable: "dbo.jobs", QueryTimeout: 5}, zap.NewNop())
	require.NoError(t, err)
	return client, mock
}

var projectCols = []string{"job_number", "customer_name", "site_name", "contractor", "trade", "description", "completed_on", "contract_value"}

func TestListProjects(t *testing.T) {
	client, mock := newMockClient(t)
	completed := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

	mock.ExpectQuery(`SELECT job_number, .* FROM dbo\.jobs ORDER BY job_number`).
		WillReturnRows(sqlmock.NewRows(projectCols).
			AddRow("J-1", "Acme", "L1", "Guercio Energy Group", "Electrical", "Switchgear", completed, "125000.00").
			AddRow("J-2", "Globex", nil, nil, nil, "Chiller overhaul", nil, nil).
			AddRow("", "Nameless", nil, nil, nil, nil, nil, nil))

	projects, err := client.ListProjects(context.Background(), nil)
	require.NoError(t, err)
	require.Len(t, projects, 2, "rows without a job number are skipped")

	assert.Equal(t, "Acme", projects[0].CompanyName)
	assert.Equal(t, "L1", projects[0].LocationName)
	assert.Equal(t, "electrical", projects[0].Trade)
	assert.Equal(t, "125000.00", projects[0].Valuation)
	require.NotNil(t, projects[0].ExternalRef)
	assert.Equal(t, "J-1", *projects[0].ExternalRef)
	require.NotNil(t, projects[0].PerformedOn)
	assert.True(t, completed.Equal(*projects[0].PerformedOn))

	assert.Empty(t, projects[1].PerformedBy)
	assert.Nil(t, projects[1].PerformedOn)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListProjects_Since(t *testing.T) {
	client, mock := newMockClient(t)
	since := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	mock.ExpectQuery(`FROM dbo\.jobs WHERE modified_at >= @p1`).
		WithArgs(since).
		WillReturnRows(sqlmock.NewRows(projectCols))

	projects, err := client.ListProjects(context.Background(), &since)
	require.NoError(t, err)
	assert.Empty(t, projects)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListProjects_QueryError(t *testing.T) {
	client, mock := newMockClient(t)
	mock.ExpectQuery(`SELECT`).WillReturnError(errors.New("connection reset"))

	_, err := client.ListProjects(context.Background(), nil)
	assert.ErrorContains(t, err, "connection reset")
}

func TestHealthCheck(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)
	defer db.Close()

	client, err := datawarehouse.NewClientWithDB(db, nil, zap.NewNop())
	require.NoError(t, err)

	mock.ExpectPing()
	assert.Equal(t, "healthy", client.HealthCheck(context.Background()).Status)

	mock.ExpectPing().WillReturnError(errors.New("down"))
	status := client.HealthCheck(context.Background())
	assert.Equal(t, "unhealthy", status.Status)
	assert.Equal(t, "down", status.Error)
}
