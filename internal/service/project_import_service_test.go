package service_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/triumph-atlantic/matrix-api/internal/domain"
	"github.com/triumph-atlantic/matrix-api/internal/service"
	"github.com/triumph-atlantic/matrix-api/internal/testutil"
	"go.uber.org/zap"
)

type fakeWarehouse struct {
	projects []domain.Project
	err      error
	calls    []*time.Time
}

func (f *fakeWarehouse) ListProjects(_ context.Context, since *time.Time) ([]domain.Project, error) {
	f.calls = append(f.calls, since)
	return f.projects, f.err
}

type countingInvalidator struct {
	count int
}

func (c *countingInvalidator) Invalidate(context.Context) {
	c.count++
}

func ref(s string) *string {
	return &s
}

func TestProjectImportService_Sync(t *testing.T) {
	s := newServices(t)
	ctx := context.Background()

	warehouse := &fakeWarehouse{projects: []domain.Project{
		{CompanyName: "Globex", LocationName: "G1", Trade: "electrical", PerformedBy: testutil.Guercio, ExternalRef: ref("J-100")},
		{CompanyName: "Acme", LocationName: "L2", Trade: "staffing", PerformedBy: "Newco Staffing", ExternalRef: ref("J-101")},
		{CompanyName: "Acme", LocationName: "L2", Trade: "staffing", PerformedBy: "No Ref Inc"},
	}}
	invalidator := &countingInvalidator{}
	importer := service.NewProjectImportService(warehouse, s.store.Projects, invalidator, zap.NewNop())

	result, err := importer.Sync(ctx, false)
	require.NoError(t, err)
	assert.Equal(t, 3, result.Fetched)
	assert.Equal(t, 2, result.Imported)
	assert.Equal(t, 1, result.Skipped)
	assert.Nil(t, result.Since)
	assert.Equal(t, 1, invalidator.count)

	// Imported work grants visibility
	visible, err := s.visibility.GetVisibleCompanies(ctx, testutil.Guercio)
	require.NoError(t, err)
	assert.Equal(t, []string{"Acme", "Globex"}, companyNames(visible))

	// A second run is incremental and refreshes rows by reference
	warehouse.projects = []domain.Project{
		{CompanyName: "Globex", LocationName: "G1", Trade: "electrical", PerformedBy: testutil.Guercio, Valuation: "$9,000", ExternalRef: ref("J-100")},
	}
	result, err = importer.Sync(ctx, false)
	require.NoError(t, err)
	require.NotNil(t, result.Since)
	require.Len(t, warehouse.calls, 2)
	assert.NotNil(t, warehouse.calls[1])

	projects, err := s.store.Projects.List(ctx)
	require.NoError(t, err)
	assert.Len(t, projects, 5, "three seeded, two imported")
	for _, p := range projects {
		if p.ExternalRef != nil && *p.ExternalRef == "J-100" {
			assert.Equal(t, "$9,000", p.Valuation)
		}
	}

	// Full runs ignore the watermark
	_, err = importer.Sync(ctx, true)
	require.NoError(t, err)
	assert.Nil(t, warehouse.calls[2])
}

type recordingUpserter struct {
	batches [][]domain.Project
}

func (r *recordingUpserter) UpsertByExternalRef(_ context.Context, projects []domain.Project) error {
	r.batches = append(r.batches, projects)
	return nil
}

func TestProjectImportService_DuplicateReferencesLastWins(t *testing.T) {
	warehouse := &fakeWarehouse{projects: []domain.Project{
		{CompanyName: "Acme", Trade: "electrical", PerformedBy: testutil.Guercio, Valuation: "$1,000", ExternalRef: ref("J-200")},
		{CompanyName: "Acme", Trade: "mechanical", PerformedBy: testutil.Myers, ExternalRef: ref("J-201")},
		{CompanyName: "Acme", Trade: "electrical", PerformedBy: testutil.Guercio, Valuation: "$2,500", ExternalRef: ref("J-200")},
	}}
	upserter := &recordingUpserter{}
	importer := service.NewProjectImportService(warehouse, upserter, nil, zap.NewNop())

	result, err := importer.Sync(context.Background(), true)
	require.NoError(t, err)
	assert.Equal(t, 2, result.Imported)
	assert.Equal(t, 1, result.Duplicates)

	require.Len(t, upserter.batches, 1)
	batch := upserter.batches[0]
	require.Len(t, batch, 2)
	assert.Equal(t, "J-200", *batch[0].ExternalRef)
	assert.Equal(t, "$2,500", batch[0].Valuation)
	assert.Equal(t, "J-201", *batch[1].ExternalRef)
}

func TestProjectImportService_SourceError(t *testing.T) {
	s := newServices(t)
	warehouse := &fakeWarehouse{err: errors.New("timeout")}
	invalidator := &countingInvalidator{}
	importer := service.NewProjectImportService(warehouse, s.store.Projects, invalidator, zap.NewNop())

	_, err := importer.Sync(context.Background(), false)
	assert.ErrorContains(t, err, "timeout")
	assert.Zero(t, invalidator.count)

	// The watermark only advances on success
	warehouse.err = nil
	_, err = importer.Sync(context.Background(), false)
	require.NoError(t, err)
	assert.Nil(t, warehouse.calls[1])
}
