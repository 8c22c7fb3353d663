package etl

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"example.com/advocacy-etl/internal/domain"
)

type fakeLoader struct {
	err      error
	calls    int
	importID uuid.UUID
	batch    domain.Batch
	issues   []domain.QualityIssue
}

func (f *fakeLoader) Load(_ context.Context, importID uuid.UUID, batch domain.Batch, issues []domain.QualityIssue) error {
	f.calls++
	f.importID = importID
	f.batch = batch
	f.issues = issues
	return f.err
}

func TestPipelineRun(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "participants.json", `{
		"email": "jane@example.com",
		"name": "Jane",
		"advocacy_programs": [{
			"brand": "Acme",
			"total_sales_attributed": 250.00,
			"tasks_completed": [
				{"platform": "tiktok", "likes": 10},
				{"platform": "youtube"}
			]
		}]
	}`)
	writeFile(t, dir, "second.json", `{"email": "JANE@example.com"}`)
	writeFile(t, dir, "hopeless.json", `not json`)

	loader := &fakeLoader{}
	summary, err := NewPipeline(loader, zaptest.NewLogger(t)).Run(context.Background(), dir)
	require.NoError(t, err)
	require.NotNil(t, summary)

	assert.True(t, summary.Succeeded)
	assert.Equal(t, 2, summary.FilesProcessed)
	assert.Equal(t, 1, summary.FilesFailed)
	assert.Equal(t, 1, summary.AccountsCreated, "both records share one account")
	assert.Equal(t, 2, summary.UsersCreated)
	assert.Equal(t, 1, summary.ProgramsCreated)
	assert.Equal(t, 2, summary.TasksCreated)
	assert.Equal(t, 1, summary.AnalyticsCreated, "the metric-less task carries no analytics")
	assert.Equal(t, 1, summary.SalesCreated)
	assert.Equal(t, summary.QualityIssues, len(loader.issues))
	assert.Equal(t, summary.QualityIssues, sumSeverities(summary.IssuesBySeverity))

	assert.Equal(t, 1, loader.calls)
	assert.Equal(t, summary.ImportID, loader.importID)
	require.Len(t, loader.batch, 2)
	for _, issue := range loader.issues {
		assert.Equal(t, summary.ImportID, issue.ImportID)
	}
}

func TestPipelineRunLoadFailureStillReturnsSummary(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "one.json", `{"email": "jane@example.com"}`)

	loadErr := errors.New("connection refused")
	loader := &fakeLoader{err: loadErr}
	summary, err := NewPipeline(loader, zaptest.NewLogger(t)).Run(context.Background(), dir)

	assert.ErrorIs(t, err, loadErr)
	require.NotNil(t, summary, "the summary survives a failed load")
	assert.False(t, summary.Succeeded)
	assert.Equal(t, 1, summary.UsersCreated)
}

func TestPipelineRunsAreIndependent(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "one.json", `{"email": "jane@example.com"}`)

	loader := &fakeLoader{}
	p := NewPipeline(loader, zaptest.NewLogger(t))

	first, err := p.Run(context.Background(), dir)
	require.NoError(t, err)
	second, err := p.Run(context.Background(), dir)
	require.NoError(t, err)

	assert.NotEqual(t, first.ImportID, second.ImportID)
	assert.Equal(t, 1, second.AccountsCreated, "account cache does not leak across runs")
}

func TestPipelineMissingDirectoryFails(t *testing.T) {
	loader := &fakeLoader{}
	summary, err := NewPipeline(loader, zaptest.NewLogger(t)).Run(context.Background(), "/does/not/exist")
	assert.Error(t, err)
	assert.Nil(t, summary)
	assert.Zero(t, loader.calls)
}

func sumSeverities(counts map[domain.Severity]int) int {
	total := 0
	for _, n := range counts {
		total += n
	}
	return total
}
