package etl

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"example.com/advocacy-etl/internal/domain"
)

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
}

func TestExtractValidAndRepairedFiles(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a_valid.json", `{"email": "jane@example.com", "advocacy_programs": []}`)
	// Missing final closing brace after the programs array.
	writeFile(t, dir, "b_truncated.json", `{"email": "john@example.com", "advocacy_programs": []`)
	// Trailing garbage after the last closing bracket.
	writeFile(t, dir, "c_garbage.json", `{"email": "kate@example.com", "advocacy_programs": []extra junk`)

	issues := NewIssueRecorder(uuid.New())
	result, err := NewExtractor(issues, zaptest.NewLogger(t)).Extract(dir)
	require.NoError(t, err)

	assert.Equal(t, 3, result.FilesProcessed)
	assert.Equal(t, 0, result.FilesFailed)
	require.Len(t, result.Records, 3)
	assert.Empty(t, issues.Issues())
}

func TestExtractSkipsUnrepairableFile(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "good.json", `{"advocacy_programs": []}`)
	writeFile(t, dir, "hopeless.json", `this is not json at all`)

	issues := NewIssueRecorder(uuid.New())
	result, err := NewExtractor(issues, zaptest.NewLogger(t)).Extract(dir)
	require.NoError(t, err)

	assert.Equal(t, 1, result.FilesProcessed)
	assert.Equal(t, 1, result.FilesFailed)
	require.Len(t, issues.Issues(), 1)
	issue := issues.Issues()[0]
	assert.Equal(t, domain.SeverityCritical, issue.Severity)
	assert.Equal(t, "invalid_json_file", issue.Category)
}

func TestExtractDoesNotModifyInputFiles(t *testing.T) {
	dir := t.TempDir()
	broken := `{"advocacy_programs": []`
	writeFile(t, dir, "broken.json", broken)

	issues := NewIssueRecorder(uuid.New())
	_, err := NewExtractor(issues, zaptest.NewLogger(t)).Extract(dir)
	require.NoError(t, err)

	content, err := os.ReadFile(filepath.Join(dir, "broken.json"))
	require.NoError(t, err)
	assert.Equal(t, broken, string(content), "repair happens in memory only")
}

func TestRepairJSON(t *testing.T) {
	repaired, ok := repairJSON([]byte(`{"a": [1, 2]`))
	require.True(t, ok)
	assert.JSONEq(t, `{"a": [1, 2]}`, string(repaired))

	repaired, ok = repairJSON([]byte(`{"a": [1, 2]trailing`))
	require.True(t, ok)
	assert.JSONEq(t, `{"a": [1, 2]}`, string(repaired))

	_, ok = repairJSON([]byte(`no brackets here`))
	assert.False(t, ok)
}

func TestExtractEmptyDirectory(t *testing.T) {
	issues := NewIssueRecorder(uuid.New())
	result, err := NewExtractor(issues, zaptest.NewLogger(t)).Extract(t.TempDir())
	require.NoError(t, err)
	assert.Empty(t, result.Records)
	assert.Equal(t, 0, result.FilesProcessed)
}
