package etl

import (
	"github.com/google/uuid"

	"example.com/advocacy-etl/internal/domain"
)

// IssueRecorder accumulates the quality issues of one pipeline run. It is
// run-scoped: every issue carries the run's import id.
type IssueRecorder struct {
	importID uuid.UUID
	issues   []domain.QualityIssue
}

func NewIssueRecorder(importID uuid.UUID) *IssueRecorder {
	return &IssueRecorder{importID: importID}
}

// IssueOption attaches optional context to a recorded issue.
type IssueOption func(*domain.QualityIssue)

// WithRecordID points the issue at the affected entity.
func WithRecordID(id string) IssueOption {
	return func(issue *domain.QualityIssue) { issue.RecordID = &id }
}

// WithField names the problematic field.
func WithField(field string) IssueOption {
	return func(issue *domain.QualityIssue) { issue.Field = &field }
}

// WithValue keeps the offending raw value for later inspection.
func WithValue(value map[string]any) IssueOption {
	return func(issue *domain.QualityIssue) { issue.Value = value }
}

// Record appends one issue.
func (r *IssueRecorder) Record(severity domain.Severity, category, description string, opts ...IssueOption) {
	issue := domain.QualityIssue{
		IssueID:     uuid.New(),
		ImportID:    r.importID,
		Severity:    severity,
		Category:    category,
		Description: description,
	}
	for _, opt := range opts {
		opt(&issue)
	}
	r.issues = append(r.issues, issue)
}

// Issues returns the accumulated issues in record order.
func (r *IssueRecorder) Issues() []domain.QualityIssue { return r.issues }

// Count returns the total number of issues.
func (r *IssueRecorder) Count() int { return len(r.issues) }

// CountBySeverity buckets issue counts by severity.
func (r *IssueRecorder) CountBySeverity() map[domain.Severity]int {
	counts := make(map[domain.Severity]int)
	for _, issue := range r.issues {
		counts[issue.Severity]++
	}
	return counts
}
