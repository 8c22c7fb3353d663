package etl

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"example.com/advocacy-etl/internal/domain"
)

// BatchLoader persists one transformed batch atomically.
type BatchLoader interface {
	Load(ctx context.Context, importID uuid.UUID, batch domain.Batch, issues []domain.QualityIssue) error
}

// Pipeline sequences Extract -> Transform -> Load for one run. Each Run owns
// a fresh import identity, account cache, and issue recorder, so pipelines
// can be reused but runs never share state.
type Pipeline struct {
	loader BatchLoader
	logger *zap.Logger
	now    func() time.Time
}

func NewPipeline(loader BatchLoader, logger *zap.Logger) *Pipeline {
	return &Pipeline{
		loader: loader,
		logger: logger,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// RunSummary reports what one pipeline run did.
type RunSummary struct {
	ImportID         uuid.UUID
	FilesProcessed   int
	FilesFailed      int
	AccountsCreated  int
	UsersCreated     int
	ProgramsCreated  int
	TasksCreated     int
	AnalyticsCreated int
	SalesCreated     int
	QualityIssues    int
	IssuesBySeverity map[domain.Severity]int
	Duration         time.Duration
	Succeeded        bool
}

// Run processes one directory snapshot to completion. Extract and transform
// failures become quality issues; only a load failure makes the run itself
// fail, and the summary is still returned alongside the error.
func (p *Pipeline) Run(ctx context.Context, dataDir string) (*RunSummary, error) {
	start := p.now()
	importID := uuid.New()
	logger := p.logger.With(zap.String("import_id", importID.String()))
	logger.Info("starting pipeline run", zap.String("data_dir", dataDir))

	issues := NewIssueRecorder(importID)
	accounts := NewAccountResolver()

	extracted, err := NewExtractor(issues, logger).Extract(dataDir)
	if err != nil {
		return nil, err
	}

	batch := NewTransformer(accounts, issues, logger, p.now).Transform(extracted.Records)

	summary := &RunSummary{
		ImportID:        importID,
		FilesProcessed:  extracted.FilesProcessed,
		FilesFailed:     extracted.FilesFailed,
		AccountsCreated: accounts.Created(),
	}
	for _, rec := range batch {
		summary.UsersCreated++
		for _, prog := range rec.Programs {
			summary.ProgramsCreated++
			if prog.Sales != nil {
				summary.SalesCreated++
			}
			summary.TasksCreated += len(prog.Tasks)
			for _, task := range prog.Tasks {
				if task.Analytics != nil {
					summary.AnalyticsCreated++
				}
			}
		}
	}
	summary.QualityIssues = issues.Count()
	summary.IssuesBySeverity = issues.CountBySeverity()

	err = p.loader.Load(ctx, importID, batch, issues.Issues())
	summary.Duration = p.now().Sub(start)
	summary.Succeeded = err == nil
	if err != nil {
		logger.Error("pipeline run failed", zap.Error(err))
		return summary, err
	}
	logger.Info("pipeline run completed",
		zap.Int("files_processed", summary.FilesProcessed),
		zap.Int("files_failed", summary.FilesFailed),
		zap.Int("users", summary.UsersCreated),
		zap.Int("quality_issues", summary.QualityIssues),
		zap.Duration("duration", summary.Duration))
	return summary, nil
}
