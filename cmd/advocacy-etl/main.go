package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"example.com/advocacy-etl/internal/config"
	"example.com/advocacy-etl/internal/domain"
	"example.com/advocacy-etl/internal/etl"
	spg "example.com/advocacy-etl/internal/storage/postgres"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger, err := newLogger(cfg.Env)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := spg.RunMigrations(cfg.Database.DSN(), cfg.MigrationsPath, logger); err != nil {
		logger.Fatal("migration failed", zap.Error(err))
	}

	db, err := spg.Connect(ctx, cfg.Database.DSN(), spg.PoolConfig{
		MaxConnections: cfg.Database.MaxConnections,
	})
	if err != nil {
		logger.Fatal("database connect failed", zap.Error(err))
	}
	defer db.Close()

	if err := db.Ready(ctx); err != nil {
		logger.Fatal("database not ready", zap.Error(err))
	}

	loader := spg.NewLoader(db, cfg.Database.AcquireTimeout(), cfg.RefreshViews, logger)
	pipeline := etl.NewPipeline(loader, logger)

	summary, err := pipeline.Run(ctx, cfg.DataDir)
	if summary != nil {
		printSummary(summary)
		printHistory(ctx, db, summary)
	}
	if err != nil {
		logger.Error("run failed", zap.Error(err))
		os.Exit(1)
	}
}

func newLogger(env string) (*zap.Logger, error) {
	if env == "local" {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

func printSummary(s *etl.RunSummary) {
	fmt.Println("================================================================")
	fmt.Println("ETL PIPELINE SUMMARY")
	fmt.Println("================================================================")
	fmt.Printf("Import ID:         %s\n", s.ImportID)
	fmt.Printf("Files processed:   %d\n", s.FilesProcessed)
	fmt.Printf("Files failed:      %d\n", s.FilesFailed)
	fmt.Printf("Accounts created:  %d\n", s.AccountsCreated)
	fmt.Printf("Users created:     %d\n", s.UsersCreated)
	fmt.Printf("Programs created:  %d\n", s.ProgramsCreated)
	fmt.Printf("Tasks created:     %d\n", s.TasksCreated)
	fmt.Printf("Analytics created: %d\n", s.AnalyticsCreated)
	fmt.Printf("Sales records:     %d\n", s.SalesCreated)
	fmt.Printf("Quality issues:    %d\n", s.QualityIssues)
	fmt.Printf("Duration:          %s\n", s.Duration)

	if len(s.IssuesBySeverity) > 0 {
		fmt.Println("\nQuality issues by severity:")
		for _, severity := range []domain.Severity{
			domain.SeverityCritical, domain.SeverityHigh, domain.SeverityMedium, domain.SeverityLow,
		} {
			if n := s.IssuesBySeverity[severity]; n > 0 {
				fmt.Printf("  %-8s : %d\n", severity, n)
			}
		}
	}
}

func printHistory(ctx context.Context, db *spg.DB, s *etl.RunSummary) {
	runs, err := db.RecentImports(ctx, 5)
	if err != nil {
		return
	}
	fmt.Println("\nRecent imports:")
	for _, run := range runs {
		count := int64(0)
		if run.RecordsCount != nil {
			count = *run.RecordsCount
		}
		fmt.Printf("  %s  %-10s  records=%d  started=%s\n",
			run.ImportID, run.Status, count, run.StartedAt.Format("2006-01-02 15:04:05"))
	}
	if breakdown, err := db.IssueBreakdown(ctx, s.ImportID); err == nil && len(breakdown) > 0 {
		fmt.Println("\nStored issue breakdown for this run:")
		for _, sc := range breakdown {
			fmt.Printf("  %-8s : %d\n", sc.Severity, sc.Count)
		}
	}
}
