package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"go.uber.org/zap"

	"example.com/advocacy-etl/internal/domain"
)

// ErrAcquireTimeout marks a failure to obtain the load transaction within
// the configured timeout. Callers should treat it as retryable, unlike a
// constraint violation.
var ErrAcquireTimeout = errors.New("timed out acquiring load transaction")

// pgxConn is the subset of pgxpool.Pool the loader uses.
type pgxConn interface {
	Begin(ctx context.Context) (pgx.Tx, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// dbtx is the subset of pgx.Tx the load steps use.
type dbtx interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Loader persists a transformed batch in a single transaction, in foreign
// key dependency order, with upsert semantics throughout. Any failure rolls
// the whole batch back; no partial writes are observable.
type Loader struct {
	conn           pgxConn
	logger         *zap.Logger
	acquireTimeout time.Duration
	refreshViews   bool
	now            func() time.Time
}

func NewLoader(db *DB, acquireTimeout time.Duration, refreshViews bool, logger *zap.Logger) *Loader {
	return &Loader{
		conn:           db.Pool,
		logger:         logger,
		acquireTimeout: acquireTimeout,
		refreshViews:   refreshViews,
		now:            func() time.Time { return time.Now().UTC() },
	}
}

const (
	insertImportSQL = `
		INSERT INTO raw_imports (
			import_id, file_name, original_data,
			processing_status, processing_started_at, processed_by
		) VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (import_id) DO NOTHING`

	upsertAccountSQL = `
		INSERT INTO advocate_accounts (account_id, email, metadata)
		VALUES ($1, $2, $3)
		ON CONFLICT (email) DO UPDATE SET
			metadata = EXCLUDED.metadata,
			updated_at = NOW()
		RETURNING account_id`

	upsertParticipantSQL = `
		INSERT INTO advocate_users (
			user_id, account_id, name, instagram_handle,
			tiktok_handle, joined_at, metadata
		) VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (user_id) DO UPDATE SET
			account_id = EXCLUDED.account_id,
			name = EXCLUDED.name,
			instagram_handle = EXCLUDED.instagram_handle,
			tiktok_handle = EXCLUDED.tiktok_handle,
			joined_at = EXCLUDED.joined_at,
			updated_at = NOW()`

	upsertProgramSQL = `
		INSERT INTO programs (
			program_id, user_id, brand, program_data, started_at, completed_at
		) VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (program_id) DO UPDATE SET
			brand = EXCLUDED.brand,
			started_at = EXCLUDED.started_at,
			completed_at = EXCLUDED.completed_at,
			updated_at = NOW()`

	upsertSalesSQL = `
		INSERT INTO sales_attribution (
			attribution_id, program_id, amount, currency,
			attributed_at, attribution_data
		) VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (program_id) DO UPDATE SET
			amount = EXCLUDED.amount,
			currency = EXCLUDED.currency,
			attributed_at = EXCLUDED.attributed_at,
			updated_at = NOW()`

	upsertTaskSQL = `
		INSERT INTO tasks (
			task_id, program_id, platform, post_url, posted_at, platform_data
		) VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (task_id) DO UPDATE SET
			platform = EXCLUDED.platform,
			post_url = EXCLUDED.post_url,
			posted_at = EXCLUDED.posted_at,
			updated_at = NOW()`

	upsertAnalyticsSQL = `
		INSERT INTO social_analytics (
			analytics_id, task_id, likes, comments, shares, reach,
			impressions, engagement_rate, additional_metrics, measured_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (task_id, measured_at) DO UPDATE SET
			likes = EXCLUDED.likes,
			comments = EXCLUDED.comments,
			shares = EXCLUDED.shares,
			reach = EXCLUDED.reach,
			impressions = EXCLUDED.impressions,
			engagement_rate = EXCLUDED.engagement_rate,
			updated_at = NOW()`

	insertIssueSQL = `
		INSERT INTO data_quality_issues (
			issue_id, import_id, severity, issue_type, issue_description,
			affected_record_id, affected_field, problematic_value
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	completeImportSQL = `
		UPDATE raw_imports
		SET processing_status = 'completed',
			processing_completed_at = $1,
			records_count = $2
		WHERE import_id = $3`

	refreshViewsSQL = `SELECT refresh_all_materialized_views()`
)

// Load writes the batch and its quality issues atomically. After a
// successful commit it refreshes derived views best-effort; a refresh
// failure is logged and does not fail the load.
func (l *Loader) Load(ctx context.Context, importID uuid.UUID, batch domain.Batch, issues []domain.QualityIssue) error {
	beginCtx := ctx
	if l.acquireTimeout > 0 {
		var cancel context.CancelFunc
		beginCtx, cancel = context.WithTimeout(ctx, l.acquireTimeout)
		defer cancel()
	}
	tx, err := l.conn.Begin(beginCtx)
	if err != nil {
		if beginCtx.Err() != nil {
			return fmt.Errorf("%w: %v", ErrAcquireTimeout, err)
		}
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck // rollback on defer is best-effort

	if err := l.loadTx(ctx, tx, importID, batch, issues); err != nil {
		l.logger.Error("load failed, rolling back", zap.Error(err))
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	l.logger.Info("batch committed",
		zap.String("import_id", importID.String()),
		zap.Int("participants", len(batch)),
		zap.Int("quality_issues", len(issues)))

	if l.refreshViews {
		if _, err := l.conn.Exec(ctx, refreshViewsSQL); err != nil {
			l.logger.Warn("could not refresh materialized views", zap.Error(err))
		}
	}
	return nil
}

func (l *Loader) loadTx(ctx context.Context, tx dbtx, importID uuid.UUID, batch domain.Batch, issues []domain.QualityIssue) error {
	now := l.now()

	_, err := tx.Exec(ctx, insertImportSQL,
		importID,
		"etl_pipeline_batch",
		map[string]any{"source": "etl_pipeline", "timestamp": now.Format(time.RFC3339)},
		"processing",
		now,
		"etl_pipeline",
	)
	if err != nil {
		return fmt.Errorf("insert import record: %w", err)
	}

	// Accounts first: participants reference them. Each unique email is
	// upserted once, and the storage-assigned account id is captured. It can
	// differ from the batch-local id when the email row pre-exists, so every
	// participant FK below goes through this map, never the local id.
	accountIDByEmail := make(map[string]uuid.UUID)
	for _, rec := range batch {
		if _, done := accountIDByEmail[rec.Account.Email]; done {
			continue
		}
		var actualID uuid.UUID
		err := tx.QueryRow(ctx, upsertAccountSQL,
			rec.Account.AccountID, rec.Account.Email, rec.Account.Metadata,
		).Scan(&actualID)
		if err != nil {
			return fmt.Errorf("upsert account %s: %w", rec.Account.Email, err)
		}
		accountIDByEmail[rec.Account.Email] = actualID
	}

	for _, rec := range batch {
		user := rec.Participant
		_, err := tx.Exec(ctx, upsertParticipantSQL,
			user.UserID,
			accountIDByEmail[rec.Account.Email],
			user.Name,
			user.InstagramHandle,
			user.TikTokHandle,
			user.JoinedAt,
			user.Metadata,
		)
		if err != nil {
			return fmt.Errorf("upsert user %s: %w", user.UserID, err)
		}

		for _, prog := range rec.Programs {
			p := prog.Program
			_, err := tx.Exec(ctx, upsertProgramSQL,
				p.ProgramID, p.UserID, p.Brand, p.ProgramData, p.StartedAt, p.CompletedAt,
			)
			if err != nil {
				return fmt.Errorf("upsert program %s: %w", p.ProgramID, err)
			}

			if s := prog.Sales; s != nil {
				_, err := tx.Exec(ctx, upsertSalesSQL,
					s.AttributionID, s.ProgramID, s.Amount, s.Currency, s.AttributedAt, s.AttributionData,
				)
				if err != nil {
					return fmt.Errorf("upsert sales for program %s: %w", s.ProgramID, err)
				}
			}

			for _, tr := range prog.Tasks {
				task := tr.Task
				_, err := tx.Exec(ctx, upsertTaskSQL,
					task.TaskID, task.ProgramID, task.Platform, task.PostURL, task.PostedAt, task.PlatformData,
				)
				if err != nil {
					return fmt.Errorf("upsert task %s: %w", task.TaskID, err)
				}

				if a := tr.Analytics; a != nil {
					_, err := tx.Exec(ctx, upsertAnalyticsSQL,
						a.AnalyticsID, a.TaskID, a.Likes, a.Comments, a.Shares,
						a.Reach, a.Impressions, a.EngagementRate, a.AdditionalMetrics, a.MeasuredAt,
					)
					if err != nil {
						return fmt.Errorf("upsert analytics for task %s: %w", a.TaskID, err)
					}
				}
			}
		}
	}

	for _, issue := range issues {
		_, err := tx.Exec(ctx, insertIssueSQL,
			issue.IssueID,
			issue.ImportID,
			string(issue.Severity),
			issue.Category,
			issue.Description,
			issue.RecordID,
			issue.Field,
			jsonOrNull(issue.Value),
		)
		if err != nil {
			return fmt.Errorf("insert quality issue: %w", err)
		}
	}

	if _, err := tx.Exec(ctx, completeImportSQL, l.now(), len(batch), importID); err != nil {
		return fmt.Errorf("complete import record: %w", err)
	}
	return nil
}

// jsonOrNull maps an empty value bag to SQL NULL instead of an empty object.
func jsonOrNull(m map[string]any) any {
	if m == nil {
		return nil
	}
	return m
}
