package etl

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"example.com/advocacy-etl/internal/domain"
)

// Transformer converts raw participant documents into the clean entity
// graph, resolving accounts through the run-scoped resolver and recording a
// quality issue for every compromise made. A single bad record never aborts
// the batch.
type Transformer struct {
	accounts *AccountResolver
	issues   *IssueRecorder
	logger   *zap.Logger
	now      func() time.Time
}

func NewTransformer(accounts *AccountResolver, issues *IssueRecorder, logger *zap.Logger, now func() time.Time) *Transformer {
	if now == nil {
		now = func() time.Time { return time.Now().UTC() }
	}
	return &Transformer{accounts: accounts, issues: issues, logger: logger, now: now}
}

// Transform processes records independently and in input order. Records that
// fail to decode are skipped with a critical transformation_error issue.
func (t *Transformer) Transform(records []json.RawMessage) domain.Batch {
	batch := make(domain.Batch, 0, len(records))
	for _, record := range records {
		var raw domain.RawParticipant
		if err := json.Unmarshal(record, &raw); err != nil {
			t.logger.Warn("skipping untransformable record", zap.Error(err))
			t.issues.Record(domain.SeverityCritical, "transformation_error",
				"failed to transform participant record: "+err.Error(),
				WithValue(map[string]any{"raw_data": string(record)}))
			continue
		}
		batch = append(batch, t.transformParticipant(&raw))
	}
	t.logger.Info("transformed records", zap.Int("count", len(batch)))
	return batch
}

func (t *Transformer) transformParticipant(raw *domain.RawParticipant) domain.ParticipantRecord {
	account := t.resolveAccount(raw)

	participant := &domain.Participant{
		UserID:          uuid.New(),
		AccountID:       account.AccountID,
		Name:            raw.Name,
		InstagramHandle: raw.InstagramHandle,
		TikTokHandle:    raw.TikTokHandle,
		JoinedAt:        raw.JoinedAt,
		Metadata:        map[string]any{},
	}
	if raw.UserID != nil {
		participant.UserID = *raw.UserID
	} else {
		t.issues.Record(domain.SeverityMedium, "missing_user_id",
			"user id was null or invalid, generated new identity",
			WithRecordID(participant.UserID.String()), WithField("user_id"))
	}
	if raw.Name == nil {
		t.issues.Record(domain.SeverityLow, "missing_name",
			"user name was null or placeholder",
			WithRecordID(participant.UserID.String()), WithField("name"))
	}
	if raw.Email == nil {
		t.issues.Record(domain.SeverityMedium, "invalid_email",
			"email was null or invalid format",
			WithRecordID(participant.UserID.String()), WithField("email"))
	}

	programs := make([]domain.ProgramRecord, 0, len(raw.Programs))
	for i := range raw.Programs {
		programs = append(programs, t.transformProgram(&raw.Programs[i], participant.UserID))
	}
	return domain.ParticipantRecord{Participant: participant, Programs: programs, Account: account}
}

func (t *Transformer) resolveAccount(raw *domain.RawParticipant) *domain.Account {
	if raw.Email != nil {
		return t.accounts.Resolve(*raw.Email)
	}
	account := t.accounts.ResolvePlaceholder()
	recordID := "unknown"
	if raw.UserID != nil {
		recordID = raw.UserID.String()
	}
	t.issues.Record(domain.SeverityHigh, "missing_email",
		"user has no valid email, created placeholder account",
		WithRecordID(recordID), WithField("email"))
	return account
}

func (t *Transformer) transformProgram(raw *domain.RawProgram, userID uuid.UUID) domain.ProgramRecord {
	program := &domain.Program{
		ProgramID:   uuid.New(),
		UserID:      userID,
		Brand:       domain.UnknownLabel,
		ProgramData: map[string]any{},
		StartedAt:   raw.StartedAt,
		CompletedAt: raw.CompletedAt,
	}
	if raw.ProgramID != nil {
		program.ProgramID = *raw.ProgramID
	} else {
		t.issues.Record(domain.SeverityMedium, "missing_program_id",
			"program id was null or invalid, generated new identity",
			WithRecordID(program.ProgramID.String()), WithField("program_id"))
	}
	if raw.Brand != nil {
		program.Brand = *raw.Brand
	} else {
		t.issues.Record(domain.SeverityMedium, "missing_brand",
			"program brand was null, empty, or numeric, using fallback: "+domain.UnknownLabel,
			WithRecordID(userID.String()), WithField("brand"))
	}

	sales := t.transformSales(raw, program.ProgramID)

	tasks := make([]domain.TaskRecord, 0, len(raw.Tasks))
	for i := range raw.Tasks {
		tasks = append(tasks, t.transformTask(&raw.Tasks[i], program.ProgramID))
	}
	return domain.ProgramRecord{Program: program, Tasks: tasks, Sales: sales}
}

// transformSales returns nil when the program carries no amount, or when the
// amount fails validation. Sales are optional; a bad amount only costs the
// sales record, never the program.
func (t *Transformer) transformSales(raw *domain.RawProgram, programID uuid.UUID) *domain.SalesAttribution {
	if raw.SalesAmount == nil {
		if raw.SalesRaw != nil {
			t.issues.Record(domain.SeverityMedium, "invalid_sales_amount",
				"failed to parse sales amount",
				WithRecordID(programID.String()), WithField("sales_attributed"),
				WithValue(map[string]any{"raw_value": raw.SalesRaw}))
		}
		return nil
	}
	sales, err := domain.NewSalesAttribution(programID, *raw.SalesAmount, t.now())
	if err != nil {
		t.issues.Record(domain.SeverityMedium, "invalid_sales_amount",
			"failed to validate sales amount: "+err.Error(),
			WithRecordID(programID.String()), WithField("sales_attributed"),
			WithValue(map[string]any{"raw_value": raw.SalesAmount.String()}))
		return nil
	}
	return sales
}

func (t *Transformer) transformTask(raw *domain.RawTask, programID uuid.UUID) domain.TaskRecord {
	task := &domain.Task{
		TaskID:       uuid.New(),
		ProgramID:    programID,
		Platform:     domain.UnknownLabel,
		PostURL:      raw.PostURL,
		PostedAt:     raw.PostedAt,
		PlatformData: map[string]any{},
	}
	if raw.TaskID != nil {
		task.TaskID = *raw.TaskID
	} else {
		t.issues.Record(domain.SeverityMedium, "missing_task_id",
			"task id was null or invalid, generated new identity",
			WithRecordID(task.TaskID.String()), WithField("task_id"))
	}
	if raw.Platform != nil {
		task.Platform = *raw.Platform
	} else {
		t.issues.Record(domain.SeverityHigh, "invalid_platform",
			"task platform was null or invalid, using fallback: "+domain.UnknownLabel,
			WithRecordID(programID.String()), WithField("platform"),
			WithValue(map[string]any{"original_value": "null or invalid"}))
	}

	var analytics *domain.Analytics
	if raw.Analytics != nil {
		analytics = domain.NewAnalytics(task.TaskID, raw.Analytics, t.now())
	}
	return domain.TaskRecord{Task: task, Analytics: analytics}
}
