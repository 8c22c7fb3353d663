package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// UnknownLabel is the fallback for required labels (brand, platform) whose
// raw value was missing or invalid.
const UnknownLabel = "Unknown"

// DefaultCurrency is the ISO 4217 code used when the source does not carry one.
const DefaultCurrency = "USD"

// ErrNonPositiveAmount rejects sales attributions that are zero or negative.
// Unlike engagement counters, which are floored at zero, attributed revenue
// must be strictly positive.
var ErrNonPositiveAmount = errors.New("sales amount must be positive")

// Severity classifies quality issues.
type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// Account groups participants by normalized email. Exactly one account exists
// per distinct lowercase email; the database enforces this across runs with a
// unique constraint.
type Account struct {
	AccountID uuid.UUID
	Email     string
	Metadata  map[string]any
}

// NewAccount creates an account with a fresh identity.
func NewAccount(email string) *Account {
	return &Account{
		AccountID: uuid.New(),
		Email:     email,
		Metadata:  map[string]any{},
	}
}

// Participant is one advocate user, owned by exactly one account.
type Participant struct {
	UserID          uuid.UUID
	AccountID       uuid.UUID
	Name            *string
	InstagramHandle *string
	TikTokHandle    *string
	JoinedAt        *time.Time
	Metadata        map[string]any
}

// Program is one brand campaign owned by a participant.
type Program struct {
	ProgramID   uuid.UUID
	UserID      uuid.UUID
	Brand       string
	ProgramData map[string]any
	StartedAt   *time.Time
	CompletedAt *time.Time
}

// Task is one social media post owned by a program.
type Task struct {
	TaskID       uuid.UUID
	ProgramID    uuid.UUID
	Platform     string
	PostURL      *string
	PostedAt     *time.Time
	PlatformData map[string]any
}

// Analytics is one time-series engagement measurement for a task. Rows are
// unique on (task, measured-at).
type Analytics struct {
	AnalyticsID       uuid.UUID
	TaskID            uuid.UUID
	Likes             *int64
	Comments          *int64
	Shares            *int64
	Reach             *int64
	Impressions       *int64
	EngagementRate    *float64
	AdditionalMetrics map[string]any
	MeasuredAt        time.Time
}

// NewAnalytics builds an analytics record from raw metrics, flooring every
// counter at zero. Nil counters stay nil: absence of a metric is valid.
func NewAnalytics(taskID uuid.UUID, raw *RawAnalytics, measuredAt time.Time) *Analytics {
	return &Analytics{
		AnalyticsID:       uuid.New(),
		TaskID:            taskID,
		Likes:             floorCounter(raw.Likes),
		Comments:          floorCounter(raw.Comments),
		Shares:            floorCounter(raw.Shares),
		Reach:             floorCounter(raw.Reach),
		Impressions:       floorCounter(raw.Impressions),
		EngagementRate:    raw.EngagementRate,
		AdditionalMetrics: map[string]any{},
		MeasuredAt:        measuredAt,
	}
}

// SalesAttribution is revenue attributed to a program. At most one exists per
// program.
type SalesAttribution struct {
	AttributionID   uuid.UUID
	ProgramID       uuid.UUID
	Amount          decimal.Decimal
	Currency        string
	AttributedAt    time.Time
	AttributionData map[string]any
}

// NewSalesAttribution builds a sales record, failing with
// ErrNonPositiveAmount when amount <= 0. Invalid amounts are a hard failure,
// never a clamp.
func NewSalesAttribution(programID uuid.UUID, amount decimal.Decimal, attributedAt time.Time) (*SalesAttribution, error) {
	if !amount.IsPositive() {
		return nil, ErrNonPositiveAmount
	}
	return &SalesAttribution{
		AttributionID:   uuid.New(),
		ProgramID:       programID,
		Amount:          amount,
		Currency:        DefaultCurrency,
		AttributedAt:    attributedAt,
		AttributionData: map[string]any{},
	}, nil
}

// QualityIssue records one normalization compromise made during a run.
type QualityIssue struct {
	IssueID     uuid.UUID
	ImportID    uuid.UUID
	Severity    Severity
	Category    string
	Description string
	RecordID    *string
	Field       *string
	Value       map[string]any
}

func floorCounter(v *int64) *int64 {
	if v != nil && *v < 0 {
		zero := int64(0)
		return &zero
	}
	return v
}
