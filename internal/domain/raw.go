package domain

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Raw models are the permissive representation of one input record. Every
// field is optional and independently normalized during unmarshalling;
// malformed values degrade to nil instead of failing the decode. Unmarshal
// errors are reserved for structurally broken documents (non-object records,
// arrays where objects are expected), which the transform stage treats as a
// record-level failure.

// RawAnalytics holds engagement metrics for a single post.
type RawAnalytics struct {
	Likes          *int64
	Comments       *int64
	Shares         *int64
	Reach          *int64
	Impressions    *int64
	EngagementRate *float64
}

func (a *RawAnalytics) UnmarshalJSON(data []byte) error {
	var aux struct {
		Likes          any `json:"likes"`
		Comments       any `json:"comments"`
		Shares         any `json:"shares"`
		Reach          any `json:"reach"`
		Impressions    any `json:"impressions"`
		EngagementRate any `json:"engagement_rate"`
	}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	a.Likes = counterOrNil(aux.Likes)
	a.Comments = counterOrNil(aux.Comments)
	a.Shares = counterOrNil(aux.Shares)
	a.Reach = counterOrNil(aux.Reach)
	a.Impressions = counterOrNil(aux.Impressions)
	if rate, ok := NormalizeRate(aux.EngagementRate); ok {
		a.EngagementRate = &rate
	}
	return nil
}

// RawTask is one social media post completed by a participant.
type RawTask struct {
	TaskID    *uuid.UUID
	Platform  *string
	PostURL   *string
	PostedAt  *time.Time
	Analytics *RawAnalytics
}

func (t *RawTask) UnmarshalJSON(data []byte) error {
	var aux struct {
		TaskID    any             `json:"task_id"`
		Platform  any             `json:"platform"`
		PostURL   any             `json:"post_url"`
		PostedAt  any             `json:"posted_at"`
		Analytics json.RawMessage `json:"analytics"`

		// Flat analytics fields (legacy format, pre-nested exports).
		Likes          any `json:"likes"`
		Comments       any `json:"comments"`
		Shares         any `json:"shares"`
		Reach          any `json:"reach"`
		Impressions    any `json:"impressions"`
		EngagementRate any `json:"engagement_rate"`
	}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	if id, ok := NormalizeID(aux.TaskID); ok {
		t.TaskID = &id
	}
	if platform, ok := NormalizePlatform(aux.Platform); ok {
		t.Platform = &platform
	}
	if u, ok := NormalizeURL(aux.PostURL); ok {
		t.PostURL = &u
	}
	if posted, ok := NormalizeDate(aux.PostedAt); ok {
		t.PostedAt = &posted
	}

	if len(aux.Analytics) > 0 && string(aux.Analytics) != "null" {
		var analytics RawAnalytics
		if err := json.Unmarshal(aux.Analytics, &analytics); err != nil {
			return err
		}
		t.Analytics = &analytics
		return nil
	}

	// Format-compatibility shim: some sources put analytics fields directly
	// on the task. Synthesize the nested object when no nested one exists.
	if aux.Likes != nil || aux.Comments != nil || aux.Shares != nil ||
		aux.Reach != nil || aux.Impressions != nil || aux.EngagementRate != nil {
		analytics := &RawAnalytics{
			Likes:       counterOrNil(aux.Likes),
			Comments:    counterOrNil(aux.Comments),
			Shares:      counterOrNil(aux.Shares),
			Reach:       counterOrNil(aux.Reach),
			Impressions: counterOrNil(aux.Impressions),
		}
		if rate, ok := NormalizeRate(aux.EngagementRate); ok {
			analytics.EngagementRate = &rate
		}
		t.Analytics = analytics
	}
	return nil
}

// RawProgram is one brand campaign a participant takes part in.
type RawProgram struct {
	ProgramID   *uuid.UUID
	Brand       *string
	SalesAmount *decimal.Decimal
	// SalesRaw keeps the original wire value when it was present but did not
	// parse to an amount, so the transform stage can report it.
	SalesRaw    any
	Tasks       []RawTask
	StartedAt   *time.Time
	CompletedAt *time.Time
}

func (p *RawProgram) UnmarshalJSON(data []byte) error {
	var aux struct {
		ProgramID   any       `json:"program_id"`
		Brand       any       `json:"brand"`
		SalesAmount any       `json:"total_sales_attributed"`
		Tasks       []RawTask `json:"tasks_completed"`
		TasksAlias  []RawTask `json:"tasks"`
		StartedAt   any       `json:"started_at"`
		CompletedAt any       `json:"completed_at"`
	}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	if id, ok := NormalizeID(aux.ProgramID); ok {
		p.ProgramID = &id
	}
	if brand, ok := NormalizeBrand(aux.Brand); ok {
		p.Brand = &brand
	}
	if amount, ok := NormalizeMoney(aux.SalesAmount); ok {
		p.SalesAmount = &amount
	} else if aux.SalesAmount != nil {
		if s, isString := aux.SalesAmount.(string); !isString || (s != "" && s != "no-data") {
			p.SalesRaw = aux.SalesAmount
		}
	}
	p.Tasks = aux.Tasks
	if p.Tasks == nil {
		p.Tasks = aux.TasksAlias
	}
	if started, ok := NormalizeDate(aux.StartedAt); ok {
		p.StartedAt = &started
	}
	if completed, ok := NormalizeDate(aux.CompletedAt); ok {
		p.CompletedAt = &completed
	}
	return nil
}

// RawParticipant is the top-level shape of one input file.
type RawParticipant struct {
	UserID          *uuid.UUID
	Name            *string
	Email           *string
	InstagramHandle *string
	TikTokHandle    *string
	JoinedAt        *time.Time
	Programs        []RawProgram
}

func (u *RawParticipant) UnmarshalJSON(data []byte) error {
	var aux struct {
		UserID          any          `json:"user_id"`
		Name            any          `json:"name"`
		Email           any          `json:"email"`
		InstagramHandle any          `json:"instagram_handle"`
		TikTokHandle    any          `json:"tiktok_handle"`
		JoinedAt        any          `json:"joined_at"`
		Programs        []RawProgram `json:"advocacy_programs"`
	}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	if id, ok := NormalizeID(aux.UserID); ok {
		u.UserID = &id
	}
	if name, ok := NormalizeName(aux.Name); ok {
		u.Name = &name
	}
	if email, ok := NormalizeEmail(aux.Email); ok {
		u.Email = &email
	}
	if handle, ok := NormalizeHandle(aux.InstagramHandle); ok {
		u.InstagramHandle = &handle
	}
	if handle, ok := NormalizeHandle(aux.TikTokHandle); ok {
		u.TikTokHandle = &handle
	}
	if joined, ok := NormalizeDate(aux.JoinedAt); ok {
		u.JoinedAt = &joined
	}
	u.Programs = aux.Programs
	return nil
}

func counterOrNil(v any) *int64 {
	if n, ok := NormalizeCounter(v); ok {
		return &n
	}
	return nil
}
