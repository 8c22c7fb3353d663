package domain

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRawParticipantValidRecord(t *testing.T) {
	input := `{
		"email": "Jane@Example.com",
		"name": "Jane",
		"advocacy_programs": [{
			"brand": "Acme",
			"total_sales_attributed": 250.00,
			"tasks_completed": [{
				"platform": "tiktok",
				"likes": 10,
				"comments": "NaN"
			}]
		}]
	}`

	var raw RawParticipant
	require.NoError(t, json.Unmarshal([]byte(input), &raw))

	require.NotNil(t, raw.Email)
	assert.Equal(t, "jane@example.com", *raw.Email)
	require.NotNil(t, raw.Name)
	assert.Equal(t, "Jane", *raw.Name)

	require.Len(t, raw.Programs, 1)
	prog := raw.Programs[0]
	require.NotNil(t, prog.Brand)
	assert.Equal(t, "Acme", *prog.Brand)
	require.NotNil(t, prog.SalesAmount)
	assert.Equal(t, "250", prog.SalesAmount.String())

	require.Len(t, prog.Tasks, 1)
	task := prog.Tasks[0]
	require.NotNil(t, task.Platform)
	assert.Equal(t, "TikTok", *task.Platform)

	// Flat likes/comments are synthesized into a nested analytics object.
	require.NotNil(t, task.Analytics)
	require.NotNil(t, task.Analytics.Likes)
	assert.Equal(t, int64(10), *task.Analytics.Likes)
	assert.Nil(t, task.Analytics.Comments, `"NaN" comments are absent`)
}

func TestRawTaskNestedAnalyticsPreferred(t *testing.T) {
	input := `{
		"platform": "instagram",
		"analytics": {"likes": 5, "reach": -20},
		"likes": 999
	}`
	var task RawTask
	require.NoError(t, json.Unmarshal([]byte(input), &task))

	require.NotNil(t, task.Analytics)
	require.NotNil(t, task.Analytics.Likes)
	assert.Equal(t, int64(5), *task.Analytics.Likes, "nested analytics wins over flat fields")
	require.NotNil(t, task.Analytics.Reach)
	assert.Equal(t, int64(0), *task.Analytics.Reach, "negative reach floors at zero")
}

func TestRawTaskNoAnalytics(t *testing.T) {
	var task RawTask
	require.NoError(t, json.Unmarshal([]byte(`{"platform": "youtube"}`), &task))
	assert.Nil(t, task.Analytics, "a task with no metrics has no analytics record")
}

func TestRawTaskMalformedFields(t *testing.T) {
	input := `{
		"task_id": "not-a-uuid",
		"platform": 42,
		"post_url": "broken_link",
		"posted_at": "not-a-date"
	}`
	var task RawTask
	require.NoError(t, json.Unmarshal([]byte(input), &task))
	assert.Nil(t, task.TaskID)
	assert.Nil(t, task.Platform)
	assert.Nil(t, task.PostURL)
	assert.Nil(t, task.PostedAt)
}

func TestRawProgramKeepsUnparsableSalesValue(t *testing.T) {
	var prog RawProgram
	require.NoError(t, json.Unmarshal([]byte(`{"brand": "Acme", "total_sales_attributed": "a lot"}`), &prog))
	assert.Nil(t, prog.SalesAmount)
	assert.Equal(t, "a lot", prog.SalesRaw)

	// The "no-data" placeholder means the program carries no amount at all.
	prog = RawProgram{}
	require.NoError(t, json.Unmarshal([]byte(`{"total_sales_attributed": "no-data"}`), &prog))
	assert.Nil(t, prog.SalesAmount)
	assert.Nil(t, prog.SalesRaw)
}

func TestRawProgramTasksAlias(t *testing.T) {
	var prog RawProgram
	require.NoError(t, json.Unmarshal([]byte(`{"tasks": [{"platform": "twitter"}]}`), &prog))
	require.Len(t, prog.Tasks, 1)
}

func TestRawParticipantMalformedFieldsDegradeToAbsent(t *testing.T) {
	input := `{
		"user_id": "12345",
		"name": "???",
		"email": "invalid-email",
		"instagram_handle": "has spaces",
		"tiktok_handle": "@valid_handle",
		"joined_at": "not-a-date"
	}`
	var raw RawParticipant
	require.NoError(t, json.Unmarshal([]byte(input), &raw))
	assert.Nil(t, raw.UserID)
	assert.Nil(t, raw.Name)
	assert.Nil(t, raw.Email)
	assert.Nil(t, raw.InstagramHandle)
	require.NotNil(t, raw.TikTokHandle)
	assert.Equal(t, "@valid_handle", *raw.TikTokHandle)
	assert.Nil(t, raw.JoinedAt)
}

func TestRawParticipantStructurallyBrokenRecord(t *testing.T) {
	var raw RawParticipant
	err := json.Unmarshal([]byte(`{"advocacy_programs": ["not an object"]}`), &raw)
	assert.Error(t, err, "structurally broken records fail the decode")
}
