package services

import (
	"context"
	"fmt"
	"testing"

	"donorhub/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatRunSummary(t *testing.T) {
	reward := int64(3)
	run := &models.AssignmentRun{
		ID:        "7c1f",
		Actor:     "ops<admin>",
		Attempted: 2,
		Succeeded: 1,
		Failed:    1,
		Skipped:   1,
		Results: []*models.AssignmentResult{
			{PledgeID: 10, RewardID: &reward, Status: models.ASSIGNMENT_SUCCESS},
			{PledgeID: 11, RewardID: &reward, Status: models.ASSIGNMENT_FAILED, Error: "pledge is not awaiting a reward"},
			{PledgeID: 12, Status: models.ASSIGNMENT_SKIPPED},
		},
	}

	text := FormatRunSummary(run)

	assert.Contains(t, text, "<b>Reward assignment finished</b>")
	assert.Contains(t, text, "By: ops&lt;admin&gt;")
	assert.Contains(t, text, "Attempted: 2, succeeded: 1, failed: 1, skipped: 1")
	assert.Contains(t, text, "pledge #11: pledge is not awaiting a reward")
	assert.NotContains(t, text, "pledge #10")
}

func TestFormatRunSummary_TruncatesFailures(t *testing.T) {
	retryOf := "first"
	run := &models.AssignmentRun{ID: "second", RetryOf: &retryOf}
	for i := 0; i < 15; i++ {
		run.Failed++
		run.Results = append(run.Results, &models.AssignmentResult{PledgeID: int64(i), Status: models.ASSIGNMENT_FAILED, Error: fmt.Sprint("e", i)})
	}

	text := FormatRunSummary(run)

	assert.Contains(t, text, "retry finished")
	assert.Contains(t, text, "and 5 more")
	assert.NotContains(t, text, "pledge #12")
}

func TestBot_DisabledIsNoop(t *testing.T) {
	bot, err := NewBot("", 0, nil)
	require.NoError(t, err)

	assert.False(t, bot.Enabled())
	assert.NoError(t, bot.NotifyRun(context.Background(), &models.AssignmentRun{ID: "x"}))
}
