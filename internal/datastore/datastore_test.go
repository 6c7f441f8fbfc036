package datastore

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"donorhub/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCampaignCRUD(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	f := seed(t, db)

	got, err := GetCampaignByID(ctx, db, f.campaign.ID)
	require.NoError(t, err)
	assert.Equal(t, "Community Garden", got.Name)
	assert.True(t, got.GoalAmount.Equal(dec("1000")))

	active, err := ListCampaigns(ctx, db, true)
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, f.campaign.ID, active[0].ID)

	got.Name = "Community Garden 2025"
	_, err = UpdateCampaign(ctx, db, got)
	require.NoError(t, err)

	got, err = GetCampaignByID(ctx, db, f.campaign.ID)
	require.NoError(t, err)
	assert.Equal(t, "Community Garden 2025", got.Name)

	require.NoError(t, DeleteCampaign(ctx, db, f.other.ID))
	assert.ErrorIs(t, DeleteCampaign(ctx, db, f.other.ID), ErrNotAffected)

	_, err = GetCampaignByID(ctx, db, f.other.ID)
	assert.ErrorIs(t, err, sql.ErrNoRows)
}

func TestListRewardsByMinimum(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	seed(t, db)

	rewards, err := ListRewardsByMinimum(ctx, db)
	require.NoError(t, err)
	require.Len(t, rewards, 3)
	assert.Equal(t, "Roof Tile", rewards[0].Name)
	assert.Equal(t, "T-Shirt", rewards[1].Name)
	assert.Equal(t, "Sticker Pack", rewards[2].Name)
}

func TestListUnassignedPledges(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	f := seed(t, db)
	assigned := f.rewards[0].ID

	for _, p := range []*models.Pledge{
		{DonorID: f.donor.ID, CampaignID: f.campaign.ID, Amount: dec("25")},
		{DonorID: f.donor.ID, CampaignID: f.campaign.ID, Amount: dec("80")},
		{DonorID: f.donor.ID, CampaignID: f.campaign.ID, Amount: dec("0")},
		{DonorID: f.donor.ID, CampaignID: f.campaign.ID, Amount: dec("500"), RewardID: &assigned},
		{DonorID: f.donor.ID, CampaignID: f.other.ID, Amount: dec("60")},
	} {
		_, err := InsertPledge(ctx, db, p)
		require.NoError(t, err)
	}

	pledges, err := ListUnassignedPledges(ctx, db, 2)
	require.NoError(t, err)
	require.Len(t, pledges, 2)
	assert.True(t, pledges[0].Amount.Equal(dec("80")))
	assert.True(t, pledges[1].Amount.Equal(dec("60")))

	pledges, err = ListUnassignedPledges(ctx, db, 100)
	require.NoError(t, err)
	assert.Len(t, pledges, 3)
}

func TestAssignPledgeReward_GuardsExistingAssignment(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	f := seed(t, db)

	pledge, err := InsertPledge(ctx, db, &models.Pledge{DonorID: f.donor.ID, CampaignID: f.campaign.ID, Amount: dec("50")})
	require.NoError(t, err)

	require.NoError(t, AssignPledgeReward(ctx, db, pledge.ID, f.rewards[1].ID))
	err = AssignPledgeReward(ctx, db, pledge.ID, f.rewards[0].ID)
	assert.ErrorIs(t, err, ErrNotAffected)

	got, err := GetPledgeByID(ctx, db, pledge.ID)
	require.NoError(t, err)
	require.NotNil(t, got.RewardID)
	assert.Equal(t, f.rewards[1].ID, *got.RewardID)

	assert.ErrorIs(t, AssignPledgeReward(ctx, db, 9999, f.rewards[0].ID), ErrNotAffected)
}

func TestSetPledgeReward_OverwritesAndClears(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	f := seed(t, db)
	first := f.rewards[1].ID

	pledge, err := InsertPledge(ctx, db, &models.Pledge{DonorID: f.donor.ID, CampaignID: f.campaign.ID, Amount: dec("50"), RewardID: &first})
	require.NoError(t, err)

	second := f.rewards[0].ID
	require.NoError(t, SetPledgeReward(ctx, db, pledge.ID, &second))
	got, err := GetPledgeByID(ctx, db, pledge.ID)
	require.NoError(t, err)
	require.NotNil(t, got.RewardID)
	assert.Equal(t, second, *got.RewardID)

	require.NoError(t, SetPledgeReward(ctx, db, pledge.ID, nil))
	got, err = GetPledgeByID(ctx, db, pledge.ID)
	require.NoError(t, err)
	assert.Nil(t, got.RewardID)
}

func TestRecalculateCampaignAmountAndStats(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	f := seed(t, db)
	second, err := InsertDonor(ctx, db, &models.Donor{Email: "bo@example.org", DisplayName: "Bo"})
	require.NoError(t, err)
	rewardID := f.rewards[1].ID

	for _, p := range []*models.Pledge{
		{DonorID: f.donor.ID, CampaignID: f.campaign.ID, Amount: dec("100")},
		{DonorID: f.donor.ID, CampaignID: f.campaign.ID, Amount: dec("50"), RewardID: &rewardID},
		{DonorID: second.ID, CampaignID: f.campaign.ID, Amount: dec("100")},
		{DonorID: second.ID, CampaignID: f.other.ID, Amount: dec("999")},
	} {
		_, err := InsertPledge(ctx, db, p)
		require.NoError(t, err)
	}

	total, err := RecalculateCampaignAmount(ctx, db, f.campaign.ID)
	require.NoError(t, err)
	assert.True(t, total.Equal(dec("250")), total.String())

	campaign, err := GetCampaignByID(ctx, db, f.campaign.ID)
	require.NoError(t, err)
	assert.True(t, campaign.CurrentAmount.Equal(dec("250")))

	stats, err := GetCampaignStats(ctx, db, campaign)
	require.NoError(t, err)
	assert.Equal(t, 3, stats.PledgeCount)
	assert.Equal(t, 2, stats.DonorCount)
	assert.Equal(t, 2, stats.UnassignedCount)
	assert.Equal(t, 2, stats.RewardCount)
	assert.Equal(t, 1, stats.PhysicalRewards)
	assert.Equal(t, 1, stats.ShippingRequired)
	assert.Equal(t, 25.0, stats.PercentFunded)
}

func TestSumPledgesByDonor(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	f := seed(t, db)

	for _, amount := range []string{"10", "15.5"} {
		_, err := InsertPledge(ctx, db, &models.Pledge{DonorID: f.donor.ID, CampaignID: f.campaign.ID, Amount: dec(amount)})
		require.NoError(t, err)
	}

	totals, err := SumPledgesByDonor(ctx, db)
	require.NoError(t, err)
	require.Len(t, totals, 1)
	assert.Equal(t, f.donor.ID, totals[0].DonorID)
	assert.True(t, totals[0].Total.Equal(dec("25.5")), totals[0].Total.String())

	one, err := SumPledgesOfDonor(ctx, db, 4242)
	require.NoError(t, err)
	assert.True(t, one.Total.IsZero())
}

func TestCountActivities(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	f := seed(t, db)

	for _, kind := range []string{models.ACTIVITY_FORUM_POST, models.ACTIVITY_FORUM_POST, models.ACTIVITY_EVENT_ATTENDED} {
		_, err := InsertActivity(ctx, db, &models.Activity{DonorID: f.donor.ID, Kind: kind})
		require.NoError(t, err)
	}

	counts, err := CountActivitiesByDonor(ctx, db, f.donor.ID)
	require.NoError(t, err)
	require.Len(t, counts, 2)
	assert.Equal(t, models.ACTIVITY_EVENT_ATTENDED, counts[0].Kind)
	assert.Equal(t, int64(1), counts[0].Count)
	assert.Equal(t, int64(2), counts[1].Count)

	all, err := CountActivities(ctx, db)
	require.NoError(t, err)
	assert.Len(t, all[f.donor.ID], 2)
}

func TestDonorLookups(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	f := seed(t, db)

	got, err := GetDonorByEmail(ctx, db, "ANA@example.org")
	require.NoError(t, err)
	assert.Equal(t, f.donor.ID, got.ID)

	donors, err := ListDonors(ctx, db, "an", 10, 0)
	require.NoError(t, err)
	assert.Len(t, donors, 1)

	byIDs, err := ListDonorsByIDs(ctx, db, []int64{f.donor.ID, 777})
	require.NoError(t, err)
	assert.Len(t, byIDs, 1)

	empty, err := ListDonorsByIDs(ctx, db, nil)
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestAssignmentRunRoundTrip(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	f := seed(t, db)
	rewardID := f.rewards[0].ID

	run := &models.AssignmentRun{
		ID:        "run-1",
		Actor:     "admin",
		Attempted: 1,
		Failed:    1,
		Skipped:   1,
		Status:    models.RUN_STATUS_COMPLETED_WITH_ERRORS,
		StartedAt: time.Now().UTC(),
		Results: []*models.AssignmentResult{
			{PledgeID: 1, RewardID: &rewardID, Status: models.ASSIGNMENT_FAILED, Error: "boom"},
			{PledgeID: 2, Status: models.ASSIGNMENT_SKIPPED},
		},
	}
	require.NoError(t, InsertAssignmentRun(ctx, db, run))

	got, err := GetAssignmentRun(ctx, db, "run-1")
	require.NoError(t, err)
	assert.Equal(t, models.RUN_STATUS_COMPLETED_WITH_ERRORS, got.Status)
	require.Len(t, got.Results, 2)
	assert.Equal(t, "boom", got.Results[0].Error)
	assert.Equal(t, "run-1", got.Results[1].RunID)

	runs, err := ListAssignmentRuns(ctx, db, 10)
	require.NoError(t, err)
	assert.Len(t, runs, 1)
}

func TestConfigDefaultsAndUpsert(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)

	inserted, err := InsertConfigDefault(ctx, db, "LEADERBOARD_LIMIT", "50")
	require.NoError(t, err)
	assert.True(t, inserted)

	inserted, err = InsertConfigDefault(ctx, db, "LEADERBOARD_LIMIT", "10")
	require.NoError(t, err)
	assert.False(t, inserted)

	_, err = UpsertConfig(ctx, db, "LEADERBOARD_LIMIT", "25")
	require.NoError(t, err)

	got, err := GetConfigByKey(ctx, db, "LEADERBOARD_LIMIT")
	require.NoError(t, err)
	assert.Equal(t, "25", got.Value)
}
