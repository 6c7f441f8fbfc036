package reconcile

import (
	"context"
	"errors"
	"testing"

	"donorhub/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

type fakeSource struct {
	pledges   []*models.Pledge
	rewards   []*models.Reward
	donors    []*models.Donor
	campaigns []*models.Campaign
	err       error

	gotLimit     int
	gotDonorIDs  []int64
	donorCalls   int
	campaignCall int
}

func (f *fakeSource) ListUnassignedPledges(ctx context.Context, limit int) ([]*models.Pledge, error) {
	f.gotLimit = limit
	return f.pledges, nil
}

func (f *fakeSource) ListRewardsByMinimum(ctx context.Context) ([]*models.Reward, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.rewards, nil
}

func (f *fakeSource) ListDonorsByIDs(ctx context.Context, ids []int64) ([]*models.Donor, error) {
	f.donorCalls++
	f.gotDonorIDs = ids
	return f.donors, nil
}

func (f *fakeSource) ListCampaignsByIDs(ctx context.Context, ids []int64) ([]*models.Campaign, error) {
	f.campaignCall++
	return f.campaigns, nil
}

func TestLoader_JoinsDonorsAndCampaigns(t *testing.T) {
	defer goleak.VerifyNone(t)

	source := &fakeSource{
		pledges: []*models.Pledge{
			makePledge(1, 1, "100", ""),
			makePledge(2, 1, "75", ""),
		},
		rewards: tieredRewards(),
		donors: []*models.Donor{
			{ID: 101, Email: "ana@example.org", DisplayName: "Ana"},
			{ID: 102, Email: "bo@example.org", DisplayName: "Bo"},
		},
		campaigns: []*models.Campaign{{ID: 1, Name: "Community Garden"}},
	}
	// pledge 2 shares the donor of pledge 1
	source.pledges[1].DonorID = 101

	views, err := NewLoader(source).Load(context.Background(), 0)

	require.NoError(t, err)
	require.Len(t, views, 2)
	assert.Equal(t, DefaultPledgeLimit, source.gotLimit)
	assert.Equal(t, []int64{101}, source.gotDonorIDs)
	assert.Equal(t, "Ana", views[0].Donor.DisplayName)
	assert.Equal(t, "Community Garden", views[1].Campaign.Name)
	require.NotNil(t, views[0].SuggestedReward)
	require.NotNil(t, views[0].SuggestedReward.Campaign)
	assert.Equal(t, "Community Garden", views[0].SuggestedReward.Campaign.Name)
	assert.Equal(t, ConfidenceHigh, views[0].Confidence)
	assert.Equal(t, ConfidenceMedium, views[1].Confidence)
}

func TestLoader_NoPledgesSkipsJoins(t *testing.T) {
	defer goleak.VerifyNone(t)

	source := &fakeSource{}

	views, err := NewLoader(source).Load(context.Background(), 20)

	require.NoError(t, err)
	assert.Empty(t, views)
	assert.Equal(t, 20, source.gotLimit)
	assert.Zero(t, source.donorCalls)
	assert.Zero(t, source.campaignCall)
}

func TestLoader_PropagatesReadErrors(t *testing.T) {
	defer goleak.VerifyNone(t)

	source := &fakeSource{
		pledges: []*models.Pledge{makePledge(1, 1, "100", "")},
		err:     errors.New("db down"),
	}

	views, err := NewLoader(source).Load(context.Background(), 10)

	assert.EqualError(t, err, "db down")
	assert.Nil(t, views)
}

func TestFilterViews(t *testing.T) {
	other := int64(2)
	views := []*MatchView{
		{
			Match:    Score(makePledge(1, 1, "100", ""), tieredRewards()),
			Donor:    &models.Donor{ID: 101, Email: "ana@example.org", DisplayName: "Ana"},
			Campaign: &models.Campaign{ID: 1, Name: "Community Garden"},
		},
		{
			Match:    Score(makePledge(2, 1, "75", ""), tieredRewards()),
			Donor:    &models.Donor{ID: 102, Email: "bo@example.org", DisplayName: "Bo"},
			Campaign: &models.Campaign{ID: 1, Name: "Community Garden"},
		},
		{
			Match:    Score(makePledge(3, 2, "5", ""), nil),
			Donor:    &models.Donor{ID: 103, Email: "cy@example.org", DisplayName: "Cy"},
			Campaign: &models.Campaign{ID: 2, Name: "Library Roof"},
		},
	}

	t.Run("confidence", func(t *testing.T) {
		out := FilterViews(views, models.MatchFilter{Confidence: "medium"})
		require.Len(t, out, 1)
		assert.Equal(t, int64(2), out[0].Pledge.ID)
	})

	t.Run("campaign", func(t *testing.T) {
		out := FilterViews(views, models.MatchFilter{CampaignID: &other})
		require.Len(t, out, 1)
		assert.Equal(t, int64(3), out[0].Pledge.ID)
	})

	t.Run("search", func(t *testing.T) {
		out := FilterViews(views, models.MatchFilter{Search: "POSTER"})
		require.Len(t, out, 1)
		assert.Equal(t, int64(1), out[0].Pledge.ID)

		out = FilterViews(views, models.MatchFilter{Search: "bo@"})
		require.Len(t, out, 1)
		assert.Equal(t, int64(2), out[0].Pledge.ID)
	})

	t.Run("unknown confidence is ignored", func(t *testing.T) {
		out := FilterViews(views, models.MatchFilter{Confidence: "whatever"})
		assert.Len(t, out, 3)
	})
}

func TestMatches(t *testing.T) {
	views := []*MatchView{{Match: Score(makePledge(1, 1, "100", ""), tieredRewards())}}

	out := Matches(views)

	require.Len(t, out, 1)
	assert.Equal(t, int64(1), out[0].Pledge.ID)
}
