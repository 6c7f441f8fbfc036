package reconcile

import (
	"context"
	"strings"

	"donorhub/internal/models"

	"golang.org/x/sync/errgroup"
)

const DefaultPledgeLimit = 100

// Source is the read side the loader needs from storage.
type Source interface {
	// ListUnassignedPledges returns pledges without a reward and a positive
	// amount, largest first.
	ListUnassignedPledges(ctx context.Context, limit int) ([]*models.Pledge, error)
	// ListRewardsByMinimum returns every reward, highest minimum first.
	ListRewardsByMinimum(ctx context.Context) ([]*models.Reward, error)
	ListDonorsByIDs(ctx context.Context, ids []int64) ([]*models.Donor, error)
	ListCampaignsByIDs(ctx context.Context, ids []int64) ([]*models.Campaign, error)
}

// MatchView is a match joined with the donor and campaign it belongs to.
type MatchView struct {
	Match
	Donor    *models.Donor    `json:"donor"`
	Campaign *models.Campaign `json:"campaign"`
}

type Loader struct {
	source Source
}

func NewLoader(source Source) *Loader {
	return &Loader{source: source}
}

// Load fetches unassigned pledges and rewards, joins donors and campaigns in
// memory and scores every pledge.
func (l *Loader) Load(ctx context.Context, limit int) ([]*MatchView, error) {
	if limit <= 0 {
		limit = DefaultPledgeLimit
	}

	var pledges []*models.Pledge
	var rewards []*models.Reward

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		pledges, err = l.source.ListUnassignedPledges(gctx, limit)
		return err
	})
	g.Go(func() error {
		var err error
		rewards, err = l.source.ListRewardsByMinimum(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	donorIDs := make([]int64, 0, len(pledges))
	campaignIDs := make([]int64, 0, len(pledges)+len(rewards))
	seenDonor := map[int64]bool{}
	seenCampaign := map[int64]bool{}
	for _, p := range pledges {
		if !seenDonor[p.DonorID] {
			seenDonor[p.DonorID] = true
			donorIDs = append(donorIDs, p.DonorID)
		}
		if !seenCampaign[p.CampaignID] {
			seenCampaign[p.CampaignID] = true
			campaignIDs = append(campaignIDs, p.CampaignID)
		}
	}
	for _, r := range rewards {
		if !seenCampaign[r.CampaignID] {
			seenCampaign[r.CampaignID] = true
			campaignIDs = append(campaignIDs, r.CampaignID)
		}
	}

	var donors []*models.Donor
	var campaigns []*models.Campaign

	g, gctx = errgroup.WithContext(ctx)
	g.Go(func() error {
		if len(donorIDs) == 0 {
			return nil
		}
		var err error
		donors, err = l.source.ListDonorsByIDs(gctx, donorIDs)
		return err
	})
	g.Go(func() error {
		if len(campaignIDs) == 0 {
			return nil
		}
		var err error
		campaigns, err = l.source.ListCampaignsByIDs(gctx, campaignIDs)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	donorByID := make(map[int64]*models.Donor, len(donors))
	for _, d := range donors {
		donorByID[d.ID] = d
	}
	campaignByID := make(map[int64]*models.Campaign, len(campaigns))
	for _, c := range campaigns {
		campaignByID[c.ID] = c
	}
	for _, r := range rewards {
		r.Campaign = campaignByID[r.CampaignID]
	}

	views := make([]*MatchView, 0, len(pledges))
	for _, p := range pledges {
		views = append(views, &MatchView{
			Match:    Score(p, rewards),
			Donor:    donorByID[p.DonorID],
			Campaign: campaignByID[p.CampaignID],
		})
	}

	return views, nil
}

// Matches strips the joined data from views.
func Matches(views []*MatchView) []Match {
	out := make([]Match, 0, len(views))
	for _, v := range views {
		out = append(out, v.Match)
	}
	return out
}

// FilterViews applies an admin's list filter.
func FilterViews(views []*MatchView, filter models.MatchFilter) []*MatchView {
	level, hasLevel := ParseConfidence(filter.Confidence)
	search := strings.ToLower(strings.TrimSpace(filter.Search))

	var out []*MatchView
	for _, v := range views {
		if filter.CampaignID != nil && v.Pledge.CampaignID != *filter.CampaignID {
			continue
		}
		if hasLevel && v.Confidence != level {
			continue
		}
		if search != "" && !viewContains(v, search) {
			continue
		}
		out = append(out, v)
	}
	return out
}

func viewContains(v *MatchView, needle string) bool {
	fields := []string{v.Pledge.PerkName()}
	if v.Donor != nil {
		fields = append(fields, v.Donor.Email, v.Donor.DisplayName)
	}
	if v.Campaign != nil {
		fields = append(fields, v.Campaign.Name)
	}
	if v.SuggestedReward != nil {
		fields = append(fields, v.SuggestedReward.Name)
	}
	for _, f := range fields {
		if strings.Contains(strings.ToLower(f), needle) {
			return true
		}
	}
	return false
}
