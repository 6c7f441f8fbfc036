package models

// MatchFilter narrows the reconciliation list shown to an admin. It is part of
// the admin's view state and is never used to change what the scorer sees.
type MatchFilter struct {
	CampaignID *int64 `query:"campaign_id" json:"campaign_id,omitempty"`
	Confidence string `query:"confidence" json:"confidence,omitempty"`
	Search     string `query:"q" json:"q,omitempty"`
}

type SelectionResponse struct {
	PledgeIDs []int64 `json:"pledge_ids"`
	Count     int     `json:"count"`
	Selected  *bool   `json:"selected,omitempty"`
	Added     *int    `json:"added,omitempty"`
}
