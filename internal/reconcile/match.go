// Package reconcile matches unassigned pledges to campaign rewards and applies
// the chosen matches back to storage.
//
// Scoring is a pure function of the pledge and the reward list:
//   - an exact (case-insensitive) perk-name match wins outright
//   - otherwise the highest reward tier the amount qualifies for is suggested
//   - a partial perk-name match is offered with low confidence when no tier qualifies
//
// Example usage:
//
//	match := reconcile.Score(pledge, rewards)
//	if match.SuggestedReward != nil {
//		// propose match.SuggestedReward to the admin
//	}
package reconcile

import (
	"sort"
	"strings"
	"unicode/utf8"

	"donorhub/internal/models"
)

type Confidence string

const (
	ConfidenceHigh   Confidence = "high"
	ConfidenceMedium Confidence = "medium"
	ConfidenceLow    Confidence = "low"
	ConfidenceNone   Confidence = "none"
)

// minPartialRunes is the shortest perk or reward name allowed to take part in a
// partial name match.
const minPartialRunes = 3

const (
	ReasonExactPerkName   = "exact perk name match"
	ReasonExactTierAmount = "amount equals reward minimum"
	ReasonHighestTier     = "highest qualifying reward tier"
	ReasonPartialPerkName = "partial perk name match"
	ReasonNoQualifying    = "no qualifying reward"
)

func ParseConfidence(s string) (Confidence, bool) {
	switch c := Confidence(strings.ToLower(strings.TrimSpace(s))); c {
	case ConfidenceHigh, ConfidenceMedium, ConfidenceLow, ConfidenceNone:
		return c, true
	}
	return "", false
}

// Match is the derived pairing of a pledge with its best candidate reward.
type Match struct {
	Pledge          *models.Pledge `json:"pledge"`
	SuggestedReward *models.Reward `json:"suggested_reward"`
	Confidence      Confidence     `json:"match_confidence"`
	Reason          string         `json:"match_reason"`
}

// Score returns the best candidate reward for pledge among rewards. Rewards of
// other campaigns are never considered. The input slice is not modified.
func Score(pledge *models.Pledge, rewards []*models.Reward) Match {
	match := Match{Pledge: pledge, Confidence: ConfidenceNone, Reason: ReasonNoQualifying}
	if pledge == nil {
		return match
	}

	candidates := campaignRewards(pledge.CampaignID, rewards)

	perk := strings.TrimSpace(pledge.PerkName())
	if perk != "" {
		for _, r := range candidates {
			if strings.EqualFold(strings.TrimSpace(r.Name), perk) {
				match.SuggestedReward = r
				match.Confidence = ConfidenceHigh
				match.Reason = ReasonExactPerkName
				return match
			}
		}
	}

	// highest minimum first, input order kept for equal minimums
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].MinimumAmount.GreaterThan(candidates[j].MinimumAmount)
	})

	for _, r := range candidates {
		if pledge.Amount.LessThan(r.MinimumAmount) {
			continue
		}

		match.SuggestedReward = r
		if pledge.Amount.Equal(r.MinimumAmount) {
			match.Confidence = ConfidenceHigh
			match.Reason = ReasonExactTierAmount
		} else {
			match.Confidence = ConfidenceMedium
			match.Reason = ReasonHighestTier
		}
		return match
	}

	if r := partialPerkMatch(perk, candidates); r != nil {
		match.SuggestedReward = r
		match.Confidence = ConfidenceLow
		match.Reason = ReasonPartialPerkName
	}

	return match
}

// ScoreAll scores every pledge against the same reward list.
func ScoreAll(pledges []*models.Pledge, rewards []*models.Reward) []Match {
	matches := make([]Match, 0, len(pledges))
	for _, p := range pledges {
		matches = append(matches, Score(p, rewards))
	}
	return matches
}

func campaignRewards(campaignID int64, rewards []*models.Reward) []*models.Reward {
	var out []*models.Reward
	for _, r := range rewards {
		if r != nil && r.CampaignID == campaignID {
			out = append(out, r)
		}
	}
	return out
}

func partialPerkMatch(perk string, candidates []*models.Reward) *models.Reward {
	if utf8.RuneCountInString(perk) < minPartialRunes {
		return nil
	}

	perk = strings.ToLower(perk)
	for _, r := range candidates {
		name := strings.ToLower(strings.TrimSpace(r.Name))
		if utf8.RuneCountInString(name) < minPartialRunes {
			continue
		}
		if strings.Contains(name, perk) || strings.Contains(perk, name) {
			return r
		}
	}
	return nil
}
