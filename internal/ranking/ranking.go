// Package ranking turns a donor's giving and participation into a single XP
// score and a rank on the ladder.
package ranking

import (
	"donorhub/internal/models"

	"github.com/shopspring/decimal"
)

const (
	PATH_DONATION      = "donation"
	PATH_PARTICIPATION = "participation"
	PATH_BALANCED      = "balanced"
)

// CrossBonusPercent of the weaker path is added on top of the stronger one.
const CrossBonusPercent = 10

var activityPoints = map[string]int64{
	models.ACTIVITY_FORUM_POST:      10,
	models.ACTIVITY_FORUM_REPLY:     5,
	models.ACTIVITY_MESSAGE_SENT:    2,
	models.ACTIVITY_EVENT_ATTENDED:  25,
	models.ACTIVITY_CAMPAIGN_SHARED: 15,
}

type Rank struct {
	Name  string `json:"name"`
	MinXP int64  `json:"min_xp"`
}

// Ladder is ordered by MinXP ascending.
var Ladder = []Rank{
	{Name: "Initiate", MinXP: 0},
	{Name: "Ally", MinXP: 100},
	{Name: "Advocate", MinXP: 500},
	{Name: "Champion", MinXP: 1500},
	{Name: "Vanguard", MinXP: 5000},
	{Name: "Legend", MinXP: 15000},
}

func IsActivityKind(kind string) bool {
	_, ok := activityPoints[kind]
	return ok
}

func ActivityPoints(kind string) int64 {
	return activityPoints[kind]
}

// DonationXP awards perUnit XP for every whole currency unit given.
func DonationXP(total decimal.Decimal, perUnit int64) int64 {
	if total.IsNegative() || perUnit <= 0 {
		return 0
	}
	return total.Floor().IntPart() * perUnit
}

func ParticipationXP(counts []*models.ActivityCount) int64 {
	var xp int64
	for _, c := range counts {
		if c == nil || c.Count <= 0 {
			continue
		}
		xp += activityPoints[c.Kind] * c.Count
	}
	return xp
}

// Score combines both paths: the stronger one counts in full and the weaker one
// adds CrossBonusPercent of itself, rounded down.
func Score(donationXP, participationXP int64) (total int64, bonus int64) {
	hi, lo := donationXP, participationXP
	if lo > hi {
		hi, lo = lo, hi
	}
	if lo < 0 {
		lo = 0
	}
	bonus = lo * CrossBonusPercent / 100
	return hi + bonus, bonus
}

func DominantPath(donationXP, participationXP int64) string {
	switch {
	case donationXP > participationXP:
		return PATH_DONATION
	case participationXP > donationXP:
		return PATH_PARTICIPATION
	default:
		return PATH_BALANCED
	}
}

// RankFor returns the rank reached at xp, the next one (nil at the top) and the
// XP still missing to get there.
func RankFor(xp int64) (current Rank, next *Rank, toNext int64) {
	idx := 0
	for i, r := range Ladder {
		if xp >= r.MinXP {
			idx = i
		}
	}
	current = Ladder[idx]
	if idx+1 < len(Ladder) {
		n := Ladder[idx+1]
		next = &n
		toNext = n.MinXP - xp
	}
	return current, next, toNext
}

// Compute builds the full rank card of a donor.
func Compute(donorID int64, donated decimal.Decimal, perUnit int64, counts []*models.ActivityCount) *models.DonorRank {
	d := DonationXP(donated, perUnit)
	p := ParticipationXP(counts)
	xp, bonus := Score(d, p)
	current, next, toNext := RankFor(xp)

	out := &models.DonorRank{
		DonorID:         donorID,
		DonationXP:      d,
		ParticipationXP: p,
		CrossBonus:      bonus,
		XP:              xp,
		DominantPath:    DominantPath(d, p),
		Rank:            current.Name,
		XPToNextRank:    toNext,
	}
	if next != nil {
		out.NextRank = next.Name
	}
	return out
}
