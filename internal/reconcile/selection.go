package reconcile

import "sort"

// Selection is the set of pledges an admin has ticked in the reconciliation
// list. It is plain data so it can be stored between requests.
type Selection struct {
	PledgeIDs map[int64]bool `json:"pledge_ids" msgpack:"pledge_ids"`
}

func NewSelection(ids ...int64) *Selection {
	s := &Selection{PledgeIDs: make(map[int64]bool, len(ids))}
	for _, id := range ids {
		s.PledgeIDs[id] = true
	}
	return s
}

func (s *Selection) ensure() {
	if s.PledgeIDs == nil {
		s.PledgeIDs = make(map[int64]bool)
	}
}

// Toggle flips a single row and reports whether it is now selected.
func (s *Selection) Toggle(pledgeID int64) bool {
	s.ensure()
	if s.PledgeIDs[pledgeID] {
		delete(s.PledgeIDs, pledgeID)
		return false
	}
	s.PledgeIDs[pledgeID] = true
	return true
}

// SelectByConfidence adds every match at level that carries a suggested
// reward and returns how many rows were newly added.
func (s *Selection) SelectByConfidence(matches []Match, level Confidence) int {
	s.ensure()
	added := 0
	for _, m := range matches {
		if m.Confidence != level || m.SuggestedReward == nil || m.Pledge == nil {
			continue
		}
		if !s.PledgeIDs[m.Pledge.ID] {
			s.PledgeIDs[m.Pledge.ID] = true
			added++
		}
	}
	return added
}

func (s *Selection) Contains(pledgeID int64) bool {
	return s.PledgeIDs[pledgeID]
}

func (s *Selection) Len() int {
	return len(s.PledgeIDs)
}

func (s *Selection) Clear() {
	s.PledgeIDs = make(map[int64]bool)
}

// IDs returns the selected pledge ids in ascending order.
func (s *Selection) IDs() []int64 {
	ids := make([]int64, 0, len(s.PledgeIDs))
	for id, ok := range s.PledgeIDs {
		if ok {
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// Pick returns the matches whose pledge is selected, in list order.
func (s *Selection) Pick(matches []Match) []Match {
	var picked []Match
	for _, m := range matches {
		if m.Pledge != nil && s.Contains(m.Pledge.ID) {
			picked = append(picked, m)
		}
	}
	return picked
}
