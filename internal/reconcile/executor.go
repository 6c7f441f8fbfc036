package reconcile

import (
	"context"
	"errors"

	"donorhub/internal/models"

	"go.uber.org/zap"
)

var ErrNoSuggestedReward = errors.New("match has no suggested reward")

// Assigner persists a single pledge -> reward assignment.
type Assigner interface {
	AssignPledgeReward(ctx context.Context, pledgeID, rewardID int64) error
}

// Pair is one pledge/reward assignment to apply.
type Pair struct {
	PledgeID int64
	RewardID int64
}

type Result struct {
	PledgeID int64  `json:"pledge_id"`
	RewardID *int64 `json:"reward_id"`
	Status   string `json:"status"`
	Err      error  `json:"-"`
	Error    string `json:"error,omitempty"`
}

// Report is the per-item outcome of a bulk assignment. Attempted counts the
// items that reached storage; skipped items never do.
type Report struct {
	Results   []Result `json:"results"`
	Attempted int      `json:"attempted"`
	Succeeded int      `json:"succeeded"`
	Failed    int      `json:"failed"`
	Skipped   int      `json:"skipped"`
}

func (r *Report) HasFailures() bool {
	return r.Failed > 0
}

// FailedPairs returns the assignments that can be retried.
func (r *Report) FailedPairs() []Pair {
	var pairs []Pair
	for _, res := range r.Results {
		if res.Status == models.ASSIGNMENT_FAILED && res.RewardID != nil {
			pairs = append(pairs, Pair{PledgeID: res.PledgeID, RewardID: *res.RewardID})
		}
	}
	return pairs
}

func (r *Report) add(res Result) {
	if res.Err != nil {
		res.Error = res.Err.Error()
	}
	switch res.Status {
	case models.ASSIGNMENT_SUCCESS:
		r.Attempted++
		r.Succeeded++
	case models.ASSIGNMENT_FAILED:
		r.Attempted++
		r.Failed++
	case models.ASSIGNMENT_SKIPPED:
		r.Skipped++
	}
	r.Results = append(r.Results, res)
}

// Skip records an item that never reached storage.
func (r *Report) Skip(pledgeID int64, err error) {
	r.add(Result{PledgeID: pledgeID, Status: models.ASSIGNMENT_SKIPPED, Err: err})
}

// SucceededIDs returns the pledges that were assigned.
func (r *Report) SucceededIDs() []int64 {
	var ids []int64
	for _, res := range r.Results {
		if res.Status == models.ASSIGNMENT_SUCCESS {
			ids = append(ids, res.PledgeID)
		}
	}
	return ids
}

type Executor struct {
	assigner Assigner
	logger   *zap.Logger
}

func NewExecutor(assigner Assigner, logger *zap.Logger) *Executor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Executor{assigner: assigner, logger: logger}
}

// Assign applies the suggested reward of every match, one at a time. A failed
// item does not stop the batch; matches without a suggestion are skipped and a
// pledge listed twice is only applied once. Results keep the order of matches.
func (e *Executor) Assign(ctx context.Context, matches []Match) *Report {
	report := &Report{}
	seen := make(map[int64]bool, len(matches))

	for _, m := range matches {
		if m.Pledge == nil || seen[m.Pledge.ID] {
			continue
		}
		seen[m.Pledge.ID] = true

		if m.SuggestedReward == nil {
			report.add(Result{PledgeID: m.Pledge.ID, Status: models.ASSIGNMENT_SKIPPED, Err: ErrNoSuggestedReward})
			continue
		}
		e.applyOne(ctx, Pair{PledgeID: m.Pledge.ID, RewardID: m.SuggestedReward.ID}, report)
	}

	e.logReport(report)
	return report
}

// AssignPairs applies explicit pairs, used to retry failed items of a run.
func (e *Executor) AssignPairs(ctx context.Context, pairs []Pair) *Report {
	report := &Report{}
	for _, p := range pairs {
		e.applyOne(ctx, p, report)
	}

	e.logReport(report)
	return report
}

func (e *Executor) applyOne(ctx context.Context, p Pair, report *Report) {
	rewardID := p.RewardID
	res := Result{PledgeID: p.PledgeID, RewardID: &rewardID}

	if err := ctx.Err(); err != nil {
		res.Status = models.ASSIGNMENT_FAILED
		res.Err = err
		report.add(res)
		return
	}

	if err := e.assigner.AssignPledgeReward(ctx, p.PledgeID, p.RewardID); err != nil {
		e.logger.Warn("pledge assignment failed",
			zap.Int64("pledge_id", p.PledgeID),
			zap.Int64("reward_id", p.RewardID),
			zap.Error(err))
		res.Status = models.ASSIGNMENT_FAILED
		res.Err = err
		report.add(res)
		return
	}

	res.Status = models.ASSIGNMENT_SUCCESS
	report.add(res)
}

func (e *Executor) logReport(report *Report) {
	e.logger.Info("bulk assignment finished",
		zap.Int("attempted", report.Attempted),
		zap.Int("succeeded", report.Succeeded),
		zap.Int("failed", report.Failed),
		zap.Int("skipped", report.Skipped))
}
