package decision

import "math"

// #region outcome-tracker

// outcome is one recorded action result.
type outcome struct {
	action  string
	success bool
}

// OutcomeTracker keeps a bounded action-outcome log and derives per-action
// success rates for suggestion. Unknown actions rate 0.5: no evidence
// either way.
type OutcomeTracker struct {
	cap int
	log []outcome
}

// NewOutcomeTracker creates a tracker bounded to cap entries.
func NewOutcomeTracker(cap int) *OutcomeTracker {
	return &OutcomeTracker{cap: cap}
}

// Record appends one outcome, dropping the oldest past the cap.
func (t *OutcomeTracker) Record(action string, success bool) {
	t.log = append(t.log, outcome{action: action, success: success})
	if len(t.log) > t.cap {
		t.log = t.log[len(t.log)-t.cap:]
	}
}

// Attempts counts recorded outcomes for an action.
func (t *OutcomeTracker) Attempts(action string) int {
	n := 0
	for _, o := range t.log {
		if o.action == action {
			n++
		}
	}
	return n
}

// SuccessRate returns the fraction of successful attempts, or 0.5 for an
// unseen action.
func (t *OutcomeTracker) SuccessRate(action string) float64 {
	attempts, successes := 0, 0
	for _, o := range t.log {
		if o.action == action {
			attempts++
			if o.success {
				successes++
			}
		}
	}
	if attempts == 0 {
		return 0.5
	}
	return float64(successes) / float64(attempts)
}

// SuggestBest ranks candidates by success rate discounted by sample size
// (full weight from 10 attempts up) and returns the top k, ties kept in
// first-seen order.
func (t *OutcomeTracker) SuggestBest(actions []string, k int) []string {
	type ranked struct {
		action string
		score  float64
		index  int
	}
	rankings := make([]ranked, len(actions))
	for i, action := range actions {
		confidence := 0.7 + 0.3*math.Min(float64(t.Attempts(action))/10.0, 1.0)
		rankings[i] = ranked{
			action: action,
			score:  t.SuccessRate(action) * confidence,
			index:  i,
		}
	}

	// Insertion sort keeps first-seen order on equal scores.
	for i := 1; i < len(rankings); i++ {
		for j := i; j > 0 && rankings[j].score > rankings[j-1].score; j-- {
			rankings[j], rankings[j-1] = rankings[j-1], rankings[j]
		}
	}

	if k > len(rankings) {
		k = len(rankings)
	}
	best := make([]string, k)
	for i := 0; i < k; i++ {
		best[i] = rankings[i].action
	}
	return best
}

// #endregion outcome-tracker
