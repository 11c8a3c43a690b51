package engine

import (
	"context"
	"time"
)

// Tick advances the session clock by one second. With a time limit the
// countdown runs and reaching zero resolves the case as a timeout, once. Ticks
// after any outcome do nothing.
func (e *Engine) Tick() Snapshot {
	return e.TickN(1)
}

// TickN runs n ticks under one lock and returns the resulting snapshot. It
// stops early once the case has an outcome.
func (e *Engine) TickN(n int) Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()

	if n <= 0 || e.state.Outcome != OutcomeNone {
		return e.snapshot()
	}
	st := e.state.Clone()
	fb := e.feedback
	for range n {
		st.Elapsed++
		if e.timeLimit <= 0 {
			continue
		}
		st.TimeLeft--
		if st.TimeLeft <= 0 {
			st.TimeLeft = 0
			st.Outcome = OutcomeTimeout
			e.accusation = &Accusation{Outcome: OutcomeTimeout, Report: e.report(st)}
			fb = &Feedback{Kind: FeedbackTimeout, Message: "time is up"}
			e.log.Info("case timed out", "score", st.Score)
			break
		}
	}
	e.apply(st, e.currentID, 0, nil, fb)
	return e.snapshot()
}

// RunTimer calls Tick every interval until ctx is done or the case has an
// outcome. onTick, if set, receives each snapshot.
func (e *Engine) RunTimer(ctx context.Context, interval time.Duration, onTick func(Snapshot)) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			snap := e.Tick()
			if onTick != nil {
				onTick(snap)
			}
			if snap.Outcome != OutcomeNone {
				return nil
			}
		}
	}
}

// Summary is the final result handed to persistence.
type Summary struct {
	SessionID        string         `json:"session_id"`
	CaseID           string         `json:"case_id"`
	Score            int            `json:"score"`
	ObjectiveScores  map[string]int `json:"objective_scores"`
	Outcome          Outcome        `json:"outcome,omitempty"`
	TimeSpentSeconds int            `json:"time_spent_seconds"`
}

func (e *Engine) Summary() Summary {
	e.mu.Lock()
	defer e.mu.Unlock()
	return Summary{
		SessionID:        e.sessionID,
		CaseID:           e.graph.ID,
		Score:            e.state.Score,
		ObjectiveScores:  cloneScores(e.state.Objectives),
		Outcome:          e.state.Outcome,
		TimeSpentSeconds: e.state.Elapsed,
	}
}
