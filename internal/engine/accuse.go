package engine

import (
	"fmt"
	"strings"

	"casefile/internal/story"
)

// Report summarises a session once its outcome is known.
type Report struct {
	SessionID        string         `json:"session_id"`
	CaseID           string         `json:"case_id,omitempty"`
	Outcome          Outcome        `json:"outcome"`
	Score            int            `json:"score"`
	TimeSpentSeconds int            `json:"time_spent_seconds"`
	TimeLeft         int            `json:"time_left"`
	EvidenceFound    int            `json:"evidence_found"`
	EvidenceTotal    int            `json:"evidence_total"`
	NodesVisited     int            `json:"nodes_visited"`
	HintsUsed        int            `json:"hints_used"`
	ObjectiveScores  map[string]int `json:"objective_scores"`
}

// Accusation is the result of the accusation flow, including timeouts.
type Accusation struct {
	Outcome     Outcome `json:"outcome"`
	SuspectID   string  `json:"suspect_id,omitempty"`
	SuspectName string  `json:"suspect_name,omitempty"`
	Report      Report  `json:"report"`
}

// Accuse names suspectID as the culprit at the current identify node. The
// outcome is final: the countdown stops and later accusations are refused.
func (e *Engine) Accuse(suspectID string) (Snapshot, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	node := e.current()
	if node == nil || node.Type != story.TypeIdentify {
		return e.snapshot(), fmt.Errorf("accuse: %w", ErrWrongNodeType)
	}
	if e.state.Outcome != OutcomeNone {
		return e.snapshot(), fmt.Errorf("accuse: %w", ErrOutcomeSet)
	}
	suspect, ok := e.graph.Node(suspectID)
	if !ok || suspect.Type != story.TypeSuspect {
		return e.snapshot(), fmt.Errorf("%w: %s", ErrUnknownSuspect, suspectID)
	}

	st := e.state.Clone()
	var (
		delta int
		fb    *Feedback
	)
	if CulpritMatches(node, suspect) {
		st.Outcome = OutcomeSuccess
		delta = e.solve(st, node)
		fb = &Feedback{Kind: FeedbackSuccess, Message: "case closed"}
	} else {
		st.Outcome = OutcomeFailure
		delta = -st.Penalize(node.Data.Penalty)
		fb = &Feedback{Kind: FeedbackFailure, Message: "wrong suspect"}
	}
	e.accusation = &Accusation{
		Outcome:     st.Outcome,
		SuspectID:   suspect.ID,
		SuspectName: suspect.SuspectName(),
		Report:      e.report(st),
	}
	e.log.Info("accusation resolved", "suspect", suspect.ID, "outcome", st.Outcome, "score", st.Score)

	e.advanceAfter(st, delta, fb, false, string(st.Outcome))
	return e.snapshot(), nil
}

// CulpritMatches compares a suspect against the identify node's culprit name,
// ignoring case and accepting a substring match either way. Without a culprit
// name the suspect's own culprit marker decides.
func CulpritMatches(identify, suspect *story.Node) bool {
	want := strings.ToLower(strings.TrimSpace(identify.Data.CulpritName))
	if want == "" {
		return suspect.Culprit()
	}
	got := strings.ToLower(strings.TrimSpace(suspect.SuspectName()))
	if got == "" {
		return false
	}
	return got == want || strings.Contains(got, want) || strings.Contains(want, got)
}

func (e *Engine) report(st *State) Report {
	r := Report{
		SessionID:        e.sessionID,
		CaseID:           e.graph.ID,
		Outcome:          st.Outcome,
		Score:            st.Score,
		TimeSpentSeconds: st.Elapsed,
		TimeLeft:         st.TimeLeft,
		NodesVisited:     len(st.History),
		HintsUsed:        st.RevealedHints.Len(),
		ObjectiveScores:  cloneScores(st.Objectives),
	}
	for _, node := range e.graph.NodesOfType(story.TypeEvidence) {
		r.EvidenceTotal++
		if st.Visited(node.ID) {
			r.EvidenceFound++
		}
	}
	return r
}
