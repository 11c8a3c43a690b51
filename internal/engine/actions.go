package engine

import (
	"fmt"

	"casefile/internal/story"
)

// SelectOption follows the option whose raw edge target or resolved target is
// targetID.
func (e *Engine) SelectOption(targetID string) (Snapshot, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	var chosen *Option
	for _, opt := range e.options(e.state) {
		if opt.Edge.Target == targetID || opt.TargetID == targetID {
			chosen = &opt
			break
		}
	}
	if chosen == nil {
		return e.snapshot(), fmt.Errorf("%w: %s", ErrUnknownOption, targetID)
	}

	st := e.state.Clone()
	currentID, delta, cue := e.enter(st, chosen.Edge.Target, e.currentID)
	e.apply(st, currentID, delta, cue, nil)
	return e.snapshot(), nil
}

// SubmitTerminalCommand checks a command typed into the current terminal node.
// A wrong command costs the node's penalty; a right one solves the node and
// moves on.
func (e *Engine) SubmitTerminalCommand(input string) (Snapshot, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	node := e.current()
	if node == nil || node.Type != story.TypeTerminal {
		return e.snapshot(), fmt.Errorf("submit command: %w", ErrWrongNodeType)
	}

	st := e.state.Clone()
	if !node.AcceptsCommand(input) {
		removed := st.Penalize(node.Data.Penalty)
		e.apply(st, e.currentID, -removed, nil, &Feedback{
			Kind:    FeedbackFailure,
			Message: messageOr(node.Data.ErrorMessage, "command not recognized"),
		})
		return e.snapshot(), nil
	}

	delta := e.solve(st, node)
	st.SetOutput(node.Data.VariableID, true)
	e.advanceAfter(st, delta, &Feedback{
		Kind:    FeedbackSuccess,
		Message: messageOr(node.Data.SuccessMessage, "access granted"),
	}, true, "success")
	return e.snapshot(), nil
}

// SubmitQuiz grades the current question. The answer is correct only when the
// selected option ids are exactly the options marked correct.
func (e *Engine) SubmitQuiz(selected []string) (Snapshot, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	node := e.current()
	if node == nil || node.Type != story.TypeQuestion {
		return e.snapshot(), fmt.Errorf("submit quiz: %w", ErrWrongNodeType)
	}

	st := e.state.Clone()
	correct := QuizCorrect(node.Data.Options, selected)
	st.SetOutput(node.Data.VariableID, correct)
	if !correct {
		removed := st.Penalize(node.Data.Penalty)
		e.apply(st, e.currentID, -removed, nil, &Feedback{Kind: FeedbackFailure, Message: "incorrect answer"})
		return e.snapshot(), nil
	}

	delta := e.solve(st, node)
	e.advanceAfter(st, delta, &Feedback{Kind: FeedbackSuccess, Message: "correct"}, true, "correct", "success")
	return e.snapshot(), nil
}

// QuizCorrect reports whether selected equals the set of correct option ids.
func QuizCorrect(options []story.QuizOption, selected []string) bool {
	want := make(map[string]struct{})
	for _, opt := range options {
		if opt.IsCorrect {
			want[opt.ID] = struct{}{}
		}
	}
	got := make(map[string]struct{}, len(selected))
	for _, id := range selected {
		got[id] = struct{}{}
	}
	if len(got) != len(want) {
		return false
	}
	for id := range got {
		if _, ok := want[id]; !ok {
			return false
		}
	}
	return true
}

// RevealHint shows a hint attached to the current node. Every reveal costs the
// hint's penalty, or the node's when the hint declares none.
func (e *Engine) RevealHint(hintID string) (Snapshot, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	node := e.current()
	if node == nil {
		return e.snapshot(), fmt.Errorf("%w: %s", ErrUnknownHint, hintID)
	}
	hint, ok := node.Hint(hintID)
	if !ok {
		return e.snapshot(), fmt.Errorf("%w: %s on %s", ErrUnknownHint, hintID, node.ID)
	}

	st := e.state.Clone()
	penalty := hint.Penalty
	if penalty <= 0 {
		penalty = node.Data.Penalty
	}
	removed := st.Penalize(penalty)
	st.RevealedHints.Add(node.ID + "/" + hint.ID)
	e.apply(st, e.currentID, -removed, nil, &Feedback{Kind: FeedbackHint, Message: hint.Text})
	return e.snapshot(), nil
}

// CloseModal backs out of the modal showing nodeID. The player returns to the
// most recent story node in history, else to the most recent visible node, and
// history is cut back to that entry. Closing anything but the current modal
// is a no-op.
func (e *Engine) CloseModal(nodeID string) (Snapshot, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	node := e.current()
	if node == nil || nodeID != e.currentID || ModeFor(node.Type) == ModeNarrating {
		return e.snapshot(), nil
	}

	idx := e.backtrackIndex(func(n *story.Node) bool { return n.Type == story.TypeStory })
	if idx < 0 {
		idx = e.backtrackIndex(func(n *story.Node) bool { return !n.Type.Plumbing() })
	}
	if idx < 0 {
		return e.snapshot(), nil
	}

	st := e.state.Clone()
	target := st.History[idx]
	st.TruncateHistory(idx + 1)
	e.apply(st, target, 0, nil, nil)
	return e.snapshot(), nil
}

func (e *Engine) backtrackIndex(match func(*story.Node) bool) int {
	history := e.state.History
	for i := len(history) - 1; i >= 0; i-- {
		if history[i] == e.currentID {
			continue
		}
		if n, ok := e.graph.Node(history[i]); ok && match(n) {
			return i
		}
	}
	return -1
}

// solve marks a challenge node as completed and awards its score once.
func (e *Engine) solve(st *State, node *story.Node) int {
	st.AddFlag(node.ID)
	return st.Award(node.ID, node.Data.Score)
}

// advanceAfter moves on from a solved node along the option leaving through one
// of handles, or stays put when there is none.
func (e *Engine) advanceAfter(st *State, delta int, fb *Feedback, fallback bool, handles ...string) {
	opt, ok := e.route(st, fallback, handles...)
	if !ok {
		e.apply(st, e.currentID, delta, nil, fb)
		return
	}
	currentID, gained, cue := e.enter(st, opt.Edge.Target, e.currentID)
	e.apply(st, currentID, delta+gained, cue, fb)
}

func messageOr(msg, fallback string) string {
	if msg != "" {
		return msg
	}
	return fallback
}
