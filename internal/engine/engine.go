// Package engine runs a play session over a case graph: it fast-forwards
// through plumbing nodes, computes the choices on offer, and applies the
// player's actions to a single state aggregate.
package engine

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"casefile/internal/story"
)

var (
	ErrUnknownNode    = errors.New("unknown node")
	ErrUnknownOption  = errors.New("no such option")
	ErrWrongNodeType  = errors.New("action does not apply to current node")
	ErrOutcomeSet     = errors.New("case already resolved")
	ErrUnknownHint    = errors.New("no such hint")
	ErrUnknownSuspect = errors.New("no such suspect")
)

type Mode string

const (
	ModeNarrating  Mode = "narrating"
	ModeModal      Mode = "modal"
	ModeCutscene   Mode = "cutscene"
	ModeDeepWeb    Mode = "deepweb"
	ModeAccusation Mode = "accusation"
)

// ModeFor maps a node type to the presentation state it drives.
func ModeFor(t story.NodeType) Mode {
	switch {
	case t == story.TypeCutscene:
		return ModeCutscene
	case t == story.TypeDeepWeb:
		return ModeDeepWeb
	case t == story.TypeIdentify:
		return ModeAccusation
	case t.Modal():
		return ModeModal
	default:
		return ModeNarrating
	}
}

type Options struct {
	Logger *slog.Logger
	// TimeLimit in seconds. Zero falls back to the case's own limit; a
	// non-positive limit disables the countdown.
	TimeLimit int
	StartID   string
	SessionID string
}

type FeedbackKind string

const (
	FeedbackSuccess FeedbackKind = "success"
	FeedbackFailure FeedbackKind = "failure"
	FeedbackHint    FeedbackKind = "hint"
	FeedbackTimeout FeedbackKind = "timeout"
)

// Feedback is the message produced by the last action, if any.
type Feedback struct {
	Kind    FeedbackKind `json:"kind"`
	Message string       `json:"message,omitempty"`
}

// Snapshot is a read-only copy of the session taken after a transition.
type Snapshot struct {
	SessionID string         `json:"session_id"`
	CaseID    string         `json:"case_id,omitempty"`
	CurrentID string         `json:"current_id"`
	Current   *story.Node    `json:"current,omitempty"`
	Mode      Mode           `json:"mode"`
	Options   []Option       `json:"options"`
	Inventory []string       `json:"inventory"`
	Outputs   map[string]any `json:"outputs"`
	History   []string       `json:"history"`
	// RevealedHints holds "node/hint" keys.
	RevealedHints []string    `json:"revealed_hints"`
	Score         int         `json:"score"`
	ScoreDelta    int         `json:"score_delta"`
	TimeLeft      int         `json:"time_left"`
	Elapsed       int         `json:"elapsed"`
	Outcome       Outcome     `json:"outcome,omitempty"`
	Accusation    *Accusation `json:"accusation,omitempty"`
	Cue           *AudioCue   `json:"cue,omitempty"`
	Feedback      *Feedback   `json:"feedback,omitempty"`
}

// Engine owns one play session. All methods are safe for concurrent use; each
// transition builds a new state and swaps it in when complete.
type Engine struct {
	mu        sync.Mutex
	graph     *story.Graph
	log       *slog.Logger
	sessionID string
	timeLimit int

	state      *State
	currentID  string
	scoreDelta int
	cue        *AudioCue
	accusation *Accusation
	feedback   *Feedback
}

// New starts a session at opts.StartID, or at the graph's start node.
func New(g *story.Graph, opts Options) (*Engine, error) {
	if g == nil || len(g.Nodes) == 0 {
		return nil, story.ErrNoNodes
	}
	log := opts.Logger
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	sessionID := opts.SessionID
	if sessionID == "" {
		sessionID = uuid.NewString()
	}
	timeLimit := opts.TimeLimit
	if timeLimit == 0 {
		timeLimit = g.TimeLimit
	}

	startID := opts.StartID
	if startID == "" {
		start, ok := g.Start()
		if !ok {
			return nil, story.ErrNoNodes
		}
		startID = start.ID
	} else if _, ok := g.Node(startID); !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownNode, startID)
	}

	e := &Engine{
		graph:     g,
		log:       log.With("session", sessionID, "case", g.ID),
		sessionID: sessionID,
		timeLimit: timeLimit,
	}
	st := NewState(max(timeLimit, 0))
	currentID, delta, cue := e.enter(st, startID, startID)
	e.apply(st, currentID, delta, cue, nil)
	e.log.Debug("session started", "start", startID, "current", currentID)
	return e, nil
}

func (e *Engine) SessionID() string { return e.sessionID }

func (e *Engine) Graph() *story.Graph { return e.graph }

// Snapshot returns a copy of the current session state.
func (e *Engine) Snapshot() Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.snapshot()
}

// enter commits a traversal from targetID into st and returns the node the
// player lands on, the score awarded and any audio cue. When the target cannot
// be resolved at all the player stays on fallbackID.
func (e *Engine) enter(st *State, targetID, fallbackID string) (string, int, *AudioCue) {
	tr := Advance(e.graph, targetID, st)
	switch tr.Halt {
	case HaltMissing:
		e.log.Warn("edge target missing", "target", tr.FinalID)
		return fallbackID, 0, nil
	case HaltDeadEnd:
		e.log.Warn("no path from plumbing node", "node", tr.FinalID)
	case HaltBudget:
		e.log.Warn("traversal budget exhausted", "node", tr.FinalID, "steps", MaxSteps)
	case HaltWait:
		e.log.Debug("waiting on condition", "node", tr.FinalID)
	}

	st.Inventory = tr.Inventory
	st.Outputs = tr.Outputs
	for _, id := range tr.Passed {
		st.Visit(id)
	}
	node := tr.Final
	st.Visit(node.ID)
	if node.Type.Plumbing() || node.Type.Challenge() {
		return node.ID, 0, tr.Cue
	}

	st.AddFlag(node.ID)
	st.AddFlag(node.Data.VariableID)
	if node.Type == story.TypeEvidence {
		st.AddFlag(node.Data.Condition)
	}
	if node.Type.Collectible() {
		st.AddFlag(node.Flag())
	}
	return node.ID, st.Award(node.ID, node.Data.Score), tr.Cue
}

// apply swaps in the finished transition.
func (e *Engine) apply(st *State, currentID string, delta int, cue *AudioCue, fb *Feedback) {
	e.state = st
	e.currentID = currentID
	e.scoreDelta = delta
	e.cue = cue
	e.feedback = fb
}

func (e *Engine) current() *story.Node {
	node, _ := e.graph.Node(e.currentID)
	return node
}

func (e *Engine) options(st *State) []Option {
	node := e.current()
	if node == nil || node.Type.Plumbing() {
		return nil
	}
	opts := ComputeOptions(e.graph, e.currentID, st)
	if !node.Type.Challenge() {
		return opts
	}
	visible := make([]Option, 0, len(opts))
	for _, opt := range opts {
		if !routed(opt.Edge) {
			visible = append(visible, opt)
		}
	}
	return visible
}

// routingHandles mark the edges a challenge node leaves through once it is
// answered. They are never offered as player choices.
var routingHandles = []string{"success", "failure", "correct"}

func routed(edge story.Edge) bool {
	for _, handle := range routingHandles {
		if edge.Handle(handle) {
			return true
		}
	}
	return false
}

// route picks the option to follow after a solved challenge: the first option
// leaving through one of handles, else (when fallback is set) the first option.
func (e *Engine) route(st *State, fallback bool, handles ...string) (Option, bool) {
	var opts []Option
	if node := e.current(); node != nil && !node.Type.Plumbing() {
		opts = ComputeOptions(e.graph, e.currentID, st)
	}
	for _, handle := range handles {
		for _, opt := range opts {
			if opt.Edge.Handle(handle) {
				return opt, true
			}
		}
	}
	if fallback && len(opts) > 0 {
		return opts[0], true
	}
	return Option{}, false
}

func (e *Engine) snapshot() Snapshot {
	st := e.state
	snap := Snapshot{
		SessionID:     e.sessionID,
		CaseID:        e.graph.ID,
		CurrentID:     e.currentID,
		Current:       e.current(),
		Options:       e.options(st),
		Inventory:     st.Inventory.Sorted(),
		Outputs:       cloneOutputs(st.Outputs),
		History:       append([]string(nil), st.History...),
		RevealedHints: st.RevealedHints.Sorted(),
		Score:         st.Score,
		ScoreDelta:    e.scoreDelta,
		TimeLeft:      st.TimeLeft,
		Elapsed:       st.Elapsed,
		Outcome:       st.Outcome,
	}
	if snap.Current != nil {
		snap.Mode = ModeFor(snap.Current.Type)
	}
	if e.accusation != nil {
		a := *e.accusation
		a.Report.ObjectiveScores = cloneScores(a.Report.ObjectiveScores)
		snap.Accusation = &a
	}
	if e.cue != nil {
		cue := *e.cue
		snap.Cue = &cue
	}
	if e.feedback != nil {
		fb := *e.feedback
		snap.Feedback = &fb
	}
	return snap
}

func cloneScores(in map[string]int) map[string]int {
	out := make(map[string]int, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
