package mcp

import (
	"context"
	"fmt"

	sdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"casefile/internal/engine"
	"casefile/internal/store"
	"casefile/internal/story"
)

type ListCasesInput struct{}

type StartSessionInput struct {
	CaseID    string `json:"case_id" jsonschema:"id of an ingested case"`
	TimeLimit int    `json:"time_limit,omitempty" jsonschema:"countdown in seconds; overrides the case limit"`
}

type SessionInput struct {
	SessionID string `json:"session_id" jsonschema:"session returned by start_session"`
}

type SelectOptionInput struct {
	SessionID string `json:"session_id" jsonschema:"session returned by start_session"`
	Target    string `json:"target" jsonschema:"target of one of the listed options"`
}

type SubmitCommandInput struct {
	SessionID string `json:"session_id" jsonschema:"session returned by start_session"`
	Command   string `json:"command" jsonschema:"command typed into the terminal"`
}

type SubmitQuizInput struct {
	SessionID string   `json:"session_id" jsonschema:"session returned by start_session"`
	Selected  []string `json:"selected" jsonschema:"ids of the chosen answers"`
}

type AccuseInput struct {
	SessionID string `json:"session_id" jsonschema:"session returned by start_session"`
	SuspectID string `json:"suspect_id" jsonschema:"id of the accused suspect node"`
}

type RevealHintInput struct {
	SessionID string `json:"session_id" jsonschema:"session returned by start_session"`
	HintID    string `json:"hint_id" jsonschema:"hint id on the current node"`
}

type CloseModalInput struct {
	SessionID string `json:"session_id" jsonschema:"session returned by start_session"`
	NodeID    string `json:"node_id,omitempty" jsonschema:"node whose view is being closed; defaults to the current node"`
}

type ListCasesOutput struct {
	Cases []store.CaseSummary `json:"cases"`
}

type NodeOutput struct {
	ID          string             `json:"id"`
	Type        string             `json:"type"`
	Label       string             `json:"label"`
	Text        string             `json:"text,omitempty"`
	Hints       []HintOutput       `json:"hints,omitempty"`
	QuizOptions []QuizOptionOutput `json:"quiz_options,omitempty"`
	Actions     []string           `json:"actions,omitempty"`
}

type HintOutput struct {
	ID       string `json:"id"`
	Penalty  int    `json:"penalty,omitempty"`
	Revealed bool   `json:"revealed"`
}

type QuizOptionOutput struct {
	ID   string `json:"id"`
	Text string `json:"text"`
}

type OptionOutput struct {
	Target   string `json:"target"`
	Resolved string `json:"resolved"`
	Label    string `json:"label"`
}

type SuspectOutput struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type FeedbackOutput struct {
	Kind    string `json:"kind"`
	Message string `json:"message,omitempty"`
}

type CueOutput struct {
	URL    string  `json:"url"`
	Volume float64 `json:"volume"`
}

type StateOutput struct {
	SessionID  string          `json:"session_id"`
	CaseID     string          `json:"case_id"`
	Node       NodeOutput      `json:"node"`
	Mode       string          `json:"mode"`
	Options    []OptionOutput  `json:"options"`
	Suspects   []SuspectOutput `json:"suspects,omitempty"`
	Inventory  []string        `json:"inventory"`
	Score      int             `json:"score"`
	ScoreDelta int             `json:"score_delta"`
	TimeLeft   int             `json:"time_left"`
	Elapsed    int             `json:"elapsed"`
	Outcome    string          `json:"outcome,omitempty"`
	Feedback   *FeedbackOutput `json:"feedback,omitempty"`
	Cue        *CueOutput      `json:"cue,omitempty"`
	Report     *engine.Report  `json:"report,omitempty"`
}

type EndSessionOutput struct {
	SessionID        string         `json:"session_id"`
	CaseID           string         `json:"case_id"`
	Outcome          string         `json:"outcome"`
	Score            int            `json:"score"`
	TimeSpentSeconds int            `json:"time_spent_seconds"`
	ObjectiveScores  map[string]int `json:"objective_scores"`
}

func (s *Server) registerTools() {
	sdk.AddTool(s.mcp, &sdk.Tool{
		Name:        "list_cases",
		Description: "List the ingested cases that can be played",
	}, s.handleListCases)

	sdk.AddTool(s.mcp, &sdk.Tool{
		Name:        "start_session",
		Description: "Start a play session on a case and return the opening state",
	}, s.handleStartSession)

	sdk.AddTool(s.mcp, &sdk.Tool{
		Name:        "get_state",
		Description: "Return the current state of a session",
	}, s.handleGetState)

	sdk.AddTool(s.mcp, &sdk.Tool{
		Name:        "select_option",
		Description: "Follow one of the options listed for the current node",
	}, s.handleSelectOption)

	sdk.AddTool(s.mcp, &sdk.Tool{
		Name:        "submit_command",
		Description: "Type a command into the current terminal node",
	}, s.handleSubmitCommand)

	sdk.AddTool(s.mcp, &sdk.Tool{
		Name:        "submit_quiz",
		Description: "Answer the current question node",
	}, s.handleSubmitQuiz)

	sdk.AddTool(s.mcp, &sdk.Tool{
		Name:        "accuse",
		Description: "Name a suspect as the culprit at the accusation node",
	}, s.handleAccuse)

	sdk.AddTool(s.mcp, &sdk.Tool{
		Name:        "reveal_hint",
		Description: "Reveal a hint on the current node at a score penalty",
	}, s.handleRevealHint)

	sdk.AddTool(s.mcp, &sdk.Tool{
		Name:        "close_modal",
		Description: "Close the current modal view and return to the last scene",
	}, s.handleCloseModal)

	sdk.AddTool(s.mcp, &sdk.Tool{
		Name:        "end_session",
		Description: "End a session and record its result",
	}, s.handleEndSession)
}

func (s *Server) handleListCases(ctx context.Context, req *sdk.CallToolRequest, input ListCasesInput) (*sdk.CallToolResult, ListCasesOutput, error) {
	cases, err := s.db.ListCases(ctx)
	if err != nil {
		return nil, ListCasesOutput{}, err
	}
	if cases == nil {
		cases = []store.CaseSummary{}
	}
	return nil, ListCasesOutput{Cases: cases}, nil
}

func (s *Server) handleStartSession(ctx context.Context, req *sdk.CallToolRequest, input StartSessionInput) (*sdk.CallToolResult, StateOutput, error) {
	if input.CaseID == "" {
		return nil, StateOutput{}, fmt.Errorf("case_id is required")
	}
	c, err := s.db.GetCase(ctx, input.CaseID)
	if err != nil {
		return nil, StateOutput{}, err
	}
	if c == nil {
		return nil, StateOutput{}, fmt.Errorf("case not found: %s", input.CaseID)
	}
	g, err := story.Parse(c.Document)
	if err != nil {
		return nil, StateOutput{}, fmt.Errorf("load case %s: %w", c.ID, err)
	}
	g.ID = c.ID

	timeLimit := input.TimeLimit
	if timeLimit == 0 {
		timeLimit = s.timeLimit
	}
	e, err := engine.New(g, engine.Options{Logger: s.log, TimeLimit: timeLimit})
	if err != nil {
		return nil, StateOutput{}, err
	}
	s.addSession(e)
	s.log.Info("session started", "session", e.SessionID(), "case", c.ID)
	return nil, stateOutput(g, e.Snapshot()), nil
}

func (s *Server) handleGetState(ctx context.Context, req *sdk.CallToolRequest, input SessionInput) (*sdk.CallToolResult, StateOutput, error) {
	e, err := s.session(input.SessionID)
	if err != nil {
		return nil, StateOutput{}, err
	}
	return nil, stateOutput(e.Graph(), e.Snapshot()), nil
}

func (s *Server) handleSelectOption(ctx context.Context, req *sdk.CallToolRequest, input SelectOptionInput) (*sdk.CallToolResult, StateOutput, error) {
	if input.Target == "" {
		return nil, StateOutput{}, fmt.Errorf("target is required")
	}
	return s.act(input.SessionID, func(e *engine.Engine) (engine.Snapshot, error) {
		return e.SelectOption(input.Target)
	})
}

func (s *Server) handleSubmitCommand(ctx context.Context, req *sdk.CallToolRequest, input SubmitCommandInput) (*sdk.CallToolResult, StateOutput, error) {
	return s.act(input.SessionID, func(e *engine.Engine) (engine.Snapshot, error) {
		return e.SubmitTerminalCommand(input.Command)
	})
}

func (s *Server) handleSubmitQuiz(ctx context.Context, req *sdk.CallToolRequest, input SubmitQuizInput) (*sdk.CallToolResult, StateOutput, error) {
	return s.act(input.SessionID, func(e *engine.Engine) (engine.Snapshot, error) {
		return e.SubmitQuiz(input.Selected)
	})
}

func (s *Server) handleAccuse(ctx context.Context, req *sdk.CallToolRequest, input AccuseInput) (*sdk.CallToolResult, StateOutput, error) {
	if input.SuspectID == "" {
		return nil, StateOutput{}, fmt.Errorf("suspect_id is required")
	}
	return s.act(input.SessionID, func(e *engine.Engine) (engine.Snapshot, error) {
		return e.Accuse(input.SuspectID)
	})
}

func (s *Server) handleRevealHint(ctx context.Context, req *sdk.CallToolRequest, input RevealHintInput) (*sdk.CallToolResult, StateOutput, error) {
	if input.HintID == "" {
		return nil, StateOutput{}, fmt.Errorf("hint_id is required")
	}
	return s.act(input.SessionID, func(e *engine.Engine) (engine.Snapshot, error) {
		return e.RevealHint(input.HintID)
	})
}

func (s *Server) handleCloseModal(ctx context.Context, req *sdk.CallToolRequest, input CloseModalInput) (*sdk.CallToolResult, StateOutput, error) {
	return s.act(input.SessionID, func(e *engine.Engine) (engine.Snapshot, error) {
		nodeID := input.NodeID
		if nodeID == "" {
			nodeID = e.Snapshot().CurrentID
		}
		return e.CloseModal(nodeID)
	})
}

func (s *Server) handleEndSession(ctx context.Context, req *sdk.CallToolRequest, input SessionInput) (*sdk.CallToolResult, EndSessionOutput, error) {
	e, err := s.session(input.SessionID)
	if err != nil {
		return nil, EndSessionOutput{}, err
	}

	summary := e.Summary()
	outcome := string(summary.Outcome)
	if outcome == "" {
		outcome = store.OutcomeAbandoned
	}
	result := store.Result{
		SessionID:        summary.SessionID,
		CaseID:           summary.CaseID,
		Outcome:          outcome,
		Score:            summary.Score,
		TimeSpentSeconds: summary.TimeSpentSeconds,
		ObjectiveScores:  summary.ObjectiveScores,
		RecordedAt:       s.now().UTC(),
	}
	if err := s.db.RecordResult(ctx, result); err != nil {
		return nil, EndSessionOutput{}, fmt.Errorf("record result: %w", err)
	}
	s.removeSession(input.SessionID)
	s.log.Info("session ended", "session", summary.SessionID, "case", summary.CaseID, "outcome", outcome, "score", summary.Score)

	return nil, EndSessionOutput{
		SessionID:        result.SessionID,
		CaseID:           result.CaseID,
		Outcome:          result.Outcome,
		Score:            result.Score,
		TimeSpentSeconds: result.TimeSpentSeconds,
		ObjectiveScores:  result.ObjectiveScores,
	}, nil
}

func (s *Server) act(sessionID string, fn func(*engine.Engine) (engine.Snapshot, error)) (*sdk.CallToolResult, StateOutput, error) {
	e, err := s.session(sessionID)
	if err != nil {
		return nil, StateOutput{}, err
	}
	snap, err := fn(e)
	if err != nil {
		return nil, StateOutput{}, err
	}
	return nil, stateOutput(e.Graph(), snap), nil
}

func stateOutput(g *story.Graph, snap engine.Snapshot) StateOutput {
	out := StateOutput{
		SessionID:  snap.SessionID,
		CaseID:     snap.CaseID,
		Node:       nodeOutput(snap),
		Mode:       string(snap.Mode),
		Options:    make([]OptionOutput, 0, len(snap.Options)),
		Inventory:  snap.Inventory,
		Score:      snap.Score,
		ScoreDelta: snap.ScoreDelta,
		TimeLeft:   snap.TimeLeft,
		Elapsed:    snap.Elapsed,
		Outcome:    string(snap.Outcome),
	}
	if out.Inventory == nil {
		out.Inventory = []string{}
	}
	for _, option := range snap.Options {
		out.Options = append(out.Options, OptionOutput{
			Target:   option.Edge.Target,
			Resolved: option.TargetID,
			Label:    option.Label,
		})
	}
	if snap.Mode == engine.ModeAccusation {
		for _, suspect := range g.NodesOfType(story.TypeSuspect) {
			out.Suspects = append(out.Suspects, SuspectOutput{ID: suspect.ID, Name: suspect.Label()})
		}
	}
	if snap.Feedback != nil {
		out.Feedback = &FeedbackOutput{Kind: string(snap.Feedback.Kind), Message: snap.Feedback.Message}
	}
	if snap.Cue != nil {
		out.Cue = &CueOutput{URL: snap.Cue.URL, Volume: snap.Cue.Volume}
	}
	if snap.Accusation != nil {
		report := snap.Accusation.Report
		out.Report = &report
	}
	return out
}

func nodeOutput(snap engine.Snapshot) NodeOutput {
	node := snap.Current
	if node == nil {
		return NodeOutput{ID: snap.CurrentID}
	}
	out := NodeOutput{
		ID:    node.ID,
		Type:  string(node.Type),
		Label: node.Label(),
		Text:  node.Data.Text,
	}
	revealed := make(map[string]bool)
	for _, key := range snap.RevealedHints {
		revealed[key] = true
	}
	for _, hint := range node.Data.Hints {
		out.Hints = append(out.Hints, HintOutput{
			ID:       hint.ID,
			Penalty:  hint.Penalty,
			Revealed: revealed[node.ID+"/"+hint.ID],
		})
	}
	for _, option := range node.Data.Options {
		out.QuizOptions = append(out.QuizOptions, QuizOptionOutput{ID: option.ID, Text: option.Text})
	}
	for _, action := range node.Data.Actions {
		out.Actions = append(out.Actions, action.Label)
	}
	return out
}
