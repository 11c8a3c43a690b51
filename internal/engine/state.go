package engine

type Outcome string

const (
	OutcomeNone    Outcome = ""
	OutcomeSuccess Outcome = "success"
	OutcomeFailure Outcome = "failure"
	OutcomeTimeout Outcome = "timeout"
)

// State is the mutable core of a play session. Transitions work on a clone and
// replace the engine's state only when they complete, so readers never see a
// half-applied transition.
type State struct {
	Inventory     Inventory
	Outputs       map[string]any
	History       []string
	Score         int
	Scored        Inventory
	Objectives    map[string]int
	RevealedHints Inventory
	TimeLeft      int
	Elapsed       int
	Outcome       Outcome
}

func NewState(timeLimit int) *State {
	return &State{
		Inventory:     NewInventory(),
		Outputs:       map[string]any{},
		Scored:        NewInventory(),
		Objectives:    map[string]int{},
		RevealedHints: NewInventory(),
		TimeLeft:      timeLimit,
	}
}

func (s *State) Clone() *State {
	out := *s
	out.Inventory = s.Inventory.Clone()
	out.Outputs = cloneOutputs(s.Outputs)
	out.History = append([]string(nil), s.History...)
	out.Scored = s.Scored.Clone()
	out.Objectives = make(map[string]int, len(s.Objectives))
	for k, v := range s.Objectives {
		out.Objectives[k] = v
	}
	out.RevealedHints = s.RevealedHints.Clone()
	return &out
}

// SetOutput writes a node output, mirroring booleans into the inventory.
func (s *State) SetOutput(name string, value any) {
	setOutput(s.Inventory, s.Outputs, name, value)
}

func (s *State) AddFlag(flag string) {
	s.Inventory.Add(flag)
}

// Visit appends id to the history unless it is already there.
func (s *State) Visit(id string) {
	if s.Visited(id) {
		return
	}
	s.History = append(s.History, id)
}

func (s *State) Visited(id string) bool {
	for _, h := range s.History {
		if h == id {
			return true
		}
	}
	return false
}

// TruncateHistory keeps the first n history entries.
func (s *State) TruncateHistory(n int) {
	if n < 0 {
		n = 0
	}
	if n < len(s.History) {
		s.History = s.History[:n]
	}
}

// Award grants a node's points once per node id and returns the points added.
func (s *State) Award(nodeID string, points int) int {
	if points <= 0 || s.Scored.Has(nodeID) {
		return 0
	}
	s.Scored.Add(nodeID)
	s.Objectives[nodeID] = points
	s.Score += points
	return points
}

// Penalize subtracts points, flooring the score at zero. Penalties are not
// guarded and apply every time. It returns the points actually removed.
func (s *State) Penalize(points int) int {
	if points <= 0 {
		return 0
	}
	if points > s.Score {
		points = s.Score
	}
	s.Score -= points
	return points
}

func setOutput(inv Inventory, outputs map[string]any, name string, value any) {
	if name == "" {
		return
	}
	outputs[name] = value
	if b, ok := value.(bool); ok {
		if b {
			inv.Add(name)
		} else {
			inv.Remove(name)
		}
	}
}

func cloneOutputs(in map[string]any) map[string]any {
	out := make(map[string]any, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
