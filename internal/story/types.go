package story

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

type NodeType string

const (
	TypeStory         NodeType = "story"
	TypeAction        NodeType = "action"
	TypeEvidence      NodeType = "evidence"
	TypeSuspect       NodeType = "suspect"
	TypeTerminal      NodeType = "terminal"
	TypeMessage       NodeType = "message"
	TypeMedia         NodeType = "media"
	TypeNotification  NodeType = "notification"
	TypeQuestion      NodeType = "question"
	TypeEmail         NodeType = "email"
	TypeFact          NodeType = "fact"
	TypeLockpick      NodeType = "lockpick"
	TypeKeypad        NodeType = "keypad"
	TypeDecryption    NodeType = "decryption"
	TypeInterrogation NodeType = "interrogation"
	TypeThreeD        NodeType = "threed"
	TypeCutscene      NodeType = "cutscene"
	TypeDeepWeb       NodeType = "deepweb"
	TypeIdentify      NodeType = "identify"
	TypeLogic         NodeType = "logic"
	TypeSetter        NodeType = "setter"
	TypeMusic         NodeType = "music"
)

var knownTypes = map[NodeType]struct{}{
	TypeStory: {}, TypeAction: {}, TypeEvidence: {}, TypeSuspect: {}, TypeTerminal: {},
	TypeMessage: {}, TypeMedia: {}, TypeNotification: {}, TypeQuestion: {}, TypeEmail: {},
	TypeFact: {}, TypeLockpick: {}, TypeKeypad: {}, TypeDecryption: {}, TypeInterrogation: {},
	TypeThreeD: {}, TypeCutscene: {}, TypeDeepWeb: {}, TypeIdentify: {}, TypeLogic: {},
	TypeSetter: {}, TypeMusic: {},
}

// Known reports whether t is one of the authored node types.
func (t NodeType) Known() bool {
	_, ok := knownTypes[t]
	return ok
}

// Plumbing node types are never shown to the player; traversal passes through them.
func (t NodeType) Plumbing() bool {
	return t == TypeLogic || t == TypeSetter || t == TypeMusic
}

// Modal reports whether entering a node of this type opens a modal view.
func (t NodeType) Modal() bool {
	switch t {
	case TypeSuspect, TypeEvidence, TypeTerminal, TypeQuestion, TypeEmail, TypeMedia,
		TypeNotification, TypeInterrogation, TypeLockpick, TypeKeypad, TypeDecryption, TypeThreeD:
		return true
	}
	return false
}

// Collectible node types add a flag to the inventory when first entered.
func (t NodeType) Collectible() bool {
	return t == TypeEvidence || t == TypeSuspect || t == TypeEmail || t == TypeFact
}

// Challenge node types only count as completed after a successful interaction.
func (t NodeType) Challenge() bool {
	return t == TypeTerminal || t == TypeQuestion || t == TypeIdentify
}

// Value is a scalar authored in node data. Authors write numbers, booleans and
// strings interchangeably, so the raw text is kept and interpreted by the reader.
type Value struct {
	Raw string
	Set bool
}

func StringValue(s string) Value {
	return Value{Raw: s, Set: true}
}

func (v *Value) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.ScalarNode {
		return fmt.Errorf("line %d: value must be a scalar", node.Line)
	}
	if node.Tag == "!!null" {
		*v = Value{}
		return nil
	}
	*v = Value{Raw: node.Value, Set: true}
	return nil
}

func (v *Value) UnmarshalJSON(data []byte) error {
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	switch x := raw.(type) {
	case nil:
		*v = Value{}
	case string:
		*v = Value{Raw: x, Set: true}
	case bool:
		*v = Value{Raw: strconv.FormatBool(x), Set: true}
	case float64:
		*v = Value{Raw: strconv.FormatFloat(x, 'f', -1, 64), Set: true}
	default:
		return fmt.Errorf("value must be a scalar")
	}
	return nil
}

func (v Value) MarshalJSON() ([]byte, error) {
	if !v.Set {
		return []byte("null"), nil
	}
	return json.Marshal(v.Raw)
}

func (v Value) String() string {
	return v.Raw
}

type QuizOption struct {
	ID        string `yaml:"id" json:"id"`
	Text      string `yaml:"text" json:"text,omitempty"`
	IsCorrect bool   `yaml:"isCorrect" json:"isCorrect,omitempty"`
}

type Hint struct {
	ID      string `yaml:"id" json:"id"`
	Text    string `yaml:"text" json:"text,omitempty"`
	Penalty int    `yaml:"penalty" json:"penalty,omitempty"`
}

type Action struct {
	ID    string `yaml:"id" json:"id"`
	Label string `yaml:"label" json:"label,omitempty"`
}

// Data is the type-specific payload of a node. Only the fields relevant to the
// node's type are populated.
type Data struct {
	Label   string `yaml:"label" json:"label,omitempty"`
	Text    string `yaml:"text" json:"text,omitempty"`
	Score   int    `yaml:"score" json:"score,omitempty"`
	Penalty int    `yaml:"penalty" json:"penalty,omitempty"`
	IsStart bool   `yaml:"isStart" json:"isStart,omitempty"`

	Condition string `yaml:"condition" json:"condition,omitempty"`
	Variable  string `yaml:"variable" json:"variable,omitempty"`
	Operator  string `yaml:"operator" json:"operator,omitempty"`
	Value     Value  `yaml:"value" json:"value,omitempty"`
	LogicType string `yaml:"logicType" json:"logicType,omitempty"`

	VariableID string `yaml:"variableId" json:"variableId,omitempty"`
	Operation  string `yaml:"operation" json:"operation,omitempty"`

	URL    string   `yaml:"url" json:"url,omitempty"`
	Volume *float64 `yaml:"volume" json:"volume,omitempty"`

	Options []QuizOption `yaml:"options" json:"options,omitempty"`

	Command        string   `yaml:"command" json:"command,omitempty"`
	Commands       []string `yaml:"commands" json:"commands,omitempty"`
	SuccessMessage string   `yaml:"successMessage" json:"successMessage,omitempty"`
	ErrorMessage   string   `yaml:"errorMessage" json:"errorMessage,omitempty"`

	Name        string `yaml:"name" json:"name,omitempty"`
	IsKiller    bool   `yaml:"isKiller" json:"isKiller,omitempty"`
	IsCulprit   bool   `yaml:"isCulprit" json:"isCulprit,omitempty"`
	CulpritName string `yaml:"culpritName" json:"culpritName,omitempty"`

	Hints   []Hint   `yaml:"hints" json:"hints,omitempty"`
	Actions []Action `yaml:"actions" json:"actions,omitempty"`
}

type Node struct {
	ID   string   `yaml:"id" json:"id"`
	Type NodeType `yaml:"type" json:"type"`
	Data Data     `yaml:"data" json:"data"`
}

// Label returns the text shown for the node in option lists.
func (n *Node) Label() string {
	if n.Data.Label != "" {
		return n.Data.Label
	}
	if n.Data.Name != "" {
		return n.Data.Name
	}
	return n.ID
}

// Flag is the inventory flag a collectible node contributes.
func (n *Node) Flag() string {
	if n.Data.VariableID != "" {
		return n.Data.VariableID
	}
	if n.Data.Condition != "" {
		return n.Data.Condition
	}
	return n.ID
}

// SuspectName is the name compared against an accusation's culprit.
func (n *Node) SuspectName() string {
	if n.Data.Name != "" {
		return n.Data.Name
	}
	return n.Data.Label
}

// Culprit reports whether the node carries the legacy culprit marker.
func (n *Node) Culprit() bool {
	return n.Data.IsKiller || n.Data.IsCulprit
}

// AcceptsCommand reports whether a terminal command matches one of the node's
// expected commands, ignoring case and surrounding whitespace.
func (n *Node) AcceptsCommand(input string) bool {
	input = strings.TrimSpace(input)
	if input == "" {
		return false
	}
	if n.Data.Command != "" && strings.EqualFold(strings.TrimSpace(n.Data.Command), input) {
		return true
	}
	for _, cmd := range n.Data.Commands {
		if strings.EqualFold(strings.TrimSpace(cmd), input) {
			return true
		}
	}
	return false
}

func (n *Node) Hint(id string) (Hint, bool) {
	for _, h := range n.Data.Hints {
		if h.ID == id {
			return h, true
		}
	}
	return Hint{}, false
}

type EdgeData struct {
	EvidenceID string `yaml:"evidenceId" json:"evidenceId,omitempty"`
}

type Edge struct {
	ID           string   `yaml:"id" json:"id,omitempty"`
	Source       string   `yaml:"source" json:"source"`
	Target       string   `yaml:"target" json:"target"`
	SourceHandle string   `yaml:"sourceHandle" json:"sourceHandle,omitempty"`
	Label        string   `yaml:"label" json:"label,omitempty"`
	Data         EdgeData `yaml:"data" json:"data,omitempty"`
}

// Branch reports whether the edge is flagged as the given logic outcome, either
// through its source handle or its label.
func (e Edge) Branch(outcome bool) bool {
	want := "false"
	if outcome {
		want = "true"
	}
	return e.SourceHandle == want || e.Label == want || e.Label == strings.ToUpper(want[:1])+want[1:]
}

// Handle reports whether the edge leaves its source through the named handle.
func (e Edge) Handle(name string) bool {
	return strings.EqualFold(e.SourceHandle, name) || strings.EqualFold(e.Label, name)
}
