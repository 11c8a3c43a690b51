package story

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

const sampleCase = `
id: harbor
title: The Harbor Job
timeLimit: 600
nodes:
  - id: start
    type: story
    data:
      label: Arrival
  - id: gate
    type: Logic
    data:
      condition: has_key
  - id: counter
    type: setter
    data:
      variableId: clues
      operation: increment
      value: 5
  - id: vault
    type: story
edges:
  - source: start
    target: gate
  - source: gate
    target: vault
    sourceHandle: "true"
`

func TestParse(t *testing.T) {
	t.Run("yaml document", func(t *testing.T) {
		g, err := Parse([]byte(sampleCase))
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if g.ID != "harbor" || g.Title != "The Harbor Job" || g.TimeLimit != 600 {
			t.Fatalf("unexpected case metadata: %+v", g)
		}
		gate, ok := g.Node("gate")
		if !ok {
			t.Fatalf("expected gate node")
		}
		if gate.Type != TypeLogic {
			t.Fatalf("expected type normalised to logic, got %q", gate.Type)
		}
		counter, _ := g.Node("counter")
		if !counter.Data.Value.Set || counter.Data.Value.Raw != "5" {
			t.Fatalf("expected scalar value 5, got %+v", counter.Data.Value)
		}
		if len(g.Outgoing("start")) != 1 || len(g.Incoming("vault")) != 1 {
			t.Fatalf("expected edges indexed")
		}
	})

	t.Run("json document with tabs", func(t *testing.T) {
		doc := "{\n\t\"nodes\": [\n\t\t{\"id\": \"a\", \"type\": \"story\"},\n\t\t{\"id\": \"s\", \"type\": \"setter\", \"data\": {\"variableId\": \"x\", \"value\": 3}}\n\t],\n\t\"edges\": [{\"source\": \"a\", \"target\": \"s\", \"sourceHandle\": \"go\"}]\n}"
		g, err := Parse([]byte(doc))
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		s, _ := g.Node("s")
		if s.Data.Value.Raw != "3" {
			t.Fatalf("expected numeric value decoded as 3, got %q", s.Data.Value.Raw)
		}
		if g.Outgoing("a")[0].SourceHandle != "go" {
			t.Fatalf("expected source handle")
		}
	})

	t.Run("empty document", func(t *testing.T) {
		if _, err := Parse([]byte("  \n")); !errors.Is(err, ErrEmptyDocument) {
			t.Fatalf("expected ErrEmptyDocument, got %v", err)
		}
	})

	t.Run("invalid yaml", func(t *testing.T) {
		if _, err := Parse([]byte("nodes: [\n")); !errors.Is(err, ErrInvalidDocument) {
			t.Fatalf("expected ErrInvalidDocument, got %v", err)
		}
	})

	t.Run("no nodes", func(t *testing.T) {
		if _, err := Parse([]byte("title: nothing\n")); !errors.Is(err, ErrNoNodes) {
			t.Fatalf("expected ErrNoNodes, got %v", err)
		}
	})

	t.Run("duplicate ids", func(t *testing.T) {
		_, err := Parse([]byte("nodes:\n  - id: a\n    type: story\n  - id: a\n    type: fact\n"))
		if !errors.Is(err, ErrDuplicateNode) {
			t.Fatalf("expected ErrDuplicateNode, got %v", err)
		}
	})

	t.Run("missing id", func(t *testing.T) {
		_, err := Parse([]byte("nodes:\n  - type: story\n"))
		if !errors.Is(err, ErrMissingNodeID) {
			t.Fatalf("expected ErrMissingNodeID, got %v", err)
		}
	})

	t.Run("non scalar value", func(t *testing.T) {
		_, err := Parse([]byte("nodes:\n  - id: a\n    type: setter\n    data:\n      value: [1, 2]\n"))
		if !errors.Is(err, ErrInvalidDocument) {
			t.Fatalf("expected ErrInvalidDocument, got %v", err)
		}
	})
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "night-shift.yaml")
	if err := os.WriteFile(path, []byte("nodes:\n  - id: a\n    type: story\n"), 0o600); err != nil {
		t.Fatalf("writing case: %v", err)
	}
	g, err := LoadFile(path)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if g.ID != "night-shift" {
		t.Fatalf("expected id from file name, got %q", g.ID)
	}

	if _, err := LoadFile(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatalf("expected error")
	}
}

func TestStart(t *testing.T) {
	t.Run("explicit start flag", func(t *testing.T) {
		g, err := New([]Node{{ID: "a", Type: TypeStory}, {ID: "b", Type: TypeStory, Data: Data{IsStart: true}}}, nil)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if start, _ := g.Start(); start.ID != "b" {
			t.Fatalf("expected b, got %s", start.ID)
		}
	})

	t.Run("first visual root", func(t *testing.T) {
		g, err := New(
			[]Node{{ID: "m", Type: TypeMusic}, {ID: "b", Type: TypeStory}, {ID: "a", Type: TypeStory}},
			[]Edge{{Source: "a", Target: "m"}, {Source: "m", Target: "b"}},
		)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if start, _ := g.Start(); start.ID != "a" {
			t.Fatalf("expected a, got %s", start.ID)
		}
	})

	t.Run("falls back to first node", func(t *testing.T) {
		g, err := New(
			[]Node{{ID: "m", Type: TypeMusic}, {ID: "a", Type: TypeStory}},
			[]Edge{{Source: "m", Target: "a"}, {Source: "a", Target: "m"}},
		)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if start, _ := g.Start(); start.ID != "m" {
			t.Fatalf("expected m, got %s", start.ID)
		}
	})
}

func TestEdgeBranch(t *testing.T) {
	tests := []struct {
		name    string
		edge    Edge
		outcome bool
		want    bool
	}{
		{name: "true handle", edge: Edge{SourceHandle: "true"}, outcome: true, want: true},
		{name: "True label", edge: Edge{Label: "True"}, outcome: true, want: true},
		{name: "false handle", edge: Edge{SourceHandle: "false"}, outcome: false, want: true},
		{name: "false label lower", edge: Edge{Label: "false"}, outcome: false, want: true},
		{name: "unflagged", edge: Edge{Label: "Go on"}, outcome: true, want: false},
		{name: "opposite", edge: Edge{SourceHandle: "true"}, outcome: false, want: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.edge.Branch(tt.outcome); got != tt.want {
				t.Errorf("Branch(%v) = %v, want %v", tt.outcome, got, tt.want)
			}
		})
	}
}

func TestAcceptsCommand(t *testing.T) {
	node := Node{ID: "t", Type: TypeTerminal, Data: Data{Command: "ls -la", Commands: []string{"dir"}}}
	for _, input := range []string{"ls -la", "  LS -LA ", "DIR"} {
		if !node.AcceptsCommand(input) {
			t.Fatalf("expected %q accepted", input)
		}
	}
	for _, input := range []string{"", "ls", "rm -rf"} {
		if node.AcceptsCommand(input) {
			t.Fatalf("expected %q rejected", input)
		}
	}
}
