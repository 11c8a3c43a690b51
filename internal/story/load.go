package story

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

var (
	ErrEmptyDocument   = errors.New("case document is empty")
	ErrInvalidDocument = errors.New("invalid case document")
	ErrNoNodes         = errors.New("case has no nodes")
	ErrMissingNodeID   = errors.New("node missing required 'id' field")
	ErrDuplicateNode   = errors.New("duplicate node id")
)

// LoadFile reads a case document from disk. Cases without an id take the
// file name without its extension.
func LoadFile(path string) (*Graph, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	g, err := Parse(data)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(g.ID) == "" {
		g.ID = IDFromPath(path)
	}
	return g, nil
}

// IDFromPath derives a case id from a file name.
func IDFromPath(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// Parse decodes a YAML or JSON case document and indexes it.
func Parse(content []byte) (*Graph, error) {
	trimmed := bytes.TrimLeft(content, "\ufeff\n\r\t ")
	if len(trimmed) == 0 {
		return nil, ErrEmptyDocument
	}

	var g Graph
	if trimmed[0] == '{' {
		// Exported editor documents are JSON, often tab-indented, which YAML rejects.
		if err := json.Unmarshal(trimmed, &g); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidDocument, err)
		}
	} else if err := yaml.Unmarshal(trimmed, &g); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidDocument, err)
	}

	for i := range g.Nodes {
		g.Nodes[i].Type = NodeType(strings.ToLower(strings.TrimSpace(string(g.Nodes[i].Type))))
	}

	if err := g.build(); err != nil {
		return nil, err
	}
	return &g, nil
}
