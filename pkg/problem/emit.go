package problem

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// Emitter writes problems into the index's directory, one file each.
type Emitter struct {
	index *Index
}

func NewEmitter(index *Index) *Emitter {
	return &Emitter{index: index}
}

// Emit assigns the next identifier, writes the artifact and records it
// in the manifest. It returns the artifact file name.
func (e *Emitter) Emit(p *Problem) (string, error) {
	p.ID = e.index.Allocate()
	data, err := Marshal(*p)
	if err != nil {
		return "", err
	}
	name := ArtifactName(p.ID)
	if err := writeFileAtomic(filepath.Join(e.index.Dir(), name), data, 0o644); err != nil {
		return "", fmt.Errorf("write %s: %w", name, err)
	}
	if err := e.index.Record(name); err != nil {
		return "", fmt.Errorf("record %s: %w", name, err)
	}
	return name, nil
}

// Marshal renders a problem as indented UTF-8 JSON with a trailing
// newline. Japanese text is written as-is.
func Marshal(p Problem) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(p); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Load reads one artifact back.
func Load(path string) (Problem, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Problem{}, err
	}
	var p Problem
	if err := json.Unmarshal(data, &p); err != nil {
		return Problem{}, fmt.Errorf("parse %s: %w", path, err)
	}
	return p, nil
}
