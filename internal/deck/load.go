package deck

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v6"
	"gopkg.in/yaml.v3"
)

// Schema is the JSON Schema every deck document must satisfy.
var Schema = map[string]any{
	"type":     "object",
	"required": []any{"cards"},
	"properties": map[string]any{
		"title": map[string]any{"type": "string"},
		"cards": map[string]any{
			"type": "array",
			"items": map[string]any{
				"type":     "object",
				"required": []any{"question", "answer"},
				"properties": map[string]any{
					"id":       map[string]any{"type": "string"},
					"question": map[string]any{"type": "string", "minLength": 1},
					"answer":   map[string]any{"type": "string", "minLength": 1},
					"distractors": map[string]any{
						"type":  "array",
						"items": map[string]any{"type": "string"},
					},
				},
			},
		},
	},
}

var (
	compileOnce sync.Once
	compiled    *jsonschema.Schema
	compileErr  error
)

func deckSchema() (*jsonschema.Schema, error) {
	compileOnce.Do(func() {
		c := jsonschema.NewCompiler()
		const url = "schema://deck.json"
		def, err := jsonValue(Schema)
		if err != nil {
			compileErr = err
			return
		}
		if err := c.AddResource(url, def); err != nil {
			compileErr = fmt.Errorf("add resource: %w", err)
			return
		}
		compiled, compileErr = c.Compile(url)
	})
	return compiled, compileErr
}

// Load reads a deck from a .yaml, .yml or .json file.
func Load(path string) (*Deck, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read deck: %w", err)
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return ParseJSON(data)
	case ".yaml", ".yml":
		return ParseYAML(data)
	default:
		return nil, fmt.Errorf("unsupported deck format %q", filepath.Ext(path))
	}
}

// ParseYAML decodes and validates a YAML deck document. Unquoted numbers
// and booleans count as text, so `answer: 1789` is the answer "1789".
func ParseYAML(data []byte) (*Deck, error) {
	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, fmt.Errorf("parse yaml deck: %w", err)
	}
	if err := validate(yamlText(&root)); err != nil {
		return nil, err
	}
	var d Deck
	if err := root.Decode(&d); err != nil {
		return nil, fmt.Errorf("decode yaml deck: %w", err)
	}
	if err := d.normalize(); err != nil {
		return nil, err
	}
	return &d, nil
}

// yamlText turns a YAML tree into the generic form the validator takes,
// keeping every non-null scalar as its source text. Every leaf of a deck
// is text, and decoding into the string fields of Card keeps the same
// source text.
func yamlText(n *yaml.Node) any {
	switch n.Kind {
	case yaml.DocumentNode:
		if len(n.Content) == 0 {
			return nil
		}
		return yamlText(n.Content[0])
	case yaml.AliasNode:
		return yamlText(n.Alias)
	case yaml.SequenceNode:
		out := make([]any, len(n.Content))
		for i, c := range n.Content {
			out[i] = yamlText(c)
		}
		return out
	case yaml.MappingNode:
		out := make(map[string]any, len(n.Content)/2)
		for i := 0; i+1 < len(n.Content); i += 2 {
			out[n.Content[i].Value] = yamlText(n.Content[i+1])
		}
		return out
	case yaml.ScalarNode:
		if n.ShortTag() == "!!null" {
			return nil
		}
		return n.Value
	}
	return nil
}

// ParseJSON decodes and validates a JSON deck document.
func ParseJSON(data []byte) (*Deck, error) {
	doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("parse json deck: %w", err)
	}
	if err := validate(doc); err != nil {
		return nil, err
	}
	var d Deck
	if err := json.Unmarshal(data, &d); err != nil {
		return nil, fmt.Errorf("decode json deck: %w", err)
	}
	if err := d.normalize(); err != nil {
		return nil, err
	}
	return &d, nil
}

func validate(doc any) error {
	s, err := deckSchema()
	if err != nil {
		return fmt.Errorf("compile deck schema: %w", err)
	}
	if err := s.Validate(doc); err != nil {
		return fmt.Errorf("invalid deck: %w", err)
	}
	return nil
}

// jsonValue converts v into the generic form the schema validator expects.
func jsonValue(v any) (any, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("marshal document: %w", err)
	}
	return jsonschema.UnmarshalJSON(bytes.NewReader(b))
}
