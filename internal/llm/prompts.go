package llm

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/Astrocyte74/jeopardy-sub000/internal/action"
)

//go:embed prompts.yaml
var promptsYAML []byte

type promptSpec struct {
	Instructions string `yaml:"instructions"`
	Shape        string `yaml:"shape"`
}

// Catalogue holds the system prompt and per-action instructions.
type Catalogue struct {
	System     string                  `yaml:"system"`
	Difficulty map[Difficulty]string   `yaml:"difficulty"`
	Prompts    map[action.ID]promptSpec `yaml:"prompts"`
}

// LoadCatalogue parses the embedded prompt file and checks that every
// action has an entry.
func LoadCatalogue() (*Catalogue, error) {
	return parseCatalogue(promptsYAML)
}

func parseCatalogue(data []byte) (*Catalogue, error) {
	var c Catalogue
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("parsing prompts: %w", err)
	}
	for _, id := range action.All {
		if _, ok := c.Prompts[id]; !ok {
			return nil, fmt.Errorf("no prompt for action %q", id)
		}
	}
	return &c, nil
}

// Build returns the system and user messages for one request.
func (c *Catalogue) Build(id action.ID, input map[string]any, d Difficulty) (system, user string, err error) {
	p, ok := c.Prompts[id]
	if !ok {
		return "", "", fmt.Errorf("%w: %s", ErrUnknownAction, id)
	}
	ctxJSON, err := json.MarshalIndent(input, "", "  ")
	if err != nil {
		return "", "", fmt.Errorf("encoding context: %w", err)
	}

	var b strings.Builder
	b.WriteString(p.Instructions)
	b.WriteString("\n")
	if guide := c.Difficulty[d]; guide != "" {
		b.WriteString(guide)
		b.WriteString("\n")
	}
	b.WriteString("\nContext:\n")
	b.Write(ctxJSON)
	b.WriteString("\n\nRespond with JSON shaped exactly like:\n")
	b.WriteString(p.Shape)
	return c.System, b.String(), nil
}
