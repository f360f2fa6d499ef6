// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package ai

import (
	"bytes"
	_ "embed"
	"fmt"
	"strings"
	"text/template"

	"go.yaml.in/yaml/v3"
)

//go:embed prompts.yaml
var promptsYAML []byte

// catalog mirrors prompts.yaml.
type catalog struct {
	Figures     string                `yaml:"figures"`
	Summaries   map[string]string     `yaml:"summaries"`
	Extractions map[string]extraction `yaml:"extractions"`
	Compare     struct {
		Template string                  `yaml:"template"`
		Focus    map[string]compareFocus `yaml:"focus"`
	} `yaml:"compare"`
	Keywords string `yaml:"keywords"`
}

type extraction struct {
	Prompt string         `yaml:"prompt"`
	Schema map[string]any `yaml:"schema"`
}

type compareFocus struct {
	Intro  string   `yaml:"intro"`
	Points []string `yaml:"points"`
}

var (
	prompts      = mustLoadCatalog(promptsYAML)
	funcs        = template.FuncMap{"add": func(a, b int) int { return a + b }}
	figuresTmpl  = template.Must(template.New("figures").Parse(prompts.Figures))
	compareTmpl  = template.Must(template.New("compare").Funcs(funcs).Parse(prompts.Compare.Template))
	keywordsTmpl = template.Must(template.New("keywords").Parse(prompts.Keywords))
)

func mustLoadCatalog(data []byte) catalog {
	var c catalog
	if err := yaml.Unmarshal(data, &c); err != nil {
		panic(fmt.Sprintf("parsing prompt catalog: %v", err))
	}
	for _, s := range SummaryStyles {
		if c.Summaries[string(s)] == "" {
			panic(fmt.Sprintf("prompt catalog: missing summary style %q", s))
		}
	}
	for _, k := range ExtractKinds {
		if c.Extractions[string(k)].Schema == nil {
			panic(fmt.Sprintf("prompt catalog: missing extraction schema %q", k))
		}
	}
	for _, k := range CompareKinds {
		if len(c.Compare.Focus[string(k)].Points) == 0 {
			panic(fmt.Sprintf("prompt catalog: missing compare focus %q", k))
		}
	}
	return c
}

func render(t *template.Template, data any) (string, error) {
	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("rendering %s prompt: %w", t.Name(), err)
	}
	return strings.TrimSpace(buf.String()), nil
}
