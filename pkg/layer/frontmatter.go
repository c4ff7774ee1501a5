package layer

import (
	"fmt"
	"strings"

	"github.com/goccy/go-yaml"
)

// frontmatter is the recognized set of YAML keys at the top of an asset
// markdown file (spec §6 "Asset frontmatter"). Keys outside this set are
// dropped by the decode (goccy/go-yaml ignores unknown destination fields)
// and produce neither an error nor a warning.
type frontmatter struct {
	Description  string      `yaml:"description"`
	Kind         string      `yaml:"kind"`
	Scope        string      `yaml:"scope"`
	Targets      interface{} `yaml:"targets"`
	Apply        string      `yaml:"apply"`
	AllowedTools []string    `yaml:"allowed-tools"`
	Name         string      `yaml:"name"`
}

// splitFrontmatter separates a `---`-delimited YAML block from the
// remaining Markdown body. Delegates only the YAML decoding itself to a
// library (per spec §1); the delimiter search is plain string scanning,
// the same shape as the teacher's own frontmatter-extraction helper.
func splitFrontmatter(raw string) (yamlBlock, body string, err error) {
	raw = strings.TrimPrefix(raw, "﻿")
	if !strings.HasPrefix(raw, "---") {
		return "", "", fmt.Errorf("must start with YAML frontmatter delimited by '---'")
	}
	rest := raw[3:]
	rest = strings.TrimPrefix(rest, "\n")
	end := strings.Index(rest, "\n---")
	if end < 0 {
		return "", "", fmt.Errorf("unterminated frontmatter block (missing closing '---')")
	}
	yamlBlock = rest[:end]
	after := rest[end+4:]
	after = strings.TrimPrefix(after, "\n")
	return yamlBlock, after, nil
}

func parseFrontmatter(raw string) (frontmatter, string, error) {
	block, body, err := splitFrontmatter(raw)
	if err != nil {
		return frontmatter{}, "", err
	}
	var fm frontmatter
	if err := yaml.Unmarshal([]byte(block), &fm); err != nil {
		return frontmatter{}, "", fmt.Errorf("invalid frontmatter: %w", err)
	}
	return fm, body, nil
}

// targetStrings normalizes the frontmatter `targets` field, which accepts
// either a single string or a list of strings (spec §6).
func targetStrings(raw interface{}) ([]string, error) {
	switch v := raw.(type) {
	case nil:
		return nil, nil
	case string:
		return []string{v}, nil
	case []interface{}:
		out := make([]string, 0, len(v))
		for _, item := range v {
			s, ok := item.(string)
			if !ok {
				return nil, fmt.Errorf("targets entries must be strings, got %T", item)
			}
			out = append(out, s)
		}
		return out, nil
	case []string:
		return v, nil
	default:
		return nil, fmt.Errorf("targets must be a string or list of strings, got %T", raw)
	}
}
