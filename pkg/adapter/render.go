package adapter

import (
	"fmt"
	"strings"

	"github.com/calvin-dev/calvin/pkg/asset"
	"github.com/calvin-dev/calvin/pkg/scope"
	"github.com/goccy/go-yaml"
)

// renderDoc is the shared body shape for Policy/Action/Agent outputs: an
// optional description line, the trimmed asset content, then the adapter's
// footer (spec §4.4 step 3 describes this exact shape for the Cursor
// fallback output; every other adapter follows the same convention).
func renderDoc(a *asset.Asset, footer string) string {
	var b strings.Builder
	if a.Description != "" {
		b.WriteString(a.Description)
		b.WriteString("\n\n")
	}
	b.WriteString(strings.TrimSpace(a.Content))
	b.WriteString("\n\n")
	b.WriteString(footer)
	b.WriteString("\n")
	return b.String()
}

// renderCommand is renderDoc, but with $ARGUMENTS appended as a trailing
// placeholder line when withArguments is set (Codex's Action/Agent vs.
// Policy distinction, spec §6 path matrix).
func renderCommand(a *asset.Asset, footer string, withArguments bool) string {
	if !withArguments {
		return renderDoc(a, footer)
	}
	var b strings.Builder
	if a.Description != "" {
		b.WriteString(a.Description)
		b.WriteString("\n\n")
	}
	b.WriteString(strings.TrimSpace(a.Content))
	b.WriteString("\n\n$ARGUMENTS\n\n")
	b.WriteString(footer)
	b.WriteString("\n")
	return b.String()
}

type skillFrontmatter struct {
	Name         string   `yaml:"name"`
	Description  string   `yaml:"description"`
	AllowedTools []string `yaml:"allowed-tools,omitempty"`
}

// renderSkillManifest renders SKILL.md: YAML frontmatter, trimmed body,
// blank line, footer (spec §4.3 "Skill compilation").
func renderSkillManifest(a *asset.Asset, footer string) (string, error) {
	fm := skillFrontmatter{Name: a.ID, Description: a.Description, AllowedTools: a.AllowedTools}
	data, err := yaml.Marshal(&fm)
	if err != nil {
		return "", fmt.Errorf("rendering skill manifest for %q: %w", a.ID, err)
	}

	var b strings.Builder
	b.WriteString("---\n")
	b.Write(data)
	b.WriteString("---\n\n")
	b.WriteString(strings.TrimSpace(a.Content))
	b.WriteString("\n\n")
	b.WriteString(footer)
	b.WriteString("\n")
	return b.String(), nil
}

// basePath returns projectPath under the project root, or userPath under
// the home directory (prefixed "~/"), depending on the asset's scope.
func basePath(a *asset.Asset, projectPath, userPath string) string {
	if a.Scope == scope.User {
		return "~/" + userPath
	}
	return projectPath
}
