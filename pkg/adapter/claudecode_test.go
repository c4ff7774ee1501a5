package adapter

import (
	"testing"

	"github.com/calvin-dev/calvin/pkg/asset"
	"github.com/calvin-dev/calvin/pkg/scope"
	"github.com/calvin-dev/calvin/pkg/security"
	"github.com/calvin-dev/calvin/pkg/target"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClaudeCodeCompileAgent(t *testing.T) {
	c := NewClaudeCode()
	a := &asset.Asset{
		ID: "reviewer", Kind: asset.Agent, Scope: scope.Project,
		Description: "Reviews code", Content: "Review the diff.",
		Provenance: asset.Provenance{SourcePath: "reviewer.md"},
	}

	outputs, err := c.Compile(a)
	require.NoError(t, err)
	require.Len(t, outputs, 1)
	assert.Equal(t, ".claude/commands/reviewer.md", outputs[0].Path())
	assert.Contains(t, outputs[0].Content(), "Reviews code")
	assert.Contains(t, outputs[0].Content(), "Generated by Calvin. Source: reviewer.md. DO NOT EDIT.")
}

func TestClaudeCodeCompileUserScope(t *testing.T) {
	c := NewClaudeCode()
	a := &asset.Asset{ID: "reviewer", Kind: asset.Agent, Scope: scope.User, Description: "d", Content: "c"}

	outputs, err := c.Compile(a)
	require.NoError(t, err)
	require.Len(t, outputs, 1)
	assert.Equal(t, "~/.claude/commands/reviewer.md", outputs[0].Path())
	assert.True(t, outputs[0].IsHomeScoped())
}

func TestClaudeCodeCompileSkill(t *testing.T) {
	c := NewClaudeCode()
	a := &asset.Asset{
		ID: "doc-writer", Kind: asset.Skill, Scope: scope.Project,
		Description: "Writes docs", Content: "Follow house style.",
		Supplementals: map[string]string{"reference.md": "# Reference"},
	}

	outputs, err := c.Compile(a)
	require.NoError(t, err)
	require.Len(t, outputs, 2)

	paths := []string{outputs[0].Path(), outputs[1].Path()}
	assert.Contains(t, paths, ".claude/skills/doc-writer/SKILL.md")
	assert.Contains(t, paths, ".claude/skills/doc-writer/reference.md")
}

func TestClaudeCodeSecurityBaseline(t *testing.T) {
	c := NewClaudeCode()
	assert.Empty(t, c.SecurityBaseline(security.NewPolicy(security.Yolo)))

	outputs := c.SecurityBaseline(security.NewPolicy(security.Balanced))
	require.Len(t, outputs, 1)
	assert.Equal(t, ".claude/settings.json", outputs[0].Path())
	assert.Contains(t, outputs[0].Content(), ".env")
}

func TestClaudeCodeTarget(t *testing.T) {
	assert.Equal(t, target.ClaudeCode, NewClaudeCode().Target())
}
