package asset

import (
	"testing"

	"github.com/calvin-dev/calvin/pkg/scope"
	"github.com/calvin-dev/calvin/pkg/target"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEffectiveTargets(t *testing.T) {
	a := &Asset{ID: "reviewer", Kind: Agent, Scope: scope.Project}
	assert.Equal(t, target.Concrete, a.EffectiveTargets())

	a.Targets = []target.Target{target.ClaudeCode}
	assert.Equal(t, []target.Target{target.ClaudeCode}, a.EffectiveTargets())
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		asset   Asset
		wantErr bool
	}{
		{
			name:  "valid agent",
			asset: Asset{ID: "reviewer", Kind: Agent, Scope: scope.Project},
		},
		{
			name:    "empty id",
			asset:   Asset{Kind: Agent, Scope: scope.Project},
			wantErr: true,
		},
		{
			name:    "invalid kind",
			asset:   Asset{ID: "x", Kind: Kind("macro"), Scope: scope.Project},
			wantErr: true,
		},
		{
			name:    "invalid scope",
			asset:   Asset{ID: "x", Kind: Agent, Scope: scope.Scope("global")},
			wantErr: true,
		},
		{
			name: "supplementals on non-skill",
			asset: Asset{
				ID: "x", Kind: Agent, Scope: scope.Project,
				Supplementals: map[string]string{"notes.md": "hi"},
			},
			wantErr: true,
		},
		{
			name: "valid skill with supplemental",
			asset: Asset{
				ID: "doc-writer", Kind: Skill, Scope: scope.Project,
				Supplementals: map[string]string{"reference.md": "hi"},
			},
		},
		{
			name: "skill supplemental escapes directory",
			asset: Asset{
				ID: "doc-writer", Kind: Skill, Scope: scope.Project,
				Supplementals: map[string]string{"../secrets.md": "hi"},
			},
			wantErr: true,
		},
		{
			name: "skill supplemental shadows manifest",
			asset: Asset{
				ID: "doc-writer", Kind: Skill, Scope: scope.Project,
				Supplementals: map[string]string{"SKILL.md": "hi"},
			},
			wantErr: true,
		},
		{
			name: "skill supplemental absolute path",
			asset: Asset{
				ID: "doc-writer", Kind: Skill, Scope: scope.Project,
				Supplementals: map[string]string{"/etc/passwd": "hi"},
			},
			wantErr: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.asset.Validate()
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
		})
	}
}

func TestIsBinaryContent(t *testing.T) {
	assert.False(t, IsBinaryContent([]byte("plain text")))
	assert.True(t, IsBinaryContent([]byte{0x50, 0x00, 0x44}))
}

func TestSourcePathNormalized(t *testing.T) {
	a := &Asset{Provenance: Provenance{SourcePath: `agents\reviewer.md`}}
	assert.Equal(t, "agents/reviewer.md", a.SourcePathNormalized())
}
