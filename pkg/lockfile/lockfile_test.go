package lockfile

import (
	"testing"

	"github.com/calvin-dev/calvin/pkg/scope"
	"github.com/stretchr/testify/assert"
)

func TestMakeKey(t *testing.T) {
	tests := []struct {
		name  string
		scope scope.Scope
		path  string
		want  string
	}{
		{"project scope plain path", scope.Project, "agents/reviewer.md", "project:agents/reviewer.md"},
		{"user scope plain path", scope.User, ".claude/CLAUDE.md", "home:~/.claude/CLAUDE.md"},
		{"tilde path always home regardless of scope", scope.Project, "~/.claude/CLAUDE.md", "home:~/.claude/CLAUDE.md"},
		{"bare tilde", scope.User, "~", "home:~"},
		{"backslashes normalized first", scope.Project, `agents\reviewer.md`, "project:agents/reviewer.md"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, MakeKey(tt.scope, tt.path))
		})
	}
}

func TestMakeKeyIdempotentUnderNormalization(t *testing.T) {
	raw := `agents\reviewer.md`
	normalized := "agents/reviewer.md"
	assert.Equal(t, MakeKey(scope.Project, normalized), MakeKey(scope.Project, raw))
}

func TestParseKey(t *testing.T) {
	tests := []struct {
		name     string
		key      string
		wantScope scope.Scope
		wantPath string
		wantOK   bool
	}{
		{"project key", "project:agents/reviewer.md", scope.Project, "agents/reviewer.md", true},
		{"home key", "home:~/.claude/CLAUDE.md", scope.User, "~/.claude/CLAUDE.md", true},
		{"unrecognized prefix", "scope:foo", "", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, path, ok := ParseKey(tt.key)
			assert.Equal(t, tt.wantOK, ok)
			if !ok {
				return
			}
			assert.Equal(t, tt.wantScope, s)
			assert.Equal(t, tt.wantPath, path)
		})
	}
}

func TestLockfileCRUD(t *testing.T) {
	lf := New()
	assert.True(t, lf.IsEmpty())

	key := MakeKey(scope.Project, "agents/reviewer.md")
	lf.Set(key, Entry{Hash: "sha256:abc", SourceAsset: "reviewer"})

	assert.False(t, lf.IsEmpty())
	assert.Equal(t, 1, lf.Len())
	assert.True(t, lf.Contains(key))

	e, ok := lf.Get(key)
	assert.True(t, ok)
	assert.Equal(t, "sha256:abc", e.Hash)

	lf.Remove(key)
	assert.False(t, lf.Contains(key))
}

func TestKeysForScope(t *testing.T) {
	lf := New()
	lf.Set(MakeKey(scope.Project, "a.md"), Entry{Hash: "sha256:a"})
	lf.Set(MakeKey(scope.User, "b.md"), Entry{Hash: "sha256:b"})

	projectKeys := lf.KeysForScope(scope.Project)
	assert.Len(t, projectKeys, 1)
	assert.Equal(t, "project:a.md", projectKeys[0])

	userKeys := lf.KeysForScope(scope.User)
	assert.Len(t, userKeys, 1)
	assert.Equal(t, "home:~/b.md", userKeys[0])
}

func TestKeysAreSorted(t *testing.T) {
	lf := New()
	lf.Set("project:z.md", Entry{Hash: "sha256:z"})
	lf.Set("project:a.md", Entry{Hash: "sha256:a"})
	assert.Equal(t, []string{"project:a.md", "project:z.md"}, lf.Keys())
}
