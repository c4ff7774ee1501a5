package scope

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValid(t *testing.T) {
	assert.True(t, Project.Valid())
	assert.True(t, User.Valid())
	assert.False(t, Scope("global").Valid())
	assert.False(t, Scope("").Valid())
}

func TestNamespacePrefix(t *testing.T) {
	assert.Equal(t, "project", Project.NamespacePrefix())
	assert.Equal(t, "home", User.NamespacePrefix())
}

func TestParse(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		want    Scope
		wantErr bool
	}{
		{"empty defaults to project", "", Project, false},
		{"project", "project", Project, false},
		{"user", "user", User, false},
		{"unrecognized", "global", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Parse(tt.raw)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
