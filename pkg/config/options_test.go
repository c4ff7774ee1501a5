package config

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/calvin-dev/calvin/pkg/scope"
)

func TestNewDeployOptionsDefaults(t *testing.T) {
	opts := NewDeployOptions("promptpack")
	assert.Equal(t, ".", opts.ProjectRoot)
	assert.True(t, opts.UseProjectLayer)
	assert.True(t, opts.UseUserLayer)
	assert.True(t, opts.UseAdditionalLayers)
	assert.Equal(t, scope.Project, opts.Scope)
}

func TestNewDeployOptionsAbsoluteSourceDerivesProjectRoot(t *testing.T) {
	source := filepath.Join(string(filepath.Separator), "repo", ".promptpack")
	opts := NewDeployOptions(source)
	assert.Equal(t, filepath.Join(string(filepath.Separator), "repo"), opts.ProjectRoot)
}

func TestNewDeployOutputOptionsDefaults(t *testing.T) {
	opts := NewDeployOutputOptions("calvin.lock")
	assert.Equal(t, "calvin.lock", opts.LockfilePath)
	assert.Equal(t, scope.Project, opts.Scope)
	assert.False(t, opts.DryRun)
	assert.False(t, opts.CleanOrphans)
}
