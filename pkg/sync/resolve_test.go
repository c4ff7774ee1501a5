package sync

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func conflictPlan() *Plan {
	return &Plan{Items: []*PlanItem{
		{LockfileKey: "a.md", Classification: ConflictModified},
		{LockfileKey: "b.md", Classification: ConflictUntracked},
		{LockfileKey: "c.md", Classification: Unchanged},
	}}
}

func ctxFor(item *PlanItem) (ConflictContext, error) {
	return ConflictContext{Path: item.LockfileKey}, nil
}

func TestResolveSkipsNonConflicts(t *testing.T) {
	plan := conflictPlan()
	resolutions, err := Resolve(plan, ForceResolver{}, ctxFor)
	require.NoError(t, err)
	assert.Len(t, resolutions, 2)
}

func TestForceResolverAlwaysOverwrites(t *testing.T) {
	plan := conflictPlan()
	resolutions, err := Resolve(plan, ForceResolver{}, ctxFor)
	require.NoError(t, err)
	for _, r := range resolutions {
		assert.Equal(t, Overwrite, r.Action)
	}
}

func TestAutoSkipResolverAlwaysSkips(t *testing.T) {
	plan := conflictPlan()
	resolutions, err := Resolve(plan, AutoSkipResolver{}, ctxFor)
	require.NoError(t, err)
	for _, r := range resolutions {
		assert.Equal(t, Skip, r.Action)
	}
}

type scriptedPrompt struct {
	answers []string
	i       int
	diffs   int
}

func (p *scriptedPrompt) Ask(ConflictContext) (string, error) {
	a := p.answers[p.i]
	p.i++
	return a, nil
}

func (p *scriptedPrompt) ShowDiff(ConflictContext) error {
	p.diffs++
	return nil
}

func TestInteractiveResolverPerItemChoice(t *testing.T) {
	prompt := &scriptedPrompt{answers: []string{"o", "s"}}
	resolver := NewInteractiveResolver(prompt)

	plan := conflictPlan()
	resolutions, err := Resolve(plan, resolver, ctxFor)
	require.NoError(t, err)
	require.Len(t, resolutions, 2)
	assert.Equal(t, Overwrite, resolutions[0].Action)
	assert.Equal(t, Skip, resolutions[1].Action)
}

func TestInteractiveResolverOverwriteAllSticks(t *testing.T) {
	prompt := &scriptedPrompt{answers: []string{"a"}}
	resolver := NewInteractiveResolver(prompt)

	plan := conflictPlan()
	resolutions, err := Resolve(plan, resolver, ctxFor)
	require.NoError(t, err)
	require.Len(t, resolutions, 2)
	assert.Equal(t, Overwrite, resolutions[0].Action)
	assert.Equal(t, Overwrite, resolutions[1].Action)
	assert.Equal(t, 1, prompt.i, "second conflict must not re-prompt once applyAll is set")
}

func TestInteractiveResolverDiffThenDecide(t *testing.T) {
	prompt := &scriptedPrompt{answers: []string{"d", "o", "s"}}
	resolver := NewInteractiveResolver(prompt)

	plan := conflictPlan()
	resolutions, err := Resolve(plan, resolver, ctxFor)
	require.NoError(t, err)
	require.Len(t, resolutions, 2)
	assert.Equal(t, 1, prompt.diffs)
	assert.Equal(t, Overwrite, resolutions[0].Action)
	assert.Equal(t, Skip, resolutions[1].Action)
}

func TestInteractiveResolverAbortStopsWalk(t *testing.T) {
	prompt := &scriptedPrompt{answers: []string{"x"}}
	resolver := NewInteractiveResolver(prompt)

	plan := conflictPlan()
	_, err := Resolve(plan, resolver, ctxFor)
	assert.ErrorIs(t, err, ErrAborted)
}
