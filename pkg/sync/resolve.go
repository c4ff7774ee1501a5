package sync

import "fmt"

// ConflictChoice is the decision a ConflictResolver returns for one
// conflicting item (spec §4.5 "Stage 2 – Resolve", grounded on
// original_source's infrastructure/conflict/interactive.rs ConflictChoice).
type ConflictChoice int

const (
	Overwrite ConflictChoice = iota
	Skip
	Diff
	OverwriteAll
	SkipAll
	Abort
)

// ConflictReason explains why an item was classified as a conflict, for
// display to the resolver.
type ConflictReason int

const (
	ReasonModifiedSinceSync ConflictReason = iota
	ReasonUntrackedExisting
)

// ConflictContext is everything a ConflictResolver needs to decide on one
// item: its path, the two candidate contents, and why it conflicts.
type ConflictContext struct {
	Path          string
	ExistingHash  string
	IncomingHash  string
	ExistingText  string
	IncomingText  string
	Reason        ConflictReason
}

// ConflictResolver is the port the sync engine calls for every
// Conflict-* item (spec §4.5 "Stage 2"). Implementations: interactive
// (terminal prompt), force (always Overwrite), auto (always Skip).
type ConflictResolver interface {
	Resolve(ctx ConflictContext) (ConflictChoice, error)
	ShowDiff(ctx ConflictContext) error
}

// ForceResolver always overwrites; used by --force (spec §4.5 "force
// mode").
type ForceResolver struct{}

func (ForceResolver) Resolve(ConflictContext) (ConflictChoice, error) { return Overwrite, nil }
func (ForceResolver) ShowDiff(ConflictContext) error                  { return nil }

// AutoSkipResolver always skips; used by non-interactive runs without
// --force (spec §4.5 "auto mode: non-interactive sessions default to
// skipping conflicts rather than guessing").
type AutoSkipResolver struct{}

func (AutoSkipResolver) Resolve(ConflictContext) (ConflictChoice, error) { return Skip, nil }
func (AutoSkipResolver) ShowDiff(ConflictContext) error                  { return nil }

// Prompt is the minimal terminal interaction an InteractiveResolver needs,
// satisfied in production by a thin stdin/stdout wrapper and in tests by a
// scripted fake.
type Prompt interface {
	// Ask presents the conflict and returns the raw single-character
	// choice the user typed: "o", "s", "d", "a" (overwrite all), "k"
	// (skip all), "x" (abort).
	Ask(ctx ConflictContext) (string, error)
	ShowDiff(ctx ConflictContext) error
}

// InteractiveResolver prompts once per conflict, remembering an
// OverwriteAll/SkipAll decision across the rest of the run (spec §4.5
// "Stage 2", grounded on infrastructure/conflict/interactive.rs's
// apply_all state).
type InteractiveResolver struct {
	prompt   Prompt
	applyAll *ConflictChoice
}

// NewInteractiveResolver wraps prompt in a resolver that remembers
// OverwriteAll/SkipAll for the remainder of the sync run.
func NewInteractiveResolver(prompt Prompt) *InteractiveResolver {
	return &InteractiveResolver{prompt: prompt}
}

func (r *InteractiveResolver) Resolve(ctx ConflictContext) (ConflictChoice, error) {
	if r.applyAll != nil {
		return *r.applyAll, nil
	}

	for {
		raw, err := r.prompt.Ask(ctx)
		if err != nil {
			return Abort, err
		}
		switch raw {
		case "o":
			return Overwrite, nil
		case "s":
			return Skip, nil
		case "d":
			if err := r.prompt.ShowDiff(ctx); err != nil {
				return Abort, err
			}
			continue
		case "a":
			choice := OverwriteAll
			r.applyAll = &choice
			return OverwriteAll, nil
		case "k":
			choice := SkipAll
			r.applyAll = &choice
			return SkipAll, nil
		case "x":
			return Abort, nil
		default:
			continue
		}
	}
}

func (r *InteractiveResolver) ShowDiff(ctx ConflictContext) error {
	return r.prompt.ShowDiff(ctx)
}

// Resolution is one item's final disposition after Stage 2.
type Resolution struct {
	Item   *PlanItem
	Action ConflictChoice // Overwrite or Skip (OverwriteAll/SkipAll collapse to these)
}

// ErrAborted is returned by Resolve when the resolver chooses Abort.
var ErrAborted = fmt.Errorf("sync aborted by conflict resolver")

// Resolve walks every conflicting item in plan through resolver, in
// deterministic path order, and returns one Resolution per conflict. A
// resolver choosing Abort stops the walk immediately and returns
// ErrAborted; items already resolved before the abort are not returned.
func Resolve(plan *Plan, resolver ConflictResolver, contextFor func(*PlanItem) (ConflictContext, error)) ([]Resolution, error) {
	var out []Resolution
	for _, item := range plan.Items {
		if !item.Classification.IsConflict() {
			continue
		}
		ctx, err := contextFor(item)
		if err != nil {
			return nil, err
		}
		choice, err := resolver.Resolve(ctx)
		if err != nil {
			return nil, err
		}
		switch choice {
		case Overwrite, OverwriteAll:
			out = append(out, Resolution{Item: item, Action: Overwrite})
		case Skip, SkipAll:
			out = append(out, Resolution{Item: item, Action: Skip})
		case Abort:
			return nil, ErrAborted
		}
	}
	return out, nil
}
