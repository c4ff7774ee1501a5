// Package target defines the Target value object: the closed set of AI
// coding assistants Calvin compiles for, plus the meta-value All that
// every public API treats as equivalent to "every concrete target" (spec
// §4.1).
package target

import "fmt"

// Target is a closed, six-member string enum naming one platform adapter,
// plus the meta-value All which expands to every concrete member.
type Target string

const (
	ClaudeCode  Target = "claude-code"
	Cursor      Target = "cursor"
	VSCode      Target = "vscode"
	Antigravity Target = "antigravity"
	Codex       Target = "codex"
	OpenCode    Target = "opencode"
	All         Target = "all"
)

// Concrete lists every non-meta target, in the fixed order the spec's path
// matrix (§6) and output sort rely on.
var Concrete = []Target{ClaudeCode, Cursor, VSCode, Antigravity, Codex, OpenCode}

// skillCapable is the subset of concrete targets whose adapters support
// Skill assets (spec §4.7 step 4, §6 path matrix rows for Skill).
var skillCapable = map[Target]bool{
	ClaudeCode: true,
	Cursor:     true,
	Codex:      true,
	OpenCode:   true,
}

// Valid reports whether t is a recognized concrete target or All.
func (t Target) Valid() bool {
	if t == All {
		return true
	}
	for _, c := range Concrete {
		if t == c {
			return true
		}
	}
	return false
}

// SupportsSkills reports whether this target's adapter compiles Skill
// assets (spec §4.7 step 4).
func (t Target) SupportsSkills() bool {
	return skillCapable[t]
}

// DirName returns the platform-specific root directory this target's
// adapter writes under, for diagnostics and registry display.
func (t Target) DirName() string {
	switch t {
	case ClaudeCode:
		return ".claude"
	case Cursor:
		return ".cursor"
	case VSCode:
		return ".github"
	case Antigravity:
		return ".agent"
	case Codex:
		return ".codex"
	case OpenCode:
		return ".opencode"
	default:
		return string(t)
	}
}

// DisplayName returns the human-readable platform name used in warnings
// and CLI output.
func (t Target) DisplayName() string {
	switch t {
	case ClaudeCode:
		return "Claude Code"
	case Cursor:
		return "Cursor"
	case VSCode:
		return "VS Code"
	case Antigravity:
		return "Antigravity"
	case Codex:
		return "Codex"
	case OpenCode:
		return "OpenCode"
	case All:
		return "All"
	default:
		return string(t)
	}
}

func (t Target) String() string {
	return string(t)
}

// Expand treats an empty list or a list containing All as "every concrete
// target", otherwise returns targets unchanged (spec §4.1).
func Expand(targets []Target) []Target {
	if len(targets) == 0 {
		return Concrete
	}
	for _, t := range targets {
		if t == All {
			return Concrete
		}
	}
	return targets
}

// Contains reports whether t appears in targets.
func Contains(targets []Target, t Target) bool {
	for _, x := range targets {
		if x == t {
			return true
		}
	}
	return false
}

// ParseList validates a list of raw frontmatter/CLI tokens into Targets,
// failing on the first unrecognized value.
func ParseList(raw []string) ([]Target, error) {
	out := make([]Target, 0, len(raw))
	for _, r := range raw {
		t := Target(r)
		if !t.Valid() {
			return nil, fmt.Errorf("unrecognized target %q", r)
		}
		out = append(out, t)
	}
	return out, nil
}
