// Package security defines the SecurityMode value object and the
// SecurityPolicy domain policy that adapters consult when generating
// platform-level security baselines (spec §4.3 security_baseline).
package security

import (
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// Mode controls how strict generated security baselines are.
type Mode string

const (
	Yolo     Mode = "yolo"
	Balanced Mode = "balanced"
	Strict   Mode = "strict"
)

// mcpAllowlist are command substrings considered safe to launch as an MCP
// server without further confirmation in non-yolo modes.
var mcpAllowlist = []string{
	"npx",
	"uvx",
	"node",
	"@anthropic/",
	"@modelcontextprotocol/",
	"mcp-server-",
}

// Policy evaluates security rules for a given Mode. It is a pure value type:
// no I/O, so it can be constructed freely by adapters and the compiler.
type Policy struct {
	mode Mode
}

// NewPolicy returns a Policy for the given mode, defaulting to Balanced when
// mode is empty.
func NewPolicy(mode Mode) Policy {
	if mode == "" {
		mode = Balanced
	}
	return Policy{mode: mode}
}

// ParseMode parses a config.toml "security.mode" string into a Mode,
// case-insensitively. ok is false for anything but yolo/balanced/strict.
func ParseMode(raw string) (mode Mode, ok bool) {
	switch Mode(strings.ToLower(strings.TrimSpace(raw))) {
	case Yolo:
		return Yolo, true
	case Balanced:
		return Balanced, true
	case Strict:
		return Strict, true
	default:
		return "", false
	}
}

func (p Policy) Mode() Mode { return p.mode }

func (p Policy) IsStrict() bool { return p.mode == Strict }

func (p Policy) IsYolo() bool { return p.mode == Yolo }

// WarningsAsErrors reports whether adapter Warning diagnostics should be
// treated as fatal by the caller (strict mode only).
func (p Policy) WarningsAsErrors() bool { return p.IsStrict() }

// RequiredDenyPatterns returns the glob patterns that a platform's security
// baseline output must deny file access to, scaled by mode.
func (p Policy) RequiredDenyPatterns() []string {
	switch p.mode {
	case Yolo:
		return nil
	case Strict:
		return []string{
			"**/.env", "**/.env.*", "**/secrets.*",
			"**/*.key", "**/*.pem", "**/id_rsa*", "**/credentials*",
		}
	default:
		return []string{"**/.env", "**/.env.*", "**/secrets.*"}
	}
}

// IsMCPAllowed reports whether an MCP server launch command is permitted
// under this policy.
func (p Policy) IsMCPAllowed(command string) bool {
	if p.IsYolo() {
		return true
	}
	for _, allowed := range mcpAllowlist {
		if strings.Contains(command, allowed) {
			return true
		}
	}
	return false
}

// ShouldDenyFile reports whether path matches one of this mode's deny
// patterns. Yolo mode denies nothing.
func (p Policy) ShouldDenyFile(path string) bool {
	if p.IsYolo() {
		return false
	}
	for _, pattern := range p.RequiredDenyPatterns() {
		if ok, _ := doublestar.Match(pattern, path); ok {
			return true
		}
		// doublestar.Match requires the full path to match; deny patterns
		// are commonly written to match a file living at any depth, so also
		// try against the base name alone (e.g. "**/*.key" vs "server.key").
		if ok, _ := doublestar.Match(strings.TrimPrefix(pattern, "**/"), baseName(path)); ok {
			return true
		}
	}
	return false
}

func baseName(path string) string {
	if i := strings.LastIndexByte(path, '/'); i >= 0 {
		return path[i+1:]
	}
	return path
}
