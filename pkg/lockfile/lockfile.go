// Package lockfile implements Calvin's versioned, content-addressed
// manifest (spec §3 "Lockfile", §4 component table). It is a pure data
// structure; I/O lives in repository.go.
package lockfile

import (
	"sort"
	"strings"

	"github.com/calvin-dev/calvin/pkg/scope"
)

// Version is the only lockfile format version Calvin understands. A load
// that observes any other version fails outright (spec §3).
const Version = 1

// Entry is one tracked output file: its content hash plus provenance back
// to the asset and layer that produced it.
type Entry struct {
	Hash            string
	SourceLayer     string
	SourceLayerPath string
	SourceAsset     string
	SourceFile      string
	Overrides       string
	IsBinary        bool
}

// Lockfile holds a map of scope-namespaced keys to entries; Keys and
// KeysForScope return the keys sorted.
type Lockfile struct {
	version int
	entries map[string]Entry
}

// New returns an empty lockfile at the current version.
func New() *Lockfile {
	return &Lockfile{version: Version, entries: make(map[string]Entry)}
}

func (l *Lockfile) Version() int { return l.version }

func (l *Lockfile) Len() int { return len(l.entries) }

func (l *Lockfile) IsEmpty() bool { return len(l.entries) == 0 }

// Get returns the entry for key, and whether it exists.
func (l *Lockfile) Get(key string) (Entry, bool) {
	e, ok := l.entries[key]
	return e, ok
}

// Set inserts or replaces the entry for key.
func (l *Lockfile) Set(key string, e Entry) {
	l.entries[key] = e
}

// Remove deletes the entry for key, if present.
func (l *Lockfile) Remove(key string) {
	delete(l.entries, key)
}

// Contains reports whether key has an entry.
func (l *Lockfile) Contains(key string) bool {
	_, ok := l.entries[key]
	return ok
}

// Keys returns every key, sorted, so iteration order is deterministic.
func (l *Lockfile) Keys() []string {
	keys := make([]string, 0, len(l.entries))
	for k := range l.entries {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// KeysForScope returns keys whose namespace matches scope, sorted.
func (l *Lockfile) KeysForScope(s scope.Scope) []string {
	prefix := s.NamespacePrefix() + ":"
	var keys []string
	for k := range l.entries {
		if strings.HasPrefix(k, prefix) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	return keys
}

// Entries returns a copy of the key->entry map. Callers must not assume any
// particular order; use Keys for deterministic iteration.
func (l *Lockfile) Entries() map[string]Entry {
	out := make(map[string]Entry, len(l.entries))
	for k, v := range l.entries {
		out[k] = v
	}
	return out
}

// MakeKey is the single point of truth for lockfile key encoding (spec §3
// "Key encoding"):
//
//   - path starting with "~" or "~/" always encodes as "home:<path>", regardless
//     of scope
//   - Project scope encodes as "project:<path>"
//   - User scope with a plain path encodes as "home:~/<path>"
//   - backslashes in path are normalized to "/" first
//
// MakeKey is idempotent under path normalization: MakeKey(s, Normalize(p))
// == MakeKey(s, p) for any p (testable property 1).
func MakeKey(s scope.Scope, path string) string {
	path = strings.ReplaceAll(path, "\\", "/")
	if path == "~" || strings.HasPrefix(path, "~/") {
		return "home:" + path
	}
	switch s {
	case scope.Project:
		return "project:" + path
	default:
		return "home:~/" + path
	}
}

// ParseKey splits a lockfile key back into its scope and path, or ok=false
// if key has no recognized namespace prefix.
func ParseKey(key string) (s scope.Scope, path string, ok bool) {
	if p, found := strings.CutPrefix(key, "project:"); found {
		return scope.Project, p, true
	}
	if p, found := strings.CutPrefix(key, "home:"); found {
		return scope.User, p, true
	}
	return "", "", false
}
