package fsport

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/calvin-dev/calvin/pkg/asset"
)

// Local implements FileSystem over the standard library, rooted at root
// (either a project directory or the user's home directory). Writes are
// atomic: content lands at "<path>.tmp" then is renamed into place
// (spec §4.5 "Execute").
type Local struct {
	root string
	home string
}

// NewLocal returns a Local filesystem rooted at root. home is used to
// expand a leading "~/" in paths passed to Read/Write/Exists/Hash/Remove
// regardless of root (spec §9 "Global home directory" is treated as a
// destination responsibility, not a package-level global).
func NewLocal(root, home string) *Local {
	return &Local{root: root, home: home}
}

func (l *Local) DisplayName() string { return l.root }

// ExpandHome resolves a leading "~" or "~/" against home; any other path is
// joined against root.
func (l *Local) ExpandHome(path string) string {
	if path == "~" {
		return l.home
	}
	if rest, ok := strings.CutPrefix(path, "~/"); ok {
		return filepath.Join(l.home, filepath.FromSlash(rest))
	}
	return filepath.Join(l.root, filepath.FromSlash(path))
}

func (l *Local) Exists(path string) bool {
	_, err := os.Stat(l.ExpandHome(path))
	return err == nil
}

func (l *Local) Read(path string) (string, error) {
	resolved := l.ExpandHome(path)
	data, err := os.ReadFile(resolved)
	if err != nil {
		return "", FromOSError(resolved, err)
	}
	return string(data), nil
}

func (l *Local) Hash(path string) (string, error) {
	content, err := l.Read(path)
	if err != nil {
		return "", err
	}
	return asset.HashContent([]byte(content)), nil
}

func (l *Local) MkdirAll(path string) error {
	resolved := l.ExpandHome(path)
	if err := os.MkdirAll(resolved, 0o755); err != nil {
		return FromOSError(resolved, err)
	}
	return nil
}

// Write writes content to path atomically: a temp file in the same
// directory, then a rename (spec §4.5 "Execute": "Writes are atomic").
func (l *Local) Write(path string, content string) error {
	resolved := l.ExpandHome(path)
	dir := filepath.Dir(resolved)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return FromOSError(dir, err)
	}

	tmp := resolved + ".tmp"
	if err := os.WriteFile(tmp, []byte(content), 0o644); err != nil {
		return FromOSError(tmp, err)
	}
	if err := os.Rename(tmp, resolved); err != nil {
		_ = os.Remove(tmp)
		return FromOSError(resolved, err)
	}
	return nil
}

// WriteBinary is Write's binary counterpart, used for skill binary
// supplementals (spec §3 "binary_supplementals").
func (l *Local) WriteBinary(path string, content []byte) error {
	resolved := l.ExpandHome(path)
	dir := filepath.Dir(resolved)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return FromOSError(dir, err)
	}

	tmp := resolved + ".tmp"
	if err := os.WriteFile(tmp, content, 0o644); err != nil {
		return FromOSError(tmp, err)
	}
	if err := os.Rename(tmp, resolved); err != nil {
		_ = os.Remove(tmp)
		return FromOSError(resolved, err)
	}
	return nil
}

func (l *Local) Remove(path string) error {
	resolved := l.ExpandHome(path)
	if err := os.Remove(resolved); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return FromOSError(resolved, err)
	}
	return nil
}

// RemoveEmptyParents best-effort removes path's parent directories, walking
// upward until stopAt (the destination root) or a non-empty directory is
// hit (spec §4.6 "remove now-empty parent directories up to... the
// destination root").
func (l *Local) RemoveEmptyParents(path, stopAt string) {
	dir := filepath.Dir(l.ExpandHome(path))
	stop := filepath.Clean(stopAt)
	for {
		dir = filepath.Clean(dir)
		if dir == stop || dir == "." || dir == string(filepath.Separator) {
			return
		}
		entries, err := os.ReadDir(dir)
		if err != nil || len(entries) > 0 {
			return
		}
		if err := os.Remove(dir); err != nil {
			return
		}
		dir = filepath.Dir(dir)
	}
}
