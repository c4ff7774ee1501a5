package layer

import (
	"fmt"
	"os"
	"strings"

	"github.com/calvin-dev/calvin/pkg/constants"
	gitignore "github.com/sabhiram/go-gitignore"
)

// IgnoreMatcher wraps a compiled .calvinignore file. A nil *IgnoreMatcher
// (or one built from a missing/empty file) matches nothing, per spec §4.2.
type IgnoreMatcher struct {
	ignore *gitignore.GitIgnore
}

// loadIgnoreMatcher reads `<root>/.calvinignore`, enforcing the size and
// pattern-count caps from spec §4.2. A missing file is legal and yields a
// matcher that ignores nothing.
func loadIgnoreMatcher(root string) (*IgnoreMatcher, error) {
	path := root + string(os.PathSeparator) + constants.IgnoreFileName
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &IgnoreMatcher{}, nil
		}
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	if len(data) > constants.MaxIgnoreFileBytes {
		return nil, fmt.Errorf("%s exceeds the %d byte limit", path, constants.MaxIgnoreFileBytes)
	}

	lines := strings.Split(string(data), "\n")
	patterns := make([]string, 0, len(lines))
	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || strings.HasPrefix(trimmed, "#") {
			continue
		}
		patterns = append(patterns, line)
	}
	if len(patterns) > constants.MaxIgnorePatterns {
		return nil, fmt.Errorf("%s has %d patterns, exceeding the %d pattern limit", path, len(patterns), constants.MaxIgnorePatterns)
	}
	if len(patterns) == 0 {
		return &IgnoreMatcher{}, nil
	}

	return &IgnoreMatcher{ignore: gitignore.CompileIgnoreLines(patterns...)}, nil
}

// Matches reports whether relPath (layer-root-relative, forward-slashed)
// should be skipped.
func (m *IgnoreMatcher) Matches(relPath string) bool {
	if m == nil || m.ignore == nil {
		return false
	}
	return m.ignore.MatchesPath(relPath)
}
