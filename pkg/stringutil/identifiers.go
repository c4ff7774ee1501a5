package stringutil

import "strings"

// DeriveAssetID turns a source file name into a kebab-case asset ID by
// stripping the .md extension. It performs normalization only; callers
// that need to know whether the result is a *valid* ID should call
// ValidAssetID.
//
// Examples:
//
//	DeriveAssetID("code-reviewer.md")   // returns "code-reviewer"
//	DeriveAssetID("SKILL.md")           // returns "SKILL"
func DeriveAssetID(fileName string) string {
	return strings.TrimSuffix(fileName, ".md")
}

// ValidAssetID reports whether id is a well-formed asset identifier:
// lowercase ASCII letters, digits, and hyphens, starting and ending with
// a letter or digit, never containing a double hyphen.
func ValidAssetID(id string) bool {
	if id == "" {
		return false
	}
	if id[0] == '-' || id[len(id)-1] == '-' {
		return false
	}
	prevHyphen := false
	for _, r := range id {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			prevHyphen = false
		case r == '-':
			if prevHyphen {
				return false
			}
			prevHyphen = true
		default:
			return false
		}
	}
	return true
}
