package adapter

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/calvin-dev/calvin/pkg/asset"
)

// dangerousTools are the built-in tool names that warn when listed in a
// compiled SKILL.md's frontmatter, where allowed-tools is rendered (spec
// §4.3 "Validation").
var dangerousTools = map[string]bool{
	"rm": true, "sudo": true, "chmod": true, "chown": true,
	"curl": true, "wget": true, "nc": true, "netcat": true,
	"ssh": true, "scp": true, "rsync": true,
}

// documentedPlaceholders are the named placeholder tokens every adapter
// recognizes without a warning: $ARGUMENTS and the positional $1..$9.
var documentedPlaceholders = map[string]bool{
	"ARGUMENTS": true,
	"1": true, "2": true, "3": true, "4": true, "5": true,
	"6": true, "7": true, "8": true, "9": true,
}

var placeholderPattern = regexp.MustCompile(`\$([A-Za-z_][A-Za-z0-9_]*)`)
var backtickNamePattern = regexp.MustCompile("`([A-Za-z_][A-Za-z0-9_]*)`")

func validateOutput(o *asset.OutputFile) []Diagnostic {
	var diags []Diagnostic

	if strings.TrimSpace(o.Content()) == "" {
		diags = append(diags, Diagnostic{Severity: Warning, Message: fmt.Sprintf("%s: output content is empty", o.Path())})
	}

	if strings.HasSuffix(o.Path(), "/SKILL.md") {
		manifest := o.Content()
		if end := strings.Index(manifest, "\n---"); end >= 0 {
			manifest = manifest[:end]
		}
		for tool := range dangerousTools {
			if mentionsAsTool(manifest, tool) {
				diags = append(diags, Diagnostic{
					Severity: Warning,
					Message:  fmt.Sprintf("%s: references the dangerous tool %q", o.Path(), tool),
				})
			}
		}
	}

	documented := make(map[string]bool)
	for _, m := range backtickNamePattern.FindAllStringSubmatch(o.Content(), -1) {
		documented[m[1]] = true
	}
	for _, m := range placeholderPattern.FindAllStringSubmatch(o.Content(), -1) {
		name := m[1]
		if documentedPlaceholders[name] || documented[name] {
			continue
		}
		diags = append(diags, Diagnostic{
			Severity: Warning,
			Message:  fmt.Sprintf("%s: undocumented placeholder $%s", o.Path(), name),
		})
	}

	return diags
}

// mentionsAsTool reports whether tool appears as a standalone token,
// delimited by whitespace, commas, backticks or parentheses, so a name
// embedded in a longer word (e.g. "curly" or "ssh-keygen") does not match.
func mentionsAsTool(content, tool string) bool {
	re := regexp.MustCompile(`(?:^|[\s,` + "`" + `(])` + regexp.QuoteMeta(tool) + `(?:$|[\s,` + "`" + `)])`)
	return re.MatchString(content)
}
