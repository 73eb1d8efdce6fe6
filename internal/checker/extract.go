package checker

import (
	"path"
	"regexp"
	"strings"

	"github.com/nao1215/mdlinkcheck/internal/model"
)

// linkPattern matches inline links. Both groups are non-greedy and do not
// cross line breaks; only the target group is used.
var linkPattern = regexp.MustCompile(`\[.*?\]\((.*?)\)`)

// skipPrefixes mark targets that never resolve to a local file.
var skipPrefixes = []struct {
	prefix string
	kind   model.LinkKind
}{
	{"http://", model.LinkKindExternal},
	{"https://", model.LinkKindExternal},
	{"#", model.LinkKindAnchor},
}

// ExtractLinks returns every inline link target in the document,
// in order of occurrence.
func ExtractLinks(doc model.Document) []model.Link {
	matches := linkPattern.FindAllStringSubmatch(doc.Content, -1)
	links := make([]model.Link, 0, len(matches))
	for i, m := range matches {
		links = append(links, model.Link{
			SourceFile: doc.RelPath,
			Target:     m[1],
			Index:      i,
		})
	}
	return links
}

// Classify returns the kind of a raw link target.
func (c *Checker) Classify(target string) model.LinkKind {
	for _, p := range skipPrefixes {
		if strings.HasPrefix(target, p.prefix) {
			return p.kind
		}
	}

	for _, pattern := range c.ignorePatterns {
		if matched, err := path.Match(pattern, target); err == nil && matched {
			return model.LinkKindIgnored
		}
	}

	if strings.HasPrefix(target, "/") {
		return model.LinkKindAbsolute
	}
	return model.LinkKindRelative
}
