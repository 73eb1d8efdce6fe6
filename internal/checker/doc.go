// Package checker finds broken internal links in a tree of Markdown documents.
//
// A check runs in four stages:
//
//  1. Discover walks the base directory and collects every file whose name
//     ends in the document extension (".md" by default).
//  2. Each document is read and decoded as UTF-8.
//  3. Inline links of the form [text](target) are extracted with a
//     non-greedy pattern. Nested brackets and targets containing ")" are not
//     supported.
//  4. Every target that is not external ("http://", "https://"), an in-page
//     anchor ("#") or ignored is resolved to a path and tested for existence.
//
// # Resolution
//
// Targets starting with "/" are resolved against the base directory; all
// other targets are resolved against the directory of the containing
// document. A query string and fragment are dropped. When the path does not
// exist and does not already carry the document extension, the extension is
// appended as a fallback, so [x](page) finds page.md.
//
// # Usage
//
//	records, err := checker.FindBrokenLinks("docs")
//
// or, with options and read failures reported separately:
//
//	c := checker.New("docs", checker.WithIgnorePatterns([]string{"mailto:*"}))
//	report, err := c.Check(ctx)
package checker
