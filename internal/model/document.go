package model

// Document is a text file found under the base directory.
// It is read once per run and never mutated.
type Document struct {
	// Path is the file path as produced by directory traversal.
	// It is rooted at the base directory as given by the user.
	Path string `json:"path" msgpack:"path"`

	// RelPath is Path relative to the base directory.
	RelPath string `json:"rel_path" msgpack:"rel_path"`

	// Content is the decoded document text.
	// It is not persisted.
	Content string `json:"-" msgpack:"-"`
}

// Link is a raw link target extracted from a document.
// Links are ephemeral and only exist during a scan.
type Link struct {
	// SourceFile is the path of the containing document relative to the base directory.
	SourceFile string

	// Target is the raw target exactly as it appeared between the parentheses.
	Target string

	// Index is the zero-based occurrence index of the link within its document.
	Index int
}

// LinkKind classifies a raw link target.
type LinkKind int

const (
	// LinkKindRelative is resolved against the directory of the containing document.
	LinkKindRelative LinkKind = iota

	// LinkKindAbsolute starts with "/" and is resolved against the base directory.
	LinkKindAbsolute

	// LinkKindExternal starts with "http://" or "https://" and is never checked.
	LinkKindExternal

	// LinkKindAnchor starts with "#" and points into the same document.
	LinkKindAnchor

	// LinkKindIgnored matched a user supplied ignore pattern.
	LinkKindIgnored
)

// String returns a human-readable name for the link kind.
func (k LinkKind) String() string {
	switch k {
	case LinkKindRelative:
		return "relative"
	case LinkKindAbsolute:
		return "absolute"
	case LinkKindExternal:
		return "external"
	case LinkKindAnchor:
		return "anchor"
	case LinkKindIgnored:
		return "ignored"
	default:
		return "unknown"
	}
}

// Checked reports whether links of this kind are resolved on disk.
func (k LinkKind) Checked() bool {
	return k == LinkKindRelative || k == LinkKindAbsolute
}
