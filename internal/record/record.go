package record

import (
	"strings"

	"github.com/google/uuid"
)

// Record is one parsed source definition file.
//
// Invariant: a Record is immutable once returned by a loader and is owned by
// the caller that loaded it.
type Record struct {
	// Reference is the normalised reference id, or "" when the record has none.
	Reference string
	// ClassName is the human-readable class name.
	ClassName string
	// Kind is the declared kind from the root element.
	Kind Kind
	// Path is the file the record was parsed from.
	Path string
	// Root is the parsed document root.
	Root *Node
}

// Identify extracts kind, class name and reference from a root element.
// Roots are named "<Kind>.<ClassName>"; an explicit __type attribute
// overrides the kind prefix.
func Identify(root *Node) (kind Kind, className, ref string) {
	name := root.Tag()
	prefix, class, found := strings.Cut(name, ".")
	if !found {
		class = ""
	}
	kind = Kind(prefix)
	if t := root.Attr("__type"); t != "" {
		kind = Kind(t)
	}
	return kind, class, NormalizeRef(root.Attr("__ref"))
}

// New builds a Record from a parsed root element.
//
// Precondition: root must be non-nil.
func New(root *Node, path string) *Record {
	kind, class, ref := Identify(root)
	return &Record{
		Reference: ref,
		ClassName: class,
		Kind:      kind,
		Path:      path,
		Root:      root,
	}
}

// NormalizeRef canonicalises a reference id. UUIDs are rendered in lowercase
// hyphenated form; the nil UUID and blank strings normalise to "". Values
// that are not UUIDs are trimmed and lowercased.
//
// Postcondition: NormalizeRef(NormalizeRef(s)) == NormalizeRef(s).
func NormalizeRef(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	if u, err := uuid.Parse(s); err == nil {
		if u == uuid.Nil {
			return ""
		}
		return u.String()
	}
	return strings.ToLower(s)
}

// IsReference reports whether s is a non-nil UUID reference id.
func IsReference(s string) bool {
	u, err := uuid.Parse(strings.TrimSpace(s))
	return err == nil && u != uuid.Nil
}
