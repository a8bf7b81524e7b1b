// Package record provides the generic parsed-XML tree that every source
// record is read through, plus the Record envelope that identifies it.
package record

import (
	"strconv"
	"strings"
)

// Accessor is the read-only view calculators and mappers use to inspect a
// parsed record. Implementations must be nil-safe: calling any method on a
// missing node returns the zero value, so lookups may be chained freely.
type Accessor interface {
	// Tag returns the element name, or "" for a missing node.
	Tag() string
	// Exists reports whether the node is present in the source document.
	Exists() bool
	// Attr returns the attribute value, or "" when absent.
	Attr(name string) string
	// LookupAttr returns the attribute value and whether it was present.
	LookupAttr(name string) (string, bool)
	// Float parses the attribute as float64, returning def when absent or invalid.
	Float(name string, def float64) float64
	// Int parses the attribute as int, returning def when absent or invalid.
	Int(name string, def int) int
	// Bool reports whether the attribute is "1" or "true" (case-insensitive).
	Bool(name string) bool
	// Child follows a slash-separated path of element names.
	Child(path string) Accessor
	// Find returns the first descendant with the given element name, depth-first.
	Find(name string) Accessor
	// Children returns the direct children with the given element name; "" matches all.
	Children(name string) []Accessor
}

// Attr is a single XML attribute.
type Attr struct {
	Name  string
	Value string
}

// Node is one element of a parsed XML document.
//
// Invariant: a Node is never mutated after Parse returns, except by
// SetAttr during deliberate record merges before the node is shared.
type Node struct {
	Name  string
	Attrs []Attr
	Elems []*Node
	Text  string
}

var _ Accessor = (*Node)(nil)

// Tag implements Accessor.
func (n *Node) Tag() string {
	if n == nil {
		return ""
	}
	return n.Name
}

// Exists implements Accessor.
func (n *Node) Exists() bool { return n != nil }

// LookupAttr implements Accessor. An exact name match wins; otherwise the
// first case-insensitive match is returned.
func (n *Node) LookupAttr(name string) (string, bool) {
	if n == nil {
		return "", false
	}
	for _, a := range n.Attrs {
		if a.Name == name {
			return a.Value, true
		}
	}
	for _, a := range n.Attrs {
		if strings.EqualFold(a.Name, name) {
			return a.Value, true
		}
	}
	return "", false
}

// Attr implements Accessor.
func (n *Node) Attr(name string) string {
	v, _ := n.LookupAttr(name)
	return v
}

// Float implements Accessor.
func (n *Node) Float(name string, def float64) float64 {
	v, ok := n.LookupAttr(name)
	if !ok {
		return def
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
	if err != nil {
		return def
	}
	return f
}

// Int implements Accessor.
func (n *Node) Int(name string, def int) int {
	v, ok := n.LookupAttr(name)
	if !ok {
		return def
	}
	v = strings.TrimSpace(v)
	if i, err := strconv.Atoi(v); err == nil {
		return i
	}
	// Some records store integral values as "2.0".
	if f, err := strconv.ParseFloat(v, 64); err == nil {
		return int(f)
	}
	return def
}

// Bool implements Accessor.
func (n *Node) Bool(name string) bool {
	v := strings.TrimSpace(n.Attr(name))
	return v == "1" || strings.EqualFold(v, "true")
}

// Child implements Accessor.
func (n *Node) Child(path string) Accessor {
	return n.ChildNode(path)
}

// ChildNode is the concrete form of Child.
//
// Postcondition: returns nil when any path segment is missing.
func (n *Node) ChildNode(path string) *Node {
	cur := n
	for _, seg := range strings.Split(path, "/") {
		if seg == "" {
			continue
		}
		if cur == nil {
			return nil
		}
		cur = cur.first(seg)
	}
	return cur
}

// Find implements Accessor.
func (n *Node) Find(name string) Accessor {
	return n.FindNode(name)
}

// FindNode is the concrete form of Find.
func (n *Node) FindNode(name string) *Node {
	if n == nil {
		return nil
	}
	for _, c := range n.Elems {
		if c.Name == name {
			return c
		}
		if found := c.FindNode(name); found != nil {
			return found
		}
	}
	return nil
}

// Children implements Accessor.
func (n *Node) Children(name string) []Accessor {
	nodes := n.ChildNodes(name)
	out := make([]Accessor, len(nodes))
	for i, c := range nodes {
		out[i] = c
	}
	return out
}

// ChildNodes is the concrete form of Children.
func (n *Node) ChildNodes(name string) []*Node {
	if n == nil {
		return nil
	}
	if name == "" {
		return n.Elems
	}
	var out []*Node
	for _, c := range n.Elems {
		if c.Name == name {
			out = append(out, c)
		}
	}
	return out
}

// SetAttr overwrites or appends an attribute.
//
// Precondition: n must not be shared with other goroutines yet.
func (n *Node) SetAttr(name, value string) {
	for i, a := range n.Attrs {
		if strings.EqualFold(a.Name, name) {
			n.Attrs[i].Value = value
			return
		}
	}
	n.Attrs = append(n.Attrs, Attr{Name: name, Value: value})
}

// Walk visits n and every descendant depth-first, stopping early when fn
// returns false for a node (its subtree is skipped).
func (n *Node) Walk(fn func(*Node) bool) {
	if n == nil || !fn(n) {
		return
	}
	for _, c := range n.Elems {
		c.Walk(fn)
	}
}

// Clone returns a deep copy of n.
func (n *Node) Clone() *Node {
	if n == nil {
		return nil
	}
	cp := &Node{Name: n.Name, Text: n.Text}
	cp.Attrs = append([]Attr(nil), n.Attrs...)
	cp.Elems = make([]*Node, len(n.Elems))
	for i, c := range n.Elems {
		cp.Elems[i] = c.Clone()
	}
	return cp
}

func (n *Node) first(name string) *Node {
	for _, c := range n.Elems {
		if c.Name == name {
			return c
		}
	}
	return nil
}
