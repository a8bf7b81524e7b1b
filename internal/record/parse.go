package record

import (
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

// ErrEmptyDocument is returned when a source file contains no root element.
var ErrEmptyDocument = errors.New("record: document has no root element")

// Parse reads a complete XML document from r into a Node tree.
//
// Precondition: r must yield a well-formed XML document.
// Postcondition: Returns the root Node or a non-nil error.
func Parse(r io.Reader) (*Node, error) {
	dec := xml.NewDecoder(r)
	dec.Strict = false

	var stack []*Node
	var root *Node
	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("record: Parse: %w", err)
		}
		switch t := tok.(type) {
		case xml.StartElement:
			n := &Node{Name: t.Name.Local, Attrs: make([]Attr, 0, len(t.Attr))}
			for _, a := range t.Attr {
				n.Attrs = append(n.Attrs, Attr{Name: a.Name.Local, Value: a.Value})
			}
			if len(stack) == 0 {
				if root != nil {
					return nil, errors.New("record: Parse: multiple root elements")
				}
				root = n
			} else {
				parent := stack[len(stack)-1]
				parent.Elems = append(parent.Elems, n)
			}
			stack = append(stack, n)
		case xml.EndElement:
			if len(stack) == 0 {
				return nil, fmt.Errorf("record: Parse: unbalanced end element %q", t.Name.Local)
			}
			stack = stack[:len(stack)-1]
		case xml.CharData:
			if len(stack) > 0 {
				if s := strings.TrimSpace(string(t)); s != "" {
					stack[len(stack)-1].Text += s
				}
			}
		}
	}
	if root == nil {
		return nil, ErrEmptyDocument
	}
	return root, nil
}

// ParseFile opens and parses the XML document at path.
//
// Postcondition: Returns the root Node or an error naming path.
func ParseFile(path string) (*Node, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("record: opening %s: %w", path, err)
	}
	defer f.Close()
	n, err := Parse(f)
	if err != nil {
		return nil, fmt.Errorf("record: parsing %s: %w", path, err)
	}
	return n, nil
}

// ParseRoot reads only the root start element of the document, without its
// children. It is used by the corpus scan, which needs identity attributes
// but not record bodies.
//
// Postcondition: Returns a childless Node or a non-nil error.
func ParseRoot(r io.Reader) (*Node, error) {
	dec := xml.NewDecoder(r)
	dec.Strict = false
	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			return nil, ErrEmptyDocument
		}
		if err != nil {
			return nil, fmt.Errorf("record: ParseRoot: %w", err)
		}
		if se, ok := tok.(xml.StartElement); ok {
			n := &Node{Name: se.Name.Local}
			for _, a := range se.Attr {
				n.Attrs = append(n.Attrs, Attr{Name: a.Name.Local, Value: a.Value})
			}
			return n, nil
		}
	}
}
