// Package response implements the Response Assembler (spec.md §4.5): a
// typed document-tree algebraic type and a fold over the Schema Index,
// Data Store, and Asset Store that builds MTConnectStreams/Devices/
// Assets/Error trees, which an external XML encoder then serializes —
// spec.md §9's design note calls for exactly this instead of the
// source's free-form map mutation.
package response

import (
	"encoding/xml"
	"io"
)

// Node is either an Element or a Text leaf.
type Node interface{ isNode() }

// Attr is one XML attribute, kept as an ordered pair rather than a map so
// document output is deterministic.
type Attr struct{ Name, Value string }

// Element is one XML element: a name, ordered attributes, and ordered
// children (which may themselves be Elements or Text).
type Element struct {
	Name     string
	Attrs    []Attr
	Children []Node
}

// Text is a leaf text node.
type Text string

func (*Element) isNode() {}
func (Text) isNode()     {}

// El builds an Element with the given attributes (name, value, name,
// value, ...).
func El(name string, attrKVs ...string) *Element {
	e := &Element{Name: name}
	for i := 0; i+1 < len(attrKVs); i += 2 {
		if attrKVs[i+1] == "" {
			continue
		}
		e.Attrs = append(e.Attrs, Attr{Name: attrKVs[i], Value: attrKVs[i+1]})
	}
	return e
}

// Add appends children and returns the element, for chaining.
func (e *Element) Add(children ...Node) *Element {
	e.Children = append(e.Children, children...)
	return e
}

// SetText appends a Text child.
func (e *Element) SetText(s string) *Element {
	e.Children = append(e.Children, Text(s))
	return e
}

// SetAttr appends one more attribute, skipping empty values so optional
// fields (e.g. a DataItem's subType) don't clutter the output.
func (e *Element) SetAttr(name, value string) *Element {
	if value == "" {
		return e
	}
	e.Attrs = append(e.Attrs, Attr{Name: name, Value: value})
	return e
}

// Write serializes root as a complete XML document, declaration included.
func Write(w io.Writer, root *Element) error {
	if _, err := io.WriteString(w, xml.Header); err != nil {
		return err
	}
	enc := xml.NewEncoder(w)
	if err := writeNode(enc, root); err != nil {
		return err
	}
	return enc.Flush()
}

func writeNode(enc *xml.Encoder, n Node) error {
	switch v := n.(type) {
	case *Element:
		start := xml.StartElement{Name: xml.Name{Local: v.Name}}
		for _, a := range v.Attrs {
			start.Attr = append(start.Attr, xml.Attr{Name: xml.Name{Local: a.Name}, Value: a.Value})
		}
		if err := enc.EncodeToken(start); err != nil {
			return err
		}
		for _, c := range v.Children {
			if err := writeNode(enc, c); err != nil {
				return err
			}
		}
		return enc.EncodeToken(start.End())
	case Text:
		return enc.EncodeToken(xml.CharData([]byte(v)))
	default:
		return nil
	}
}
