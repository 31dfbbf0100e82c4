package parser

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"
	"unicode"

	"golang.org/x/net/html/charset"
)

// Node is an element or text node of a parsed XML document. Element names
// carry the resolved namespace URI, never the source prefix.
type Node struct {
	Name     xml.Name
	Attrs    []xml.Attr
	Children []*Node
	Parent   *Node
	Text     string
}

// IsText reports whether n is a character data node.
func (n *Node) IsText() bool {
	return n.Name.Local == ""
}

// Is reports whether n is the element {space}local.
func (n *Node) Is(space, local string) bool {
	return !n.IsText() && n.Name.Space == space && n.Name.Local == local
}

// Attr returns the value of the attribute {space}local. Unqualified
// attributes use an empty space.
func (n *Node) Attr(space, local string) string {
	for _, a := range n.Attrs {
		if a.Name.Space == space && a.Name.Local == local {
			return a.Value
		}
	}
	return ""
}

// Elements returns the direct child elements named {space}local.
func (n *Node) Elements(space, local string) []*Node {
	var out []*Node
	for _, child := range n.Children {
		if child.Is(space, local) {
			out = append(out, child)
		}
	}
	return out
}

// First returns the first descendant element named {space}local in
// document order, or nil.
func (n *Node) First(space, local string) *Node {
	for _, child := range n.Children {
		if child.Is(space, local) {
			return child
		}
		if found := child.First(space, local); found != nil {
			return found
		}
	}
	return nil
}

// Descendants returns all descendant elements named {space}local in
// document order.
func (n *Node) Descendants(space, local string) []*Node {
	var out []*Node
	n.walk(func(node *Node) bool {
		if node != n && node.Is(space, local) {
			out = append(out, node)
		}
		return true
	})
	return out
}

// walk visits n and its subtree in document order. Returning false from
// fn skips the children of that node.
func (n *Node) walk(fn func(*Node) bool) {
	if !fn(n) {
		return
	}
	for _, child := range n.Children {
		child.walk(fn)
	}
}

// CleanText returns the text content of the subtree with tags removed and
// whitespace collapsed. Elements for which skip returns true are left out.
func (n *Node) CleanText(skip func(*Node) bool) string {
	var sb strings.Builder
	n.collect(&sb, skip)
	return normalizeSpace(sb.String())
}

func (n *Node) collect(sb *strings.Builder, skip func(*Node) bool) {
	if n.IsText() {
		sb.WriteString(n.Text)
		return
	}
	if skip != nil && skip(n) {
		return
	}
	block := isBlock(n)
	if block {
		sb.WriteByte(' ')
	}
	for _, child := range n.Children {
		child.collect(sb, skip)
	}
	if block {
		sb.WriteByte(' ')
	}
}

// inline TEI elements keep their text glued to the surrounding words
var inlineElements = map[string]bool{
	"hi":        true,
	"emph":      true,
	"name":      true,
	"persName":  true,
	"placeName": true,
	"foreign":   true,
	"choice":    true,
	"orig":      true,
	"reg":       true,
	"abbr":      true,
	"expan":     true,
	"sic":       true,
	"corr":      true,
	"seg":       true,
	"ref":       true,
	"title":     true,
	"date":      true,
	"num":       true,
	"rs":        true,
	"q":         true,
	"quote":     true,
	"c":         true,
	"w":         true,
	"pc":        true,
}

func isBlock(n *Node) bool {
	return !inlineElements[n.Name.Local]
}

func normalizeSpace(s string) string {
	return strings.Join(strings.FieldsFunc(s, unicode.IsSpace), " ")
}

// ParseXML builds a namespace-aware DOM from body. CDATA sections become
// ordinary text nodes. Declared non UTF-8 encodings are decoded with
// golang.org/x/net/html/charset.
func ParseXML(body []byte) (*Node, error) {
	decoder := xml.NewDecoder(bytes.NewReader(body))
	decoder.CharsetReader = charset.NewReaderLabel
	decoder.Entity = xml.HTMLEntity

	var stack []*Node
	var root *Node
	rootClosed := false

	for {
		tok, err := decoder.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}

		switch t := tok.(type) {
		case xml.StartElement:
			if rootClosed {
				return nil, fmt.Errorf("unexpected element %s after document end", t.Name.Local)
			}
			elem := &Node{
				Name:  t.Name,
				Attrs: append([]xml.Attr(nil), t.Attr...),
			}
			if len(stack) > 0 {
				parent := stack[len(stack)-1]
				parent.Children = append(parent.Children, elem)
				elem.Parent = parent
			} else {
				root = elem
			}
			stack = append(stack, elem)

		case xml.EndElement:
			if len(stack) > 0 {
				stack = stack[:len(stack)-1]
				if len(stack) == 0 {
					rootClosed = true
				}
			}

		case xml.CharData:
			if len(stack) == 0 {
				if strings.TrimFunc(string(t), isIgnorable) != "" {
					return nil, errors.New("unexpected character data outside root element")
				}
				continue
			}
			parent := stack[len(stack)-1]
			parent.Children = append(parent.Children, &Node{
				Text:   string(t),
				Parent: parent,
			})
		}
	}

	if root == nil || len(stack) > 0 {
		return nil, io.ErrUnexpectedEOF
	}

	return root, nil
}

func isIgnorable(r rune) bool {
	return r == '\uFEFF' || unicode.IsSpace(r)
}
