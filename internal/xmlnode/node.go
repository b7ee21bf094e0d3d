// Package xmlnode is a thin, order-preserving XML tree used by the CPIX
// element model. It wraps etree so the rest of the codec only depends on
// the small node contract it needs: named elements with an ordered
// attribute map, text content, and ordered children, plus serialize/parse
// and the detach-on-read child accessors the element model relies on.
package xmlnode

import (
	"fmt"

	"github.com/beevik/etree"
)

// Node is a mutable XML element: a namespace prefix, a local name, ordered
// attributes, text content, and ordered children.
type Node struct {
	el *etree.Element
}

// New creates an empty node with the given namespace prefix (may be empty)
// and local name.
func New(prefix, name string) *Node {
	tag := name
	if prefix != "" {
		tag = prefix + ":" + name
	}
	return &Node{el: etree.NewElement(tag)}
}

func wrap(el *etree.Element) *Node {
	if el == nil {
		return nil
	}
	return &Node{el: el}
}

// Parse parses a well-formed XML document and returns its root element.
func Parse(xml string) (*Node, error) {
	doc := etree.NewDocument()
	if err := doc.ReadFromString(xml); err != nil {
		return nil, fmt.Errorf("xmlnode: parse: %w", err)
	}
	root := doc.Root()
	if root == nil {
		return nil, fmt.Errorf("xmlnode: parse: document has no root element")
	}
	return wrap(root), nil
}

// Name returns the local element name, without namespace prefix.
func (n *Node) Name() string {
	return n.el.Tag
}

// AddAttribute sets an attribute, appending it in insertion order if new.
func (n *Node) AddAttribute(name, value string) {
	n.el.CreateAttr(name, value)
}

// Attribute returns the named attribute's value, or "" if absent.
func (n *Node) Attribute(name string) string {
	a := n.el.SelectAttr(name)
	if a == nil {
		return ""
	}
	return a.Value
}

// SetContent sets the element's text content.
func (n *Node) SetContent(text string) {
	n.el.SetText(text)
}

// Content returns the element's text content.
func (n *Node) Content() string {
	return n.el.Text()
}

// AddChild appends child as the last child of n. Ownership of child
// transfers to n.
func (n *Node) AddChild(child *Node) {
	if child == nil {
		return
	}
	n.el.AddChild(child.el)
}

// FirstChild detaches and returns the first child element, or nil if n has
// no child elements.
func (n *Node) FirstChild() *Node {
	children := n.el.ChildElements()
	if len(children) == 0 {
		return nil
	}
	first := children[0]
	n.el.RemoveChild(first)
	return wrap(first)
}

// FirstChildByName detaches and returns the first direct child element
// named name, or nil if none exists.
func (n *Node) FirstChildByName(name string) *Node {
	for _, c := range n.el.ChildElements() {
		if c.Tag == name {
			n.el.RemoveChild(c)
			return wrap(c)
		}
	}
	return nil
}

// ChildrenByName detaches and returns every direct child element named
// name, in document order.
func (n *Node) ChildrenByName(name string) []*Node {
	var matched []*etree.Element
	for _, c := range n.el.ChildElements() {
		if c.Tag == name {
			matched = append(matched, c)
		}
	}
	nodes := make([]*Node, 0, len(matched))
	for _, c := range matched {
		n.el.RemoveChild(c)
		nodes = append(nodes, wrap(c))
	}
	return nodes
}

// Descendant repeatedly applies FirstChildByName along path, returning the
// node reached or nil if any step fails to find a match.
func (n *Node) Descendant(path ...string) *Node {
	cur := n
	for _, name := range path {
		if cur == nil {
			return nil
		}
		cur = cur.FirstChildByName(name)
	}
	return cur
}

// AsString serializes this subtree to an XML fragment: no XML declaration,
// no indentation, attribute and child order preserved as inserted.
func (n *Node) AsString() (string, error) {
	doc := etree.NewDocument()
	doc.SetRoot(n.el)
	s, err := doc.WriteToString()
	if err != nil {
		return "", fmt.Errorf("xmlnode: serialize: %w", err)
	}
	return s, nil
}
