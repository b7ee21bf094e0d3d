package cpix

import "github.com/google/cpix-go/internal/xmlnode"

// Element is the common contract every CPIX element type satisfies: it can
// render itself as an xmlnode.Node tree and rebuild itself from one. Element
// also carries the id attribute common to every CPIX element.
type Element interface {
	ID() string
	SetID(id string)
	ToNode() *xmlnode.Node
	FromNode(node *xmlnode.Node) bool
}

// baseElement supplies the id field shared by every CPIX element. Embed it
// rather than redeclaring id/ID/SetID on each element type.
type baseElement struct {
	id string
}

func (b *baseElement) ID() string     { return b.id }
func (b *baseElement) SetID(id string) { b.id = id }

// serialize renders any Element as a standalone XML string, or "" if the
// element has nothing to render.
func serialize(e Element) string {
	node := e.ToNode()
	if node == nil {
		return ""
	}
	s, err := node.AsString()
	if err != nil {
		logError("serialize", err)
		return ""
	}
	return s
}

// elementList is the generic replacement for CPIXElementList's virtual
// dispatch: a named child-element collection (ContentKeyList,
// DRMSystemList, ContentKeyUsageRuleList, ContentKeyPeriodList,
// DeliveryDataList) that shares one id attribute and renders as nil when
// empty, per the original's GetNode contract.
type elementList[T Element] struct {
	baseElement
	name    string
	items   []T
	newItem func() T
}

func newElementList[T Element](name string, newItem func() T) *elementList[T] {
	return &elementList[T]{name: name, newItem: newItem}
}

func (l *elementList[T]) Add(item T) {
	l.items = append(l.items, item)
}

func (l *elementList[T]) Items() []T {
	return l.items
}

func (l *elementList[T]) Len() int {
	return len(l.items)
}

// ToNode builds the list's wrapper node, or nil if the list holds no
// elements (an empty list is omitted from the document entirely) or if any
// element's own ToNode returns nil.
func (l *elementList[T]) ToNode() *xmlnode.Node {
	if len(l.items) == 0 {
		return nil
	}
	root := xmlnode.New("", l.name)
	if l.id != "" {
		root.AddAttribute("id", l.id)
	}
	for _, item := range l.items {
		child := item.ToNode()
		if child == nil {
			return nil
		}
		root.AddChild(child)
	}
	return root
}

// FromNode consumes node's id attribute and each child element in turn,
// detaching children as it goes (xmlnode.Node's FirstChild contract). A nil
// node is treated as "list absent" and succeeds trivially.
func (l *elementList[T]) FromNode(node *xmlnode.Node) bool {
	if node == nil {
		return true
	}
	if id := node.Attribute("id"); id != "" {
		l.id = id
	}
	for {
		child := node.FirstChild()
		if child == nil {
			break
		}
		item := l.newItem()
		if !item.FromNode(child) {
			return false
		}
		l.items = append(l.items, item)
	}
	return true
}
