package cpix

import (
	"strconv"

	"github.com/google/cpix-go/internal/xmlnode"
)

// KeyPeriod identifies a span of time or an ordinal position, referenced by
// UsageRule.KeyPeriodIDs through its id. Exactly one of an index or a
// start/end interval is set at a time; SetIndex and SetInterval each clear
// the other representation.
type KeyPeriod struct {
	baseElement
	index int
	start string
	end   string
}

// NewKeyPeriod returns a KeyPeriod with neither representation set.
func NewKeyPeriod() *KeyPeriod {
	return &KeyPeriod{index: -1}
}

// SetIndex sets this period's ordinal position, clearing any interval.
func (k *KeyPeriod) SetIndex(index int) {
	k.start = ""
	k.end = ""
	k.index = index
}

// SetInterval sets this period's start/end (xs:dateTime strings), clearing
// any index. Neither bound's format is validated here.
func (k *KeyPeriod) SetInterval(start, end string) {
	k.index = -1
	k.start = start
	k.end = end
}

// ToNode builds this period's <ContentKeyPeriod> element, or nil if neither
// an index nor a complete start/end interval is set.
func (k *KeyPeriod) ToNode() *xmlnode.Node {
	hasIndex := k.index != -1
	hasInterval := k.start != "" && k.end != ""
	if hasIndex == hasInterval {
		return nil
	}

	root := xmlnode.New("", "ContentKeyPeriod")
	if k.id != "" {
		root.AddAttribute("id", k.id)
	}

	if hasIndex {
		root.AddAttribute("index", strconv.Itoa(k.index))
	} else {
		root.AddAttribute("start", k.start)
		root.AddAttribute("end", k.end)
	}

	return root
}

// FromNode rebuilds a KeyPeriod from a parsed <ContentKeyPeriod> element.
func (k *KeyPeriod) FromNode(node *xmlnode.Node) bool {
	if node == nil {
		return false
	}
	if id := node.Attribute("id"); id != "" {
		k.id = id
	}

	if index := node.Attribute("index"); index != "" {
		n, err := strconv.Atoi(index)
		if err != nil {
			logError("KeyPeriod.FromNode", err)
			return false
		}
		k.SetIndex(n)
		return true
	}

	start := node.Attribute("start")
	end := node.Attribute("end")
	if start != "" && end != "" {
		k.SetInterval(start, end)
		return true
	}

	logRejected("KeyPeriod.FromNode", "neither index nor a complete start/end interval is present")
	return false
}

// keyPeriodList is the <ContentKeyPeriodList> child-element collection.
type keyPeriodList struct {
	*elementList[*KeyPeriod]
}

func newKeyPeriodList() *keyPeriodList {
	return &keyPeriodList{newElementList("ContentKeyPeriodList", func() *KeyPeriod { return NewKeyPeriod() })}
}

// AddKeyPeriod appends period unconditionally; its own ToNode validates
// whether it has a representation worth serializing.
func (l *keyPeriodList) AddKeyPeriod(period *KeyPeriod) bool {
	l.Add(period)
	return true
}
