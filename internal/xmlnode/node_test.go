package xmlnode

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAsStringRoundTrip(t *testing.T) {
	root := New("", "CPIX")
	root.AddAttribute("xmlns", "urn:dashif:org:cpix")
	root.AddAttribute("contentId", "livesim2-0001")

	list := New("", "ContentKeyList")
	key := New("", "ContentKey")
	key.AddAttribute("kid", "bd5adf51-cf04-410f-aac3-ec63a69e929e")
	data := New("", "Data")
	secret := New("pskc", "Secret")
	plain := New("pskc", "PlainValue")
	plain.SetContent("3iv9lYwafpe0uEmxDc6PSw==")
	secret.AddChild(plain)
	data.AddChild(secret)
	key.AddChild(data)
	list.AddChild(key)
	root.AddChild(list)

	got, err := root.AsString()
	require.NoError(t, err)
	want := `<CPIX xmlns="urn:dashif:org:cpix" contentId="livesim2-0001"><ContentKeyList><ContentKey kid="bd5adf51-cf04-410f-aac3-ec63a69e929e"><Data><pskc:Secret><pskc:PlainValue>3iv9lYwafpe0uEmxDc6PSw==</pskc:PlainValue></pskc:Secret></Data></ContentKey></ContentKeyList></CPIX>`
	require.Equal(t, want, got)
}

func TestParseAndFirstChildByNameDetaches(t *testing.T) {
	xml := `<CPIX contentId="x"><ContentKeyList><ContentKey kid="a"/><ContentKey kid="b"/></ContentKeyList></CPIX>`
	root, err := Parse(xml)
	require.NoError(t, err)
	require.Equal(t, "CPIX", root.Name())
	require.Equal(t, "x", root.Attribute("contentId"))
	require.Equal(t, "", root.Attribute("missing"))

	list := root.FirstChildByName("ContentKeyList")
	require.NotNil(t, list)
	// Once detached, a second lookup on root finds nothing further.
	require.Nil(t, root.FirstChildByName("ContentKeyList"))

	first := list.FirstChild()
	require.NotNil(t, first)
	require.Equal(t, "a", first.Attribute("kid"))
	second := list.FirstChild()
	require.NotNil(t, second)
	require.Equal(t, "b", second.Attribute("kid"))
	require.Nil(t, list.FirstChild())
}

func TestChildrenByName(t *testing.T) {
	xml := `<DRMSystem><HLSSignalingData playlist="master">AAA</HLSSignalingData><HLSSignalingData playlist="media">BBB</HLSSignalingData></DRMSystem>`
	root, err := Parse(xml)
	require.NoError(t, err)
	children := root.ChildrenByName("HLSSignalingData")
	require.Len(t, children, 2)
	require.Equal(t, "master", children[0].Attribute("playlist"))
	require.Equal(t, "media", children[1].Attribute("playlist"))
	require.Empty(t, root.ChildrenByName("HLSSignalingData"))
}

func TestDescendant(t *testing.T) {
	xml := `<ContentKey><Data><pskc:Secret><pskc:PlainValue>abc</pskc:PlainValue></pskc:Secret></Data></ContentKey>`
	root, err := Parse(xml)
	require.NoError(t, err)
	secret := root.Descendant("Data", "Secret")
	require.NotNil(t, secret)
	plain := secret.FirstChildByName("PlainValue")
	require.NotNil(t, plain)
	require.Equal(t, "abc", plain.Content())
}

func TestDescendantMissing(t *testing.T) {
	root := New("", "Empty")
	require.Nil(t, root.Descendant("Data", "Secret"))
}
