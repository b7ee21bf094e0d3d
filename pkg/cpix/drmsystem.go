package cpix

import (
	"github.com/Eyevinn/mp4ff/mp4"
	"github.com/google/cpix-go/internal/xmlnode"
)

// DRMSystem carries one DRM system's signaling data for one content key,
// linked to its ContentKey by Kid.
type DRMSystem struct {
	baseElement
	Kid                    mp4.UUID
	SystemID               mp4.UUID
	ContentProtectionData  []byte
	PSSH                   []byte
	HLSSignalingMaster     []byte
	HLSSignalingMedia      []byte
	HDSSignalingData       []byte
	SmoothStreamingData    []byte
	URIExtXKey             []byte
}

// ToNode builds this system's <DRMSystem> element, or nil if Kid or
// SystemID is unset.
func (d *DRMSystem) ToNode() *xmlnode.Node {
	if len(d.Kid) == 0 || len(d.SystemID) == 0 {
		return nil
	}

	root := xmlnode.New("", "DRMSystem")
	if d.id != "" {
		root.AddAttribute("id", d.id)
	}
	root.AddAttribute("kid", bytesToGUID(d.Kid))
	root.AddAttribute("systemId", bytesToGUID(d.SystemID))

	appendB64Child := func(name string, value []byte) {
		if len(value) == 0 {
			return
		}
		child := xmlnode.New("", name)
		child.SetContent(bytesToBase64(value))
		root.AddChild(child)
	}

	appendB64Child("PSSH", d.PSSH)
	appendB64Child("ContentProtectionData", d.ContentProtectionData)
	appendB64Child("URIExtXKey", d.URIExtXKey)

	if len(d.HLSSignalingMaster) > 0 {
		child := xmlnode.New("", "HLSSignalingData")
		child.SetContent(bytesToBase64(d.HLSSignalingMaster))
		child.AddAttribute("playlist", "master")
		root.AddChild(child)
	}
	if len(d.HLSSignalingMedia) > 0 {
		child := xmlnode.New("", "HLSSignalingData")
		child.SetContent(bytesToBase64(d.HLSSignalingMedia))
		child.AddAttribute("playlist", "media")
		root.AddChild(child)
	}

	appendB64Child("SmoothStreamingProtectionHeaderData", d.SmoothStreamingData)
	appendB64Child("HDSSignalingData", d.HDSSignalingData)

	return root
}

// FromNode rebuilds a DRMSystem from a parsed <DRMSystem> element. Every
// <HLSSignalingData> child present is read and dispatched by its playlist
// attribute, rather than assuming exactly one master and one media entry.
func (d *DRMSystem) FromNode(node *xmlnode.Node) bool {
	if node == nil {
		return false
	}
	if id := node.Attribute("id"); id != "" {
		d.id = id
	}

	kid, err := guidToBytes(node.Attribute("kid"))
	if err != nil {
		logError("DRMSystem.FromNode", err)
		return false
	}
	d.Kid = mp4.UUID(kid)

	systemID, err := guidToBytes(node.Attribute("systemId"))
	if err != nil {
		logError("DRMSystem.FromNode", err)
		return false
	}
	d.SystemID = mp4.UUID(systemID)

	decodeB64Child := func(name string) ([]byte, bool) {
		child := node.FirstChildByName(name)
		if child == nil {
			return nil, true
		}
		b, err := base64ToBytes(child.Content())
		if err != nil {
			logError("DRMSystem.FromNode", err)
			return nil, false
		}
		return b, true
	}

	var ok bool
	if d.PSSH, ok = decodeB64Child("PSSH"); !ok {
		return false
	}
	if d.ContentProtectionData, ok = decodeB64Child("ContentProtectionData"); !ok {
		return false
	}
	if d.URIExtXKey, ok = decodeB64Child("URIExtXKey"); !ok {
		return false
	}

	for _, hls := range node.ChildrenByName("HLSSignalingData") {
		b, err := base64ToBytes(hls.Content())
		if err != nil {
			logError("DRMSystem.FromNode", err)
			return false
		}
		if hls.Attribute("playlist") == "master" {
			d.HLSSignalingMaster = b
		} else {
			d.HLSSignalingMedia = b
		}
	}

	if d.SmoothStreamingData, ok = decodeB64Child("SmoothStreamingProtectionHeaderData"); !ok {
		return false
	}
	if d.HDSSignalingData, ok = decodeB64Child("HDSSignalingData"); !ok {
		return false
	}

	return true
}

// drmSystemList is the <DRMSystemList> child-element collection.
type drmSystemList struct {
	*elementList[*DRMSystem]
}

func newDRMSystemList() *drmSystemList {
	return &drmSystemList{newElementList("DRMSystemList", func() *DRMSystem { return &DRMSystem{} })}
}

// AddDRMSystem validates and appends drm.
func (l *drmSystemList) AddDRMSystem(drm *DRMSystem) bool {
	if len(drm.SystemID) == 0 || len(drm.Kid) == 0 {
		logRejected("DRMSystemList.AddDRMSystem", "system id or kid is empty")
		return false
	}
	l.Add(drm)
	return true
}
