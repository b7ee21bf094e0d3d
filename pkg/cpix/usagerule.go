package cpix

import (
	"strconv"

	"github.com/Eyevinn/mp4ff/mp4"
	"github.com/google/cpix-go/internal/xmlnode"
)

// VideoFilter matches content by resolution, dynamic range, and frame rate.
// A field of -1 means "unconstrained".
type VideoFilter struct {
	MinPixels int
	MaxPixels int
	HDR       bool
	WCG       bool
	MinFPS    int
	MaxFPS    int
}

func NewVideoFilter() VideoFilter {
	return VideoFilter{MinPixels: -1, MaxPixels: -1, MinFPS: -1, MaxFPS: -1}
}

// AudioFilter matches content by channel count.
type AudioFilter struct {
	MinChannels int
	MaxChannels int
}

func NewAudioFilter() AudioFilter {
	return AudioFilter{MinChannels: -1, MaxChannels: -1}
}

// BitrateFilter matches content by encoded bitrate.
type BitrateFilter struct {
	MinBitrate int
	MaxBitrate int
}

func NewBitrateFilter() BitrateFilter {
	return BitrateFilter{MinBitrate: -1, MaxBitrate: -1}
}

// UsageRule maps one ContentKey, through Kid, to the media contexts it
// applies to via a set of filters.
type UsageRule struct {
	baseElement
	Kid               mp4.UUID
	IntendedTrackType string
	LabelFilters      []string
	VideoFilters      []VideoFilter
	AudioFilters      []AudioFilter
	BitrateFilters    []BitrateFilter
	KeyPeriodIDs      []string
}

// AddLabelFilter appends a label filter; labels are free-form and never
// rejected.
func (u *UsageRule) AddLabelFilter(label string) bool {
	u.LabelFilters = append(u.LabelFilters, label)
	return true
}

// AddVideoFilter appends filter, rejecting it if its min/max pixel or fps
// bounds are inverted.
func (u *UsageRule) AddVideoFilter(filter VideoFilter) bool {
	if (filter.MinPixels > filter.MaxPixels && filter.MaxPixels != -1) ||
		(filter.MinFPS > filter.MaxFPS && filter.MaxFPS != -1) {
		logRejected("UsageRule.AddVideoFilter", "invalid video filter parameters")
		return false
	}
	u.VideoFilters = append(u.VideoFilters, filter)
	return true
}

// AddAudioFilter appends filter, rejecting it if its channel bounds are
// inverted.
func (u *UsageRule) AddAudioFilter(filter AudioFilter) bool {
	if filter.MinChannels > filter.MaxChannels && filter.MaxChannels != -1 {
		logRejected("UsageRule.AddAudioFilter", "invalid audio filter parameters")
		return false
	}
	u.AudioFilters = append(u.AudioFilters, filter)
	return true
}

// AddBitrateFilter appends filter, rejecting it if its bitrate bounds are
// inverted.
func (u *UsageRule) AddBitrateFilter(filter BitrateFilter) bool {
	if filter.MinBitrate > filter.MaxBitrate && filter.MaxBitrate != -1 {
		logRejected("UsageRule.AddBitrateFilter", "invalid bitrate filter parameters")
		return false
	}
	u.BitrateFilters = append(u.BitrateFilters, filter)
	return true
}

// AddKeyPeriodFilter appends a reference to a KeyPeriod by id. The id is
// expected to match a KeyPeriod already present in the document's
// ContentKeyPeriodList, but that is not checked here.
func (u *UsageRule) AddKeyPeriodFilter(id string) bool {
	u.KeyPeriodIDs = append(u.KeyPeriodIDs, id)
	return true
}

// ToNode builds this rule's <ContentKeyUsageRule> element, or nil if Kid is
// unset.
func (u *UsageRule) ToNode() *xmlnode.Node {
	if len(u.Kid) == 0 {
		return nil
	}

	root := xmlnode.New("", "ContentKeyUsageRule")
	if u.id != "" {
		root.AddAttribute("id", u.id)
	}
	root.AddAttribute("kid", bytesToGUID(u.Kid))
	if u.IntendedTrackType != "" {
		root.AddAttribute("intendedTrackType", u.IntendedTrackType)
	}

	for _, periodID := range u.KeyPeriodIDs {
		child := xmlnode.New("", "KeyPeriodFilter")
		child.AddAttribute("periodId", periodID)
		root.AddChild(child)
	}

	for _, label := range u.LabelFilters {
		child := xmlnode.New("", "LabelFilter")
		child.AddAttribute("label", label)
		root.AddChild(child)
	}

	for _, filter := range u.VideoFilters {
		child := xmlnode.New("", "VideoFilter")
		if filter.MinPixels != -1 {
			child.AddAttribute("minPixels", strconv.Itoa(filter.MinPixels))
		}
		if filter.MaxPixels != -1 {
			child.AddAttribute("maxPixels", strconv.Itoa(filter.MaxPixels))
		}
		if filter.HDR {
			child.AddAttribute("hdr", "true")
		}
		if filter.WCG {
			child.AddAttribute("wcg", "true")
		}
		if filter.MinFPS != -1 {
			child.AddAttribute("minFps", strconv.Itoa(filter.MinFPS))
		}
		if filter.MaxFPS != -1 {
			child.AddAttribute("maxFps", strconv.Itoa(filter.MaxFPS))
		}
		root.AddChild(child)
	}

	for _, filter := range u.AudioFilters {
		child := xmlnode.New("", "AudioFilter")
		if filter.MinChannels != -1 {
			child.AddAttribute("minChannels", strconv.Itoa(filter.MinChannels))
		}
		if filter.MaxChannels != -1 {
			child.AddAttribute("maxChannels", strconv.Itoa(filter.MaxChannels))
		}
		root.AddChild(child)
	}

	for _, filter := range u.BitrateFilters {
		child := xmlnode.New("", "BitrateFilter")
		if filter.MinBitrate != -1 {
			child.AddAttribute("minBitrate", strconv.Itoa(filter.MinBitrate))
		}
		if filter.MaxBitrate != -1 {
			child.AddAttribute("maxBitrate", strconv.Itoa(filter.MaxBitrate))
		}
		root.AddChild(child)
	}

	return root
}

// FromNode rebuilds a UsageRule from a parsed <ContentKeyUsageRule>
// element. Filter bound validation (enforced by AddVideoFilter etc. on
// direct construction) is intentionally not repeated here: a document
// carrying an inverted filter still round-trips with its filters intact.
func (u *UsageRule) FromNode(node *xmlnode.Node) bool {
	if node == nil {
		return false
	}
	if id := node.Attribute("id"); id != "" {
		u.id = id
	}

	kid, err := guidToBytes(node.Attribute("kid"))
	if err != nil {
		logError("UsageRule.FromNode", err)
		return false
	}
	u.Kid = mp4.UUID(kid)

	if trackType := node.Attribute("intendedTrackType"); trackType != "" {
		u.IntendedTrackType = trackType
	}

	for {
		child := node.FirstChildByName("KeyPeriodFilter")
		if child == nil {
			break
		}
		u.KeyPeriodIDs = append(u.KeyPeriodIDs, child.Attribute("periodId"))
	}

	for {
		child := node.FirstChildByName("LabelFilter")
		if child == nil {
			break
		}
		u.LabelFilters = append(u.LabelFilters, child.Attribute("label"))
	}

	for {
		child := node.FirstChildByName("VideoFilter")
		if child == nil {
			break
		}
		filter := NewVideoFilter()
		if v := child.Attribute("minPixels"); v != "" {
			filter.MinPixels, err = strconv.Atoi(v)
			if err != nil {
				return false
			}
		}
		if v := child.Attribute("maxPixels"); v != "" {
			filter.MaxPixels, err = strconv.Atoi(v)
			if err != nil {
				return false
			}
		}
		filter.HDR = child.Attribute("hdr") == "true"
		filter.WCG = child.Attribute("wcg") == "true"
		if v := child.Attribute("minFps"); v != "" {
			filter.MinFPS, err = strconv.Atoi(v)
			if err != nil {
				return false
			}
		}
		if v := child.Attribute("maxFps"); v != "" {
			filter.MaxFPS, err = strconv.Atoi(v)
			if err != nil {
				return false
			}
		}
		u.VideoFilters = append(u.VideoFilters, filter)
	}

	for {
		child := node.FirstChildByName("AudioFilter")
		if child == nil {
			break
		}
		filter := NewAudioFilter()
		if v := child.Attribute("minChannels"); v != "" {
			filter.MinChannels, err = strconv.Atoi(v)
			if err != nil {
				return false
			}
		}
		if v := child.Attribute("maxChannels"); v != "" {
			filter.MaxChannels, err = strconv.Atoi(v)
			if err != nil {
				return false
			}
		}
		u.AudioFilters = append(u.AudioFilters, filter)
	}

	for {
		child := node.FirstChildByName("BitrateFilter")
		if child == nil {
			break
		}
		filter := NewBitrateFilter()
		if v := child.Attribute("minBitrate"); v != "" {
			filter.MinBitrate, err = strconv.Atoi(v)
			if err != nil {
				return false
			}
		}
		if v := child.Attribute("maxBitrate"); v != "" {
			filter.MaxBitrate, err = strconv.Atoi(v)
			if err != nil {
				return false
			}
		}
		u.BitrateFilters = append(u.BitrateFilters, filter)
	}

	return true
}

// usageRuleList is the <ContentKeyUsageRuleList> child-element collection.
type usageRuleList struct {
	*elementList[*UsageRule]
}

func newUsageRuleList() *usageRuleList {
	return &usageRuleList{newElementList("ContentKeyUsageRuleList", func() *UsageRule { return &UsageRule{} })}
}

// AddUsageRule validates and appends rule.
func (l *usageRuleList) AddUsageRule(rule *UsageRule) bool {
	if len(rule.Kid) == 0 {
		logRejected("UsageRuleList.AddUsageRule", "kid is empty")
		return false
	}
	l.Add(rule)
	return true
}
