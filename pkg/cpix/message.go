package cpix

import (
	"fmt"

	"github.com/Eyevinn/mp4ff/mp4"
	"github.com/google/cpix-go/internal/xmlnode"
)

const (
	xmlnsXSI  = "http://www.w3.org/2001/XMLSchema-instance"
	xmlnsXSD  = "http://www.w3.org/2001/XMLSchema"
	xmlnsCPIX = "urn:dashif:org:cpix"
	xmlnsDS   = "http://www.w3.org/2000/09/xmldsig#"
	xmlnsEnc  = "http://www.w3.org/2001/04/xmlenc#"
	xmlnsPSKC = "urn:ietf:params:xml:ns:keyprov:pskc"
)

// CPIXMessage is the root aggregate of a CPIX document: the set of content
// keys it protects, the DRM systems and usage rules and key periods that
// apply to them, and the recipients the document key is wrapped for.
//
// Name is parsed from a document's name attribute but never re-emitted on
// serialization; CPIX readers are expected to treat it as informational
// only, and this codec reserves the field rather than rendering it back.
type CPIXMessage struct {
	baseElement
	ContentID string
	Name      string

	documentKey []byte
	recipients  *recipientList
	contentKeys *contentKeyList
	drmSystems  *drmSystemList
	usageRules  *usageRuleList
	keyPeriods  *keyPeriodList
}

// NewCPIXMessage returns an empty CPIX document ready to have content keys,
// DRM systems, usage rules, key periods, and recipients added to it.
func NewCPIXMessage() *CPIXMessage {
	return &CPIXMessage{
		recipients:  newRecipientList(),
		contentKeys: newContentKeyList(),
		drmSystems:  newDRMSystemList(),
		usageRules:  newUsageRuleList(),
		keyPeriods:  newKeyPeriodList(),
	}
}

// ToString renders the document as an XML string, drawing a document key
// and wrapping it for every recipient (and every unencrypted content key
// under it) if the document carries any recipients.
func (m *CPIXMessage) ToString() (string, error) {
	node := m.ToNode()
	if node == nil {
		return "", newStructuralError("message failed to serialize")
	}
	return node.AsString()
}

// ToNode builds the <CPIX> root element, performing the same key-wrapping
// side effects as ToString.
func (m *CPIXMessage) ToNode() *xmlnode.Node {
	root := xmlnode.New("", "CPIX")
	root.AddAttribute("xmlns:xsi", xmlnsXSI)
	root.AddAttribute("xmlns:xsd", xmlnsXSD)
	root.AddAttribute("xmlns", xmlnsCPIX)
	root.AddAttribute("xmlns:ds", xmlnsDS)
	root.AddAttribute("xmlns:enc", xmlnsEnc)
	root.AddAttribute("xmlns:pskc", xmlnsPSKC)
	if m.ContentID != "" {
		root.AddAttribute("contentId", m.ContentID)
	}

	if m.recipients.Len() > 0 && len(m.documentKey) == 0 {
		key, err := randomBytes(aesKeySize)
		if err != nil {
			logError("CPIXMessage.ToNode", err)
			return nil
		}
		m.documentKey = key
	}

	for _, recipient := range m.recipients.Items() {
		if len(recipient.EncryptedDocumentKey) == 0 {
			if !recipient.wrapDocumentKey(m.documentKey) {
				logRejected("CPIXMessage.ToNode", "failed to wrap document key for a recipient")
				return nil
			}
		}
	}

	if len(m.documentKey) > 0 {
		if !m.contentKeys.encryptAll(m.documentKey) {
			logRejected("CPIXMessage.ToNode", "content key encryption failed")
			return nil
		}
	}

	root.AddChild(m.recipients.ToNode())
	root.AddChild(m.contentKeys.ToNode())
	root.AddChild(m.drmSystems.ToNode())
	root.AddChild(m.keyPeriods.ToNode())
	root.AddChild(m.usageRules.ToNode())

	return root
}

// FromString parses xml into a fresh CPIXMessage.
func FromString(xml string) (*CPIXMessage, error) {
	node, err := xmlnode.Parse(xml)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedXML, err)
	}
	m := NewCPIXMessage()
	if !m.FromNode(node) {
		return nil, ErrMalformedXML
	}
	return m, nil
}

// FromNode rebuilds a CPIXMessage from a parsed <CPIX> element.
func (m *CPIXMessage) FromNode(node *xmlnode.Node) bool {
	if node == nil {
		return false
	}
	if id := node.Attribute("id"); id != "" {
		m.id = id
	}
	if contentID := node.Attribute("contentId"); contentID != "" {
		m.ContentID = contentID
	}
	if name := node.Attribute("name"); name != "" {
		m.Name = name
	}

	if !m.recipients.FromNode(node.FirstChildByName("DeliveryDataList")) {
		return false
	}
	if !m.contentKeys.FromNode(node.FirstChildByName("ContentKeyList")) {
		return false
	}
	if !m.drmSystems.FromNode(node.FirstChildByName("DRMSystemList")) {
		return false
	}
	if !m.keyPeriods.FromNode(node.FirstChildByName("ContentKeyPeriodList")) {
		return false
	}
	if !m.usageRules.FromNode(node.FirstChildByName("ContentKeyUsageRuleList")) {
		return false
	}

	return true
}

// DecryptWith recovers the document key using privateKeyDER (a DER-encoded
// PKCS#1 or PKCS#8 RSA private key) against whichever Recipient it matches,
// then decrypts every content key under it. It returns
// ErrNoMatchingRecipient if privateKeyDER matches no recipient, or a
// CryptoError if decryption itself fails.
func (m *CPIXMessage) DecryptWith(privateKeyDER []byte) error {
	var matched *Recipient
	for _, recipient := range m.recipients.Items() {
		if recipient.matchesPrivateKey(privateKeyDER) {
			matched = recipient
			break
		}
	}
	if matched == nil {
		return ErrNoMatchingRecipient
	}

	documentKey := matched.unwrapDocumentKey(privateKeyDER)
	if len(documentKey) == 0 {
		return newCryptoError("CPIXMessage.DecryptWith", errDocumentKeyUnwrapFailed)
	}
	m.documentKey = documentKey

	if !m.contentKeys.decryptAll(documentKey) {
		return newCryptoError("CPIXMessage.DecryptWith", errContentKeyDecryptFailed)
	}
	return nil
}

// AddContentKey appends key to the document's ContentKeyList.
func (m *CPIXMessage) AddContentKey(key *ContentKey) bool {
	return m.contentKeys.AddContentKey(key)
}

// AddContentKeyWithRules appends key along with its associated DRM systems
// and usage rules, stamping each with key's KID. It is not transactional:
// if a DRM system or usage rule fails to add partway through, the content
// key and any already-added associations remain in the document.
func (m *CPIXMessage) AddContentKeyWithRules(key *ContentKey, drmSystems []*DRMSystem, rules []*UsageRule) bool {
	kid := key.Kid
	if !m.contentKeys.AddContentKey(key) {
		return false
	}

	for _, drm := range drmSystems {
		drm.Kid = kid
		if !m.drmSystems.AddDRMSystem(drm) {
			return false
		}
	}

	for _, rule := range rules {
		rule.Kid = kid
		if !m.usageRules.AddUsageRule(rule) {
			return false
		}
	}

	return true
}

// FindContentKey returns the content key matching kid, or nil.
func (m *CPIXMessage) FindContentKey(kid mp4.UUID) *ContentKey {
	return m.contentKeys.FindContentKey(kid)
}

// AddDRMSystem appends drm, refusing it if no content key matches its KID.
func (m *CPIXMessage) AddDRMSystem(drm *DRMSystem) bool {
	if m.contentKeys.FindContentKey(drm.Kid) == nil {
		logRejected("CPIXMessage.AddDRMSystem", "no content key matches this DRM system's kid")
		return false
	}
	return m.drmSystems.AddDRMSystem(drm)
}

// AddUsageRule appends rule, refusing it if no content key matches its KID.
func (m *CPIXMessage) AddUsageRule(rule *UsageRule) bool {
	if m.contentKeys.FindContentKey(rule.Kid) == nil {
		logRejected("CPIXMessage.AddUsageRule", "no content key matches this usage rule's kid")
		return false
	}
	return m.usageRules.AddUsageRule(rule)
}

// AddKeyPeriod appends period to the document's ContentKeyPeriodList.
func (m *CPIXMessage) AddKeyPeriod(period *KeyPeriod) bool {
	return m.keyPeriods.AddKeyPeriod(period)
}

// AddRecipient appends recipient to the document's DeliveryDataList.
func (m *CPIXMessage) AddRecipient(recipient *Recipient) bool {
	return m.recipients.AddRecipient(recipient)
}

// Recipients returns the document's DeliveryDataList entries, in document
// order.
func (m *CPIXMessage) Recipients() []*Recipient {
	return m.recipients.Items()
}

// ValidateXML reports whether xml is well-formed. Full XML-schema
// validation against schemaPath is out of scope for this codec; callers
// that need it should run the document through an external validator.
func ValidateXML(xml, schemaPath string) bool {
	_, err := xmlnode.Parse(xml)
	return err == nil
}
