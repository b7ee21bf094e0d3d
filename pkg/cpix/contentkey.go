package cpix

import (
	"bytes"

	"github.com/Eyevinn/mp4ff/mp4"
	"github.com/google/cpix-go/internal/xmlnode"
)

const (
	xmlencAES256CBC = "http://www.w3.org/2001/04/xmlenc#aes256-cbc"
)

// ContentKey is a single encryption key plus the KID it protects. KeyValue
// holds the clear key until a document key wraps it on serialization; after
// that (or after parsing a document that was never decrypted) IsEncrypted
// is true and KeyValue holds the AES-256-CBC ciphertext instead.
type ContentKey struct {
	baseElement
	Kid         mp4.UUID
	KeyValue    []byte
	IsEncrypted bool
	ExplicitIV  []byte
}

// NewContentKey builds a ContentKey from a KID and a clear key value. The
// key starts out unencrypted; (*CPIXMessage).ToString (via ToNode) wraps it
// under the document key if the message carries any Recipient.
func NewContentKey(kid mp4.UUID, clearKeyValue []byte) *ContentKey {
	return &ContentKey{Kid: kid, KeyValue: clearKeyValue}
}

// setEncryptedKeyValue records value as already-wrapped key material. Used
// only by the serialize pipeline once it has AES-wrapped KeyValue under the
// document key.
func (c *ContentKey) setEncryptedKeyValue(value []byte) {
	c.IsEncrypted = true
	c.KeyValue = value
}

// ToNode builds this key's <ContentKey> element, or nil if Kid or KeyValue
// is unset (a ContentKey with no key material cannot be represented).
func (c *ContentKey) ToNode() *xmlnode.Node {
	if len(c.Kid) == 0 || len(c.KeyValue) == 0 {
		return nil
	}

	root := xmlnode.New("", "ContentKey")
	if c.id != "" {
		root.AddAttribute("id", c.id)
	}
	root.AddAttribute("kid", bytesToGUID(c.Kid))

	var value *xmlnode.Node
	if c.IsEncrypted {
		value = xmlnode.New("pskc", "EncryptedValue")

		encryptionMethod := xmlnode.New("enc", "EncryptionMethod")
		encryptionMethod.AddAttribute("Algorithm", xmlencAES256CBC)

		cipherData := xmlnode.New("enc", "CipherData")
		cipherValue := xmlnode.New("enc", "CipherValue")
		cipherValue.SetContent(bytesToBase64(c.KeyValue))
		cipherData.AddChild(cipherValue)

		value.AddChild(encryptionMethod)
		value.AddChild(cipherData)

		if len(c.ExplicitIV) > 0 {
			root.AddAttribute("explicitIV", bytesToBase64(c.ExplicitIV))
		}
	} else {
		value = xmlnode.New("pskc", "PlainValue")
		value.SetContent(bytesToBase64(c.KeyValue))
	}

	secret := xmlnode.New("pskc", "Secret")
	secret.AddChild(value)

	data := xmlnode.New("", "Data")
	data.AddChild(secret)

	root.AddChild(data)
	return root
}

// FromNode rebuilds a ContentKey from a parsed <ContentKey> element.
func (c *ContentKey) FromNode(node *xmlnode.Node) bool {
	if node == nil {
		return false
	}
	if id := node.Attribute("id"); id != "" {
		c.id = id
	}

	kid, err := guidToBytes(node.Attribute("kid"))
	if err != nil {
		logError("ContentKey.FromNode", err)
		return false
	}
	c.Kid = mp4.UUID(kid)

	if iv := node.Attribute("explicitIV"); iv != "" {
		b, err := base64ToBytes(iv)
		if err != nil {
			logError("ContentKey.FromNode", err)
			return false
		}
		c.ExplicitIV = b
	}

	secret := node.Descendant("Data", "Secret")
	if secret == nil {
		return false
	}

	if plain := secret.FirstChildByName("PlainValue"); plain != nil {
		b, err := base64ToBytes(plain.Content())
		if err != nil {
			logError("ContentKey.FromNode", err)
			return false
		}
		c.KeyValue = b
		c.IsEncrypted = false
		return true
	}

	cipherValue := secret.Descendant("EncryptedValue", "CipherData", "CipherValue")
	if cipherValue == nil {
		return false
	}
	b, err := base64ToBytes(cipherValue.Content())
	if err != nil {
		logError("ContentKey.FromNode", err)
		return false
	}
	c.KeyValue = b
	c.IsEncrypted = true
	return true
}

// contentKeyList is the <ContentKeyList> child-element collection.
type contentKeyList struct {
	*elementList[*ContentKey]
}

func newContentKeyList() *contentKeyList {
	return &contentKeyList{newElementList("ContentKeyList", func() *ContentKey { return &ContentKey{} })}
}

// AddContentKey validates and appends key, matching the original's
// "refuse if KID or key value is unset" contract.
func (l *contentKeyList) AddContentKey(key *ContentKey) bool {
	if len(key.Kid) == 0 || len(key.KeyValue) == 0 {
		logRejected("ContentKeyList.AddContentKey", "kid or key value is empty")
		return false
	}
	l.Add(key)
	return true
}

// FindContentKey returns the key matching kid, or nil if kid is empty or no
// key matches.
func (l *contentKeyList) FindContentKey(kid mp4.UUID) *ContentKey {
	if len(kid) == 0 {
		return nil
	}
	for _, k := range l.items {
		if bytes.Equal([]byte(k.Kid), []byte(kid)) {
			return k
		}
	}
	return nil
}

// decryptAll unwraps every key's KeyValue under decryptKey (the document
// key recovered via a Recipient's RSA-OAEP wrapping), using each key's
// ExplicitIV when present and the zero IV otherwise.
func (l *contentKeyList) decryptAll(decryptKey []byte) bool {
	if len(decryptKey) == 0 {
		return false
	}
	for _, k := range l.items {
		iv := zeroIV
		if len(k.ExplicitIV) > 0 {
			iv = k.ExplicitIV
		}
		plain, err := aesCBCDecrypt(decryptKey, iv, k.KeyValue)
		if err != nil {
			logError("ContentKeyList.decryptAll", err)
			return false
		}
		k.KeyValue = plain
		k.IsEncrypted = false
	}
	return true
}

// encryptAll wraps every key's clear KeyValue under encryptKey, using each
// key's ExplicitIV when present and the zero IV otherwise. Keys already
// marked IsEncrypted are left as they are.
func (l *contentKeyList) encryptAll(encryptKey []byte) bool {
	for _, k := range l.items {
		if k.IsEncrypted {
			continue
		}
		iv := k.ExplicitIV
		if len(iv) == 0 {
			iv = zeroIV
		}
		wrapped, err := aesCBCEncrypt(encryptKey, iv, k.KeyValue)
		if err != nil {
			logError("ContentKeyList.encryptAll", err)
			return false
		}
		k.setEncryptedKeyValue(wrapped)
	}
	return true
}
