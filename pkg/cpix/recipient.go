package cpix

import (
	"github.com/google/cpix-go/internal/xmlnode"
)

const (
	xmlencRSAOAEPMGF1P = "http://www.w3.org/2001/04/xmlenc#rsa-oaep-mgf1p"
)

// Recipient is a receiving entity identified by an X.509 certificate
// (DeliveryKey, DER-encoded). Once a document key has been wrapped for it,
// EncryptedDocumentKey holds the RSA-OAEP ciphertext.
type Recipient struct {
	baseElement
	DeliveryKey          []byte
	EncryptedDocumentKey []byte
}

// wrapDocumentKey RSA-OAEP encrypts key under the RSA public key carried by
// this recipient's certificate and stores the result.
func (r *Recipient) wrapDocumentKey(key []byte) bool {
	cert, err := x509ParseDER(r.DeliveryKey)
	if err != nil {
		logError("Recipient.wrapDocumentKey", err)
		return false
	}
	pub, err := certPublicKey(cert)
	if err != nil {
		logError("Recipient.wrapDocumentKey", err)
		return false
	}
	wrapped, err := rsaOAEPEncrypt(pub, key)
	if err != nil {
		logError("Recipient.wrapDocumentKey", err)
		return false
	}
	r.EncryptedDocumentKey = wrapped
	return true
}

// unwrapDocumentKey RSA-OAEP decrypts this recipient's EncryptedDocumentKey
// with privateKeyDER (a DER-encoded PKCS#1 or PKCS#8 RSA private key). It
// returns nil if privateKeyDER cannot be parsed or decryption fails, which
// (*CPIXMessage).DecryptWith reports as a CryptoError.
func (r *Recipient) unwrapDocumentKey(privateKeyDER []byte) []byte {
	priv, err := rsaLoadPrivateDER(privateKeyDER)
	if err != nil {
		return nil
	}
	plain, err := rsaOAEPDecrypt(priv, r.EncryptedDocumentKey)
	if err != nil {
		return nil
	}
	return plain
}

// matchesPrivateKey reports whether privateKeyDER's modulus matches this
// recipient's certificate's public key, i.e. whether it is the private key
// counterpart to DeliveryKey.
func (r *Recipient) matchesPrivateKey(privateKeyDER []byte) bool {
	cert, err := x509ParseDER(r.DeliveryKey)
	if err != nil {
		return false
	}
	pub, err := certPublicKey(cert)
	if err != nil {
		return false
	}
	priv, err := rsaLoadPrivateDER(privateKeyDER)
	if err != nil {
		return false
	}
	return rsaModulusEquals(pub, priv)
}

// CertificatePEM renders DeliveryKey, this recipient's DER-encoded X.509
// certificate, as a PEM block suitable for handing to other tools.
func (r *Recipient) CertificatePEM() []byte {
	return pemEncode(pemHeaderCertificate, r.DeliveryKey)
}

// ToNode builds this recipient's <DeliveryData> element, or nil if no
// document key has been wrapped for it yet.
func (r *Recipient) ToNode() *xmlnode.Node {
	if len(r.EncryptedDocumentKey) == 0 {
		return nil
	}

	root := xmlnode.New("", "DeliveryData")
	if r.id != "" {
		root.AddAttribute("id", r.id)
	}

	deliveryKey := xmlnode.New("", "DeliveryKey")
	x509Data := xmlnode.New("ds", "X509Data")
	x509Cert := xmlnode.New("ds", "X509Certificate")
	x509Cert.SetContent(bytesToBase64(r.DeliveryKey))
	x509Data.AddChild(x509Cert)
	deliveryKey.AddChild(x509Data)

	documentKey := xmlnode.New("", "DocumentKey")
	documentKey.AddAttribute("Algorithm", xmlencAES256CBC)

	encryptionMethod := xmlnode.New("enc", "EncryptionMethod")
	encryptionMethod.AddAttribute("Algorithm", xmlencRSAOAEPMGF1P)

	cipherValue := xmlnode.New("enc", "CipherValue")
	cipherValue.SetContent(bytesToBase64(r.EncryptedDocumentKey))

	cipherData := xmlnode.New("enc", "CipherData")
	cipherData.AddChild(cipherValue)

	encryptedValue := xmlnode.New("pskc", "EncryptedValue")
	encryptedValue.AddChild(encryptionMethod)
	encryptedValue.AddChild(cipherData)

	secret := xmlnode.New("pskc", "Secret")
	secret.AddChild(encryptedValue)

	data := xmlnode.New("", "Data")
	data.AddChild(secret)

	documentKey.AddChild(data)

	root.AddChild(deliveryKey)
	root.AddChild(documentKey)

	return root
}

// FromNode rebuilds a Recipient from a parsed <DeliveryData> element.
func (r *Recipient) FromNode(node *xmlnode.Node) bool {
	if node == nil {
		return false
	}
	if id := node.Attribute("id"); id != "" {
		r.id = id
	}

	cert := node.Descendant("DeliveryKey", "X509Data", "X509Certificate")
	if cert == nil {
		return false
	}
	deliveryKey, err := base64ToBytes(cert.Content())
	if err != nil {
		logError("Recipient.FromNode", err)
		return false
	}
	r.DeliveryKey = deliveryKey

	cipherValue := node.Descendant("DocumentKey", "Data", "Secret", "EncryptedValue", "CipherData", "CipherValue")
	if cipherValue == nil {
		return false
	}
	encryptedDocumentKey, err := base64ToBytes(cipherValue.Content())
	if err != nil {
		logError("Recipient.FromNode", err)
		return false
	}
	r.EncryptedDocumentKey = encryptedDocumentKey

	return true
}

// recipientList is the <DeliveryDataList> child-element collection.
type recipientList struct {
	*elementList[*Recipient]
}

func newRecipientList() *recipientList {
	return &recipientList{newElementList("DeliveryDataList", func() *Recipient { return &Recipient{} })}
}

// AddRecipient validates and appends recipient.
func (l *recipientList) AddRecipient(recipient *Recipient) bool {
	if len(recipient.DeliveryKey) == 0 {
		logRejected("RecipientList.AddRecipient", "delivery key is empty")
		return false
	}
	l.Add(recipient)
	return true
}
