package cpix

import (
	"os"
	"testing"

	"github.com/stretchr/testify/require"
)

func testContentKey(t *testing.T) *ContentKey {
	t.Helper()
	keyValue, err := base64ToBytes("3iv9lYwafpe0uEmxDc6PSw==")
	require.NoError(t, err)
	return NewContentKey(testKID(t), keyValue)
}

func TestMessagePlainRoundTrip(t *testing.T) {
	msg := NewCPIXMessage()
	msg.ContentID = "content-1"
	require.True(t, msg.AddContentKey(testContentKey(t)))

	xml, err := msg.ToString()
	require.NoError(t, err)
	require.Contains(t, xml, "<CPIX ")
	require.Contains(t, xml, `contentId="content-1"`)
	require.Contains(t, xml, "pskc:PlainValue")

	restored, err := FromString(xml)
	require.NoError(t, err)
	require.Equal(t, "content-1", restored.ContentID)

	found := restored.FindContentKey(testKID(t))
	require.NotNil(t, found)
	require.False(t, found.IsEncrypted)
	keyValue, err := base64ToBytes("3iv9lYwafpe0uEmxDc6PSw==")
	require.NoError(t, err)
	require.Equal(t, keyValue, found.KeyValue)
}

func TestMessageEncryptedRoundTripMatchingKey(t *testing.T) {
	certDER, err := os.ReadFile("testdata/recipient1_cert.der")
	require.NoError(t, err)
	privDER, err := os.ReadFile("testdata/recipient1_key.der")
	require.NoError(t, err)

	msg := NewCPIXMessage()
	require.True(t, msg.AddContentKey(testContentKey(t)))
	require.True(t, msg.AddRecipient(&Recipient{DeliveryKey: certDER}))

	xml, err := msg.ToString()
	require.NoError(t, err)
	require.Contains(t, xml, "pskc:EncryptedValue")
	require.Contains(t, xml, "DeliveryDataList")

	restored, err := FromString(xml)
	require.NoError(t, err)

	found := restored.FindContentKey(testKID(t))
	require.NotNil(t, found)
	require.True(t, found.IsEncrypted)

	require.NoError(t, restored.DecryptWith(privDER))

	decrypted := restored.FindContentKey(testKID(t))
	require.False(t, decrypted.IsEncrypted)
	keyValue, err := base64ToBytes("3iv9lYwafpe0uEmxDc6PSw==")
	require.NoError(t, err)
	require.Equal(t, keyValue, decrypted.KeyValue)
}

func TestMessageEncryptedRoundTripWrongKey(t *testing.T) {
	certDER, err := os.ReadFile("testdata/recipient1_cert.der")
	require.NoError(t, err)
	wrongPrivDER, err := os.ReadFile("testdata/recipient2_key.der")
	require.NoError(t, err)

	msg := NewCPIXMessage()
	require.True(t, msg.AddContentKey(testContentKey(t)))
	require.True(t, msg.AddRecipient(&Recipient{DeliveryKey: certDER}))

	xml, err := msg.ToString()
	require.NoError(t, err)

	restored, err := FromString(xml)
	require.NoError(t, err)

	err = restored.DecryptWith(wrongPrivDER)
	require.ErrorIs(t, err, ErrNoMatchingRecipient)
}

func TestMessageAddDRMSystemRequiresMatchingContentKey(t *testing.T) {
	msg := NewCPIXMessage()
	require.False(t, msg.AddDRMSystem(&DRMSystem{Kid: testKID(t), SystemID: testSystemID(t)}))

	require.True(t, msg.AddContentKey(testContentKey(t)))
	require.True(t, msg.AddDRMSystem(&DRMSystem{Kid: testKID(t), SystemID: testSystemID(t)}))
}

func TestMessageAddUsageRuleRequiresMatchingContentKey(t *testing.T) {
	msg := NewCPIXMessage()
	require.False(t, msg.AddUsageRule(&UsageRule{Kid: testKID(t)}))

	require.True(t, msg.AddContentKey(testContentKey(t)))
	require.True(t, msg.AddUsageRule(&UsageRule{Kid: testKID(t)}))
}

func TestMessageAddContentKeyWithRulesIsNonTransactional(t *testing.T) {
	msg := NewCPIXMessage()
	key := testContentKey(t)
	goodDRM := &DRMSystem{SystemID: testSystemID(t)}
	// SystemID left empty: AddDRMSystem rejects this regardless of Kid,
	// since AddContentKeyWithRules stamps Kid onto it before adding.
	badDRM := &DRMSystem{}

	ok := msg.AddContentKeyWithRules(key, []*DRMSystem{goodDRM, badDRM}, nil)
	require.False(t, ok)

	// The content key and the DRM system added before the failure remain,
	// since AddContentKeyWithRules does not roll back on partial failure.
	require.NotNil(t, msg.FindContentKey(testKID(t)))
	require.Len(t, msg.drmSystems.Items(), 1)
	require.Same(t, goodDRM, msg.drmSystems.Items()[0])
}

func TestMessageKeyPeriodFilterRoundTrip(t *testing.T) {
	msg := NewCPIXMessage()
	require.True(t, msg.AddContentKey(testContentKey(t)))

	period := NewKeyPeriod()
	period.SetID("period1")
	period.SetIndex(0)
	require.True(t, msg.AddKeyPeriod(period))

	rule := &UsageRule{Kid: testKID(t)}
	require.True(t, rule.AddKeyPeriodFilter("period1"))
	require.True(t, msg.AddUsageRule(rule))

	xml, err := msg.ToString()
	require.NoError(t, err)
	require.Contains(t, xml, `index="0"`)
	require.Contains(t, xml, `periodId="period1"`)

	restored, err := FromString(xml)
	require.NoError(t, err)
	require.Len(t, restored.usageRules.Items(), 1)
	require.Equal(t, []string{"period1"}, restored.usageRules.Items()[0].KeyPeriodIDs)
}

func TestValidateXMLWellFormedness(t *testing.T) {
	require.True(t, ValidateXML("<CPIX></CPIX>", ""))
	require.False(t, ValidateXML("<CPIX>", ""))
}
