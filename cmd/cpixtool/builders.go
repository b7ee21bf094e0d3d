package main

import (
	"fmt"

	"github.com/google/cpix-go/pkg/cpix"
)

// buildContentKeys turns every contentKeySpec into a *cpix.ContentKey and
// adds it to msg, returning the keys in spec order for callers that need to
// attach DRM systems or usage rules to the same Kid.
func buildContentKeys(msg *cpix.CPIXMessage, specs []contentKeySpec) ([]*cpix.ContentKey, error) {
	keys := make([]*cpix.ContentKey, 0, len(specs))
	for _, ck := range specs {
		kid, err := resolveKid(ck.Kid)
		if err != nil {
			return nil, err
		}
		value, err := decodeKeyValue(ck)
		if err != nil {
			return nil, err
		}
		key := cpix.NewContentKey(kid, value)
		if !msg.AddContentKey(key) {
			return nil, fmt.Errorf("content key %x rejected", kid)
		}
		keys = append(keys, key)
	}
	return keys, nil
}

func buildDRMSystem(kid []byte, spec drmSystemSpec) (*cpix.DRMSystem, error) {
	systemID, err := decodeGUID(spec.SystemID)
	if err != nil {
		return nil, err
	}
	drm := &cpix.DRMSystem{Kid: kid, SystemID: systemID}
	for _, field := range []struct {
		dst *[]byte
		src string
	}{
		{&drm.ContentProtectionData, spec.ContentProtectionData},
		{&drm.PSSH, spec.PSSH},
		{&drm.HLSSignalingMaster, spec.HLSSignalingMaster},
		{&drm.HLSSignalingMedia, spec.HLSSignalingMedia},
		{&drm.HDSSignalingData, spec.HDSSignalingData},
		{&drm.SmoothStreamingData, spec.SmoothStreamingData},
		{&drm.URIExtXKey, spec.URIExtXKey},
	} {
		b, err := decodeB64(field.src)
		if err != nil {
			return nil, fmt.Errorf("drm system %q: %w", spec.SystemID, err)
		}
		*field.dst = b
	}
	return drm, nil
}

func buildUsageRule(kid []byte, spec usageRuleSpec) *cpix.UsageRule {
	rule := &cpix.UsageRule{Kid: kid}
	for _, label := range spec.LabelFilters {
		rule.AddLabelFilter(label)
	}
	for _, kp := range spec.KeyPeriodIDs {
		rule.AddKeyPeriodFilter(kp)
	}
	for _, v := range spec.VideoFilters {
		filter := cpix.NewVideoFilter()
		filter.MinPixels = v.MinPixels
		filter.MaxPixels = v.MaxPixels
		rule.AddVideoFilter(filter)
	}
	for _, a := range spec.AudioFilters {
		filter := cpix.NewAudioFilter()
		filter.MinChannels = a.MinChannels
		filter.MaxChannels = a.MaxChannels
		rule.AddAudioFilter(filter)
	}
	for _, b := range spec.BitrateFilters {
		filter := cpix.NewBitrateFilter()
		filter.MinBitrate = b.MinBps
		filter.MaxBitrate = b.MaxBps
		rule.AddBitrateFilter(filter)
	}
	return rule
}

func buildRecipients(msg *cpix.CPIXMessage, specs []recipientSpec) error {
	for _, r := range specs {
		der, err := decodeB64(r.CertDERBase64)
		if err != nil {
			return fmt.Errorf("recipient cert: %w", err)
		}
		if !msg.AddRecipient(&cpix.Recipient{DeliveryKey: der}) {
			return fmt.Errorf("recipient rejected: missing or invalid certificate")
		}
	}
	return nil
}

// buildClear emits content keys only, grounded on the original library's
// clear_content_keys example: no DRM systems, no usage rules.
func buildClear(spec buildSpec) (*cpix.CPIXMessage, error) {
	msg := cpix.NewCPIXMessage()
	msg.ContentID = spec.ContentID
	if _, err := buildContentKeys(msg, spec.ContentKeys); err != nil {
		return nil, err
	}
	if err := buildRecipients(msg, spec.Recipients); err != nil {
		return nil, err
	}
	return msg, nil
}

// buildDRM emits content keys with DRM systems, grounded on the original
// library's content_keys_with_drm_systems example.
func buildDRM(spec buildSpec) (*cpix.CPIXMessage, error) {
	msg := cpix.NewCPIXMessage()
	msg.ContentID = spec.ContentID
	keys, err := buildContentKeys(msg, spec.ContentKeys)
	if err != nil {
		return nil, err
	}
	for i, ckSpec := range spec.ContentKeys {
		for _, drmSpec := range ckSpec.DRMSystems {
			drm, err := buildDRMSystem(keys[i].Kid, drmSpec)
			if err != nil {
				return nil, err
			}
			if !msg.AddDRMSystem(drm) {
				return nil, fmt.Errorf("drm system %q rejected", drmSpec.SystemID)
			}
		}
	}
	if err := buildRecipients(msg, spec.Recipients); err != nil {
		return nil, err
	}
	return msg, nil
}

// buildRules emits content keys with usage rules and DRM systems, grounded
// on the original library's content_keys_with_usage_rules_and_drm_systems
// example.
func buildRules(spec buildSpec) (*cpix.CPIXMessage, error) {
	msg := cpix.NewCPIXMessage()
	msg.ContentID = spec.ContentID
	keys, err := buildContentKeys(msg, spec.ContentKeys)
	if err != nil {
		return nil, err
	}
	for i, ckSpec := range spec.ContentKeys {
		for _, drmSpec := range ckSpec.DRMSystems {
			drm, err := buildDRMSystem(keys[i].Kid, drmSpec)
			if err != nil {
				return nil, err
			}
			if !msg.AddDRMSystem(drm) {
				return nil, fmt.Errorf("drm system %q rejected", drmSpec.SystemID)
			}
		}
		for _, ruleSpec := range ckSpec.UsageRules {
			rule := buildUsageRule(keys[i].Kid, ruleSpec)
			if !msg.AddUsageRule(rule) {
				return nil, fmt.Errorf("usage rule for kid %x rejected", keys[i].Kid)
			}
		}
	}
	if err := buildRecipients(msg, spec.Recipients); err != nil {
		return nil, err
	}
	return msg, nil
}

// buildKeyPeriod emits content keys with key periods and period-scoped
// usage rules, grounded on the original library's
// content_keys_with_usage_rules_key_period example.
func buildKeyPeriod(spec buildSpec) (*cpix.CPIXMessage, error) {
	msg := cpix.NewCPIXMessage()
	msg.ContentID = spec.ContentID

	for _, kpSpec := range spec.KeyPeriods {
		period := cpix.NewKeyPeriod()
		if kpSpec.Start != "" || kpSpec.End != "" {
			period.SetInterval(kpSpec.Start, kpSpec.End)
		} else {
			period.SetIndex(kpSpec.Index)
		}
		period.SetID(kpSpec.ID)
		if !msg.AddKeyPeriod(period) {
			return nil, fmt.Errorf("key period %q rejected", kpSpec.ID)
		}
	}

	keys, err := buildContentKeys(msg, spec.ContentKeys)
	if err != nil {
		return nil, err
	}
	for i, ckSpec := range spec.ContentKeys {
		for _, ruleSpec := range ckSpec.UsageRules {
			rule := buildUsageRule(keys[i].Kid, ruleSpec)
			if !msg.AddUsageRule(rule) {
				return nil, fmt.Errorf("usage rule for kid %x rejected", keys[i].Kid)
			}
		}
	}
	return msg, nil
}

// buildPolicies emits content keys with rich usage-rule filter policies
// (video/audio/bitrate filters, no DRM systems), grounded on the original
// library's content_keys_with_usage_rules_policies example.
func buildPolicies(spec buildSpec) (*cpix.CPIXMessage, error) {
	msg := cpix.NewCPIXMessage()
	msg.ContentID = spec.ContentID
	keys, err := buildContentKeys(msg, spec.ContentKeys)
	if err != nil {
		return nil, err
	}
	for i, ckSpec := range spec.ContentKeys {
		for _, ruleSpec := range ckSpec.UsageRules {
			rule := buildUsageRule(keys[i].Kid, ruleSpec)
			if !msg.AddUsageRule(rule) {
				return nil, fmt.Errorf("usage rule for kid %x rejected", keys[i].Kid)
			}
		}
	}
	if err := buildRecipients(msg, spec.Recipients); err != nil {
		return nil, err
	}
	return msg, nil
}
