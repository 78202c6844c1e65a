package discovery

import (
	"fmt"
	"slices"
	"strconv"
	"strings"
)

// TXTRecordMap is a map of TXT record key-value pairs.
type TXTRecordMap map[string]string

// EncodeHubTXT creates TXT records for hub discovery.
func EncodeHubTXT(info *HubInfo) TXTRecordMap {
	return TXTRecordMap{
		TXTKeyNetwork: info.Network,
		TXTKeyChannel: strconv.FormatUint(uint64(info.Channel), 16),
		TXTKeyVersion: strconv.Itoa(HubVersion),
	}
}

// DecodeHubTXT parses TXT records from hub discovery.
func DecodeHubTXT(txt TXTRecordMap) (*HubInfo, error) {
	info := &HubInfo{}

	var ok bool
	info.Network, ok = txt[TXTKeyNetwork]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrMissingRequired, TXTKeyNetwork)
	}

	chStr, ok := txt[TXTKeyChannel]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrMissingRequired, TXTKeyChannel)
	}
	ch, err := strconv.ParseUint(chStr, 16, 8)
	if err != nil {
		return nil, fmt.Errorf("%w: channel %q", ErrInvalidTXTRecord, chStr)
	}
	info.Channel = byte(ch)

	// Hubs that predate the version key speak version 1.
	if vStr, ok := txt[TXTKeyVersion]; ok {
		v, err := strconv.Atoi(vStr)
		if err != nil {
			return nil, fmt.Errorf("%w: version %q", ErrInvalidTXTRecord, vStr)
		}
		if v != HubVersion {
			return nil, fmt.Errorf("%w: %d", ErrUnsupportedVersion, v)
		}
	}

	return info, nil
}

// TXTRecordsToStrings converts a TXTRecordMap to a sorted slice of
// "key=value" strings.
func TXTRecordsToStrings(txt TXTRecordMap) []string {
	result := make([]string, 0, len(txt))
	for k, v := range txt {
		result = append(result, fmt.Sprintf("%s=%s", k, v))
	}
	slices.Sort(result)
	return result
}

// StringsToTXTRecords parses a slice of "key=value" strings into a TXTRecordMap.
func StringsToTXTRecords(strs []string) TXTRecordMap {
	txt := make(TXTRecordMap)
	for _, s := range strs {
		parts := strings.SplitN(s, "=", 2)
		if len(parts) == 2 {
			txt[parts[0]] = parts[1]
		} else if len(parts) == 1 && parts[0] != "" {
			// Key without value (boolean flag)
			txt[parts[0]] = ""
		}
	}
	return txt
}

// ValidateInstanceName checks if an instance name is valid for mDNS.
func ValidateInstanceName(name string) error {
	if name == "" {
		return fmt.Errorf("%w: empty name", ErrInstanceNameTooLong)
	}
	if len(name) > MaxInstanceNameLen {
		return ErrInstanceNameTooLong
	}
	return nil
}
