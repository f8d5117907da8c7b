package ntag424

import (
	"bytes"
	"fmt"
	"net/url"
	"strings"
)

const (
	sdmTextUIDLen = 14
	sdmTextCtrLen = 6
	sdmTextMacLen = 16
)

// SDMTextNDEF is an NDEF URI message templated with zero-filled uid/ctr/mac
// query parameters, plus the byte offsets GenerateSDMTextURL's tag-side
// counterpart mirrors into on each read.
type SDMTextNDEF struct {
	URL            string
	NDEF           []byte
	UIDOffset      uint32
	CtrOffset      uint32
	MACInputOffset uint32
	MACOffset      uint32
}

// BuildSDMTextNDEF constructs an NDEF URI record with SDM placeholders from
// a base URL, for provisioning a file whose SDM options point at the
// plaintext URL-mirroring scheme (see ParseSDMTextURL / VerifySDMTextMAC).
func BuildSDMTextNDEF(baseURL string) (*SDMTextNDEF, error) {
	parsed, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid URL: %w", err)
	}
	if parsed.Scheme == "" || parsed.Host == "" {
		return nil, fmt.Errorf("URL must be absolute (include scheme and host)")
	}
	parsed.Fragment = ""

	existing := parsed.Query()
	var params []string
	params = append(params, fmt.Sprintf("uid=%s", url.QueryEscape(strings.Repeat("0", sdmTextUIDLen))))
	params = append(params, fmt.Sprintf("ctr=%s", url.QueryEscape(strings.Repeat("0", sdmTextCtrLen))))
	params = append(params, fmt.Sprintf("mac=%s", url.QueryEscape(strings.Repeat("0", sdmTextMacLen))))
	for key, values := range existing {
		if key == "uid" || key == "ctr" || key == "mac" {
			continue
		}
		for _, value := range values {
			params = append(params, fmt.Sprintf("%s=%s", url.QueryEscape(key), url.QueryEscape(value)))
		}
	}
	parsed.RawQuery = strings.Join(params, "&")
	fullURL := parsed.String()

	prefixCode := byte(0x00)
	uri := fullURL
	for _, p := range []struct {
		prefix string
		code   byte
	}{
		{"https://www.", 0x02},
		{"http://www.", 0x01},
		{"https://", 0x04},
		{"http://", 0x03},
	} {
		if strings.HasPrefix(fullURL, p.prefix) {
			prefixCode = p.code
			uri = fullURL[len(p.prefix):]
			break
		}
	}

	payloadLen := 1 + len(uri)
	if payloadLen > 255 {
		return nil, fmt.Errorf("URI too long")
	}
	recordLen := 4 + payloadLen
	totalLen := 2 + recordLen
	if totalLen > 256 {
		return nil, fmt.Errorf("NDEF too long")
	}

	ndef := make([]byte, totalLen)
	ndef[0] = byte(recordLen >> 8)
	ndef[1] = byte(recordLen)
	ndef[2] = 0xD1 // TNF=well-known, MB=ME=SR=1
	ndef[3] = 0x01 // type length
	ndef[4] = byte(payloadLen)
	ndef[5] = 0x55 // type 'U'
	ndef[6] = prefixCode
	copy(ndef[7:], []byte(uri))

	uidIdx := bytes.Index(ndef, []byte("uid="))
	ctrIdx := bytes.Index(ndef, []byte("ctr="))
	macIdx := bytes.Index(ndef, []byte("mac="))
	if uidIdx < 0 || ctrIdx < 0 || macIdx < 0 {
		return nil, fmt.Errorf("failed to locate uid/ctr/mac in NDEF")
	}

	uidOffset := uidIdx + 4
	ctrOffset := ctrIdx + 4
	macOffset := macIdx + 4
	if uidOffset+sdmTextUIDLen > len(ndef) || ctrOffset+sdmTextCtrLen > len(ndef) || macOffset+sdmTextMacLen > len(ndef) {
		return nil, fmt.Errorf("offsets out of range")
	}

	return &SDMTextNDEF{
		URL:            fullURL,
		NDEF:           ndef,
		UIDOffset:      uint32(uidOffset),
		CtrOffset:      uint32(ctrOffset),
		MACInputOffset: uint32(uidIdx),
		MACOffset:      uint32(macOffset),
	}, nil
}
