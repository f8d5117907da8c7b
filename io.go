package ntag424

import "encoding/hex"

const (
	ndefFileID = 0xE104
	ndefAppAID = "D2760000850101"
)

// SelectNDEFApp selects the NFC Forum NDEF application (AID
// D2760000850101). Selecting an application invalidates any active
// authentication session — select before authenticating, or re-authenticate
// afterward.
func SelectNDEFApp(card Card) error {
	aid, _ := hex.DecodeString(ndefAppAID)
	apdu := append([]byte{0x00, 0xA4, 0x04, 0x00, byte(len(aid))}, aid...)
	apdu = append(apdu, 0x00)
	_, sw, err := Transmit(card, apdu)
	if err != nil {
		return err
	}
	if !SwOK(sw) {
		return &SWError{Cmd: 0xA4, SW: sw}
	}
	return nil
}

// SelectFile selects a file by its 16-bit ID via ISO 7816 SELECT FILE.
// Common IDs: 0xE103 (capability container), 0xE104 (NDEF), 0xE105
// (proprietary data). Selecting a file also invalidates the session.
func SelectFile(card Card, fileID uint16) error {
	apdu := []byte{0x00, 0xA4, 0x00, 0x0C, 0x02, byte(fileID >> 8), byte(fileID)}
	_, sw, err := Transmit(card, apdu)
	if err != nil {
		return err
	}
	if !SwOK(sw) {
		return &SWError{Cmd: 0xA4, SW: sw}
	}
	return nil
}

// WriteNDEFPlain selects the NDEF app and file, then writes data with no
// authentication.
func WriteNDEFPlain(card Card, data []byte) error {
	if err := SelectNDEFApp(card); err != nil {
		return err
	}
	if err := SelectFile(card, ndefFileID); err != nil {
		return err
	}
	return WriteNDEFData(card, data)
}

// WriteNDEFWithAuth writes NDEF data assuming the NDEF file is already
// selected and an authenticated session is active — it deliberately skips
// re-selecting, which would drop the session.
func WriteNDEFWithAuth(card Card, data []byte) error {
	return WriteNDEFData(card, data)
}

// WriteNDEFData writes data in up-to-255-byte chunks via ISO UPDATE BINARY
// (0xD6). Caller must have already selected the target file.
func WriteNDEFData(card Card, data []byte) error {
	offset := 0
	for offset < len(data) {
		chunk := len(data) - offset
		if chunk > 0xFF {
			chunk = 0xFF
		}

		apdu := make([]byte, 0, 5+chunk)
		apdu = append(apdu, 0x00, 0xD6, byte(offset>>8), byte(offset), byte(chunk))
		apdu = append(apdu, data[offset:offset+chunk]...)

		_, sw, err := Transmit(card, apdu)
		if err != nil {
			return err
		}
		if !SwOK(sw) {
			return &SWError{Cmd: 0xD6, SW: sw}
		}
		offset += chunk
	}
	return nil
}
