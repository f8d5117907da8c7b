package ntag424

import (
	"fmt"
	"log/slog"
)

// ReadBinary reads from the currently selected file via ISO 7816 READ
// BINARY (0xB0), retrying once with the corrected Le if the card replies
// with "wrong Le" (SW=6Cxx). READ BINARY never carries DESFire secure
// messaging — use ReadFileDataSecure for files that require authentication.
func ReadBinary(card Card, offset uint16, le byte) ([]byte, error) {
	apdu := []byte{0x00, 0xB0, byte(offset >> 8), byte(offset), le}
	data, sw, err := Transmit(card, apdu)
	if err != nil {
		return nil, err
	}

	if (sw & 0xFF00) == SWWrongLe {
		correctLe := byte(sw)
		slog.Warn("wrong Le, retrying", "original_le", apdu[4], "correct_le", correctLe)
		apdu[4] = correctLe
		data, sw, err = Transmit(card, apdu)
		if err != nil {
			return nil, err
		}
	}

	if !SwOK(sw) {
		return nil, &SWError{Cmd: 0xB0, SW: sw}
	}
	return data, nil
}

// ReadNDEF reads the full NDEF message from the NDEF file (selecting the
// NDEF app, then the capability container to discover the NDEF file ID,
// then the NDEF file itself), stripping the 2-byte NLEN header.
func ReadNDEF(card Card) ([]byte, error) {
	if err := SelectNDEFApp(card); err != nil {
		return nil, err
	}
	if err := SelectFile(card, 0xE103); err != nil {
		return nil, err
	}
	cc, err := ReadBinary(card, 0x0000, 0x0F)
	if err != nil {
		return nil, err
	}
	if len(cc) < 15 {
		return nil, &MalformedResponseError{Len: len(cc), Reason: "CC file too short"}
	}

	fileID := uint16(ndefFileID)
	if cc[7] == 0x04 && cc[8] >= 6 {
		fileID = uint16(cc[9])<<8 | uint16(cc[10])
	}

	if err := SelectFile(card, fileID); err != nil {
		return nil, err
	}

	nlenBytes, err := ReadBinary(card, 0x0000, 0x02)
	if err != nil {
		return nil, err
	}
	if len(nlenBytes) < 2 {
		return nil, &MalformedResponseError{Len: len(nlenBytes), Reason: "NLEN read too short"}
	}
	nlen := int(nlenBytes[0])<<8 | int(nlenBytes[1])
	if nlen == 0 {
		return []byte{}, nil
	}

	ndef := make([]byte, 0, nlen)
	offset := 2
	remaining := nlen
	for remaining > 0 {
		chunk := remaining
		if chunk > 0xFF {
			chunk = 0xFF
		}
		part, err := ReadBinary(card, uint16(offset), byte(chunk))
		if err != nil {
			return nil, err
		}
		if len(part) == 0 {
			break
		}
		ndef = append(ndef, part...)
		offset += len(part)
		remaining -= len(part)
	}
	return ndef, nil
}

// ReadFileDataPlain reads a standard data file via native ReadData (0xBD)
// with no secure messaging. Fails with SWSecurityNotSatisfied if the file's
// Read access right requires authentication.
func ReadFileDataPlain(card Card, fileNo byte, offset, length int) ([]byte, error) {
	apdu := []byte{0x90, 0xBD, 0x00, 0x00, 0x07,
		fileNo,
		byte(offset), byte(offset >> 8), byte(offset >> 16),
		byte(length), byte(length >> 8), byte(length >> 16),
		0x00}
	data, sw, err := Transmit(card, apdu)
	if err != nil {
		return nil, err
	}
	if !SwOK(sw) {
		return nil, &SWError{Cmd: 0xBD, SW: sw}
	}
	return data, nil
}

// ReadFileDataSecure reads a standard data file via native ReadData (0xBD)
// under CommMode Full. A boundary error (file smaller than requested) is
// treated as an empty read rather than an error, matching how a caller
// probing an unknown file size wants to use this.
func ReadFileDataSecure(card Card, sess *Session, fileNo byte, offset, length int) ([]byte, error) {
	header := []byte{fileNo,
		byte(offset), byte(offset >> 8), byte(offset >> 16),
		byte(length), byte(length >> 8), byte(length >> 16),
	}
	cr, err := Send(card, sess, 0xBD, header, nil, CommModeFull)
	if err != nil {
		if IsBoundaryError(err) {
			return []byte{}, nil
		}
		return nil, err
	}
	if !cr.IsOK() {
		if IsBoundaryError(&SWError{Cmd: 0xBD, SW: cr.Status()}) {
			return []byte{}, nil
		}
		return nil, &SWError{Cmd: 0xBD, SW: cr.Status()}
	}
	return cr.Data, nil
}

// ReadCCFile reads the Capability Container file (CC, file number 1, ID
// 0xE103), selecting the NDEF app first.
func ReadCCFile(card Card) ([]byte, error) {
	if err := SelectNDEFApp(card); err != nil {
		return nil, err
	}
	if err := SelectFile(card, 0xE103); err != nil {
		return nil, err
	}
	return ReadBinary(card, 0x0000, 0x20)
}

// GetFileCounters reads the SDM read counter for a file via native
// GetFileCounters (0xF6) under CommMode Full. Payload must be exactly 5
// bytes: a 3-byte LE counter followed by 2 reserved bytes that must be
// zero.
func GetFileCounters(card Card, sess *Session, fileNo byte) (uint32, error) {
	cr, err := Send(card, sess, 0xF6, []byte{fileNo}, nil, CommModeFull)
	if err != nil {
		return 0, err
	}
	if !cr.IsOK() {
		return 0, &SWError{Cmd: 0xF6, SW: cr.Status()}
	}
	if len(cr.Data) != 5 {
		return 0, &MalformedResponseError{Len: len(cr.Data), Reason: "get_file_counters expects 5 bytes"}
	}
	if cr.Data[3] != 0x00 || cr.Data[4] != 0x00 {
		return 0, fmt.Errorf("%w: get_file_counters reserved bytes", ErrRfuNonZero)
	}
	return readU24le(cr.Data, 0), nil
}

// GetKeyVersion reads a key's version byte via native GetKeyVersion (0x64)
// under CommMode Mac. Response payload must be exactly 1 byte.
func GetKeyVersion(card Card, sess *Session, keyNo byte) (byte, error) {
	cr, err := Send(card, sess, 0x64, []byte{keyNo}, nil, CommModeMAC)
	if err != nil {
		return 0, err
	}
	if !cr.IsOK() {
		return 0, &SWError{Cmd: 0x64, SW: cr.Status()}
	}
	if len(cr.Data) != 1 {
		return 0, &MalformedResponseError{Len: len(cr.Data), Reason: "get_key_version expects 1 byte"}
	}
	return cr.Data[0], nil
}

// WriteData writes to a standard data file via native WriteData (0x8D)
// under the given CommMode. Header is [file_number, offset u24 LE, length
// u24 LE] (§6); length is derived from len(data).
func WriteData(card Card, sess *Session, mode CommMode, fileNo byte, data []byte, offset int) error {
	length := len(data)
	header := []byte{fileNo,
		byte(offset), byte(offset >> 8), byte(offset >> 16),
		byte(length), byte(length >> 8), byte(length >> 16),
	}
	cr, err := Send(card, sess, 0x8D, header, data, mode)
	if err != nil {
		return err
	}
	if !cr.IsOK() {
		return &SWError{Cmd: 0x8D, SW: cr.Status()}
	}
	return nil
}
