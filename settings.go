package ntag424

import "fmt"

// FileAccessRights holds the four independent 4-bit access key fields of a
// standard data file (§3). Each is a key index 0..4, 0xE ("free"), or 0xF
// ("never").
type FileAccessRights struct {
	Read      byte
	Write     byte
	ReadWrite byte
	Change    byte
}

// SDMAccessRights holds the three 4-bit SDM access fields. FileRead is
// restricted to a key index or 0xF.
type SDMAccessRights struct {
	MetaRead         byte
	FileRead         byte
	CounterRetrieval byte
}

// EncryptedFileData is the optional encrypted-data mirror window inside
// SdmOptions.
type EncryptedFileData struct {
	Offset uint32
	Length uint32
}

// SdmOptions describes the optional Secure Dynamic Messaging offsets for a
// standard data file. Zero-value fields are distinguished from "absent" via
// the accompanying *Present bools so the codec can tell "offset 0" from
// "field not emitted".
type SdmOptions struct {
	UIDOffsetPresent bool
	UIDOffset        uint32

	ReadCounterOffsetPresent bool
	ReadCounterOffset        uint32

	PICCDataOffsetPresent bool
	PICCDataOffset        uint32

	MACInputOffsetPresent bool
	MACInputOffset        uint32

	MACOffsetPresent bool
	MACOffset        uint32

	EncryptedFileData *EncryptedFileData

	ReadCounterLimitPresent bool
	ReadCounterLimit        uint32

	// EncodingMode is always "ascii" — the only permitted value (§3).
	EncodingMode string

	Access SDMAccessRights
}

// FileSettings is the codec's in-memory representation of a standard data
// file's ChangeFileSettings payload (§3, §4.6).
type FileSettings struct {
	CommMode   CommMode
	Access     FileAccessRights
	SDMOptions *SdmOptions // nil means SDM disabled
}

// GetFileSettingsResult enriches FileSettings with the fields only present
// on a GetFileSettings response.
type GetFileSettingsResult struct {
	FileSettings
	FileType byte
	FileSize uint32
}

// TagParams carries the physical layout facts needed to range-check offset
// fields against the actual file (§4.6).
type TagParams struct {
	FileSize                int
	EncodedUIDLength        int
	EncodedReadCounterLength int
	PICCDataLength           int
}

// readU24le reads a 3-byte little-endian uint32 at offset.
func readU24le(data []byte, offset int) uint32 {
	return uint32(data[offset]) | uint32(data[offset+1])<<8 | uint32(data[offset+2])<<16
}

// u24le converts v to a 3-byte little-endian slice. Callers must ensure v
// fits in 24 bits.
func u24le(v uint32) []byte {
	return []byte{byte(v & 0xFF), byte((v >> 8) & 0xFF), byte((v >> 16) & 0xFF)}
}

// SerializeFileSettings encodes fs into the ChangeFileSettings (0x5F) data
// payload, enforcing the tail ordering and range rules of §4.6. params is
// required whenever fs.SDMOptions is non-nil.
func SerializeFileSettings(fs *FileSettings, params *TagParams) ([]byte, error) {
	if !fs.CommMode.Valid() {
		return nil, &ValidationError{Field: "comm_mode", Reason: "invalid CommMode"}
	}

	sdmPresent := fs.SDMOptions != nil
	fileOption := byte(fs.CommMode)
	if sdmPresent {
		fileOption |= 0x40
	}

	accessPart1 := (fs.Access.ReadWrite << 4) | fs.Access.Change
	accessPart2 := (fs.Access.Read << 4) | fs.Access.Write

	out := []byte{fileOption, accessPart1, accessPart2}
	if !sdmPresent {
		return out, nil
	}

	sdm := fs.SDMOptions
	if params == nil {
		return nil, &ValidationError{Field: "tag_params", Reason: "required when SDMOptions present"}
	}
	if sdm.EncodingMode != "" && sdm.EncodingMode != "ascii" {
		return nil, &ValidationError{Field: "encoding_mode", Reason: "only \"ascii\" is permitted"}
	}

	var intSdmOptions byte
	if sdm.UIDOffsetPresent {
		intSdmOptions |= 0x80
	}
	if sdm.ReadCounterOffsetPresent {
		intSdmOptions |= 0x40
	}
	if sdm.ReadCounterLimitPresent {
		intSdmOptions |= 0x20
	}
	if sdm.EncryptedFileData != nil {
		intSdmOptions |= 0x10
	}
	intSdmOptions |= 0x01 // encoding == ascii

	sdmAccessLow := 0xF0 | (sdm.Access.CounterRetrieval & 0x0F)
	sdmAccessHigh := (sdm.Access.MetaRead << 4) | (sdm.Access.FileRead & 0x0F)

	out = append(out, intSdmOptions, sdmAccessLow, sdmAccessHigh)

	tail, err := serializeSdmTail(sdm, params)
	if err != nil {
		return nil, err
	}
	out = append(out, tail...)
	return out, nil
}

// serializeSdmTail emits the variable-length tail in the exact order and
// with the exact range checks named in §4.6.
func serializeSdmTail(sdm *SdmOptions, params *TagParams) ([]byte, error) {
	var tail []byte

	switch sdm.Access.MetaRead {
	case 0x0E:
		if sdm.UIDOffsetPresent {
			if err := checkRange("uid_offset", sdm.UIDOffset, 0, uint32(params.FileSize-params.EncodedUIDLength)); err != nil {
				return nil, err
			}
			tail = append(tail, u24le(sdm.UIDOffset)...)
		}
		if sdm.ReadCounterOffsetPresent {
			if err := checkRange("read_counter_offset", sdm.ReadCounterOffset, 0, uint32(params.FileSize-params.EncodedReadCounterLength)); err != nil {
				return nil, err
			}
			tail = append(tail, u24le(sdm.ReadCounterOffset)...)
		}
	case 0x0F:
		if sdm.PICCDataOffsetPresent {
			return nil, &ValidationError{Field: "picc_data_offset", Reason: "forbidden when meta_read is 0xF"}
		}
	default:
		if sdm.Access.MetaRead > 0x04 {
			return nil, &ValidationError{Field: "meta_read", Reason: "must be 0..4, 0xE, or 0xF"}
		}
		if !sdm.PICCDataOffsetPresent {
			return nil, &ValidationError{Field: "picc_data_offset", Reason: "required when meta_read is a key index"}
		}
		if err := checkRange("picc_data_offset", sdm.PICCDataOffset, 0, uint32(params.FileSize-params.PICCDataLength)); err != nil {
			return nil, err
		}
		tail = append(tail, u24le(sdm.PICCDataOffset)...)
	}

	if sdm.Access.FileRead != 0x0F {
		if !sdm.MACInputOffsetPresent || !sdm.MACOffsetPresent {
			return nil, &ValidationError{Field: "mac_input_offset/mac_offset", Reason: "required when file_read is not 0xF"}
		}
		if sdm.MACInputOffset > sdm.MACOffset {
			return nil, &ValidationError{Field: "mac_input_offset", Reason: "must be <= mac_offset"}
		}
		tail = append(tail, u24le(sdm.MACInputOffset)...)

		if sdm.EncryptedFileData != nil {
			enc := sdm.EncryptedFileData
			if enc.Offset < sdm.MACInputOffset || enc.Offset > sdm.MACOffset-32 {
				return nil, &ValidationError{Field: "encrypted_file_data.offset", Reason: "out of range"}
			}
			if enc.Length < 32 || enc.Length >= sdm.MACOffset-enc.Offset {
				return nil, &ValidationError{Field: "encrypted_file_data.length", Reason: "out of range"}
			}
			if enc.Length%32 != 0 {
				return nil, &ValidationError{Field: "encrypted_file_data.length", Reason: "must be a multiple of 32"}
			}
			tail = append(tail, u24le(enc.Offset)...)
			tail = append(tail, u24le(enc.Length)...)

			if sdm.MACOffset <= enc.Offset+enc.Length || sdm.MACOffset >= uint32(params.FileSize)-16 {
				return nil, &ValidationError{Field: "mac_offset", Reason: "out of range for encrypted block"}
			}
		} else {
			if sdm.MACOffset < sdm.MACInputOffset || sdm.MACOffset >= uint32(params.FileSize)-16 {
				return nil, &ValidationError{Field: "mac_offset", Reason: "out of range"}
			}
		}
		tail = append(tail, u24le(sdm.MACOffset)...)
	}

	if sdm.ReadCounterLimitPresent {
		tail = append(tail, u24le(sdm.ReadCounterLimit)...)
	}

	return tail, nil
}

func checkRange(field string, v, lo, hi uint32) error {
	if v < lo || v >= hi {
		return &ValidationError{Field: field, Reason: fmt.Sprintf("%d out of range [%d, %d)", v, lo, hi)}
	}
	return nil
}

// ParseFileSettings decodes a GetFileSettings response, mirroring
// SerializeFileSettings's field presence rules and enforcing §4.6's RFU and
// trailing-byte checks.
func ParseFileSettings(data []byte) (*GetFileSettingsResult, error) {
	if len(data) < 7 {
		return nil, &MalformedResponseError{Len: len(data), Reason: "file settings too short"}
	}

	fileType := data[0]
	if fileType != 0 {
		return nil, fmt.Errorf("%w: file_type %d", ErrUnsupportedVariant, fileType)
	}

	fileOption := data[1]
	if fileOption&0x3C != 0 {
		return nil, &ValidationError{Field: "file_option", Reason: "RFU bits 2..6 must be zero"}
	}

	mode, err := ParseCommMode(fileOption)
	if err != nil {
		return nil, err
	}

	ar1 := data[2]
	ar2 := data[3]
	access := FileAccessRights{
		ReadWrite: (ar1 >> 4) & 0x0F,
		Change:    ar1 & 0x0F,
		Read:      (ar2 >> 4) & 0x0F,
		Write:     ar2 & 0x0F,
	}
	fileSize := readU24le(data, 4)

	result := &GetFileSettingsResult{
		FileSettings: FileSettings{CommMode: mode, Access: access},
		FileType:     fileType,
		FileSize:     fileSize,
	}

	idx := 7
	if fileOption&0x40 == 0 {
		if idx != len(data) {
			return nil, fmt.Errorf("%w: %d leftover bytes", errTrailingBytes, len(data)-idx)
		}
		return result, nil
	}

	if len(data) < idx+3 {
		return nil, &MalformedResponseError{Len: len(data), Reason: "missing SDM fields"}
	}
	intSdmOptions := data[idx]
	sdmAccessLow := data[idx+1]
	sdmAccessHigh := data[idx+2]
	idx += 3

	sdm := &SdmOptions{
		Access: SDMAccessRights{
			MetaRead:         (sdmAccessHigh >> 4) & 0x0F,
			FileRead:         sdmAccessHigh & 0x0F,
			CounterRetrieval: sdmAccessLow & 0x0F,
		},
		EncodingMode: "ascii",
	}
	uidFlag := intSdmOptions&0x80 != 0
	ctrOffFlag := intSdmOptions&0x40 != 0
	ctrLimitFlag := intSdmOptions&0x20 != 0
	encFlag := intSdmOptions&0x10 != 0

	switch sdm.Access.MetaRead {
	case 0x0E:
		if uidFlag {
			if len(data) < idx+3 {
				return nil, &MalformedResponseError{Len: len(data), Reason: "missing uid_offset"}
			}
			sdm.UIDOffsetPresent = true
			sdm.UIDOffset = readU24le(data, idx)
			idx += 3
		}
		if ctrOffFlag {
			if len(data) < idx+3 {
				return nil, &MalformedResponseError{Len: len(data), Reason: "missing read_counter_offset"}
			}
			sdm.ReadCounterOffsetPresent = true
			sdm.ReadCounterOffset = readU24le(data, idx)
			idx += 3
		}
	case 0x0F:
		// no picc_data_offset
	default:
		if len(data) < idx+3 {
			return nil, &MalformedResponseError{Len: len(data), Reason: "missing picc_data_offset"}
		}
		sdm.PICCDataOffsetPresent = true
		sdm.PICCDataOffset = readU24le(data, idx)
		idx += 3
	}

	if sdm.Access.FileRead != 0x0F {
		if len(data) < idx+3 {
			return nil, &MalformedResponseError{Len: len(data), Reason: "missing mac_input_offset"}
		}
		sdm.MACInputOffsetPresent = true
		sdm.MACInputOffset = readU24le(data, idx)
		idx += 3

		if encFlag {
			if len(data) < idx+6 {
				return nil, &MalformedResponseError{Len: len(data), Reason: "missing encrypted_file_data"}
			}
			sdm.EncryptedFileData = &EncryptedFileData{
				Offset: readU24le(data, idx),
				Length: readU24le(data, idx+3),
			}
			idx += 6
		}

		if len(data) < idx+3 {
			return nil, &MalformedResponseError{Len: len(data), Reason: "missing mac_offset"}
		}
		sdm.MACOffsetPresent = true
		sdm.MACOffset = readU24le(data, idx)
		idx += 3
	}

	if ctrLimitFlag {
		if len(data) < idx+3 {
			return nil, &MalformedResponseError{Len: len(data), Reason: "missing read_counter_limit"}
		}
		sdm.ReadCounterLimitPresent = true
		sdm.ReadCounterLimit = readU24le(data, idx)
		idx += 3
	}

	if idx != len(data) {
		return nil, fmt.Errorf("%w: %d leftover bytes", errTrailingBytes, len(data)-idx)
	}

	result.SDMOptions = sdm
	return result, nil
}

var errTrailingBytes = fmt.Errorf("%w: trailing bytes after file settings", ErrMalformedResponse)

// GetFileSettings retrieves file settings, trying a plain read first and
// falling back to CommMode Full secure messaging, matching the two
// legitimate shapes a production deployment exposes for this command.
func GetFileSettings(card Card, sess *Session, fileNo byte) (*GetFileSettingsResult, error) {
	apdu := []byte{0x90, 0xF5, 0x00, 0x00, 0x01, fileNo, 0x00}
	resp, sw, err := Transmit(card, apdu)
	if err == nil && SwOK(sw) {
		return ParseFileSettings(resp)
	}
	plainSW := sw

	cr, err := Send(card, sess, 0xF5, []byte{fileNo}, nil, CommModeFull)
	if err != nil {
		return nil, fmt.Errorf("plain SW=%04X; secure: %w", plainSW, err)
	}
	if !cr.IsOK() {
		return nil, &SWError{Cmd: 0xF5, SW: cr.Status()}
	}
	return ParseFileSettings(cr.Data)
}

// ChangeFileSettings writes new file settings under CommMode Full.
func ChangeFileSettings(card Card, sess *Session, fileNo byte, fs *FileSettings, params *TagParams) error {
	data, err := SerializeFileSettings(fs, params)
	if err != nil {
		return err
	}
	cr, err := Send(card, sess, 0x5F, []byte{fileNo}, data, CommModeFull)
	if err != nil {
		return err
	}
	if !cr.IsOK() {
		return &SWError{Cmd: 0x5F, SW: cr.Status()}
	}
	return nil
}
