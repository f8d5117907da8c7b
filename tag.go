package ntag424

// SelectFileMode is the bit-exact ISO 7816 SELECT FILE P1 selection mode.
type SelectFileMode byte

const (
	SelectMFDFEF          SelectFileMode = 0b000
	SelectChildDF         SelectFileMode = 0b001
	SelectEFUnderCurrentDF SelectFileMode = 0b010
	SelectParentDF        SelectFileMode = 0b011
	SelectByDFName        SelectFileMode = 0b100
	SelectFromMF          SelectFileMode = 0b1000
	SelectFromCurrentDF   SelectFileMode = 0b1001
)

// Standard file numbers and file IDs (§6).
const (
	FileNoCC   byte = 1
	FileNoNDEF byte = 2
	FileNoRaw  byte = 3

	FileIDCC   uint16 = 0xE103
	FileIDNDEF uint16 = 0xE104
	FileIDRaw  uint16 = 0xE105
)

// Tag is the host-side session engine over a single card: it owns the
// transport and the (possibly absent) authenticated session, and exposes
// the card command surface as methods (§6).
type Tag struct {
	card Card
	sess *Session
}

// NewTag wraps a transport with no session installed.
func NewTag(card Card) *Tag {
	return &Tag{card: card}
}

// Authenticate runs AuthenticateEV2First and installs the resulting
// session, replacing any session already installed.
func (t *Tag) Authenticate(keyNo byte, key []byte) error {
	sess, err := AuthenticateEV2First(t.card, key, keyNo)
	if err != nil {
		return err
	}
	t.sess = sess
	return nil
}

// IsAuthenticated reports whether a session is installed.
func (t *Tag) IsAuthenticated() bool {
	return t.sess != nil
}

// Session returns the installed session, or nil if unauthenticated.
func (t *Tag) Session() *Session {
	return t.sess
}

// GetUID issues the reader-level GET DATA command and returns the raw UID
// bytes preceding the status word.
func (t *Tag) GetUID() ([]byte, error) {
	return GetUID(t.card)
}

// SelectFile selects a file by ID under the given ISO selection mode.
// fileID must be at most 16 bytes; for the common 2-byte file IDs used
// elsewhere in this package, pass them as a 2-byte big-endian slice.
func (t *Tag) SelectFile(fileID []byte, mode SelectFileMode) error {
	if len(fileID) > 16 {
		return &ValidationError{Field: "file_id", Reason: "must be at most 16 bytes"}
	}
	apdu := append([]byte{0x00, 0xA4, byte(mode), 0x0C, byte(len(fileID))}, fileID...)
	_, sw, err := Transmit(t.card, apdu)
	if err != nil {
		return err
	}
	if !SwOK(sw) {
		return &SWError{Cmd: 0xA4, SW: sw}
	}
	return nil
}

// ReadStandardFile selects the NDEF EF (E1 04) and reads it via READ
// BINARY.
func (t *Tag) ReadStandardFile() ([]byte, error) {
	if err := SelectFile(t.card, FileIDNDEF); err != nil {
		return nil, err
	}
	return ReadBinary(t.card, 0x0000, 0x00)
}

// WriteStandardFile writes contents (at most 255 bytes) to the currently
// selected standard file via UPDATE BINARY. Empty contents elide the data
// field entirely.
func (t *Tag) WriteStandardFile(contents []byte) error {
	if len(contents) > 255 {
		return &ValidationError{Field: "contents", Reason: "must be at most 255 bytes"}
	}
	if len(contents) == 0 {
		apdu := []byte{0x00, 0xD6, 0x00, 0x00, 0x00}
		_, sw, err := Transmit(t.card, apdu)
		if err != nil {
			return err
		}
		if !SwOK(sw) {
			return &SWError{Cmd: 0xD6, SW: sw}
		}
		return nil
	}
	return WriteNDEFData(t.card, contents)
}

// GetFileSettings retrieves and decodes a file's settings.
func (t *Tag) GetFileSettings(fileNo byte) (*GetFileSettingsResult, error) {
	return GetFileSettings(t.card, t.sess, fileNo)
}

// GetFileSettingsRaw retrieves the raw GetFileSettings payload without
// decoding, for diagnostics. Tries plain first, falling back to CommMode
// Full, same as GetFileSettings.
func (t *Tag) GetFileSettingsRaw(fileNo byte) ([]byte, error) {
	apdu := []byte{0x90, 0xF5, 0x00, 0x00, 0x01, fileNo, 0x00}
	resp, sw, err := Transmit(t.card, apdu)
	if err == nil && SwOK(sw) {
		return resp, nil
	}
	cr, err := Send(t.card, t.sess, 0xF5, []byte{fileNo}, nil, CommModeFull)
	if err != nil {
		return nil, err
	}
	if !cr.IsOK() {
		return nil, &SWError{Cmd: 0xF5, SW: cr.Status()}
	}
	return cr.Data, nil
}

// SetFileSettings encodes and writes new file settings under CommMode Full.
func (t *Tag) SetFileSettings(fileNo byte, fs *FileSettings, params *TagParams) error {
	return ChangeFileSettings(t.card, t.sess, fileNo, fs, params)
}

// SetFileSettingsRaw writes a pre-encoded ChangeFileSettings payload under
// CommMode Full.
func (t *Tag) SetFileSettingsRaw(fileNo byte, data []byte) error {
	cr, err := Send(t.card, t.sess, 0x5F, []byte{fileNo}, data, CommModeFull)
	if err != nil {
		return err
	}
	if !cr.IsOK() {
		return &SWError{Cmd: 0x5F, SW: cr.Status()}
	}
	return nil
}

// GetCardUID retrieves the UID via native GetCardUID (0x51), which requires
// prior authentication (enforced card-side).
func (t *Tag) GetCardUID(mode CommMode) ([]byte, error) {
	cr, err := Send(t.card, t.sess, 0x51, nil, nil, mode)
	if err != nil {
		return nil, err
	}
	if !cr.IsOK() {
		return nil, &SWError{Cmd: 0x51, SW: cr.Status()}
	}
	if len(cr.Data) != 7 {
		return nil, &MalformedResponseError{Len: len(cr.Data), Reason: "get_card_uid expects 7 bytes"}
	}
	return cr.Data, nil
}

// SetConfiguration applies a configuration update, always under CommMode
// Full.
func (t *Tag) SetConfiguration(update ConfigurationUpdate) error {
	return SetConfiguration(t.card, t.sess, update)
}

// GetKeyVersion reads a key slot's version byte under CommMode Mac.
func (t *Tag) GetKeyVersion(keyNo byte) (byte, error) {
	return GetKeyVersion(t.card, t.sess, keyNo)
}

// GetFileCounters reads a file's SDM read counter under CommMode Full.
func (t *Tag) GetFileCounters(fileNo byte) (uint32, error) {
	return GetFileCounters(t.card, t.sess, fileNo)
}

// WriteDataAt writes to a standard data file at offset under mode.
func (t *Tag) WriteDataAt(mode CommMode, fileNo byte, data []byte, offset int) error {
	return WriteData(t.card, t.sess, mode, fileNo, data, offset)
}

// ChangeKey changes a key slot, invalidating the session if keyNo is the
// slot currently authenticated against.
func (t *Tag) ChangeKey(keyNo byte, oldKey, newKey []byte, newKeyVersion byte) error {
	if err := ChangeKey(t.card, t.sess, keyNo, oldKey, newKey, newKeyVersion); err != nil {
		return err
	}
	if t.sess != nil && keyNo == t.sess.KeyNo {
		t.sess = nil
	}
	return nil
}
