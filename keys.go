package ntag424

import (
	"bufio"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/google/uuid"
)

// KeyFile is a key loaded from a .hex file on disk.
type KeyFile struct {
	Name string
	Key  []byte
}

// LoadKeyHexFile loads a 16-byte AES key from a file containing a single
// line of 32 hex characters.
func LoadKeyHexFile(path string) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if len(line) != 32 {
			return nil, fmt.Errorf("key must be 32 hex chars, got %d", len(line))
		}
		key, err := hex.DecodeString(line)
		if err != nil {
			return nil, fmt.Errorf("invalid hex key: %w", err)
		}
		return key, nil
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return nil, fmt.Errorf("key file is empty")
}

// LoadAllHexKeys loads every .hex key file in dir, skipping invalid files.
func LoadAllHexKeys(dir string) ([]KeyFile, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	var keys []KeyFile
	for _, e := range entries {
		if e.IsDir() || strings.ToLower(filepath.Ext(e.Name())) != ".hex" {
			continue
		}
		path := filepath.Join(dir, e.Name())
		key, err := LoadKeyHexFile(path)
		if err != nil {
			continue
		}
		keys = append(keys, KeyFile{Name: e.Name(), Key: key})
	}
	return keys, nil
}

// ChangeKey changes a key via DESFire ChangeKey (0xC4), sent under CommMode
// Full (§6). For key number 0, the payload is `newKey ‖ newKeyVersion` — no
// XOR, no CRC, since slot 0 never needs cross-check against another key's
// diversification. For any other key number, the payload is
// `(oldKey XOR newKey) ‖ newKeyVersion ‖ JAMCRC32(newKey) LE`. Changing the
// key currently authenticated against invalidates sess; the caller must not
// reuse it afterward.
func ChangeKey(card Card, sess *Session, keyNo byte, oldKey, newKey []byte, newKeyVersion byte) error {
	if len(newKey) != 16 {
		return &ValidationError{Field: "new_key", Reason: "must be 16 bytes"}
	}

	var keyData []byte
	if keyNo == 0 {
		keyData = make([]byte, 17)
		copy(keyData, newKey)
		keyData[16] = newKeyVersion
	} else {
		if len(oldKey) != 16 {
			return &ValidationError{Field: "old_key", Reason: "must be 16 bytes"}
		}
		keyData = make([]byte, 21)
		for i := 0; i < 16; i++ {
			keyData[i] = oldKey[i] ^ newKey[i]
		}
		keyData[16] = newKeyVersion
		crc := JamCRC32(newKey)
		keyData[17] = byte(crc)
		keyData[18] = byte(crc >> 8)
		keyData[19] = byte(crc >> 16)
		keyData[20] = byte(crc >> 24)
	}

	cr, err := Send(card, sess, 0xC4, []byte{keyNo}, keyData, CommModeFull)
	if err != nil {
		return err
	}
	if !cr.IsOK() {
		return &SWError{Cmd: 0xC4, SW: cr.Status()}
	}
	return nil
}

// SessionFromEnv builds a Session from raw key/TI material, for driving
// the dispatcher against a pre-authenticated session in tests and
// diagnostics without running AuthenticateEV2First.
func SessionFromEnv(kencHex, kmacHex, tiHex, cmdCtrHex string) (*Session, error) {
	if len(kencHex) != 32 || len(kmacHex) != 32 || len(tiHex) != 8 {
		return nil, fmt.Errorf("kenc/kmac must be 32 hex chars, ti must be 8 hex chars")
	}

	kenc, err := hex.DecodeString(kencHex)
	if err != nil {
		return nil, fmt.Errorf("kenc invalid hex: %w", err)
	}
	kmac, err := hex.DecodeString(kmacHex)
	if err != nil {
		return nil, fmt.Errorf("kmac invalid hex: %w", err)
	}
	ti, err := hex.DecodeString(tiHex)
	if err != nil {
		return nil, fmt.Errorf("ti invalid hex: %w", err)
	}

	s := &Session{CorrelationID: uuid.New()}
	copy(s.kenc[:], kenc)
	copy(s.kmac[:], kmac)
	copy(s.ti[:], ti)

	if cmdCtrHex != "" {
		ctr, err := strconv.ParseUint(cmdCtrHex, 16, 16)
		if err != nil {
			return nil, fmt.Errorf("cmd_ctr invalid hex: %w", err)
		}
		s.cmdCtr = uint16(ctr)
	}
	return s, nil
}
