package ntag424

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/pbkdf2"
)

var newSHA256 = sha256.New

// KeyStore holds a set of named 16-byte AES keys (one per NTAG 424 key
// slot, typically) encrypted at rest under a passphrase-derived key.
type KeyStore struct {
	Keys map[string][]byte
}

// keystoreFile is the on-disk envelope: KDF parameters plus the AES-GCM
// sealed key material. It never stores the passphrase itself.
type keystoreFile struct {
	KDF        string `json:"kdf"` // "argon2id" or "pbkdf2-sha256"
	Salt       []byte `json:"salt"`
	Nonce      []byte `json:"nonce"`
	Ciphertext []byte `json:"ciphertext"`

	// Argon2id parameters.
	Memory      uint32 `json:"memory,omitempty"`
	Iterations  uint32 `json:"iterations,omitempty"`
	Parallelism uint8  `json:"parallelism,omitempty"`

	// PBKDF2 parameters.
	PBKDF2Iterations int `json:"pbkdf2_iterations,omitempty"`
}

const (
	kdfArgon2id     = "argon2id"
	kdfPBKDF2SHA256 = "pbkdf2-sha256"

	argon2Memory      = 64 * 1024
	argon2Iterations  = 3
	argon2Parallelism = 4
	pbkdf2Iterations  = 200_000

	kekSize = 32
)

// deriveKEK derives a 32-byte key-encryption-key from passphrase and salt
// using the named KDF.
func deriveKEK(kdf string, passphrase, salt []byte) ([]byte, error) {
	switch kdf {
	case kdfArgon2id:
		return argon2.IDKey(passphrase, salt, argon2Iterations, argon2Memory, argon2Parallelism, kekSize), nil
	case kdfPBKDF2SHA256:
		return pbkdf2Key(passphrase, salt, pbkdf2Iterations, kekSize), nil
	default:
		return nil, fmt.Errorf("%w: unknown KDF %q", ErrUnsupportedVariant, kdf)
	}
}

// pbkdf2Key is a thin indirection so the sha256 hash constructor stays in
// one place.
func pbkdf2Key(password, salt []byte, iter, keyLen int) []byte {
	return pbkdf2.Key(password, salt, iter, keyLen, newSHA256)
}

// SaveKeyStore encrypts ks under passphrase and writes it to path using
// Argon2id (the recommended KDF — PBKDF2 is kept for environments where
// Argon2id's memory cost is unacceptable, via SaveKeyStorePBKDF2; LoadKeyStore
// reads either).
func SaveKeyStore(path string, ks *KeyStore, passphrase []byte) error {
	plaintext, err := json.Marshal(ks.Keys)
	if err != nil {
		return err
	}

	salt := make([]byte, 16)
	if _, err := io.ReadFull(rand.Reader, salt); err != nil {
		return err
	}
	kek, err := deriveKEK(kdfArgon2id, passphrase, salt)
	if err != nil {
		return err
	}

	ciphertext, nonce, err := sealGCM(kek, plaintext)
	if err != nil {
		return err
	}

	file := keystoreFile{
		KDF:         kdfArgon2id,
		Salt:        salt,
		Nonce:       nonce,
		Ciphertext:  ciphertext,
		Memory:      argon2Memory,
		Iterations:  argon2Iterations,
		Parallelism: argon2Parallelism,
	}
	out, err := json.MarshalIndent(file, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, out, 0o600)
}

// SaveKeyStorePBKDF2 is identical to SaveKeyStore but derives the
// key-encryption-key with PBKDF2-HMAC-SHA256 instead of Argon2id, for
// environments where Argon2id's memory cost is unacceptable (e.g. a
// constrained CI runner rotating fleet keys).
func SaveKeyStorePBKDF2(path string, ks *KeyStore, passphrase []byte) error {
	plaintext, err := json.Marshal(ks.Keys)
	if err != nil {
		return err
	}

	salt := make([]byte, 16)
	if _, err := io.ReadFull(rand.Reader, salt); err != nil {
		return err
	}
	kek, err := deriveKEK(kdfPBKDF2SHA256, passphrase, salt)
	if err != nil {
		return err
	}

	ciphertext, nonce, err := sealGCM(kek, plaintext)
	if err != nil {
		return err
	}

	file := keystoreFile{
		KDF:              kdfPBKDF2SHA256,
		Salt:             salt,
		Nonce:            nonce,
		Ciphertext:       ciphertext,
		PBKDF2Iterations: pbkdf2Iterations,
	}
	out, err := json.MarshalIndent(file, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, out, 0o600)
}

// LoadKeyStore reads and decrypts the key store at path under passphrase.
func LoadKeyStore(path string, passphrase []byte) (*KeyStore, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var file keystoreFile
	if err := json.Unmarshal(raw, &file); err != nil {
		return nil, fmt.Errorf("ntag424: malformed key store: %w", err)
	}

	kek, err := deriveKEK(file.KDF, passphrase, file.Salt)
	if err != nil {
		return nil, err
	}

	plaintext, err := openGCM(kek, file.Nonce, file.Ciphertext)
	if err != nil {
		return nil, fmt.Errorf("ntag424: key store decrypt failed (wrong passphrase?): %w", err)
	}

	var keys map[string][]byte
	if err := json.Unmarshal(plaintext, &keys); err != nil {
		return nil, fmt.Errorf("ntag424: malformed key store payload: %w", err)
	}
	return &KeyStore{Keys: keys}, nil
}

func sealGCM(key, plaintext []byte) (ciphertext, nonce []byte, err error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, nil, err
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, nil, err
	}
	nonce = make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, nil, err
	}
	ciphertext = gcm.Seal(nil, nonce, plaintext, nil)
	return ciphertext, nonce, nil
}

func openGCM(key, nonce, ciphertext []byte) ([]byte, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}
	return gcm.Open(nil, nonce, ciphertext, nil)
}

// Key looks up a named key in the store, requiring it to be exactly 16
// bytes (an AES-128 key suitable for AuthenticateEV2First or ChangeKey).
func (ks *KeyStore) Key(name string) ([]byte, error) {
	k, ok := ks.Keys[name]
	if !ok {
		return nil, fmt.Errorf("ntag424: key %q not found in store", name)
	}
	if len(k) != 16 {
		return nil, &ValidationError{Field: name, Reason: "stored key must be 16 bytes"}
	}
	return k, nil
}
