package ntag424

import (
	"path/filepath"
	"testing"
)

func TestKeyStorePBKDF2RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "store.json")
	ks := &KeyStore{Keys: map[string][]byte{
		"slot0": make([]byte, 16),
		"slot1": {0x10, 0x11, 0x12, 0x13, 0x14, 0x15, 0x16, 0x17, 0x18, 0x19, 0x1a, 0x1b, 0x1c, 0x1d, 0x1e, 0x1f},
	}}
	passphrase := []byte("correct horse battery staple")

	if err := SaveKeyStorePBKDF2(path, ks, passphrase); err != nil {
		t.Fatalf("SaveKeyStorePBKDF2: %v", err)
	}

	loaded, err := LoadKeyStore(path, passphrase)
	if err != nil {
		t.Fatalf("LoadKeyStore: %v", err)
	}
	key1, err := loaded.Key("slot1")
	if err != nil {
		t.Fatalf("Key: %v", err)
	}
	if len(key1) != 16 || key1[0] != 0x10 {
		t.Fatalf("key1 = %x, unexpected", key1)
	}
}

func TestKeyStoreLoadRejectsWrongPassphrase(t *testing.T) {
	path := filepath.Join(t.TempDir(), "store.json")
	ks := &KeyStore{Keys: map[string][]byte{"slot0": make([]byte, 16)}}

	if err := SaveKeyStorePBKDF2(path, ks, []byte("right passphrase")); err != nil {
		t.Fatalf("SaveKeyStorePBKDF2: %v", err)
	}
	if _, err := LoadKeyStore(path, []byte("wrong passphrase")); err == nil {
		t.Fatal("expected error for wrong passphrase")
	}
}

func TestKeyStoreKeyRejectsWrongLength(t *testing.T) {
	ks := &KeyStore{Keys: map[string][]byte{"bad": {0x01, 0x02}}}
	if _, err := ks.Key("bad"); err == nil {
		t.Fatal("expected error for short stored key")
	}
	if _, err := ks.Key("missing"); err == nil {
		t.Fatal("expected error for missing key")
	}
}

func TestDeriveKEKRejectsUnknownKDF(t *testing.T) {
	if _, err := deriveKEK("unknown-kdf", []byte("pw"), make([]byte, 16)); err == nil {
		t.Fatal("expected error for unknown KDF")
	}
}
