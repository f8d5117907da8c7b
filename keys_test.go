package ntag424

import (
	"os"
	"path/filepath"
	"testing"
)

func writeHexKeyFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	return path
}

func TestLoadKeyHexFileRejectsWrongLength(t *testing.T) {
	dir := t.TempDir()
	path := writeHexKeyFile(t, dir, "short.hex", "00112233")
	if _, err := LoadKeyHexFile(path); err == nil {
		t.Fatal("expected error for short key")
	}
}

func TestLoadKeyHexFileParsesSingleLine(t *testing.T) {
	dir := t.TempDir()
	path := writeHexKeyFile(t, dir, "key0.hex", "000102030405060708090a0b0c0d0e0f\n")
	key, err := LoadKeyHexFile(path)
	if err != nil {
		t.Fatalf("LoadKeyHexFile: %v", err)
	}
	if len(key) != 16 {
		t.Fatalf("len(key) = %d, want 16", len(key))
	}
}

func TestLoadAllHexKeysSkipsNonHexAndInvalidFiles(t *testing.T) {
	dir := t.TempDir()
	writeHexKeyFile(t, dir, "key0.hex", "000102030405060708090a0b0c0d0e0f")
	writeHexKeyFile(t, dir, "key1.hex", "101112131415161718191a1b1c1d1e1f")
	writeHexKeyFile(t, dir, "broken.hex", "not-hex-at-all")
	writeHexKeyFile(t, dir, "notes.txt", "ignore me")

	keys, err := LoadAllHexKeys(dir)
	if err != nil {
		t.Fatalf("LoadAllHexKeys: %v", err)
	}
	if len(keys) != 2 {
		t.Fatalf("len(keys) = %d, want 2", len(keys))
	}
}

func TestSessionFromEnvRejectsMalformedHex(t *testing.T) {
	if _, err := SessionFromEnv("short", "101112131415161718191a1b1c1d1e1f", "deadbeef", ""); err == nil {
		t.Fatal("expected error for short kenc")
	}
	if _, err := SessionFromEnv("000102030405060708090a0b0c0d0e0f", "101112131415161718191a1b1c1d1e1f", "nothex!!", ""); err == nil {
		t.Fatal("expected error for malformed ti")
	}
}

func TestSessionFromEnvAppliesCounterSeed(t *testing.T) {
	sess, err := SessionFromEnv(
		"000102030405060708090a0b0c0d0e0f",
		"101112131415161718191a1b1c1d1e1f",
		"deadbeef",
		"002a",
	)
	if err != nil {
		t.Fatalf("SessionFromEnv: %v", err)
	}
	if sess.CmdCtr() != 0x2a {
		t.Fatalf("CmdCtr() = %d, want 42", sess.CmdCtr())
	}
}

func TestChangeKeyRejectsWrongLengthKeys(t *testing.T) {
	sess, err := SessionFromEnv(
		"000102030405060708090a0b0c0d0e0f",
		"101112131415161718191a1b1c1d1e1f",
		"deadbeef",
		"",
	)
	if err != nil {
		t.Fatalf("SessionFromEnv: %v", err)
	}

	card := &scriptedCard{resp: sw9100()}
	if err := ChangeKey(card, sess, 1, make([]byte, 16), make([]byte, 15), 0); err == nil {
		t.Fatal("expected error for short new key")
	}
	if err := ChangeKey(card, sess, 1, make([]byte, 15), make([]byte, 16), 0); err == nil {
		t.Fatal("expected error for short old key")
	}
}
