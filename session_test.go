package ntag424

import "testing"

func TestCmdCtrOnNilSessionIsZero(t *testing.T) {
	var s *Session
	if s.CmdCtr() != 0 {
		t.Fatalf("CmdCtr() on nil session = %d, want 0", s.CmdCtr())
	}
}

func TestDeriveSessionKeysRejectsShortInputs(t *testing.T) {
	key := make([]byte, 16)
	short := make([]byte, 15)
	full := make([]byte, 16)

	if _, _, err := deriveSessionKeys(short, full, full); err == nil {
		t.Fatal("expected error for short key")
	}
	if _, _, err := deriveSessionKeys(key, short, full); err == nil {
		t.Fatal("expected error for short rndA")
	}
	if _, _, err := deriveSessionKeys(key, full, short); err == nil {
		t.Fatal("expected error for short rndB")
	}
}

func TestBuildSVDiffersOnlyInPrefix(t *testing.T) {
	rndA := mustHex(t, "b98f4c50cf1c2e084fd150e33992b048")
	rndB := mustHex(t, "91517975190dcea6104948efa3085c1b")

	sv1 := buildSV(0xA5, 0x5A, rndA, rndB)
	sv2 := buildSV(0x5A, 0xA5, rndA, rndB)

	if len(sv1) != 32 || len(sv2) != 32 {
		t.Fatalf("SV length = %d/%d, want 32/32", len(sv1), len(sv2))
	}
	if sv1[0] != 0xA5 || sv1[1] != 0x5A || sv2[0] != 0x5A || sv2[1] != 0xA5 {
		t.Fatalf("unexpected SV prefixes: %x / %x", sv1[:2], sv2[:2])
	}
	for i := 2; i < 32; i++ {
		if sv1[i] != sv2[i] {
			t.Fatalf("SV1/SV2 diverge at byte %d beyond prefix: %x vs %x", i, sv1[i], sv2[i])
		}
	}
}
