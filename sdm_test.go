package ntag424

import (
	"bytes"
	"testing"
)

func TestVerifySDMTextMACKnownAnswerVectors(t *testing.T) {
	// All-zero key. The text-mode MAC is the reduced CMAC of the literal
	// "uid=049D98F20B1090&ctr=000026&mac=" under the session key derived
	// from UID 04 9D 98 F2 0B 10 90 and counter 0x000026.
	macKey := make([]byte, 16)

	cases := []struct {
		name  string
		url   string
		match bool
	}{
		{
			name:  "positive",
			url:   "https://example.com/tap?uid=049D98F20B1090&ctr=000026&mac=71FD0299F6A6F742",
			match: true,
		},
		{
			name:  "wrong mac byte",
			url:   "https://example.com/tap?uid=049D98F20B1090&ctr=000026&mac=71FD0299F6A6F743",
			match: false,
		},
		{
			name:  "wrong counter",
			url:   "https://example.com/tap?uid=049D98F20B1090&ctr=000027&mac=71FD0299F6A6F742",
			match: false,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			match, err := VerifySDMTextMAC(tc.url, macKey)
			if err != nil {
				t.Fatalf("VerifySDMTextMAC: %v", err)
			}
			if match != tc.match {
				t.Fatalf("match = %v, want %v", match, tc.match)
			}
		})
	}
}

func TestValidateOfflineSDMKnownAnswerVector(t *testing.T) {
	encKey := make([]byte, 16)
	macKey := make([]byte, 16)
	encryptedPICC := mustHex(t, "1cc49b9aa47d2837e5f1a1b5deae811c")
	signatureMAC := mustHex(t, "6488aeba44044cbf")

	result, err := ValidateOfflineSDM(encKey, macKey, encryptedPICC, signatureMAC)
	if err != nil {
		t.Fatalf("ValidateOfflineSDM: %v", err)
	}
	if result == nil {
		t.Fatal("expected a match, got nil result")
	}
	wantUID := mustHex(t, "049d98f20b1090")
	if !bytes.Equal(result.UID, wantUID) {
		t.Fatalf("UID = %x, want %x", result.UID, wantUID)
	}
	if result.Counter != 56 {
		t.Fatalf("Counter = %d, want 56", result.Counter)
	}
}

func TestValidateOfflineSDMRejectsBitFlips(t *testing.T) {
	encKey := make([]byte, 16)
	macKey := make([]byte, 16)
	encryptedPICC := mustHex(t, "1cc49b9aa47d2837e5f1a1b5deae811c")
	signatureMAC := mustHex(t, "6488aeba44044cbf")

	flippedPICC := append([]byte{}, encryptedPICC...)
	flippedPICC[0] ^= 0x01
	if result, err := ValidateOfflineSDM(encKey, macKey, flippedPICC, signatureMAC); err != nil || result != nil {
		t.Fatalf("flipped PICC data: got (%v, %v), want (nil, nil)", result, err)
	}

	flippedMAC := append([]byte{}, signatureMAC...)
	flippedMAC[0] ^= 0x01
	if result, err := ValidateOfflineSDM(encKey, macKey, encryptedPICC, flippedMAC); err != nil || result != nil {
		t.Fatalf("flipped MAC: got (%v, %v), want (nil, nil)", result, err)
	}
}
