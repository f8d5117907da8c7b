package ntag424

import (
	"errors"
	"testing"
)

func TestNewTagStartsUnauthenticated(t *testing.T) {
	tag := NewTag(&scriptedCard{resp: sw9100()})
	if tag.IsAuthenticated() {
		t.Fatal("expected fresh tag to be unauthenticated")
	}
	if tag.Session() != nil {
		t.Fatal("expected nil session on fresh tag")
	}
}

func TestSelectFileRejectsOversizedFileID(t *testing.T) {
	tag := NewTag(&scriptedCard{resp: sw9100()})
	err := tag.SelectFile(make([]byte, 17), SelectFromMF)
	if err == nil {
		t.Fatal("expected error for file ID longer than 16 bytes")
	}
}

func TestSelectFileReturnsSWErrorOnFailure(t *testing.T) {
	tag := NewTag(&scriptedCard{resp: []byte{0x6A, 0x82}})
	err := tag.SelectFile([]byte{0xE1, 0x04}, SelectFromMF)
	var swErr *SWError
	if !errors.As(err, &swErr) {
		t.Fatalf("err = %v, want *SWError", err)
	}
	if swErr.SW != 0x6A82 {
		t.Fatalf("SW = %04X, want 6A82", swErr.SW)
	}
}

func TestWriteStandardFileRejectsOversizedContents(t *testing.T) {
	tag := NewTag(&scriptedCard{resp: sw9100()})
	if err := tag.WriteStandardFile(make([]byte, 256)); err == nil {
		t.Fatal("expected error for contents longer than 255 bytes")
	}
}

func TestGetCardUIDRejectsWrongLength(t *testing.T) {
	sess := newMacTestSession(t)
	tag := &Tag{card: &macResponseCard{sess: sess, body: []byte{0x01, 0x02, 0x03}, sw: 0x9100}, sess: sess}
	if _, err := tag.GetCardUID(CommModeMAC); err == nil {
		t.Fatal("expected error for non-7-byte UID payload")
	}
}

func TestChangeKeyInvalidatesSessionWhenSlotMatches(t *testing.T) {
	sess, err := SessionFromEnv(
		"000102030405060708090a0b0c0d0e0f",
		"101112131415161718191a1b1c1d1e1f",
		"deadbeef",
		"",
	)
	if err != nil {
		t.Fatalf("SessionFromEnv: %v", err)
	}
	sess.KeyNo = 3

	tag := &Tag{card: &scriptedCard{resp: sw9100()}, sess: sess}
	if err := tag.ChangeKey(3, make([]byte, 16), make([]byte, 16), 1); err != nil {
		t.Fatalf("ChangeKey: %v", err)
	}
	if tag.IsAuthenticated() {
		t.Fatal("expected session to be invalidated after changing the authenticated key slot")
	}
}

func TestChangeKeyKeepsSessionForOtherSlot(t *testing.T) {
	sess, err := SessionFromEnv(
		"000102030405060708090a0b0c0d0e0f",
		"101112131415161718191a1b1c1d1e1f",
		"deadbeef",
		"",
	)
	if err != nil {
		t.Fatalf("SessionFromEnv: %v", err)
	}
	sess.KeyNo = 3

	tag := &Tag{card: &scriptedCard{resp: sw9100()}, sess: sess}
	if err := tag.ChangeKey(5, make([]byte, 16), make([]byte, 16), 1); err != nil {
		t.Fatalf("ChangeKey: %v", err)
	}
	if !tag.IsAuthenticated() {
		t.Fatal("expected session to survive changing an unrelated key slot")
	}
}
