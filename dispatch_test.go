package ntag424

import (
	"errors"
	"testing"
)

// scriptedCard is a Card test double whose Transmit response is fixed
// ahead of time, ignoring the request bytes.
type scriptedCard struct {
	resp []byte
	err  error
}

func (c *scriptedCard) Transmit(apdu []byte) ([]byte, error) {
	return c.resp, c.err
}

func sw9100() []byte { return []byte{0x91, 0x00} }

func TestDispatcherCounterAdvancesOncePerPlainSend(t *testing.T) {
	sess, err := SessionFromEnv(
		"00000000000000000000000000000000",
		"00000000000000000000000000000000",
		"00000000",
		"",
	)
	if err != nil {
		t.Fatalf("SessionFromEnv: %v", err)
	}

	card := &scriptedCard{resp: sw9100()}
	const n = 5
	for i := 0; i < n; i++ {
		if _, err := Send(card, sess, 0xAA, nil, nil, CommModePlain); err != nil {
			t.Fatalf("Send #%d: %v", i, err)
		}
	}
	if sess.CmdCtr() != n {
		t.Fatalf("CmdCtr() = %d, want %d", sess.CmdCtr(), n)
	}
}

// macResponseCard computes a correctly-keyed response MAC for sess as it
// will stand after the dispatcher's post-transmit counter advance, so it
// can serve as a card double for the Mac/Full response verification path.
type macResponseCard struct {
	sess    *Session
	body    []byte
	sw      uint16
	corrupt bool
}

func (c *macResponseCard) Transmit(apdu []byte) ([]byte, error) {
	newCtr := c.sess.cmdCtr + 1
	macIn := make([]byte, 0, 7+len(c.body))
	macIn = append(macIn, byte(c.sw&0xFF), byte(newCtr&0xFF), byte(newCtr>>8))
	macIn = append(macIn, c.sess.ti[:]...)
	macIn = append(macIn, c.body...)

	full, err := aesCMAC(c.sess.kmac[:], macIn)
	if err != nil {
		return nil, err
	}
	mac := reduceMAC(full)
	if c.corrupt {
		mac[0] ^= 0xFF
	}

	out := append([]byte{}, c.body...)
	out = append(out, mac...)
	out = append(out, byte(c.sw>>8), byte(c.sw&0xFF))
	return out, nil
}

func newMacTestSession(t *testing.T) *Session {
	t.Helper()
	sess, err := SessionFromEnv(
		"0102030405060708090a0b0c0d0e0f10",
		"101112131415161718191a1b1c1d1e1f",
		"deadbeef",
		"",
	)
	if err != nil {
		t.Fatalf("SessionFromEnv: %v", err)
	}
	return sess
}

func TestMacResponseMismatchOnFlippedByte(t *testing.T) {
	sess := newMacTestSession(t)
	card := &macResponseCard{sess: sess, body: []byte{0x01, 0x02, 0x03}, sw: 0x9100, corrupt: true}

	_, err := Send(card, sess, 0xAA, nil, nil, CommModeMAC)
	if !errors.Is(err, ErrResponseMacMismatch) {
		t.Fatalf("err = %v, want ErrResponseMacMismatch", err)
	}
}

func TestMacResponseVerifiesWithCorrectMAC(t *testing.T) {
	sess := newMacTestSession(t)
	card := &macResponseCard{sess: sess, body: []byte{0x01, 0x02, 0x03}, sw: 0x9100, corrupt: false}

	cr, err := Send(card, sess, 0xAA, nil, nil, CommModeMAC)
	if err != nil {
		t.Fatalf("Send: %v", err)
	}
	if !cr.IsOK() {
		t.Fatalf("expected OK status, got SW1=%02X SW2=%02X", cr.SW1, cr.SW2)
	}
}

func TestMacSkipsResponseVerificationOnErrorStatus(t *testing.T) {
	sess := newMacTestSession(t)
	// A non-OK status word carries no MAC-protected body to verify.
	card := &scriptedCard{resp: []byte{0x91, 0x9E}}

	cr, err := Send(card, sess, 0xAA, nil, nil, CommModeMAC)
	if err != nil {
		t.Fatalf("Send: %v", err)
	}
	if cr.IsOK() {
		t.Fatal("expected non-OK status to pass through untouched")
	}
}

func TestFullModeWithEmptyDataSkipsEncryption(t *testing.T) {
	sess := newMacTestSession(t)
	card := &macResponseCard{sess: sess, body: nil, sw: 0x9100, corrupt: false}

	cr, err := Send(card, sess, 0xAA, nil, nil, CommModeFull)
	if err != nil {
		t.Fatalf("Send: %v", err)
	}
	if len(cr.Data) != 0 {
		t.Fatalf("Data = %x, want empty", cr.Data)
	}
}
