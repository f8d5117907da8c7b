package ntag424

import (
	"bytes"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/google/uuid"
)

// AuthenticateEV2First performs EV2First authentication with the card. This
// is a two-phase challenge-response handshake that establishes session keys
// KSesAuthENC and KSesAuthMAC for subsequent secure messaging (§4.2).
func AuthenticateEV2First(card Card, key []byte, keyNo byte) (*Session, error) {
	return authenticateEV2First(card, key, keyNo, nil)
}

// AuthenticateEV2FirstWithRndA is identical to AuthenticateEV2First but lets
// callers pin RndA, which is the only way to exercise this handshake
// deterministically against the published KAT in tests.
func AuthenticateEV2FirstWithRndA(card Card, key []byte, keyNo byte, rndA []byte) (*Session, error) {
	if len(rndA) != 16 {
		return nil, &ValidationError{Field: "rndA", Reason: "must be 16 bytes"}
	}
	return authenticateEV2First(card, key, keyNo, rndA)
}

func authenticateEV2First(card Card, key []byte, keyNo byte, fixedRndA []byte) (*Session, error) {
	// Phase 1: send keyNo, receive encrypted RndB.
	apdu1 := []byte{0x90, 0x71, 0x00, 0x00, 0x02, keyNo, 0x00, 0x00}
	resp1, sw, err := Transmit(card, apdu1)
	if err != nil {
		return nil, &AuthError{Step: "step1", Cause: err}
	}
	if sw != SWMoreData || len(resp1) != 16 {
		return nil, &AuthError{Step: "step1", SW: sw, RespLen: len(resp1)}
	}

	iv0 := make([]byte, 16)
	rndB, err := aesCBCDecrypt(key, iv0, resp1, false)
	if err != nil {
		return nil, &AuthError{Step: "step1", Cause: err}
	}

	rndA := make([]byte, 16)
	if fixedRndA != nil {
		copy(rndA, fixedRndA)
	} else if _, err := io.ReadFull(rand.Reader, rndA); err != nil {
		return nil, &AuthError{Step: "step1", Cause: err}
	}

	// Phase 2: send encrypted RndA||RndB', receive encrypted TI||RndA'.
	rndBRot := rotateLeft1(rndB)
	rndAB := append(append([]byte{}, rndA...), rndBRot...)
	rndABEnc, err := aesCBCEncrypt(key, iv0, rndAB, false)
	if err != nil {
		return nil, &AuthError{Step: "step2", Cause: err}
	}

	apdu2 := make([]byte, 0, 5+len(rndABEnc)+1)
	apdu2 = append(apdu2, 0x90, 0xAF, 0x00, 0x00, 0x20)
	apdu2 = append(apdu2, rndABEnc...)
	apdu2 = append(apdu2, 0x00)
	resp2, sw, err := Transmit(card, apdu2)
	if err != nil {
		return nil, &AuthError{Step: "step2", Cause: err}
	}
	if sw != SWDESFireOK || len(resp2) != 32 {
		return nil, &AuthError{Step: "step2", SW: sw, RespLen: len(resp2)}
	}

	dec, err := aesCBCDecrypt(key, iv0, resp2, false)
	if err != nil {
		return nil, &AuthError{Step: "step2", Cause: err}
	}

	ti := dec[:4]
	rndARot := dec[4:20]
	rndACheck := rotateRight1(rndARot)
	if !bytes.Equal(rndACheck, rndA) {
		return nil, &AuthError{Step: "step2", Cause: ErrAuthMismatch}
	}

	kenc, kmac, err := deriveSessionKeys(key, rndA, rndB)
	if err != nil {
		return nil, &AuthError{Step: "step2", Cause: err}
	}

	s := &Session{
		KeyNo:         keyNo,
		CorrelationID: uuid.New(),
		logger:        slog.Default(),
	}
	s.kenc = kenc
	s.kmac = kmac
	copy(s.ti[:], ti)
	s.cmdCtr = 0

	s.logger.Debug("session established",
		"correlation_id", s.CorrelationID,
		"key_no", keyNo,
		"ti", strings.ToUpper(hex.EncodeToString(ti)))

	return s, nil
}

// AuthenticateWithFallback attempts authentication with multiple key/slot
// combinations. It tries, in order: the provided key at keyNo, the provided
// key at altKeyNo (if different), the provided key at slot 0 (if neither
// keyNo nor altKeyNo is 0), and the all-zero factory key at slot 0 (if the
// provided key isn't already all-zero). Returns the established session,
// the key and slot that succeeded, or the last error.
func AuthenticateWithFallback(card Card, key []byte, keyNo byte, altKeyNo byte) (*Session, []byte, byte, error) {
	zeroKey := make([]byte, 16)
	type attempt struct {
		key   []byte
		keyNo byte
		label string
	}
	attempts := []attempt{
		{key: key, keyNo: keyNo, label: fmt.Sprintf("keyno %d (provided)", keyNo)},
	}

	if altKeyNo != keyNo {
		attempts = append(attempts, attempt{key: key, keyNo: altKeyNo, label: fmt.Sprintf("keyno %d (sdm-keyno)", altKeyNo)})
	}
	if keyNo != 0 && altKeyNo != 0 {
		attempts = append(attempts, attempt{key: key, keyNo: 0, label: "keyno 0 (same key)"})
	}
	if !isAllZero(key) {
		attempts = append(attempts, attempt{key: zeroKey, keyNo: 0, label: "keyno 0 (all-zero fallback)"})
	}

	var lastErr error
	for i, a := range attempts {
		sess, err := AuthenticateEV2First(card, a.key, a.keyNo)
		if err == nil {
			slog.Info("authenticated", "method", a.label, "correlation_id", sess.CorrelationID)
			return sess, a.key, a.keyNo, nil
		}
		if i > 0 {
			slog.Warn("auth attempt failed", "method", a.label, "error", err)
		}
		lastErr = err
	}

	return nil, nil, 0, lastErr
}

func isAllZero(b []byte) bool {
	for _, v := range b {
		if v != 0 {
			return false
		}
	}
	return true
}
