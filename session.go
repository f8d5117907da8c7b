package ntag424

import (
	"log/slog"

	"github.com/google/uuid"
)

// Session holds the EV2 session state established by AuthenticateEV2First.
// A nil *Session is the Unauthenticated state (§3) — there is no separate
// AuthState enum, so CommModeFull dispatch with a nil session is a
// caller error reported as ErrNotAuthenticated rather than a reachable
// state transition.
type Session struct {
	KeyNo uint8

	kenc [16]byte
	kmac [16]byte
	ti   [4]byte

	cmdCtr uint16

	// CorrelationID tags every log line emitted for this session so
	// concurrent sessions against different cards don't interleave in
	// shared log output.
	CorrelationID uuid.UUID

	logger *slog.Logger
}

// CmdCtr returns the current command counter value.
func (s *Session) CmdCtr() uint16 {
	if s == nil {
		return 0
	}
	return s.cmdCtr
}

// deriveSessionKeys computes KSesAuthENC and KSesAuthMAC from the
// authentication key and the two 16-byte nonces exchanged during
// AuthenticateEV2First, per AN12196 §6.3 SV1/SV2 construction. Factored out
// of the authentication state machine so it is independently testable
// against the published KAT without driving a fake card through both
// authentication phases.
func deriveSessionKeys(key, rndA, rndB []byte) (kenc, kmac [16]byte, err error) {
	if len(key) != 16 || len(rndA) != 16 || len(rndB) != 16 {
		return kenc, kmac, &ValidationError{Field: "deriveSessionKeys", Reason: "key/rndA/rndB must each be 16 bytes"}
	}

	// SV1 = A5 5A 00 01 00 80 || RndA[0:2] || (RndA[2:8] xor RndB[0:6]) || RndB[6:16] || RndA[8:16]
	sv1 := buildSV(0xA5, 0x5A, rndA, rndB)
	// SV2 = 5A A5 00 01 00 80 || ... (same layout, different prefix)
	sv2 := buildSV(0x5A, 0xA5, rndA, rndB)

	encBytes, err := aesCMAC(key, sv1)
	if err != nil {
		return kenc, kmac, err
	}
	macBytes, err := aesCMAC(key, sv2)
	if err != nil {
		return kenc, kmac, err
	}
	copy(kenc[:], encBytes)
	copy(kmac[:], macBytes)
	return kenc, kmac, nil
}

// buildSV assembles the 32-byte SV1/SV2 input block shared by both session
// key derivations, differing only in the first two prefix bytes.
func buildSV(p0, p1 byte, rndA, rndB []byte) []byte {
	sv := make([]byte, 32)
	copy(sv, []byte{p0, p1, 0x00, 0x01, 0x00, 0x80})
	copy(sv[6:8], rndA[:2])
	for i := 0; i < 6; i++ {
		sv[8+i] = rndA[2+i] ^ rndB[i]
	}
	copy(sv[14:24], rndB[6:16])
	copy(sv[24:32], rndA[8:16])
	return sv
}
