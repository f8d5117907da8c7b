package ntag424

import (
	"bytes"
	"encoding/hex"
	"fmt"
	"strings"
)

// Send is the command dispatcher (§4.4). Its behavior depends on mode and
// whether sess is installed. This is the one place that mutates
// sess.cmdCtr; everywhere else treats it as read-only.
func Send(card Card, sess *Session, cmd byte, header, data []byte, mode CommMode) (*CommandResponse, error) {
	if !mode.Valid() {
		return nil, fmt.Errorf("%w: comm mode %v", ErrUnsupportedVariant, mode)
	}

	switch mode {
	case CommModePlain:
		return sendPlain(card, sess, cmd, header, data)
	case CommModeMAC:
		return sendMAC(card, sess, cmd, header, data)
	case CommModeFull:
		return sendFull(card, sess, cmd, header, data)
	default:
		return nil, fmt.Errorf("%w: comm mode %v", ErrUnsupportedVariant, mode)
	}
}

// sendPlain frames and sends the command as-is. The counter still advances
// when a session is installed, even though the frame carries no MAC.
func sendPlain(card Card, sess *Session, cmd byte, header, data []byte) (*CommandResponse, error) {
	apdu := buildNativeFrame(cmd, header, data, nil)
	resp, sw, err := Transmit(card, apdu)
	if err != nil {
		return nil, err
	}
	advanceCounter(sess)
	return &CommandResponse{SW1: byte(sw >> 8), SW2: byte(sw), Data: resp}, nil
}

// sendMAC implements the Mac path (§4.4). Falls through to Plain if no
// session is installed — there is nothing to MAC with.
func sendMAC(card Card, sess *Session, cmd byte, header, data []byte) (*CommandResponse, error) {
	if sess == nil {
		return sendPlain(card, sess, cmd, header, data)
	}

	ctr := sess.cmdCtr
	macIn := make([]byte, 0, 7+len(header)+len(data))
	macIn = append(macIn, cmd, byte(ctr&0xFF), byte(ctr>>8))
	macIn = append(macIn, sess.ti[:]...)
	macIn = append(macIn, header...)
	macIn = append(macIn, data...)

	full, err := aesCMAC(sess.kmac[:], macIn)
	if err != nil {
		return nil, err
	}
	reqMac := reduceMAC(full)

	apdu := buildNativeFrame(cmd, header, data, reqMac)
	if sess.logger != nil {
		sess.logger.Debug("dispatch mac",
			"correlation_id", sess.CorrelationID,
			"cmd", fmt.Sprintf("0x%02X", cmd),
			"ctr", ctr,
			"mac", strings.ToUpper(hex.EncodeToString(reqMac)))
	}

	resp, sw, err := Transmit(card, apdu)
	if err != nil {
		return nil, err
	}
	// Counter advances iff the card returned at all, regardless of status.
	advanceCounter(sess)

	respOK := SwOK(sw)
	if !respOK || len(resp) == 0 {
		return &CommandResponse{SW1: byte(sw >> 8), SW2: byte(sw), Data: resp}, nil
	}

	if len(resp) < 8 {
		return nil, &MalformedResponseError{Len: len(resp), Reason: "response shorter than MAC"}
	}
	body := resp[:len(resp)-8]
	respMac := resp[len(resp)-8:]

	newCtr := sess.cmdCtr
	macIn2 := make([]byte, 0, 7+len(body))
	macIn2 = append(macIn2, byte(sw&0xFF), byte(newCtr&0xFF), byte(newCtr>>8))
	macIn2 = append(macIn2, sess.ti[:]...)
	macIn2 = append(macIn2, body...)

	full2, err := aesCMAC(sess.kmac[:], macIn2)
	if err != nil {
		return nil, err
	}
	expected := reduceMAC(full2)
	if !bytes.Equal(respMac, expected) {
		return nil, ErrResponseMacMismatch
	}

	return &CommandResponse{SW1: byte(sw >> 8), SW2: byte(sw), Data: body}, nil
}

// sendFull implements the Full path (§4.4): encrypt request, dispatch via
// Mac, decrypt response.
func sendFull(card Card, sess *Session, cmd byte, header, data []byte) (*CommandResponse, error) {
	if sess == nil {
		return nil, ErrNotAuthenticated
	}

	var ciphertext []byte
	if len(data) > 0 {
		ivIn := buildCommandIV(0xA5, 0x5A, sess.ti, sess.cmdCtr)
		iv, err := aesECBEncryptBlock(sess.kenc[:], ivIn)
		if err != nil {
			return nil, err
		}
		ciphertext, err = aesCBCEncrypt(sess.kenc[:], iv, data, true)
		if err != nil {
			return nil, err
		}
	}

	// The counter value used for response decryption is the one in effect
	// after sendMAC's advance, matching the card's own increment.
	resp, err := sendMAC(card, sess, cmd, header, ciphertext)
	if err != nil {
		return nil, err
	}
	if !resp.IsOK() || len(resp.Data) == 0 {
		return resp, nil
	}

	ivIn := buildCommandIV(0x5A, 0xA5, sess.ti, sess.cmdCtr)
	iv, err := aesECBEncryptBlock(sess.kenc[:], ivIn)
	if err != nil {
		return nil, err
	}
	plaintext, err := aesCBCDecrypt(sess.kenc[:], iv, resp.Data, true)
	if err != nil {
		return nil, err
	}
	resp.Data = plaintext
	return resp, nil
}

// buildCommandIV assembles the 16-byte IV_in block used for both request
// encryption and response decryption: prefix(2) ‖ TI(4) ‖ ctr_lo ‖ ctr_hi ‖
// zero-pad(8).
func buildCommandIV(p0, p1 byte, ti [4]byte, ctr uint16) []byte {
	iv := make([]byte, 16)
	iv[0], iv[1] = p0, p1
	copy(iv[2:6], ti[:])
	iv[6] = byte(ctr & 0xFF)
	iv[7] = byte(ctr >> 8)
	return iv
}

// advanceCounter increments sess.cmdCtr by one, wrapping modulo 2^16. A nil
// session is a no-op — Plain frames sent before authentication have no
// counter to track.
func advanceCounter(sess *Session) {
	if sess == nil {
		return
	}
	sess.cmdCtr++
}
