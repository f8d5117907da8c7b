package ntag424

import "fmt"

// ConfigurationUpdate is the sealed set of SetConfiguration (0x5C) payload
// variants (§4.7). sealed() is unexported so only this package can
// implement it; SetConfiguration consumes one by calling its encode method.
type ConfigurationUpdate interface {
	sealed()
	encode() (header byte, data []byte, err error)
}

// PiccConfig toggles the random-ID UID. The card only accepts enabling it;
// AN12196 does not define a way to disable random UID once set.
type PiccConfig struct {
	UseRandomID bool
}

func (PiccConfig) sealed() {}

func (c PiccConfig) encode() (byte, []byte, error) {
	if !c.UseRandomID {
		return 0, nil, fmt.Errorf("%w: use_random_id must be true", errIllegalConfig)
	}
	return 0x00, []byte{0x02}, nil
}

// SdmConfig toggles whether SUN-triggered writes chain into further SDM
// reads.
type SdmConfig struct {
	DisableChainedWrite bool
}

func (SdmConfig) sealed() {}

func (c SdmConfig) encode() (byte, []byte, error) {
	var b byte
	if c.DisableChainedWrite {
		b = 0x04
	}
	return 0x04, []byte{0x00, b}, nil
}

// CapabilityConfig controls LRP and two reserved PDCap2 bits.
type CapabilityConfig struct {
	EnableLRP bool
	PDCap2_5  bool
	PDCap2_6  bool
}

func (CapabilityConfig) sealed() {}

func (c CapabilityConfig) encode() (byte, []byte, error) {
	var lrp byte
	if c.EnableLRP {
		lrp = 0x02
	}
	var p5, p6 byte
	if c.PDCap2_5 {
		p5 = 0x01
	}
	if c.PDCap2_6 {
		p6 = 0x01
	}
	return 0x05, []byte{0, 0, 0, 0, lrp, 0, 0, 0, p5, p6}, nil
}

// AuthFailCounterConfig configures (or disables) the authentication failure
// counter.
type AuthFailCounterConfig struct {
	Enabled bool
	Limit   uint16
	Decrement uint16
}

func (AuthFailCounterConfig) sealed() {}

func (c AuthFailCounterConfig) encode() (byte, []byte, error) {
	if !c.Enabled {
		return 0x0A, []byte{0, 0, 0, 0, 0}, nil
	}
	// §9 open question: the bound is 1 <= x <= 0xFFFF for both fields,
	// requiring both conditions to hold rather than either.
	if c.Limit < 1 || c.Limit > 0xFFFF || c.Decrement < 1 || c.Decrement > 0xFFFF {
		return 0, nil, &ValidationError{Field: "auth_fail_counter", Reason: "limit and decrement must each be in [1, 0xFFFF]"}
	}
	data := []byte{
		0x01,
		byte(c.Limit & 0xFF), byte(c.Limit >> 8),
		byte(c.Decrement & 0xFF), byte(c.Decrement >> 8),
	}
	return 0x0A, data, nil
}

// HardwareConfig sets the back-modulation mode.
type HardwareConfig struct {
	// BackModulation is "strong" or "normal".
	BackModulation string
}

func (HardwareConfig) sealed() {}

func (c HardwareConfig) encode() (byte, []byte, error) {
	var b byte
	if c.BackModulation == "strong" {
		b = 0x01
	}
	return 0x0B, []byte{b}, nil
}

var errIllegalConfig = fmt.Errorf("%w: illegal configuration", ErrUnsupportedVariant)

// SetConfiguration sends a SetConfiguration (0x5C) command under CommMode
// Full for the given variant.
func SetConfiguration(card Card, sess *Session, update ConfigurationUpdate) error {
	header, data, err := update.encode()
	if err != nil {
		return err
	}
	cr, err := Send(card, sess, 0x5C, []byte{header}, data, CommModeFull)
	if err != nil {
		return err
	}
	if !cr.IsOK() {
		return &SWError{Cmd: 0x5C, SW: cr.Status()}
	}
	return nil
}
