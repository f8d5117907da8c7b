package ntag424

import "fmt"

// CommMode is the closed set of NTAG 424 DNA communication modes. Its
// underlying value IS the 2-bit wire encoding used in FileOption/SDMOptions
// bytes — the numeric value and the symbolic name are the same thing,
// never two parallel representations.
type CommMode byte

const (
	CommModePlain CommMode = 0b00
	CommModeMAC   CommMode = 0b01
	CommModeFull  CommMode = 0b11
)

// ParseCommMode validates a raw 2-bit field and returns its symbolic form.
// The 0b10 encoding is reserved and never valid.
func ParseCommMode(b byte) (CommMode, error) {
	switch CommMode(b & 0x03) {
	case CommModePlain:
		return CommModePlain, nil
	case CommModeMAC:
		return CommModeMAC, nil
	case CommModeFull:
		return CommModeFull, nil
	default:
		return 0, fmt.Errorf("%w: comm mode 0b%02b", ErrUnsupportedVariant, b&0x03)
	}
}

func (m CommMode) String() string {
	switch m {
	case CommModePlain:
		return "plain"
	case CommModeMAC:
		return "mac"
	case CommModeFull:
		return "full"
	default:
		return fmt.Sprintf("CommMode(0x%02X)", byte(m))
	}
}

// Valid reports whether m is one of the three defined modes.
func (m CommMode) Valid() bool {
	switch m {
	case CommModePlain, CommModeMAC, CommModeFull:
		return true
	default:
		return false
	}
}
