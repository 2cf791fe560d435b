package tpms

import (
	"fmt"

	"tpms-gateway/internal/utils"
)

// MAC is a 6-byte Bluetooth device address as it appears at the tail of a
// DJ TPMS advertisement.
type MAC [6]byte

// String returns the colon-separated form, e.g. "AA:BB:CC:DD:EE:FF".
func (m MAC) String() string {
	return fmt.Sprintf("%02X:%02X:%02X:%02X:%02X:%02X", m[0], m[1], m[2], m[3], m[4], m[5])
}

// Raw returns the compact form, e.g. "AABBCCDDEEFF".
func (m MAC) Raw() string {
	return utils.BytesToHex(m[:])
}

// IsZero reports whether every byte of m is zero.
func (m MAC) IsZero() bool {
	return m == MAC{}
}

// ParseMAC parses exactly 12 hex digits into a MAC. Any other characters are
// treated as separators, so "AA:BB:CC:DD:EE:FF", "aa-bb-cc-dd-ee-ff" and
// "AABBCCDDEEFF" are equivalent.
func ParseMAC(s string) (MAC, error) {
	var m MAC
	if s == "" {
		return m, ErrEmptyMAC
	}
	if n := utils.HexDigitCount(s); n != len(m)*2 {
		return m, fmt.Errorf("%w: %d hex digits, want %d", ErrInvalidMAC, n, len(m)*2)
	}
	utils.DecodeHexLoose(m[:], s)
	return m, nil
}
