package utils

const hexd = "0123456789ABCDEF"

// Hex4 formats a uint16 as a 4-character hexadecimal string (e.g., "FFFF")
// Helper for 0xFFFF formatting without pulling in fmt everywhere in logs
func Hex4(v uint16) string {
	return string([]byte{
		hexd[(v>>12)&0xF],
		hexd[(v>>8)&0xF],
		hexd[(v>>4)&0xF],
		hexd[v&0xF],
	})
}

// BytesToHex converts a byte slice to an uppercase hexadecimal string
func BytesToHex(b []byte) string {
	out := make([]byte, 0, len(b)*2)
	for _, x := range b {
		out = append(out, hexd[x>>4], hexd[x&0x0F])
	}
	return string(out)
}

// IsHexDigit reports whether c is an ASCII hex digit (0-9, A-F, a-f).
func IsHexDigit(c byte) bool {
	return (c >= '0' && c <= '9') || (c >= 'A' && c <= 'F') || (c >= 'a' && c <= 'f')
}

func nibble(c byte) byte {
	switch {
	case c >= '0' && c <= '9':
		return c - '0'
	case c >= 'A' && c <= 'F':
		return c - 'A' + 10
	case c >= 'a' && c <= 'f':
		return c - 'a' + 10
	}
	return 0
}

// HexDigitCount returns the number of hex digits in s, ignoring every other
// character.
func HexDigitCount(s string) int {
	n := 0
	for i := 0; i < len(s); i++ {
		if IsHexDigit(s[i]) {
			n++
		}
	}
	return n
}

// DecodeHexLoose pairs the hex digits of s into bytes, most significant
// nibble first, skipping any non-hex character ("AA:bb-CC" decodes to
// AA BB CC). It stops once dst is full and drops a trailing unpaired digit.
// It returns the number of bytes written.
func DecodeHexLoose(dst []byte, s string) int {
	n := 0
	var cur byte
	half := false
	for i := 0; i < len(s) && n < len(dst); i++ {
		c := s[i]
		if !IsHexDigit(c) {
			continue
		}
		cur = cur<<4 | nibble(c)
		if half {
			dst[n] = cur
			n++
			cur = 0
		}
		half = !half
	}
	return n
}
