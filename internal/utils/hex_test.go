package utils

import (
	"bytes"
	"testing"
)

func TestHex4(t *testing.T) {
	tests := []struct {
		in   uint16
		want string
	}{
		{in: 0x0000, want: "0000"},
		{in: 0xFFFF, want: "FFFF"},
		{in: 0x01D0, want: "01D0"},
	}
	for _, tt := range tests {
		if got := Hex4(tt.in); got != tt.want {
			t.Errorf("Hex4(%#x) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestBytesToHex(t *testing.T) {
	if got := BytesToHex([]byte{0xAA, 0x0b, 0x00, 0xff}); got != "AA0B00FF" {
		t.Errorf("BytesToHex = %q, want %q", got, "AA0B00FF")
	}
	if got := BytesToHex(nil); got != "" {
		t.Errorf("BytesToHex(nil) = %q, want empty", got)
	}
}

func TestIsHexDigit(t *testing.T) {
	for _, c := range []byte("0123456789abcdefABCDEF") {
		if !IsHexDigit(c) {
			t.Errorf("IsHexDigit(%q) = false, want true", c)
		}
	}
	for _, c := range []byte("gGzZ:- \n\x00") {
		if IsHexDigit(c) {
			t.Errorf("IsHexDigit(%q) = true, want false", c)
		}
	}
}

func TestHexDigitCount(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want int
	}{
		{name: "empty", in: "", want: 0},
		{name: "colon mac", in: "AA:BB:CC:DD:EE:FF", want: 12},
		{name: "mixed case", in: "aAbB", want: 4},
		{name: "only separators", in: ":-. xyz", want: 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := HexDigitCount(tt.in); got != tt.want {
				t.Errorf("HexDigitCount(%q) = %d, want %d", tt.in, got, tt.want)
			}
		})
	}
}

func TestDecodeHexLoose(t *testing.T) {
	tests := []struct {
		name  string
		in    string
		size  int
		want  []byte
		wantN int
	}{
		{name: "plain", in: "0102ff", size: 3, want: []byte{0x01, 0x02, 0xFF}, wantN: 3},
		{name: "separators skipped", in: "aa:BB-cc dd", size: 4, want: []byte{0xAA, 0xBB, 0xCC, 0xDD}, wantN: 4},
		{name: "stops at dst length", in: "010203", size: 2, want: []byte{0x01, 0x02}, wantN: 2},
		{name: "odd digit dropped", in: "01020", size: 3, want: []byte{0x01, 0x02, 0x00}, wantN: 2},
		{name: "empty dst", in: "0102", size: 0, want: []byte{}, wantN: 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dst := make([]byte, tt.size)
			n := DecodeHexLoose(dst, tt.in)
			if n != tt.wantN {
				t.Fatalf("DecodeHexLoose n = %d, want %d", n, tt.wantN)
			}
			if !bytes.Equal(dst, tt.want) {
				t.Errorf("DecodeHexLoose dst = % X, want % X", dst, tt.want)
			}
		})
	}
}
