package main

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"

	"tpms-gateway/internal/tpms"
)

const djPacket = "1E 19 00 DB 00 00 AA BB CC DD EE FF"

func newTestConsole() (*Console, *tpms.Sensor, *bytes.Buffer) {
	var out bytes.Buffer
	var ms uint32 = 1
	s := tpms.New(tpms.WithClock(tpms.ClockFunc(func() uint32 { return ms })))
	return NewConsole(s, &out), s, &out
}

func TestConsole_Update(t *testing.T) {
	c, s, out := newTestConsole()

	assert.True(t, c.Exec("update "+djPacket))
	assert.Equal(t, "ok: AA:BB:CC:DD:EE:FF 25.0 C 118.0 kPa 3.00 V\n", out.String())
	assert.True(t, s.Valid())

	out.Reset()
	c.Exec("u 1E19")
	assert.Contains(t, out.String(), "rejected:")
}

func TestConsole_MAC(t *testing.T) {
	c, s, out := newTestConsole()

	c.Exec("mac")
	assert.Equal(t, "mac: none (learning)\n", out.String())

	out.Reset()
	c.Exec("mac aa-bb-cc-dd-ee-ff")
	assert.Equal(t, "bound to AA:BB:CC:DD:EE:FF\n", out.String())
	assert.True(t, s.MACConfigured())

	out.Reset()
	c.Exec("m")
	assert.Equal(t, "mac: AA:BB:CC:DD:EE:FF (AABBCCDDEEFF) configured=true\n", out.String())

	out.Reset()
	c.Exec("mac 1234")
	assert.Contains(t, out.String(), "error:")
	assert.Equal(t, "AA:BB:CC:DD:EE:FF", s.MACString())

	out.Reset()
	c.Exec("clear")
	assert.False(t, s.MACConfigured())
	assert.Empty(t, s.MACString())
}

func TestConsole_ResetDumpStale(t *testing.T) {
	c, s, out := newTestConsole()
	c.Exec("update " + djPacket)

	out.Reset()
	c.Exec("stale 1m")
	assert.Equal(t, "stale=false age=0s timeout=1m0s\n", out.String())

	out.Reset()
	c.Exec("dump")
	assert.Contains(t, out.String(), "=== DJTPMS ===")
	assert.Contains(t, out.String(), "Raw:      V=30 T=25 P=219")

	out.Reset()
	c.Exec("stale soon")
	assert.Contains(t, out.String(), "invalid duration")

	c.Exec("reset")
	assert.False(t, s.Valid())

	out.Reset()
	c.Exec("stale")
	assert.Equal(t, "stale=true age=never timeout=1m0s\n", out.String())
}

func TestConsole_Misc(t *testing.T) {
	c, _, out := newTestConsole()

	assert.True(t, c.Exec("   "))
	assert.Empty(t, out.String())

	assert.True(t, c.Exec("help"))
	assert.Contains(t, out.String(), "Commands:")

	out.Reset()
	assert.True(t, c.Exec("bogus"))
	assert.Contains(t, out.String(), `unknown command "bogus"`)

	assert.False(t, c.Exec("quit"))
	assert.False(t, c.Exec("EXIT"))
}
