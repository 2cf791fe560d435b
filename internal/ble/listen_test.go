package ble

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"tinygo.org/x/bluetooth"
)

// iBeacon is an Apple proximity beacon: company 0x004C, type 0x02, length
// 0x15, then UUID, major, minor and TX power.
var iBeacon = bluetooth.ManufacturerDataElement{
	CompanyID: 0x004C,
	Data: []byte{
		0x02, 0x15,
		0xE2, 0xC5, 0x6D, 0xB5, 0xDF, 0xFB, 0x48, 0xD2,
		0xB0, 0x60, 0xD0, 0xF5, 0xA7, 0x10, 0x96, 0xE0,
		0x00, 0x01, 0x00, 0xC5, 0xC5,
	},
}

func djElement(mac ...byte) bluetooth.ManufacturerDataElement {
	return bluetooth.ManufacturerDataElement{
		CompanyID: 0x0100,
		Data:      append([]byte{0x1E, 25, 0x00, 0xDB, 0x00, 0x00}, mac...),
	}
}

func TestFilter_IsOpen(t *testing.T) {
	assert.True(t, Filter{MinDataLen: 10}.IsOpen())
	assert.False(t, Filter{LocalName: "TPMS"}.IsOpen())
	assert.False(t, Filter{CompanyID: 0x0100}.IsOpen())
	assert.False(t, Filter{ManufacturerDataPref: []byte{0x1E}}.IsOpen())
}

func TestDispatch_FirstAcceptedElement(t *testing.T) {
	var got []Match
	filter := Filter{CompanyID: 0x0100, MinDataLen: 10}
	elems := []bluetooth.ManufacturerDataElement{iBeacon, djElement(djMAC...), djElement(0x11, 0x22, 0x33, 0x44, 0x55, 0x66)}

	dispatch(filter, "AA:BB:CC:DD:EE:FF", -55, "", elems, func(m Match) { got = append(got, m) })

	require.Len(t, got, 1)
	assert.Equal(t, uint16(0x0100), got[0].CompanyID)
	assert.Equal(t, int16(-55), got[0].RSSI)
	assert.Equal(t, djMAC, got[0].Data[6:])
	assert.False(t, got[0].SeenAt.IsZero())

	got = nil
	dispatch(filter, "AA:BB:CC:DD:EE:FF", -55, "", nil, func(m Match) { got = append(got, m) })
	assert.Empty(t, got)
}

func TestDispatch_ForeignAdvertiserDoesNotBindSensor(t *testing.T) {
	f := newFixture(t)
	filter := Filter{CompanyID: 0x0100, MinDataLen: 10}

	dispatch(filter, "C8:69:CD:00:00:C5", -48, "", []bluetooth.ManufacturerDataElement{iBeacon}, f.handler.HandleMatch)

	assert.False(t, f.handler.Snapshot().Valid)
	assert.Empty(t, f.handler.Snapshot().MAC, "sensor must stay in learning mode")
	assert.Empty(t, f.pub.readings)

	dispatch(filter, "AA:BB:CC:DD:EE:FF", -60, "", []bluetooth.ManufacturerDataElement{djElement(djMAC...)}, f.handler.HandleMatch)

	require.Len(t, f.pub.readings, 1)
	assert.Equal(t, "AA:BB:CC:DD:EE:FF", f.handler.Snapshot().MAC)
	assert.InDelta(t, 25.0, f.pub.readings[0].TemperatureC, 1e-9)
}

func TestDispatch_OpenFilterLetsAnyAdvertiserBind(t *testing.T) {
	f := newFixture(t)

	dispatch(Filter{MinDataLen: 10}, "C8:69:CD:00:00:C5", -48, "", []bluetooth.ManufacturerDataElement{iBeacon}, f.handler.HandleMatch)
	dispatch(Filter{MinDataLen: 10}, "AA:BB:CC:DD:EE:FF", -60, "", []bluetooth.ManufacturerDataElement{djElement(djMAC...)}, f.handler.HandleMatch)

	assert.Equal(t, "E0:00:01:00:C5:C5", f.handler.Snapshot().MAC)
	assert.Len(t, f.pub.readings, 1, "only the beacon decodes; the DJ sensor is then rejected")
}
