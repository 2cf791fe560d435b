package tpms

const (
	PressureOffset = 101 // raw pressure at 0 kPa gauge
	KPaToBar       = 0.01
	KPaToPSI       = 0.145038
	VoltageDivisor = 10.0
)

// Temperature returns the tire temperature in degrees Celsius.
func (s *Sensor) Temperature() float64 {
	return float64(s.temperatureRaw)
}

// TemperatureF returns the tire temperature in degrees Fahrenheit.
func (s *Sensor) TemperatureF() float64 {
	return float64(s.temperatureRaw)*9/5 + 32
}

// PressureKPa returns gauge pressure in kPa. Raw values at or below the
// offset read as 0.
func (s *Sensor) PressureKPa() float64 {
	if s.pressureRaw <= PressureOffset {
		return 0
	}
	return float64(s.pressureRaw - PressureOffset)
}

func (s *Sensor) PressureBar() float64 {
	return s.PressureKPa() * KPaToBar
}

func (s *Sensor) PressurePSI() float64 {
	return s.PressureKPa() * KPaToPSI
}

// Voltage returns the sensor battery voltage in volts.
func (s *Sensor) Voltage() float64 {
	return float64(s.voltageRaw) / VoltageDivisor
}
