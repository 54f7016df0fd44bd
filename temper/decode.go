// SPDX-License-Identifier: GPL-2.0-only

package temper

// celsiusPerUnit is the sensor's transfer characteristic: the 16-bit word is
// in units of 1/256 °C scaled by 32/125, i.e. roughly 0.0039 °C per LSB.
const celsiusPerUnit = 125.0 / 32000.0

// Reading is one decoded measurement. TempA is the internal sensor; TempB is
// the external probe on dual-sensor variants. Values are Celsius.
type Reading struct {
	TempA float32
	TempB float32
}

// Decode converts a response frame into a Reading. The two temperature words
// sit at byte offsets 2-3 and 4-5, big-endian two's complement. Pure; the
// transport guarantees the frame is complete before decoding.
func Decode(frame [ResponseSize]byte) Reading {
	return Reading{
		TempA: bytesToCelsius(frame[2], frame[3]),
		TempB: bytesToCelsius(frame[4], frame[5]),
	}
}

func bytesToCelsius(high, low byte) float32 {
	word := int16(int8(high))<<8 | int16(low)

	// A calibration offset would be applied to word here; none of the
	// supported variants needs one.

	return float32(word) * celsiusPerUnit
}
