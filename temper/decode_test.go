// SPDX-License-Identifier: GPL-2.0-only

package temper

import (
	"math"
	"testing"
)

const epsilon = 1e-6

func frameWithWords(high, low byte) [ResponseSize]byte {
	return [ResponseSize]byte{0x00, 0x00, high, low, high, low, 0x00, 0x00}
}

func TestDecode(t *testing.T) {
	for _, tc := range []struct {
		name      string
		high, low byte
		want      float32
	}{
		{"zero", 0x00, 0x00, 0.0},
		{"one lsb", 0x00, 0x01, 125.0 / 32000.0},
		{"positive", 0x01, 0x90, 1.5625},
		{"negative", 0xff, 0x70, -0.5625},
		{"max word", 0x7f, 0xff, 32767 * 125.0 / 32000.0},
		{"min word", 0x80, 0x00, -32768 * 125.0 / 32000.0},
	} {
		t.Run(tc.name, func(t *testing.T) {
			reading := Decode(frameWithWords(tc.high, tc.low))
			if math.Abs(float64(reading.TempA-tc.want)) > epsilon {
				t.Errorf("tempA: got %v; want %v", reading.TempA, tc.want)
			}
			if math.Abs(float64(reading.TempB-tc.want)) > epsilon {
				t.Errorf("tempB: got %v; want %v", reading.TempB, tc.want)
			}
		})
	}
}

func TestDecodeIndependentChannels(t *testing.T) {
	reading := Decode([ResponseSize]byte{0xaa, 0xbb, 0x01, 0x90, 0xff, 0x70, 0xcc, 0xdd})
	if reading.TempA != 1.5625 {
		t.Errorf("tempA: got %v; want 1.5625", reading.TempA)
	}
	if reading.TempB != -0.5625 {
		t.Errorf("tempB: got %v; want -0.5625", reading.TempB)
	}
}

// Every byte pair must decode as the sign-extended big-endian word times the
// sensor scale factor.
func TestDecodeAllWords(t *testing.T) {
	for high := 0; high < 256; high++ {
		for low := 0; low < 256; low++ {
			word := int16(int8(high))<<8 | int16(low)
			want := float32(word) * 125.0 / 32000.0
			got := Decode(frameWithWords(byte(high), byte(low))).TempA
			if math.Abs(float64(got-want)) > epsilon {
				t.Fatalf("pair (%#02x, %#02x): got %v; want %v", high, low, got, want)
			}
		}
	}
}
