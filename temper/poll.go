// SPDX-License-Identifier: GPL-2.0-only

package temper

import (
	"github.com/go-kit/log/level"
)

// Command bytes understood by the RDing firmware. cmdGetTemperature doubles
// as the per-poll read trigger and as part of the init handshake.
var (
	cmdGetTemperature = [8]byte{0x01, 0x80, 0x33, 0x01, 0x00, 0x00, 0x00, 0x00}
	cmdIni1           = [8]byte{0x01, 0x82, 0x77, 0x01, 0x00, 0x00, 0x00, 0x00}
	cmdIni2           = [8]byte{0x01, 0x86, 0xff, 0x01, 0x00, 0x00, 0x00, 0x00}
)

// Initialize runs the one-time handshake the firmware expects after the
// interfaces are claimed: a 2-byte feature report followed by the
// temperature trigger and two vendor init commands. The interrupt responses
// carry no data of interest and are drained; a drain that times out is not
// fatal, since some firmware revisions answer fewer times than others.
func (s *Session) Initialize() error {
	if err := s.SendCommand2(0x01, 0x01); err != nil {
		return err
	}

	for _, step := range []struct {
		cmd    [8]byte
		drains int
	}{
		{cmdGetTemperature, 1},
		{cmdIni1, 1},
		{cmdIni2, 2},
	} {
		c := step.cmd
		if err := s.SendCommand8(c[0], c[1], c[2], c[3], c[4], c[5], c[6], c[7]); err != nil {
			return err
		}
		for i := 0; i < step.drains; i++ {
			if _, err := s.ReadResponse(); err != nil {
				_ = level.Debug(s.logger).Log("msg", "drain read during init handshake failed", "err", err)
			}
		}
	}
	return nil
}

// Read triggers one measurement and decodes the response. Errors are scoped
// to this poll cycle; the session stays usable and the caller decides
// whether the next cycle retries.
func (s *Session) Read() (Reading, error) {
	c := cmdGetTemperature
	if err := s.SendCommand8(c[0], c[1], c[2], c[3], c[4], c[5], c[6], c[7]); err != nil {
		return Reading{}, err
	}
	frame, err := s.ReadResponse()
	if err != nil {
		return Reading{}, err
	}
	return Decode(frame), nil
}
