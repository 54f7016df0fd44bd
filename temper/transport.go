// SPDX-License-Identifier: GPL-2.0-only

package temper

import (
	"fmt"
	"strings"

	"github.com/efficientgo/core/errors"
	"github.com/go-kit/log/level"
)

const (
	// CommandFrameSize is the full control transfer payload size (8 + 8*8).
	// The firmware's descriptor advertises this transfer size and rejects
	// shorter buffers, so the zero padding is a protocol requirement.
	CommandFrameSize = 72
	// ResponseSize is the fixed size of an interrupt read response.
	ResponseSize = 8

	ctrlRequestType = 0x21
	ctrlSetReport   = 9

	ctrlValueCommand8 = 0x200
	ctrlIndexCommand8 = 0x01
	ctrlValueCommand2 = 0x201
	ctrlIndexCommand2 = 0x00

	interruptEndpoint = 0x82
)

// SendCommand8 sends an 8-byte command to the device, zero-padded to the
// full frame size. The transfer must be accepted in its entirety; any other
// byte count is an ErrTransport, with no partial-write retry.
func (s *Session) SendCommand8(a, b, c, d, e, f, g, h byte) error {
	return s.sendCommand([]byte{a, b, c, d, e, f, g, h}, ctrlValueCommand8, ctrlIndexCommand8)
}

// SendCommand2 sends a 2-byte command, framed and checked like SendCommand8
// but targeting the device's second report.
func (s *Session) SendCommand2(a, b byte) error {
	return s.sendCommand([]byte{a, b}, ctrlValueCommand2, ctrlIndexCommand2)
}

func (s *Session) sendCommand(cmd []byte, value, index uint16) error {
	var frame [CommandFrameSize]byte
	copy(frame[:], cmd)

	_ = level.Debug(s.logger).Log(
		"msg", "sending command",
		"bytes", hexBytes(cmd),
		"len", CommandFrameSize,
	)

	n, err := s.handle.Control(ctrlRequestType, ctrlSetReport, value, index, frame[:], s.timeout)
	if err != nil {
		return errors.Wrapf(ErrTransport, "control write: %v", err)
	}
	if n != CommandFrameSize {
		return errors.Wrapf(ErrTransport, "control write accepted %d of %d bytes", n, CommandFrameSize)
	}
	return nil
}

// ReadResponse performs one blocking interrupt read from the device's IN
// endpoint, bounded by the session timeout. A timed-out or short read is an
// ErrTransport for this poll cycle.
func (s *Session) ReadResponse() ([ResponseSize]byte, error) {
	var frame [ResponseSize]byte

	n, err := s.handle.InterruptRead(interruptEndpoint, frame[:], s.timeout)
	if err != nil {
		return frame, errors.Wrapf(ErrTransport, "interrupt read: %v", err)
	}

	// Observability only; never alters the returned data.
	_ = level.Debug(s.logger).Log("msg", "received bytes", "n", n, "bytes", hexBytes(frame[:n]))

	if n != ResponseSize {
		return frame, errors.Wrapf(ErrTransport, "interrupt read returned %d of %d bytes", n, ResponseSize)
	}
	return frame, nil
}

// hexBytes formats raw frame bytes for debug logs, 8 bytes per line.
func hexBytes(data []byte) string {
	var sb strings.Builder
	for i, b := range data {
		if i > 0 {
			if i%8 == 0 {
				sb.WriteByte('\n')
			} else {
				sb.WriteByte(' ')
			}
		}
		fmt.Fprintf(&sb, "%02x", b)
	}
	return sb.String()
}
