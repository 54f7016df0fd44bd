// SPDX-License-Identifier: GPL-2.0-only

package temper

import (
	"bytes"
	"errors"
	"testing"
)

func TestSendCommandFraming(t *testing.T) {
	for _, tc := range []struct {
		name      string
		send      func(s *Session) error
		wantValue uint16
		wantIndex uint16
		wantLead  []byte
	}{
		{
			name:      "command8",
			send:      func(s *Session) error { return s.SendCommand8(0x01, 0x80, 0x33, 0x01, 0x00, 0x00, 0x00, 0x00) },
			wantValue: 0x200,
			wantIndex: 0x01,
			wantLead:  []byte{0x01, 0x80, 0x33, 0x01, 0x00, 0x00, 0x00, 0x00},
		},
		{
			name:      "command2",
			send:      func(s *Session) error { return s.SendCommand2(0x01, 0x01) },
			wantValue: 0x201,
			wantIndex: 0x00,
			wantLead:  []byte{0x01, 0x01},
		},
	} {
		t.Run(tc.name, func(t *testing.T) {
			session, handle := newTestSession(t, fakeHandleSetup{})
			if err := tc.send(session); err != nil {
				t.Fatal(err)
			}

			if len(handle.controlCalls) != 1 {
				t.Fatalf("control calls: got %d; want 1", len(handle.controlCalls))
			}
			call := handle.controlCalls[0]
			if call.requestType != 0x21 || call.request != 9 {
				t.Errorf("request: got (%#02x, %d); want (0x21, 9)", call.requestType, call.request)
			}
			if call.value != tc.wantValue || call.index != tc.wantIndex {
				t.Errorf("value/index: got (%#x, %#x); want (%#x, %#x)", call.value, call.index, tc.wantValue, tc.wantIndex)
			}
			if len(call.data) != CommandFrameSize {
				t.Fatalf("frame size: got %d; want %d", len(call.data), CommandFrameSize)
			}
			if !bytes.Equal(call.data[:len(tc.wantLead)], tc.wantLead) {
				t.Errorf("frame lead: got %x; want %x", call.data[:len(tc.wantLead)], tc.wantLead)
			}
			if !bytes.Equal(call.data[len(tc.wantLead):], make([]byte, CommandFrameSize-len(tc.wantLead))) {
				t.Errorf("frame padding is not zeroed: %x", call.data)
			}
		})
	}
}

func TestSendCommandWrongByteCount(t *testing.T) {
	for _, accepted := range []int{0, 8, 71, 73} {
		session, _ := newTestSession(t, fakeHandleSetup{
			control: func(controlCall) (int, error) { return accepted, nil },
		})
		if err := session.SendCommand8(0x01, 0x80, 0x33, 0x01, 0x00, 0x00, 0x00, 0x00); !errors.Is(err, ErrTransport) {
			t.Errorf("accepted %d bytes: got %v; want ErrTransport", accepted, err)
		}
		if err := session.SendCommand2(0x01, 0x01); !errors.Is(err, ErrTransport) {
			t.Errorf("accepted %d bytes: got %v; want ErrTransport", accepted, err)
		}
	}
}

func TestSendCommandControlError(t *testing.T) {
	session, _ := newTestSession(t, fakeHandleSetup{
		control: func(controlCall) (int, error) { return 0, errors.New("injected") },
	})
	if err := session.SendCommand8(0, 0, 0, 0, 0, 0, 0, 0); !errors.Is(err, ErrTransport) {
		t.Errorf("got %v; want ErrTransport", err)
	}
}

func TestReadResponse(t *testing.T) {
	want := [ResponseSize]byte{0x80, 0x02, 0x01, 0x90, 0xff, 0x70, 0x65, 0x72}
	session, handle := newTestSession(t, fakeHandleSetup{
		interrupt: func(_ uint8, buf []byte) (int, error) {
			copy(buf, want[:])
			return len(want), nil
		},
	})

	frame, err := session.ReadResponse()
	if err != nil {
		t.Fatal(err)
	}
	if frame != want {
		t.Errorf("got %x; want %x", frame, want)
	}
	if len(handle.interruptCalls) != 1 || handle.interruptCalls[0] != 0x82 {
		t.Errorf("interrupt endpoint: got %v; want [0x82]", handle.interruptCalls)
	}
}

func TestReadResponseShortRead(t *testing.T) {
	for _, n := range []int{0, 2, 7} {
		session, _ := newTestSession(t, fakeHandleSetup{
			interrupt: func(_ uint8, _ []byte) (int, error) { return n, nil },
		})
		if _, err := session.ReadResponse(); !errors.Is(err, ErrTransport) {
			t.Errorf("read %d bytes: got %v; want ErrTransport", n, err)
		}
	}
}

func TestReadResponseTimeout(t *testing.T) {
	session, _ := newTestSession(t, fakeHandleSetup{
		interrupt: func(_ uint8, _ []byte) (int, error) { return 0, errors.New("transfer timed out") },
	})
	if _, err := session.ReadResponse(); !errors.Is(err, ErrTransport) {
		t.Errorf("got %v; want ErrTransport", err)
	}
}
