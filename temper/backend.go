// SPDX-License-Identifier: GPL-2.0-only

package temper

import "time"

// DeviceInfo identifies one device as reported by the host stack during
// enumeration. Enumeration order is whatever the host stack yields; it is
// consistent within one process run but not across runs or hosts.
type DeviceInfo struct {
	// Bus and Address locate the device on the host for reopening.
	Bus     int
	Address int
	Vendor  USBID
	Product USBID
}

// Host is the USB host stack as seen by this package: a one-shot device
// enumeration plus the ability to open a handle to an enumerated device.
type Host interface {
	// Devices enumerates all devices on all buses, in host-stack order.
	Devices() ([]DeviceInfo, error)
	// Open opens a handle to the given device. The caller owns the handle
	// and must Close it exactly once.
	Open(info DeviceInfo) (DeviceHandle, error)
}

// DeviceHandle is an open USB device context. A handle is exclusively owned
// by the Session that holds it and is not safe for concurrent use.
//
// Close must release any interface claims held through the handle before
// closing the underlying device, so that no claim can leak on the session
// open error paths.
type DeviceHandle interface {
	// DetachKernelDriver unbinds a kernel-native driver from the given
	// interface. Returns ErrNoKernelDriver if none was bound.
	DetachKernelDriver(iface int) error

	// SetConfiguration selects the device's active configuration.
	SetConfiguration(cfg int) error

	// ClaimInterface claims the given interface of the active configuration.
	ClaimInterface(iface int) error

	// Control issues a control transfer and returns the number of bytes
	// actually transferred, bounded by timeout.
	Control(requestType, request uint8, value, index uint16, data []byte, timeout time.Duration) (int, error)

	// InterruptRead performs a blocking interrupt read from the given IN
	// endpoint address into buf, bounded by timeout. Returns the number of
	// bytes read.
	InterruptRead(endpoint uint8, buf []byte, timeout time.Duration) (int, error)

	// Close releases all claims held through this handle and closes it.
	Close() error
}
