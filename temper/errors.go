// SPDX-License-Identifier: GPL-2.0-only

package temper

import (
	"github.com/efficientgo/core/errors"
)

// Failure taxonomy of the protocol layer. Every exported operation returns
// one of these sentinels somewhere in its wrap chain, so callers can
// classify with errors.Is. Kernel-driver detach failures are deliberately
// not represented: they are tolerated during session open and only show up
// in debug logs.
var (
	// ErrDeviceNotFound means enumeration produced fewer matching devices
	// than the requested index.
	ErrDeviceNotFound = errors.New("no matching device at requested index")

	// ErrOpenFailed means the host stack refused to open a handle to a
	// matched device.
	ErrOpenFailed = errors.New("failed to open device")

	// ErrConfigurationFailed means the device rejected the active
	// configuration selection.
	ErrConfigurationFailed = errors.New("failed to set device configuration")

	// ErrInterfaceClaimFailed means one of the two device interfaces could
	// not be claimed.
	ErrInterfaceClaimFailed = errors.New("failed to claim device interface")

	// ErrTransport means a control write was not accepted in full or an
	// interrupt read timed out or came back short. Reported per poll; the
	// caller decides whether the next cycle retries.
	ErrTransport = errors.New("transport error")

	// ErrNoKernelDriver is returned by DeviceHandle.DetachKernelDriver when
	// no kernel driver was bound to the interface. Session open treats it
	// as success.
	ErrNoKernelDriver = errors.New("no kernel driver attached")
)
