// SPDX-License-Identifier: GPL-2.0-only

package temper

import (
	baseerrors "errors"
	"fmt"
	"time"

	"github.com/efficientgo/core/errors"
	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
)

// Session is the live binding between this process and one open, configured,
// interface-claimed device. A Session is either fully initialized or does
// not exist; Open never leaks a partially constructed one. Not safe for
// concurrent use: the device protocol is strictly request/response.
type Session struct {
	handle  DeviceHandle
	product ProductDescriptor
	timeout time.Duration
	logger  log.Logger
}

// FindNth enumerates the host's devices, filters them against the registry
// and opens a session on the Nth match (0-indexed, in enumeration order).
// Returns ErrDeviceNotFound if fewer than index+1 devices match.
func FindNth(host Host, registry *Registry, index int, timeout time.Duration, logger log.Logger) (*Session, error) {
	if logger == nil {
		logger = log.NewNopLogger()
	}

	devices, err := host.Devices()
	if err != nil {
		return nil, errors.Wrap(err, "failed to enumerate devices")
	}

	n := 0
	for _, info := range devices {
		_ = level.Debug(logger).Log("msg", "found device", "id", fmt.Sprintf("%04x:%04x", uint16(info.Vendor), uint16(info.Product)))
		product, ok := registry.Lookup(info.Vendor, info.Product)
		if !ok {
			continue
		}
		_ = level.Debug(logger).Log("msg", "found matching device", "num", n, "name", product.Name)
		if n == index {
			return Open(host, info, product, timeout, logger)
		}
		n++
	}
	return nil, errors.Wrapf(ErrDeviceNotFound, "%d matching device(s), requested index %d", n, index)
}

// Open opens a handle to the device, neutralizes kernel ownership of both
// interfaces, selects configuration 1 and claims interfaces 0 and 1. On any
// failure after the handle is opened, the handle is closed exactly once and
// no Session is produced.
func Open(host Host, info DeviceInfo, product ProductDescriptor, timeout time.Duration, logger log.Logger) (*Session, error) {
	if logger == nil {
		logger = log.NewNopLogger()
	}
	_ = level.Debug(logger).Log(
		"msg", "opening device",
		"name", product.Name,
		"id", fmt.Sprintf("%04x:%04x", uint16(product.Vendor), uint16(product.Product)),
	)

	handle, err := host.Open(info)
	if err != nil {
		return nil, errors.Wrapf(ErrOpenFailed, "%04x:%04x: %v", uint16(info.Vendor), uint16(info.Product), err)
	}

	// The device functions identically whether a kernel driver was detached
	// or none was ever bound; only the subsequent claims have to succeed.
	// So detach failures are tolerated, not surfaced.
	for _, iface := range []int{0, 1} {
		err := handle.DetachKernelDriver(iface)
		switch {
		case err == nil:
			_ = level.Debug(logger).Log("msg", "detached kernel driver", "interface", iface)
		case baseerrors.Is(err, ErrNoKernelDriver):
			_ = level.Debug(logger).Log("msg", "no kernel driver attached", "interface", iface)
		default:
			_ = level.Debug(logger).Log("msg", "kernel driver detach failed, continuing anyway", "interface", iface, "err", err)
		}
	}

	if err := handle.SetConfiguration(1); err != nil {
		_ = handle.Close()
		return nil, errors.Wrapf(ErrConfigurationFailed, "%v", err)
	}

	for _, iface := range []int{0, 1} {
		if err := handle.ClaimInterface(iface); err != nil {
			// DeviceHandle.Close releases any claims already held, so the
			// interface-0 claim cannot leak here.
			_ = handle.Close()
			return nil, errors.Wrapf(ErrInterfaceClaimFailed, "interface %d: %v", iface, err)
		}
	}

	return &Session{
		handle:  handle,
		product: product,
		timeout: timeout,
		logger:  logger,
	}, nil
}

// Product returns the descriptor of the device this session is bound to.
func (s *Session) Product() ProductDescriptor {
	return s.product
}

// Close releases the device handle. Call exactly once; the session must not
// be used afterwards.
func (s *Session) Close() {
	if s.handle == nil {
		return
	}
	if err := s.handle.Close(); err != nil {
		_ = level.Debug(s.logger).Log("msg", "closing device handle failed", "err", err)
	}
	s.handle = nil
}
