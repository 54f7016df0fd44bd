// SPDX-License-Identifier: GPL-2.0-only

// Package hostusb adapts the libusb host stack (via github.com/google/gousb)
// to the temper package's Host and DeviceHandle interfaces.
package hostusb

import (
	"context"
	"time"

	"github.com/efficientgo/core/errors"
	"github.com/google/gousb"

	"github.com/relavak/temperd/temper"
)

// Host wraps a libusb context. One Host serves the whole process; Close it
// after all sessions opened through it are closed.
type Host struct {
	ctx *gousb.Context
}

func New() *Host {
	ctx := gousb.NewContext()
	ctx.Debug(0)
	return &Host{ctx: ctx}
}

func (h *Host) Close() error {
	return h.ctx.Close()
}

// Devices enumerates every device libusb can see, in libusb order. The
// visitor always declines to open, so enumeration holds no handles.
func (h *Host) Devices() ([]temper.DeviceInfo, error) {
	var infos []temper.DeviceInfo
	_, err := h.ctx.OpenDevices(func(desc *gousb.DeviceDesc) bool {
		infos = append(infos, temper.DeviceInfo{
			Bus:     desc.Bus,
			Address: desc.Address,
			Vendor:  temper.USBID(desc.Vendor),
			Product: temper.USBID(desc.Product),
		})
		return false
	})
	if err != nil {
		return nil, errors.Wrap(err, "libusb enumeration failed")
	}
	return infos, nil
}

// Open reopens the device previously enumerated at the given bus address.
func (h *Host) Open(info temper.DeviceInfo) (temper.DeviceHandle, error) {
	devs, err := h.ctx.OpenDevices(func(desc *gousb.DeviceDesc) bool {
		return desc.Bus == info.Bus && desc.Address == info.Address
	})
	if err != nil {
		for _, d := range devs {
			_ = d.Close()
		}
		return nil, errors.Wrap(err, "libusb open failed")
	}
	if len(devs) == 0 {
		return nil, errors.Newf("device at bus %d address %d is gone", info.Bus, info.Address)
	}
	for _, d := range devs[1:] {
		_ = d.Close()
	}
	return &handle{dev: devs[0]}, nil
}

// handle owns one open gousb device plus whatever configuration and
// interface claims have been acquired through it so far.
type handle struct {
	dev    *gousb.Device
	cfg    *gousb.Config
	ifaces []*gousb.Interface
}

// DetachKernelDriver arms libusb's auto-detach for this device. gousb does
// not expose per-interface detach; auto-detach makes every subsequent claim
// displace a bound kernel driver, which is what the open sequence needs.
func (h *handle) DetachKernelDriver(_ int) error {
	return h.dev.SetAutoDetach(true)
}

func (h *handle) SetConfiguration(cfg int) error {
	c, err := h.dev.Config(cfg)
	if err != nil {
		return err
	}
	h.cfg = c
	return nil
}

func (h *handle) ClaimInterface(iface int) error {
	if h.cfg == nil {
		return errors.New("no active configuration")
	}
	intf, err := h.cfg.Interface(iface, 0)
	if err != nil {
		return err
	}
	h.ifaces = append(h.ifaces, intf)
	return nil
}

func (h *handle) Control(requestType, request uint8, value, index uint16, data []byte, timeout time.Duration) (int, error) {
	h.dev.ControlTimeout = timeout
	return h.dev.Control(requestType, request, value, index, data)
}

func (h *handle) InterruptRead(endpoint uint8, buf []byte, timeout time.Duration) (int, error) {
	epNum := int(endpoint & 0x0f)
	for _, intf := range h.ifaces {
		ep, err := intf.InEndpoint(epNum)
		if err != nil {
			continue
		}
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		return ep.ReadContext(ctx, buf)
	}
	return 0, errors.Newf("no claimed interface exposes IN endpoint %d", epNum)
}

// Close releases claims in reverse order of acquisition, then the
// configuration, then the device, so no claim survives the handle.
func (h *handle) Close() error {
	for i := len(h.ifaces) - 1; i >= 0; i-- {
		h.ifaces[i].Close()
	}
	h.ifaces = nil
	var err error
	if h.cfg != nil {
		err = h.cfg.Close()
		h.cfg = nil
	}
	if closeErr := h.dev.Close(); err == nil {
		err = closeErr
	}
	return err
}
