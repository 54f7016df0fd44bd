// SPDX-License-Identifier: GPL-2.0-only

// Package temper implements the device protocol for RDing TEMPer/TEMPer2
// family USB thermometers: product matching, the USB session lifecycle,
// the fixed-size command/response exchange, and decoding of raw responses
// into calibrated Celsius readings.
package temper

import (
	"github.com/efficientgo/core/errors"
)

// USBID is a 16-bit vendor or product identifier under the USB standard.
type USBID uint16

// ProductDescriptor is the static identity record of a supported device
// variant. Descriptors are immutable once registered.
type ProductDescriptor struct {
	// Vendor is the USB Vendor ID of the device.
	Vendor USBID `json:"vendor"`
	// Product is the USB Product ID of the device.
	Product USBID `json:"product"`
	// Name is the human-readable variant name.
	Name string `json:"name"`
}

// builtinProducts lists the device variants the command set in this package
// is known to work with. The original 0x1130:0x660c TEMPer is deliberately
// absent: it speaks a different command set.
var builtinProducts = []ProductDescriptor{
	{
		// Analog Devices ADT75 (or similar) based device
		// with two temperature sensors (internal & external).
		Vendor:  0x0c45,
		Product: 0x7401,
		Name:    "RDing TEMPer2V1.3",
	},
	{
		// Sensirion SHT1x based device
		// with internal humidity & temperature sensor.
		Vendor:  0x0c45,
		Product: 0x7402,
		Name:    "RDing TEMPerHumiV1.1",
	},
}

// Registry maps (vendor, product) pairs to device variant descriptors.
type Registry struct {
	products []ProductDescriptor
}

// NewRegistry returns a registry holding the built-in product table plus
// any extra descriptors, typically sourced from configuration. A descriptor
// whose (vendor, product) pair collides with an already registered one is
// rejected.
func NewRegistry(extra ...ProductDescriptor) (*Registry, error) {
	r := &Registry{
		products: make([]ProductDescriptor, 0, len(builtinProducts)+len(extra)),
	}
	r.products = append(r.products, builtinProducts...)
	for _, p := range extra {
		if _, ok := r.Lookup(p.Vendor, p.Product); ok {
			return nil, errors.Newf("duplicate product descriptor %04x:%04x", uint16(p.Vendor), uint16(p.Product))
		}
		r.products = append(r.products, p)
	}
	return r, nil
}

// Lookup returns the descriptor registered for the given IDs, if any.
func (r *Registry) Lookup(vendor, product USBID) (ProductDescriptor, bool) {
	for _, p := range r.products {
		if p.Vendor == vendor && p.Product == product {
			return p, true
		}
	}
	return ProductDescriptor{}, false
}
