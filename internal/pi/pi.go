// Package pi implements the Peripheral Interface: the cart-to-RDRAM DMA
// registers. The transfer itself is instantaneous; only the register
// protocol and completion interrupt are modeled.
package pi

import (
	"go.uber.org/zap"

	"github.com/nyxcore/n64core/internal/logging"
)

const (
	regDRAMAddr = 0x04600000
	regCartAddr = 0x04600004
	regWRLen    = 0x0460000C
	regStatus   = 0x04600010

	interruptBit = 4

	maxCartAddr = 0xFC00000
)

// Memory is the DMA destination: an 8-bit write into RDRAM.
type Memory interface {
	Write8(addr uint32, value uint8)
}

// Cart is the DMA source: raw ROM bytes.
type Cart interface {
	ROMBytes() []byte
}

// Interrupts is the sink notified on DMA completion/acknowledgement.
type Interrupts interface {
	SetInterrupt(bit int)
	ClearInterrupt(bit int)
}

// Device owns the PI registers.
type Device struct {
	mem  Memory
	cart Cart
	mi   Interrupts

	dramAddr uint32
	cartAddr uint32

	log *zap.SugaredLogger
}

// New constructs a PI device.
func New(mem Memory, cart Cart, mi Interrupts) *Device {
	return &Device{mem: mem, cart: cart, mi: mi, log: logging.For("pi")}
}

// BindCart wires in the cartridge once it exists; construction happens
// before BootROM has one to offer.
func (d *Device) BindCart(cart Cart) { d.cart = cart }

// Reset clears the DMA address registers.
func (d *Device) Reset() {
	d.dramAddr = 0
	d.cartAddr = 0
}

// ReadIO implements the PI register read window.
func (d *Device) ReadIO(addr uint32) uint32 {
	d.log.Warnw("unknown PI register read", "addr", addr)
	return 0
}

// WriteIO implements the PI register write window.
func (d *Device) WriteIO(addr uint32, value uint32) {
	switch addr {
	case regDRAMAddr:
		d.dramAddr = value & 0xFFFFFF
	case regCartAddr:
		d.cartAddr = value
	case regWRLen:
		d.performDMA(value)
	case regStatus:
		if value&0x2 != 0 {
			d.mi.ClearInterrupt(interruptBit)
		}
	default:
		d.log.Warnw("unknown PI register write", "addr", addr, "value", value)
	}
}

func (d *Device) performDMA(length uint32) {
	size := (length & 0xFFFFFF) + 1
	rom := d.cart.ROMBytes()
	bound := uint32(len(rom))
	if bound > maxCartAddr {
		bound = maxCartAddr
	}

	for i := uint32(0); i < size; i++ {
		dst := 0x80000000 + d.dramAddr + i
		src := d.cartAddr - 0x10000000 + i
		var b uint8 = 0xFF
		if src < bound {
			b = rom[src]
		}
		d.mem.Write8(dst, b)
	}

	d.mi.SetInterrupt(interruptBit)
}
