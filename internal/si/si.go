// Package si implements the Serial Interface at stub level: the DRAM
// address register and the two PIF-DMA length registers, with both
// directions of transfer treated as instantaneous and pulsing an MI
// interrupt rather than modeling the underlying joybus transaction.
package si

import (
	"go.uber.org/zap"

	"github.com/nyxcore/n64core/internal/logging"
)

const (
	regDRAMAddr   = 0x04800000
	regPIFAdRd64B = 0x04800004
	regPIFAdWr64B = 0x04800010
	regStatus     = 0x04800018

	interruptBit = 1
)

// Interrupts is the sink SI pulses on every (stubbed) DMA.
type Interrupts interface {
	SetInterrupt(bit int)
	ClearInterrupt(bit int)
}

// Device owns the SI registers.
type Device struct {
	mi Interrupts

	dramAddr uint32

	log *zap.SugaredLogger
}

// New constructs an SI device.
func New(mi Interrupts) *Device {
	return &Device{mi: mi, log: logging.For("si")}
}

// Reset clears the DMA address register.
func (d *Device) Reset() {
	d.dramAddr = 0
}

// ReadIO implements the SI register read window.
func (d *Device) ReadIO(addr uint32) uint32 {
	d.log.Warnw("unknown SI register read", "addr", addr)
	return 0
}

// WriteIO implements the SI register write window.
func (d *Device) WriteIO(addr uint32, value uint32) {
	switch addr {
	case regDRAMAddr:
		d.dramAddr = value & 0xFFFFFF
	case regPIFAdRd64B, regPIFAdWr64B:
		// TODO: actually move bytes between RDRAM and PIF RAM; both
		// directions are stubbed as instantaneous.
		d.mi.SetInterrupt(interruptBit)
	case regStatus:
		d.mi.ClearInterrupt(interruptBit)
	default:
		d.log.Warnw("unknown SI register write", "addr", addr, "value", value)
	}
}
