// Package pif implements the 2KB PIF boot/controller scratch: a ROM+RAM
// region, the command-bit dispatch that runs whenever the command byte is written,
// and a standard 4-byte controller-read reply packed from host input edges.
package pif

import (
	"go.uber.org/zap"

	"github.com/nyxcore/n64core/internal/logging"
)

// Size is the full PIF memory window: 0x7C0 ROM bytes followed by 0x40 RAM
// bytes, the command byte living in the last RAM byte.
const Size = 0x800

const (
	ramBase          = 0x7C0
	cmdByte          = 0x7FF
	checksumVerified = 0x80
)

// Command bits, each independently settable in the command byte; runCommand
// executes every set bit in ascending order and clears it afterward.
const (
	bitVerifyChecksum = 5
	bitClearMemory    = 6
)

// InputEdges is the standard controller-read reply: a 16-bit button mask
// plus signed X/Y stick bytes, the layout a joybus-protocol host collaborator
// packs into.
type InputEdges struct {
	Buttons uint16
	StickX  int8
	StickY  int8
}

// Device owns PIF memory and the latest polled controller state.
type Device struct {
	Memory [Size]byte
	Input  InputEdges

	log *zap.SugaredLogger
}

// New constructs a Device with the given 0x7C0-byte boot ROM image loaded at
// the start of memory.
func New(bootROM []byte) *Device {
	d := &Device{log: logging.For("pif")}
	copy(d.Memory[:ramBase], bootROM)
	return d
}

// Reset clears PIF RAM, matching a cold boot's clearMemory(0) call.
func (d *Device) Reset() {
	d.clearMemory()
}

// ReadByte reads one byte from the PIF window.
func (d *Device) ReadByte(offset uint32) uint8 {
	if int(offset) >= len(d.Memory) {
		return 0xFF
	}
	return d.Memory[offset]
}

// WriteByte writes one byte, running any newly-set command bits in the
// command byte immediately afterward.
func (d *Device) WriteByte(offset uint32, value uint8) {
	if int(offset) >= len(d.Memory) {
		return
	}
	d.Memory[offset] = value
	if offset == cmdByte {
		d.runCommand()
	}
}

// SetInput updates the latest polled controller edges, consumed the next
// time a controller-read command runs.
func (d *Device) SetInput(edges InputEdges) {
	d.Input = edges
}

func (d *Device) runCommand() {
	cmd := d.Memory[cmdByte]
	for bit := 0; bit < 8; bit++ {
		if cmd&(1<<uint(bit)) == 0 {
			continue
		}
		switch bit {
		case bitVerifyChecksum:
			d.verifyChecksum()
		case bitClearMemory:
			d.clearMemory()
		case 0:
			d.readController()
		default:
			d.log.Warnw("unknown PIF command bit", "bit", bit)
		}
		d.Memory[cmdByte] &^= 1 << uint(bit)
	}
}

// verifyChecksum stands in for CIC boot-checksum verification: real hardware
// compares a checksum supplied by the CIC chip, but emulation has no CIC, so
// the result bit is simply set to let IPL3 proceed.
func (d *Device) verifyChecksum() {
	d.Memory[cmdByte] |= checksumVerified
}

func (d *Device) clearMemory() {
	for i := ramBase; i < len(d.Memory); i++ {
		d.Memory[i] = 0
	}
}

// readController packs the latest input edges into the standard 4-byte
// controller-read reply, written at the start of PIF RAM.
func (d *Device) readController() {
	if ramBase+4 > len(d.Memory) {
		return
	}
	d.Memory[ramBase+0] = uint8(d.Input.Buttons >> 8)
	d.Memory[ramBase+1] = uint8(d.Input.Buttons)
	d.Memory[ramBase+2] = uint8(d.Input.StickX)
	d.Memory[ramBase+3] = uint8(d.Input.StickY)
}
