// Package cartridge owns the raw ROM image and the save backend: EEPROM,
// SRAM, or FLASH, each addressed by the memory map's cart save region, plus
// the small FLASH command state machine that the write register drives.
package cartridge

import (
	"sync"

	"go.uber.org/zap"

	"github.com/nyxcore/n64core/internal/logging"
)

// Backend names the discriminant save-kind; sizing follows directly from
// the kind (0, 512, 2048, 32768, or 131072 bytes).
type Backend int

const (
	BackendNone Backend = iota
	BackendEeprom512
	BackendEeprom2K
	BackendSram32K
	BackendFlash128K
)

// Size returns the byte length of a backend's save file.
func (b Backend) Size() uint32 {
	switch b {
	case BackendEeprom512:
		return 512
	case BackendEeprom2K:
		return 2048
	case BackendSram32K:
		return 32 * 1024
	case BackendFlash128K:
		return 128 * 1024
	default:
		return 0
	}
}

// flashState is the FLASH chip's small command state machine.
type flashState int

const (
	flashIdle flashState = iota
	flashStatus
	flashRead
	flashWrite
	flashErase
)

// maxROMSize bounds what PI can address: 252 MiB.
const maxROMSize = 252 * 1024 * 1024

// Cart holds the ROM bytes and the active save backend. Save bytes and the
// FLASH state machine are guarded by a mutex: the emulator goroutine mutates
// them on every I/O access while the save-flush goroutine reads them back
// every few seconds.
type Cart struct {
	rom []byte

	mu      sync.Mutex
	backend Backend
	save    []byte
	dirty   bool

	flash    flashState
	writeOfs uint32
	eraseOfs uint32
	writeBuf [0x80]byte

	log *zap.SugaredLogger
}

// New constructs a cartridge with the given ROM bytes and backend, loading an
// existing save (or defaulting to all-0xFF, matching a blank FLASH/EEPROM
// chip) when saveBytes is nil.
func New(rom []byte, backend Backend, saveBytes []byte) *Cart {
	if len(rom) > maxROMSize {
		rom = rom[:maxROMSize]
	}
	c := &Cart{rom: rom, backend: backend, log: logging.For("cartridge")}
	size := backend.Size()
	if saveBytes != nil {
		c.save = saveBytes
	} else if size > 0 {
		c.save = make([]byte, size)
		for i := range c.save {
			c.save[i] = 0xFF
		}
	}
	return c
}

// ROMBytes returns the raw cart ROM image.
func (c *Cart) ROMBytes() []byte { return c.rom }

// Backend reports the active save backend.
func (c *Cart) Backend() Backend { return c.backend }

// SaveSize reports the current save buffer's length, the gate the physical
// dispatch table uses to decide whether the SRAM window is backed at all.
func (c *Cart) SaveSize() uint32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return uint32(len(c.save))
}

// Save returns a copy of the current save bytes, safe to persist to disk
// without racing a concurrent write.
func (c *Cart) Save() []byte {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]byte, len(c.save))
	copy(out, c.save)
	return out
}

// Dirty reports whether the save has changed since the last ClearDirty.
func (c *Cart) Dirty() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.dirty
}

// ClearDirty acknowledges a completed flush to disk.
func (c *Cart) ClearDirty() {
	c.mu.Lock()
	c.dirty = false
	c.mu.Unlock()
}

// ResizeSave replaces the save buffer, preserving min(old,new) bytes and
// padding a larger buffer's tail with 0xFF.
func (c *Cart) ResizeSave(newSize uint32) {
	c.mu.Lock()
	defer c.mu.Unlock()

	newSave := make([]byte, newSize)
	if uint32(len(c.save)) < newSize {
		copy(newSave, c.save)
		for i := len(c.save); i < len(newSave); i++ {
			newSave[i] = 0xFF
		}
	} else {
		copy(newSave, c.save[:newSize])
	}
	c.save = newSave
	c.dirty = true
}

// ReadSave reads a byte from the save region (SRAM, or FLASH while in the
// Read state).
func (c *Cart) ReadSave(offset uint32) uint8 {
	c.mu.Lock()
	defer c.mu.Unlock()
	if int(offset) >= len(c.save) {
		return 0xFF
	}
	return c.save[offset]
}

// WriteSRAM writes directly into the persisted save buffer, the path SRAM
// cartridges use (as opposed to FLASH's staged write-buffer-then-execute
// protocol).
func (c *Cart) WriteSRAM(offset uint32, value uint8) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if int(offset) < len(c.save) {
		c.save[offset] = value
		c.dirty = true
	}
}

// WriteSave stores one FLASH write-buffer byte ahead of an Execute command.
func (c *Cart) WriteSave(offset uint32, value uint8) {
	c.mu.Lock()
	defer c.mu.Unlock()
	offset &= 0x7F
	if int(offset) < len(c.writeBuf) {
		c.writeBuf[offset] = value
	}
}

// WriteFlashCommand drives the FLASH command register (address 0x08010000).
func (c *Cart) WriteFlashCommand(value uint32) {
	c.mu.Lock()
	defer c.mu.Unlock()

	cmd := value >> 24
	switch cmd {
	case 0x4B: // set erase offset
		c.eraseOfs = (value & 0xFFFF) << 7
	case 0xA5: // set write offset
		c.writeOfs = (value & 0xFFFF) << 7
	case 0x78:
		c.flash = flashErase
	case 0xB4:
		c.flash = flashWrite
	case 0xE1:
		c.flash = flashStatus
	case 0xF0:
		c.flash = flashRead
	case 0xD2:
		c.execute()
	default:
		c.log.Warnw("unknown flash command", "cmd", cmd)
	}
}

func (c *Cart) execute() {
	switch c.flash {
	case flashWrite:
		for i := 0; i < len(c.writeBuf) && int(c.writeOfs)+i < len(c.save); i++ {
			c.save[c.writeOfs+uint32(i)] = c.writeBuf[i]
		}
		c.dirty = true
	case flashErase:
		for i := 0; i < 0x80 && int(c.eraseOfs)+i < len(c.save); i++ {
			c.save[c.eraseOfs+uint32(i)] = 0xFF
		}
		c.dirty = true
	default:
		c.log.Warnw("flash execute in invalid state", "state", c.flash)
	}
}

// FlashReading reports whether the chip is in the Read state, gating the
// cart save-region read path in the physical dispatch table.
func (c *Cart) FlashReading() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.flash == flashRead
}

// FlashWriting reports whether the chip is in the Write state, gating the
// FLASH write-buffer staging window in the physical dispatch table.
func (c *Cart) FlashWriting() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.flash == flashWrite
}
