// Package mmu implements the unified memory map: kseg0/kseg1 masking, a
// 32-entry software TLB, and the physical dispatch table that routes every
// load/store to RDRAM, a coprocessor window, an I/O register block, the
// cartridge, or the PIF, assembling multi-byte values big-endian.
package mmu

import (
	"go.uber.org/zap"

	"github.com/nyxcore/n64core/internal/cartridge"
	"github.com/nyxcore/n64core/internal/logging"
)

// Exceptions is implemented by CPU CP0: a TLB miss or modification during
// translation raises the matching exception and latches the faulting
// address.
type Exceptions interface {
	Exception(code int)
	SetTLBAddress(addr uint32)
}

// RSPWindow is implemented by the RSP core: DMEM/IMEM, its CP0 registers,
// and its program counter are all addressable through the bus.
type RSPWindow interface {
	ReadMem(addr uint32) uint8
	WriteMem(addr uint32, value uint8)
	ReadCP0(index uint32) uint32
	WriteCP0(index uint32, value uint32)
	ReadPC() uint32
	WritePC(value uint32)
}

// RDPWindow is implemented by the RDP: its command registers sit in a small
// 32-bit-only window.
type RDPWindow interface {
	ReadReg(index uint32) uint32
	WriteReg(index uint32, value uint32)
}

// IOBlock is the shape shared by MI/VI/AI/PI/SI: a flat 32-bit register
// window addressed by absolute physical address.
type IOBlock interface {
	ReadIO(addr uint32) uint32
	WriteIO(addr uint32, value uint32)
}

// PIFWindow is implemented by the PIF device.
type PIFWindow interface {
	ReadByte(offset uint32) uint8
	WriteByte(offset uint32, value uint8)
}

// Cart is the subset of cartridge.Cart the bus dispatches to.
type Cart interface {
	ROMBytes() []byte
	SaveSize() uint32
	ReadSave(offset uint32) uint8
	WriteSRAM(offset uint32, value uint8)
	WriteSave(offset uint32, value uint8)
	WriteFlashCommand(value uint32)
	FlashReading() bool
	FlashWriting() bool
}

const (
	rspMemBase = 0x04000000
	rspMemEnd  = 0x04040000
	rspCP0Base = 0x04040000
	rspCP0End  = 0x04040020
	rspPCAddr  = 0x04080000
	rdpBase    = 0x04100000
	rdpEnd     = 0x04100020
	riSelect   = 0x0470000C

	sramBase  = 0x08000000
	sramEnd   = 0x08008000
	flashBase = 0x08000000
	flashEnd  = 0x08020000
	flashReg  = 0x08010000

	flashWriteBufBase = 0x08000000
	flashWriteBufEnd  = 0x08000080

	cartROMBase = 0x10000000
	cartROMMax  = 0xFC00000

	pifBase = 0x1FC00000
	pifEnd  = 0x1FC00800
)

type tlbEntry struct {
	entryLo0 uint32
	entryLo1 uint32
	entryHi  uint32
	pageMask uint32
}

// MMU owns RDRAM and the TLB, and dispatches everything else to the
// components wired in at construction.
type MMU struct {
	rdram   []byte
	ramSize uint32

	tlb [32]tlbEntry

	exc  Exceptions
	rsp  RSPWindow
	rdp  RDPWindow
	mi   IOBlock
	vi   IOBlock
	ai   IOBlock
	pi   IOBlock
	si   IOBlock
	pif  PIFWindow
	cart Cart

	log *zap.SugaredLogger
}

// Config bundles the collaborators a console wires the bus to.
type Config struct {
	RAMSize uint32 // 0x400000 (4MiB); RDRAM is indexed modulo 4MiB, with no expansion pak
	Exc     Exceptions
	RSP     RSPWindow
	RDP     RDPWindow
	MI      IOBlock
	VI      IOBlock
	AI      IOBlock
	PI      IOBlock
	SI      IOBlock
	PIF     PIFWindow
	Cart    Cart
}

// New constructs an MMU from the given collaborators.
func New(cfg Config) *MMU {
	return &MMU{
		rdram:   make([]byte, 0x800000),
		ramSize: cfg.RAMSize,
		exc:     cfg.Exc,
		rsp:     cfg.RSP,
		rdp:     cfg.RDP,
		mi:      cfg.MI,
		vi:      cfg.VI,
		ai:      cfg.AI,
		pi:      cfg.PI,
		si:      cfg.SI,
		pif:     cfg.PIF,
		cart:    cfg.Cart,
		log:     logging.For("mmu"),
	}
}

// BindCPU, BindRSP, BindRDP, BindVI, BindAI, and BindPI wire in collaborators
// that, in turn, take the MMU itself as their own memory dependency. Console
// builds the MMU first with these left nil, constructs the CPU/RSP/RDP/VI/
// AI/PI against it, then calls these to close the loop before touching the
// bus. MI, SI, and PIF have no such cycle and are supplied directly in
// Config.
func (m *MMU) BindCPU(exc Exceptions) { m.exc = exc }
func (m *MMU) BindRSP(rsp RSPWindow)  { m.rsp = rsp }
func (m *MMU) BindRDP(rdp RDPWindow)  { m.rdp = rdp }
func (m *MMU) BindVI(vi IOBlock)      { m.vi = vi }
func (m *MMU) BindAI(ai IOBlock)      { m.ai = ai }
func (m *MMU) BindPI(pi IOBlock)      { m.pi = pi }

// BindCart wires in the cartridge once BootROM has loaded one; it is the one
// collaborator that can change across a Console's lifetime, on a reboot.
func (m *MMU) BindCart(cart Cart) { m.cart = cart }

// Reset clears RDRAM and invalidates every TLB entry, matching cold boot.
func (m *MMU) Reset() {
	for i := range m.rdram {
		m.rdram[i] = 0
	}
	for i := range m.tlb {
		m.tlb[i] = tlbEntry{entryHi: 0x80000000}
	}
}

// GetTLBEntry reads back TLB entry `index & 0x1F`, for the TLBR instruction.
func (m *MMU) GetTLBEntry(index uint32) (entryLo0, entryLo1, entryHi, pageMask uint32) {
	e := m.tlb[index&0x1F]
	return e.entryLo0, e.entryLo1, e.entryHi, e.pageMask
}

// SetTLBEntry writes TLB entry `index & 0x1F`, for TLBWI/TLBWR.
func (m *MMU) SetTLBEntry(index, entryLo0, entryLo1, entryHi, pageMask uint32) {
	m.tlb[index&0x1F] = tlbEntry{entryLo0: entryLo0, entryLo1: entryLo1, entryHi: entryHi, pageMask: pageMask}
}

// Read8, Read16, Read32, and Read64 perform a big-endian load of the given
// width at a virtual address, translating and dispatching through the
// physical memory map.
func (m *MMU) Read8(vaddr uint32) uint8   { return uint8(m.read(vaddr, 1)) }
func (m *MMU) Read16(vaddr uint32) uint16 { return uint16(m.read(vaddr, 2)) }
func (m *MMU) Read32(vaddr uint32) uint32 { return uint32(m.read(vaddr, 4)) }
func (m *MMU) Read64(vaddr uint32) uint64 { return m.read(vaddr, 8) }

// Write8, Write16, Write32, and Write64 perform a big-endian store of the
// given width at a virtual address.
func (m *MMU) Write8(vaddr uint32, value uint8)   { m.write(vaddr, uint64(value), 1) }
func (m *MMU) Write16(vaddr uint32, value uint16) { m.write(vaddr, uint64(value), 2) }
func (m *MMU) Write32(vaddr uint32, value uint32) { m.write(vaddr, uint64(value), 4) }
func (m *MMU) Write64(vaddr uint32, value uint64) { m.write(vaddr, value, 8) }

func (m *MMU) read(vaddr uint32, size int) uint64 {
	paddr, ok := m.translateRead(vaddr)
	if !ok {
		return 0
	}
	return m.dispatchRead(paddr, size)
}

func (m *MMU) write(vaddr uint32, value uint64, size int) {
	paddr, ok := m.translateWrite(vaddr)
	if !ok {
		return
	}
	m.dispatchWrite(paddr, value, size)
}

// translateRead resolves a virtual address for a load, raising a TLB load
// miss (exception code 2) when no entry covers it.
func (m *MMU) translateRead(vaddr uint32) (uint32, bool) {
	if vaddr&0xC0000000 == 0x80000000 {
		return vaddr & 0x1FFFFFFF, true
	}
	for i := range m.tlb {
		e := &m.tlb[i]
		vpage := e.entryHi & 0xFFFFE000
		mask := e.pageMask | 0x1FFF
		if vaddr-vpage > mask {
			continue
		}
		half := mask >> 1
		if vaddr-vpage <= half {
			return ((e.entryLo0 & 0x3FFFFC0) << 6) + (vaddr & half), true
		}
		return ((e.entryLo1 & 0x3FFFFC0) << 6) + (vaddr & half), true
	}
	m.exc.Exception(2)
	m.exc.SetTLBAddress(vaddr)
	return 0, false
}

// translateWrite resolves a virtual address for a store, raising a TLB
// modification exception (code 1) if the matched page isn't dirty, or a TLB
// store miss (code 3) if no entry covers it.
func (m *MMU) translateWrite(vaddr uint32) (uint32, bool) {
	if vaddr&0xC0000000 == 0x80000000 {
		return vaddr & 0x1FFFFFFF, true
	}
	for i := range m.tlb {
		e := &m.tlb[i]
		vpage := e.entryHi & 0xFFFFE000
		mask := e.pageMask | 0x1FFF
		if vaddr-vpage > mask {
			continue
		}
		half := mask >> 1
		if vaddr-vpage <= half {
			if e.entryLo0&0x4 != 0 {
				return ((e.entryLo0 & 0x3FFFFC0) << 6) + (vaddr & half), true
			}
		} else {
			if e.entryLo1&0x4 != 0 {
				return ((e.entryLo1 & 0x3FFFFC0) << 6) + (vaddr & half), true
			}
		}
		m.exc.Exception(1)
		m.exc.SetTLBAddress(vaddr)
		return 0, false
	}
	m.exc.Exception(3)
	m.exc.SetTLBAddress(vaddr)
	return 0, false
}

func (m *MMU) dispatchRead(paddr uint32, size int) uint64 {
	if rd, ok := m.byteReader(paddr); ok {
		var value uint64
		for i := 0; i < size; i++ {
			value |= uint64(rd(paddr+uint32(i))) << uint((size-1-i)*8)
		}
		return value
	}

	if size != 4 {
		m.log.Warnw("unknown memory read", "vaddr", paddr)
		return 0
	}

	switch {
	case paddr >= rspCP0Base && paddr < rspCP0End:
		return uint64(m.rsp.ReadCP0((paddr & 0x1F) >> 2))
	case paddr == rspPCAddr:
		return uint64(m.rsp.ReadPC())
	case paddr >= rdpBase && paddr < rdpEnd:
		return uint64(m.rdp.ReadReg((paddr & 0x1F) >> 2))
	case paddr == riSelect:
		return 1
	}

	switch paddr >> 20 {
	case 0x43:
		return uint64(m.mi.ReadIO(paddr))
	case 0x44:
		return uint64(m.vi.ReadIO(paddr))
	case 0x45:
		return uint64(m.ai.ReadIO(paddr))
	case 0x46:
		return uint64(m.pi.ReadIO(paddr))
	case 0x48:
		return uint64(m.si.ReadIO(paddr))
	}

	m.log.Warnw("unknown memory read", "vaddr", paddr)
	return 0
}

func (m *MMU) dispatchWrite(paddr uint32, value uint64, size int) {
	if wr, ok := m.byteWriter(paddr); ok {
		for i := 0; i < size; i++ {
			wr(paddr+uint32(i), uint8(value>>uint((size-1-i)*8)))
		}
		return
	}

	if size != 4 {
		return
	}

	switch {
	case paddr >= rspCP0Base && paddr < rspCP0End:
		m.rsp.WriteCP0((paddr&0x1F)>>2, uint32(value))
		return
	case paddr == rspPCAddr:
		m.rsp.WritePC(uint32(value))
		return
	case paddr >= rdpBase && paddr < rdpEnd:
		m.rdp.WriteReg((paddr&0x1F)>>2, uint32(value))
		return
	case paddr == flashReg && m.cart.SaveSize() == cartridge.BackendFlash128K.Size():
		m.cart.WriteFlashCommand(uint32(value))
		return
	}

	switch paddr >> 20 {
	case 0x43:
		m.mi.WriteIO(paddr, uint32(value))
		return
	case 0x44:
		m.vi.WriteIO(paddr, uint32(value))
		return
	case 0x45:
		m.ai.WriteIO(paddr, uint32(value))
		return
	case 0x46:
		m.pi.WriteIO(paddr, uint32(value))
		return
	case 0x48:
		m.si.WriteIO(paddr, uint32(value))
		return
	}

	m.log.Warnw("unknown memory write", "vaddr", paddr, "value", value)
}

// byteReader returns the per-byte read function for whichever memory-backed
// window paddr falls in, or ok=false if it belongs to a register window
// instead.
func (m *MMU) byteReader(paddr uint32) (func(uint32) uint8, bool) {
	switch {
	case paddr < m.ramSize:
		return func(a uint32) uint8 { return m.rdram[a&0x3FFFFF] }, true
	case paddr >= rspMemBase && paddr < rspMemEnd:
		return func(a uint32) uint8 { return m.rsp.ReadMem((a & 0x1000) | (a & 0xFFF)) }, true
	case paddr >= sramBase && paddr < sramEnd && m.cart.SaveSize() == cartridge.BackendSram32K.Size():
		return func(a uint32) uint8 { return m.cart.ReadSave(a & 0x7FFF) }, true
	case paddr >= flashBase && paddr < flashEnd && m.cart.FlashReading():
		return func(a uint32) uint8 { return m.cart.ReadSave(a & 0x1FFFF) }, true
	case paddr >= cartROMBase && paddr < cartROMBase+minU32(uint32(len(m.cart.ROMBytes())), cartROMMax):
		rom := m.cart.ROMBytes()
		return func(a uint32) uint8 { return rom[a-cartROMBase] }, true
	case paddr >= pifBase && paddr < pifEnd:
		return func(a uint32) uint8 { return m.pif.ReadByte(a & 0x7FF) }, true
	default:
		return nil, false
	}
}

// byteWriter mirrors byteReader for stores; a store that lands on the PIF
// command byte runs its commands inside the PIF's own WriteByte.
func (m *MMU) byteWriter(paddr uint32) (func(uint32, uint8), bool) {
	switch {
	case paddr < m.ramSize:
		return func(a uint32, v uint8) { m.rdram[a&0x3FFFFF] = v }, true
	case paddr >= rspMemBase && paddr < rspMemEnd:
		return func(a uint32, v uint8) { m.rsp.WriteMem((a&0x1000)|(a&0xFFF), v) }, true
	case paddr >= sramBase && paddr < sramEnd && m.cart.SaveSize() == cartridge.BackendSram32K.Size():
		return func(a uint32, v uint8) { m.cart.WriteSRAM(a&0x7FFF, v) }, true
	case paddr >= flashWriteBufBase && paddr < flashWriteBufEnd && m.cart.FlashWriting():
		return func(a uint32, v uint8) { m.cart.WriteSave(a&0x7F, v) }, true
	case paddr >= pifBase && paddr < pifEnd:
		return func(a uint32, v uint8) { m.pif.WriteByte(a & 0x7FF, v) }, true
	default:
		return nil, false
	}
}

func minU32(a, b uint32) uint32 {
	if a < b {
		return a
	}
	return b
}
