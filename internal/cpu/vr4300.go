// Package cpu implements the VR4300: the scalar MIPS III pipeline, CP0
// (system control, TLB, exceptions) and CP1 (FPU), all sharing one struct
// the way the original's CPU/CPU_CP0/CPU_CP1 namespaces shared file-scope
// globals.
package cpu

import (
	"math/bits"

	"go.uber.org/zap"

	"github.com/nyxcore/n64core/internal/logging"
)

// noDelaySlot marks that the opcode currently executing is not itself in a
// branch delay slot.
const noDelaySlot = 0xFFFFFFFF

// Memory is the address space the CPU issues loads, stores and TLB
// maintenance through; satisfied by *mmu.MMU.
type Memory interface {
	Read8(vaddr uint32) uint8
	Read16(vaddr uint32) uint16
	Read32(vaddr uint32) uint32
	Read64(vaddr uint32) uint64
	Write8(vaddr uint32, value uint8)
	Write16(vaddr uint32, value uint16)
	Write32(vaddr uint32, value uint32)
	Write64(vaddr uint32, value uint64)
	GetTLBEntry(index uint32) (entryLo0, entryLo1, entryHi, pageMask uint32)
	SetTLBEntry(index, entryLo0, entryLo1, entryHi, pageMask uint32)
}

// Config bundles the CPU's collaborators, supplied by internal/core.
type Config struct {
	Mem   Memory
	Sched Scheduler
	MI    MI
}

// CPU is the VR4300: 32 general-purpose registers, hi/lo, the pipelined
// fetch/decode program counter pair, and the CP0/CP1 register files.
type CPU struct {
	regs [32]uint64
	hi   uint64
	lo   uint64

	pc         uint32
	nextOpcode uint32
	delaySlot  uint32 // branch address behind the instruction executing right now, if any
	armedSlot  uint32 // branch address armed by a branch this cycle, promoted to delaySlot next cycle
	running    bool

	// CP0 registers, named after the hardware register they back.
	cp0Index    uint32
	cp0EntryLo0 uint32
	cp0EntryLo1 uint32
	cp0Context  uint32
	cp0PageMask uint32
	cp0BadVAddr uint32
	cp0Count    uint32
	cp0EntryHi  uint32
	cp0Compare  uint32
	cp0Status   uint32
	cp0Cause    uint32
	cp0EPC      uint32
	cp0ErrorEPC uint32
	irqPending  bool
	startCycles uint32
	endCycles   uint32

	// CP1 registers.
	fullMode bool
	fpRegs   [32]uint64
	fpStatus uint32

	mem   Memory
	sched Scheduler
	mi    MI

	log *zap.SugaredLogger

	immInstrs [0x40]func(uint32)
	regInstrs [0x40]func(uint32)
	extInstrs [0x20]func(uint32)
	sglInstrs [0x40]func(uint32)
	dblInstrs [0x40]func(uint32)
	wrdInstrs [0x40]func(uint32)
	lwdInstrs [0x40]func(uint32)
}

// New constructs a CPU wired to the given memory, scheduler and interrupt
// source, and resets it to its cold-boot state.
func New(cfg Config) *CPU {
	c := &CPU{
		mem:   cfg.Mem,
		sched: cfg.Sched,
		mi:    cfg.MI,
		log:   logging.For("cpu"),
	}
	c.immInstrs = immInstrsInit(c)
	c.regInstrs = regInstrsInit(c)
	c.extInstrs = extInstrsInit(c)
	c.sglInstrs = sglInstrsInit(c)
	c.dblInstrs = dblInstrsInit(c)
	c.wrdInstrs = wrdInstrsInit(c)
	c.lwdInstrs = lwdInstrsInit(c)
	c.Reset()
	return c
}

// setReg writes a GPR, silently discarding writes to r0 the way the
// hardware's hardwired-zero register does.
func (c *CPU) setReg(index uint32, value uint64) {
	if index != 0 {
		c.regs[index] = value
	}
}

func (c *CPU) reg(index uint32) uint64 { return c.regs[index] }

// Reset puts the whole CPU (scalar state, CP0, CP1) back to its cold-boot
// state: PC points at the uncached PIF boot vector, BEV/ERL are set so
// exceptions resolve there too.
func (c *CPU) Reset() {
	for i := range c.regs {
		c.regs[i] = 0
	}
	c.hi, c.lo = 0, 0
	c.pc = 0xBFC00000
	c.delaySlot = noDelaySlot
	c.armedSlot = noDelaySlot
	c.running = true
	c.resetCP0()
	c.resetCP1()
	c.nextOpcode = c.mem.Read32(c.pc)
}

// SetEntryPoint overrides PC (and, optionally, the stack pointer r29) after
// Reset. The real boot ROM's IPL3 stage ends by jumping here once it has
// staged the cartridge's boot segment into memory; this port skips IPL3
// itself (see the Console.BootROM doc comment) and calls this directly once
// Console has done the equivalent staging.
func (c *CPU) SetEntryPoint(pc uint32, sp uint64) {
	c.pc = pc
	c.setReg(29, sp)
	c.nextOpcode = c.mem.Read32(c.pc)
}

// RunOpcode implements core.CPU: fetch the opcode latched by the previous
// cycle's lookahead, advance PC and prefetch the next one, then execute.
// The one-opcode lookahead mirrors the original's pipelined fetch, letting
// a delay slot's effects land before the branch target is read.
func (c *CPU) RunOpcode() {
	if !c.running {
		return
	}

	opcode := c.nextOpcode
	c.pc += 4
	c.nextOpcode = c.mem.Read32(c.pc)

	c.delaySlot = c.armedSlot
	c.armedSlot = noDelaySlot
	c.dispatch(opcode)
}

func (c *CPU) dispatch(opcode uint32) {
	if fn := c.immInstrs[opcode>>26]; fn != nil {
		fn(opcode)
	} else {
		c.unknown(opcode)
	}
}

func (c *CPU) unknown(opcode uint32) {
	c.log.Warnw("unknown opcode", "opcode", opcode, "pc", c.pc-4)
}

func se16(v uint32) uint64 { return uint64(int64(int16(v))) }
func se32(v uint32) uint64 { return uint64(int64(int32(v))) }

func rFields(opcode uint32) (rs, rt, rd, sa uint32) {
	return (opcode >> 21) & 0x1F, (opcode >> 16) & 0x1F, (opcode >> 11) & 0x1F, (opcode >> 6) & 0x1F
}

func iFields(opcode uint32) (rs, rt, imm uint32) {
	return (opcode >> 21) & 0x1F, (opcode >> 16) & 0x1F, opcode & 0xFFFF
}

// branch schedules a PC jump to take effect after the current delay slot
// instruction executes; pc has already been advanced past the branch
// itself by the time instruction bodies run.
func (c *CPU) branch(target uint32) {
	c.armedSlot = c.pc
	c.pc = target - 4
}

// branchLikely discards the delay slot instruction entirely when the
// branch is not taken, the MIPS II "likely" branch semantics.
func (c *CPU) branchLikely(taken bool, target uint32) {
	if taken {
		c.branch(target)
		return
	}
	c.pc += 4
	c.nextOpcode = c.mem.Read32(c.pc)
}

// --- SPECIAL/REGIMM dispatch ---

func (c *CPU) opSpecial(opcode uint32) {
	if fn := c.regInstrs[opcode&0x3F]; fn != nil {
		fn(opcode)
	} else {
		c.unknown(opcode)
	}
}

func (c *CPU) opRegimm(opcode uint32) {
	if fn := c.extInstrs[(opcode>>16)&0x1F]; fn != nil {
		fn(opcode)
	} else {
		c.unknown(opcode)
	}
}

// --- Jumps and branches ---

func (c *CPU) jOp(opcode uint32) {
	target := (c.pc & 0xF0000000) | ((opcode & 0x3FFFFFF) << 2)
	c.branch(target)
}

func (c *CPU) jal(opcode uint32) {
	c.setReg(31, uint64(c.pc+4))
	c.jOp(opcode)
}

func (c *CPU) beq(opcode uint32) {
	rs, rt, imm := iFields(opcode)
	if c.reg(rs) == c.reg(rt) {
		c.branch(c.pc + uint32(se16(imm))<<2)
	}
}

func (c *CPU) bne(opcode uint32) {
	rs, rt, imm := iFields(opcode)
	if c.reg(rs) != c.reg(rt) {
		c.branch(c.pc + uint32(se16(imm))<<2)
	}
}

func (c *CPU) blez(opcode uint32) {
	rs, _, imm := iFields(opcode)
	if int64(c.reg(rs)) <= 0 {
		c.branch(c.pc + uint32(se16(imm))<<2)
	}
}

func (c *CPU) bgtz(opcode uint32) {
	rs, _, imm := iFields(opcode)
	if int64(c.reg(rs)) > 0 {
		c.branch(c.pc + uint32(se16(imm))<<2)
	}
}

func (c *CPU) beql(opcode uint32) {
	rs, rt, imm := iFields(opcode)
	c.branchLikely(c.reg(rs) == c.reg(rt), c.pc+uint32(se16(imm))<<2)
}

func (c *CPU) bnel(opcode uint32) {
	rs, rt, imm := iFields(opcode)
	c.branchLikely(c.reg(rs) != c.reg(rt), c.pc+uint32(se16(imm))<<2)
}

func (c *CPU) blezl(opcode uint32) {
	rs, _, imm := iFields(opcode)
	c.branchLikely(int64(c.reg(rs)) <= 0, c.pc+uint32(se16(imm))<<2)
}

func (c *CPU) bgtzl(opcode uint32) {
	rs, _, imm := iFields(opcode)
	c.branchLikely(int64(c.reg(rs)) > 0, c.pc+uint32(se16(imm))<<2)
}

func (c *CPU) bltz(opcode uint32) {
	rs, _, imm := iFields(opcode)
	if int64(c.reg(rs)) < 0 {
		c.branch(c.pc + uint32(se16(imm))<<2)
	}
}

func (c *CPU) bgez(opcode uint32) {
	rs, _, imm := iFields(opcode)
	if int64(c.reg(rs)) >= 0 {
		c.branch(c.pc + uint32(se16(imm))<<2)
	}
}

func (c *CPU) bltzl(opcode uint32) {
	rs, _, imm := iFields(opcode)
	c.branchLikely(int64(c.reg(rs)) < 0, c.pc+uint32(se16(imm))<<2)
}

func (c *CPU) bgezl(opcode uint32) {
	rs, _, imm := iFields(opcode)
	c.branchLikely(int64(c.reg(rs)) >= 0, c.pc+uint32(se16(imm))<<2)
}

func (c *CPU) bltzal(opcode uint32) {
	rs, _, imm := iFields(opcode)
	c.setReg(31, uint64(c.pc+4))
	if int64(c.reg(rs)) < 0 {
		c.branch(c.pc + uint32(se16(imm))<<2)
	}
}

func (c *CPU) bgezal(opcode uint32) {
	rs, _, imm := iFields(opcode)
	c.setReg(31, uint64(c.pc+4))
	if int64(c.reg(rs)) >= 0 {
		c.branch(c.pc + uint32(se16(imm))<<2)
	}
}

func (c *CPU) bltzall(opcode uint32) {
	rs, _, imm := iFields(opcode)
	c.setReg(31, uint64(c.pc+4))
	c.branchLikely(int64(c.reg(rs)) < 0, c.pc+uint32(se16(imm))<<2)
}

func (c *CPU) bgezall(opcode uint32) {
	rs, _, imm := iFields(opcode)
	c.setReg(31, uint64(c.pc+4))
	c.branchLikely(int64(c.reg(rs)) >= 0, c.pc+uint32(se16(imm))<<2)
}

func (c *CPU) jr(opcode uint32) {
	rs, _, _, _ := rFields(opcode)
	c.branch(uint32(c.reg(rs)))
}

func (c *CPU) jalr(opcode uint32) {
	rs, _, rd, _ := rFields(opcode)
	link := c.pc + 4
	c.branch(uint32(c.reg(rs)))
	c.setReg(rd, uint64(link))
}

// --- Arithmetic/logic, immediate ---

func (c *CPU) addi(opcode uint32) {
	rs, rt, imm := iFields(opcode)
	a := int32(c.reg(rs))
	b := int32(int16(imm))
	sum := a + b
	if (a > 0 && b > 0 && sum < 0) || (a < 0 && b < 0 && sum >= 0) {
		c.Exception(excOv)
		return
	}
	c.setReg(rt, se32(uint32(sum)))
}

func (c *CPU) addiu(opcode uint32) {
	rs, rt, imm := iFields(opcode)
	c.setReg(rt, se32(uint32(int32(c.reg(rs))+int32(int16(imm)))))
}

func (c *CPU) slti(opcode uint32) {
	rs, rt, imm := iFields(opcode)
	if int64(c.reg(rs)) < int64(se16(imm)) {
		c.setReg(rt, 1)
	} else {
		c.setReg(rt, 0)
	}
}

func (c *CPU) sltiu(opcode uint32) {
	rs, rt, imm := iFields(opcode)
	if c.reg(rs) < se16(imm) {
		c.setReg(rt, 1)
	} else {
		c.setReg(rt, 0)
	}
}

func (c *CPU) andi(opcode uint32) {
	rs, rt, imm := iFields(opcode)
	c.setReg(rt, c.reg(rs)&uint64(imm))
}

func (c *CPU) ori(opcode uint32) {
	rs, rt, imm := iFields(opcode)
	c.setReg(rt, c.reg(rs)|uint64(imm))
}

func (c *CPU) xori(opcode uint32) {
	rs, rt, imm := iFields(opcode)
	c.setReg(rt, c.reg(rs)^uint64(imm))
}

func (c *CPU) lui(opcode uint32) {
	_, rt, imm := iFields(opcode)
	c.setReg(rt, se32(imm<<16))
}

func (c *CPU) daddi(opcode uint32) {
	rs, rt, imm := iFields(opcode)
	a := int64(c.reg(rs))
	b := int64(int16(imm))
	sum := a + b
	if (a > 0 && b > 0 && sum < 0) || (a < 0 && b < 0 && sum >= 0) {
		c.Exception(excOv)
		return
	}
	c.setReg(rt, uint64(sum))
}

func (c *CPU) daddiu(opcode uint32) {
	rs, rt, imm := iFields(opcode)
	c.setReg(rt, c.reg(rs)+se16(imm))
}

// --- Arithmetic/logic, register ---

func (c *CPU) sll(opcode uint32) {
	_, rt, rd, sa := rFields(opcode)
	c.setReg(rd, se32(uint32(c.reg(rt))<<sa))
}

func (c *CPU) srl(opcode uint32) {
	_, rt, rd, sa := rFields(opcode)
	c.setReg(rd, se32(uint32(c.reg(rt))>>sa))
}

func (c *CPU) sra(opcode uint32) {
	_, rt, rd, sa := rFields(opcode)
	c.setReg(rd, se32(uint32(int32(uint32(c.reg(rt)))>>sa)))
}

func (c *CPU) sllv(opcode uint32) {
	rs, rt, rd, _ := rFields(opcode)
	c.setReg(rd, se32(uint32(c.reg(rt))<<(c.reg(rs)&0x1F)))
}

func (c *CPU) srlv(opcode uint32) {
	rs, rt, rd, _ := rFields(opcode)
	c.setReg(rd, se32(uint32(c.reg(rt))>>(c.reg(rs)&0x1F)))
}

func (c *CPU) srav(opcode uint32) {
	rs, rt, rd, _ := rFields(opcode)
	c.setReg(rd, se32(uint32(int32(uint32(c.reg(rt)))>>(c.reg(rs)&0x1F))))
}

func (c *CPU) syscall(opcode uint32) { c.Exception(excSys) }
func (c *CPU) breakOp(opcode uint32) { c.Exception(excBp) }
func (c *CPU) sync(opcode uint32)    {}

func (c *CPU) mfhi(opcode uint32) {
	_, _, rd, _ := rFields(opcode)
	c.setReg(rd, c.hi)
}

func (c *CPU) mthi(opcode uint32) {
	rs, _, _, _ := rFields(opcode)
	c.hi = c.reg(rs)
}

func (c *CPU) mflo(opcode uint32) {
	_, _, rd, _ := rFields(opcode)
	c.setReg(rd, c.lo)
}

func (c *CPU) mtlo(opcode uint32) {
	rs, _, _, _ := rFields(opcode)
	c.lo = c.reg(rs)
}

func (c *CPU) dsllv(opcode uint32) {
	rs, rt, rd, _ := rFields(opcode)
	c.setReg(rd, c.reg(rt)<<(c.reg(rs)&0x3F))
}

func (c *CPU) dsrlv(opcode uint32) {
	rs, rt, rd, _ := rFields(opcode)
	c.setReg(rd, c.reg(rt)>>(c.reg(rs)&0x3F))
}

func (c *CPU) dsrav(opcode uint32) {
	rs, rt, rd, _ := rFields(opcode)
	c.setReg(rd, uint64(int64(c.reg(rt))>>(c.reg(rs)&0x3F)))
}

func (c *CPU) mult(opcode uint32) {
	rs, rt, _, _ := rFields(opcode)
	result := int64(int32(c.reg(rs))) * int64(int32(c.reg(rt)))
	c.lo = se32(uint32(result))
	c.hi = se32(uint32(result >> 32))
}

func (c *CPU) multu(opcode uint32) {
	rs, rt, _, _ := rFields(opcode)
	result := uint64(uint32(c.reg(rs))) * uint64(uint32(c.reg(rt)))
	c.lo = se32(uint32(result))
	c.hi = se32(uint32(result >> 32))
}

func (c *CPU) div(opcode uint32) {
	rs, rt, _, _ := rFields(opcode)
	a, b := int32(c.reg(rs)), int32(c.reg(rt))
	if b == 0 {
		c.lo, c.hi = se32(uint32(0)), se32(uint32(a))
		if a < 0 {
			c.lo = se32(1)
		} else {
			c.lo = se32(0xFFFFFFFF)
		}
		return
	}
	c.lo = se32(uint32(a / b))
	c.hi = se32(uint32(a % b))
}

func (c *CPU) divu(opcode uint32) {
	rs, rt, _, _ := rFields(opcode)
	a, b := uint32(c.reg(rs)), uint32(c.reg(rt))
	if b == 0 {
		c.lo, c.hi = se32(0xFFFFFFFF), se32(a)
		return
	}
	c.lo = se32(a / b)
	c.hi = se32(a % b)
}

func (c *CPU) dmult(opcode uint32) {
	rs, rt, _, _ := rFields(opcode)
	a, b := int64(c.reg(rs)), int64(c.reg(rt))
	neg := (a < 0) != (b < 0)
	ua, ub := uint64(a), uint64(b)
	if a < 0 {
		ua = uint64(-a)
	}
	if b < 0 {
		ub = uint64(-b)
	}
	hi, lo := bits.Mul64(ua, ub)
	if neg {
		// Negate the 128-bit (hi:lo) product via two's complement.
		carry := uint64(0)
		if lo == 0 {
			carry = 1
		}
		lo = ^lo + 1
		hi = ^hi + carry
	}
	c.hi, c.lo = hi, lo
}

func (c *CPU) dmultu(opcode uint32) {
	rs, rt, _, _ := rFields(opcode)
	c.hi, c.lo = bits.Mul64(c.reg(rs), c.reg(rt))
}

func (c *CPU) ddiv(opcode uint32) {
	rs, rt, _, _ := rFields(opcode)
	a, b := int64(c.reg(rs)), int64(c.reg(rt))
	if b == 0 {
		c.hi = uint64(a)
		if a < 0 {
			c.lo = 1
		} else {
			c.lo = 0xFFFFFFFFFFFFFFFF
		}
		return
	}
	c.lo = uint64(a / b)
	c.hi = uint64(a % b)
}

func (c *CPU) ddivu(opcode uint32) {
	rs, rt, _, _ := rFields(opcode)
	a, b := c.reg(rs), c.reg(rt)
	if b == 0 {
		c.lo, c.hi = 0xFFFFFFFFFFFFFFFF, a
		return
	}
	c.lo = a / b
	c.hi = a % b
}

func (c *CPU) add(opcode uint32) {
	rs, rt, rd, _ := rFields(opcode)
	a := int32(c.reg(rs))
	b := int32(c.reg(rt))
	sum := a + b
	if (a > 0 && b > 0 && sum < 0) || (a < 0 && b < 0 && sum >= 0) {
		c.Exception(excOv)
		return
	}
	c.setReg(rd, se32(uint32(sum)))
}

func (c *CPU) addu(opcode uint32) {
	rs, rt, rd, _ := rFields(opcode)
	c.setReg(rd, se32(uint32(c.reg(rs))+uint32(c.reg(rt))))
}

func (c *CPU) sub(opcode uint32) {
	rs, rt, rd, _ := rFields(opcode)
	a := int32(c.reg(rs))
	b := int32(c.reg(rt))
	diff := a - b
	if (a >= 0 && b < 0 && diff < 0) || (a < 0 && b > 0 && diff >= 0) {
		c.Exception(excOv)
		return
	}
	c.setReg(rd, se32(uint32(diff)))
}

func (c *CPU) subu(opcode uint32) {
	rs, rt, rd, _ := rFields(opcode)
	c.setReg(rd, se32(uint32(c.reg(rs))-uint32(c.reg(rt))))
}

func (c *CPU) and(opcode uint32) {
	rs, rt, rd, _ := rFields(opcode)
	c.setReg(rd, c.reg(rs)&c.reg(rt))
}

func (c *CPU) or(opcode uint32) {
	rs, rt, rd, _ := rFields(opcode)
	c.setReg(rd, c.reg(rs)|c.reg(rt))
}

func (c *CPU) xorOp(opcode uint32) {
	rs, rt, rd, _ := rFields(opcode)
	c.setReg(rd, c.reg(rs)^c.reg(rt))
}

func (c *CPU) nor(opcode uint32) {
	rs, rt, rd, _ := rFields(opcode)
	c.setReg(rd, ^(c.reg(rs) | c.reg(rt)))
}

func (c *CPU) slt(opcode uint32) {
	rs, rt, rd, _ := rFields(opcode)
	if int64(c.reg(rs)) < int64(c.reg(rt)) {
		c.setReg(rd, 1)
	} else {
		c.setReg(rd, 0)
	}
}

func (c *CPU) sltu(opcode uint32) {
	rs, rt, rd, _ := rFields(opcode)
	if c.reg(rs) < c.reg(rt) {
		c.setReg(rd, 1)
	} else {
		c.setReg(rd, 0)
	}
}

func (c *CPU) dadd(opcode uint32) {
	rs, rt, rd, _ := rFields(opcode)
	a := int64(c.reg(rs))
	b := int64(c.reg(rt))
	sum := a + b
	if (a > 0 && b > 0 && sum < 0) || (a < 0 && b < 0 && sum >= 0) {
		c.Exception(excOv)
		return
	}
	c.setReg(rd, uint64(sum))
}

func (c *CPU) daddu(opcode uint32) {
	rs, rt, rd, _ := rFields(opcode)
	c.setReg(rd, c.reg(rs)+c.reg(rt))
}

func (c *CPU) dsub(opcode uint32) {
	rs, rt, rd, _ := rFields(opcode)
	a := int64(c.reg(rs))
	b := int64(c.reg(rt))
	diff := a - b
	if (a >= 0 && b < 0 && diff < 0) || (a < 0 && b > 0 && diff >= 0) {
		c.Exception(excOv)
		return
	}
	c.setReg(rd, uint64(diff))
}

func (c *CPU) dsubu(opcode uint32) {
	rs, rt, rd, _ := rFields(opcode)
	c.setReg(rd, c.reg(rs)-c.reg(rt))
}

func (c *CPU) dsll(opcode uint32) {
	_, rt, rd, sa := rFields(opcode)
	c.setReg(rd, c.reg(rt)<<sa)
}

func (c *CPU) dsrl(opcode uint32) {
	_, rt, rd, sa := rFields(opcode)
	c.setReg(rd, c.reg(rt)>>sa)
}

func (c *CPU) dsra(opcode uint32) {
	_, rt, rd, sa := rFields(opcode)
	c.setReg(rd, uint64(int64(c.reg(rt))>>sa))
}

func (c *CPU) dsll32(opcode uint32) {
	_, rt, rd, sa := rFields(opcode)
	c.setReg(rd, c.reg(rt)<<(sa+32))
}

func (c *CPU) dsrl32(opcode uint32) {
	_, rt, rd, sa := rFields(opcode)
	c.setReg(rd, c.reg(rt)>>(sa+32))
}

func (c *CPU) dsra32(opcode uint32) {
	_, rt, rd, sa := rFields(opcode)
	c.setReg(rd, uint64(int64(c.reg(rt))>>(sa+32)))
}

// --- Loads and stores ---

func (c *CPU) lb(opcode uint32) {
	rs, rt, imm := iFields(opcode)
	addr := uint32(c.reg(rs)) + uint32(se16(imm))
	c.setReg(rt, uint64(int64(int8(c.mem.Read8(addr)))))
}

func (c *CPU) lh(opcode uint32) {
	rs, rt, imm := iFields(opcode)
	addr := uint32(c.reg(rs)) + uint32(se16(imm))
	c.setReg(rt, uint64(int64(int16(c.mem.Read16(addr)))))
}

func (c *CPU) lw(opcode uint32) {
	rs, rt, imm := iFields(opcode)
	addr := uint32(c.reg(rs)) + uint32(se16(imm))
	c.setReg(rt, se32(c.mem.Read32(addr)))
}

func (c *CPU) lbu(opcode uint32) {
	rs, rt, imm := iFields(opcode)
	addr := uint32(c.reg(rs)) + uint32(se16(imm))
	c.setReg(rt, uint64(c.mem.Read8(addr)))
}

func (c *CPU) lhu(opcode uint32) {
	rs, rt, imm := iFields(opcode)
	addr := uint32(c.reg(rs)) + uint32(se16(imm))
	c.setReg(rt, uint64(c.mem.Read16(addr)))
}

func (c *CPU) lwu(opcode uint32) {
	rs, rt, imm := iFields(opcode)
	addr := uint32(c.reg(rs)) + uint32(se16(imm))
	c.setReg(rt, uint64(c.mem.Read32(addr)))
}

func (c *CPU) ld(opcode uint32) {
	rs, rt, imm := iFields(opcode)
	addr := uint32(c.reg(rs)) + uint32(se16(imm))
	c.setReg(rt, c.mem.Read64(addr))
}

func (c *CPU) sb(opcode uint32) {
	rs, rt, imm := iFields(opcode)
	addr := uint32(c.reg(rs)) + uint32(se16(imm))
	c.mem.Write8(addr, uint8(c.reg(rt)))
}

func (c *CPU) sh(opcode uint32) {
	rs, rt, imm := iFields(opcode)
	addr := uint32(c.reg(rs)) + uint32(se16(imm))
	c.mem.Write16(addr, uint16(c.reg(rt)))
}

func (c *CPU) sw(opcode uint32) {
	rs, rt, imm := iFields(opcode)
	addr := uint32(c.reg(rs)) + uint32(se16(imm))
	c.mem.Write32(addr, uint32(c.reg(rt)))
}

func (c *CPU) sd(opcode uint32) {
	rs, rt, imm := iFields(opcode)
	addr := uint32(c.reg(rs)) + uint32(se16(imm))
	c.mem.Write64(addr, c.reg(rt))
}

// ll/sc model uniprocessor load-linked/store-conditional as a plain
// load/store: this core never runs a second hart that could invalidate the
// reservation, so the conditional store always succeeds.
func (c *CPU) ll(opcode uint32)  { c.lw(opcode) }
func (c *CPU) lld(opcode uint32) { c.ld(opcode) }

func (c *CPU) sc(opcode uint32) {
	_, rt, _ := iFields(opcode)
	c.sw(opcode)
	c.setReg(rt, 1)
}

func (c *CPU) scd(opcode uint32) {
	_, rt, _ := iFields(opcode)
	c.sd(opcode)
	c.setReg(rt, 1)
}

func (c *CPU) cacheOp(opcode uint32) {}

// lwl/lwr load the bytes between addr and its word boundary into the
// register's high or low side respectively, leaving the other side
// untouched: the classic pair that composes into an unaligned LW. swl/swr
// are their store-side duals.
func (c *CPU) lwl(opcode uint32) {
	rs, rt, imm := iFields(opcode)
	addr := uint32(c.reg(rs)) + uint32(se16(imm))
	shift := (addr & 3) * 8
	word := c.mem.Read32(addr &^ 3)
	mask := (uint32(1) << shift) - 1
	merged := (word << shift) | (uint32(c.reg(rt)) & mask)
	c.setReg(rt, se32(merged))
}

func (c *CPU) lwr(opcode uint32) {
	rs, rt, imm := iFields(opcode)
	addr := uint32(c.reg(rs)) + uint32(se16(imm))
	shift := (3 - addr&3) * 8
	word := c.mem.Read32(addr &^ 3)
	mask := ^((uint32(1) << (32 - shift)) - 1)
	merged := (word >> shift) | (uint32(c.reg(rt)) & mask)
	c.setReg(rt, se32(merged))
}

func (c *CPU) swl(opcode uint32) {
	rs, rt, imm := iFields(opcode)
	addr := uint32(c.reg(rs)) + uint32(se16(imm))
	shift := (addr & 3) * 8
	word := c.mem.Read32(addr &^ 3)
	mask := ^((uint32(1) << (32 - shift)) - 1)
	merged := (word & mask) | (uint32(c.reg(rt)) >> shift)
	c.mem.Write32(addr&^3, merged)
}

func (c *CPU) swr(opcode uint32) {
	rs, rt, imm := iFields(opcode)
	addr := uint32(c.reg(rs)) + uint32(se16(imm))
	shift := (3 - addr&3) * 8
	word := c.mem.Read32(addr &^ 3)
	mask := (uint32(1) << shift) - 1
	merged := (word & mask) | (uint32(c.reg(rt)) << shift)
	c.mem.Write32(addr&^3, merged)
}

func (c *CPU) ldl(opcode uint32) {
	rs, rt, imm := iFields(opcode)
	addr := uint32(c.reg(rs)) + uint32(se16(imm))
	shift := uint64(addr&7) * 8
	word := c.mem.Read64(addr &^ 7)
	mask := (uint64(1) << shift) - 1
	c.setReg(rt, (word<<shift)|(c.reg(rt)&mask))
}

func (c *CPU) ldr(opcode uint32) {
	rs, rt, imm := iFields(opcode)
	addr := uint32(c.reg(rs)) + uint32(se16(imm))
	shift := uint64(7-addr&7) * 8
	word := c.mem.Read64(addr &^ 7)
	mask := ^((uint64(1) << (64 - shift)) - 1)
	c.setReg(rt, (word>>shift)|(c.reg(rt)&mask))
}

func (c *CPU) sdl(opcode uint32) {
	rs, rt, imm := iFields(opcode)
	addr := uint32(c.reg(rs)) + uint32(se16(imm))
	shift := uint64(addr&7) * 8
	word := c.mem.Read64(addr &^ 7)
	mask := ^((uint64(1) << (64 - shift)) - 1)
	merged := (word & mask) | (c.reg(rt) >> shift)
	c.mem.Write64(addr&^7, merged)
}

func (c *CPU) sdr(opcode uint32) {
	rs, rt, imm := iFields(opcode)
	addr := uint32(c.reg(rs)) + uint32(se16(imm))
	shift := uint64(7-addr&7) * 8
	word := c.mem.Read64(addr &^ 7)
	mask := (uint64(1) << shift) - 1
	merged := (word & mask) | (c.reg(rt) << shift)
	c.mem.Write64(addr&^7, merged)
}

// --- Coprocessor glue ---

func (c *CPU) cop0(opcode uint32) {
	if !c.cpUsable(0) {
		c.Exception(excCpU)
		return
	}
	sub := (opcode >> 21) & 0x1F
	_, rt, _, _ := rFields(opcode)
	switch sub {
	case 0: // MFC0
		c.setReg(rt, se32(c.ReadCP0((opcode>>11)&0x1F)))
	case 4: // MTC0
		c.WriteCP0((opcode>>11)&0x1F, uint32(c.reg(rt)))
	case 0x10: // TLB/ERET group, dispatched on the function field
		switch opcode & 0x3F {
		case 0x01:
			c.tlbr(opcode)
		case 0x02:
			c.tlbwi(opcode)
		case 0x06:
			c.mem.SetTLBEntry(c.cp0Index, c.cp0EntryLo0, c.cp0EntryLo1, c.cp0EntryHi, c.cp0PageMask)
		case 0x08:
			c.tlbp(opcode)
		case 0x18:
			c.eret(opcode)
		default:
			c.unknown(opcode)
		}
	default:
		c.unknown(opcode)
	}
}

// eret has no delay slot of its own, unlike a branch: the target takes
// effect immediately, so both pc and the one-opcode lookahead must be
// overwritten here rather than via the usual pc-minus-4 branch convention.
func (c *CPU) eret(opcode uint32) {
	if c.cp0Status&0x4 != 0 { // ERL
		c.pc = c.cp0ErrorEPC
		c.cp0Status &^= 0x4
	} else {
		c.pc = c.cp0EPC
		c.cp0Status &^= 0x2 // EXL
	}
	c.armedSlot = noDelaySlot
	c.nextOpcode = c.mem.Read32(c.pc)
}

func (c *CPU) cop1(opcode uint32) {
	if !c.cpUsable(1) {
		c.Exception(excCpU)
		return
	}
	sub := (opcode >> 21) & 0x1F
	_, rt, _, _ := rFields(opcode)
	fs := (opcode >> 11) & 0x1F
	switch sub {
	case 0: // MFC1
		c.setReg(rt, se32(uint32(c.ReadCP1(cp1Type32Bit, fs))))
	case 1: // DMFC1
		c.setReg(rt, c.ReadCP1(cp1Type64Bit, fs))
	case 2: // CFC1
		c.setReg(rt, se32(uint32(c.ReadCP1(cp1TypeCtrl, fs))))
	case 4: // MTC1
		c.WriteCP1(cp1Type32Bit, fs, uint64(uint32(c.reg(rt))))
	case 5: // DMTC1
		c.WriteCP1(cp1Type64Bit, fs, c.reg(rt))
	case 6: // CTC1
		c.WriteCP1(cp1TypeCtrl, fs, uint64(uint32(c.reg(rt))))
	case 8: // BC1
		taken := (opcode>>16)&1 != 0
		likely := (opcode>>17)&1 != 0
		cond := c.fpStatus&(1<<23) != 0
		target := c.pc + uint32(se16(opcode&0xFFFF))<<2
		if likely {
			c.branchLikely(cond == taken, target)
		} else if cond == taken {
			c.branch(target)
		}
	case 0x10:
		c.dispatchFPU(c.sglInstrs, opcode)
	case 0x11:
		c.dispatchFPU(c.dblInstrs, opcode)
	case 0x14:
		c.dispatchFPU(c.wrdInstrs, opcode)
	case 0x15:
		c.dispatchFPU(c.lwdInstrs, opcode)
	default:
		c.unknown(opcode)
	}
}

func (c *CPU) lwc1(opcode uint32) {
	rs, ft, imm := iFields(opcode)
	addr := uint32(c.reg(rs)) + uint32(se16(imm))
	c.WriteCP1(cp1Type32Bit, ft, uint64(c.mem.Read32(addr)))
}

func (c *CPU) ldc1(opcode uint32) {
	rs, ft, imm := iFields(opcode)
	addr := uint32(c.reg(rs)) + uint32(se16(imm))
	c.WriteCP1(cp1Type64Bit, ft, c.mem.Read64(addr))
}

func (c *CPU) swc1(opcode uint32) {
	rs, ft, imm := iFields(opcode)
	addr := uint32(c.reg(rs)) + uint32(se16(imm))
	c.mem.Write32(addr, uint32(c.ReadCP1(cp1Type32Bit, ft)))
}

func (c *CPU) sdc1(opcode uint32) {
	rs, ft, imm := iFields(opcode)
	addr := uint32(c.reg(rs)) + uint32(se16(imm))
	c.mem.Write64(addr, c.ReadCP1(cp1Type64Bit, ft))
}

// --- Opcode tables ---

func immInstrsInit(c *CPU) [0x40]func(uint32) {
	return [0x40]func(uint32){
		0x00: c.opSpecial, 0x01: c.opRegimm, 0x02: c.jOp, 0x03: c.jal,
		0x04: c.beq, 0x05: c.bne, 0x06: c.blez, 0x07: c.bgtz,
		0x08: c.addi, 0x09: c.addiu, 0x0A: c.slti, 0x0B: c.sltiu,
		0x0C: c.andi, 0x0D: c.ori, 0x0E: c.xori, 0x0F: c.lui,
		0x10: c.cop0, 0x11: c.cop1,
		0x14: c.beql, 0x15: c.bnel, 0x16: c.blezl, 0x17: c.bgtzl,
		0x18: c.daddi, 0x19: c.daddiu, 0x1A: c.ldl, 0x1B: c.ldr,
		0x20: c.lb, 0x21: c.lh, 0x22: c.lwl, 0x23: c.lw,
		0x24: c.lbu, 0x25: c.lhu, 0x26: c.lwr, 0x27: c.lwu,
		0x28: c.sb, 0x29: c.sh, 0x2A: c.swl, 0x2B: c.sw,
		0x2C: c.sdl, 0x2D: c.sdr, 0x2E: c.swr, 0x2F: c.cacheOp,
		0x30: c.ll, 0x31: c.lwc1, 0x34: c.lld, 0x35: c.ldc1,
		0x37: c.ld, 0x38: c.sc, 0x39: c.swc1, 0x3C: c.scd,
		0x3D: c.sdc1, 0x3F: c.sd,
	}
}

func regInstrsInit(c *CPU) [0x40]func(uint32) {
	return [0x40]func(uint32){
		0x00: c.sll, 0x02: c.srl, 0x03: c.sra,
		0x04: c.sllv, 0x06: c.srlv, 0x07: c.srav,
		0x08: c.jr, 0x09: c.jalr, 0x0C: c.syscall, 0x0D: c.breakOp, 0x0F: c.sync,
		0x10: c.mfhi, 0x11: c.mthi, 0x12: c.mflo, 0x13: c.mtlo,
		0x14: c.dsllv, 0x16: c.dsrlv, 0x17: c.dsrav,
		0x18: c.mult, 0x19: c.multu, 0x1A: c.div, 0x1B: c.divu,
		0x1C: c.dmult, 0x1D: c.dmultu, 0x1E: c.ddiv, 0x1F: c.ddivu,
		0x20: c.add, 0x21: c.addu, 0x22: c.sub, 0x23: c.subu,
		0x24: c.and, 0x25: c.or, 0x26: c.xorOp, 0x27: c.nor,
		0x2A: c.slt, 0x2B: c.sltu,
		0x2C: c.dadd, 0x2D: c.daddu, 0x2E: c.dsub, 0x2F: c.dsubu,
		0x38: c.dsll, 0x3A: c.dsrl, 0x3B: c.dsra,
		0x3C: c.dsll32, 0x3E: c.dsrl32, 0x3F: c.dsra32,
	}
}

func extInstrsInit(c *CPU) [0x20]func(uint32) {
	return [0x20]func(uint32){
		0x00: c.bltz, 0x01: c.bgez, 0x02: c.bltzl, 0x03: c.bgezl,
		0x10: c.bltzal, 0x11: c.bgezal, 0x12: c.bltzall, 0x13: c.bgezall,
	}
}
