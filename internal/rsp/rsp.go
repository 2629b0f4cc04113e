// Package rsp implements the Reality Signal Processor: a reduced MIPS-I
// scalar core with no multiply/divide unit, no TLB and no exception
// mechanism, paired with CP0's SP_STATUS/DMA register block (cp0.go) and
// CP2's 8-lane vector unit (cp2.go). Unlike the VR4300 next door, the RSP's
// entire world is a flat 8KiB scratchpad: the low 4KiB is DMEM (data), the
// high 4KiB is IMEM (instructions the core fetches from), and both halves
// share one address space for DMA purposes.
package rsp

import (
	"go.uber.org/zap"

	"github.com/nyxcore/n64core/internal/logging"
)

// imemBase is the fixed high bit pattern every program counter value carries;
// only the low 12 bits (masked to a word boundary) ever vary.
const imemBase = 0xA4001000

// Config bundles the RSP's collaborators, supplied by internal/core.
type Config struct {
	RDRAM RDRAM
	MI    MI
	Sched RunState
}

// RSP is the vector coprocessor: 32 general-purpose registers, the
// pipelined fetch/decode program counter pair, 8KiB of scratchpad memory,
// and the CP0 (cp0.go) and CP2 (cp2.go) register files.
type RSP struct {
	regs [32]uint32

	pc         uint32
	nextOpcode uint32
	running    bool

	mem [0x2000]byte // 0x0000-0x0FFF DMEM, 0x1000-0x1FFF IMEM

	// CP0 (SP_STATUS/DMA) registers.
	memAddr  uint32
	dramAddr uint32
	status   uint32

	// CP2 (vector unit) registers; see cp2.go.
	vregs       [32][8]uint16
	accumulator [8]int64
	divIn       uint32
	divOut      uint16
	vco         uint16
	vcc         uint16
	vce         uint16

	rdram RDRAM
	mi    MI
	sched RunState

	log *zap.SugaredLogger

	immInstrs [0x40]func(uint32)
	regInstrs [0x40]func(uint32)
	extInstrs [0x20]func(uint32)
	vecInstrs [0x40]func(uint32)
}

// New constructs an RSP wired to the given collaborators and resets it to
// its cold-boot state.
func New(cfg Config) *RSP {
	r := &RSP{
		rdram: cfg.RDRAM,
		mi:    cfg.MI,
		sched: cfg.Sched,
		log:   logging.For("rsp"),
	}
	r.immInstrs = immInstrsInit(r)
	r.regInstrs = regInstrsInit(r)
	r.extInstrs = extInstrsInit(r)
	r.vecInstrs = vecInstrsInit(r)
	r.Reset()
	return r
}

func (r *RSP) setReg(index uint32, value uint32) {
	if index != 0 {
		r.regs[index] = value
	}
}

func (r *RSP) reg(index uint32) uint32 { return r.regs[index] }

// Reset clears registers and scratchpad, parks the program counter at IMEM
// address 0, and halts the core the way a cold boot (or a console-driven
// SP reset) leaves it: waiting for the CPU to load microcode and release it.
func (r *RSP) Reset() {
	for i := range r.regs {
		r.regs[i] = 0
	}
	for i := range r.mem {
		r.mem[i] = 0
	}
	r.vregs = [32][8]uint16{}
	r.accumulator = [8]int64{}
	r.divIn, r.divOut = 0, 0
	r.vco, r.vcc, r.vce = 0, 0, 0
	r.resetCP0()
	r.WritePC(0)
	r.setRunning(false)
}

// ReadPC and WritePC implement mmu.RSPWindow's SP_PC register: the value
// games see is the plain 12-bit IMEM offset, not the internal representation
// biased for the pipeline's own bookkeeping.
func (r *RSP) ReadPC() uint32 { return (r.pc + 4) & 0xFFC }

// WritePC primes the core to start fetching at value on its next step.
// nextOpcode is left at zero (a NOP) rather than pre-fetched: the real
// instruction at the target only reaches nextOpcode after one RunOpcode
// call turns the crank, a one-instruction bubble every SP_PC write pays.
func (r *RSP) WritePC(value uint32) {
	r.pc = imemBase | ((value - 4) & 0xFFC)
	r.nextOpcode = 0
}

// RunOpcode implements core.RSP: execute the opcode latched by the previous
// cycle's lookahead, advance the program counter, and prefetch the next
// opcode in its place.
func (r *RSP) RunOpcode() {
	opcode := r.nextOpcode
	r.pc = imemBase | ((r.pc + 4) & 0xFFC)
	r.nextOpcode = r.memRead32(r.pc)

	switch opcode >> 26 {
	case 0:
		r.regInstrs[opcode&0x3F](opcode)
	case 1:
		r.extInstrs[(opcode>>16)&0x1F](opcode)
	default:
		r.immInstrs[opcode>>26](opcode)
	}
}

// ReadMem and WriteMem implement mmu.RSPWindow: addr is already folded into
// the 0x0000-0x1FFF scratchpad range by the bus (bit 12 selects IMEM).
func (r *RSP) ReadMem(addr uint32) uint8         { return r.mem[addr&0x1FFF] }
func (r *RSP) WriteMem(addr uint32, value uint8) { r.mem[addr&0x1FFF] = value }

func (r *RSP) memRead8(addr uint32) uint8 { return r.mem[addr&0x1FFF] }

func (r *RSP) memWrite8(addr uint32, value uint8) { r.mem[addr&0x1FFF] = value }

func (r *RSP) memRead16(addr uint32) uint16 {
	return uint16(r.memRead8(addr))<<8 | uint16(r.memRead8(addr+1))
}

func (r *RSP) memWrite16(addr uint32, value uint16) {
	r.memWrite8(addr, uint8(value>>8))
	r.memWrite8(addr+1, uint8(value))
}

func (r *RSP) memRead32(addr uint32) uint32 {
	return uint32(r.memRead16(addr))<<16 | uint32(r.memRead16(addr+2))
}

func (r *RSP) memWrite32(addr uint32, value uint32) {
	r.memWrite16(addr, uint16(value>>16))
	r.memWrite16(addr+2, uint16(value))
}

func (r *RSP) memRead64(addr uint32) uint64 {
	return uint64(r.memRead32(addr))<<32 | uint64(r.memRead32(addr+4))
}

func (r *RSP) memWrite64(addr uint32, value uint64) {
	r.memWrite32(addr, uint32(value>>32))
	r.memWrite32(addr+4, uint32(value))
}

// j jumps to an immediate target within the current 256MiB region.
func (r *RSP) j(opcode uint32) {
	r.pc = ((r.pc & 0xF0000000) | ((opcode & 0x3FFFFFF) << 2)) - 4
}

// jal saves the return address then jumps, like j.
func (r *RSP) jal(opcode uint32) {
	r.setReg(31, (r.pc+4)&0xFFF)
	r.pc = ((r.pc & 0xF0000000) | ((opcode & 0x3FFFFFF) << 2)) - 4
}

func (r *RSP) beq(opcode uint32) {
	if r.reg((opcode>>21)&0x1F) == r.reg((opcode>>16)&0x1F) {
		r.pc += uint32(int32(int16(opcode))<<2) - 4
	}
}

func (r *RSP) bne(opcode uint32) {
	if r.reg((opcode>>21)&0x1F) != r.reg((opcode>>16)&0x1F) {
		r.pc += uint32(int32(int16(opcode))<<2) - 4
	}
}

func (r *RSP) blez(opcode uint32) {
	if int32(r.reg((opcode>>21)&0x1F)) <= 0 {
		r.pc += uint32(int32(int16(opcode))<<2) - 4
	}
}

func (r *RSP) bgtz(opcode uint32) {
	if int32(r.reg((opcode>>21)&0x1F)) > 0 {
		r.pc += uint32(int32(int16(opcode))<<2) - 4
	}
}

func (r *RSP) addiu(opcode uint32) {
	value := int32(r.reg((opcode>>21)&0x1F)) + int32(int16(opcode))
	r.setReg((opcode>>16)&0x1F, uint32(value))
}

func (r *RSP) slti(opcode uint32) {
	value := int32(r.reg((opcode>>21)&0x1F)) < int32(int16(opcode))
	r.setReg((opcode>>16)&0x1F, boolToU32(value))
}

func (r *RSP) sltiu(opcode uint32) {
	value := r.reg((opcode>>21)&0x1F) < uint32(int32(int16(opcode)))
	r.setReg((opcode>>16)&0x1F, boolToU32(value))
}

func (r *RSP) andi(opcode uint32) {
	r.setReg((opcode>>16)&0x1F, r.reg((opcode>>21)&0x1F)&(opcode&0xFFFF))
}

func (r *RSP) ori(opcode uint32) {
	r.setReg((opcode>>16)&0x1F, r.reg((opcode>>21)&0x1F)|(opcode&0xFFFF))
}

func (r *RSP) xori(opcode uint32) {
	r.setReg((opcode>>16)&0x1F, r.reg((opcode>>21)&0x1F)^(opcode&0xFFFF))
}

func (r *RSP) lui(opcode uint32) {
	r.setReg((opcode>>16)&0x1F, uint32(int32(int16(opcode))<<16))
}

// lb/lh/lw/lbu/lhu/sb/sh/sw only ever address DMEM: the base+offset is
// masked to the low 4KiB before the load/store, same as real SP hardware
// where the scalar D-bus simply can't see IMEM.
func (r *RSP) lb(opcode uint32) {
	addr := (r.reg((opcode>>21)&0x1F) + uint32(int32(int16(opcode)))) & 0xFFF
	r.setReg((opcode>>16)&0x1F, uint32(int32(int8(r.memRead8(addr)))))
}

func (r *RSP) lh(opcode uint32) {
	addr := (r.reg((opcode>>21)&0x1F) + uint32(int32(int16(opcode)))) & 0xFFF
	r.setReg((opcode>>16)&0x1F, uint32(int32(int16(r.memRead16(addr)))))
}

func (r *RSP) lw(opcode uint32) {
	addr := (r.reg((opcode>>21)&0x1F) + uint32(int32(int16(opcode)))) & 0xFFF
	r.setReg((opcode>>16)&0x1F, r.memRead32(addr))
}

func (r *RSP) lbu(opcode uint32) {
	addr := (r.reg((opcode>>21)&0x1F) + uint32(int32(int16(opcode)))) & 0xFFF
	r.setReg((opcode>>16)&0x1F, uint32(r.memRead8(addr)))
}

func (r *RSP) lhu(opcode uint32) {
	addr := (r.reg((opcode>>21)&0x1F) + uint32(int32(int16(opcode)))) & 0xFFF
	r.setReg((opcode>>16)&0x1F, uint32(r.memRead16(addr)))
}

func (r *RSP) sb(opcode uint32) {
	addr := (r.reg((opcode>>21)&0x1F) + uint32(int32(int16(opcode)))) & 0xFFF
	r.memWrite8(addr, uint8(r.reg((opcode>>16)&0x1F)))
}

func (r *RSP) sh(opcode uint32) {
	addr := (r.reg((opcode>>21)&0x1F) + uint32(int32(int16(opcode)))) & 0xFFF
	r.memWrite16(addr, uint16(r.reg((opcode>>16)&0x1F)))
}

func (r *RSP) sw(opcode uint32) {
	addr := (r.reg((opcode>>21)&0x1F) + uint32(int32(int16(opcode)))) & 0xFFF
	r.memWrite32(addr, r.reg((opcode>>16)&0x1F))
}

func (r *RSP) sll(opcode uint32) {
	value := r.reg((opcode>>16)&0x1F) << ((opcode >> 6) & 0x1F)
	r.setReg((opcode>>11)&0x1F, value)
}

func (r *RSP) srl(opcode uint32) {
	value := r.reg((opcode>>16)&0x1F) >> ((opcode >> 6) & 0x1F)
	r.setReg((opcode>>11)&0x1F, value)
}

func (r *RSP) sra(opcode uint32) {
	value := uint32(int32(r.reg((opcode>>16)&0x1F)) >> ((opcode >> 6) & 0x1F))
	r.setReg((opcode>>11)&0x1F, value)
}

func (r *RSP) sllv(opcode uint32) {
	value := r.reg((opcode>>16)&0x1F) << (r.reg((opcode>>21)&0x1F) & 0x1F)
	r.setReg((opcode>>11)&0x1F, value)
}

func (r *RSP) srlv(opcode uint32) {
	value := r.reg((opcode>>16)&0x1F) >> (r.reg((opcode>>21)&0x1F) & 0x1F)
	r.setReg((opcode>>11)&0x1F, value)
}

func (r *RSP) srav(opcode uint32) {
	value := uint32(int32(r.reg((opcode>>16)&0x1F)) >> (r.reg((opcode>>21)&0x1F) & 0x1F))
	r.setReg((opcode>>11)&0x1F, value)
}

func (r *RSP) jr(opcode uint32) {
	r.pc = r.reg((opcode>>21)&0x1F) - 4
}

func (r *RSP) jalr(opcode uint32) {
	r.setReg((opcode>>11)&0x1F, (r.pc+4)&0xFFF)
	r.pc = r.reg((opcode>>21)&0x1F) - 4
}

func (r *RSP) break_(opcode uint32) {
	r.triggerBreak()
}

func (r *RSP) addu(opcode uint32) {
	value := int32(r.reg((opcode>>21)&0x1F)) + int32(r.reg((opcode>>16)&0x1F))
	r.setReg((opcode>>11)&0x1F, uint32(value))
}

func (r *RSP) subu(opcode uint32) {
	value := int32(r.reg((opcode>>21)&0x1F)) - int32(r.reg((opcode>>16)&0x1F))
	r.setReg((opcode>>11)&0x1F, uint32(value))
}

func (r *RSP) and_(opcode uint32) {
	r.setReg((opcode>>11)&0x1F, r.reg((opcode>>21)&0x1F)&r.reg((opcode>>16)&0x1F))
}

func (r *RSP) or_(opcode uint32) {
	r.setReg((opcode>>11)&0x1F, r.reg((opcode>>21)&0x1F)|r.reg((opcode>>16)&0x1F))
}

func (r *RSP) xor_(opcode uint32) {
	r.setReg((opcode>>11)&0x1F, r.reg((opcode>>21)&0x1F)^r.reg((opcode>>16)&0x1F))
}

func (r *RSP) nor(opcode uint32) {
	r.setReg((opcode>>11)&0x1F, ^(r.reg((opcode>>21)&0x1F) | r.reg((opcode>>16)&0x1F)))
}

func (r *RSP) slt(opcode uint32) {
	value := int32(r.reg((opcode>>21)&0x1F)) < int32(r.reg((opcode>>16)&0x1F))
	r.setReg((opcode>>11)&0x1F, boolToU32(value))
}

func (r *RSP) sltu(opcode uint32) {
	value := r.reg((opcode>>21)&0x1F) < r.reg((opcode>>16)&0x1F)
	r.setReg((opcode>>11)&0x1F, boolToU32(value))
}

func (r *RSP) bltz(opcode uint32) {
	if int32(r.reg((opcode>>21)&0x1F)) < 0 {
		r.pc += uint32(int32(int16(opcode))<<2) - 4
	}
}

func (r *RSP) bgez(opcode uint32) {
	if int32(r.reg((opcode>>21)&0x1F)) >= 0 {
		r.pc += uint32(int32(int16(opcode))<<2) - 4
	}
}

func (r *RSP) bltzal(opcode uint32) {
	r.setReg(31, (r.pc+4)&0xFFF)
	if int32(r.reg((opcode>>21)&0x1F)) < 0 {
		r.pc += uint32(int32(int16(opcode))<<2) - 4
	}
}

func (r *RSP) bgezal(opcode uint32) {
	r.setReg(31, (r.pc+4)&0xFFF)
	if int32(r.reg((opcode>>21)&0x1F)) >= 0 {
		r.pc += uint32(int32(int16(opcode))<<2) - 4
	}
}

func (r *RSP) mfc0(opcode uint32) {
	r.setReg((opcode>>16)&0x1F, r.ReadCP0((opcode>>11)&0x1F))
}

func (r *RSP) mtc0(opcode uint32) {
	r.WriteCP0((opcode>>11)&0x1F, r.reg((opcode>>16)&0x1F))
}

func (r *RSP) cop0(opcode uint32) {
	switch (opcode >> 21) & 0x1F {
	case 0x00:
		r.mfc0(opcode)
	case 0x04:
		r.mtc0(opcode)
	default:
		r.unk(opcode)
	}
}

func (r *RSP) unk(opcode uint32) {
	r.log.Warnw("unknown RSP scalar opcode", "opcode", opcode, "pc", (r.pc-4)&0xFFF|0x1000)
}

func boolToU32(b bool) uint32 {
	if b {
		return 1
	}
	return 0
}

func immInstrsInit(r *RSP) [0x40]func(uint32) {
	return [0x40]func(uint32){
		r.unk, r.unk, r.j, r.jal, r.beq, r.bne, r.blez, r.bgtz, // 0x00-0x07
		r.addiu, r.addiu, r.slti, r.sltiu, r.andi, r.ori, r.xori, r.lui, // 0x08-0x0F
		r.cop0, r.unk, r.cop2, r.unk, r.unk, r.unk, r.unk, r.unk, // 0x10-0x17
		r.unk, r.unk, r.unk, r.unk, r.unk, r.unk, r.unk, r.unk, // 0x18-0x1F
		r.lb, r.lh, r.unk, r.lw, r.lbu, r.lhu, r.unk, r.unk, // 0x20-0x27
		r.sb, r.sh, r.unk, r.sw, r.unk, r.unk, r.unk, r.unk, // 0x28-0x2F
		r.unk, r.unk, r.lwc2, r.unk, r.unk, r.unk, r.unk, r.unk, // 0x30-0x37
		r.unk, r.unk, r.swc2, r.unk, r.unk, r.unk, r.unk, r.unk, // 0x38-0x3F
	}
}

func regInstrsInit(r *RSP) [0x40]func(uint32) {
	return [0x40]func(uint32){
		r.sll, r.unk, r.srl, r.sra, r.sllv, r.unk, r.srlv, r.srav, // 0x00-0x07
		r.jr, r.jalr, r.unk, r.unk, r.unk, r.break_, r.unk, r.unk, // 0x08-0x0F
		r.unk, r.unk, r.unk, r.unk, r.unk, r.unk, r.unk, r.unk, // 0x10-0x17
		r.unk, r.unk, r.unk, r.unk, r.unk, r.unk, r.unk, r.unk, // 0x18-0x1F
		r.addu, r.addu, r.subu, r.subu, r.and_, r.or_, r.xor_, r.nor, // 0x20-0x27
		r.unk, r.unk, r.slt, r.sltu, r.unk, r.unk, r.unk, r.unk, // 0x28-0x2F
		r.unk, r.unk, r.unk, r.unk, r.unk, r.unk, r.unk, r.unk, // 0x30-0x37
		r.unk, r.unk, r.unk, r.unk, r.unk, r.unk, r.unk, r.unk, // 0x38-0x3F
	}
}

func extInstrsInit(r *RSP) [0x20]func(uint32) {
	return [0x20]func(uint32){
		r.bltz, r.bgez, r.unk, r.unk, r.unk, r.unk, r.unk, r.unk, // 0x00-0x07
		r.unk, r.unk, r.unk, r.unk, r.unk, r.unk, r.unk, r.unk, // 0x08-0x0F
		r.bltzal, r.bgezal, r.unk, r.unk, r.unk, r.unk, r.unk, r.unk, // 0x10-0x17
		r.unk, r.unk, r.unk, r.unk, r.unk, r.unk, r.unk, r.unk, // 0x18-0x1F
	}
}
