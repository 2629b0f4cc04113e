package cpu

import "testing"

// fakeMemory is a flat, unbounded byte array indexed directly by vaddr (no
// TLB, no segment mapping) -- enough surface for instruction-level tests
// that don't exercise the MMU.
type fakeMemory struct {
	mem map[uint32]uint8
	tlb [32][4]uint32
}

func newFakeMemory() *fakeMemory { return &fakeMemory{mem: map[uint32]uint8{}} }

func (m *fakeMemory) Read8(addr uint32) uint8 { return m.mem[addr] }
func (m *fakeMemory) Read16(addr uint32) uint16 {
	return uint16(m.Read8(addr))<<8 | uint16(m.Read8(addr+1))
}
func (m *fakeMemory) Read32(addr uint32) uint32 {
	return uint32(m.Read16(addr))<<16 | uint32(m.Read16(addr+2))
}
func (m *fakeMemory) Read64(addr uint32) uint64 {
	return uint64(m.Read32(addr))<<32 | uint64(m.Read32(addr+4))
}
func (m *fakeMemory) Write8(addr uint32, v uint8) { m.mem[addr] = v }
func (m *fakeMemory) Write16(addr uint32, v uint16) {
	m.Write8(addr, uint8(v>>8))
	m.Write8(addr+1, uint8(v))
}
func (m *fakeMemory) Write32(addr uint32, v uint32) {
	m.Write16(addr, uint16(v>>16))
	m.Write16(addr+2, uint16(v))
}
func (m *fakeMemory) Write64(addr uint32, v uint64) {
	m.Write32(addr, uint32(v>>32))
	m.Write32(addr+4, uint32(v))
}
func (m *fakeMemory) GetTLBEntry(index uint32) (lo0, lo1, hi, mask uint32) {
	e := m.tlb[index&0x1F]
	return e[0], e[1], e[2], e[3]
}
func (m *fakeMemory) SetTLBEntry(index, lo0, lo1, hi, mask uint32) {
	m.tlb[index&0x1F] = [4]uint32{lo0, lo1, hi, mask}
}

type fakeScheduler struct {
	cycles    uint32
	scheduled []struct {
		fn     func()
		cycles uint32
	}
}

func (s *fakeScheduler) GlobalCycles() uint32 { return s.cycles }
func (s *fakeScheduler) Schedule(fn func(), cycles uint32) {
	s.scheduled = append(s.scheduled, struct {
		fn     func()
		cycles uint32
	}{fn, cycles})
}

type fakeMI struct{ pending bool }

func (m *fakeMI) Pending() bool { return m.pending }

func newTestCPU() (*CPU, *fakeMemory) {
	mem := newFakeMemory()
	c := New(Config{Mem: mem, Sched: &fakeScheduler{}, MI: &fakeMI{}})
	return c, mem
}

func TestResetPrefetchesBootVector(t *testing.T) {
	c, mem := newTestCPU()
	mem.Write32(0xBFC00000, 0x12345678)
	c.Reset()
	if c.nextOpcode != 0x12345678 {
		t.Fatalf("nextOpcode = %#x, want 0x12345678", c.nextOpcode)
	}
	if c.pc != 0xBFC00000 {
		t.Fatalf("pc = %#x, want 0xBFC00000", c.pc)
	}
}

// TestPrefetchInvariant checks that nextOpcode == Read32(pc) holds after a
// plain sequential instruction (an ADDIU that doesn't touch control flow).
func TestPrefetchInvariant(t *testing.T) {
	c, mem := newTestCPU()
	mem.Write32(0xBFC00000, 0x24010001) // addiu $1, $0, 1
	mem.Write32(0xBFC00004, 0x24020002) // addiu $2, $0, 2
	c.Reset()

	c.RunOpcode()

	if c.nextOpcode != mem.Read32(c.pc) {
		t.Fatalf("invariant broken: nextOpcode=%#x, Read32(pc)=%#x", c.nextOpcode, mem.Read32(c.pc))
	}
	if c.reg(1) != 1 {
		t.Fatalf("$1 = %d, want 1", c.reg(1))
	}
}

// TestBranchDelaySlotExecutes checks that a taken branch's delay slot
// instruction still runs, and that the branch target is reached exactly one
// cycle later.
func TestBranchDelaySlotExecutes(t *testing.T) {
	c, mem := newTestCPU()
	// beq $0, $0, 1        (always taken, target = pc+4+4)
	mem.Write32(0xBFC00000, 0x10000001)
	// addiu $1, $0, 5      (delay slot, must still execute)
	mem.Write32(0xBFC00004, 0x24010005)
	// addiu $2, $0, 9      (branch target)
	mem.Write32(0xBFC00008, 0x24020009)
	c.Reset()

	c.RunOpcode() // beq: arms delay slot
	if c.reg(1) != 0 {
		t.Fatalf("delay slot ran early: $1 = %d", c.reg(1))
	}
	c.RunOpcode() // delay slot
	if c.reg(1) != 5 {
		t.Fatalf("$1 = %d after delay slot, want 5", c.reg(1))
	}
	if c.nextOpcode != mem.Read32(c.pc) {
		t.Fatal("prefetch invariant broken after delay slot")
	}
	c.RunOpcode() // branch target
	if c.reg(2) != 9 {
		t.Fatalf("$2 = %d, want 9 (branch target reached)", c.reg(2))
	}
}

// TestBranchLikelyNotTakenSkipsDelaySlot is the MIPS II "likely" semantics:
// the delay slot instruction must not execute at all when the branch falls
// through.
func TestBranchLikelyNotTakenSkipsDelaySlot(t *testing.T) {
	c, mem := newTestCPU()
	// bnel $0, $0, 1  (never taken, since $0 == $0)
	mem.Write32(0xBFC00000, 0x54000001)
	// addiu $1, $0, 7 (delay slot, must be skipped)
	mem.Write32(0xBFC00004, 0x24010007)
	mem.Write32(0xBFC00008, 0)
	c.Reset()

	c.RunOpcode()
	if c.reg(1) != 0 {
		t.Fatalf("$1 = %d, want 0 (likely-not-taken delay slot must be skipped)", c.reg(1))
	}
	if c.pc != 0xBFC00008 {
		t.Fatalf("pc = %#x, want 0xBFC00008", c.pc)
	}
}

func TestAddiOverflowRaisesException(t *testing.T) {
	c, mem := newTestCPU()
	// addi $1, $1, 1 (overflow: MAX_INT32 + 1)
	mem.Write32(0xBFC00000, 0x20210001)
	c.Reset()
	c.setReg(1, 0x7FFFFFFF)
	c.RunOpcode()
	if (c.cp0Cause&0x7C)>>2 != excOv {
		t.Fatalf("Cause.ExcCode = %d, want excOv (%d)", (c.cp0Cause&0x7C)>>2, excOv)
	}
}

// TestExceptionSetsDelaySlotBDBit exercises the fixed two-stage
// armedSlot/delaySlot bookkeeping: an instruction that raises an exception
// from inside a delay slot must have BD set and EPC pointed at the branch.
func TestExceptionSetsDelaySlotBDBit(t *testing.T) {
	c, mem := newTestCPU()
	// beq $0, $0, 1 (always taken)
	mem.Write32(0xBFC00000, 0x10000001)
	// syscall (delay slot instruction, raises an exception)
	mem.Write32(0xBFC00004, 0x0000000C)
	mem.Write32(0xBFC00008, 0)
	c.Reset()

	c.RunOpcode() // beq, arms delay slot
	c.RunOpcode() // syscall executes as the delay slot instruction

	if c.cp0Cause&(1<<31) == 0 {
		t.Fatal("BD bit not set for an exception raised from a delay slot")
	}
	if c.cp0EPC != 0xBFC00000 {
		t.Fatalf("EPC = %#x, want 0xBFC00000 (the branch, not the delay slot)", c.cp0EPC)
	}
}

// TestExceptionNotInDelaySlotClearsBD is the control case: an exception
// raised by a non-delay-slot instruction must not set BD, and EPC should
// point directly at the faulting instruction.
func TestExceptionNotInDelaySlotClearsBD(t *testing.T) {
	c, mem := newTestCPU()
	mem.Write32(0xBFC00000, 0x0000000C) // syscall, not in a delay slot
	c.Reset()
	c.RunOpcode()

	if c.cp0Cause&(1<<31) != 0 {
		t.Fatal("BD bit set for an exception not raised from a delay slot")
	}
	if c.cp0EPC != 0xBFC00000 {
		t.Fatalf("EPC = %#x, want 0xBFC00000", c.cp0EPC)
	}
}

// TestExceptionPrefetchInvariant checks the immediate-target convention: the
// exception vector has no delay slot of its own, so both pc and nextOpcode
// must point at the vector immediately.
func TestExceptionPrefetchInvariant(t *testing.T) {
	c, mem := newTestCPU()
	mem.Write32(0xBFC00000, 0x0000000C) // syscall
	mem.Write32(0x80000180, 0xAABBCCDD) // general exception vector (BEV clear after reset... see below)
	c.Reset()
	c.cp0Status &^= 1 << 22 // clear BEV so the vector resolves to 0x80000180
	c.RunOpcode()

	if c.pc != 0x80000180 {
		t.Fatalf("pc = %#x, want 0x80000180", c.pc)
	}
	if c.nextOpcode != 0xAABBCCDD {
		t.Fatalf("nextOpcode = %#x, want prefetch of the vector target", c.nextOpcode)
	}
}

// TestEretImmediateTarget checks eret has no delay slot: pc and nextOpcode
// must both land exactly on EPC, not EPC-4 / EPC+4.
func TestEretImmediateTarget(t *testing.T) {
	c, mem := newTestCPU()
	mem.Write32(0xBFC00000, 0x42000018) // eret
	mem.Write32(0x80100000, 0x55667788)
	c.Reset()
	c.cp0EPC = 0x80100000
	c.cp0Status = (c.cp0Status &^ 0x4) | 0x2 // ERL clear, EXL set, so eret takes the EPC path
	c.RunOpcode()

	if c.pc != 0x80100000 {
		t.Fatalf("pc = %#x, want 0x80100000", c.pc)
	}
	if c.nextOpcode != 0x55667788 {
		t.Fatalf("nextOpcode = %#x, want prefetch of EPC", c.nextOpcode)
	}
	if c.cp0Status&0x2 != 0 {
		t.Fatal("EXL not cleared by eret")
	}
}

func TestLwlMergesHighBytesPreservingLow(t *testing.T) {
	c, mem := newTestCPU()
	mem.Write32(0x1000, 0x11223344)
	// lwl $3, 1($4)
	mem.Write32(0xBFC00000, (0x22<<26)|(4<<21)|(3<<16)|1)
	c.Reset()
	c.setReg(3, 0x000000AA) // low byte must survive the merge
	c.setReg(4, 0x1000)
	c.RunOpcode()
	// addr&3 == 1, shift = 8: merged = (word<<8) | (old & 0xFF)
	want := uint32(0x223344<<8) | 0xAA
	if uint32(c.reg(3)) != want {
		t.Fatalf("$3 = %#x, want %#x", uint32(c.reg(3)), want)
	}
}

// TestLwlLwrComposeFullUnalignedLoad uses the classic compiler idiom for an
// unaligned LW -- LWL at the target address, LWR at address+3 -- and checks
// the two halves compose into exactly the four bytes spanning the two
// memory words straddled by the unaligned access.
func TestLwlLwrComposeFullUnalignedLoad(t *testing.T) {
	c, mem := newTestCPU()
	mem.Write32(0x2000, 0xAABBCCDD)
	mem.Write32(0x2004, 0x11223344)
	// lwl $5, 1($4); lwr $5, 4($4)
	mem.Write32(0xBFC00000, (0x22<<26)|(4<<21)|(5<<16)|1)
	mem.Write32(0xBFC00004, (0x26<<26)|(4<<21)|(5<<16)|4)
	c.Reset()
	c.setReg(4, 0x2000)
	c.RunOpcode() // lwl: top 3 bytes = BB, CC, DD (mem[0x2001..0x2003])
	c.RunOpcode() // lwr: low byte = 0x11 (mem[0x2004])
	if want := uint32(0xBBCCDD11); uint32(c.reg(5)) != want {
		t.Fatalf("$5 = %#x, want %#x", uint32(c.reg(5)), want)
	}
}

// TestSwlSwrComposeFullUnalignedStore is the store-side dual: SWL at the
// target address, SWR at address+3, writing the four bytes of $rt across the
// two words the unaligned store straddles, without touching the neighboring
// bytes of either word.
func TestSwlSwrComposeFullUnalignedStore(t *testing.T) {
	c, mem := newTestCPU()
	mem.Write32(0x3000, 0xFF000000)
	mem.Write32(0x3004, 0x000000FF)
	// swl $5, 1($4); swr $5, 4($4)
	mem.Write32(0xBFC00000, (0x2A<<26)|(4<<21)|(5<<16)|1)
	mem.Write32(0xBFC00004, (0x2E<<26)|(4<<21)|(5<<16)|4)
	c.Reset()
	c.setReg(4, 0x3000)
	c.setReg(5, 0xAABBCCDD)
	c.RunOpcode()
	c.RunOpcode()
	if got := mem.Read32(0x3000); got != 0xFFAABBCC {
		t.Fatalf("mem[0x3000] = %#x, want 0xFFAABBCC", got)
	}
	if got := mem.Read32(0x3004); got != 0xDD0000FF {
		t.Fatalf("mem[0x3004] = %#x, want 0xDD0000FF", got)
	}
}

func TestDmultNegativeOperandProducesSignedProduct(t *testing.T) {
	c, _ := newTestCPU()
	a := int64(-5)
	c.setReg(4, uint64(a))
	c.setReg(5, uint64(int64(7)))
	// dmult $4, $5
	opcode := uint32((4 << 21) | (5 << 16) | 0x1C)
	c.dmult(opcode)
	result := int64(c.lo) // product fits in lo for small operands
	if c.hi != 0xFFFFFFFFFFFFFFFF {
		t.Fatalf("hi = %#x, want all-ones sign extension for a negative product", c.hi)
	}
	if result != -35 {
		t.Fatalf("lo (signed) = %d, want -35", result)
	}
}

func TestDmultPositiveOperandsMatchUnsignedMultiply(t *testing.T) {
	c, _ := newTestCPU()
	c.setReg(4, 6)
	c.setReg(5, 7)
	opcode := uint32((4 << 21) | (5 << 16) | 0x1C)
	c.dmult(opcode)
	if c.hi != 0 || c.lo != 42 {
		t.Fatalf("hi:lo = %d:%d, want 0:42", c.hi, c.lo)
	}
}

func TestDivByZeroMatchesHardwareConvention(t *testing.T) {
	c, _ := newTestCPU()
	neg := int32(-1)
	c.setReg(4, uint64(int64(neg)))
	c.setReg(5, 0)
	opcode := uint32((4 << 21) | (5 << 16) | 0x1A) // div $4, $5
	c.div(opcode)
	if uint32(c.lo) != 1 {
		t.Fatalf("lo = %#x, want 1 for a negative dividend / 0", uint32(c.lo))
	}
}

func TestTLBWriteIndexedThenReadRoundTrips(t *testing.T) {
	c, _ := newTestCPU()
	c.cp0Index = 3
	c.cp0EntryLo0 = 0x1234
	c.cp0EntryLo1 = 0x5678
	c.cp0EntryHi = 0x00002000
	c.cp0PageMask = 0x1FE000
	c.tlbwi(0)

	c.cp0EntryLo0, c.cp0EntryLo1, c.cp0EntryHi, c.cp0PageMask = 0, 0, 0, 0
	c.tlbr(0)
	if c.cp0EntryLo0 != 0x1234 || c.cp0EntryLo1 != 0x5678 || c.cp0EntryHi != 0x00002000 {
		t.Fatalf("tlbr after tlbwi mismatch: lo0=%#x lo1=%#x hi=%#x", c.cp0EntryLo0, c.cp0EntryLo1, c.cp0EntryHi)
	}
}

func TestTLBProbeFindsMatchingEntry(t *testing.T) {
	c, _ := newTestCPU()
	c.cp0Index = 5
	c.cp0EntryHi = 0x3000
	c.tlbwi(0)
	c.cp0Index = 0
	c.cp0EntryHi = 0x3000
	c.tlbp(0)
	if c.cp0Index != 5 {
		t.Fatalf("tlbp index = %d, want 5", c.cp0Index)
	}
}

func TestTLBProbeMissSetsSignBit(t *testing.T) {
	c, _ := newTestCPU()
	c.cp0EntryHi = 0xDEAD000
	c.tlbp(0)
	if c.cp0Index&(1<<31) == 0 {
		t.Fatal("tlbp should set the sign bit on a miss")
	}
}
