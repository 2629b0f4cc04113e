package rsp

import "testing"

type fakeRDRAM struct{ mem map[uint32]uint64 }

func newFakeRDRAM() *fakeRDRAM { return &fakeRDRAM{mem: map[uint32]uint64{}} }

func (m *fakeRDRAM) Read64(addr uint32) uint64        { return m.mem[addr&^7] }
func (m *fakeRDRAM) Write64(addr uint32, value uint64) { m.mem[addr&^7] = value }

type fakeMI struct {
	set   []int
	clear []int
}

func (m *fakeMI) SetInterrupt(bit int)   { m.set = append(m.set, bit) }
func (m *fakeMI) ClearInterrupt(bit int) { m.clear = append(m.clear, bit) }

type fakeRunState struct{ running []bool }

func (s *fakeRunState) SetRSPRunning(running bool) { s.running = append(s.running, running) }

func newTestRSP() (*RSP, *fakeRDRAM, *fakeMI, *fakeRunState) {
	rdram := newFakeRDRAM()
	mi := &fakeMI{}
	sched := &fakeRunState{}
	r := New(Config{RDRAM: rdram, MI: mi, Sched: sched})
	return r, rdram, mi, sched
}

func TestResetHaltsAndParksPCAtZero(t *testing.T) {
	r, _, _, _ := newTestRSP()
	if r.status&statusHalt == 0 {
		t.Fatal("cold reset should leave SP_STATUS halted")
	}
	if r.running {
		t.Fatal("cold reset should not be running")
	}
	if r.ReadPC() != 0 {
		t.Fatalf("PC = %#x, want 0", r.ReadPC())
	}
}

func TestWritePCLeavesOneOpcodeBubble(t *testing.T) {
	r, _, _, _ := newTestRSP()
	r.memWrite32(0x1100, 0x01234567) // IMEM offset 0x100
	r.WritePC(0x100)
	if r.nextOpcode != 0 {
		t.Fatalf("nextOpcode after WritePC = %#x, want 0 (bubble)", r.nextOpcode)
	}
	if r.ReadPC() != 0x100 {
		t.Fatalf("ReadPC = %#x, want 0x100", r.ReadPC())
	}

	r.RunOpcode() // executes the bubble NOP, prefetches the real instruction
	if r.nextOpcode != 0x01234567 {
		t.Fatalf("nextOpcode after one step = %#x, want 0x01234567", r.nextOpcode)
	}
}

func TestScratchpadSpillsFromDMEMIntoIMEM(t *testing.T) {
	r, _, _, _ := newTestRSP()
	r.memWrite8(0xFFF, 0xAA)
	r.memWrite8(0x1000, 0xBB)
	if got := r.memRead16(0xFFF); got != 0xAABB {
		t.Fatalf("unaligned read across DMEM/IMEM boundary = %#x, want 0xAABB", got)
	}
}

func TestReadDMATransfersFromRDRAMIntoScratchpad(t *testing.T) {
	r, rdram, _, _ := newTestRSP()
	rdram.mem[0x80001000&^7] = 0x1122334455667788
	r.WriteCP0(0, 0x40) // SP_MEM_ADDR
	r.WriteCP0(1, 0x1000)
	r.WriteCP0(2, 7) // SP_RD_LEN 7: an 8-byte transfer, one burst

	if got := r.memRead64(0x40); got != 0x1122334455667788 {
		t.Fatalf("DMEM after read DMA = %#x, want 0x1122334455667788", got)
	}
}

func TestWriteDMATransfersFromScratchpadIntoRDRAM(t *testing.T) {
	r, rdram, _, _ := newTestRSP()
	r.memWrite64(0x80, 0xCAFEBABEDEADBEEF)
	r.WriteCP0(0, 0x80)
	r.WriteCP0(1, 0x2000)
	r.WriteCP0(3, 7) // SP_WR_LEN 7: an 8-byte transfer, one burst

	if got := rdram.mem[0x80002000]; got != 0xCAFEBABEDEADBEEF {
		t.Fatalf("RDRAM after write DMA = %#x, want 0xCAFEBABEDEADBEEF", got)
	}
}

func TestStatusHaltBitTogglesRunningAndScheduler(t *testing.T) {
	r, _, _, sched := newTestRSP()
	r.WriteCP0(4, 0x1) // clear halt
	if r.status&statusHalt != 0 {
		t.Fatal("halt bit should clear")
	}
	if !r.running {
		t.Fatal("clearing halt should start the core running")
	}
	if len(sched.running) == 0 || !sched.running[len(sched.running)-1] {
		t.Fatal("scheduler should observe running=true")
	}

	r.WriteCP0(4, 0x2) // set halt
	if r.status&statusHalt == 0 {
		t.Fatal("halt bit should set")
	}
	if sched.running[len(sched.running)-1] {
		t.Fatal("scheduler should observe running=false")
	}
}

func TestStatusInterruptAckAndTrigger(t *testing.T) {
	r, _, mi, _ := newTestRSP()
	r.WriteCP0(4, 0x10) // trigger SP interrupt
	if len(mi.set) == 0 || mi.set[len(mi.set)-1] != 0 {
		t.Fatal("bit 4 should raise MI interrupt bit 0")
	}
	r.WriteCP0(4, 0x8) // ack
	if len(mi.clear) == 0 || mi.clear[len(mi.clear)-1] != 0 {
		t.Fatal("bit 3 should clear MI interrupt bit 0")
	}
}

func TestStatusSignalBitsAreIndependentLatches(t *testing.T) {
	r, _, _, _ := newTestRSP()
	r.WriteCP0(4, 1<<6) // set SIG0 (offset 5 in the paired table -> status bit 5)
	if r.status&(1<<5) == 0 {
		t.Fatal("SIG0 set bit should raise status bit 5")
	}
	r.WriteCP0(4, 1<<5) // clear SIG0
	if r.status&(1<<5) != 0 {
		t.Fatal("SIG0 clear bit should lower status bit 5")
	}
}

func TestTriggerBreakHaltsAndSetsBrokeFlag(t *testing.T) {
	r, _, _, _ := newTestRSP()
	r.WriteCP0(4, 0x1) // clear halt so the transition is observable
	r.triggerBreak()
	if r.status&statusBroke == 0 {
		t.Fatal("BREAK should raise the broke flag")
	}
	if r.running {
		t.Fatal("BREAK should halt the core")
	}
}

func TestVectorByteAddressingEvenOddAndWraparound(t *testing.T) {
	r, _, _, _ := newTestRSP()
	r.vregs[1] = [8]uint16{0x1122, 0x3344, 0x5566, 0x7788, 0x99AA, 0xBBCC, 0xDDEE, 0xFF00}

	if got := r.cp2Read(false, 1, 0); got != int16(0x1122) {
		t.Fatalf("even-byte read = %#x, want 0x1122", uint16(got))
	}
	if got := r.cp2Read(false, 1, 1); got != int16(0x2233) {
		t.Fatalf("odd-byte read = %#x, want 0x2233", uint16(got))
	}
	if got := r.cp2Read(false, 1, 15); got != int16(0x0011) {
		t.Fatalf("byte-15 wraparound read = %#x, want 0x0011", uint16(got))
	}
}

func TestLQVStopsAtSixteenByteBoundary(t *testing.T) {
	r, _, _, _ := newTestRSP()
	for i := uint32(0); i < 16; i++ {
		r.memWrite8(0x20+i, uint8(i+1))
	}
	// base chosen so addr&0xF == 8, leaving only 8 bytes (4 lanes) before
	// the boundary.
	r.regs[4] = 0x28
	r.lqv(0x1F<<26 | 4<<21 | 2<<16 | 0<<7)

	reg := r.vregs[2]
	if reg[0] != 0x090A || reg[3] != 0x0F10 {
		t.Fatalf("lqv lanes = %v, want first/last filled lanes 0x090A/0x0F10", reg)
	}
	if reg[4] != 0 {
		t.Fatal("lqv should not write past the 16-byte boundary")
	}
}

func TestVaddSetsAccumulatorAndClampsResult(t *testing.T) {
	r, _, _, _ := newTestRSP()
	r.vregs[1] = [8]uint16{0x7FFF, 0, 0, 0, 0, 0, 0, 0}
	r.vregs[2] = [8]uint16{0x7FFF, 0, 0, 0, 0, 0, 0, 0}
	r.vadd(2<<16 | 1<<11 | 3<<6)
	if r.vregs[3][0] != 0x7FFF {
		t.Fatalf("vadd lane 0 = %#x, want clamp to 0x7FFF", r.vregs[3][0])
	}
	if r.vco != 0 {
		t.Fatal("vadd should zero VCO after committing the result")
	}
}

func TestVabsWritesSignSelectedValue(t *testing.T) {
	r, _, _, _ := newTestRSP()
	r.vregs[3] = [8]uint16{0x1234, 0x5678, 0x9ABC, 0, 0, 0, 0, 0}
	r.vregs[1] = [8]uint16{0xFFFF, 0x0001, 0xFFFF, 0, 0, 0, 0, 0} // lanes 0/2 negative, lane1 positive
	r.vregs[2] = [8]uint16{0x0010, 0x0020, 0x8000, 0, 0, 0, 0, 0}
	r.vabs(2<<16 | 1<<11 | 3<<6)
	want := [8]uint16{0xFFF0, 0x0020, 0x7FFF, 0, 0, 0, 0, 0}
	if r.vregs[3] != want {
		t.Fatalf("vabs vd = %v, want %v (-vt, vt, clamped -0x8000, then 0 where vs is 0)", r.vregs[3], want)
	}
}

func TestClampUnsignedAsymmetricQuirk(t *testing.T) {
	if got := clampUnsigned(-5); got != 0 {
		t.Fatalf("clampUnsigned(-5) = %#x, want 0", got)
	}
	if got := clampUnsigned(100); got != 100 {
		t.Fatalf("clampUnsigned(100) = %#x, want 100", got)
	}
	if got := clampUnsigned(40000); got != 0xFFFF {
		t.Fatalf("clampUnsigned(40000) = %#x, want 0xFFFF (saturates past signed max, unlike clampSigned)", got)
	}
}

func TestVrcpOfZeroSaturatesDivOut(t *testing.T) {
	r, _, _, _ := newTestRSP()
	r.vregs[1] = [8]uint16{0, 0, 0, 0, 0, 0, 0, 0}
	r.vrcp(1<<16 | 0<<21 | 0<<11 | 2<<6)
	if r.divOut != 0xFFFF {
		t.Fatalf("vrcp(0) divOut = %#x, want 0xFFFF (divide-by-zero saturation)", r.divOut)
	}
	if r.divIn != 0 {
		t.Fatal("vrcp should clear divIn, priming the single-instruction path")
	}
}
