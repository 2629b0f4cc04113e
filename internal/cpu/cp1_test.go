package cpu

import (
	"math"
	"testing"
)

func TestFPHalfModePairsTwoFloatRegisters(t *testing.T) {
	c, _ := newTestCPU()
	c.resetCP1() // fullMode = false
	c.fpWrite32(0, math.Float32bits(1.5))
	c.fpWrite32(1, math.Float32bits(2.5))
	if c.fpRegs[0] != uint64(math.Float32bits(2.5))<<32|uint64(math.Float32bits(1.5)) {
		t.Fatalf("fpRegs[0] = %#x, odd/even pairing broken", c.fpRegs[0])
	}
	if c.fpFloat(0) != 1.5 || c.fpFloat(1) != 2.5 {
		t.Fatalf("fpFloat(0)=%v fpFloat(1)=%v, want 1.5/2.5", c.fpFloat(0), c.fpFloat(1))
	}
}

func TestFPFullModeTreatsRegistersIndependently(t *testing.T) {
	c, _ := newTestCPU()
	c.setFPUMode(true)
	c.fpWrite32(0, math.Float32bits(1.5))
	c.fpWrite32(1, math.Float32bits(2.5))
	if c.fpFloat(0) != 1.5 || c.fpFloat(1) != 2.5 {
		t.Fatal("full mode should address each register independently")
	}
}

func TestSetFPUModeFromCP0StatusFRBit(t *testing.T) {
	c, _ := newTestCPU()
	c.WriteCP0(12, c.cp0Status|(1<<26))
	if !c.fullMode {
		t.Fatal("setting Status.FR should switch CP1 into full register mode")
	}
}

func TestAddSComputesSinglePrecisionSum(t *testing.T) {
	c, _ := newTestCPU()
	c.setFPFloat(1, 1.25)
	c.setFPFloat(2, 2.5)
	// add.s $f0, $f1, $f2 -- fd=0, fs=1, ft=2
	opcode := uint32((1 << 11) | (2 << 16))
	c.addS(opcode)
	if got := c.fpFloat(0); got != 3.75 {
		t.Fatalf("add.s = %v, want 3.75", got)
	}
}

func TestDivDByZeroProducesInfNotPanic(t *testing.T) {
	c, _ := newTestCPU()
	c.setFPDouble(1, 1.0)
	c.setFPDouble(2, 0.0)
	opcode := uint32((1 << 11) | (2 << 16))
	c.divD(opcode)
	if !math.IsInf(c.fpDouble(0), 1) {
		t.Fatalf("div.d by zero = %v, want +Inf", c.fpDouble(0))
	}
}

func TestRoundNearestUsesRoundToEven(t *testing.T) {
	c, _ := newTestCPU()
	c.setFPFloat(1, 2.5)
	// round.w.s $f0, $f1 -- fd=0, fs=1
	opcode := uint32(1 << 11)
	c.roundWS(opcode)
	got := int32(c.fpRead32(0))
	if got != 2 { // round-half-to-even: 2.5 -> 2, not 3
		t.Fatalf("round.w.s(2.5) = %d, want 2", got)
	}
}

func TestTruncTowardZero(t *testing.T) {
	c, _ := newTestCPU()
	c.setFPDouble(1, -3.9)
	opcode := uint32(1 << 11)
	c.truncLD(opcode)
	if got := int64(c.fpRegs[0]); got != -3 {
		t.Fatalf("trunc.l.d(-3.9) = %d, want -3", got)
	}
}

func TestCvtSWConvertsIntBitsToFloat(t *testing.T) {
	c, _ := newTestCPU()
	v := int32(-7)
	c.fpWrite32(1, uint32(v))
	opcode := uint32(1 << 11)
	c.cvtSW(opcode)
	if got := c.fpFloat(0); got != -7.0 {
		t.Fatalf("cvt.s.w(-7) = %v, want -7.0", got)
	}
}

func TestCompareUnorderedSetsCondOnNaN(t *testing.T) {
	c, _ := newTestCPU()
	c.setFPFloat(1, float32(math.NaN()))
	c.setFPFloat(2, 1.0)
	opcode := uint32((1 << 11) | (2 << 16))
	c.cunS(opcode)
	if c.fpStatus&(1<<23) == 0 {
		t.Fatal("c.un.s should set the condition bit when either operand is NaN")
	}
}

func TestCompareEqualClearsCondWhenUnequal(t *testing.T) {
	c, _ := newTestCPU()
	c.setFPFloat(1, 1.0)
	c.setFPFloat(2, 2.0)
	opcode := uint32((1 << 11) | (2 << 16))
	c.ceqS(opcode)
	if c.fpStatus&(1<<23) != 0 {
		t.Fatal("c.eq.s should clear the condition bit when operands differ")
	}
}

func TestDispatchFPUFallsBackToFPUnkForUnmappedOpcode(t *testing.T) {
	c, _ := newTestCPU()
	// Opcode 0x3F of wrdInstrs is unmapped; dispatch must not panic.
	c.dispatchFPU(c.wrdInstrs, 0x3F)
}
