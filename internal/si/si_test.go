package si

import "testing"

type fakeInterrupts struct{ set, clear int }

func (f *fakeInterrupts) SetInterrupt(bit int)   { f.set++ }
func (f *fakeInterrupts) ClearInterrupt(bit int) { f.clear++ }

func TestPIFDMAWritesPulseInterrupt(t *testing.T) {
	ints := &fakeInterrupts{}
	d := New(ints)

	d.WriteIO(regPIFAdRd64B, 0)
	d.WriteIO(regPIFAdWr64B, 0)
	if ints.set != 2 {
		t.Fatalf("set calls = %d, want 2", ints.set)
	}
}

func TestStatusWriteClearsInterrupt(t *testing.T) {
	ints := &fakeInterrupts{}
	d := New(ints)
	d.WriteIO(regStatus, 0)
	if ints.clear != 1 {
		t.Fatalf("clear calls = %d, want 1", ints.clear)
	}
}

func TestDRAMAddrMasked(t *testing.T) {
	d := New(&fakeInterrupts{})
	d.WriteIO(regDRAMAddr, 0xFFFFFFFF)
	if d.dramAddr != 0xFFFFFF {
		t.Fatalf("dramAddr = %#x, want 0xFFFFFF", d.dramAddr)
	}
}
