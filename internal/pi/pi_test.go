package pi

import "testing"

type fakeMemory struct{ writes map[uint32]uint8 }

func (m *fakeMemory) Write8(addr uint32, value uint8) { m.writes[addr] = value }

type fakeCart struct{ rom []byte }

func (c *fakeCart) ROMBytes() []byte { return c.rom }

type fakeInterrupts struct{ set, clear int }

func (f *fakeInterrupts) SetInterrupt(bit int)   { f.set++ }
func (f *fakeInterrupts) ClearInterrupt(bit int) { f.clear++ }

func TestPerformDMACopiesBytesAndSetsInterrupt(t *testing.T) {
	mem := &fakeMemory{writes: map[uint32]uint8{}}
	cart := &fakeCart{rom: []byte{0xAA, 0xBB, 0xCC, 0xDD}}
	ints := &fakeInterrupts{}
	d := New(mem, cart, ints)

	d.WriteIO(regDRAMAddr, 0x1000)
	d.WriteIO(regCartAddr, 0x10000000)
	d.WriteIO(regWRLen, 3) // size = 4 bytes

	for i, want := range []uint8{0xAA, 0xBB, 0xCC, 0xDD} {
		got := mem.writes[0x80001000+uint32(i)]
		if got != want {
			t.Fatalf("writes[%d] = %#x, want %#x", i, got, want)
		}
	}
	if ints.set != 1 {
		t.Fatalf("interrupt set calls = %d, want 1", ints.set)
	}
}

func TestPerformDMAPastROMEndReadsFF(t *testing.T) {
	mem := &fakeMemory{writes: map[uint32]uint8{}}
	cart := &fakeCart{rom: []byte{0x11}}
	d := New(mem, cart, &fakeInterrupts{})

	d.WriteIO(regDRAMAddr, 0)
	d.WriteIO(regCartAddr, 0x10000000)
	d.WriteIO(regWRLen, 1) // size = 2 bytes, second is past ROM end

	if mem.writes[0x80000000] != 0x11 {
		t.Fatalf("first byte = %#x, want 0x11", mem.writes[0x80000000])
	}
	if mem.writes[0x80000001] != 0xFF {
		t.Fatalf("past-end byte = %#x, want 0xFF", mem.writes[0x80000001])
	}
}

func TestStatusAckClearsInterruptOnlyWithBit1(t *testing.T) {
	ints := &fakeInterrupts{}
	d := New(&fakeMemory{writes: map[uint32]uint8{}}, &fakeCart{}, ints)

	d.WriteIO(regStatus, 0x1)
	if ints.clear != 0 {
		t.Fatal("bit 0 alone should not ack the interrupt")
	}
	d.WriteIO(regStatus, 0x2)
	if ints.clear != 1 {
		t.Fatalf("clear calls = %d, want 1", ints.clear)
	}
}
