package rdp

import "testing"

type fakeMemory struct{ mem map[uint32]byte }

func newFakeMemory() *fakeMemory { return &fakeMemory{mem: map[uint32]byte{}} }

func (m *fakeMemory) Read8(addr uint32) uint8        { return m.mem[addr] }
func (m *fakeMemory) Write8(addr uint32, value uint8) { m.mem[addr] = value }
func (m *fakeMemory) Read16(addr uint32) uint16 {
	return uint16(m.mem[addr])<<8 | uint16(m.mem[addr+1])
}
func (m *fakeMemory) Write16(addr uint32, value uint16) {
	m.mem[addr] = uint8(value >> 8)
	m.mem[addr+1] = uint8(value)
}
func (m *fakeMemory) Read32(addr uint32) uint32 {
	return uint32(m.Read16(addr))<<16 | uint32(m.Read16(addr+2))
}
func (m *fakeMemory) Read64(addr uint32) uint64 {
	return uint64(m.Read32(addr))<<32 | uint64(m.Read32(addr+4))
}
func (m *fakeMemory) writeWord64(addr uint32, value uint64) {
	for i := uint32(0); i < 8; i++ {
		m.mem[addr+i] = uint8(value >> ((7 - i) * 8))
	}
}

type fakeInterrupts struct{ set, clear []int }

func (f *fakeInterrupts) SetInterrupt(bit int)   { f.set = append(f.set, bit) }
func (f *fakeInterrupts) ClearInterrupt(bit int) { f.clear = append(f.clear, bit) }

func newTestDevice() (*Device, *fakeMemory, *fakeInterrupts) {
	mem := newFakeMemory()
	mi := &fakeInterrupts{}
	d := New(Config{RDRAM: mem, RSPMem: mem, MI: mi})
	return d, mem, mi
}

// fillRectProgram writes a SetColorImage/SetFillColor/SetScissor/
// FillRectangle command stream into mem starting at address 0 and returns
// its length in bytes, for both the inline and threaded drain tests.
func fillRectProgram(mem *fakeMemory, colorAddr uint32, fill uint32) uint32 {
	words := []uint64{
		uint64(opSetColorImage)<<56 | uint64(3)<<51 | uint64(1)<<32 | uint64(colorAddr),
		uint64(opSetFillColor)<<56 | uint64(fill),
		uint64(opSetScissor)<<56 | uint64(2)<<(12+2) | uint64(2)<<2,
		uint64(opFillRectangle)<<56 | uint64(4)<<44 | uint64(4)<<32,
	}
	for i, w := range words {
		mem.writeWord64(uint32(i)*8, w)
	}
	return uint32(len(words)) * 8
}

func TestFillRectangleWritesFillColorAcrossScissoredSquare(t *testing.T) {
	d, mem, _ := newTestDevice()
	const colorAddr = 0x2000
	const fill = 0x11223344
	end := fillRectProgram(mem, colorAddr, fill)

	d.WriteIO(regStart, 0)
	d.WriteIO(regEnd, end)

	for _, off := range []uint32{0x2000, 0x2004, 0x2008, 0x200C} {
		if got := mem.Read32(colorAddr + (off - colorAddr)); got != fill {
			t.Fatalf("pixel at %#x = %#x, want %#x", off, got, fill)
		}
	}
	if got := mem.Read32(0x2010); got != 0 {
		t.Fatalf("pixel outside scissor = %#x, want untouched 0", got)
	}
}

func TestThreadedWorkerProducesSameOutputAsInline(t *testing.T) {
	inline, inlineMem, _ := newTestDevice()
	const colorAddr = 0x3000
	const fill = 0xAABBCCDD
	end := fillRectProgram(inlineMem, colorAddr, fill)
	inline.WriteIO(regStart, 0)
	inline.WriteIO(regEnd, end)

	threaded, threadedMem, _ := newTestDevice()
	fillRectProgram(threadedMem, colorAddr, fill)
	threaded.StartWorker()
	threaded.WriteIO(regStart, 0)
	threaded.WriteIO(regEnd, end)
	threaded.StopWorker()

	for _, off := range []uint32{colorAddr, colorAddr + 4, colorAddr + 8, colorAddr + 0xC} {
		want := inlineMem.Read32(off)
		got := threadedMem.Read32(off)
		if got != want {
			t.Fatalf("threaded pixel at %#x = %#x, want %#x (inline result)", off, got, want)
		}
	}
}

func TestSyncFullRaisesDPInterruptAfterDrain(t *testing.T) {
	d, mem, mi := newTestDevice()
	words := []uint64{
		uint64(opNoOp) << 56,
		uint64(opSyncFull) << 56,
	}
	for i, w := range words {
		mem.writeWord64(uint32(i)*8, w)
	}
	d.WriteIO(regStart, 0)
	d.WriteIO(regEnd, uint32(len(words))*8)

	if len(mi.set) == 0 || mi.set[len(mi.set)-1] != interruptBit {
		t.Fatalf("Sync Full should raise MI bit %d, got %v", interruptBit, mi.set)
	}
}

func TestParamCountsCoverAllEightTriangleVariants(t *testing.T) {
	want := map[uint8]uint8{
		opFillTriangle:                4,
		opFillZBufferTriangle:         6,
		opTextureTriangle:             12,
		opTextureZBufferTriangle:      14,
		opShadeTriangle:               12,
		opShadeZBufferTriangle:        14,
		opShadeTextureTriangle:        20,
		opShadeTextureZBufferTriangle: 22,
	}
	for op, n := range want {
		if paramCounts[op] != n {
			t.Fatalf("paramCounts[%#x] = %d, want %d", op, paramCounts[op], n)
		}
	}
}

func TestSetColorImageProgramsFormatSizeWidthAddr(t *testing.T) {
	d, _, _ := newTestDevice()
	w0 := uint64(opSetColorImage)<<56 | uint64(2)<<53 | uint64(3)<<51 | uint64(9)<<32 | uint64(0x4000)
	d.setColorImage([]uint64{w0})
	if d.colorImage.format != 2 || d.colorImage.size != 3 || d.colorImage.width != 10 || d.colorImage.addr != 0x4000 {
		t.Fatalf("colorImage = %+v, want format=2 size=3 width=10 addr=0x4000", d.colorImage)
	}
}

func TestSetScissorUnpacksAllFourFields(t *testing.T) {
	d, _, _ := newTestDevice()
	// x1=5, y1=6, x2=20, y2=30 (10.2 fixed: value<<2)
	w0 := uint64(opSetScissor)<<56 | uint64(5)<<(44+2) | uint64(6)<<(32+2) | uint64(20)<<(12+2) | uint64(30)<<2
	d.setScissor([]uint64{w0})
	if d.scissorX1 != 5 || d.scissorY1 != 6 || d.scissorX2 != 20 || d.scissorY2 != 30 {
		t.Fatalf("scissor = (%d,%d)-(%d,%d), want (5,6)-(20,30)", d.scissorX1, d.scissorY1, d.scissorX2, d.scissorY2)
	}
}

func TestClamp8SaturatesBothDirections(t *testing.T) {
	if got := clamp8(-5); got != 0 {
		t.Fatalf("clamp8(-5) = %d, want 0", got)
	}
	if got := clamp8(300); got != 0xFF {
		t.Fatalf("clamp8(300) = %d, want 0xFF", got)
	}
	if got := clamp8(100); got != 100 {
		t.Fatalf("clamp8(100) = %d, want 100", got)
	}
}

func TestWrapCoordClampHoldsAtTileBounds(t *testing.T) {
	got := wrapCoord(100, true, false, 0, 0, 40) // tile bound is S2=40 -> 10 texels (40>>2)
	if got != 10 {
		t.Fatalf("wrapCoord clamp = %d, want 10", got)
	}
}

func TestWrapCoordMirrorReflectsPastPowerOfTwoMask(t *testing.T) {
	// mask=2 -> 4-texel tile; coordinate 5 wraps to 1, then mirrors within
	// the second repeat since bit 2 (the repeat-parity bit) is set.
	got := wrapCoord(5, false, true, 2, 0, 0)
	if got != 2 {
		t.Fatalf("wrapCoord mirror = %d, want 2", got)
	}
}

func TestCombineOneCycleFormula(t *testing.T) {
	shade := [4]uint8{100, 100, 100, 0xFF}
	texel := [4]uint8{200, 200, 200, 0xFF}
	prim := [4]uint8{0, 0, 0, 0}
	env := [4]uint8{0, 0, 0, 0}
	// A=texel B=min(0) C=max(0xFF) D=min(0) for RGB; matching selectors for alpha.
	mode := combineMode{
		rgbA: 1, rgbB: 7, rgbC: 6, rgbD: 7,
		alphaA: 1, alphaB: 7, alphaC: 0, alphaD: 7,
	}
	out := combinePixel(mode, shade, texel, prim, shade, env)
	// D + (A-B)*C/255 = 0 + (200-0)*255/255 = 200
	if out[0] != 200 {
		t.Fatalf("combine channel 0 = %d, want 200", out[0])
	}
}

func TestCombineFormulaWrapsRatherThanClamps(t *testing.T) {
	// A-B underflows uint8; the hardware truncates instead of clamping to 0.
	a, b := uint8(10), uint8(200)
	want := a - b // wraps to 66
	got := combineFormula(a, b, 255, 0)
	if got != want {
		t.Fatalf("combineFormula wraparound = %d, want %d", got, want)
	}
}

func TestLoadTileCopiesTexelsIntoTMEM(t *testing.T) {
	d, mem, _ := newTestDevice()
	d.texImage = image{addr: 0x5000, width: 4, size: 2}
	d.tile[0] = Tile{Address: 0, Width: 4, Size: 2}
	for i := uint32(0); i < 16; i++ {
		mem.mem[0x5000+i] = uint8(i + 1)
	}
	w0 := uint64(opLoadTile)<<56 | uint64(12)<<12 // s1=0, t1=0, s2=3 texels (12 in 10.2 fixed), t2=0
	d.loadTile([]uint64{w0})
	for i := 0; i < 8; i++ {
		if d.tmem[i] != uint8(i+1) {
			t.Fatalf("tmem[%d] = %d, want %d", i, d.tmem[i], i+1)
		}
	}
}
