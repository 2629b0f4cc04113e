package vi

import "testing"

type fakeMemory struct {
	words16 map[uint32]uint16
	words32 map[uint32]uint32
}

func (m *fakeMemory) Read32(addr uint32) uint32 { return m.words32[addr] }
func (m *fakeMemory) Read16(addr uint32) uint16 { return m.words16[addr] }

type fakeScheduler struct{ scheduled int }

func (s *fakeScheduler) Schedule(fn func(), cycles uint32) { s.scheduled++ }

type fakeInterrupts struct{ set, clear int }

func (f *fakeInterrupts) SetInterrupt(bit int)   { f.set++ }
func (f *fakeInterrupts) ClearInterrupt(bit int) { f.clear++ }

type fakeFrameCounter struct{ frames int }

func (f *fakeFrameCounter) CountFrame() { f.frames++ }

func TestResetArmsFirstDrawTick(t *testing.T) {
	sched := &fakeScheduler{}
	d := New(&fakeMemory{}, sched, &fakeInterrupts{}, &fakeFrameCounter{})
	d.Reset()
	if sched.scheduled != 1 {
		t.Fatalf("scheduled = %d, want 1", sched.scheduled)
	}
}

func TestDrawFrame32BitFormat(t *testing.T) {
	mem := &fakeMemory{words32: map[uint32]uint32{0x80100000: 0x11223344}}
	d := New(mem, &fakeScheduler{}, &fakeInterrupts{}, &fakeFrameCounter{})
	d.WriteIO(regControl, 0x3)
	d.WriteIO(regOrigin, 0x100000)
	d.WriteIO(regWidth, 1)
	d.WriteIO(regYScale, 1<<10) // yields height = 240

	d.drawFrame()
	fb := d.TakeFramebuffer()
	if fb == nil {
		t.Fatal("expected a queued framebuffer")
	}
	if fb.Width != 1 || fb.Height != 240 {
		t.Fatalf("fb dims = %dx%d, want 1x240", fb.Width, fb.Height)
	}
	want := uint32(0xFF000000) | uint32(0x33)<<16 | uint32(0x22)<<8 | uint32(0x11)
	if fb.Pixels[0] != want {
		t.Fatalf("pixel = %#x, want %#x", fb.Pixels[0], want)
	}
}

func TestDrawFrameQueueCapsAtMaxQueued(t *testing.T) {
	d := New(&fakeMemory{}, &fakeScheduler{}, &fakeInterrupts{}, &fakeFrameCounter{})
	d.WriteIO(regWidth, 1)
	d.WriteIO(regYScale, 1<<10)
	for i := 0; i < maxQueued+3; i++ {
		d.drawFrame()
	}
	count := 0
	for d.TakeFramebuffer() != nil {
		count++
	}
	if count > maxQueued {
		t.Fatalf("queued %d frames, want at most %d", count, maxQueued)
	}
}

func TestVCurrentWriteClearsInterrupt(t *testing.T) {
	ints := &fakeInterrupts{}
	d := New(&fakeMemory{}, &fakeScheduler{}, ints, &fakeFrameCounter{})
	d.WriteIO(regVCurrent, 0)
	if ints.clear != 1 {
		t.Fatalf("clear calls = %d, want 1", ints.clear)
	}
}
