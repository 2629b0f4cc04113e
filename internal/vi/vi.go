// Package vi implements the Video Interface: the control/origin/width/
// y-scale registers, and the once-per-frame draw tick that snapshots RDRAM
// into a host-ready ARGB8888 framebuffer queued for display.
package vi

import (
	"sync"

	"go.uber.org/zap"

	"github.com/nyxcore/n64core/internal/logging"
)

const (
	regControl  = 0x04400000
	regOrigin   = 0x04400004
	regWidth    = 0x04400008
	regVCurrent = 0x04400010
	regYScale   = 0x04400034

	interruptBit = 3

	// maxQueued bounds how far ahead emulation can run of presentation, so a
	// host that stalls briefly doesn't let the queue grow unbounded.
	maxQueued = 2

	ticksPerFrame = (93750000 / 60) * 2
)

// Memory is the source VI snapshots pixels from.
type Memory interface {
	Read32(addr uint32) uint32
	Read16(addr uint32) uint16
}

// Scheduler lets VI arrange its own once-per-frame draw callback.
type Scheduler interface {
	Schedule(fn func(), cycles uint32)
}

// FrameCounter is notified once per drawn frame, feeding the FPS counter.
type FrameCounter interface {
	CountFrame()
}

// Interrupts is the sink notified at the end of every drawn frame.
type Interrupts interface {
	SetInterrupt(bit int)
	ClearInterrupt(bit int)
}

// Framebuffer is one decoded ARGB8888 frame ready for host presentation.
type Framebuffer struct {
	Width, Height uint32
	Pixels        []uint32
}

// Device owns the VI registers and the framebuffer queue a host display
// backend drains via TakeFramebuffer.
type Device struct {
	mem   Memory
	sched Scheduler
	mi    Interrupts
	fps   FrameCounter

	control uint32
	origin  uint32
	width   uint32
	yScale  uint32

	mu    sync.Mutex
	queue []*Framebuffer

	log *zap.SugaredLogger
}

// New constructs a VI device. Call Reset once the scheduler is reset to arm
// the first per-frame draw tick.
func New(mem Memory, sched Scheduler, mi Interrupts, fps FrameCounter) *Device {
	return &Device{mem: mem, sched: sched, mi: mi, fps: fps, log: logging.For("vi")}
}

// Reset clears registers and arms the first draw tick.
func (d *Device) Reset() {
	d.control = 0
	d.origin = 0
	d.width = 0
	d.yScale = 0

	d.mu.Lock()
	d.queue = nil
	d.mu.Unlock()

	d.sched.Schedule(d.drawFrame, ticksPerFrame)
}

// TakeFramebuffer pops the oldest queued frame, or returns nil if none are
// ready, matching the non-blocking presentation pull a host backend drives
// from its own refresh loop.
func (d *Device) TakeFramebuffer() *Framebuffer {
	d.mu.Lock()
	defer d.mu.Unlock()
	if len(d.queue) == 0 {
		return nil
	}
	fb := d.queue[0]
	d.queue = d.queue[1:]
	return fb
}

// ReadIO implements the VI register read window.
func (d *Device) ReadIO(addr uint32) uint32 {
	d.log.Warnw("unknown VI register read", "addr", addr)
	return 0
}

// WriteIO implements the VI register write window.
func (d *Device) WriteIO(addr uint32, value uint32) {
	switch addr {
	case regControl:
		d.control = value & 0x1FBFF
	case regOrigin:
		d.origin = 0x80000000 | (value & 0xFFFFFF)
	case regWidth:
		d.width = value & 0xFFF
	case regVCurrent:
		d.mi.ClearInterrupt(interruptBit)
	case regYScale:
		d.yScale = value & 0xFFF0FFF
	default:
		d.log.Warnw("unknown VI register write", "addr", addr, "value", value)
	}
}

// pixelType is the VI_CONTROL low 2 bits selecting the framebuffer's pixel
// format: 3 = 32-bit RGBA8888, 2 = 16-bit RGBA5551, anything else blank.
func (d *Device) pixelType() uint32 { return d.control & 0x3 }

func (d *Device) drawFrame() {
	d.mu.Lock()
	queued := len(d.queue)
	d.mu.Unlock()

	if queued < maxQueued {
		fb := d.renderFrame()
		d.mu.Lock()
		d.queue = append(d.queue, fb)
		d.mu.Unlock()
	}

	// TODO: request the interrupt at the proper scanline time rather than
	// synchronously with the draw tick.
	d.mi.SetInterrupt(interruptBit)
	d.sched.Schedule(d.drawFrame, ticksPerFrame)
	d.fps.CountFrame()
}

func (d *Device) renderFrame() *Framebuffer {
	height := (d.yScale & 0xFFF) * 240 >> 10
	fb := &Framebuffer{Width: d.width, Height: height}
	size := int(fb.Width) * int(fb.Height)
	fb.Pixels = make([]uint32, size)

	switch d.pixelType() {
	case 0x3: // 32-bit RGBA8888 source, packed ARGB8888 output
		for i := 0; i < size; i++ {
			color := d.mem.Read32(d.origin + uint32(i<<2))
			r := uint8(color >> 24)
			g := uint8(color >> 16)
			b := uint8(color >> 8)
			fb.Pixels[i] = 0xFF000000 | uint32(b)<<16 | uint32(g)<<8 | uint32(r)
		}
	case 0x2: // 16-bit RGBA5551 source
		for i := 0; i < size; i++ {
			color := d.mem.Read16(d.origin + uint32(i<<1))
			r := uint8(uint32(color>>11&0x1F) * 255 / 31)
			g := uint8(uint32(color>>6&0x1F) * 255 / 31)
			b := uint8(uint32(color>>1&0x1F) * 255 / 31)
			fb.Pixels[i] = 0xFF000000 | uint32(b)<<16 | uint32(g)<<8 | uint32(r)
		}
	default:
		// blank output, Pixels is already zeroed
	}
	return fb
}
