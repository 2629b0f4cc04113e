// Package ai implements the Audio Interface: a one-or-two outstanding DMA
// sample queue clocked off the scheduler, resampled to a fixed host output
// rate and exposed as an io.Reader so a host player can pull stereo int16
// frames directly off it.
package ai

import (
	"sync"
	"sync/atomic"

	"github.com/nyxcore/n64core/internal/logging"

	"go.uber.org/zap"
)

const (
	regDRAMAddr = 0x04500000
	regLength   = 0x04500004
	regControl  = 0x04500008
	regStatus   = 0x0450000C
	regDACRate  = 0x04500010

	statusBusy = 1 << 30
	statusFull = 1 << 31

	// outputRate is the fixed host sample rate every DMA block is resampled
	// to before reaching the ring buffer.
	outputRate = 48000
	// sampleCount is the block size scheduled once per createBuffer cycle.
	sampleCount = 1024

	cpuHz = 93750000 * 2
)

// Memory is the DMA source: RDRAM reads during sample resampling.
type Memory interface {
	Read32(addr uint32) uint32
}

// Scheduler lets AI arrange its own periodic and DMA-completion callbacks.
type Scheduler interface {
	Schedule(fn func(), cycles uint32)
}

// Interrupts is the sink notified when a queued DMA block finishes.
type Interrupts interface {
	SetInterrupt(bit int)
	ClearInterrupt(bit int)
}

const interruptBit = 2 // AI's MI interrupt line

type pendingSamples struct {
	address uint32
	count   uint32
}

// Device owns the AI registers, the DMA sample queue, and the stereo int16
// ring buffer a host audio backend pulls from via Read.
type Device struct {
	mu sync.Mutex

	mem   Memory
	sched Scheduler
	mi    Interrupts

	dramAddr  uint32
	control   uint32
	frequency uint32
	status    uint32

	samples [2]pendingSamples

	offset int

	queue     [][][2]int16
	lastOut   [][2]int16
	outReady  atomic.Bool
	outBuffer [][2]int16

	log *zap.SugaredLogger
}

// New constructs an AI device wired to memory, a scheduler, and the
// interrupt sink. Call Reset once the scheduler has been reset to arm the
// first periodic output-buffer tick.
func New(mem Memory, sched Scheduler, mi Interrupts) *Device {
	return &Device{
		mem:       mem,
		sched:     sched,
		mi:        mi,
		outBuffer: make([][2]int16, sampleCount),
		log:       logging.For("ai"),
	}
}

// Reset clears registers and arms the first createBuffer tick, scheduled at
// the cycle interval one 1024-sample block takes at the fixed output rate.
func (d *Device) Reset() {
	d.mu.Lock()
	d.dramAddr = 0
	d.control = 0
	d.frequency = 0
	d.status = 0
	d.queue = nil
	d.offset = 0
	d.mu.Unlock()

	d.scheduleCreateBuffer()
}

func (d *Device) scheduleCreateBuffer() {
	d.sched.Schedule(d.createBuffer, uint32(uint64(sampleCount)*cpuHz/outputRate))
}

// ReadIO implements the AI register read window.
func (d *Device) ReadIO(addr uint32) uint32 {
	d.mu.Lock()
	defer d.mu.Unlock()
	switch addr {
	case regStatus:
		return d.status
	default:
		d.log.Warnw("unknown AI register read", "addr", addr)
		return 0
	}
}

// WriteIO implements the AI register write window.
func (d *Device) WriteIO(addr uint32, value uint32) {
	d.mu.Lock()
	switch addr {
	case regDRAMAddr:
		d.dramAddr = value & 0xFFFFFF
		d.mu.Unlock()
		return

	case regLength:
		if d.control == 0 {
			d.mu.Unlock()
			return
		}
		count := (value &^ 7) / 4
		if d.status&statusBusy != 0 {
			d.status |= statusFull
			d.samples[1] = pendingSamples{address: d.dramAddr, count: count}
			d.mu.Unlock()
			return
		}
		d.status |= statusBusy
		d.samples[0] = pendingSamples{address: d.dramAddr, count: count}
		d.mu.Unlock()
		d.submitBuffer()
		return

	case regControl:
		d.control = value & 0x1
		d.mu.Unlock()
		return

	case regDACRate:
		div := value & 0x3FFF
		d.mu.Unlock()
		if div != 0 {
			d.setFrequency(48681812 / div)
		}
		return

	default:
		d.mu.Unlock()
		d.log.Warnw("unknown AI register write", "addr", addr, "value", value)
		return
	}
}

// ClearStatus acknowledges the AI interrupt, clearing status' completion
// report the way a write to AI_STATUS does.
func (d *Device) ClearStatus() {
	d.mi.ClearInterrupt(interruptBit)
}

func (d *Device) setFrequency(f uint32) {
	d.mu.Lock()
	d.frequency = f
	d.mu.Unlock()
}

// createBuffer drains queued resampled blocks into the fixed-size output
// buffer the host Read pulls, then reschedules itself.
func (d *Device) createBuffer() {
	d.mu.Lock()
	out := make([][2]int16, sampleCount)
	filled := 0
	for filled < sampleCount && len(d.queue) > 0 {
		block := d.queue[0]
		remaining := block[d.offset:]
		need := sampleCount - filled
		if len(remaining) <= need {
			copy(out[filled:], remaining)
			filled += len(remaining)
			d.offset = 0
			d.queue = d.queue[1:]
		} else {
			copy(out[filled:], remaining[:need])
			d.offset += need
			filled = sampleCount
		}
	}
	if filled < sampleCount && d.lastOut != nil {
		last := [2]int16{0, 0}
		if len(d.lastOut) > 0 {
			last = d.lastOut[len(d.lastOut)-1]
		}
		for i := filled; i < sampleCount; i++ {
			out[i] = last
		}
	}
	d.lastOut = out
	d.mu.Unlock()

	d.publish(out)
	d.scheduleCreateBuffer()
}

func (d *Device) publish(out [][2]int16) {
	d.mu.Lock()
	copy(d.outBuffer, out)
	d.mu.Unlock()
	d.outReady.Store(true)
}

// Read implements io.Reader, packing stereo int16 little-endian frames from
// the latest ready output buffer; called by a host audio backend's pull
// loop. A buffer that isn't ready yet repeats the previous one rather than
// blocking the audio callback.
func (d *Device) Read(p []byte) (int, error) {
	d.mu.Lock()
	buf := append([][2]int16(nil), d.outBuffer...)
	d.mu.Unlock()
	d.outReady.Store(false)

	n := 0
	for _, frame := range buf {
		if n+4 > len(p) {
			break
		}
		p[n+0] = byte(frame[0])
		p[n+1] = byte(frame[0] >> 8)
		p[n+2] = byte(frame[1])
		p[n+3] = byte(frame[1] >> 8)
		n += 4
	}
	return n, nil
}

// submitBuffer resamples the pending DMA block from its source frequency to
// the fixed output rate and queues it for output, then schedules the
// logical DMA completion.
func (d *Device) submitBuffer() {
	d.mu.Lock()
	src := d.samples[0]
	freq := d.frequency
	d.mu.Unlock()

	if freq == 0 || src.count == 0 {
		return
	}

	count := uint64(src.count) * outputRate / uint64(freq)
	if count > 0 {
		block := make([][2]int16, count)
		for i := uint64(0); i < count; i++ {
			addr := src.address + uint32(i*uint64(src.count)/count)*4
			value := d.mem.Read32(0xA0000000 + addr)
			l := int16(value >> 16)
			r := int16(value)
			block[i] = [2]int16{l, r}
		}
		d.mu.Lock()
		d.queue = append(d.queue, block)
		d.mu.Unlock()
	}

	d.sched.Schedule(d.processBuffer, uint32(uint64(src.count)*cpuHz/uint64(freq)))
}

func (d *Device) processBuffer() {
	d.mu.Lock()
	full := d.status&statusFull != 0
	if full {
		d.status &^= statusFull
		d.samples[0] = d.samples[1]
	} else {
		d.status &^= statusBusy
	}
	d.mu.Unlock()

	if full {
		d.submitBuffer()
		d.mi.SetInterrupt(interruptBit)
	}
}
