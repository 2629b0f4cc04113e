// Package rdp implements the Reality Display Processor: a command-FIFO
// driven software triangle/rectangle rasterizer with its own 4KB texture
// memory, color combiner, blender, and Z buffer. Unlike the CPU/RSP
// interpreters next door, the RDP has no instruction pointer of its own —
// it drains a queue of pre-assembled 64-bit command words pushed by the
// RSP's graphics microcode (or, in this port, by whatever pushes through
// WriteEnd), optionally on a dedicated worker goroutine.
package rdp

import (
	"sync"

	"go.uber.org/zap"

	"github.com/nyxcore/n64core/internal/logging"
)

const (
	regStart   = 0x04100000
	regEnd     = 0x04100004
	regCurrent = 0x04100008
	regStatus  = 0x0410000C

	interruptBit = 5

	tmemSize = 0x1000 // 4KB, split into a 2KB low bank and a 2KB TLUT high bank
)

// Memory is the bus surface the FIFO parser and the rasterizer's pixel
// read/writes and command-word fetches go through. RDRAM and RSP DMEM are
// structurally identical from the RDP's point of view; DP_STATUS bit 0
// picks which one WriteEnd drains commands from.
type Memory interface {
	Read8(addr uint32) uint8
	Write8(addr uint32, value uint8)
	Read16(addr uint32) uint16
	Write16(addr uint32, value uint16)
	Read32(addr uint32) uint32
	Read64(addr uint32) uint64
}

// Interrupts is the sink Sync Full raises DP_INTR (bit 5) through.
type Interrupts interface {
	SetInterrupt(bit int)
	ClearInterrupt(bit int)
}

// Config bundles the RDP's collaborators, supplied by internal/core.
type Config struct {
	RDRAM  Memory
	RSPMem Memory
	MI     Interrupts
}

// colorImage/texImage describe the framebuffer/texture source registers
// that SetColorImage/SetTextureImage program.
type image struct {
	addr   uint32
	width  uint32
	format uint8
	size   uint8 // bytes per texel exponent: 0=4bit,1=8bit,2=16bit,3=32bit
}

// Tile is one of the 8 TMEM descriptors SetTile/SetTileSize program.
type Tile struct {
	S1, S2   uint16 // 10.2 fixed-point S bounds
	SMask    uint8
	SMirror  bool
	SClamp   bool
	T1, T2   uint16
	TMask    uint8
	TMirror  bool
	TClamp   bool
	Address  uint16 // TMEM offset in 8-byte words
	Width    uint16 // row stride in TMEM, 8-byte words
	Palette  uint8
	Format   uint8
	Size     uint8
}

// Device owns the command FIFO, TMEM, tile descriptors, color/blend/combine
// state, and the framebuffer/Z-buffer this state targets. The mutex guards
// the FIFO and register/tile state the way spec'd for the optional worker
// goroutine; bulk rasterization runs outside the lock once a command's
// parameters have been copied out.
type Device struct {
	mu sync.Mutex

	rdram  Memory
	rspMem Memory
	mi     Interrupts
	log    *zap.SugaredLogger

	tmem [tmemSize]byte
	tile [8]Tile

	startAddr uint32
	endAddr   uint32
	current   uint32
	status    uint32

	pending []uint64 // words accumulated for the in-flight command

	colorImage image
	zImageAddr uint32
	texImage   image

	scissorX1, scissorY1 int32
	scissorX2, scissorY2 int32

	cycleType uint8
	texFilter bool

	combine [2]combineMode // per-cycle RGB+alpha selectors

	blendA, blendB, blendC, blendD [2]uint8

	zMode      uint8
	zCompare   bool
	zUpdate    bool
	alphaCmp   bool
	alphaMult  bool

	fillColor  uint32
	blendColor [4]uint8
	fogColor   [4]uint8
	primColor  [4]uint8
	envColor   [4]uint8
	shadeColor [4]uint8
	primDepth  uint16

	threaded bool
	running  bool
	wake     chan struct{}
	done     chan struct{}
}

// combineMode holds one cycle's four RGB selectors and four alpha selectors.
type combineMode struct {
	rgbA, rgbB, rgbC, rgbD     uint8
	alphaA, alphaB, alphaC, alphaD uint8
}

// New constructs an RDP wired to the given collaborators and resets it.
func New(cfg Config) *Device {
	d := &Device{
		rdram:  cfg.RDRAM,
		rspMem: cfg.RSPMem,
		mi:     cfg.MI,
		log:    logging.For("rdp"),
	}
	d.Reset()
	return d
}

// Reset clears the FIFO, TMEM, and every piece of pipeline state.
func (d *Device) Reset() {
	d.mu.Lock()
	defer d.mu.Unlock()

	for i := range d.tmem {
		d.tmem[i] = 0
	}
	d.tile = [8]Tile{}
	d.startAddr, d.endAddr, d.current, d.status = 0, 0, 0, 0
	d.pending = d.pending[:0]
	d.colorImage = image{}
	d.zImageAddr = 0
	d.texImage = image{}
	d.scissorX1, d.scissorY1, d.scissorX2, d.scissorY2 = 0, 0, 0, 0
	d.cycleType = cycleFill
	d.texFilter = false
	d.combine = [2]combineMode{}
	d.blendA, d.blendB, d.blendC, d.blendD = [2]uint8{}, [2]uint8{}, [2]uint8{}, [2]uint8{}
	d.zMode = 0
	d.zCompare, d.zUpdate, d.alphaCmp, d.alphaMult = false, false, false, false
	d.fillColor = 0
	d.blendColor, d.fogColor, d.primColor, d.envColor, d.shadeColor = [4]uint8{}, [4]uint8{}, [4]uint8{}, [4]uint8{}, [4]uint8{}
	d.primDepth = 0
}

// StartWorker launches the optional dedicated drain goroutine; WriteEnd
// pushes new work onto it instead of draining inline.
func (d *Device) StartWorker() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.threaded {
		return
	}
	d.threaded = true
	d.running = true
	d.wake = make(chan struct{}, 1)
	d.done = make(chan struct{})
	go d.workerLoop()
}

// StopWorker signals the worker to exit and waits for it to drain.
func (d *Device) StopWorker() {
	d.mu.Lock()
	if !d.threaded {
		d.mu.Unlock()
		return
	}
	d.running = false
	d.mu.Unlock()

	select {
	case d.wake <- struct{}{}:
	default:
	}
	<-d.done
}

func (d *Device) workerLoop() {
	defer close(d.done)
	for {
		d.mu.Lock()
		running := d.running
		d.mu.Unlock()
		d.drain()
		if !running {
			return
		}
		<-d.wake
	}
}

// ReadIO serves the DP_START..DP_STATUS register window.
func (d *Device) ReadIO(addr uint32) uint32 {
	d.mu.Lock()
	defer d.mu.Unlock()
	switch addr {
	case regStart:
		return d.startAddr
	case regEnd:
		return d.endAddr
	case regCurrent:
		return d.current
	case regStatus:
		return d.status
	default:
		d.log.Debugw("read from unimplemented RDP register", "addr", addr)
		return 0
	}
}

// WriteIO serves the same window: DP_END arms (and, unthreaded, immediately
// drains) a new span of command words.
func (d *Device) WriteIO(addr uint32, value uint32) {
	switch addr {
	case regStart:
		d.mu.Lock()
		d.startAddr = value &^ 0x7
		d.current = d.startAddr
		d.mu.Unlock()
	case regEnd:
		d.mu.Lock()
		d.endAddr = value &^ 0x7
		d.mu.Unlock()
		d.kick()
	case regStatus:
		d.mu.Lock()
		d.status = value
		d.mu.Unlock()
	default:
		d.log.Debugw("write to unimplemented RDP register", "addr", addr, "value", value)
	}
}

// ReadReg/WriteReg serve the same DP_START..DP_STATUS window indexed the way
// mmu.RDPWindow addresses it (index = (paddr&0x1F)>>2), so the RDP can sit
// behind the MMU's dispatch table alongside the RSP's CP0/PC window.
func (d *Device) ReadReg(index uint32) uint32 {
	return d.ReadIO(regStart + index*4)
}

func (d *Device) WriteReg(index uint32, value uint32) {
	d.WriteIO(regStart+index*4, value)
}

// kick wakes the worker if threaded, or drains inline otherwise.
func (d *Device) kick() {
	d.mu.Lock()
	threaded := d.threaded
	d.mu.Unlock()
	if threaded {
		select {
		case d.wake <- struct{}{}:
		default:
		}
		return
	}
	d.drain()
}

// source picks RDRAM or RSP DMEM for command-word fetches per DP_STATUS
// bit 0, exactly as the hardware's command-source select does.
func (d *Device) source() Memory {
	if d.status&0x1 != 0 {
		return d.rspMem
	}
	return d.rdram
}

// drain walks start..end in 64-bit words, assembling and dispatching
// complete commands in FIFO order. Sync Full forces the drain to complete
// before the DP interrupt fires, matching the threaded/unthreaded
// byte-identical-output requirement.
func (d *Device) drain() {
	d.mu.Lock()
	src := d.source()
	addr := d.current
	end := d.endAddr
	d.mu.Unlock()

	for addr < end {
		word := src.Read64(addr)
		addr += 8

		d.mu.Lock()
		d.pending = append(d.pending, word)
		op := uint8(d.pending[0] >> 56 & 0x3F)
		need := paramCounts[op]
		have := len(d.pending)
		d.mu.Unlock()

		if uint8(have) < need {
			continue
		}

		d.mu.Lock()
		cmd := append([]uint64(nil), d.pending...)
		d.pending = d.pending[:0]
		d.current = addr
		d.mu.Unlock()

		d.execute(op, cmd)
	}

	d.mu.Lock()
	d.current = addr
	d.mu.Unlock()
}

// execute dispatches one fully-assembled command to its handler.
func (d *Device) execute(op uint8, words []uint64) {
	if handler := commandTable[op]; handler != nil {
		handler(d, words)
		return
	}
	d.log.Debugw("unknown RDP command", "opcode", op)
}

// syncFull raises DP_INTR once the FIFO up to this point has fully drained.
func (d *Device) syncFull([]uint64) {
	d.mi.SetInterrupt(interruptBit)
}
