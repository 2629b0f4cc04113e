// Package core implements the cycle scheduler: a single global cycle
// counter, a sorted task queue, and the fixed 2:3 CPU:RSP interleave that
// drives every other component through scheduled callbacks.
package core

import (
	"context"
	"math"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/nyxcore/n64core/internal/logging"
)

// rebaseInterval is the cycle count at which the scheduler rebases every
// counter back toward zero, keeping everything well inside uint32 range.
const rebaseInterval = 0x7FFFFFFF

const maxCycles = math.MaxUint32

// CPU is the minimal surface the scheduler needs to step the main processor.
type CPU interface {
	RunOpcode()
}

// RSP is the minimal surface the scheduler needs to step the coprocessor.
type RSP interface {
	RunOpcode()
}

// CycleObserver is notified when the scheduler rebases its counters, so that
// any cycle-relative state (CP0 Count/Compare) can subtract the same amount.
type CycleObserver interface {
	ResetCycles(rebasedBy uint32)
}

// SavePersister is polled periodically to flush a dirty save file to disk.
type SavePersister interface {
	FlushSave()
}

type task struct {
	run    func()
	cycles uint32
}

// Scheduler owns the global cycle counter, the sorted task queue, and the
// CPU/RSP run loop. All mutable state is guarded by mu; Schedule and
// GlobalCycles are safe to call from a task callback or from an opcode the
// run loop is stepping.
type Scheduler struct {
	mu sync.Mutex

	tasks        []task
	globalCycles uint32
	cpuCycles    uint32
	rspCycles    uint32
	cpuRunning   bool
	rspRunning   bool

	cpu CPU
	rsp RSP

	observers []CycleObserver
	persister SavePersister

	fps         int
	fpsCount    int
	lastFPSTime time.Time

	running bool
	cancel  context.CancelFunc
	g       *errgroup.Group

	log *zap.SugaredLogger
}

// New constructs a Scheduler bound to the given CPU and RSP steppers.
func New(cpu CPU, rsp RSP) *Scheduler {
	s := newPending()
	s.bindComponents(cpu, rsp)
	return s
}

// newPending constructs a Scheduler with no CPU/RSP bound yet. Console
// wiring needs the Scheduler's address before the CPU and RSP exist (both
// take it as their own Scheduler collaborator), so it calls this and fills
// in bindComponents once they're built.
func newPending() *Scheduler {
	return &Scheduler{
		cpuRunning: true,
		log:        logging.For("core"),
	}
}

// bindComponents supplies the CPU/RSP steppers once they've been built.
func (s *Scheduler) bindComponents(cpu CPU, rsp RSP) {
	s.cpu = cpu
	s.rsp = rsp
}

// AddCycleObserver registers a component to be rebased alongside the
// scheduler's own counters.
func (s *Scheduler) AddCycleObserver(o CycleObserver) {
	s.observers = append(s.observers, o)
}

// GlobalCycles reads the current cycle count, the basis CP0's Count register
// computes its live value from.
func (s *Scheduler) GlobalCycles() uint32 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.globalCycles
}

// SetSavePersister installs the periodic save-flush target.
func (s *Scheduler) SetSavePersister(p SavePersister) {
	s.persister = p
}

// Reset clears the task queue and cycle counters and arms the periodic
// rebase task, matching the state a cold ROM boot starts from.
func (s *Scheduler) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.tasks = s.tasks[:0]
	s.globalCycles = 0
	s.cpuCycles = 0
	s.rspCycles = 0
	s.cpuRunning = true
	s.rspRunning = false
	s.scheduleLocked(s.resetCycles, rebaseInterval)
}

// SetCPURunning toggles whether the run loop steps the CPU at all.
func (s *Scheduler) SetCPURunning(running bool) {
	s.mu.Lock()
	s.cpuRunning = running
	s.mu.Unlock()
}

// SetRSPRunning toggles whether the run loop steps the RSP, mirroring the
// SP_STATUS halt bit.
func (s *Scheduler) SetRSPRunning(running bool) {
	s.mu.Lock()
	s.rspRunning = running
	s.mu.Unlock()
}

// Schedule queues fn to run `cycles` cycles from now, sorted so the soonest
// task is always at the front; ties preserve call order (FIFO), matching the
// upper_bound insertion the scheduler's cycle-ordered queue relies on.
func (s *Scheduler) Schedule(fn func(), cycles uint32) {
	s.mu.Lock()
	s.scheduleLocked(fn, cycles)
	s.mu.Unlock()
}

func (s *Scheduler) scheduleLocked(fn func(), cycles uint32) {
	t := task{run: fn, cycles: s.globalCycles + cycles}
	idx := sort.Search(len(s.tasks), func(i int) bool { return s.tasks[i].cycles > t.cycles })
	s.tasks = append(s.tasks, task{})
	copy(s.tasks[idx+1:], s.tasks[idx:])
	s.tasks[idx] = t
}

// Start launches the run loop and the periodic save-flush loop.
func (s *Scheduler) Start() {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return
	}
	s.running = true
	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	g, gctx := errgroup.WithContext(ctx)
	s.g = g
	s.mu.Unlock()

	g.Go(func() error {
		s.runLoop(gctx)
		return nil
	})
	g.Go(func() error {
		s.saveLoop(gctx)
		return nil
	})
}

// Stop signals both loops to exit and waits for them to finish.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	cancel := s.cancel
	g := s.g
	s.mu.Unlock()

	cancel()
	_ = g.Wait()
}

func (s *Scheduler) runLoop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		s.mu.Lock()
		for len(s.tasks) > 0 && s.tasks[0].cycles > s.globalCycles {
			// Opcodes call back into Schedule/GlobalCycles, so step them
			// with mu released.
			if s.cpuRunning && s.globalCycles >= s.cpuCycles {
				s.mu.Unlock()
				s.cpu.RunOpcode()
				s.mu.Lock()
				s.cpuCycles = s.globalCycles + 2
			}
			if s.rspRunning && s.globalCycles >= s.rspCycles {
				s.mu.Unlock()
				s.rsp.RunOpcode()
				s.mu.Lock()
				s.rspCycles = s.globalCycles + 3
			}
			s.globalCycles = s.nextCyclesLocked()
		}

		if len(s.tasks) == 0 {
			s.mu.Unlock()
			continue
		}

		s.globalCycles = s.tasks[0].cycles
		for len(s.tasks) > 0 && s.tasks[0].cycles <= s.globalCycles {
			t := s.tasks[0]
			s.tasks = s.tasks[1:]
			s.mu.Unlock()
			t.run()
			s.mu.Lock()
		}
		s.mu.Unlock()
	}
}

func (s *Scheduler) nextCyclesLocked() uint32 {
	next := uint32(maxCycles)
	if s.cpuRunning && s.cpuCycles < next {
		next = s.cpuCycles
	}
	if s.rspRunning && s.rspCycles < next {
		next = s.rspCycles
	}
	return next
}

func (s *Scheduler) saveLoop(ctx context.Context) {
	ticker := time.NewTicker(3 * time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			s.flushSave()
			return
		case <-ticker.C:
			s.flushSave()
		}
	}
}

func (s *Scheduler) flushSave() {
	if s.persister != nil {
		s.persister.FlushSave()
	}
}

// resetCycles rebases every counter toward zero and reschedules itself,
// preventing the uint32 cycle counters from ever wrapping.
func (s *Scheduler) resetCycles() {
	s.mu.Lock()
	rebase := s.globalCycles
	observers := append([]CycleObserver(nil), s.observers...)

	for i := range s.tasks {
		s.tasks[i].cycles -= rebase
	}
	if s.cpuCycles < rebase {
		s.cpuCycles = 0
	} else {
		s.cpuCycles -= rebase
	}
	if s.rspCycles < rebase {
		s.rspCycles = 0
	} else {
		s.rspCycles -= rebase
	}
	s.globalCycles = 0
	s.scheduleLocked(s.resetCycles, rebaseInterval)
	s.mu.Unlock()

	for _, o := range observers {
		o.ResetCycles(rebase)
	}
}

// CountFrame advances the FPS counter once per displayed frame and updates
// the one-second-averaged FPS value.
func (s *Scheduler) CountFrame() {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	if s.lastFPSTime.IsZero() {
		s.lastFPSTime = now
	}
	if now.Sub(s.lastFPSTime) >= time.Second {
		s.fps = s.fpsCount
		s.fpsCount = 0
		s.lastFPSTime = now
	} else {
		s.fpsCount++
	}
}

// FPS returns the most recently completed one-second frame count.
func (s *Scheduler) FPS() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.fps
}
