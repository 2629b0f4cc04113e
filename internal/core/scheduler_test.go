package core

import (
	"sync/atomic"
	"testing"
	"time"
)

type stepCounter struct{ n int32 }

func (s *stepCounter) RunOpcode() { atomic.AddInt32(&s.n, 1) }

func TestScheduleOrdersByCycleAscending(t *testing.T) {
	cpu, rsp := &stepCounter{}, &stepCounter{}
	s := New(cpu, rsp)

	var order []string
	s.Schedule(func() { order = append(order, "late") }, 100)
	s.Schedule(func() { order = append(order, "early") }, 10)
	s.Schedule(func() { order = append(order, "mid") }, 50)

	if len(s.tasks) != 3 {
		t.Fatalf("got %d tasks, want 3", len(s.tasks))
	}
	for len(s.tasks) > 0 {
		s.tasks[0].run()
		s.tasks = s.tasks[1:]
	}
	if len(order) != 3 || order[0] != "early" || order[1] != "mid" || order[2] != "late" {
		t.Fatalf("order = %v, want [early mid late]", order)
	}
}

func TestScheduleTiesPreserveFIFO(t *testing.T) {
	cpu, rsp := &stepCounter{}, &stepCounter{}
	s := New(cpu, rsp)
	s.Reset()

	var order []int
	for i := 0; i < 4; i++ {
		i := i
		s.Schedule(func() { order = append(order, i) }, 5)
	}
	for _, tk := range s.tasks {
		if tk.cycles == 5 {
			tk.run()
		}
	}
	if len(order) != 4 {
		t.Fatalf("got %d calls, want 4", len(order))
	}
	for i, v := range order {
		if v != i {
			t.Fatalf("order[%d] = %d, want %d (FIFO among ties)", i, v, i)
		}
	}
}

func TestResetCyclesRebasesTasksAndCounters(t *testing.T) {
	cpu, rsp := &stepCounter{}, &stepCounter{}
	s := New(cpu, rsp)
	s.Reset()

	s.globalCycles = 1000
	s.cpuCycles = 1002
	s.rspCycles = 999
	s.Schedule(func() {}, 50) // absolute cycles = 1050

	s.resetCycles()

	if s.globalCycles != 0 {
		t.Fatalf("globalCycles = %d, want 0", s.globalCycles)
	}
	if s.cpuCycles != 2 {
		t.Fatalf("cpuCycles = %d, want 2", s.cpuCycles)
	}
	if s.rspCycles != 0 {
		t.Fatalf("rspCycles = %d, want 0 (clamped)", s.rspCycles)
	}
	found := false
	for _, tk := range s.tasks {
		if tk.cycles == 50 {
			found = true
		}
	}
	if !found {
		t.Fatal("expected the pending task rebased to cycle 50")
	}
}

func TestStartStopRunsOpcodes(t *testing.T) {
	cpu, rsp := &stepCounter{}, &stepCounter{}
	s := New(cpu, rsp)
	s.Reset()
	s.SetRSPRunning(true)

	done := make(chan struct{})
	s.Schedule(func() { close(done) }, 1000)

	s.Start()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("scheduled task never ran")
	}
	s.Stop()

	if atomic.LoadInt32(&cpu.n) == 0 {
		t.Fatal("expected CPU to have stepped at least once")
	}
	if atomic.LoadInt32(&rsp.n) == 0 {
		t.Fatal("expected RSP to have stepped at least once")
	}
}

type fakePersister struct{ flushed int32 }

func (f *fakePersister) FlushSave() { atomic.AddInt32(&f.flushed, 1) }

func TestStopFlushesSaveOnExit(t *testing.T) {
	cpu, rsp := &stepCounter{}, &stepCounter{}
	s := New(cpu, rsp)
	s.Reset()
	p := &fakePersister{}
	s.SetSavePersister(p)

	s.Start()
	time.Sleep(20 * time.Millisecond)
	s.Stop()

	if atomic.LoadInt32(&p.flushed) == 0 {
		t.Fatal("expected at least one save flush on stop")
	}
}

func TestCountFrameAccumulates(t *testing.T) {
	cpu, rsp := &stepCounter{}, &stepCounter{}
	s := New(cpu, rsp)
	s.CountFrame()
	if s.FPS() != 0 {
		t.Fatalf("FPS before a full second = %d, want 0", s.FPS())
	}
}
