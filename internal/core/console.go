// Console wiring: this file assembles every component package into one
// running machine and gives it the lifecycle spec'd for a ROM boot — load,
// reset everything, stage the boot segment, and start the scheduler's
// threads. It is the one place in the tree that knows every component's
// concrete type; everywhere else sees the small locally-declared interfaces
// those components expose.
package core

import (
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/nyxcore/n64core/internal/ai"
	"github.com/nyxcore/n64core/internal/cartridge"
	"github.com/nyxcore/n64core/internal/cpu"
	"github.com/nyxcore/n64core/internal/logging"
	"github.com/nyxcore/n64core/internal/mi"
	"github.com/nyxcore/n64core/internal/mmu"
	"github.com/nyxcore/n64core/internal/pi"
	"github.com/nyxcore/n64core/internal/pif"
	"github.com/nyxcore/n64core/internal/rdp"
	"github.com/nyxcore/n64core/internal/rsp"
	"github.com/nyxcore/n64core/internal/si"
	"github.com/nyxcore/n64core/internal/vi"
)

// defaultRAMSize is 4MiB, the base console's complement; no expansion pak
// modeling is offered.
const defaultRAMSize = 0x400000

// bootSegmentOffset/bootSegmentLen are the cartridge ROM offset and length
// of the IPL3 boot segment: on real hardware the PIF boot ROM copies these
// bytes into RSP DMEM and jumps to 0xA4000040 once its own checksum/seed
// dance with the CIC finishes. This port's PIF never runs real IPL3 (see
// pif's verifyChecksum) and only stubs the checksum-verified bit, so
// Console does the copy-and-jump itself rather than interpreting it.
const (
	bootSegmentOffset = 0x40
	bootSegmentLen    = 0xFC0
	bootEntryPoint    = 0xA4000040
	bootStackPointer  = 0xA4001FF0
)

// rspMemoryWindow adapts *rsp.RSP's byte-granular ReadMem/WriteMem into the
// wider rdp.Memory shape the RDP's command-source select needs when DP_
// STATUS picks RSP DMEM over RDRAM, the same big-endian composition
// rdp_test.go's fakeMemory uses.
type rspMemoryWindow struct{ r *rsp.RSP }

func (w rspMemoryWindow) Read8(addr uint32) uint8         { return w.r.ReadMem(addr) }
func (w rspMemoryWindow) Write8(addr uint32, value uint8) { w.r.WriteMem(addr, value) }
func (w rspMemoryWindow) Read16(addr uint32) uint16 {
	return uint16(w.r.ReadMem(addr))<<8 | uint16(w.r.ReadMem(addr+1))
}
func (w rspMemoryWindow) Write16(addr uint32, value uint16) {
	w.r.WriteMem(addr, uint8(value>>8))
	w.r.WriteMem(addr+1, uint8(value))
}
func (w rspMemoryWindow) Read32(addr uint32) uint32 {
	return uint32(w.Read16(addr))<<16 | uint32(w.Read16(addr+2))
}
func (w rspMemoryWindow) Read64(addr uint32) uint64 {
	return uint64(w.Read32(addr))<<32 | uint64(w.Read32(addr+4))
}

// Console owns every emulated component and the scheduler that steps them.
// It is the single object cmd/n64 constructs and drives.
type Console struct {
	MI  *mi.MI
	SI  *si.Device
	PIF *pif.Device
	MMU *mmu.MMU
	CPU *cpu.CPU
	RSP *rsp.RSP
	RDP *rdp.Device
	VI  *vi.Device
	AI  *ai.Device
	PI  *pi.Device

	Scheduler *Scheduler

	cart     *cartridge.Cart
	savePath string

	log *zap.SugaredLogger
}

// NewConsole wires every component together and leaves the machine idle,
// with no ROM loaded; call BootROM to bring it up.
func NewConsole() *Console {
	miDev := mi.New()
	siDev := si.New(miDev)
	pifDev := pif.New(nil)

	sched := newPending()

	mmuDev := mmu.New(mmu.Config{
		RAMSize: defaultRAMSize,
		MI:      miDev,
		SI:      siDev,
		PIF:     pifDev,
	})

	cpuDev := cpu.New(cpu.Config{Mem: mmuDev, Sched: sched, MI: miDev})
	rspDev := rsp.New(rsp.Config{RDRAM: mmuDev, MI: miDev, Sched: sched})
	rdpDev := rdp.New(rdp.Config{RDRAM: mmuDev, RSPMem: rspMemoryWindow{r: rspDev}, MI: miDev})

	mmuDev.BindCPU(cpuDev)
	mmuDev.BindRSP(rspDev)
	mmuDev.BindRDP(rdpDev)

	sched.bindComponents(cpuDev, rspDev)
	sched.AddCycleObserver(cpuDev)
	miDev.SetSink(cpuDev)

	viDev := vi.New(mmuDev, sched, miDev, sched)
	aiDev := ai.New(mmuDev, sched, miDev)
	piDev := pi.New(mmuDev, nil, miDev)

	mmuDev.BindVI(viDev)
	mmuDev.BindAI(aiDev)
	mmuDev.BindPI(piDev)

	c := &Console{
		MI:        miDev,
		SI:        siDev,
		PIF:       pifDev,
		MMU:       mmuDev,
		CPU:       cpuDev,
		RSP:       rspDev,
		RDP:       rdpDev,
		VI:        viDev,
		AI:        aiDev,
		PI:        piDev,
		Scheduler: sched,
		log:       logging.For("core"),
	}
	sched.SetSavePersister(c)
	return c
}

// BootROM loads path's bytes, resolves its sibling .sav save file, resets
// every component, stages the cartridge's boot segment in place of IPL3,
// and starts the emulation and saver threads. It returns false (with a nil
// error) only when the ROM file can't be read, matching the "boot_rom
// returns false on inability to open the ROM" contract; any other failure
// is returned as a non-nil error instead, a strict superset of that
// contract.
func (c *Console) BootROM(path string) (bool, error) {
	romBytes, err := os.ReadFile(path)
	if err != nil {
		return false, nil
	}

	c.Scheduler.Stop()
	c.RDP.StopWorker()

	savePath := strings.TrimSuffix(path, filepath.Ext(path)) + ".sav"
	var saveBytes []byte
	if data, err := os.ReadFile(savePath); err == nil {
		saveBytes = data
	}

	backend := detectBackend(saveBytes)
	cart := cartridge.New(romBytes, backend, saveBytes)
	c.cart = cart
	c.savePath = savePath
	c.MMU.BindCart(cart)
	c.PI.BindCart(cart)

	c.MMU.Reset()
	c.AI.Reset()
	c.CPU.Reset()
	c.MI.Reset()
	c.PI.Reset()
	c.SI.Reset()
	c.VI.Reset()
	c.PIF.Reset()
	c.RDP.Reset()
	c.RSP.Reset()
	c.Scheduler.Reset()

	c.stageBootSegment()

	c.RDP.StartWorker()
	c.Scheduler.Start()
	return true, nil
}

// stageBootSegment copies the cartridge's IPL3 segment into RSP DMEM and
// points the CPU at it, the HLE equivalent of what the PIF boot ROM's final
// jump does on real hardware once its CIC handshake passes.
func (c *Console) stageBootSegment() {
	rom := c.cart.ROMBytes()
	n := bootSegmentLen
	if len(rom) < bootSegmentOffset {
		n = 0
	} else if remaining := len(rom) - bootSegmentOffset; remaining < n {
		n = remaining
	}
	for i := 0; i < n; i++ {
		c.RSP.WriteMem(uint32(bootSegmentOffset+i), rom[bootSegmentOffset+i])
	}
	c.CPU.SetEntryPoint(bootEntryPoint, bootStackPointer)
}

// detectBackend picks a cartridge save backend from an existing save file's
// size. Real hardware carries no save-type field in the ROM header at all —
// commercial tooling resolves it from a per-game database this port has no
// equivalent of — so a cartridge with no prior save on disk boots with no
// save backend (SaveSize()==0) until one is known.
func detectBackend(saveBytes []byte) cartridge.Backend {
	switch uint32(len(saveBytes)) {
	case cartridge.BackendEeprom512.Size():
		return cartridge.BackendEeprom512
	case cartridge.BackendEeprom2K.Size():
		return cartridge.BackendEeprom2K
	case cartridge.BackendSram32K.Size():
		return cartridge.BackendSram32K
	case cartridge.BackendFlash128K.Size():
		return cartridge.BackendFlash128K
	default:
		return cartridge.BackendNone
	}
}

// FlushSave implements SavePersister: it's polled every three seconds by the
// scheduler's save loop, and again from Shutdown. A write failure is logged
// and swallowed, matching "save flush silently skips if the file cannot be
// opened."
func (c *Console) FlushSave() {
	if c.cart == nil || !c.cart.Dirty() {
		return
	}
	if err := os.WriteFile(c.savePath, c.cart.Save(), 0o644); err != nil {
		c.log.Warnw("save flush failed", "path", c.savePath, "error", err)
		return
	}
	c.cart.ClearDirty()
}

// Shutdown stops the emulator and saver threads, joins the RDP worker, and
// flushes a dirty save one last time — the exact join order spec'd: emulator
// and saver together (Scheduler.Stop waits on both), then the RDP worker.
func (c *Console) Shutdown() {
	c.Scheduler.Stop()
	c.RDP.StopWorker()
	c.FlushSave()
}

