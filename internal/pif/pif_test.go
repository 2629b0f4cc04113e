package pif

import "testing"

func TestVerifyChecksumSetsResultBit(t *testing.T) {
	d := New(nil)
	d.WriteByte(cmdByte, 1<<bitVerifyChecksum)
	if d.Memory[cmdByte]&checksumVerified == 0 {
		t.Fatal("expected checksum-verified bit set")
	}
	if d.Memory[cmdByte]&(1<<bitVerifyChecksum) != 0 {
		t.Fatal("command bit should be cleared after running")
	}
}

func TestClearMemoryZeroesRAM(t *testing.T) {
	d := New(nil)
	for i := ramBase; i < len(d.Memory)-1; i++ {
		d.Memory[i] = 0xAB
	}
	d.WriteByte(cmdByte, 1<<bitClearMemory)
	for i := ramBase; i < len(d.Memory); i++ {
		if d.Memory[i] != 0 {
			t.Fatalf("Memory[%d] = %#x, want 0 after clear", i, d.Memory[i])
		}
	}
}

func TestReadControllerPacksInputEdges(t *testing.T) {
	d := New(nil)
	d.SetInput(InputEdges{Buttons: 0x8421, StickX: -10, StickY: 20})
	d.WriteByte(cmdByte, 1<<0)

	if d.Memory[ramBase+0] != 0x84 || d.Memory[ramBase+1] != 0x21 {
		t.Fatalf("button bytes = %#x %#x, want 0x84 0x21", d.Memory[ramBase+0], d.Memory[ramBase+1])
	}
	if int8(d.Memory[ramBase+2]) != -10 {
		t.Fatalf("stick X = %d, want -10", int8(d.Memory[ramBase+2]))
	}
	if int8(d.Memory[ramBase+3]) != 20 {
		t.Fatalf("stick Y = %d, want 20", int8(d.Memory[ramBase+3]))
	}
}

func TestResetClearsRAM(t *testing.T) {
	d := New(nil)
	d.Memory[ramBase] = 0xFF
	d.Reset()
	if d.Memory[ramBase] != 0 {
		t.Fatal("Reset should clear PIF RAM")
	}
}

func TestNewLoadsBootROM(t *testing.T) {
	rom := make([]byte, ramBase)
	rom[0] = 0x42
	d := New(rom)
	if d.Memory[0] != 0x42 {
		t.Fatal("boot ROM bytes not loaded into PIF memory")
	}
}
