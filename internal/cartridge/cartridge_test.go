package cartridge

import "testing"

func TestBackendSize(t *testing.T) {
	cases := map[Backend]uint32{
		BackendNone:      0,
		BackendEeprom512: 512,
		BackendEeprom2K:  2048,
		BackendSram32K:   32 * 1024,
		BackendFlash128K: 128 * 1024,
	}
	for backend, want := range cases {
		if got := backend.Size(); got != want {
			t.Errorf("Backend(%d).Size() = %d, want %d", backend, got, want)
		}
	}
}

func TestNewDefaultsSaveToAllFF(t *testing.T) {
	c := New(nil, BackendSram32K, nil)
	if len(c.Save()) != int(BackendSram32K.Size()) {
		t.Fatalf("save size = %d, want %d", len(c.Save()), BackendSram32K.Size())
	}
	for i, b := range c.Save() {
		if b != 0xFF {
			t.Fatalf("save[%d] = %#x, want 0xFF", i, b)
		}
	}
}

func TestResizeSavePreservesPrefixAndPadsFF(t *testing.T) {
	c := New(nil, BackendEeprom512, make([]byte, 512))
	c.WriteSRAM(0, 0x42)
	c.ResizeSave(2048)
	if len(c.Save()) != 2048 {
		t.Fatalf("len = %d, want 2048", len(c.Save()))
	}
	if c.Save()[0] != 0x42 {
		t.Fatalf("prefix byte lost after resize")
	}
	if c.Save()[1000] != 0xFF {
		t.Fatalf("tail not padded with 0xFF")
	}
}

func TestFlashWriteThenExecute(t *testing.T) {
	c := New(nil, BackendFlash128K, nil)
	c.WriteFlashCommand(0xA5 << 24) // set write offset 0
	c.WriteFlashCommand(0xB4 << 24) // enter write state
	for i := 0; i < 0x80; i++ {
		c.WriteSave(uint32(i), byte(i))
	}
	c.WriteFlashCommand(0xD2 << 24) // execute
	for i := 0; i < 0x80; i++ {
		if c.Save()[i] != byte(i) {
			t.Fatalf("save[%d] = %#x, want %#x", i, c.Save()[i], byte(i))
		}
	}
}

func TestFlashEraseSetsFF(t *testing.T) {
	c := New(nil, BackendFlash128K, make([]byte, BackendFlash128K.Size()))
	c.WriteFlashCommand(0x4B << 24) // set erase offset 0
	c.WriteFlashCommand(0x78 << 24) // enter erase state
	c.WriteFlashCommand(0xD2 << 24) // execute
	for i := 0; i < 0x80; i++ {
		if c.Save()[i] != 0xFF {
			t.Fatalf("save[%d] = %#x, want 0xFF after erase", i, c.Save()[i])
		}
	}
}

func TestFlashReadingGate(t *testing.T) {
	c := New(nil, BackendFlash128K, nil)
	if c.FlashReading() {
		t.Fatal("should not be in read state initially")
	}
	c.WriteFlashCommand(0xF0 << 24)
	if !c.FlashReading() {
		t.Fatal("expected read state after 0xF0 command")
	}
}

func TestROMTruncatedToMax(t *testing.T) {
	big := make([]byte, maxROMSize+1024)
	c := New(big, BackendNone, nil)
	if len(c.ROMBytes()) != maxROMSize {
		t.Fatalf("ROM len = %d, want %d", len(c.ROMBytes()), maxROMSize)
	}
}

func TestWriteSRAMMarksDirty(t *testing.T) {
	c := New(nil, BackendSram32K, nil)
	if c.Dirty() {
		t.Fatal("should not start dirty")
	}
	c.WriteSRAM(0, 0x99)
	if !c.Dirty() {
		t.Fatal("expected dirty after WriteSRAM")
	}
	if c.ReadSave(0) != 0x99 {
		t.Fatalf("ReadSave(0) = %#x, want 0x99", c.ReadSave(0))
	}
	c.ClearDirty()
	if c.Dirty() {
		t.Fatal("expected not dirty after ClearDirty")
	}
}

func TestFlashExecuteMarksDirty(t *testing.T) {
	c := New(nil, BackendFlash128K, nil)
	c.WriteFlashCommand(0x78 << 24) // erase state
	c.WriteFlashCommand(0xD2 << 24) // execute
	if !c.Dirty() {
		t.Fatal("expected dirty after FLASH erase execute")
	}
}
