package cart

import (
	"bytes"
	"testing"
)

func TestNew_MBC1NoRAMBankSwitch(t *testing.T) {
	rom := buildROM("E2E", 0x01, 0x02, 0x00, 128*1024)
	for bank := 1; bank < 8; bank++ {
		rom[bank*romBankSize] = byte(0xB0 + bank)
	}
	c, err := New(rom)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if _, ok := c.MBC().(*MBC1); !ok {
		t.Fatalf("MBC got %T want *MBC1", c.MBC())
	}
	if c.RAMSize() != 0 {
		t.Fatalf("RAM size got %d want 0", c.RAMSize())
	}
	c.Write(0x2000, 0x05)
	if got, want := c.Read(0x4000), rom[5*0x4000]; got != want {
		t.Fatalf("bank 5 read got %02X want %02X", got, want)
	}
	if got := c.Read(0xA000); got != 0xFF {
		t.Fatalf("absent RAM read got %02X want FF", got)
	}
}

func TestNew_TypeWithoutRAMIgnoresSizeCode(t *testing.T) {
	for _, typ := range []byte{0x01, 0x0F, 0x11, 0x19, 0x1C} {
		c, err := New(buildROM("NORAM", typ, 0x02, 0x02, 128*1024))
		if err != nil {
			t.Fatalf("type %02X: New: %v", typ, err)
		}
		if c.RAMSize() != 0 {
			t.Fatalf("type %02X: RAM size got %d want 0", typ, c.RAMSize())
		}
		c.Write(0x0000, 0x0A)
		c.Write(0xA000, 0x42)
		if got := c.Read(0xA000); got != 0xFF {
			t.Fatalf("type %02X: RAM read got %02X want FF", typ, got)
		}
	}
}

func TestNew_PadsUndersizedImage(t *testing.T) {
	rom := buildROM("SHORT", 0x01, 0x02, 0x00, 32*1024)
	c, err := New(rom)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	c.Write(0x2000, 0x07)
	if got := c.Read(0x4000); got != 0xFF {
		t.Fatalf("padded bank read got %02X want FF", got)
	}
}

func TestNew_MBC2HasBuiltinRAM(t *testing.T) {
	c, err := New(buildROM("MBC2", 0x06, 0x01, 0x00, 64*1024))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if c.RAMSize() != 512 || !c.HasBattery() {
		t.Fatalf("MBC2 RAM size %d battery %v", c.RAMSize(), c.HasBattery())
	}
}

func TestCartridge_DirtyTracking(t *testing.T) {
	c, err := New(buildROM("SAVE", 0x03, 0x01, 0x02, 64*1024))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if c.Dirty() {
		t.Fatalf("fresh cartridge is dirty")
	}
	c.Write(0x0000, 0x0A)
	c.Write(0xA123, 0x42)
	if !c.ConsumeDirty() {
		t.Fatalf("write did not mark RAM dirty")
	}
	if c.ConsumeDirty() {
		t.Fatalf("ConsumeDirty did not clear the flag")
	}

	dump := c.RAM()
	if len(dump) != 8*1024 || dump[0x123] != 0x42 {
		t.Fatalf("RAM dump len %d byte %02X", len(dump), dump[0x123])
	}
	other, _ := New(buildROM("SAVE", 0x03, 0x01, 0x02, 64*1024))
	other.SetRAM(dump)
	if !bytes.Equal(other.RAM(), dump) || other.Dirty() {
		t.Fatalf("SetRAM did not restore the dump cleanly")
	}
}

func TestCartridge_ResetRestoresBanks(t *testing.T) {
	rom := buildROM("RST", 0x01, 0x02, 0x00, 128*1024)
	rom[3*romBankSize] = 0x33
	rom[1*romBankSize] = 0x11
	c, _ := New(rom)
	c.Write(0x2000, 0x03)
	if got := c.Read(0x4000); got != 0x33 {
		t.Fatalf("bank 3 got %02X", got)
	}
	c.Reset()
	if got := c.Read(0x4000); got != 0x11 {
		t.Fatalf("after reset got %02X want 11", got)
	}
}
