package cart

import (
	"encoding/binary"
	"errors"
	"testing"
)

// buildROM makes a synthetic ROM with a valid header and checksums.
func buildROM(title string, cartType, romSizeCode, ramSizeCode byte, size int) []byte {
	rom := make([]byte, size)
	copy(rom[0x0104:], nintendoLogo[:])
	copy(rom[0x0134:0x0144], title)
	rom[0x0144], rom[0x0145] = '0', '1'
	rom[0x0147] = cartType
	rom[0x0148] = romSizeCode
	rom[0x0149] = ramSizeCode
	rom[0x014B] = 0x33
	rom[0x014C] = 0x01

	var hsum byte
	for addr := 0x0134; addr <= 0x014C; addr++ {
		hsum = hsum - rom[addr] - 1
	}
	rom[0x014D] = hsum

	var gsum uint16
	for i, b := range rom {
		if i != 0x014E && i != 0x014F {
			gsum += uint16(b)
		}
	}
	binary.BigEndian.PutUint16(rom[0x014E:0x0150], gsum)
	return rom
}

func TestParseHeader_Basic(t *testing.T) {
	rom := buildROM("TEST", 0x03, 0x01, 0x02, 64*1024)

	h, err := ParseHeader(rom)
	if err != nil {
		t.Fatalf("ParseHeader error: %v", err)
	}
	if h.Title != "TEST" {
		t.Fatalf("Title got %q want %q", h.Title, "TEST")
	}
	if h.Kind != KindMBC1 || h.CartTypeStr != "MBC1+RAM+BATTERY" || !h.Battery {
		t.Fatalf("CartType got %v / %s battery=%v", h.Kind, h.CartTypeStr, h.Battery)
	}
	if h.ROMSizeBytes != 64*1024 || h.ROMBanks != 4 {
		t.Fatalf("ROM size decode got %d bytes / %d banks", h.ROMSizeBytes, h.ROMBanks)
	}
	if h.RAMSizeBytes != 8*1024 {
		t.Fatalf("RAM size decode got %d", h.RAMSizeBytes)
	}
	if !h.LogoOK {
		t.Fatalf("LogoOK = false, want true")
	}
	if !HeaderChecksumOK(rom) {
		t.Fatalf("HeaderChecksumOK = false, want true")
	}
}

func TestParseHeader_UnknownType(t *testing.T) {
	rom := buildROM("ODD", 0xFC, 0x00, 0x00, 32*1024)
	h, err := ParseHeader(rom)
	if err != nil {
		t.Fatalf("ParseHeader error: %v", err)
	}
	if h.Supported() {
		t.Fatalf("type 0xFC reported as supported")
	}
}

func TestDecodeSizes(t *testing.T) {
	if size, banks := decodeROMSize(0x05); size != 1024*1024 || banks != 64 {
		t.Fatalf("code 05 got %d/%d", size, banks)
	}
	if size, _ := decodeROMSize(0x7F); size != 0 {
		t.Fatalf("unknown code got %d want 0", size)
	}
	if got := decodeRAMSize(0x01); got != 2*1024 {
		t.Fatalf("RAM code 01 got %d", got)
	}
}

func TestHeaderChecksum_Bad(t *testing.T) {
	rom := buildROM("TEST", 0x00, 0x00, 0x00, 32*1024)
	rom[0x0134] ^= 0xFF
	if HeaderChecksumOK(rom) {
		t.Fatalf("HeaderChecksumOK = true, want false after corruption")
	}
}

func TestParseHeader_ShortROM(t *testing.T) {
	_, err := ParseHeader(make([]byte, 0x140))
	if !errors.Is(err, ErrShortROM) {
		t.Fatalf("got %v want ErrShortROM", err)
	}
}
