package cart

import (
	"encoding/binary"
	"errors"
	"fmt"
	"strings"
)

const headerEnd = 0x014F

// ErrShortROM is returned when the image cannot hold a full header.
var ErrShortROM = errors.New("ROM too small to contain header")

var nintendoLogo = [48]byte{
	0xCE, 0xED, 0x66, 0x66, 0xCC, 0x0D, 0x00, 0x0B, 0x03, 0x73, 0x00, 0x83, 0x00, 0x0C, 0x00, 0x0D,
	0x00, 0x08, 0x11, 0x1F, 0x88, 0x89, 0x00, 0x0E, 0xDC, 0xCC, 0x6E, 0xE6, 0xDD, 0xDD, 0xD9, 0x99,
	0xBB, 0xBB, 0x67, 0x63, 0x6E, 0x0E, 0xEC, 0xCC, 0xDD, 0xDC, 0x99, 0x9F, 0xBB, 0xB9, 0x33, 0x3E,
}

// Kind is the memory bank controller family named by the cartridge type byte.
type Kind int

const (
	KindROMOnly Kind = iota
	KindMBC1
	KindMBC2
	KindMBC3
	KindMBC5
	KindUnknown
)

func (k Kind) String() string {
	switch k {
	case KindROMOnly:
		return "ROM ONLY"
	case KindMBC1:
		return "MBC1"
	case KindMBC2:
		return "MBC2"
	case KindMBC3:
		return "MBC3"
	case KindMBC5:
		return "MBC5"
	}
	return "unknown"
}

type cartType struct {
	name    string
	kind    Kind
	ram     bool
	battery bool
	rtc     bool
}

var cartTypes = map[byte]cartType{
	0x00: {"ROM ONLY", KindROMOnly, false, false, false},
	0x01: {"MBC1", KindMBC1, false, false, false},
	0x02: {"MBC1+RAM", KindMBC1, true, false, false},
	0x03: {"MBC1+RAM+BATTERY", KindMBC1, true, true, false},
	0x05: {"MBC2", KindMBC2, true, false, false},
	0x06: {"MBC2+BATTERY", KindMBC2, true, true, false},
	0x08: {"ROM+RAM", KindROMOnly, true, false, false},
	0x09: {"ROM+RAM+BATTERY", KindROMOnly, true, true, false},
	0x0F: {"MBC3+TIMER+BATTERY", KindMBC3, false, true, true},
	0x10: {"MBC3+TIMER+RAM+BATTERY", KindMBC3, true, true, true},
	0x11: {"MBC3", KindMBC3, false, false, false},
	0x12: {"MBC3+RAM", KindMBC3, true, false, false},
	0x13: {"MBC3+RAM+BATTERY", KindMBC3, true, true, false},
	0x19: {"MBC5", KindMBC5, false, false, false},
	0x1A: {"MBC5+RAM", KindMBC5, true, false, false},
	0x1B: {"MBC5+RAM+BATTERY", KindMBC5, true, true, false},
	0x1C: {"MBC5+RUMBLE", KindMBC5, false, false, false},
	0x1D: {"MBC5+RUMBLE+RAM", KindMBC5, true, false, false},
	0x1E: {"MBC5+RUMBLE+RAM+BATTERY", KindMBC5, true, true, false},
}

// Header is the decoded cartridge header at 0x0100-0x014F.
type Header struct {
	Title          string // trimmed ASCII
	CGBFlag        byte   // 0x0143
	NewLicensee    string // 0x0144-0x0145
	SGBFlag        byte   // 0x0146
	CartType       byte   // 0x0147
	ROMSizeCode    byte   // 0x0148
	RAMSizeCode    byte   // 0x0149
	Destination    byte   // 0x014A
	OldLicensee    byte   // 0x014B
	ROMVersion     byte   // 0x014C
	HeaderChecksum byte   // 0x014D
	GlobalChecksum uint16 // 0x014E-0x014F

	ROMSizeBytes int
	ROMBanks     int
	RAMSizeBytes int
	CartTypeStr  string
	Kind         Kind
	HasRAM       bool // type byte names external RAM
	Battery      bool
	RTC          bool
	LogoOK       bool
}

func ParseHeader(rom []byte) (*Header, error) {
	if len(rom) < headerEnd+1 {
		return nil, fmt.Errorf("%w: %d bytes", ErrShortROM, len(rom))
	}

	h := &Header{
		Title:          strings.TrimRight(string(rom[0x0134:0x0144]), "\x00"),
		CGBFlag:        rom[0x0143],
		NewLicensee:    string(rom[0x0144:0x0146]),
		SGBFlag:        rom[0x0146],
		CartType:       rom[0x0147],
		ROMSizeCode:    rom[0x0148],
		RAMSizeCode:    rom[0x0149],
		Destination:    rom[0x014A],
		OldLicensee:    rom[0x014B],
		ROMVersion:     rom[0x014C],
		HeaderChecksum: rom[0x014D],
		GlobalChecksum: binary.BigEndian.Uint16(rom[0x014E:0x0150]),
		LogoOK:         [48]byte(rom[0x0104:0x0134]) == nintendoLogo,
	}
	// CGB-era titles end at 0x013E followed by a manufacturer code.
	if h.CGBFlag&0x80 != 0 {
		h.Title = strings.TrimRight(string(rom[0x0134:0x013F]), "\x00")
	}

	h.ROMSizeBytes, h.ROMBanks = decodeROMSize(h.ROMSizeCode)
	h.RAMSizeBytes = decodeRAMSize(h.RAMSizeCode)
	if ct, ok := cartTypes[h.CartType]; ok {
		h.CartTypeStr, h.Kind, h.HasRAM, h.Battery, h.RTC = ct.name, ct.kind, ct.ram, ct.battery, ct.rtc
	} else {
		h.CartTypeStr = fmt.Sprintf("unknown (%#02x)", h.CartType)
		h.Kind = KindUnknown
	}
	return h, nil
}

// Supported reports whether the cartridge type maps to an implemented MBC.
// Unknown types still load as ROM-only.
func (h *Header) Supported() bool { return h.Kind != KindUnknown }

func HeaderChecksumOK(rom []byte) bool {
	if len(rom) < 0x014E {
		return false
	}
	var sum byte
	for _, b := range rom[0x0134:0x014D] {
		sum = sum - b - 1
	}
	return sum == rom[0x014D]
}

// decodeROMSize returns 32 KiB << code for the standard codes and the three
// odd sizes listed by some documentation. Unknown codes decode to zero.
func decodeROMSize(code byte) (size, banks int) {
	switch {
	case code <= 0x08:
		size = (32 * 1024) << code
	case code == 0x52:
		size = 1152 * 1024
	case code == 0x53:
		size = 1280 * 1024
	case code == 0x54:
		size = 1536 * 1024
	default:
		return 0, 0
	}
	return size, size / romBankSize
}

func decodeRAMSize(code byte) int {
	switch code {
	case 0x01:
		return 2 * 1024
	case 0x02:
		return 8 * 1024
	case 0x03:
		return 32 * 1024
	case 0x04:
		return 128 * 1024
	case 0x05:
		return 64 * 1024
	}
	return 0
}
