package emu

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/FabianRolfMatthiasNoll/gbcycle/internal/cart"
	"github.com/FabianRolfMatthiasNoll/gbcycle/internal/ppu"
)

const (
	DefaultPalette = "gray"
	// PaletteAuto picks a palette from the cartridge title.
	PaletteAuto = "auto"
)

var ErrUnknownPalette = errors.New("unknown palette")

// Palettes maps a name to the four RGB shades for DMG colour numbers 0-3.
var Palettes = map[string][4]ppu.Shade{
	"gray":   ppu.DefaultShades,
	"green":  {{R: 0x9B, G: 0xBC, B: 0x0F}, {R: 0x8B, G: 0xAC, B: 0x0F}, {R: 0x30, G: 0x62, B: 0x30}, {R: 0x0F, G: 0x38, B: 0x0F}},
	"pocket": {{R: 0xC4, G: 0xCF, B: 0xA1}, {R: 0x8B, G: 0x95, B: 0x6D}, {R: 0x4D, G: 0x53, B: 0x3C}, {R: 0x1F, G: 0x1F, B: 0x1F}},
	"sepia":  {{R: 0xFF, G: 0xE6, B: 0xC5}, {R: 0xCE, G: 0x9C, B: 0x85}, {R: 0x84, G: 0x52, B: 0x4A}, {R: 0x29, G: 0x18, B: 0x10}},
	"blue":   {{R: 0xFF, G: 0xFF, B: 0xFF}, {R: 0x63, G: 0xA5, B: 0xFF}, {R: 0x00, G: 0x00, B: 0xFF}, {R: 0x00, G: 0x00, B: 0x00}},
	"red":    {{R: 0xFF, G: 0xFF, B: 0xFF}, {R: 0xFF, G: 0x84, B: 0x84}, {R: 0x94, G: 0x3A, B: 0x3A}, {R: 0x00, G: 0x00, B: 0x00}},
	"pastel": {{R: 0xFF, G: 0xFF, B: 0xA5}, {R: 0xFF, G: 0x94, B: 0x94}, {R: 0x94, G: 0x94, B: 0xFF}, {R: 0x00, G: 0x00, B: 0x00}},
}

// PaletteNames lists the selectable palettes in a stable order.
func PaletteNames() []string {
	names := make([]string, 0, len(Palettes)+1)
	for n := range Palettes {
		names = append(names, n)
	}
	sort.Strings(names)
	return append(names, PaletteAuto)
}

// titlePalettes maps exact, normalized titles to a palette.
var titlePalettes = map[string]string{
	"TETRIS":              "blue",
	"SUPER MARIO LAND":    "red",
	"SUPER MARIO LAND 2":  "red",
	"DR. MARIO":           "pastel",
	"DONKEY KONG":         "sepia",
	"THE LEGEND OF ZELDA": "green",
	"ZELDA":               "green",
	"METROID II":          "red",
	"KIRBY'S DREAM LAND":  "pastel",
	"WARIO LAND":          "sepia",
	"POKEMON RED":         "pastel",
	"POKEMON BLUE":        "pastel",
}

type containsRule struct {
	substr  string
	palette string
}

// titleFamilies applies broader substring matches for game families.
var titleFamilies = []containsRule{
	{"TETRIS", "blue"},
	{"MARIO", "red"},
	{"ZELDA", "green"},
	{"KIRBY", "pastel"},
	{"DONKEY KONG", "sepia"},
	{"METROID", "red"},
	{"MEGA MAN", "blue"},
	{"MEGAMAN", "blue"},
	{"WARIO", "sepia"},
	{"POKEMON", "pastel"},
	{"POCKET MONSTERS", "pastel"},
}

// checksumRotation is indexed by header checksum for Nintendo titles
// without a title rule.
var checksumRotation = []string{"green", "sepia", "blue", "red", "pastel", "gray"}

// paletteForHeader picks a palette name from the title, falling back to a
// stable choice keyed by the header checksum for Nintendo-published games.
func paletteForHeader(h *cart.Header) string {
	if h == nil {
		return DefaultPalette
	}
	t := strings.ToUpper(strings.TrimSpace(h.Title))
	if p, ok := titlePalettes[t]; ok {
		return p
	}
	for _, r := range titleFamilies {
		if strings.Contains(t, r.substr) {
			return r.palette
		}
	}
	nintendo := h.OldLicensee == 0x01
	if h.OldLicensee == 0x33 {
		nintendo = strings.ToUpper(h.NewLicensee) == "01"
	}
	if nintendo {
		return checksumRotation[int(h.HeaderChecksum)%len(checksumRotation)]
	}
	return DefaultPalette
}

// resolvePalette turns a configured name into shades for the given header.
func resolvePalette(name string, h *cart.Header) (string, [4]ppu.Shade, error) {
	if name == PaletteAuto {
		name = paletteForHeader(h)
	}
	shades, ok := Palettes[name]
	if !ok {
		return "", ppu.DefaultShades, fmt.Errorf("%w: %q", ErrUnknownPalette, name)
	}
	return name, shades, nil
}
