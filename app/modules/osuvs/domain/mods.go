package osuvsdomain

import (
	"fmt"
	"strings"
)

// Mods is the legacy osu! modifier bitmask.
type Mods uint32

const (
	ModNoFail      Mods = 1 << 0
	ModEasy        Mods = 1 << 1
	ModTouchDevice Mods = 1 << 2
	ModHidden      Mods = 1 << 3
	ModHardRock    Mods = 1 << 4
	ModSuddenDeath Mods = 1 << 5
	ModDoubleTime  Mods = 1 << 6
	ModRelax       Mods = 1 << 7
	ModHalfTime    Mods = 1 << 8
	ModNightcore   Mods = 1 << 9
	ModFlashlight  Mods = 1 << 10
	ModAutoplay    Mods = 1 << 11
	ModSpunOut     Mods = 1 << 12
	ModAutopilot   Mods = 1 << 13
	ModPerfect     Mods = 1 << 14
	ModScoreV2     Mods = 1 << 29

	NoMod Mods = 0
)

// modOrder is the display order used by the osu! client.
var modOrder = []struct {
	mod     Mods
	acronym string
}{
	{ModNoFail, "NF"},
	{ModEasy, "EZ"},
	{ModTouchDevice, "TD"},
	{ModHidden, "HD"},
	{ModHardRock, "HR"},
	{ModSuddenDeath, "SD"},
	{ModPerfect, "PF"},
	{ModDoubleTime, "DT"},
	{ModNightcore, "NC"},
	{ModHalfTime, "HT"},
	{ModFlashlight, "FL"},
	{ModRelax, "RX"},
	{ModAutopilot, "AP"},
	{ModSpunOut, "SO"},
	{ModAutoplay, "AT"},
	{ModScoreV2, "V2"},
}

// Contains reports whether any bit of other is set in m.
func (m Mods) Contains(other Mods) bool {
	return m&other != 0
}

// String renders the acronyms, "NM" for no mods. NC implies DT and PF implies SD,
// so the implied acronym is omitted.
func (m Mods) String() string {
	if m == NoMod {
		return "NM"
	}
	var b strings.Builder
	for _, entry := range modOrder {
		if !m.Contains(entry.mod) {
			continue
		}
		if entry.mod == ModDoubleTime && m.Contains(ModNightcore) {
			continue
		}
		if entry.mod == ModSuddenDeath && m.Contains(ModPerfect) {
			continue
		}
		b.WriteString(entry.acronym)
	}
	return b.String()
}

// ClockRate is the playback speed multiplier the mods imply.
func (m Mods) ClockRate() float64 {
	switch {
	case m.Contains(ModDoubleTime | ModNightcore):
		return 1.5
	case m.Contains(ModHalfTime):
		return 0.75
	}
	return 1
}

// ParseMods decodes a list of acronyms ("HD", "DT", ...). "NM" and empty strings are ignored.
// NC adds DT and PF adds SD, matching the legacy bitmask.
func ParseMods(acronyms []string) (Mods, error) {
	var mods Mods
	for _, raw := range acronyms {
		acronym := strings.ToUpper(strings.TrimSpace(raw))
		if acronym == "" || acronym == "NM" {
			continue
		}
		found := false
		for _, entry := range modOrder {
			if entry.acronym == acronym {
				mods |= entry.mod
				found = true
				break
			}
		}
		if !found {
			return 0, fmt.Errorf("unknown mod acronym %q", raw)
		}
	}
	if mods.Contains(ModNightcore) {
		mods |= ModDoubleTime
	}
	if mods.Contains(ModPerfect) {
		mods |= ModSuddenDeath
	}
	return mods, nil
}

// ParseModString decodes a concatenated acronym string such as "HDDT".
func ParseModString(s string) (Mods, error) {
	s = strings.TrimSpace(s)
	if len(s)%2 != 0 {
		return 0, fmt.Errorf("invalid mod string %q", s)
	}
	acronyms := make([]string, 0, len(s)/2)
	for i := 0; i < len(s); i += 2 {
		acronyms = append(acronyms, s[i:i+2])
	}
	return ParseMods(acronyms)
}
