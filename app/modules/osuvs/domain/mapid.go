package osuvsdomain

import (
	"regexp"
	"strconv"
	"strings"
)

// OsuBase is the public osu! website root.
const OsuBase = "https://osu.ppy.sh/"

var (
	mapURLNew = regexp.MustCompile(`https://osu\.ppy\.sh/beatmapsets/(\d+)(?:(?:#(?:osu|mania|taiko|fruits)|<#\d+>)/(\d+))?`)
	mapURLOld = regexp.MustCompile(`https://osu\.ppy\.sh/b(?:eatmaps)?/(\d+)`)
)

// ParseMapID extracts a difficulty id from a bare number or an osu! beatmap URL.
// Mapset URLs without a difficulty id are rejected.
func ParseMapID(input string) (MapID, bool) {
	input = strings.TrimSpace(input)
	if id, err := strconv.ParseUint(input, 10, 32); err == nil {
		return MapID(id), true
	}
	if !strings.Contains(input, OsuBase) {
		return 0, false
	}

	var raw string
	if m := mapURLOld.FindStringSubmatch(input); m != nil {
		raw = m[1]
	} else if m := mapURLNew.FindStringSubmatch(input); m != nil {
		raw = m[2]
	}
	if raw == "" {
		return 0, false
	}
	id, err := strconv.ParseUint(raw, 10, 32)
	if err != nil {
		return 0, false
	}
	return MapID(id), true
}
