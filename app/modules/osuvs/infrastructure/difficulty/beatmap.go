package difficulty

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// ErrNoHitObjects is returned for beatmaps without playable objects.
var ErrNoHitObjects = errors.New("beatmap has no hit objects")

// ObjectKind is the type of a hit object.
type ObjectKind int

const (
	Circle ObjectKind = iota
	Slider
	Spinner
	Hold
)

const (
	typeCircle  = 1 << 0
	typeSlider  = 1 << 1
	typeSpinner = 1 << 3
	typeHold    = 1 << 7
)

// HitObject is one object of the [HitObjects] section.
type HitObject struct {
	X, Y    float64
	Time    float64
	EndTime float64
	Kind    ObjectKind
	Slides  int
	Length  float64
}

// Beatmap holds what the difficulty model needs from a .osu file.
type Beatmap struct {
	Mode             int
	Title            string
	Artist           string
	Version          string
	BeatmapID        uint32
	HP               float64
	CS               float64
	OD               float64
	AR               float64
	SliderMultiplier float64
	SliderTickRate   float64
	Objects          []HitObject
}

// Counts returns the number of circles, sliders and spinners.
func (b *Beatmap) Counts() (circles, sliders, spinners int) {
	for _, o := range b.Objects {
		switch o.Kind {
		case Circle:
			circles++
		case Slider:
			sliders++
		case Spinner:
			spinners++
		}
	}
	return circles, sliders, spinners
}

// MaxCombo counts one combo per circle and spinner and one per slider head and end.
func (b *Beatmap) MaxCombo() int {
	combo := 0
	for _, o := range b.Objects {
		if o.Kind == Slider {
			combo += 1 + max(o.Slides, 1)
			continue
		}
		combo++
	}
	return combo
}

// ParseFile parses the .osu file at path.
func ParseFile(path string) (*Beatmap, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open beatmap: %w", err)
	}
	defer f.Close()
	return ParseBeatmap(f)
}

// ParseBeatmap reads a .osu file. Missing ApproachRate falls back to OverallDifficulty.
func ParseBeatmap(r io.Reader) (*Beatmap, error) {
	bm := &Beatmap{
		HP: 5, CS: 5, OD: 5, AR: -1,
		SliderMultiplier: 1.4,
		SliderTickRate:   1,
	}

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	section := ""
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "//") {
			continue
		}
		if strings.HasPrefix(line, "[") && strings.HasSuffix(line, "]") {
			section = line[1 : len(line)-1]
			continue
		}

		switch section {
		case "General", "Metadata", "Difficulty":
			key, value, ok := strings.Cut(line, ":")
			if !ok {
				continue
			}
			if err := bm.setField(strings.TrimSpace(key), strings.TrimSpace(value)); err != nil {
				return nil, fmt.Errorf("line %d: %w", lineNo, err)
			}
		case "HitObjects":
			obj, err := parseHitObject(line)
			if err != nil {
				return nil, fmt.Errorf("line %d: %w", lineNo, err)
			}
			bm.Objects = append(bm.Objects, obj)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read beatmap: %w", err)
	}

	if bm.AR < 0 {
		bm.AR = bm.OD
	}
	if len(bm.Objects) == 0 {
		return nil, ErrNoHitObjects
	}
	return bm, nil
}

func (b *Beatmap) setField(key, value string) error {
	var target *float64
	switch key {
	case "Mode":
		mode, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid Mode %q", value)
		}
		b.Mode = mode
		return nil
	case "Title":
		b.Title = value
		return nil
	case "Artist":
		b.Artist = value
		return nil
	case "Version":
		b.Version = value
		return nil
	case "BeatmapID":
		id, err := strconv.ParseUint(value, 10, 32)
		if err == nil {
			b.BeatmapID = uint32(id)
		}
		return nil
	case "HPDrainRate":
		target = &b.HP
	case "CircleSize":
		target = &b.CS
	case "OverallDifficulty":
		target = &b.OD
	case "ApproachRate":
		target = &b.AR
	case "SliderMultiplier":
		target = &b.SliderMultiplier
	case "SliderTickRate":
		target = &b.SliderTickRate
	default:
		return nil
	}
	v, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return fmt.Errorf("invalid %s %q", key, value)
	}
	*target = v
	return nil
}

func parseHitObject(line string) (HitObject, error) {
	parts := strings.Split(line, ",")
	if len(parts) < 4 {
		return HitObject{}, fmt.Errorf("hit object has %d fields", len(parts))
	}
	x, errX := strconv.ParseFloat(parts[0], 64)
	y, errY := strconv.ParseFloat(parts[1], 64)
	t, errT := strconv.ParseFloat(parts[2], 64)
	kind, errK := strconv.Atoi(parts[3])
	if err := errors.Join(errX, errY, errT, errK); err != nil {
		return HitObject{}, fmt.Errorf("invalid hit object %q: %w", line, err)
	}

	obj := HitObject{X: x, Y: y, Time: t, EndTime: t}
	switch {
	case kind&typeSlider != 0:
		obj.Kind = Slider
		obj.Slides = 1
		if len(parts) > 6 {
			if slides, err := strconv.Atoi(parts[6]); err == nil && slides > 0 {
				obj.Slides = slides
			}
		}
		if len(parts) > 7 {
			if length, err := strconv.ParseFloat(parts[7], 64); err == nil {
				obj.Length = length
			}
		}
	case kind&typeSpinner != 0:
		obj.Kind = Spinner
		if len(parts) > 5 {
			if end, err := strconv.ParseFloat(parts[5], 64); err == nil {
				obj.EndTime = end
			}
		}
	case kind&typeHold != 0:
		obj.Kind = Hold
		if len(parts) > 5 {
			end, _, _ := strings.Cut(parts[5], ":")
			if v, err := strconv.ParseFloat(end, 64); err == nil {
				obj.EndTime = v
			}
		}
	default:
		obj.Kind = Circle
	}
	return obj, nil
}
