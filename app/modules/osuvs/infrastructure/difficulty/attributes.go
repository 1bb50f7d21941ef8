package difficulty

import (
	"math"
	"sort"

	osuvsdomain "github.com/5joshi/OsuBelgiumBot/app/modules/osuvs/domain"
)

const (
	strainSection   = 400.0
	strainDecay     = 0.9
	minDeltaTime    = 37.5
	skillMultiplier = 0.2
)

// Attributes are the mod-adjusted difficulty values of one map.
type Attributes struct {
	MapID        osuvsdomain.MapID
	Mods         osuvsdomain.Mods
	ClockRate    float64
	AR           float64
	OD           float64
	CS           float64
	HP           float64
	Circles      int
	Sliders      int
	Spinners     int
	MaxCombo     int
	DrainSeconds float64
	AimRating    float64
	SpeedRating  float64
	Stars        float64
	MaxPP        float64
}

// Compute derives attributes for bm played with mods.
func Compute(mapID osuvsdomain.MapID, bm *Beatmap, mods osuvsdomain.Mods) Attributes {
	clock := mods.ClockRate()
	ar, od, cs, hp := adjustStats(bm, mods, clock)
	circles, sliders, spinners := bm.Counts()

	first, last := bm.Objects[0].Time, bm.Objects[0].EndTime
	for _, o := range bm.Objects {
		first = math.Min(first, o.Time)
		last = math.Max(last, o.EndTime)
	}

	aim, speed := strainRatings(bm.Objects, cs, clock)
	stars := aim + speed + math.Abs(aim-speed)/2

	attrs := Attributes{
		MapID:        mapID,
		Mods:         mods,
		ClockRate:    clock,
		AR:           ar,
		OD:           od,
		CS:           cs,
		HP:           hp,
		Circles:      circles,
		Sliders:      sliders,
		Spinners:     spinners,
		MaxCombo:     bm.MaxCombo(),
		DrainSeconds: (last - first) / 1000 / clock,
		AimRating:    aim,
		SpeedRating:  speed,
		Stars:        stars,
	}
	attrs.MaxPP = performance(attrs, 1, attrs.MaxCombo, 0)
	return attrs
}

// adjustStats applies HR/EZ scaling and converts AR and OD through their
// hit windows so rate-changing mods are reflected.
func adjustStats(bm *Beatmap, mods osuvsdomain.Mods, clock float64) (ar, od, cs, hp float64) {
	ar, od, cs, hp = bm.AR, bm.OD, bm.CS, bm.HP
	switch {
	case mods.Contains(osuvsdomain.ModHardRock):
		cs = math.Min(cs*1.3, 10)
		ar = math.Min(ar*1.4, 10)
		od = math.Min(od*1.4, 10)
		hp = math.Min(hp*1.4, 10)
	case mods.Contains(osuvsdomain.ModEasy):
		cs *= 0.5
		ar *= 0.5
		od *= 0.5
		hp *= 0.5
	}

	preempt := 1200 - 150*(ar-5)
	if ar < 5 {
		preempt = 1800 - 120*ar
	}
	preempt /= clock
	if preempt > 1200 {
		ar = (1800 - preempt) / 120
	} else {
		ar = (1200-preempt)/150 + 5
	}

	window := (80 - 6*od) / clock
	od = (80 - window) / 6
	return ar, od, cs, hp
}

// strainRatings rates aim from jump distance over time and speed from object
// density. Per-section peaks are weighted with a geometric decay.
func strainRatings(objects []HitObject, cs, clock float64) (aim, speed float64) {
	if len(objects) < 2 {
		return 0, 0
	}
	radius := 54.4 - 4.48*cs
	if radius < 1 {
		radius = 1
	}

	var aimPeaks, speedPeaks []float64
	sectionEnd := objects[0].Time/clock + strainSection
	var aimPeak, speedPeak float64
	for i := 1; i < len(objects); i++ {
		prev, cur := objects[i-1], objects[i]
		t := cur.Time / clock
		for t > sectionEnd {
			aimPeaks = append(aimPeaks, aimPeak)
			speedPeaks = append(speedPeaks, speedPeak)
			aimPeak, speedPeak = 0, 0
			sectionEnd += strainSection
		}
		if cur.Kind == Spinner {
			continue
		}

		delta := math.Max((cur.Time-prev.Time)/clock, minDeltaTime)
		jump := math.Hypot(cur.X-prev.X, cur.Y-prev.Y) / (2 * radius)
		aimPeak = math.Max(aimPeak, jump*1000/delta)
		speedPeak = math.Max(speedPeak, 1000/delta)
	}
	aimPeaks = append(aimPeaks, aimPeak)
	speedPeaks = append(speedPeaks, speedPeak)

	return math.Sqrt(weightedSum(aimPeaks)) * skillMultiplier,
		math.Sqrt(weightedSum(speedPeaks)) * skillMultiplier
}

func weightedSum(peaks []float64) float64 {
	sorted := append([]float64(nil), peaks...)
	sort.Sort(sort.Reverse(sort.Float64Slice(sorted)))
	total, weight := 0.0, 1.0
	for _, p := range sorted {
		total += p * weight
		weight *= strainDecay
	}
	return total
}
