package difficulty

import (
	"math"

	osuvsdomain "github.com/5joshi/OsuBelgiumBot/app/modules/osuvs/domain"
)

// Performance scores a submission against the map's attributes.
func Performance(attrs Attributes, sub osuvsdomain.Submission) float64 {
	acc := sub.Accuracy
	if acc <= 0 {
		acc = sub.Statistics.Accuracy()
	}
	if acc > 1 {
		acc /= 100
	}
	combo := int(sub.MaxCombo)
	if combo <= 0 || combo > attrs.MaxCombo {
		combo = attrs.MaxCombo
	}
	return performance(attrs, acc, combo, int(sub.Statistics.CountMiss))
}

func performance(attrs Attributes, acc float64, combo, misses int) float64 {
	objects := float64(attrs.Circles + attrs.Sliders + attrs.Spinners)

	lengthBonus := 0.95 + 0.4*math.Min(1, objects/2000)
	if objects > 2000 {
		lengthBonus += math.Log10(objects/2000) * 0.5
	}
	missPenalty := math.Pow(0.97, float64(misses))
	comboScale := 1.0
	if attrs.MaxCombo > 0 {
		comboScale = math.Min(math.Pow(float64(combo)/float64(attrs.MaxCombo), 0.8), 1)
	}
	arBonus := 1.0
	switch {
	case attrs.AR > 10.33:
		arBonus += 0.3 * (attrs.AR - 10.33)
	case attrs.AR < 8:
		arBonus += 0.01 * (8 - attrs.AR)
	}

	aim := skillValue(attrs.AimRating) * lengthBonus * missPenalty * comboScale * arBonus
	if attrs.Mods.Contains(osuvsdomain.ModHidden) {
		aim *= 1 + 0.04*(12-attrs.AR)
	}
	aim *= 0.5 + acc/2
	aim *= 0.98 + attrs.OD*attrs.OD/2500

	speed := skillValue(attrs.SpeedRating) * lengthBonus * missPenalty * comboScale * arBonus
	if attrs.Mods.Contains(osuvsdomain.ModHidden) {
		speed *= 1 + 0.04*(12-attrs.AR)
	}
	speed *= (0.95 + attrs.OD*attrs.OD/750) * math.Pow(acc, (14.5-math.Max(attrs.OD, 8))/2)

	accuracy := math.Pow(1.52163, attrs.OD) * math.Pow(acc, 24) * 2.83
	accuracy *= math.Min(1.15, math.Pow(float64(max(attrs.Circles, 1))/1000, 0.3))
	if attrs.Mods.Contains(osuvsdomain.ModHidden) {
		accuracy *= 1.08
	}
	if attrs.Mods.Contains(osuvsdomain.ModFlashlight) {
		accuracy *= 1.02
	}

	multiplier := 1.12
	if attrs.Mods.Contains(osuvsdomain.ModNoFail) {
		multiplier *= 0.9
	}
	if attrs.Mods.Contains(osuvsdomain.ModSpunOut) {
		multiplier *= 0.95
	}

	total := math.Pow(math.Pow(aim, 1.1)+math.Pow(speed, 1.1)+math.Pow(accuracy, 1.1), 1/1.1) * multiplier
	if math.IsNaN(total) || math.IsInf(total, 0) {
		return 0
	}
	return total
}

func skillValue(rating float64) float64 {
	return math.Pow(5*math.Max(1, rating/0.0675)-4, 3) / 100000
}
