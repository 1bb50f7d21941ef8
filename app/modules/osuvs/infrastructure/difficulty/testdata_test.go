package difficulty

import (
	"fmt"
	"strings"
)

// testBeatmap builds a stream-and-jump map: n objects at the given spacing in ms,
// alternating between two points distance px apart, followed by a slider and a spinner.
func testBeatmap(n int, spacing float64, distance int) string {
	var b strings.Builder
	b.WriteString("osu file format v14\n\n[General]\nMode: 0\n\n[Metadata]\nTitle:Test\nArtist:Tester\nVersion:Insane\nBeatmapID:42\n\n")
	b.WriteString("[Difficulty]\nHPDrainRate:5\nCircleSize:4\nOverallDifficulty:8\nApproachRate:9\nSliderMultiplier:1.4\nSliderTickRate:1\n\n")
	b.WriteString("[TimingPoints]\n0,300,4,2,0,50,1,0\n\n[HitObjects]\n")
	t := 1000.0
	for i := 0; i < n; i++ {
		x := 256
		if i%2 == 1 {
			x += distance
		}
		fmt.Fprintf(&b, "%d,192,%d,1,0,0:0:0:0:\n", x, int(t))
		t += spacing
	}
	fmt.Fprintf(&b, "100,100,%d,2,0,B|200:100,2,100\n", int(t))
	t += 1000
	fmt.Fprintf(&b, "256,192,%d,12,0,%d,0:0:0:0:\n", int(t), int(t)+2000)
	return b.String()
}
