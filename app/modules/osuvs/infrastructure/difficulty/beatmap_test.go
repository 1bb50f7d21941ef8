package difficulty

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseBeatmap(t *testing.T) {
	bm, err := ParseBeatmap(strings.NewReader(testBeatmap(10, 150, 200)))
	require.NoError(t, err)

	assert.Equal(t, 0, bm.Mode)
	assert.Equal(t, "Test", bm.Title)
	assert.Equal(t, uint32(42), bm.BeatmapID)
	assert.Equal(t, 9.0, bm.AR)
	assert.Equal(t, 8.0, bm.OD)
	assert.Equal(t, 4.0, bm.CS)

	circles, sliders, spinners := bm.Counts()
	assert.Equal(t, 10, circles)
	assert.Equal(t, 1, sliders)
	assert.Equal(t, 1, spinners)
	// 10 circles, slider with two slides (head + 2), spinner.
	assert.Equal(t, 14, bm.MaxCombo())

	spinner := bm.Objects[len(bm.Objects)-1]
	assert.Equal(t, Spinner, spinner.Kind)
	assert.Equal(t, spinner.Time+2000, spinner.EndTime)
}

func TestParseBeatmap_ApproachRateFallsBackToOD(t *testing.T) {
	src := strings.Replace(testBeatmap(4, 200, 100), "ApproachRate:9\n", "", 1)
	bm, err := ParseBeatmap(strings.NewReader(src))
	require.NoError(t, err)
	assert.Equal(t, bm.OD, bm.AR)
}

func TestParseBeatmap_Errors(t *testing.T) {
	_, err := ParseBeatmap(strings.NewReader("osu file format v14\n[Difficulty]\nCircleSize:4\n"))
	assert.ErrorIs(t, err, ErrNoHitObjects)

	_, err = ParseBeatmap(strings.NewReader("[Difficulty]\nCircleSize:big\n"))
	assert.Error(t, err)

	_, err = ParseBeatmap(strings.NewReader("[HitObjects]\n1,2\n"))
	assert.Error(t, err)
}
