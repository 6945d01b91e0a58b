package player

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFadeVolumesEndpoints(t *testing.T) {
	in, out := FadeVolumes(0, 40)
	assert.Equal(t, 0.0, in)
	assert.Equal(t, 1.0, out)

	in, out = FadeVolumes(40, 40)
	assert.Equal(t, 1.0, in)
	assert.Equal(t, 0.0, out)
}

func TestFadeVolumesSumToOne(t *testing.T) {
	prev := -1.0
	for step := 0; step <= 40; step++ {
		in, out := FadeVolumes(step, 40)
		assert.InDelta(t, 1.0, in+out, 1e-9, "step %d", step)
		assert.Greater(t, in, prev, "incoming volume is strictly increasing")
		prev = in
	}
}

func TestFadeVolumesClampsOutOfRange(t *testing.T) {
	in, out := FadeVolumes(-3, 40)
	assert.Equal(t, 0.0, in)
	assert.Equal(t, 1.0, out)

	in, out = FadeVolumes(50, 40)
	assert.Equal(t, 1.0, in)
	assert.Equal(t, 0.0, out)

	in, out = FadeVolumes(5, 0)
	assert.Equal(t, 1.0, in)
	assert.Equal(t, 0.0, out)
}

func TestShouldCrossfade(t *testing.T) {
	// Inside the trigger window on a long enough track.
	assert.True(t, shouldCrossfade(8.1, 12, false))
	// Still outside the window.
	assert.False(t, shouldCrossfade(7.9, 12, false))
	// Window boundary is exclusive.
	assert.False(t, shouldCrossfade(8.0, 12, false))
	// Short tracks never fade, even in their final seconds.
	assert.False(t, shouldCrossfade(8.5, 9, false))
	assert.False(t, shouldCrossfade(9.9, 10, false))
	// An in-flight fade suppresses retriggering.
	assert.True(t, shouldCrossfade(11.5, 12, false))
	assert.False(t, shouldCrossfade(11.5, 12, true))
}
