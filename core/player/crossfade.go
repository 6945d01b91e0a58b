package player

import (
	"time"

	"CrossFM/logger"
)

// Crossfade tuning. 40 steps of 100ms gives a 4 second linear ramp; the
// trigger fires once fewer than fadeTriggerWindow seconds remain on tracks
// longer than fadeMinDuration.
const (
	DefaultFadeSteps        = 40
	DefaultFadeStepInterval = 100 * time.Millisecond
	fadeTriggerWindow       = 4.0
	fadeMinDuration         = 10.0
)

// FadeVolumes returns the channel volumes at ramp step k of total:
// the incoming channel at k/total, the outgoing at 1-k/total. The two
// always sum to 1.
func FadeVolumes(step, total int) (incoming, outgoing float64) {
	if total <= 0 {
		return 1, 0
	}
	if step < 0 {
		step = 0
	}
	if step > total {
		step = total
	}
	incoming = float64(step) / float64(total)
	return incoming, 1 - incoming
}

// shouldCrossfade is the per-tick trigger: close enough to the end of a
// long enough track, and not already fading.
func shouldCrossfade(position, duration float64, fading bool) bool {
	if fading {
		return false
	}
	if duration <= fadeMinDuration {
		return false
	}
	return duration-position < fadeTriggerWindow
}

// fade is one in-flight crossfade ramp. Cancelling closes the channel; the
// ramp goroutine observes it between steps, so no orphaned timer keeps
// adjusting volumes after a manual track change.
type fade struct {
	steps        int
	stepInterval time.Duration
	cancel       chan struct{}
}

func newFade(steps int, stepInterval time.Duration) *fade {
	return &fade{steps: steps, stepInterval: stepInterval, cancel: make(chan struct{})}
}

// runFade executes the ramp: strict step order, incoming 0→master and
// outgoing master→0 in lockstep. On completion the outgoing channel is
// stopped and released.
func (c *Controller) runFade(f *fade, outgoing, incoming Channel, master float64) {
	ticker := time.NewTicker(f.stepInterval)
	defer ticker.Stop()

	for step := 1; step <= f.steps; step++ {
		select {
		case <-f.cancel:
			return
		case <-ticker.C:
			in, out := FadeVolumes(step, f.steps)
			incoming.SetVolume(in * master)
			outgoing.SetVolume(out * master)
		}
	}

	c.mu.Lock()
	if c.fade == f {
		outgoing.Stop()
		c.outgoing = nil
		c.fadingFromID = ""
		c.fade = nil
	}
	state := c.stateLocked()
	c.mu.Unlock()

	logger.Debug("crossfade complete", logger.String("trackId", state.TrackID))
	c.publish(state)
}
