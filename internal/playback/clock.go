// Package playback maps wall-clock time onto discrete frame indices.
// The frame clock drives both continuous playback ticks and direct
// timeline scrubbing.
package playback

import (
	"math"
	"time"

	"github.com/giering/throwsage-viewer/internal/timeutil"
)

// LoopPolicy controls what happens when playback reaches the end of
// the active range. The tagging and viewing tools historically
// disagreed on this, so it is configuration rather than behavior.
type LoopPolicy int

const (
	// LoopToZero restarts playback at frame 0.
	LoopToZero LoopPolicy = iota
	// LoopToRangeMin restarts playback at the active range minimum.
	LoopToRangeMin
	// StopAtEnd pauses on the last frame of the active range.
	StopAtEnd
)

// Range is the active scrub/playback window in frames, inclusive.
type Range struct {
	Min int `json:"min"`
	Max int `json:"max"`
}

// Clamp returns frame forced into the range.
func (r Range) Clamp(frame int) int {
	if frame < r.Min {
		return r.Min
	}
	if frame > r.Max {
		return r.Max
	}
	return frame
}

// Clock converts elapsed playback time into a frame index at a fixed
// frame rate. All mutation happens on the owning session's goroutine;
// the clock itself carries no locking.
type Clock struct {
	fps    float64
	total  int
	policy LoopPolicy
	time   timeutil.Clock

	rng     Range
	playing bool
	speed   float64

	// offset is the accumulated playback position in seconds while
	// paused; startedAt marks when the current play span began.
	offset    float64
	startedAt time.Time

	frame       int
	subscribers []func(frame int)
}

// NewClock creates a frame clock over total frames at fps, using the
// injected time source.
func NewClock(fps float64, total int, policy LoopPolicy, ts timeutil.Clock) *Clock {
	return &Clock{
		fps:    fps,
		total:  total,
		policy: policy,
		time:   ts,
		rng:    Range{Min: 0, Max: total - 1},
		speed:  1,
	}
}

// Subscribe registers a callback invoked whenever the displayed frame
// changes (playback tick, seek, step, or range clamp).
func (c *Clock) Subscribe(f func(frame int)) {
	c.subscribers = append(c.subscribers, f)
}

func (c *Clock) notify() {
	for _, f := range c.subscribers {
		f(c.frame)
	}
}

// Frame returns the current frame.
func (c *Clock) Frame() int { return c.frame }

// Playing reports whether playback is running.
func (c *Clock) Playing() bool { return c.playing }

// Speed returns the playback speed multiplier.
func (c *Clock) Speed() float64 { return c.speed }

// ActiveRange returns the current playback window.
func (c *Clock) ActiveRange() Range { return c.rng }

// position is the playback position in seconds.
func (c *Clock) position() float64 {
	p := c.offset
	if c.playing {
		p += c.time.Since(c.startedAt).Seconds() * c.speed
	}
	return p
}

// setPosition rebases the playback position to seconds.
func (c *Clock) setPosition(seconds float64) {
	c.offset = seconds
	if c.playing {
		c.startedAt = c.time.Now()
	}
}

// Play starts playback from the current frame.
func (c *Clock) Play() {
	if c.playing {
		return
	}
	c.playing = true
	c.startedAt = c.time.Now()
}

// Pause stops playback, freezing the position.
func (c *Clock) Pause() {
	if !c.playing {
		return
	}
	c.offset = c.position()
	c.playing = false
}

// SetSpeed changes the playback speed multiplier. The nominal fps is
// unaffected; only the time-to-frame conversion scales.
func (c *Clock) SetSpeed(speed float64) {
	if speed <= 0 {
		return
	}
	c.offset = c.position()
	if c.playing {
		c.startedAt = c.time.Now()
	}
	c.speed = speed
}

// Seek pauses playback and jumps to frame, clamped to the active
// range. Scrubbing always pauses first.
func (c *Clock) Seek(frame int) {
	c.Pause()
	c.frame = c.rng.Clamp(frame)
	c.setPosition(float64(c.frame) / c.fps)
	c.notify()
}

// Step moves by delta frames (normally +-1), clamped to the active
// range, pausing playback first.
func (c *Clock) Step(delta int) {
	c.Seek(c.frame + delta)
}

// SetRange installs a new active window and clamps the current frame
// into it.
func (c *Clock) SetRange(r Range) {
	if r.Min < 0 {
		r.Min = 0
	}
	if r.Max > c.total-1 {
		r.Max = c.total - 1
	}
	if r.Max < r.Min {
		r.Max = r.Min
	}
	c.rng = r
	if clamped := r.Clamp(c.frame); clamped != c.frame {
		c.frame = clamped
		c.setPosition(float64(c.frame) / c.fps)
		c.notify()
	}
}

// Tick recomputes the target frame from the time source. Call once
// per render tick; if the target differs from the displayed frame and
// lies within the active range, the frame updates and subscribers are
// notified. Reaching the end of the range applies the loop policy.
func (c *Clock) Tick() {
	if !c.playing {
		return
	}
	target := int(math.Round(c.position() * c.fps))
	if target > c.rng.Max {
		switch c.policy {
		case LoopToZero:
			target = 0
		case LoopToRangeMin:
			target = c.rng.Min
		case StopAtEnd:
			c.frame = c.rng.Max
			c.offset = float64(c.frame) / c.fps
			c.playing = false
			c.notify()
			return
		}
		c.setPosition(float64(target) / c.fps)
	}
	if target < c.rng.Min {
		target = c.rng.Min
		c.setPosition(float64(target) / c.fps)
	}
	if target != c.frame {
		c.frame = target
		c.notify()
	}
}
