package timeline

import (
	"errors"
)

// While scrubbing, snap to a keyframe if one lies within this many frames
// of the frame under the cursor.
const SnapDistance = 3

var ErrInteractionActive = errors.New("another pointer interaction is already active")

type pointerPhase int

const (
	phaseIdle pointerPhase = iota
	phaseDragging
)

// PointerDown starts a scrub. Returns the frame to seek to.
// Starting a second interaction before the first ended is rejected.
func (r *Renderer) PointerDown(x float32) (int, error) {
	if r.destroyed {
		return 0, nil
	}
	if r.scrub != phaseIdle {
		return 0, ErrInteractionActive
	}
	r.scrub = phaseDragging
	return r.seekTarget(x), nil
}

// PointerMove returns the frame to seek to, and whether a scrub is in progress.
// Every move while dragging seeks immediately, so playback follows the cursor.
func (r *Renderer) PointerMove(x float32) (int, bool) {
	if r.destroyed || r.scrub != phaseDragging {
		return 0, false
	}
	return r.seekTarget(x), true
}

// PointerUp ends the scrub. Idempotent.
func (r *Renderer) PointerUp() {
	r.scrub = phaseIdle
}

// PointerLeave ends the scrub exactly like PointerUp.
func (r *Renderer) PointerLeave() {
	r.scrub = phaseIdle
}

// Scrubbing reports whether a scrub interaction is active.
func (r *Renderer) Scrubbing() bool {
	return r.scrub == phaseDragging
}

func (r *Renderer) seekTarget(x float32) int {
	frame := r.XToFrame(x)
	if r.seq != nil {
		if nearest, ok := r.seq.NearestKeyframe(frame); ok && abs(nearest-frame) <= SnapDistance {
			return nearest
		}
	}
	return frame
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
