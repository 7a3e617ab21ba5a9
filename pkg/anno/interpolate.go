package anno

// BoxAtFrame returns the box of the sequence at the given frame.
// Pure and deterministic, so callers are free to memoize per frame.
//
// Returns false when the sequence has no keyframes, or when the frame lies outside
// every visibility range. Frames before the first keyframe or after the last clamp
// to the nearest keyframe's box; we never extrapolate beyond the authored span.
func BoxAtFrame(seq *Sequence, frame int) (Rect, bool) {
	if seq == nil || len(seq.Boxes) == 0 {
		return Rect{}, false
	}
	if !seq.IsVisible(frame) {
		return Rect{}, false
	}
	i, exact := seq.findKeyframe(frame)
	if exact {
		return seq.Boxes[i].Rect, true
	}
	if i == 0 {
		// Before the first keyframe
		return seq.Boxes[0].Rect, true
	}
	if i == len(seq.Boxes) {
		// After the last keyframe
		return seq.Boxes[len(seq.Boxes)-1].Rect, true
	}
	prev := &seq.Boxes[i-1]
	next := &seq.Boxes[i]
	if seq.segmentTypeBetween(i-1) == SegmentHold {
		// Hold: prev's box for every frame up to (excluding) next's frame.
		// The step at next's frame is handled by the exact-match case above.
		return prev.Rect, true
	}
	t := float32(frame-prev.FrameNumber) / float32(next.FrameNumber-prev.FrameNumber)
	return prev.Rect.Lerp(next.Rect, t), true
}
