package anno

// PathPoint is one sample of an annotation's motion trajectory, in video pixel
// space. X/Y is the box center.
type PathPoint struct {
	Frame      int     `json:"frame"`
	X          float32 `json:"x"`
	Y          float32 `json:"y"`
	IsKeyframe bool    `json:"isKeyframe"`
	// Break means the path restarts here: don't draw a line from the previous
	// point to this one (the object was invisible in between).
	Break bool `json:"break,omitempty"`
}

// ProjectMotionPath samples the trajectory of a sequence at every keyframe
// transition. Hold segments contribute an axis-aligned step instead of a diagonal
// (the path turns at the corner point rather than cutting across), and the path
// breaks across invisible gaps instead of connecting through them.
//
// The output is a read-only view, derived entirely from the sequence.
func ProjectMotionPath(seq *Sequence) []PathPoint {
	if seq == nil || len(seq.Boxes) == 0 {
		return nil
	}
	path := make([]PathPoint, 0, len(seq.Boxes))
	prevEmitted := -1 // index into seq.Boxes of the last emitted keyframe
	for i := range seq.Boxes {
		kf := &seq.Boxes[i]
		if !seq.IsVisible(kf.FrameNumber) {
			continue
		}
		center := kf.Center()
		breakHere := false
		if prevEmitted >= 0 {
			prev := &seq.Boxes[prevEmitted]
			if prevEmitted != i-1 || !visibleThroughout(seq, prev.FrameNumber, kf.FrameNumber) {
				// A keyframe or part of the gap in between is invisible
				breakHere = true
			} else if seq.segmentTypeBetween(i-1) == SegmentHold {
				// Hold: the box sits still at prev until kf's frame, then jumps.
				// Render that as a corner, not a diagonal.
				prevCenter := prev.Center()
				path = append(path, PathPoint{
					Frame: kf.FrameNumber,
					X:     center.X,
					Y:     prevCenter.Y,
				})
			}
		}
		path = append(path, PathPoint{
			Frame:      kf.FrameNumber,
			X:          center.X,
			Y:          center.Y,
			IsKeyframe: true,
			Break:      breakHere,
		})
		prevEmitted = i
	}
	return path
}

// visibleThroughout returns whether every frame in [start, end] is visible.
func visibleThroughout(seq *Sequence, start, end int) bool {
	if len(seq.VisibilityRanges) == 0 {
		return true
	}
	// Ranges are sorted and non-overlapping (enforced at ingestion), so we can
	// walk them and demand that visible ranges cover [start, end] completely.
	covered := start
	for _, r := range seq.VisibilityRanges {
		if r.EndFrame < covered {
			continue
		}
		if r.StartFrame > covered {
			return false
		}
		if !r.Visible {
			return false
		}
		covered = r.EndFrame + 1
		if covered > end {
			return true
		}
	}
	return false
}

// Projector caches the most recent motion path projection. The cache is
// invalidated by the sequence's revision, which every mutation bumps, so a
// projector can be polled freely from a render loop.
type Projector struct {
	seq      *Sequence
	revision int64
	path     []PathPoint
	valid    bool
}

func (p *Projector) Path(seq *Sequence) []PathPoint {
	if p.valid && p.seq == seq && seq != nil && p.revision == seq.Revision() {
		return p.path
	}
	p.path = ProjectMotionPath(seq)
	p.seq = seq
	if seq != nil {
		p.revision = seq.Revision()
	}
	p.valid = true
	return p.path
}

// Invalidate drops the cached path.
func (p *Projector) Invalidate() {
	p.valid = false
	p.path = nil
}
