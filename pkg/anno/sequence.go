// Package anno is the keyframe animation engine for bounding box annotations.
// A Sequence holds the keyframes that a human authored for one tracked object,
// and everything in between is derived: BoxAtFrame interpolates a box for any
// frame, and ProjectMotionPath produces a drawable trajectory.
package anno

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"slices"
	"sort"
)

var ErrValidation = errors.New("invalid bounding box")
var ErrNotFound = errors.New("keyframe not found")
var ErrInvalidOperation = errors.New("invalid keyframe operation")
var ErrOutOfRange = errors.New("segment index out of range")
var ErrDuplicateFrame = errors.New("duplicate keyframe frame number")

// SegmentType is the interpolation rule governing the gap between two adjacent
// keyframes. It is a string rather than a closed enum so that new rules (eg bezier,
// which is what ControlPoints exists for) can be added without breaking stored
// sequences. Unknown types interpolate as linear.
type SegmentType string

const (
	// The box stays at the earlier keyframe until the later keyframe's frame,
	// where it steps to the later box.
	SegmentHold SegmentType = "hold"
	// Each of x/y/width/height is linearly interpolated between the two keyframes.
	SegmentLinear SegmentType = "linear"
)

// BoundingBox is a keyframe: a box that a human authored at a specific frame.
type BoundingBox struct {
	Rect
	FrameNumber int  `json:"frameNumber"`
	IsKeyframe  bool `json:"isKeyframe"`
}

// Legacy payloads omit isKeyframe, and an absent flag means "is a keyframe".
// We normalize that here so the rest of the engine never sees the ambiguity.
func (b *BoundingBox) UnmarshalJSON(data []byte) error {
	type boundingBoxNoMethods BoundingBox
	tmp := boundingBoxNoMethods{IsKeyframe: true}
	if err := json.Unmarshal(data, &tmp); err != nil {
		return err
	}
	*b = BoundingBox(tmp)
	return nil
}

// InterpolationSegment describes how to interpolate between two consecutive keyframes.
type InterpolationSegment struct {
	StartFrame    int         `json:"startFrame"`
	EndFrame      int         `json:"endFrame"`
	Type          SegmentType `json:"type"`
	ControlPoints []Point     `json:"controlPoints,omitempty"`
}

// VisibilityRange is a frame interval during which the tracked object is considered
// present. A sequence with no ranges is visible everywhere. With ranges, any frame
// outside all of them is invisible.
type VisibilityRange struct {
	StartFrame int  `json:"startFrame"`
	EndFrame   int  `json:"endFrame"`
	Visible    bool `json:"visible"`
}

func (v VisibilityRange) Contains(frame int) bool {
	return frame >= v.StartFrame && frame <= v.EndFrame
}

// Sequence is the animated bounding box of one annotation. Boxes holds keyframes
// only, sorted ascending by frame number, with unique frame numbers. Segments is
// always len(Boxes)-1 entries (or empty below two keyframes), contiguous across the
// keyframe span. TotalFrames/KeyframeCount/InterpolatedFrameCount are derived and
// recomputed on every mutation.
//
// A sequence is owned by exactly one annotation, and all mutation goes through the
// editing operations in editor.go. Readers (interpolator, projector, renderers)
// never write.
type Sequence struct {
	Boxes                  []BoundingBox          `json:"boxes"`
	Segments               []InterpolationSegment `json:"interpolationSegments"`
	VisibilityRanges       []VisibilityRange      `json:"visibilityRanges"`
	TotalFrames            int                    `json:"totalFrames"`
	KeyframeCount          int                    `json:"keyframeCount"`
	InterpolatedFrameCount int                    `json:"interpolatedFrameCount"`

	// Bumped on every successful mutation. Derived-view caches key on this.
	// Not serialized.
	revision int64
}

// NewSequence creates a sequence with a single keyframe, which is how every
// sequence starts its life (the user draws the first box).
func NewSequence(frame int, box Rect) (*Sequence, error) {
	if frame < 0 {
		return nil, fmt.Errorf("%w: frame number %v is negative", ErrValidation, frame)
	}
	if !box.IsValid() {
		return nil, fmt.Errorf("%w: width and height must be positive", ErrValidation)
	}
	s := &Sequence{
		Boxes: []BoundingBox{{Rect: box, FrameNumber: frame, IsKeyframe: true}},
	}
	s.recompute()
	return s, nil
}

// Revision increases by one on every successful mutation.
func (s *Sequence) Revision() int64 {
	return s.revision
}

func (s *Sequence) FirstFrame() int {
	if len(s.Boxes) == 0 {
		return 0
	}
	return s.Boxes[0].FrameNumber
}

func (s *Sequence) LastFrame() int {
	if len(s.Boxes) == 0 {
		return 0
	}
	return s.Boxes[len(s.Boxes)-1].FrameNumber
}

// Clone returns a deep copy. The copy carries the same revision as the original.
func (s *Sequence) Clone() *Sequence {
	c := &Sequence{
		TotalFrames:            s.TotalFrames,
		KeyframeCount:          s.KeyframeCount,
		InterpolatedFrameCount: s.InterpolatedFrameCount,
		revision:               s.revision,
	}
	c.Boxes = slices.Clone(s.Boxes)
	c.VisibilityRanges = slices.Clone(s.VisibilityRanges)
	c.Segments = slices.Clone(s.Segments)
	for i := range c.Segments {
		c.Segments[i].ControlPoints = slices.Clone(c.Segments[i].ControlPoints)
	}
	return c
}

// IsVisible returns whether the object is considered present at the given frame.
func (s *Sequence) IsVisible(frame int) bool {
	if len(s.VisibilityRanges) == 0 {
		return true
	}
	for _, r := range s.VisibilityRanges {
		if r.Contains(frame) {
			return r.Visible
		}
	}
	return false
}

// findKeyframe returns the index of the first keyframe with FrameNumber >= frame,
// and whether that keyframe is exactly at frame.
func (s *Sequence) findKeyframe(frame int) (int, bool) {
	i := sort.Search(len(s.Boxes), func(i int) bool {
		return s.Boxes[i].FrameNumber >= frame
	})
	return i, i < len(s.Boxes) && s.Boxes[i].FrameNumber == frame
}

// IsKeyframeAt returns whether the given frame is an authored keyframe.
func (s *Sequence) IsKeyframeAt(frame int) bool {
	_, exact := s.findKeyframe(frame)
	return exact
}

// NearestKeyframe returns the frame number of the keyframe closest to the given
// frame. Ties go to the earlier keyframe. Returns false if there are no keyframes.
func (s *Sequence) NearestKeyframe(frame int) (int, bool) {
	if len(s.Boxes) == 0 {
		return 0, false
	}
	i, exact := s.findKeyframe(frame)
	if exact {
		return frame, true
	}
	if i == 0 {
		return s.Boxes[0].FrameNumber, true
	}
	if i == len(s.Boxes) {
		return s.Boxes[len(s.Boxes)-1].FrameNumber, true
	}
	before := s.Boxes[i-1].FrameNumber
	after := s.Boxes[i].FrameNumber
	if frame-before <= after-frame {
		return before, true
	}
	return after, true
}

// segmentTypeBetween returns the interpolation rule of the segment starting at
// startFrame. Falls back to linear if the segment list is inconsistent, or if the
// stored type is one we don't understand.
func (s *Sequence) segmentTypeBetween(keyframeIdx int) SegmentType {
	if keyframeIdx < 0 || keyframeIdx >= len(s.Segments) {
		return SegmentLinear
	}
	seg := s.Segments[keyframeIdx]
	if seg.StartFrame != s.Boxes[keyframeIdx].FrameNumber {
		return SegmentLinear
	}
	if seg.Type == SegmentHold {
		return SegmentHold
	}
	return SegmentLinear
}

// recompute rebuilds the derived fields and bumps the revision.
// Every mutation ends with a call to recompute.
func (s *Sequence) recompute() {
	s.KeyframeCount = len(s.Boxes)
	if len(s.Boxes) == 0 {
		s.TotalFrames = 0
	} else {
		s.TotalFrames = s.LastFrame() - s.FirstFrame() + 1
	}
	s.InterpolatedFrameCount = s.TotalFrames - s.KeyframeCount
	if s.InterpolatedFrameCount < 0 {
		s.InterpolatedFrameCount = 0
	}
	s.revision++
}

// Normalize is the ingestion boundary for sequences arriving from outside
// (deserialized from storage or from an API client). It sorts keyframes, rejects
// duplicate frame numbers, drops boxes explicitly marked as not keyframes (those
// are derived data that a buggy client may have persisted), validates geometry,
// and rebuilds the segment list if it doesn't line up with the keyframes.
func (s *Sequence) Normalize() error {
	boxes := make([]BoundingBox, 0, len(s.Boxes))
	for _, b := range s.Boxes {
		if !b.IsKeyframe {
			continue
		}
		if b.FrameNumber < 0 {
			return fmt.Errorf("%w: frame number %v is negative", ErrValidation, b.FrameNumber)
		}
		if !b.IsValid() {
			return fmt.Errorf("%w: box at frame %v has non-positive dimensions", ErrValidation, b.FrameNumber)
		}
		boxes = append(boxes, b)
	}
	slices.SortFunc(boxes, func(a, b BoundingBox) int {
		return a.FrameNumber - b.FrameNumber
	})
	for i := 1; i < len(boxes); i++ {
		if boxes[i].FrameNumber == boxes[i-1].FrameNumber {
			return fmt.Errorf("%w: frame %v", ErrDuplicateFrame, boxes[i].FrameNumber)
		}
	}
	for i := 1; i < len(s.VisibilityRanges); i++ {
		if s.VisibilityRanges[i].StartFrame <= s.VisibilityRanges[i-1].EndFrame {
			return fmt.Errorf("%w: visibility ranges overlap at frame %v", ErrValidation, s.VisibilityRanges[i].StartFrame)
		}
	}
	s.Boxes = boxes

	if !s.segmentsConsistent() {
		s.rebuildSegments()
	}
	s.recompute()
	return nil
}

func (s *Sequence) segmentsConsistent() bool {
	if len(s.Boxes) < 2 {
		return len(s.Segments) == 0
	}
	if len(s.Segments) != len(s.Boxes)-1 {
		return false
	}
	for i, seg := range s.Segments {
		if seg.StartFrame != s.Boxes[i].FrameNumber || seg.EndFrame != s.Boxes[i+1].FrameNumber {
			return false
		}
	}
	return true
}

// rebuildSegments discards the segment list and recreates it as all-linear.
// Used when ingesting a sequence whose segments don't match its keyframes.
func (s *Sequence) rebuildSegments() {
	if len(s.Boxes) < 2 {
		s.Segments = nil
		return
	}
	segs := make([]InterpolationSegment, len(s.Boxes)-1)
	for i := range segs {
		segs[i] = InterpolationSegment{
			StartFrame: s.Boxes[i].FrameNumber,
			EndFrame:   s.Boxes[i+1].FrameNumber,
			Type:       SegmentLinear,
		}
	}
	s.Segments = segs
}

// TimeToFrame converts a playback time in seconds to a frame index,
// for authoring a keyframe at the current playhead position.
func TimeToFrame(seconds, fps float64) int {
	if seconds < 0 || fps <= 0 {
		return 0
	}
	return int(math.Round(seconds * fps))
}

// FrameToTime converts a frame index to a playback time in seconds.
func FrameToTime(frame int, fps float64) float64 {
	if fps <= 0 {
		return 0
	}
	return float64(frame) / fps
}
